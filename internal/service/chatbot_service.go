// FILE: internal/service/chatbot_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/llm"
	"examcraft-be/pkg/rag/access"
	"examcraft-be/pkg/rag/fusion"
	"examcraft-be/pkg/rag/history"
	"examcraft-be/pkg/rag/prompt"
	pkgSearch "examcraft-be/pkg/rag/search"

	"github.com/google/uuid"
)

// EmitFunc delivers one stream event to the client. Returning an error stops
// the turn; the transport is gone.
type EmitFunc func(event dto.ChatStreamEvent) error

type IChatbotService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateChatSessionRequest) (*dto.ChatSessionResponse, error)
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSessionResponse, error)
	GetMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error

	// StreamTurn runs one tutor turn: quota consume, context assembly,
	// token streaming, persistence. Events arrive in order: one meta, zero
	// or more token, then exactly one done or error.
	StreamTurn(ctx context.Context, userId uuid.UUID, req *dto.ChatTurnRequest, emit EmitFunc) error
}

type chatbotService struct {
	uowFactory    unitofwork.RepositoryFactory
	llmProvider   llm.LLMProvider
	searcher      *pkgSearch.Orchestrator
	searchConfig  pkgSearch.Config
	verifier      *access.Verifier
	historyLoader *history.Loader
	logger        logger.ILogger
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	searcher *pkgSearch.Orchestrator,
	searchConfig pkgSearch.Config,
	chatConfig config.ChatConfig,
	verifier *access.Verifier,
	historyLoader *history.Loader,
	log logger.ILogger,
) IChatbotService {
	if chatConfig.RetrievalTopK > 0 {
		searchConfig.TopK = chatConfig.RetrievalTopK
	}
	return &chatbotService{
		uowFactory:    uowFactory,
		llmProvider:   llmProvider,
		searcher:      searcher,
		searchConfig:  searchConfig,
		verifier:      verifier,
		historyLoader: historyLoader,
		logger:        log,
	}
}

// --- Sessions ---

func (cs *chatbotService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateChatSessionRequest) (*dto.ChatSessionResponse, error) {
	title := req.Title
	if title == "" {
		title = "New conversation"
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return toChatSessionResponse(session), nil
}

func (cs *chatbotService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ChatSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toChatSessionResponse(s))
	}
	return out, nil
}

func (cs *chatbotService) GetMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if _, err := cs.loadOwnSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, &dto.ChatMessageResponse{
			Id:                m.Id,
			Role:              m.Role,
			Content:           m.Content,
			SourceChunkIds:    m.SourceChunkIds,
			SelectedQuestions: m.SelectedQuestions,
			CreatedAt:         m.CreatedAt,
		})
	}
	return out, nil
}

func (cs *chatbotService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if _, err := cs.loadOwnSession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	cs.historyLoader.Invalidate(sessionId)
	return nil
}

// --- Streaming turn ---

func (cs *chatbotService) StreamTurn(ctx context.Context, userId uuid.UUID, req *dto.ChatTurnRequest, emit EmitFunc) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.resolveTurnSession(ctx, uow, userId, req)
	if err != nil {
		return emit(dto.ChatStreamEvent{Type: dto.ChatEventError, Message: err.Error()})
	}

	// Quota is consumed before any generation work starts.
	quota, err := cs.verifier.ConsumeTurn(ctx, uow, userId)
	if err != nil {
		var limitErr *dto.LimitExceededError
		if errors.As(err, &limitErr) {
			return emit(dto.ChatStreamEvent{Type: dto.ChatEventError, Message: limitErr.Error()})
		}
		return emit(dto.ChatStreamEvent{Type: dto.ChatEventError, Message: "failed to check chat quota"})
	}

	questions, err := cs.loadSelectedQuestions(ctx, uow, req.SelectedQuestions)
	if err != nil {
		return emit(dto.ChatStreamEvent{Type: dto.ChatEventError, Message: err.Error()})
	}

	turns, err := cs.historyLoader.Load(ctx, uow, userId, session.Id)
	if err != nil {
		cs.logger.Warn("chatbot", "failed to load history, continuing without", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		turns = nil
	}

	grounding, sources := cs.retrieveContext(ctx, uow, req.Message)

	messageId := uuid.New()
	meta := dto.ChatStreamEvent{
		Type:      dto.ChatEventMeta,
		SessionId: session.Id,
		MessageId: messageId,
		Remaining: quota.Remaining,
	}
	if err := emit(meta); err != nil {
		return err
	}

	promptText := prompt.NewChatBuilder(req.Message, grounding, questions).Build()
	turns = append(turns, llm.Message{Role: "user", Content: promptText})

	answer, err := cs.llmProvider.ChatStream(ctx, turns, func(token string) error {
		return emit(dto.ChatStreamEvent{Type: dto.ChatEventToken, Token: token})
	})
	if err != nil {
		// Nothing is persisted for an aborted or failed turn.
		cs.logger.Error("chatbot", "generation failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return emit(dto.ChatStreamEvent{Type: dto.ChatEventError, Message: "generation failed"})
	}

	if err := cs.persistTurn(ctx, session, req, messageId, answer, sources); err != nil {
		cs.logger.Error("chatbot", "failed to persist turn", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return emit(dto.ChatStreamEvent{Type: dto.ChatEventError, Message: "failed to save message"})
	}

	return emit(dto.ChatStreamEvent{
		Type:      dto.ChatEventDone,
		MessageId: messageId,
		Sources:   sources,
		Remaining: quota.Remaining,
	})
}

// retrieveContext pulls study-material grounding for the turn. Retrieval is
// best effort here: a chat turn without corpus context is still useful.
func (cs *chatbotService) retrieveContext(ctx context.Context, uow unitofwork.UnitOfWork, query string) ([]fusion.Ranked, []uuid.UUID) {
	result, err := cs.searcher.Retrieve(ctx, uow, pkgSearch.Request{
		Query:      query,
		SourceType: entity.SourceTextbook,
		Weights:    fusion.DefaultWeights(),
	}, cs.searchConfig)
	if err != nil {
		var empty *fusion.EmptyRetrievalError
		if !errors.As(err, &empty) {
			cs.logger.Warn("chatbot", "retrieval failed, continuing without context", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, nil
	}

	sources := make([]uuid.UUID, 0, len(result.Chunks))
	for _, c := range result.Chunks {
		sources = append(sources, c.ChunkId)
	}
	return result.Chunks, sources
}

func (cs *chatbotService) loadSelectedQuestions(ctx context.Context, uow unitofwork.UnitOfWork, ids []uuid.UUID) ([]*entity.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	questions, err := uow.QuestionRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}

	// Students may only pin questions from published papers; anything else
	// would leak draft content.
	papers := make(map[uuid.UUID]bool)
	out := make([]*entity.Question, 0, len(questions))
	for _, q := range questions {
		published, seen := papers[q.PaperId]
		if !seen {
			paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: q.PaperId})
			if err != nil {
				return nil, err
			}
			published = paper != nil && paper.Status == flow.PaperPublished
			papers[q.PaperId] = published
		}
		if published {
			out = append(out, q)
		}
	}
	return out, nil
}

// persistTurn writes both halves of the turn in one transaction and keeps the
// in-memory history window warm.
func (cs *chatbotService) persistTurn(ctx context.Context, session *entity.ChatSession, req *dto.ChatTurnRequest, modelMessageId uuid.UUID, answer string, sources []uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	userMsg := &entity.ChatMessage{
		Id:                uuid.New(),
		ChatSessionId:     session.Id,
		Role:              entity.ChatRoleUser,
		Content:           req.Message,
		SelectedQuestions: req.SelectedQuestions,
		CreatedAt:         time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return err
	}

	modelMsg := &entity.ChatMessage{
		Id:             modelMessageId,
		ChatSessionId:  session.Id,
		Role:           entity.ChatRoleModel,
		Content:        answer,
		SourceChunkIds: sources,
		CreatedAt:      time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, modelMsg); err != nil {
		return err
	}

	if session.Title == "New conversation" {
		session.Title = truncateTitle(req.Message, 60)
	}
	session.UpdatedAt = time.Now()
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.historyLoader.Record(session.Id, userMsg)
	cs.historyLoader.Record(session.Id, modelMsg)
	return nil
}

// resolveTurnSession loads the caller's session, or starts a new one when the
// turn carries no session id. The new session is titled from the first message.
func (cs *chatbotService) resolveTurnSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, req *dto.ChatTurnRequest) (*entity.ChatSession, error) {
	if req.SessionId != uuid.Nil {
		return cs.loadOwnSession(ctx, uow, userId, req.SessionId)
	}

	title := req.Message
	if len(title) > 60 {
		title = title[:60]
	}
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (cs *chatbotService) loadOwnSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("chat session not found")
	}
	return session, nil
}

func toChatSessionResponse(s *entity.ChatSession) *dto.ChatSessionResponse {
	return &dto.ChatSessionResponse{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
