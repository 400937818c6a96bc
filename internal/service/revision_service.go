// FILE: internal/service/revision_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/qschema"
	"examcraft-be/pkg/llm"
	"examcraft-be/pkg/rag/fusion"
	"examcraft-be/pkg/rag/prompt"
	pkgSearch "examcraft-be/pkg/rag/search"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IRevisionService interface {
	ReviseQuestion(ctx context.Context, userId, paperId uuid.UUID, req *dto.RevisePaperRequest) (*dto.QuestionResponse, error)
	RegenerateAll(ctx context.Context, userId, paperId uuid.UUID, req *dto.RegenerateAllRequest) (*dto.PaperResponse, error)
	RegenerateFailedSlots(ctx context.Context, userId, paperId uuid.UUID, req *dto.RegenerateSlotsRequest) (*dto.PaperResponse, error)
	GetHistory(ctx context.Context, paperId uuid.UUID, questionNumber int) ([]*dto.RevisionResponse, error)
}

type revisionService struct {
	uowFactory   unitofwork.RepositoryFactory
	searcher     *pkgSearch.Orchestrator
	searchConfig pkgSearch.Config
	llmProvider  llm.LLMProvider
	genConfig    config.GenerationConfig
	logger       logger.ILogger
}

func NewRevisionService(
	uowFactory unitofwork.RepositoryFactory,
	searcher *pkgSearch.Orchestrator,
	searchConfig pkgSearch.Config,
	llmProvider llm.LLMProvider,
	genConfig config.GenerationConfig,
	log logger.ILogger,
) IRevisionService {
	if genConfig.Workers <= 0 {
		genConfig.Workers = 4
	}
	if genConfig.MaxRetries <= 0 {
		genConfig.MaxRetries = 3
	}
	return &revisionService{
		uowFactory:   uowFactory,
		searcher:     searcher,
		searchConfig: searchConfig,
		llmProvider:  llmProvider,
		genConfig:    genConfig,
		logger:       log,
	}
}

func (s *revisionService) ReviseQuestion(ctx context.Context, userId, paperId uuid.UUID, req *dto.RevisePaperRequest) (*dto.QuestionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := s.loadRevisablePaper(ctx, uow, paperId)
	if err != nil {
		return nil, err
	}

	question, err := uow.QuestionRepository().FindOne(ctx,
		specification.ByPaperID{PaperID: paperId},
		specification.ByQuestionNumber{Number: req.QuestionNumber},
	)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, fmt.Errorf("question %d not found on paper", req.QuestionNumber)
	}

	if err := s.reviseOne(ctx, uow, paper, question, req.Feedback, userId); err != nil {
		return nil, err
	}

	if err := s.markRevised(ctx, uow, paper); err != nil {
		return nil, err
	}

	resp := toQuestionResponse(question)
	return &resp, nil
}

func (s *revisionService) RegenerateAll(ctx context.Context, userId, paperId uuid.UUID, req *dto.RegenerateAllRequest) (*dto.PaperResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := s.loadRevisablePaper(ctx, uow, paperId)
	if err != nil {
		return nil, err
	}

	questions, err := uow.QuestionRepository().FindByPaperId(ctx, paperId)
	if err != nil {
		return nil, err
	}

	// Bounded fan-out. Each worker holds its own unit of work; failures
	// leave that question untouched but flagged.
	sem := make(chan struct{}, s.genConfig.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for _, q := range questions {
		wg.Add(1)
		go func(question *entity.Question) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			workerUow := s.uowFactory.NewUnitOfWork(ctx)
			if err := s.reviseOne(ctx, workerUow, paper, question, req.Feedback, userId); err != nil {
				s.logger.Warn("revision", "question regeneration failed", map[string]interface{}{
					"paper_id": paperId.String(),
					"number":   question.Number,
					"error":    err.Error(),
				})
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	if succeeded > 0 {
		if err := s.markRevised(ctx, uow, paper); err != nil {
			return nil, err
		}
	}

	paper.Questions = questions
	return toPaperResponse(paper), nil
}

func (s *revisionService) RegenerateFailedSlots(ctx context.Context, userId, paperId uuid.UUID, req *dto.RegenerateSlotsRequest) (*dto.PaperResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := s.loadRevisablePaper(ctx, uow, paperId)
	if err != nil {
		return nil, err
	}

	questions, err := uow.QuestionRepository().FindByPaperId(ctx, paperId)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(req.QuestionNumbers))
	for _, n := range req.QuestionNumbers {
		wanted[n] = true
	}

	var targets []*entity.Question
	for _, q := range questions {
		if !q.Failed {
			continue
		}
		if len(wanted) > 0 && !wanted[q.Number] {
			continue
		}
		targets = append(targets, q)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no failed slots to regenerate")
	}

	sem := make(chan struct{}, s.genConfig.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	recovered := 0

	for _, q := range targets {
		wg.Add(1)
		go func(question *entity.Question) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			workerUow := s.uowFactory.NewUnitOfWork(ctx)
			payload, _, err := s.regenerateContent(ctx, workerUow, question, "")
			if err != nil {
				s.logger.Warn("revision", "failed slot stayed failed", map[string]interface{}{
					"number": question.Number,
					"error":  err.Error(),
				})
				return
			}

			question.ApplyPayload(payload)
			question.RevisionCount-- // Fresh fill of an empty slot, not a revision.
			question.UpdatedAt = time.Now()
			if err := workerUow.QuestionRepository().Update(ctx, question); err != nil {
				return
			}
			mu.Lock()
			recovered++
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	if recovered > 0 {
		paper.FailedSlots -= recovered
		if paper.FailedSlots < 0 {
			paper.FailedSlots = 0
		}
		paper.UpdatedAt = time.Now()
		if err := uow.PaperRepository().Update(ctx, paper); err != nil {
			return nil, err
		}
	}

	paper.Questions = questions
	return toPaperResponse(paper), nil
}

func (s *revisionService) GetHistory(ctx context.Context, paperId uuid.UUID, questionNumber int) ([]*dto.RevisionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.ByPaperID{PaperID: paperId},
	}
	if questionNumber > 0 {
		specs = append(specs, specification.ByQuestionNumber{Number: questionNumber})
	}

	records, err := uow.RevisionRecordRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.RevisionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, &dto.RevisionResponse{
			Id:             r.Id,
			QuestionNumber: r.QuestionNumber,
			Sequence:       r.Sequence,
			Feedback:       r.Feedback,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

// --- internals ---

// loadRevisablePaper fetches the paper and rejects revision on papers past
// the revisable states.
func (s *revisionService) loadRevisablePaper(ctx context.Context, uow unitofwork.UnitOfWork, paperId uuid.UUID) (*entity.Paper, error) {
	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: paperId})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, fmt.Errorf("paper not found")
	}

	if paper.Status != flow.PaperDraft && paper.Status != flow.PaperRevised {
		return nil, &flow.StateTransitionError{Entity: "paper", From: string(paper.Status), To: string(flow.PaperRevised)}
	}
	return paper, nil
}

// reviseOne regenerates a single question with feedback and appends the
// revision record. Content update and record land in one transaction.
func (s *revisionService) reviseOne(ctx context.Context, uow unitofwork.UnitOfWork, paper *entity.Paper, question *entity.Question, feedback string, userId uuid.UUID) error {
	before := *question.Payload()

	payload, _, err := s.regenerateContent(ctx, uow, question, feedback)
	if err != nil {
		return err
	}

	question.ApplyPayload(payload)
	question.UpdatedAt = time.Now()

	record := &entity.RevisionRecord{
		Id:             uuid.New(),
		PaperId:        paper.Id,
		QuestionNumber: question.Number,
		Feedback:       feedback,
		Before:         before,
		After:          *payload,
		RevisedBy:      userId,
		CreatedAt:      time.Now(),
	}

	persist := func() error {
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		if err := uow.QuestionRepository().Update(ctx, question); err != nil {
			return err
		}
		if err := uow.RevisionRecordRepository().Create(ctx, record); err != nil {
			return err
		}
		return uow.Commit()
	}

	err = persist()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Two concurrent revisions of the same question collided on the
		// sequence index. The losing transaction is aborted; a fresh one
		// recomputes the sequence.
		err = persist()
	}
	return err
}

// regenerateContent runs retrieval + prompt + validate for a question,
// optionally with instructor feedback. Empty feedback means a fresh fill of
// a failed slot.
func (s *revisionService) regenerateContent(ctx context.Context, uow unitofwork.UnitOfWork, question *entity.Question, feedback string) (*qschema.Payload, []uuid.UUID, error) {
	query := question.Text
	if query == "" {
		query = fmt.Sprintf("%s questions worth %d marks", question.Section, question.Marks)
	}

	retrieved, err := s.searcher.Retrieve(ctx, uow, pkgSearch.Request{
		Query:      query,
		SourceType: entity.SourceTextbook,
		Marks:      question.Marks,
		Weights:    fusion.DefaultWeights(),
	}, s.searchConfig)
	if err != nil {
		return nil, nil, err
	}

	builder := prompt.NewRevisionBuilder(question, feedback, retrieved.Chunks)

	var lastErr error
	for attempt := 1; attempt <= s.genConfig.MaxRetries; attempt++ {
		raw, err := s.llmProvider.Generate(ctx, builder.Build(), llm.WithTemperature(0.7))
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(retryBackoff(attempt)):
			}
			continue
		}

		payload, err := qschema.Parse(raw)
		if err == nil {
			err = qschema.Validate(question.Type, payload)
		}
		if err != nil {
			// A schema violation feeds back into the next attempt's prompt,
			// mirroring the generation loop.
			lastErr = err
			var vErr *qschema.ValidationError
			if errors.As(err, &vErr) {
				builder.AddCorrection(vErr.Error())
			}
			continue
		}

		ids := make([]uuid.UUID, 0, len(retrieved.Chunks))
		for _, c := range retrieved.Chunks {
			ids = append(ids, c.ChunkId)
		}
		question.Provenance = ids
		return payload, ids, nil
	}

	return nil, nil, fmt.Errorf("exhausted %d attempts: %w", s.genConfig.MaxRetries, lastErr)
}

func (s *revisionService) markRevised(ctx context.Context, uow unitofwork.UnitOfWork, paper *entity.Paper) error {
	if paper.Status == flow.PaperRevised {
		return nil
	}
	if err := flow.CheckPaper(paper.Status, flow.PaperRevised); err != nil {
		return err
	}
	paper.Status = flow.PaperRevised
	paper.UpdatedAt = time.Now()
	return uow.PaperRepository().Update(ctx, paper)
}
