// FILE: internal/service/paper_service.go
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
	"examcraft-be/pkg/events"
	"examcraft-be/pkg/exam/blueprint"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/qschema"
	"examcraft-be/pkg/llm"
	pktNats "examcraft-be/pkg/nats"
	"examcraft-be/pkg/rag/fusion"
	"examcraft-be/pkg/rag/prompt"
	pkgSearch "examcraft-be/pkg/rag/search"

	"github.com/google/uuid"
)

type IPaperService interface {
	CreateBlueprint(ctx context.Context, req *dto.CreateBlueprintRequest) (*dto.BlueprintResponse, error)
	ListBlueprints(ctx context.Context) ([]*dto.BlueprintResponse, error)

	GeneratePaper(ctx context.Context, userId uuid.UUID, req *dto.GeneratePaperRequest) (*dto.PaperResponse, error)
	GetPaper(ctx context.Context, id uuid.UUID) (*dto.PaperResponse, error)
	ListPapers(ctx context.Context, status string) ([]*dto.PaperListResponse, error)
	DeletePaper(ctx context.Context, id uuid.UUID) error

	ApprovePaper(ctx context.Context, id uuid.UUID) error
	PublishPaper(ctx context.Context, id uuid.UUID, publishedBy uuid.UUID) error
	UnpublishPaper(ctx context.Context, id uuid.UUID) error
}

type paperService struct {
	uowFactory     unitofwork.RepositoryFactory
	searcher       *pkgSearch.Orchestrator
	searchConfig   pkgSearch.Config
	llmProvider    llm.LLMProvider
	genConfig      config.GenerationConfig
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewPaperService(
	uowFactory unitofwork.RepositoryFactory,
	searcher *pkgSearch.Orchestrator,
	searchConfig pkgSearch.Config,
	llmProvider llm.LLMProvider,
	genConfig config.GenerationConfig,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IPaperService {
	if genConfig.Workers <= 0 {
		genConfig.Workers = 4
	}
	if genConfig.MaxRetries <= 0 {
		genConfig.MaxRetries = 3
	}
	return &paperService{
		uowFactory:     uowFactory,
		searcher:       searcher,
		searchConfig:   searchConfig,
		llmProvider:    llmProvider,
		genConfig:      genConfig,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// --- Blueprints ---

func (s *paperService) CreateBlueprint(ctx context.Context, req *dto.CreateBlueprintRequest) (*dto.BlueprintResponse, error) {
	if err := req.Definition.Validate(); err != nil {
		return nil, err
	}

	bp := &entity.Blueprint{
		Id:         uuid.New(),
		Name:       req.Name,
		Definition: req.Definition,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.BlueprintRepository().Create(ctx, bp); err != nil {
		return nil, err
	}
	return toBlueprintResponse(bp), nil
}

func (s *paperService) ListBlueprints(ctx context.Context) ([]*dto.BlueprintResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	bps, err := uow.BlueprintRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.BlueprintResponse, 0, len(bps))
	for _, bp := range bps {
		out = append(out, toBlueprintResponse(bp))
	}
	return out, nil
}

// --- Generation ---

// slotResult carries one generated question (or its failure) back from the
// worker pool, keyed by slot number for stable ordering.
type slotResult struct {
	number   int
	question *entity.Question
}

func (s *paperService) GeneratePaper(ctx context.Context, userId uuid.UUID, req *dto.GeneratePaperRequest) (*dto.PaperResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var bp *entity.Blueprint
	var err error
	if req.BlueprintId != uuid.Nil {
		bp, err = uow.BlueprintRepository().FindOne(ctx, specification.ByID{ID: req.BlueprintId})
	} else {
		bp, err = uow.BlueprintRepository().FindDefault(ctx)
	}
	if err != nil {
		return nil, err
	}
	if bp == nil {
		return nil, fmt.Errorf("blueprint not found")
	}

	slots := bp.Definition.Slots()
	s.logger.Info("generation", "paper generation started", map[string]interface{}{
		"blueprint": bp.Name,
		"slots":     len(slots),
		"workers":   s.genConfig.Workers,
	})

	paper := &entity.Paper{
		Id:          uuid.New(),
		Title:       req.Title,
		BlueprintId: bp.Id,
		Status:      flow.PaperDraft,
		TotalMarks:  bp.Definition.TotalMarks,
		CreatedBy:   userId,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	results := make([]slotResult, len(slots))
	sem := make(chan struct{}, s.genConfig.Workers)
	var wg sync.WaitGroup

	for i, slot := range slots {
		wg.Add(1)
		go func(idx int, sl blueprint.Slot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			q := s.generateSlot(ctx, sl, paper.Id)
			results[idx] = slotResult{number: sl.Number, question: q}
		}(i, slot)
	}
	wg.Wait()

	questions := make([]*entity.Question, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.question.Failed {
			failed++
		}
		questions = append(questions, r.question)
	}
	paper.FailedSlots = failed
	paper.Questions = questions

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.PaperRepository().Create(ctx, paper); err != nil {
		return nil, err
	}
	if err := uow.QuestionRepository().CreateBulk(ctx, questions); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("generation", "paper generation finished", map[string]interface{}{
		"paper_id":     paper.Id.String(),
		"failed_slots": failed,
	})

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewPaperGeneratedEvent(paper.Id, userId, failed)); err != nil {
			s.logger.Warn("generation", "failed to publish event", map[string]interface{}{"error": err.Error()})
		}
	}

	return toPaperResponse(paper), nil
}

// generateSlot runs the retrieval + prompt + validate cycle for one slot.
// It always returns a question row; a slot that exhausts its retries comes
// back with Failed set so the paper keeps its numbering.
func (s *paperService) generateSlot(ctx context.Context, slot blueprint.Slot, paperId uuid.UUID) *entity.Question {
	q := &entity.Question{
		Id:        uuid.New(),
		PaperId:   paperId,
		Number:    slot.Number,
		Part:      slot.Part,
		Section:   slot.Section,
		Type:      slot.Type,
		Marks:     slot.Marks,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := slot.Topic
	if query == "" {
		query = fmt.Sprintf("%s questions worth %d marks", slot.Section, slot.Marks)
	}

	// Worker-scoped unit of work; retrieval legs are read-only.
	uow := s.uowFactory.NewUnitOfWork(ctx)

	retrieved, err := s.searcher.Retrieve(ctx, uow, pkgSearch.Request{
		Query:      query,
		SourceType: entity.SourceTextbook,
		Unit:       slot.Unit,
		Marks:      slot.Marks,
		Weights:    fusion.DefaultWeights(),
	}, s.searchConfig)
	if err != nil {
		var emptyErr *fusion.EmptyRetrievalError
		if errors.As(err, &emptyErr) {
			s.markSlotFailed(q, err.Error())
			return q
		}
		s.markSlotFailed(q, fmt.Sprintf("retrieval failed: %v", err))
		return q
	}

	builder := prompt.NewGenerationBuilder(slot, retrieved.Chunks)

	var lastErr error
	for attempt := 1; attempt <= s.genConfig.MaxRetries; attempt++ {
		raw, err := s.llmProvider.Generate(ctx, builder.Build(), llm.WithTemperature(0.7))
		if err != nil {
			lastErr = err
			// Timeouts and hard failures alike back off before the next
			// try; retrying a struggling provider immediately just burns
			// the attempt.
			select {
			case <-ctx.Done():
				s.markSlotFailed(q, fmt.Sprintf("generation aborted: %v", ctx.Err()))
				return q
			case <-time.After(retryBackoff(attempt)):
			}
			continue
		}

		payload, err := qschema.Parse(raw)
		if err == nil {
			err = qschema.Validate(slot.Type, payload)
		}
		if err != nil {
			lastErr = err
			var vErr *qschema.ValidationError
			if errors.As(err, &vErr) {
				builder.AddCorrection(vErr.Error())
			}
			continue
		}

		q.Text = payload.Text
		q.Options = payload.Options
		q.CorrectOption = payload.CorrectOption
		q.AnswerGuide = payload.AnswerGuide
		q.Alternatives = payload.Alternatives
		for _, c := range retrieved.Chunks {
			q.Provenance = append(q.Provenance, c.ChunkId)
		}
		return q
	}

	s.markSlotFailed(q, fmt.Sprintf("exhausted %d attempts: %v", s.genConfig.MaxRetries, lastErr))
	return q
}

// retryBackoff doubles per attempt, capped so a deep retry never stalls a
// worker for long.
func retryBackoff(attempt int) time.Duration {
	backoff := time.Duration(1<<(attempt-1)) * time.Second
	if backoff > 8*time.Second {
		backoff = 8 * time.Second
	}
	return backoff
}

func (s *paperService) markSlotFailed(q *entity.Question, reason string) {
	q.Failed = true
	q.FailureReason = reason
	s.logger.Warn("generation", "slot failed", map[string]interface{}{
		"number": q.Number,
		"reason": reason,
	})
}

// --- Reads ---

func (s *paperService) GetPaper(ctx context.Context, id uuid.UUID) (*dto.PaperResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	paper, err := s.loadPaper(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	return toPaperResponse(paper), nil
}

func (s *paperService) loadPaper(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Paper, error) {
	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, fmt.Errorf("paper not found")
	}

	questions, err := uow.QuestionRepository().FindByPaperId(ctx, id)
	if err != nil {
		return nil, err
	}
	paper.Questions = questions
	return paper, nil
}

func (s *paperService) ListPapers(ctx context.Context, status string) ([]*dto.PaperListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if status != "" {
		specs = append(specs, specification.ByPaperStatus{Status: status})
	}

	papers, err := uow.PaperRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.PaperListResponse, 0, len(papers))
	for _, p := range papers {
		out = append(out, &dto.PaperListResponse{
			Id:          p.Id,
			Title:       p.Title,
			Status:      string(p.Status),
			TotalMarks:  p.TotalMarks,
			FailedSlots: p.FailedSlots,
			CreatedAt:   p.CreatedAt,
		})
	}
	return out, nil
}

func (s *paperService) DeletePaper(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if paper == nil {
		return fmt.Errorf("paper not found")
	}
	if paper.Status == flow.PaperPublished {
		return &flow.StateTransitionError{Entity: "paper", From: string(paper.Status), To: "deleted"}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.QuestionRepository().DeleteByPaperId(ctx, id); err != nil {
		return err
	}
	if err := uow.PaperRepository().Delete(ctx, id); err != nil {
		return err
	}
	return uow.Commit()
}

// --- Lifecycle ---

func (s *paperService) ApprovePaper(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if paper == nil {
		return fmt.Errorf("paper not found")
	}

	if err := flow.CheckPaper(paper.Status, flow.PaperApproved); err != nil {
		return err
	}
	if paper.FailedSlots > 0 {
		return fmt.Errorf("cannot approve a paper with %d failed slots; regenerate them first", paper.FailedSlots)
	}

	now := time.Now()
	paper.Status = flow.PaperApproved
	paper.ApprovedAt = &now
	return uow.PaperRepository().Update(ctx, paper)
}

func (s *paperService) PublishPaper(ctx context.Context, id uuid.UUID, publishedBy uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if paper == nil {
		return fmt.Errorf("paper not found")
	}

	if err := flow.CheckPaper(paper.Status, flow.PaperPublished); err != nil {
		return err
	}

	now := time.Now()
	paper.Status = flow.PaperPublished
	paper.PublishedAt = &now
	if err := uow.PaperRepository().Update(ctx, paper); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewPaperPublishedEvent(paper.Id, publishedBy, paper.Title)); err != nil {
			s.logger.Warn("paper", "failed to publish event", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (s *paperService) UnpublishPaper(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if paper == nil {
		return fmt.Errorf("paper not found")
	}

	if err := flow.CheckPaper(paper.Status, flow.PaperApproved); err != nil {
		return err
	}

	paper.Status = flow.PaperApproved
	paper.PublishedAt = nil
	return uow.PaperRepository().Update(ctx, paper)
}

// --- Mapping helpers ---

func toBlueprintResponse(bp *entity.Blueprint) *dto.BlueprintResponse {
	return &dto.BlueprintResponse{
		Id:         bp.Id,
		Name:       bp.Name,
		Definition: bp.Definition,
		IsDefault:  bp.IsDefault,
		TotalMarks: bp.Definition.TotalMarks,
		CreatedAt:  bp.CreatedAt,
	}
}

func toQuestionResponse(q *entity.Question) dto.QuestionResponse {
	resp := dto.QuestionResponse{
		Id:            q.Id,
		Number:        q.Number,
		Part:          q.Part,
		Section:       q.Section,
		Type:          string(q.Type),
		Text:          q.Text,
		Options:       q.Options,
		CorrectOption: q.CorrectOption,
		AnswerGuide:   q.AnswerGuide,
		Marks:         q.Marks,
		Provenance:    q.Provenance,
		RevisionCount: q.RevisionCount,
		Failed:        q.Failed,
		FailureReason: q.FailureReason,
	}
	if len(q.Alternatives) > 0 {
		resp.Alternatives = q.Alternatives
	}
	return resp
}

func toPaperResponse(p *entity.Paper) *dto.PaperResponse {
	resp := &dto.PaperResponse{
		Id:          p.Id,
		Title:       p.Title,
		BlueprintId: p.BlueprintId,
		Status:      string(p.Status),
		TotalMarks:  p.TotalMarks,
		FailedSlots: p.FailedSlots,
		CreatedAt:   p.CreatedAt,
		ApprovedAt:  p.ApprovedAt,
		PublishedAt: p.PublishedAt,
	}
	for _, q := range p.Questions {
		resp.Questions = append(resp.Questions, toQuestionResponse(q))
	}
	return resp
}
