// FILE: internal/service/attempt_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/exam/flow"

	"github.com/google/uuid"
)

type IAttemptService interface {
	StartAttempt(ctx context.Context, studentId uuid.UUID, req *dto.StartAttemptRequest) (*dto.StartAttemptResponse, error)
	GetAttempt(ctx context.Context, studentId uuid.UUID, attemptId uuid.UUID) (*dto.StartAttemptResponse, error)
	SubmitAttempt(ctx context.Context, studentId uuid.UUID, attemptId uuid.UUID, req *dto.SubmitAttemptRequest) error
	GetResult(ctx context.Context, studentId uuid.UUID, attemptId uuid.UUID) (*dto.AttemptResultResponse, error)
	ListAttempts(ctx context.Context, studentId uuid.UUID) ([]*dto.AttemptListResponse, error)
}

type attemptService struct {
	uowFactory       unitofwork.RepositoryFactory
	gradingPublisher IPublisherService
	logger           logger.ILogger
}

func NewAttemptService(
	uowFactory unitofwork.RepositoryFactory,
	gradingPublisher IPublisherService,
	log logger.ILogger,
) IAttemptService {
	return &attemptService{
		uowFactory:       uowFactory,
		gradingPublisher: gradingPublisher,
		logger:           log,
	}
}

// StartAttempt opens an attempt against a published paper. A student gets one
// attempt per paper: an open attempt is resumed, a submitted or evaluated one
// blocks a restart.
func (s *attemptService) StartAttempt(ctx context.Context, studentId uuid.UUID, req *dto.StartAttemptRequest) (*dto.StartAttemptResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: req.PaperId})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, fmt.Errorf("paper not found")
	}
	if paper.Status != flow.PaperPublished {
		return nil, fmt.Errorf("paper is not open for attempts")
	}

	existing, err := uow.ExamAttemptRepository().FindOne(ctx,
		specification.ByPaperID{PaperID: req.PaperId},
		specification.ByStudentID{StudentID: studentId},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status != flow.AttemptInProgress {
			return nil, fmt.Errorf("paper already attempted")
		}
		return s.buildAttemptView(ctx, uow, existing, paper)
	}

	attempt := &entity.ExamAttempt{
		Id:        uuid.New(),
		PaperId:   paper.Id,
		StudentId: studentId,
		Status:    flow.AttemptInProgress,
		StartedAt: time.Now(),
	}
	if err := uow.ExamAttemptRepository().Create(ctx, attempt); err != nil {
		return nil, err
	}

	s.logger.Info("attempt", "attempt started", map[string]interface{}{
		"attempt_id": attempt.Id.String(),
		"paper_id":   paper.Id.String(),
	})
	return s.buildAttemptView(ctx, uow, attempt, paper)
}

func (s *attemptService) GetAttempt(ctx context.Context, studentId uuid.UUID, attemptId uuid.UUID) (*dto.StartAttemptResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	attempt, err := s.loadOwnAttempt(ctx, uow, studentId, attemptId)
	if err != nil {
		return nil, err
	}

	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: attempt.PaperId})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, fmt.Errorf("paper not found")
	}
	return s.buildAttemptView(ctx, uow, attempt, paper)
}

// SubmitAttempt stores the answers, flips the attempt to submitted and hands
// it off to the grading consumer. Answers referencing unknown question
// numbers are rejected before anything is written.
func (s *attemptService) SubmitAttempt(ctx context.Context, studentId uuid.UUID, attemptId uuid.UUID, req *dto.SubmitAttemptRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	attempt, err := s.loadOwnAttempt(ctx, uow, studentId, attemptId)
	if err != nil {
		return err
	}
	if err := flow.CheckAttempt(attempt.Status, flow.AttemptSubmitted); err != nil {
		return err
	}

	questions, err := uow.QuestionRepository().FindByPaperId(ctx, attempt.PaperId)
	if err != nil {
		return err
	}
	known := make(map[int]bool, len(questions))
	for _, q := range questions {
		known[q.Number] = true
	}
	seen := make(map[int]bool, len(req.Answers))
	for _, a := range req.Answers {
		if !known[a.QuestionNumber] {
			return fmt.Errorf("answer references unknown question %d", a.QuestionNumber)
		}
		if seen[a.QuestionNumber] {
			return fmt.Errorf("duplicate answer for question %d", a.QuestionNumber)
		}
		seen[a.QuestionNumber] = true
	}

	now := time.Now()
	attempt.Answers = req.Answers
	attempt.Status = flow.AttemptSubmitted
	attempt.SubmittedAt = &now
	if err := uow.ExamAttemptRepository().Update(ctx, attempt); err != nil {
		return err
	}

	payload, err := json.Marshal(dto.GradeAttemptMessage{AttemptId: attempt.Id})
	if err != nil {
		return err
	}
	if err := s.gradingPublisher.Publish(ctx, payload); err != nil {
		// The attempt stays submitted; the stale sweep re-enqueues it.
		s.logger.Error("attempt", "failed to enqueue grading", map[string]interface{}{
			"attempt_id": attempt.Id.String(),
			"error":      err.Error(),
		})
		return nil
	}

	s.logger.Info("attempt", "attempt submitted", map[string]interface{}{
		"attempt_id": attempt.Id.String(),
		"answers":    len(req.Answers),
	})
	return nil
}

// GetResult returns the per-answer breakdown once grading has run. Before
// that it reports the attempt status so the client can poll.
func (s *attemptService) GetResult(ctx context.Context, studentId uuid.UUID, attemptId uuid.UUID) (*dto.AttemptResultResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	attempt, err := s.loadOwnAttempt(ctx, uow, studentId, attemptId)
	if err != nil {
		return nil, err
	}

	resp := &dto.AttemptResultResponse{
		AttemptId:          attempt.Id,
		PaperId:            attempt.PaperId,
		Status:             string(attempt.Status),
		PendingReview:      attempt.PendingReview,
		TotalAwarded:       attempt.TotalAwarded,
		MaxMarks:           attempt.MaxMarks,
		Percentage:         attempt.Percentage,
		McqAwarded:         attempt.McqAwarded,
		DescriptiveAwarded: attempt.DescriptiveAwarded,
		SubmittedAt:        attempt.SubmittedAt,
		EvaluatedAt:        attempt.EvaluatedAt,
	}
	if attempt.Status != flow.AttemptEvaluated {
		return resp, nil
	}

	evaluations, err := uow.AnswerEvaluationRepository().FindByAttemptId(ctx, attempt.Id)
	if err != nil {
		return nil, err
	}
	for _, ev := range evaluations {
		resp.Evaluations = append(resp.Evaluations, dto.AnswerEvaluationResponse{
			QuestionNumber:     ev.QuestionNumber,
			StudentAnswer:      ev.StudentAnswer,
			ReferenceAnswer:    ev.ReferenceAnswer,
			Correct:            ev.Correct,
			CombinedSimilarity: ev.CombinedSimilarity,
			Verdict:            string(ev.Verdict),
			MarksAwarded:       ev.MarksAwarded,
			MaxMarks:           ev.MaxMarks,
		})
	}
	return resp, nil
}

func (s *attemptService) ListAttempts(ctx context.Context, studentId uuid.UUID) ([]*dto.AttemptListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	attempts, err := uow.ExamAttemptRepository().FindAll(ctx,
		specification.ByStudentID{StudentID: studentId},
		specification.OrderBy{Field: "started_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.AttemptListResponse, 0, len(attempts))
	for _, a := range attempts {
		item := &dto.AttemptListResponse{
			AttemptId:  a.Id,
			PaperId:    a.PaperId,
			Status:     string(a.Status),
			Percentage: a.Percentage,
			StartedAt:  a.StartedAt,
		}
		paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: a.PaperId})
		if err != nil {
			return nil, err
		}
		if paper != nil {
			item.PaperTitle = paper.Title
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *attemptService) loadOwnAttempt(ctx context.Context, uow unitofwork.UnitOfWork, studentId uuid.UUID, attemptId uuid.UUID) (*entity.ExamAttempt, error) {
	attempt, err := uow.ExamAttemptRepository().FindOne(ctx,
		specification.ByID{ID: attemptId},
		specification.ByStudentID{StudentID: studentId},
	)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, fmt.Errorf("attempt not found")
	}
	return attempt, nil
}

func (s *attemptService) buildAttemptView(ctx context.Context, uow unitofwork.UnitOfWork, attempt *entity.ExamAttempt, paper *entity.Paper) (*dto.StartAttemptResponse, error) {
	questions, err := uow.QuestionRepository().FindByPaperId(ctx, paper.Id)
	if err != nil {
		return nil, err
	}

	resp := &dto.StartAttemptResponse{
		AttemptId: attempt.Id,
		PaperId:   paper.Id,
		Title:     paper.Title,
		StartedAt: attempt.StartedAt,
	}
	for _, q := range questions {
		if q.Failed {
			continue
		}
		resp.Questions = append(resp.Questions, toStudentQuestionResponse(q))
	}
	return resp, nil
}

// toStudentQuestionResponse strips every field that would give the answer
// away: correct options, answer guides, provenance.
func toStudentQuestionResponse(q *entity.Question) dto.StudentQuestionResponse {
	resp := dto.StudentQuestionResponse{
		Number:  q.Number,
		Part:    q.Part,
		Section: q.Section,
		Type:    string(q.Type),
		Text:    q.Text,
		Options: q.Options,
		Marks:   q.Marks,
	}
	if len(q.Alternatives) > 0 {
		stripped := make([]map[string]interface{}, 0, len(q.Alternatives))
		for _, alt := range q.Alternatives {
			stripped = append(stripped, map[string]interface{}{
				"label": alt.Label,
				"text":  alt.Text,
			})
		}
		resp.Alternatives = stripped
	}
	return resp
}
