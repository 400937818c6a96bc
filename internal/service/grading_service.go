// FILE: internal/service/grading_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/embedding"
	"examcraft-be/pkg/events"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/grade"
	"examcraft-be/pkg/exam/qschema"
	pktNats "examcraft-be/pkg/nats"
	"examcraft-be/pkg/rag/vectors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IGradingService interface {
	Consume(ctx context.Context) error
}

// gradingService drains the grading topic. MCQ answers are scored by exact
// option match; descriptive answers by embedding similarity against the
// answer key and the source passages the question was generated from.
type gradingService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	policy            grade.Policy
	eventPublisher    *pktNats.Publisher
}

func NewGradingService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	policy grade.Policy,
	eventPublisher *pktNats.Publisher,
) IGradingService {
	return &gradingService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		policy:            policy,
		eventPublisher:    eventPublisher,
	}
}

func (gs *gradingService) Consume(ctx context.Context) error {
	messages, err := gs.pubSub.Subscribe(ctx, gs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			gs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (gs *gradingService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.GradeAttemptMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal grading message: %v", err)
		msg.Ack() // Malformed messages never become valid; do not retry.
		return
	}

	log.Printf("[INFO] Grading attempt %s", payload.AttemptId)

	uow := gs.uowFactory.NewUnitOfWork(ctx)

	attempt, err := uow.ExamAttemptRepository().FindOne(ctx, specification.ByID{ID: payload.AttemptId})
	if err != nil {
		log.Printf("[ERROR] Failed to load attempt %s: %v", payload.AttemptId, err)
		msg.Nack()
		return
	}
	if attempt == nil {
		log.Printf("[WARN] Attempt %s not found, dropping grading job", payload.AttemptId)
		msg.Ack()
		return
	}
	if attempt.Status != flow.AttemptSubmitted {
		// Already graded, or never submitted. Either way nothing to do.
		msg.Ack()
		return
	}

	questions, err := uow.QuestionRepository().FindByPaperId(ctx, attempt.PaperId)
	if err != nil {
		log.Printf("[ERROR] Failed to load questions for attempt %s: %v", attempt.Id, err)
		msg.Nack()
		return
	}

	answers := make(map[int]entity.SubmittedAnswer, len(attempt.Answers))
	for _, a := range attempt.Answers {
		answers[a.QuestionNumber] = a
	}

	var (
		evaluations   []*entity.AnswerEvaluation
		totalAwarded  float64
		maxMarks      float64
		mcqAwarded    float64
		descAwarded   float64
		pendingReview bool
	)

	for _, q := range questions {
		if q.Failed {
			continue
		}
		maxMarks += float64(q.Marks)

		ev, err := gs.gradeQuestion(ctx, uow, q, answers[q.Number])
		if err != nil {
			log.Printf("[ERROR] Failed to grade question %d of attempt %s: %v", q.Number, attempt.Id, err)
			msg.Nack() // Embedding backends recover; retry the whole attempt.
			return
		}
		ev.AttemptId = attempt.Id

		totalAwarded += ev.MarksAwarded
		if q.Type == qschema.TypeMCQ {
			mcqAwarded += ev.MarksAwarded
		} else {
			descAwarded += ev.MarksAwarded
		}
		if ev.Verdict == grade.VerdictPending {
			pendingReview = true
		}
		evaluations = append(evaluations, ev)
	}

	now := time.Now()
	attempt.Status = flow.AttemptEvaluated
	attempt.EvaluatedAt = &now
	attempt.PendingReview = pendingReview
	attempt.TotalAwarded = totalAwarded
	attempt.MaxMarks = maxMarks
	attempt.Percentage = grade.Percentage(totalAwarded, maxMarks)
	attempt.McqAwarded = mcqAwarded
	attempt.DescriptiveAwarded = descAwarded

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Re-grading replaces the evaluation set wholesale.
	if err := uow.AnswerEvaluationRepository().DeleteByAttemptId(ctx, attempt.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old evaluations: %v", err)
		msg.Nack()
		return
	}
	if len(evaluations) > 0 {
		if err := uow.AnswerEvaluationRepository().CreateBulk(ctx, evaluations); err != nil {
			log.Printf("[ERROR] Failed to create evaluations: %v", err)
			msg.Nack()
			return
		}
	}
	if err := uow.ExamAttemptRepository().Update(ctx, attempt); err != nil {
		log.Printf("[ERROR] Failed to update attempt: %v", err)
		msg.Nack()
		return
	}
	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit grading: %v", err)
		msg.Nack()
		return
	}

	if gs.eventPublisher != nil {
		event := events.NewAttemptGradedEvent(attempt.Id, attempt.StudentId, attempt.Percentage, pendingReview)
		if err := gs.eventPublisher.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish graded event for attempt %s: %v", attempt.Id, err)
		}
	}

	log.Printf("[INFO] Attempt %s graded: %.1f/%.1f (%.1f%%), pending_review=%t",
		attempt.Id, totalAwarded, maxMarks, attempt.Percentage, pendingReview)
	msg.Ack()
}

func (gs *gradingService) gradeQuestion(ctx context.Context, uow unitofwork.UnitOfWork, q *entity.Question, answer entity.SubmittedAnswer) (*entity.AnswerEvaluation, error) {
	ev := &entity.AnswerEvaluation{
		Id:             uuid.New(),
		QuestionId:     q.Id,
		QuestionNumber: q.Number,
		Verdict:        grade.VerdictZero,
		MaxMarks:       float64(q.Marks),
		CreatedAt:      time.Now(),
	}

	if q.Type == qschema.TypeMCQ {
		if answer.SelectedOption == nil || q.CorrectOption == nil {
			correct := false
			ev.Correct = &correct
			return ev, nil
		}
		awarded, correct := grade.ScoreMCQ(*answer.SelectedOption, *q.CorrectOption, float64(q.Marks))
		ev.StudentAnswer = optionText(q.Options, *answer.SelectedOption)
		ev.ReferenceAnswer = optionText(q.Options, *q.CorrectOption)
		ev.Correct = &correct
		ev.MarksAwarded = awarded
		if correct {
			ev.Verdict = grade.VerdictFull
		}
		return ev, nil
	}

	referenceAnswer := q.AnswerGuide
	if q.Type == qschema.TypeInternalChoice {
		referenceAnswer = alternativeGuide(q.Alternatives, answer.ChosenAlternative)
	}
	ev.StudentAnswer = answer.Text
	ev.ReferenceAnswer = referenceAnswer

	// A blank answer scores zero without touching the embedding backend.
	if answer.Text == "" || referenceAnswer == "" {
		return ev, nil
	}

	studentRes, err := gs.embeddingProvider.Generate(answer.Text, "SEMANTIC_SIMILARITY")
	if err != nil {
		return nil, err
	}
	keyRes, err := gs.embeddingProvider.Generate(referenceAnswer, "SEMANTIC_SIMILARITY")
	if err != nil {
		return nil, err
	}
	keySim := vectors.Cosine(studentRes.Embedding.Values, keyRes.Embedding.Values)

	sourceSim, err := gs.sourceSimilarity(ctx, uow, q.Provenance, studentRes.Embedding.Values)
	if err != nil {
		return nil, err
	}
	if sourceSim < 0 {
		// No source passages survive for this question; the answer key leg
		// carries the whole score.
		sourceSim = keySim
	}

	awarded, verdict, combined, scoreErr := grade.ScoreDescriptive(keySim, sourceSim, float64(q.Marks), gs.policy)
	ev.KeySimilarity = &keySim
	ev.SourceSimilarity = &sourceSim
	ev.CombinedSimilarity = &combined
	ev.Verdict = verdict
	ev.MarksAwarded = awarded

	var ambiguous *grade.AmbiguousAnswerError
	if scoreErr != nil && !errors.As(scoreErr, &ambiguous) {
		return nil, scoreErr
	}
	return ev, nil
}

// sourceSimilarity is the best cosine between the student answer and the
// chunks the question was generated from. Returns -1 when no chunks remain.
func (gs *gradingService) sourceSimilarity(ctx context.Context, uow unitofwork.UnitOfWork, provenance []uuid.UUID, studentVec []float32) (float64, error) {
	if len(provenance) == 0 {
		return -1, nil
	}
	chunks, err := uow.ChunkRepository().FindByIds(ctx, provenance)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return -1, nil
	}

	best := -1.0
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if sim := vectors.Cosine(studentVec, chunk.Embedding); sim > best {
			best = sim
		}
	}
	return best, nil
}

func optionText(options []string, idx int) string {
	if idx < 0 || idx >= len(options) {
		return ""
	}
	return options[idx]
}

func alternativeGuide(alternatives []qschema.Alternative, chosen string) string {
	for _, alt := range alternatives {
		if alt.Label == chosen {
			return alt.AnswerGuide
		}
	}
	if len(alternatives) > 0 {
		return alternatives[0].AnswerGuide
	}
	return ""
}
