// FILE: internal/service/scheduler_service.go
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/exam/flow"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const staleSweepBatchSize = 100

// An attempt still submitted this long after submission lost its grading
// message; the sweep queues it again.
const gradingRetryGrace = 10 * time.Minute

type ISchedulerService interface {
	Start() error
	Stop()
}

// schedulerService runs the periodic background jobs: the auto-submit sweep
// for abandoned attempts and, when configured, a nightly chatbot audit.
type schedulerService struct {
	cron              *cron.Cron
	uowFactory        unitofwork.RepositoryFactory
	gradingPublisher  IPublisherService
	evaluationService IEvaluationService
	schedulerConfig   config.SchedulerConfig
}

func NewSchedulerService(
	uowFactory unitofwork.RepositoryFactory,
	gradingPublisher IPublisherService,
	evaluationService IEvaluationService,
	schedulerConfig config.SchedulerConfig,
) ISchedulerService {
	if schedulerConfig.AttemptMaxMinutes <= 0 {
		schedulerConfig.AttemptMaxMinutes = 180
	}
	return &schedulerService{
		cron:              cron.New(),
		uowFactory:        uowFactory,
		gradingPublisher:  gradingPublisher,
		evaluationService: evaluationService,
		schedulerConfig:   schedulerConfig,
	}
}

func (ss *schedulerService) Start() error {
	if _, err := ss.cron.AddFunc("*/5 * * * *", ss.sweepStaleAttempts); err != nil {
		return err
	}

	if ss.schedulerConfig.NightlyEvalCron != "" {
		if _, err := ss.cron.AddFunc(ss.schedulerConfig.NightlyEvalCron, ss.runNightlyAudit); err != nil {
			return err
		}
	}

	ss.cron.Start()
	log.Println("[INFO] Scheduler started")
	return nil
}

func (ss *schedulerService) Stop() {
	ctx := ss.cron.Stop()
	<-ctx.Done()
	log.Println("[INFO] Scheduler stopped")
}

// sweepStaleAttempts force-submits attempts that outlived the exam window
// with whatever answers they hold, then queues them for grading.
func (ss *schedulerService) sweepStaleAttempts() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(ss.schedulerConfig.AttemptMaxMinutes) * time.Minute)
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	stale, err := uow.ExamAttemptRepository().FindStale(ctx, cutoff, staleSweepBatchSize)
	if err != nil {
		log.Printf("[ERROR] Stale attempt sweep failed: %v", err)
		return
	}

	if len(stale) > 0 {
		log.Printf("[INFO] Auto-submitting %d stale attempts", len(stale))
	}
	for _, attempt := range stale {
		now := time.Now()
		attempt.Status = flow.AttemptSubmitted
		attempt.SubmittedAt = &now
		if err := uow.ExamAttemptRepository().Update(ctx, attempt); err != nil {
			log.Printf("[ERROR] Failed to auto-submit attempt %s: %v", attempt.Id, err)
			continue
		}
		ss.enqueueGrading(ctx, attempt.Id)
	}

	// Attempts whose grading message was lost stay submitted forever
	// otherwise. The consumer tolerates a duplicate enqueue: an evaluated
	// attempt is skipped on arrival.
	stuck, err := uow.ExamAttemptRepository().FindUngraded(ctx, time.Now().Add(-gradingRetryGrace), staleSweepBatchSize)
	if err != nil {
		log.Printf("[ERROR] Ungraded attempt sweep failed: %v", err)
		return
	}
	if len(stuck) > 0 {
		log.Printf("[INFO] Re-enqueueing grading for %d stuck attempts", len(stuck))
	}
	for _, attempt := range stuck {
		ss.enqueueGrading(ctx, attempt.Id)
	}
}

func (ss *schedulerService) enqueueGrading(ctx context.Context, attemptId uuid.UUID) {
	payload, err := json.Marshal(dto.GradeAttemptMessage{AttemptId: attemptId})
	if err != nil {
		return
	}
	if err := ss.gradingPublisher.Publish(ctx, payload); err != nil {
		// Stays submitted; the next sweep tries again.
		log.Printf("[ERROR] Failed to enqueue grading for attempt %s: %v", attemptId, err)
	}
}

func (ss *schedulerService) runNightlyAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := ss.evaluationService.StartEvaluation(ctx, uuid.Nil, &dto.StartEvaluationRequest{Target: "chatbot"})
	if err != nil {
		log.Printf("[ERROR] Failed to start nightly chatbot audit: %v", err)
		return
	}
	log.Println("[INFO] Nightly chatbot audit started")
}
