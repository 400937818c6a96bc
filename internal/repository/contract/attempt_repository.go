package contract

import (
	"context"
	"time"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ExamAttemptRepository interface {
	Create(ctx context.Context, attempt *entity.ExamAttempt) error
	Update(ctx context.Context, attempt *entity.ExamAttempt) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ExamAttempt, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExamAttempt, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]*entity.ExamAttempt, error)
	// FindUngraded returns submitted attempts whose grading never landed:
	// still submitted well past their submission time.
	FindUngraded(ctx context.Context, cutoff time.Time, limit int) ([]*entity.ExamAttempt, error)
}

type AnswerEvaluationRepository interface {
	CreateBulk(ctx context.Context, evaluations []*entity.AnswerEvaluation) error
	FindByAttemptId(ctx context.Context, attemptId uuid.UUID) ([]*entity.AnswerEvaluation, error)
	DeleteByAttemptId(ctx context.Context, attemptId uuid.UUID) error
}
