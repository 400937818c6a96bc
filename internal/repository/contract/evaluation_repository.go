package contract

import (
	"context"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
)

type EvaluationRepository interface {
	CreateRun(ctx context.Context, run *entity.EvaluationRun) error
	UpdateRun(ctx context.Context, run *entity.EvaluationRun) error
	FindOneRun(ctx context.Context, specs ...specification.Specification) (*entity.EvaluationRun, error)
	FindAllRuns(ctx context.Context, specs ...specification.Specification) ([]*entity.EvaluationRun, error)

	// CreateSample is called per verdict while a run is in flight so partial
	// results survive a timeout.
	CreateSample(ctx context.Context, sample *entity.EvaluationSample) error
	FindSamplesByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.EvaluationSample, error)
}
