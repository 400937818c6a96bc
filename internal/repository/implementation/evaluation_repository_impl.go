package implementation

import (
	"context"
	"errors"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/mapper"
	"examcraft-be/internal/model"
	"examcraft-be/internal/repository/contract"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EvaluationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EvaluationMapper
}

func NewEvaluationRepository(db *gorm.DB) contract.EvaluationRepository {
	return &EvaluationRepositoryImpl{
		db:     db,
		mapper: mapper.NewEvaluationMapper(),
	}
}

func (r *EvaluationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EvaluationRepositoryImpl) CreateRun(ctx context.Context, run *entity.EvaluationRun) error {
	m := r.mapper.RunToModel(run)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	samples := run.Samples
	*run = *r.mapper.RunToEntity(m)
	run.Samples = samples
	return nil
}

func (r *EvaluationRepositoryImpl) UpdateRun(ctx context.Context, run *entity.EvaluationRun) error {
	m := r.mapper.RunToModel(run)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	samples := run.Samples
	*run = *r.mapper.RunToEntity(m)
	run.Samples = samples
	return nil
}

func (r *EvaluationRepositoryImpl) FindOneRun(ctx context.Context, specs ...specification.Specification) (*entity.EvaluationRun, error) {
	var m model.EvaluationRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RunToEntity(&m), nil
}

func (r *EvaluationRepositoryImpl) FindAllRuns(ctx context.Context, specs ...specification.Specification) ([]*entity.EvaluationRun, error) {
	var models []*model.EvaluationRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("started_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.RunsToEntities(models), nil
}

func (r *EvaluationRepositoryImpl) CreateSample(ctx context.Context, sample *entity.EvaluationSample) error {
	m := r.mapper.SampleToModel(sample)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*sample = *r.mapper.SampleToEntity(m)
	return nil
}

func (r *EvaluationRepositoryImpl) FindSamplesByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.EvaluationSample, error) {
	var models []*model.EvaluationSample
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runId).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.SamplesToEntities(models), nil
}
