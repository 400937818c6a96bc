package implementation

import (
	"context"
	"errors"
	"time"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/mapper"
	"examcraft-be/internal/model"
	"examcraft-be/internal/repository/contract"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamAttemptRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AttemptMapper
}

func NewExamAttemptRepository(db *gorm.DB) contract.ExamAttemptRepository {
	return &ExamAttemptRepositoryImpl{
		db:     db,
		mapper: mapper.NewAttemptMapper(),
	}
}

func (r *ExamAttemptRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ExamAttemptRepositoryImpl) Create(ctx context.Context, attempt *entity.ExamAttempt) error {
	m := r.mapper.ToModel(attempt)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*attempt = *r.mapper.ToEntity(m)
	return nil
}

func (r *ExamAttemptRepositoryImpl) Update(ctx context.Context, attempt *entity.ExamAttempt) error {
	m := r.mapper.ToModel(attempt)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*attempt = *r.mapper.ToEntity(m)
	return nil
}

func (r *ExamAttemptRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ExamAttempt, error) {
	var m model.ExamAttempt
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ExamAttemptRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExamAttempt, error) {
	var models []*model.ExamAttempt
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ExamAttemptRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ExamAttempt{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ExamAttemptRepositoryImpl) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ExamAttempt{}).
		Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *ExamAttemptRepositoryImpl) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]*entity.ExamAttempt, error) {
	var models []*model.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", "in_progress", cutoff).
		Order("started_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ExamAttemptRepositoryImpl) FindUngraded(ctx context.Context, cutoff time.Time, limit int) ([]*entity.ExamAttempt, error) {
	var models []*model.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("status = ? AND submitted_at < ?", "submitted", cutoff).
		Order("submitted_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

type AnswerEvaluationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AttemptMapper
}

func NewAnswerEvaluationRepository(db *gorm.DB) contract.AnswerEvaluationRepository {
	return &AnswerEvaluationRepositoryImpl{
		db:     db,
		mapper: mapper.NewAttemptMapper(),
	}
}

func (r *AnswerEvaluationRepositoryImpl) CreateBulk(ctx context.Context, evaluations []*entity.AnswerEvaluation) error {
	if len(evaluations) == 0 {
		return nil
	}
	models := make([]*model.AnswerEvaluation, len(evaluations))
	for i, e := range evaluations {
		models[i] = r.mapper.EvaluationToModel(e)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 50).Error; err != nil {
		return err
	}
	for i, m := range models {
		*evaluations[i] = *r.mapper.EvaluationToEntity(m)
	}
	return nil
}

func (r *AnswerEvaluationRepositoryImpl) FindByAttemptId(ctx context.Context, attemptId uuid.UUID) ([]*entity.AnswerEvaluation, error) {
	var models []*model.AnswerEvaluation
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptId).
		Order("question_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.EvaluationsToEntities(models), nil
}

func (r *AnswerEvaluationRepositoryImpl) DeleteByAttemptId(ctx context.Context, attemptId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("attempt_id = ?", attemptId).Delete(&model.AnswerEvaluation{}).Error
}
