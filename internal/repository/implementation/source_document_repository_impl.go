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

type SourceDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CorpusMapper
}

func NewSourceDocumentRepository(db *gorm.DB) contract.SourceDocumentRepository {
	return &SourceDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewCorpusMapper(),
	}
}

func (r *SourceDocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SourceDocumentRepositoryImpl) Create(ctx context.Context, doc *entity.SourceDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *SourceDocumentRepositoryImpl) Update(ctx context.Context, doc *entity.SourceDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *SourceDocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.SourceDocument{}, id).Error
}

func (r *SourceDocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SourceDocument, error) {
	var m model.SourceDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *SourceDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceDocument, error) {
	var models []*model.SourceDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.SourceDocument, len(models))
	for i, m := range models {
		entities[i] = r.mapper.DocumentToEntity(m)
	}
	return entities, nil
}

func (r *SourceDocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SourceDocument{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *SourceDocumentRepositoryImpl) MarkProcessed(ctx context.Context, id uuid.UUID, chunkCount int) error {
	return r.db.WithContext(ctx).Model(&model.SourceDocument{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         string(entity.DocumentStatusProcessed),
			"chunk_count":    chunkCount,
			"failure_reason": nil,
		}).Error
}

func (r *SourceDocumentRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&model.SourceDocument{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         string(entity.DocumentStatusFailed),
			"failure_reason": reason,
		}).Error
}
