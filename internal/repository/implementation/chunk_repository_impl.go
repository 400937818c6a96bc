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
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CorpusMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewCorpusMapper(),
	}
}

func (r *ChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ChunkToModel(c)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ChunkToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("document_id = ?", documentId).Delete(&model.Chunk{}).Error
}

func (r *ChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error) {
	var m model.Chunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChunkToEntity(&m), nil
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.Chunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChunksToEntities(models), nil
}

func (r *ChunkRepositoryImpl) FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []*model.Chunk
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChunksToEntities(models), nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chunk{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

// SearchSimilar runs the vector leg. pgvector's <=> operator is cosine
// distance, so similarity is 1 - distance.
func (r *ChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, sourceType string, unit string, limit int) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.Chunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("chunks.deleted_at IS NULL")
	if sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}
	if unit != "" {
		query = query.Where("unit = ?", unit)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk: r.mapper.ChunkToEntity(&res.Chunk),
			Score: res.Similarity,
		}
	}
	return scored, nil
}

// SearchLexical runs the keyword leg over the tsv generated column using
// websearch_to_tsquery, which tolerates free-form user phrasing.
func (r *ChunkRepositoryImpl) SearchLexical(ctx context.Context, queryText string, sourceType string, unit string, limit int) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.Chunk
		Rank float64
	}
	var results []result

	query := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, ts_rank(tsv, websearch_to_tsquery('english', ?)) as rank", queryText).
		Where("tsv @@ websearch_to_tsquery('english', ?)", queryText).
		Where("chunks.deleted_at IS NULL")
	if sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}
	if unit != "" {
		query = query.Where("unit = ?", unit)
	}

	err := query.
		Order("rank DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk: r.mapper.ChunkToEntity(&res.Chunk),
			Score: res.Rank,
		}
	}
	return scored, nil
}
