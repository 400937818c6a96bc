package mapper

import (
	"examcraft-be/internal/entity"
	"examcraft-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type CorpusMapper struct{}

func NewCorpusMapper() *CorpusMapper {
	return &CorpusMapper{}
}

func (m *CorpusMapper) DocumentToEntity(d *model.SourceDocument) *entity.SourceDocument {
	if d == nil {
		return nil
	}
	return &entity.SourceDocument{
		Id:            d.Id,
		Title:         d.Title,
		SourceType:    entity.SourceType(d.SourceType),
		Unit:          d.Unit,
		Lesson:        d.Lesson,
		Difficulty:    d.Difficulty,
		MarksAffinity: d.MarksAffinity,
		StorageKey:    d.StorageKey,
		UploadedBy:    d.UploadedBy,
		Status:        entity.DocumentStatus(d.Status),
		FailureReason: d.FailureReason,
		ChunkCount:    d.ChunkCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (m *CorpusMapper) DocumentToModel(d *entity.SourceDocument) *model.SourceDocument {
	if d == nil {
		return nil
	}
	return &model.SourceDocument{
		Id:            d.Id,
		Title:         d.Title,
		SourceType:    string(d.SourceType),
		Unit:          d.Unit,
		Lesson:        d.Lesson,
		Difficulty:    d.Difficulty,
		MarksAffinity: d.MarksAffinity,
		StorageKey:    d.StorageKey,
		UploadedBy:    d.UploadedBy,
		Status:        string(d.Status),
		FailureReason: d.FailureReason,
		ChunkCount:    d.ChunkCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (m *CorpusMapper) ChunkToEntity(c *model.Chunk) *entity.Chunk {
	if c == nil {
		return nil
	}
	return &entity.Chunk{
		Id:            c.Id,
		DocumentId:    c.DocumentId,
		ChunkIndex:    c.ChunkIndex,
		Text:          c.Text,
		SourceType:    entity.SourceType(c.SourceType),
		Unit:          c.Unit,
		Lesson:        c.Lesson,
		Difficulty:    c.Difficulty,
		MarksAffinity: c.MarksAffinity,
		Embedding:     c.Embedding.Slice(),
		CreatedAt:     c.CreatedAt,
	}
}

func (m *CorpusMapper) ChunkToModel(c *entity.Chunk) *model.Chunk {
	if c == nil {
		return nil
	}
	return &model.Chunk{
		Id:            c.Id,
		DocumentId:    c.DocumentId,
		ChunkIndex:    c.ChunkIndex,
		Text:          c.Text,
		SourceType:    string(c.SourceType),
		Unit:          c.Unit,
		Lesson:        c.Lesson,
		Difficulty:    c.Difficulty,
		MarksAffinity: c.MarksAffinity,
		Embedding:     pgvector.NewVector(c.Embedding),
		CreatedAt:     c.CreatedAt,
	}
}

func (m *CorpusMapper) ChunksToEntities(chunks []*model.Chunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ChunkToEntity(c)
	}
	return entities
}
