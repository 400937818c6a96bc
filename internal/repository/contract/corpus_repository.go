package contract

import (
	"context"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SourceDocumentRepository interface {
	Create(ctx context.Context, doc *entity.SourceDocument) error
	Update(ctx context.Context, doc *entity.SourceDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SourceDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, chunkCount int) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// ScoredChunk is a chunk with the raw similarity of whichever search leg
// produced it. Vector scores are cosine similarities; lexical scores are
// ts_rank values, normalized later by the fusion step.
type ScoredChunk struct {
	Chunk *entity.Chunk
	Score float64
}

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilar runs the vector leg over pgvector cosine distance.
	// SearchLexical runs the keyword leg over the generated tsvector column.
	// Both accept an optional unit filter; empty means the whole corpus.
	SearchSimilar(ctx context.Context, embedding []float32, sourceType string, unit string, limit int) ([]*ScoredChunk, error)
	SearchLexical(ctx context.Context, query string, sourceType string, unit string, limit int) ([]*ScoredChunk, error)
}
