package contract

import (
	"context"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
)

type BlueprintRepository interface {
	Create(ctx context.Context, bp *entity.Blueprint) error
	Update(ctx context.Context, bp *entity.Blueprint) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Blueprint, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Blueprint, error)
	FindDefault(ctx context.Context) (*entity.Blueprint, error)
}

type PaperRepository interface {
	Create(ctx context.Context, paper *entity.Paper) error
	Update(ctx context.Context, paper *entity.Paper) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	CreateBulk(ctx context.Context, questions []*entity.Question) error
	Update(ctx context.Context, question *entity.Question) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error)
	FindByPaperId(ctx context.Context, paperId uuid.UUID) ([]*entity.Question, error)
	DeleteByPaperId(ctx context.Context, paperId uuid.UUID) error
}

type RevisionRecordRepository interface {
	// Create assigns the next sequence number for the question inside the
	// same statement, so concurrent revisions never share a sequence.
	Create(ctx context.Context, record *entity.RevisionRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RevisionRecord, error)
	CountByPaper(ctx context.Context, paperId uuid.UUID) (int64, error)
}
