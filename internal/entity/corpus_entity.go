package entity

import (
	"time"

	"github.com/google/uuid"
)

type SourceType string
type DocumentStatus string

const (
	SourceTextbook      SourceType = "textbook"
	SourceQuestionPaper SourceType = "question_paper"

	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusProcessed DocumentStatus = "processed"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// SourceDocument is an uploaded syllabus file. The raw bytes live in object
// storage under StorageKey; the searchable content lives in Chunks.
type SourceDocument struct {
	Id            uuid.UUID
	Title         string
	SourceType    SourceType
	Unit          string
	Lesson        string
	Difficulty    string
	MarksAffinity int
	StorageKey    string
	UploadedBy    uuid.UUID
	Status        DocumentStatus
	FailureReason *string
	ChunkCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is the retrievable unit: one split of a source document with its
// embedding. Immutable once written; re-ingesting a document replaces its
// chunks wholesale.
type Chunk struct {
	Id            uuid.UUID
	DocumentId    uuid.UUID
	ChunkIndex    int
	Text          string
	SourceType    SourceType
	Unit          string
	Lesson        string
	Difficulty    string
	MarksAffinity int
	Embedding     []float32
	CreatedAt     time.Time
}
