package dto

import (
	"time"

	"github.com/google/uuid"
)

// UploadDocumentRequest accompanies a multipart PDF upload. Unit and lesson
// tag every chunk extracted from the document so retrieval can filter on them.
type UploadDocumentRequest struct {
	Title         string `form:"title" validate:"required,min=3,max=255"`
	SourceType    string `form:"source_type" validate:"required,oneof=textbook question_paper"`
	Unit          string `form:"unit" validate:"omitempty,max=100"`
	Lesson        string `form:"lesson" validate:"omitempty,max=100"`
	Difficulty    string `form:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	MarksAffinity int    `form:"marks_affinity" validate:"omitempty,min=1,max=15"`
}

// IngestDocumentMessage queues an uploaded document for chunking and
// embedding on the watermill ingest topic.
type IngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type DocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	SourceType string    `json:"source_type"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	FileKey    string    `json:"file_key,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChunkResponse struct {
	Id            uuid.UUID `json:"id"`
	Content       string    `json:"content"`
	Unit          string    `json:"unit,omitempty"`
	Lesson        string    `json:"lesson,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
	MarksAffinity int       `json:"marks_affinity,omitempty"`
	Score         float64   `json:"score,omitempty"`
}

// RetrievalPreviewRequest exercises the hybrid retriever directly, used by
// instructors to sanity-check corpus coverage before generating a paper.
type RetrievalPreviewRequest struct {
	Query string `json:"query" validate:"required,min=3"`
	Unit  string `json:"unit" validate:"omitempty,max=100"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=50"`
}

type RetrievalPreviewResponse struct {
	Chunks     []ChunkResponse `json:"chunks"`
	TokenCount int             `json:"token_count"`
}
