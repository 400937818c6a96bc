package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SourceDocument struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title         string         `gorm:"type:varchar(255);not null"`
	SourceType    string         `gorm:"type:varchar(50);not null;index"`
	Unit          string         `gorm:"type:varchar(50);index"`
	Lesson        string         `gorm:"type:varchar(255)"`
	Difficulty    string         `gorm:"type:varchar(50)"`
	MarksAffinity int            `gorm:"default:0"`
	StorageKey    string         `gorm:"type:text;not null"`
	UploadedBy    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status        string         `gorm:"type:varchar(50);not null;default:'pending'"`
	FailureReason *string        `gorm:"type:text"`
	ChunkCount    int            `gorm:"default:0"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (SourceDocument) TableName() string {
	return "source_documents"
}

// Chunk carries both search signals: the pgvector embedding for the vector
// leg and a generated tsvector column (created by the migration) for the
// lexical leg.
type Chunk struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex    int             `gorm:"default:0"`
	Text          string          `gorm:"type:text;not null"`
	SourceType    string          `gorm:"type:varchar(50);not null;index"`
	Unit          string          `gorm:"type:varchar(50);index"`
	Lesson        string          `gorm:"type:varchar(255)"`
	Difficulty    string          `gorm:"type:varchar(50)"`
	MarksAffinity int             `gorm:"default:0"`
	Embedding     pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	DeletedAt     gorm.DeletedAt  `gorm:"index"`
}

func (Chunk) TableName() string {
	return "chunks"
}
