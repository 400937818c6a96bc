package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser  = "user"
	ChatRoleModel = "model"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is one persisted turn half. Model messages carry the chunk ids
// used as grounding sources; user messages carry the questions they selected
// for context.
type ChatMessage struct {
	Id                uuid.UUID
	ChatSessionId     uuid.UUID
	Role              string
	Content           string
	SourceChunkIds    []uuid.UUID
	SelectedQuestions []uuid.UUID
	CreatedAt         time.Time
}
