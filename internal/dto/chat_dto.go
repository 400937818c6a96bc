package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LimitExceededError signals an exhausted daily chat quota. ResetAfter tells
// the client how long until the next calendar-day window opens.
type LimitExceededError struct {
	Limit      int
	Used       int
	ResetAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily chat limit of %d reached (%d used), resets in %s",
		e.Limit, e.Used, e.ResetAfter.Round(time.Minute))
}

type CreateChatSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=255"`
}

type ChatSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Id                uuid.UUID   `json:"id"`
	Role              string      `json:"role"`
	Content           string      `json:"content"`
	SourceChunkIds    []uuid.UUID `json:"source_chunk_ids,omitempty"`
	SelectedQuestions []uuid.UUID `json:"selected_questions,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

// ChatTurnRequest is the first frame a client sends on the chat websocket.
// A zero SessionId starts a fresh session; the meta event reports its id.
// SelectedQuestions pins specific paper questions into the grounding context.
type ChatTurnRequest struct {
	SessionId         uuid.UUID   `json:"session_id"`
	Message           string      `json:"message" validate:"required,min=1,max=4000"`
	SelectedQuestions []uuid.UUID `json:"selected_questions" validate:"omitempty,max=10"`
}

// Stream event types sent back over the websocket, in order:
// one meta, zero or more token, then exactly one done or error.
const (
	ChatEventMeta  = "meta"
	ChatEventToken = "token"
	ChatEventDone  = "done"
	ChatEventError = "error"
)

type ChatStreamEvent struct {
	Type      string      `json:"type"`
	SessionId uuid.UUID   `json:"session_id,omitempty"`
	MessageId uuid.UUID   `json:"message_id,omitempty"`
	Token     string      `json:"token,omitempty"`
	Sources   []uuid.UUID `json:"sources,omitempty"`
	Remaining int         `json:"remaining,omitempty"`
	Message   string      `json:"message,omitempty"`
}

type ChatQuotaResponse struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}
