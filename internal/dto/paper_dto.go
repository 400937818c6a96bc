package dto

import (
	"time"

	"examcraft-be/pkg/exam/blueprint"

	"github.com/google/uuid"
)

type CreateBlueprintRequest struct {
	Name       string               `json:"name" validate:"required,min=3,max=255"`
	Definition blueprint.Definition `json:"definition" validate:"required"`
}

type BlueprintResponse struct {
	Id         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	Definition blueprint.Definition `json:"definition"`
	IsDefault  bool                 `json:"is_default"`
	TotalMarks int                  `json:"total_marks"`
	CreatedAt  time.Time            `json:"created_at"`
}

type GeneratePaperRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=255"`
	BlueprintId uuid.UUID `json:"blueprint_id" validate:"omitempty"`
}

type RevisePaperRequest struct {
	QuestionNumber int    `json:"question_number" validate:"required,min=1"`
	Feedback       string `json:"feedback" validate:"required,min=3,max=2000"`
}

type RegenerateSlotsRequest struct {
	QuestionNumbers []int `json:"question_numbers" validate:"omitempty,dive,min=1"`
}

// RegenerateAllRequest applies one piece of feedback to every question of a
// paper in a single bounded-parallel pass.
type RegenerateAllRequest struct {
	Feedback string `json:"feedback" validate:"required,min=3,max=2000"`
}

type QuestionResponse struct {
	Id            uuid.UUID   `json:"id"`
	Number        int         `json:"number"`
	Part          string      `json:"part"`
	Section       string      `json:"section,omitempty"`
	Type          string      `json:"type"`
	Text          string      `json:"text"`
	Options       []string    `json:"options,omitempty"`
	CorrectOption *int        `json:"correct_option,omitempty"`
	AnswerGuide   string      `json:"answer_guide,omitempty"`
	Alternatives  interface{} `json:"alternatives,omitempty"`
	Marks         int         `json:"marks"`
	Provenance    []uuid.UUID `json:"provenance,omitempty"`
	RevisionCount int         `json:"revision_count"`
	Failed        bool        `json:"failed"`
	FailureReason string      `json:"failure_reason,omitempty"`
}

type PaperResponse struct {
	Id          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	BlueprintId uuid.UUID          `json:"blueprint_id"`
	Status      string             `json:"status"`
	TotalMarks  int                `json:"total_marks"`
	FailedSlots int                `json:"failed_slots"`
	Questions   []QuestionResponse `json:"questions,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	ApprovedAt  *time.Time         `json:"approved_at,omitempty"`
	PublishedAt *time.Time         `json:"published_at,omitempty"`
}

type PaperListResponse struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	TotalMarks  int       `json:"total_marks"`
	FailedSlots int       `json:"failed_slots"`
	CreatedAt   time.Time `json:"created_at"`
}

type RevisionResponse struct {
	Id             uuid.UUID `json:"id"`
	QuestionNumber int       `json:"question_number"`
	Sequence       int       `json:"sequence"`
	Feedback       string    `json:"feedback"`
	CreatedAt      time.Time `json:"created_at"`
}
