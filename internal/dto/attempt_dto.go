package dto

import (
	"time"

	"examcraft-be/internal/entity"

	"github.com/google/uuid"
)

// StudentQuestionResponse is the answer-free view of a question served to a
// student inside an attempt. Correct options and answer guides never leave
// the server before evaluation.
type StudentQuestionResponse struct {
	Number       int         `json:"number"`
	Part         string      `json:"part"`
	Section      string      `json:"section,omitempty"`
	Type         string      `json:"type"`
	Text         string      `json:"text"`
	Options      []string    `json:"options,omitempty"`
	Alternatives interface{} `json:"alternatives,omitempty"`
	Marks        int         `json:"marks"`
}

// GradeAttemptMessage is the payload published to the grading topic when an
// attempt is submitted.
type GradeAttemptMessage struct {
	AttemptId uuid.UUID `json:"attempt_id"`
}

type StartAttemptRequest struct {
	PaperId uuid.UUID `json:"paper_id" validate:"required"`
}

type StartAttemptResponse struct {
	AttemptId uuid.UUID                 `json:"attempt_id"`
	PaperId   uuid.UUID                 `json:"paper_id"`
	Title     string                    `json:"title"`
	Questions []StudentQuestionResponse `json:"questions"`
	StartedAt time.Time                 `json:"started_at"`
}

type SubmitAttemptRequest struct {
	Answers []entity.SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
}

type AnswerEvaluationResponse struct {
	QuestionNumber     int      `json:"question_number"`
	StudentAnswer      string   `json:"student_answer"`
	ReferenceAnswer    string   `json:"reference_answer,omitempty"`
	Correct            *bool    `json:"correct,omitempty"`
	CombinedSimilarity *float64 `json:"combined_similarity,omitempty"`
	Verdict            string   `json:"verdict"`
	MarksAwarded       float64  `json:"marks_awarded"`
	MaxMarks           float64  `json:"max_marks"`
}

type AttemptResultResponse struct {
	AttemptId          uuid.UUID                  `json:"attempt_id"`
	PaperId            uuid.UUID                  `json:"paper_id"`
	Status             string                     `json:"status"`
	PendingReview      bool                       `json:"pending_review"`
	TotalAwarded       float64                    `json:"total_awarded"`
	MaxMarks           float64                    `json:"max_marks"`
	Percentage         float64                    `json:"percentage"`
	McqAwarded         float64                    `json:"mcq_awarded"`
	DescriptiveAwarded float64                    `json:"descriptive_awarded"`
	Evaluations        []AnswerEvaluationResponse `json:"evaluations,omitempty"`
	SubmittedAt        *time.Time                 `json:"submitted_at,omitempty"`
	EvaluatedAt        *time.Time                 `json:"evaluated_at,omitempty"`
}

type AttemptListResponse struct {
	AttemptId  uuid.UUID `json:"attempt_id"`
	PaperId    uuid.UUID `json:"paper_id"`
	PaperTitle string    `json:"paper_title"`
	Status     string    `json:"status"`
	Percentage float64   `json:"percentage"`
	StartedAt  time.Time `json:"started_at"`
}
