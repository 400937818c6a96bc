package entity

import (
	"time"

	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/grade"

	"github.com/google/uuid"
)

// SubmittedAnswer is one answer inside an attempt submission. MCQ answers
// carry SelectedOption; descriptive answers carry Text; internal-choice
// answers name the alternative they answered.
type SubmittedAnswer struct {
	QuestionNumber    int    `json:"question_number"`
	SelectedOption    *int   `json:"selected_option,omitempty"`
	Text              string `json:"text,omitempty"`
	ChosenAlternative string `json:"chosen_alternative,omitempty"`
}

// ExamAttempt tracks one student's pass at a published paper, moving
// in_progress -> submitted -> evaluated.
type ExamAttempt struct {
	Id          uuid.UUID
	PaperId     uuid.UUID
	StudentId   uuid.UUID
	Status      flow.AttemptStatus
	Answers     []SubmittedAnswer
	StartedAt   time.Time
	SubmittedAt *time.Time
	EvaluatedAt *time.Time

	// Result fields, filled in by grading.
	PendingReview      bool
	TotalAwarded       float64
	MaxMarks           float64
	Percentage         float64
	McqAwarded         float64
	DescriptiveAwarded float64
}

// AnswerEvaluation is the graded outcome of one answer.
type AnswerEvaluation struct {
	Id                 uuid.UUID
	AttemptId          uuid.UUID
	QuestionId         uuid.UUID
	QuestionNumber     int
	StudentAnswer      string
	ReferenceAnswer    string
	Correct            *bool // MCQ only
	KeySimilarity      *float64
	SourceSimilarity   *float64
	CombinedSimilarity *float64
	Verdict            grade.Verdict
	MarksAwarded       float64
	MaxMarks           float64
	CreatedAt          time.Time
}
