package entity

import (
	"time"

	"github.com/google/uuid"
)

type EvalTarget string
type EvalRunStatus string

const (
	EvalTargetPaper   EvalTarget = "paper"
	EvalTargetChatbot EvalTarget = "chatbot"

	EvalRunRunning   EvalRunStatus = "running"
	EvalRunCompleted EvalRunStatus = "completed"
	EvalRunTimeout   EvalRunStatus = "timeout"
	EvalRunFailed    EvalRunStatus = "failed"
)

// EvaluationRun is one quality audit over pipeline output. Samples are
// persisted as they are scored, so a timed-out run still carries every
// sample recorded before the deadline.
type EvaluationRun struct {
	Id               uuid.UUID
	Target           EvalTarget
	Status           EvalRunStatus
	PaperId          *uuid.UUID
	Scope            []string // Selected blueprint parts, empty = all
	MetricAggregates map[string]float64
	OverallScore     float64
	SampleCount      int
	StartedAt        time.Time
	CompletedAt      *time.Time

	Samples []*EvaluationSample
}

// EvaluationSample is one judge verdict: a single metric scored against a
// single generated question or chat answer.
type EvaluationSample struct {
	Id          uuid.UUID
	RunId       uuid.UUID
	SampleRef   string // e.g. "question:12" or "chat"
	Metric      string
	Score       float64
	Explanation string
	Error       string // Non-empty when the judge call failed for this sample
	CreatedAt   time.Time
}
