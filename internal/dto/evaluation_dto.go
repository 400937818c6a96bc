package dto

import (
	"time"

	"github.com/google/uuid"
)

// StartEvaluationRequest kicks off a scoring run. A paper run without a
// paper id generates a fresh paper inside the run and scores that.
type StartEvaluationRequest struct {
	Target  string     `json:"target" validate:"required,oneof=paper chatbot"`
	PaperId *uuid.UUID `json:"paper_id" validate:"omitempty"`
	Scope   []string   `json:"scope" validate:"omitempty,dive,min=1"`
}

type EvaluationSampleResponse struct {
	SampleRef   string  `json:"sample_ref"`
	Metric      string  `json:"metric"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type EvaluationRunResponse struct {
	Id               uuid.UUID                  `json:"id"`
	Target           string                     `json:"target"`
	Status           string                     `json:"status"`
	PaperId          *uuid.UUID                 `json:"paper_id,omitempty"`
	Scope            []string                   `json:"scope,omitempty"`
	MetricAggregates map[string]float64         `json:"metric_aggregates,omitempty"`
	OverallScore     float64                    `json:"overall_score"`
	SampleCount      int                        `json:"sample_count"`
	Samples          []EvaluationSampleResponse `json:"samples,omitempty"`
	StartedAt        time.Time                  `json:"started_at"`
	CompletedAt      *time.Time                 `json:"completed_at,omitempty"`
}
