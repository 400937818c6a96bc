// FILE: pkg/exam/flow/flow.go
package flow

import "fmt"

type PaperStatus string

const (
	PaperDraft     PaperStatus = "draft"
	PaperRevised   PaperStatus = "revised"
	PaperApproved  PaperStatus = "approved"
	PaperPublished PaperStatus = "published"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptEvaluated  AttemptStatus = "evaluated"
)

// StateTransitionError reports an illegal lifecycle change. It is never
// retried: the caller asked for something the state machine forbids.
type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// paperEdges holds the only legal paper moves. Unpublish (published ->
// approved) is the single backward edge.
var paperEdges = map[PaperStatus][]PaperStatus{
	PaperDraft:     {PaperRevised, PaperApproved},
	PaperRevised:   {PaperApproved},
	PaperApproved:  {PaperPublished},
	PaperPublished: {PaperApproved},
}

var attemptEdges = map[AttemptStatus][]AttemptStatus{
	AttemptInProgress: {AttemptSubmitted},
	AttemptSubmitted:  {AttemptEvaluated},
}

// CheckPaper validates a paper status change, returning a
// StateTransitionError for anything outside the state machine.
func CheckPaper(from, to PaperStatus) error {
	for _, next := range paperEdges[from] {
		if next == to {
			return nil
		}
	}
	return &StateTransitionError{Entity: "paper", From: string(from), To: string(to)}
}

// CheckAttempt validates an attempt status change. Attempts only move
// forward and never skip the submitted state.
func CheckAttempt(from, to AttemptStatus) error {
	for _, next := range attemptEdges[from] {
		if next == to {
			return nil
		}
	}
	return &StateTransitionError{Entity: "attempt", From: string(from), To: string(to)}
}
