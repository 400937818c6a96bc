package flow

import (
	"errors"
	"testing"
)

func TestPaperTransitions(t *testing.T) {
	tests := []struct {
		from PaperStatus
		to   PaperStatus
		ok   bool
	}{
		{PaperDraft, PaperRevised, true},
		{PaperDraft, PaperApproved, true},
		{PaperRevised, PaperApproved, true},
		{PaperApproved, PaperPublished, true},
		{PaperPublished, PaperApproved, true}, // unpublish, the only backward edge

		{PaperDraft, PaperPublished, false},
		{PaperRevised, PaperDraft, false},
		{PaperRevised, PaperPublished, false},
		{PaperApproved, PaperDraft, false},
		{PaperApproved, PaperRevised, false},
		{PaperPublished, PaperDraft, false},
		{PaperPublished, PaperRevised, false},
		{PaperDraft, PaperDraft, false},
		{PaperPublished, PaperPublished, false},
	}

	for _, tt := range tests {
		err := CheckPaper(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s -> %s should be legal, got %v", tt.from, tt.to, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s -> %s should be rejected", tt.from, tt.to)
		}
	}
}

func TestAttemptTransitions(t *testing.T) {
	tests := []struct {
		from AttemptStatus
		to   AttemptStatus
		ok   bool
	}{
		{AttemptInProgress, AttemptSubmitted, true},
		{AttemptSubmitted, AttemptEvaluated, true},

		{AttemptInProgress, AttemptEvaluated, false}, // cannot skip submitted
		{AttemptSubmitted, AttemptInProgress, false},
		{AttemptEvaluated, AttemptSubmitted, false},
		{AttemptEvaluated, AttemptInProgress, false},
	}

	for _, tt := range tests {
		err := CheckAttempt(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s -> %s should be legal, got %v", tt.from, tt.to, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s -> %s should be rejected", tt.from, tt.to)
		}
	}
}

func TestStateTransitionErrorType(t *testing.T) {
	err := CheckPaper(PaperDraft, PaperPublished)

	var stErr *StateTransitionError
	if !errors.As(err, &stErr) {
		t.Fatalf("expected StateTransitionError, got %T", err)
	}
	if stErr.Entity != "paper" || stErr.From != "draft" || stErr.To != "published" {
		t.Errorf("error fields: %+v", stErr)
	}
}
