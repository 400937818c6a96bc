package grade

import (
	"errors"
	"testing"
)

func TestScoreMCQAllOrNothing(t *testing.T) {
	awarded, correct := ScoreMCQ(2, 2, 1)
	if awarded != 1 || !correct {
		t.Errorf("exact match: awarded %v correct %v", awarded, correct)
	}

	awarded, correct = ScoreMCQ(1, 2, 1)
	if awarded != 0 || correct {
		t.Errorf("mismatch: awarded %v correct %v", awarded, correct)
	}
}

func TestScoreDescriptiveBands(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name        string
		keySim      float64
		sourceSim   float64
		marks       float64
		wantAwarded float64
		wantVerdict Verdict
	}{
		{"full marks", 0.92, 0.90, 5, 5, VerdictFull},
		{"exact full edge", 0.85, 0.85, 5, 5, VerdictFull},
		{"partial", 0.70, 0.70, 5, 3, VerdictPartial},
		{"exact partial edge", 0.60, 0.60, 5, 3, VerdictPartial},
		{"zero", 0.30, 0.20, 5, 0, VerdictZero},
		{"one leg strong rescues", 0.95, 0.58, 5, 3, VerdictPartial}, // combined 0.765
	}

	for _, tt := range tests {
		awarded, verdict, _, err := ScoreDescriptive(tt.keySim, tt.sourceSim, tt.marks, p)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if awarded != tt.wantAwarded {
			t.Errorf("%s: awarded %v, want %v", tt.name, awarded, tt.wantAwarded)
		}
		if verdict != tt.wantVerdict {
			t.Errorf("%s: verdict %v, want %v", tt.name, verdict, tt.wantVerdict)
		}
	}
}

func TestScoreDescriptiveAmbiguous(t *testing.T) {
	p := DefaultPolicy()

	// Both legs inside [0.55, 0.65): refuse to score.
	awarded, verdict, _, err := ScoreDescriptive(0.58, 0.62, 5, p)

	var ambErr *AmbiguousAnswerError
	if !errors.As(err, &ambErr) {
		t.Fatalf("expected AmbiguousAnswerError, got %v", err)
	}
	if verdict != VerdictPending {
		t.Errorf("verdict = %v, want pending_review", verdict)
	}
	if awarded != 0 {
		t.Errorf("ambiguous answer must not award marks, got %v", awarded)
	}

	// Only one leg in the band: score normally.
	_, _, _, err = ScoreDescriptive(0.58, 0.90, 5, p)
	if err != nil {
		t.Errorf("single ambiguous leg should still score: %v", err)
	}
}

func TestScoreDescriptiveMonotonic(t *testing.T) {
	p := DefaultPolicy()
	var prev float64

	// Sweep combined similarity upward (outside the ambiguous band) and check
	// awarded marks never decrease.
	for _, sim := range []float64{0.0, 0.2, 0.4, 0.5, 0.66, 0.7, 0.8, 0.9, 1.0} {
		awarded, _, _, err := ScoreDescriptive(sim, sim, 5, p)
		if err != nil {
			continue
		}
		if awarded < prev {
			t.Errorf("awarded marks decreased at similarity %v: %v < %v", sim, awarded, prev)
		}
		prev = awarded
	}
}

func TestMixedPaperScenario(t *testing.T) {
	// Two 1-mark MCQs (one wrong, one right) and one 5-mark descriptive with
	// similarity 0.9: final score must be 1 + 0 + 5.
	p := DefaultPolicy()

	total := 0.0
	if awarded, _ := ScoreMCQ(0, 1, 1); awarded != 0 {
		t.Errorf("wrong mcq awarded %v", awarded)
	}
	a1, _ := ScoreMCQ(3, 3, 1)
	total += a1
	a2, _, _, err := ScoreDescriptive(0.9, 0.9, 5, p)
	if err != nil {
		t.Fatalf("unexpected ambiguity: %v", err)
	}
	total += a2

	if total != 6 {
		t.Errorf("total = %v, want 6", total)
	}
	if got := Percentage(total, 7); got < 85.7 || got > 85.8 {
		t.Errorf("percentage = %v", got)
	}
}

func TestPercentageZeroMax(t *testing.T) {
	if got := Percentage(5, 0); got != 0 {
		t.Errorf("zero max should score 0, got %v", got)
	}
}
