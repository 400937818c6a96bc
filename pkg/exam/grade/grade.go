// FILE: pkg/exam/grade/grade.go
package grade

import "fmt"

type Verdict string

const (
	VerdictFull    Verdict = "full"
	VerdictPartial Verdict = "partial"
	VerdictZero    Verdict = "zero"
	VerdictPending Verdict = "pending_review"
)

// Policy holds the similarity-to-marks band edges. The edges are tunable
// policy, not structure: change them here, nowhere else.
type Policy struct {
	FullThreshold    float64
	PartialThreshold float64
	PartialFraction  float64
	AmbiguousLow     float64
	AmbiguousHigh    float64
	KeyWeight        float64
	SourceWeight     float64
}

func DefaultPolicy() Policy {
	return Policy{
		FullThreshold:    0.85,
		PartialThreshold: 0.60,
		PartialFraction:  0.60,
		AmbiguousLow:     0.55,
		AmbiguousHigh:    0.65,
		KeyWeight:        0.5,
		SourceWeight:     0.5,
	}
}

// AmbiguousAnswerError marks a descriptive answer the engine refuses to
// auto-score: both similarity legs sit in the unscoreable middle band, so the
// question goes to manual review instead of a guess.
type AmbiguousAnswerError struct {
	KeySimilarity    float64
	SourceSimilarity float64
}

func (e *AmbiguousAnswerError) Error() string {
	return fmt.Sprintf("answer in ambiguous band (key %.2f, source %.2f), needs manual review", e.KeySimilarity, e.SourceSimilarity)
}

// ScoreMCQ awards all-or-nothing marks on an exact option-index match.
func ScoreMCQ(selected, correct int, marks float64) (float64, bool) {
	if selected == correct {
		return marks, true
	}
	return 0, false
}

// ScoreDescriptive maps the two similarity legs (student answer vs answer
// key, student answer vs source passage) into a marks band. Returns the
// combined similarity alongside the award so callers can store it.
func ScoreDescriptive(keySim, sourceSim, marks float64, p Policy) (awarded float64, verdict Verdict, combined float64, err error) {
	combined = p.KeyWeight*keySim + p.SourceWeight*sourceSim

	if inBand(keySim, p) && inBand(sourceSim, p) {
		return 0, VerdictPending, combined, &AmbiguousAnswerError{KeySimilarity: keySim, SourceSimilarity: sourceSim}
	}

	switch {
	case combined >= p.FullThreshold:
		return marks, VerdictFull, combined, nil
	case combined >= p.PartialThreshold:
		return marks * p.PartialFraction, VerdictPartial, combined, nil
	default:
		return 0, VerdictZero, combined, nil
	}
}

// Percentage is the raw total over maximum, as 0..100. Zero maximum scores 0.
func Percentage(total, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return total / max * 100
}

func inBand(sim float64, p Policy) bool {
	return sim >= p.AmbiguousLow && sim < p.AmbiguousHigh
}
