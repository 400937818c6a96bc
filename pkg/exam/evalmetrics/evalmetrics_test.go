package evalmetrics

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantScore float64
		wantErr   bool
	}{
		{"bare object", `{"score": 0.8, "explanation": "grounded"}`, 0.8, false},
		{"fenced", "```json\n{\"score\": 0.5, \"explanation\": \"mixed\"}\n```", 0.5, false},
		{"prose wrapped", `Here is my verdict: {"score": 1.0, "explanation": "perfect"} Done.`, 1.0, false},
		{"clamped high", `{"score": 3.2, "explanation": "enthusiastic judge"}`, 1.0, false},
		{"clamped low", `{"score": -0.4, "explanation": ""}`, 0.0, false},
		{"no json", "the answer looks fine to me", 0, true},
		{"broken json", `{"score": oops}`, 0, true},
	}

	for _, tt := range tests {
		v, err := ParseVerdict(Faithfulness, tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got verdict %+v", tt.name, v)
			}
			var je *JudgeError
			if err != nil && !errors.As(err, &je) {
				t.Errorf("%s: error is not a JudgeError: %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if v.Score != tt.wantScore {
			t.Errorf("%s: score %v, want %v", tt.name, v.Score, tt.wantScore)
		}
	}
}

func TestBuildJudgePromptMentionsCriterion(t *testing.T) {
	s := Sample{Query: "explain osmosis", Context: "osmosis is...", Output: "water moves across..."}

	for _, m := range append(PaperMetrics(), ChatbotMetrics()...) {
		p := BuildJudgePrompt(m, s)
		if !strings.Contains(p, s.Output) {
			t.Errorf("%s: prompt missing the output under test", m)
		}
		if !strings.Contains(p, `"score"`) {
			t.Errorf("%s: prompt missing the response contract", m)
		}
	}
}

func TestAggregate(t *testing.T) {
	perMetric, overall := Aggregate([]ScoredSample{
		{Faithfulness, 1.0},
		{Faithfulness, 0.5},
		{Hallucination, 0.8},
	})

	if got := perMetric["faithfulness"]; got != 0.75 {
		t.Errorf("faithfulness aggregate %v, want 0.75", got)
	}
	if got := perMetric["hallucination"]; got != 0.8 {
		t.Errorf("hallucination aggregate %v, want 0.8", got)
	}
	// Overall is the mean of the two metric aggregates, not of all samples.
	if math.Abs(overall-0.775) > 1e-9 {
		t.Errorf("overall %v, want 0.775", overall)
	}
}

func TestAggregateEmpty(t *testing.T) {
	perMetric, overall := Aggregate(nil)
	if len(perMetric) != 0 || overall != 0 {
		t.Errorf("empty input: got %v / %v", perMetric, overall)
	}
}
