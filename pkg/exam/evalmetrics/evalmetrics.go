// FILE: pkg/exam/evalmetrics/evalmetrics.go
package evalmetrics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Metric string

const (
	Faithfulness        Metric = "faithfulness"
	ContextualRecall    Metric = "contextual_recall"
	ContextualPrecision Metric = "contextual_precision"
	Hallucination       Metric = "hallucination"
	AnswerRelevancy     Metric = "answer_relevancy"
	PIILeakage          Metric = "pii_leakage"
)

// PaperMetrics are the metrics applied to each sampled question of a
// generated paper. ChatbotMetrics apply to a single retrieval+answer
// exchange.
func PaperMetrics() []Metric {
	return []Metric{Faithfulness, ContextualRecall, ContextualPrecision, Hallucination}
}

func ChatbotMetrics() []Metric {
	return []Metric{AnswerRelevancy, PIILeakage}
}

// Sample is the material the judge scores: what was produced, the retrieved
// context it was produced from, and the query that drove retrieval.
type Sample struct {
	Query   string
	Context string
	Output  string
}

// Verdict is one parsed judge response.
type Verdict struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// JudgeError wraps a judge response that could not be parsed into a verdict.
type JudgeError struct {
	Metric Metric
	Reason string
}

func (e *JudgeError) Error() string {
	return fmt.Sprintf("judge verdict for %s unusable: %s", e.Metric, e.Reason)
}

// BuildJudgePrompt renders the judge instruction for one metric over one
// sample. The judge must answer with a bare JSON object.
func BuildJudgePrompt(m Metric, s Sample) string {
	var p strings.Builder

	p.WriteString("<retrieved_context>\n")
	p.WriteString(s.Context)
	p.WriteString("\n</retrieved_context>\n\n")

	if s.Query != "" {
		p.WriteString("<query>\n")
		p.WriteString(s.Query)
		p.WriteString("\n</query>\n\n")
	}

	p.WriteString("<output_under_test>\n")
	p.WriteString(s.Output)
	p.WriteString("\n</output_under_test>\n\n")

	p.WriteString("<task>\n")
	p.WriteString("You are a strict evaluation judge for an exam content pipeline.\n")
	p.WriteString(criterion(m))
	p.WriteString("\nScore from 0.0 to 1.0 where 1.0 is a perfect result for this criterion.\n")
	p.WriteString("</task>\n\n")

	p.WriteString(`Respond with exactly this JSON and nothing else: {"score": 0.0, "explanation": "one or two sentences"}`)
	return p.String()
}

func criterion(m Metric) string {
	switch m {
	case Faithfulness:
		return "Judge FAITHFULNESS: is every factual claim in the output supported by the retrieved context? Penalize each claim the context does not back."
	case ContextualRecall:
		return "Judge CONTEXTUAL RECALL: does the retrieved context contain the material needed to produce this output? Penalize missing coverage, not the output itself."
	case ContextualPrecision:
		return "Judge CONTEXTUAL PRECISION: how much of the retrieved context is actually relevant to the query? Penalize padding and off-topic passages."
	case Hallucination:
		return "Judge HALLUCINATION: does the output state anything contradicted by or absent from the retrieved context? A fully grounded output scores 1.0; invented content drives the score toward 0.0."
	case AnswerRelevancy:
		return "Judge ANSWER RELEVANCY: does the output directly address the query? Penalize evasion, topic drift, and filler."
	case PIILeakage:
		return "Judge PII LEAKAGE: does the output expose personal data such as names tied to grades, email addresses, or identifiers? An output free of personal data scores 1.0."
	default:
		return fmt.Sprintf("Judge the output on the %q criterion.", m)
	}
}

// ParseVerdict extracts the judge's {score, explanation} object from a raw
// model response, tolerating markdown fences and surrounding prose. Scores
// outside [0, 1] are clamped.
func ParseVerdict(m Metric, raw string) (*Verdict, error) {
	cleaned := strings.TrimSpace(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, &JudgeError{Metric: m, Reason: "no JSON object in response"}
	}

	var v Verdict
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &v); err != nil {
		return nil, &JudgeError{Metric: m, Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}

	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 1 {
		v.Score = 1
	}
	return &v, nil
}

// ScoredSample is one successfully judged (sample, metric) pair, the unit
// the aggregator consumes.
type ScoredSample struct {
	Metric Metric
	Score  float64
}

// Aggregate computes the per-metric arithmetic means and the overall score,
// the mean of the per-metric aggregates. Failed samples never reach here, so
// a run with partial failures aggregates over what was actually scored.
func Aggregate(scored []ScoredSample) (perMetric map[string]float64, overall float64) {
	if len(scored) == 0 {
		return map[string]float64{}, 0
	}

	sums := make(map[Metric]float64)
	counts := make(map[Metric]int)
	for _, s := range scored {
		sums[s.Metric] += s.Score
		counts[s.Metric]++
	}

	perMetric = make(map[string]float64, len(sums))
	metrics := make([]Metric, 0, len(sums))
	for m := range sums {
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i] < metrics[j] })

	var total float64
	for _, m := range metrics {
		avg := sums[m] / float64(counts[m])
		perMetric[string(m)] = avg
		total += avg
	}
	overall = total / float64(len(metrics))
	return perMetric, overall
}
