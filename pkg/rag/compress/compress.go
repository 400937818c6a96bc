// FILE: pkg/rag/compress/compress.go
package compress

import (
	"examcraft-be/pkg/rag/fusion"
	"examcraft-be/pkg/rag/vectors"
)

// minKeepTokens is the smallest truncated tail worth keeping. A fragment
// below this carries no usable context for the prompt.
const minKeepTokens = 50

// Deduplicate collapses near-duplicate chunks. Input must be sorted by fused
// score descending (the fusion stage's output order). Clustering is greedy:
// each chunk joins the first earlier survivor whose embedding cosine clears
// the threshold, so every cluster keeps exactly its highest-scored member and
// the top-ranked chunk is never removed.
// The input slice is not modified.
func Deduplicate(results []fusion.Ranked, threshold float64) []fusion.Ranked {
	if len(results) == 0 {
		return nil
	}

	survivors := make([]fusion.Ranked, 0, len(results))
	for _, r := range results {
		dup := false
		for _, kept := range survivors {
			if vectors.Cosine(r.Embedding, kept.Embedding) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			survivors = append(survivors, r)
		}
	}
	return survivors
}

// FitBudget trims survivors to a token budget without reordering them.
// Whole chunks are kept while they fit; the first chunk that overflows is
// truncated to the remaining budget (dropped instead if the remainder would
// be uselessly small); everything after it is dropped.
// The input slice is not modified.
func FitBudget(results []fusion.Ranked, budget int) []fusion.Ranked {
	if budget <= 0 || len(results) == 0 {
		return nil
	}

	var kept []fusion.Ranked
	remaining := budget

	for _, r := range results {
		cost := EstimateTokens(r.Text)
		if cost <= remaining {
			kept = append(kept, r)
			remaining -= cost
			continue
		}

		if remaining >= minKeepTokens {
			trimmed := r
			trimmed.Text = truncateTokens(r.Text, remaining)
			kept = append(kept, trimmed)
		}
		break
	}

	return kept
}

// EstimateTokens approximates token count as runes/4, the same heuristic the
// chunk splitter sizes against.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

func truncateTokens(text string, tokens int) string {
	runes := []rune(text)
	limit := tokens * 4
	if limit >= len(runes) {
		return text
	}
	return string(runes[:limit])
}
