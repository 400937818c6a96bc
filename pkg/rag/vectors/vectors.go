package vectors

import "math"

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// Mismatched or zero-length inputs score 0 so callers can treat them
// as "not similar" without a separate error path.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MinMax rescales scores to [0, 1] in place-order (a new slice is returned,
// the input is not mutated). A constant list maps to all 1.0: with no spread
// there is nothing to rank, and dropping everything to 0 would erase the
// signal that these candidates matched at all.
func MinMax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	if max == min {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	span := max - min
	for i, s := range scores {
		out[i] = (s - min) / span
	}
	return out
}
