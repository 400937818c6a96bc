// FILE: pkg/rag/fusion/fusion.go
package fusion

import (
	"fmt"
	"sort"
	"time"

	"examcraft-be/pkg/rag/vectors"

	"github.com/google/uuid"
)

const (
	MethodVector  = "vector"
	MethodLexical = "lexical"
	MethodFused   = "fused"
)

// Candidate is one scored chunk coming out of a single retrieval leg
// (vector similarity or lexical rank), before fusion.
type Candidate struct {
	ChunkId       uuid.UUID
	Text          string
	Score         float64
	Unit          string
	Lesson        string
	MarksAffinity int
	CreatedAt     time.Time
	Embedding     []float32
}

// Ranked is a fused retrieval result. Fused is always in [0, 1].
type Ranked struct {
	Candidate
	Fused  float64
	Method string
}

type Weights struct {
	Vector  float64
	Lexical float64
}

func DefaultWeights() Weights {
	return Weights{Vector: 0.5, Lexical: 0.5}
}

// VectorOnly is the weight profile for question-paper content, where the
// lexical signal over short Q&A items is noise rather than relevance.
func VectorOnly() Weights {
	return Weights{Vector: 1.0, Lexical: 0.0}
}

// Criteria carries the request metadata used to break score ties.
type Criteria struct {
	Unit  string
	Marks int
}

// EmptyRetrievalError means no candidate cleared the relevance floor.
// The caller decides whether to relax filters or fail the slot.
type EmptyRetrievalError struct {
	Query string
	Floor float64
	Best  float64
}

func (e *EmptyRetrievalError) Error() string {
	return fmt.Sprintf("no chunk cleared relevance floor %.2f for query %q (best %.2f)", e.Floor, e.Query, e.Best)
}

// Fuse merges the two retrieval legs into a single ranking.
// Each leg's scores are min-max normalized independently, then combined as
// w.Vector*vec + w.Lexical*lex per chunk; a chunk absent from a leg
// contributes zero for that leg. Ties are broken by metadata alignment with
// the request criteria, then by chunk recency.
func Fuse(vector, lexical []Candidate, w Weights, crit Criteria) []Ranked {
	type merged struct {
		cand    Candidate
		vec     float64
		lex     float64
		methods int // bit 1 = vector, bit 2 = lexical
	}

	vecNorm := vectors.MinMax(scoresOf(vector))
	lexNorm := vectors.MinMax(scoresOf(lexical))

	byId := make(map[uuid.UUID]*merged, len(vector)+len(lexical))
	order := make([]uuid.UUID, 0, len(vector)+len(lexical))

	for i, c := range vector {
		byId[c.ChunkId] = &merged{cand: c, vec: vecNorm[i], methods: 1}
		order = append(order, c.ChunkId)
	}
	for i, c := range lexical {
		if m, ok := byId[c.ChunkId]; ok {
			m.lex = lexNorm[i]
			m.methods |= 2
			continue
		}
		byId[c.ChunkId] = &merged{cand: c, lex: lexNorm[i], methods: 2}
		order = append(order, c.ChunkId)
	}

	results := make([]Ranked, 0, len(order))
	for _, id := range order {
		m := byId[id]
		r := Ranked{
			Candidate: m.cand,
			Fused:     w.Vector*m.vec + w.Lexical*m.lex,
		}
		switch m.methods {
		case 1:
			r.Method = MethodVector
		case 2:
			r.Method = MethodLexical
		default:
			r.Method = MethodFused
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Fused != results[j].Fused {
			return results[i].Fused > results[j].Fused
		}
		ai, aj := alignment(results[i].Candidate, crit), alignment(results[j].Candidate, crit)
		if ai != aj {
			return ai > aj
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	return results
}

// ApplyFloor drops results below the relevance floor and keeps at most topK.
// An empty survivor set is an error, not an empty success: downstream
// generation must not run on nothing.
func ApplyFloor(results []Ranked, floor float64, topK int, query string) ([]Ranked, error) {
	var kept []Ranked
	best := 0.0
	for _, r := range results {
		if r.Fused > best {
			best = r.Fused
		}
		if r.Fused >= floor {
			kept = append(kept, r)
		}
	}

	if len(kept) == 0 {
		return nil, &EmptyRetrievalError{Query: query, Floor: floor, Best: best}
	}

	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}
	return kept, nil
}

func scoresOf(cands []Candidate) []float64 {
	if len(cands) == 0 {
		return nil
	}
	out := make([]float64, len(cands))
	for i, c := range cands {
		out[i] = c.Score
	}
	return out
}

// alignment scores how well a candidate's metadata matches the request:
// unit match dominates, marks-affinity closeness refines.
func alignment(c Candidate, crit Criteria) int {
	score := 0
	if crit.Unit != "" && c.Unit == crit.Unit {
		score += 2
	}
	if crit.Marks > 0 && c.MarksAffinity > 0 {
		diff := crit.Marks - c.MarksAffinity
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			score++
		}
	}
	return score
}
