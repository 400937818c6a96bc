package fusion

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func cand(id uuid.UUID, score float64) Candidate {
	return Candidate{ChunkId: id, Score: score}
}

func TestFuseWeightedSum(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	vector := []Candidate{cand(a, 0.9), cand(b, 0.5), cand(c, 0.1)}
	lexical := []Candidate{cand(b, 12.0), cand(a, 4.0)}

	results := Fuse(vector, lexical, DefaultWeights(), Criteria{})

	if len(results) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(results))
	}

	// Normalized vector leg: a=1.0, b=0.5, c=0.0. Lexical leg: b=1.0, a=0.0.
	// Fused: a = 0.5*1.0 + 0.5*0.0 = 0.5; b = 0.5*0.5 + 0.5*1.0 = 0.75; c = 0.
	if results[0].ChunkId != b {
		t.Errorf("expected chunk present in both legs to rank first, got %v", results[0].ChunkId)
	}
	if results[0].Fused != 0.75 {
		t.Errorf("fused score = %v, want 0.75", results[0].Fused)
	}
	if results[0].Method != MethodFused {
		t.Errorf("method = %q, want %q", results[0].Method, MethodFused)
	}
	if results[2].ChunkId != c || results[2].Method != MethodVector {
		t.Errorf("single-leg candidate tagged %q", results[2].Method)
	}
}

func TestFuseScoresInUnitRange(t *testing.T) {
	vector := []Candidate{cand(uuid.New(), 123.4), cand(uuid.New(), -7.0), cand(uuid.New(), 55.5)}
	lexical := []Candidate{cand(uuid.New(), 9999.0), cand(uuid.New(), 1.0)}

	for _, r := range Fuse(vector, lexical, DefaultWeights(), Criteria{}) {
		if r.Fused < 0 || r.Fused > 1 {
			t.Errorf("fused score out of [0,1]: %v", r.Fused)
		}
	}
}

func TestFuseVectorOnly(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	vector := []Candidate{cand(a, 0.2), cand(b, 0.8)}

	results := Fuse(vector, nil, VectorOnly(), Criteria{})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkId != b {
		t.Errorf("expected higher vector score first")
	}
	if results[0].Method != MethodVector {
		t.Errorf("method = %q, want %q", results[0].Method, MethodVector)
	}
}

func TestFuseTieBreakMetadataThenRecency(t *testing.T) {
	now := time.Now()
	aligned := Candidate{ChunkId: uuid.New(), Score: 0.5, Unit: "3", CreatedAt: now.Add(-time.Hour)}
	newer := Candidate{ChunkId: uuid.New(), Score: 0.5, Unit: "7", CreatedAt: now}
	older := Candidate{ChunkId: uuid.New(), Score: 0.5, Unit: "7", CreatedAt: now.Add(-2 * time.Hour)}

	// All three carry the same raw score, so all normalize to 1.0.
	results := Fuse([]Candidate{newer, older, aligned}, nil, VectorOnly(), Criteria{Unit: "3"})

	if results[0].ChunkId != aligned.ChunkId {
		t.Errorf("metadata-aligned candidate should win the tie")
	}
	if results[1].ChunkId != newer.ChunkId {
		t.Errorf("recency should break the remaining tie, got %v first", results[1].Unit)
	}
}

func TestApplyFloor(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	results := []Ranked{
		{Candidate: cand(a, 0), Fused: 0.9},
		{Candidate: cand(b, 0), Fused: 0.2},
	}

	kept, err := ApplyFloor(results, 0.35, 10, "photosynthesis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 1 || kept[0].ChunkId != a {
		t.Errorf("expected only the candidate above the floor")
	}
}

func TestApplyFloorEmpty(t *testing.T) {
	results := []Ranked{{Candidate: cand(uuid.New(), 0), Fused: 0.1}}

	_, err := ApplyFloor(results, 0.35, 10, "unknown topic")

	var emptyErr *EmptyRetrievalError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyRetrievalError, got %v", err)
	}
	if emptyErr.Best != 0.1 || emptyErr.Floor != 0.35 {
		t.Errorf("error fields = best %v floor %v", emptyErr.Best, emptyErr.Floor)
	}
}

func TestApplyFloorTopK(t *testing.T) {
	var results []Ranked
	for i := 0; i < 8; i++ {
		results = append(results, Ranked{Candidate: cand(uuid.New(), 0), Fused: 0.9})
	}

	kept, err := ApplyFloor(results, 0.35, 5, "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 5 {
		t.Errorf("topK not applied: got %d", len(kept))
	}
}
