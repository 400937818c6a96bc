package compress

import (
	"strings"
	"testing"

	"examcraft-be/pkg/rag/fusion"

	"github.com/google/uuid"
)

func ranked(fused float64, text string, embedding []float32) fusion.Ranked {
	return fusion.Ranked{
		Candidate: fusion.Candidate{ChunkId: uuid.New(), Text: text, Embedding: embedding},
		Fused:     fused,
	}
}

func TestDeduplicateKeepsHighestScoredMember(t *testing.T) {
	top := ranked(0.9, "the mangrove forest shelters the coast", []float32{1, 0, 0})
	dup := ranked(0.7, "mangrove forests shelter the coastline", []float32{0.99, 0.01, 0})
	distinct := ranked(0.5, "photosynthesis converts light to energy", []float32{0, 1, 0})

	out := Deduplicate([]fusion.Ranked{top, dup, distinct}, 0.92)

	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(out))
	}
	if out[0].ChunkId != top.ChunkId {
		t.Errorf("top-ranked chunk was removed")
	}
	if out[1].ChunkId != distinct.ChunkId {
		t.Errorf("distinct chunk was removed")
	}
}

func TestDeduplicateBelowThresholdKeepsBoth(t *testing.T) {
	a := ranked(0.9, "a", []float32{1, 0})
	b := ranked(0.8, "b", []float32{0.5, 0.87})

	out := Deduplicate([]fusion.Ranked{a, b}, 0.92)
	if len(out) != 2 {
		t.Errorf("unrelated chunks clustered: %d survivors", len(out))
	}
}

func TestDeduplicateIsPure(t *testing.T) {
	in := []fusion.Ranked{
		ranked(0.9, "x", []float32{1, 0}),
		ranked(0.8, "y", []float32{0.999, 0.001}),
	}

	first := Deduplicate(in, 0.9)
	second := Deduplicate(in, 0.9)

	if len(first) != len(second) {
		t.Fatalf("same input produced different outputs: %d vs %d", len(first), len(second))
	}
	if len(in) != 2 || in[1].Text != "y" {
		t.Errorf("input slice mutated")
	}
}

func TestFitBudgetPreservesOrder(t *testing.T) {
	chunks := []fusion.Ranked{
		ranked(0.9, strings.Repeat("a", 400), nil), // 100 tokens
		ranked(0.8, strings.Repeat("b", 400), nil),
		ranked(0.7, strings.Repeat("c", 400), nil),
	}

	out := FitBudget(chunks, 250)

	if len(out) != 3 {
		t.Fatalf("expected 3 kept chunks (third truncated), got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Fused > out[i-1].Fused {
			t.Errorf("order not preserved at %d", i)
		}
	}
	if EstimateTokens(out[2].Text) > 50 {
		t.Errorf("third chunk not trimmed to remaining budget: %d tokens", EstimateTokens(out[2].Text))
	}
}

func TestFitBudgetDropsUselessTail(t *testing.T) {
	chunks := []fusion.Ranked{
		ranked(0.9, strings.Repeat("a", 400), nil), // 100 tokens
		ranked(0.8, strings.Repeat("b", 400), nil),
	}

	// 120 tokens leaves 20 for the second chunk, below the keep minimum.
	out := FitBudget(chunks, 120)

	if len(out) != 1 {
		t.Fatalf("expected tail fragment dropped, got %d chunks", len(out))
	}
	if out[0].Text != chunks[0].Text {
		t.Errorf("first chunk should be intact")
	}
}

func TestFitBudgetZero(t *testing.T) {
	if out := FitBudget([]fusion.Ranked{ranked(0.9, "abc", nil)}, 0); out != nil {
		t.Errorf("zero budget should keep nothing")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}
