package vectors

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"empty", nil, nil, 0.0},
		{"mismatched length", []float32{1, 2}, []float32{1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0.0},
	}

	for _, tt := range tests {
		got := Cosine(tt.a, tt.b)
		if !almostEqual(got, tt.want) {
			t.Errorf("%s: Cosine() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCosineScaleInvariant(t *testing.T) {
	a := []float32{0.3, 0.7, 0.1}
	scaled := []float32{0.6, 1.4, 0.2}

	if got := Cosine(a, scaled); !almostEqual(got, 1.0) {
		t.Errorf("Cosine of scaled copies = %v, want 1.0", got)
	}
}

func TestMinMax(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []float64
	}{
		{"spread", []float64{2, 4, 6}, []float64{0, 0.5, 1}},
		{"single", []float64{0.42}, []float64{1}},
		{"constant", []float64{3, 3, 3}, []float64{1, 1, 1}},
		{"empty", nil, nil},
		{"negative range", []float64{-2, 0, 2}, []float64{0, 0.5, 1}},
	}

	for _, tt := range tests {
		got := MinMax(tt.scores)
		if len(got) != len(tt.want) {
			t.Errorf("%s: MinMax() len = %d, want %d", tt.name, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if !almostEqual(got[i], tt.want[i]) {
				t.Errorf("%s: MinMax()[%d] = %v, want %v", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestMinMaxDoesNotMutateInput(t *testing.T) {
	in := []float64{5, 1, 3}
	MinMax(in)

	if in[0] != 5 || in[1] != 1 || in[2] != 3 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestMinMaxBounds(t *testing.T) {
	in := []float64{12.5, -3.1, 0.0, 99.9, 4.2}
	out := MinMax(in)

	for i, v := range out {
		if v < 0 || v > 1 {
			t.Errorf("normalized score out of range at %d: %v", i, v)
		}
	}
}
