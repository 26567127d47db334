package vectordb

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"scaled copy", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0.0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
		{"both empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_Range(t *testing.T) {
	a := []float32{0.3, -0.7, 0.12, 0.99}
	b := []float32{-0.5, 0.2, 0.8, -0.1}

	got := CosineSimilarity(a, b)
	if got < -1.0 || got > 1.0 {
		t.Errorf("similarity %v outside [-1, 1]", got)
	}
	if got2 := CosineSimilarity(b, a); math.Abs(got-got2) > 1e-12 {
		t.Errorf("similarity not symmetric: %v vs %v", got, got2)
	}
}
