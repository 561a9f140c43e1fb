package repository

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestCosineDistance(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"scaled", []float32{1, 0}, []float32{5, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 2},
		{"empty", nil, nil, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineDistance(tc.a, tc.b)
			gt.True(t, math.Abs(got-tc.want) < 1e-9)
		})
	}
}
