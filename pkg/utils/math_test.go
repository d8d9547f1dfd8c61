package utils

import (
	"math"
	"testing"
)

func TestSoftmax(t *testing.T) {
	t.Run("sums to one", func(t *testing.T) {
		p := Softmax([]float64{1.5, -2.0, 0.3, 4.1})
		var sum float64
		for _, v := range p {
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("probabilities sum to %v, want 1", sum)
		}
	})

	t.Run("preserves order", func(t *testing.T) {
		p := Softmax([]float64{0.0, 3.0, 1.0})
		if !(p[1] > p[2] && p[2] > p[0]) {
			t.Errorf("order not preserved: %v", p)
		}
	})

	t.Run("stable for large scores", func(t *testing.T) {
		p := Softmax([]float64{1000, 1001})
		if math.IsNaN(p[0]) || math.IsInf(p[1], 0) {
			t.Errorf("overflowed: %v", p)
		}
		if p[1] <= p[0] {
			t.Errorf("larger score should win: %v", p)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if p := Softmax(nil); p != nil {
			t.Errorf("got %v, want nil", p)
		}
	})
}

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("got %v", x)
	}

	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
