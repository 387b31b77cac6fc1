package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEuclidean(t *testing.T) {
	assert.InDelta(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}), 1e-12)
	assert.InDelta(t, 25.0, SquaredEuclidean([]float64{0, 0}, []float64{3, 4}), 1e-12)
	assert.Zero(t, Euclidean([]float64{1, 2, 3}, []float64{1, 2, 3}))
}

func TestMeanAndStdDev(t *testing.T) {
	v := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(v), 1e-12)
	assert.InDelta(t, 4.0, Variance(v), 1e-12)
	assert.InDelta(t, 2.0, StdDev(v), 1e-12)
	assert.Zero(t, Mean(nil))
	assert.Zero(t, Variance(nil))
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, got)
	assert.Equal(t, []float64{0}, Linspace(0, 1, 1))
	assert.Nil(t, Linspace(0, 1, 0))
}

func TestNorm(t *testing.T) {
	assert.InDelta(t, 5.0, Norm([]float64{3, 4}), 1e-12)
	assert.InDelta(t, 11.0, DotProduct([]float64{1, 2}, []float64{3, 4}), 1e-12)
}
