package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 3, 2})
	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 4.0, s.Max, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Stdev, 1e-12)

	odd := Summarize([]float64{5, -1, 2})
	assert.InDelta(t, 2.0, odd.Median, 1e-12)
	assert.InDelta(t, 5.0, odd.Max, 1e-12)

	single := Summarize([]float64{7})
	assert.Zero(t, single.Stdev)
	assert.InDelta(t, 7.0, single.Median, 1e-12)

	empty := Summarize(nil)
	assert.Zero(t, empty.N)
	assert.Zero(t, empty.Mean)
	assert.True(t, math.IsInf(empty.Max, -1))
}

func TestSummarizeLeavesInputUnsorted(t *testing.T) {
	values := []float64{3, 1, 2}
	Summarize(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 4.0, clamp(9, -4, 4))
	assert.Equal(t, -4.0, clamp(-9, -4, 4))
	assert.Equal(t, 0.5, clamp(0.5, -4, 4))
}
