package neat

import (
	"log/slog"
	"math"
	"sort"
)

func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// Stats summarizes a sample of fitness values or distances.
type Stats struct {
	N      int
	Mean   float64
	Stdev  float64 // sample standard deviation, 0 below two values
	Median float64
	Max    float64
}

// Summarize computes Stats over values. An empty sample has zero mean and
// median and a maximum of -Inf.
func Summarize(values []float64) Stats {
	s := Stats{N: len(values), Max: math.Inf(-1)}
	if s.N == 0 {
		return s
	}

	sorted := make([]float64, s.N)
	copy(sorted, values)
	sort.Float64s(sorted)

	total := 0.0
	for _, v := range sorted {
		total += v
	}
	s.Mean = total / float64(s.N)
	s.Max = sorted[s.N-1]
	if mid := s.N / 2; s.N%2 == 1 {
		s.Median = sorted[mid]
	} else {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	}

	if s.N > 1 {
		variance := 0.0
		for _, v := range sorted {
			d := v - s.Mean
			variance += d * d
		}
		s.Stdev = math.Sqrt(variance / float64(s.N-1))
	}
	return s
}

// LogValue renders the summary as a log group.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", s.Mean),
		slog.Float64("stdev", s.Stdev),
		slog.Float64("median", s.Median),
		slog.Float64("max", s.Max),
	)
}

func fitnessesOf(genomes []*Genome) []float64 {
	out := make([]float64, len(genomes))
	for i, g := range genomes {
		out[i] = g.Fitness
	}
	return out
}
