package neat

import (
	"math"
	"sort"
)

// Stagnation tracks improvement of the population and of each species.
type Stagnation struct {
	Config *StagnationConfig

	BestFitness      float64 // Best population fitness seen so far.
	SinceImprovement int     // Generations since BestFitness last improved.
	Stale            bool
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) *Stagnation {
	return &Stagnation{
		Config:      config,
		BestFitness: math.Inf(-1),
	}
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update records the current best fitness of the population and of every
// species. A species is stagnant after more than max_stagnation generations
// without improving its own best; the population is stale after more than
// population_stagnation_limit generations without a new overall best.
// The returned infos are ordered by species best fitness, best first.
func (s *Stagnation) Update(species []*Species, populationBest float64) []StagnationInfo {
	if populationBest > s.BestFitness {
		s.BestFitness = populationBest
		s.SinceImprovement = 0
	} else {
		s.SinceImprovement++
	}
	s.Stale = s.SinceImprovement > s.Config.PopulationStagnationLimit

	infos := make([]StagnationInfo, 0, len(species))
	for _, sp := range species {
		if best := sp.Best(); best != nil && best.Fitness > sp.BestFitness {
			sp.BestFitness = best.Fitness
			sp.SinceImprovement = 0
		} else {
			sp.SinceImprovement++
		}
		sp.Stagnant = sp.SinceImprovement > s.Config.MaxStagnation
		infos = append(infos, StagnationInfo{SpeciesID: sp.ID, Species: sp, IsStagnant: sp.Stagnant})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Species.BestFitness > infos[j].Species.BestFitness
	})
	return infos
}

// Survivors decides which species take part in reproduction. A stale
// population keeps only its two best species. If every species is stagnant
// only the best one survives. Otherwise every stagnant species is dropped.
func (s *Stagnation) Survivors(infos []StagnationInfo) []*Species {
	keep := func(n int) []*Species {
		out := make([]*Species, 0, n)
		for i := 0; i < n && i < len(infos); i++ {
			out = append(out, infos[i].Species)
		}
		return out
	}

	if s.Stale {
		return keep(2)
	}

	allStagnant := len(infos) > 0
	for _, info := range infos {
		if !info.IsStagnant {
			allStagnant = false
			break
		}
	}
	if allStagnant {
		return keep(1)
	}

	out := make([]*Species, 0, len(infos))
	for _, info := range infos {
		if !info.IsStagnant {
			out = append(out, info.Species)
		}
	}
	return out
}
