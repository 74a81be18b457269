package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genomesWithFitness(r *Run, fitness ...float64) []*Genome {
	base := NewMinimalGenome(r)
	out := make([]*Genome, len(fitness))
	for i, f := range fitness {
		out[i] = base.Clone()
		out[i].Fitness = f
	}
	return out
}

func speciesOf(id int, members ...*Genome) *Species {
	s := NewSpecies(id, 0, members[0])
	s.Members = members
	return s
}

func TestSpeciateIdenticalGenomes(t *testing.T) {
	r := newTestRun(t, nil)
	genomes := genomesWithFitness(r, 1, 2, 3, 4)

	set := NewSpeciesSet(&r.Config.SpeciesSet)
	set.Speciate(r, genomes, 0)

	require.Len(t, set.Species, 1)
	assert.Equal(t, 1, set.Species[0].ID)
	assert.ElementsMatch(t, genomes, set.Species[0].Members)
	assert.Contains(t, genomes, set.Species[0].Representative)
}

func TestSpeciatePartitionsPopulation(t *testing.T) {
	r := newTestRun(t, func(c *Config) {
		c.SpeciesSet.CompatibilityThreshold = 0
	})
	genomes := genomesWithFitness(r, 1, 2, 3)

	set := NewSpeciesSet(&r.Config.SpeciesSet)
	set.Speciate(r, genomes, 0)

	// Nothing is closer than a zero threshold, so every genome founds a species.
	require.Len(t, set.Species, 3)
	seen := map[*Genome]int{}
	for _, s := range set.Species {
		for _, m := range s.Members {
			seen[m]++
		}
	}
	for _, g := range genomes {
		assert.Equal(t, 1, seen[g])
		s, ok := set.SpeciesOf(g)
		require.True(t, ok)
		assert.Contains(t, s.Members, g)
	}
	assert.Len(t, set.Genomes(), 3)

	// The remaining genome founds a new species and the emptied ones are dropped.
	set.Speciate(r, genomes[:1], 1)
	require.Len(t, set.Species, 1)
	assert.Equal(t, 4, set.Species[0].ID)
	assert.Equal(t, 1, set.Species[0].Created)
	assert.Equal(t, 5, set.Indexer)
}

func TestAllocateOffspringSumsToBudget(t *testing.T) {
	r := newTestRun(t, nil)
	tests := []struct {
		name    string
		fitness [][]float64
		budget  int
	}{
		{"proportional", [][]float64{{3, 2, 1}, {5}, {0.5, 0.5}}, 37},
		{"zero fitness", [][]float64{{0, 0}, {0}}, 11},
		{"negative fitness", [][]float64{{-1, 2}, {1}}, 9},
		{"single species", [][]float64{{1, 1, 1}}, 5},
		{"empty budget", [][]float64{{1}, {2}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var species []*Species
			for i, fs := range tt.fitness {
				s := speciesOf(i+1, genomesWithFitness(r, fs...)...)
				s.BestFitness = s.Best().Fitness
				species = append(species, s)
			}
			AllocateOffspring(species, tt.budget)

			total := 0
			for _, s := range species {
				assert.GreaterOrEqual(t, s.Offspring, 0)
				total += s.Offspring
			}
			assert.Equal(t, tt.budget, total)
		})
	}
}

func TestAllocateOffspringFollowsAdjustedFitness(t *testing.T) {
	r := newTestRun(t, nil)
	strong := speciesOf(1, genomesWithFitness(r, 9, 9)...)
	weak := speciesOf(2, genomesWithFitness(r, 1, 1)...)
	AllocateOffspring([]*Species{strong, weak}, 10)

	assert.Equal(t, 9, strong.Offspring)
	assert.Equal(t, 1, weak.Offspring)
	assert.InDelta(t, 4.5, strong.Members[0].AdjustedFitness, 1e-12)
}

func TestCull(t *testing.T) {
	r := newTestRun(t, func(c *Config) { c.Reproduction.SurvivalThreshold = 0.4 })
	rep := NewReproduction(r)

	big := speciesOf(1, genomesWithFitness(r, 1, 5, 3, 4, 2)...)
	lone := speciesOf(2, genomesWithFitness(r, 7)...)
	rep.Cull([]*Species{big, lone})

	require.Len(t, big.Members, 2)
	assert.Equal(t, 5.0, big.Members[0].Fitness)
	assert.Equal(t, 4.0, big.Members[1].Fitness)
	assert.Len(t, lone.Members, 1)
}

func TestElites(t *testing.T) {
	r := newTestRun(t, func(c *Config) {
		c.Reproduction.Elitism = 2
		c.Reproduction.EliteSpeciesMinSize = 2
	})
	rep := NewReproduction(r)

	members := genomesWithFitness(r, 1, 6, 3)
	for _, g := range members {
		g.ReinitializeWeights()
	}
	small := genomesWithFitness(r, 8)
	small[0].ReinitializeWeights()
	species := []*Species{speciesOf(1, members...), speciesOf(2, small...)}
	all := append(append([]*Genome{}, members...), small...)

	elites := rep.Elites(all, species, 10)

	// Champion of the large species, then the global top two not already chosen.
	require.Len(t, elites, 2)
	assert.True(t, elites[0].Equals(members[1]))
	assert.True(t, elites[1].Equals(small[0]))
	for _, e := range elites {
		assert.NotContains(t, all, e, "elites are clones")
	}

	assert.Len(t, rep.Elites(all, species, 1), 1)
}

func TestStagnationDropsStagnantSpecies(t *testing.T) {
	r := newTestRun(t, func(c *Config) {
		c.Stagnation.MaxStagnation = 2
		c.Stagnation.PopulationStagnationLimit = 100
	})
	stuck := speciesOf(1, genomesWithFitness(r, 1)...)
	growing := speciesOf(2, genomesWithFitness(r, 1)...)
	st := NewStagnation(&r.Config.Stagnation)

	var survivors []*Species
	for gen := 0; gen < 4; gen++ {
		growing.Members[0].Fitness += 1
		infos := st.Update([]*Species{stuck, growing}, growing.Members[0].Fitness)
		assert.Equal(t, growing.ID, infos[0].SpeciesID, "infos are ordered best first")
		survivors = st.Survivors(infos)
	}

	assert.True(t, stuck.Stagnant)
	assert.False(t, growing.Stagnant)
	assert.Equal(t, []*Species{growing}, survivors)
}

func TestStagnationKeepsBestWhenAllStagnant(t *testing.T) {
	r := newTestRun(t, func(c *Config) {
		c.Stagnation.MaxStagnation = 1
		c.Stagnation.PopulationStagnationLimit = 100
	})
	low := speciesOf(1, genomesWithFitness(r, 1)...)
	high := speciesOf(2, genomesWithFitness(r, 2)...)
	st := NewStagnation(&r.Config.Stagnation)

	var survivors []*Species
	for gen := 0; gen < 3; gen++ {
		survivors = st.Survivors(st.Update([]*Species{low, high}, 2))
	}
	assert.Equal(t, []*Species{high}, survivors)
}

func TestStagnationStalePopulationKeepsTopTwo(t *testing.T) {
	r := newTestRun(t, func(c *Config) {
		c.Stagnation.MaxStagnation = 100
		c.Stagnation.PopulationStagnationLimit = 2
	})
	a := speciesOf(1, genomesWithFitness(r, 3)...)
	b := speciesOf(2, genomesWithFitness(r, 1)...)
	c := speciesOf(3, genomesWithFitness(r, 2)...)
	st := NewStagnation(&r.Config.Stagnation)

	var survivors []*Species
	for gen := 0; gen < 4; gen++ {
		survivors = st.Survivors(st.Update([]*Species{a, b, c}, 3))
	}
	assert.True(t, st.Stale)
	assert.Equal(t, []*Species{a, c}, survivors)
	assert.Equal(t, 3, st.SinceImprovement)
	assert.False(t, math.IsInf(st.BestFitness, 0))
}

func TestDistanceCacheKeepsGenomesWithSharedIDApart(t *testing.T) {
	r := newTestRun(t, nil)
	a := NewMinimalGenome(r)
	rep := a.Clone()
	b := a.Clone()
	require.True(t, b.MutateAddNode())
	b.ID = a.ID

	cache := NewGenomeDistanceCache(&r.Config.Genome)
	assert.Zero(t, cache.Distance(a, rep))
	d := cache.Distance(b, rep)
	assert.Greater(t, d, 0.0)
	assert.Equal(t, 2, cache.Misses)

	assert.Equal(t, d, cache.Distance(rep, b))
	assert.Equal(t, 1, cache.Hits)
}

func idsOf(genomes []*Genome) map[int]bool {
	ids := map[int]bool{}
	for _, g := range genomes {
		ids[g.ID] = true
	}
	return ids
}

func TestReproduceMutateOnlyUsesEveryMemberFirst(t *testing.T) {
	r := newTestRun(t, func(c *Config) { c.Reproduction.MutateOnlyProb = 1 })
	members := genomesWithFitness(r, 1, 2, 3, 4)
	s := speciesOf(1, members...)
	s.Offspring = 6

	rep := NewReproduction(r)
	kids := rep.Reproduce([]*Species{s})
	require.Len(t, kids, 6)

	memberIDs := idsOf(members)
	firstParents := map[int]bool{}
	for i, kid := range kids {
		parents := rep.Ancestors[kid.ID]
		require.Len(t, parents, 1)
		assert.True(t, memberIDs[parents[0]])
		if i < len(members) {
			assert.False(t, firstParents[parents[0]], "member %d picked twice before all were used", parents[0])
			firstParents[parents[0]] = true
		}
	}
	assert.Equal(t, memberIDs, firstParents)
}

func TestReproduceInterspeciesMatingCrossesSpecies(t *testing.T) {
	r := newTestRun(t, func(c *Config) {
		c.Reproduction.MutateOnlyProb = 0
		c.Reproduction.InterspeciesMatingRate = 1
	})
	left := speciesOf(1, genomesWithFitness(r, 1, 2)...)
	right := speciesOf(2, genomesWithFitness(r, 3, 4)...)
	left.Offspring, right.Offspring = 3, 3
	leftIDs, rightIDs := idsOf(left.Members), idsOf(right.Members)

	rep := NewReproduction(r)
	kids := rep.Reproduce([]*Species{left, right})
	require.Len(t, kids, 6)
	for i, kid := range kids {
		parents := rep.Ancestors[kid.ID]
		require.Len(t, parents, 2)
		own, other := leftIDs, rightIDs
		if i >= 3 {
			own, other = rightIDs, leftIDs
		}
		assert.True(t, own[parents[0]], "first parent comes from the offspring's species")
		assert.True(t, other[parents[1]], "second parent comes from another species")
	}

	// A lone species mates within itself.
	left.Offspring = 4
	kids = rep.Reproduce([]*Species{left})
	require.Len(t, kids, 4)
	for _, kid := range kids {
		parents := rep.Ancestors[kid.ID]
		require.Len(t, parents, 2)
		assert.NotEqual(t, parents[0], parents[1])
		assert.True(t, leftIDs[parents[0]])
		assert.True(t, leftIDs[parents[1]])
	}
}

func TestReproduceSingleMemberSpeciesClones(t *testing.T) {
	r := newTestRun(t, func(c *Config) {
		c.Reproduction.MutateOnlyProb = 0
		c.Reproduction.InterspeciesMatingRate = 0
	})
	lone := speciesOf(1, genomesWithFitness(r, 5)...)
	lone.Offspring = 3

	rep := NewReproduction(r)
	kids := rep.Reproduce([]*Species{lone})
	require.Len(t, kids, 3)
	for _, kid := range kids {
		assert.Equal(t, []int{lone.Members[0].ID}, rep.Ancestors[kid.ID])
		assert.NotSame(t, lone.Members[0], kid)
	}
	assert.Len(t, idsOf(kids), 3)
}
