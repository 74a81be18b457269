package neat

import (
	"math"
	"sort"
)

// Reproduction handles elitism, culling, offspring allocation and the creation
// of offspring through crossover and mutation.
type Reproduction struct {
	Config    *ReproductionConfig
	Ancestors map[int][]int // Map genome id -> parent ids for the current generation
	run       *Run
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(run *Run) *Reproduction {
	return &Reproduction{
		Config:    &run.Config.Reproduction,
		Ancestors: make(map[int][]int),
		run:       run,
	}
}

// sortByFitness returns a copy of genomes ordered by fitness, best first.
func sortByFitness(genomes []*Genome) []*Genome {
	sorted := make([]*Genome, len(genomes))
	copy(sorted, genomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Fitness > sorted[j].Fitness
	})
	return sorted
}

// Elites returns clones of the genomes that bypass reproduction: the champion
// of every species with more than elite_species_min_size members, followed by
// the globally best genomes among the top elitism that are not equal to an
// elite already chosen. At most popSize elites are returned.
func (r *Reproduction) Elites(genomes []*Genome, species []*Species, popSize int) []*Genome {
	var elites []*Genome
	for _, s := range species {
		if len(s.Members) > r.Config.EliteSpeciesMinSize {
			elites = append(elites, s.Best().Clone())
		}
	}

	sorted := sortByFitness(genomes)
	for i := 0; i < r.Config.Elitism && i < len(sorted); i++ {
		candidate := sorted[i]
		unique := true
		for _, e := range elites {
			if e.Equals(candidate) {
				unique = false
				break
			}
		}
		if unique {
			elites = append(elites, candidate.Clone())
		}
	}

	if len(elites) > popSize {
		elites = elites[:popSize]
	}
	return elites
}

// Cull keeps the best survival_threshold fraction of every species, at least
// one member each.
func (r *Reproduction) Cull(species []*Species) {
	for _, s := range species {
		s.sortMembers()
		keep := max(1, int(math.Floor(float64(len(s.Members))*r.Config.SurvivalThreshold)))
		if len(s.Members) > keep {
			s.Members = s.Members[:keep]
		}
	}
}

// AllocateOffspring distributes budget offspring over the species in
// proportion to their total adjusted fitness. Shares are rounded down; an
// excess is taken from the species with the lowest total adjusted fitness and
// a shortfall is given to the species with the best fitness. When the total
// adjusted fitness is not a positive finite number, or any species has a
// negative total, the budget is split equally.
func AllocateOffspring(species []*Species, budget int) {
	if len(species) == 0 {
		return
	}
	if budget < 0 {
		budget = 0
	}

	totals := make([]float64, len(species))
	total := 0.0
	equal := false
	for i, s := range species {
		s.SetAdjustedFitness()
		totals[i] = s.TotalAdjustedFitness()
		if totals[i] < 0 || math.IsNaN(totals[i]) {
			equal = true
		}
		total += totals[i]
	}
	if !(total > 0) || math.IsInf(total, 0) {
		equal = true
	}

	assigned := 0
	for i, s := range species {
		if equal {
			s.Offspring = budget / len(species)
		} else {
			s.Offspring = int(math.Floor(totals[i] / total * float64(budget)))
		}
		assigned += s.Offspring
	}

	for assigned > budget {
		worst := -1
		for i, s := range species {
			if s.Offspring > 0 && (worst == -1 || totals[i] < totals[worst]) {
				worst = i
			}
		}
		take := min(assigned-budget, species[worst].Offspring)
		species[worst].Offspring -= take
		assigned -= take
	}

	if assigned < budget {
		best := species[0]
		for _, s := range species[1:] {
			if s.BestFitness > best.BestFitness {
				best = s
			}
		}
		best.Offspring += budget - assigned
	}
}

// Reproduce creates the allotted offspring of every species. Each offspring is
// produced, in order of preference, by cloning and mutating a member not yet
// used this way (probability mutate_only_prob), by crossing a member with a
// member of another species (probability interspecies_mating_rate), or by
// crossing two distinct members. A species with a single member clones and
// mutates it. Crossover offspring are mutated with probability mutation_rate.
func (r *Reproduction) Reproduce(species []*Species) []*Genome {
	run := r.run
	cfg := r.Config
	ancestors := make(map[int][]int)
	var offspring []*Genome

	for si, s := range species {
		used := make(map[*Genome]bool)
		for i := 0; i < s.Offspring; i++ {
			var child *Genome

			switch {
			case run.Float64() < cfg.MutateOnlyProb:
				parent := r.pickUnused(s.Members, used)
				child = parent.Clone()
				child.Mutate()
				ancestors[child.ID] = []int{parent.ID}

			case run.Float64() < cfg.InterspeciesMatingRate && len(species) > 1:
				j := run.Intn(len(species) - 1)
				if j >= si {
					j++
				}
				other := species[j]
				p1 := s.Members[run.Intn(len(s.Members))]
				p2 := other.Members[run.Intn(len(other.Members))]
				child = r.mate(p1, p2)
				ancestors[child.ID] = []int{p1.ID, p2.ID}

			case len(s.Members) > 1:
				a := run.Intn(len(s.Members))
				b := run.Intn(len(s.Members) - 1)
				if b >= a {
					b++
				}
				p1, p2 := s.Members[a], s.Members[b]
				child = r.mate(p1, p2)
				ancestors[child.ID] = []int{p1.ID, p2.ID}

			default:
				parent := s.Members[0]
				child = parent.Clone()
				child.Mutate()
				ancestors[child.ID] = []int{parent.ID}
			}
			offspring = append(offspring, child)
		}
	}

	r.Ancestors = ancestors
	return offspring
}

func (r *Reproduction) mate(p1, p2 *Genome) *Genome {
	child := p1.Crossover(p2)
	if r.run.Float64() <= r.Config.MutationRate {
		child.Mutate()
	}
	return child
}

// pickUnused selects a random member that has not been picked before, or any
// member once all have been used.
func (r *Reproduction) pickUnused(members []*Genome, used map[*Genome]bool) *Genome {
	var candidates []*Genome
	for _, m := range members {
		if !used[m] {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		candidates = members
	}
	pick := candidates[r.run.Intn(len(candidates))]
	used[pick] = true
	return pick
}
