package neat

import (
	"log/slog"
	"math"
	"sort"
)

// Species represents a group of genetically similar genomes.
// Members are borrowed from the population, which owns the genomes.
type Species struct {
	ID               int       // Unique identifier for the species.
	Created          int       // Generation number when the species was created.
	Representative   *Genome   // Genome new members are compared against.
	Members          []*Genome // Genomes belonging to this species, in assignment order.
	BestFitness      float64   // Best member fitness seen so far.
	SinceImprovement int       // Generations since BestFitness last improved.
	Stagnant         bool
	Offspring        int // Offspring allotted in the current generation.
}

// NewSpecies creates a new species founded by the given genome.
func NewSpecies(id, generation int, founder *Genome) *Species {
	s := &Species{
		ID:             id,
		Created:        generation,
		Representative: founder,
		BestFitness:    math.Inf(-1),
	}
	if founder != nil {
		s.Members = []*Genome{founder}
	}
	return s
}

// Best returns the fittest member, or nil for an empty species.
func (s *Species) Best() *Genome {
	var best *Genome
	for _, g := range s.Members {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// Fitnesses returns the fitness of every member, in member order.
func (s *Species) Fitnesses() []float64 { return fitnessesOf(s.Members) }

// SetAdjustedFitness shares each member's fitness with the rest of the species.
func (s *Species) SetAdjustedFitness() {
	for _, g := range s.Members {
		g.AdjustedFitness = g.Fitness / float64(len(s.Members))
	}
}

// TotalAdjustedFitness sums the adjusted fitness of all members.
func (s *Species) TotalAdjustedFitness() float64 {
	total := 0.0
	for _, g := range s.Members {
		total += g.AdjustedFitness
	}
	return total
}

// sortMembers orders members by fitness, best first.
func (s *Species) sortMembers() {
	sort.SliceStable(s.Members, func(i, j int) bool {
		return s.Members[i].Fitness > s.Members[j].Fitness
	})
}

// --------------------------- GenomeDistanceCache ---------------------------

type genomePair struct{ a, b *Genome }

// GenomeDistanceCache stores calculated distances and encodings so that every
// genome is encoded once and every pair is compared once per speciation pass.
type GenomeDistanceCache struct {
	Distances map[genomePair]float64
	Hits      int
	Misses    int
	Config    *GenomeConfig

	encodings map[*Genome]*GeneticEncoding
}

// NewGenomeDistanceCache creates a new distance cache.
func NewGenomeDistanceCache(config *GenomeConfig) *GenomeDistanceCache {
	return &GenomeDistanceCache{
		Distances: make(map[genomePair]float64),
		Config:    config,
		encodings: make(map[*Genome]*GeneticEncoding),
	}
}

// Distance calculates or retrieves the distance between two genomes. Pairs
// are keyed by identity, so distinct genomes sharing an id are kept apart.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	if d, ok := dc.Distances[genomePair{genome1, genome2}]; ok {
		dc.Hits++
		return d
	}
	if d, ok := dc.Distances[genomePair{genome2, genome1}]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := dc.encoding(genome1).Distance(dc.encoding(genome2), dc.Config)
	dc.Distances[genomePair{genome1, genome2}] = d
	return d
}

func (dc *GenomeDistanceCache) encoding(g *Genome) *GeneticEncoding {
	e, ok := dc.encodings[g]
	if !ok {
		e = g.Encoding()
		dc.encodings[g] = e
	}
	return e
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species []*Species        // Species in creation order.
	Indexer int               // Counter for assigning new species ids (start at 1)
	Config  *SpeciesSetConfig // Reference to speciation config
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Indexer: 1,
		Config:  config,
	}
}

// Speciate partitions the population into species.
//
// Membership is cleared first. Each genome then joins the first species, in
// creation order, whose representative is closer than compatibility_threshold,
// or founds a new species. Representatives stay fixed for the whole pass.
// Afterwards empty species are dropped and every surviving species picks a new
// representative uniformly at random from its members.
func (ss *SpeciesSet) Speciate(run *Run, genomes []*Genome, generation int) {
	threshold := ss.Config.CompatibilityThreshold
	cache := NewGenomeDistanceCache(&run.Config.Genome)

	for _, s := range ss.Species {
		s.Members = nil
	}

	for _, g := range genomes {
		placed := false
		for _, s := range ss.Species {
			if s.Representative == nil {
				continue
			}
			if cache.Distance(g, s.Representative) < threshold {
				s.Members = append(s.Members, g)
				placed = true
				break
			}
		}
		if !placed {
			s := NewSpecies(ss.Indexer, generation, g)
			ss.Indexer++
			ss.Species = append(ss.Species, s)
			run.Logger.Debug("species created",
				slog.Int("species", s.ID),
				slog.Int("generation", generation),
				slog.Int("founder", g.ID))
		}
	}

	alive := ss.Species[:0]
	for _, s := range ss.Species {
		if len(s.Members) == 0 {
			run.Logger.Debug("species extinct", slog.Int("species", s.ID), slog.Int("generation", generation))
			continue
		}
		s.Representative = s.Members[run.Intn(len(s.Members))]
		alive = append(alive, s)
	}
	ss.Species = alive

	if len(cache.Distances) > 0 {
		distances := make([]float64, 0, len(cache.Distances))
		for _, d := range cache.Distances {
			distances = append(distances, d)
		}
		run.Logger.Debug("speciation finished",
			slog.Int("species", len(ss.Species)),
			slog.Any("distance", Summarize(distances)),
			slog.Int("cache_hits", cache.Hits),
			slog.Int("cache_misses", cache.Misses))
	}
}

// SpeciesOf returns the species a genome belongs to.
func (ss *SpeciesSet) SpeciesOf(g *Genome) (*Species, bool) {
	for _, s := range ss.Species {
		for _, m := range s.Members {
			if m == g {
				return s, true
			}
		}
	}
	return nil, false
}

// Genomes returns the members of all species, species by species.
func (ss *SpeciesSet) Genomes() []*Genome {
	var out []*Genome
	for _, s := range ss.Species {
		out = append(out, s.Members...)
	}
	return out
}
