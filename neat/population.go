package neat

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotSpeciated is returned by Evolve when the population has no species.
var ErrNotSpeciated = errors.New("population has not been speciated")

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	Config       *Config
	Genomes      []*Genome // Current generation of genomes.
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome // Best genome found so far.

	run *Run
}

// NewPopulation creates the first generation: pop_size clones of one minimal
// genome, each with freshly initialized weights.
func NewPopulation(run *Run) *Population {
	p := newPopulation(run)
	base := NewMinimalGenome(run)
	for i := 0; i < run.Config.Neat.PopSize; i++ {
		g := base.Clone()
		g.ReinitializeWeights()
		p.Genomes = append(p.Genomes, g)
	}
	return p
}

// NewPopulationFrom creates a population from existing genomes of run.
func NewPopulationFrom(run *Run, genomes []*Genome) *Population {
	p := newPopulation(run)
	p.Genomes = append(p.Genomes, genomes...)
	return p
}

func newPopulation(run *Run) *Population {
	return &Population{
		Config:       run.Config,
		SpeciesSet:   NewSpeciesSet(&run.Config.SpeciesSet),
		Reproduction: NewReproduction(run),
		Stagnation:   NewStagnation(&run.Config.Stagnation),
		run:          run,
	}
}

// Runtime returns the run context the population evolves in.
func (p *Population) Runtime() *Run { return p.run }

// Speciate partitions the current genomes into species.
func (p *Population) Speciate() {
	p.SpeciesSet.Speciate(p.run, p.Genomes, p.Generation)
}

// Species returns the current species.
func (p *Population) Species() []*Species { return p.SpeciesSet.Species }

// Best returns the fittest genome of the current generation.
func (p *Population) Best() *Genome {
	var best *Genome
	for _, g := range p.Genomes {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

func (p *Population) updateBest() {
	if current := p.Best(); current != nil && (p.BestGenome == nil || current.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = current
		p.run.Logger.Debug("new best genome",
			slog.Int("genome", current.ID),
			slog.Float64("fitness", current.Fitness),
			slog.Int("generation", p.Generation))
	}
}

// Evolve replaces the current generation with the next one. The population
// must have been evaluated and speciated.
//
// Elites are set aside first. Stagnant species are then removed, the survivors
// are culled, offspring are allotted in proportion to adjusted fitness and
// produced by crossover and mutation. The new generation is the offspring
// followed by the elites, each pruned of dead-end hidden nodes.
func (p *Population) Evolve() error {
	species := p.SpeciesSet.Species
	if len(species) == 0 {
		return ErrNotSpeciated
	}
	popSize := p.Config.Neat.PopSize

	p.run.Innovations.Reset()

	elites := p.Reproduction.Elites(p.Genomes, species, popSize)

	current := p.Best()
	infos := p.Stagnation.Update(species, current.Fitness)
	survivors := p.Stagnation.Survivors(infos)
	if dropped := len(species) - len(survivors); dropped > 0 {
		p.run.Logger.Info("species removed by stagnation",
			slog.Int("generation", p.Generation),
			slog.Int("removed", dropped),
			slog.Bool("population_stale", p.Stagnation.Stale))
	}
	p.SpeciesSet.Species = survivors

	p.Reproduction.Cull(survivors)
	AllocateOffspring(survivors, popSize-len(elites))
	offspring := p.Reproduction.Reproduce(survivors)

	next := make([]*Genome, 0, len(offspring)+len(elites))
	next = append(next, offspring...)
	next = append(next, elites...)
	for _, g := range next {
		g.Prune()
	}
	if len(next) != popSize {
		return fmt.Errorf("generation %d produced %d genomes, want %d", p.Generation+1, len(next), popSize)
	}

	p.Genomes = next
	p.Generation++
	return nil
}

// RunGeneration performs one evolve, evaluate, speciate cycle and returns the
// best genome if it reached fitness_threshold, otherwise nil. A population that
// has never been speciated is evaluated and speciated first.
func (p *Population) RunGeneration(fn FitnessFunc) (*Genome, error) {
	start := time.Now()

	if len(p.SpeciesSet.Species) == 0 {
		if err := p.Evaluate(fn); err != nil {
			return nil, err
		}
		p.Speciate()
		if winner := p.winner(); winner != nil {
			return winner, nil
		}
	}

	if err := p.Evolve(); err != nil {
		return nil, fmt.Errorf("evolution failed in generation %d: %w", p.Generation, err)
	}
	if err := p.Evaluate(fn); err != nil {
		return nil, fmt.Errorf("generation %d: %w", p.Generation, err)
	}
	p.Speciate()

	elapsed := time.Since(start)
	best := p.Best()
	p.run.Logger.Info("generation complete",
		slog.Int("generation", p.Generation),
		slog.Float64("best_fitness", best.Fitness),
		slog.Any("fitness", Summarize(fitnessesOf(p.Genomes))),
		slog.Int("species", len(p.SpeciesSet.Species)),
		slog.Int("genomes", len(p.Genomes)),
		slog.Duration("duration", elapsed))
	for _, s := range p.SpeciesSet.Species {
		p.run.Logger.Debug("species summary",
			slog.Int("species", s.ID),
			slog.Int("age", p.Generation-s.Created),
			slog.Int("size", len(s.Members)),
			slog.Any("fitness", Summarize(s.Fitnesses())),
			slog.Int("since_improvement", s.SinceImprovement))
	}
	p.run.Metrics.observeGeneration(p.Generation, best.Fitness, len(p.SpeciesSet.Species), len(p.Genomes), elapsed)

	return p.winner(), nil
}

// Run evolves the population until a genome reaches fitness_threshold or
// the generation cap is hit, and returns the best genome found.
func (p *Population) Run(fn FitnessFunc) (*Genome, error) {
	if len(p.SpeciesSet.Species) == 0 {
		if err := p.Evaluate(fn); err != nil {
			return nil, err
		}
		p.Speciate()
	}
	if winner := p.winner(); winner != nil {
		return winner, nil
	}

	for p.Generation < p.Config.Neat.Generations {
		winner, err := p.RunGeneration(fn)
		if err != nil {
			return p.BestGenome, err
		}
		if winner != nil {
			p.run.Logger.Info("fitness threshold reached",
				slog.Int("generation", p.Generation),
				slog.Int("genome", winner.ID),
				slog.Float64("fitness", winner.Fitness))
			return winner, nil
		}
	}
	return p.BestGenome, nil
}

func (p *Population) winner() *Genome {
	if best := p.Best(); best != nil && best.Fitness >= p.Config.Neat.FitnessThreshold {
		return best
	}
	return nil
}
