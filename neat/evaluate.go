package neat

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// FitnessFunc scores one genome; higher is better. It may call Propagate and
// ResetState but must not change the genome's structure.
type FitnessFunc func(g *Genome) (float64, error)

// Evaluate assigns a fitness to every genome of the population. With
// eval_workers greater than one, genomes are scored concurrently on a bounded
// pool; the fitness function must then be safe for concurrent use on distinct
// genomes. The first error aborts the evaluation.
func (p *Population) Evaluate(fn FitnessFunc) error {
	workers := p.Config.Neat.EvalWorkers
	if workers <= 1 {
		for _, g := range p.Genomes {
			fitness, err := fn(g)
			if err != nil {
				return fmt.Errorf("fitness evaluation failed for genome %d: %w", g.ID, err)
			}
			g.Fitness = fitness
		}
		p.updateBest()
		return nil
	}

	evalPool := pool.New().WithErrors().WithFirstError().WithMaxGoroutines(workers)
	for _, g := range p.Genomes {
		evalPool.Go(func() error {
			fitness, err := fn(g)
			if err != nil {
				return fmt.Errorf("fitness evaluation failed for genome %d: %w", g.ID, err)
			}
			g.Fitness = fitness
			return nil
		})
	}
	if err := evalPool.Wait(); err != nil {
		return err
	}
	p.updateBest()
	return nil
}
