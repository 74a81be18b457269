package neat

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source is the random number generator threaded through every stochastic
// decision of a run.
type Source interface {
	Float64() float64
	NormFloat64() float64
	Intn(n int) int
}

// Run is the context of one evolutionary run. It owns the configuration, the
// innovation tracker, the id allocators and the random source. Every genome
// belongs to exactly one Run, and two runs never share trackers.
type Run struct {
	Config       *Config
	Name         string // unique run name, used as archive key and metrics label
	PopulationID int

	Innovations *InnovationTracker
	NodeIDs     *IDAllocator
	GenomeIDs   *IDAllocator

	Activation ActivationFunc
	WeightInit Initializer
	BiasInit   Initializer

	Logger  *slog.Logger
	Metrics *Metrics

	seed int64
	mu   sync.Mutex
	rng  *rand.Rand
}

// RunOption configures a Run.
type RunOption func(*Run)

// WithSeed overrides the seed from the configuration.
func WithSeed(seed int64) RunOption {
	return func(r *Run) { r.seed = seed }
}

// WithLogger sets the logger used for generation summaries.
func WithLogger(logger *slog.Logger) RunOption {
	return func(r *Run) { r.Logger = logger }
}

// WithMetrics attaches Prometheus metrics to the run.
func WithMetrics(m *Metrics) RunOption {
	return func(r *Run) { r.Metrics = m }
}

// WithActivation overrides the activation function named in the configuration.
func WithActivation(fn ActivationFunc) RunOption {
	return func(r *Run) { r.Activation = fn }
}

// WithWeightInitializer overrides the weight initializer built from the configuration.
func WithWeightInitializer(init Initializer) RunOption {
	return func(r *Run) { r.WeightInit = init }
}

// WithBiasInitializer overrides the bias initializer built from the configuration.
func WithBiasInitializer(init Initializer) RunOption {
	return func(r *Run) { r.BiasInit = init }
}

// WithPopulationID sets the population id written to persisted genomes.
func WithPopulationID(id int) RunOption {
	return func(r *Run) { r.PopulationID = id }
}

// WithName sets the run name instead of generating a random one.
func WithName(name string) RunOption {
	return func(r *Run) { r.Name = name }
}

// NewRun creates the context for a new evolutionary run.
func NewRun(cfg *Config, opts ...RunOption) (*Run, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Run{
		Config:       cfg,
		PopulationID: 1,
		seed:         cfg.Neat.Seed,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.seed == 0 {
		r.seed = time.Now().UnixNano()
	}
	r.rng = rand.New(rand.NewSource(r.seed))

	if r.Name == "" {
		r.Name = uuid.NewString()
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
	r.Logger = r.Logger.With(slog.String("component", "neat"), slog.String("run", r.Name))

	g := cfg.Genome
	if r.Activation == nil {
		fn, err := GetActivation(g.Activation)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		r.Activation = fn
	}
	if r.WeightInit == nil {
		init, err := newInitializer(g.WeightInitType, g.WeightInitValue, g.WeightInitMin, g.WeightInitMax, g.WeightInitMean, g.WeightInitStdev, r)
		if err != nil {
			return nil, fmt.Errorf("failed to create weight initializer: %w", err)
		}
		r.WeightInit = init
	}
	if r.BiasInit == nil {
		init, err := newInitializer(g.BiasInitType, g.BiasInitValue, g.BiasInitMin, g.BiasInitMax, g.BiasInitMean, g.BiasInitStdev, r)
		if err != nil {
			return nil, fmt.Errorf("failed to create bias initializer: %w", err)
		}
		r.BiasInit = init
	}

	// Inputs, outputs and the bias node take the first ids.
	r.NodeIDs = NewIDAllocator(g.NumInputs + g.NumOutputs + 1)
	r.GenomeIDs = NewIDAllocator(0)
	r.Innovations = NewInnovationTracker(0, r.NodeIDs)

	r.Logger.Debug("run created", slog.Int64("seed", r.seed), slog.String("activation", g.Activation))
	return r, nil
}

// Seed returns the seed of the run's random source.
func (r *Run) Seed() int64 { return r.seed }

// Float64 returns a pseudo-random number in [0.0, 1.0).
func (r *Run) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// NormFloat64 returns a normally distributed number with mean 0 and stdev 1.
func (r *Run) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.NormFloat64()
}

// Intn returns a pseudo-random number in [0, n).
func (r *Run) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// biasNodeID, inputNodeID and outputNodeID give the fixed interface ids.
func (r *Run) inputNodeID(i int) int  { return i }
func (r *Run) outputNodeID(i int) int { return r.Config.Genome.NumInputs + i }
func (r *Run) biasNodeID() int        { return r.Config.Genome.NumInputs + r.Config.Genome.NumOutputs }
