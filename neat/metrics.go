package neat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	mutationWeight        = "weight"
	mutationAddConnection = "add_connection"
	mutationAddNode       = "add_node"
)

// Metrics exports the progress of a run to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Generation         prometheus.Gauge
	BestFitness        prometheus.Gauge
	Species            prometheus.Gauge
	Genomes            prometheus.Gauge
	Mutations          *prometheus.CounterVec
	Crossovers         prometheus.Counter
	GenerationDuration prometheus.Histogram
}

// NewMetrics creates the run metrics, labelled with the run name, and
// registers them with reg.
func NewMetrics(reg prometheus.Registerer, runName string) (*Metrics, error) {
	labels := prometheus.Labels{"run": runName}
	m := &Metrics{
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "neat_generation",
			Help:        "Current generation of the run.",
			ConstLabels: labels,
		}),
		BestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "neat_best_fitness",
			Help:        "Best fitness of the current generation.",
			ConstLabels: labels,
		}),
		Species: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "neat_species",
			Help:        "Number of species after speciation.",
			ConstLabels: labels,
		}),
		Genomes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "neat_genomes",
			Help:        "Number of genomes in the population.",
			ConstLabels: labels,
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "neat_mutations_total",
			Help:        "Mutations applied, by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		Crossovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "neat_crossovers_total",
			Help:        "Offspring produced by crossover.",
			ConstLabels: labels,
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "neat_generation_duration_seconds",
			Help:        "Wall time of one evolve, evaluate and speciate cycle.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.Generation, m.BestFitness, m.Species, m.Genomes, m.Mutations, m.Crossovers, m.GenerationDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeMutation(kind string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeCrossover() {
	if m == nil {
		return
	}
	m.Crossovers.Inc()
}

func (m *Metrics) observeGeneration(generation int, best float64, species, genomes int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Generation.Set(float64(generation))
	m.BestFitness.Set(best)
	m.Species.Set(float64(species))
	m.Genomes.Set(float64(genomes))
	if elapsed > 0 {
		m.GenerationDuration.Observe(elapsed.Seconds())
	}
}
