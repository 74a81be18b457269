package neat

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRun builds a seeded run from the default configuration after
// applying configure.
func newTestRun(t *testing.T, configure func(*Config), opts ...RunOption) *Run {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Neat.Seed = 42
	if configure != nil {
		configure(cfg)
	}
	r, err := NewRun(cfg, append([]RunOption{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return r
}

func conn(innov, in, out int, weight float64) ConnectionRecord {
	return ConnectionRecord{InnovationNumber: innov, InNodeID: in, OutNodeID: out, Weight: weight, Enabled: true}
}

func buildGenome(t *testing.T, r *Run, nodes []NodeRecord, conns []ConnectionRecord) *Genome {
	t.Helper()
	g, err := r.GenomeFromRecord(GenomeRecord{
		ID:              r.GenomeIDs.Next(),
		NodeGenes:       nodes,
		ConnectionGenes: conns,
	})
	require.NoError(t, err)
	return g
}

func singleInputConfig(c *Config) {
	c.Genome.NumInputs = 1
	c.Genome.NumOutputs = 1
}

// topologyPanic runs fn and returns the *TopologyError it panicked with.
func topologyPanic(t *testing.T, fn func()) (terr *TopologyError) {
	t.Helper()
	defer func() {
		rec := recover()
		require.NotNil(t, rec, "expected a panic")
		err, ok := rec.(error)
		require.True(t, ok, "panic value %v is not an error", rec)
		require.ErrorAs(t, err, &terr)
	}()
	fn()
	return nil
}

func xorFitness(g *Genome) (float64, error) {
	inputs := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	expected := []float64{0, 1, 1, 0}
	g.ResetState()
	sse := 0.0
	for i, in := range inputs {
		d := g.Propagate(in)[0] - expected[i]
		sse += d * d
	}
	return 1 / (1 + sse), nil
}
