package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigINI(t *testing.T) {
	path := writeFile(t, "xor-config.ini", `
[NEAT]
pop_size          = 50
fitness_threshold = 0.9
eval_workers      = 0

[DefaultGenome]
num_inputs       = 3
activation       = tanh   # hyperbolic tangent
weight_init_type = Gaussian

[DefaultReproduction]
keep_disabled_policy = Inherit
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Neat.PopSize)
	assert.InDelta(t, 0.9, cfg.Neat.FitnessThreshold, 1e-12)
	assert.Equal(t, 1, cfg.Neat.EvalWorkers)
	assert.Equal(t, 3, cfg.Genome.NumInputs)
	assert.Equal(t, "tanh", cfg.Genome.Activation)
	assert.Equal(t, "gaussian", cfg.Genome.WeightInitType)
	assert.Equal(t, KeepDisabledInherit, cfg.Reproduction.KeepDisabledPolicy)

	// Keys and sections missing from the file keep their defaults.
	assert.Equal(t, 1, cfg.Genome.NumOutputs)
	assert.True(t, cfg.Genome.ConnectBias)
	assert.InDelta(t, 3.0, cfg.SpeciesSet.CompatibilityThreshold, 1e-12)
	assert.Equal(t, 15, cfg.Stagnation.MaxStagnation)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
neat:
  pop_size: 20
  seed: 7
genome:
  activation: relu
  allow_recurrent: false
species_set:
  compatibility_threshold: 2.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Neat.PopSize)
	assert.Equal(t, int64(7), cfg.Neat.Seed)
	assert.Equal(t, "relu", cfg.Genome.Activation)
	assert.False(t, cfg.Genome.AllowRecurrent)
	assert.InDelta(t, 2.5, cfg.SpeciesSet.CompatibilityThreshold, 1e-12)
	assert.Equal(t, 100, cfg.Neat.Generations)
	assert.Equal(t, KeepDisabledByRate, cfg.Reproduction.KeepDisabledPolicy)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"pop size", func(c *Config) { c.Neat.PopSize = 0 }, "pop_size"},
		{"inputs", func(c *Config) { c.Genome.NumInputs = 0 }, "num_inputs"},
		{"activation", func(c *Config) { c.Genome.Activation = "bogus" }, "bogus"},
		{"weight init", func(c *Config) { c.Genome.WeightInitType = "xavier" }, "weight_init_type"},
		{"weight bounds", func(c *Config) { c.Genome.WeightMinValue = 5 }, "weight_max_value"},
		{"probability", func(c *Config) { c.Genome.ConnAddProb = 1.5 }, "conn_add_prob"},
		{"policy", func(c *Config) { c.Reproduction.KeepDisabledPolicy = "sometimes" }, "keep_disabled_policy"},
		{"stagnation", func(c *Config) { c.Stagnation.MaxStagnation = 0 }, "max_stagnation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRunRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = -1
	_, err := NewRun(cfg)
	require.Error(t, err)
}

func TestNewRunDefaults(t *testing.T) {
	r := newTestRun(t, nil)
	assert.NotEmpty(t, r.Name)
	assert.Equal(t, int64(42), r.Seed())
	assert.Equal(t, 1, r.PopulationID)
	// Interface nodes use ids 0..3 for two inputs, one output and the bias.
	assert.Equal(t, 4, r.NodeIDs.Peek())

	named := newTestRun(t, nil, WithName("xor"), WithSeed(9), WithPopulationID(3))
	assert.Equal(t, "xor", named.Name)
	assert.Equal(t, int64(9), named.Seed())
	assert.Equal(t, 3, named.PopulationID)
}
