package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for an evolutionary run.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"genome"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set"`
	Stagnation   StagnationConfig   `yaml:"stagnation"`
}

// NeatConfig holds parameters of the run itself.
type NeatConfig struct {
	PopSize          int     `ini:"pop_size" yaml:"pop_size"`
	Generations      int     `ini:"generations" yaml:"generations"`             // generation cap
	FitnessThreshold float64 `ini:"fitness_threshold" yaml:"fitness_threshold"` // target fitness
	Seed             int64   `ini:"seed" yaml:"seed"`                           // 0 picks a time based seed
	EvalWorkers      int     `ini:"eval_workers" yaml:"eval_workers"`
}

// GenomeConfig holds parameters for genome structure, initialization and mutation.
type GenomeConfig struct {
	NumInputs   int    `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs  int    `ini:"num_outputs" yaml:"num_outputs"`
	ConnectBias bool   `ini:"connect_bias" yaml:"connect_bias"`
	Activation  string `ini:"activation" yaml:"activation"`

	// --- Initialization ---
	WeightInitType  string  `ini:"weight_init_type" yaml:"weight_init_type"` // uniform, constant, zero, gaussian
	WeightInitMin   float64 `ini:"weight_init_min" yaml:"weight_init_min"`
	WeightInitMax   float64 `ini:"weight_init_max" yaml:"weight_init_max"`
	WeightInitValue float64 `ini:"weight_init_value" yaml:"weight_init_value"`
	WeightInitMean  float64 `ini:"weight_init_mean" yaml:"weight_init_mean"`
	WeightInitStdev float64 `ini:"weight_init_stdev" yaml:"weight_init_stdev"`

	BiasInitType  string  `ini:"bias_init_type" yaml:"bias_init_type"`
	BiasInitValue float64 `ini:"bias_init_value" yaml:"bias_init_value"`
	BiasInitMin   float64 `ini:"bias_init_min" yaml:"bias_init_min"`
	BiasInitMax   float64 `ini:"bias_init_max" yaml:"bias_init_max"`
	BiasInitMean  float64 `ini:"bias_init_mean" yaml:"bias_init_mean"`
	BiasInitStdev float64 `ini:"bias_init_stdev" yaml:"bias_init_stdev"`

	// --- Weight mutation ---
	WeightMinValue    float64 `ini:"weight_min_value" yaml:"weight_min_value"`
	WeightMaxValue    float64 `ini:"weight_max_value" yaml:"weight_max_value"`
	PerturbRange      float64 `ini:"perturb_range" yaml:"perturb_range"`
	WeightReplaceRate float64 `ini:"weight_replace_rate" yaml:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate" yaml:"weight_mutate_rate"`

	// --- Structural mutation ---
	ConnAddProb             float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
	NodeAddProb             float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	AllowRecurrent          bool    `ini:"allow_recurrent" yaml:"allow_recurrent"`
	RecurrentConnectionRate float64 `ini:"recurrent_connection_rate" yaml:"recurrent_connection_rate"`
	MaxMutationAttempts     int     `ini:"max_mutation_attempts" yaml:"max_mutation_attempts"`

	// --- Compatibility ---
	CompatibilityExcessCoefficient   float64 `ini:"compatibility_excess_coefficient" yaml:"compatibility_excess_coefficient"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient"`
}

// KeepDisabledPolicy decides how a disabled gene is treated during crossover.
type KeepDisabledPolicy string

const (
	// KeepDisabledByRate re-enables a disabled gene with probability 1-KeepDisabledRate.
	KeepDisabledByRate KeepDisabledPolicy = "rate"
	// KeepDisabledInherit copies the enabled flag of the selected allele.
	KeepDisabledInherit KeepDisabledPolicy = "inherit"
)

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism                int                `ini:"elitism" yaml:"elitism"`
	EliteSpeciesMinSize    int                `ini:"elite_species_min_size" yaml:"elite_species_min_size"`
	SurvivalThreshold      float64            `ini:"survival_threshold" yaml:"survival_threshold"`
	MutationRate           float64            `ini:"mutation_rate" yaml:"mutation_rate"`
	MutateOnlyProb         float64            `ini:"mutate_only_prob" yaml:"mutate_only_prob"`
	InterspeciesMatingRate float64            `ini:"interspecies_mating_rate" yaml:"interspecies_mating_rate"`
	KeepDisabledRate       float64            `ini:"keep_disabled_rate" yaml:"keep_disabled_rate"`
	KeepDisabledPolicy     KeepDisabledPolicy `ini:"keep_disabled_policy" yaml:"keep_disabled_policy"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species and population stagnation.
type StagnationConfig struct {
	MaxStagnation             int `ini:"max_stagnation" yaml:"max_stagnation"` // drop-off age of a species
	PopulationStagnationLimit int `ini:"population_stagnation_limit" yaml:"population_stagnation_limit"`
}

// DefaultConfig returns a configuration suitable for small problems such as XOR.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize:          150,
			Generations:      100,
			FitnessThreshold: 0.99,
			EvalWorkers:      1,
		},
		Genome: GenomeConfig{
			NumInputs:   2,
			NumOutputs:  1,
			ConnectBias: true,
			Activation:  "neat_sigmoid",

			WeightInitType: "uniform",
			WeightInitMin:  -1.0,
			WeightInitMax:  1.0,
			BiasInitType:   "constant",
			BiasInitValue:  1.0,

			WeightMinValue:    -4.0,
			WeightMaxValue:    4.0,
			PerturbRange:      0.5,
			WeightReplaceRate: 0.1,
			WeightMutateRate:  0.8,

			ConnAddProb:             0.05,
			NodeAddProb:             0.03,
			AllowRecurrent:          true,
			RecurrentConnectionRate: 1.0,
			MaxMutationAttempts:     100,

			CompatibilityExcessCoefficient:   1.0,
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.4,
		},
		Reproduction: ReproductionConfig{
			Elitism:                10,
			EliteSpeciesMinSize:    5,
			SurvivalThreshold:      0.2,
			MutationRate:           1.0,
			MutateOnlyProb:         0.25,
			InterspeciesMatingRate: 0.001,
			KeepDisabledRate:       0.75,
			KeepDisabledPolicy:     KeepDisabledByRate,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
		},
		Stagnation: StagnationConfig{
			MaxStagnation:             15,
			PopulationStagnationLimit: 20,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file, or from YAML when
// the file extension is .yaml or .yml. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config '%s': %w", filePath, err)
		}
	default:
		if err := loadINI(filePath, config); err != nil {
			return nil, err
		}
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINI(filePath string, config *Config) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	sections := []struct {
		name   string
		target interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		if err := cfg.Section(s.name).MapTo(s.target); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}
	return nil
}

// normalize cleans string values read from a file.
func (c *Config) normalize() {
	c.Genome.Activation = cleanIniString(c.Genome.Activation)
	c.Genome.WeightInitType = strings.ToLower(cleanIniString(c.Genome.WeightInitType))
	c.Genome.BiasInitType = strings.ToLower(cleanIniString(c.Genome.BiasInitType))
	c.Reproduction.KeepDisabledPolicy = KeepDisabledPolicy(strings.ToLower(cleanIniString(string(c.Reproduction.KeepDisabledPolicy))))
	if c.Reproduction.KeepDisabledPolicy == "" {
		c.Reproduction.KeepDisabledPolicy = KeepDisabledByRate
	}
	if c.Neat.EvalWorkers <= 0 {
		c.Neat.EvalWorkers = 1
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Neat.Generations < 0 {
		return fmt.Errorf("config error: generations cannot be negative")
	}
	if c.Genome.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Genome.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if _, err := GetActivation(c.Genome.Activation); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if !validInitType(c.Genome.WeightInitType) {
		return fmt.Errorf("config error: invalid weight_init_type '%s'", c.Genome.WeightInitType)
	}
	if !validInitType(c.Genome.BiasInitType) {
		return fmt.Errorf("config error: invalid bias_init_type '%s'", c.Genome.BiasInitType)
	}
	if c.Genome.WeightMaxValue < c.Genome.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	if c.Genome.PerturbRange < 0 {
		return fmt.Errorf("config error: perturb_range cannot be negative")
	}
	if c.Genome.MaxMutationAttempts <= 0 {
		return fmt.Errorf("config error: max_mutation_attempts must be positive")
	}
	if c.Genome.CompatibilityExcessCoefficient < 0 ||
		c.Genome.CompatibilityDisjointCoefficient < 0 ||
		c.Genome.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}

	probabilities := map[string]float64{
		"weight_replace_rate":       c.Genome.WeightReplaceRate,
		"weight_mutate_rate":        c.Genome.WeightMutateRate,
		"conn_add_prob":             c.Genome.ConnAddProb,
		"node_add_prob":             c.Genome.NodeAddProb,
		"recurrent_connection_rate": c.Genome.RecurrentConnectionRate,
		"survival_threshold":        c.Reproduction.SurvivalThreshold,
		"mutation_rate":             c.Reproduction.MutationRate,
		"mutate_only_prob":          c.Reproduction.MutateOnlyProb,
		"interspecies_mating_rate":  c.Reproduction.InterspeciesMatingRate,
		"keep_disabled_rate":        c.Reproduction.KeepDisabledRate,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}

	if c.Reproduction.Elitism < 0 {
		return fmt.Errorf("config error: elitism cannot be negative")
	}
	switch c.Reproduction.KeepDisabledPolicy {
	case KeepDisabledByRate, KeepDisabledInherit:
	default:
		return fmt.Errorf("config error: invalid keep_disabled_policy '%s', must be one of 'rate', 'inherit'", c.Reproduction.KeepDisabledPolicy)
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	if c.Stagnation.PopulationStagnationLimit <= 0 {
		return fmt.Errorf("config error: population_stagnation_limit must be positive")
	}
	return nil
}

func validInitType(t string) bool {
	switch t {
	case "uniform", "constant", "zero", "gaussian", "normal":
		return true
	}
	return false
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
