package neat

import "fmt"

// Initializer produces a starting value for a connection weight or a bias output.
// It is called once per connection (or bias node) at creation time and whenever a
// weight is replaced by mutation.
type Initializer interface {
	Initialize() float64
}

// ConstantInitializer always returns Value.
type ConstantInitializer struct {
	Value float64
}

func (c ConstantInitializer) Initialize() float64 { return c.Value }

// UniformInitializer draws uniformly from [Min, Max).
type UniformInitializer struct {
	Min, Max float64
	Rand     Source
}

func (u UniformInitializer) Initialize() float64 {
	return u.Min + u.Rand.Float64()*(u.Max-u.Min)
}

// GaussianInitializer draws from a normal distribution.
type GaussianInitializer struct {
	Mean, Stdev float64
	Rand        Source
}

func (g GaussianInitializer) Initialize() float64 {
	return g.Mean + g.Rand.NormFloat64()*g.Stdev
}

// newInitializer builds an initializer from the config names used by
// weight_init_type and bias_init_type.
func newInitializer(kind string, value, minVal, maxVal, mean, stdev float64, src Source) (Initializer, error) {
	switch kind {
	case "constant":
		return ConstantInitializer{Value: value}, nil
	case "zero":
		return ConstantInitializer{}, nil
	case "uniform":
		return UniformInitializer{Min: minVal, Max: maxVal, Rand: src}, nil
	case "gaussian", "normal":
		return GaussianInitializer{Mean: mean, Stdev: stdev, Rand: src}, nil
	default:
		return nil, fmt.Errorf("unknown initializer type: %s", kind)
	}
}
