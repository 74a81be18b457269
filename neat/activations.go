package neat

import (
	"fmt"
	"math"
	"sort"
)

// ActivationFunc is a pure numeric function applied once each time a node fires.
type ActivationFunc func(x float64) float64

// ActivationFunctions maps function names to the actual activation functions.
// This allows configuration to specify activations by name.
var ActivationFunctions = map[string]ActivationFunc{
	"sigmoid":      Sigmoid,
	"neat_sigmoid": NEATSigmoid,
	"tanh":         Tanh,
	"relu":         ReLU,
	"leaky_relu":   LeakyReLU,
	"gaussian":     Gaussian,
	"sine":         Sine,
	"softplus":     Softplus,
	"identity":     Identity,
	"clamped":      Clamped,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationFunc, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// ActivationNames returns the registered activation names in sorted order.
func ActivationNames() []string {
	names := make([]string, 0, len(ActivationFunctions))
	for name := range ActivationFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sigmoid is the standard logistic function 1 / (1 + e^-x).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// NEATSigmoid is the steepened logistic function used in the original NEAT paper.
func NEATSigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*x))
}

// Tanh activation function.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// LeakyReLU passes negative inputs with a slope of 0.01.
func LeakyReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0.01 * x
}

// Gaussian activation function, e^(-x^2).
func Gaussian(x float64) float64 {
	return math.Exp(-x * x)
}

// Sine activation function.
func Sine(x float64) float64 {
	return math.Sin(x)
}

// Softplus is a smooth approximation of ReLU, ln(1 + e^x).
func Softplus(x float64) float64 {
	// avoid overflow of e^x for large inputs
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// Identity activation function (linear).
func Identity(x float64) float64 {
	return x
}

// Clamped activation function (clamps output between -1 and 1).
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}
