// Package cli provides the experiment orchestrator for evolution runs: it
// wires configuration, population, evaluator, persistence and telemetry
// together and owns the evolve/evaluate loop. The bundled evaluator
// environments live here as well.
package cli

import (
	"math"

	"ctrneat/common"
	"ctrneat/datagen"
	"ctrneat/population"
)

// FunctionApproximation scores organisms on how closely a single-input,
// single-output network tracks x² over the sample grid, on the scaled output
// convention of the dataset. Fitness is 100/(1+d) where d is the summed
// absolute error, so a perfect fit scores 100. Stateless, therefore safe for
// concurrent evaluation.
type FunctionApproximation struct {
	samples []datagen.Sample
}

// NewFunctionApproximation builds the environment over the standard parabola
// sample grid.
func NewFunctionApproximation() *FunctionApproximation {
	return &FunctionApproximation{samples: datagen.Parabola()}
}

// Test implements population.Environment.
func (e *FunctionApproximation) Test(o *population.Organism) common.Fitness {
	output := make([]float64, 1)
	distance := 0.0
	for _, s := range e.samples {
		o.Activate(s.Inputs, output)
		distance += math.Abs(s.Targets[0] - output[0]*datagen.ParabolaOutputScale)
	}
	return common.Fitness(100.0 / (1.0 + distance))
}

// XOREnvironment scores two-input, single-output organisms on the exclusive-or
// truth table. Fitness is (4 - e)² for summed absolute error e, so a perfect
// organism scores 16. Stateless, therefore safe for concurrent evaluation.
type XOREnvironment struct {
	samples []datagen.Sample
}

// NewXOREnvironment builds the environment over the four XOR cases.
func NewXOREnvironment() *XOREnvironment {
	return &XOREnvironment{samples: datagen.XOR()}
}

// Test implements population.Environment.
func (e *XOREnvironment) Test(o *population.Organism) common.Fitness {
	output := make([]float64, 1)
	errSum := 0.0
	for _, s := range e.samples {
		o.Activate(s.Inputs, output)
		errSum += math.Abs(s.Targets[0] - output[0])
	}
	d := 4.0 - errSum
	return common.Fitness(d * d)
}
