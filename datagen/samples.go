// Package datagen builds the evaluation sample sets used by the bundled
// experiments. A sample pairs a sensor vector with the expected target
// vector; evaluators score organisms by how closely their outputs track the
// targets across a whole set.
package datagen

// Sample is one evaluation case: a sensor vector and the expected targets.
type Sample struct {
	Inputs  []float64
	Targets []float64
}

// Parabola returns the function-approximation set: the integer grid
// x in [-10, 10], presented to the network as x/10 and targeting x².
// Network outputs are interpreted on a 100x scale, so a unit-interval output
// can span the target range.
func Parabola() []Sample {
	samples := make([]Sample, 0, 21)
	for x := -10; x <= 10; x++ {
		samples = append(samples, Sample{
			Inputs:  []float64{float64(x) / 10.0},
			Targets: []float64{float64(x * x)},
		})
	}
	return samples
}

// ParabolaOutputScale is the factor mapping a network output to the Parabola
// target range.
const ParabolaOutputScale = 100.0

// XOR returns the four-case exclusive-or truth table.
func XOR() []Sample {
	return []Sample{
		{Inputs: []float64{0, 0}, Targets: []float64{0}},
		{Inputs: []float64{0, 1}, Targets: []float64{1}},
		{Inputs: []float64{1, 0}, Targets: []float64{1}},
		{Inputs: []float64{1, 1}, Targets: []float64{0}},
	}
}
