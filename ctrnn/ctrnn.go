// Package ctrnn implements a continuous-time recurrent neural network
// activated by discrete-step integration. The network is a dense dynamical
// system: a square weight matrix, a bias vector and a time-constant vector,
// stepped a fixed number of times per activation.
package ctrnn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CTRNN is an activatable network of n neurons. Each step replaces the state
// vector with
//
//	y_i <- (deltaT/tau_i) * ( sum_j W_ij * sigmoid(y_j - theta_j) - y_i + I_i )
//
// where W row indices are destination neurons and column indices are source
// neurons; the previous state enters only through the right-hand side. State
// starts at zero on every activation; there is no saturation or clamping, so
// infinities and NaN propagate to the caller.
type CTRNN struct {
	n       int
	weights *mat.Dense // n x n, row = destination neuron
	theta   *mat.VecDense
	dtTau   *mat.VecDense // deltaT / tau, element-wise
	deltaT  float64
	steps   int
}

// New creates a CTRNN from a weight matrix, bias vector theta, time-constant
// vector tau, integration step deltaT and per-activation step count.
// Returns an error if the dimensions are inconsistent, tau contains a
// non-positive entry, or steps is not positive.
func New(weights *mat.Dense, theta, tau []float64, deltaT float64, steps int) (*CTRNN, error) {
	r, c := weights.Dims()
	if r != c {
		return nil, fmt.Errorf("ctrnn: weight matrix must be square, got %dx%d", r, c)
	}
	if len(theta) != r || len(tau) != r {
		return nil, fmt.Errorf("ctrnn: dimension mismatch: weights %dx%d, theta %d, tau %d",
			r, c, len(theta), len(tau))
	}
	if steps <= 0 {
		return nil, fmt.Errorf("ctrnn: steps must be positive, got %d", steps)
	}
	dtTau := make([]float64, r)
	for i, t := range tau {
		if t <= 0 {
			return nil, fmt.Errorf("ctrnn: tau[%d] must be positive, got %f", i, t)
		}
		dtTau[i] = (1.0 / t) * deltaT
	}
	return &CTRNN{
		n:       r,
		weights: mat.DenseCopyOf(weights),
		theta:   mat.NewVecDense(r, append([]float64(nil), theta...)),
		dtTau:   mat.NewVecDense(r, dtTau),
		deltaT:  deltaT,
		steps:   steps,
	}, nil
}

// NNeurons returns the number of neurons in the network.
func (c *CTRNN) NNeurons() int {
	return c.n
}

// Activate feeds the sensor values into the network, steps it the configured
// number of times from a zero state, and writes the final state of the last
// neurons into outputs.
//
// Up to min(len(sensors), n) sensor values are copied into the external input
// vector I, zero-padding the rest; the last min(len(outputs), n) state entries
// are written to outputs in order. The first neurons thus act as sensors and
// the last neurons as outputs. Activate never fails; non-finite state values
// are written out as-is.
func (c *CTRNN) Activate(sensors []float64, outputs []float64) {
	input := make([]float64, c.n)
	for i := 0; i < len(sensors) && i < c.n; i++ {
		input[i] = sensors[i]
	}

	y := c.Integrate(make([]float64, c.n), input, c.steps)

	nOut := len(outputs)
	if nOut > c.n {
		nOut = c.n
	}
	copy(outputs[:nOut], y[c.n-nOut:])
}

// Integrate advances the network state y0 by the given number of update steps
// under the external input vector I and returns the resulting state. y0 and
// input must have length n; the inputs are not modified.
func (c *CTRNN) Integrate(y0, input []float64, steps int) []float64 {
	y := mat.NewVecDense(c.n, append([]float64(nil), y0...))
	in := mat.NewVecDense(c.n, append([]float64(nil), input...))

	activations := mat.NewVecDense(c.n, nil)
	delta := mat.NewVecDense(c.n, nil)

	for s := 0; s < steps; s++ {
		for i := 0; i < c.n; i++ {
			activations.SetVec(i, sigmoid(y.AtVec(i)-c.theta.AtVec(i)))
		}
		delta.MulVec(c.weights, activations)
		delta.SubVec(delta, y)
		delta.AddVec(delta, in)
		delta.MulElemVec(delta, c.dtTau)
		y.CopyVec(delta)
	}

	out := make([]float64, c.n)
	copy(out, y.RawVector().Data)
	return out
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
