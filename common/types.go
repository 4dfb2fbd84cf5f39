// Package common defines shared data types used throughout the ctrneat
// application. These types provide a consistent representation for fundamental
// concepts like identifiers, fitness values, and evolution metrics.
package common

// NeuronID is a unique identifier for a neuron gene. Within a run, new hidden
// neurons receive ids from the population's innovation counter, so ids are
// globally unique across all genomes of a population.
type NeuronID int

// Generation represents a generation counter.
type Generation int

// Fitness represents the raw score assigned to an organism by an evaluator.
// Higher is better; NaN means "not yet evaluated" or "worst".
type Fitness float64

// Probability represents a probability, ranging from 0.0 to 1.0.
type Probability float64

// Coefficient represents a weighting coefficient, e.g. in the compatibility
// distance.
type Coefficient float64
