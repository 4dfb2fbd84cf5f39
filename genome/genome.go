package genome

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/ctrnn"
)

// Network integration constants. Every materialized network integrates with
// unit time constants and step size for a fixed number of steps.
const (
	networkDeltaT = 1.0
	networkTau    = 1.0
	networkSteps  = 10
)

// NeuralNetwork is the genome of a recurrent neural network: one gene per
// neuron and one gene per connection, both in insertion-ordered id-keyed
// maps. Use AddConnection to add connections; it maintains the invariant
// that every connection's endpoints exist in the neuron map.
type NeuralNetwork struct {
	neurons     orderedMap[common.NeuronID, NeuronGene]
	connections orderedMap[ConnectionID, ConnectionGene]
}

// New returns the default genome: a single neuron with id 0 and zero bias,
// and no connections.
func New() *NeuralNetwork {
	g := &NeuralNetwork{
		neurons:     newOrderedMap[common.NeuronID, NeuronGene](),
		connections: newOrderedMap[ConnectionID, ConnectionGene](),
	}
	g.neurons.Put(NeuronGene{ID: 0})
	return g
}

// WithNeurons returns a genome with n neurons numbered 0..n-1, zero bias and
// no connections.
func WithNeurons(n int) *NeuralNetwork {
	g := &NeuralNetwork{
		neurons:     newOrderedMap[common.NeuronID, NeuronGene](),
		connections: newOrderedMap[ConnectionID, ConnectionGene](),
	}
	for i := 0; i < n; i++ {
		g.neurons.Put(NeuronGene{ID: common.NeuronID(i)})
	}
	return g
}

// Copy returns a deep copy of the genome.
func (g *NeuralNetwork) Copy() *NeuralNetwork {
	return &NeuralNetwork{
		neurons:     g.neurons.Copy(),
		connections: g.connections.Copy(),
	}
}

// NNeurons returns the number of neuron genes.
func (g *NeuralNetwork) NNeurons() int {
	return g.neurons.Len()
}

// NConnections returns the number of connection genes.
func (g *NeuralNetwork) NConnections() int {
	return g.connections.Len()
}

// Neurons returns the neuron genes in insertion order. Callers must not
// modify the returned slice.
func (g *NeuralNetwork) Neurons() []NeuronGene {
	return g.neurons.Values()
}

// Connections returns the connection genes in insertion order. Callers must
// not modify the returned slice.
func (g *NeuralNetwork) Connections() []ConnectionGene {
	return g.connections.Values()
}

// Neuron returns the neuron gene with the given id, if present.
func (g *NeuralNetwork) Neuron(id common.NeuronID) (NeuronGene, bool) {
	return g.neurons.Get(id)
}

// Connection returns the connection gene with the given endpoints, if present.
func (g *NeuralNetwork) Connection(id ConnectionID) (ConnectionGene, bool) {
	return g.connections.Get(id)
}

// AddNeuron inserts a neuron gene, or overwrites its bias in place if the id
// already exists.
func (g *NeuralNetwork) AddNeuron(gene NeuronGene) {
	g.neurons.Put(gene)
}

// AddConnection inserts a connection between two existing neurons, or
// overwrites the weight in place if the endpoint pair already exists.
// Panics if either endpoint is unknown or the genome has no neurons: both
// are programmer errors, not recoverable conditions.
func (g *NeuralNetwork) AddConnection(in, out common.NeuronID, weight float64) {
	if g.neurons.Len() == 0 {
		panic("genome: AddConnection on a genome with no neurons")
	}
	if !g.neurons.Contains(in) {
		panic(fmt.Sprintf("genome: AddConnection: unknown in-neuron %d", in))
	}
	if !g.neurons.Contains(out) {
		panic(fmt.Sprintf("genome: AddConnection: unknown out-neuron %d", out))
	}
	g.connections.Put(ConnectionGene{ID: ConnectionID{In: in, Out: out}, Weight: weight})
}

// TotalWeight returns the sum of all connection weights.
func (g *NeuralNetwork) TotalWeight() float64 {
	total := 0.0
	for _, c := range g.connections.Values() {
		total += c.Weight
	}
	return total
}

// Equal reports whether both genomes carry the same sequence of
// (id, parameter) gene tuples, i.e. the same genes in the same insertion
// order with the same values. This is the canonical genome equality used by
// persistence.
func (g *NeuralNetwork) Equal(other *NeuralNetwork) bool {
	if g.neurons.Len() != other.neurons.Len() || g.connections.Len() != other.connections.Len() {
		return false
	}
	for i, n := range g.neurons.Values() {
		if other.neurons.At(i) != n {
			return false
		}
	}
	for i, c := range g.connections.Values() {
		if other.connections.At(i) != c {
			return false
		}
	}
	return true
}

// Distance returns the compatibility distance to another genome: the sum of
// the neuron-gene and connection-gene component distances. It is symmetric,
// and zero for identical genomes.
func (g *NeuralNetwork) Distance(other *NeuralNetwork, p *config.Parameters) float64 {
	return distance(&g.connections, &other.connections, p.DistanceDisjointCoef, p.DistanceWeightCoef) +
		distance(&g.neurons, &other.neurons, p.DistanceDisjointCoef, p.DistanceWeightCoef)
}

// SameSpecies reports whether the compatibility distance to other is within
// the configured threshold.
func (g *NeuralNetwork) SameSpecies(other *NeuralNetwork, p *config.Parameters) bool {
	return g.Distance(other, p) <= p.CompatibilityThreshold
}

// Mate performs homologous crossover with another genome and returns the
// child. selfIsFitter designates the receiver as the fitter parent; the
// child inherits every gene of the fitter parent, and homologous genes are
// taken from the other parent with probability 1/2. Disjoint and excess
// genes come exclusively from the fitter parent.
func (g *NeuralNetwork) Mate(other *NeuralNetwork, selfIsFitter bool, rng *rand.Rand) *NeuralNetwork {
	best, worst := g, other
	if !selfIsFitter {
		best, worst = other, g
	}
	coin := func() bool { return rng.Float64() < 0.5 }
	return &NeuralNetwork{
		neurons:     reproduce(&best.neurons, &worst.neurons, coin),
		connections: reproduce(&best.connections, &worst.connections, coin),
	}
}

// Mutate applies the mutation protocol to the genome in place: structural
// mutations first (add connection, add neuron, delete neuron, delete
// connection, each rolled independently), then per-gene parametric mutation
// of biases and weights. New hidden neurons are named from innovationID,
// which is incremented for each neuron added.
func (g *NeuralNetwork) Mutate(innovationID *common.NeuronID, rng *rand.Rand, p *config.Parameters) {
	if rng.Float64() < float64(p.MutateAddConnPr) || g.connections.Len() == 0 {
		g.mutateAddConnection(rng)
	}
	if rng.Float64() < float64(p.MutateAddNeuronPr) {
		g.mutateAddNeuron(*innovationID, rng)
		*innovationID++
	}
	if rng.Float64() < float64(p.MutateDelNeuronPr) {
		g.mutateDelNeuron(rng, p)
	}
	if rng.Float64() < float64(p.MutateDelConnPr) {
		g.mutateDelConnection(rng)
	}

	for i := range g.neurons.genes {
		if rng.Float64() < float64(p.BiasMutatePr) {
			g.neurons.genes[i].Bias += rng.NormFloat64() * p.BiasMutateVar
		} else if rng.Float64() < float64(p.BiasReplacePr) {
			g.neurons.genes[i].Bias = rng.NormFloat64() * p.BiasMutateVar
		}
	}
	for i := range g.connections.genes {
		if rng.Float64() < float64(p.WeightMutatePr) {
			g.connections.genes[i].Weight += rng.NormFloat64() * p.WeightMutateVar
		} else if rng.Float64() < float64(p.WeightReplacePr) {
			g.connections.genes[i].Weight = rng.NormFloat64() * p.WeightMutateVar
		}
	}
}

// mutateAddConnection inserts a zero-weight connection between two neurons
// picked independently at random. Self-loops are allowed, and picking an
// existing pair overwrites that connection's weight with zero; both behaviors
// are part of the search dynamics.
func (g *NeuralNetwork) mutateAddConnection(rng *rand.Rand) {
	if g.neurons.Len() == 0 {
		return
	}
	in := g.neurons.At(rng.Intn(g.neurons.Len())).ID
	out := g.neurons.At(rng.Intn(g.neurons.Len())).ID
	g.AddConnection(in, out, 0.0)
}

// mutateAddNeuron splits a random connection with a new neuron: the original
// connection C is removed and replaced by C.in->N with weight 1 and N->C.out
// with C's weight, preserving the effective signal flow. If the genome has no
// connections the neuron is simply inserted.
func (g *NeuralNetwork) mutateAddNeuron(id common.NeuronID, rng *rand.Rand) {
	neuron := NeuronGene{ID: id}
	if g.connections.Len() == 0 {
		g.neurons.Put(neuron)
		return
	}
	old := g.connections.At(rng.Intn(g.connections.Len()))
	g.connections.Delete(old.ID)
	g.neurons.Put(neuron)
	g.AddConnection(old.ID.In, neuron.ID, 1.0)
	g.AddConnection(neuron.ID, old.ID.Out, old.Weight)
}

// mutateDelNeuron deletes one neuron picked uniformly from the non-sacred
// range (insertion index >= n_inputs+n_outputs) along with every connection
// touching it. No-op if only sacred neurons remain.
func (g *NeuralNetwork) mutateDelNeuron(rng *rand.Rand, p *config.Parameters) {
	sacred := p.NInputs + p.NOutputs
	if g.neurons.Len() <= sacred {
		return
	}
	id := g.neurons.At(sacred + rng.Intn(g.neurons.Len()-sacred)).ID
	g.neurons.Delete(id)

	var toRemove []ConnectionID
	for _, c := range g.connections.Values() {
		if c.ID.In == id || c.ID.Out == id {
			toRemove = append(toRemove, c.ID)
		}
	}
	for _, cid := range toRemove {
		g.connections.Delete(cid)
	}
}

// mutateDelConnection removes one connection picked uniformly at random.
// No-op on a connectionless genome.
func (g *NeuralNetwork) mutateDelConnection(rng *rand.Rand) {
	if g.connections.Len() == 0 {
		return
	}
	g.connections.Delete(g.connections.At(rng.Intn(g.connections.Len())).ID)
}

// sortedNeurons returns the neuron genes sorted by id. Network layout is
// always derived from this ordering, so sensors occupy the lowest ids and
// outputs the highest of the initial range.
func (g *NeuralNetwork) sortedNeurons() []NeuronGene {
	neurons := append([]NeuronGene(nil), g.neurons.Values()...)
	sort.Slice(neurons, func(i, j int) bool { return neurons[i].ID < neurons[j].ID })
	return neurons
}

// WeightMatrix returns the connection weights as an n x n matrix where rows
// are destination neurons and columns are source neurons, with indices taken
// from the id-sorted neuron list.
func (g *NeuralNetwork) WeightMatrix() *mat.Dense {
	neurons := g.sortedNeurons()
	n := len(neurons)
	pos := make(map[common.NeuronID]int, n)
	for i, ng := range neurons {
		pos[ng.ID] = i
	}
	w := mat.NewDense(n, n, nil)
	for _, c := range g.connections.Values() {
		w.Set(pos[c.ID.Out], pos[c.ID.In], c.Weight)
	}
	return w
}

// MakeNetwork materializes the genome into an activatable CTRNN with unit
// time constants, unit step size and the fixed per-activation step count.
func (g *NeuralNetwork) MakeNetwork() *ctrnn.CTRNN {
	neurons := g.sortedNeurons()
	n := len(neurons)
	theta := make([]float64, n)
	tau := make([]float64, n)
	for i, ng := range neurons {
		theta[i] = ng.Bias
		tau[i] = networkTau
	}
	net, err := ctrnn.New(g.WeightMatrix(), theta, tau, networkDeltaT, networkSteps)
	if err != nil {
		// Dimensions are derived from the genome itself; a failure here is a
		// broken invariant, not a runtime condition.
		panic(fmt.Sprintf("genome: MakeNetwork: %v", err))
	}
	return net
}
