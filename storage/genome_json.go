// Package storage provides data persistence for evolution runs: genome
// save/load in a self-describing JSON format, generation logging to a SQLite
// database, and CSV export of logged tables.
package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"ctrneat/common"
	"ctrneat/genome"
)

// genomeDocument is the canonical serialized form of a genome: the neuron and
// connection gene sequences in insertion order. Two genomes are equal iff
// their documents are equal element for element.
type genomeDocument struct {
	Neurons     []genome.NeuronGene     `json:"neurons"`
	Connections []genome.ConnectionGene `json:"connections"`
}

// MarshalGenome serializes a genome to its canonical JSON form, preserving
// gene insertion order.
func MarshalGenome(g *genome.NeuralNetwork) ([]byte, error) {
	doc := genomeDocument{
		Neurons:     g.Neurons(),
		Connections: g.Connections(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize genome to JSON: %w", err)
	}
	return data, nil
}

// marshalGenomeCompact is the single-line form used for database columns, so
// exported CSV rows stay free of embedded newlines.
func marshalGenomeCompact(g *genome.NeuralNetwork) ([]byte, error) {
	doc := genomeDocument{
		Neurons:     g.Neurons(),
		Connections: g.Connections(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize genome to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalGenome reconstructs a genome from its canonical JSON form. The
// document is validated before any gene is applied: every connection endpoint
// must reference a declared neuron.
func UnmarshalGenome(data []byte) (*genome.NeuralNetwork, error) {
	var doc genomeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal genome from JSON: %w", err)
	}

	ids := make(map[common.NeuronID]struct{}, len(doc.Neurons))
	for _, n := range doc.Neurons {
		if _, dup := ids[n.ID]; dup {
			return nil, fmt.Errorf("invalid genome document: duplicate neuron id %d", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, c := range doc.Connections {
		if _, ok := ids[c.ID.In]; !ok {
			return nil, fmt.Errorf("invalid genome document: connection (%d,%d) references unknown in-neuron", c.ID.In, c.ID.Out)
		}
		if _, ok := ids[c.ID.Out]; !ok {
			return nil, fmt.Errorf("invalid genome document: connection (%d,%d) references unknown out-neuron", c.ID.In, c.ID.Out)
		}
	}

	g := genome.WithNeurons(0)
	for _, n := range doc.Neurons {
		g.AddNeuron(n)
	}
	for _, c := range doc.Connections {
		g.AddConnection(c.ID.In, c.ID.Out, c.Weight)
	}
	return g, nil
}

// SaveGenomeToJSON writes a genome's canonical JSON form to filePath with
// 0644 permissions.
func SaveGenomeToJSON(g *genome.NeuralNetwork, filePath string) error {
	data, err := MarshalGenome(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write genome JSON file %s: %w", filePath, err)
	}
	return nil
}

// LoadGenomeFromJSON reads and reconstructs a genome from the JSON file at
// filePath.
func LoadGenomeFromJSON(filePath string) (*genome.NeuralNetwork, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("genome JSON file %s not found: %w", filePath, err)
		}
		return nil, fmt.Errorf("failed to read genome JSON file %s: %w", filePath, err)
	}
	return UnmarshalGenome(data)
}
