package neat

import (
	"encoding/json"
	"os"
)

// NodeRecord is the persisted form of a node gene.
type NodeRecord struct {
	ID   int      `json:"id"`
	Type NodeType `json:"type"`
}

// ConnectionRecord is the persisted form of a connection gene.
type ConnectionRecord struct {
	InnovationNumber int     `json:"innovationNumber"`
	InNodeID         int     `json:"inNodeId"`
	OutNodeID        int     `json:"outNodeId"`
	Enabled          bool    `json:"enabled"`
	Weight           float64 `json:"weight"`
	Recurrent        bool    `json:"recurrent"`
}

// GenomeRecord is the persisted form of a genome.
type GenomeRecord struct {
	ID              int                `json:"id"`
	NodeGenes       []NodeRecord       `json:"nodeGenes"`
	ConnectionGenes []ConnectionRecord `json:"connectionGenes"`
	Fitness         float64            `json:"fitness"`
	PopulationID    int                `json:"populationId"`
}

// Record returns the persisted form of the genome.
func (g *Genome) Record() GenomeRecord {
	rec := GenomeRecord{
		ID:              g.ID,
		NodeGenes:       make([]NodeRecord, 0, len(g.nodes)),
		ConnectionGenes: make([]ConnectionRecord, 0, len(g.conns)),
		Fitness:         g.Fitness,
		PopulationID:    g.run.PopulationID,
	}
	for _, n := range g.nodes {
		rec.NodeGenes = append(rec.NodeGenes, NodeRecord{ID: n.ID, Type: n.Type})
	}
	for _, c := range g.conns {
		rec.ConnectionGenes = append(rec.ConnectionGenes, ConnectionRecord{
			InnovationNumber: c.Innovation,
			InNodeID:         c.InNodeID,
			OutNodeID:        c.OutNodeID,
			Enabled:          c.Enabled,
			Weight:           c.Weight,
			Recurrent:        c.Recurrent,
		})
	}
	return rec
}

// MarshalJSON encodes the genome in its persisted form.
func (g *Genome) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Record())
}

// GenomeFromRecord rebuilds a genome of this run from its persisted form.
// Node and genome ids and innovation numbers are reserved in the run's
// allocators so they are never handed out again, and recurrent flags are
// re-derived. The record carries no bias value, so the bias node output is
// drawn from the run's bias initializer. A connection referencing an unknown
// node yields a *TopologyError.
func (r *Run) GenomeFromRecord(rec GenomeRecord) (*Genome, error) {
	g := newGenome(r, rec.ID)
	g.Fitness = rec.Fitness

	for _, n := range rec.NodeGenes {
		node := NodeGene{ID: n.ID, Type: n.Type}
		if n.Type == BiasNode {
			node.Output = r.BiasInit.Initialize()
		}
		g.nodes = append(g.nodes, node)
	}

	maxInnov := -1
	for _, c := range rec.ConnectionGenes {
		g.conns = append(g.conns, ConnectionGene{
			Innovation: c.InnovationNumber,
			InNodeID:   c.InNodeID,
			OutNodeID:  c.OutNodeID,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Recurrent:  c.Recurrent,
		})
		maxInnov = max(maxInnov, c.InnovationNumber)
	}

	if err := g.link(); err != nil {
		return nil, err
	}
	g.CheckForRecurrentConnections()

	r.GenomeIDs.Observe(rec.ID)
	for _, n := range g.nodes {
		r.NodeIDs.Observe(n.ID)
	}
	r.Innovations.Restore(maxInnov + 1)
	return g, nil
}

// SaveGenome writes the genome as JSON to path.
func SaveGenome(path string, g *Genome) error {
	data, err := json.MarshalIndent(g.Record(), "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// LoadGenome reads a genome written by SaveGenome and binds it to run. With a
// random bias_init_type the loaded bias output differs from the saved one.
func LoadGenome(path string, run *Run) (*Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	var rec GenomeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &PersistenceError{Op: "decode", Path: path, Err: err}
	}
	g, err := run.GenomeFromRecord(rec)
	if err != nil {
		return nil, &PersistenceError{Op: "decode", Path: path, Err: err}
	}
	return g, nil
}
