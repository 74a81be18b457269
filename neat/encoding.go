package neat

import (
	"math"
	"sort"
)

// NodeGeneData is a node gene reduced to its id and variant.
type NodeGeneData struct {
	ID   int
	Type NodeType
}

// ConnectionGeneData is a connection gene that refers to its endpoints by node id.
type ConnectionGeneData struct {
	Innovation int
	InNodeID   int
	OutNodeID  int
	Weight     float64
	Enabled    bool
	Recurrent  bool
}

// GeneticEncoding is a node-id indexed snapshot of a genome's genes. It is used
// for crossover and compatibility distance and is never mutated in place; a
// crossover builds a new encoding which Build turns back into a Genome.
type GeneticEncoding struct {
	Nodes        map[int]NodeGeneData       // node id -> node
	Connections  map[int]ConnectionGeneData // innovation -> connection
	Fitness      float64
	PopulationID int
	BiasOutput   float64
}

func newEncoding(populationID int) *GeneticEncoding {
	return &GeneticEncoding{
		Nodes:        make(map[int]NodeGeneData),
		Connections:  make(map[int]ConnectionGeneData),
		PopulationID: populationID,
	}
}

// Encoding returns the genetic encoding of the genome.
func (g *Genome) Encoding() *GeneticEncoding {
	e := newEncoding(g.run.PopulationID)
	e.Fitness = g.Fitness
	e.BiasOutput = g.BiasOutput()
	for _, n := range g.nodes {
		e.Nodes[n.ID] = NodeGeneData{ID: n.ID, Type: n.Type}
	}
	for _, c := range g.conns {
		e.Connections[c.Innovation] = ConnectionGeneData{
			Innovation: c.Innovation,
			InNodeID:   c.InNodeID,
			OutNodeID:  c.OutNodeID,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Recurrent:  c.Recurrent,
		}
	}
	return e
}

// Crossover breeds the genome with other and returns the offspring.
// It panics with a *TopologyError if the parents are structurally inconsistent.
func (g *Genome) Crossover(other *Genome) *Genome {
	child, err := g.Encoding().Crossover(other.Encoding(), g.run).Build(g.run)
	if err != nil {
		panic(err)
	}
	g.run.Metrics.observeCrossover()
	return child
}

// Distance returns the compatibility distance between two genomes.
func (g *Genome) Distance(other *Genome) float64 {
	return g.Encoding().Distance(other.Encoding(), &g.run.Config.Genome)
}

// Innovations returns the innovation numbers of the encoding in ascending order.
func (e *GeneticEncoding) Innovations() []int {
	innovs := make([]int, 0, len(e.Connections))
	for innov := range e.Connections {
		innovs = append(innovs, innov)
	}
	sort.Ints(innovs)
	return innovs
}

// MaxInnovation returns the highest innovation number, or -1 for an encoding
// without connections.
func (e *GeneticEncoding) MaxInnovation() int {
	maxInnov := -1
	for innov := range e.Connections {
		if innov > maxInnov {
			maxInnov = innov
		}
	}
	return maxInnov
}

// Crossover aligns the connection genes of two parents by innovation number.
//
// The fitter parent (fewer connections on a fitness tie, then the receiver)
// passes on all of its genes. A gene present in both parents takes its weight
// and enabled flag from a parent chosen with equal probability; its recurrent
// flag always comes from the fitter parent. A gene that is disabled in either
// parent is re-enabled with probability 1-keep_disabled_rate, unless the
// keep_disabled_policy is "inherit", in which case the chosen allele's flag is
// kept. Input, Output and Bias nodes of both parents are always carried over.
//
// It panics with a *TopologyError if a gene targets an Input node or refers to a
// node its parent does not have.
func (e *GeneticEncoding) Crossover(other *GeneticEncoding, run *Run) *GeneticEncoding {
	best, worst := e, other
	if other.Fitness > e.Fitness ||
		(other.Fitness == e.Fitness && len(other.Connections) < len(e.Connections)) {
		best, worst = other, e
	}

	cfg := run.Config.Reproduction
	enabledFor := func(selected ConnectionGeneData, eitherDisabled bool) bool {
		if cfg.KeepDisabledPolicy == KeepDisabledInherit {
			return selected.Enabled
		}
		if eitherDisabled {
			return run.Float64() > cfg.KeepDisabledRate
		}
		return true
	}

	child := newEncoding(e.PopulationID)
	child.BiasOutput = best.BiasOutput
	edges := make(map[edgeKey]bool)

	for _, innov := range best.Innovations() {
		gene := best.Connections[innov]
		if match, ok := worst.Connections[innov]; ok {
			selected, parent := gene, best
			if run.Float64() < 0.5 {
				selected, parent = match, worst
			}
			enabled := enabledFor(selected, !gene.Enabled || !match.Enabled)
			child.inherit(selected, enabled, gene.Recurrent, parent, edges)
			continue
		}
		child.inherit(gene, enabledFor(gene, !gene.Enabled), gene.Recurrent, best, edges)
	}

	for _, parent := range []*GeneticEncoding{e, other} {
		for _, n := range parent.sortedNodes() {
			if n.Type != HiddenNode {
				child.addNode(n)
			}
		}
	}
	return child
}

func (e *GeneticEncoding) inherit(gene ConnectionGeneData, enabled, recurrent bool, parent *GeneticEncoding, edges map[edgeKey]bool) {
	in, ok := parent.Nodes[gene.InNodeID]
	if !ok {
		panic(topologyErrorf(-1, "connection %d references unknown in-node %d", gene.Innovation, gene.InNodeID))
	}
	out, ok := parent.Nodes[gene.OutNodeID]
	if !ok {
		panic(topologyErrorf(-1, "connection %d references unknown out-node %d", gene.Innovation, gene.OutNodeID))
	}
	if out.Type == InputNode {
		panic(topologyErrorf(-1, "connection %d uses input node %d as out-node", gene.Innovation, gene.OutNodeID))
	}

	key := edgeKey{gene.InNodeID, gene.OutNodeID}
	if !edges[key] {
		edges[key] = true
		gene.Enabled = enabled
		gene.Recurrent = recurrent
		e.Connections[gene.Innovation] = gene
	}
	e.addNode(in)
	e.addNode(out)
}

func (e *GeneticEncoding) addNode(n NodeGeneData) {
	if _, ok := e.Nodes[n.ID]; !ok {
		e.Nodes[n.ID] = n
	}
}

func (e *GeneticEncoding) sortedNodes() []NodeGeneData {
	nodes := make([]NodeGeneData, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// MatchingGenes counts innovation numbers present in both encodings.
func (e *GeneticEncoding) MatchingGenes(other *GeneticEncoding) int {
	matching := 0
	for innov := range e.Connections {
		if _, ok := other.Connections[innov]; ok {
			matching++
		}
	}
	return matching
}

// DisjointGenes counts the non-matching genes of either encoding whose
// innovation number does not exceed the smaller of the two maximum innovations.
func (e *GeneticEncoding) DisjointGenes(other *GeneticEncoding) int {
	limit := min(e.MaxInnovation(), other.MaxInnovation())
	count := 0
	for innov := range e.Connections {
		if _, ok := other.Connections[innov]; !ok && innov <= limit {
			count++
		}
	}
	for innov := range other.Connections {
		if _, ok := e.Connections[innov]; !ok && innov <= limit {
			count++
		}
	}
	return count
}

// ExcessGenes counts the genes of the encoding with the higher maximum
// innovation that lie above the other encoding's maximum.
func (e *GeneticEncoding) ExcessGenes(other *GeneticEncoding) int {
	selfMax, otherMax := e.MaxInnovation(), other.MaxInnovation()
	larger, limit := other, selfMax
	if selfMax > otherMax {
		larger, limit = e, otherMax
	}
	count := 0
	for innov := range larger.Connections {
		if innov > limit {
			count++
		}
	}
	return count
}

// AverageWeightDifference returns the mean absolute weight difference of the
// matching genes, or 0 when no gene matches.
func (e *GeneticEncoding) AverageWeightDifference(other *GeneticEncoding) float64 {
	total := 0.0
	matching := 0
	for innov, c := range e.Connections {
		if oc, ok := other.Connections[innov]; ok {
			total += math.Abs(c.Weight - oc.Weight)
			matching++
		}
	}
	if matching == 0 {
		return 0
	}
	return total / float64(matching)
}

// Distance returns c1·excess/N + c2·disjoint/N + c3·avgWeightDiff, where N is
// the larger connection count, or 1 when that count is below 20.
func (e *GeneticEncoding) Distance(other *GeneticEncoding, cfg *GenomeConfig) float64 {
	n := max(len(e.Connections), len(other.Connections))
	if n < 20 {
		n = 1
	}
	return cfg.CompatibilityExcessCoefficient*float64(e.ExcessGenes(other))/float64(n) +
		cfg.CompatibilityDisjointCoefficient*float64(e.DisjointGenes(other))/float64(n) +
		cfg.CompatibilityWeightCoefficient*e.AverageWeightDifference(other)
}

// Build materializes the encoding as a new Genome of run. Nodes are laid out
// by id and connections by innovation number; recurrent flags are re-derived.
// A connection to an unknown node or into an Input node yields a *TopologyError.
func (e *GeneticEncoding) Build(run *Run) (*Genome, error) {
	g := newGenome(run, run.GenomeIDs.Next())

	for _, n := range e.sortedNodes() {
		node := NodeGene{ID: n.ID, Type: n.Type}
		if n.Type == BiasNode {
			node.Output = e.BiasOutput
		}
		g.nodes = append(g.nodes, node)
	}
	for _, innov := range e.Innovations() {
		c := e.Connections[innov]
		g.conns = append(g.conns, ConnectionGene{
			Innovation: c.Innovation,
			InNodeID:   c.InNodeID,
			OutNodeID:  c.OutNodeID,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Recurrent:  c.Recurrent,
		})
	}

	if err := g.link(); err != nil {
		return nil, err
	}
	g.CheckForRecurrentConnections()
	return g, nil
}
