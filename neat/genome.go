package neat

import (
	"fmt"
	"sort"
	"strings"
)

// Genome is one candidate network: a set of node genes and connection genes.
//
// Nodes and connections live in two slices owned by the genome. Connections refer
// to their endpoints by index into the node slice, and every node keeps index
// lists of its incoming and outgoing connections. These back-references are
// rebuilt by link whenever the structure changes.
type Genome struct {
	ID              int
	Fitness         float64
	AdjustedFitness float64 // set by the owning species

	nodes     []NodeGene
	conns     []ConnectionGene
	nodeIndex map[int]int // node id -> index in nodes
	inputs    []int       // node indices of Input nodes, ordered by id
	outputs   []int       // node indices of Output nodes, ordered by id
	bias      int         // node index of the Bias node, -1 if absent

	run *Run
}

func newGenome(run *Run, id int) *Genome {
	return &Genome{
		ID:        id,
		nodeIndex: make(map[int]int),
		bias:      -1,
		run:       run,
	}
}

// NewMinimalGenome builds a genome with the configured Input and Output nodes,
// one Bias node, and a connection from every input to every output. When
// connect_bias is set the bias node is also connected to every output.
func NewMinimalGenome(run *Run) *Genome {
	cfg := run.Config.Genome
	g := newGenome(run, run.GenomeIDs.Next())

	for i := 0; i < cfg.NumInputs; i++ {
		g.nodes = append(g.nodes, NodeGene{ID: run.inputNodeID(i), Type: InputNode})
	}
	for i := 0; i < cfg.NumOutputs; i++ {
		g.nodes = append(g.nodes, NodeGene{ID: run.outputNodeID(i), Type: OutputNode})
	}
	g.nodes = append(g.nodes, NodeGene{ID: run.biasNodeID(), Type: BiasNode, Output: run.BiasInit.Initialize()})

	for i := 0; i < cfg.NumInputs; i++ {
		for o := 0; o < cfg.NumOutputs; o++ {
			g.appendNewConnection(run.inputNodeID(i), run.outputNodeID(o), run.WeightInit.Initialize())
		}
	}
	if cfg.ConnectBias {
		for o := 0; o < cfg.NumOutputs; o++ {
			g.appendNewConnection(run.biasNodeID(), run.outputNodeID(o), run.WeightInit.Initialize())
		}
	}

	g.mustLink()
	g.CheckForRecurrentConnections()
	return g
}

func (g *Genome) appendNewConnection(in, out int, weight float64) {
	g.conns = append(g.conns, ConnectionGene{
		Innovation: g.run.Innovations.Connection(in, out),
		InNodeID:   in,
		OutNodeID:  out,
		Weight:     weight,
		Enabled:    true,
	})
}

// link rebuilds the node index, the interface node lists and the adjacency
// lists from the node and connection slices.
func (g *Genome) link() error {
	g.nodeIndex = make(map[int]int, len(g.nodes))
	g.inputs = g.inputs[:0]
	g.outputs = g.outputs[:0]
	g.bias = -1

	for i := range g.nodes {
		n := &g.nodes[i]
		if _, dup := g.nodeIndex[n.ID]; dup {
			return topologyErrorf(g.ID, "duplicate node id %d", n.ID)
		}
		g.nodeIndex[n.ID] = i
		n.incoming = n.incoming[:0]
		n.outgoing = n.outgoing[:0]
		switch n.Type {
		case InputNode:
			g.inputs = append(g.inputs, i)
		case OutputNode:
			g.outputs = append(g.outputs, i)
		case BiasNode:
			if g.bias != -1 {
				return topologyErrorf(g.ID, "more than one bias node")
			}
			g.bias = i
		}
	}
	byID := func(idx []int) func(a, b int) bool {
		return func(a, b int) bool { return g.nodes[idx[a]].ID < g.nodes[idx[b]].ID }
	}
	sort.Slice(g.inputs, byID(g.inputs))
	sort.Slice(g.outputs, byID(g.outputs))

	for i := range g.conns {
		if err := g.registerConnection(i); err != nil {
			return err
		}
	}
	return nil
}

// registerConnection resolves the endpoints of conns[i] and adds it to the
// adjacency lists of both nodes.
func (g *Genome) registerConnection(i int) error {
	c := &g.conns[i]
	in, ok := g.nodeIndex[c.InNodeID]
	if !ok {
		return topologyErrorf(g.ID, "connection %d references unknown in-node %d", c.Innovation, c.InNodeID)
	}
	out, ok := g.nodeIndex[c.OutNodeID]
	if !ok {
		return topologyErrorf(g.ID, "connection %d references unknown out-node %d", c.Innovation, c.OutNodeID)
	}
	if !g.nodes[out].Type.AcceptsIncoming() {
		return topologyErrorf(g.ID, "connection %d targets %s node %d", c.Innovation, g.nodes[out].Type, c.OutNodeID)
	}
	c.in, c.out = in, out
	g.nodes[in].outgoing = append(g.nodes[in].outgoing, i)
	g.nodes[out].incoming = append(g.nodes[out].incoming, i)
	return nil
}

func (g *Genome) mustLink() {
	if err := g.link(); err != nil {
		panic(err)
	}
}

// Run returns the evolutionary run the genome belongs to.
func (g *Genome) Run() *Run { return g.run }

// NumInputs returns the number of Input nodes.
func (g *Genome) NumInputs() int { return len(g.inputs) }

// NumOutputs returns the number of Output nodes.
func (g *Genome) NumOutputs() int { return len(g.outputs) }

// Nodes returns a snapshot of the node genes.
func (g *Genome) Nodes() []NodeGene {
	out := make([]NodeGene, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = NodeGene{ID: n.ID, Type: n.Type, Output: n.Output}
	}
	return out
}

// Connections returns a snapshot of the connection genes in creation order.
func (g *Genome) Connections() []ConnectionGene {
	out := make([]ConnectionGene, len(g.conns))
	for i, c := range g.conns {
		out[i] = ConnectionGene{
			Innovation: c.Innovation,
			InNodeID:   c.InNodeID,
			OutNodeID:  c.OutNodeID,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Recurrent:  c.Recurrent,
		}
	}
	return out
}

// Node returns a snapshot of the node with the given id.
func (g *Genome) Node(id int) (NodeGene, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return NodeGene{}, false
	}
	n := g.nodes[i]
	return NodeGene{ID: n.ID, Type: n.Type, Output: n.Output}, true
}

// InputIDs returns the ids of the Input nodes in the order Propagate consumes them.
func (g *Genome) InputIDs() []int { return g.idsOf(g.inputs) }

// OutputIDs returns the ids of the Output nodes in the order Propagate reports them.
func (g *Genome) OutputIDs() []int { return g.idsOf(g.outputs) }

func (g *Genome) idsOf(idx []int) []int {
	ids := make([]int, len(idx))
	for i, n := range idx {
		ids[i] = g.nodes[n].ID
	}
	return ids
}

// BiasOutput returns the constant output of the bias node, or 0 without one.
func (g *Genome) BiasOutput() float64 {
	if g.bias < 0 {
		return 0
	}
	return g.nodes[g.bias].Output
}

func (g *Genome) setBiasOutput(v float64) {
	if g.bias >= 0 {
		g.nodes[g.bias].Output = v
	}
}

// Clone returns a structurally identical genome with a fresh id and no fitness.
// Node ids, innovation numbers, weights and the bias value are copied.
func (g *Genome) Clone() *Genome {
	c := newGenome(g.run, g.run.GenomeIDs.Next())
	c.nodes = make([]NodeGene, len(g.nodes))
	for i, n := range g.nodes {
		c.nodes[i] = NodeGene{ID: n.ID, Type: n.Type}
		if n.Type == BiasNode {
			c.nodes[i].Output = n.Output
		}
	}
	c.conns = make([]ConnectionGene, len(g.conns))
	for i, conn := range g.conns {
		c.conns[i] = ConnectionGene{
			Innovation: conn.Innovation,
			InNodeID:   conn.InNodeID,
			OutNodeID:  conn.OutNodeID,
			Weight:     conn.Weight,
			Enabled:    conn.Enabled,
			Recurrent:  conn.Recurrent,
		}
	}
	c.mustLink()
	return c
}

// Equals reports whether two genomes have the same number of nodes and
// connections and the same sequence of connection weights.
func (g *Genome) Equals(other *Genome) bool {
	if other == nil || len(g.nodes) != len(other.nodes) || len(g.conns) != len(other.conns) {
		return false
	}
	for i := range g.conns {
		if g.conns[i].Weight != other.conns[i].Weight {
			return false
		}
	}
	return true
}

// ReinitializeWeights draws a fresh weight for every connection.
func (g *Genome) ReinitializeWeights() {
	for i := range g.conns {
		g.conns[i].Weight = g.run.WeightInit.Initialize()
	}
}

// ResetState clears the activation state of every node except the bias node.
// Call it between independent fitness trials of a recurrent network.
func (g *Genome) ResetState() {
	for i := range g.nodes {
		if g.nodes[i].Type != BiasNode {
			g.nodes[i].resetState()
		}
	}
}

// IsRecurrent reports whether a connection from→to (by node id) would close a
// cycle through the genome's current non-recurrent connections.
func (g *Genome) IsRecurrent(from, to int) bool {
	fi, ok := g.nodeIndex[from]
	if !ok {
		panic(topologyErrorf(g.ID, "unknown node %d", from))
	}
	ti, ok := g.nodeIndex[to]
	if !ok {
		panic(topologyErrorf(g.ID, "unknown node %d", to))
	}
	return g.isRecurrent(fi, ti, len(g.conns))
}

// isRecurrent reports whether from→to is a self loop, leaves an Output node, or
// closes a cycle through the non-recurrent connections among the first limit.
func (g *Genome) isRecurrent(from, to, limit int) bool {
	if from == to {
		return true
	}
	if g.nodes[from].Type == OutputNode {
		return true
	}

	visited := make([]bool, len(g.nodes))
	stack := []int{to}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == from {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for _, ci := range g.nodes[cur].outgoing {
			c := &g.conns[ci]
			if ci < limit && !c.Recurrent && !visited[c.out] {
				stack = append(stack, c.out)
			}
		}
	}
	return false
}

// CheckForRecurrentConnections re-derives the recurrent flag of every
// connection in creation order. A connection is recurrent when it would close a
// cycle with the non-recurrent connections created before it, so the result
// depends only on the structure and the non-recurrent connections never form a
// cycle. It runs after every structural change.
func (g *Genome) CheckForRecurrentConnections() {
	for i := range g.conns {
		c := &g.conns[i]
		c.Recurrent = g.isRecurrent(c.in, c.out, i)
	}
}

// Prune removes Hidden nodes that have no enabled incoming or no enabled
// outgoing connection (self loops do not count), together with every
// connection touching them. It repeats until nothing changes and returns the
// number of nodes removed.
func (g *Genome) Prune() int {
	removed := 0
	for {
		dead := make(map[int]bool)
		for i := range g.nodes {
			n := &g.nodes[i]
			if n.Type != HiddenNode {
				continue
			}
			if !g.hasEnabledEdge(n.incoming) || !g.hasEnabledEdge(n.outgoing) {
				dead[i] = true
			}
		}
		if len(dead) == 0 {
			break
		}
		g.removeNodes(dead)
		removed += len(dead)
	}
	if removed > 0 {
		g.CheckForRecurrentConnections()
	}
	return removed
}

func (g *Genome) hasEnabledEdge(edges []int) bool {
	for _, ci := range edges {
		c := &g.conns[ci]
		if c.Enabled && c.in != c.out {
			return true
		}
	}
	return false
}

// removeNodes drops the nodes at the given indices and every connection that
// touches one of them.
func (g *Genome) removeNodes(dead map[int]bool) {
	conns := g.conns[:0]
	for _, c := range g.conns {
		if dead[c.in] || dead[c.out] {
			continue
		}
		conns = append(conns, c)
	}
	g.conns = conns

	nodes := g.nodes[:0]
	for i, n := range g.nodes {
		if dead[i] {
			continue
		}
		nodes = append(nodes, n)
	}
	g.nodes = nodes
	g.mustLink()
}

// hasConnection reports whether a connection in→out (node indices) exists,
// enabled or not.
func (g *Genome) hasConnection(in, out int) bool {
	for _, ci := range g.nodes[in].outgoing {
		if g.conns[ci].out == out {
			return true
		}
	}
	return false
}

// String returns a multi-line description of the genome.
func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Genome(ID: %d, Fitness: %.4f, Nodes: %d, Connections: %d)\n", g.ID, g.Fitness, len(g.nodes), len(g.conns))
	for i := range g.nodes {
		fmt.Fprintf(&b, "  %s\n", g.nodes[i].String())
	}
	for i := range g.conns {
		fmt.Fprintf(&b, "  %s\n", g.conns[i].String())
	}
	return b.String()
}
