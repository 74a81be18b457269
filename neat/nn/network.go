package nn

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/baldhumanity/neat-recurrent/neat"
)

type link struct {
	src    int // position in Network.values
	weight float64
}

// neuron is a node that fires during activation.
type neuron struct {
	pos       int
	forward   []link // enabled feed-forward inputs from nodes that fire earlier
	recurrent []link // enabled recurrent inputs, read from the previous activation
	bias      float64
}

// Network is a compiled phenotype of a genome. Activation follows the
// genome's own propagation semantics but evaluates nodes in a precomputed
// topological order instead of scheduling them at run time.
type Network struct {
	InputIDs  []int // Input node ids, in activation input order
	OutputIDs []int // Output node ids, in activation output order
	Order     []int // Ids of the nodes that fire, in evaluation order

	activation neat.ActivationFunc
	neurons    []neuron
	inputs     []int
	outputs    []int
	values     []float64
	prev       []float64
	initial    []float64
}

// Compile builds a Network from a genome. Only nodes reachable from the inputs
// through enabled non-recurrent connections fire; every other node keeps its
// previous value. It fails if those connections contain a cycle.
func Compile(g *neat.Genome) (*Network, error) {
	nodes := g.Nodes()
	conns := g.Connections()

	pos := make(map[int]int, len(nodes))
	for i, n := range nodes {
		pos[n.ID] = i
	}

	net := &Network{
		InputIDs:   g.InputIDs(),
		OutputIDs:  g.OutputIDs(),
		activation: g.Run().Activation,
		values:     make([]float64, len(nodes)),
		prev:       make([]float64, len(nodes)),
		initial:    make([]float64, len(nodes)),
	}
	for _, id := range net.InputIDs {
		net.inputs = append(net.inputs, pos[id])
	}
	for _, id := range net.OutputIDs {
		net.outputs = append(net.outputs, pos[id])
	}
	for i, n := range nodes {
		if n.Type == neat.BiasNode {
			net.initial[i] = n.Output
		}
	}
	copy(net.values, net.initial)

	outgoing := make(map[int][]neat.ConnectionGene)
	incoming := make(map[int][]neat.ConnectionGene)
	for _, c := range conns {
		if _, ok := pos[c.InNodeID]; !ok {
			return nil, fmt.Errorf("nn: genome %d: connection %d references unknown node %d: %w", g.ID, c.Innovation, c.InNodeID, neat.ErrInvalidTopology)
		}
		if _, ok := pos[c.OutNodeID]; !ok {
			return nil, fmt.Errorf("nn: genome %d: connection %d references unknown node %d: %w", g.ID, c.Innovation, c.OutNodeID, neat.ErrInvalidTopology)
		}
		outgoing[c.InNodeID] = append(outgoing[c.InNodeID], c)
		incoming[c.OutNodeID] = append(incoming[c.OutNodeID], c)
	}

	// Nodes reached from the inputs along enabled feed-forward connections.
	reached := make(map[int]bool)
	stack := append([]int(nil), net.InputIDs...)
	for _, id := range stack {
		reached[id] = true
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nodes[pos[id]].Type == neat.OutputNode {
			continue
		}
		for _, c := range outgoing[id] {
			if c.Enabled && !c.Recurrent && !reached[c.OutNodeID] {
				reached[c.OutNodeID] = true
				stack = append(stack, c.OutNodeID)
			}
		}
	}

	dg := simple.NewDirectedGraph()
	for id := range reached {
		dg.AddNode(simple.Node(int64(id)))
	}
	for id := range reached {
		if nodes[pos[id]].Type == neat.OutputNode {
			continue
		}
		for _, c := range outgoing[id] {
			if !c.Enabled || c.Recurrent {
				continue
			}
			if c.InNodeID == c.OutNodeID {
				return nil, fmt.Errorf("nn: genome %d: feed-forward self loop on node %d: %w", g.ID, c.InNodeID, neat.ErrInvalidTopology)
			}
			dg.SetEdge(dg.NewEdge(simple.Node(int64(c.InNodeID)), simple.Node(int64(c.OutNodeID))))
		}
	}

	sorted, err := topo.Sort(dg)
	if err != nil {
		return nil, fmt.Errorf("nn: genome %d: feed-forward connections contain a cycle: %w", g.ID, neat.ErrInvalidTopology)
	}

	for _, gn := range sorted {
		id := int(gn.ID())
		n := nodes[pos[id]]
		if n.Type != neat.HiddenNode && n.Type != neat.OutputNode {
			continue
		}
		nr := neuron{pos: pos[id]}
		for _, c := range incoming[id] {
			if !c.Enabled {
				continue
			}
			src := nodes[pos[c.InNodeID]]
			switch {
			case src.Type == neat.BiasNode:
				nr.bias += c.Weight * src.Output
			case c.Recurrent:
				nr.recurrent = append(nr.recurrent, link{src: pos[c.InNodeID], weight: c.Weight})
			case reached[c.InNodeID] && src.Type != neat.OutputNode:
				nr.forward = append(nr.forward, link{src: pos[c.InNodeID], weight: c.Weight})
			}
		}
		net.neurons = append(net.neurons, nr)
		net.Order = append(net.Order, id)
	}
	return net, nil
}

// Activate runs one pass and returns the outputs, ordered as OutputIDs.
// Recurrent connections read the values of the previous call.
func (n *Network) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.inputs) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(n.inputs), len(inputs))
	}

	copy(n.prev, n.values)
	for i, p := range n.inputs {
		n.values[p] = inputs[i]
	}
	for _, nr := range n.neurons {
		sum := nr.bias
		for _, l := range nr.forward {
			sum += l.weight * n.values[l.src]
		}
		for _, l := range nr.recurrent {
			sum += l.weight * n.prev[l.src]
		}
		n.values[nr.pos] = n.activation(sum)
	}

	outputs := make([]float64, len(n.outputs))
	for i, p := range n.outputs {
		outputs[i] = n.values[p]
	}
	return outputs, nil
}

// Reset clears the values carried between activations.
func (n *Network) Reset() {
	copy(n.values, n.initial)
	for i := range n.prev {
		n.prev[i] = 0
	}
}

// CheckAcyclic verifies that the genome's non-recurrent connections, enabled
// or not, form a directed acyclic graph.
func CheckAcyclic(g *neat.Genome) error {
	dg := simple.NewDirectedGraph()
	for _, n := range g.Nodes() {
		dg.AddNode(simple.Node(int64(n.ID)))
	}
	for _, c := range g.Connections() {
		if c.Recurrent {
			continue
		}
		if c.InNodeID == c.OutNodeID {
			return fmt.Errorf("nn: genome %d: connection %d is a non-recurrent self loop: %w", g.ID, c.Innovation, neat.ErrInvalidTopology)
		}
		if dg.Node(int64(c.InNodeID)) == nil || dg.Node(int64(c.OutNodeID)) == nil {
			return fmt.Errorf("nn: genome %d: connection %d references an unknown node: %w", g.ID, c.Innovation, neat.ErrInvalidTopology)
		}
		dg.SetEdge(dg.NewEdge(simple.Node(int64(c.InNodeID)), simple.Node(int64(c.OutNodeID))))
	}
	if _, err := topo.Sort(dg); err != nil {
		return fmt.Errorf("nn: genome %d: non-recurrent connections contain a cycle: %w", g.ID, neat.ErrInvalidTopology)
	}
	return nil
}
