package neat

import "fmt"

// Propagate runs one forward pass and returns the outputs of the Output nodes,
// ordered by node id.
//
// The pass is push based. Every node first learns how many feed-forward inputs
// it will receive along enabled non-recurrent connections reached from the
// inputs. Input values are then pushed through the network and a node fires
// once it has received all of them. Recurrent connections contribute the
// source node's output from the previous pass. A node that is never reached
// keeps its previous output.
//
// Propagate mutates per-node state, so concurrent calls on the same genome are
// not allowed. It panics if len(inputs) differs from the number of Input nodes.
func (g *Genome) Propagate(inputs []float64) []float64 {
	if len(inputs) != len(g.inputs) {
		panic(fmt.Sprintf("neat: genome %d expects %d inputs, got %d", g.ID, len(g.inputs), len(inputs)))
	}

	g.prepareExpectedInputs()
	for k, idx := range g.inputs {
		g.feedInputNode(idx, inputs[k])
	}

	outputs := make([]float64, len(g.outputs))
	for k, idx := range g.outputs {
		outputs[k] = g.nodes[idx].Output
	}
	return outputs
}

// prepareExpectedInputs resets the per-pass state and counts, for every node,
// the feed-forward connections that will deliver a value during this pass.
func (g *Genome) prepareExpectedInputs() {
	for i := range g.nodes {
		n := &g.nodes[i]
		n.prev = n.Output
		n.expected = 0
		n.received = 0
		n.sum = 0
	}
	for i := range g.conns {
		g.conns[i].forwarded = false
	}
	for _, idx := range g.inputs {
		g.forwardExpected(idx)
	}
}

func (g *Genome) forwardExpected(node int) {
	for _, ci := range g.nodes[node].outgoing {
		c := &g.conns[ci]
		if !c.feedsForward() || c.forwarded {
			continue
		}
		c.forwarded = true
		target := &g.nodes[c.out]
		target.expected++
		if target.Type == HiddenNode {
			g.forwardExpected(c.out)
		}
	}
}

func (g *Genome) feedInputNode(node int, value float64) {
	n := &g.nodes[node]
	n.Output = value
	g.forward(node, value)
}

// forward pushes value × weight along every enabled non-recurrent outgoing
// connection of node.
func (g *Genome) forward(node int, value float64) {
	for _, ci := range g.nodes[node].outgoing {
		c := &g.conns[ci]
		if c.feedsForward() {
			g.receive(c.out, value*c.Weight)
		}
	}
}

func (g *Genome) receive(node int, value float64) {
	n := &g.nodes[node]
	switch n.Type {
	case InputNode, BiasNode:
		panic(fmt.Errorf("%w: %s node %d cannot receive input", ErrUnsupportedOperation, n.Type, n.ID))
	}
	n.sum += value
	n.received++
	if n.received == n.expected {
		g.fire(node)
	}
}

// fire activates a Hidden or Output node that has received all expected inputs.
func (g *Genome) fire(node int) {
	n := &g.nodes[node]
	sum := n.sum
	for _, ci := range n.incoming {
		c := &g.conns[ci]
		if !c.Enabled {
			continue
		}
		src := &g.nodes[c.in]
		switch {
		case src.Type == BiasNode:
			sum += c.Weight * src.Output
		case c.Recurrent:
			sum += c.Weight * src.prev
		}
	}

	n.Output = g.run.Activation(sum)
	n.sum = 0
	n.received = 0
	g.forward(node, n.Output)
}
