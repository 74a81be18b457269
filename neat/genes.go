package neat

import (
	"fmt"
	"strings"
)

// NodeType is the variant of a node gene.
type NodeType int

const (
	InputNode NodeType = iota
	HiddenNode
	OutputNode
	BiasNode
)

var nodeTypeNames = [...]string{
	InputNode:  "INPUT",
	HiddenNode: "HIDDEN",
	OutputNode: "OUTPUT",
	BiasNode:   "BIAS",
}

func (t NodeType) String() string {
	if t < InputNode || t > BiasNode {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// ParseNodeType parses the persisted name of a node variant.
func ParseNodeType(s string) (NodeType, error) {
	for t, name := range nodeTypeNames {
		if strings.EqualFold(s, name) {
			return NodeType(t), nil
		}
	}
	return 0, fmt.Errorf("unknown node type: %q", s)
}

// MarshalText encodes the node type by name.
func (t NodeType) MarshalText() ([]byte, error) {
	if t < InputNode || t > BiasNode {
		return nil, fmt.Errorf("invalid node type %d", int(t))
	}
	return []byte(nodeTypeNames[t]), nil
}

// UnmarshalText decodes a node type name.
func (t *NodeType) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AcceptsIncoming reports whether a node of this type may be a connection target.
func (t NodeType) AcceptsIncoming() bool {
	return t == HiddenNode || t == OutputNode
}

// AcceptsOutgoing reports whether a node of this type may be a connection source.
func (t NodeType) AcceptsOutgoing() bool {
	return true
}

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the genome.
// Output is the node's last activation; it persists between propagation passes
// and feeds the node's recurrent outgoing connections.
type NodeGene struct {
	ID     int
	Type   NodeType
	Output float64

	// per-pass scheduling state
	prev     float64
	expected int
	received int
	sum      float64

	// indices into Genome.conns
	incoming []int
	outgoing []int
}

// String returns a string representation of the NodeGene.
func (n *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(ID: %d, Type: %s, Output: %.3f)", n.ID, n.Type, n.Output)
}

func (n *NodeGene) resetState() {
	n.Output = 0
	n.prev = 0
	n.expected = 0
	n.received = 0
	n.sum = 0
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionGene represents a weighted, directed connection between two nodes.
// Innovation is the lineage tag assigned when the connection was first created.
type ConnectionGene struct {
	Innovation int
	InNodeID   int
	OutNodeID  int
	Weight     float64
	Enabled    bool
	Recurrent  bool

	in, out   int // node indices in the owning genome
	forwarded bool
}

// String returns a string representation of the ConnectionGene.
func (c *ConnectionGene) String() string {
	return fmt.Sprintf("ConnectionGene(Innovation: %d, %d->%d, Weight: %.3f, Enabled: %t, Recurrent: %t)",
		c.Innovation, c.InNodeID, c.OutNodeID, c.Weight, c.Enabled, c.Recurrent)
}

// feedsForward reports whether the connection takes part in the current pass.
func (c *ConnectionGene) feedsForward() bool {
	return c.Enabled && !c.Recurrent
}
