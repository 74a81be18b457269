package neat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTopology reports a broken structural invariant: a connection
	// into an Input node, or a connection referencing a node that does not exist.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrUnsupportedOperation reports an operation a node variant cannot perform,
	// such as firing a Bias node.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// TopologyError describes a structural invariant violation. Operations that
// mutate a genome in place panic with a *TopologyError; loaders return it.
type TopologyError struct {
	GenomeID int
	Reason   string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("genome %d: %s: %s", e.GenomeID, ErrInvalidTopology, e.Reason)
}

func (e *TopologyError) Unwrap() error { return ErrInvalidTopology }

func topologyErrorf(genomeID int, format string, args ...any) *TopologyError {
	return &TopologyError{GenomeID: genomeID, Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps I/O and encoding failures of genomes and checkpoints.
// It is always returned to the caller and never fatal to a run.
type PersistenceError struct {
	Op   string // "save", "load", "encode", "decode"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
