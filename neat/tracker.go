package neat

import "sync"

// Split is the outcome of splitting the connection in→out with a new hidden node.
type Split struct {
	NodeID        int
	InInnovation  int // innovation of in→NodeID
	OutInnovation int // innovation of NodeID→out
}

type edgeKey struct{ from, to int }

// InnovationTracker hands out innovation numbers for structural mutations.
// Identical mutations requested within one generation receive identical numbers,
// so genomes that independently grew the same structure stay aligned in crossover.
// It is safe for concurrent use.
type InnovationTracker struct {
	mu          sync.Mutex
	next        int
	connections map[edgeKey]int
	splits      map[edgeKey]Split
	nodes       *IDAllocator
}

// NewInnovationTracker creates a tracker whose first innovation number is next.
// New hidden node ids for splits are drawn from nodes.
func NewInnovationTracker(next int, nodes *IDAllocator) *InnovationTracker {
	return &InnovationTracker{
		next:        next,
		connections: make(map[edgeKey]int),
		splits:      make(map[edgeKey]Split),
		nodes:       nodes,
	}
}

// Connection returns the innovation number for a new connection from→to.
func (t *InnovationTracker) Connection(from, to int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := edgeKey{from, to}
	if innov, ok := t.connections[key]; ok {
		return innov
	}
	innov := t.next
	t.next++
	t.connections[key] = innov
	return innov
}

// Split returns the node id and the two innovation numbers for splitting the
// connection in→out.
func (t *InnovationTracker) Split(in, out int) Split {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := edgeKey{in, out}
	if s, ok := t.splits[key]; ok {
		return s
	}
	s := Split{
		NodeID:        t.nodes.Next(),
		InInnovation:  t.next,
		OutInnovation: t.next + 1,
	}
	t.next += 2
	t.splits[key] = s
	return s
}

// Reset forgets the signatures seen so far. Counters keep increasing.
func (t *InnovationTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connections = make(map[edgeKey]int)
	t.splits = make(map[edgeKey]Split)
}

// Next returns the innovation number that will be issued next.
func (t *InnovationTracker) Next() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// Restore moves the counter forward so that numbers below next are never reissued.
func (t *InnovationTracker) Restore(next int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if next > t.next {
		t.next = next
	}
}

// IDAllocator is a monotonic counter for node or genome ids.
type IDAllocator struct {
	mu   sync.Mutex
	next int
}

// NewIDAllocator creates an allocator whose first id is next.
func NewIDAllocator(next int) *IDAllocator {
	return &IDAllocator{next: next}
}

// Next returns a fresh id.
func (a *IDAllocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	return id
}

// Observe records that id is in use, so it is never handed out again.
func (a *IDAllocator) Observe(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id >= a.next {
		a.next = id + 1
	}
}

// Peek returns the id that will be issued next.
func (a *IDAllocator) Peek() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
