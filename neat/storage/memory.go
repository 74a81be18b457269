package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/baldhumanity/neat-recurrent/neat"
)

type memoryKey struct {
	run string
	id  int
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	entries     map[memoryKey]Entry
}

// NewMemoryStore returns an empty store. Call Init before use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init marks the store ready.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.entries = make(map[memoryKey]Entry)
	return nil
}

// SaveGenome stores the genome, replacing any copy with the same run and id.
func (s *MemoryStore) SaveGenome(_ context.Context, runName string, generation int, g *neat.Genome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("memory store is not initialized")
	}
	rec := g.Record()
	s.entries[memoryKey{run: runName, id: rec.ID}] = Entry{RunName: runName, Generation: generation, Genome: rec}
	return nil
}

// GetGenome looks up one genome of a run.
func (s *MemoryStore) GetGenome(_ context.Context, runName string, genomeID int) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[memoryKey{run: runName, id: genomeID}]
	return entry, ok, nil
}

// BestGenome returns the fittest stored genome of a run, lower id first on ties.
func (s *MemoryStore) BestGenome(_ context.Context, runName string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  Entry
		found bool
	)
	for k, e := range s.entries {
		if k.run != runName {
			continue
		}
		if !found || e.Genome.Fitness > best.Genome.Fitness ||
			(e.Genome.Fitness == best.Genome.Fitness && e.Genome.ID < best.Genome.ID) {
			best, found = e, true
		}
	}
	return best, found, nil
}

// ListGenomes returns every stored genome of a run by generation, then id.
func (s *MemoryStore) ListGenomes(_ context.Context, runName string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for k, e := range s.entries {
		if k.run == runName {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Generation != out[j].Generation {
			return out[i].Generation < out[j].Generation
		}
		return out[i].Genome.ID < out[j].Genome.ID
	})
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
