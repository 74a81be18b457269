// Package storage archives genomes produced by a run so they can be inspected
// or reloaded after the run has ended.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/baldhumanity/neat-recurrent/neat"
)

// Entry is one archived genome.
type Entry struct {
	RunName    string
	Generation int
	Genome     neat.GenomeRecord
}

// Store persists genomes keyed by run name and genome id. Saving a genome
// that is already archived for the same run replaces it.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, runName string, generation int, g *neat.Genome) error
	GetGenome(ctx context.Context, runName string, genomeID int) (Entry, bool, error)
	BestGenome(ctx context.Context, runName string) (Entry, bool, error)
	ListGenomes(ctx context.Context, runName string) ([]Entry, error)
	Close() error
}

// Load rebuilds an archived genome inside run.
func Load(ctx context.Context, s Store, run *neat.Run, runName string, genomeID int) (*neat.Genome, error) {
	entry, ok, err := s.GetGenome(ctx, runName, genomeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("genome %d of run %q not found", genomeID, runName)
	}
	return run.GenomeFromRecord(entry.Genome)
}

func encodeRecord(rec neat.GenomeRecord) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode genome %d: %w", rec.ID, err)
	}
	return payload, nil
}

func decodeRecord(payload []byte) (neat.GenomeRecord, error) {
	var rec neat.GenomeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return neat.GenomeRecord{}, err
	}
	return rec, nil
}
