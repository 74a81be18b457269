package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-recurrent/neat"
)

func newRun(t *testing.T) *neat.Run {
	t.Helper()
	cfg := neat.DefaultConfig()
	cfg.Neat.Seed = 3
	cfg.Genome.NodeAddProb = 0.5
	cfg.Genome.ConnAddProb = 0.5
	r, err := neat.NewRun(cfg, neat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return r
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "archive.db")),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			r := newRun(t)
			g := neat.NewMinimalGenome(r)
			for i := 0; i < 10; i++ {
				g.Mutate()
			}
			g.Fitness = 0.4
			require.NoError(t, store.SaveGenome(ctx, "run-a", 3, g))

			entry, ok, err := store.GetGenome(ctx, "run-a", g.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "run-a", entry.RunName)
			assert.Equal(t, 3, entry.Generation)
			assert.Equal(t, g.Record(), entry.Genome)

			_, ok, err = store.GetGenome(ctx, "run-b", g.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			loaded, err := Load(ctx, store, newRun(t), "run-a", g.ID)
			require.NoError(t, err)
			assert.Equal(t, g.Connections(), loaded.Connections())

			_, err = Load(ctx, store, newRun(t), "run-a", g.ID+1000)
			assert.Error(t, err)
		})
	}
}

func TestStoreBestAndList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			_, ok, err := store.BestGenome(ctx, "run-a")
			require.NoError(t, err)
			assert.False(t, ok)

			r := newRun(t)
			base := neat.NewMinimalGenome(r)
			var genomes []*neat.Genome
			for gen, fitness := range []float64{0.2, 0.9, 0.5} {
				g := base.Clone()
				g.Fitness = fitness
				genomes = append(genomes, g)
				require.NoError(t, store.SaveGenome(ctx, "run-a", gen, g))
			}
			other := base.Clone()
			other.Fitness = 5
			require.NoError(t, store.SaveGenome(ctx, "run-b", 0, other))

			best, ok, err := store.BestGenome(ctx, "run-a")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, genomes[1].ID, best.Genome.ID)
			assert.Equal(t, 1, best.Generation)

			// Saving an archived genome again replaces it.
			genomes[0].Fitness = 1.5
			require.NoError(t, store.SaveGenome(ctx, "run-a", 7, genomes[0]))
			best, _, err = store.BestGenome(ctx, "run-a")
			require.NoError(t, err)
			assert.Equal(t, genomes[0].ID, best.Genome.ID)
			assert.Equal(t, 7, best.Generation)

			entries, err := store.ListGenomes(ctx, "run-a")
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.Equal(t, []int{1, 2, 7}, []int{entries[0].Generation, entries[1].Generation, entries[2].Generation})
		})
	}
}

func TestStoreRequiresInit(t *testing.T) {
	g := neat.NewMinimalGenome(newRun(t))
	ctx := context.Background()

	assert.Error(t, NewSQLiteStore(filepath.Join(t.TempDir(), "x.db")).SaveGenome(ctx, "run", 0, g))
	assert.Error(t, NewMemoryStore().SaveGenome(ctx, "run", 0, g))
	assert.Error(t, NewSQLiteStore("").Init(ctx))
}
