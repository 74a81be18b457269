package neat

import (
	"compress/gzip"
	"encoding/gob"
	"log/slog"
	"os"
)

// checkpointData holds the parts of a Population needed to resume a run.
// The configuration is not saved; the caller supplies a Run built from it.
// The state of the random source is not saved either, so a resumed run is not
// a bit-for-bit continuation.
type checkpointData struct {
	RunName    string
	Generation int
	Genomes    []GenomeRecord
	BiasValues []float64 // bias node output of Genomes[i]
	BestGenome *GenomeRecord
	BestBias   float64

	Species        []speciesData
	SpeciesIndexer int

	StagnationBest  float64
	StagnationSince int
	Stale           bool

	NextInnovation int
	NextNodeID     int
	NextGenomeID   int
}

type speciesData struct {
	ID               int
	Created          int
	Representative   GenomeRecord
	RepresentBias    float64
	MemberIDs        []int
	BestFitness      float64
	SinceImprovement int
	Stagnant         bool
}

// SaveCheckpoint saves the current state of the Population to a file.
// Uses gzip compression for smaller file size.
func (p *Population) SaveCheckpoint(filePath string) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return &PersistenceError{Op: "save", Path: filePath, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &PersistenceError{Op: "save", Path: filePath, Err: cerr}
		}
	}()

	gzWriter := gzip.NewWriter(file)

	data := checkpointData{
		RunName:         p.run.Name,
		Generation:      p.Generation,
		SpeciesIndexer:  p.SpeciesSet.Indexer,
		StagnationBest:  p.Stagnation.BestFitness,
		StagnationSince: p.Stagnation.SinceImprovement,
		Stale:           p.Stagnation.Stale,
		NextInnovation:  p.run.Innovations.Next(),
		NextNodeID:      p.run.NodeIDs.Peek(),
		NextGenomeID:    p.run.GenomeIDs.Peek(),
	}
	for _, g := range p.Genomes {
		data.Genomes = append(data.Genomes, g.Record())
		data.BiasValues = append(data.BiasValues, g.BiasOutput())
	}
	if p.BestGenome != nil {
		rec := p.BestGenome.Record()
		data.BestGenome = &rec
		data.BestBias = p.BestGenome.BiasOutput()
	}
	for _, s := range p.SpeciesSet.Species {
		sd := speciesData{
			ID:               s.ID,
			Created:          s.Created,
			BestFitness:      s.BestFitness,
			SinceImprovement: s.SinceImprovement,
			Stagnant:         s.Stagnant,
		}
		if s.Representative != nil {
			sd.Representative = s.Representative.Record()
			sd.RepresentBias = s.Representative.BiasOutput()
		}
		for _, m := range s.Members {
			sd.MemberIDs = append(sd.MemberIDs, m.ID)
		}
		data.Species = append(data.Species, sd)
	}

	if err := gob.NewEncoder(gzWriter).Encode(data); err != nil {
		return &PersistenceError{Op: "encode", Path: filePath, Err: err}
	}
	if err := gzWriter.Close(); err != nil {
		return &PersistenceError{Op: "save", Path: filePath, Err: err}
	}

	p.run.Logger.Info("checkpoint saved", slog.String("path", filePath), slog.Int("generation", p.Generation))
	return nil
}

// LoadCheckpoint restores a Population saved by SaveCheckpoint into run, which
// must be created from the same configuration as the saved run. Bias outputs
// are restored as saved rather than drawn again.
func LoadCheckpoint(checkpointPath string, run *Run) (*Population, error) {
	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: checkpointPath, Err: err}
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, &PersistenceError{Op: "decode", Path: checkpointPath, Err: err}
	}
	defer gzReader.Close()

	var data checkpointData
	if err := gob.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, &PersistenceError{Op: "decode", Path: checkpointPath, Err: err}
	}

	p := newPopulation(run)
	p.Generation = data.Generation

	byID := make(map[int]*Genome, len(data.Genomes))
	for i, rec := range data.Genomes {
		g, err := run.GenomeFromRecord(rec)
		if err != nil {
			return nil, &PersistenceError{Op: "decode", Path: checkpointPath, Err: err}
		}
		if i < len(data.BiasValues) {
			g.setBiasOutput(data.BiasValues[i])
		}
		p.Genomes = append(p.Genomes, g)
		byID[g.ID] = g
	}
	if data.BestGenome != nil {
		if g, ok := byID[data.BestGenome.ID]; ok {
			p.BestGenome = g
		} else if p.BestGenome, err = run.GenomeFromRecord(*data.BestGenome); err != nil {
			return nil, &PersistenceError{Op: "decode", Path: checkpointPath, Err: err}
		} else {
			p.BestGenome.setBiasOutput(data.BestBias)
		}
	}

	for _, sd := range data.Species {
		s := &Species{
			ID:               sd.ID,
			Created:          sd.Created,
			BestFitness:      sd.BestFitness,
			SinceImprovement: sd.SinceImprovement,
			Stagnant:         sd.Stagnant,
		}
		for _, id := range sd.MemberIDs {
			if g, ok := byID[id]; ok {
				s.Members = append(s.Members, g)
			}
		}
		if g, ok := byID[sd.Representative.ID]; ok {
			s.Representative = g
		} else if s.Representative, err = run.GenomeFromRecord(sd.Representative); err != nil {
			return nil, &PersistenceError{Op: "decode", Path: checkpointPath, Err: err}
		} else {
			s.Representative.setBiasOutput(sd.RepresentBias)
		}
		p.SpeciesSet.Species = append(p.SpeciesSet.Species, s)
	}
	p.SpeciesSet.Indexer = data.SpeciesIndexer

	p.Stagnation.BestFitness = data.StagnationBest
	p.Stagnation.SinceImprovement = data.StagnationSince
	p.Stagnation.Stale = data.Stale

	run.Innovations.Restore(data.NextInnovation)
	run.NodeIDs.Observe(data.NextNodeID - 1)
	run.GenomeIDs.Observe(data.NextGenomeID - 1)

	run.Logger.Info("checkpoint loaded",
		slog.String("path", checkpointPath),
		slog.String("saved_run", data.RunName),
		slog.Int("generation", p.Generation))
	return p, nil
}
