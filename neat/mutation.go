package neat

// Mutate applies the weight, add-connection and add-node operators, each gated
// by its configured probability, and then re-derives recurrent flags.
func (g *Genome) Mutate() {
	cfg := g.run.Config.Genome

	if g.run.Float64() < cfg.WeightMutateRate {
		g.MutateWeights()
	}
	if g.run.Float64() < cfg.ConnAddProb {
		g.MutateAddConnection()
	}
	if g.run.Float64() < cfg.NodeAddProb {
		g.MutateAddNode()
	}
	g.CheckForRecurrentConnections()
}

// MutateWeights replaces each weight with a freshly initialized value with
// probability weight_replace_rate, and otherwise perturbs it by a uniform delta
// in [-perturb_range, perturb_range]. Results are clamped to the weight bounds.
func (g *Genome) MutateWeights() {
	cfg := g.run.Config.Genome
	for i := range g.conns {
		c := &g.conns[i]
		var w float64
		if g.run.Float64() < cfg.WeightReplaceRate {
			w = g.run.WeightInit.Initialize()
		} else {
			w = c.Weight + (g.run.Float64()*2-1)*cfg.PerturbRange
		}
		c.Weight = clamp(w, cfg.WeightMinValue, cfg.WeightMaxValue)
	}
	g.run.Metrics.observeMutation(mutationWeight)
}

// MutateAddConnection tries up to max_mutation_attempts random node pairs and
// adds the first valid new connection. It reports whether a connection was added.
func (g *Genome) MutateAddConnection() bool {
	cfg := g.run.Config.Genome
	if len(g.nodes) == 0 {
		return false
	}

	for attempt := 0; attempt < cfg.MaxMutationAttempts; attempt++ {
		from := g.run.Intn(len(g.nodes))
		to := g.run.Intn(len(g.nodes))

		if !g.nodes[from].Type.AcceptsOutgoing() || !g.nodes[to].Type.AcceptsIncoming() {
			continue
		}
		if g.hasConnection(from, to) {
			continue
		}
		recurrent := g.isRecurrent(from, to, len(g.conns))
		if recurrent && (!cfg.AllowRecurrent || g.run.Float64() > cfg.RecurrentConnectionRate) {
			continue
		}

		fromID, toID := g.nodes[from].ID, g.nodes[to].ID
		g.conns = append(g.conns, ConnectionGene{
			Innovation: g.run.Innovations.Connection(fromID, toID),
			InNodeID:   fromID,
			OutNodeID:  toID,
			Weight:     g.run.WeightInit.Initialize(),
			Enabled:    true,
			Recurrent:  recurrent,
		})
		if err := g.registerConnection(len(g.conns) - 1); err != nil {
			panic(err)
		}
		g.run.Metrics.observeMutation(mutationAddConnection)
		return true
	}
	return false
}

// MutateAddNode splits a random enabled connection in→out with a new Hidden
// node. The old connection is disabled and replaced by in→new with weight 1 and
// new→out carrying the old weight and recurrent flag. The same split performed
// by different genomes in one generation yields the same node id and the same
// innovation numbers. It reports whether a node was added.
func (g *Genome) MutateAddNode() bool {
	cfg := g.run.Config.Genome
	if len(g.conns) == 0 {
		return false
	}

	for attempt := 0; attempt < cfg.MaxMutationAttempts; attempt++ {
		ci := g.run.Intn(len(g.conns))
		old := g.conns[ci]
		if !old.Enabled {
			continue
		}
		split := g.run.Innovations.Split(old.InNodeID, old.OutNodeID)
		if _, exists := g.nodeIndex[split.NodeID]; exists {
			// this genome already carries the split from another lineage
			continue
		}

		g.conns[ci].Enabled = false
		g.nodes = append(g.nodes, NodeGene{ID: split.NodeID, Type: HiddenNode})
		g.nodeIndex[split.NodeID] = len(g.nodes) - 1

		g.conns = append(g.conns,
			ConnectionGene{
				Innovation: split.InInnovation,
				InNodeID:   old.InNodeID,
				OutNodeID:  split.NodeID,
				Weight:     1.0,
				Enabled:    true,
			},
			ConnectionGene{
				Innovation: split.OutInnovation,
				InNodeID:   split.NodeID,
				OutNodeID:  old.OutNodeID,
				Weight:     old.Weight,
				Enabled:    true,
				Recurrent:  old.Recurrent,
			},
		)
		for i := len(g.conns) - 2; i < len(g.conns); i++ {
			if err := g.registerConnection(i); err != nil {
				panic(err)
			}
		}
		g.CheckForRecurrentConnections()
		g.run.Metrics.observeMutation(mutationAddNode)
		return true
	}
	return false
}
