// Package neat is the module root of a NEAT (NeuroEvolution of Augmenting
// Topologies) engine whose networks may contain recurrent connections.
//
// The engine lives in the neat subpackage. Genomes are evaluated directly with
// Genome.Propagate, which pushes values through the network and feeds each
// recurrent connection the output its source produced on the previous pass.
// The nn subpackage compiles a genome into a network evaluated in topological
// order, and the storage subpackage archives genomes in SQLite.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	run, err := neat.NewRun(config)
//	if err != nil {
//		log.Fatalf("Error creating run: %v", err)
//	}
//
//	pop := neat.NewPopulation(run)
//	for pop.Generation < config.Neat.Generations {
//		winner, err := pop.RunGeneration(fitness)
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		if winner != nil {
//			fmt.Println("Solution found!")
//			break
//		}
//	}
package neat
