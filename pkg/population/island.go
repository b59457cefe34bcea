package population

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// ArchipelagoConfig holds the settings for an island-model run: several
// populations of one species evolving independently, with the best
// members periodically migrating around a ring.
type ArchipelagoConfig struct {
	// Islands is the number of independent populations. Zero picks the
	// default of one, which degenerates to a plain population.
	Islands int

	// Island configures each population. Island i is seeded with
	// Island.Seed+i so the islands diverge from the first generation.
	Island Config

	// MigrationInterval is the number of generations between
	// migrations. Zero picks the default.
	MigrationInterval int

	// Migrants is how many organisms each island sends per migration.
	// Zero picks the default.
	Migrants int
}

// Archipelago runs the island model sequentially: every generational
// step advances each island in turn, then migrates once the interval
// has elapsed. Migration follows a ring topology, each island's best
// members replacing the worst members of the next island. All of it
// happens on the caller's goroutine; islands are isolation of gene
// pools, not of execution.
type Archipelago struct {
	islands []*Population
	config  ArchipelagoConfig
	logger  *logrus.Logger

	sinceMigration int
}

// NewArchipelago creates the configured number of islands, each filled
// with random organisms of the species.
func NewArchipelago(species organism.Species, config ArchipelagoConfig) (*Archipelago, error) {
	if config.Islands == 0 {
		config.Islands = constants.DefaultIslands
	}
	if config.Islands < 1 {
		return nil, organism.Configf("island count %d must be positive", config.Islands)
	}
	if config.MigrationInterval == 0 {
		config.MigrationInterval = constants.DefaultMigrationInterval
	}
	if config.MigrationInterval < 1 {
		return nil, organism.Configf("migration interval %d must be positive", config.MigrationInterval)
	}
	if config.Migrants == 0 {
		config.Migrants = constants.DefaultMigrants
	}
	if config.Migrants < 1 || config.Migrants >= config.Island.Size {
		return nil, organism.Configf("migrants %d must be in [1, island size)", config.Migrants)
	}

	islands := make([]*Population, config.Islands)
	for i := range islands {
		cfg := config.Island
		if cfg.Seed != 0 {
			cfg.Seed += int64(i)
		}
		island, err := New(species, cfg)
		if err != nil {
			return nil, fmt.Errorf("island %d: %w", i, err)
		}
		islands[i] = island
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	return &Archipelago{
		islands: islands,
		config:  config,
		logger:  logger,
	}, nil
}

// SetLogger replaces the archipelago's logger, including each island's.
func (a *Archipelago) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		a.logger = logger
		for _, island := range a.islands {
			island.SetLogger(logger)
		}
	}
}

// Islands returns the number of islands.
func (a *Archipelago) Islands() int {
	return len(a.islands)
}

// Island returns the i-th population for inspection.
func (a *Archipelago) Island(i int) *Population {
	return a.islands[i]
}

// Generation returns the shared generation counter.
func (a *Archipelago) Generation() int {
	return a.islands[0].generation
}

// Species returns the shared species descriptor.
func (a *Archipelago) Species() organism.Species {
	return a.islands[0].species
}

// NextGeneration advances every island by one generation, then performs
// a ring migration when the interval has elapsed.
func (a *Archipelago) NextGeneration() error {
	for i, island := range a.islands {
		if err := island.NextGeneration(); err != nil {
			return fmt.Errorf("island %d: %w", i, err)
		}
	}

	a.sinceMigration++
	if len(a.islands) > 1 && a.sinceMigration >= a.config.MigrationInterval {
		a.migrate()
		a.sinceMigration = 0
	}
	return nil
}

// migrate clones each island's best members into the next island on the
// ring, where they replace the worst members. Migrants are collected
// before any island is modified, so the ring order does not matter.
func (a *Archipelago) migrate() {
	outbound := make([][]organism.Organism, len(a.islands))
	for i, island := range a.islands {
		ranked := island.ranked()
		migrants := make([]organism.Organism, a.config.Migrants)
		for j := range migrants {
			migrants[j] = ranked[j].Organism.Clone()
		}
		outbound[i] = migrants
	}

	migrated := 0
	for i, migrants := range outbound {
		target := a.islands[(i+1)%len(a.islands)]
		target.replaceWorst(migrants)
		migrated += len(migrants)
	}

	a.logger.WithFields(logrus.Fields{
		"generation": a.Generation(),
		"migrated":   migrated,
	}).Info("Completed island migration")
}

// Best returns the globally best organism across all islands.
func (a *Archipelago) Best() (organism.Organism, float64) {
	dir := a.Species().Direction()
	best, bestScore := a.islands[0].Best()
	for _, island := range a.islands[1:] {
		if candidate, score := island.Best(); dir.Better(score, bestScore) {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore
}

// MeanFitness returns the mean fitness across all islands' members with
// a finite score.
func (a *Archipelago) MeanFitness() float64 {
	total, count := 0.0, 0
	for _, island := range a.islands {
		mean := island.MeanFitness()
		if mean == island.species.Direction().Worst() {
			continue
		}
		total += mean * float64(island.Size())
		count += island.Size()
	}
	if count == 0 {
		return a.Species().Direction().Worst()
	}
	return total / float64(count)
}
