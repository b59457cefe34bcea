package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/internal/types"
	"github.com/evolvekit/evolvekit-go/pkg/evolution"
	"github.com/evolvekit/evolvekit-go/pkg/genome"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
	"github.com/evolvekit/evolvekit-go/pkg/population"
)

// Manager handles configuration loading and validation
type Manager struct {
	config *types.Config
	path   string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: getDefaultConfig(),
	}
}

// Load loads configuration from a file. Keys absent from the file keep
// their defaults; environment overrides are applied on top.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := getDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := m.applyEnvOverrides(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := m.validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	m.path = path
	return nil
}

// Save saves configuration to a file
func (m *Manager) Save(path string) error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *types.Config {
	return m.config
}

// SetConfig updates the configuration
func (m *Manager) SetConfig(config *types.Config) {
	m.config = config
}

// GetPath returns the configuration file path
func (m *Manager) GetPath() string {
	return m.path
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (m *Manager) applyEnvOverrides(config *types.Config) error {
	if seed := os.Getenv(constants.EnvSeed); seed != "" {
		var n int64
		if _, err := fmt.Sscanf(seed, "%d", &n); err == nil {
			config.Population.Seed = n
		}
	}
	if maxGen := os.Getenv(constants.EnvMaxGenerations); maxGen != "" {
		var n int
		if _, err := fmt.Sscanf(maxGen, "%d", &n); err == nil {
			config.Evolution.MaxGenerations = n
		}
	}
	if size := os.Getenv(constants.EnvPopulationSize); size != "" {
		var n int
		if _, err := fmt.Sscanf(size, "%d", &n); err == nil {
			config.Population.Size = n
		}
	}
	if verbose := os.Getenv(constants.EnvVerbose); verbose != "" {
		config.Evolution.Verbose = strings.ToLower(verbose) == "true"
	}

	return nil
}

// validate validates the configuration
func (m *Manager) validate(config *types.Config) error {
	if config.Species.MutationRate < 0 || config.Species.MutationRate > 1 {
		return fmt.Errorf("mutation rate %g must be in [0, 1]", config.Species.MutationRate)
	}
	switch config.Species.Mating {
	case "", constants.MatingPerGene, constants.MatingSplit:
	default:
		return fmt.Errorf("unknown mating mode %q", config.Species.Mating)
	}
	if config.Species.Intersections < 0 {
		return fmt.Errorf("intersections must be non-negative")
	}

	if len(config.Genes) == 0 {
		return fmt.Errorf("at least one gene is required")
	}
	for i, g := range config.Genes {
		if g.Name == "" {
			return fmt.Errorf("gene %d has no name", i)
		}
		if _, _, err := geneKind(g.Type); err != nil {
			return fmt.Errorf("gene %q: %w", g.Name, err)
		}
	}

	if config.Population.Size < 2 {
		return fmt.Errorf("population size %d must be at least 2", config.Population.Size)
	}
	switch config.Population.Selection {
	case constants.SelectionRoulette, constants.SelectionRank, constants.SelectionTournament:
	default:
		return fmt.Errorf("unknown selection policy %q", config.Population.Selection)
	}

	if config.Population.Islands < 1 {
		return fmt.Errorf("island count must be positive")
	}

	if config.Evolution.MaxGenerations <= 0 {
		return fmt.Errorf("max generations must be positive")
	}
	if config.Evolution.Epsilon < 0 {
		return fmt.Errorf("epsilon must be non-negative")
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *types.Config {
	return &types.Config{
		Species: types.SpeciesConfig{
			Maximize:      true,
			MutationRate:  constants.DefaultMutationRate,
			Mating:        constants.DefaultMating,
			Intersections: constants.DefaultIntersections,
		},
		Genes: []types.GeneConfig{},
		Population: types.PopulationConfig{
			Size:           constants.DefaultPopulationSize,
			Elitism:        constants.DefaultElitism,
			Immigrants:     constants.DefaultImmigrants,
			Selection:      constants.DefaultSelection,
			TournamentSize: constants.DefaultTournamentSize,
			Seed:           constants.DefaultSeed,

			Islands:           constants.DefaultIslands,
			MigrationInterval: constants.DefaultMigrationInterval,
			Migrants:          constants.DefaultMigrants,
		},
		Evolution: types.EvolutionConfig{
			MaxGenerations: constants.DefaultMaxGenerations,
			Epsilon:        constants.DefaultEpsilon,
			Verbose:        false,
		},
	}
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig(path string) error {
	manager := NewManager()
	return manager.Save(path)
}

// geneKind resolves a gene type name to its kind and operator behavior.
func geneKind(name string) (genome.Kind, genome.GeneSpec, error) {
	var spec genome.GeneSpec
	switch name {
	case constants.GeneTypeFloat:
		return genome.KindFloat, spec, nil
	case constants.GeneTypeFloatRandom:
		spec.Mutation = genome.MutateResample
		return genome.KindFloat, spec, nil
	case constants.GeneTypeFloatRandRange:
		spec.Crossover = genome.CrossRandRange
		return genome.KindFloat, spec, nil
	case constants.GeneTypeFloatMax:
		spec.Crossover = genome.CrossMax
		return genome.KindFloat, spec, nil
	case constants.GeneTypeFloatExchange:
		spec.Crossover = genome.CrossExchange
		return genome.KindFloat, spec, nil
	case constants.GeneTypeInt:
		spec.Crossover = genome.CrossMax
		return genome.KindInt, spec, nil
	case constants.GeneTypeIntExchange:
		spec.Crossover = genome.CrossExchange
		return genome.KindInt, spec, nil
	case constants.GeneTypeIntAverage:
		spec.Crossover = genome.CrossBlend
		return genome.KindInt, spec, nil
	case constants.GeneTypeIntRandRange:
		spec.Crossover = genome.CrossRandRange
		return genome.KindInt, spec, nil
	case constants.GeneTypeBool:
		return genome.KindBool, spec, nil
	case constants.GeneTypeDiscrete:
		return genome.KindDiscrete, spec, nil
	default:
		return 0, spec, fmt.Errorf("unknown gene type %q", name)
	}
}

// BuildSchema translates the declared genes into a genome schema.
func (m *Manager) BuildSchema() (*genome.Schema, error) {
	specs := make([]genome.GeneSpec, 0, len(m.config.Genes))
	for _, g := range m.config.Genes {
		kind, template, err := geneKind(g.Type)
		if err != nil {
			return nil, organism.Configf("gene %q: %v", g.Name, err)
		}
		spec := template
		spec.Name = g.Name
		spec.Kind = kind
		spec.Min = g.Min
		spec.Max = g.Max
		spec.Value = g.Value
		spec.MutProb = g.MutProb
		spec.MutAmount = g.MutAmount
		spec.Alleles = g.Alleles
		specs = append(specs, spec)
	}
	return genome.NewSchema(specs...)
}

// BuildSpecies assembles a genome species from the declared genes and
// the supplied fitness function.
func (m *Manager) BuildSpecies(fitness genome.FitnessFunc) (*genome.Species, error) {
	schema, err := m.BuildSchema()
	if err != nil {
		return nil, err
	}

	dir := organism.Minimize
	if m.config.Species.Maximize {
		dir = organism.Maximize
	}
	mating := genome.MatePerGene
	if m.config.Species.Mating == constants.MatingSplit {
		mating = genome.MateSplit
	}
	return genome.NewSpecies(schema, fitness, genome.SpeciesConfig{
		Direction:     dir,
		MutationRate:  m.config.Species.MutationRate,
		MutateOneOnly: m.config.Species.MutateOne,
		Mating:        mating,
		Intersections: m.config.Species.Intersections,
	})
}

// PopulationConfig translates the population section into the form the
// population package takes.
func (m *Manager) PopulationConfig() population.Config {
	p := m.config.Population
	return population.Config{
		Size:           p.Size,
		Elitism:        p.Elitism,
		Immigrants:     p.Immigrants,
		Selection:      p.Selection,
		TournamentSize: p.TournamentSize,
		Seed:           p.Seed,
	}
}

// ArchipelagoConfig translates the population section into island-model
// settings.
func (m *Manager) ArchipelagoConfig() population.ArchipelagoConfig {
	p := m.config.Population
	return population.ArchipelagoConfig{
		Islands:           p.Islands,
		Island:            m.PopulationConfig(),
		MigrationInterval: p.MigrationInterval,
		Migrants:          p.Migrants,
	}
}

// EvolutionConfig translates the evolution section into driver settings.
func (m *Manager) EvolutionConfig() evolution.Config {
	e := m.config.Evolution
	return evolution.Config{
		MaxGenerations: e.MaxGenerations,
		TargetFitness:  e.TargetFitness,
		Epsilon:        e.Epsilon,
		Verbose:        e.Verbose,
	}
}
