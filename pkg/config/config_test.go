package config

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/internal/types"
	"github.com/evolvekit/evolvekit-go/pkg/genome"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

const sampleConfig = `
species:
  maximize: true
  mutation_rate: 0.05
genes:
  - name: weight
    type: float
    min: 0
    max: 1
  - name: count
    type: int_exchange
    min: 1
    max: 100
  - name: enabled
    type: bool
  - name: mode
    type: discrete
    alleles: [fast, slow]
population:
  size: 50
  elitism: 2
  selection: tournament
  tournament_size: 4
  seed: 7
evolution:
  max_generations: 30
  target_fitness: 0.99
  epsilon: 0.001
  verbose: true
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		constants.EnvSeed,
		constants.EnvMaxGenerations,
		constants.EnvPopulationSize,
		constants.EnvVerbose,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	require.NotNil(t, manager.GetConfig())
	assert.Empty(t, manager.GetPath())

	cfg := manager.GetConfig()
	assert.Equal(t, constants.DefaultPopulationSize, cfg.Population.Size)
	assert.Equal(t, constants.DefaultSelection, cfg.Population.Selection)
	assert.Equal(t, constants.DefaultMaxGenerations, cfg.Evolution.MaxGenerations)
	assert.Equal(t, constants.DefaultMutationRate, cfg.Species.MutationRate)
	assert.Equal(t, constants.DefaultMating, cfg.Species.Mating)
	assert.Equal(t, constants.DefaultIntersections, cfg.Species.Intersections)
	assert.Nil(t, cfg.Evolution.TargetFitness)
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleConfig)

	manager := NewManager()
	require.NoError(t, manager.Load(path))
	assert.Equal(t, path, manager.GetPath())

	cfg := manager.GetConfig()
	assert.True(t, cfg.Species.Maximize)
	assert.Equal(t, 0.05, cfg.Species.MutationRate)
	require.Len(t, cfg.Genes, 4)
	assert.Equal(t, "weight", cfg.Genes[0].Name)
	assert.Equal(t, constants.GeneTypeIntExchange, cfg.Genes[1].Type)
	assert.Equal(t, []string{"fast", "slow"}, cfg.Genes[3].Alleles)

	assert.Equal(t, 50, cfg.Population.Size)
	assert.Equal(t, 2, cfg.Population.Elitism)
	assert.Equal(t, int64(7), cfg.Population.Seed)

	assert.Equal(t, 30, cfg.Evolution.MaxGenerations)
	require.NotNil(t, cfg.Evolution.TargetFitness)
	assert.Equal(t, 0.99, *cfg.Evolution.TargetFitness)
	assert.Equal(t, 0.001, cfg.Evolution.Epsilon)
}

func TestLoadMissingKeysKeepDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
genes:
  - name: x
    type: float
    min: 0
    max: 1
`)

	manager := NewManager()
	require.NoError(t, manager.Load(path))

	cfg := manager.GetConfig()
	assert.Equal(t, constants.DefaultPopulationSize, cfg.Population.Size)
	assert.Equal(t, constants.DefaultMaxGenerations, cfg.Evolution.MaxGenerations)
}

func TestLoadMissingFile(t *testing.T) {
	manager := NewManager()
	err := manager.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidConfigs(t *testing.T) {
	cases := map[string]string{
		"no genes": `
population:
  size: 10
`,
		"unknown gene type": `
genes:
  - name: x
    type: quaternion
    min: 0
    max: 1
`,
		"unnamed gene": `
genes:
  - type: float
    min: 0
    max: 1
`,
		"population too small": `
genes:
  - name: x
    type: float
    min: 0
    max: 1
population:
  size: 1
`,
		"unknown selection": `
genes:
  - name: x
    type: float
    min: 0
    max: 1
population:
  size: 10
  selection: lottery
`,
		"bad mutation rate": `
species:
  mutation_rate: 1.5
genes:
  - name: x
    type: float
    min: 0
    max: 1
`,
		"unknown mating mode": `
species:
  mating: diploid
genes:
  - name: x
    type: float
    min: 0
    max: 1
`,
	}

	for name, content := range cases {
		manager := NewManager()
		err := manager.Load(writeConfig(t, content))
		assert.Error(t, err, name)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleConfig)

	manager := NewManager()
	require.NoError(t, manager.Load(path))

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, manager.Save(out))

	reloaded := NewManager()
	require.NoError(t, reloaded.Load(out))
	assert.Equal(t, manager.GetConfig(), reloaded.GetConfig())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(constants.EnvSeed, "123")
	t.Setenv(constants.EnvMaxGenerations, "17")
	t.Setenv(constants.EnvPopulationSize, "60")
	t.Setenv(constants.EnvVerbose, "TRUE")

	manager := NewManager()
	require.NoError(t, manager.Load(writeConfig(t, sampleConfig)))

	cfg := manager.GetConfig()
	assert.Equal(t, int64(123), cfg.Population.Seed)
	assert.Equal(t, 17, cfg.Evolution.MaxGenerations)
	assert.Equal(t, 60, cfg.Population.Size)
	assert.True(t, cfg.Evolution.Verbose)
}

func TestCreateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfig(path))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestBuildSchema(t *testing.T) {
	manager := NewManager()
	require.NoError(t, manager.Load(writeConfig(t, sampleConfig)))

	schema, err := manager.BuildSchema()
	require.NoError(t, err)
	require.Equal(t, 4, schema.Len())

	weight := schema.Spec(0)
	assert.Equal(t, genome.KindFloat, weight.Kind)
	assert.Equal(t, genome.CrossBlend, weight.Crossover)

	count := schema.Spec(1)
	assert.Equal(t, genome.KindInt, count.Kind)
	assert.Equal(t, genome.CrossExchange, count.Crossover)

	assert.Equal(t, genome.KindBool, schema.Spec(2).Kind)
	assert.Equal(t, genome.KindDiscrete, schema.Spec(3).Kind)
}

func TestGeneTypeMapping(t *testing.T) {
	cases := map[string]struct {
		kind      genome.Kind
		crossover genome.CrossoverPolicy
		mutation  genome.MutationMode
	}{
		constants.GeneTypeFloat:          {genome.KindFloat, genome.CrossBlend, genome.MutateStep},
		constants.GeneTypeFloatRandom:    {genome.KindFloat, genome.CrossBlend, genome.MutateResample},
		constants.GeneTypeFloatRandRange: {genome.KindFloat, genome.CrossRandRange, genome.MutateStep},
		constants.GeneTypeFloatMax:       {genome.KindFloat, genome.CrossMax, genome.MutateStep},
		constants.GeneTypeFloatExchange:  {genome.KindFloat, genome.CrossExchange, genome.MutateStep},
		constants.GeneTypeInt:            {genome.KindInt, genome.CrossMax, genome.MutateStep},
		constants.GeneTypeIntExchange:    {genome.KindInt, genome.CrossExchange, genome.MutateStep},
		constants.GeneTypeIntAverage:     {genome.KindInt, genome.CrossBlend, genome.MutateStep},
		constants.GeneTypeIntRandRange:   {genome.KindInt, genome.CrossRandRange, genome.MutateStep},
	}

	for name, want := range cases {
		kind, template, err := geneKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want.kind, kind, name)
		assert.Equal(t, want.crossover, template.Crossover, name)
		assert.Equal(t, want.mutation, template.Mutation, name)
	}

	_, _, err := geneKind("quaternion")
	assert.Error(t, err)
}

func TestBuildSpecies(t *testing.T) {
	manager := NewManager()
	require.NoError(t, manager.Load(writeConfig(t, sampleConfig)))

	sp, err := manager.BuildSpecies(func(o *genome.Organism) (float64, error) {
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, organism.Maximize, sp.Direction())

	_, err = manager.BuildSpecies(nil)
	assert.Error(t, err)
}

func TestBuildSpeciesSplitMating(t *testing.T) {
	manager := NewManager()
	manager.SetConfig(&types.Config{
		Species: types.SpeciesConfig{Mating: constants.MatingSplit, Intersections: 1},
		Genes: []types.GeneConfig{
			{Name: "a", Type: constants.GeneTypeFloat, Min: 0, Max: 1},
			{Name: "b", Type: constants.GeneTypeFloat, Min: 0, Max: 1},
		},
	})

	sp, err := manager.BuildSpecies(func(o *genome.Organism) (float64, error) {
		return 0, nil
	})
	require.NoError(t, err)

	// split mating never blends: every child gene equals a parent gene
	rng := rand.New(rand.NewSource(1))
	p1 := sp.NewRandom(rng).(*genome.Organism)
	p2 := sp.NewRandom(rng).(*genome.Organism)
	c1, c2, err := p1.Mate(rng, p2)
	require.NoError(t, err)

	v1 := c1.(*genome.Organism).Values()
	v2 := c2.(*genome.Organism).Values()
	for i := range v1 {
		assert.Contains(t, []float64{p1.Values()[i], p2.Values()[i]}, v1[i])
		assert.Contains(t, []float64{p1.Values()[i], p2.Values()[i]}, v2[i])
	}
}

func TestBuildSchemaRejectsBadBounds(t *testing.T) {
	manager := NewManager()
	manager.SetConfig(&types.Config{
		Genes: []types.GeneConfig{
			{Name: "x", Type: constants.GeneTypeFloat, Min: 5, Max: 1},
		},
	})

	_, err := manager.BuildSchema()
	assert.True(t, organism.IsConfig(err))
}

func TestPopulationAndEvolutionConfig(t *testing.T) {
	clearEnv(t)
	manager := NewManager()
	require.NoError(t, manager.Load(writeConfig(t, sampleConfig)))

	pc := manager.PopulationConfig()
	assert.Equal(t, 50, pc.Size)
	assert.Equal(t, 2, pc.Elitism)
	assert.Equal(t, "tournament", pc.Selection)
	assert.Equal(t, 4, pc.TournamentSize)
	assert.Equal(t, int64(7), pc.Seed)

	ec := manager.EvolutionConfig()
	assert.Equal(t, 30, ec.MaxGenerations)
	require.NotNil(t, ec.TargetFitness)
	assert.Equal(t, 0.99, *ec.TargetFitness)
	assert.Equal(t, 0.001, ec.Epsilon)
	assert.True(t, ec.Verbose)

	ac := manager.ArchipelagoConfig()
	assert.Equal(t, constants.DefaultIslands, ac.Islands)
	assert.Equal(t, constants.DefaultMigrationInterval, ac.MigrationInterval)
	assert.Equal(t, constants.DefaultMigrants, ac.Migrants)
	assert.Equal(t, 50, ac.Island.Size)
}
