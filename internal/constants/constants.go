package constants

// Application constants
const (
	Name        = "EvolveKit-Go"
	Version     = "1.0.0"
	Description = "Generic evolutionary-computation engine for Go"

	// Default genetic operator settings
	DefaultMutationRate   = 0.01
	DefaultMutationAmount = 0.1
	DefaultBlendWeight    = 0.5
	DefaultIntersections  = 2

	// Default population settings
	DefaultPopulationSize = 100
	DefaultElitism        = 0
	DefaultImmigrants     = 0
	DefaultTournamentSize = 3

	// Default program-tree settings
	DefaultMaxDepth          = 4
	DefaultCrossoverAttempts = 20

	// Default island-model settings
	DefaultIslands           = 1
	DefaultMigrationInterval = 10
	DefaultMigrants          = 1

	// Default run settings
	DefaultMaxGenerations = 100
	DefaultEpsilon        = 1e-6
	DefaultSeed           = 42

	// Environment variable overrides
	EnvSeed           = "EVOLVE_SEED"
	EnvMaxGenerations = "EVOLVE_MAX_GENERATIONS"
	EnvPopulationSize = "EVOLVE_POPULATION_SIZE"
	EnvVerbose        = "EVOLVE_VERBOSE"

	// Exit codes
	ExitSuccess   = 0
	ExitError     = 1
	ExitInterrupt = 2
)

// Mating mode names accepted by the config loader
const (
	MatingPerGene = "genes"
	MatingSplit   = "split"

	DefaultMating = MatingPerGene
)

// Selection policy names
const (
	SelectionRoulette   = "roulette"
	SelectionRank       = "rank"
	SelectionTournament = "tournament"

	DefaultSelection = SelectionRoulette
)

// Gene type names accepted by the config loader
const (
	GeneTypeFloat          = "float"
	GeneTypeFloatRandom    = "float_random"
	GeneTypeFloatRandRange = "float_randrange"
	GeneTypeFloatMax       = "float_max"
	GeneTypeFloatExchange  = "float_exchange"
	GeneTypeInt            = "int"
	GeneTypeIntExchange    = "int_exchange"
	GeneTypeIntAverage     = "int_average"
	GeneTypeIntRandRange   = "int_randrange"
	GeneTypeBool           = "bool"
	GeneTypeDiscrete       = "discrete"
)
