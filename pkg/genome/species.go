package genome

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// MatingMode selects how two parents recombine into offspring.
type MatingMode int

const (
	// MatePerGene combines the parents gene by gene, each gene applying
	// its own crossover policy.
	MatePerGene MatingMode = iota

	// MateSplit cuts the genome at random intersection points and
	// exchanges the stretches between cuts wholesale. Genes that sit
	// next to each other in the schema travel together, which suits
	// schemas where neighboring genes encode related structure.
	MateSplit
)

// FitnessFunc scores an organism. It is supplied by the user at species
// definition time. Returning an error marks the organism as performing
// worst-possible; it never aborts the evolutionary loop.
type FitnessFunc func(*Organism) (float64, error)

// SpeciesConfig holds the species-wide settings shared by all organisms.
type SpeciesConfig struct {
	// Direction declares whether lower or higher fitness is better.
	Direction organism.Direction

	// MutationRate is the per-gene mutation probability used for genes
	// that do not declare their own. Zero disables mutation for those
	// genes.
	MutationRate float64

	// MutateOneOnly, when set, makes each mutation unconditionally
	// perturb exactly one randomly chosen gene instead of testing every
	// gene against its probability.
	MutateOneOnly bool

	// Mating selects the recombination mode. Default MatePerGene.
	Mating MatingMode

	// Intersections is the number of genome cut points drawn per
	// MateSplit mating. Cuts may coincide, so this is an upper bound.
	// Zero picks the default of two. Ignored under MatePerGene.
	Intersections int
}

// Species is the shared descriptor for a population of genome organisms:
// the gene schema, the fitness function and the mutation policy.
type Species struct {
	schema        *Schema
	fitness       FitnessFunc
	direction     organism.Direction
	mutationRate  float64
	mutateOne     bool
	mating        MatingMode
	intersections int
}

// NewSpecies builds a species from a validated schema and a fitness
// function.
func NewSpecies(schema *Schema, fitness FitnessFunc, cfg SpeciesConfig) (*Species, error) {
	if schema == nil {
		return nil, organism.Configf("species has no schema")
	}
	if fitness == nil {
		return nil, organism.Configf("species has no fitness function")
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, organism.Configf("species mutation rate %g outside [0, 1]", cfg.MutationRate)
	}
	if cfg.Mating != MatePerGene && cfg.Mating != MateSplit {
		return nil, organism.Configf("unknown mating mode %d", cfg.Mating)
	}
	if cfg.Intersections < 0 {
		return nil, organism.Configf("intersections %d must be non-negative", cfg.Intersections)
	}
	intersections := cfg.Intersections
	if intersections == 0 {
		intersections = constants.DefaultIntersections
	}

	return &Species{
		schema:        schema,
		fitness:       fitness,
		direction:     cfg.Direction,
		mutationRate:  cfg.MutationRate,
		mutateOne:     cfg.MutateOneOnly,
		mating:        cfg.Mating,
		intersections: intersections,
	}, nil
}

// Schema returns the species' gene schema.
func (sp *Species) Schema() *Schema {
	return sp.schema
}

// Direction returns the species' fitness convention.
func (sp *Species) Direction() organism.Direction {
	return sp.direction
}

// NewRandom creates an organism with every gene initialized from its
// spec: fixed value if declared, random within bounds otherwise.
func (sp *Species) NewRandom(rng *rand.Rand) organism.Organism {
	values := make([]float64, sp.schema.Len())
	for i := range values {
		values[i] = sp.schema.Spec(i).initial(rng)
	}
	return &Organism{
		id:      uuid.New().String(),
		species: sp,
		values:  values,
	}
}
