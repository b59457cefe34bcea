package organism

import (
	"math"
	"math/rand"
)

// Direction declares the fitness convention of a species: whether a lower
// or a higher score marks the better organism. Every comparison in the
// engine goes through this type so that ranking, selection and termination
// honor the convention uniformly.
type Direction int

const (
	// Minimize means fitness converges toward the smallest score.
	Minimize Direction = iota
	// Maximize means fitness converges toward the largest score.
	Maximize
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Better reports whether score a is strictly better than score b.
func (d Direction) Better(a, b float64) bool {
	if d == Maximize {
		return a > b
	}
	return a < b
}

// Worst returns the worst possible score for this direction. It is the
// score assigned to organisms whose evaluation fails.
func (d Direction) Worst() float64 {
	if d == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Organism is a single candidate solution. Implementations are the
// fixed-genome organism (pkg/genome) and the expression-tree organism
// (pkg/program).
//
// All genetic operations take an explicit random source so that runs are
// reproducible when the caller threads a single seeded generator through
// every decision. Operations never mutate the receiver: Mate and Mutate
// return fresh organisms, so parents referenced by an older generation
// are never changed behind the population's back.
type Organism interface {
	// ID returns the unique identifier of this organism.
	ID() string

	// Fitness returns the organism's score, computing and caching it on
	// first call. Evaluation can fail for tree organisms (for example a
	// division by zero); callers must treat such an error as "this
	// organism performs poorly", not as a fatal condition.
	Fitness() (float64, error)

	// Mate recombines this organism with a partner of the same species
	// and returns two offspring. Mating across species is a
	// configuration error.
	Mate(rng *rand.Rand, partner Organism) (Organism, Organism, error)

	// Mutate returns a mutated copy; the receiver is left untouched.
	Mutate(rng *rand.Rand) Organism

	// Clone returns a deep copy sharing no mutable state with the
	// receiver.
	Clone() Organism

	// Describe returns a human-readable report of the organism's
	// structure, suitable for logging. It is not a persistence format.
	Describe() string
}

// Species builds organisms and declares their fitness convention. A
// population holds exactly one species and fills itself with organisms
// produced by NewRandom.
type Species interface {
	NewRandom(rng *rand.Rand) Organism
	Direction() Direction
}
