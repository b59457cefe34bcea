package program

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// FitnessFunc scores a program organism, typically by calling Evaluate
// over a set of test inputs and comparing against a reference. An error
// result marks the organism as performing worst-possible.
type FitnessFunc func(*Organism) (float64, error)

// SpeciesConfig holds the species-wide settings for program organisms.
type SpeciesConfig struct {
	Direction organism.Direction

	// MutationRate is the probability that Mutate actually perturbs the
	// tree. Zero disables mutation.
	MutationRate float64
}

// Species is the shared descriptor for a population of program
// organisms: the grammar, the fitness function and the mutation policy.
type Species struct {
	grammar      *Grammar
	fitness      FitnessFunc
	direction    organism.Direction
	mutationRate float64
}

// NewSpecies builds a program species from a validated grammar and a
// fitness function.
func NewSpecies(grammar *Grammar, fitness FitnessFunc, cfg SpeciesConfig) (*Species, error) {
	if grammar == nil {
		return nil, organism.Configf("species has no grammar")
	}
	if fitness == nil {
		return nil, organism.Configf("species has no fitness function")
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, organism.Configf("species mutation rate %g outside [0, 1]", cfg.MutationRate)
	}

	return &Species{
		grammar:      grammar,
		fitness:      fitness,
		direction:    cfg.Direction,
		mutationRate: cfg.MutationRate,
	}, nil
}

// Grammar returns the species' grammar.
func (sp *Species) Grammar() *Grammar {
	return sp.grammar
}

// Direction returns the species' fitness convention.
func (sp *Species) Direction() organism.Direction {
	return sp.direction
}

// NewRandom creates an organism with a randomly generated tree.
func (sp *Species) NewRandom(rng *rand.Rand) organism.Organism {
	return &Organism{
		id:      uuid.New().String(),
		species: sp,
		root:    sp.grammar.Generate(rng),
	}
}

// NewFromTree creates an organism from a caller-built tree after
// checking it against the grammar. The tree is cloned, so the caller
// keeps ownership of its nodes.
func (sp *Species) NewFromTree(root *Node) (*Organism, error) {
	if root == nil {
		return nil, organism.Configf("organism has no tree")
	}
	clone := root.Clone()
	if err := sp.grammar.bind(clone); err != nil {
		return nil, err
	}
	return &Organism{
		id:      uuid.New().String(),
		species: sp,
		root:    clone,
	}, nil
}

// Organism is an expression-tree candidate solution: a root node owned
// exclusively by this organism plus the usual dirty-flag fitness cache.
type Organism struct {
	id      string
	species *Species
	root    *Node

	score      float64
	scoreErr   error
	scoreValid bool
}

var _ organism.Organism = (*Organism)(nil)

// ID returns the organism's unique identifier.
func (o *Organism) ID() string {
	return o.id
}

// Species returns the organism's species descriptor.
func (o *Organism) Species() *Species {
	return o.species
}

// Tree returns the root of the organism's expression tree. Callers must
// treat it as read-only.
func (o *Organism) Tree() *Node {
	return o.root
}

// Evaluate runs the tree against the given input bindings. Domain
// failures such as division by zero come back as EvalError values and
// must be handled by the fitness function, never assumed away.
func (o *Organism) Evaluate(bindings map[string]float64) (float64, error) {
	return o.root.Eval(bindings)
}

// Fitness returns the cached score, invoking the species' fitness
// function only when no valid cache exists.
func (o *Organism) Fitness() (float64, error) {
	if !o.scoreValid {
		o.score, o.scoreErr = o.species.fitness(o)
		o.scoreValid = true
	}
	return o.score, o.scoreErr
}

// Evaluated reports whether a fitness result, success or failure, is
// already cached, so the next Fitness call is free.
func (o *Organism) Evaluated() bool {
	return o.scoreValid
}

func (o *Organism) invalidate() {
	o.scoreValid = false
	o.scoreErr = nil
}

// Mate performs subtree crossover: a uniformly random node of a clone
// of each parent is chosen and the two subtrees are swapped. Swaps that
// would exceed the grammar's depth bound are rejected and redrawn; after
// the configured number of attempts the parents' clones come back
// unmodified.
func (o *Organism) Mate(rng *rand.Rand, partner organism.Organism) (organism.Organism, organism.Organism, error) {
	mate, ok := partner.(*Organism)
	if !ok || mate.species != o.species {
		return nil, nil, organism.Configf("cannot mate organisms of different species")
	}

	g := o.species.grammar
	for try := 0; try < g.attempts; try++ {
		root1 := o.root.Clone()
		root2 := mate.root.Clone()

		refs1 := root1.refs()
		refs2 := root2.refs()
		ref1 := refs1[rng.Intn(len(refs1))]
		ref2 := refs2[rng.Intn(len(refs2))]

		root1 = splice(root1, ref1, ref2.node)
		root2 = splice(root2, ref2, ref1.node)

		if root1.Depth() > g.maxDepth || root2.Depth() > g.maxDepth {
			continue
		}
		return o.offspring(root1), o.offspring(root2), nil
	}

	// no legal swap found, fall back to plain clones
	return o.Clone(), mate.Clone(), nil
}

func (o *Organism) offspring(root *Node) *Organism {
	return &Organism{
		id:      uuid.New().String(),
		species: o.species,
		root:    root,
	}
}

// Mutate returns a copy that, with the species' mutation probability,
// has a uniformly random subtree replaced by a freshly generated one of
// bounded depth. Otherwise the copy is unmodified.
func (o *Organism) Mutate(rng *rand.Rand) organism.Organism {
	mutant := o.copyOrganism()
	mutant.id = uuid.New().String()

	if rng.Float64() >= o.species.mutationRate {
		return mutant
	}

	g := o.species.grammar
	refs := mutant.root.refs()
	ref := refs[rng.Intn(len(refs))]

	budget := g.maxDepth - ref.depth + 1
	if budget < 1 {
		budget = 1
	}
	repl := g.generate(rng, budget, false)
	mutant.root = splice(mutant.root, ref, repl)
	mutant.invalidate()
	return mutant
}

// Clone returns a deep copy of the whole tree under a fresh ID, with
// the fitness cache carried over.
func (o *Organism) Clone() organism.Organism {
	clone := o.copyOrganism()
	clone.id = uuid.New().String()
	return clone
}

func (o *Organism) copyOrganism() *Organism {
	return &Organism{
		id:         o.id,
		species:    o.species,
		root:       o.root.Clone(),
		score:      o.score,
		scoreErr:   o.scoreErr,
		scoreValid: o.scoreValid,
	}
}

// Describe renders the tree as an s-expression plus, when already
// computed, the fitness.
func (o *Organism) Describe() string {
	if o.scoreValid && o.scoreErr == nil {
		return fmt.Sprintf("organism %s fitness=%g\n  %s", shortID(o.id), o.score, o.root)
	}
	return fmt.Sprintf("organism %s\n  %s", shortID(o.id), o.root)
}

// MarshalJSON renders the organism as a structured report with the tree
// in textual form. It is reporting output, not a persistence format.
func (o *Organism) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id"`
		Tree  string `json:"tree"`
		Nodes int    `json:"nodes"`
		Depth int    `json:"depth"`
	}{ID: o.id, Tree: o.root.String(), Nodes: o.root.Count(), Depth: o.root.Depth()})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
