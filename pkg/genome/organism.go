package genome

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// Organism is a fixed-genome candidate solution: one value per gene of
// its species' schema plus a lazily computed, dirty-flag-invalidated
// fitness cache. Organisms never share gene storage; every genetic
// operation works on copies.
type Organism struct {
	id      string
	species *Species
	values  []float64

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

// Gene returns the current value of the named gene.
func (o *Organism) Gene(name string) (float64, error) {
	i, ok := o.species.schema.Index(name)
	if !ok {
		return 0, organism.Configf("unknown gene %q", name)
	}
	return o.values[i], nil
}

// SetGene overwrites the named gene's value and invalidates the fitness
// cache. Values outside the gene's bounds are configuration errors.
func (o *Organism) SetGene(name string, v float64) error {
	i, ok := o.species.schema.Index(name)
	if !ok {
		return organism.Configf("unknown gene %q", name)
	}
	spec := o.species.schema.Spec(i)
	if v < spec.Min || v > spec.Max {
		return organism.Configf("gene %q: value %g outside [%g, %g]", name, v, spec.Min, spec.Max)
	}
	o.values[i] = v
	o.invalidate()
	return nil
}

// Values returns a copy of the organism's gene values in schema order.
func (o *Organism) Values() []float64 {
	out := make([]float64, len(o.values))
	copy(out, o.values)
	return out
}

// Fitness returns the cached score, invoking the species' fitness
// function only when no valid cache exists. An error result is cached
// like a score: the organism stays "broken" until a gene changes.
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

// Mate recombines this organism with a partner of the same species,
// producing two offspring. Under MatePerGene each gene's crossover
// policy decides how the parent values combine; under MateSplit whole
// genome stretches are exchanged at random cut points. Offspring carry
// exactly the species' gene set.
func (o *Organism) Mate(rng *rand.Rand, partner organism.Organism) (organism.Organism, organism.Organism, error) {
	mate, ok := partner.(*Organism)
	if !ok || mate.species != o.species {
		return nil, nil, organism.Configf("cannot mate organisms of different species")
	}

	var v1, v2 []float64
	if o.species.mating == MateSplit {
		v1, v2 = o.splitCross(rng, mate)
	} else {
		schema := o.species.schema
		v1 = make([]float64, schema.Len())
		v2 = make([]float64, schema.Len())
		for i := 0; i < schema.Len(); i++ {
			v1[i], v2[i] = schema.Spec(i).CrossValues(rng, o.values[i], mate.values[i])
		}
	}

	child1 := &Organism{id: uuid.New().String(), species: o.species, values: v1}
	child2 := &Organism{id: uuid.New().String(), species: o.species, values: v2}
	return child1, child2, nil
}

// splitCross draws up to the species' intersection count of cut points
// over the gene positions and copies from alternating parents, swapping
// the source at every cut. Each position ends up with one value from
// each parent, so the children partition the parents' genes exactly.
func (o *Organism) splitCross(rng *rand.Rand, mate *Organism) ([]float64, []float64) {
	n := o.species.schema.Len()
	cuts := make(map[int]bool, o.species.intersections)
	for i := 0; i < o.species.intersections; i++ {
		cuts[rng.Intn(n)] = true
	}

	v1 := make([]float64, n)
	v2 := make([]float64, n)
	a, b := o.values, mate.values
	for i := 0; i < n; i++ {
		if cuts[i] {
			a, b = b, a
		}
		v1[i] = a[i]
		v2[i] = b[i]
	}
	return v1, v2
}

// Mutate returns a mutated copy; the receiver is never modified. The
// fitness cache of the copy is invalidated only when a gene actually
// changed.
func (o *Organism) Mutate(rng *rand.Rand) organism.Organism {
	mutant := o.copyOrganism()
	mutant.id = uuid.New().String()
	schema := o.species.schema

	changed := false
	if o.species.mutateOne {
		i := rng.Intn(schema.Len())
		mutant.values[i] = schema.Spec(i).MutateValue(rng, mutant.values[i])
		changed = true
	} else {
		for i := 0; i < schema.Len(); i++ {
			spec := schema.Spec(i)
			prob := spec.MutProb
			if prob == 0 {
				prob = o.species.mutationRate
			}
			if rng.Float64() < prob {
				mutant.values[i] = spec.MutateValue(rng, mutant.values[i])
				changed = true
			}
		}
	}

	if changed {
		mutant.invalidate()
	}
	return mutant
}

// Clone returns a deep copy under a fresh ID. The fitness cache is
// carried over, so an unmutated clone reports the same fitness without
// re-evaluating.
func (o *Organism) Clone() organism.Organism {
	clone := o.copyOrganism()
	clone.id = uuid.New().String()
	return clone
}

func (o *Organism) copyOrganism() *Organism {
	values := make([]float64, len(o.values))
	copy(values, o.values)
	return &Organism{
		id:         o.id,
		species:    o.species,
		values:     values,
		score:      o.score,
		scoreErr:   o.scoreErr,
		scoreValid: o.scoreValid,
	}
}

// Describe renders a human-readable report of the organism's genes and,
// when already computed, its fitness.
func (o *Organism) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "organism %s", shortID(o.id))
	if o.scoreValid && o.scoreErr == nil {
		fmt.Fprintf(&b, " fitness=%g", o.score)
	}
	schema := o.species.schema
	for i := 0; i < schema.Len(); i++ {
		spec := schema.Spec(i)
		fmt.Fprintf(&b, "\n  %s = %s", spec.Name, spec.Format(o.values[i]))
	}
	return b.String()
}

// MarshalJSON renders the organism's gene values as a structured report
// keyed by gene name, with each value in its kind's native JSON type.
func (o *Organism) MarshalJSON() ([]byte, error) {
	schema := o.species.schema
	genes := make(map[string]interface{}, schema.Len())
	for i := 0; i < schema.Len(); i++ {
		spec := schema.Spec(i)
		switch spec.Kind {
		case KindInt:
			genes[spec.Name] = int(o.values[i])
		case KindBool:
			genes[spec.Name] = o.values[i] != 0
		case KindDiscrete:
			genes[spec.Name] = spec.Alleles[int(o.values[i])]
		default:
			genes[spec.Name] = o.values[i]
		}
	}
	return json.Marshal(struct {
		ID    string                 `json:"id"`
		Genes map[string]interface{} `json:"genes"`
	}{ID: o.id, Genes: genes})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
