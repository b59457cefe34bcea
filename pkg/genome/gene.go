package genome

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/evolvekit/evolvekit-go/internal/constants"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

// Kind is the value type of a gene. The type is fixed per species: all
// organisms of one species carry the same kinds in the same positions.
type Kind int

const (
	// KindFloat is a continuous value in [Min, Max].
	KindFloat Kind = iota
	// KindInt is an integer value in [Min, Max].
	KindInt
	// KindBool is a single bit; mutation toggles it.
	KindBool
	// KindDiscrete is an index into a fixed allele list.
	KindDiscrete
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindDiscrete:
		return "discrete"
	default:
		return "float"
	}
}

// MutationMode selects how a gene value is perturbed when a mutation
// fires.
type MutationMode int

const (
	// MutateStep adds a bounded random step of up to ±MutAmount,
	// clamped to the gene's bounds.
	MutateStep MutationMode = iota
	// MutateDrift walks a proportion of the distance toward one of the
	// bounds, so the value can approach but never leave the range.
	MutateDrift
	// MutateResample replaces the value with a fresh random one.
	MutateResample
)

// CrossoverPolicy selects how two parent gene values combine into child
// values. Every policy returns values within the gene's bounds.
type CrossoverPolicy int

const (
	// CrossBlend produces weighted arithmetic blends of the parents.
	CrossBlend CrossoverPolicy = iota
	// CrossExchange gives each child one parent's value, assignment
	// chosen at random.
	CrossExchange
	// CrossRandRange samples each child uniformly from the interval
	// spanned by the two parent values.
	CrossRandRange
	// CrossMax gives the first child the greater and the second child
	// the lesser of the parent values.
	CrossMax
)

// GeneSpec describes one named, bounded, mutable parameter of a genome
// species. Specs are declared once at species-definition time and shared
// read-only by every organism of the species; the per-organism state is
// only the current value.
type GeneSpec struct {
	Name string
	Kind Kind

	// Min and Max bound the value. For KindBool and KindDiscrete they
	// are derived automatically.
	Min float64
	Max float64

	// Value, when set, fixes the initial value instead of randomizing.
	Value *float64

	// MutProb is the per-gene mutation probability. Zero means "use the
	// species mutation rate".
	MutProb float64

	// MutAmount scales MutateStep and MutateDrift perturbations. Zero
	// picks a kind-appropriate default.
	MutAmount float64

	Mutation  MutationMode
	Crossover CrossoverPolicy

	// BlendWeight is the CrossBlend weight given to the first parent.
	// Zero means the default 0.5.
	BlendWeight float64

	// Alleles is the value set for KindDiscrete genes.
	Alleles []string
}

// normalize fills in derived bounds and defaults. Called once by
// NewSchema before validation.
func (s *GeneSpec) normalize() {
	switch s.Kind {
	case KindBool:
		s.Min, s.Max = 0, 1
	case KindDiscrete:
		s.Min, s.Max = 0, float64(len(s.Alleles)-1)
	}
	if s.MutAmount == 0 {
		if s.Kind == KindInt {
			s.MutAmount = 1
		} else {
			s.MutAmount = constants.DefaultMutationAmount
		}
	}
	if s.BlendWeight == 0 {
		s.BlendWeight = constants.DefaultBlendWeight
	}
}

// validate checks the spec for configuration errors. Bounds with
// min > max, a fixed value outside the bounds, or a discrete gene
// without alleles all fail fast here.
func (s *GeneSpec) validate() error {
	if s.Name == "" {
		return organism.Configf("gene has no name")
	}
	if s.Kind == KindDiscrete && len(s.Alleles) == 0 {
		return organism.Configf("discrete gene %q has no alleles", s.Name)
	}
	if s.Min > s.Max {
		return organism.Configf("gene %q: min %g greater than max %g", s.Name, s.Min, s.Max)
	}
	if s.Value != nil && (*s.Value < s.Min || *s.Value > s.Max) {
		return organism.Configf("gene %q: initial value %g outside [%g, %g]",
			s.Name, *s.Value, s.Min, s.Max)
	}
	if s.MutProb < 0 || s.MutProb > 1 {
		return organism.Configf("gene %q: mutation probability %g outside [0, 1]", s.Name, s.MutProb)
	}
	if s.MutAmount < 0 {
		return organism.Configf("gene %q: negative mutation amount %g", s.Name, s.MutAmount)
	}
	if s.BlendWeight < 0 || s.BlendWeight > 1 {
		return organism.Configf("gene %q: blend weight %g outside [0, 1]", s.Name, s.BlendWeight)
	}
	return nil
}

// clamp reins a value back into the gene's bounds, rounding integral
// kinds to the nearest whole value.
func (s *GeneSpec) clamp(v float64) float64 {
	if s.Kind != KindFloat {
		v = math.Round(v)
	}
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// Random returns a legal random value for this gene.
func (s *GeneSpec) Random(rng *rand.Rand) float64 {
	switch s.Kind {
	case KindFloat:
		return s.Min + rng.Float64()*(s.Max-s.Min)
	default:
		span := int(s.Max-s.Min) + 1
		return s.Min + float64(rng.Intn(span))
	}
}

// initial returns the starting value for a new organism: the fixed value
// if one was declared, otherwise a random one.
func (s *GeneSpec) initial(rng *rand.Rand) float64 {
	if s.Value != nil {
		return *s.Value
	}
	return s.Random(rng)
}

// MutateValue perturbs v according to the spec's mutation mode and
// returns the new value, always within bounds. The mutation probability
// is the caller's business; this always perturbs.
func (s *GeneSpec) MutateValue(rng *rand.Rand, v float64) float64 {
	switch s.Kind {
	case KindBool:
		// toggle the bit
		if v == 0 {
			return 1
		}
		return 0
	case KindDiscrete:
		return s.Random(rng)
	}

	switch s.Mutation {
	case MutateResample:
		return s.Random(rng)
	case MutateDrift:
		if rng.Intn(2) == 0 {
			v -= rng.Float64() * s.MutAmount * (v - s.Min)
		} else {
			v += rng.Float64() * s.MutAmount * (s.Max - v)
		}
		return s.clamp(v)
	default: // MutateStep
		if s.Kind == KindInt {
			step := int(s.MutAmount)
			if step < 1 {
				step = 1
			}
			return s.clamp(v + float64(rng.Intn(2*step+1)-step))
		}
		return s.clamp(v + (rng.Float64()*2-1)*s.MutAmount)
	}
}

// CrossValues combines two parent values into two child values per the
// spec's crossover policy. Children always lie within bounds.
func (s *GeneSpec) CrossValues(rng *rand.Rand, a, b float64) (float64, float64) {
	switch s.Crossover {
	case CrossExchange:
		if rng.Intn(2) == 0 {
			return a, b
		}
		return b, a
	case CrossRandRange:
		lo, hi := math.Min(a, b), math.Max(a, b)
		pick := func() float64 {
			if s.Kind == KindFloat {
				return lo + rng.Float64()*(hi-lo)
			}
			span := int(hi-lo) + 1
			return lo + float64(rng.Intn(span))
		}
		return s.clamp(pick()), s.clamp(pick())
	case CrossMax:
		return math.Max(a, b), math.Min(a, b)
	default: // CrossBlend
		w := s.BlendWeight
		return s.clamp(w*a + (1-w)*b), s.clamp(w*b + (1-w)*a)
	}
}

// Format renders a value the way the gene's kind reads naturally.
func (s *GeneSpec) Format(v float64) string {
	switch s.Kind {
	case KindInt:
		return strconv.Itoa(int(v))
	case KindBool:
		return strconv.FormatBool(v != 0)
	case KindDiscrete:
		return s.Alleles[int(v)]
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// Schema is the fixed, ordered gene layout of a species. Gene names are
// resolved to indices once at definition time; organisms store a plain
// value slice and look names up through the schema.
type Schema struct {
	specs []GeneSpec
	index map[string]int
}

// NewSchema validates the specs and builds a schema. Duplicate names and
// malformed specs are configuration errors.
func NewSchema(specs ...GeneSpec) (*Schema, error) {
	if len(specs) == 0 {
		return nil, organism.Configf("schema has no genes")
	}

	s := &Schema{
		specs: make([]GeneSpec, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	copy(s.specs, specs)

	for i := range s.specs {
		spec := &s.specs[i]
		spec.normalize()
		if err := spec.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[spec.Name]; dup {
			return nil, organism.Configf("duplicate gene name %q", spec.Name)
		}
		s.index[spec.Name] = i
	}

	return s, nil
}

// Len returns the number of genes in the schema.
func (s *Schema) Len() int {
	return len(s.specs)
}

// Spec returns the gene spec at position i.
func (s *Schema) Spec(i int) *GeneSpec {
	return &s.specs[i]
}

// Index resolves a gene name to its position.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the gene names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.specs))
	for i := range s.specs {
		names[i] = s.specs[i].Name
	}
	return names
}
