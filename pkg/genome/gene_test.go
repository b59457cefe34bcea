package genome

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestNewSchemaValidation(t *testing.T) {
	_, err := NewSchema()
	assert.Error(t, err)
	assert.True(t, organism.IsConfig(err))

	_, err = NewSchema(GeneSpec{Kind: KindFloat, Min: 0, Max: 1})
	assert.Error(t, err, "unnamed gene must be rejected")

	_, err = NewSchema(GeneSpec{Name: "x", Kind: KindFloat, Min: 5, Max: 1})
	assert.Error(t, err, "min above max must be rejected")

	fixed := 3.0
	_, err = NewSchema(GeneSpec{Name: "x", Kind: KindFloat, Min: 0, Max: 1, Value: &fixed})
	assert.Error(t, err, "fixed value outside bounds must be rejected")

	_, err = NewSchema(GeneSpec{Name: "d", Kind: KindDiscrete})
	assert.Error(t, err, "discrete gene without alleles must be rejected")

	_, err = NewSchema(
		GeneSpec{Name: "x", Kind: KindFloat, Min: 0, Max: 1},
		GeneSpec{Name: "x", Kind: KindFloat, Min: 0, Max: 1},
	)
	assert.Error(t, err, "duplicate names must be rejected")
}

func TestSchemaLookup(t *testing.T) {
	schema, err := NewSchema(
		GeneSpec{Name: "a", Kind: KindFloat, Min: 0, Max: 1},
		GeneSpec{Name: "b", Kind: KindInt, Min: 0, Max: 10},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, schema.Len())
	assert.Equal(t, []string{"a", "b"}, schema.Names())

	i, ok := schema.Index("b")
	assert.True(t, ok)
	assert.Equal(t, "b", schema.Spec(i).Name)

	_, ok = schema.Index("missing")
	assert.False(t, ok)
}

func TestDerivedBounds(t *testing.T) {
	schema, err := NewSchema(
		GeneSpec{Name: "flag", Kind: KindBool},
		GeneSpec{Name: "color", Kind: KindDiscrete, Alleles: []string{"red", "green", "blue"}},
	)
	require.NoError(t, err)

	flag := schema.Spec(0)
	assert.Equal(t, 0.0, flag.Min)
	assert.Equal(t, 1.0, flag.Max)

	color := schema.Spec(1)
	assert.Equal(t, 0.0, color.Min)
	assert.Equal(t, 2.0, color.Max)
}

func TestRandomWithinBounds(t *testing.T) {
	rng := testRNG()
	specs := []GeneSpec{
		{Name: "f", Kind: KindFloat, Min: -2, Max: 7},
		{Name: "i", Kind: KindInt, Min: 3, Max: 9},
		{Name: "b", Kind: KindBool},
		{Name: "d", Kind: KindDiscrete, Alleles: []string{"a", "b"}},
	}
	schema, err := NewSchema(specs...)
	require.NoError(t, err)

	for i := 0; i < schema.Len(); i++ {
		spec := schema.Spec(i)
		for trial := 0; trial < 200; trial++ {
			v := spec.Random(rng)
			assert.GreaterOrEqual(t, v, spec.Min)
			assert.LessOrEqual(t, v, spec.Max)
			if spec.Kind != KindFloat {
				assert.Equal(t, float64(int(v)), v, "integral kinds stay whole")
			}
		}
	}
}

func TestMutateValueStaysInBounds(t *testing.T) {
	rng := testRNG()
	schema, err := NewSchema(
		GeneSpec{Name: "step", Kind: KindFloat, Min: 0, Max: 1, MutAmount: 0.5},
		GeneSpec{Name: "drift", Kind: KindFloat, Min: -1, Max: 1, Mutation: MutateDrift},
		GeneSpec{Name: "resample", Kind: KindFloat, Min: 10, Max: 20, Mutation: MutateResample},
		GeneSpec{Name: "count", Kind: KindInt, Min: 0, Max: 5},
	)
	require.NoError(t, err)

	for i := 0; i < schema.Len(); i++ {
		spec := schema.Spec(i)
		v := spec.Random(rng)
		for trial := 0; trial < 500; trial++ {
			v = spec.MutateValue(rng, v)
			assert.GreaterOrEqual(t, v, spec.Min)
			assert.LessOrEqual(t, v, spec.Max)
		}
	}
}

func TestMutateValueTogglesBool(t *testing.T) {
	rng := testRNG()
	schema, err := NewSchema(GeneSpec{Name: "flag", Kind: KindBool})
	require.NoError(t, err)

	spec := schema.Spec(0)
	assert.Equal(t, 1.0, spec.MutateValue(rng, 0))
	assert.Equal(t, 0.0, spec.MutateValue(rng, 1))
}

func TestCrossBlendAverages(t *testing.T) {
	rng := testRNG()
	schema, err := NewSchema(GeneSpec{Name: "x", Kind: KindFloat, Min: 0, Max: 10})
	require.NoError(t, err)

	c1, c2 := schema.Spec(0).CrossValues(rng, 2, 8)
	assert.InDelta(t, 5.0, c1, 1e-12)
	assert.InDelta(t, 5.0, c2, 1e-12)
}

func TestCrossBlendWeighted(t *testing.T) {
	rng := testRNG()
	schema, err := NewSchema(GeneSpec{
		Name: "x", Kind: KindFloat, Min: 0, Max: 10, BlendWeight: 0.75,
	})
	require.NoError(t, err)

	c1, c2 := schema.Spec(0).CrossValues(rng, 0, 8)
	assert.InDelta(t, 2.0, c1, 1e-12)
	assert.InDelta(t, 6.0, c2, 1e-12)
}

func TestCrossExchangeSwapsValues(t *testing.T) {
	rng := testRNG()
	schema, err := NewSchema(GeneSpec{
		Name: "x", Kind: KindFloat, Min: 0, Max: 10, Crossover: CrossExchange,
	})
	require.NoError(t, err)

	c1, c2 := schema.Spec(0).CrossValues(rng, 2, 8)
	assert.ElementsMatch(t, []float64{2, 8}, []float64{c1, c2})
}

func TestCrossMaxOrdersValues(t *testing.T) {
	rng := testRNG()
	schema, err := NewSchema(GeneSpec{
		Name: "x", Kind: KindInt, Min: 0, Max: 10, Crossover: CrossMax,
	})
	require.NoError(t, err)

	c1, c2 := schema.Spec(0).CrossValues(rng, 3, 7)
	assert.Equal(t, 7.0, c1)
	assert.Equal(t, 3.0, c2)
}

func TestCrossRandRangeStaysInSpan(t *testing.T) {
	rng := testRNG()
	schema, err := NewSchema(GeneSpec{
		Name: "x", Kind: KindFloat, Min: 0, Max: 100, Crossover: CrossRandRange,
	})
	require.NoError(t, err)

	spec := schema.Spec(0)
	for trial := 0; trial < 200; trial++ {
		c1, c2 := spec.CrossValues(rng, 30, 60)
		assert.GreaterOrEqual(t, c1, 30.0)
		assert.LessOrEqual(t, c1, 60.0)
		assert.GreaterOrEqual(t, c2, 30.0)
		assert.LessOrEqual(t, c2, 60.0)
	}
}

func TestFormatByKind(t *testing.T) {
	schema, err := NewSchema(
		GeneSpec{Name: "f", Kind: KindFloat, Min: 0, Max: 10},
		GeneSpec{Name: "i", Kind: KindInt, Min: 0, Max: 10},
		GeneSpec{Name: "b", Kind: KindBool},
		GeneSpec{Name: "d", Kind: KindDiscrete, Alleles: []string{"low", "high"}},
	)
	require.NoError(t, err)

	assert.Equal(t, "2.5", schema.Spec(0).Format(2.5))
	assert.Equal(t, "7", schema.Spec(1).Format(7))
	assert.Equal(t, "true", schema.Spec(2).Format(1))
	assert.Equal(t, "high", schema.Spec(3).Format(1))
}
