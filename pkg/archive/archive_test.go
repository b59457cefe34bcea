package archive

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvekit/evolvekit-go/pkg/genome"
	"github.com/evolvekit/evolvekit-go/pkg/organism"
)

func testOrganism(t *testing.T, value float64) *genome.Organism {
	t.Helper()
	schema, err := genome.NewSchema(
		genome.GeneSpec{Name: "x", Kind: genome.KindFloat, Min: 0, Max: 100, Value: &value},
	)
	require.NoError(t, err)
	sp, err := genome.NewSpecies(schema, func(o *genome.Organism) (float64, error) {
		return o.Values()[0], nil
	}, genome.SpeciesConfig{Direction: organism.Maximize})
	require.NoError(t, err)
	return sp.NewRandom(rand.New(rand.NewSource(1))).(*genome.Organism)
}

func TestNewValidation(t *testing.T) {
	_, err := New(organism.Maximize, 0)
	assert.True(t, organism.IsConfig(err))
}

func TestAddKeepsBestFirst(t *testing.T) {
	a, err := New(organism.Maximize, 3)
	require.NoError(t, err)

	for gen, fitness := range []float64{5, 9, 2, 7} {
		a.Add(testOrganism(t, fitness), fitness, gen)
	}

	assert.Equal(t, 3, a.Len())
	entries := a.Entries()
	assert.Equal(t, 9.0, entries[0].Fitness)
	assert.Equal(t, 7.0, entries[1].Fitness)
	assert.Equal(t, 5.0, entries[2].Fitness)

	best, ok := a.Best()
	require.True(t, ok)
	assert.Equal(t, 9.0, best.Fitness)
	assert.Equal(t, 1, best.Generation)
}

func TestAddRejectsWorseThanWorstWhenFull(t *testing.T) {
	a, err := New(organism.Maximize, 2)
	require.NoError(t, err)

	assert.True(t, a.Add(testOrganism(t, 5), 5, 0))
	assert.True(t, a.Add(testOrganism(t, 8), 8, 0))
	assert.False(t, a.Add(testOrganism(t, 3), 3, 1))
	assert.Equal(t, 2, a.Len())
}

func TestMinimizeOrdersAscending(t *testing.T) {
	a, err := New(organism.Minimize, 3)
	require.NoError(t, err)

	for _, fitness := range []float64{5, 1, 3} {
		a.Add(testOrganism(t, fitness), fitness, 0)
	}

	entries := a.Entries()
	assert.Equal(t, 1.0, entries[0].Fitness)
	assert.Equal(t, 3.0, entries[1].Fitness)
	assert.Equal(t, 5.0, entries[2].Fitness)
}

func TestArchiveStoresClones(t *testing.T) {
	a, err := New(organism.Maximize, 1)
	require.NoError(t, err)

	o := testOrganism(t, 5)
	a.Add(o, 5, 0)

	best, ok := a.Best()
	require.True(t, ok)
	assert.NotEqual(t, o.ID(), best.Organism.ID(), "the archive owns its own copy")
}

func TestEmptyArchive(t *testing.T) {
	a, err := New(organism.Maximize, 1)
	require.NoError(t, err)

	_, ok := a.Best()
	assert.False(t, ok)
	assert.Empty(t, a.Entries())
}

func TestMarshalJSON(t *testing.T) {
	a, err := New(organism.Maximize, 2)
	require.NoError(t, err)
	a.Add(testOrganism(t, 4), 4, 7)

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var reports []struct {
		Fitness    float64 `json:"fitness"`
		Generation int     `json:"generation"`
	}
	require.NoError(t, json.Unmarshal(data, &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, 4.0, reports[0].Fitness)
	assert.Equal(t, 7, reports[0].Generation)
}
