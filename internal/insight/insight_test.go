package insight

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prediction-service/internal/models"
)

func TestDeviationGenerator(t *testing.T) {
	g := NewDeviationGenerator(models.CompactFeatures)
	fs := models.CompactFeatures.Defaults().
		With("radius_mean", 26).     // (26-14)/24 = 0.5
		With("texture_mean", 9).     // (9-19)/31
		With("perimeter_mean", 900). // clamped
		With("radius_worst", 36)     // outside the first five

	got := g.Generate(fs)
	require.Len(t, got, Count)

	assert.Equal(t, "radius_mean", got[0].Feature)
	assert.Equal(t, "Radius Mean", got[0].Label)
	assert.InDelta(t, 0.5, got[0].Value, 1e-9)
	assert.Equal(t, models.ImpactPositive, got[0].Impact)

	assert.InDelta(t, -10.0/31.0, got[1].Value, 1e-9)
	assert.Equal(t, models.ImpactNegative, got[1].Impact)

	assert.Equal(t, 1.0, got[2].Value)
	assert.Equal(t, 0.0, got[3].Value)
	assert.Equal(t, "smoothness_mean", got[4].Feature)
}

func TestDeviationGeneratorIsDeterministic(t *testing.T) {
	g := NewDeviationGenerator(models.FullFeatures)
	fs := models.FullFeatures.Defaults().With("area_mean", 1500)
	assert.Equal(t, g.Generate(fs), g.Generate(fs))
}

func TestDeviationGeneratorShortSet(t *testing.T) {
	g := NewDeviationGenerator(models.CompactFeatures)
	got := g.Generate(models.FeatureSet{{Name: "unknown", Value: 3}})
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Value)
}

func TestRandomGenerator(t *testing.T) {
	g := NewRandomGenerator(rand.NewPCG(7, 7))
	got := g.Generate(models.CompactFeatures.Defaults())
	require.Len(t, got, Count)
	for _, in := range got {
		assert.GreaterOrEqual(t, in.Value, -1.0)
		assert.Less(t, in.Value, 1.0)
		assert.Equal(t, models.ImpactOf(in.Value), in.Impact)
	}

	again := NewRandomGenerator(rand.NewPCG(7, 7)).Generate(models.CompactFeatures.Defaults())
	assert.Equal(t, got, again, "same seed, same output")
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator("", models.CompactFeatures)
	require.NoError(t, err)
	assert.IsType(t, &DeviationGenerator{}, g)

	g, err = NewGenerator(KindRandom, models.CompactFeatures)
	require.NoError(t, err)
	assert.IsType(t, &RandomGenerator{}, g)

	_, err = NewGenerator("shap", models.CompactFeatures)
	assert.Error(t, err)
}
