package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureSetJSONKeepsOrder(t *testing.T) {
	raw := `{"texture_mean": 19, "radius_mean": 14.5, "area_mean": 650}`

	var fs FeatureSet
	require.NoError(t, json.Unmarshal([]byte(raw), &fs))
	require.Len(t, fs, 3)
	assert.Equal(t, "texture_mean", fs[0].Name)
	assert.Equal(t, "radius_mean", fs[1].Name)
	assert.Equal(t, 14.5, fs[1].Value)

	out, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
	assert.Equal(t, `{"texture_mean":19,"radius_mean":14.5,"area_mean":650}`, string(out))
}

func TestFeatureSetUnmarshalRejectsNonNumbers(t *testing.T) {
	var fs FeatureSet
	assert.Error(t, json.Unmarshal([]byte(`{"radius_mean": "14"}`), &fs))
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &fs))
}

func TestFeatureSetWithLeavesOthersUntouched(t *testing.T) {
	base := CompactFeatures.Defaults()
	updated := base.With("area_mean", 1200)

	require.Len(t, updated, len(base))
	for i := range base {
		if base[i].Name == "area_mean" {
			assert.Equal(t, 650.0, base[i].Value, "original must not change")
			assert.Equal(t, 1200.0, updated[i].Value)
			continue
		}
		assert.Equal(t, math.Float64bits(base[i].Value), math.Float64bits(updated[i].Value), base[i].Name)
	}
}

func TestFeatureSetValidate(t *testing.T) {
	fs := CompactFeatures.Defaults()
	require.NoError(t, fs.Validate(CompactFeatures, true))

	assert.ErrorIs(t, fs.With("bogus", 1).Validate(CompactFeatures, false), ErrUnknownFeature)
	assert.ErrorIs(t, fs[1:].Validate(CompactFeatures, false), ErrMissingFeature)
	assert.ErrorIs(t, fs.With("radius_mean", math.NaN()).Validate(CompactFeatures, false), ErrNotFinite)

	wide := fs.With("radius_mean", 99)
	assert.NoError(t, wide.Validate(CompactFeatures, false))
	assert.ErrorIs(t, wide.Validate(CompactFeatures, true), ErrOutOfRange)
}

func TestCatalogs(t *testing.T) {
	assert.Len(t, CompactFeatures, 10)
	assert.Len(t, FullFeatures, 30)

	for _, s := range CompactFeatures {
		full, ok := FullFeatures.Lookup(s.Key)
		require.True(t, ok, s.Key)
		assert.Equal(t, s.Default, full.Default, s.Key)
		assert.True(t, s.InRange(s.Default), s.Key)
	}
	for _, s := range FullFeatures {
		assert.True(t, s.InRange(s.Default), s.Key)
	}

	c, err := CatalogFor("")
	require.NoError(t, err)
	assert.Equal(t, CompactFeatures, c)
	_, err = CatalogFor("huge")
	assert.Error(t, err)
}

func TestFeatureLabel(t *testing.T) {
	assert.Equal(t, "Concave Points Mean", FeatureLabel("concave_points_mean"))
	assert.Equal(t, "Fractal Dimension Se", FeatureLabel("fractal_dimension_se"))
}

func TestParseLabel(t *testing.T) {
	l, err := ParseLabel("malignant")
	require.NoError(t, err)
	assert.Equal(t, Malignant, l)

	_, err = ParseLabel("UNKNOWN")
	assert.Error(t, err)
}
