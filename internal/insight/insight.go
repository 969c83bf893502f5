// Package insight produces the per-feature annotations shown next to a
// prediction. Generated insights describe how an input compares with its
// default; they are not model attributions. When the prediction service
// returns its own attributions those are used instead.
package insight

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"prediction-service/internal/models"
)

// Count is how many leading features receive an insight.
const Count = 5

// Generator builds insights for a submitted FeatureSet.
type Generator interface {
	Generate(fs models.FeatureSet) []models.Insight
}

const (
	KindDeviation = "deviation"
	KindRandom    = "random"
)

// NewGenerator resolves a configured generator name.
func NewGenerator(kind string, catalog models.Catalog) (Generator, error) {
	switch kind {
	case KindDeviation, "":
		return NewDeviationGenerator(catalog), nil
	case KindRandom:
		return NewRandomGenerator(nil), nil
	default:
		return nil, fmt.Errorf("unknown insight generator %q", kind)
	}
}

// DeviationGenerator scores each feature by its distance from the catalog
// default, scaled by the feature's range and clamped to [-1, 1].
type DeviationGenerator struct {
	catalog models.Catalog
}

func NewDeviationGenerator(catalog models.Catalog) *DeviationGenerator {
	return &DeviationGenerator{catalog: catalog}
}

func (g *DeviationGenerator) Generate(fs models.FeatureSet) []models.Insight {
	out := make([]models.Insight, 0, Count)
	for _, f := range fs.First(Count) {
		v := 0.0
		if spec, ok := g.catalog.Lookup(f.Name); ok && spec.Max > spec.Min {
			v = (f.Value - spec.Default) / (spec.Max - spec.Min)
		}
		v = math.Max(-1, math.Min(1, v))
		out = append(out, newInsight(f.Name, v))
	}
	return out
}

// RandomGenerator assigns a random direction and a value in [-1, 1). It only
// exists to reproduce the legacy placeholder output.
type RandomGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomGenerator uses src, or a clock-seeded source when src is nil.
func NewRandomGenerator(src rand.Source) *RandomGenerator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &RandomGenerator{rng: rand.New(src)}
}

func (g *RandomGenerator) Generate(fs models.FeatureSet) []models.Insight {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]models.Insight, 0, Count)
	for _, f := range fs.First(Count) {
		out = append(out, newInsight(f.Name, g.rng.Float64()*2-1))
	}
	return out
}

func newInsight(key string, v float64) models.Insight {
	return models.Insight{
		Feature: key,
		Label:   models.FeatureLabel(key),
		Impact:  models.ImpactOf(v),
		Value:   v,
	}
}
