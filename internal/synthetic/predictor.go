// Package synthetic implements the client-side fallback classifier used when
// no prediction service is configured. It is a threshold heuristic, not a model.
package synthetic

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"prediction-service/internal/models"
)

// Window is how many leading features the heuristic inspects.
const Window = 5

const (
	MinConfidence = 75.0
	MaxConfidence = 95.0
)

// Rule marks a feature as risk-indicating when its key contains Contains and
// its value exceeds Threshold.
type Rule struct {
	Contains  string  `yaml:"contains" json:"contains"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// DefaultRules are the stock thresholds.
var DefaultRules = []Rule{
	{Contains: "radius", Threshold: 15},
	{Contains: "area", Threshold: 1000},
	{Contains: "perimeter", Threshold: 100},
	{Contains: "concave", Threshold: 0.1},
}

// Predictor classifies a FeatureSet with DefaultRules or a configured rule set.
type Predictor struct {
	rules []Rule

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a predictor. A nil src seeds from the clock; tests pass a fixed source.
func New(rules []Rule, src rand.Source) *Predictor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		normalized[i] = Rule{Contains: strings.ToLower(r.Contains), Threshold: r.Threshold}
	}
	return &Predictor{
		rules: normalized,
		rng:   rand.New(src),
	}
}

// IsRiskIndicator reports whether any rule whose substring matches the key
// (case-insensitively) is exceeded.
func (p *Predictor) IsRiskIndicator(f models.Feature) bool {
	name := strings.ToLower(f.Name)
	for _, r := range p.rules {
		if strings.Contains(name, r.Contains) && f.Value > r.Threshold {
			return true
		}
	}
	return false
}

// RiskFraction is the number of risk-indicating features among the first
// Window entries, divided by Window.
func (p *Predictor) RiskFraction(fs models.FeatureSet) float64 {
	count := 0
	for _, f := range fs.First(Window) {
		if p.IsRiskIndicator(f) {
			count++
		}
	}
	return float64(count) / Window
}

// Predict returns MALIGNANT iff the risk fraction exceeds one half.
func (p *Predictor) Predict(ctx context.Context, fs models.FeatureSet) (*models.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fraction := p.RiskFraction(fs)
	label := models.Benign
	if fraction > 0.5 {
		label = models.Malignant
	}

	return &models.PredictionResult{
		Prediction: label,
		Accuracy:   models.DefaultAccuracy,
		Confidence: p.confidence(),
		RiskScore:  fraction * 100,
		Mode:       models.ModeSynthetic,
	}, nil
}

func (p *Predictor) confidence() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return MinConfidence + p.rng.Float64()*(MaxConfidence-MinConfidence)
}
