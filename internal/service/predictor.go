package service

import (
	"context"
	"fmt"
	"time"

	"prediction-service/internal/ml_client"
	"prediction-service/internal/models"
	"prediction-service/internal/synthetic"
)

// Predictor produces a PredictionResult for a FeatureSet.
// *ml_client.Client and *synthetic.Predictor both satisfy it.
type Predictor interface {
	Predict(ctx context.Context, fs models.FeatureSet) (*models.PredictionResult, error)
}

const (
	ModeAuto      = "auto"
	ModeRemote    = string(models.ModeRemote)
	ModeSynthetic = string(models.ModeSynthetic)
)

// SelectPredictor builds the predictor for a configured mode. "auto" uses the
// remote endpoint when one is set and the synthetic heuristic otherwise.
func SelectPredictor(mode, endpoint string, timeout time.Duration, rules []synthetic.Rule) (Predictor, models.Mode, error) {
	switch mode {
	case ModeAuto, "":
		if endpoint == "" {
			return synthetic.New(rules, nil), models.ModeSynthetic, nil
		}
		return ml_client.NewClient(endpoint, timeout), models.ModeRemote, nil
	case ModeRemote:
		if endpoint == "" {
			return nil, "", fmt.Errorf("remote mode requires a prediction endpoint")
		}
		return ml_client.NewClient(endpoint, timeout), models.ModeRemote, nil
	case ModeSynthetic:
		return synthetic.New(rules, nil), models.ModeSynthetic, nil
	default:
		return nil, "", fmt.Errorf("unknown prediction mode %q", mode)
	}
}
