package models

import "time"

// PredictionRecord is one row of prediction history.
// Features holds the submitted FeatureSet as JSON, AES-GCM encrypted and
// base64 encoded when Encrypted is set.
type PredictionRecord struct {
	ID         int64     `db:"id" json:"id"`
	Mode       Mode      `db:"mode" json:"mode"`
	Prediction Label     `db:"prediction" json:"prediction"`
	Accuracy   float64   `db:"accuracy" json:"accuracy"`
	Confidence float64   `db:"confidence" json:"confidence"`
	RiskScore  float64   `db:"risk_score" json:"risk_score"`
	Features   string    `db:"features" json:"-"`
	Encrypted  bool      `db:"encrypted" json:"encrypted"`
	DurationMs int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PredictionStats summarizes the history table.
type PredictionStats struct {
	Total          int64   `db:"total" json:"total"`
	Benign         int64   `db:"benign" json:"benign"`
	Malignant      int64   `db:"malignant" json:"malignant"`
	AvgConfidence  float64 `db:"avg_confidence" json:"avg_confidence"`
	AvgRiskScore   float64 `db:"avg_risk_score" json:"avg_risk_score"`
	SyntheticCount int64   `db:"synthetic" json:"synthetic"`
}
