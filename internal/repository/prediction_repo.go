package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"prediction-service/internal/models"
)

var ErrNotFound = errors.New("prediction not found")

// PredictionRepository stores prediction history.
type PredictionRepository interface {
	Save(ctx context.Context, rec *models.PredictionRecord) error
	GetByID(ctx context.Context, id int64) (*models.PredictionRecord, error)
	List(ctx context.Context, limit, offset int) ([]models.PredictionRecord, error)
	Stats(ctx context.Context) (*models.PredictionStats, error)
}

type predictionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPredictionRepository creates a repository over an opened, migrated database.
func NewPredictionRepository(db *sqlx.DB, logger *zap.Logger) PredictionRepository {
	return &predictionRepository{db: db, logger: logger}
}

const predictionColumns = `id, mode, prediction, accuracy, confidence, risk_score,
	features, encrypted, duration_ms, created_at`

// Save inserts rec and sets its ID.
func (r *predictionRepository) Save(ctx context.Context, rec *models.PredictionRecord) error {
	query := r.db.Rebind(`
		INSERT INTO predictions (
			mode, prediction, accuracy, confidence, risk_score,
			features, encrypted, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		rec.Mode,
		rec.Prediction,
		rec.Accuracy,
		rec.Confidence,
		rec.RiskScore,
		rec.Features,
		rec.Encrypted,
		rec.DurationMs,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

func (r *predictionRepository) GetByID(ctx context.Context, id int64) (*models.PredictionRecord, error) {
	var rec models.PredictionRecord
	query := r.db.Rebind(`SELECT ` + predictionColumns + ` FROM predictions WHERE id = ?`)
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prediction %d: %w", id, err)
	}
	return &rec, nil
}

// List returns records newest first.
func (r *predictionRepository) List(ctx context.Context, limit, offset int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	records := []models.PredictionRecord{}
	query := r.db.Rebind(`SELECT ` + predictionColumns + ` FROM predictions
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &records, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return records, nil
}

func (r *predictionRepository) Stats(ctx context.Context) (*models.PredictionStats, error) {
	var stats models.PredictionStats
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN prediction = 'BENIGN' THEN 1 ELSE 0 END), 0) AS benign,
			COALESCE(SUM(CASE WHEN prediction = 'MALIGNANT' THEN 1 ELSE 0 END), 0) AS malignant,
			COALESCE(AVG(confidence), 0) AS avg_confidence,
			COALESCE(AVG(risk_score), 0) AS avg_risk_score,
			COALESCE(SUM(CASE WHEN mode = 'synthetic' THEN 1 ELSE 0 END), 0) AS synthetic
		FROM predictions`
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		r.logger.Error("Failed to compute prediction stats", zap.Error(err))
		return nil, fmt.Errorf("failed to compute prediction stats: %w", err)
	}
	return &stats, nil
}
