package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prediction-service/internal/models"
)

func newTestRepo(t *testing.T) PredictionRepository {
	t.Helper()
	logger := zap.NewNop()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, DriverSQLite, logger))
	// running twice is a no-op
	require.NoError(t, Migrate(db, DriverSQLite, logger))

	return NewPredictionRepository(db, logger)
}

func TestSaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &models.PredictionRecord{
		Mode:       models.ModeRemote,
		Prediction: models.Malignant,
		Accuracy:   98.3,
		Confidence: 90,
		RiskScore:  72.5,
		Features:   `{"radius_mean":20}`,
		DurationMs: 120,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Save(ctx, rec))
	require.NotZero(t, rec.ID)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Malignant, got.Prediction)
	assert.Equal(t, models.ModeRemote, got.Mode)
	assert.Equal(t, 72.5, got.RiskScore)
	assert.Equal(t, `{"radius_mean":20}`, got.Features)
	assert.False(t, got.Encrypted)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.GetByID(ctx, rec.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)

	base := time.Now().UTC().Truncate(time.Second)
	for i, label := range []models.Label{models.Benign, models.Malignant, models.Benign} {
		mode := models.ModeRemote
		if i == 2 {
			mode = models.ModeSynthetic
		}
		require.NoError(t, repo.Save(ctx, &models.PredictionRecord{
			Mode:       mode,
			Prediction: label,
			Accuracy:   98.3,
			Confidence: float64(80 + i*5),
			RiskScore:  float64(i * 30),
			Features:   "{}",
			Encrypted:  i == 1,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.Benign, list[0].Prediction, "newest first")
	assert.Equal(t, models.Malignant, list[1].Prediction)
	assert.True(t, list[1].Encrypted)

	rest, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Benign)
	assert.EqualValues(t, 1, stats.Malignant)
	assert.EqualValues(t, 1, stats.SyntheticCount)
	assert.InDelta(t, 85.0, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 30.0, stats.AvgRiskScore, 1e-9)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x", zap.NewNop())
	assert.Error(t, err)
}
