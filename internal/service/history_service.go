package service

import (
	"context"
	"encoding/json"
	"fmt"

	"prediction-service/internal/crypto"
	"prediction-service/internal/models"
	"prediction-service/internal/repository"
)

// HistoryEntry is a stored prediction with its features decoded.
// Features is nil when the row is encrypted and no key is configured.
type HistoryEntry struct {
	models.PredictionRecord
	Features models.FeatureSet `json:"features,omitempty"`
}

// HistoryService reads prediction history.
type HistoryService struct {
	repo repository.PredictionRepository
	key  []byte
}

func NewHistoryService(repo repository.PredictionRepository, key []byte) *HistoryService {
	return &HistoryService{repo: repo, key: key}
}

// List returns summaries without feature values.
func (h *HistoryService) List(ctx context.Context, limit, offset int) ([]models.PredictionRecord, error) {
	return h.repo.List(ctx, limit, offset)
}

func (h *HistoryService) Stats(ctx context.Context) (*models.PredictionStats, error) {
	return h.repo.Stats(ctx)
}

// Get returns one record with its features decrypted when possible.
func (h *HistoryService) Get(ctx context.Context, id int64) (*HistoryEntry, error) {
	rec, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := &HistoryEntry{PredictionRecord: *rec}
	payload := []byte(rec.Features)
	if rec.Encrypted {
		if h.key == nil {
			return entry, nil
		}
		payload, err = crypto.Decrypt(rec.Features, h.key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt features of prediction %d: %w", id, err)
		}
	}

	if err := json.Unmarshal(payload, &entry.Features); err != nil {
		return nil, fmt.Errorf("failed to decode features of prediction %d: %w", id, err)
	}
	return entry, nil
}
