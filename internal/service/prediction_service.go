package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"prediction-service/internal/crypto"
	"prediction-service/internal/insight"
	"prediction-service/internal/models"
	"prediction-service/internal/notifier"
	"prediction-service/internal/repository"
)

const notifyTimeout = 10 * time.Second

// Options configures a PredictionService. Repo, EncryptionKey and Notifier
// are optional.
type Options struct {
	Catalog       models.Catalog
	StrictRanges  bool
	Predictor     Predictor
	Mode          models.Mode
	Insights      insight.Generator
	Repo          repository.PredictionRepository
	EncryptionKey []byte
	Notifier      notifier.Notifier
	Logger        *zap.Logger
}

// PredictionService validates a FeatureSet, runs the configured predictor,
// attaches insights and records the outcome.
type PredictionService struct {
	catalog      models.Catalog
	strictRanges bool
	predictor    Predictor
	mode         models.Mode
	insights     insight.Generator
	repo         repository.PredictionRepository
	key          []byte
	notifier     notifier.Notifier
	logger       *zap.Logger
	now          func() time.Time

	notifications sync.WaitGroup
}

func NewPredictionService(opts Options) *PredictionService {
	s := &PredictionService{
		catalog:      opts.Catalog,
		strictRanges: opts.StrictRanges,
		predictor:    opts.Predictor,
		mode:         opts.Mode,
		insights:     opts.Insights,
		repo:         opts.Repo,
		key:          opts.EncryptionKey,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if s.insights == nil {
		s.insights = insight.NewDeviationGenerator(s.catalog)
	}
	if s.notifier == nil {
		s.notifier = notifier.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Catalog returns the features this service expects.
func (s *PredictionService) Catalog() models.Catalog { return s.catalog }

// Mode returns the predictor in use.
func (s *PredictionService) Mode() models.Mode { return s.mode }

// Predict runs one prediction. Every failure is a *PredictionError and no
// partial result is returned.
func (s *PredictionService) Predict(ctx context.Context, fs models.FeatureSet) (*models.PredictionResult, error) {
	if err := fs.Validate(s.catalog, s.strictRanges); err != nil {
		return nil, classify(err)
	}

	started := s.now()
	result, err := s.predictor.Predict(ctx, fs)
	elapsed := s.now().Sub(started)
	if err != nil {
		perr := classify(err)
		s.logger.Warn("Prediction failed",
			zap.String("mode", string(s.mode)),
			zap.String("kind", string(perr.Kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, perr
	}

	if len(result.Insights) == 0 {
		result.Insights = s.insights.Generate(fs)
	}
	result.PredictedAt = started.UTC()

	s.logger.Info("Prediction completed",
		zap.String("mode", string(result.Mode)),
		zap.String("prediction", string(result.Prediction)),
		zap.Float64("confidence", result.Confidence),
		zap.Float64("risk_score", result.RiskScore),
		zap.Duration("elapsed", elapsed))

	s.record(ctx, fs, result, elapsed)
	if result.IsHighRisk() {
		s.notify(result)
	}

	return result, nil
}

// Wait blocks until pending notifications have been delivered or dropped.
func (s *PredictionService) Wait() {
	s.notifications.Wait()
}

// record stores the outcome. History is best effort and never fails a prediction.
func (s *PredictionService) record(ctx context.Context, fs models.FeatureSet, result *models.PredictionResult, elapsed time.Duration) {
	if s.repo == nil {
		return
	}

	payload, err := json.Marshal(fs)
	if err != nil {
		s.logger.Error("Failed to encode features for history", zap.Error(err))
		return
	}

	rec := &models.PredictionRecord{
		Mode:       result.Mode,
		Prediction: result.Prediction,
		Accuracy:   result.Accuracy,
		Confidence: result.Confidence,
		RiskScore:  result.RiskScore,
		Features:   string(payload),
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  result.PredictedAt,
	}
	if s.key != nil {
		enc, err := crypto.Encrypt(payload, s.key)
		if err != nil {
			s.logger.Error("Failed to encrypt features for history", zap.Error(err))
			return
		}
		rec.Features = enc
		rec.Encrypted = true
	}

	if err := s.repo.Save(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("Failed to save prediction history", zap.Error(err))
		return
	}
	s.logger.Debug("Prediction recorded", zap.Int64("id", rec.ID))
}

func (s *PredictionService) notify(result *models.PredictionResult) {
	snapshot := *result
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, &snapshot); err != nil {
			s.logger.Warn("Failed to send high-risk notification", zap.Error(err))
		}
	}()
}
