package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"prediction-service/internal/form"
	"prediction-service/internal/models"
	"prediction-service/internal/repository"
	"prediction-service/internal/service"
	"prediction-service/internal/session"
)

// Handler handles HTTP requests
type Handler struct {
	predictions *service.PredictionService
	history     *service.HistoryService
	sessions    *session.Store
	logger      *zap.Logger
}

// NewHandler creates a new API handler. history may be nil when the
// prediction history is disabled.
func NewHandler(predictions *service.PredictionService, history *service.HistoryService, sessions *session.Store, logger *zap.Logger) *Handler {
	return &Handler{
		predictions: predictions,
		history:     history,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterRoutes registers all API routes. historyAuth guards the history
// endpoints.
func (h *Handler) RegisterRoutes(r *gin.Engine, historyAuth ...gin.HandlerFunc) {
	api := r.Group("/api/v1")
	{
		api.GET("/features", h.GetFeatures)
		api.POST("/predict", h.Predict)

		// Form workflow
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/start", h.StartSession)
		api.PUT("/sessions/:id/features/:key", h.UpdateFeature)
		api.POST("/sessions/:id/submit", h.SubmitSession)
		api.POST("/sessions/:id/reset", h.ResetSession)
	}

	if h.history != nil {
		history := api.Group("/predictions", historyAuth...)
		history.GET("", h.ListPredictions)
		history.GET("/stats", h.GetStats)
		history.GET("/:id", h.GetPrediction)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"mode":     h.predictions.Mode(),
		"sessions": h.sessions.Len(),
		"history":  h.history != nil,
	})
}

// GetFeatures returns the feature catalog the form collects.
func (h *Handler) GetFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": h.predictions.Catalog()})
}

// Predict runs a stateless prediction for a complete FeatureSet.
func (h *Handler) Predict(c *gin.Context) {
	var fs models.FeatureSet
	if err := c.ShouldBindJSON(&fs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.predictions.Predict(c.Request.Context(), fs)
	if err != nil {
		h.writePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateSession opens a session on the welcome screen.
func (h *Handler) CreateSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, sess.View())
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// StartSession moves from the welcome screen to a default-seeded form.
func (h *Handler) StartSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Start(); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// UpdateFeature edits one form field. The body is {"value": <raw>} where raw
// is the text typed into the input; a JSON number is accepted as well.
func (h *Handler) UpdateFeature(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	value := gjson.GetBytes(body, "value")
	if !value.Exists() || (value.Type != gjson.String && value.Type != gjson.Number) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	if err := sess.Update(c.Param("key"), value.String()); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// SubmitSession snapshots the form and runs a prediction.
func (h *Handler) SubmitSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if _, err := sess.Submit(c.Request.Context(), h.predictions); err != nil {
		var perr *service.PredictionError
		if errors.As(err, &perr) {
			h.writePredictionError(c, err)
			return
		}
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// ResetSession returns to the welcome screen and discards any result.
func (h *Handler) ResetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Reset()
	c.JSON(http.StatusOK, sess.View())
}

// ListPredictions returns history summaries, newest first.
func (h *Handler) ListPredictions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.history.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": records,
		"count":       len(records),
	})
}

// GetStats returns aggregate history statistics.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.history.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetPrediction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prediction ID"})
		return
	}

	entry, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
			return
		}
		h.logger.Error("Failed to get prediction", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve prediction"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	sess, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

func (h *Handler) writePredictionError(c *gin.Context, err error) {
	var perr *service.PredictionError
	if !errors.As(err, &perr) {
		h.logger.Error("Unexpected prediction error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	status := http.StatusBadGateway
	if perr.Kind == service.KindValidation {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": perr.Message, "kind": perr.Kind})
}

func (h *Handler) writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, form.ErrUnknownFeature):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, form.ErrNotNumeric), errors.Is(err, form.ErrOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Session operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
