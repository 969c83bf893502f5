package ml_client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prediction-service/internal/models"
)

func TestNormalizeResponseConfidenceOnly(t *testing.T) {
	res, err := NormalizeResponse([]byte(`{"prediction": "MALIGNANT", "confidence": 90}`))
	require.NoError(t, err)

	assert.Equal(t, models.Malignant, res.Prediction)
	assert.Equal(t, 90.0, res.Confidence)
	assert.Equal(t, 98.3, res.Accuracy)
	assert.Equal(t, 0.0, res.RiskScore)
	assert.Equal(t, models.ModeRemote, res.Mode)
}

func TestNormalizeResponseProbabilityOnly(t *testing.T) {
	res, err := NormalizeResponse([]byte(`{"probability": 0.7}`))
	require.NoError(t, err)

	assert.Equal(t, models.Benign, res.Prediction)
	assert.InDelta(t, 70.0, res.Confidence, 1e-9)
	assert.InDelta(t, 70.0, res.RiskScore, 1e-9)
}

func TestNormalizeResponseDefaults(t *testing.T) {
	res, err := NormalizeResponse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, models.Benign, res.Prediction)
	assert.Equal(t, models.DefaultAccuracy, res.Accuracy)
	assert.Equal(t, models.DefaultConfidence, res.Confidence)
	assert.Equal(t, models.DefaultRiskScore, res.RiskScore)
	assert.Empty(t, res.Insights)
}

func TestNormalizeResponseExplicitZeroIsKept(t *testing.T) {
	res, err := NormalizeResponse([]byte(`{"prediction": "benign", "accuracy": 0, "confidence": null, "probability": 0.25}`))
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Accuracy)
	assert.Equal(t, 25.0, res.Confidence)
	assert.Equal(t, 25.0, res.RiskScore)
}

func TestNormalizeResponseInsights(t *testing.T) {
	body := `{"prediction": "MALIGNANT", "insights": [
		{"feature": "radius_mean", "value": 0.42},
		{"feature": "texture_mean", "value": -0.1},
		{"feature": "area_mean", "value": 0.3, "impact": "negative"}
	]}`
	res, err := NormalizeResponse([]byte(body))
	require.NoError(t, err)
	require.Len(t, res.Insights, 3)

	assert.Equal(t, "Radius Mean", res.Insights[0].Label)
	assert.Equal(t, models.ImpactPositive, res.Insights[0].Impact)
	assert.Equal(t, models.ImpactNegative, res.Insights[1].Impact)
	assert.Equal(t, models.ImpactNegative, res.Insights[2].Impact)
}

func TestNormalizeResponseMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `<html>oops</html>`,
		"array":          `[1,2]`,
		"bad label":      `{"prediction": "MAYBE"}`,
		"label type":     `{"prediction": 1}`,
		"number as text": `{"confidence": "90"}`,
		"bad insights":   `{"insights": [{"feature": 3}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeResponse([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestClientPredict(t *testing.T) {
	var gotBody map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction": "MALIGNANT", "probability": 0.91, "accuracy": 97.1}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/predict", 5*time.Second)
	fs := models.CompactFeatures.Defaults()

	res, err := client.Predict(context.Background(), fs)
	require.NoError(t, err)

	assert.Equal(t, fs.Map(), gotBody)
	assert.Equal(t, models.Malignant, res.Prediction)
	assert.Equal(t, 97.1, res.Accuracy)
	assert.InDelta(t, 91.0, res.Confidence, 1e-9)
}

func TestClientPredictNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL+"/predict", time.Second).Predict(context.Background(), models.CompactFeatures.Defaults())
	require.Error(t, err)
	assert.Nil(t, res)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "model not loaded")
	assert.Contains(t, statusErr.Error(), "503")
}

func TestClientPredictTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url+"/predict", time.Second).Predict(context.Background(), models.CompactFeatures.Defaults())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClientPredictDeadlineStaysInChain(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, 0).Predict(ctx, models.CompactFeatures.Defaults())
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientPredictMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("definitely not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Predict(context.Background(), models.CompactFeatures.Defaults())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClientHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL+"/api/predict", time.Second).HealthCheck(context.Background()))

	var statusErr *StatusError
	err := NewClient(srv.URL+"/other/predict", time.Second).HealthCheck(context.Background())
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestSiblingURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com/health", siblingURL("https://api.example.com/predict", "health"))
	assert.Equal(t, "https://api.example.com/v1/health", siblingURL("https://api.example.com/v1/predict?x=1", "health"))
	assert.Equal(t, "https://api.example.com/health", siblingURL("https://api.example.com", "health"))
}
