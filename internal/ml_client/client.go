package ml_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"prediction-service/internal/models"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

var (
	ErrTransport         = errors.New("prediction service unreachable")
	ErrMalformedResponse = errors.New("malformed prediction response")
)

// StatusError is returned when the prediction service answers with a
// non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("prediction service returned status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("prediction service returned status %d: %s", e.StatusCode, body)
}

// Client is a client for the remote prediction endpoint
type Client struct {
	endpoint   string
	healthURL  string
	httpClient *http.Client
}

// NewClient creates a client that POSTs feature sets to endpoint.
// A zero timeout leaves the transport defaults in place.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:  endpoint,
		healthURL: siblingURL(endpoint, "health"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the configured prediction URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict sends one prediction request. It never retries.
func (c *Client) Predict(ctx context.Context, features models.FeatureSet) (*models.PredictionResult, error) {
	jsonData, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return NormalizeResponse(body)
}

// HealthCheck checks the service's /health path next to the prediction endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// NormalizeResponse maps a prediction service body onto a PredictionResult.
//
// Recognized fields: prediction (default BENIGN), accuracy (default 98.3),
// confidence (else probability*100, else 85), risk_score (else
// probability*100, else 0) and an optional insights array of
// {feature, value[, impact]}. A field counts as absent when missing or null.
func NormalizeResponse(body []byte) (*models.PredictionResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}

	result := &models.PredictionResult{
		Prediction: models.Benign,
		Accuracy:   models.DefaultAccuracy,
		Confidence: models.DefaultConfidence,
		RiskScore:  models.DefaultRiskScore,
		Mode:       models.ModeRemote,
	}

	if p := root.Get("prediction"); present(p) {
		if p.Type != gjson.String {
			return nil, fmt.Errorf("%w: prediction must be a string", ErrMalformedResponse)
		}
		if p.String() != "" {
			label, err := models.ParseLabel(p.String())
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
			result.Prediction = label
		}
	}

	probability, hasProbability, err := number(root, "probability")
	if err != nil {
		return nil, err
	}

	if v, ok, err := number(root, "accuracy"); err != nil {
		return nil, err
	} else if ok {
		result.Accuracy = v
	}

	if v, ok, err := number(root, "confidence"); err != nil {
		return nil, err
	} else if ok {
		result.Confidence = v
	} else if hasProbability {
		result.Confidence = probability * 100
	}

	if v, ok, err := number(root, "risk_score"); err != nil {
		return nil, err
	} else if ok {
		result.RiskScore = v
	} else if hasProbability {
		result.RiskScore = probability * 100
	}

	if ins := root.Get("insights"); present(ins) {
		insights, err := parseInsights(ins)
		if err != nil {
			return nil, err
		}
		result.Insights = insights
	}

	return result, nil
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func number(root gjson.Result, key string) (float64, bool, error) {
	r := root.Get(key)
	if !present(r) {
		return 0, false, nil
	}
	if r.Type != gjson.Number {
		return 0, false, fmt.Errorf("%w: %s must be a number", ErrMalformedResponse, key)
	}
	return r.Float(), true, nil
}

func parseInsights(arr gjson.Result) ([]models.Insight, error) {
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: insights must be an array", ErrMalformedResponse)
	}
	var out []models.Insight
	for i, item := range arr.Array() {
		feature := item.Get("feature")
		value := item.Get("value")
		if feature.Type != gjson.String || value.Type != gjson.Number {
			return nil, fmt.Errorf("%w: insights[%d] needs feature and value", ErrMalformedResponse, i)
		}
		impact := models.ImpactOf(value.Float())
		switch models.Impact(item.Get("impact").String()) {
		case models.ImpactPositive:
			impact = models.ImpactPositive
		case models.ImpactNegative:
			impact = models.ImpactNegative
		}
		out = append(out, models.Insight{
			Feature: feature.String(),
			Label:   models.FeatureLabel(feature.String()),
			Impact:  impact,
			Value:   value.Float(),
		})
	}
	return out, nil
}

// siblingURL replaces the last path segment of raw with name:
// https://host/predict -> https://host/health.
func siblingURL(raw, name string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	dir := path.Dir(u.Path)
	if dir == "." {
		dir = "/"
	}
	u.Path = path.Join(dir, name)
	u.RawQuery = ""
	return u.String()
}
