package service

import (
	"context"
	"errors"
	"fmt"

	"prediction-service/internal/ml_client"
	"prediction-service/internal/models"
)

// ErrorKind classifies a failed prediction.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindTransport  ErrorKind = "transport"
	KindStatus     ErrorKind = "status"
	KindMalformed  ErrorKind = "malformed"
)

// PredictionError is the single failure signal returned by Predict. Message
// is meant for the person who submitted the form.
type PredictionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PredictionError) Error() string { return e.Message }

func (e *PredictionError) Unwrap() error { return e.Err }

func classify(err error) *PredictionError {
	var statusErr *ml_client.StatusError
	switch {
	case errors.Is(err, models.ErrUnknownFeature),
		errors.Is(err, models.ErrMissingFeature),
		errors.Is(err, models.ErrNotFinite),
		errors.Is(err, models.ErrOutOfRange):
		return &PredictionError{Kind: KindValidation, Message: fmt.Sprintf("invalid input: %v", err), Err: err}
	case errors.As(err, &statusErr):
		return &PredictionError{Kind: KindStatus, Message: "Analysis failed: " + statusErr.Error(), Err: err}
	case errors.Is(err, ml_client.ErrMalformedResponse):
		return &PredictionError{Kind: KindMalformed, Message: "Analysis failed: the prediction service sent an unreadable response", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &PredictionError{Kind: KindTransport, Message: "Analysis failed: the request was cancelled or timed out", Err: err}
	default:
		return &PredictionError{Kind: KindTransport, Message: "Analysis failed: the prediction service is unreachable, please try again or contact support", Err: err}
	}
}
