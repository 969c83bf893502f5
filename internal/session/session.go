// Package session models the welcome -> form -> result workflow of one user.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"prediction-service/internal/form"
	"prediction-service/internal/models"
)

// Screen is the step of the workflow a session is on.
type Screen string

const (
	ScreenWelcome Screen = "welcome"
	ScreenForm    Screen = "form"
	ScreenResult  Screen = "result"
)

var (
	ErrBusy              = errors.New("a prediction is already in progress")
	ErrInvalidTransition = errors.New("invalid screen transition")
)

// Predictor runs one prediction for a submitted snapshot.
type Predictor interface {
	Predict(ctx context.Context, fs models.FeatureSet) (*models.PredictionResult, error)
}

// Session owns the form and the latest result of one user. At most one
// prediction is in flight per session.
type Session struct {
	ID string

	mu         sync.Mutex
	catalog    models.Catalog
	strict     bool
	screen     Screen
	form       *form.Form
	busy       bool
	generation uint64
	result     *models.PredictionResult
	lastError  string
	updatedAt  time.Time
}

// New creates a session on the welcome screen.
func New(id string, catalog models.Catalog, strict bool) *Session {
	return &Session{
		ID:        id,
		catalog:   catalog,
		strict:    strict,
		screen:    ScreenWelcome,
		updatedAt: time.Now(),
	}
}

// View is a read-only snapshot of a session.
type View struct {
	ID        string                   `json:"id"`
	Screen    Screen                   `json:"screen"`
	Busy      bool                     `json:"busy"`
	Features  models.FeatureSet        `json:"features,omitempty"`
	Result    *models.PredictionResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.ID,
		Screen:    s.screen,
		Busy:      s.busy,
		Result:    s.result,
		Error:     s.lastError,
		UpdatedAt: s.updatedAt,
	}
	if s.form != nil {
		v.Features = s.form.Snapshot()
	}
	return v
}

// Screen returns the current screen.
func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Start moves from the welcome screen to a freshly seeded form.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != ScreenWelcome {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.screen)
	}
	s.form = form.New(s.catalog, s.strict)
	s.screen = ScreenForm
	s.lastError = ""
	s.touch()
	return nil
}

// Update parses raw into key, as typed into a numeric input.
func (s *Session) Update(key, raw string) error {
	return s.edit(func(f *form.Form) error { return f.SetString(key, raw) })
}

// Set stores a value coming from a slider.
func (s *Session) Set(key string, value float64) error {
	return s.edit(func(f *form.Form) error { return f.Set(key, value) })
}

func (s *Session) edit(fn func(*form.Form) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != ScreenForm {
		return fmt.Errorf("%w: edit on %s", ErrInvalidTransition, s.screen)
	}
	if err := fn(s.form); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Submit snapshots the form and runs p. On success the session moves to the
// result screen; on failure it stays on the form with the error recorded.
// A second Submit while the first is pending returns ErrBusy.
func (s *Session) Submit(ctx context.Context, p Predictor) (*models.PredictionResult, error) {
	s.mu.Lock()
	if s.screen != ScreenForm {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.screen)
	}
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.lastError = ""
	gen := s.generation
	snapshot := s.form.Snapshot()
	s.mu.Unlock()

	result, err := p.Predict(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// reset while the request was in flight; the busy flag now belongs
		// to the newer generation
		return nil, fmt.Errorf("%w: session was reset", ErrInvalidTransition)
	}
	s.busy = false
	s.touch()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}
	s.result = result
	s.screen = ScreenResult
	return result, nil
}

// Reset discards the form and result and returns to the welcome screen.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen = ScreenWelcome
	s.form = nil
	s.result = nil
	s.lastError = ""
	s.busy = false
	s.generation++
	s.touch()
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}
