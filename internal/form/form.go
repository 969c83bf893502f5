// Package form holds the values a user is editing before submission.
package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"prediction-service/internal/models"
)

var (
	ErrUnknownFeature = errors.New("unknown feature")
	ErrNotNumeric     = errors.New("value is not a number")
	ErrOutOfRange     = errors.New("value out of range")
)

// Form is the mutable FeatureSet behind the input screen. It is owned by a
// single session and is not safe for concurrent use on its own.
type Form struct {
	catalog models.Catalog
	strict  bool
	values  models.FeatureSet
}

// New creates a form seeded with the catalog defaults. With strict set,
// values outside a feature's [min, max] are rejected.
func New(catalog models.Catalog, strict bool) *Form {
	return &Form{
		catalog: catalog,
		strict:  strict,
		values:  catalog.Defaults(),
	}
}

// Catalog returns the features this form collects.
func (f *Form) Catalog() models.Catalog {
	return f.catalog
}

// Set replaces the value of key only.
func (f *Form) Set(key string, value float64) error {
	spec, ok := f.catalog.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, key)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s", ErrNotNumeric, key)
	}
	if f.strict && !spec.InRange(value) {
		return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRange, key, value, spec.Min, spec.Max)
	}
	f.values = f.values.With(key, value)
	return nil
}

// SetString parses raw as typed into a numeric field. Unparseable input
// leaves the form unchanged.
func (f *Form) SetString(key, raw string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrNotNumeric, key, raw)
	}
	return f.Set(key, v)
}

// Value returns the current value of key.
func (f *Form) Value(key string) (float64, bool) {
	return f.values.Get(key)
}

// Snapshot returns a copy of the current values; later edits do not affect it.
func (f *Form) Snapshot() models.FeatureSet {
	return f.values.Clone()
}

// Reset restores every default.
func (f *Form) Reset() {
	f.values = f.catalog.Defaults()
}
