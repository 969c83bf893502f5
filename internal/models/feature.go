package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrUnknownFeature = errors.New("unknown feature")
	ErrMissingFeature = errors.New("missing feature")
	ErrNotFinite      = errors.New("feature value is not a finite number")
	ErrOutOfRange     = errors.New("feature value out of range")
)

// FeatureSpec describes one input measurement. Min, Max and Step are UI
// bounds; they are only enforced when strict validation is enabled.
type FeatureSpec struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// InRange reports whether v lies within [Min, Max].
func (s FeatureSpec) InRange(v float64) bool {
	return v >= s.Min && v <= s.Max
}

// Catalog is the ordered list of features a form collects.
type Catalog []FeatureSpec

// Lookup returns the FeatureSpec for key.
func (c Catalog) Lookup(key string) (FeatureSpec, bool) {
	for _, s := range c {
		if s.Key == key {
			return s, true
		}
	}
	return FeatureSpec{}, false
}

// Keys returns the catalog keys in order.
func (c Catalog) Keys() []string {
	keys := make([]string, len(c))
	for i, s := range c {
		keys[i] = s.Key
	}
	return keys
}

// Defaults returns a FeatureSet seeded with every default value, in catalog order.
func (c Catalog) Defaults() FeatureSet {
	fs := make(FeatureSet, len(c))
	for i, s := range c {
		fs[i] = Feature{Name: s.Key, Value: s.Default}
	}
	return fs
}

// Feature is a single named measurement.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureSet is an ordered collection of measurements. Order matters: the
// synthetic predictor and insight generators look at the first entries only.
type FeatureSet []Feature

// Get returns the value stored for name.
func (fs FeatureSet) Get(name string) (float64, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Clone returns an independent copy.
func (fs FeatureSet) Clone() FeatureSet {
	if fs == nil {
		return nil
	}
	out := make(FeatureSet, len(fs))
	copy(out, fs)
	return out
}

// With returns a copy of fs where name holds value. Other entries keep their
// values and positions; an absent name is appended.
func (fs FeatureSet) With(name string, value float64) FeatureSet {
	out := fs.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Feature{Name: name, Value: value})
}

// First returns up to n leading entries.
func (fs FeatureSet) First(n int) FeatureSet {
	if n > len(fs) {
		n = len(fs)
	}
	return fs[:n]
}

// Map returns the set as a plain map.
func (fs FeatureSet) Map() map[string]float64 {
	m := make(map[string]float64, len(fs))
	for _, f := range fs {
		m[f.Name] = f.Value
	}
	return m
}

// Validate checks fs against catalog: every key must be known and finite, and
// every catalog key must be present. Ranges are checked only when strict.
func (fs FeatureSet) Validate(catalog Catalog, strict bool) error {
	seen := make(map[string]struct{}, len(fs))
	for _, f := range fs {
		spec, ok := catalog.Lookup(f.Name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFeature, f.Name)
		}
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			return fmt.Errorf("%w: %s", ErrNotFinite, f.Name)
		}
		if strict && !spec.InRange(f.Value) {
			return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRange, f.Name, f.Value, spec.Min, spec.Max)
		}
		seen[f.Name] = struct{}{}
	}
	for _, s := range catalog {
		if _, ok := seen[s.Key]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingFeature, s.Key)
		}
	}
	return nil
}

// MarshalJSON encodes the set as a JSON object, keys in entry order.
func (fs FeatureSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of numbers, keeping document key order.
func (fs *FeatureSet) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("feature set: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return errors.New("feature set: expected a JSON object")
	}

	var out FeatureSet
	var decodeErr error
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			decodeErr = fmt.Errorf("feature set: %s must be a number", key.String())
			return false
		}
		out = out.With(key.String(), value.Float())
		return true
	})
	if decodeErr != nil {
		return decodeErr
	}
	*fs = out
	return nil
}

// FeatureLabel turns a feature key into a display label, e.g.
// "concave_points_mean" -> "Concave Points Mean".
func FeatureLabel(key string) string {
	// Casers carry state, so one is built per call.
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
