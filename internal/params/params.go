// Package params models the analysis parameter set. Each parameter is a
// tagged variant so the form that edits it is driven by kind and bounds
// rather than by its name.
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnknown is returned for parameter names outside the set.
	ErrUnknown = errors.New("unknown parameter")
	// ErrInvalidValue is returned when a value cannot be parsed or is not
	// one of an enum's options.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// Kind discriminates parameter variants.
type Kind int

const (
	Numeric Kind = iota
	Enum
	Text
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Enum:
		return "enum"
	case Text:
		return "text"
	}
	return "unknown"
}

// Bounds constrains a numeric parameter. Step of zero means continuous.
type Bounds struct {
	Min, Max float64
	Step     float64
	Odd      bool
}

// Spec describes one parameter.
type Spec struct {
	Name    string
	Label   string
	Kind    Kind
	Bounds  Bounds
	Options []string
	Default any
}

// Specs returns the analysis parameters in form order.
func Specs() []Spec {
	return []Spec{
		{Name: "scan_size", Label: "Assay scan pixel size", Kind: Enum, Options: []string{"5", "10"}, Default: "5"},
		{Name: "assay", Label: "Assay type", Kind: Enum, Options: []string{"Open Format", "Microfluidic"}, Default: "Open Format"},
		{Name: "cAb_names", Label: "Capture antibody names", Kind: Text, Default: "cAnti-IL-6"},
		{Name: "blur_kernel_size", Label: "Blur kernel size", Kind: Numeric, Bounds: Bounds{Min: 1, Max: 999, Step: 1, Odd: true}, Default: 9.0},
		{Name: "contrast_thr", Label: "Contrast threshold", Kind: Numeric, Bounds: Bounds{Min: 0, Max: 65000, Step: 1}, Default: 550.0},
		{Name: "canny_edge_thr1", Label: "Canny edge threshold 1", Kind: Numeric, Bounds: Bounds{Min: 0, Max: 1000, Step: 0.1}, Default: 30.0},
		{Name: "canny_edge_thr2", Label: "Canny edge threshold 2", Kind: Numeric, Bounds: Bounds{Min: 0, Max: 1000, Step: 0.1}, Default: 20.0},
		{Name: "dp", Label: "Accumulator resolution (dp)", Kind: Numeric, Bounds: Bounds{Min: 0, Max: 1000, Step: 0.1}, Default: 0.7},
		{Name: "param1", Label: "Hough param1", Kind: Numeric, Bounds: Bounds{Min: 0, Max: 1000, Step: 0.1}, Default: 18.0},
		{Name: "param2", Label: "Hough param2", Kind: Numeric, Bounds: Bounds{Min: 0, Max: 1000, Step: 0.1}, Default: 21.0},
		{Name: "minRadius", Label: "Minimum radius", Kind: Numeric, Bounds: Bounds{Min: 1, Max: 100, Step: 1}, Default: 7.0},
		{Name: "maxRadius", Label: "Maximum radius", Kind: Numeric, Bounds: Bounds{Min: 100, Max: 500, Step: 1}, Default: 100.0},
	}
}

// Clamp limits v to b, snaps it to the step grid anchored at Min and, for
// odd-only bounds, moves it down to the nearest odd value.
func (b Bounds) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return b.Min
	}
	v = math.Max(b.Min, math.Min(b.Max, v))
	if b.Step > 0 {
		n := math.Round((v - b.Min) / b.Step)
		v = b.Min + n*b.Step
		// trim binary noise from decimal steps
		v = math.Round(v*1e9) / 1e9
		if v > b.Max {
			v -= b.Step
		}
	}
	if b.Odd {
		i := int64(math.Floor(v))
		if i%2 == 0 {
			i--
		}
		if float64(i) < b.Min {
			i += 2
		}
		v = float64(i)
	}
	return v
}

// Set holds parameter values keyed by name.
type Set struct {
	specs  []Spec
	values map[string]any
}

// New returns a set holding every default.
func New() *Set {
	s := &Set{specs: Specs(), values: make(map[string]any)}
	for _, sp := range s.specs {
		s.values[sp.Name] = sp.Default
	}
	return s
}

// Spec returns the spec for name.
func (s *Set) Spec(name string) (Spec, bool) {
	for _, sp := range s.specs {
		if sp.Name == name {
			return sp, true
		}
	}
	return Spec{}, false
}

// Specs returns the set's specs in form order.
func (s *Set) Specs() []Spec {
	return slices.Clone(s.specs)
}

// Get returns the current value of name.
func (s *Set) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set parses raw according to the parameter's kind and stores it. Numeric
// values are clamped into bounds rather than rejected.
func (s *Set) Set(name, raw string) error {
	sp, ok := s.Spec(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	switch sp.Kind {
	case Numeric:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, name, raw)
		}
		s.values[name] = sp.Bounds.Clamp(f)
	case Enum:
		raw = strings.TrimSpace(raw)
		if !slices.Contains(sp.Options, raw) {
			return fmt.Errorf("%w: %s=%q not in %v", ErrInvalidValue, name, raw, sp.Options)
		}
		s.values[name] = raw
	case Text:
		s.values[name] = raw
	}
	return nil
}

// Assign applies "name=value" pairs in order.
func (s *Set) Assign(pairs ...string) error {
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("%w: expected name=value, got %q", ErrInvalidValue, p)
		}
		if err := s.Set(strings.TrimSpace(name), value); err != nil {
			return err
		}
	}
	return nil
}

// Values returns a copy of the parameter map. This is the opaque mapping
// passed through to submission.
func (s *Set) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the values as a flat object.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// Load reads a JSON object of values. Numbers and strings are accepted for
// any kind and run through Set.
func (s *Set) Load(r io.Reader) error {
	raw := map[string]any{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		var str string
		switch v := raw[k].(type) {
		case string:
			str = v
		case float64:
			str = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fmt.Errorf("%w: %s has type %T", ErrInvalidValue, k, v)
		}
		if err := s.Set(k, str); err != nil {
			return err
		}
	}
	return nil
}
