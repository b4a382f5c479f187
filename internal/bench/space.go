package bench

import (
	"fmt"
	"math"
	"sort"
)

// ParamKind distinguishes parameter value types.
type ParamKind string

const (
	KindFloat       ParamKind = "float"
	KindInt         ParamKind = "int"
	KindCategorical ParamKind = "categorical"
)

// Parameter is one dimension of a configuration or fidelity space.
type Parameter struct {
	Name string    `json:"name"`
	Kind ParamKind `json:"kind"`

	// Lower and Upper bound numeric parameters (inclusive).
	Lower float64 `json:"lower,omitempty"`
	Upper float64 `json:"upper,omitempty"`

	// Log marks numeric parameters sampled on a log scale.
	Log bool `json:"log,omitempty"`

	// Choices enumerates categorical values.
	Choices []string `json:"choices,omitempty"`

	// Default is used when a fidelity value is not supplied.
	Default any `json:"default,omitempty"`
}

// Space is an ordered set of parameters.
type Space struct {
	Params []Parameter `json:"params"`
}

// Configuration is a concrete assignment of values to parameters.
// Values arrive as JSON, so numbers are float64 and categoricals string.
type Configuration map[string]any

// ValidationError reports a configuration value the space rejects.
type ValidationError struct {
	Parameter string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Parameter, e.Message)
}

// Lookup returns the parameter with the given name.
func (s *Space) Lookup(name string) (Parameter, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Validate checks cfg against the space: every parameter present, no
// unknown keys, values of the right kind and within bounds.
func (s *Space) Validate(cfg Configuration) error {
	for _, p := range s.Params {
		value, ok := cfg[p.Name]
		if !ok {
			return &ValidationError{Parameter: p.Name, Message: "missing"}
		}
		if err := p.check(value); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := s.Lookup(name); !ok {
			return &ValidationError{Parameter: name, Message: "not in space"}
		}
	}
	return nil
}

// ValidateFidelity checks fidelity against the space and fills missing
// parameters with their defaults (the maximum budget). A nil fidelity
// yields the all-default configuration.
func (s *Space) ValidateFidelity(fidelity Configuration) (Configuration, error) {
	filled := make(Configuration, len(s.Params))
	for _, p := range s.Params {
		value, ok := fidelity[p.Name]
		if !ok {
			filled[p.Name] = p.Default
			continue
		}
		if err := p.check(value); err != nil {
			return nil, err
		}
		filled[p.Name] = value
	}
	for name := range fidelity {
		if _, ok := s.Lookup(name); !ok {
			return nil, &ValidationError{Parameter: name, Message: "not in fidelity space"}
		}
	}
	return filled, nil
}

func (p Parameter) check(value any) error {
	switch p.Kind {
	case KindFloat:
		f, ok := toFloat(value)
		if !ok {
			return &ValidationError{Parameter: p.Name, Message: fmt.Sprintf("want float, got %T", value)}
		}
		if f < p.Lower || f > p.Upper {
			return &ValidationError{
				Parameter: p.Name,
				Message:   fmt.Sprintf("%v outside [%v, %v]", f, p.Lower, p.Upper),
			}
		}
	case KindInt:
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) {
			return &ValidationError{Parameter: p.Name, Message: fmt.Sprintf("want integer, got %v", value)}
		}
		if f < p.Lower || f > p.Upper {
			return &ValidationError{
				Parameter: p.Name,
				Message:   fmt.Sprintf("%v outside [%v, %v]", int(f), int(p.Lower), int(p.Upper)),
			}
		}
	case KindCategorical:
		s, ok := value.(string)
		if !ok {
			return &ValidationError{Parameter: p.Name, Message: fmt.Sprintf("want string, got %T", value)}
		}
		for _, choice := range p.Choices {
			if s == choice {
				return nil
			}
		}
		return &ValidationError{
			Parameter: p.Name,
			Message:   fmt.Sprintf("%q not one of %v", s, p.Choices),
		}
	default:
		return &ValidationError{Parameter: p.Name, Message: fmt.Sprintf("unknown kind %q", p.Kind)}
	}
	return nil
}

// Float returns the named value as a float64. Zero if absent.
func (c Configuration) Float(name string) float64 {
	f, _ := toFloat(c[name])
	return f
}

// Int returns the named value as an int. Zero if absent.
func (c Configuration) Int(name string) int {
	f, _ := toFloat(c[name])
	return int(f)
}

// String returns the named value as a string. Empty if absent.
func (c Configuration) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// toFloat widens the numeric types JSON and Go callers hand us.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
