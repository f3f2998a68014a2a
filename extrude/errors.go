package extrude

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is wrapped by every error reporting a
// parameter that makes extrusion or path planning impossible.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError describes a single bad parameter.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s = %g: %s", ErrInvalidConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Positive returns a *ConfigError if v is not strictly positive.
func Positive(field string, v float64) error {
	if v > 0 {
		return nil
	}
	return &ConfigError{Field: field, Value: v, Reason: "must be positive"}
}
