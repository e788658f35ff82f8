package validation

import (
	"errors"
	"fmt"
)

// Rule configuration errors. Validation itself never returns errors; these
// only surface while building a Validator.
var (
	// ErrInvalidPattern is returned when a field pattern is not a valid regular expression.
	ErrInvalidPattern = errors.New("invalid field pattern")

	// ErrInvalidZone is returned when an expected zone range is reversed or outside [0, 1].
	ErrInvalidZone = errors.New("invalid expected zone")

	// ErrInvalidThreshold is returned when a confidence or overlap threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrRulesFile is returned when a rules file cannot be read or decoded.
	ErrRulesFile = errors.New("unreadable rules file")
)

// RulesError wraps a rule configuration failure with the offending key.
type RulesError struct {
	// Op is the operation that failed (e.g., "New", "LoadRules").
	Op string

	// Key names the field or setting that was rejected.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RulesError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("validation: %s failed for %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("validation: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RulesError) Unwrap() error {
	return e.Err
}

func newRulesError(op, key string, sentinel error, cause error) *RulesError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %v", sentinel, cause)
	}
	return &RulesError{Op: op, Key: key, Err: err}
}
