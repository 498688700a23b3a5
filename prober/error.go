package prober

import (
	"errors"
	"fmt"
)

const (
	// InvalidAmount marks a probe amount that is negative or exceeds the
	// hop's aggregate capacity. The session is not corrupted and the caller
	// may retry with a corrected amount.
	InvalidAmount = iota

	// BeliefContradiction marks an interval inversion in the belief state.
	// It indicates a defect in the outcome function or update logic and is
	// never recoverable at the session level.
	BeliefContradiction

	// ConfigurationError marks an unrecognized or inconsistent option,
	// rejected before any probing occurs.
	ConfigurationError
)

// ProbingError carries one of the error codes above.
type ProbingError struct {
	Code        int
	Description string
}

func (e *ProbingError) Error() string {
	return fmt.Sprintf("error code %d : %s", e.Code, e.Description)
}

func newError(code int, format string, args ...interface{}) *ProbingError {
	return &ProbingError{
		Code:        code,
		Description: fmt.Sprintf(format, args...),
	}
}

// ErrorCode extracts the probing error code from err, or -1 if err does not
// carry one.
func ErrorCode(err error) int {
	var pe *ProbingError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return -1
}
