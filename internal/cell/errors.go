package cell

import (
	"errors"
	"fmt"
)

// Domain errors for model assembly and solving.
var (
	// ErrModelNotBuilt indicates a solve was attempted before Build.
	ErrModelNotBuilt = errors.New("battsim: model has not been built")

	// ErrUnknownVariable indicates a lookup of a variable no submodel registered.
	ErrUnknownVariable = errors.New("battsim: unknown variable")

	// ErrInvalidState indicates NaN or Inf in the state vector.
	ErrInvalidState = errors.New("battsim: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive timestep fell below its minimum.
	ErrStepTooSmall = errors.New("battsim: adaptive timestep below minimum")

	// ErrOptionValue indicates an unrecognized model option value.
	ErrOptionValue = errors.New("battsim: invalid model option")

	// ErrEmptySolution indicates an operation on a solution with no samples.
	ErrEmptySolution = errors.New("battsim: solution is empty")

	// ErrVariableCycle indicates mutually recursive variable definitions.
	ErrVariableCycle = errors.New("battsim: variable dependency cycle")
)

// MissingError is returned by Registry.Require when dependencies have not
// been registered yet. The build loop treats it as "retry later".
type MissingError struct {
	Variables []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("battsim: variables %q not registered", e.Variables)
}

// AsMissing unwraps a MissingError if err is one.
func AsMissing(err error) (*MissingError, bool) {
	var m *MissingError
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}

// SolveError wraps an error with the step at which the solve failed.
type SolveError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("step %d (t=%.4fs): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
