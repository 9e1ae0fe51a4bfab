package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidParameter indicates a material or element parameter outside its valid range.
	ErrInvalidParameter = errors.New("dynamo: parameter out of valid bounds")

	// ErrNodeOutOfRange indicates an element referencing a node the state does not hold.
	ErrNodeOutOfRange = errors.New("dynamo: node id out of range")

	// ErrLifecycle indicates a lifecycle method called out of order or twice.
	ErrLifecycle = errors.New("dynamo: lifecycle violation")

	// ErrDimensionMismatch indicates mismatched state and body dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrUnknownType indicates a factory lookup for a name nobody registered.
	ErrUnknownType = errors.New("dynamo: unknown type")
)

// AssertionError is raised (as a panic) when a programming or configuration
// error is detected inside the core. It is never recovered there.
type AssertionError struct {
	Err error
	Msg string
}

func (e *AssertionError) Error() string {
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Msg)
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// Assertf panics with an *AssertionError wrapping err when cond is false.
func Assertf(cond bool, err error, format string, args ...any) {
	if cond {
		return
	}
	panic(&AssertionError{Err: err, Msg: fmt.Sprintf(format, args...)})
}

// SimulationError wraps an error with the tick it happened on.
type SimulationError struct {
	Step    int
	Time    float64
	Body    string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) %s: %s", e.Step, e.Time, e.Body, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
