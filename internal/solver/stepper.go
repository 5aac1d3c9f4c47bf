package solver

import "github.com/voltlab/battsim/internal/cell"

// Func is the assembled right-hand side of a built model, dy/dt = f(t, y).
type Func func(t float64, y cell.State) (cell.State, error)

// Stepper advances the state by one fixed step.
type Stepper interface {
	Step(f Func, t float64, y cell.State, dt float64) (cell.State, error)
}

// AdaptiveStepper additionally estimates local error and proposes the next
// step size.
type AdaptiveStepper interface {
	Stepper
	StepAdaptive(f Func, t float64, y cell.State, dt, tol float64) (cell.State, float64, error)
}
