package solver

import "github.com/voltlab/battsim/internal/cell"

// Euler is the explicit first-order method. Cheap, and good enough for the
// reservoir model's gentle dynamics.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f Func, t float64, y cell.State, dt float64) (cell.State, error) {
	dy, err := f(t, y)
	if err != nil {
		return nil, err
	}
	result := make(cell.State, len(y))
	for i := range y {
		result[i] = y[i] + dt*dy[i]
	}
	return result, nil
}
