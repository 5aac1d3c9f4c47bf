package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/voltlab/battsim/internal/cell"
)

// BackwardEuler is a first-order implicit method. Each step solves
// y1 = y0 + dt*f(t+dt, y1) by damped Newton iteration with a
// finite-difference Jacobian. Stiff particle diffusion at coarse steps
// stays stable where the explicit steppers blow up.
type BackwardEuler struct {
	MaxIter int
	Tol     float64
}

func NewBackwardEuler() *BackwardEuler {
	return &BackwardEuler{
		MaxIter: 25,
		Tol:     1e-10,
	}
}

func (b *BackwardEuler) Step(f Func, t float64, y cell.State, dt float64) (cell.State, error) {
	n := len(y)
	yNext := y.Clone()

	residual := func(yy cell.State) (cell.State, error) {
		dy, err := f(t+dt, yy)
		if err != nil {
			return nil, err
		}
		g := make(cell.State, n)
		for i := 0; i < n; i++ {
			g[i] = yy[i] - y[i] - dt*dy[i]
		}
		return g, nil
	}

	g, err := residual(yNext)
	if err != nil {
		return nil, err
	}

	for iter := 0; iter < b.MaxIter; iter++ {
		if g.Norm() < b.Tol*float64(n) {
			return yNext, nil
		}

		jac, err := b.jacobian(residual, yNext, g)
		if err != nil {
			return nil, err
		}

		rhs := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			rhs.SetVec(i, -g[i])
		}
		var delta mat.VecDense
		if err := delta.SolveVec(jac, rhs); err != nil {
			return nil, fmt.Errorf("battsim: newton step at t=%.4f: %w", t, err)
		}

		for i := 0; i < n; i++ {
			yNext[i] += delta.AtVec(i)
		}
		g, err = residual(yNext)
		if err != nil {
			return nil, err
		}
	}

	if g.Norm() < math.Sqrt(b.Tol)*float64(n) {
		return yNext, nil
	}
	return nil, fmt.Errorf("battsim: newton iteration did not converge at t=%.4f (residual %.3e)", t, g.Norm())
}

// jacobian builds dG/dy by forward differences, one column per state.
func (b *BackwardEuler) jacobian(residual func(cell.State) (cell.State, error), y, g0 cell.State) (*mat.Dense, error) {
	n := len(y)
	jac := mat.NewDense(n, n, nil)
	yPert := y.Clone()
	for j := 0; j < n; j++ {
		h := 1e-7 * (math.Abs(y[j]) + 1e-7)
		yPert[j] = y[j] + h
		g, err := residual(yPert)
		if err != nil {
			return nil, err
		}
		yPert[j] = y[j]
		for i := 0; i < n; i++ {
			jac.Set(i, j, (g[i]-g0[i])/h)
		}
	}
	return jac, nil
}
