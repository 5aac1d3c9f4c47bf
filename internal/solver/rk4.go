package solver

import "github.com/voltlab/battsim/internal/cell"

// RK4 is the classic fourth-order Runge-Kutta method with reused scratch
// buffers.
type RK4 struct {
	k1, k2, k3, k4 cell.State
	scratch        cell.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(cell.State, n)
		r.k2 = make(cell.State, n)
		r.k3 = make(cell.State, n)
		r.k4 = make(cell.State, n)
		r.scratch = make(cell.State, n)
	}
}

func (r *RK4) Step(f Func, t float64, y cell.State, dt float64) (cell.State, error) {
	n := len(y)
	r.ensureScratch(n)

	k1, err := f(t, y)
	if err != nil {
		return nil, err
	}
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + dt*0.5*r.k1[i]
	}
	k2, err := f(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + dt*0.5*r.k2[i]
	}
	k3, err := f(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + dt*r.k3[i]
	}
	k4, err := f(t+dt, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k4, k4)

	result := make(cell.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = y[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return result, nil
}
