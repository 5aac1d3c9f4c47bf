package solver

import "github.com/voltlab/battsim/internal/params"

// Profile supplies the applied current in amps over time. Positive current
// discharges the cell.
type Profile interface {
	Current(t float64) float64
}

// Constant is a fixed applied current.
type Constant float64

func (c Constant) Current(t float64) float64 { return float64(c) }

// CRate converts a C-rate to a constant current profile for the given
// parameter set.
func CRate(p *params.Values, rate float64) Profile {
	return Constant(p.CRateCurrent(rate))
}

// Rest is zero applied current.
func Rest() Profile { return Constant(0) }

// FuncProfile adapts an arbitrary function of time.
type FuncProfile func(t float64) float64

func (f FuncProfile) Current(t float64) float64 { return f(t) }

// Phase is one segment of a piecewise-constant profile.
type Phase struct {
	Until   float64 // end time of this phase, s
	Current float64 // A
}

// Steps is a piecewise-constant profile; the last phase extends forever.
type Steps []Phase

func (s Steps) Current(t float64) float64 {
	for _, ph := range s {
		if t < ph.Until {
			return ph.Current
		}
	}
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Current
}
