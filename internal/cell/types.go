package cell

import (
	"math"

	"github.com/voltlab/battsim/internal/params"
)

// State is the global state vector of a built model.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Physical domain names used as keys of a model's submodel map.
const (
	DomainNegative  = "negative electrode"
	DomainSeparator = "separator"
	DomainPositive  = "positive electrode"
	DomainCell      = "cell"
)

// StateVar is one fundamental state variable owned by a submodel.
type StateVar struct {
	Name    string
	Size    int
	Initial func(p *params.Values) []float64
}

// VarFunc computes a named output variable from the evaluation context.
type VarFunc func(e *Eval) ([]float64, error)

// RHSFunc computes the time derivative of one state variable.
type RHSFunc func(e *Eval) ([]float64, error)

// Event is a termination condition. The solve stops when F crosses from
// positive to non-positive.
type Event struct {
	Name string
	F    func(e *Eval) (float64, error)
}

// Submodel is one interchangeable component of a battery model. Submodels
// own fundamental state variables, register output variables against the
// shared registry, and contribute time derivatives for their states.
//
// Register must declare nothing before all its Require calls succeed: the
// build loop retries submodels whose dependencies are not yet available.
type Submodel interface {
	Domain() string
	States() []StateVar
	Register(reg *Registry) error
	RHS() map[string]RHSFunc
}

// EventProvider is implemented by submodels that contribute termination
// events, such as voltage cutoffs.
type EventProvider interface {
	Events() []Event
}
