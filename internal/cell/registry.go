package cell

import (
	"fmt"
	"sort"

	"github.com/voltlab/battsim/internal/params"
)

// Registry maps variable names to the functions that compute them. State
// variables are registered automatically from the layout; submodels add
// derived variables during the build pass.
type Registry struct {
	layout *Layout
	funcs  map[string]VarFunc
}

func NewRegistry(layout *Layout) *Registry {
	r := &Registry{
		layout: layout,
		funcs:  make(map[string]VarFunc),
	}
	for _, name := range layout.Names() {
		n := name
		r.funcs[n] = func(e *Eval) ([]float64, error) {
			return e.reg.layout.Slice(e.Y, n)
		}
	}
	r.funcs["time"] = func(e *Eval) ([]float64, error) {
		return []float64{e.T}, nil
	}
	r.funcs["current"] = func(e *Eval) ([]float64, error) {
		return []float64{e.Current}, nil
	}
	return r
}

func (r *Registry) Layout() *Layout { return r.layout }

// Declare registers a derived variable. Declaring a name twice is a build
// defect, not a retriable condition.
func (r *Registry) Declare(name string, f VarFunc) error {
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("battsim: variable %q declared twice", name)
	}
	r.funcs[name] = f
	return nil
}

// Require fails with a MissingError naming every dependency that has not
// been registered. Submodels call it before declaring anything so the
// build loop can retry them.
func (r *Registry) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := r.funcs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Variables: missing}
	}
	return nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Names returns every registered variable name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Eval is the context for evaluating variables at one (t, y) point.
// Resolved variables are cached so shared intermediates are computed once
// per evaluation.
type Eval struct {
	T       float64
	Y       State
	Current float64
	P       *params.Values

	reg      *Registry
	cache    map[string][]float64
	visiting map[string]bool
}

// NewEval prepares an evaluation context at time t with state y and
// applied current i (positive on discharge).
func NewEval(reg *Registry, p *params.Values, t float64, y State, i float64) *Eval {
	return &Eval{
		T:        t,
		Y:        y,
		Current:  i,
		P:        p,
		reg:      reg,
		cache:    make(map[string][]float64),
		visiting: make(map[string]bool),
	}
}

// Var resolves a named variable, computing and caching it on first use.
func (e *Eval) Var(name string) ([]float64, error) {
	if v, ok := e.cache[name]; ok {
		return v, nil
	}
	f, ok := e.reg.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	if e.visiting[name] {
		return nil, fmt.Errorf("%w: %q", ErrVariableCycle, name)
	}
	e.visiting[name] = true
	v, err := f(e)
	e.visiting[name] = false
	if err != nil {
		return nil, err
	}
	e.cache[name] = v
	return v, nil
}

// Scalar resolves a size-1 variable.
func (e *Eval) Scalar(name string) (float64, error) {
	v, err := e.Var(name)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("battsim: variable %q has size %d, want scalar", name, len(v))
	}
	return v[0], nil
}
