package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// Model is a battery model assembled from interchangeable submodels keyed
// by domain name. The Submodels map may be edited freely before Build;
// after a swap, call Rebuild.
type Model struct {
	name string

	// Options records the submodel selections the constructor was given.
	Options Options

	// Submodels is the swappable component mapping. Build reads it once;
	// later edits take effect only through Rebuild.
	Submodels map[string]cell.Submodel

	layout *cell.Layout
	reg    *cell.Registry
	rhs    map[string]cell.RHSFunc
	events []cell.Event
	built  bool
}

// BuildError reports submodels whose variable dependencies could not be
// resolved after the fixed-point pass stalled.
type BuildError struct {
	// Missing maps submodel keys to the variables they are waiting for.
	Missing map[string][]string
}

func (e *BuildError) Error() string {
	keys := make([]string, 0, len(e.Missing))
	for k := range e.Missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("battsim: model build stalled; unresolved variables:")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s->%v", k, e.Missing[k])
	}
	return b.String()
}

func (m *Model) Name() string { return m.name }

// Built reports whether the model has a resolved equation set.
func (m *Model) Built() bool { return m.built }

// Build resolves inter-submodel variable dependencies and assembles the
// governing equations. Submodels whose Register fails with a missing
// dependency are retried until a fixed point; a pass with no progress
// yields a *BuildError naming every unresolved variable.
func (m *Model) Build() error {
	if m.built {
		return nil
	}
	if len(m.Submodels) == 0 {
		return fmt.Errorf("battsim: model %q has no submodels", m.name)
	}

	keys := make([]string, 0, len(m.Submodels))
	for k := range m.Submodels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	layout := cell.NewLayout()
	for _, k := range keys {
		for _, sv := range m.Submodels[k].States() {
			if err := layout.Add(sv.Name, sv.Size); err != nil {
				return fmt.Errorf("submodel %q: %w", k, err)
			}
		}
	}

	reg := cell.NewRegistry(layout)
	pending := make(map[string]cell.Submodel, len(m.Submodels))
	for k, sm := range m.Submodels {
		pending[k] = sm
	}
	waiting := make(map[string][]string)

	for len(pending) > 0 {
		progress := false
		remaining := make([]string, 0, len(pending))
		for k := range pending {
			remaining = append(remaining, k)
		}
		sort.Strings(remaining)

		for _, k := range remaining {
			err := pending[k].Register(reg)
			if err == nil {
				delete(pending, k)
				delete(waiting, k)
				progress = true
				continue
			}
			if missing, ok := cell.AsMissing(err); ok {
				waiting[k] = append(waiting[k][:0], missing.Variables...)
				continue
			}
			return fmt.Errorf("submodel %q: %w", k, err)
		}

		if !progress {
			return &BuildError{Missing: waiting}
		}
	}

	rhs := make(map[string]cell.RHSFunc)
	var events []cell.Event
	for _, k := range keys {
		sm := m.Submodels[k]
		for name, f := range sm.RHS() {
			if !layout.Has(name) {
				return fmt.Errorf("battsim: submodel %q contributes a derivative for unknown state %q", k, name)
			}
			if _, dup := rhs[name]; dup {
				return fmt.Errorf("battsim: state %q has two governing equations", name)
			}
			rhs[name] = f
		}
		if ep, ok := sm.(cell.EventProvider); ok {
			events = append(events, ep.Events()...)
		}
	}
	for _, name := range layout.Names() {
		if _, ok := rhs[name]; !ok {
			return fmt.Errorf("battsim: state %q has no governing equation", name)
		}
	}

	m.layout = layout
	m.reg = reg
	m.rhs = rhs
	m.events = events
	m.built = true
	return nil
}

// Rebuild discards the resolved equation set and builds again from the
// current submodel map.
func (m *Model) Rebuild() error {
	m.built = false
	m.layout = nil
	m.reg = nil
	m.rhs = nil
	m.events = nil
	return m.Build()
}

func (m *Model) Layout() *cell.Layout {
	return m.layout
}

func (m *Model) Registry() *cell.Registry {
	return m.reg
}

// Dim is the length of the global state vector.
func (m *Model) Dim() int {
	if !m.built {
		return 0
	}
	return m.layout.Total()
}

func (m *Model) Events() []cell.Event {
	return m.events
}

// Variables lists every output variable a solve of this model can report.
func (m *Model) Variables() []string {
	if !m.built {
		return nil
	}
	return m.reg.Names()
}

// InitialState assembles the initial state vector from the submodels'
// initial profiles.
func (m *Model) InitialState(p *params.Values) (cell.State, error) {
	if !m.built {
		return nil, cell.ErrModelNotBuilt
	}
	y := make(cell.State, m.layout.Total())
	for _, sm := range m.Submodels {
		for _, sv := range sm.States() {
			dst, err := m.layout.Slice(y, sv.Name)
			if err != nil {
				return nil, err
			}
			init := sv.Initial(p)
			if len(init) != sv.Size {
				return nil, fmt.Errorf("battsim: initial profile for %q has size %d, want %d", sv.Name, len(init), sv.Size)
			}
			copy(dst, init)
		}
	}
	return y, nil
}

// Eval prepares an evaluation context against this model's registry.
func (m *Model) Eval(p *params.Values, t float64, y cell.State, current float64) *cell.Eval {
	return cell.NewEval(m.reg, p, t, y, current)
}

// Derivative evaluates the assembled right-hand side at e.
func (m *Model) Derivative(e *cell.Eval) (cell.State, error) {
	if !m.built {
		return nil, cell.ErrModelNotBuilt
	}
	dydt := make(cell.State, m.layout.Total())
	for name, f := range m.rhs {
		dst, err := m.layout.Slice(dydt, name)
		if err != nil {
			return nil, err
		}
		d, err := f(e)
		if err != nil {
			return nil, err
		}
		if len(d) != len(dst) {
			return nil, fmt.Errorf("battsim: derivative of %q has size %d, want %d", name, len(d), len(dst))
		}
		copy(dst, d)
	}
	return dydt, nil
}
