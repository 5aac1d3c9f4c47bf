package sim

import (
	"fmt"
	"sort"

	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/solver"
)

// Registry maps CLI-facing names to model constructors and steppers.
type Registry struct {
	models   map[string]func(opts ...model.Option) (*model.Model, error)
	steppers map[string]func() solver.Stepper
}

func NewRegistry() *Registry {
	r := &Registry{
		models:   make(map[string]func(opts ...model.Option) (*model.Model, error)),
		steppers: make(map[string]func() solver.Stepper),
	}

	r.models["spm"] = model.NewSPM
	r.models["spme"] = model.NewSPMe
	r.models["reservoir"] = model.NewReservoir

	r.steppers["euler"] = func() solver.Stepper { return solver.NewEuler() }
	r.steppers["rk4"] = func() solver.Stepper { return solver.NewRK4() }
	r.steppers["rk45"] = func() solver.Stepper { return solver.NewRK45() }
	r.steppers["backward-euler"] = func() solver.Stepper { return solver.NewBackwardEuler() }

	return r
}

func (r *Registry) Model(name string, opts ...model.Option) (*model.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("battsim: unknown model %q (available: %v)", name, r.ListModels())
	}
	return fn(opts...)
}

func (r *Registry) Stepper(name string) (solver.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("battsim: unknown stepper %q (available: %v)", name, r.ListSteppers())
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSteppers() []string {
	names := make([]string, 0, len(r.steppers))
	for name := range r.steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
