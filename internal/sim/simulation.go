package sim

import (
	"context"
	"fmt"

	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/solution"
	"github.com/voltlab/battsim/internal/solver"
)

// Simulation pairs a model with a parameter set and a stepper. Solving
// builds the model first if needed; calling the solver directly on an
// unbuilt model still fails with cell.ErrModelNotBuilt.
type Simulation struct {
	Model   *model.Model
	Params  *params.Values
	Stepper solver.Stepper
	Config  solver.Config
}

// Option configures a Simulation.
type Option func(*Simulation)

func WithParams(p *params.Values) Option {
	return func(s *Simulation) { s.Params = p }
}

func WithStepper(st solver.Stepper) Option {
	return func(s *Simulation) { s.Stepper = st }
}

func WithConfig(cfg solver.Config) Option {
	return func(s *Simulation) { s.Config = cfg }
}

func New(m *model.Model, opts ...Option) *Simulation {
	s := &Simulation{
		Model:   m,
		Params:  params.Default(),
		Stepper: solver.NewRK4(),
		Config:  solver.DefaultConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Solve integrates the model over span under the given current profile,
// building the model first when necessary.
func (s *Simulation) Solve(ctx context.Context, span solver.Span, prof solver.Profile) (*solution.Solution, error) {
	if !s.Model.Built() {
		if err := s.Model.Build(); err != nil {
			return nil, fmt.Errorf("battsim: building %q: %w", s.Model.Name(), err)
		}
	}
	return solver.Solve(ctx, s.Model, s.Params, prof, span, s.Stepper, s.Config)
}

// SolveCRate is Solve with a constant C-rate discharge (negative rates
// charge).
func (s *Simulation) SolveCRate(ctx context.Context, rate float64, span solver.Span) (*solution.Solution, error) {
	return s.Solve(ctx, span, solver.CRate(s.Params, rate))
}
