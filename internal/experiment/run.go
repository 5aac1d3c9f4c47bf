package experiment

import (
	"context"
	"fmt"

	"github.com/gosuri/uiprogress"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/sim"
	"github.com/voltlab/battsim/internal/solution"
	"github.com/voltlab/battsim/internal/solver"
)

// stepCutoff is the termination name of a per-step cutoff voltage; unlike
// a model-level cutoff it does not end the protocol.
const stepCutoff = "step cutoff voltage"

// untilCutoffCap bounds steps that specify only a cutoff voltage.
const untilCutoffCap = 24 * 3600.0

// Run executes a protocol step by step, stitching the per-step solutions
// into one. A model-level termination event (voltage cutoff, for example)
// ends the protocol early; per-step cutoffs just advance to the next step.
func Run(ctx context.Context, s *sim.Simulation, proto *Protocol, showProgress bool) (*solution.Solution, error) {
	if err := proto.Validate(); err != nil {
		return nil, err
	}
	if !s.Model.Built() {
		if err := s.Model.Build(); err != nil {
			return nil, err
		}
	}

	var bar *uiprogress.Bar
	if showProgress {
		uiprogress.Start()
		bar = uiprogress.AddBar(len(proto.Steps)).AppendCompleted().PrependElapsed()
		defer uiprogress.Stop()
	}

	combined := solution.New(s.Model.Registry(), s.Params)
	combined.Model = s.Model.Name()
	combined.Chemistry = s.Params.Chemistry
	combined.Termination = solver.TerminationFinalTime

	t := 0.0
	var state cell.State

	for i, step := range proto.Steps {
		prof, err := stepProfile(step, s)
		if err != nil {
			return nil, err
		}

		dur := step.Duration
		if dur == 0 {
			dur = untilCutoffCap
		}

		cfg := s.Config
		cfg.Initial = state
		if step.CutoffVoltage > 0 {
			cfg.Events = append(append([]cell.Event{}, cfg.Events...), cutoffEvent(step))
		}

		stepSol, err := solver.Solve(ctx, s.Model, s.Params, prof, solver.Span{T0: t, T1: t + dur}, s.Stepper, cfg)
		if err != nil {
			return nil, fmt.Errorf("battsim: protocol step %d (%s): %w", i, step.Kind, err)
		}
		if err := combined.Extend(stepSol); err != nil {
			return nil, err
		}

		if bar != nil {
			bar.Incr()
		}

		t = combined.FinalTime()
		state = combined.FinalState()

		if stepSol.Termination != solver.TerminationFinalTime && stepSol.Termination != stepCutoff {
			// The model itself stopped the solve; the protocol cannot continue.
			return combined, nil
		}
	}
	combined.Termination = solver.TerminationFinalTime
	return combined, nil
}

func stepProfile(step Step, s *sim.Simulation) (solver.Profile, error) {
	i := step.Current
	if step.CRate != 0 {
		i = s.Params.CRateCurrent(step.CRate)
	}
	switch step.Kind {
	case Discharge:
		return solver.Constant(i), nil
	case Charge:
		return solver.Constant(-i), nil
	case Rest:
		return solver.Rest(), nil
	default:
		return nil, fmt.Errorf("battsim: unknown step kind %q", step.Kind)
	}
}

func cutoffEvent(step Step) cell.Event {
	cut := step.CutoffVoltage
	charging := step.Kind == Charge
	return cell.Event{
		Name: stepCutoff,
		F: func(e *cell.Eval) (float64, error) {
			v, err := e.Scalar("terminal voltage")
			if err != nil {
				return 0, err
			}
			if charging {
				return cut - v, nil
			}
			return v - cut, nil
		},
	}
}
