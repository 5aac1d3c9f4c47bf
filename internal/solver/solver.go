package solver

import (
	"context"
	"fmt"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/solution"
)

// System is the solvable surface of a built model.
type System interface {
	Name() string
	Built() bool
	Dim() int
	Registry() *cell.Registry
	Events() []cell.Event
	InitialState(p *params.Values) (cell.State, error)
	Eval(p *params.Values, t float64, y cell.State, current float64) *cell.Eval
	Derivative(e *cell.Eval) (cell.State, error)
}

// Span is the solve interval in seconds.
type Span struct {
	T0, T1 float64
}

// Config controls the time-stepping loop.
type Config struct {
	Dt            float64
	Adaptive      bool
	Tol           float64
	MinDt         float64
	MaxDt         float64
	ValidateState bool
	MaxSteps      int

	// Events adds termination conditions beyond the model's own, e.g. a
	// per-step voltage cutoff from an experiment protocol.
	Events []cell.Event

	// Initial, when non-nil, replaces the model's initial state so a solve
	// can continue where a previous one ended.
	Initial cell.State
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0,
		Tol:           1e-6,
		MinDt:         1e-6,
		MaxDt:         60.0,
		ValidateState: true,
		MaxSteps:      1_000_000,
	}
}

func (c Config) validate(span Span) error {
	if c.Dt <= 0 {
		return fmt.Errorf("battsim: dt must be positive, got %g", c.Dt)
	}
	if span.T1 <= span.T0 {
		return fmt.Errorf("battsim: empty time span [%g, %g]", span.T0, span.T1)
	}
	if c.Adaptive && c.Tol <= 0 {
		return fmt.Errorf("battsim: tolerance must be positive for adaptive stepping")
	}
	return nil
}

// TerminationFinalTime is the Termination value of a solve that reached
// the end of its span without any event firing.
const TerminationFinalTime = "final time"

// Solve integrates a built model over span, sampling every accepted step.
// It returns cell.ErrModelNotBuilt when called on an unbuilt model.
func Solve(ctx context.Context, sys System, p *params.Values, prof Profile, span Span, st Stepper, cfg Config) (*solution.Solution, error) {
	if !sys.Built() {
		return nil, cell.ErrModelNotBuilt
	}
	if err := cfg.validate(span); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	adaptive, _ := st.(AdaptiveStepper)
	if cfg.Adaptive && adaptive == nil {
		return nil, fmt.Errorf("battsim: stepper %T does not support adaptive stepping", st)
	}

	var y cell.State
	if cfg.Initial != nil {
		if len(cfg.Initial) != sys.Dim() {
			return nil, fmt.Errorf("battsim: initial state has size %d, model needs %d", len(cfg.Initial), sys.Dim())
		}
		y = cfg.Initial.Clone()
	} else {
		init, err := sys.InitialState(p)
		if err != nil {
			return nil, err
		}
		y = init
	}

	sol := solution.New(sys.Registry(), p)
	sol.Model = sys.Name()
	sol.Chemistry = p.Chemistry
	sol.Termination = TerminationFinalTime

	events := append(append([]cell.Event{}, sys.Events()...), cfg.Events...)

	f := func(t float64, yy cell.State) (cell.State, error) {
		e := sys.Eval(p, t, yy, prof.Current(t))
		return sys.Derivative(e)
	}

	evalEvents := func(t float64, yy cell.State) ([]float64, error) {
		vals := make([]float64, len(events))
		e := sys.Eval(p, t, yy, prof.Current(t))
		for i, ev := range events {
			v, err := ev.F(e)
			if err != nil {
				return nil, fmt.Errorf("event %q: %w", ev.Name, err)
			}
			vals[i] = v
		}
		return vals, nil
	}

	t := span.T0
	sol.Append(t, y.Clone(), prof.Current(t))

	prevEvents, err := evalEvents(t, y)
	if err != nil {
		return nil, err
	}
	for i, v := range prevEvents {
		if v <= 0 {
			sol.Termination = events[i].Name
			return sol, nil
		}
	}

	dt := cfg.Dt
	for step := 0; t < span.T1; step++ {
		select {
		case <-ctx.Done():
			return sol, ctx.Err()
		default:
		}
		if step >= cfg.MaxSteps {
			return sol, fmt.Errorf("battsim: step budget of %d exceeded at t=%.4f", cfg.MaxSteps, t)
		}

		h := dt
		if t+h > span.T1 {
			h = span.T1 - t
		}

		var newY cell.State
		if cfg.Adaptive {
			var dtNext float64
			newY, dtNext, err = adaptive.StepAdaptive(f, t, y, h, cfg.Tol)
			if err == nil {
				dt = clamp(dtNext, cfg.MinDt, cfg.MaxDt)
				if dtNext < cfg.MinDt {
					err = &cell.SolveError{Step: step, Time: t, Wrapped: cell.ErrStepTooSmall}
				}
			}
		} else {
			newY, err = st.Step(f, t, y, h)
		}
		if err != nil {
			return sol, err
		}

		if cfg.ValidateState && !newY.IsValid() {
			return sol, &cell.SolveError{Step: step, Time: t, Wrapped: cell.ErrInvalidState}
		}

		tNew := t + h
		newEvents, err := evalEvents(tNew, newY)
		if err != nil {
			return sol, err
		}
		fired := -1
		for i, v := range newEvents {
			if prevEvents[i] > 0 && v <= 0 {
				fired = i
				break
			}
		}
		if fired >= 0 {
			tHit, yHit, err := refineEvent(events[fired], sys, p, prof, t, y, tNew, newY)
			if err != nil {
				return sol, err
			}
			sol.Append(tHit, yHit, prof.Current(tHit))
			sol.Termination = events[fired].Name
			return sol, nil
		}

		y = newY
		t = tNew
		prevEvents = newEvents
		sol.Append(t, y.Clone(), prof.Current(t))
	}

	return sol, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// refineEvent bisects the step bracketed by (t0,y0) and (t1,y1) to locate
// the event crossing, interpolating the state linearly within the step.
func refineEvent(ev cell.Event, sys System, p *params.Values, prof Profile, t0 float64, y0 cell.State, t1 float64, y1 cell.State) (float64, cell.State, error) {
	interp := func(w float64) cell.State {
		y := make(cell.State, len(y0))
		for i := range y {
			y[i] = (1-w)*y0[i] + w*y1[i]
		}
		return y
	}

	lo, hi := 0.0, 1.0
	for iter := 0; iter < 40; iter++ {
		mid := 0.5 * (lo + hi)
		tm := t0 + mid*(t1-t0)
		ym := interp(mid)
		e := sys.Eval(p, tm, ym, prof.Current(tm))
		v, err := ev.F(e)
		if err != nil {
			return 0, nil, fmt.Errorf("event %q: %w", ev.Name, err)
		}
		if v > 0 {
			lo = mid
		} else {
			hi = mid
		}
		if (hi-lo)*(t1-t0) < 1e-9 {
			break
		}
	}
	tHit := t0 + hi*(t1-t0)
	return tHit, interp(hi), nil
}
