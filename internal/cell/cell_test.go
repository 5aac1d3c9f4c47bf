package cell

import (
	"errors"
	"math"
	"testing"

	"github.com/voltlab/battsim/internal/params"
)

func TestLayoutAdd(t *testing.T) {
	l := NewLayout()
	if err := l.Add("a", 3); err != nil {
		t.Fatal(err)
	}
	if err := l.Add("b", 1); err != nil {
		t.Fatal(err)
	}
	if l.Total() != 4 {
		t.Errorf("expected total 4, got %d", l.Total())
	}

	y := State{1, 2, 3, 4}
	s, err := l.Slice(y, "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 1 || s[0] != 4 {
		t.Errorf("expected slice [4], got %v", s)
	}
}

func TestLayoutDuplicate(t *testing.T) {
	l := NewLayout()
	if err := l.Add("a", 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Add("a", 2); err == nil {
		t.Error("expected error for duplicate state variable")
	}
}

func TestLayoutBadSize(t *testing.T) {
	l := NewLayout()
	if err := l.Add("a", 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestLayoutSliceShortState(t *testing.T) {
	l := NewLayout()
	_ = l.Add("a", 3)
	if _, err := l.Slice(State{1}, "a"); err == nil {
		t.Error("expected error for short state vector")
	}
}

func TestRegistryStateVariables(t *testing.T) {
	l := NewLayout()
	_ = l.Add("soc", 1)
	r := NewRegistry(l)

	for _, name := range []string{"soc", "time", "current"} {
		if !r.Has(name) {
			t.Errorf("expected %q to be registered", name)
		}
	}

	e := NewEval(r, params.Default(), 12.5, State{0.7}, 3.0)
	if v, err := e.Scalar("time"); err != nil || v != 12.5 {
		t.Errorf("time = %v, %v", v, err)
	}
	if v, err := e.Scalar("current"); err != nil || v != 3.0 {
		t.Errorf("current = %v, %v", v, err)
	}
	if v, err := e.Scalar("soc"); err != nil || v != 0.7 {
		t.Errorf("soc = %v, %v", v, err)
	}
}

func TestRegistryDeclareTwice(t *testing.T) {
	r := NewRegistry(NewLayout())
	f := func(e *Eval) ([]float64, error) { return []float64{1}, nil }
	if err := r.Declare("x", f); err != nil {
		t.Fatal(err)
	}
	if err := r.Declare("x", f); err == nil {
		t.Error("expected error for duplicate declaration")
	}
}

func TestRegistryRequire(t *testing.T) {
	r := NewRegistry(NewLayout())
	err := r.Require("time", "nope", "also missing")
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingError, got %v", err)
	}
	want := []string{"nope", "also missing"}
	if len(missing.Variables) != len(want) {
		t.Fatalf("expected %d missing variables, got %v", len(want), missing.Variables)
	}
	for i, name := range want {
		if missing.Variables[i] != name {
			t.Errorf("missing[%d] = %q, want %q", i, missing.Variables[i], name)
		}
	}
}

func TestEvalMemoizes(t *testing.T) {
	r := NewRegistry(NewLayout())
	calls := 0
	_ = r.Declare("x", func(e *Eval) ([]float64, error) {
		calls++
		return []float64{42}, nil
	})
	_ = r.Declare("y", func(e *Eval) ([]float64, error) {
		a, err := e.Scalar("x")
		if err != nil {
			return nil, err
		}
		b, err := e.Scalar("x")
		if err != nil {
			return nil, err
		}
		return []float64{a + b}, nil
	})

	e := NewEval(r, params.Default(), 0, nil, 0)
	v, err := e.Scalar("y")
	if err != nil {
		t.Fatal(err)
	}
	if v != 84 {
		t.Errorf("expected 84, got %f", v)
	}
	if calls != 1 {
		t.Errorf("expected x computed once, got %d", calls)
	}
}

func TestEvalUnknownVariable(t *testing.T) {
	e := NewEval(NewRegistry(NewLayout()), params.Default(), 0, nil, 0)
	if _, err := e.Var("ghost"); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("expected ErrUnknownVariable, got %v", err)
	}
}

func TestEvalCycle(t *testing.T) {
	r := NewRegistry(NewLayout())
	_ = r.Declare("a", func(e *Eval) ([]float64, error) { return e.Var("b") })
	_ = r.Declare("b", func(e *Eval) ([]float64, error) { return e.Var("a") })

	e := NewEval(r, params.Default(), 0, nil, 0)
	if _, err := e.Var("a"); !errors.Is(err, ErrVariableCycle) {
		t.Errorf("expected ErrVariableCycle, got %v", err)
	}
}

func TestEvalScalarSize(t *testing.T) {
	r := NewRegistry(NewLayout())
	_ = r.Declare("vec", func(e *Eval) ([]float64, error) { return []float64{1, 2}, nil })

	e := NewEval(r, params.Default(), 0, nil, 0)
	if _, err := e.Scalar("vec"); err == nil {
		t.Error("expected error for non-scalar variable")
	}
}

func TestStateIsValid(t *testing.T) {
	if !(State{1, 2}).IsValid() {
		t.Error("expected finite state to be valid")
	}
	bad := State{1, math.NaN()}
	if bad.IsValid() {
		t.Error("expected NaN state to be invalid")
	}
}

func TestStateClone(t *testing.T) {
	a := State{1, 2, 3}
	b := a.Clone()
	b[0] = 99
	if a[0] != 1 {
		t.Error("clone aliases original")
	}
}
