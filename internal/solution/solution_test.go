package solution_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/solution"
	"github.com/voltlab/battsim/internal/solver"
)

func solved(t *testing.T) (*solution.Solution, *model.Model, *params.Values) {
	t.Helper()
	m, err := model.NewReservoir()
	if err != nil {
		t.Fatal(err)
	}
	p := params.Default()
	sol, err := solver.Solve(context.Background(), m, p,
		solver.CRate(p, 1), solver.Span{T0: 0, T1: 120}, solver.NewRK4(), solver.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return sol, m, p
}

func TestVariableSeries(t *testing.T) {
	sol, _, p := solved(t)

	v, err := sol.Variable("terminal voltage")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != sol.Len() {
		t.Fatalf("expected %d samples, got %d", sol.Len(), len(v))
	}
	for i, x := range v {
		if x < p.LowerVoltage || x > p.UpperVoltage {
			t.Fatalf("sample %d: voltage %g outside the window", i, x)
		}
	}

	// Voltage falls monotonically on a constant discharge.
	if v[len(v)-1] >= v[0] {
		t.Errorf("voltage should drop over a discharge: %g -> %g", v[0], v[len(v)-1])
	}
}

func TestVariableUnknown(t *testing.T) {
	sol, _, _ := solved(t)
	if _, err := sol.Variable("porosity"); !errors.Is(err, cell.ErrUnknownVariable) {
		t.Errorf("expected ErrUnknownVariable, got %v", err)
	}
}

func TestVariableEmptySolution(t *testing.T) {
	s := solution.New(nil, nil)
	if _, err := s.Variable("terminal voltage"); !errors.Is(err, cell.ErrEmptySolution) {
		t.Errorf("expected ErrEmptySolution, got %v", err)
	}
}

func TestAtInterpolates(t *testing.T) {
	sol, m, _ := solved(t)

	y, err := sol.At(0.5)
	if err != nil {
		t.Fatal(err)
	}
	soc, err := m.Layout().Slice(y, "state of charge")
	if err != nil {
		t.Fatal(err)
	}

	s0, _ := m.Layout().Slice(sol.States[0], "state of charge")
	s1, _ := m.Layout().Slice(sol.States[1], "state of charge")
	lo, hi := s1[0], s0[0]
	if soc[0] < lo || soc[0] > hi {
		t.Errorf("interpolated soc %g outside [%g, %g]", soc[0], lo, hi)
	}

	// Clamping at either end.
	before, err := sol.At(-10)
	if err != nil {
		t.Fatal(err)
	}
	if before.Sub(sol.States[0]).Norm() != 0 {
		t.Error("At before the start should return the first state")
	}
}

func TestExtend(t *testing.T) {
	sol, m, p := solved(t)
	n := sol.Len()

	cfg := solver.DefaultConfig()
	cfg.Initial = sol.FinalState()
	rest, err := solver.Solve(context.Background(), m, p,
		solver.Rest(), solver.Span{T0: sol.FinalTime(), T1: sol.FinalTime() + 60}, solver.NewRK4(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := sol.Extend(rest); err != nil {
		t.Fatal(err)
	}
	if sol.Len() <= n {
		t.Error("extend should append samples")
	}
	for i := 1; i < sol.Len(); i++ {
		if sol.Times[i] < sol.Times[i-1] {
			t.Fatalf("times not monotonic at %d: %g < %g", i, sol.Times[i], sol.Times[i-1])
		}
		if sol.Times[i] == sol.Times[i-1] {
			t.Fatalf("duplicate junction sample at %d", i)
		}
	}
}

func TestExtendRejectsOverlap(t *testing.T) {
	sol, _, _ := solved(t)
	other, _, _ := solved(t)
	if err := sol.Extend(other); err == nil {
		t.Error("expected error extending with an overlapping solution")
	}
}

func TestSummary(t *testing.T) {
	sol, _, _ := solved(t)
	summary, err := sol.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if summary["duration"] != 120 {
		t.Errorf("expected duration 120, got %g", summary["duration"])
	}
	if summary["final voltage"] <= 0 {
		t.Error("expected a final voltage")
	}
	if summary["minimum voltage"] > summary["maximum voltage"] {
		t.Error("voltage extremes inverted")
	}
	if summary["energy"] <= 0 {
		t.Error("discharge energy should be positive")
	}
}

func TestCSVExport(t *testing.T) {
	sol, _, _ := solved(t)

	var b strings.Builder
	if err := sol.WriteCSV(&b, "terminal voltage", "state of charge"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != sol.Len()+1 {
		t.Fatalf("expected %d lines, got %d", sol.Len()+1, len(lines))
	}
	if lines[0] != "time,current,terminal voltage,state of charge" {
		t.Errorf("unexpected header %q", lines[0])
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("device full")
}

func TestCSVExportReportsWriteFailure(t *testing.T) {
	sol, _, _ := solved(t)
	if err := sol.WriteCSV(brokenWriter{}, "terminal voltage"); err == nil {
		t.Error("expected the underlying write error to surface")
	}
}

func TestCSVExportUnknownVariable(t *testing.T) {
	sol, _, _ := solved(t)
	var b strings.Builder
	if err := sol.WriteCSV(&b, "porosity"); err == nil {
		t.Error("expected error for unknown variable")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	sol, m, p := solved(t)

	path := filepath.Join(t.TempDir(), "run.json")
	if err := sol.ExportJSON(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	data, err := solution.ReadExport(path)
	if err != nil {
		t.Fatal(err)
	}
	if data.Steps != sol.Len() {
		t.Errorf("expected %d steps, got %d", sol.Len(), data.Steps)
	}
	if data.Model != sol.Model || data.Chemistry != sol.Chemistry {
		t.Error("metadata lost in the round trip")
	}

	restored := solution.FromExport(data, m.Registry(), p)
	vWant, err := sol.Variable("terminal voltage")
	if err != nil {
		t.Fatal(err)
	}
	vGot, err := restored.Variable("terminal voltage")
	if err != nil {
		t.Fatal(err)
	}
	for i := range vWant {
		if math.Abs(vWant[i]-vGot[i]) > 1e-12 {
			t.Fatalf("sample %d: restored voltage %g, want %g", i, vGot[i], vWant[i])
		}
	}
}
