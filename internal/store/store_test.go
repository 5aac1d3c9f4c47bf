package store

import (
	"context"
	"os"
	"testing"

	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/solution"
	"github.com/voltlab/battsim/internal/solver"
)

func solvedRun(t *testing.T) *solution.Solution {
	t.Helper()
	m, err := model.NewReservoir()
	if err != nil {
		t.Fatal(err)
	}
	p := params.Default()
	sol, err := solver.Solve(context.Background(), m, p,
		solver.CRate(p, 1), solver.Span{T0: 0, T1: 60}, solver.NewRK4(), solver.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return sol
}

func TestSaveAndGet(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	sol := solvedRun(t)
	id, err := st.Save(sol)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a run id")
	}

	r, err := st.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if r.Model != sol.Model || r.Chemistry != sol.Chemistry {
		t.Errorf("stored %q/%q, want %q/%q", r.Model, r.Chemistry, sol.Model, sol.Chemistry)
	}
	if r.Steps != sol.Len() {
		t.Errorf("stored %d steps, want %d", r.Steps, sol.Len())
	}
	if r.FinalVoltage <= 0 {
		t.Error("expected a final voltage in the index")
	}
	if _, err := os.Stat(r.DataPath); err != nil {
		t.Errorf("data file missing: %v", err)
	}
}

func TestSaveRejectsEmpty(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if _, err := st.Save(solution.New(nil, nil)); err == nil {
		t.Error("expected error for empty solution")
	}
}

func TestList(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty store, got %d runs", len(runs))
	}

	sol := solvedRun(t)
	for i := 0; i < 3; i++ {
		if _, err := st.Save(sol); err != nil {
			t.Fatal(err)
		}
	}
	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
}

func TestDelete(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	id, err := st.Save(solvedRun(t))
	if err != nil {
		t.Fatal(err)
	}
	r, err := st.Get(id)
	if err != nil {
		t.Fatal(err)
	}

	if err := st.Delete(id); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(id); err == nil {
		t.Error("expected a lookup error after delete")
	}
	if _, err := os.Stat(r.DataPath); !os.IsNotExist(err) {
		t.Error("data file should be removed")
	}
}

func TestLoadData(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	sol := solvedRun(t)
	id, err := st.Save(sol)
	if err != nil {
		t.Fatal(err)
	}

	data, err := st.LoadData(id)
	if err != nil {
		t.Fatal(err)
	}
	if data.Steps != sol.Len() {
		t.Errorf("loaded %d steps, want %d", data.Steps, sol.Len())
	}
	if len(data.Times) != sol.Len() {
		t.Errorf("loaded %d samples, want %d", len(data.Times), sol.Len())
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	id, err := st.Save(solvedRun(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, err := st.Get(id); err != nil {
		t.Errorf("run should survive a reopen: %v", err)
	}
}
