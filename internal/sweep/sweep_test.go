package sweep

import (
	"context"
	"testing"

	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/solver"
)

func TestGrid(t *testing.T) {
	pts := Grid(
		Axis{Name: "a", Values: []float64{1, 2}},
		Axis{Name: "b", Values: []float64{10, 20, 30}},
	)
	if len(pts) != 6 {
		t.Fatalf("expected 6 points, got %d", len(pts))
	}
	seen := map[[2]float64]bool{}
	for _, pt := range pts {
		seen[[2]float64{pt["a"], pt["b"]}] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 distinct points, got %d", len(seen))
	}
}

func TestGridNoAxes(t *testing.T) {
	pts := Grid()
	if len(pts) != 1 || len(pts[0]) != 0 {
		t.Errorf("expected the single empty point, got %v", pts)
	}
}

func newSweep() *Sweep {
	return &Sweep{
		NewModel: func() (*model.Model, error) { return model.NewReservoir() },
		Base:     params.Default(),
		Config:   solver.DefaultConfig(),
		Rate:     1,
		Span:     solver.Span{T0: 0, T1: 60},
		Workers:  2,
	}
}

func TestRunReportsSummaries(t *testing.T) {
	sw := newSweep()
	pts := Grid(Axis{Name: "circuit.r0", Values: []float64{0.01, 0.02, 0.04}})

	results, err := sw.Run(context.Background(), pts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("point %d failed: %v", i, r.Err)
		}
		if r.Summary["final voltage"] <= 0 {
			t.Errorf("point %d has no final voltage", i)
		}
	}

	// Higher series resistance, lower voltage under load.
	if results[0].Summary["final voltage"] <= results[2].Summary["final voltage"] {
		t.Errorf("expected voltage to fall with resistance: %g vs %g",
			results[0].Summary["final voltage"], results[2].Summary["final voltage"])
	}
}

func TestRunIsolatesPointFailures(t *testing.T) {
	sw := newSweep()
	pts := []Point{
		{"circuit.r0": 0.01},
		{"capacity": -1}, // fails validation inside the solve
	}

	results, err := sw.Run(context.Background(), pts)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err != nil {
		t.Errorf("healthy point should succeed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("invalid point should fail")
	}
}

func TestRunUnknownParameter(t *testing.T) {
	sw := newSweep()
	results, err := sw.Run(context.Background(), []Point{{"flux.capacitance": 1.21}})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err == nil {
		t.Error("expected an error for an unknown parameter name")
	}
}

func TestBest(t *testing.T) {
	results := []Result{
		{Summary: map[string]float64{"energy": 1.0}},
		{Summary: map[string]float64{"energy": 3.0}},
		{Err: context.Canceled},
		{Summary: map[string]float64{"energy": 2.0}},
	}

	best, err := Best(results, "energy", true)
	if err != nil {
		t.Fatal(err)
	}
	if best.Summary["energy"] != 3.0 {
		t.Errorf("expected 3.0, got %g", best.Summary["energy"])
	}

	best, err = Best(results, "energy", false)
	if err != nil {
		t.Fatal(err)
	}
	if best.Summary["energy"] != 1.0 {
		t.Errorf("expected 1.0, got %g", best.Summary["energy"])
	}

	if _, err := Best(results, "ghost", false); err == nil {
		t.Error("expected error for unreported metric")
	}
}

func TestRunHonorsContext(t *testing.T) {
	sw := newSweep()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sw.Run(ctx, Grid(Axis{Name: "circuit.r0", Values: []float64{0.01, 0.02}})); err == nil {
		t.Error("expected a context error")
	}
}
