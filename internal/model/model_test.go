package model

import (
	"errors"
	"testing"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/submodels"
)

func TestNewSPMBuilds(t *testing.T) {
	m, err := NewSPM()
	if err != nil {
		t.Fatal(err)
	}
	if !m.Built() {
		t.Fatal("expected model to build eagerly")
	}
	if m.Dim() == 0 {
		t.Error("expected a nonzero state dimension")
	}

	for _, name := range []string{
		"terminal voltage",
		"open-circuit voltage",
		"negative particle surface concentration",
		"cell temperature",
		"discharge capacity",
	} {
		if !m.Registry().Has(name) {
			t.Errorf("expected variable %q", name)
		}
	}
}

func TestNewSPMeHasElectrolyteStates(t *testing.T) {
	m, err := NewSPMe()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"negative electrolyte concentration",
		"positive electrolyte concentration",
	} {
		if !m.Layout().Has(name) {
			t.Errorf("expected electrolyte state %q", name)
		}
	}
}

func TestNewReservoir(t *testing.T) {
	m, err := NewReservoir()
	if err != nil {
		t.Fatal(err)
	}
	if m.Dim() != 3 {
		t.Errorf("expected 3 states (soc, rc voltage, capacity), got %d", m.Dim())
	}
	if !m.Registry().Has("terminal voltage") {
		t.Error("expected terminal voltage")
	}
}

func TestNewReservoirRejectsOptions(t *testing.T) {
	_, err := NewReservoir(WithOption("thermal", "lumped"))
	if !errors.Is(err, cell.ErrOptionValue) {
		t.Errorf("expected ErrOptionValue, got %v", err)
	}
}

func TestOptionValidation(t *testing.T) {
	if _, err := NewSPM(WithOption("thermal", "adiabatic")); !errors.Is(err, cell.ErrOptionValue) {
		t.Errorf("expected ErrOptionValue for bad value, got %v", err)
	}
	if _, err := NewSPM(WithOption("gravity", "on")); !errors.Is(err, cell.ErrOptionValue) {
		t.Errorf("expected ErrOptionValue for unknown key, got %v", err)
	}
	if _, err := NewSPM(WithParticleShells(1)); err == nil {
		t.Error("expected error for too few shells")
	}
}

func TestOptionsSelectSubmodels(t *testing.T) {
	m, err := NewSPM(
		WithOption("thermal", "lumped"),
		WithOption("particle", "uniform"),
		WithOption("sei", "reaction-limited"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Layout().Has("cell temperature") {
		t.Error("lumped thermal should own a temperature state")
	}
	if !m.Layout().Has("sei thickness") {
		t.Error("reaction-limited sei should own a thickness state")
	}
	if n, _ := m.Layout().Size("negative particle concentration"); n != 1 {
		t.Errorf("uniform particle should have a single concentration, got %d", n)
	}
}

func TestDeferredBuildSwap(t *testing.T) {
	m, err := NewSPM(WithDeferredBuild())
	if err != nil {
		t.Fatal(err)
	}
	if m.Built() {
		t.Fatal("deferred model should start unbuilt")
	}

	m.Submodels["thermal"] = submodels.NewLumpedThermal()
	if err := m.Build(); err != nil {
		t.Fatal(err)
	}
	if !m.Layout().Has("cell temperature") {
		t.Error("swapped thermal submodel should own the temperature state")
	}
}

func TestRebuildAfterSwap(t *testing.T) {
	m, err := NewSPM()
	if err != nil {
		t.Fatal(err)
	}
	dim := m.Dim()

	m.Submodels["thermal"] = submodels.NewLumpedThermal()
	if err := m.Rebuild(); err != nil {
		t.Fatal(err)
	}
	if m.Dim() != dim+1 {
		t.Errorf("expected dimension %d after adding the temperature state, got %d", dim+1, m.Dim())
	}
}

func TestBuildReportsMissingDependencies(t *testing.T) {
	m, err := NewSPM(WithDeferredBuild())
	if err != nil {
		t.Fatal(err)
	}
	delete(m.Submodels, "kinetics")

	err = m.Build()
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if len(be.Missing) == 0 {
		t.Error("expected unresolved submodels in the report")
	}
	// The voltage submodel waits on both overpotentials kinetics declares,
	// and the report names each one.
	waiting, ok := be.Missing["voltage"]
	if !ok {
		t.Fatalf("expected voltage among unresolved submodels, got %v", be.Missing)
	}
	for _, name := range []string{"negative electrode overpotential", "positive electrode overpotential"} {
		found := false
		for _, v := range waiting {
			if v == name {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %q among unresolved variables, got %v", name, waiting)
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	m, err := NewSPM()
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Build(); err != nil {
		t.Errorf("second build should be a no-op, got %v", err)
	}
}

func TestInitialState(t *testing.T) {
	m, err := NewSPM()
	if err != nil {
		t.Fatal(err)
	}
	p := params.Default()
	y, err := m.InitialState(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(y) != m.Dim() {
		t.Fatalf("expected state length %d, got %d", m.Dim(), len(y))
	}

	c, err := m.Layout().Slice(y, "negative particle concentration")
	if err != nil {
		t.Fatal(err)
	}
	want := p.Neg.CMax * p.Neg.StoAt(p.InitialSOC)
	for i, v := range c {
		if v != want {
			t.Fatalf("shell %d: expected %g, got %g", i, want, v)
		}
	}
}

func TestDerivativeBeforeBuild(t *testing.T) {
	m, err := NewSPM(WithDeferredBuild())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.InitialState(params.Default()); !errors.Is(err, cell.ErrModelNotBuilt) {
		t.Errorf("expected ErrModelNotBuilt, got %v", err)
	}
}

func TestVoltageAtRestMatchesOCV(t *testing.T) {
	m, err := NewSPM()
	if err != nil {
		t.Fatal(err)
	}
	p := params.Default()
	y, err := m.InitialState(p)
	if err != nil {
		t.Fatal(err)
	}

	e := m.Eval(p, 0, y, 0)
	v, err := e.Scalar("terminal voltage")
	if err != nil {
		t.Fatal(err)
	}
	ocv, err := e.Scalar("open-circuit voltage")
	if err != nil {
		t.Fatal(err)
	}
	if v != ocv {
		t.Errorf("at rest terminal voltage %g should equal OCV %g", v, ocv)
	}
}

func TestVoltageDropsUnderLoad(t *testing.T) {
	m, err := NewSPM()
	if err != nil {
		t.Fatal(err)
	}
	p := params.Default()
	y, err := m.InitialState(p)
	if err != nil {
		t.Fatal(err)
	}

	rest, err := m.Eval(p, 0, y, 0).Scalar("terminal voltage")
	if err != nil {
		t.Fatal(err)
	}
	load, err := m.Eval(p, 0, y, p.CRateCurrent(1)).Scalar("terminal voltage")
	if err != nil {
		t.Fatal(err)
	}
	if load >= rest {
		t.Errorf("voltage under load %g should sit below rest voltage %g", load, rest)
	}
}

func TestEventsIncludeVoltageCutoffs(t *testing.T) {
	m, err := NewSPM()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, ev := range m.Events() {
		names[ev.Name] = true
	}
	if !names["minimum voltage cutoff"] || !names["maximum voltage cutoff"] {
		t.Errorf("expected both voltage cutoffs, got %v", names)
	}
}
