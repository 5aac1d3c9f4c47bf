package params

import (
	"os"
	"path/filepath"
	"testing"
)

func TestChemistries(t *testing.T) {
	names := Chemistries()
	if len(names) < 2 {
		t.Fatalf("expected at least 2 chemistries, got %d", len(names))
	}
	for _, name := range names {
		p, err := New(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%s: preset does not validate: %v", name, err)
		}
	}
}

func TestNewUnknownChemistry(t *testing.T) {
	if _, err := New("unobtainium"); err == nil {
		t.Error("expected error for unknown chemistry")
	}
}

func TestDefault(t *testing.T) {
	p := Default()
	if p.Capacity <= 0 {
		t.Error("default capacity should be positive")
	}
	if p.LowerVoltage >= p.UpperVoltage {
		t.Error("voltage window is inverted")
	}
}

func TestSetGet(t *testing.T) {
	p := Default()
	if err := p.Set("negative_electrode.particle_radius", 3e-6); err != nil {
		t.Fatal(err)
	}
	v, err := p.Get("negative_electrode.particle_radius")
	if err != nil {
		t.Fatal(err)
	}
	if v != 3e-6 {
		t.Errorf("expected 3e-6, got %g", v)
	}
}

func TestSetUnknown(t *testing.T) {
	p := Default()
	if err := p.Set("negative_electrode.flavor", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := p.Get("nothing"); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value float64
	}{
		{"zero capacity", "capacity", 0},
		{"negative radius", "negative_electrode.particle_radius", -1e-6},
		{"zero c_max", "positive_electrode.c_max", 0},
		{"soc above one", "initial_soc", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			if err := p.Set(tt.param, tt.value); err != nil {
				t.Fatal(err)
			}
			if err := p.Validate(); err == nil {
				t.Errorf("expected validation error for %s=%g", tt.param, tt.value)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cell.yaml")

	p := Default()
	p.Capacity = 7.5
	p.Neg.Radius = 4.2e-6
	if err := Save(path, p); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Capacity != 7.5 {
		t.Errorf("expected capacity 7.5, got %g", got.Capacity)
	}
	if got.Neg.Radius != 4.2e-6 {
		t.Errorf("expected radius 4.2e-6, got %g", got.Neg.Radius)
	}
	if got.OCPNegative(0.5) != p.OCPNegative(0.5) {
		t.Error("loaded values lost the OCP fit")
	}
}

func TestLoadRequiresChemistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cell.yaml")
	if err := os.WriteFile(path, []byte("capacity: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for file without chemistry")
	}
}

func TestOCVDecreasesWithDischarge(t *testing.T) {
	p := Default()
	if p.OCV(0.9) <= p.OCV(0.1) {
		t.Errorf("OCV should rise with state of charge: OCV(0.9)=%g OCV(0.1)=%g",
			p.OCV(0.9), p.OCV(0.1))
	}
}

func TestOCVInsideVoltageWindow(t *testing.T) {
	for _, name := range Chemistries() {
		p, err := New(name)
		if err != nil {
			t.Fatal(err)
		}
		mid := p.OCV(0.5)
		if mid < p.LowerVoltage || mid > p.UpperVoltage {
			t.Errorf("%s: OCV(0.5)=%g outside window [%g, %g]",
				name, mid, p.LowerVoltage, p.UpperVoltage)
		}
	}
}

func TestCRateCurrent(t *testing.T) {
	p := Default()
	if got := p.CRateCurrent(2); got != 2*p.Capacity {
		t.Errorf("expected %g, got %g", 2*p.Capacity, got)
	}
}
