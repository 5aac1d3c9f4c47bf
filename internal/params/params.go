package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Physical constants.
const (
	Faraday = 96485.33212 // C/mol
	GasR    = 8.314462618 // J/(mol K)
)

// OCP is an open-circuit potential fit, stoichiometry -> volts.
type OCP func(sto float64) float64

// Electrode holds the parameters of one porous electrode.
type Electrode struct {
	CMax        float64 `yaml:"c_max"`             // maximum lithium concentration, mol/m^3
	Diffusivity float64 `yaml:"diffusivity"`       // solid-phase diffusivity, m^2/s
	Radius      float64 `yaml:"particle_radius"`   // representative particle radius, m
	Surface     float64 `yaml:"interfacial_area"`  // total interfacial area, m^2
	J0          float64 `yaml:"exchange_coeff"`    // exchange current density scale, A/m^2
	Sto0        float64 `yaml:"sto_at_empty"`      // stoichiometry at 0% state of charge
	Sto100      float64 `yaml:"sto_at_full"`       // stoichiometry at 100% state of charge
}

// StoAt maps state of charge to electrode stoichiometry.
func (e Electrode) StoAt(soc float64) float64 {
	return e.Sto0 + soc*(e.Sto100-e.Sto0)
}

type Electrolyte struct {
	C0                 float64 `yaml:"initial_concentration"` // mol/m^3
	Diffusivity        float64 `yaml:"diffusivity"`           // effective, m^2/s
	TransferenceNumber float64 `yaml:"transference_number"`
	Resistance         float64 `yaml:"resistance"`    // lumped ohmic resistance, ohm
	ExchangeTime       float64 `yaml:"exchange_time"` // inter-region diffusion timescale, s
	Volume             float64 `yaml:"region_volume"` // electrolyte volume per electrode region, m^3
}

type Thermal struct {
	Ambient            float64 `yaml:"ambient"`             // K
	HeatCapacity       float64 `yaml:"heat_capacity"`       // lumped m*cp, J/K
	CoolingCoefficient float64 `yaml:"cooling_coefficient"` // h*A, W/K
}

type SEI struct {
	RateConstant     float64 `yaml:"rate_constant"`     // film growth per unit current density, m^3/(A s)
	Resistivity      float64 `yaml:"resistivity"`       // film resistivity, ohm m
	InitialThickness float64 `yaml:"initial_thickness"` // m
	MolarVolume      float64 `yaml:"molar_volume"`      // film molar volume, m^3/mol
}

// Circuit holds equivalent-circuit parameters for the reservoir model.
type Circuit struct {
	R0 float64 `yaml:"r0"` // ohm
	R1 float64 `yaml:"r1"` // ohm
	C1 float64 `yaml:"c1"` // F
}

// Values is a complete, solvable parameter set for one cell chemistry.
type Values struct {
	Chemistry        string      `yaml:"chemistry"`
	Capacity         float64     `yaml:"capacity"`             // A.h
	SeriesResistance float64     `yaml:"series_resistance"`    // ohm
	LowerVoltage     float64     `yaml:"lower_voltage_cutoff"` // V
	UpperVoltage     float64     `yaml:"upper_voltage_cutoff"` // V
	InitialSOC       float64     `yaml:"initial_soc"`
	Neg              Electrode   `yaml:"negative_electrode"`
	Pos              Electrode   `yaml:"positive_electrode"`
	Electrolyte      Electrolyte `yaml:"electrolyte"`
	Thermal          Thermal     `yaml:"thermal"`
	SEI              SEI         `yaml:"sei"`
	Circuit          Circuit     `yaml:"circuit"`

	ocpNeg OCP
	ocpPos OCP
}

// OCPNegative evaluates the negative-electrode open-circuit potential.
func (v *Values) OCPNegative(sto float64) float64 { return v.ocpNeg(sto) }

// OCPPositive evaluates the positive-electrode open-circuit potential.
func (v *Values) OCPPositive(sto float64) float64 { return v.ocpPos(sto) }

// OCV is the cell open-circuit voltage at a given state of charge.
func (v *Values) OCV(soc float64) float64 {
	return v.ocpPos(v.Pos.StoAt(soc)) - v.ocpNeg(v.Neg.StoAt(soc))
}

// CRateCurrent converts a C-rate to applied current in amps.
func (v *Values) CRateCurrent(c float64) float64 { return c * v.Capacity }

func (v *Values) Validate() error {
	checks := []struct {
		name string
		val  float64
	}{
		{"capacity", v.Capacity},
		{"negative_electrode.c_max", v.Neg.CMax},
		{"negative_electrode.diffusivity", v.Neg.Diffusivity},
		{"negative_electrode.particle_radius", v.Neg.Radius},
		{"negative_electrode.interfacial_area", v.Neg.Surface},
		{"negative_electrode.exchange_coeff", v.Neg.J0},
		{"positive_electrode.c_max", v.Pos.CMax},
		{"positive_electrode.diffusivity", v.Pos.Diffusivity},
		{"positive_electrode.particle_radius", v.Pos.Radius},
		{"positive_electrode.interfacial_area", v.Pos.Surface},
		{"positive_electrode.exchange_coeff", v.Pos.J0},
		{"thermal.heat_capacity", v.Thermal.HeatCapacity},
	}
	for _, c := range checks {
		if c.val <= 0 {
			return fmt.Errorf("params: %s must be positive, got %g", c.name, c.val)
		}
	}
	if v.InitialSOC < 0 || v.InitialSOC > 1 {
		return fmt.Errorf("params: initial_soc must be in [0,1], got %g", v.InitialSOC)
	}
	if v.LowerVoltage >= v.UpperVoltage {
		return fmt.Errorf("params: voltage cutoffs inverted (%g >= %g)", v.LowerVoltage, v.UpperVoltage)
	}
	if v.ocpNeg == nil || v.ocpPos == nil {
		return fmt.Errorf("params: chemistry %q has no open-circuit potential fits", v.Chemistry)
	}
	return nil
}

// Set updates a scalar parameter by dotted name.
func (v *Values) Set(name string, x float64) error {
	f, err := v.field(name)
	if err != nil {
		return err
	}
	*f = x
	return nil
}

// Get reads a scalar parameter by dotted name.
func (v *Values) Get(name string) (float64, error) {
	f, err := v.field(name)
	if err != nil {
		return 0, err
	}
	return *f, nil
}

func (v *Values) field(name string) (*float64, error) {
	switch name {
	case "capacity":
		return &v.Capacity, nil
	case "series_resistance":
		return &v.SeriesResistance, nil
	case "lower_voltage_cutoff":
		return &v.LowerVoltage, nil
	case "upper_voltage_cutoff":
		return &v.UpperVoltage, nil
	case "initial_soc":
		return &v.InitialSOC, nil
	case "negative_electrode.c_max":
		return &v.Neg.CMax, nil
	case "negative_electrode.diffusivity":
		return &v.Neg.Diffusivity, nil
	case "negative_electrode.particle_radius":
		return &v.Neg.Radius, nil
	case "negative_electrode.interfacial_area":
		return &v.Neg.Surface, nil
	case "negative_electrode.exchange_coeff":
		return &v.Neg.J0, nil
	case "positive_electrode.c_max":
		return &v.Pos.CMax, nil
	case "positive_electrode.diffusivity":
		return &v.Pos.Diffusivity, nil
	case "positive_electrode.particle_radius":
		return &v.Pos.Radius, nil
	case "positive_electrode.interfacial_area":
		return &v.Pos.Surface, nil
	case "positive_electrode.exchange_coeff":
		return &v.Pos.J0, nil
	case "electrolyte.initial_concentration":
		return &v.Electrolyte.C0, nil
	case "electrolyte.diffusivity":
		return &v.Electrolyte.Diffusivity, nil
	case "electrolyte.transference_number":
		return &v.Electrolyte.TransferenceNumber, nil
	case "electrolyte.resistance":
		return &v.Electrolyte.Resistance, nil
	case "electrolyte.exchange_time":
		return &v.Electrolyte.ExchangeTime, nil
	case "electrolyte.region_volume":
		return &v.Electrolyte.Volume, nil
	case "thermal.ambient":
		return &v.Thermal.Ambient, nil
	case "thermal.heat_capacity":
		return &v.Thermal.HeatCapacity, nil
	case "thermal.cooling_coefficient":
		return &v.Thermal.CoolingCoefficient, nil
	case "sei.rate_constant":
		return &v.SEI.RateConstant, nil
	case "sei.resistivity":
		return &v.SEI.Resistivity, nil
	case "sei.initial_thickness":
		return &v.SEI.InitialThickness, nil
	case "sei.molar_volume":
		return &v.SEI.MolarVolume, nil
	case "circuit.r0":
		return &v.Circuit.R0, nil
	case "circuit.r1":
		return &v.Circuit.R1, nil
	case "circuit.c1":
		return &v.Circuit.C1, nil
	default:
		return nil, fmt.Errorf("params: unknown parameter %q", name)
	}
}

// Load reads a YAML override file. The file must name a known chemistry;
// scalar values present in the file override the preset.
func Load(path string) (*Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probe struct {
		Chemistry string `yaml:"chemistry"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("params: parse %s: %w", path, err)
	}
	if probe.Chemistry == "" {
		return nil, fmt.Errorf("params: %s does not name a chemistry", path)
	}
	v, err := New(probe.Chemistry)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("params: parse %s: %w", path, err)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Save writes the scalar parameters to a YAML file.
func Save(path string, v *Values) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
