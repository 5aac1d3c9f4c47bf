package params

import (
	"fmt"
	"math"
	"sort"
)

// graphiteOCP is a smooth fit for a graphite negative electrode.
func graphiteOCP(sto float64) float64 {
	return 0.07 + 0.7*math.Exp(-80*sto) + 0.04*(1-math.Tanh((sto-0.6)/0.1))
}

// nmcOCP is a smooth fit for a layered-oxide positive electrode.
func nmcOCP(sto float64) float64 {
	return 4.55 - 1.45*sto + 0.05*math.Tanh((0.4-sto)/0.1)
}

// lfpOCP has the characteristic flat plateau of iron phosphate.
func lfpOCP(sto float64) float64 {
	return 3.42 + 0.2*math.Exp(-40*sto) - 0.25*math.Exp(-40*(1-sto))
}

var chemistries = map[string]func() *Values{
	"nmc-graphite": func() *Values {
		return &Values{
			Chemistry:        "nmc-graphite",
			Capacity:         5.0,
			SeriesResistance: 0.01,
			LowerVoltage:     2.8,
			UpperVoltage:     4.25,
			InitialSOC:       1.0,
			Neg: Electrode{
				CMax:        33133,
				Diffusivity: 3.3e-14,
				Radius:      5.86e-6,
				Surface:     1.2,
				J0:          2.7,
				Sto0:        0.03,
				Sto100:      0.90,
			},
			Pos: Electrode{
				CMax:        63104,
				Diffusivity: 4.0e-15,
				Radius:      5.22e-6,
				Surface:     1.0,
				J0:          3.4,
				Sto0:        0.87,
				Sto100:      0.27,
			},
			Electrolyte: Electrolyte{
				C0:                 1000,
				Diffusivity:        1.8e-10,
				TransferenceNumber: 0.36,
				Resistance:         0.006,
				ExchangeTime:       80,
				Volume:             1.1e-5,
			},
			Thermal: Thermal{
				Ambient:            298.15,
				HeatCapacity:       95,
				CoolingCoefficient: 0.35,
			},
			SEI: SEI{
				RateConstant:     1.5e-16,
				Resistivity:      2.0e5,
				InitialThickness: 5e-9,
				MolarVolume:      9.6e-5,
			},
			Circuit: Circuit{R0: 0.015, R1: 0.012, C1: 2400},
			ocpNeg:  graphiteOCP,
			ocpPos:  nmcOCP,
		}
	},
	"lfp-graphite": func() *Values {
		return &Values{
			Chemistry:        "lfp-graphite",
			Capacity:         2.5,
			SeriesResistance: 0.018,
			LowerVoltage:     2.2,
			UpperVoltage:     3.65,
			InitialSOC:       1.0,
			Neg: Electrode{
				CMax:        31370,
				Diffusivity: 2.0e-14,
				Radius:      4.8e-6,
				Surface:     0.85,
				J0:          1.9,
				Sto0:        0.02,
				Sto100:      0.85,
			},
			Pos: Electrode{
				CMax:        22806,
				Diffusivity: 5.9e-18,
				Radius:      5.0e-8,
				Surface:     3.4,
				J0:          0.9,
				Sto0:        0.92,
				Sto100:      0.08,
			},
			Electrolyte: Electrolyte{
				C0:                 1200,
				Diffusivity:        2.1e-10,
				TransferenceNumber: 0.38,
				Resistance:         0.009,
				ExchangeTime:       95,
				Volume:             6.5e-6,
			},
			Thermal: Thermal{
				Ambient:            298.15,
				HeatCapacity:       60,
				CoolingCoefficient: 0.25,
			},
			SEI: SEI{
				RateConstant:     1.1e-16,
				Resistivity:      2.4e5,
				InitialThickness: 5e-9,
				MolarVolume:      9.6e-5,
			},
			Circuit: Circuit{R0: 0.022, R1: 0.018, C1: 1800},
			ocpNeg:  graphiteOCP,
			ocpPos:  lfpOCP,
		}
	},
}

// New returns the parameter set for a named chemistry.
func New(chemistry string) (*Values, error) {
	fn, ok := chemistries[chemistry]
	if !ok {
		return nil, fmt.Errorf("params: unknown chemistry %q (available: %v)", chemistry, Chemistries())
	}
	return fn(), nil
}

// Default returns the nmc-graphite parameter set.
func Default() *Values {
	v, _ := New("nmc-graphite")
	return v
}

// Chemistries lists the built-in parameter sets.
func Chemistries() []string {
	names := make([]string, 0, len(chemistries))
	for name := range chemistries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
