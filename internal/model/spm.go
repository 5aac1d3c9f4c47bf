package model

import (
	"fmt"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/submodels"
)

func particleFor(domain, kind string, shells int) cell.Submodel {
	if kind == "uniform" {
		return submodels.NewUniformParticle(domain)
	}
	return submodels.NewFickianParticle(domain, shells)
}

func thermalFor(kind string) cell.Submodel {
	if kind == "lumped" {
		return submodels.NewLumpedThermal()
	}
	return submodels.NewIsothermal()
}

func electrolyteFor(kind string) cell.Submodel {
	if kind == "dilute" {
		return submodels.NewDiluteElectrolyte()
	}
	return submodels.NewConstantElectrolyte()
}

func kineticsFor(kind string) cell.Submodel {
	if kind == "linear" {
		return submodels.NewLinearKinetics()
	}
	return submodels.NewButlerVolmer()
}

func seiFor(kind string) cell.Submodel {
	if kind == "reaction-limited" {
		return submodels.NewReactionLimitedSEI()
	}
	return submodels.NewNoSEI()
}

func newElectrochemical(name, defaultElectrolyte string, opts []Option) (*Model, error) {
	cfg := newConfig()
	for _, o := range opts {
		o(cfg)
	}
	if err := cfg.options.validate(); err != nil {
		return nil, err
	}
	if cfg.shells < 2 {
		return nil, fmt.Errorf("battsim: particle shells must be at least 2, got %d", cfg.shells)
	}

	particle := cfg.options.get("particle", "fickian")
	m := &Model{
		name:    name,
		Options: cfg.options,
		Submodels: map[string]cell.Submodel{
			"negative particle": particleFor(cell.DomainNegative, particle, cfg.shells),
			"positive particle": particleFor(cell.DomainPositive, particle, cfg.shells),
			"current collector": submodels.NewUniformCollector(),
			"electrolyte":       electrolyteFor(cfg.options.get("electrolyte", defaultElectrolyte)),
			"kinetics":          kineticsFor(cfg.options.get("kinetics", "butler-volmer")),
			"thermal":           thermalFor(cfg.options.get("thermal", "isothermal")),
			"sei":               seiFor(cfg.options.get("sei", "none")),
			"voltage":           submodels.NewTerminalVoltage(),
		},
	}
	if cfg.deferBuild {
		return m, nil
	}
	if err := m.Build(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewSPM constructs the single particle model: one representative particle
// per electrode, uniform reaction distribution, and a constant-composition
// electrolyte unless overridden.
func NewSPM(opts ...Option) (*Model, error) {
	return newElectrochemical("single particle model", "constant", opts)
}

// NewSPMe is the single particle model with electrolyte dynamics: lumped
// per-region salt concentrations and the resulting concentration
// overpotential.
func NewSPMe(opts ...Option) (*Model, error) {
	return newElectrochemical("single particle model with electrolyte", "dilute", opts)
}

// NewReservoir constructs the equivalent-circuit reservoir model: coulomb
// counting plus one RC branch. Component options do not apply.
func NewReservoir(opts ...Option) (*Model, error) {
	cfg := newConfig()
	for _, o := range opts {
		o(cfg)
	}
	if len(cfg.options) > 0 {
		return nil, fmt.Errorf("%w: reservoir model takes no submodel options", cell.ErrOptionValue)
	}
	m := &Model{
		name:    "reservoir model",
		Options: cfg.options,
		Submodels: map[string]cell.Submodel{
			"reservoir":         submodels.NewSOCReservoir(),
			"current collector": submodels.NewUniformCollector(),
			"voltage":           submodels.NewCircuitVoltage(),
		},
	}
	if cfg.deferBuild {
		return m, nil
	}
	if err := m.Build(); err != nil {
		return nil, err
	}
	return m, nil
}
