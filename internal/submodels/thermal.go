package submodels

import (
	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// Isothermal holds the cell at ambient temperature with zero heat source.
type Isothermal struct{}

func NewIsothermal() *Isothermal { return &Isothermal{} }

func (i *Isothermal) Domain() string          { return cell.DomainCell }
func (i *Isothermal) States() []cell.StateVar { return nil }

func (i *Isothermal) Register(reg *cell.Registry) error {
	if err := reg.Declare("cell temperature", func(e *cell.Eval) ([]float64, error) {
		return []float64{e.P.Thermal.Ambient}, nil
	}); err != nil {
		return err
	}
	// Temperature is constant, so the heat source is identically zero.
	return reg.Declare("heat source", func(e *cell.Eval) ([]float64, error) {
		return []float64{0}, nil
	})
}

func (i *Isothermal) RHS() map[string]cell.RHSFunc { return nil }

// LumpedThermal evolves a single cell temperature with irreversible
// (ohmic plus reaction) heating and Newton cooling to ambient.
type LumpedThermal struct{}

func NewLumpedThermal() *LumpedThermal { return &LumpedThermal{} }

func (l *LumpedThermal) Domain() string { return cell.DomainCell }

func (l *LumpedThermal) States() []cell.StateVar {
	return []cell.StateVar{
		{
			Name: "cell temperature",
			Size: 1,
			Initial: func(p *params.Values) []float64 {
				return []float64{p.Thermal.Ambient}
			},
		},
	}
}

func (l *LumpedThermal) Register(reg *cell.Registry) error {
	deps := []string{
		"negative electrode overpotential",
		"positive electrode overpotential",
		"sei resistance",
	}
	if err := reg.Require(deps...); err != nil {
		return err
	}
	return reg.Declare("heat source", func(e *cell.Eval) ([]float64, error) {
		etaN, err := e.Scalar("negative electrode overpotential")
		if err != nil {
			return nil, err
		}
		etaP, err := e.Scalar("positive electrode overpotential")
		if err != nil {
			return nil, err
		}
		rSEI, err := e.Scalar("sei resistance")
		if err != nil {
			return nil, err
		}
		i := e.Current
		r := e.P.SeriesResistance + e.P.Electrolyte.Resistance + rSEI
		// i*eta is non-negative for each electrode in both current
		// directions, as is the ohmic term.
		q := i*etaN - i*etaP + i*i*r
		return []float64{q}, nil
	})
}

func (l *LumpedThermal) RHS() map[string]cell.RHSFunc {
	return map[string]cell.RHSFunc{
		"cell temperature": func(e *cell.Eval) ([]float64, error) {
			t, err := e.Scalar("cell temperature")
			if err != nil {
				return nil, err
			}
			q, err := e.Scalar("heat source")
			if err != nil {
				return nil, err
			}
			th := e.P.Thermal
			return []float64{(q - th.CoolingCoefficient*(t-th.Ambient)) / th.HeatCapacity}, nil
		},
	}
}
