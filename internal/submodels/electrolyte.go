package submodels

import (
	"math"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// ConstantElectrolyte fixes the salt concentration at its initial value;
// the only electrolyte contribution to the voltage is a lumped ohmic drop.
type ConstantElectrolyte struct{}

func NewConstantElectrolyte() *ConstantElectrolyte { return &ConstantElectrolyte{} }

func (c *ConstantElectrolyte) Domain() string          { return cell.DomainSeparator }
func (c *ConstantElectrolyte) States() []cell.StateVar { return nil }

func (c *ConstantElectrolyte) Register(reg *cell.Registry) error {
	if err := reg.Declare("electrolyte concentration", func(e *cell.Eval) ([]float64, error) {
		return []float64{e.P.Electrolyte.C0}, nil
	}); err != nil {
		return err
	}
	return reg.Declare("electrolyte voltage loss", func(e *cell.Eval) ([]float64, error) {
		return []float64{e.Current * e.P.Electrolyte.Resistance}, nil
	})
}

func (c *ConstantElectrolyte) RHS() map[string]cell.RHSFunc { return nil }

// DiluteElectrolyte tracks one lumped salt concentration per electrode
// region, sourced by the interfacial reactions and relaxed toward each
// other by diffusion across the separator. On top of the ohmic drop it
// adds the dilute-solution concentration overpotential.
type DiluteElectrolyte struct{}

func NewDiluteElectrolyte() *DiluteElectrolyte { return &DiluteElectrolyte{} }

func (d *DiluteElectrolyte) Domain() string { return cell.DomainSeparator }

func (d *DiluteElectrolyte) States() []cell.StateVar {
	init := func(p *params.Values) []float64 {
		return []float64{p.Electrolyte.C0}
	}
	return []cell.StateVar{
		{Name: "negative electrolyte concentration", Size: 1, Initial: init},
		{Name: "positive electrolyte concentration", Size: 1, Initial: init},
	}
}

func (d *DiluteElectrolyte) Register(reg *cell.Registry) error {
	deps := []string{
		"negative electrolyte concentration",
		"positive electrolyte concentration",
		"cell temperature",
	}
	if err := reg.Require(deps...); err != nil {
		return err
	}
	if err := reg.Declare("electrolyte concentration", func(e *cell.Eval) ([]float64, error) {
		cn, err := e.Scalar("negative electrolyte concentration")
		if err != nil {
			return nil, err
		}
		cp, err := e.Scalar("positive electrolyte concentration")
		if err != nil {
			return nil, err
		}
		return []float64{0.5 * (cn + cp)}, nil
	}); err != nil {
		return err
	}
	return reg.Declare("electrolyte voltage loss", func(e *cell.Eval) ([]float64, error) {
		cn, err := e.Scalar("negative electrolyte concentration")
		if err != nil {
			return nil, err
		}
		cp, err := e.Scalar("positive electrolyte concentration")
		if err != nil {
			return nil, err
		}
		t, err := e.Scalar("cell temperature")
		if err != nil {
			return nil, err
		}
		el := e.P.Electrolyte
		ohmic := e.Current * el.Resistance
		if cn <= 0 || cp <= 0 {
			return []float64{ohmic}, nil
		}
		thermal := params.GasR * t / params.Faraday
		conc := 2 * thermal * (1 - el.TransferenceNumber) * math.Log(cp/cn)
		return []float64{ohmic - conc}, nil
	})
}

func (d *DiluteElectrolyte) RHS() map[string]cell.RHSFunc {
	source := func(e *cell.Eval, jName string, surface float64) (float64, error) {
		j, err := e.Scalar(jName)
		if err != nil {
			return 0, err
		}
		el := e.P.Electrolyte
		return (1 - el.TransferenceNumber) * j * surface / (params.Faraday * el.Volume), nil
	}
	exchange := func(e *cell.Eval) (float64, error) {
		cn, err := e.Scalar("negative electrolyte concentration")
		if err != nil {
			return 0, err
		}
		cp, err := e.Scalar("positive electrolyte concentration")
		if err != nil {
			return 0, err
		}
		return (cn - cp) / e.P.Electrolyte.ExchangeTime, nil
	}
	return map[string]cell.RHSFunc{
		"negative electrolyte concentration": func(e *cell.Eval) ([]float64, error) {
			src, err := source(e, "negative electrode interfacial current density", e.P.Neg.Surface)
			if err != nil {
				return nil, err
			}
			ex, err := exchange(e)
			if err != nil {
				return nil, err
			}
			return []float64{src - ex}, nil
		},
		"positive electrolyte concentration": func(e *cell.Eval) ([]float64, error) {
			src, err := source(e, "positive electrode interfacial current density", e.P.Pos.Surface)
			if err != nil {
				return nil, err
			}
			ex, err := exchange(e)
			if err != nil {
				return nil, err
			}
			return []float64{src + ex}, nil
		},
	}
}
