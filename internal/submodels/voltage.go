package submodels

import (
	"github.com/voltlab/battsim/internal/cell"
)

// TerminalVoltage assembles the cell voltage from open-circuit potentials,
// electrode overpotentials, film and series resistances, and the
// electrolyte voltage loss. It contributes the voltage cutoff events.
type TerminalVoltage struct{}

func NewTerminalVoltage() *TerminalVoltage { return &TerminalVoltage{} }

func (v *TerminalVoltage) Domain() string          { return cell.DomainCell }
func (v *TerminalVoltage) States() []cell.StateVar { return nil }

func (v *TerminalVoltage) Register(reg *cell.Registry) error {
	deps := []string{
		"negative electrode stoichiometry",
		"positive electrode stoichiometry",
		"negative electrode overpotential",
		"positive electrode overpotential",
		"electrolyte voltage loss",
		"sei resistance",
	}
	if err := reg.Require(deps...); err != nil {
		return err
	}

	for _, domain := range []string{cell.DomainNegative, cell.DomainPositive} {
		d := domain
		if err := reg.Declare(prefix(d)+" electrode open-circuit potential", func(e *cell.Eval) ([]float64, error) {
			sto, err := e.Scalar(prefix(d) + " electrode stoichiometry")
			if err != nil {
				return nil, err
			}
			return []float64{ocp(e.P, d, sto)}, nil
		}); err != nil {
			return err
		}
	}

	if err := reg.Declare("open-circuit voltage", func(e *cell.Eval) ([]float64, error) {
		un, err := e.Scalar("negative electrode open-circuit potential")
		if err != nil {
			return nil, err
		}
		up, err := e.Scalar("positive electrode open-circuit potential")
		if err != nil {
			return nil, err
		}
		return []float64{up - un}, nil
	}); err != nil {
		return err
	}

	if err := reg.Declare("terminal voltage", func(e *cell.Eval) ([]float64, error) {
		ocv, err := e.Scalar("open-circuit voltage")
		if err != nil {
			return nil, err
		}
		etaN, err := e.Scalar("negative electrode overpotential")
		if err != nil {
			return nil, err
		}
		etaP, err := e.Scalar("positive electrode overpotential")
		if err != nil {
			return nil, err
		}
		loss, err := e.Scalar("electrolyte voltage loss")
		if err != nil {
			return nil, err
		}
		rSEI, err := e.Scalar("sei resistance")
		if err != nil {
			return nil, err
		}
		vT := ocv + etaP - etaN - loss - e.Current*(e.P.SeriesResistance+rSEI)
		return []float64{vT}, nil
	}); err != nil {
		return err
	}

	return reg.Declare("terminal power", func(e *cell.Eval) ([]float64, error) {
		vT, err := e.Scalar("terminal voltage")
		if err != nil {
			return nil, err
		}
		return []float64{vT * e.Current}, nil
	})
}

func (v *TerminalVoltage) RHS() map[string]cell.RHSFunc { return nil }

func (v *TerminalVoltage) Events() []cell.Event {
	return []cell.Event{
		{
			Name: "minimum voltage cutoff",
			F: func(e *cell.Eval) (float64, error) {
				vT, err := e.Scalar("terminal voltage")
				if err != nil {
					return 0, err
				}
				return vT - e.P.LowerVoltage, nil
			},
		},
		{
			Name: "maximum voltage cutoff",
			F: func(e *cell.Eval) (float64, error) {
				vT, err := e.Scalar("terminal voltage")
				if err != nil {
					return 0, err
				}
				return e.P.UpperVoltage - vT, nil
			},
		},
	}
}
