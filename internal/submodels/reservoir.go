package submodels

import (
	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// SOCReservoir is the charge-bookkeeping half of the equivalent-circuit
// model: the cell is a well-mixed reservoir whose state of charge is
// depleted coulomb by coulomb, plus one RC relaxation branch.
type SOCReservoir struct{}

func NewSOCReservoir() *SOCReservoir { return &SOCReservoir{} }

func (s *SOCReservoir) Domain() string { return cell.DomainCell }

func (s *SOCReservoir) States() []cell.StateVar {
	return []cell.StateVar{
		{
			Name: "state of charge",
			Size: 1,
			Initial: func(p *params.Values) []float64 {
				return []float64{p.InitialSOC}
			},
		},
		{
			Name: "rc branch voltage",
			Size: 1,
			Initial: func(p *params.Values) []float64 {
				return []float64{0}
			},
		},
	}
}

func (s *SOCReservoir) Register(reg *cell.Registry) error {
	return reg.Require("state of charge", "rc branch voltage")
}

func (s *SOCReservoir) RHS() map[string]cell.RHSFunc {
	return map[string]cell.RHSFunc{
		"state of charge": func(e *cell.Eval) ([]float64, error) {
			return []float64{-e.Current / (3600 * e.P.Capacity)}, nil
		},
		"rc branch voltage": func(e *cell.Eval) ([]float64, error) {
			vrc, err := e.Scalar("rc branch voltage")
			if err != nil {
				return nil, err
			}
			c := e.P.Circuit
			return []float64{e.Current/c.C1 - vrc/(c.R1*c.C1)}, nil
		},
	}
}

// CircuitVoltage closes the equivalent-circuit model: terminal voltage is
// the open-circuit voltage at the reservoir's state of charge minus the
// ohmic and RC drops.
type CircuitVoltage struct{}

func NewCircuitVoltage() *CircuitVoltage { return &CircuitVoltage{} }

func (c *CircuitVoltage) Domain() string          { return cell.DomainCell }
func (c *CircuitVoltage) States() []cell.StateVar { return nil }

func (c *CircuitVoltage) Register(reg *cell.Registry) error {
	if err := reg.Require("state of charge", "rc branch voltage"); err != nil {
		return err
	}
	if err := reg.Declare("open-circuit voltage", func(e *cell.Eval) ([]float64, error) {
		soc, err := e.Scalar("state of charge")
		if err != nil {
			return nil, err
		}
		return []float64{e.P.OCV(soc)}, nil
	}); err != nil {
		return err
	}
	if err := reg.Declare("terminal voltage", func(e *cell.Eval) ([]float64, error) {
		ocv, err := e.Scalar("open-circuit voltage")
		if err != nil {
			return nil, err
		}
		vrc, err := e.Scalar("rc branch voltage")
		if err != nil {
			return nil, err
		}
		return []float64{ocv - vrc - e.Current*e.P.Circuit.R0}, nil
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

func (c *CircuitVoltage) RHS() map[string]cell.RHSFunc { return nil }

func (c *CircuitVoltage) Events() []cell.Event {
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
