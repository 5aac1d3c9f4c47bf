package submodels

import (
	"math"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// NoSEI keeps the interphase film at its initial thickness.
type NoSEI struct{}

func NewNoSEI() *NoSEI { return &NoSEI{} }

func (n *NoSEI) Domain() string          { return cell.DomainNegative }
func (n *NoSEI) States() []cell.StateVar { return nil }

func (n *NoSEI) Register(reg *cell.Registry) error {
	if err := reg.Declare("sei thickness", func(e *cell.Eval) ([]float64, error) {
		return []float64{e.P.SEI.InitialThickness}, nil
	}); err != nil {
		return err
	}
	return reg.Declare("sei resistance", func(e *cell.Eval) ([]float64, error) {
		return []float64{seiResistance(e.P, e.P.SEI.InitialThickness)}, nil
	})
}

func (n *NoSEI) RHS() map[string]cell.RHSFunc { return nil }

// seiResistance converts film thickness to a lumped series resistance
// over the negative electrode surface.
func seiResistance(p *params.Values, thickness float64) float64 {
	return p.SEI.Resistivity * thickness / p.Neg.Surface
}

// ReactionLimitedSEI grows the film in proportion to the plating-direction
// interfacial current on the negative electrode, adding series resistance
// as it thickens. Growth only occurs while charging. The lithium consumed
// by film growth is split off the interfacial current, so the negative
// particle intercalates the remainder and cyclable lithium is lost.
type ReactionLimitedSEI struct{}

func NewReactionLimitedSEI() *ReactionLimitedSEI { return &ReactionLimitedSEI{} }

func (r *ReactionLimitedSEI) Domain() string { return cell.DomainNegative }

func (r *ReactionLimitedSEI) States() []cell.StateVar {
	return []cell.StateVar{
		{
			Name: "sei thickness",
			Size: 1,
			Initial: func(p *params.Values) []float64 {
				return []float64{p.SEI.InitialThickness}
			},
		},
	}
}

// seiCurrent is the side-reaction component of the interfacial current
// density. Charging drives j negative at the negative electrode; the film
// consumes lithium in the same direction.
func seiCurrent(p *params.Values, j float64) float64 {
	growth := p.SEI.RateConstant * math.Max(-j, 0)
	return -params.Faraday * growth / p.SEI.MolarVolume
}

func (r *ReactionLimitedSEI) Register(reg *cell.Registry) error {
	if err := reg.Require("sei thickness", "negative electrode interfacial current density"); err != nil {
		return err
	}
	if err := reg.Declare("sei resistance", func(e *cell.Eval) ([]float64, error) {
		l, err := e.Scalar("sei thickness")
		if err != nil {
			return nil, err
		}
		return []float64{seiResistance(e.P, l)}, nil
	}); err != nil {
		return err
	}
	if err := reg.Declare("negative electrode sei current density", func(e *cell.Eval) ([]float64, error) {
		j, err := e.Scalar("negative electrode interfacial current density")
		if err != nil {
			return nil, err
		}
		return []float64{seiCurrent(e.P, j)}, nil
	}); err != nil {
		return err
	}
	if err := reg.Declare("negative electrode intercalation current density", func(e *cell.Eval) ([]float64, error) {
		j, err := e.Scalar("negative electrode interfacial current density")
		if err != nil {
			return nil, err
		}
		jSEI, err := e.Scalar("negative electrode sei current density")
		if err != nil {
			return nil, err
		}
		return []float64{j - jSEI}, nil
	}); err != nil {
		return err
	}
	// Cyclable lithium bound in the film since the start of the solve, Ah.
	return reg.Declare("lithium lost to sei", func(e *cell.Eval) ([]float64, error) {
		l, err := e.Scalar("sei thickness")
		if err != nil {
			return nil, err
		}
		moles := e.P.Neg.Surface * (l - e.P.SEI.InitialThickness) / e.P.SEI.MolarVolume
		return []float64{params.Faraday * moles / 3600}, nil
	})
}

func (r *ReactionLimitedSEI) RHS() map[string]cell.RHSFunc {
	return map[string]cell.RHSFunc{
		"sei thickness": func(e *cell.Eval) ([]float64, error) {
			j, err := e.Scalar("negative electrode interfacial current density")
			if err != nil {
				return nil, err
			}
			growth := e.P.SEI.RateConstant * math.Max(-j, 0)
			return []float64{growth}, nil
		},
	}
}
