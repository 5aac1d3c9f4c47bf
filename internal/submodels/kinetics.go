package submodels

import (
	"math"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// stoFloor keeps exchange current densities away from zero at the
// stoichiometry extremes.
const stoFloor = 1e-6

func exchangeCurrent(el params.Electrode, sto float64) float64 {
	x := sto
	if x < stoFloor {
		x = stoFloor
	}
	if x > 1-stoFloor {
		x = 1 - stoFloor
	}
	return el.J0 * math.Sqrt(x*(1-x))
}

// ButlerVolmer computes electrode overpotentials with the symmetric
// Butler-Volmer relation in its asinh form.
type ButlerVolmer struct{}

func NewButlerVolmer() *ButlerVolmer { return &ButlerVolmer{} }

func (b *ButlerVolmer) Domain() string          { return cell.DomainCell }
func (b *ButlerVolmer) States() []cell.StateVar { return nil }

func (b *ButlerVolmer) Register(reg *cell.Registry) error {
	return registerKinetics(reg, func(j, j0, thermal float64) float64 {
		return 2 * thermal * math.Asinh(j/(2*j0))
	})
}

func (b *ButlerVolmer) RHS() map[string]cell.RHSFunc { return nil }

// LinearKinetics is the small-overpotential linearization of Butler-Volmer.
type LinearKinetics struct{}

func NewLinearKinetics() *LinearKinetics { return &LinearKinetics{} }

func (l *LinearKinetics) Domain() string          { return cell.DomainCell }
func (l *LinearKinetics) States() []cell.StateVar { return nil }

func (l *LinearKinetics) Register(reg *cell.Registry) error {
	return registerKinetics(reg, func(j, j0, thermal float64) float64 {
		return thermal * j / j0
	})
}

func (l *LinearKinetics) RHS() map[string]cell.RHSFunc { return nil }

// registerKinetics declares exchange current densities and overpotentials
// for both electrodes, with eta(j, j0, RT/F) supplied by the caller.
func registerKinetics(reg *cell.Registry, eta func(j, j0, thermal float64) float64) error {
	deps := []string{
		"negative electrode interfacial current density",
		"positive electrode interfacial current density",
		"negative electrode stoichiometry",
		"positive electrode stoichiometry",
		"cell temperature",
	}
	if err := reg.Require(deps...); err != nil {
		return err
	}

	for _, domain := range []string{cell.DomainNegative, cell.DomainPositive} {
		pre := prefix(domain)
		d := domain
		if err := reg.Declare(pre+" electrode exchange current density", func(e *cell.Eval) ([]float64, error) {
			sto, err := e.Scalar(prefix(d) + " electrode stoichiometry")
			if err != nil {
				return nil, err
			}
			return []float64{exchangeCurrent(electrode(e.P, d), sto)}, nil
		}); err != nil {
			return err
		}
		if err := reg.Declare(pre+" electrode overpotential", func(e *cell.Eval) ([]float64, error) {
			j, err := e.Scalar(prefix(d) + " electrode interfacial current density")
			if err != nil {
				return nil, err
			}
			j0, err := e.Scalar(prefix(d) + " electrode exchange current density")
			if err != nil {
				return nil, err
			}
			t, err := e.Scalar("cell temperature")
			if err != nil {
				return nil, err
			}
			thermal := params.GasR * t / params.Faraday
			return []float64{eta(j, j0, thermal)}, nil
		}); err != nil {
			return err
		}
	}
	return nil
}
