package submodels

import (
	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// UniformCollector distributes the applied current uniformly over each
// electrode, giving constant interfacial current densities. It also owns
// the discharge-capacity counter.
type UniformCollector struct{}

func NewUniformCollector() *UniformCollector { return &UniformCollector{} }

func (c *UniformCollector) Domain() string { return cell.DomainCell }

func (c *UniformCollector) States() []cell.StateVar {
	return []cell.StateVar{
		{
			Name: "discharge capacity",
			Size: 1,
			Initial: func(p *params.Values) []float64 {
				return []float64{0}
			},
		},
	}
}

func (c *UniformCollector) Register(reg *cell.Registry) error {
	if err := reg.Declare("negative electrode interfacial current density", func(e *cell.Eval) ([]float64, error) {
		return []float64{e.Current / e.P.Neg.Surface}, nil
	}); err != nil {
		return err
	}
	return reg.Declare("positive electrode interfacial current density", func(e *cell.Eval) ([]float64, error) {
		return []float64{-e.Current / e.P.Pos.Surface}, nil
	})
}

func (c *UniformCollector) RHS() map[string]cell.RHSFunc {
	return map[string]cell.RHSFunc{
		"discharge capacity": func(e *cell.Eval) ([]float64, error) {
			return []float64{e.Current / 3600.0}, nil
		},
	}
}
