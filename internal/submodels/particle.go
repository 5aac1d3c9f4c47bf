package submodels

import (
	"math"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// FickianParticle models radial lithium diffusion in a representative
// spherical particle with a finite-volume discretization of N shells.
// The surface flux is set by the electrode's interfacial current density.
type FickianParticle struct {
	domain string
	shells int
}

func NewFickianParticle(domain string, shells int) *FickianParticle {
	if shells < 2 {
		shells = 2
	}
	return &FickianParticle{domain: domain, shells: shells}
}

func (f *FickianParticle) Domain() string { return f.domain }

func (f *FickianParticle) concName() string {
	return prefix(f.domain) + " particle concentration"
}

func (f *FickianParticle) States() []cell.StateVar {
	return []cell.StateVar{
		{
			Name: f.concName(),
			Size: f.shells,
			Initial: func(p *params.Values) []float64 {
				el := electrode(p, f.domain)
				c0 := el.CMax * el.StoAt(p.InitialSOC)
				c := make([]float64, f.shells)
				for i := range c {
					c[i] = c0
				}
				return c
			},
		},
	}
}

func (f *FickianParticle) Register(reg *cell.Registry) error {
	pre := prefix(f.domain)
	jName := pre + " electrode interfacial current density"
	if err := reg.Require(f.concName(), jName); err != nil {
		return err
	}

	// Surface value extrapolated from the outer shell using the flux
	// boundary condition dc/dr = -j/(F D) at r = R.
	if err := reg.Declare(pre+" particle surface concentration", func(e *cell.Eval) ([]float64, error) {
		c, err := e.Var(f.concName())
		if err != nil {
			return nil, err
		}
		j, err := particleCurrent(e, pre)
		if err != nil {
			return nil, err
		}
		el := electrode(e.P, f.domain)
		dr := el.Radius / float64(f.shells)
		surf := c[f.shells-1] - 0.5*dr*j/(params.Faraday*el.Diffusivity)
		return []float64{surf}, nil
	}); err != nil {
		return err
	}

	return reg.Declare(pre+" electrode stoichiometry", func(e *cell.Eval) ([]float64, error) {
		surf, err := e.Scalar(pre + " particle surface concentration")
		if err != nil {
			return nil, err
		}
		return []float64{surf / electrode(e.P, f.domain).CMax}, nil
	})
}

func (f *FickianParticle) RHS() map[string]cell.RHSFunc {
	pre := prefix(f.domain)
	return map[string]cell.RHSFunc{
		f.concName(): func(e *cell.Eval) ([]float64, error) {
			c, err := e.Var(f.concName())
			if err != nil {
				return nil, err
			}
			j, err := particleCurrent(e, pre)
			if err != nil {
				return nil, err
			}
			el := electrode(e.P, f.domain)
			n := f.shells
			dr := el.Radius / float64(n)

			// Outward molar flux at each shell face. Face i sits at r = i*dr;
			// the center face carries no flux, the surface face carries j/F.
			flux := make([]float64, n+1)
			for i := 1; i < n; i++ {
				flux[i] = -el.Diffusivity * (c[i] - c[i-1]) / dr
			}
			flux[n] = j / params.Faraday

			dcdt := make([]float64, n)
			for i := 0; i < n; i++ {
				rIn := float64(i) * dr
				rOut := float64(i+1) * dr
				vol := (rOut*rOut*rOut - rIn*rIn*rIn) / 3.0
				dcdt[i] = -(rOut*rOut*flux[i+1] - rIn*rIn*flux[i]) / vol
			}
			return dcdt, nil
		},
	}
}

// TotalLithium integrates the shell concentrations over the particle
// volume, normalized by the particle volume. Used for conservation checks.
func (f *FickianParticle) TotalLithium(c []float64, el params.Electrode) float64 {
	if len(c) != f.shells {
		return math.NaN()
	}
	dr := el.Radius / float64(f.shells)
	sum := 0.0
	for i := 0; i < f.shells; i++ {
		rIn := float64(i) * dr
		rOut := float64(i+1) * dr
		sum += c[i] * (rOut*rOut*rOut - rIn*rIn*rIn)
	}
	r3 := el.Radius * el.Radius * el.Radius
	return sum / r3
}

// UniformParticle is the fast-diffusion limit: a single concentration per
// electrode, depleted directly by the interfacial current.
type UniformParticle struct {
	domain string
}

func NewUniformParticle(domain string) *UniformParticle {
	return &UniformParticle{domain: domain}
}

func (u *UniformParticle) Domain() string { return u.domain }

func (u *UniformParticle) concName() string {
	return prefix(u.domain) + " particle concentration"
}

func (u *UniformParticle) States() []cell.StateVar {
	return []cell.StateVar{
		{
			Name: u.concName(),
			Size: 1,
			Initial: func(p *params.Values) []float64 {
				el := electrode(p, u.domain)
				return []float64{el.CMax * el.StoAt(p.InitialSOC)}
			},
		},
	}
}

func (u *UniformParticle) Register(reg *cell.Registry) error {
	pre := prefix(u.domain)
	if err := reg.Require(u.concName()); err != nil {
		return err
	}
	if err := reg.Declare(pre+" particle surface concentration", func(e *cell.Eval) ([]float64, error) {
		c, err := e.Var(u.concName())
		if err != nil {
			return nil, err
		}
		return []float64{c[0]}, nil
	}); err != nil {
		return err
	}
	return reg.Declare(pre+" electrode stoichiometry", func(e *cell.Eval) ([]float64, error) {
		c, err := e.Var(u.concName())
		if err != nil {
			return nil, err
		}
		return []float64{c[0] / electrode(e.P, u.domain).CMax}, nil
	})
}

func (u *UniformParticle) RHS() map[string]cell.RHSFunc {
	pre := prefix(u.domain)
	return map[string]cell.RHSFunc{
		u.concName(): func(e *cell.Eval) ([]float64, error) {
			j, err := particleCurrent(e, pre)
			if err != nil {
				return nil, err
			}
			el := electrode(e.P, u.domain)
			// Spherical particles: volume/surface = R/3.
			return []float64{-3 * j / (el.Radius * params.Faraday)}, nil
		},
	}
}
