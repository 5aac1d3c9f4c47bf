package submodels

import (
	"errors"
	"fmt"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// prefix maps an electrode domain to the naming prefix of its variables.
func prefix(domain string) string {
	switch domain {
	case cell.DomainNegative:
		return "negative"
	case cell.DomainPositive:
		return "positive"
	default:
		panic(fmt.Sprintf("submodels: %q is not an electrode domain", domain))
	}
}

// electrode picks the parameter block for an electrode domain.
func electrode(p *params.Values, domain string) params.Electrode {
	if domain == cell.DomainPositive {
		return p.Pos
	}
	return p.Neg
}

// particleCurrent resolves the current density actually entering the
// particle. A film side reaction splits off part of the interfacial
// current; without one the two are identical.
func particleCurrent(e *cell.Eval, pre string) (float64, error) {
	j, err := e.Scalar(pre + " electrode intercalation current density")
	if err == nil {
		return j, nil
	}
	if errors.Is(err, cell.ErrUnknownVariable) {
		return e.Scalar(pre + " electrode interfacial current density")
	}
	return 0, err
}

// ocp picks the open-circuit potential fit for an electrode domain.
func ocp(p *params.Values, domain string, sto float64) float64 {
	if domain == cell.DomainPositive {
		return p.OCPPositive(sto)
	}
	return p.OCPNegative(sto)
}
