package solution

import (
	"fmt"
	"math"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/params"
)

// Solution holds the sampled trajectory of one solve, with access to the
// model's output variables at every sample.
type Solution struct {
	Times    []float64
	States   []cell.State
	Currents []float64

	// Termination names the event that ended the solve, or "final time".
	Termination string

	Model     string
	Chemistry string

	reg *cell.Registry
	p   *params.Values
}

func New(reg *cell.Registry, p *params.Values) *Solution {
	return &Solution{reg: reg, p: p}
}

func (s *Solution) Registry() *cell.Registry { return s.reg }
func (s *Solution) Params() *params.Values   { return s.p }

func (s *Solution) Append(t float64, y cell.State, current float64) {
	s.Times = append(s.Times, t)
	s.States = append(s.States, y)
	s.Currents = append(s.Currents, current)
}

func (s *Solution) Len() int { return len(s.Times) }

func (s *Solution) FinalTime() float64 {
	if len(s.Times) == 0 {
		return 0
	}
	return s.Times[len(s.Times)-1]
}

func (s *Solution) FinalState() cell.State {
	if len(s.States) == 0 {
		return nil
	}
	return s.States[len(s.States)-1]
}

// Variable extracts a scalar output variable as a time series.
func (s *Solution) Variable(name string) ([]float64, error) {
	if s.Len() == 0 {
		return nil, cell.ErrEmptySolution
	}
	if !s.reg.Has(name) {
		return nil, fmt.Errorf("%w: %q", cell.ErrUnknownVariable, name)
	}
	out := make([]float64, s.Len())
	for i := range s.Times {
		e := cell.NewEval(s.reg, s.p, s.Times[i], s.States[i], s.Currents[i])
		v, err := e.Scalar(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Vector extracts a vector-valued output variable at every sample.
func (s *Solution) Vector(name string) ([][]float64, error) {
	if s.Len() == 0 {
		return nil, cell.ErrEmptySolution
	}
	if !s.reg.Has(name) {
		return nil, fmt.Errorf("%w: %q", cell.ErrUnknownVariable, name)
	}
	out := make([][]float64, s.Len())
	for i := range s.Times {
		e := cell.NewEval(s.reg, s.p, s.Times[i], s.States[i], s.Currents[i])
		v, err := e.Var(name)
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(v))
		copy(row, v)
		out[i] = row
	}
	return out, nil
}

// At linearly interpolates the state vector at time t.
func (s *Solution) At(t float64) (cell.State, error) {
	if s.Len() == 0 {
		return nil, cell.ErrEmptySolution
	}
	if t <= s.Times[0] {
		return s.States[0].Clone(), nil
	}
	last := len(s.Times) - 1
	if t >= s.Times[last] {
		return s.States[last].Clone(), nil
	}
	hi := 1
	for s.Times[hi] < t {
		hi++
	}
	lo := hi - 1
	span := s.Times[hi] - s.Times[lo]
	if span <= 0 {
		return s.States[hi].Clone(), nil
	}
	w := (t - s.Times[lo]) / span
	y := make(cell.State, len(s.States[lo]))
	for i := range y {
		y[i] = (1-w)*s.States[lo][i] + w*s.States[hi][i]
	}
	return y, nil
}

// Extend appends another solution's samples, shifting nothing: the other
// solution must continue in time where this one ends.
func (s *Solution) Extend(other *Solution) error {
	if other.Len() == 0 {
		return nil
	}
	if s.Len() > 0 && other.Times[0] < s.FinalTime() {
		return fmt.Errorf("battsim: cannot extend solution: time goes backwards (%.4f < %.4f)",
			other.Times[0], s.FinalTime())
	}
	// Drop the duplicated junction sample.
	start := 0
	if s.Len() > 0 && other.Times[0] == s.FinalTime() {
		start = 1
	}
	s.Times = append(s.Times, other.Times[start:]...)
	s.States = append(s.States, other.States[start:]...)
	s.Currents = append(s.Currents, other.Currents[start:]...)
	s.Termination = other.Termination
	return nil
}

// Summary computes headline scalars for reporting.
func (s *Solution) Summary() (map[string]float64, error) {
	if s.Len() == 0 {
		return nil, cell.ErrEmptySolution
	}
	out := map[string]float64{
		"duration": s.FinalTime() - s.Times[0],
	}
	if s.reg.Has("terminal voltage") {
		v, err := s.Variable("terminal voltage")
		if err != nil {
			return nil, err
		}
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, x := range v {
			minV = math.Min(minV, x)
			maxV = math.Max(maxV, x)
		}
		out["final voltage"] = v[len(v)-1]
		out["minimum voltage"] = minV
		out["maximum voltage"] = maxV

		// Trapezoidal energy throughput in watt hours.
		energy := 0.0
		for i := 1; i < s.Len(); i++ {
			p0 := v[i-1] * s.Currents[i-1]
			p1 := v[i] * s.Currents[i]
			energy += 0.5 * (p0 + p1) * (s.Times[i] - s.Times[i-1])
		}
		out["energy"] = energy / 3600
	}
	if s.reg.Has("discharge capacity") {
		q, err := s.Variable("discharge capacity")
		if err != nil {
			return nil, err
		}
		out["discharge capacity"] = q[len(q)-1]
	}
	return out, nil
}
