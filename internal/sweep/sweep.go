// Package sweep runs a model over a grid of parameter overrides in parallel.
package sweep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/sim"
	"github.com/voltlab/battsim/internal/solver"
)

// Axis is one swept parameter, named by its dotted path in params.Values.
type Axis struct {
	Name   string
	Values []float64
}

// Point is one grid point: parameter name to override value.
type Point map[string]float64

// Grid expands axes into the full cartesian product of points.
func Grid(axes ...Axis) []Point {
	points := []Point{{}}
	for _, ax := range axes {
		next := make([]Point, 0, len(points)*len(ax.Values))
		for _, pt := range points {
			for _, v := range ax.Values {
				np := make(Point, len(pt)+1)
				for k, x := range pt {
					np[k] = x
				}
				np[ax.Name] = v
				next = append(next, np)
			}
		}
		points = next
	}
	return points
}

// Result is the outcome of one grid point.
type Result struct {
	Point   Point
	Summary map[string]float64
	Err     error
}

// Sweep describes the runs to perform. NewModel must return a fresh unbuilt
// model for each point, and NewStepper a fresh stepper, since neither is
// shareable across goroutines.
type Sweep struct {
	NewModel   func() (*model.Model, error)
	NewStepper func() solver.Stepper
	Config     solver.Config
	Base       *params.Values
	Rate       float64
	Span       solver.Span
	Workers    int
}

// Run solves every grid point and returns results in point order. Individual
// run failures are reported per point, not as an overall error.
func (s *Sweep) Run(ctx context.Context, points []Point) ([]Result, error) {
	if s.NewModel == nil {
		return nil, fmt.Errorf("sweep: NewModel is required")
	}
	if s.Base == nil {
		return nil, fmt.Errorf("sweep: base parameters are required")
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(points))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.runOne(ctx, points[idx])
			}
		}()
	}

	for i := range points {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results, nil
}

func (s *Sweep) runOne(ctx context.Context, pt Point) Result {
	res := Result{Point: pt}

	p := *s.Base
	names := make([]string, 0, len(pt))
	for name := range pt {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.Set(name, pt[name]); err != nil {
			res.Err = err
			return res
		}
	}

	m, err := s.NewModel()
	if err != nil {
		res.Err = err
		return res
	}

	var st solver.Stepper = solver.NewRK4()
	if s.NewStepper != nil {
		st = s.NewStepper()
	}

	run := sim.New(m,
		sim.WithParams(&p),
		sim.WithStepper(st),
		sim.WithConfig(s.Config),
	)
	sol, err := run.SolveCRate(ctx, s.Rate, s.Span)
	if err != nil {
		res.Err = err
		return res
	}
	res.Summary, res.Err = sol.Summary()
	return res
}

// Best picks the result minimizing (or maximizing) the named summary metric.
// Failed points are skipped.
func Best(results []Result, metric string, maximize bool) (*Result, error) {
	best := -1
	bestVal := math.Inf(1)
	if maximize {
		bestVal = math.Inf(-1)
	}
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		v, ok := r.Summary[metric]
		if !ok {
			continue
		}
		if (maximize && v > bestVal) || (!maximize && v < bestVal) {
			best = i
			bestVal = v
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("sweep: no successful run reports %q", metric)
	}
	return &results[best], nil
}
