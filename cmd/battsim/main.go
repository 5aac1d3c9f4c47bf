package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltlab/battsim/internal/experiment"
	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/plot"
	"github.com/voltlab/battsim/internal/sim"
	"github.com/voltlab/battsim/internal/solution"
	"github.com/voltlab/battsim/internal/solver"
	"github.com/voltlab/battsim/internal/store"
	"github.com/voltlab/battsim/internal/sweep"
	"github.com/voltlab/battsim/internal/tui"
)

var (
	dataDir    string
	chemistry  string
	paramsFile string
	cRate      float64
	duration   float64
	dt         float64
	stepper    string
	adaptive   bool
	shells     int
	options    []string
	overrides  []string
	plotVars   []string
	saveRun    bool
	protoFile  string
	outPath    string
	format     string
	sweepAxes  []string
	metric     string
	maximize   bool
	workers    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "battsim",
		Short: "lithium-ion cell simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".battsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "solve a constant C-rate discharge",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	addSolveFlags(runCmd)
	runCmd.Flags().Float64Var(&cRate, "c-rate", 1.0, "applied C-rate (positive discharges)")
	runCmd.Flags().Float64Var(&duration, "time", 3600, "solve duration in seconds")
	runCmd.Flags().StringSliceVar(&plotVars, "plot", nil, "variables to chart after the solve")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "save the run to the data directory")

	expCmd := &cobra.Command{
		Use:   "experiment [model] [instruction...]",
		Short: "run a cycling protocol",
		Long: `Run a cycling protocol from a TOML file or inline instructions, e.g.

  battsim experiment spm "discharge at 1C until 3.0V" "rest for 10 minutes" "charge at C/2 for 1 hour"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExperiment,
	}
	addSolveFlags(expCmd)
	expCmd.Flags().StringVar(&protoFile, "file", "", "protocol TOML file")
	expCmd.Flags().StringSliceVar(&plotVars, "plot", nil, "variables to chart after the run")
	expCmd.Flags().BoolVar(&saveRun, "save", false, "save the run to the data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "chart a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotVars, "vars", []string{"terminal voltage"}, "variables to chart")
	plotCmd.Flags().IntVar(&shells, "shells", 20, "particle discretization shells")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "output format: json, csv, or html")
	exportCmd.Flags().StringVar(&outPath, "out", "", "output file (default run id plus extension)")
	exportCmd.Flags().StringSliceVar(&plotVars, "vars", []string{"terminal voltage"}, "variables for csv and html output")
	exportCmd.Flags().IntVar(&shells, "shells", 20, "particle discretization shells")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dataDir)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Delete(args[0])
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [model] [stepper...]",
		Short: "solve with several steppers and compare",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareSteppers,
	}
	addSolveFlags(compareCmd)
	compareCmd.Flags().Float64Var(&cRate, "c-rate", 1.0, "applied C-rate")
	compareCmd.Flags().Float64Var(&duration, "time", 3600, "solve duration in seconds")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "interactive live solve",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSolveFlags(liveCmd)
	liveCmd.Flags().Float64Var(&cRate, "c-rate", 1.0, "applied C-rate")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep parameters over a grid",
		Long: `Sweep named parameters over linear ranges, e.g.

  battsim sweep spm --axis negative_electrode.particle_radius=1e-6:10e-6:5 --metric energy --max`,
		Args: cobra.ExactArgs(1),
		RunE: runSweep,
	}
	addSolveFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&cRate, "c-rate", 1.0, "applied C-rate")
	sweepCmd.Flags().Float64Var(&duration, "time", 3600, "solve duration in seconds")
	sweepCmd.Flags().StringSliceVar(&sweepAxes, "axis", nil, "axis as name=lo:hi:count")
	sweepCmd.Flags().StringVar(&metric, "metric", "energy", "summary metric to rank by")
	sweepCmd.Flags().BoolVar(&maximize, "max", false, "maximize the metric instead of minimizing")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all cores)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in chemistries",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range params.Chemistries() {
				p, err := params.New(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-14s %.1f Ah, %.2f-%.2f V\n", name, p.Capacity, p.LowerVoltage, p.UpperVoltage)
			}
			return nil
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info [model]",
		Short: "show a model's components and output variables",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}
	addSolveFlags(infoCmd)

	rootCmd.AddCommand(runCmd, expCmd, listCmd, plotCmd, exportCmd, deleteCmd,
		compareCmd, liveCmd, sweepCmd, presetsCmd, infoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&chemistry, "chemistry", "nmc-graphite", "cell chemistry preset")
	cmd.Flags().StringVar(&paramsFile, "params", "", "parameter YAML file overriding the preset")
	cmd.Flags().Float64Var(&dt, "dt", 1.0, "timestep in seconds")
	cmd.Flags().StringVar(&stepper, "stepper", "rk4", "time stepper")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive stepping (rk45 only)")
	cmd.Flags().IntVar(&shells, "shells", 20, "particle discretization shells")
	cmd.Flags().StringSliceVar(&options, "option", nil, "component option as key=value (thermal, particle, electrolyte, kinetics, sei)")
	cmd.Flags().StringSliceVar(&overrides, "set", nil, "parameter override as name=value")
}

func loadParams() (*params.Values, error) {
	var p *params.Values
	var err error
	if paramsFile != "" {
		p, err = params.Load(paramsFile)
	} else {
		p, err = params.New(chemistry)
	}
	if err != nil {
		return nil, err
	}
	for _, kv := range overrides {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad --set %q, want name=value", kv)
		}
		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("bad --set %q: %w", kv, err)
		}
		if err := p.Set(name, x); err != nil {
			return nil, err
		}
	}
	return p, p.Validate()
}

func modelOptions() ([]model.Option, error) {
	opts := []model.Option{model.WithParticleShells(shells)}
	for _, kv := range options {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad --option %q, want key=value", kv)
		}
		opts = append(opts, model.WithOption(key, val))
	}
	return opts, nil
}

func buildSimulation(modelName string) (*sim.Simulation, *params.Values, error) {
	p, err := loadParams()
	if err != nil {
		return nil, nil, err
	}
	opts, err := modelOptions()
	if err != nil {
		return nil, nil, err
	}

	reg := sim.NewRegistry()
	m, err := reg.Model(modelName, opts...)
	if err != nil {
		return nil, nil, err
	}
	st, err := reg.Stepper(stepper)
	if err != nil {
		return nil, nil, err
	}

	cfg := solver.DefaultConfig()
	cfg.Dt = dt
	cfg.Adaptive = adaptive

	return sim.New(m, sim.WithParams(p), sim.WithStepper(st), sim.WithConfig(cfg)), p, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	s, _, err := buildSimulation(args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	sol, err := s.SolveCRate(context.Background(), cRate, solver.Span{T0: 0, T1: duration})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("solved %d steps in %v, terminated by %s\n", sol.Len(), elapsed.Round(time.Millisecond), sol.Termination)
	if err := printSummary(sol); err != nil {
		return err
	}

	if len(plotVars) > 0 {
		if err := plot.Terminal(os.Stdout, sol, plotVars, plot.DefaultOptions()); err != nil {
			return err
		}
	}
	return maybeSave(sol)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	s, _, err := buildSimulation(args[0])
	if err != nil {
		return err
	}

	var proto *experiment.Protocol
	if protoFile != "" {
		proto, err = experiment.LoadTOML(protoFile)
	} else if len(args) > 1 {
		proto, err = experiment.Parse(args[1:]...)
	} else {
		return fmt.Errorf("provide a --file or inline instructions")
	}
	if err != nil {
		return err
	}

	sol, err := experiment.Run(context.Background(), s, proto, true)
	if err != nil {
		return err
	}

	fmt.Printf("protocol %q finished after %d steps, terminated by %s\n", proto.Name, sol.Len(), sol.Termination)
	if err := printSummary(sol); err != nil {
		return err
	}

	if len(plotVars) > 0 {
		if err := plot.Terminal(os.Stdout, sol, plotVars, plot.DefaultOptions()); err != nil {
			return err
		}
	}
	return maybeSave(sol)
}

func maybeSave(sol *solution.Solution) error {
	if !saveRun {
		return nil
	}
	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()
	id, err := st.Save(sol)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

func printSummary(sol *solution.Solution) error {
	summary, err := sol.Summary()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%.4g\n", k, summary[k])
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tCHEMISTRY\tSTEPS\tDURATION\tFINAL V\tTERMINATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0fs\t%.3f\t%s\n",
			r.ID, r.Model, r.Chemistry, r.Steps, r.Duration, r.FinalVoltage, r.Termination)
	}
	return w.Flush()
}

// loadStored rebuilds a saved run's solution, reconstructing the model's
// registry so variable processing works on the stored states.
func loadStored(id string) (*solution.Solution, error) {
	st, err := store.Open(dataDir)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	data, err := st.LoadData(id)
	if err != nil {
		return nil, err
	}

	p, err := params.New(data.Chemistry)
	if err != nil {
		return nil, err
	}
	reg := sim.NewRegistry()
	m, err := reg.Model(data.Model, model.WithParticleShells(shells))
	if err != nil {
		return nil, err
	}
	if err := m.Build(); err != nil {
		return nil, err
	}

	sol := solution.FromExport(data, m.Registry(), p)
	if sol.Len() > 0 && len(sol.States[0]) != m.Dim() {
		return nil, fmt.Errorf("stored states have dimension %d but model %q builds %d; adjust --shells",
			len(sol.States[0]), data.Model, m.Dim())
	}
	return sol, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	sol, err := loadStored(args[0])
	if err != nil {
		return err
	}
	return plot.Terminal(os.Stdout, sol, plotVars, plot.DefaultOptions())
}

func exportRun(cmd *cobra.Command, args []string) error {
	sol, err := loadStored(args[0])
	if err != nil {
		return err
	}

	out := outPath
	if out == "" {
		out = args[0] + "." + format
	}

	switch format {
	case "json":
		err = sol.ExportJSON(out)
	case "csv":
		err = sol.ExportCSV(out, plotVars...)
	case "html":
		err = plot.WriteHTML(out, sol, sol.Model+" / "+sol.Chemistry, plotVars)
	default:
		return fmt.Errorf("unknown format %q, want json, csv, or html", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func compareSteppers(cmd *cobra.Command, args []string) error {
	modelName := args[0]
	p, err := loadParams()
	if err != nil {
		return err
	}
	opts, err := modelOptions()
	if err != nil {
		return err
	}

	reg := sim.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STEPPER\tSTEPS\tFINAL V\tTERMINATION\tWALL TIME")

	for _, name := range args[1:] {
		m, err := reg.Model(modelName, opts...)
		if err != nil {
			return err
		}
		st, err := reg.Stepper(name)
		if err != nil {
			return err
		}

		cfg := solver.DefaultConfig()
		cfg.Dt = dt
		cfg.Adaptive = adaptive

		s := sim.New(m, sim.WithParams(p), sim.WithStepper(st), sim.WithConfig(cfg))
		start := time.Now()
		sol, err := s.SolveCRate(context.Background(), cRate, solver.Span{T0: 0, T1: duration})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		v, err := sol.Variable("terminal voltage")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%s\t%v\n",
			name, sol.Len(), v[len(v)-1], sol.Termination, time.Since(start).Round(time.Millisecond))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	p, err := loadParams()
	if err != nil {
		return err
	}
	opts, err := modelOptions()
	if err != nil {
		return err
	}

	reg := sim.NewRegistry()
	m, err := reg.Model(args[0], opts...)
	if err != nil {
		return err
	}
	if err := m.Build(); err != nil {
		return err
	}
	st, err := reg.Stepper(stepper)
	if err != nil {
		return err
	}
	return tui.Run(m, p, st, cRate, dt)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepAxes) == 0 {
		return fmt.Errorf("provide at least one --axis")
	}
	axes := make([]sweep.Axis, 0, len(sweepAxes))
	for _, spec := range sweepAxes {
		ax, err := parseAxis(spec)
		if err != nil {
			return err
		}
		axes = append(axes, ax)
	}

	p, err := loadParams()
	if err != nil {
		return err
	}
	opts, err := modelOptions()
	if err != nil {
		return err
	}

	reg := sim.NewRegistry()
	cfg := solver.DefaultConfig()
	cfg.Dt = dt
	cfg.Adaptive = adaptive

	sw := &sweep.Sweep{
		NewModel: func() (*model.Model, error) {
			return reg.Model(args[0], opts...)
		},
		NewStepper: func() solver.Stepper {
			st, err := reg.Stepper(stepper)
			if err != nil {
				return solver.NewRK4()
			}
			return st
		},
		Config:  cfg,
		Base:    p,
		Rate:    cRate,
		Span:    solver.Span{T0: 0, T1: duration},
		Workers: workers,
	}

	points := sweep.Grid(axes...)
	fmt.Printf("sweeping %d points\n", len(points))
	results, err := sw.Run(context.Background(), points)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := make([]string, 0, len(axes)+1)
	for _, ax := range axes {
		header = append(header, strings.ToUpper(ax.Name))
	}
	header = append(header, strings.ToUpper(metric))
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range results {
		row := make([]string, 0, len(axes)+1)
		for _, ax := range axes {
			row = append(row, fmt.Sprintf("%.4g", r.Point[ax.Name]))
		}
		if r.Err != nil {
			row = append(row, "error: "+r.Err.Error())
		} else {
			row = append(row, fmt.Sprintf("%.4g", r.Summary[metric]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best, err := sweep.Best(results, metric, maximize)
	if err != nil {
		return err
	}
	fmt.Printf("best %s = %.4g at %v\n", metric, best.Summary[metric], best.Point)
	return nil
}

// parseAxis reads "name=lo:hi:count" into a linearly spaced axis.
func parseAxis(spec string) (sweep.Axis, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return sweep.Axis{}, fmt.Errorf("bad --axis %q, want name=lo:hi:count", spec)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return sweep.Axis{}, fmt.Errorf("bad --axis %q, want name=lo:hi:count", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return sweep.Axis{}, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return sweep.Axis{}, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return sweep.Axis{}, err
	}
	if n < 1 {
		return sweep.Axis{}, fmt.Errorf("bad --axis %q: count must be at least 1", spec)
	}

	values := make([]float64, n)
	if n == 1 {
		values[0] = lo
	} else {
		step := (hi - lo) / float64(n-1)
		for i := range values {
			values[i] = lo + float64(i)*step
		}
	}
	return sweep.Axis{Name: name, Values: values}, nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	opts, err := modelOptions()
	if err != nil {
		return err
	}
	reg := sim.NewRegistry()
	m, err := reg.Model(args[0], opts...)
	if err != nil {
		return err
	}
	if err := m.Build(); err != nil {
		return err
	}

	fmt.Printf("model: %s (%d states)\n\ncomponents:\n", m.Name(), m.Dim())
	keys := make([]string, 0, len(m.Submodels))
	for k := range m.Submodels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\t%T\t(%s)\n", k, m.Submodels[k], m.Submodels[k].Domain())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\noptions:")
	for _, key := range model.OptionKeys() {
		fmt.Printf("  %-12s %s\n", key, strings.Join(model.OptionValues(key), ", "))
	}

	fmt.Println("\nvariables:")
	for _, name := range m.Variables() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
