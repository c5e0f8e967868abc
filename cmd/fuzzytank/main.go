package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fuzzytank/internal/automation"
	"github.com/san-kum/fuzzytank/internal/config"
	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/experiment"
	"github.com/san-kum/fuzzytank/internal/fuzzy"
	"github.com/san-kum/fuzzytank/internal/metrics"
	"github.com/san-kum/fuzzytank/internal/optim"
	"github.com/san-kum/fuzzytank/internal/sim"
	"github.com/san-kum/fuzzytank/internal/storage"
	"github.com/san-kum/fuzzytank/internal/viz"
)

const defaultPreset = "retention"

var (
	dataDir     string
	logLevel    string
	configFile  string
	steps       int
	rain        string
	strategy    string
	metricsFile string
	trace       bool
	interval    time.Duration
	rainLevel   int
	outFile     string
	theme       string
	tuneParams  []string
	tuneMetric  string
	maximize    bool
)

var logger = slog.Default()

func main() {
	rootCmd := &cobra.Command{
		Use:           "fuzzytank",
		Short:         "fuzzy pump controller for a natural and a retention tank",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel, trace)
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fuzzytank", "run directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a batch simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of ticks")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	runCmd.Flags().BoolVar(&trace, "trace", false, "log every inference stage at debug level")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: exportWith(func(st *storage.Store, id string) error {
			return st.ExportMetadata(id, os.Stdout)
		}),
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trace as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: exportWith(func(st *storage.Store, id string) error {
			return st.ExportCSV(id, os.Stdout)
		}),
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and trace as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: exportWith(func(st *storage.Store, id string) error {
			return st.ExportJSON(id, os.Stdout)
		}),
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run the controller with a live dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().DurationVar(&interval, "interval", time.Second, "time between ticks")
	liveCmd.Flags().IntVar(&rainLevel, "rain-level", 0, "initial rain intensity (0-4)")
	liveCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeRiver.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	compareCmd := &cobra.Command{
		Use:   "compare [preset]",
		Short: "run a preset with every defuzzification strategy",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareStrategies,
	}
	addConfigFlags(compareCmd)
	compareCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of ticks")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.GetPreset(name).Description)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [preset]",
		Short: "print a preset as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printConfig,
	}
	configCmd.Flags().StringVar(&outFile, "out", "", "write to this file instead of stdout")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search pump and tank parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneParameters,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of ticks")
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "name=v1,v2,... (tunable: "+strings.Join(config.Tunables, ", ")+")")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "control_effort", "metric to optimize")
	tuneCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize the metric instead of minimizing it")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, liveCmd, compareCmd, presetsCmd, configCmd, scenarioCmd, tuneCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&rain, "rain", "", "rain schedule, comma separated intensities 0-4, cycled")
	cmd.Flags().StringVar(&strategy, "strategy", "", "defuzzification strategy ("+strings.Join(fuzzy.Strategies(), ", ")+")")
}

func newLogger(level string, debug bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig resolves the configuration: a --config file wins over the
// preset argument, and explicitly set flags override both.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		name := defaultPreset
		if len(args) > 0 {
			name = args[0]
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Lookup("steps") != nil && flags.Changed("steps") {
		cfg.Sim.Steps = steps
	}
	if flags.Changed("strategy") {
		cfg.Defuzzifier.Strategy = strategy
	}
	if flags.Changed("rain") {
		schedule, err := parseRain(rain)
		if err != nil {
			return nil, err
		}
		cfg.Sim.Rain = schedule
	}
	return cfg, nil
}

func parseRain(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid rain intensity %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var tracer fuzzy.Tracer
	if trace {
		tracer = control.SlogTracer(logger)
	}

	var observers []sim.Observer
	var recorder *metrics.Recorder
	if metricsFile != "" {
		recorder = metrics.NewRecorder(cfg.Name)
		observers = append(observers, recorder)
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(tracer, observers...); err != nil {
		return err
	}

	logger.Info("running simulation", "preset", cfg.Name, "steps", cfg.Sim.Steps, "strategy", cfg.Defuzzifier.Strategy)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		logger.Warn("simulation interrupted", "steps", result.StepsTaken)
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Info(), result)
	if err != nil {
		return err
	}

	if recorder != nil {
		recorder.SetRunMetrics(result.Metrics)
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logger.Info("metrics written", "path", metricsFile)
	}

	final := result.Final()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final: natural=%.2f retention=%.2f overflow=%.2f pump=%.2f\n",
		final.NaturalLevel, final.RetentionLevel, final.OverflowLevel, final.PumpPower)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSTEPS\tSTRATEGY\tPOLICY\tDIRECTION")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Strategy,
			run.Policy,
			run.Direction,
		)
	}

	return w.Flush()
}

// resolveRun returns args[0] or the latest run ID.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func exportWith(fn func(*storage.Store, string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st := storage.New(dataDir)
		runID, err := resolveRun(st, args)
		if err != nil {
			return err
		}
		return fn(st, runID)
	}
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s (%s, %s)\n", meta.Preset, meta.Strategy, meta.Direction)
	fmt.Printf("samples: %d\n\n", len(states))
	fmt.Println(viz.Plot(states, 80, 15, "natural (blue), retention (green), pump power (red)"))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("interval") {
		cfg.Sim.Interval = interval.String()
	}
	tick, err := cfg.TickInterval()
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	ctrl, err := cfg.Build()
	if err != nil {
		return err
	}

	var observers []sim.Observer
	var recorder *metrics.Recorder
	if metricsFile != "" {
		recorder = metrics.NewRecorder(cfg.Name)
		observers = append(observers, recorder)
	}

	viz.SetTheme(theme)
	err = viz.Run(ctrl, viz.Options{
		Name:             cfg.Name,
		Interval:         tick,
		Capacity:         cfg.Levels.Capacity,
		Safe:             cfg.Levels.Safe,
		Alarm:            cfg.Levels.Alarm,
		OverflowCapacity: cfg.Tank.OverflowCapacity,
		Rain:             rainLevel,
		Observers:        observers,
	})
	if err != nil {
		return err
	}

	if recorder != nil {
		return recorder.WriteTextfile(metricsFile)
	}
	return nil
}

func compareStrategies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	strategies := fuzzy.Strategies()
	results, err := experiment.Compare(cmd.Context(), cfg, strategies)
	if err != nil {
		return err
	}

	names := sortedKeys(results[strategies[0]].Metrics)

	fmt.Printf("comparing strategies for %s (%d steps)\n\n", cfg.Name, cfg.Sim.Steps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "strategy\tfinal_natural\tfinal_retention\t%s\t\n", strings.Join(names, "\t"))
	for _, s := range strategies {
		r := results[s]
		final := r.Final()
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t", s, final.NaturalLevel, final.RetentionLevel)
		for _, n := range names {
			fmt.Fprintf(w, "%.3f\t", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func printConfig(cmd *cobra.Command, args []string) error {
	name := defaultPreset
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	if outFile != "" {
		return config.Save(outFile, cfg)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, st, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPRESET\tRUN\tFINAL_NATURAL\tFINAL_RETENTION\tCONTROL_EFFORT")
	for i, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		final := r.Result.Final()
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.2f\t%.3f\n",
			i+1, r.Name, runID, final.NaturalLevel, final.RetentionLevel, r.Result.Metrics["control_effort"])
	}
	return w.Flush()
}

func parseParamGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("invalid --param %q, want name=v1,v2", spec)
		}
		if !slices.Contains(config.Tunables, name) {
			return nil, nil, fmt.Errorf("%w: unknown parameter %q (tunable: %s)",
				config.ErrInvalidConfig, name, strings.Join(config.Tunables, ", "))
		}
		var values []float64
		for _, v := range strings.Split(list, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid value in --param %q: %w", spec, err)
			}
			values = append(values, f)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneParameters(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseParamGrid(tuneParams)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(&cfg)
		if err := exp.Setup(nil); err != nil {
			logger.Debug("skipping grid point", "params", params, "err", err)
			return nil, err
		}
		return exp, nil
	}

	g := optim.NewGridSearch(names, ranges)
	g.Maximize = maximize
	best, value, err := g.Search(cmd.Context(), build, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6f\n", tuneMetric, value)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}
