package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/deformsim/internal/config"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/experiment"
	"github.com/san-kum/deformsim/internal/integrators"
	"github.com/san-kum/deformsim/internal/linalg"
	"github.com/san-kum/deformsim/internal/logging"
	"github.com/san-kum/deformsim/internal/physics"
	"github.com/san-kum/deformsim/internal/storage"
	"github.com/san-kum/deformsim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir       string
	logLevel      string
	configFile    string
	dt            float64
	duration      float64
	workers       int
	recordEvery   int
	integrator    string
	stepsPerFrame int
	outFile       string
)

var logger = logging.New("cli")

func main() {
	rootCmd := &cobra.Command{
		Use:   "deformsim",
		Short: "deformable body simulation toolkit",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.SetLevel(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(stepsPerFrame)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".deformsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 10, "simulation steps per rendered frame")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scene and store its trajectories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	sceneFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")
	runCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "bodies stepped in parallel")
	runCmd.Flags().IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "steps between recorded samples")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integration scheme for every body")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	seriesFlags(plotCmd)
	plotCmd.Flags().Bool("path", false, "also draw the node path in the x-y plane")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export one body of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportCSVCmd.Flags().String("body", "", "body name (default first body)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a stored trajectory as an SVG plot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	seriesFlags(exportSVGCmd)
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().Bool("path", false, "plot the node path in the x-y plane instead of a time series")
	exportSVGCmd.Flags().String("color", "#00ff00", "stroke color")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	seriesFlags(analyzeCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "compare integration schemes on a preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}
	benchCmd.Flags().Float64Var(&duration, "time", 0.2, "simulated duration per scheme")
	benchCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")

	presetsCmd := &cobra.Command{
		Use:   "presets [kind]",
		Short: "list built-in scenes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	presetsCmd.Flags().String("yaml", "", "print the named preset as a scene file")

	solversCmd := &cobra.Command{
		Use:   "solvers",
		Short: "list integration schemes, element kinds and tunable parameters",
		Run:   listSolvers,
	}

	watchCmd := &cobra.Command{
		Use:   "watch [preset]",
		Short: "watch a scene live in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchScene,
	}
	sceneFlags(watchCmd)
	watchCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 10, "simulation steps per rendered frame")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, analyzeCmd,
		benchCmd, presetsCmd, solversCmd, watchCmd, newSweepCmd(), newTuneCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "scene file (yaml)")
}

// loadScene resolves the scene from --config, a preset argument or the
// chain preset.
func loadScene(args []string) (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	name := "chain"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.FindPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if integrator != "" {
		for i := range cfg.Bodies {
			cfg.Bodies[i].Integrator = integrator
		}
	}

	exp, err := experiment.Build(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d bodies, dt=%g, duration=%g)\n", cfg.Name, len(cfg.Bodies), cfg.Dt, cfg.Duration)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Scene:       cfg.Name,
		Timestamp:   time.Now(),
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Workers:     cfg.Workers,
		RecordEvery: cfg.RecordEvery,
		StepsTaken:  result.StepsTaken,
		Deactivated: result.Deactivated,
		Metrics:     result.Metrics,
	}
	for _, name := range exp.BodyNames() {
		b, _ := exp.Body(name)
		meta.Bodies = append(meta.Bodies, storage.BodyMetadata{
			Name:          name,
			Type:          b.Type().String(),
			Integrator:    b.IntegrationScheme(),
			NumNodes:      b.InitialState().NumNodes(),
			NumDofPerNode: b.NumDofPerNode(),
		})
	}

	runID, err := store.Save(meta, result)
	if err != nil {
		return err
	}
	if err := store.SaveScene(runID, cfg); err != nil {
		return err
	}

	fmt.Printf("run %s: %d steps in %v\n", runID, result.StepsTaken, elapsed.Round(time.Millisecond))
	printMetrics(result.Metrics)
	for _, name := range result.Deactivated {
		logger.Warn("body deactivated", "body", name)
	}
	return runErr
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-18s %.6g\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tBODIES\tSTEPS\tDT\tTIMESTAMP")
	for _, run := range runs {
		bodies := make([]string, len(run.Bodies))
		for i, b := range run.Bodies {
			bodies[i] = b.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%s\n",
			run.ID, run.Scene, strings.Join(bodies, ","), run.StepsTaken, run.Dt,
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func benchPreset(cmd *cobra.Command, args []string) error {
	name := "chain"
	if len(args) > 0 {
		name = args[0]
	}
	if config.FindPreset(name) == nil {
		return fmt.Errorf("unknown preset %q", name)
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tSTEPS\tTIME\tSTEPS/SEC\tMAX_DISP\tSTATUS")
	for _, scheme := range integrators.Names() {
		cfg := config.FindPreset(name)
		cfg.Dt = dt
		cfg.Duration = duration
		for i := range cfg.Bodies {
			cfg.Bodies[i].Integrator = scheme
		}
		exp, err := experiment.Build(cfg)
		if err != nil {
			return err
		}
		start := time.Now()
		result, err := exp.Run(ctx)
		elapsed := time.Since(start)
		if result == nil {
			return err
		}
		status := "ok"
		if len(result.Deactivated) > 0 {
			status = "diverged"
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%.4g\t%s\n",
			scheme, result.StepsTaken, elapsed.Round(time.Microsecond),
			float64(result.StepsTaken)/elapsed.Seconds(), result.Metrics["max_displacement"], status)
		if err != nil {
			w.Flush()
			return err
		}
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	if name, _ := cmd.Flags().GetString("yaml"); name != "" {
		cfg := config.FindPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset %q", name)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	}

	kinds := config.BodyTypes()
	if len(args) > 0 {
		kinds = args
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tPRESET\tBODIES")
	for _, kind := range kinds {
		presets := config.ListPresets(kind)
		if presets == nil {
			return fmt.Errorf("unknown body kind %q", kind)
		}
		for _, p := range presets {
			fmt.Fprintf(w, "%s\t%s\t%d\n", kind, p, len(config.GetPreset(kind, p).Bodies))
		}
	}
	return w.Flush()
}

func listSolvers(cmd *cobra.Command, args []string) {
	fmt.Println("integration schemes:")
	for _, name := range integrators.Names() {
		marker := ""
		if name == config.DefaultIntegrator {
			marker = " (default)"
		}
		fmt.Printf("  %s%s\n", name, marker)
	}
	fmt.Println("\nlinear solvers:")
	for _, name := range linalg.LinearSolverNames() {
		marker := ""
		if name == linalg.DenseLUName {
			marker = " (default)"
		}
		fmt.Printf("  %s%s\n", name, marker)
	}
	fmt.Println("\nbody kinds:")
	for _, name := range experiment.ListBodyTypes() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("\nelements:")
	for _, name := range element.Names() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("\nparameters:")
	for _, name := range physics.ParamNames() {
		fmt.Printf("  %s\n", name)
	}
}

func watchScene(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" {
		return viz.RunInteractive(stepsPerFrame)
	}
	cfg, err := loadScene(args)
	if err != nil {
		return err
	}
	exp, err := experiment.Build(cfg)
	if err != nil {
		return err
	}
	return viz.RunWatch(exp, stepsPerFrame)
}
