package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/deformsim/internal/analysis"
	"github.com/san-kum/deformsim/internal/automation"
	"github.com/san-kum/deformsim/internal/physics"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var sweep automation.ParameterSweep

	cmd := &cobra.Command{
		Use:   "sweep [sweep.yaml]",
		Short: "vary one body parameter across a range",
		Long: "Runs the scene once per parameter value and reports the peak displacement,\n" +
			"kinetic energy and dominant frequency of each point. Flags override the file.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sweep
			if len(args) > 0 {
				loaded, err := automation.LoadSweep(args[0])
				if err != nil {
					return err
				}
				s = *loaded
				applySweepFlags(cmd, &s, &sweep)
			}
			return runSweep(cmd, &s)
		},
	}
	cmd.Flags().StringVar(&sweep.Preset, "preset", "chain", "preset scene")
	cmd.Flags().StringVarP(&sweep.Scene, "config", "c", "", "scene file (yaml)")
	cmd.Flags().StringVar(&sweep.Body, "body", "", "swept body (default first body)")
	cmd.Flags().StringVar(&sweep.Param, "param", physics.ParamRayleighMass, "parameter to vary")
	cmd.Flags().Float64Var(&sweep.Min, "min", 0, "first value")
	cmd.Flags().Float64Var(&sweep.Max, "max", 2, "last value")
	cmd.Flags().IntVar(&sweep.NumSteps, "steps", 5, "number of values")
	cmd.Flags().Float64Var(&sweep.Duration, "time", 1, "simulated duration per value")
	cmd.Flags().IntVar(&sweep.Workers, "workers", 4, "values run in parallel")
	return cmd
}

func applySweepFlags(cmd *cobra.Command, dst, flags *automation.ParameterSweep) {
	set := cmd.Flags().Changed
	if set("preset") {
		dst.Preset, dst.Scene = flags.Preset, ""
	}
	if set("config") {
		dst.Scene = flags.Scene
	}
	if set("body") {
		dst.Body = flags.Body
	}
	if set("param") {
		dst.Param = flags.Param
	}
	if set("min") {
		dst.Min = flags.Min
	}
	if set("max") {
		dst.Max = flags.Max
	}
	if set("steps") {
		dst.NumSteps = flags.NumSteps
	}
	if set("time") {
		dst.Duration = flags.Duration
	}
	if set("workers") {
		dst.Workers = flags.Workers
	}
}

func runSweep(cmd *cobra.Command, s *automation.ParameterSweep) error {
	ctx, cancel := signalContext()
	defer cancel()

	source := s.Preset
	if s.Scene != "" {
		source = s.Scene
	}
	fmt.Printf("sweeping %s on %s from %g to %g (%d values)\n", s.Param, source, s.Min, s.Max, s.NumSteps)

	results, err := automation.RunSweep(ctx, s)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMAX_DISP\tKE\tFREQ\tSTATUS\n", s.Param)
	for _, r := range results {
		status := "ok"
		if !r.Survived {
			status = "diverged"
		}
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.3f\t%s\n", r.ParamValue, r.MaxDisplacement, r.KineticEnergy, r.Frequency, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	survived, lost := automation.SurvivalCounts(results)
	fmt.Printf("\n%d survived, %d diverged\n", survived, lost)
	if plot := analysis.PathToASCII(automation.SweepPath(s.Param, results), 60, 15); plot != "" {
		fmt.Printf("\nmax displacement vs %s\n%s\n", s.Param, plot)
	}
	return nil
}
