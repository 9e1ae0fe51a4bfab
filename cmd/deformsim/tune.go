package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/deformsim/internal/optim"
	"github.com/spf13/cobra"
)

func newTuneCmd() *cobra.Command {
	var (
		body   string
		params []string
		metric string
		tuneT  float64
	)

	cmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search body parameters minimizing a metric",
		Example: "  deformsim tune chain --param rayleigh_mass=0:5:6 --metric max_displacement\n" +
			"  deformsim tune cantilever --param young_modulus=1e4:1e6:4 --param rayleigh_mass=0.5:2:3",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, ranges, err := parseGrid(params)
			if err != nil {
				return err
			}
			cfg, err := loadScene(args)
			if err != nil {
				return err
			}
			if tuneT > 0 {
				cfg.Duration = tuneT
			}
			g, err := optim.NewGridSearch(body, names, ranges)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			out, err := g.Search(ctx, cfg, metric)
			if err != nil {
				return err
			}

			fmt.Printf("best %s = %.6g (%d points, %d diverged)\n", metric, out.Value, out.Evaluated, out.Diverged)
			keys := make([]string, 0, len(out.Params))
			for k := range out.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %-18s %.6g\n", k, out.Params[k])
			}
			return nil
		},
	}
	sceneFlags(cmd)
	cmd.Flags().StringVar(&body, "body", "", "tuned body (default every body)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter grid as name=min:max:count")
	cmd.Flags().StringVar(&metric, "metric", "max_displacement", "metric to minimize")
	cmd.Flags().Float64Var(&tuneT, "time", 0.5, "simulated duration per point")
	cmd.MarkFlagRequired("param")
	return cmd
}

// parseGrid reads name=min:max:count specs; a bare name=value pins a
// parameter to one value.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, rng, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want name=min:max:count", spec)
		}
		parts := strings.Split(rng, ":")
		var values []float64
		switch len(parts) {
		case 1:
			v, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %q: %w", spec, err)
			}
			values = []float64{v}
		case 3:
			lo, err1 := strconv.ParseFloat(parts[0], 64)
			hi, err2 := strconv.ParseFloat(parts[1], 64)
			n, err3 := strconv.Atoi(parts[2])
			if err1 != nil || err2 != nil || err3 != nil || n < 1 {
				return nil, nil, fmt.Errorf("bad grid %q, want name=min:max:count", spec)
			}
			values = optim.Linspace(lo, hi, n)
		default:
			return nil, nil, fmt.Errorf("bad grid %q, want name=min:max:count", spec)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}
