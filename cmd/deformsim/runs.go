package main

import (
	"fmt"
	"io"
	"os"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/deformsim/internal/analysis"
	"github.com/san-kum/deformsim/internal/export"
	"github.com/san-kum/deformsim/internal/storage"
	"github.com/spf13/cobra"
)

func seriesFlags(cmd *cobra.Command) {
	cmd.Flags().String("body", "", "body name (default first body)")
	cmd.Flags().Int("node", -1, "node id (default largest displacement over all nodes)")
	cmd.Flags().String("axis", "y", "node axis: x, y or z")
}

func parseAxis(axis string) (int, error) {
	switch axis {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unknown axis %q", axis)
}

type series struct {
	meta   *storage.RunMetadata
	body   storage.BodyMetadata
	states [][]float64
	times  []float64
	values []float64
	label  string
}

// loadSeries reads the body selected by --body and extracts either a node
// coordinate or the displacement series.
func loadSeries(cmd *cobra.Command, runID string) (*series, error) {
	store := storage.New(dataDir)
	meta, err := store.Load(runID)
	if err != nil {
		return nil, err
	}
	if len(meta.Bodies) == 0 {
		return nil, fmt.Errorf("run %s has no bodies", runID)
	}

	name, _ := cmd.Flags().GetString("body")
	body := meta.Bodies[0]
	if name != "" {
		var ok bool
		if body, ok = meta.Body(name); !ok {
			return nil, fmt.Errorf("run %s has no body %q", runID, name)
		}
	}

	states, times, err := store.LoadStates(runID, body.Name)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("no data in run %s", runID)
	}

	s := &series{meta: meta, body: body, states: states, times: times}
	node, _ := cmd.Flags().GetInt("node")
	if node < 0 {
		s.values = analysis.DisplacementSeries(states, body.NumDofPerNode)
		s.label = body.Name + " max displacement"
		return s, nil
	}
	if node >= body.NumNodes {
		return nil, fmt.Errorf("node %d out of range [0, %d)", node, body.NumNodes)
	}
	axisName, _ := cmd.Flags().GetString("axis")
	axis, err := parseAxis(axisName)
	if err != nil {
		return nil, err
	}
	s.values = analysis.NodeSeries(states, node, body.NumDofPerNode, axis)
	s.label = fmt.Sprintf("%s node %d %s", body.Name, node, axisName)
	return s, nil
}

func (s *series) sampleDt() float64 {
	if len(s.times) < 2 {
		return s.meta.Dt
	}
	return s.times[1] - s.times[0]
}

func plotRun(cmd *cobra.Command, args []string) error {
	s, err := loadSeries(cmd, args[0])
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("%s (%s, %s)", s.label, s.body.Type, s.body.Integrator)
	graph := asciigraph.Plot(s.values, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(caption))
	fmt.Println(graph)

	if showPath, _ := cmd.Flags().GetBool("path"); showPath {
		node, _ := cmd.Flags().GetInt("node")
		if node < 0 {
			node = s.body.NumNodes - 1
		}
		path := analysis.NodePath(s.states, node, s.body.NumDofPerNode, 0, 1)
		fmt.Printf("\nnode %d path (%s vs %s)\n", node, path.YLabel, path.XLabel)
		fmt.Println(analysis.PathToASCII(path, 60, 20))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	s, err := loadSeries(cmd, args[0])
	if err != nil {
		return err
	}
	step := s.sampleDt()

	fmt.Printf("analysis: %s\n", s.label)
	fmt.Printf("  samples:  %d\n", len(s.values))
	fmt.Printf("  sample dt: %g\n", step)

	freq, err := analysis.DominantFrequency(s.values, step)
	if err != nil {
		return err
	}
	if freq == 0 {
		fmt.Println("  no oscillation detected")
		return nil
	}
	fmt.Printf("  dominant frequency: %.4f Hz\n", freq)
	fmt.Printf("  period:             %.4f s\n", 1/freq)

	spectrum := analysis.PowerSpectrum(s.values)
	if len(spectrum) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(spectrum[1:], asciigraph.Height(8), asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum (bin width %.3g Hz)", 1/(step*float64(len(s.values)))))))
	}
	return nil
}

func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	data, err := store.Export(args[0])
	if err != nil {
		return err
	}
	w, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, data); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	data, err := store.Export(args[0])
	if err != nil {
		return err
	}
	body, _ := cmd.Flags().GetString("body")
	if body == "" && len(data.Run.Bodies) > 0 {
		body = data.Run.Bodies[0].Name
	}
	if _, ok := data.Trajectories[body]; !ok {
		return fmt.Errorf("run %s has no body %q", args[0], body)
	}

	w, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportCSV(w, data, body); err != nil {
		closeOut()
		return err
	}
	if outFile != "" {
		fmt.Fprintf(os.Stderr, "exported %s/%s to %s\n", args[0], body, outFile)
	}
	return closeOut()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	s, err := loadSeries(cmd, args[0])
	if err != nil {
		return err
	}
	path := export.SeriesPath(s.times, s.values, s.label)
	if showPath, _ := cmd.Flags().GetBool("path"); showPath {
		node, _ := cmd.Flags().GetInt("node")
		if node < 0 {
			node = s.body.NumNodes - 1
		}
		path = analysis.NodePath(s.states, node, s.body.NumDofPerNode, 0, 1)
	}
	color, _ := cmd.Flags().GetString("color")

	w, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := export.PathToSVG(w, path, 800, 400, color); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
