package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/deformsim/internal/dynamo"
)

func TestSweepValues(t *testing.T) {
	s := &ParameterSweep{Min: 1, Max: 2, NumSteps: 5}
	want := []float64{1, 1.25, 1.5, 1.75, 2}
	got := s.Values()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("expected %v, got %v", want, got)
		}
	}

	single := &ParameterSweep{Min: 3, Max: 9, NumSteps: 1}
	if v := single.Values(); len(v) != 1 || v[0] != 3 {
		t.Errorf("expected [3], got %v", v)
	}
}

func TestRunSweepDamping(t *testing.T) {
	sweep := &ParameterSweep{
		Preset:   "chain",
		Param:    "rayleigh_mass",
		Min:      0,
		Max:      20,
		NumSteps: 3,
		Duration: 0.1,
		Workers:  2,
	}

	results, err := RunSweep(context.Background(), sweep)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Survived {
			t.Errorf("point %d did not survive", i)
		}
		if r.ParamValue != sweep.Values()[i] {
			t.Errorf("point %d: results out of order", i)
		}
		if r.MaxDisplacement <= 0 {
			t.Errorf("point %d: expected the chain to sag", i)
		}
	}
	if results[2].MaxDisplacement >= results[0].MaxDisplacement {
		t.Errorf("expected damping to slow the fall: %g vs %g", results[2].MaxDisplacement, results[0].MaxDisplacement)
	}

	survived, lost := SurvivalCounts(results)
	if survived != 3 || lost != 0 {
		t.Errorf("expected 3 survivors, got %d/%d", survived, lost)
	}
	if path := SweepPath(sweep.Param, results); len(path.Points) != 3 || path.XLabel != "rayleigh_mass" {
		t.Errorf("unexpected path %+v", path)
	}
}

func TestRunSweepMaterial(t *testing.T) {
	sweep := &ParameterSweep{
		Preset:   "block",
		Body:     "block",
		Param:    "young_modulus",
		Min:      5e4,
		Max:      2e5,
		NumSteps: 2,
		Duration: 0.01,
	}
	results, err := RunSweep(context.Background(), sweep)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 2 || !results[0].Survived || !results[1].Survived {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestRunSweepErrors(t *testing.T) {
	tests := []struct {
		name  string
		sweep ParameterSweep
		want  error
	}{
		{"no scene", ParameterSweep{Param: "rayleigh_mass", NumSteps: 2}, dynamo.ErrInvalidParameter},
		{"unknown preset", ParameterSweep{Preset: "bridge", Param: "rayleigh_mass", NumSteps: 2}, dynamo.ErrUnknownType},
		{"unknown param", ParameterSweep{Preset: "chain", Param: "stiffness", NumSteps: 2}, dynamo.ErrUnknownType},
		{"no steps", ParameterSweep{Preset: "chain", Param: "rayleigh_mass"}, dynamo.ErrInvalidParameter},
		{"unknown body", ParameterSweep{Preset: "chain", Body: "rope", Param: "rayleigh_mass", NumSteps: 2}, dynamo.ErrInvalidParameter},
		{"material on springs", ParameterSweep{Preset: "chain", Param: "young_modulus", NumSteps: 2}, dynamo.ErrInvalidParameter},
		{"bad material", ParameterSweep{Preset: "block", Param: "poisson_ratio", Min: 0.3, Max: 0.6, NumSteps: 2, Duration: 0.01}, dynamo.ErrInvalidParameter},
	}

	for _, tt := range tests {
		if _, err := RunSweep(context.Background(), &tt.sweep); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoadSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	data := "preset: cantilever\nparam: young_modulus\nmin: 1e4\nmax: 1e6\nsteps: 4\nworkers: 2\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	sweep, err := LoadSweep(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sweep.Preset != "cantilever" || sweep.Param != "young_modulus" || sweep.NumSteps != 4 {
		t.Errorf("unexpected sweep %+v", sweep)
	}
	if sweep.Min != 1e4 || sweep.Max != 1e6 || sweep.Workers != 2 {
		t.Errorf("unexpected range %+v", sweep)
	}

	if _, err := LoadSweep(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
