package automation

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/san-kum/deformsim/internal/analysis"
	"github.com/san-kum/deformsim/internal/config"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/experiment"
	"github.com/san-kum/deformsim/internal/logging"
	"github.com/san-kum/deformsim/internal/physics"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var logger = logging.New("sweep")

// ParameterSweep varies one parameter of one body of a scene across a
// range. The scene comes from Scene, a file path, or else from Preset.
type ParameterSweep struct {
	Preset   string  `yaml:"preset,omitempty"`
	Scene    string  `yaml:"scene,omitempty"`
	Body     string  `yaml:"body,omitempty"`
	Param    string  `yaml:"param"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	NumSteps int     `yaml:"steps"`
	Duration float64 `yaml:"duration,omitempty"`
	Workers  int     `yaml:"workers,omitempty"`
}

// SweepResult summarizes the run at one parameter value. Frequency is the
// dominant frequency of the body's largest displacement, zero when it could
// not be estimated.
type SweepResult struct {
	ParamValue      float64 `yaml:"value"`
	MaxDisplacement float64 `yaml:"max_displacement"`
	KineticEnergy   float64 `yaml:"kinetic_energy"`
	Frequency       float64 `yaml:"frequency"`
	Survived        bool    `yaml:"survived"`
}

func LoadSweep(path string) (*ParameterSweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sweep ParameterSweep
	if err := yaml.Unmarshal(data, &sweep); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sweep, nil
}

func (s *ParameterSweep) scene() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Scene != "":
		var err error
		if cfg, err = config.Load(s.Scene); err != nil {
			return nil, err
		}
	case s.Preset != "":
		if cfg = config.FindPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: preset %q", dynamo.ErrUnknownType, s.Preset)
		}
	default:
		return nil, fmt.Errorf("%w: sweep needs a scene or a preset", dynamo.ErrInvalidParameter)
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	return cfg, nil
}

func (s *ParameterSweep) validate(cfg *config.Config) (*config.BodyConfig, error) {
	if !slices.Contains(physics.ParamNames(), s.Param) {
		return nil, fmt.Errorf("%w: parameter %q, want one of %v", dynamo.ErrUnknownType, s.Param, physics.ParamNames())
	}
	if s.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step", dynamo.ErrInvalidParameter)
	}
	if len(cfg.Bodies) == 0 {
		return nil, fmt.Errorf("%w: scene %q has no bodies", dynamo.ErrInvalidParameter, cfg.Name)
	}
	body := &cfg.Bodies[0]
	if s.Body != "" {
		i := slices.IndexFunc(cfg.Bodies, func(b config.BodyConfig) bool { return b.Name == s.Body })
		if i < 0 {
			return nil, fmt.Errorf("%w: scene %q has no body %q", dynamo.ErrInvalidParameter, cfg.Name, s.Body)
		}
		body = &cfg.Bodies[i]
	}
	material := s.Param == physics.ParamYoungModulus || s.Param == physics.ParamPoissonRatio || s.Param == physics.ParamMassDensity
	if material && body.Type == config.MassSpring {
		return nil, fmt.Errorf("%w: mass-spring body %q has no material", dynamo.ErrInvalidParameter, body.Name)
	}
	return body, nil
}

// Values lists the swept parameter values, evenly spaced from Min to Max.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.Min}
	}
	values := make([]float64, s.NumSteps)
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	return values
}

// RunSweep runs one scene per parameter value, several at a time.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	cfg, err := sweep.scene()
	if err != nil {
		return nil, err
	}
	body, err := sweep.validate(cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	values := sweep.Values()
	results := make([]SweepResult, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(sweep.Workers, 1))
	for i, v := range values {
		i, v := i, v
		g.Go(func() error {
			r, err := runPoint(ctx, cfg, body, sweep.Param, v)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
			}
			results[i] = r
			logger.Info("sweep point done", "param", sweep.Param, "value", v,
				"max_displacement", r.MaxDisplacement, "survived", r.Survived)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runPoint(ctx context.Context, cfg *config.Config, body *config.BodyConfig, param string, value float64) (SweepResult, error) {
	// Bodies run serially inside a point, the points themselves in parallel.
	point := *cfg
	point.Workers = 1

	exp, err := experiment.Build(&point, experiment.WithTuning(func(b *physics.Deformable) error {
		if b.Name() != body.Name {
			return nil
		}
		return b.SetParam(param, value)
	}))
	if err != nil {
		return SweepResult{}, err
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	r := SweepResult{
		ParamValue:    value,
		KineticEnergy: result.Metrics["kinetic_energy"],
		Survived:      !slices.Contains(result.Deactivated, body.Name),
	}
	if !r.Survived {
		return r, nil
	}
	series := analysis.DisplacementSeries(result.Trajectories[body.Name], body.DofPerNode())
	for _, d := range series {
		r.MaxDisplacement = max(r.MaxDisplacement, d)
	}
	if len(result.Times) > 1 {
		if f, err := analysis.DominantFrequency(series, result.Times[1]-result.Times[0]); err == nil {
			r.Frequency = f
		}
	}
	return r, nil
}

// SweepPath lays the results out for plotting, with the parameter on x and
// the peak displacement on y.
func SweepPath(param string, results []SweepResult) *analysis.Path2D {
	path := &analysis.Path2D{XLabel: param, YLabel: "max_displacement"}
	for _, r := range results {
		if r.Survived {
			path.Points = append(path.Points, analysis.Point{X: r.ParamValue, Y: r.MaxDisplacement})
		}
	}
	return path
}

// SurvivalCounts reports how many points kept the body active.
func SurvivalCounts(results []SweepResult) (survived, lost int) {
	for _, r := range results {
		if r.Survived {
			survived++
		} else {
			lost++
		}
	}
	return
}
