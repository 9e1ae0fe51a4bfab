package optim

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/san-kum/deformsim/internal/config"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/experiment"
	"github.com/san-kum/deformsim/internal/physics"
)

// GridSearch tries every combination of body parameters and keeps the one
// minimizing a scene metric.
type GridSearch struct {
	body       string
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch searches params of the named body; an empty body name means
// every body of the scene.
func NewGridSearch(body string, params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameters for %d ranges", dynamo.ErrInvalidParameter, len(params), len(ranges))
	}
	for i, name := range params {
		if !slices.Contains(physics.ParamNames(), name) {
			return nil, fmt.Errorf("%w: parameter %q", dynamo.ErrUnknownType, name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("%w: no values for %q", dynamo.ErrInvalidParameter, name)
		}
	}
	return &GridSearch{body: body, paramNames: params, ranges: ranges}, nil
}

// Outcome is the best point found. Evaluated counts the runs that kept
// every body active.
type Outcome struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	Diverged  int
}

// Search runs cfg once per grid point. Points where a body is deactivated
// are not candidates.
func (g *GridSearch) Search(ctx context.Context, cfg *config.Config, metricName string) (*Outcome, error) {
	if g.body != "" && !slices.ContainsFunc(cfg.Bodies, func(b config.BodyConfig) bool { return b.Name == g.body }) {
		return nil, fmt.Errorf("%w: scene %q has no body %q", dynamo.ErrInvalidParameter, cfg.Name, g.body)
	}
	out := &Outcome{Value: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, cfg, metricName, out); err != nil {
		return nil, err
	}
	if out.Params == nil {
		return out, fmt.Errorf("%w: every grid point diverged", dynamo.ErrInvalidState)
	}
	return out, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	cfg *config.Config,
	metricName string,
	out *Outcome,
) error {
	if depth == len(g.paramNames) {
		val, ok, err := g.evaluate(ctx, cfg, current, metricName)
		if err != nil {
			return err
		}
		if !ok {
			out.Diverged++
			return nil
		}
		out.Evaluated++
		if val < out.Value {
			out.Value = val
			out.Params = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, next, cfg, metricName, out); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, cfg *config.Config, params map[string]float64, metricName string) (float64, bool, error) {
	exp, err := experiment.Build(cfg, experiment.WithTuning(func(b *physics.Deformable) error {
		if g.body != "" && b.Name() != g.body {
			return nil
		}
		for _, name := range g.paramNames {
			if err := b.SetParam(name, params[name]); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return 0, false, fmt.Errorf("%v: %w", params, err)
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return 0, false, err
	}
	if len(result.Deactivated) > 0 {
		return 0, false, nil
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, false, fmt.Errorf("%w: metric %q", dynamo.ErrUnknownType, metricName)
	}
	return val, true, nil
}

// Linspace returns n evenly spaced values from lo to hi.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	values := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range values {
		values[i] = lo + float64(i)*step
	}
	return values
}
