package scene

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/logging"
	"golang.org/x/sync/errgroup"
)

var logger = logging.New("scene")

// Manager owns the bodies of a scene and advances them tick by tick.
// Bodies do not share state, so each tick steps them concurrently.
type Manager struct {
	workers   int
	bodies    []Body
	index     map[string]Body
	behaviors []Behavior
	metrics   []Metric
	observers []Observer

	step        int
	time        float64
	deactivated []string
}

// NewManager creates a manager stepping at most workers bodies at once.
// A non-positive workers uses one per CPU.
func NewManager(workers int) *Manager {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Manager{
		workers: workers,
		index:   make(map[string]Body),
	}
}

func (m *Manager) Add(b Body) error {
	if _, dup := m.index[b.Name()]; dup {
		return fmt.Errorf("%w: duplicate body %q", dynamo.ErrInvalidParameter, b.Name())
	}
	m.bodies = append(m.bodies, b)
	m.index[b.Name()] = b
	return nil
}

func (m *Manager) AddBehavior(b Behavior) { m.behaviors = append(m.behaviors, b) }
func (m *Manager) AddMetric(mt Metric)    { m.metrics = append(m.metrics, mt) }
func (m *Manager) AddObserver(o Observer) { m.observers = append(m.observers, o) }

func (m *Manager) Bodies() []Body { return m.bodies }

func (m *Manager) Body(name string) (Body, bool) {
	b, ok := m.index[name]
	return b, ok
}

func (m *Manager) Time() float64     { return m.time }
func (m *Manager) Steps() int        { return m.step }
func (m *Manager) Workers() int      { return m.workers }
func (m *Manager) Metrics() []Metric { return m.metrics }

// Deactivated lists the bodies that left the simulation, in the order they
// did.
func (m *Manager) Deactivated() []string { return m.deactivated }

// Step advances every body by dt. Behaviors run first, then each active body
// goes through BeforeUpdate, Update and AfterUpdate. A cancelled context is
// only honored between ticks.
func (m *Manager) Step(ctx context.Context, dt float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidParameter, dt)
	}

	for _, b := range m.behaviors {
		b.Update(dt)
	}

	active := make([]bool, len(m.bodies))
	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, b := range m.bodies {
		active[i] = b.IsActive()
		if !active[i] {
			continue
		}
		b := b
		g.Go(func() error { return m.stepBody(b, dt) })
	}
	err := g.Wait()

	for i, b := range m.bodies {
		if active[i] && !b.IsActive() {
			logger.Warn("body deactivated", "body", b.Name(), "step", m.step, "t", m.time)
			m.deactivated = append(m.deactivated, b.Name())
		}
	}
	if err != nil {
		return err
	}

	m.step++
	m.time += dt
	for _, mt := range m.metrics {
		mt.Observe(m.time, m.bodies)
	}
	for _, o := range m.observers {
		o.OnStep(m.step, m.time, m.bodies)
	}
	return nil
}

func (m *Manager) stepBody(b Body, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = &dynamo.SimulationError{Step: m.step, Time: m.time, Body: b.Name(), Wrapped: cause}
		}
	}()
	b.BeforeUpdate(dt)
	b.Update(dt)
	b.AfterUpdate(dt)
	return nil
}

// Reset puts every body back to rest and reactivates it.
func (m *Manager) Reset() {
	for _, b := range m.bodies {
		b.ResetState()
		b.SetIsActive(true)
	}
	for _, mt := range m.metrics {
		mt.Reset()
	}
	m.step = 0
	m.time = 0
	m.deactivated = nil
}

// Run steps the scene for cfg.Duration and records the final positions of
// every body each cfg.RecordEvery ticks, plus the last tick.
func (m *Manager) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidParameter, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidParameter, cfg.Duration)
	}
	every := max(cfg.RecordEvery, 1)
	steps := int(math.Round(cfg.Duration / cfg.Dt))

	result := &Result{
		Times:        make([]float64, 0, steps/every+2),
		Trajectories: make(map[string][][]float64, len(m.bodies)),
		Metrics:      make(map[string]float64, len(m.metrics)),
	}
	for _, mt := range m.metrics {
		mt.Reset()
	}
	m.record(result)

	logger.Debug("run started", "bodies", len(m.bodies), "steps", steps, "dt", cfg.Dt, "workers", m.workers)
	var runErr error
	for i := 0; i < steps; i++ {
		if runErr = m.Step(ctx, cfg.Dt); runErr != nil {
			break
		}
		result.StepsTaken++
		if result.StepsTaken%every == 0 || i == steps-1 {
			m.record(result)
		}
	}

	result.Deactivated = append([]string(nil), m.deactivated...)
	for _, mt := range m.metrics {
		result.Metrics[mt.Name()] = mt.Value()
	}
	if runErr != nil {
		logger.Error("run stopped", "step", m.step, "err", runErr)
		return result, runErr
	}
	logger.Debug("run finished", "steps", result.StepsTaken, "deactivated", len(result.Deactivated))
	return result, nil
}

func (m *Manager) record(r *Result) {
	r.Times = append(r.Times, m.time)
	for _, b := range m.bodies {
		positions := b.FinalState().Positions()
		r.Trajectories[b.Name()] = append(r.Trajectories[b.Name()], append([]float64(nil), positions...))
	}
}
