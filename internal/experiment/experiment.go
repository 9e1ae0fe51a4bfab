package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/config"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/logging"
	"github.com/san-kum/deformsim/internal/metrics"
	"github.com/san-kum/deformsim/internal/physics"
	"github.com/san-kum/deformsim/internal/scene"
)

var logger = logging.New("experiment")

// Experiment is a scene built from its configuration, ready to run.
type Experiment struct {
	cfg      *config.Config
	manager  *scene.Manager
	bodies   map[string]*physics.Deformable
	names    []string
	couplers []*physics.NodeCoupler
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	tune func(body *physics.Deformable) error
}

// WithTuning calls fn on every body once its elements are in place and
// before it is initialized, so material parameters can still change.
func WithTuning(fn func(body *physics.Deformable) error) Option {
	return func(o *buildOptions) { o.tune = fn }
}

// Build validates cfg and creates, initializes and registers every body and
// coupler it describes. Configuration faults raised by the physics core are
// returned as errors.
func Build(cfg *config.Config, opts ...Option) (exp *Experiment, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			var assertion *dynamo.AssertionError
			if !ok || !errors.As(cause, &assertion) {
				panic(r)
			}
			exp, err = nil, fmt.Errorf("build %q: %w", cfg.Name, assertion)
		}
	}()

	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	e := &Experiment{
		cfg:     cfg,
		manager: scene.NewManager(cfg.Workers),
		bodies:  make(map[string]*physics.Deformable, len(cfg.Bodies)),
	}
	for i := range cfg.Bodies {
		b, err := buildBody(&cfg.Bodies[i], o)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", cfg.Bodies[i].Name, err)
		}
		if err := e.manager.Add(b); err != nil {
			return nil, err
		}
		e.bodies[b.Name()] = b
		e.names = append(e.names, b.Name())
	}

	for _, cc := range cfg.Couplers {
		c := physics.NewNodeCoupler(e.bodies[cc.Body], cc.Node, cc.Stiffness, cc.Damping)
		c.SetTarget(mgl64.Vec3(cc.Target), mgl64.Vec3(cc.TargetVelocity))
		e.couplers = append(e.couplers, c)
		e.manager.AddBehavior(c)
	}

	for _, m := range metrics.Default() {
		e.manager.AddMetric(m)
	}
	logger.Debug("scene built", "scene", cfg.Name, "bodies", len(e.names), "couplers", len(e.couplers))
	return e, nil
}

func buildBody(bc *config.BodyConfig, o buildOptions) (*physics.Deformable, error) {
	mesh, err := bc.Mesh()
	if err != nil {
		return nil, err
	}
	body, err := newBody(bc.Type, bc.Name)
	if err != nil {
		return nil, err
	}
	d := body.deformable()

	for _, m := range mesh.Masses {
		body.addMass(m)
	}
	for i, ec := range mesh.Elements {
		p := bc.Material
		if ec.Params != nil {
			p = *ec.Params
		}
		el, err := element.New(ec.Type, ec.Nodes, p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if err := body.addElement(el); err != nil {
			return nil, err
		}
	}

	rotation, translation := transformOf(bc.Transform)
	moved := make([][3]float64, len(mesh.Nodes))
	for i, p := range mesh.Nodes {
		moved[i] = rotation.Mul3x1(mgl64.Vec3(p)).Add(translation)
	}
	fixed, err := config.FixedNodes(moved, bc.Fixed, bc.Fix)
	if err != nil {
		return nil, err
	}

	// Only 3 dof bodies can be moved after the fact, the rest start from the
	// transformed nodes.
	rigid := bc.DofPerNode() == 3
	nodes := mesh.Nodes
	if !rigid {
		nodes = moved
	}
	state := dynamo.NewState(bc.DofPerNode(), len(nodes))
	for i, p := range nodes {
		state.SetPosition(i, mgl64.Vec3(p))
	}
	for i, v := range mesh.Velocities {
		vel := mgl64.Vec3(v)
		if !rigid {
			vel = rotation.Mul3x1(vel)
		}
		state.SetVelocity(i, vel)
	}
	for _, id := range fixed {
		state.AddBoundaryCondition(id)
	}
	d.SetInitialState(state)
	if rigid && bc.Transform != nil {
		d.TransformInitialState(rotation, translation)
	}

	if bc.Gravity != nil {
		d.SetGravity(mgl64.Vec3(*bc.Gravity))
	}
	if bc.GravityEnabled != nil {
		d.SetGravityEnabled(*bc.GravityEnabled)
	}
	d.SetRayleighDampingMass(bc.RayleighMass)
	d.SetRayleighDampingStiffness(bc.RayleighStiffness)
	if bc.BoundaryConditionStiffness > 0 {
		d.SetBoundaryConditionStiffness(bc.BoundaryConditionStiffness)
	}
	if err := d.SetIntegrationScheme(bc.IntegratorName()); err != nil {
		return nil, err
	}
	if bc.LinearSolver != "" {
		if err := d.SetLinearSolver(bc.LinearSolver); err != nil {
			return nil, err
		}
	}
	if o.tune != nil {
		if err := o.tune(d); err != nil {
			return nil, err
		}
	}

	d.Initialize()
	logger.Debug("body built", "body", bc.Name, "type", d.Type(), "nodes", len(nodes),
		"elements", len(mesh.Elements), "fixed", len(fixed), "solver", d.IntegrationScheme())
	return d, nil
}

func transformOf(t *config.TransformConfig) (mgl64.Mat3, mgl64.Vec3) {
	if t == nil {
		return mgl64.Ident3(), mgl64.Vec3{}
	}
	rotation := mgl64.Ident3()
	if t.AngleDeg != 0 {
		axis := mgl64.Vec3(t.Axis).Normalize()
		rotation = mgl64.QuatRotate(mgl64.DegToRad(t.AngleDeg), axis).Mat4().Mat3()
	}
	return rotation, mgl64.Vec3(t.Translation)
}

func (e *Experiment) Config() *config.Config  { return e.cfg }
func (e *Experiment) Manager() *scene.Manager { return e.manager }
func (e *Experiment) BodyNames() []string     { return e.names }
func (e *Experiment) Couplers() []*physics.NodeCoupler {
	return e.couplers
}

func (e *Experiment) Body(name string) (*physics.Deformable, bool) {
	b, ok := e.bodies[name]
	return b, ok
}

// Run steps the scene for the configured duration.
func (e *Experiment) Run(ctx context.Context) (*scene.Result, error) {
	return e.manager.Run(ctx, scene.Config{
		Dt:          e.cfg.Dt,
		Duration:    e.cfg.Duration,
		RecordEvery: e.cfg.RecordEvery,
	})
}
