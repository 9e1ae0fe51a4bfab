package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/integrators"
	"github.com/san-kum/deformsim/internal/linalg"
	"github.com/san-kum/deformsim/internal/logging"
	"gonum.org/v1/gonum/mat"
)

var logger = logging.New("physics")

// DefaultBoundaryConditionStiffness is the penalty written on the diagonal
// of M, D and K for every fixed dof.
const DefaultBoundaryConditionStiffness = 1e9

// Type identifies the kind of body.
type Type int

const (
	MassSpringType Type = iota
	Fem1DType
	Fem2DType
	Fem3DType
)

func (t Type) String() string {
	switch t {
	case MassSpringType:
		return "MassSpring"
	case Fem1DType:
		return "Fem1D"
	case Fem2DType:
		return "Fem2D"
	case Fem3DType:
		return "Fem3D"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Deformable owns the states, elements and global buffers of one body.
type Deformable struct {
	name          string
	kind          Type
	numDofPerNode int

	initial  *dynamo.State
	previous *dynamo.State
	current  *dynamo.State
	next     *dynamo.State
	final    *dynamo.State

	elements   []element.Element
	nodeMasses []float64

	rayleighMass      float64
	rayleighStiffness float64
	gravityEnabled    bool
	gravity           mgl64.Vec3
	penalty           float64

	scheme       string
	linearSolver string
	solver       integrators.Solver

	external    []float64
	hasExternal bool

	f          []float64
	m, d, k    *mat.Dense
	gravityDof []float64

	stateSet    bool
	initialized bool
	active      bool
}

func newDeformable(name string, kind Type, numDofPerNode int) Deformable {
	return Deformable{
		name:           name,
		kind:           kind,
		numDofPerNode:  numDofPerNode,
		gravityEnabled: true,
		gravity:        mgl64.Vec3{0, -9.81, 0},
		penalty:        DefaultBoundaryConditionStiffness,
		scheme:         integrators.ExplicitEulerName,
		linearSolver:   linalg.DenseLUName,
		active:         true,
		m:              &mat.Dense{},
		d:              &mat.Dense{},
		k:              &mat.Dense{},
	}
}

func (b *Deformable) Name() string       { return b.name }
func (b *Deformable) Type() Type         { return b.kind }
func (b *Deformable) NumDofPerNode() int { return b.numDofPerNode }
func (b *Deformable) IsActive() bool     { return b.active }
func (b *Deformable) IsInitialized() bool {
	return b.initialized
}

func (b *Deformable) SetIsActive(active bool) { b.active = active }

// NumDof is zero until the initial state is set.
func (b *Deformable) NumDof() int {
	if b.initial == nil {
		return 0
	}
	return b.initial.NumDof()
}

func (b *Deformable) InitialState() *dynamo.State  { return b.initial }
func (b *Deformable) PreviousState() *dynamo.State { return b.previous }
func (b *Deformable) CurrentState() *dynamo.State  { return b.current }

// FinalState is the last validated state, the one consumers should read.
func (b *Deformable) FinalState() *dynamo.State { return b.final }

// SetInitialState fixes the rest configuration and the number of dofs. It can
// be called only once.
func (b *Deformable) SetInitialState(state *dynamo.State) {
	dynamo.Assertf(!b.stateSet, dynamo.ErrLifecycle, "%s: initial state already set", b.name)
	dynamo.Assertf(state.NumDofPerNode() == b.numDofPerNode, dynamo.ErrDimensionMismatch,
		"%s: %s needs %d dof per node, state has %d", b.name, b.kind, b.numDofPerNode, state.NumDofPerNode())

	b.initial = state.Clone()
	b.previous = state.Clone()
	b.current = state.Clone()
	b.next = state.Clone()
	b.final = state.Clone()

	n := state.NumDof()
	b.f = linalg.ResizeVector(b.f, n, true)
	b.external = linalg.ResizeVector(b.external, n, true)
	b.gravityDof = linalg.ResizeVector(b.gravityDof, n, true)
	b.m = linalg.ResizeMatrix(b.m, n, n, true)
	b.d = linalg.ResizeMatrix(b.d, n, n, true)
	b.k = linalg.ResizeMatrix(b.k, n, n, true)
	b.stateSet = true
	b.updateGravity()
}

// TransformInitialState moves the rest configuration rigidly. Only valid for
// 3 dof bodies and before Initialize.
func (b *Deformable) TransformInitialState(rotation mgl64.Mat3, translation mgl64.Vec3) {
	dynamo.Assertf(b.stateSet, dynamo.ErrLifecycle, "%s: no initial state to transform", b.name)
	dynamo.Assertf(!b.initialized, dynamo.ErrLifecycle, "%s: cannot transform an initialized body", b.name)
	dynamo.Assertf(b.numDofPerNode == 3, dynamo.ErrDimensionMismatch,
		"%s: rigid transform needs 3 dof per node, body has %d", b.name, b.numDofPerNode)

	s := b.initial
	for node := 0; node < s.NumNodes(); node++ {
		s.SetPosition(node, rotation.Mul3x1(s.Position(node)).Add(translation))
		s.SetVelocity(node, rotation.Mul3x1(s.Velocity(node)))
		a := linalg.NodeVec3(s.Accelerations(), node, 3)
		linalg.SetNodeVec3(s.Accelerations(), node, 3, rotation.Mul3x1(a))
	}
	b.resetStates()
}

// Initialize initializes every element against the initial state.
func (b *Deformable) Initialize() {
	dynamo.Assertf(b.stateSet, dynamo.ErrLifecycle, "%s: initialize before the initial state was set", b.name)
	dynamo.Assertf(!b.initialized, dynamo.ErrLifecycle, "%s: initialized twice", b.name)
	for _, e := range b.elements {
		e.Initialize(b.initial)
	}
	b.initialized = true
	logger.Debug("body initialized", "body", b.name, "type", b.kind,
		"nodes", b.initial.NumNodes(), "elements", len(b.elements))
}

// SetIntegrationScheme selects the solver by registry name. The solver is
// rebuilt on the next BeforeUpdate when the scheme changes.
func (b *Deformable) SetIntegrationScheme(name string) error {
	if !isScheme(name) {
		return fmt.Errorf("%w: integration scheme %q", dynamo.ErrUnknownType, name)
	}
	if name != b.scheme {
		b.scheme = name
		b.solver = nil
	}
	return nil
}

func (b *Deformable) IntegrationScheme() string { return b.scheme }

// SetLinearSolver selects how the solver inverts its system matrix, by
// name (dense_lu or diagonal). Like the scheme, it binds on the next
// BeforeUpdate.
func (b *Deformable) SetLinearSolver(name string) error {
	if _, ok := linalg.NewLinearSolver(name); !ok {
		return fmt.Errorf("%w: linear solver %q", dynamo.ErrUnknownType, name)
	}
	if name != b.linearSolver {
		b.linearSolver = name
		b.solver = nil
	}
	return nil
}

func (b *Deformable) LinearSolver() string { return b.linearSolver }

// Solver is nil until the first active BeforeUpdate.
func (b *Deformable) Solver() integrators.Solver { return b.solver }

func isScheme(name string) bool {
	for _, n := range integrators.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func (b *Deformable) SetRayleighDampingMass(c float64)      { b.rayleighMass = c }
func (b *Deformable) SetRayleighDampingStiffness(c float64) { b.rayleighStiffness = c }
func (b *Deformable) RayleighDampingMass() float64          { return b.rayleighMass }
func (b *Deformable) RayleighDampingStiffness() float64     { return b.rayleighStiffness }

func (b *Deformable) SetGravityEnabled(on bool) {
	b.gravityEnabled = on
	b.updateGravity()
}

func (b *Deformable) SetGravity(g mgl64.Vec3) {
	b.gravity = g
	b.updateGravity()
}

func (b *Deformable) IsGravityEnabled() bool { return b.gravityEnabled }
func (b *Deformable) Gravity() mgl64.Vec3    { return b.gravity }

// SetBoundaryConditionStiffness overrides the penalty applied to fixed dofs.
func (b *Deformable) SetBoundaryConditionStiffness(k float64) { b.penalty = k }
func (b *Deformable) BoundaryConditionStiffness() float64     { return b.penalty }

// updateGravity spreads the gravity vector over the translational dofs.
func (b *Deformable) updateGravity() {
	if b.gravityDof == nil {
		return
	}
	linalg.Zero(b.gravityDof)
	if !b.gravityEnabled {
		return
	}
	for node := 0; node < b.initial.NumNodes(); node++ {
		linalg.SetNodeVec3(b.gravityDof, node, b.numDofPerNode, b.gravity)
	}
}

// BeforeUpdate checks the body is ready and binds the solver on first use.
func (b *Deformable) BeforeUpdate(dt float64) {
	if !b.active {
		return
	}
	dynamo.Assertf(b.stateSet, dynamo.ErrLifecycle, "%s: no initial state", b.name)
	dynamo.Assertf(b.initialized, dynamo.ErrLifecycle, "%s: update before initialize", b.name)
	dynamo.Assertf(len(b.elements) > 0, dynamo.ErrInvalidParameter, "%s: body has no elements", b.name)
	if b.kind == MassSpringType {
		dynamo.Assertf(len(b.nodeMasses) > 0, dynamo.ErrInvalidParameter, "%s: body has no masses", b.name)
		dynamo.Assertf(b.initial.NumDof() == 3*len(b.nodeMasses), dynamo.ErrDimensionMismatch,
			"%s: state has %d dofs for %d masses", b.name, b.initial.NumDof(), len(b.nodeMasses))
	}

	if b.solver == nil {
		solver, err := integrators.New(b.scheme, b)
		dynamo.Assertf(err == nil, dynamo.ErrUnknownType, "%s: %v", b.name, err)
		ls, _ := linalg.NewLinearSolver(b.linearSolver)
		solver.SetLinearSolver(ls)
		b.solver = solver
	}
}

// Update integrates one step and rotates the state buffers.
func (b *Deformable) Update(dt float64) {
	if !b.active {
		return
	}
	dynamo.Assertf(b.solver != nil, dynamo.ErrLifecycle, "%s: update before BeforeUpdate", b.name)

	b.solver.Solve(dt, b.current, b.next)
	b.previous, b.current = b.current, b.previous
	b.current, b.next = b.next, b.current
}

// AfterUpdate validates the new state and publishes it as the final state.
func (b *Deformable) AfterUpdate(dt float64) {
	if !b.active {
		return
	}
	b.clearExternal()
	if !b.current.IsValid() {
		b.deactivate()
		return
	}
	b.final.CopyFrom(b.current)
}

// ApplyCorrection adds a velocity correction from a constraint solver.
func (b *Deformable) ApplyCorrection(dt float64, deltaVelocity []float64) {
	if !b.active {
		return
	}
	dynamo.Assertf(len(deltaVelocity) == b.current.NumDof(), dynamo.ErrDimensionMismatch,
		"%s: correction has %d entries, body has %d dofs", b.name, len(deltaVelocity), b.current.NumDof())

	linalg.Axpy(dt, deltaVelocity, b.current.Positions())
	linalg.Axpy(1, deltaVelocity, b.current.Velocities())
	if !b.current.IsValid() {
		b.deactivate()
		return
	}
	b.final.CopyFrom(b.current)
}

// ResetState puts every state back to rest. Activity is unchanged.
func (b *Deformable) ResetState() {
	if !b.stateSet {
		return
	}
	b.resetStates()
	b.clearExternal()
}

func (b *Deformable) resetStates() {
	b.previous.CopyFrom(b.initial)
	b.current.CopyFrom(b.initial)
	b.next.CopyFrom(b.initial)
	b.final.CopyFrom(b.initial)
}

func (b *Deformable) deactivate() {
	logger.Debug("deactivating body with invalid state", "body", b.name,
		"positions", b.current.Positions(), "velocities", b.current.Velocities())
	b.active = false
	b.resetStates()
}

// AddExternalForce accumulates a force on the translational dofs of node.
// External loads are folded into the next assembly and cleared by AfterUpdate.
func (b *Deformable) AddExternalForce(node int, force mgl64.Vec3) {
	b.checkNode(node)
	base := node * b.numDofPerNode
	for i := 0; i < 3; i++ {
		b.external[base+i] += force[i]
	}
	b.hasExternal = true
}

// AddExternalTorque accumulates a torque on the rotational dofs of node.
func (b *Deformable) AddExternalTorque(node int, torque mgl64.Vec3) {
	dynamo.Assertf(b.numDofPerNode == 6, dynamo.ErrDimensionMismatch,
		"%s: torque needs rotational dofs, body has %d dof per node", b.name, b.numDofPerNode)
	b.checkNode(node)
	base := node*b.numDofPerNode + 3
	for i := 0; i < 3; i++ {
		b.external[base+i] += torque[i]
	}
	b.hasExternal = true
}

// ExternalForces is the generalized load pending for the next step.
func (b *Deformable) ExternalForces() []float64 { return b.external }

func (b *Deformable) checkNode(node int) {
	dynamo.Assertf(b.stateSet, dynamo.ErrLifecycle, "%s: no initial state", b.name)
	dynamo.Assertf(node >= 0 && node < b.initial.NumNodes(), dynamo.ErrNodeOutOfRange,
		"%s: node %d, body has %d nodes", b.name, node, b.initial.NumNodes())
}

func (b *Deformable) clearExternal() {
	if b.hasExternal {
		linalg.Zero(b.external)
		b.hasExternal = false
	}
}

// KineticEnergy is ½·vᵀ·M·v of the final state.
func (b *Deformable) KineticEnergy() float64 {
	if !b.stateSet {
		return 0
	}
	v := b.final.Velocities()
	m := b.ComputeM(b.final)
	mv := make([]float64, len(v))
	linalg.MulVecAdd(1, m, v, mv)
	return 0.5 * mat.Dot(mat.NewVecDense(len(v), v), mat.NewVecDense(len(mv), mv))
}

// MaxDisplacement is the largest node translation of the final state away
// from rest.
func (b *Deformable) MaxDisplacement() float64 {
	if !b.stateSet {
		return 0
	}
	largest := 0.0
	for node := 0; node < b.initial.NumNodes(); node++ {
		d := b.final.Position(node).Sub(b.initial.Position(node)).Len()
		largest = math.Max(largest, d)
	}
	return largest
}

// TotalMass sums the lumped masses and the element masses at rest.
func (b *Deformable) TotalMass() float64 {
	total := 0.0
	for _, m := range b.nodeMasses {
		total += m
	}
	if b.initial == nil {
		return total
	}
	for _, e := range b.elements {
		total += e.Mass(b.initial)
	}
	return total
}
