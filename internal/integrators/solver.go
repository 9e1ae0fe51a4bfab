package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// Solver advances a dynamo.Equation by one time step.
//
// Solve never mutates current. next is overwritten with the integrated state,
// including current's boundary conditions. A singular system produces NaN in
// next rather than an error.
type Solver interface {
	Name() string
	Solve(dt float64, current, next *dynamo.State)
	SystemMatrix() *mat.Dense
	ComplianceMatrix() *mat.Dense
	SetLinearSolver(ls linalg.LinearSolver)
	LinearSolver() linalg.LinearSolver
}

const (
	ExplicitEulerName               = "explicit_euler"
	ModifiedExplicitEulerName       = "modified_explicit_euler"
	ImplicitEulerName               = "implicit_euler"
	RungeKutta4Name                 = "runge_kutta_4"
	LinearExplicitEulerName         = "linear_explicit_euler"
	LinearModifiedExplicitEulerName = "linear_modified_explicit_euler"
	LinearImplicitEulerName         = "linear_implicit_euler"
	LinearRungeKutta4Name           = "linear_runge_kutta_4"
)

var registry = map[string]func(dynamo.Equation) Solver{
	ExplicitEulerName:               func(eq dynamo.Equation) Solver { return NewExplicitEuler(eq) },
	ModifiedExplicitEulerName:       func(eq dynamo.Equation) Solver { return NewModifiedExplicitEuler(eq) },
	ImplicitEulerName:               func(eq dynamo.Equation) Solver { return NewImplicitEuler(eq) },
	RungeKutta4Name:                 func(eq dynamo.Equation) Solver { return NewRK4(eq) },
	LinearExplicitEulerName:         func(eq dynamo.Equation) Solver { return NewLinearExplicitEuler(eq) },
	LinearModifiedExplicitEulerName: func(eq dynamo.Equation) Solver { return NewLinearModifiedExplicitEuler(eq) },
	LinearImplicitEulerName:         func(eq dynamo.Equation) Solver { return NewLinearImplicitEuler(eq) },
	LinearRungeKutta4Name:           func(eq dynamo.Equation) Solver { return NewLinearRK4(eq) },
}

// New builds the solver registered under name for eq.
func New(name string, eq dynamo.Equation) (Solver, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: integration scheme %q", dynamo.ErrUnknownType, name)
	}
	return build(eq), nil
}

// Names lists the registered scheme names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type solverBase struct {
	name             string
	equation         dynamo.Equation
	linearSolver     linalg.LinearSolver
	systemMatrix     *mat.Dense
	complianceMatrix *mat.Dense
	deltaV           []float64
}

func newSolverBase(name string, eq dynamo.Equation) solverBase {
	n := eq.InitialState().NumDof()
	dynamo.Assertf(n > 0, dynamo.ErrDimensionMismatch, "%s: equation has no degrees of freedom", name)
	return solverBase{
		name:             name,
		equation:         eq,
		linearSolver:     linalg.DenseLU{},
		systemMatrix:     mat.NewDense(n, n, nil),
		complianceMatrix: mat.NewDense(n, n, nil),
		deltaV:           make([]float64, n),
	}
}

func (b *solverBase) Name() string                           { return b.name }
func (b *solverBase) SystemMatrix() *mat.Dense               { return b.systemMatrix }
func (b *solverBase) ComplianceMatrix() *mat.Dense           { return b.complianceMatrix }
func (b *solverBase) LinearSolver() linalg.LinearSolver      { return b.linearSolver }
func (b *solverBase) SetLinearSolver(ls linalg.LinearSolver) { b.linearSolver = ls }

// integrate writes next from current and the velocity increment in deltaV.
// When semiImplicit is set the position update uses the new velocity.
func (b *solverBase) integrate(dt float64, current, next *dynamo.State, semiImplicit bool) {
	next.CopyFrom(current)
	x, v, a := next.Positions(), next.Velocities(), next.Accelerations()
	for i := range v {
		v[i] += b.deltaV[i]
		a[i] = b.deltaV[i] / dt
		if semiImplicit {
			x[i] += dt * v[i]
		} else {
			x[i] += dt * current.Velocities()[i]
		}
	}
}
