package integrators

import (
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
)

// ExplicitEuler integrates with M·Δv/dt = F(x, v) and x' = x + dt·v.
type ExplicitEuler struct {
	solverBase
	semiImplicit bool
}

func NewExplicitEuler(eq dynamo.Equation) *ExplicitEuler {
	return &ExplicitEuler{solverBase: newSolverBase(ExplicitEulerName, eq)}
}

// NewModifiedExplicitEuler returns the symplectic variant, x' = x + dt·v'.
func NewModifiedExplicitEuler(eq dynamo.Equation) *ExplicitEuler {
	return &ExplicitEuler{solverBase: newSolverBase(ModifiedExplicitEulerName, eq), semiImplicit: true}
}

func (s *ExplicitEuler) Solve(dt float64, current, next *dynamo.State) {
	f := s.equation.ComputeF(current)
	m := s.equation.ComputeM(current)

	s.systemMatrix.Scale(1/dt, m)
	s.linearSolver.Solve(s.systemMatrix, f, s.deltaV, s.complianceMatrix)
	s.integrate(dt, current, next, s.semiImplicit)
}

// LinearExplicitEuler assumes a constant M: the compliance of the first step
// is reused until dt changes.
type LinearExplicitEuler struct {
	ExplicitEuler
	cachedDt float64
}

func NewLinearExplicitEuler(eq dynamo.Equation) *LinearExplicitEuler {
	return &LinearExplicitEuler{ExplicitEuler: ExplicitEuler{solverBase: newSolverBase(LinearExplicitEulerName, eq)}}
}

func NewLinearModifiedExplicitEuler(eq dynamo.Equation) *LinearExplicitEuler {
	return &LinearExplicitEuler{ExplicitEuler: ExplicitEuler{
		solverBase:   newSolverBase(LinearModifiedExplicitEulerName, eq),
		semiImplicit: true,
	}}
}

func (s *LinearExplicitEuler) Solve(dt float64, current, next *dynamo.State) {
	if s.cachedDt != dt {
		s.ExplicitEuler.Solve(dt, current, next)
		s.cachedDt = dt
		return
	}
	f := s.equation.ComputeF(current)
	linalg.SolveWithInverse(s.complianceMatrix, f, s.deltaV)
	s.integrate(dt, current, next, s.semiImplicit)
}
