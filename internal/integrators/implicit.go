package integrators

import (
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// ImplicitEuler linearizes F around the current state:
// (M/dt + D + dt·K)·Δv = F - dt·K·v.
type ImplicitEuler struct {
	solverBase
	rhs []float64
}

func NewImplicitEuler(eq dynamo.Equation) *ImplicitEuler {
	return newImplicitEuler(ImplicitEulerName, eq)
}

func newImplicitEuler(name string, eq dynamo.Equation) *ImplicitEuler {
	b := newSolverBase(name, eq)
	return &ImplicitEuler{solverBase: b, rhs: make([]float64, len(b.deltaV))}
}

func (s *ImplicitEuler) Solve(dt float64, current, next *dynamo.State) {
	f, m, d, k := s.equation.ComputeFMDK(current)

	s.systemMatrix.Scale(1/dt, m)
	s.systemMatrix.Add(s.systemMatrix, d)
	for i := range s.rhs {
		s.rhs[i] = f[i]
	}
	s.addStiffness(dt, k, current.Velocities())

	s.linearSolver.Solve(s.systemMatrix, s.rhs, s.deltaV, s.complianceMatrix)
	s.integrate(dt, current, next, true)
}

func (s *ImplicitEuler) addStiffness(dt float64, k mat.Matrix, v []float64) {
	n, _ := s.systemMatrix.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s.systemMatrix.Set(i, j, s.systemMatrix.At(i, j)+dt*k.At(i, j))
		}
	}
	linalg.MulVecAdd(-dt, k, v, s.rhs)
}

// LinearImplicitEuler assumes constant M, D and K: after the first step (and
// until dt changes) only F is evaluated.
type LinearImplicitEuler struct {
	*ImplicitEuler
	stiffness *mat.Dense
	cachedDt  float64
}

func NewLinearImplicitEuler(eq dynamo.Equation) *LinearImplicitEuler {
	return &LinearImplicitEuler{ImplicitEuler: newImplicitEuler(LinearImplicitEulerName, eq)}
}

func (s *LinearImplicitEuler) Solve(dt float64, current, next *dynamo.State) {
	if s.cachedDt != dt {
		s.ImplicitEuler.Solve(dt, current, next)
		s.stiffness = mat.DenseCopyOf(s.equation.ComputeK(current))
		s.cachedDt = dt
		return
	}
	f := s.equation.ComputeF(current)
	copy(s.rhs, f)
	linalg.MulVecAdd(-dt, s.stiffness, current.Velocities(), s.rhs)
	linalg.SolveWithInverse(s.complianceMatrix, s.rhs, s.deltaV)
	s.integrate(dt, current, next, true)
}
