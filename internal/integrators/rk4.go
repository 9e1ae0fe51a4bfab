package integrators

import (
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
)

// RK4 is the classical fourth order Runge-Kutta scheme on y = (x, v) with
// dx/dt = v and dv/dt = M⁻¹·F(x, v).
type RK4 struct {
	solverBase
	linear bool
	cached bool

	k1x, k1v []float64
	k2x, k2v []float64
	k3x, k3v []float64
	k4x, k4v []float64
	scratch  *dynamo.State
}

func NewRK4(eq dynamo.Equation) *RK4 {
	return &RK4{solverBase: newSolverBase(RungeKutta4Name, eq)}
}

// NewLinearRK4 returns an RK4 that inverts M once and reuses it.
func NewLinearRK4(eq dynamo.Equation) *RK4 {
	return &RK4{solverBase: newSolverBase(LinearRungeKutta4Name, eq), linear: true}
}

func (r *RK4) ensureScratch(current *dynamo.State) {
	n := current.NumDof()
	if len(r.k1x) != n {
		r.k1x, r.k1v = make([]float64, n), make([]float64, n)
		r.k2x, r.k2v = make([]float64, n), make([]float64, n)
		r.k3x, r.k3v = make([]float64, n), make([]float64, n)
		r.k4x, r.k4v = make([]float64, n), make([]float64, n)
	}
	if r.scratch == nil {
		r.scratch = current.Clone()
	} else {
		r.scratch.CopyFrom(current)
	}
}

func (r *RK4) Solve(dt float64, current, next *dynamo.State) {
	r.ensureScratch(current)
	x, v := current.Positions(), current.Velocities()

	r.derive(current, r.k1x, r.k1v)
	r.stage(x, v, 0.5*dt, r.k1x, r.k1v)
	r.derive(r.scratch, r.k2x, r.k2v)
	r.stage(x, v, 0.5*dt, r.k2x, r.k2v)
	r.derive(r.scratch, r.k3x, r.k3v)
	r.stage(x, v, dt, r.k3x, r.k3v)
	r.derive(r.scratch, r.k4x, r.k4v)

	next.CopyFrom(current)
	nx, nv, na := next.Positions(), next.Velocities(), next.Accelerations()
	dt6 := dt / 6.0
	for i := range nx {
		nx[i] = x[i] + dt6*(r.k1x[i]+2*r.k2x[i]+2*r.k3x[i]+r.k4x[i])
		na[i] = (r.k1v[i] + 2*r.k2v[i] + 2*r.k3v[i] + r.k4v[i]) / 6.0
		nv[i] = v[i] + dt*na[i]
	}
}

// stage writes y + h·k into the scratch state.
func (r *RK4) stage(x, v []float64, h float64, kx, kv []float64) {
	sx, sv := r.scratch.Positions(), r.scratch.Velocities()
	for i := range sx {
		sx[i] = x[i] + h*kx[i]
		sv[i] = v[i] + h*kv[i]
	}
}

func (r *RK4) derive(state *dynamo.State, kx, kv []float64) {
	copy(kx, state.Velocities())
	f := r.equation.ComputeF(state)
	if r.cached {
		linalg.SolveWithInverse(r.complianceMatrix, f, kv)
		return
	}
	r.systemMatrix.Copy(r.equation.ComputeM(state))
	r.linearSolver.Solve(r.systemMatrix, f, kv, r.complianceMatrix)
	r.cached = r.linear
}
