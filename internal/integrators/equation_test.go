package integrators

import (
	"github.com/san-kum/deformsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// pointMasses is n independent particles of mass m tied to their rest
// position by an isotropic spring k and a viscous damper c, under gravity:
// F = m·g - k·(x - x0) - c·v.
type pointMasses struct {
	initial   *dynamo.State
	rest      []float64
	mass      float64
	stiffness float64
	viscosity float64
	gravity   [3]float64

	f       []float64
	m, d, k *mat.Dense

	numComputeM int
	numComputeK int
}

func newPointMasses(numNodes int, mass float64) *pointMasses {
	s := dynamo.NewState(3, numNodes)
	n := s.NumDof()
	return &pointMasses{
		initial: s,
		rest:    make([]float64, n),
		mass:    mass,
		gravity: [3]float64{0, -9.81, 0},
		f:       make([]float64, n),
		m:       mat.NewDense(n, n, nil),
		d:       mat.NewDense(n, n, nil),
		k:       mat.NewDense(n, n, nil),
	}
}

func (p *pointMasses) InitialState() *dynamo.State { return p.initial }

func (p *pointMasses) ComputeF(state *dynamo.State) []float64 {
	x, v := state.Positions(), state.Velocities()
	for i := range p.f {
		p.f[i] = p.mass*p.gravity[i%3] - p.stiffness*(x[i]-p.rest[i]) - p.viscosity*v[i]
	}
	state.ApplyBoundaryConditions(p.f)
	return p.f
}

func (p *pointMasses) ComputeM(state *dynamo.State) *mat.Dense {
	p.numComputeM++
	p.diagonal(p.m, p.mass, state)
	return p.m
}

func (p *pointMasses) ComputeD(state *dynamo.State) *mat.Dense {
	p.diagonal(p.d, p.viscosity, state)
	return p.d
}

func (p *pointMasses) ComputeK(state *dynamo.State) *mat.Dense {
	p.numComputeK++
	p.diagonal(p.k, p.stiffness, state)
	return p.k
}

func (p *pointMasses) ComputeFMDK(state *dynamo.State) ([]float64, *mat.Dense, *mat.Dense, *mat.Dense) {
	return p.ComputeF(state), p.ComputeM(state), p.ComputeD(state), p.ComputeK(state)
}

func (p *pointMasses) diagonal(m *mat.Dense, value float64, state *dynamo.State) {
	m.Zero()
	for i := range p.f {
		if state.IsBoundaryCondition(i) {
			m.Set(i, i, 1e9)
			continue
		}
		m.Set(i, i, value)
	}
}
