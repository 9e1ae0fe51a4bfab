package physics

import (
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// ComputeF assembles the generalized force without building global
// matrices: element forces, gravity as M·G, Rayleigh damping
// -(αM·M + αK·K)·v and pending external loads.
func (b *Deformable) ComputeF(state *dynamo.State) []float64 {
	f := b.f
	linalg.Zero(f)
	v := state.Velocities()
	rayleigh := b.rayleighMass != 0 || b.rayleighStiffness != 0

	for _, e := range b.elements {
		e.AddForce(state, f, 1)
		if b.gravityEnabled {
			e.AddMatVec(state, 1, 0, 0, b.gravityDof, f)
		}
		if rayleigh {
			e.AddMatVec(state, -b.rayleighMass, 0, -b.rayleighStiffness, v, f)
		}
	}
	for node, mass := range b.nodeMasses {
		base := node * b.numDofPerNode
		for i := 0; i < 3; i++ {
			f[base+i] += mass*b.gravityDof[base+i] - b.rayleighMass*mass*v[base+i]
		}
	}
	if b.hasExternal {
		linalg.Axpy(1, b.external, f)
	}

	state.ApplyBoundaryConditions(f)
	return f
}

func (b *Deformable) ComputeM(state *dynamo.State) *mat.Dense {
	b.m.Zero()
	b.addMass(state, b.m, 1)
	b.applyBoundaryConditions(state, b.m)
	return b.m
}

// ComputeD includes the Rayleigh term αM·M + αK·K.
func (b *Deformable) ComputeD(state *dynamo.State) *mat.Dense {
	b.d.Zero()
	for _, e := range b.elements {
		e.AddDamping(state, b.d, 1)
		if b.rayleighMass != 0 {
			e.AddMass(state, b.d, b.rayleighMass)
		}
		if b.rayleighStiffness != 0 {
			e.AddStiffness(state, b.d, b.rayleighStiffness)
		}
	}
	if b.rayleighMass != 0 {
		b.addNodeMasses(b.d, b.rayleighMass)
	}
	b.applyBoundaryConditions(state, b.d)
	return b.d
}

func (b *Deformable) ComputeK(state *dynamo.State) *mat.Dense {
	b.k.Zero()
	for _, e := range b.elements {
		e.AddStiffness(state, b.k, 1)
	}
	b.applyBoundaryConditions(state, b.k)
	return b.k
}

// ComputeFMDK assembles everything in one pass over the elements and derives
// the gravity and Rayleigh terms from the global matrices.
func (b *Deformable) ComputeFMDK(state *dynamo.State) ([]float64, *mat.Dense, *mat.Dense, *mat.Dense) {
	f, m, d, k := b.f, b.m, b.d, b.k
	linalg.Zero(f)
	m.Zero()
	d.Zero()
	k.Zero()

	for _, e := range b.elements {
		e.AddFMDK(state, f, m, d, k)
	}
	b.addNodeMasses(m, 1)

	if b.gravityEnabled {
		linalg.MulVecAdd(1, m, b.gravityDof, f)
	}
	if b.rayleighMass != 0 || b.rayleighStiffness != 0 {
		v := state.Velocities()
		linalg.MulVecAdd(-b.rayleighMass, m, v, f)
		linalg.MulVecAdd(-b.rayleighStiffness, k, v, f)
		addScaled(d, b.rayleighMass, m)
		addScaled(d, b.rayleighStiffness, k)
	}
	if b.hasExternal {
		linalg.Axpy(1, b.external, f)
	}

	state.ApplyBoundaryConditions(f)
	b.applyBoundaryConditions(state, m)
	b.applyBoundaryConditions(state, d)
	b.applyBoundaryConditions(state, k)
	return f, m, d, k
}

func (b *Deformable) addMass(state *dynamo.State, m *mat.Dense, scale float64) {
	for _, e := range b.elements {
		e.AddMass(state, m, scale)
	}
	b.addNodeMasses(m, scale)
}

func (b *Deformable) addNodeMasses(m *mat.Dense, scale float64) {
	for node, mass := range b.nodeMasses {
		base := node * b.numDofPerNode
		for i := 0; i < 3; i++ {
			m.Set(base+i, base+i, m.At(base+i, base+i)+scale*mass)
		}
	}
}

// applyBoundaryConditions replaces row and column of every fixed dof by the
// penalty on the diagonal.
func (b *Deformable) applyBoundaryConditions(state *dynamo.State, m *mat.Dense) {
	for _, i := range state.BoundaryConditions() {
		linalg.ZeroRowColumn(m, i)
		m.Set(i, i, b.penalty)
	}
}

func addScaled(dst *mat.Dense, alpha float64, a mat.Matrix) {
	if alpha == 0 {
		return
	}
	r, c := dst.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, dst.At(i, j)+alpha*a.At(i, j))
		}
	}
}
