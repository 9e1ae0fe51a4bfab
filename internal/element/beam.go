package element

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// Beam is a 2-node 3D frame element of circular cross section. Each node
// carries 3 translations and 3 rotations.
//
// Local dof order per node is (ux, uy, uz, θx, θy, θz) with x along the beam.
type Beam struct {
	fem

	radius       float64
	shearEnabled bool

	restLength float64
	area       float64
	inertia    float64
	polar      float64
	rotation   mgl64.Mat3
}

func NewBeam(nodeIDs []int) *Beam {
	return &Beam{fem: newFem("beam", nodeIDs, 2, 6)}
}

func (e *Beam) SetRadius(r float64)         { e.radius = r }
func (e *Beam) Radius() float64             { return e.radius }
func (e *Beam) SetShearEnabled(on bool)     { e.shearEnabled = on }
func (e *Beam) ShearEnabled() bool          { return e.shearEnabled }
func (e *Beam) RestLength() float64         { return e.restLength }
func (e *Beam) LocalFrame() mgl64.Mat3      { return e.rotation }
func (e *Beam) CrossSectionArea() float64   { return e.area }
func (e *Beam) SecondMomentOfArea() float64 { return e.inertia }

func (e *Beam) Initialize(rest *dynamo.State) {
	e.initializeFem("beam", rest)
	dynamo.Assertf(e.radius > 0, dynamo.ErrInvalidParameter, "beam radius %g", e.radius)

	e.area = math.Pi * e.radius * e.radius
	e.inertia = math.Pi * math.Pow(e.radius, 4) / 4
	e.polar = 2 * e.inertia

	axis := rest.Position(e.nodeIDs[1]).Sub(rest.Position(e.nodeIDs[0]))
	e.restLength = axis.Len()
	if e.restLength < linalg.ScalarEpsilon {
		logger.Warn("beam has zero rest length, element is inert", "nodes", e.nodeIDs)
		return
	}
	e.rotation = beamFrame(axis.Mul(1 / e.restLength))

	t := blockDiagonal3(e.rotation, 4)
	congruence(e.kLocal, t, e.localStiffness())
	congruence(e.mLocal, t, e.localMass())
	linalg.Symmetrize(e.kLocal)
	linalg.Symmetrize(e.mLocal)
}

// beamFrame returns the rotation whose rows are the local x, y and z axes.
func beamFrame(x mgl64.Vec3) mgl64.Mat3 {
	ref := mgl64.Vec3{0, 0, 1}
	if math.Abs(x.Dot(ref)) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	y := ref.Sub(x.Mul(ref.Dot(x))).Normalize()
	z := x.Cross(y)
	return mgl64.Mat3FromCols(x, y, z).Transpose()
}

func (e *Beam) localStiffness() *mat.Dense {
	E, L := e.youngModulus, e.restLength
	G := E / (2 * (1 + e.poissonRatio))
	I := e.inertia

	phi := 0.0
	if e.shearEnabled {
		kappa := 6 * (1 + e.poissonRatio) / (7 + 6*e.poissonRatio)
		phi = 12 * E * I / (G * kappa * e.area * L * L)
	}

	k := mat.NewDense(12, 12, nil)
	set := func(i, j int, v float64) {
		k.Set(i, j, v)
		k.Set(j, i, v)
	}

	axial := E * e.area / L
	set(0, 0, axial)
	set(0, 6, -axial)
	set(6, 6, axial)

	torsion := G * e.polar / L
	set(3, 3, torsion)
	set(3, 9, -torsion)
	set(9, 9, torsion)

	k1 := 12 * E * I / ((1 + phi) * L * L * L)
	k2 := 6 * E * I / ((1 + phi) * L * L)
	k3 := (4 + phi) * E * I / ((1 + phi) * L)
	k4 := (2 - phi) * E * I / ((1 + phi) * L)

	// bending in the local xy plane: uy, θz
	set(1, 1, k1)
	set(1, 5, k2)
	set(1, 7, -k1)
	set(1, 11, k2)
	set(5, 5, k3)
	set(5, 7, -k2)
	set(5, 11, k4)
	set(7, 7, k1)
	set(7, 11, -k2)
	set(11, 11, k3)

	// bending in the local xz plane: uz, θy
	set(2, 2, k1)
	set(2, 4, -k2)
	set(2, 8, -k1)
	set(2, 10, -k2)
	set(4, 4, k3)
	set(4, 8, k2)
	set(4, 10, k4)
	set(8, 8, k1)
	set(8, 10, k2)
	set(10, 10, k3)

	return k
}

func (e *Beam) localMass() *mat.Dense {
	L := e.restLength
	m := e.massDensity * e.area * L

	mm := mat.NewDense(12, 12, nil)
	set := func(i, j int, v float64) {
		mm.Set(i, j, m*v)
		mm.Set(j, i, m*v)
	}

	set(0, 0, 1.0/3)
	set(0, 6, 1.0/6)
	set(6, 6, 1.0/3)

	j := e.polar / e.area
	set(3, 3, j/3)
	set(3, 9, j/6)
	set(9, 9, j/3)

	set(1, 1, 13.0/35)
	set(1, 5, 11*L/210)
	set(1, 7, 9.0/70)
	set(1, 11, -13*L/420)
	set(5, 5, L*L/105)
	set(5, 7, 13*L/420)
	set(5, 11, -L*L/140)
	set(7, 7, 13.0/35)
	set(7, 11, -11*L/210)
	set(11, 11, L*L/105)

	set(2, 2, 13.0/35)
	set(2, 4, -11*L/210)
	set(2, 8, 9.0/70)
	set(2, 10, 13*L/420)
	set(4, 4, L*L/105)
	set(4, 8, -13*L/420)
	set(4, 10, -L*L/140)
	set(8, 8, 13.0/35)
	set(8, 10, 11*L/210)
	set(10, 10, L*L/105)

	return mm
}

// Volume is the cross section times the current node distance.
func (e *Beam) Volume(state *dynamo.State) float64 {
	return e.area * state.Position(e.nodeIDs[1]).Sub(state.Position(e.nodeIDs[0])).Len()
}

func (e *Beam) Mass(state *dynamo.State) float64 {
	return e.massDensity * e.Volume(state)
}

func (e *Beam) IsValidCoordinate(natural []float64) bool {
	return e.isValidBarycentric(natural)
}

func (e *Beam) ComputeCartesianCoordinate(state *dynamo.State, natural []float64) mgl64.Vec3 {
	return e.barycentricPoint("beam", e.isValidBarycentric(natural), state, natural)
}
