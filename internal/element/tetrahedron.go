package element

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// Tetrahedron is the 4-node linear elastic tetrahedron with linear shape functions
// N_i(x, y, z) = (a_i + b_i·x + c_i·y + d_i·z) / 6V.
type Tetrahedron struct {
	fem

	restVolume     float64
	ai, bi, ci, di [4]float64
	strain         *mat.Dense
}

func NewTetrahedron(nodeIDs []int) *Tetrahedron {
	return &Tetrahedron{
		fem:    newFem("tetrahedron", nodeIDs, 4, 3),
		strain: mat.NewDense(6, 12, nil),
	}
}

func (e *Tetrahedron) Initialize(rest *dynamo.State) {
	e.initializeFem("tetrahedron", rest)

	a, b, c, d := e.corners(rest)
	if orientation := b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a)); orientation < 0 {
		logger.Warn("tetrahedron ill-defined (ABC counter-clockwise viewed from D)", "nodes", e.nodeIDs)
	}

	e.computeShapeFunctions(rest)
	e.computeMass(rest)
	e.computeStiffness()
}

func (e *Tetrahedron) corners(state *dynamo.State) (a, b, c, d mgl64.Vec3) {
	return state.Position(e.nodeIDs[0]), state.Position(e.nodeIDs[1]),
		state.Position(e.nodeIDs[2]), state.Position(e.nodeIDs[3])
}

// Volume is the signed volume; negative when the node ordering is inverted.
func (e *Tetrahedron) Volume(state *dynamo.State) float64 {
	p0, p1, p2, p3 := e.corners(state)
	return (linalg.Det3(p1, p2, p3) - linalg.Det3(p0, p2, p3) +
		linalg.Det3(p0, p1, p3) - linalg.Det3(p0, p1, p2)) / 6
}

func (e *Tetrahedron) RestVolume() float64 { return e.restVolume }

func (e *Tetrahedron) Mass(state *dynamo.State) float64 {
	return e.massDensity * e.Volume(state)
}

// ShapeFunctions returns the rest coefficients (a_i, b_i, c_i, d_i).
func (e *Tetrahedron) ShapeFunctions() (ai, bi, ci, di [4]float64) {
	return e.ai, e.bi, e.ci, e.di
}

func (e *Tetrahedron) computeShapeFunctions(rest *dynamo.State) {
	a, b, c, d := e.corners(rest)
	e.restVolume = e.Volume(rest)
	if e.restVolume <= linalg.ScalarEpsilon {
		logger.Warn("tetrahedron has no positive rest volume", "nodes", e.nodeIDs, "volume", e.restVolume)
	}

	e.ai = [4]float64{
		linalg.Det3(b, c, d),
		-linalg.Det3(a, c, d),
		linalg.Det3(a, b, d),
		-linalg.Det3(a, b, c),
	}

	tilde := func(p mgl64.Vec3, i, j int) mgl64.Vec3 { return mgl64.Vec3{1, p[i], p[j]} }

	at, bt, ct, dt := tilde(a, 1, 2), tilde(b, 1, 2), tilde(c, 1, 2), tilde(d, 1, 2)
	e.bi = [4]float64{
		-linalg.Det3(bt, ct, dt),
		linalg.Det3(at, ct, dt),
		-linalg.Det3(at, bt, dt),
		linalg.Det3(at, bt, ct),
	}

	at, bt, ct, dt = tilde(a, 0, 2), tilde(b, 0, 2), tilde(c, 0, 2), tilde(d, 0, 2)
	e.ci = [4]float64{
		linalg.Det3(bt, ct, dt),
		-linalg.Det3(at, ct, dt),
		linalg.Det3(at, bt, dt),
		-linalg.Det3(at, bt, ct),
	}

	at, bt, ct, dt = tilde(a, 0, 1), tilde(b, 0, 1), tilde(c, 0, 1), tilde(d, 0, 1)
	e.di = [4]float64{
		-linalg.Det3(bt, ct, dt),
		linalg.Det3(at, ct, dt),
		-linalg.Det3(at, bt, dt),
		linalg.Det3(at, bt, ct),
	}
}

func (e *Tetrahedron) computeMass(rest *dynamo.State) {
	coef := e.Volume(rest) * e.massDensity / 20
	e.mLocal.Zero()
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			v := coef
			if row == col {
				v = 2 * coef
			}
			for k := 0; k < 3; k++ {
				e.mLocal.Set(3*row+k, 3*col+k, v)
			}
		}
	}
}

func (e *Tetrahedron) computeStiffness() {
	e.strain.Zero()
	coef := 1 / (6 * e.restVolume)
	for i := 0; i < 4; i++ {
		e.strain.Set(0, 3*i, coef*e.bi[i])
		e.strain.Set(1, 3*i+1, coef*e.ci[i])
		e.strain.Set(2, 3*i+2, coef*e.di[i])
		e.strain.Set(3, 3*i, coef*e.ci[i])
		e.strain.Set(3, 3*i+1, coef*e.bi[i])
		e.strain.Set(4, 3*i+1, coef*e.di[i])
		e.strain.Set(4, 3*i+2, coef*e.ci[i])
		e.strain.Set(5, 3*i, coef*e.di[i])
		e.strain.Set(5, 3*i+2, coef*e.bi[i])
	}

	var stress mat.Dense
	stress.Mul(e.elasticity(), e.strain)
	e.kLocal.Mul(e.strain.T(), &stress)
	e.kLocal.Scale(e.restVolume, e.kLocal)
	linalg.Symmetrize(e.kLocal)
}

// IsValidCoordinate accepts any 4 weights summing to 1, including points
// extrapolated outside the element.
func (e *Tetrahedron) IsValidCoordinate(natural []float64) bool {
	return e.sumsToOne(natural)
}

func (e *Tetrahedron) ComputeCartesianCoordinate(state *dynamo.State, natural []float64) mgl64.Vec3 {
	return e.barycentricPoint("tetrahedron", e.sumsToOne(natural), state, natural)
}
