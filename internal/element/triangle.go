package element

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// Triangle is a 3-node constant strain membrane of uniform thickness under
// plane stress. The stiffness is formed in the triangle's rest plane and
// rotated into 3D, so each node carries 3 translational dofs.
type Triangle struct {
	fem

	thickness float64
	restArea  float64
	frame     mgl64.Mat3
}

func NewTriangle(nodeIDs []int) *Triangle {
	return &Triangle{fem: newFem("triangle", nodeIDs, 3, 3)}
}

func (e *Triangle) SetThickness(t float64) { e.thickness = t }
func (e *Triangle) Thickness() float64     { return e.thickness }
func (e *Triangle) RestArea() float64      { return e.restArea }

func (e *Triangle) Initialize(rest *dynamo.State) {
	e.initializeFem("triangle", rest)
	dynamo.Assertf(e.thickness > 0, dynamo.ErrInvalidParameter, "triangle thickness %g", e.thickness)

	a, b, c := e.corners(rest)
	e.restArea = area(a, b, c)
	if e.restArea < linalg.ScalarEpsilon {
		logger.Warn("triangle has no rest area, element is inert", "nodes", e.nodeIDs)
		return
	}

	ab := b.Sub(a)
	n := ab.Cross(c.Sub(a)).Normalize()
	ex := ab.Normalize()
	ey := n.Cross(ex)
	e.frame = mgl64.Mat3FromCols(ex, ey, n).Transpose()

	// in-plane coordinates with a at the origin
	var xs, ys [3]float64
	for i, p := range []mgl64.Vec3{a, b, c} {
		q := e.frame.Mul3x1(p.Sub(a))
		xs[i], ys[i] = q[0], q[1]
	}

	strain := mat.NewDense(3, 6, nil)
	coef := 1 / (2 * e.restArea)
	for i := 0; i < 3; i++ {
		j, k := (i+1)%3, (i+2)%3
		bi := ys[j] - ys[k]
		ci := xs[k] - xs[j]
		strain.Set(0, 2*i, coef*bi)
		strain.Set(1, 2*i+1, coef*ci)
		strain.Set(2, 2*i, coef*ci)
		strain.Set(2, 2*i+1, coef*bi)
	}

	E, nu := e.youngModulus, e.poissonRatio
	d := E / (1 - nu*nu)
	plane := mat.NewDense(3, 3, []float64{
		d, d * nu, 0,
		d * nu, d, 0,
		0, 0, d * (1 - nu) / 2,
	})

	var stress, k2 mat.Dense
	stress.Mul(plane, strain)
	k2.Mul(strain.T(), &stress)
	k2.Scale(e.thickness*e.restArea, &k2)

	// projection of each node's 3D displacement on the in-plane axes
	t := mat.NewDense(6, 9, nil)
	for node := 0; node < 3; node++ {
		for axis := 0; axis < 2; axis++ {
			for comp := 0; comp < 3; comp++ {
				t.Set(2*node+axis, 3*node+comp, e.frame.At(axis, comp))
			}
		}
	}
	congruence(e.kLocal, t, &k2)
	linalg.Symmetrize(e.kLocal)

	coefM := e.massDensity * e.thickness * e.restArea / 12
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			v := coefM
			if row == col {
				v = 2 * coefM
			}
			for k := 0; k < 3; k++ {
				e.mLocal.Set(3*row+k, 3*col+k, v)
			}
		}
	}
}

func (e *Triangle) corners(state *dynamo.State) (a, b, c mgl64.Vec3) {
	return state.Position(e.nodeIDs[0]), state.Position(e.nodeIDs[1]), state.Position(e.nodeIDs[2])
}

func area(a, b, c mgl64.Vec3) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Len()
}

func (e *Triangle) Volume(state *dynamo.State) float64 {
	a, b, c := e.corners(state)
	return area(a, b, c) * e.thickness
}

func (e *Triangle) Mass(state *dynamo.State) float64 {
	return e.massDensity * e.Volume(state)
}

func (e *Triangle) IsValidCoordinate(natural []float64) bool {
	return e.isValidBarycentric(natural)
}

func (e *Triangle) ComputeCartesianCoordinate(state *dynamo.State, natural []float64) mgl64.Vec3 {
	return e.barycentricPoint("triangle", e.isValidBarycentric(natural), state, natural)
}
