package element

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// cubeSigns gives the parametric corner (ε, η, μ) of each node.
var cubeSigns = [8]mgl64.Vec3{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

type gaussPoint struct {
	point  mgl64.Vec3
	weight float64
}

// cubeQuadrature is the 2x2x2 Gauss-Legendre rule on [-1, 1]^3.
var cubeQuadrature = func() []gaussPoint {
	g := 1 / math.Sqrt(3)
	pts := make([]gaussPoint, 0, 8)
	for _, e := range []float64{-g, g} {
		for _, n := range []float64{-g, g} {
			for _, m := range []float64{-g, g} {
				pts = append(pts, gaussPoint{point: mgl64.Vec3{e, n, m}, weight: 1})
			}
		}
	}
	return pts
}()

// Cube is the 8-node trilinear hexahedron,
// N_i(ε, η, μ) = (1 ± ε)(1 ± η)(1 ± μ) / 8, integrated with 2x2x2 Gauss quadrature.
type Cube struct {
	fem
}

func NewCube(nodeIDs []int) *Cube {
	return &Cube{fem: newFem("cube", nodeIDs, 8, 3)}
}

func (e *Cube) Initialize(rest *dynamo.State) {
	e.initializeFem("cube", rest)

	em := e.elasticity()
	strain := mat.NewDense(6, 24, nil)
	var stress, contrib mat.Dense

	for _, gp := range cubeQuadrature {
		j := e.jacobian(rest, gp.point)
		det := j.Det()
		if det <= 0 {
			logger.Warn("cube has a non-positive jacobian", "nodes", e.nodeIDs, "det", det)
			continue
		}
		jinv := j.Inv()

		strain.Zero()
		for i := 0; i < 8; i++ {
			dx := jinv.Mul3x1(shapeDerivative(i, gp.point))
			strain.Set(0, 3*i, dx[0])
			strain.Set(1, 3*i+1, dx[1])
			strain.Set(2, 3*i+2, dx[2])
			strain.Set(3, 3*i, dx[1])
			strain.Set(3, 3*i+1, dx[0])
			strain.Set(4, 3*i+1, dx[2])
			strain.Set(4, 3*i+2, dx[1])
			strain.Set(5, 3*i, dx[2])
			strain.Set(5, 3*i+2, dx[0])
		}
		stress.Mul(em, strain)
		contrib.Mul(strain.T(), &stress)
		contrib.Scale(gp.weight*det, &contrib)
		e.kLocal.Add(e.kLocal, &contrib)

		for a := 0; a < 8; a++ {
			na := shape(a, gp.point)
			for b := 0; b < 8; b++ {
				v := gp.weight * det * e.massDensity * na * shape(b, gp.point)
				for k := 0; k < 3; k++ {
					e.mLocal.Set(3*a+k, 3*b+k, e.mLocal.At(3*a+k, 3*b+k)+v)
				}
			}
		}
	}
	linalg.Symmetrize(e.kLocal)
}

func shape(i int, p mgl64.Vec3) float64 {
	s := cubeSigns[i]
	return (1 + s[0]*p[0]) * (1 + s[1]*p[1]) * (1 + s[2]*p[2]) / 8
}

// shapeDerivative is (∂N_i/∂ε, ∂N_i/∂η, ∂N_i/∂μ) at p.
func shapeDerivative(i int, p mgl64.Vec3) mgl64.Vec3 {
	s := cubeSigns[i]
	fe, fn, fm := 1+s[0]*p[0], 1+s[1]*p[1], 1+s[2]*p[2]
	return mgl64.Vec3{s[0] * fn * fm / 8, fe * s[1] * fm / 8, fe * fn * s[2] / 8}
}

// jacobian is J[a][b] = ∂x_b/∂ξ_a at the parametric point p.
func (e *Cube) jacobian(state *dynamo.State, p mgl64.Vec3) mgl64.Mat3 {
	var j mgl64.Mat3
	for i, id := range e.nodeIDs {
		dn := shapeDerivative(i, p)
		x := state.Position(id)
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				j.Set(a, b, j.At(a, b)+dn[a]*x[b])
			}
		}
	}
	return j
}

// Volume integrates det(J) over the parametric cube.
func (e *Cube) Volume(state *dynamo.State) float64 {
	v := 0.0
	for _, gp := range cubeQuadrature {
		v += gp.weight * e.jacobian(state, gp.point).Det()
	}
	return v
}

func (e *Cube) Mass(state *dynamo.State) float64 {
	return e.massDensity * e.Volume(state)
}

// IsValidCoordinate accepts a parametric point (ε, η, μ) inside [-1, 1]^3.
func (e *Cube) IsValidCoordinate(natural []float64) bool {
	if len(natural) != 3 {
		return false
	}
	for _, c := range natural {
		if c < -1-linalg.ScalarEpsilon || c > 1+linalg.ScalarEpsilon {
			return false
		}
	}
	return true
}

func (e *Cube) ComputeCartesianCoordinate(state *dynamo.State, natural []float64) mgl64.Vec3 {
	dynamo.Assertf(e.IsValidCoordinate(natural), dynamo.ErrInvalidParameter, "cube natural coordinate %v", natural)
	p := mgl64.Vec3{natural[0], natural[1], natural[2]}
	var x mgl64.Vec3
	for i, id := range e.nodeIDs {
		x = x.Add(state.Position(id).Mul(shape(i, p)))
	}
	return x
}
