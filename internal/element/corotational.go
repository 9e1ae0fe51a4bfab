package element

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// CorotationalTetrahedron wraps a linear tetrahedron and re-linearizes it
// around the element's current rotation. UpdateFrame extracts R from the
// deformation gradient; forces are then -R·K·(Rᵀx - x0) and the stiffness
// is R·K·Rᵀ.
type CorotationalTetrahedron struct {
	linear *Tetrahedron

	restEdgesInv mgl64.Mat3
	rotation     mgl64.Mat3
	rotationFull *mat.Dense
	rotatedK     *mat.Dense

	// framePos holds the node positions the current frame was derived from.
	framePos     []float64
	frameSet     bool
	frameUpdates int

	xLoc []float64
	yLoc []float64
	fLoc []float64
}

func NewCorotationalTetrahedron(nodeIDs []int) *CorotationalTetrahedron {
	return &CorotationalTetrahedron{
		linear:   NewTetrahedron(nodeIDs),
		rotation: mgl64.Ident3(),
		rotatedK: mat.NewDense(12, 12, nil),
		xLoc:     make([]float64, 12),
		yLoc:     make([]float64, 12),
		fLoc:     make([]float64, 12),
		framePos: make([]float64, 12),
	}
}

func (e *CorotationalTetrahedron) NodeIDs() []int     { return e.linear.NodeIDs() }
func (e *CorotationalTetrahedron) NumNodes() int      { return 4 }
func (e *CorotationalTetrahedron) NumDofPerNode() int { return 3 }

func (e *CorotationalTetrahedron) SetMassDensity(rho float64) { e.linear.SetMassDensity(rho) }
func (e *CorotationalTetrahedron) SetYoungModulus(v float64)  { e.linear.SetYoungModulus(v) }
func (e *CorotationalTetrahedron) SetPoissonRatio(nu float64) { e.linear.SetPoissonRatio(nu) }
func (e *CorotationalTetrahedron) MassDensity() float64       { return e.linear.MassDensity() }
func (e *CorotationalTetrahedron) YoungModulus() float64      { return e.linear.YoungModulus() }
func (e *CorotationalTetrahedron) PoissonRatio() float64      { return e.linear.PoissonRatio() }

func (e *CorotationalTetrahedron) Initialize(rest *dynamo.State) {
	e.linear.Initialize(rest)

	dm := e.edges(rest)
	if dm.Det() != 0 {
		e.restEdgesInv = dm.Inv()
	}
	e.rotation = mgl64.Ident3()
	e.rotationFull = blockDiagonal3(e.rotation, 4)
	e.rotatedK.Copy(e.linear.kLocal)
	e.frameSet = false
}

func (e *CorotationalTetrahedron) edges(state *dynamo.State) mgl64.Mat3 {
	p0, p1, p2, p3 := e.linear.corners(state)
	return mgl64.Mat3FromCols(p1.Sub(p0), p2.Sub(p0), p3.Sub(p0))
}

// Rotation is the frame computed by the last UpdateFrame.
func (e *CorotationalTetrahedron) Rotation() mgl64.Mat3 { return e.rotation }

// UpdateFrame re-derives the element rotation from state via the polar
// decomposition of the deformation gradient, and rotates the stiffness.
// The frame is reused while the node positions are unchanged. When the
// decomposition fails the previous frame is kept.
func (e *CorotationalTetrahedron) UpdateFrame(state *dynamo.State) {
	linalg.GetSubVector(state.Positions(), e.NodeIDs(), 3, e.xLoc)
	if e.frameSet && slices.Equal(e.xLoc, e.framePos) {
		return
	}

	f := e.edges(state).Mul3(e.restEdgesInv)

	fd := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			fd.Set(i, j, f.At(i, j))
		}
	}

	var svd mat.SVD
	if !svd.Factorize(fd, mat.SVDFull) {
		logger.Warn("corotational frame update failed, keeping previous rotation", "nodes", e.NodeIDs())
		return
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		r.Mul(&u, v.T())
	}

	e.rotation = linalg.Block3(&r, 0, 0)
	e.rotationFull = blockDiagonal3(e.rotation, 4)
	congruence(e.rotatedK, e.rotationFull.T(), e.linear.kLocal)
	copy(e.framePos, e.xLoc)
	e.frameSet = true
	e.frameUpdates++
}

func (e *CorotationalTetrahedron) Volume(state *dynamo.State) float64 { return e.linear.Volume(state) }
func (e *CorotationalTetrahedron) Mass(state *dynamo.State) float64   { return e.linear.Mass(state) }

func (e *CorotationalTetrahedron) AddForce(state *dynamo.State, f []float64, scale float64) {
	e.UpdateFrame(state)
	e.addForce(state, f, scale)
}

func (e *CorotationalTetrahedron) addForce(state *dynamo.State, f []float64, scale float64) {
	ids := e.NodeIDs()
	linalg.GetSubVector(state.Positions(), ids, 3, e.xLoc)

	xv := mat.NewVecDense(12, e.xLoc)
	yv := mat.NewVecDense(12, e.yLoc)
	yv.MulVec(e.rotationFull.T(), xv)
	for i := range e.yLoc {
		e.yLoc[i] -= e.linear.x0[i]
	}

	// f = -scale·R·K·y, reusing xLoc for K·y.
	xv.MulVec(e.linear.kLocal, yv)
	fv := mat.NewVecDense(12, e.fLoc)
	fv.MulVec(e.rotationFull, xv)
	fv.ScaleVec(-scale, fv)
	linalg.AddSubVector(e.fLoc, ids, 3, f)
}

func (e *CorotationalTetrahedron) AddMass(state *dynamo.State, m *mat.Dense, scale float64) {
	e.linear.AddMass(state, m, scale)
}

func (e *CorotationalTetrahedron) AddDamping(state *dynamo.State, d *mat.Dense, scale float64) {}

func (e *CorotationalTetrahedron) AddStiffness(state *dynamo.State, k *mat.Dense, scale float64) {
	e.UpdateFrame(state)
	linalg.AddScaledSubMatrix(e.rotatedK, scale, e.NodeIDs(), 3, k)
}

func (e *CorotationalTetrahedron) AddFMDK(state *dynamo.State, f []float64, m, d, k *mat.Dense) {
	e.UpdateFrame(state)
	e.linear.AddMass(state, m, 1)
	linalg.AddSubMatrix(e.rotatedK, e.NodeIDs(), 3, k)
	e.addForce(state, f, 1)
}

func (e *CorotationalTetrahedron) AddMatVec(state *dynamo.State, alphaM, alphaD, alphaK float64, x, f []float64) {
	if alphaK != 0 {
		e.UpdateFrame(state)
	}
	e.linear.addMatVecWith(e.linear.mLocal, e.rotatedK, alphaM, alphaK, x, f)
}

func (e *CorotationalTetrahedron) IsValidCoordinate(natural []float64) bool {
	return e.linear.IsValidCoordinate(natural)
}

func (e *CorotationalTetrahedron) ComputeCartesianCoordinate(state *dynamo.State, natural []float64) mgl64.Vec3 {
	return e.linear.barycentricPoint("corotational tetrahedron", e.linear.sumsToOne(natural), state, natural)
}
