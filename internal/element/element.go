package element

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"github.com/san-kum/deformsim/internal/logging"
	"gonum.org/v1/gonum/mat"
)

var logger = logging.New("element")

// Element is a local contributor to a body's global M, D, K and F.
//
// Add* methods accumulate into the caller's global vector or matrix, indexed
// by the element's node ids; they never overwrite.
type Element interface {
	NodeIDs() []int
	NumNodes() int
	NumDofPerNode() int

	// Initialize caches rest-state quantities and validates parameters.
	// It panics with *dynamo.AssertionError on invalid input or on a second call.
	Initialize(rest *dynamo.State)

	Volume(state *dynamo.State) float64
	Mass(state *dynamo.State) float64

	AddForce(state *dynamo.State, f []float64, scale float64)
	AddMass(state *dynamo.State, m *mat.Dense, scale float64)
	AddDamping(state *dynamo.State, d *mat.Dense, scale float64)
	AddStiffness(state *dynamo.State, k *mat.Dense, scale float64)
	AddFMDK(state *dynamo.State, f []float64, m, d, k *mat.Dense)

	// AddMatVec accumulates (alphaM·M + alphaD·D + alphaK·K)·x into f.
	AddMatVec(state *dynamo.State, alphaM, alphaD, alphaK float64, x, f []float64)

	IsValidCoordinate(natural []float64) bool
	ComputeCartesianCoordinate(state *dynamo.State, natural []float64) mgl64.Vec3
}

// Material is implemented by the finite elements.
type Material interface {
	SetMassDensity(rho float64)
	SetYoungModulus(e float64)
	SetPoissonRatio(nu float64)
	MassDensity() float64
	YoungModulus() float64
	PoissonRatio() float64
}

type base struct {
	nodeIDs       []int
	numDofPerNode int
	initialized   bool
}

func newBase(kind string, nodeIDs []int, numNodes, numDofPerNode int) base {
	dynamo.Assertf(len(nodeIDs) == numNodes, dynamo.ErrInvalidParameter,
		"%s needs %d nodes, got %d", kind, numNodes, len(nodeIDs))
	ids := make([]int, len(nodeIDs))
	copy(ids, nodeIDs)
	return base{nodeIDs: ids, numDofPerNode: numDofPerNode}
}

func (b *base) NodeIDs() []int     { return b.nodeIDs }
func (b *base) NumNodes() int      { return len(b.nodeIDs) }
func (b *base) NumDofPerNode() int { return b.numDofPerNode }

func (b *base) initialize(kind string, rest *dynamo.State) {
	dynamo.Assertf(!b.initialized, dynamo.ErrLifecycle, "%s %v initialized twice", kind, b.nodeIDs)
	dynamo.Assertf(rest.NumDofPerNode() == b.numDofPerNode, dynamo.ErrDimensionMismatch,
		"%s expects %d dof per node, state has %d", kind, b.numDofPerNode, rest.NumDofPerNode())
	for _, id := range b.nodeIDs {
		dynamo.Assertf(id >= 0 && id < rest.NumNodes(), dynamo.ErrNodeOutOfRange,
			"%s node %d, state has %d nodes", kind, id, rest.NumNodes())
	}
	b.initialized = true
}

// sumsToOne accepts one weight per node summing to 1 within ε. Weights
// outside [0, 1] extrapolate beyond the element.
func (b *base) sumsToOne(natural []float64) bool {
	if len(natural) != len(b.nodeIDs) {
		return false
	}
	sum := 0.0
	for _, c := range natural {
		sum += c
	}
	return math.Abs(sum-1) <= linalg.ScalarEpsilon
}

// isValidBarycentric additionally keeps each weight in [-ε, 1+ε].
func (b *base) isValidBarycentric(natural []float64) bool {
	if !b.sumsToOne(natural) {
		return false
	}
	for _, c := range natural {
		if c < -linalg.ScalarEpsilon || c > 1+linalg.ScalarEpsilon {
			return false
		}
	}
	return true
}

// barycentricPoint interpolates the node positions; valid is the element's
// own coordinate check.
func (b *base) barycentricPoint(kind string, valid bool, state *dynamo.State, natural []float64) mgl64.Vec3 {
	dynamo.Assertf(valid, dynamo.ErrInvalidParameter, "%s natural coordinate %v", kind, natural)
	var p mgl64.Vec3
	for i, id := range b.nodeIDs {
		p = p.Add(state.Position(id).Mul(natural[i]))
	}
	return p
}

// fem carries the material, the rest dofs and the cached local matrices of
// the linear finite elements.
type fem struct {
	base

	massDensity  float64
	youngModulus float64
	poissonRatio float64

	x0     []float64
	mLocal *mat.Dense
	kLocal *mat.Dense

	xLoc []float64
	fLoc []float64
}

func newFem(kind string, nodeIDs []int, numNodes, numDofPerNode int) fem {
	n := numNodes * numDofPerNode
	return fem{
		base:   newBase(kind, nodeIDs, numNodes, numDofPerNode),
		x0:     make([]float64, n),
		mLocal: mat.NewDense(n, n, nil),
		kLocal: mat.NewDense(n, n, nil),
		xLoc:   make([]float64, n),
		fLoc:   make([]float64, n),
	}
}

func (e *fem) SetMassDensity(rho float64) { e.massDensity = rho }
func (e *fem) SetYoungModulus(v float64)  { e.youngModulus = v }
func (e *fem) SetPoissonRatio(nu float64) { e.poissonRatio = nu }
func (e *fem) MassDensity() float64       { return e.massDensity }
func (e *fem) YoungModulus() float64      { return e.youngModulus }
func (e *fem) PoissonRatio() float64      { return e.poissonRatio }

func (e *fem) initializeFem(kind string, rest *dynamo.State) {
	e.initialize(kind, rest)
	dynamo.Assertf(e.massDensity > 0, dynamo.ErrInvalidParameter, "%s mass density %g", kind, e.massDensity)
	dynamo.Assertf(e.youngModulus > 0, dynamo.ErrInvalidParameter, "%s Young modulus %g", kind, e.youngModulus)
	dynamo.Assertf(e.poissonRatio >= 0 && e.poissonRatio < 0.5, dynamo.ErrInvalidParameter,
		"%s Poisson ratio %g", kind, e.poissonRatio)
	linalg.GetSubVector(rest.Positions(), e.nodeIDs, e.numDofPerNode, e.x0)
}

// lame returns the Lamé coefficients of the material.
func (e *fem) lame() (lambda, mu float64) {
	E, nu := e.youngModulus, e.poissonRatio
	lambda = E * nu / ((1 + nu) * (1 - 2*nu))
	mu = E / (2 * (1 + nu))
	return lambda, mu
}

// elasticity is the 6x6 isotropic Hooke matrix in Voigt order (xx, yy, zz, xy, yz, zx).
func (e *fem) elasticity() *mat.Dense {
	lambda, mu := e.lame()
	em := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			em.Set(i, j, lambda)
		}
		em.Set(i, i, 2*mu+lambda)
		em.Set(i+3, i+3, mu)
	}
	return em
}

// addForceWith accumulates -scale·k·(x - x0).
func (e *fem) addForceWith(state *dynamo.State, k mat.Matrix, f []float64, scale float64) {
	linalg.GetSubVector(state.Positions(), e.nodeIDs, e.numDofPerNode, e.xLoc)
	for i := range e.xLoc {
		e.xLoc[i] -= e.x0[i]
	}
	linalg.Zero(e.fLoc)
	linalg.MulVecAdd(-scale, k, e.xLoc, e.fLoc)
	linalg.AddSubVector(e.fLoc, e.nodeIDs, e.numDofPerNode, f)
}

func (e *fem) AddForce(state *dynamo.State, f []float64, scale float64) {
	e.addForceWith(state, e.kLocal, f, scale)
}

func (e *fem) AddMass(state *dynamo.State, m *mat.Dense, scale float64) {
	linalg.AddScaledSubMatrix(e.mLocal, scale, e.nodeIDs, e.numDofPerNode, m)
}

// AddDamping is a no-op: the finite elements carry no viscous term of their own.
func (e *fem) AddDamping(state *dynamo.State, d *mat.Dense, scale float64) {}

func (e *fem) AddStiffness(state *dynamo.State, k *mat.Dense, scale float64) {
	linalg.AddScaledSubMatrix(e.kLocal, scale, e.nodeIDs, e.numDofPerNode, k)
}

func (e *fem) AddFMDK(state *dynamo.State, f []float64, m, d, k *mat.Dense) {
	e.AddMass(state, m, 1)
	e.AddStiffness(state, k, 1)
	e.AddForce(state, f, 1)
}

func (e *fem) AddMatVec(state *dynamo.State, alphaM, alphaD, alphaK float64, x, f []float64) {
	e.addMatVecWith(e.mLocal, e.kLocal, alphaM, alphaK, x, f)
}

func (e *fem) addMatVecWith(m, k mat.Matrix, alphaM, alphaK float64, x, f []float64) {
	if alphaM == 0 && alphaK == 0 {
		return
	}
	linalg.GetSubVector(x, e.nodeIDs, e.numDofPerNode, e.xLoc)
	linalg.Zero(e.fLoc)
	if alphaM != 0 {
		linalg.MulVecAdd(alphaM, m, e.xLoc, e.fLoc)
	}
	if alphaK != 0 {
		linalg.MulVecAdd(alphaK, k, e.xLoc, e.fLoc)
	}
	linalg.AddSubVector(e.fLoc, e.nodeIDs, e.numDofPerNode, f)
}

// LocalMass and LocalStiffness expose the cached element matrices.
func (e *fem) LocalMass() mat.Matrix      { return e.mLocal }
func (e *fem) LocalStiffness() mat.Matrix { return e.kLocal }

// blockDiagonal3 builds the n·3 square matrix with r repeated on the diagonal.
func blockDiagonal3(r mgl64.Mat3, n int) *mat.Dense {
	t := mat.NewDense(3*n, 3*n, nil)
	for b := 0; b < n; b++ {
		linalg.SetBlock3(t, 3*b, 3*b, r)
	}
	return t
}

// congruence sets dst = tᵀ·a·t.
func congruence(dst *mat.Dense, t, a mat.Matrix) {
	var at mat.Dense
	at.Mul(a, t)
	dst.Mul(t.T(), &at)
}
