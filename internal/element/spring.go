package element

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// LinearSpring connects two 3-dof nodes with a linear elastic spring and a
// viscous damper acting along the spring axis.
type LinearSpring struct {
	base

	stiffness     float64
	damping       float64
	restLength    float64
	hasRestLength bool

	kLocal *mat.Dense
	dLocal *mat.Dense
	xLoc   []float64
	fLoc   []float64
}

func NewLinearSpring(nodeIDs []int, stiffness, damping float64) *LinearSpring {
	return &LinearSpring{
		base:      newBase("spring", nodeIDs, 2, 3),
		stiffness: stiffness,
		damping:   damping,
		kLocal:    mat.NewDense(6, 6, nil),
		dLocal:    mat.NewDense(6, 6, nil),
		xLoc:      make([]float64, 6),
		fLoc:      make([]float64, 6),
	}
}

func (s *LinearSpring) Stiffness() float64  { return s.stiffness }
func (s *LinearSpring) Damping() float64    { return s.damping }
func (s *LinearSpring) RestLength() float64 { return s.restLength }

// SetRestLength overrides the rest length otherwise measured at Initialize.
func (s *LinearSpring) SetRestLength(l float64) {
	s.restLength = l
	s.hasRestLength = true
}

func (s *LinearSpring) Initialize(rest *dynamo.State) {
	s.initialize("spring", rest)
	dynamo.Assertf(s.stiffness >= 0, dynamo.ErrInvalidParameter, "spring stiffness %g", s.stiffness)
	dynamo.Assertf(s.damping >= 0, dynamo.ErrInvalidParameter, "spring damping %g", s.damping)
	if !s.hasRestLength {
		s.restLength = s.length(rest)
	}
	dynamo.Assertf(s.restLength >= 0, dynamo.ErrInvalidParameter, "spring rest length %g", s.restLength)
}

func (s *LinearSpring) length(state *dynamo.State) float64 {
	return state.Position(s.nodeIDs[1]).Sub(state.Position(s.nodeIDs[0])).Len()
}

func (s *LinearSpring) Volume(state *dynamo.State) float64 { return 0 }
func (s *LinearSpring) Mass(state *dynamo.State) float64   { return 0 }

// axis returns the unit direction from node 0 to node 1, the current length
// and the relative velocity. ok is false for a collapsed spring.
func (s *LinearSpring) axis(state *dynamo.State) (u mgl64.Vec3, l float64, vrel mgl64.Vec3, ok bool) {
	d := state.Position(s.nodeIDs[1]).Sub(state.Position(s.nodeIDs[0]))
	l = d.Len()
	vrel = state.Velocity(s.nodeIDs[1]).Sub(state.Velocity(s.nodeIDs[0]))
	if l < linalg.ScalarEpsilon {
		return u, l, vrel, false
	}
	return d.Mul(1 / l), l, vrel, true
}

func (s *LinearSpring) AddForce(state *dynamo.State, f []float64, scale float64) {
	u, l, vrel, ok := s.axis(state)
	if !ok {
		return
	}
	f0 := u.Mul(s.stiffness*(l-s.restLength) + s.damping*vrel.Dot(u)).Mul(scale)
	linalg.SetNodeVec3(s.fLoc, 0, 3, f0)
	linalg.SetNodeVec3(s.fLoc, 1, 3, f0.Mul(-1))
	linalg.AddSubVector(s.fLoc, s.nodeIDs, 3, f)
}

// AddMass is a no-op: springs are massless, the nodes carry the mass.
func (s *LinearSpring) AddMass(state *dynamo.State, m *mat.Dense, scale float64) {}

func (s *LinearSpring) AddDamping(state *dynamo.State, d *mat.Dense, scale float64) {
	if s.computeDamping(state) {
		linalg.AddScaledSubMatrix(s.dLocal, scale, s.nodeIDs, 3, d)
	}
}

func (s *LinearSpring) AddStiffness(state *dynamo.State, k *mat.Dense, scale float64) {
	if s.computeStiffness(state) {
		linalg.AddScaledSubMatrix(s.kLocal, scale, s.nodeIDs, 3, k)
	}
}

func (s *LinearSpring) AddFMDK(state *dynamo.State, f []float64, m, d, k *mat.Dense) {
	s.AddForce(state, f, 1)
	s.AddDamping(state, d, 1)
	s.AddStiffness(state, k, 1)
}

func (s *LinearSpring) AddMatVec(state *dynamo.State, alphaM, alphaD, alphaK float64, x, f []float64) {
	if alphaD == 0 && alphaK == 0 {
		return
	}
	linalg.GetSubVector(x, s.nodeIDs, 3, s.xLoc)
	linalg.Zero(s.fLoc)
	if alphaD != 0 && s.computeDamping(state) {
		linalg.MulVecAdd(alphaD, s.dLocal, s.xLoc, s.fLoc)
	}
	if alphaK != 0 && s.computeStiffness(state) {
		linalg.MulVecAdd(alphaK, s.kLocal, s.xLoc, s.fLoc)
	}
	linalg.AddSubVector(s.fLoc, s.nodeIDs, 3, f)
}

// computeDamping fills dLocal with -dF/dv = c·u·uᵀ in the [[A, -A], [-A, A]] pattern.
func (s *LinearSpring) computeDamping(state *dynamo.State) bool {
	u, _, _, ok := s.axis(state)
	if !ok {
		return false
	}
	fillPair(s.dLocal, outer(u, u).Mul(s.damping))
	return true
}

// computeStiffness fills kLocal with -dF/dx, including the derivative of the
// damping force with respect to the positions.
func (s *LinearSpring) computeStiffness(state *dynamo.State) bool {
	u, l, vrel, ok := s.axis(state)
	if !ok {
		return false
	}
	uu := outer(u, u)
	proj := mgl64.Ident3().Sub(uu)

	elastic := proj.Mul(s.stiffness * (l - s.restLength) / l).Add(uu.Mul(s.stiffness))
	viscous := outer(u, vrel).Mul3(proj).Add(proj.Mul(u.Dot(vrel))).Mul(s.damping / l)

	fillPair(s.kLocal, elastic.Add(viscous))
	return true
}

func outer(a, b mgl64.Vec3) mgl64.Mat3 {
	var m mgl64.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, a[i]*b[j])
		}
	}
	return m
}

func fillPair(m *mat.Dense, a mgl64.Mat3) {
	neg := a.Mul(-1)
	linalg.SetBlock3(m, 0, 0, a)
	linalg.SetBlock3(m, 0, 3, neg)
	linalg.SetBlock3(m, 3, 0, neg)
	linalg.SetBlock3(m, 3, 3, a)
}

func (s *LinearSpring) IsValidCoordinate(natural []float64) bool {
	return s.isValidBarycentric(natural)
}

func (s *LinearSpring) ComputeCartesianCoordinate(state *dynamo.State, natural []float64) mgl64.Vec3 {
	return s.barycentricPoint("spring", s.isValidBarycentric(natural), state, natural)
}
