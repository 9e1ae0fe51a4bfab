package dynamo

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/linalg"
)

// State is the dynamic state of a body: positions, velocities and
// accelerations over every degree of freedom, plus the set of dofs held
// fixed by boundary conditions.
type State struct {
	numDofPerNode int
	numNodes      int

	positions     []float64
	velocities    []float64
	accelerations []float64

	boundaryConditions []int
	isBoundary         []bool
}

func NewState(numDofPerNode, numNodes int) *State {
	s := &State{}
	s.SetNumDof(numDofPerNode, numNodes)
	return s
}

// SetNumDof resizes the state and clears it.
func (s *State) SetNumDof(numDofPerNode, numNodes int) {
	n := numDofPerNode * numNodes
	s.numDofPerNode = numDofPerNode
	s.numNodes = numNodes
	s.positions = make([]float64, n)
	s.velocities = make([]float64, n)
	s.accelerations = make([]float64, n)
	s.boundaryConditions = s.boundaryConditions[:0]
	s.isBoundary = make([]bool, n)
}

func (s *State) NumDof() int        { return len(s.positions) }
func (s *State) NumNodes() int      { return s.numNodes }
func (s *State) NumDofPerNode() int { return s.numDofPerNode }

func (s *State) Positions() []float64     { return s.positions }
func (s *State) Velocities() []float64    { return s.velocities }
func (s *State) Accelerations() []float64 { return s.accelerations }

// Position returns the translational part of node.
func (s *State) Position(node int) mgl64.Vec3 {
	base := node * s.numDofPerNode
	return mgl64.Vec3{s.positions[base], s.positions[base+1], s.positions[base+2]}
}

// Velocity returns the translational velocity of node.
func (s *State) Velocity(node int) mgl64.Vec3 {
	base := node * s.numDofPerNode
	return mgl64.Vec3{s.velocities[base], s.velocities[base+1], s.velocities[base+2]}
}

func (s *State) SetPosition(node int, p mgl64.Vec3) {
	base := node * s.numDofPerNode
	s.positions[base], s.positions[base+1], s.positions[base+2] = p[0], p[1], p[2]
}

func (s *State) SetVelocity(node int, v mgl64.Vec3) {
	base := node * s.numDofPerNode
	s.velocities[base], s.velocities[base+1], s.velocities[base+2] = v[0], v[1], v[2]
}

// AddBoundaryCondition fixes every dof of node.
func (s *State) AddBoundaryCondition(node int) {
	Assertf(node >= 0 && node < s.numNodes, ErrNodeOutOfRange, "boundary condition on node %d, state has %d nodes", node, s.numNodes)
	for d := 0; d < s.numDofPerNode; d++ {
		s.AddBoundaryConditionDof(node, d)
	}
}

// AddBoundaryConditionDof fixes a single dof of node.
func (s *State) AddBoundaryConditionDof(node, dof int) {
	Assertf(node >= 0 && node < s.numNodes, ErrNodeOutOfRange, "boundary condition on node %d, state has %d nodes", node, s.numNodes)
	Assertf(dof >= 0 && dof < s.numDofPerNode, ErrInvalidParameter, "dof %d of a %d-dof node", dof, s.numDofPerNode)
	i := node*s.numDofPerNode + dof
	if s.isBoundary[i] {
		return
	}
	s.isBoundary[i] = true
	at := sort.SearchInts(s.boundaryConditions, i)
	s.boundaryConditions = append(s.boundaryConditions, 0)
	copy(s.boundaryConditions[at+1:], s.boundaryConditions[at:])
	s.boundaryConditions[at] = i
}

// BoundaryConditions lists the fixed dofs in increasing order.
func (s *State) BoundaryConditions() []int { return s.boundaryConditions }

func (s *State) IsBoundaryCondition(dof int) bool { return s.isBoundary[dof] }

// ApplyBoundaryConditions zeroes the entries of v on fixed dofs.
func (s *State) ApplyBoundaryConditions(v []float64) {
	for _, i := range s.boundaryConditions {
		v[i] = 0
	}
}

// Reset zeroes all vectors and drops the boundary conditions.
func (s *State) Reset() {
	for i := range s.positions {
		s.positions[i] = 0
		s.velocities[i] = 0
		s.accelerations[i] = 0
		s.isBoundary[i] = false
	}
	s.boundaryConditions = s.boundaryConditions[:0]
}

// CopyFrom makes s an exact copy of other, reusing s's buffers when sizes match.
func (s *State) CopyFrom(other *State) {
	if len(s.positions) != len(other.positions) {
		s.positions = make([]float64, len(other.positions))
		s.velocities = make([]float64, len(other.velocities))
		s.accelerations = make([]float64, len(other.accelerations))
		s.isBoundary = make([]bool, len(other.isBoundary))
	}
	s.numDofPerNode = other.numDofPerNode
	s.numNodes = other.numNodes
	copy(s.positions, other.positions)
	copy(s.velocities, other.velocities)
	copy(s.accelerations, other.accelerations)
	copy(s.isBoundary, other.isBoundary)
	s.boundaryConditions = append(s.boundaryConditions[:0], other.boundaryConditions...)
}

func (s *State) Clone() *State {
	c := &State{}
	c.CopyFrom(s)
	return c
}

// IsValid reports whether positions and velocities are all finite.
func (s *State) IsValid() bool {
	return linalg.IsFinite(s.positions) && linalg.IsFinite(s.velocities)
}

// Equal compares the vectors and boundary conditions exactly.
func (s *State) Equal(other *State) bool {
	if s.numDofPerNode != other.numDofPerNode || s.numNodes != other.numNodes {
		return false
	}
	if len(s.boundaryConditions) != len(other.boundaryConditions) {
		return false
	}
	for i, b := range s.boundaryConditions {
		if other.boundaryConditions[i] != b {
			return false
		}
	}
	return equal(s.positions, other.positions) &&
		equal(s.velocities, other.velocities) &&
		equal(s.accelerations, other.accelerations)
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
