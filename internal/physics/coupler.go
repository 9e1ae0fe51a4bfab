package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
)

// NodeCoupler is a virtual spring-damper dragging one node of a body toward
// a moving target, such as a tracked tool tip.
type NodeCoupler struct {
	body      *Deformable
	node      int
	stiffness float64
	damping   float64

	target         mgl64.Vec3
	targetVelocity mgl64.Vec3
}

func NewNodeCoupler(body *Deformable, node int, stiffness, damping float64) *NodeCoupler {
	dynamo.Assertf(stiffness >= 0 && damping >= 0, dynamo.ErrInvalidParameter,
		"coupler gains must be non-negative, got %g and %g", stiffness, damping)
	body.checkNode(node)
	return &NodeCoupler{
		body:      body,
		node:      node,
		stiffness: stiffness,
		damping:   damping,
		target:    body.InitialState().Position(node),
	}
}

func (c *NodeCoupler) SetTarget(position, velocity mgl64.Vec3) {
	c.target = position
	c.targetVelocity = velocity
}

func (c *NodeCoupler) Target() mgl64.Vec3 { return c.target }
func (c *NodeCoupler) Node() int          { return c.node }

// Force is the coupling force for the body's current state.
func (c *NodeCoupler) Force() mgl64.Vec3 {
	s := c.body.CurrentState()
	x, v := s.Position(c.node), s.Velocity(c.node)
	return c.target.Sub(x).Mul(c.stiffness).Add(c.targetVelocity.Sub(v).Mul(c.damping))
}

// Update applies the coupling force for the coming step.
func (c *NodeCoupler) Update(dt float64) {
	if !c.body.IsActive() {
		return
	}
	c.body.AddExternalForce(c.node, c.Force())
}
