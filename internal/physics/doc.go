// Package physics provides deformable bodies built from elements.
//
// Every body is a [Deformable] that implements [dynamo.Equation] by summing
// element contributions into owned global buffers:
//
//   - [MassSpring]: lumped node masses joined by linear springs
//   - [Fem]: finite element bodies, 1D beams, 2D membranes or 3D solids
//
// A body is driven once per tick by the scene in a fixed order:
//
//	body.BeforeUpdate(dt)
//	body.Update(dt)
//	body.AfterUpdate(dt)
//
// A body whose state turns non-finite deactivates itself and resets to rest
// instead of returning an error, so one diverging body never stops a scene.
package physics
