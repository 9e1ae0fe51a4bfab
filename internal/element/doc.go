// Package element implements the local contributors assembled by the
// deformable representations: the linear spring used by mass-spring bodies
// and the finite elements (beam, triangle membrane, tetrahedron,
// corotational tetrahedron, trilinear cube).
//
// Elements are created uninitialized, configured through setters, then
// initialized once against the body's rest state. Construction with the wrong
// node count, invalid material values and double initialization panic with a
// *dynamo.AssertionError.
package element
