// Package dynamo provides the core primitives shared by the elements, the
// ODE solvers and the deformable representations:
//
//   - [State]: positions, velocities, accelerations and boundary conditions
//   - [Equation]: the M·a = F(x, v) system and its Jacobians
//   - sentinel errors and [AssertionError] for fatal configuration errors
//
// # Thread Safety
//
// A State is owned by exactly one body and is not safe for concurrent use.
// Independent bodies may be stepped concurrently.
package dynamo
