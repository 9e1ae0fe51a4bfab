package dynamo

import "gonum.org/v1/gonum/mat"

// Equation is the second order ODE M·a = F(x, v) with its Jacobians,
// D = -dF/dv and K = -dF/dx, evaluated at a given state.
//
// Returned vectors and matrices are owned by the implementation and are
// overwritten by the next call.
type Equation interface {
	InitialState() *State
	ComputeF(state *State) []float64
	ComputeM(state *State) *mat.Dense
	ComputeD(state *State) *mat.Dense
	ComputeK(state *State) *mat.Dense
	ComputeFMDK(state *State) (f []float64, m, d, k *mat.Dense)
}
