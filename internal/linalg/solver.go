package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Linear solver names accepted by NewLinearSolver.
const (
	DenseLUName  = "dense_lu"
	DiagonalName = "diagonal"
)

// NewLinearSolver returns the named strategy; ok is false for unknown names.
func NewLinearSolver(name string) (ls LinearSolver, ok bool) {
	switch name {
	case DenseLUName:
		return DenseLU{}, true
	case DiagonalName:
		return Diagonal{}, true
	}
	return nil, false
}

// LinearSolverNames lists the names NewLinearSolver accepts.
func LinearSolverNames() []string { return []string{DenseLUName, DiagonalName} }

// LinearSolver solves A·x = b and optionally exposes A⁻¹.
//
// A singular system does not return an error: x (and inverse, when given) is
// filled with NaN so the owner's validity check catches it after the step.
type LinearSolver interface {
	Solve(a *mat.Dense, b, x []float64, inverse *mat.Dense)
}

// DenseLU inverts A through an LU factorization.
type DenseLU struct{}

func (DenseLU) Solve(a *mat.Dense, b, x []float64, inverse *mat.Dense) {
	n, _ := a.Dims()
	inv := inverse
	if inv == nil {
		inv = mat.NewDense(n, n, nil)
	}
	if err := inv.Inverse(a); err != nil && !illConditioned(err) {
		fillNaN(inv.RawMatrix().Data)
		fillNaN(x)
		return
	}
	solveWithInverse(inv, b, x)
}

// Diagonal inverts only the diagonal of A; suitable for lumped mass matrices.
type Diagonal struct{}

func (Diagonal) Solve(a *mat.Dense, b, x []float64, inverse *mat.Dense) {
	n, _ := a.Dims()
	if inverse != nil {
		inverse.Zero()
	}
	for i := 0; i < n; i++ {
		d := a.At(i, i)
		inv := 1 / d
		if d == 0 {
			inv = math.NaN()
		}
		if inverse != nil {
			inverse.Set(i, i, inv)
		}
		x[i] = inv * b[i]
	}
}

// SolveWithInverse computes x = inverse·b.
func SolveWithInverse(inverse mat.Matrix, b, x []float64) {
	solveWithInverse(inverse, b, x)
}

func solveWithInverse(inverse mat.Matrix, b, x []float64) {
	xv := mat.NewVecDense(len(x), x)
	xv.MulVec(inverse, mat.NewVecDense(len(b), b))
}

func illConditioned(err error) bool {
	var cond mat.Condition
	if !errors.As(err, &cond) {
		return false
	}
	return !math.IsInf(float64(cond), 1)
}

func fillNaN(v []float64) {
	for i := range v {
		v[i] = math.NaN()
	}
}
