package linalg

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// AddSubMatrix scatters the element matrix src into the global matrix m,
// block by block, using the node ids as block indices.
func AddSubMatrix(src mat.Matrix, nodeIDs []int, dofPerNode int, m *mat.Dense) {
	for i, row := range nodeIDs {
		for j, col := range nodeIDs {
			for a := 0; a < dofPerNode; a++ {
				gr := row*dofPerNode + a
				lr := i*dofPerNode + a
				for b := 0; b < dofPerNode; b++ {
					gc := col*dofPerNode + b
					m.Set(gr, gc, m.At(gr, gc)+src.At(lr, j*dofPerNode+b))
				}
			}
		}
	}
}

// AddScaledSubMatrix is AddSubMatrix with every entry of src multiplied by scale.
func AddScaledSubMatrix(src mat.Matrix, scale float64, nodeIDs []int, dofPerNode int, m *mat.Dense) {
	if scale == 1 {
		AddSubMatrix(src, nodeIDs, dofPerNode, m)
		return
	}
	var scaled mat.Dense
	scaled.Scale(scale, src)
	AddSubMatrix(&scaled, nodeIDs, dofPerNode, m)
}

// ResizeMatrix returns m when it is already rows x cols, a new zeroed matrix otherwise.
func ResizeMatrix(m *mat.Dense, rows, cols int, zero bool) *mat.Dense {
	if m == nil || m.IsEmpty() {
		return mat.NewDense(rows, cols, nil)
	}
	r, c := m.Dims()
	if r != rows || c != cols {
		return mat.NewDense(rows, cols, nil)
	}
	if zero {
		m.Zero()
	}
	return m
}

// ZeroRowColumn clears row i and column i of the square matrix m.
func ZeroRowColumn(m *mat.Dense, i int) {
	n, _ := m.Dims()
	for j := 0; j < n; j++ {
		m.Set(i, j, 0)
		m.Set(j, i, 0)
	}
}

// MulVecAdd computes y += alpha*A*x without allocating a result vector.
func MulVecAdd(alpha float64, a mat.Matrix, x, y []float64) {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += a.At(i, j) * x[j]
		}
		y[i] += alpha * sum
	}
}

// Symmetrize replaces m by (m + mᵀ)/2.
func Symmetrize(m *mat.Dense) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := 0.5 * (m.At(i, j) + m.At(j, i))
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
}

// SetBlock3 writes the 3x3 block b at (row, col) of m.
func SetBlock3(m *mat.Dense, row, col int, b mgl64.Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(row+i, col+j, b.At(i, j))
		}
	}
}

// Block3 reads the 3x3 block at (row, col) of m.
func Block3(m mat.Matrix, row, col int) mgl64.Mat3 {
	var b mgl64.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b.Set(i, j, m.At(row+i, col+j))
		}
	}
	return b
}

// Det3 is the determinant of the matrix whose rows are a, b and c.
func Det3(a, b, c mgl64.Vec3) float64 {
	return a.Dot(b.Cross(c))
}
