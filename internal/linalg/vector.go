package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GetSubVector gathers the dofs of nodeIDs from the global vector v into dst.
// dst must hold len(nodeIDs)*dofPerNode entries.
func GetSubVector(v []float64, nodeIDs []int, dofPerNode int, dst []float64) {
	for i, id := range nodeIDs {
		copy(dst[i*dofPerNode:(i+1)*dofPerNode], v[id*dofPerNode:(id+1)*dofPerNode])
	}
}

// AddSubVector scatters src (element local ordering) into the global vector v.
func AddSubVector(src []float64, nodeIDs []int, dofPerNode int, v []float64) {
	for i, id := range nodeIDs {
		for d := 0; d < dofPerNode; d++ {
			v[id*dofPerNode+d] += src[i*dofPerNode+d]
		}
	}
}

// NodeVec3 returns the first three dofs of node in v.
func NodeVec3(v []float64, node, dofPerNode int) mgl64.Vec3 {
	base := node * dofPerNode
	return mgl64.Vec3{v[base], v[base+1], v[base+2]}
}

// SetNodeVec3 writes p into the first three dofs of node in v.
func SetNodeVec3(v []float64, node, dofPerNode int, p mgl64.Vec3) {
	base := node * dofPerNode
	v[base], v[base+1], v[base+2] = p[0], p[1], p[2]
}

// ResizeVector returns v when it already has n entries, a new slice otherwise.
func ResizeVector(v []float64, n int, zero bool) []float64 {
	if len(v) != n {
		return make([]float64, n)
	}
	if zero {
		Zero(v)
	}
	return v
}

func Zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

// IsFinite reports whether every entry is neither NaN nor infinite.
func IsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func Norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Axpy computes y += alpha*x.
func Axpy(alpha float64, x, y []float64) {
	for i := range y {
		y[i] += alpha * x[i]
	}
}
