package element

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func newRightTriangle(t *testing.T, thickness float64) (*Triangle, *dynamo.State) {
	t.Helper()
	tri := NewTriangle([]int{0, 1, 2})
	setMaterialValues(tri, 900, 1e5, 0.25)
	tri.SetThickness(thickness)
	rest := restState(3, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
	tri.Initialize(rest)
	return tri, rest
}

func TestTriangleVolumeAndMass(t *testing.T) {
	tri, rest := newRightTriangle(t, 0.02)

	assert.InDelta(t, 0.5, tri.RestArea(), 1e-15)
	assert.InDelta(t, 0.01, tri.Volume(rest), 1e-15)
	assert.InDelta(t, 9.0, tri.Mass(rest), 1e-12)

	m := tri.LocalMass()
	total := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			total += m.At(3*i+2, 3*j+2)
		}
	}
	assert.InDelta(t, 9.0, total, 1e-12)
	assert.InDelta(t, 2*9.0/12, m.At(0, 0), 1e-12)
}

func TestTriangleRigidModes(t *testing.T) {
	tri, rest := newRightTriangle(t, 0.02)
	k := tri.LocalStiffness()
	requireSymmetric(t, k, 1e-9)

	modes := map[string]func(p mgl64.Vec3) mgl64.Vec3{
		"translation":   func(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{1, -2, 3} },
		"in-plane spin": func(p mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{0, 0, 1}.Cross(p) },
		"out of plane":  func(p mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{0, 0, p[0] + 2*p[1]} },
	}
	for name, mode := range modes {
		t.Run(name, func(t *testing.T) {
			u := make([]float64, 9)
			for i := 0; i < 3; i++ {
				d := mode(rest.Position(i))
				copy(u[3*i:3*i+3], d[:])
			}
			var f mat.VecDense
			f.MulVec(k, mat.NewVecDense(9, u))
			for i := 0; i < 9; i++ {
				assert.InDelta(t, 0, f.AtVec(i), 1e-9)
			}
		})
	}
}

func TestTriangleUniaxialStrain(t *testing.T) {
	const thickness, eps = 0.02, 1e-3
	tri, rest := newRightTriangle(t, thickness)

	state := rest.Clone()
	state.SetPosition(1, mgl64.Vec3{1 + eps, 0, 0})

	f := make([]float64, 9)
	tri.AddForce(state, f, 1)

	sxx := 1e5 / (1 - 0.25*0.25) * eps
	assert.InDelta(t, -thickness*sxx/2, f[3], 1e-12)
	assert.InDelta(t, thickness*sxx/2, f[0], 1e-12)
	assert.InDelta(t, 0, f[6], 1e-12)
}

func TestTriangleRequiresThickness(t *testing.T) {
	tri := NewTriangle([]int{0, 1, 2})
	setMaterialValues(tri, 900, 1e5, 0.25)
	rest := restState(3, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})

	requirePanicsWith(t, dynamo.ErrInvalidParameter, func() { tri.Initialize(rest) })
}
