package element

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newUnitTet(t *testing.T) *Tetrahedron {
	t.Helper()
	tet := NewTetrahedron([]int{0, 1, 2, 3})
	setMaterialValues(tet, 1000, 1e6, 0.3)
	tet.Initialize(unitTetState())
	return tet
}

func TestTetrahedronVolume(t *testing.T) {
	tet := newUnitTet(t)
	rest := unitTetState()

	assert.InDelta(t, 1.0/6, tet.Volume(rest), 1e-15)
	assert.InDelta(t, 1.0/6, tet.RestVolume(), 1e-15)
	assert.InDelta(t, 1000.0/6, tet.Mass(rest), 1e-12)

	swapped := restState(3,
		mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 1, 0},
		mgl64.Vec3{0, 0, 1},
	)
	assert.InDelta(t, -1.0/6, tet.Volume(swapped), 1e-15)
}

func TestInvertedTetrahedronWarns(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	defer logging.SetOutput(os.Stderr)

	inverted := restState(3,
		mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 1, 0},
		mgl64.Vec3{0, 0, 1},
	)
	tet := NewTetrahedron([]int{0, 1, 2, 3})
	setMaterialValues(tet, 1000, 1e6, 0.3)
	require.NotPanics(t, func() { tet.Initialize(inverted) })

	assert.Less(t, tet.RestVolume(), 0.0)
	assert.True(t, strings.Contains(buf.String(), "WARN"), "log output: %q", buf.String())

	f := make([]float64, 12)
	require.NotPanics(t, func() { tet.AddForce(inverted, f, 1) })
	assert.Equal(t, make([]float64, 12), f, "a tetrahedron at rest exerts no force")
}

func TestTetrahedronShapeFunctions(t *testing.T) {
	points := []mgl64.Vec3{{0.1, 0.2, 0}, {1.3, 0, 0.1}, {0, 1.1, 0.2}, {0.2, 0.1, 1.4}}
	tet := NewTetrahedron([]int{0, 1, 2, 3})
	setMaterialValues(tet, 1000, 1e6, 0.3)
	tet.Initialize(restState(3, points...))

	ai, bi, ci, di := tet.ShapeFunctions()
	sixV := 6 * tet.RestVolume()
	for i := 0; i < 4; i++ {
		for j, p := range points {
			n := (ai[i] + bi[i]*p[0] + ci[i]*p[1] + di[i]*p[2]) / sixV
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, n, 1e-12, "N_%d at node %d", i, j)
		}
	}
}

func TestTetrahedronMass(t *testing.T) {
	tet := newUnitTet(t)
	m := tet.LocalMass()
	coef := 1000.0 / 6 / 20

	assert.InDelta(t, 2*coef, m.At(0, 0), 1e-12)
	assert.InDelta(t, coef, m.At(0, 3), 1e-12)
	assert.InDelta(t, 0, m.At(0, 1), 1e-12)

	total := 0.0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			total += m.At(3*i, 3*j)
		}
	}
	assert.InDelta(t, 1000.0/6, total, 1e-10)
}

func TestTetrahedronStiffnessNullSpace(t *testing.T) {
	tet := newUnitTet(t)
	k := tet.LocalStiffness()
	requireSymmetric(t, k, 1e-6)

	rest := unitTetState()
	omega := mgl64.Vec3{0.3, -0.2, 0.5}
	fields := map[string]func(p mgl64.Vec3) mgl64.Vec3{
		"translation":            func(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{0.1, -0.2, 0.3} },
		"infinitesimal rotation": func(p mgl64.Vec3) mgl64.Vec3 { return omega.Cross(p) },
	}

	for name, field := range fields {
		t.Run(name, func(t *testing.T) {
			u := make([]float64, 12)
			for i := 0; i < 4; i++ {
				d := field(rest.Position(i))
				copy(u[3*i:3*i+3], d[:])
			}
			var f mat.VecDense
			f.MulVec(k, mat.NewVecDense(12, u))
			for i := 0; i < 12; i++ {
				assert.InDelta(t, 0, f.AtVec(i), 1e-6)
			}
		})
	}
}

func TestTetrahedronUniaxialStrain(t *testing.T) {
	tet := newUnitTet(t)
	state := unitTetState()
	const eps = 1e-3
	for i := 0; i < 4; i++ {
		p := state.Position(i)
		state.SetPosition(i, mgl64.Vec3{p[0] * (1 + eps), p[1], p[2]})
	}

	f := make([]float64, 12)
	tet.AddForce(state, f, 1)

	lambda, mu := tet.lame()
	sxx := (lambda + 2*mu) * eps
	syy := lambda * eps
	// restoring force is -V·Bᵀσ, and ∂N/∂x is -1 at node 0, 1 at node 1
	assert.InDelta(t, sxx/6, f[0], 1e-9)
	assert.InDelta(t, -sxx/6, f[3], 1e-9)
	assert.InDelta(t, 0, f[6], 1e-9)
	assert.InDelta(t, 0, f[9], 1e-9)
	assert.InDelta(t, -syy/6, f[7], 1e-9)

	sum := mgl64.Vec3{}
	for i := 0; i < 4; i++ {
		sum = sum.Add(mgl64.Vec3{f[3*i], f[3*i+1], f[3*i+2]})
	}
	assert.InDelta(t, 0, sum.Len(), 1e-9)
}

func TestTetrahedronForceMatchesStiffness(t *testing.T) {
	tet := newUnitTet(t)
	state := unitTetState()
	state.Positions()[11] += 0.01

	f := make([]float64, 12)
	tet.AddForce(state, f, 2)

	k := tet.LocalStiffness()
	for i := 0; i < 12; i++ {
		assert.InDelta(t, -2*0.01*k.At(i, 11), f[i], 1e-9)
	}
}

func TestTetrahedronAddMatVec(t *testing.T) {
	tet := newUnitTet(t)
	state := unitTetState()
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	f := make([]float64, 12)
	tet.AddMatVec(state, 0, 1, 0, x, f)
	assert.Equal(t, make([]float64, 12), f, "only alphaD set must be a no-op")

	tet.AddMatVec(state, 2, 0, 3, x, f)

	var want mat.VecDense
	var combo mat.Dense
	combo.Scale(2, tet.LocalMass())
	var scaledK mat.Dense
	scaledK.Scale(3, tet.LocalStiffness())
	combo.Add(&combo, &scaledK)
	want.MulVec(&combo, mat.NewVecDense(12, x))
	for i := range f {
		assert.InDelta(t, want.AtVec(i), f[i], 1e-6)
	}
}

func TestTetrahedronAssembly(t *testing.T) {
	tet := NewTetrahedron([]int{3, 1, 0, 2})
	setMaterialValues(tet, 1000, 1e6, 0.3)
	rest := restState(3,
		mgl64.Vec3{0, 1, 0},
		mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, 0, 1},
		mgl64.Vec3{0, 0, 0},
	)
	tet.Initialize(rest)

	m := mat.NewDense(12, 12, nil)
	k := mat.NewDense(12, 12, nil)
	d := mat.NewDense(12, 12, nil)
	f := make([]float64, 12)
	tet.AddFMDK(rest, f, m, d, k)

	local := tet.LocalMass()
	assert.InDelta(t, local.At(0, 0), m.At(9, 9), 1e-12, "local node 0 is global node 3")
	assert.InDelta(t, local.At(0, 3), m.At(9, 3), 1e-12)
	assert.Equal(t, 0.0, mat.Norm(d, 1))
	assert.Equal(t, make([]float64, 12), f)
	requireSymmetric(t, k, 1e-6)
}

func TestTetrahedronCartesianCoordinate(t *testing.T) {
	tet := newUnitTet(t)
	state := unitTetState()

	p := tet.ComputeCartesianCoordinate(state, []float64{0.25, 0.25, 0.25, 0.25})
	assert.True(t, p.ApproxEqualThreshold(mgl64.Vec3{0.25, 0.25, 0.25}, 1e-15))

	require.Panics(t, func() { tet.ComputeCartesianCoordinate(state, []float64{0.5, 0.5, 0.5, 0}) })
}
