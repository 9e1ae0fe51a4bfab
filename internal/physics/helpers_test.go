package physics_test

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/physics"
	"gonum.org/v1/gonum/mat"

	. "github.com/onsi/gomega"
)

func pairBody() *physics.MassSpring {
	b := physics.NewMassSpring("pair")
	s := dynamo.NewState(3, 2)
	s.SetPosition(1, mgl64.Vec3{1, 0, 0})
	b.AddMass(2)
	b.AddMass(2)
	b.AddSpring(element.NewLinearSpring([]int{0, 1}, 100, 0.5))
	b.SetInitialState(s)
	return b
}

func unitTetState() *dynamo.State {
	s := dynamo.NewState(3, 4)
	s.SetPosition(1, mgl64.Vec3{1, 0, 0})
	s.SetPosition(2, mgl64.Vec3{0, 1, 0})
	s.SetPosition(3, mgl64.Vec3{0, 0, 1})
	return s
}

type solid interface {
	element.Element
	element.Material
}

func tetBody(e solid) *physics.Fem {
	b := physics.NewFem3D("tet")
	e.SetMassDensity(1000)
	e.SetYoungModulus(1e5)
	e.SetPoissonRatio(0.3)
	b.AddElement(e)
	b.SetInitialState(unitTetState())
	return b
}

// deformed returns a copy of the body's rest state with every node moved
// and given a velocity.
func deformed(b *physics.Deformable) *dynamo.State {
	s := b.InitialState().Clone()
	x, v := s.Positions(), s.Velocities()
	for i := range x {
		x[i] += 0.01 * float64(i%5)
		v[i] = 0.1 * float64(i%3)
	}
	for _, dof := range s.BoundaryConditions() {
		v[dof] = 0
	}
	return s
}

func expectMatricesClose(actual, expected mat.Matrix, tolerance float64) {
	r, c := expected.Dims()
	ar, ac := actual.Dims()
	Expect(ar).To(Equal(r))
	Expect(ac).To(Equal(c))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			Expect(actual.At(i, j)).To(BeNumerically("~", expected.At(i, j), tolerance), "entry (%d, %d)", i, j)
		}
	}
}

func expectVectorsClose(actual, expected []float64, tolerance float64) {
	Expect(actual).To(HaveLen(len(expected)))
	for i := range expected {
		Expect(actual[i]).To(BeNumerically("~", expected[i], tolerance), "entry %d", i)
	}
}

func step(b interface {
	BeforeUpdate(float64)
	Update(float64)
	AfterUpdate(float64)
}, dt float64) {
	b.BeforeUpdate(dt)
	b.Update(dt)
	b.AfterUpdate(dt)
}
