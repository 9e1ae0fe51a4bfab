package physics_test

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/physics"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NodeCoupler", func() {
	var (
		body    *physics.MassSpring
		coupler *physics.NodeCoupler
	)

	BeforeEach(func() {
		body = pairBody()
		body.SetGravityEnabled(false)
		body.Initialize()
		coupler = physics.NewNodeCoupler(&body.Deformable, 1, 50, 2)
	})

	It("starts at the node's rest position", func() {
		Expect(coupler.Target()).To(Equal(mgl64.Vec3{1, 0, 0}))
		Expect(coupler.Force()).To(Equal(mgl64.Vec3{}))
	})

	It("pulls the node toward the target", func() {
		coupler.SetTarget(mgl64.Vec3{1, 0.5, 0}, mgl64.Vec3{0, 1, 0})
		Expect(coupler.Force().ApproxEqual(mgl64.Vec3{0, 50*0.5 + 2, 0})).To(BeTrue())

		for i := 0; i < 20; i++ {
			coupler.Update(1e-3)
			step(body, 1e-3)
		}
		Expect(body.FinalState().Position(1).Y()).To(BeNumerically(">", 0))
		Expect(body.FinalState().Position(1).X()).To(BeNumerically("~", 1, 1e-3))
	})

	It("validates gains and nodes", func() {
		Expect(func() { physics.NewNodeCoupler(&body.Deformable, 5, 1, 1) }).
			To(PanicWith(MatchError(dynamo.ErrNodeOutOfRange)))
		Expect(func() { physics.NewNodeCoupler(&body.Deformable, 0, -1, 1) }).
			To(PanicWith(MatchError(dynamo.ErrInvalidParameter)))
	})

	It("stops pushing an inactive body", func() {
		body.SetIsActive(false)
		coupler.SetTarget(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{})
		coupler.Update(1e-3)
		Expect(body.ExternalForces()).To(Equal(make([]float64, 6)))
	})
})
