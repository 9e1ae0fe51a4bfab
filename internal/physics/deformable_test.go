package physics_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/integrators"
	"github.com/san-kum/deformsim/internal/linalg"
	"github.com/san-kum/deformsim/internal/physics"
	"gonum.org/v1/gonum/mat"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Deformable", func() {
	Describe("lifecycle", func() {
		It("accepts the initial state only once", func() {
			b := pairBody()
			Expect(func() { b.SetInitialState(dynamo.NewState(3, 2)) }).
				To(PanicWith(MatchError(dynamo.ErrLifecycle)))
		})

		It("rejects a state with the wrong dof per node", func() {
			b := physics.NewFem1D("beam")
			Expect(func() { b.SetInitialState(dynamo.NewState(3, 2)) }).
				To(PanicWith(MatchError(dynamo.ErrDimensionMismatch)))
		})

		It("cannot initialize without a state or twice", func() {
			b := physics.NewMassSpring("empty")
			Expect(b.Initialize).To(PanicWith(MatchError(dynamo.ErrLifecycle)))

			b = pairBody()
			b.Initialize()
			Expect(b.IsInitialized()).To(BeTrue())
			Expect(b.Initialize).To(PanicWith(MatchError(dynamo.ErrLifecycle)))
		})

		It("asserts the body is complete before stepping", func() {
			b := pairBody()
			Expect(func() { b.BeforeUpdate(1e-3) }).To(PanicWith(MatchError(dynamo.ErrLifecycle)))

			noSpring := physics.NewMassSpring("lonely")
			noSpring.AddMass(1)
			noSpring.SetInitialState(dynamo.NewState(3, 1))
			noSpring.Initialize()
			Expect(func() { noSpring.BeforeUpdate(1e-3) }).To(PanicWith(MatchError(dynamo.ErrInvalidParameter)))

			missingMass := physics.NewMassSpring("short")
			missingMass.AddMass(1)
			missingMass.AddSpring(element.NewLinearSpring([]int{0, 1}, 1, 0))
			missingMass.SetInitialState(dynamo.NewState(3, 2))
			missingMass.Initialize()
			Expect(func() { missingMass.BeforeUpdate(1e-3) }).To(PanicWith(MatchError(dynamo.ErrDimensionMismatch)))
		})

		It("refuses Update before BeforeUpdate", func() {
			b := pairBody()
			b.Initialize()
			Expect(func() { b.Update(1e-3) }).To(PanicWith(MatchError(dynamo.ErrLifecycle)))
		})

		It("binds the solver lazily and rebuilds it on scheme change", func() {
			b := pairBody()
			b.Initialize()
			Expect(b.Solver()).To(BeNil())

			b.BeforeUpdate(1e-3)
			Expect(b.Solver().Name()).To(Equal(integrators.ExplicitEulerName))

			Expect(b.SetIntegrationScheme(integrators.ImplicitEulerName)).To(Succeed())
			Expect(b.Solver()).To(BeNil())
			b.BeforeUpdate(1e-3)
			Expect(b.Solver().Name()).To(Equal(integrators.ImplicitEulerName))

			Expect(b.SetIntegrationScheme("leapfrog")).To(MatchError(dynamo.ErrUnknownType))
			Expect(b.IntegrationScheme()).To(Equal(integrators.ImplicitEulerName))
		})

		It("binds the configured linear solver", func() {
			b := pairBody()
			b.Initialize()
			Expect(b.LinearSolver()).To(Equal(linalg.DenseLUName))
			b.BeforeUpdate(1e-3)
			Expect(b.Solver().LinearSolver()).To(BeAssignableToTypeOf(linalg.DenseLU{}))

			Expect(b.SetLinearSolver("cholesky")).To(MatchError(dynamo.ErrUnknownType))
			Expect(b.LinearSolver()).To(Equal(linalg.DenseLUName))

			Expect(b.SetLinearSolver(linalg.DiagonalName)).To(Succeed())
			Expect(b.Solver()).To(BeNil())
			b.BeforeUpdate(1e-3)
			Expect(b.Solver().LinearSolver()).To(BeAssignableToTypeOf(linalg.Diagonal{}))
		})

		It("rotates the state buffers on update", func() {
			b := pairBody()
			b.Initialize()
			b.BeforeUpdate(1e-3)
			before := b.CurrentState().Clone()

			b.Update(1e-3)
			Expect(b.PreviousState().Equal(before)).To(BeTrue())
			Expect(b.CurrentState().Equal(before)).To(BeFalse())
			Expect(b.FinalState().Equal(before)).To(BeTrue())

			b.AfterUpdate(1e-3)
			Expect(b.FinalState().Equal(b.CurrentState())).To(BeTrue())
			Expect(b.IsActive()).To(BeTrue())
		})

		It("does nothing while inactive", func() {
			b := pairBody()
			b.Initialize()
			b.SetIsActive(false)
			step(b, 1e-3)
			Expect(b.Solver()).To(BeNil())
			Expect(b.FinalState().Equal(b.InitialState())).To(BeTrue())
		})
	})

	Describe("invalid states", func() {
		It("deactivates and resets when the integration diverges", func() {
			b := pairBody()
			b.Initialize()
			step(b, 1e-3)
			Expect(b.FinalState().Equal(b.InitialState())).To(BeFalse())

			b.AddExternalForce(1, mgl64.Vec3{math.NaN(), 0, 0})
			step(b, 1e-3)
			Expect(b.IsActive()).To(BeFalse())
			Expect(b.FinalState().Equal(b.InitialState())).To(BeTrue())
			Expect(b.CurrentState().Equal(b.InitialState())).To(BeTrue())
		})

		It("applies corrections and deactivates on invalid ones", func() {
			b := pairBody()
			b.Initialize()
			correction := []float64{0, 0, 0, 1, 2, 3}
			b.ApplyCorrection(0.5, correction)
			Expect(b.FinalState().Position(1)).To(Equal(mgl64.Vec3{1.5, 1, 1.5}))
			Expect(b.FinalState().Velocity(1)).To(Equal(mgl64.Vec3{1, 2, 3}))

			Expect(func() { b.ApplyCorrection(0.5, []float64{1}) }).
				To(PanicWith(MatchError(dynamo.ErrDimensionMismatch)))

			correction[0] = math.Inf(1)
			b.ApplyCorrection(0.5, correction)
			Expect(b.IsActive()).To(BeFalse())
			Expect(b.FinalState().Equal(b.InitialState())).To(BeTrue())
		})
	})

	Describe("assembly", func() {
		It("applies the boundary condition penalty", func() {
			b := pairBody()
			b.InitialState().AddBoundaryCondition(0)
			b.Initialize()
			state := deformed(&b.Deformable)

			f, m, d, k := b.ComputeFMDK(state)
			for _, i := range state.BoundaryConditions() {
				Expect(f[i]).To(BeZero())
				Expect(m.At(i, i)).To(Equal(1e9))
				Expect(d.At(i, i)).To(Equal(1e9))
				Expect(k.At(i, i)).To(Equal(1e9))
				for j := 0; j < 6; j++ {
					if j == i {
						continue
					}
					Expect(d.At(i, j)).To(BeZero())
					Expect(d.At(j, i)).To(BeZero())
					Expect(k.At(i, j)).To(BeZero())
					Expect(k.At(j, i)).To(BeZero())
				}
			}
		})

		It("uses the configured penalty", func() {
			b := pairBody()
			b.InitialState().AddBoundaryCondition(1)
			b.SetBoundaryConditionStiffness(1e6)
			b.Initialize()
			Expect(b.ComputeK(b.InitialState()).At(4, 4)).To(Equal(1e6))
			Expect(b.ComputeM(b.InitialState()).At(4, 4)).To(Equal(1e6))
		})

		It("adds gravity per node mass", func() {
			b := pairBody()
			b.Initialize()
			f := b.ComputeF(b.InitialState())
			expectVectorsClose(f, []float64{0, -2 * 9.81, 0, 0, -2 * 9.81, 0}, 1e-12)

			b.SetGravity(mgl64.Vec3{1, 0, 0})
			f = b.ComputeF(b.InitialState())
			expectVectorsClose(f, []float64{2, 0, 0, 2, 0, 0}, 1e-12)

			b.SetGravityEnabled(false)
			f = b.ComputeF(b.InitialState())
			expectVectorsClose(f, make([]float64, 6), 0)
		})

		It("folds external forces into the next step only", func() {
			b := pairBody()
			b.SetGravityEnabled(false)
			b.Initialize()
			b.AddExternalForce(1, mgl64.Vec3{0, 0, 3})
			Expect(b.ComputeF(b.InitialState())[5]).To(Equal(3.0))

			step(b, 1e-3)
			Expect(b.ExternalForces()).To(Equal(make([]float64, 6)))
			Expect(b.FinalState().Velocity(1).Z()).To(BeNumerically("~", 1e-3*3/2, 1e-12))

			Expect(func() { b.AddExternalTorque(0, mgl64.Vec3{1, 0, 0}) }).
				To(PanicWith(MatchError(dynamo.ErrDimensionMismatch)))
			Expect(func() { b.AddExternalForce(2, mgl64.Vec3{}) }).
				To(PanicWith(MatchError(dynamo.ErrNodeOutOfRange)))
		})

		DescribeTable("matrix free and global paths agree",
			func(newElement func() solid) {
				b := tetBody(newElement())
				b.InitialState().AddBoundaryCondition(0)
				b.SetRayleighDampingMass(0.3)
				b.SetRayleighDampingStiffness(0.02)
				b.Initialize()
				state := deformed(&b.Deformable)

				freeF := append([]float64(nil), b.ComputeF(state)...)
				freeM := mat.DenseCopyOf(b.ComputeM(state))
				freeD := mat.DenseCopyOf(b.ComputeD(state))
				freeK := mat.DenseCopyOf(b.ComputeK(state))

				f, m, d, k := b.ComputeFMDK(state)
				expectVectorsClose(freeF, f, 1e-9)
				expectMatricesClose(freeM, m, 1e-9)
				expectMatricesClose(freeD, d, 1e-9)
				expectMatricesClose(freeK, k, 1e-6)
			},
			Entry("tetrahedron", func() solid { return element.NewTetrahedron([]int{0, 1, 2, 3}) }),
			Entry("corotational tetrahedron", func() solid { return element.NewCorotationalTetrahedron([]int{0, 1, 2, 3}) }),
		)

		It("agrees on both paths for springs with Rayleigh damping", func() {
			b := pairBody()
			b.SetRayleighDampingMass(0.2)
			b.SetRayleighDampingStiffness(0.05)
			b.Initialize()
			state := deformed(&b.Deformable)

			freeF := append([]float64(nil), b.ComputeF(state)...)
			freeD := mat.DenseCopyOf(b.ComputeD(state))
			f, _, d, _ := b.ComputeFMDK(state)
			expectVectorsClose(freeF, f, 1e-9)
			expectMatricesClose(freeD, d, 1e-9)
		})
	})

	Describe("mass-spring bodies", func() {
		It("falls freely under gravity", func() {
			b := pairBody()
			b.Initialize()
			const dt, steps = 1e-3, 50
			for i := 0; i < steps; i++ {
				step(b, dt)
			}
			Expect(b.IsActive()).To(BeTrue())
			for node := 0; node < 2; node++ {
				Expect(b.FinalState().Velocity(node).Y()).To(BeNumerically("~", -9.81*dt*steps, 1e-9))
			}
			Expect(b.NumMasses()).To(Equal(2))
			Expect(b.NumSprings()).To(Equal(1))
			Expect(b.TotalMass()).To(Equal(4.0))
		})

		It("stays put when pinned at rest without gravity", func() {
			b := pairBody()
			b.InitialState().AddBoundaryCondition(0)
			b.SetGravityEnabled(false)
			b.Initialize()
			for i := 0; i < 10; i++ {
				step(b, 1e-3)
			}
			Expect(b.MaxDisplacement()).To(BeNumerically("<", 1e-12))
		})

		It("rejects non-positive masses", func() {
			b := physics.NewMassSpring("bad")
			Expect(func() { b.AddMass(0) }).To(PanicWith(MatchError(dynamo.ErrInvalidParameter)))
		})

		It("computes the kinetic energy of the final state", func() {
			b := physics.NewMassSpring("moving")
			s := dynamo.NewState(3, 2)
			s.SetPosition(1, mgl64.Vec3{1, 0, 0})
			s.SetVelocity(0, mgl64.Vec3{1, 0, 0})
			s.SetVelocity(1, mgl64.Vec3{1, 0, 0})
			b.AddMass(2)
			b.AddMass(2)
			b.AddSpring(element.NewLinearSpring([]int{0, 1}, 100, 0))
			b.SetInitialState(s)
			b.Initialize()
			Expect(b.KineticEnergy()).To(BeNumerically("~", 2, 1e-12))
		})
	})

	Describe("FEM bodies", func() {
		It("checks element dimensions", func() {
			beam := physics.NewFem1D("rod")
			Expect(beam.Type()).To(Equal(physics.Fem1DType))
			Expect(func() { beam.AddElement(element.NewTetrahedron([]int{0, 1, 2, 3})) }).
				To(PanicWith(MatchError(dynamo.ErrDimensionMismatch)))
			Expect(physics.NewFem2D("sheet").Type().String()).To(Equal("Fem2D"))
		})

		It("reports the rest mass of its elements", func() {
			b := tetBody(element.NewTetrahedron([]int{0, 1, 2, 3}))
			b.Initialize()
			Expect(b.NumElements()).To(Equal(1))
			Expect(b.Element(0).NumNodes()).To(Equal(4))
			Expect(b.TotalMass()).To(BeNumerically("~", 1000.0/6, 1e-9))
		})

		It("accepts torques on beam bodies", func() {
			b := physics.NewFem1D("rod")
			beam := element.NewBeam([]int{0, 1})
			beam.SetMassDensity(7800)
			beam.SetYoungModulus(2e11)
			beam.SetPoissonRatio(0.3)
			beam.SetRadius(0.01)
			b.AddElement(beam)
			s := dynamo.NewState(6, 2)
			s.SetPosition(1, mgl64.Vec3{1, 0, 0})
			b.SetInitialState(s)
			b.InitialState().AddBoundaryCondition(0)
			b.SetGravityEnabled(false)
			b.Initialize()

			b.AddExternalTorque(1, mgl64.Vec3{5, 0, 0})
			Expect(b.ComputeF(b.InitialState())[9]).To(Equal(5.0))
			Expect(b.SetIntegrationScheme(integrators.LinearImplicitEulerName)).To(Succeed())
			step(b, 1e-3)
			Expect(b.IsActive()).To(BeTrue())
			Expect(b.FinalState().Velocities()[9]).To(BeNumerically(">", 0))
		})

		It("swings a corotational tetrahedron without diverging", func() {
			b := tetBody(element.NewCorotationalTetrahedron([]int{0, 1, 2, 3}))
			b.InitialState().AddBoundaryCondition(0)
			Expect(b.SetIntegrationScheme(integrators.ImplicitEulerName)).To(Succeed())
			b.Initialize()
			for i := 0; i < 100; i++ {
				step(b, 1e-3)
			}
			Expect(b.IsActive()).To(BeTrue())
			Expect(b.FinalState().Position(0).Len()).To(BeNumerically("<", 1e-12))
			Expect(b.MaxDisplacement()).To(BeNumerically(">", 0))
		})
	})

	Describe("rigid transform of the rest state", func() {
		It("rotates and translates before initialize", func() {
			b := pairBody()
			b.InitialState().SetVelocity(1, mgl64.Vec3{0, 0, 1})
			b.TransformInitialState(mgl64.Rotate3DZ(math.Pi/2), mgl64.Vec3{0, 0, 5})

			p := b.InitialState().Position(1)
			Expect(p.ApproxEqualThreshold(mgl64.Vec3{0, 1, 5}, 1e-12)).To(BeTrue())
			Expect(b.FinalState().Position(1)).To(Equal(p))
			Expect(b.InitialState().Velocity(1).ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12)).To(BeTrue())

			b.Initialize()
			Expect(func() { b.TransformInitialState(mgl64.Ident3(), mgl64.Vec3{}) }).
				To(PanicWith(MatchError(dynamo.ErrLifecycle)))
		})
	})

	Describe("parameters", func() {
		It("pushes material values into the elements before initialize", func() {
			b := tetBody(element.NewTetrahedron([]int{0, 1, 2, 3}))
			Expect(b.SetParam(physics.ParamYoungModulus, 2e5)).To(Succeed())
			Expect(b.SetParam(physics.ParamRayleighMass, 0.5)).To(Succeed())
			params := b.GetParams()
			Expect(params).To(HaveKeyWithValue(physics.ParamYoungModulus, 2e5))
			Expect(params).To(HaveKeyWithValue(physics.ParamRayleighMass, 0.5))
			Expect(b.RayleighDampingMass()).To(Equal(0.5))

			Expect(b.SetParam("viscosity", 1)).To(MatchError(dynamo.ErrUnknownType))
			b.Initialize()
			Expect(b.SetParam(physics.ParamMassDensity, 1)).To(MatchError(dynamo.ErrLifecycle))
			Expect(physics.ParamNames()).To(ContainElement(physics.ParamPoissonRatio))
		})
	})
})
