package scene_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/physics"
	"github.com/san-kum/deformsim/internal/scene"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func pair(name string, initialize bool) *physics.MassSpring {
	b := physics.NewMassSpring(name)
	s := dynamo.NewState(3, 2)
	s.SetPosition(1, mgl64.Vec3{1, 0, 0})
	s.AddBoundaryCondition(0)
	b.AddMass(1)
	b.AddMass(1)
	b.AddSpring(element.NewLinearSpring([]int{0, 1}, 50, 0.1))
	b.SetInitialState(s)
	if initialize {
		b.Initialize()
	}
	return b
}

// fakeBody counts its lifecycle calls and can drop out after a given tick.
type fakeBody struct {
	name      string
	active    bool
	updates   atomic.Int32
	dropAfter int32
	delay     time.Duration
	running   *atomic.Int32
	peak      *atomic.Int32
	state     *dynamo.State
}

func newFake(name string) *fakeBody {
	return &fakeBody{name: name, active: true, dropAfter: -1, state: dynamo.NewState(3, 1)}
}

func (f *fakeBody) Name() string              { return f.name }
func (f *fakeBody) IsActive() bool            { return f.active }
func (f *fakeBody) SetIsActive(active bool)   { f.active = active }
func (f *fakeBody) BeforeUpdate(float64)      {}
func (f *fakeBody) ResetState()               { f.updates.Store(0) }
func (f *fakeBody) FinalState() *dynamo.State { return f.state }

func (f *fakeBody) Update(float64) {
	if f.running != nil {
		n := f.running.Add(1)
		for {
			p := f.peak.Load()
			if n <= p || f.peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(f.delay)
		f.running.Add(-1)
	}
	f.updates.Add(1)
}

func (f *fakeBody) AfterUpdate(float64) {
	if f.updates.Load() == f.dropAfter {
		f.active = false
	}
}

type probe struct {
	body *fakeBody
	seen []int32
}

func (p *probe) Update(float64) { p.seen = append(p.seen, p.body.updates.Load()) }

type counter struct {
	observed int
	resets   int
}

func (c *counter) Name() string                  { return "ticks" }
func (c *counter) Observe(float64, []scene.Body) { c.observed++ }
func (c *counter) Value() float64                { return float64(c.observed) }
func (c *counter) Reset()                        { c.observed = 0; c.resets++ }

var _ = Describe("Manager", func() {
	var m *scene.Manager

	BeforeEach(func() {
		m = scene.NewManager(2)
	})

	It("rejects duplicate body names", func() {
		Expect(m.Add(newFake("a"))).To(Succeed())
		err := m.Add(newFake("a"))
		Expect(errors.Is(err, dynamo.ErrInvalidParameter)).To(BeTrue())
		Expect(m.Bodies()).To(HaveLen(1))
	})

	It("defaults to one worker per CPU", func() {
		Expect(scene.NewManager(0).Workers()).To(BeNumerically(">", 0))
	})

	It("runs behaviors before the bodies of the same tick", func() {
		f := newFake("f")
		p := &probe{body: f}
		Expect(m.Add(f)).To(Succeed())
		m.AddBehavior(p)

		for i := 0; i < 3; i++ {
			Expect(m.Step(context.Background(), 0.01)).To(Succeed())
		}
		Expect(p.seen).To(Equal([]int32{0, 1, 2}))
		Expect(m.Steps()).To(Equal(3))
		Expect(m.Time()).To(BeNumerically("~", 0.03, 1e-12))
	})

	It("never steps more bodies at once than it has workers", func() {
		var running, peak atomic.Int32
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			f := newFake(name)
			f.delay = 5 * time.Millisecond
			f.running, f.peak = &running, &peak
			Expect(m.Add(f)).To(Succeed())
		}
		Expect(m.Step(context.Background(), 0.01)).To(Succeed())
		Expect(peak.Load()).To(BeNumerically("<=", 2))
		for _, b := range m.Bodies() {
			Expect(b.(*fakeBody).updates.Load()).To(Equal(int32(1)))
		}
	})

	It("records trajectories every few ticks and at the end", func() {
		a, b := pair("a", true), pair("b", true)
		Expect(m.Add(a)).To(Succeed())
		Expect(m.Add(b)).To(Succeed())
		c := &counter{}
		m.AddMetric(c)

		result, err := m.Run(context.Background(), scene.Config{Dt: 0.01, Duration: 0.1, RecordEvery: 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(10))
		Expect(result.Times).To(HaveLen(4))
		Expect(result.Times[0]).To(Equal(0.0))
		Expect(result.Times[1]).To(BeNumerically("~", 0.04, 1e-12))
		Expect(result.Times[3]).To(BeNumerically("~", 0.1, 1e-12))
		Expect(result.Trajectories["a"]).To(HaveLen(4))
		Expect(result.Trajectories["a"][0]).To(Equal(a.InitialState().Positions()))
		Expect(result.Metrics["ticks"]).To(Equal(10.0))
		Expect(result.Deactivated).To(BeEmpty())

		Expect(a.FinalState().Position(1).Y()).To(BeNumerically("<", 0))
		Expect(a.FinalState().Position(0).Len()).To(BeNumerically("<", 1e-12))
		Expect(a.FinalState().Equal(b.FinalState())).To(BeTrue())
	})

	It("stops stepping bodies that deactivate", func() {
		fragile, sturdy := newFake("fragile"), newFake("sturdy")
		fragile.dropAfter = 2
		Expect(m.Add(fragile)).To(Succeed())
		Expect(m.Add(sturdy)).To(Succeed())

		result, err := m.Run(context.Background(), scene.Config{Dt: 0.01, Duration: 0.05})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Deactivated).To(Equal([]string{"fragile"}))
		Expect(fragile.updates.Load()).To(Equal(int32(2)))
		Expect(sturdy.updates.Load()).To(Equal(int32(5)))
	})

	It("turns lifecycle assertions into simulation errors", func() {
		Expect(m.Add(pair("early", false))).To(Succeed())

		result, err := m.Run(context.Background(), scene.Config{Dt: 0.01, Duration: 0.1})
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, dynamo.ErrLifecycle)).To(BeTrue())

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Body).To(Equal("early"))
		Expect(simErr.Step).To(Equal(0))
		Expect(result.StepsTaken).To(Equal(0))
	})

	It("checks cancellation between ticks", func() {
		Expect(m.Add(newFake("f"))).To(Succeed())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := m.Run(ctx, scene.Config{Dt: 0.01, Duration: 1})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(result.StepsTaken).To(Equal(0))
		Expect(result.Times).To(HaveLen(1))
	})

	It("rejects a bad run configuration", func() {
		_, err := m.Run(context.Background(), scene.Config{Dt: 0, Duration: 1})
		Expect(errors.Is(err, dynamo.ErrInvalidParameter)).To(BeTrue())
		_, err = m.Run(context.Background(), scene.Config{Dt: 0.1, Duration: -1})
		Expect(errors.Is(err, dynamo.ErrInvalidParameter)).To(BeTrue())
	})

	It("resets bodies, metrics and the clock", func() {
		f := newFake("f")
		f.dropAfter = 1
		c := &counter{}
		Expect(m.Add(f)).To(Succeed())
		m.AddMetric(c)
		Expect(m.Step(context.Background(), 0.01)).To(Succeed())
		Expect(f.IsActive()).To(BeFalse())

		m.Reset()
		Expect(f.IsActive()).To(BeTrue())
		Expect(m.Steps()).To(Equal(0))
		Expect(m.Time()).To(Equal(0.0))
		Expect(m.Deactivated()).To(BeEmpty())
		Expect(c.resets).To(Equal(1))
	})
})
