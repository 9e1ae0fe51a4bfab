package scene

import "github.com/san-kum/deformsim/internal/dynamo"

// Body is one simulated component driven through the per-tick lifecycle.
type Body interface {
	Name() string
	IsActive() bool
	SetIsActive(active bool)
	BeforeUpdate(dt float64)
	Update(dt float64)
	AfterUpdate(dt float64)
	ResetState()
	FinalState() *dynamo.State
}

// Behavior runs once per tick before any body is stepped.
type Behavior interface {
	Update(dt float64)
}

type Metric interface {
	Name() string
	Observe(t float64, bodies []Body)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, t float64, bodies []Body)
}

type Config struct {
	Dt          float64
	Duration    float64
	RecordEvery int
}

// Result holds the recorded samples of a run. Trajectories maps a body name
// to one position vector per recorded time.
type Result struct {
	Times        []float64
	Trajectories map[string][][]float64
	Metrics      map[string]float64
	Deactivated  []string
	StepsTaken   int
}
