package metrics

import (
	"math"

	"github.com/san-kum/deformsim/internal/scene"
)

type displaced interface {
	MaxDisplacement() float64
}

// MaxDisplacement is the largest node displacement from rest seen on any
// active body during the run.
type MaxDisplacement struct {
	name string
	max  float64
}

func NewMaxDisplacement() *MaxDisplacement {
	return &MaxDisplacement{name: "max_displacement"}
}

func (d *MaxDisplacement) Name() string { return d.name }

func (d *MaxDisplacement) Observe(t float64, bodies []scene.Body) {
	for _, b := range bodies {
		if db, ok := b.(displaced); ok && b.IsActive() {
			d.max = math.Max(d.max, db.MaxDisplacement())
		}
	}
}

func (d *MaxDisplacement) Value() float64 { return d.max }
func (d *MaxDisplacement) Reset()         { d.max = 0 }

// Stability is the fraction of ticks in which every active body stayed
// within threshold of its rest configuration.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(t float64, bodies []scene.Body) {
	s.samples++
	for _, b := range bodies {
		if db, ok := b.(displaced); ok && b.IsActive() && db.MaxDisplacement() > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// ActiveFraction is the share of bodies still active at the last tick.
type ActiveFraction struct {
	name     string
	fraction float64
}

func NewActiveFraction() *ActiveFraction {
	return &ActiveFraction{name: "active_fraction", fraction: 1}
}

func (a *ActiveFraction) Name() string { return a.name }

func (a *ActiveFraction) Observe(t float64, bodies []scene.Body) {
	if len(bodies) == 0 {
		a.fraction = 1
		return
	}
	active := 0
	for _, b := range bodies {
		if b.IsActive() {
			active++
		}
	}
	a.fraction = float64(active) / float64(len(bodies))
}

func (a *ActiveFraction) Value() float64 { return a.fraction }
func (a *ActiveFraction) Reset()         { a.fraction = 1 }

// Default returns the observers attached to every run.
func Default() []scene.Metric {
	return []scene.Metric{
		NewKineticEnergy(),
		NewMaxDisplacement(),
		NewActiveFraction(),
	}
}
