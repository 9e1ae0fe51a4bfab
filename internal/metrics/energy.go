package metrics

import (
	"math"

	"github.com/san-kum/deformsim/internal/scene"
)

type energetic interface {
	KineticEnergy() float64
}

// KineticEnergy tracks the total kinetic energy of the active bodies. Value
// is the last observed total; Peak the largest.
type KineticEnergy struct {
	name    string
	current float64
	peak    float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(t float64, bodies []scene.Body) {
	total := 0.0
	for _, b := range bodies {
		if eb, ok := b.(energetic); ok && b.IsActive() {
			total += eb.KineticEnergy()
		}
	}
	e.current = total
	e.peak = math.Max(e.peak, total)
	e.samples++
}

func (e *KineticEnergy) Value() float64 { return e.current }
func (e *KineticEnergy) Peak() float64  { return e.peak }

func (e *KineticEnergy) Reset() {
	e.current = 0
	e.peak = 0
	e.samples = 0
}
