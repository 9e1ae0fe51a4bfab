package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
	"github.com/san-kum/deformsim/internal/physics"
	"github.com/san-kum/deformsim/internal/scene"
)

// moving returns a free pair of unit masses whose final state moves at v.
func moving(name string, v float64) *physics.MassSpring {
	b := physics.NewMassSpring(name)
	s := dynamo.NewState(3, 2)
	s.SetPosition(1, mgl64.Vec3{1, 0, 0})
	s.SetVelocity(0, mgl64.Vec3{v, 0, 0})
	s.SetVelocity(1, mgl64.Vec3{v, 0, 0})
	b.AddMass(1)
	b.AddMass(1)
	b.AddSpring(element.NewLinearSpring([]int{0, 1}, 10, 0))
	b.SetInitialState(s)
	b.Initialize()
	return b
}

func TestKineticEnergy(t *testing.T) {
	m := NewKineticEnergy()
	a, b := moving("a", 1), moving("b", 2)

	m.Observe(0, []scene.Body{a, b})
	expected := 0.5*2*1 + 0.5*2*4
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	b.SetIsActive(false)
	m.Observe(0.1, []scene.Body{a, b})
	if math.Abs(m.Value()-1) > 1e-9 {
		t.Errorf("expected energy 1 without the inactive body, got %f", m.Value())
	}
	if math.Abs(m.Peak()-expected) > 1e-9 {
		t.Errorf("expected peak %f, got %f", expected, m.Peak())
	}

	m.Reset()
	if m.Value() != 0 || m.Peak() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestMaxDisplacement(t *testing.T) {
	m := NewMaxDisplacement()
	b := moving("a", 0)
	b.FinalState().SetPosition(1, mgl64.Vec3{1, 0.3, 0.4})

	m.Observe(0, []scene.Body{b})
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	b.FinalState().SetPosition(1, mgl64.Vec3{1, 0.1, 0})
	m.Observe(0.1, []scene.Body{b})
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected the peak to be kept, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(0.2)
	if m.Value() != 1 {
		t.Errorf("expected 1 before any sample, got %f", m.Value())
	}

	b := moving("a", 0)
	m.Observe(0, []scene.Body{b})
	b.FinalState().SetPosition(1, mgl64.Vec3{1, 0.5, 0})
	m.Observe(0.1, []scene.Body{b})

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestActiveFraction(t *testing.T) {
	m := NewActiveFraction()
	bodies := []scene.Body{moving("a", 0), moving("b", 0), moving("c", 0), moving("d", 0)}
	bodies[1].SetIsActive(false)

	m.Observe(0, bodies)
	if m.Value() != 0.75 {
		t.Errorf("expected 0.75, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1 {
		t.Errorf("expected 1 after reset, got %f", m.Value())
	}
}

func TestDefaultNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Default() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	for _, name := range []string{"kinetic_energy", "max_displacement", "active_fraction"} {
		if !seen[name] {
			t.Errorf("missing metric %s", name)
		}
	}
}
