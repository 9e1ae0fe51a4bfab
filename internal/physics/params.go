package physics

import (
	"fmt"
	"sort"

	"github.com/san-kum/deformsim/internal/dynamo"
	"github.com/san-kum/deformsim/internal/element"
)

// Tunable parameter names accepted by SetParam.
const (
	ParamYoungModulus      = "young_modulus"
	ParamPoissonRatio      = "poisson_ratio"
	ParamMassDensity       = "mass_density"
	ParamRayleighMass      = "rayleigh_mass"
	ParamRayleighStiffness = "rayleigh_stiffness"
)

// GetParams reports the tunable parameters. Material values are read from
// the first element that carries a material.
func (b *Deformable) GetParams() map[string]float64 {
	params := map[string]float64{
		ParamRayleighMass:      b.rayleighMass,
		ParamRayleighStiffness: b.rayleighStiffness,
	}
	for _, e := range b.elements {
		if m, ok := e.(element.Material); ok {
			params[ParamYoungModulus] = m.YoungModulus()
			params[ParamPoissonRatio] = m.PoissonRatio()
			params[ParamMassDensity] = m.MassDensity()
			break
		}
	}
	return params
}

// ParamNames lists the names SetParam accepts, sorted.
func ParamNames() []string {
	names := []string{ParamYoungModulus, ParamPoissonRatio, ParamMassDensity, ParamRayleighMass, ParamRayleighStiffness}
	sort.Strings(names)
	return names
}

// SetParam changes a parameter on the body and, for material parameters, on
// every element with a material. Material changes are only accepted before
// Initialize since elements cache their matrices.
func (b *Deformable) SetParam(name string, value float64) error {
	switch name {
	case ParamRayleighMass:
		b.rayleighMass = value
		return nil
	case ParamRayleighStiffness:
		b.rayleighStiffness = value
		return nil
	case ParamYoungModulus, ParamPoissonRatio, ParamMassDensity:
	default:
		return fmt.Errorf("%w: parameter %q", dynamo.ErrUnknownType, name)
	}

	if b.initialized {
		return fmt.Errorf("%w: %s: cannot change %s after initialize", dynamo.ErrLifecycle, b.name, name)
	}
	for _, e := range b.elements {
		m, ok := e.(element.Material)
		if !ok {
			continue
		}
		switch name {
		case ParamYoungModulus:
			m.SetYoungModulus(value)
		case ParamPoissonRatio:
			m.SetPoissonRatio(value)
		case ParamMassDensity:
			m.SetMassDensity(value)
		}
	}
	return nil
}
