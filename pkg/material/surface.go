package material

import (
	"errors"
	"fmt"

	"github.com/df07/go-progressive-radiosity/pkg/core"
)

// ErrInvalidSurface is returned when a surface's material properties are out of range.
var ErrInvalidSurface = errors.New("material: invalid surface")

// Surface holds the diffuse material properties shared by every patch cut
// from the same input polygon. Surfaces are immutable after scene load.
type Surface struct {
	Name         string   // Name used by scene files
	Reflectivity core.RGB // Diffuse albedo per channel, in [0,1]
	Emission     core.RGB // Self-emitted radiant power density per channel, >= 0
}

// NewSurface creates a surface with both reflectivity and emission
func NewSurface(name string, reflectivity, emission core.RGB) *Surface {
	return &Surface{Name: name, Reflectivity: reflectivity, Emission: emission}
}

// NewLambertian creates a non-emitting diffuse surface
func NewLambertian(name string, albedo core.RGB) *Surface {
	return NewSurface(name, albedo, core.RGB{})
}

// NewEmissive creates a light-emitting surface. Lights in a closed scene
// still reflect, so the reflectivity is kept separate from the emission.
func NewEmissive(name string, emission, reflectivity core.RGB) *Surface {
	return NewSurface(name, reflectivity, emission)
}

// IsEmitter reports whether the surface emits any light
func (s *Surface) IsEmitter() bool {
	return !s.Emission.IsZero()
}

// Validate checks that reflectivity lies in [0,1] and emission is non-negative
func (s *Surface) Validate() error {
	for ch := range s.Reflectivity {
		if s.Reflectivity[ch] < 0 || s.Reflectivity[ch] > 1 {
			return fmt.Errorf("%w: %q reflectivity %v outside [0,1]", ErrInvalidSurface, s.Name, s.Reflectivity)
		}
		if s.Emission[ch] < 0 {
			return fmt.Errorf("%w: %q emission %v is negative", ErrInvalidSurface, s.Name, s.Emission)
		}
	}
	return nil
}
