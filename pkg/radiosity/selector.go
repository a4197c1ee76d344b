package radiosity

import "github.com/df07/go-progressive-radiosity/pkg/scene"

// SelectShooter returns the index of the shooter with the greatest R+G+B
// unshot power. The lowest index wins ties, and 0 is returned when no
// shooter has any power left.
func SelectShooter(m *scene.Model) int {
	best := 0
	maxPower := 0.0
	for i, s := range m.Shooters {
		if power := s.UnshotPower.Sum(); power > maxPower {
			maxPower = power
			best = i
		}
	}
	return best
}
