package pstereo

import(
	"github.com/abworrall/photostereo/pkg/emath"
)

var(
	Integrators = []string{"spectral", "path", "poisson"}
)

// An Integrator turns a normal field into a height field. The heights
// are only defined up to an additive constant. It also returns how many
// slopes it had to clamp to zero; what counts as one slope depends on
// how the integrator derives them (per pixel, or per step for path).
type Integrator interface {
	Name() string
	Integrate(field *NormalField) (emath.FloatGrid, int, error)
}
