package pstereo

import(
	"fmt"
	"math"

	"github.com/abworrall/photostereo/pkg/emath"
)

const DefaultGradientClamp = 12.0

// A GradientPolicy says what to do with the slope of a near-grazing
// normal, where dividing by n.z blows up.
type GradientPolicy struct {
	Clamp  float64 // slopes with a magnitude above this are unreliable; <= 0 means DefaultGradientClamp
	Reject bool    // return ErrUnstableGradient instead of zeroing the slope
}

func (gp GradientPolicy)clamp() float64 {
	if gp.Clamp <= 0 {
		return DefaultGradientClamp
	}
	return gp.Clamp
}

// Slopes returns the surface gradient (p, q) = (-n.x/n.z, -n.y/n.z)
// implied by a normal. A component that is not finite, or whose
// magnitude exceeds the clamp, is replaced by zero and flagged.
func (gp GradientPolicy)Slopes(n emath.Vec3) (p, q float64, badP, badQ bool) {
	limit := gp.clamp()
	p = -(n[0] / n[2])
	q = -(n[1] / n[2])

	if math.IsNaN(p) || math.Abs(p) > limit {
		p, badP = 0, true
	}
	if math.IsNaN(q) || math.Abs(q) > limit {
		q, badQ = 0, true
	}
	return
}

// slopesAt is Slopes, with the Reject handling and error location.
func (gp GradientPolicy)slopesAt(n emath.Vec3, x, y int) (float64, float64, bool, error) {
	p, q, badP, badQ := gp.Slopes(n)
	if gp.Reject && (badP || badQ) {
		return 0, 0, true, gp.unstable(n, x, y)
	}
	return p, q, badP || badQ, nil
}

func (gp GradientPolicy)unstable(n emath.Vec3, x, y int) error {
	return &PixelError{x, y, fmt.Errorf("%w: normal %s, limit %g", ErrUnstableGradient, n, gp.clamp())}
}

// Gradients derives the p (x-slope) and q (y-slope) planes from a
// normal field, returning how many pixels had a slope clamped.
func (gp GradientPolicy)Gradients(field *NormalField) (emath.FloatGrid, emath.FloatGrid, int, error) {
	P := emath.NewFloatGrid(field.Width, field.Height)
	Q := emath.NewFloatGrid(field.Width, field.Height)
	nClamped := 0

	for y:=0; y<field.Height; y++ {
		for x:=0; x<field.Width; x++ {
			p, q, clamped, err := gp.slopesAt(field.At(x,y), x, y)
			if err != nil {
				return P, Q, nClamped, err
			}
			if clamped {
				nClamped++
			}
			P.Set(x, y, p)
			Q.Set(x, y, q)
		}
	}

	return P, Q, nClamped, nil
}
