package pstereo

import(
	"math"

	"github.com/abworrall/photostereo/pkg/emath"
)

// PathIntegrator reconstructs heights by walking the grid: down the
// first column, along the first row, then filling each interior cell
// with the mean of the heights extrapolated from its left and upper
// neighbours. Each step uses the slope of the average of the two
// normals it crosses. Errors accumulate along the paths, so this is
// mostly useful as a reference to compare against.
type PathIntegrator struct {
	Gradients GradientPolicy
}

func (PathIntegrator)Name() string { return "path" }

func (pi PathIntegrator)Integrate(field *NormalField) (emath.FloatGrid, int, error) {
	width  := field.Width
	height := field.Height
	H      := emath.NewFloatGrid(width, height)
	if width == 0 || height == 0 {
		return H, 0, nil
	}

	nClamped := 0

	// slope along one axis, across the step between two neighbouring
	// pixels. Only the component the step uses is checked.
	slope := func(x, y, x2, y2 int, alongX bool) (float64, error) {
		n := field.At(x,y).Add(field.At(x2,y2))
		p, q, badP, badQ := pi.Gradients.Slopes(n)
		s, bad := q, badQ
		if alongX {
			s, bad = p, badP
		}
		if bad {
			if pi.Gradients.Reject {
				return 0, pi.Gradients.unstable(n, x, y)
			}
			nClamped++
		}
		return s, nil
	}

	min := 0.0 // H(0,0) is the anchor

	for y:=1; y<height; y++ {
		q, err := slope(0,y, 0,y-1, false)
		if err != nil {
			return H, nClamped, err
		}
		H.Set(0, y, H.Get(0,y-1) + q)
		min = math.Min(min, H.Get(0,y))
	}

	for x:=1; x<width; x++ {
		p, err := slope(x,0, x-1,0, true)
		if err != nil {
			return H, nClamped, err
		}
		H.Set(x, 0, H.Get(x-1,0) + p)
		min = math.Min(min, H.Get(x,0))
	}

	for y:=1; y<height; y++ {
		for x:=1; x<width; x++ {
			p, err := slope(x,y, x-1,y, true)
			if err != nil {
				return H, nClamped, err
			}
			q, err := slope(x,y, x,y-1, false)
			if err != nil {
				return H, nClamped, err
			}

			fromLeft := H.Get(x-1,y) + p
			fromTop  := H.Get(x,y-1) + q
			H.Set(x, y, (fromLeft + fromTop) / 2.0)
			min = math.Min(min, H.Get(x,y))
		}
	}

	// Shift so the lowest point sits at zero
	H.AddConstant(-min)

	return H, nClamped, nil
}
