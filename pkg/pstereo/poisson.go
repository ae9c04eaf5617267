package pstereo

import(
	"fmt"
	"log"

	"github.com/abworrall/photostereo/pkg/emath"
	"github.com/abworrall/photostereo/pkg/spectral"
)

// PoissonIntegrator solves Laplace H = div(p,q) with Neumann boundary
// conditions, in the eigenvector space of the discrete Laplacian (see
// spectral.SolvePoisson). Like the spectral integrator it uses the whole
// gradient field at once, but it has no padding and no regularization,
// and an exactly integrable gradient field comes back exactly.
type PoissonIntegrator struct {
	Gradients GradientPolicy
	Workers   int
	Verbosity int
}

func (PoissonIntegrator)Name() string { return "poisson" }

func (pi PoissonIntegrator)Integrate(field *NormalField) (emath.FloatGrid, int, error) {
	width  := field.Width
	height := field.Height
	if width < 2 || height < 2 {
		return emath.FloatGrid{}, 0, fmt.Errorf("%w: poisson needs at least 2x2, got %dx%d", ErrFieldTooSmall, width, height)
	}

	p, q, nClamped, err := pi.Gradients.Gradients(field)
	if err != nil {
		return emath.FloatGrid{}, nClamped, err
	}
	if pi.Verbosity > 0 {
		log.Printf("poisson: %dx%d field, %d pixels with clamped slopes\n", width, height, nClamped)
	}

	// The solver assumes H(-1) = H(1) and H(N) = H(N-2), so the forward
	// differences between pixels are mirrored at the far edges, and the
	// divergence picks up an extra term at the near edges.
	Gx := p.NewFromThis()
	Gy := q.NewFromThis()
	for y:=0; y<height; y++ {
		for x:=0; x<width-1; x++ {
			Gx.Set(x, y, 0.5 * (p.Get(x,y) + p.Get(x+1,y)))
		}
		Gx.Set(width-1, y, -1.0 * Gx.Get(width-2,y))
	}
	for x:=0; x<width; x++ {
		for y:=0; y<height-1; y++ {
			Gy.Set(x, y, 0.5 * (q.Get(x,y) + q.Get(x,y+1)))
		}
		Gy.Set(x, height-1, -1.0 * Gy.Get(x,height-2))
	}

	divG := p.NewFromThis()
	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			val := Gx.Get(x,y) + Gy.Get(x,y)
			if x>0  { val -= Gx.Get(x-1,y) }
			if y>0  { val -= Gy.Get(x,y-1) }
			if x==0 { val += Gx.Get(x,y) }
			if y==0 { val += Gy.Get(x,y) }

			divG.Set(x, y, val)
		}
	}

	if pi.Verbosity > 0 {
		log.Printf("poisson: divergence %s\n", divG.Stats())
	}

	H := spectral.SolvePoisson(divG, true, pi.Workers)

	min, _ := H.MinMax()
	H.AddConstant(-min)

	return H, nClamped, nil
}
