package pstereo

import(
	"fmt"
	"log"

	"github.com/abworrall/photostereo/pkg/emath"
	"github.com/abworrall/photostereo/pkg/spectral"
)

// SpectralIntegrator finds the height field whose gradient best fits the
// whole gradient field at once (Frankot-Chellappa style), by solving a
// regularized Poisson equation per frequency:
//
//   d(u,v) = lambda(u^4+v^4) + (1+mu1)(u^2+v^2) + mu2(u^2+v^2)^2
//   H(u,v) = -i [ (u+lambda u^3) Q(u,v) + (v+lambda v^3) P(u,v) ] / d(u,v)
//
// where P and Q are the transforms of the x and y slopes, u is the
// angular frequency down the rows and v across the columns. The u=0 and
// v=0 lines are singular under this formulation and contribute nothing.
type SpectralIntegrator struct {
	TransformSize int     // 0 means the next power of two that holds the image
	Lambda        float64
	Mu1           float64
	Mu2           float64
	DisplayRange  float64 // if > 0, the output is rescaled onto [0,DisplayRange]

	Gradients     GradientPolicy
	Workers       int
	Verbosity     int
}

func (SpectralIntegrator)Name() string { return "spectral" }

// transformSize validates (or picks) the transform size for the field.
func (si SpectralIntegrator)transformSize(width, height int) (int, error) {
	n := si.TransformSize
	if n == 0 {
		if width > height {
			return emath.NextPow2(width), nil
		}
		return emath.NextPow2(height), nil
	}

	if width > n || height > n {
		return 0, fmt.Errorf("%w: %dx%d image, %dx%d transform", ErrTransformSizeExceeded, width, height, n, n)
	}
	return n, nil
}

func (si SpectralIntegrator)Integrate(field *NormalField) (emath.FloatGrid, int, error) {
	width  := field.Width
	height := field.Height

	n, err := si.transformSize(width, height)
	if err != nil {
		return emath.FloatGrid{}, 0, err
	}

	p, q, nClamped, err := si.Gradients.Gradients(field)
	if err != nil {
		return emath.FloatGrid{}, nClamped, err
	}
	if si.Verbosity > 0 {
		log.Printf("spectral: %dx%d field, %dx%d transform, %d pixels with clamped slopes\n",
			width, height, n, n, nClamped)
	}

	zeros  := emath.NewFloatGrid(n, n)
	Pr, Pi := spectral.FFT2(p.PadTo(n,n), zeros, si.Workers)
	Qr, Qi := spectral.FFT2(q.PadTo(n,n), zeros, si.Workers)

	Hr := emath.NewFloatGrid(n, n)
	Hi := emath.NewFloatGrid(n, n)
	lambda := si.Lambda

	// row 0 and column 0 stay at zero
	for row:=1; row<n; row++ {
		u := spectral.AngularFrequency(row, n)
		for col:=1; col<n; col++ {
			v := spectral.AngularFrequency(col, n)

			uu, vv := u*u, v*v
			d := lambda*(uu*uu + vv*vv) + (1+si.Mu1)*(uu+vv) + si.Mu2*(uu+vv)*(uu+vv)
			a := u + lambda*u*uu
			b := v + lambda*v*vv

			Hr.Set(col, row,        (a*Qi.Get(col,row) + b*Pi.Get(col,row)) / d)
			Hi.Set(col, row, -1.0 * (a*Qr.Get(col,row) + b*Pr.Get(col,row)) / d)
		}
	}

	hr, _ := spectral.IFFT2(Hr, Hi, si.Workers)
	H := hr.Crop(width, height)

	if si.Verbosity > 0 {
		log.Printf("spectral: raw heights %s\n", H.Stats())
	}

	if si.DisplayRange > 0 {
		H.Rescale(0, si.DisplayRange)
	}

	return H, nClamped, nil
}
