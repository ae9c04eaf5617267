package spectral

import(
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/abworrall/photostereo/pkg/emath"
)

// FFT2 computes the 2-D discrete Fourier transform of the complex grid
// (re + i*im), rows first then columns, returning the real and
// imaginary planes of the result. Like gonum's transforms it is
// unnormalized; IFFT2 does the 1/(w*h) scaling on the way back.
func FFT2(re, im emath.FloatGrid, workers int) (emath.FloatGrid, emath.FloatGrid) {
	return fft2(re, im, true, workers)
}

// IFFT2 is the inverse of FFT2.
func IFFT2(re, im emath.FloatGrid, workers int) (emath.FloatGrid, emath.FloatGrid) {
	outRe, outIm := fft2(re, im, false, workers)
	n := float64(re.Dx() * re.Dy())
	vr, vi := outRe.Values(), outIm.Values()
	for i := range vr {
		vr[i] /= n
		vi[i] /= n
	}
	return outRe, outIm
}

func fft2(re, im emath.FloatGrid, forward bool, workers int) (emath.FloatGrid, emath.FloatGrid) {
	w, h := re.Dx(), re.Dy()
	if im.Dx() != w || im.Dy() != h {
		panic(fmt.Sprintf("spectral: real plane %dx%d, imaginary plane %dx%d", w, h, im.Dx(), im.Dy()))
	}

	a := make([]complex128, w*h)
	vr, vi := re.Values(), im.Values()
	for i := range a {
		a[i] = complex(vr[i], vi[i])
	}

	nw := emath.NumWorkers(workers)
	rowFFTs := make([]*fourier.CmplxFFT, nw)
	colFFTs := make([]*fourier.CmplxFFT, nw)
	for i:=0; i<nw; i++ {
		rowFFTs[i] = fourier.NewCmplxFFT(w)
		colFFTs[i] = fourier.NewCmplxFFT(h)
	}

	emath.ForEachRow(h, nw, func(wk, y int) {
		row := a[y*w : (y+1)*w]
		if forward {
			rowFFTs[wk].Coefficients(row, row)
		} else {
			rowFFTs[wk].Sequence(row, row)
		}
	})

	emath.ForEachRow(w, nw, func(wk, x int) {
		col := make([]complex128, h)
		for y:=0; y<h; y++ {
			col[y] = a[y*w + x]
		}
		if forward {
			colFFTs[wk].Coefficients(col, col)
		} else {
			colFFTs[wk].Sequence(col, col)
		}
		for y:=0; y<h; y++ {
			a[y*w + x] = col[y]
		}
	})

	outRe := emath.NewFloatGrid(w, h)
	outIm := emath.NewFloatGrid(w, h)
	or, oi := outRe.Values(), outIm.Values()
	for i := range a {
		or[i] = real(a[i])
		oi[i] = imag(a[i])
	}
	return outRe, outIm
}

// AngularFrequency returns the signed angular frequency, in radians per
// sample, of bin k in an n-point transform. Bins past the middle wrap
// round to negative frequencies.
func AngularFrequency(k, n int) float64 {
	if k >= (n+1)/2 {
		k -= n
	}
	return 2.0 * math.Pi * float64(k) / float64(n)
}
