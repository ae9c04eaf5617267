package spectral

// Solves the Poisson equation, Laplace U = F, with Neumann boundary
// conditions, by moving into the eigenvector space of the discrete
// Laplacian. This is the solver from pde_fft.cpp in the PFSTMO
// package, with the FFTW r2r transforms swapped for gonum's DCT.
//
// gonum's DCT is the unnormalized DCT-I, which is exactly FFTW's
// REDFT00 kind:
//   Y[k] = X[0] + (-1)^k X[n-1] + 2 sum_{j=1}^{n-2} X[j] cos(pi j k / (n-1))
// so all the scaling factors carry over unchanged. The boundary
// assumption that goes with it is U(-1) = U(1), and U(n) = U(n-2).

import(
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/abworrall/photostereo/pkg/emath"
)

// dct2 executes a 2d DCT-I (REDFT00 along both axes) over A, returning
// the result as a new grid. A is left untouched.
func dct2(A emath.FloatGrid, workers int) emath.FloatGrid {
	width  := A.Dx()
	height := A.Dy()
	T      := *A.Copy()
	vals   := T.Values()

	// gonum transforms keep internal scratch space, so one per worker
	nw := emath.NumWorkers(workers)
	rowDCTs := make([]*fourier.DCT, nw)
	colDCTs := make([]*fourier.DCT, nw)
	for i:=0; i<nw; i++ {
		rowDCTs[i] = fourier.NewDCT(width)
		colDCTs[i] = fourier.NewDCT(height)
	}

	emath.ForEachRow(height, nw, func(w, y int) {
		row := vals[y*width : (y+1)*width]
		rowDCTs[w].Transform(row, row)
	})

	emath.ForEachRow(width, nw, func(w, x int) {
		col := make([]float64, height)
		for y:=0; y<height; y++ {
			col[y] = vals[y*width + x]
		}
		colDCTs[w].Transform(col, col)
		for y:=0; y<height; y++ {
			vals[y*width + x] = col[y]
		}
	})

	return T
}

// returns T = EVy A EVx^tr
func transformEv2Normal(A emath.FloatGrid, workers int) emath.FloatGrid {
	width  := A.Dx()
	height := A.Dy()
	S      := *A.Copy()

	// the discrete cosine transform is not exactly the transform needed
	// need to scale input values to get the right transformation
	for y:=1 ; y<height-1 ; y++ {
		for x:=1 ; x<width-1 ; x++ {
			S.Set(x,y,      S.Get(x,y)        * 0.25)
		}
	}
	for x:=1 ; x<width-1 ; x++ {
		S.Set(x,0,        S.Get(x,0)        * 0.5)
		S.Set(x,height-1, S.Get(x,height-1) * 0.5)
	}
	for y:=1 ; y<height-1 ; y++ {
		S.Set(0,y,        S.Get(0,y)        * 0.5)
		S.Set(width-1,y,  S.Get(width-1,y)  * 0.5)
	}

	return dct2(S, workers)
}

// returns T = EVy^-1 * A * (EVx^-1)^tr
func transformNormal2Ev(A emath.FloatGrid, workers int) emath.FloatGrid {
	width  := A.Dx()
	height := A.Dy()
	T      := dct2(A, workers)

	// need to scale the output matrix to get the right transform
	norm := 1.0 / float64((height-1)*(width-1))
	for y:=0 ; y<height ; y++ {
		for x:=0 ; x<width ; x++ {
			T.Set(x,y,       T.Get(x,y)        * norm)
		}
	}
	for x:=0 ; x<width ; x++ {
		T.Set(x,0,         T.Get(x,0)        * 0.5)
		T.Set(x,height-1,  T.Get(x,height-1) * 0.5)
	}
	for y:=0 ; y<height ; y++ {
		T.Set(0,y,         T.Get(0,y)        * 0.5)
		T.Set(width-1,y,   T.Get(width-1,y)  * 0.5)
	}

	return T
}

// laplaceEigenvalues returns the eigenvalues of the 1d laplace operator
func laplaceEigenvalues(n int) []float64 {
	v := make([]float64, n)
	for i:=0; i<n; i++ {
		u := math.Sin( float64(i)/float64(2*(n-1)) * math.Pi )
		v[i] = -4.0 * u * u
	}
	return v
}

// boundaryImbalance is the weighted sum of F that must be zero for the
// Neumann problem to have a solution.
func boundaryImbalance(F emath.FloatGrid) float64 {
	width  := F.Dx()
	height := F.Dy()

	sum := 0.0
	for y:=1 ; y<height-1 ; y++ {
		for x:=1 ; x<width-1 ; x++ {
			sum += F.Get(x,y)
		}
	}
	for x:=1 ; x<width-1 ; x++ {
		sum += 0.5 * (F.Get(x,0) + F.Get(x,height-1))
	}
	for y:=1 ; y<height-1 ; y++ {
		sum += 0.5 * (F.Get(0,y) + F.Get(width-1,y))
	}
	sum += 0.25*(F.Get(0,0) + F.Get(0,height-1) + F.Get(width-1,0) + F.Get(width-1,height-1))

	return sum
}

// makeCompatibleBoundary adjusts the boundary of F so that a solution exists
func makeCompatibleBoundary(F emath.FloatGrid) {
	width  := F.Dx()
	height := F.Dy()

	add := -1.0 * boundaryImbalance(F) / float64(height+width-3)

	for x:=0 ; x<width ; x++ {
		F.Set(x,0,         F.Get(x,0)        + add)
		F.Set(x,height-1,  F.Get(x,height-1) + add)
	}
	for y:=1 ; y<height-1 ; y++ {
		F.Set(0,y,         F.Get(0,y)        + add)
		F.Set(width-1,y,   F.Get(width-1,y)  + add)
	}
}

// SolvePoisson solves Laplace U = F with Neumann boundary conditions.
// If adjustBound is true then boundary values in F are modified so that
// the equation has a solution; if it is false then F is not modified
// and the equation might not have a solution, but an approximate
// solution with a minimum error is then calculated.
//
// U is only defined up to an additive constant; the value returned
// has a zero coefficient for the constant eigenvector. F must be at
// least 2x2.
func SolvePoisson(F emath.FloatGrid, adjustBound bool, workers int) emath.FloatGrid {
	width  := F.Dx()
	height := F.Dy()

	if adjustBound {
		F = *F.Copy()
		makeCompatibleBoundary(F)
	}

	// transforms F into eigenvector space
	Ftr := transformNormal2Ev(F, workers)

	// in the eigenvector space the solution is very simple
	Utr := Ftr.NewFromThis()
	l1 := laplaceEigenvalues(height)
	l2 := laplaceEigenvalues(width)
	for y:=0 ; y<height ; y++ {
		for x:=0 ; x<width ; x++ {
			if x==0 && y==0 {
				Utr.Set(x,y,  0.0) // any value ok, only adds a const to the solution
			} else {
				Utr.Set(x,y,  Ftr.Get(x,y) / (l1[y] + l2[x]))
			}
		}
	}

	// transforms Utr back to the normal space
	return transformEv2Normal(Utr, workers)
}
