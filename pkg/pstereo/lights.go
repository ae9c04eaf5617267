package pstereo

import(
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/abworrall/photostereo/pkg/emath"
)

// UnitTolerance bounds how far |v|^2 of an estimated light direction
// may stray from 1.
const UnitTolerance = 1e-8

// EstimateLightDirection looks at a photo of the calibration sphere, lit
// by a single distant light, and works out the direction of that light.
//
// The brightest spot on a Lambertian sphere is where the surface normal
// points straight at the light. So we find the centroid of the
// brightest pixels, and the apparent radius of the sphere (half the
// vertical extent of the lit pixels), and read the direction off the
// sphere geometry. The sphere is assumed to be centered in the image.
func EstimateLightDirection(sphere *image.Gray) (emath.Vec3, error) {
	b      := sphere.Bounds()
	width  := b.Dx()
	height := b.Dy()
	cx, cy := width/2, height/2

	firstLitY, lastLitY := -1, -1
	brightest := uint8(0)
	sumX, sumY, points := 0, 0, 0

	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			val := sphere.GrayAt(b.Min.X + x, b.Min.Y + y).Y
			if val == 0 {
				continue
			}

			if firstLitY < 0 {
				firstLitY = y
			}
			lastLitY = y

			if val > brightest {
				brightest = val
				points, sumX, sumY = 1, x, y
			} else if val == brightest {
				points++
				sumX += x
				sumY += y
			}
		}
	}

	if points == 0 {
		return emath.Vec3{}, fmt.Errorf("%w: no lit pixels", ErrDegenerateCalibrationImage)
	}

	size := float64(lastLitY - firstLitY) / 2.0
	if size <= 0 {
		return emath.Vec3{}, fmt.Errorf("%w: zero apparent radius (lit rows %d-%d)",
			ErrDegenerateCalibrationImage, firstLitY, lastLitY)
	}

	dx := float64(sumX) / float64(points) - float64(cx)
	dy := float64(sumY) / float64(points) - float64(cy)

	zz := size*size - (dx*dx + dy*dy)
	if zz < 0 {
		return emath.Vec3{}, fmt.Errorf("%w: highlight offset (%.1f,%.1f) is outside sphere of radius %.1f",
			ErrDegenerateCalibrationImage, dx, dy, size)
	}

	v := emath.Vec3{dx / size, dy / size, math.Sqrt(zz) / size}

	if d := math.Abs(v.Norm2() - 1.0); d >= UnitTolerance {
		return v, fmt.Errorf("%w: light direction %s is not unit length (off by %g)",
			ErrDegenerateCalibrationImage, v, d)
	}

	return v, nil
}

// A LightMatrix holds the four light directions as the columns of a
// 3x4 matrix, L. It also precomputes (L.Lt)^-1 . L, so that solving
// the normal equations for a pixel is a single 3x4 multiply.
type LightMatrix struct {
	L        *mat.Dense
	solver   [3][4]float64
	cond     float64
}

// NewLightMatrix builds the matrix from four directions. They need not
// be unit length, but they do need to span 3-D space; if L.Lt is
// singular, or its condition number exceeds maxCond, the lighting can't
// determine a normal and ErrIllConditionedLighting is returned.
func NewLightMatrix(dirs [4]emath.Vec3, maxCond float64) (LightMatrix, error) {
	L := mat.NewDense(3, 4, nil)
	for i, d := range dirs {
		for j:=0; j<3; j++ {
			L.Set(j, i, d[j])
		}
	}
	lm := LightMatrix{L: L}

	var A mat.Dense
	A.Mul(L, L.T())

	lm.cond = mat.Cond(&A, 2)
	if math.IsInf(lm.cond, 0) || math.IsNaN(lm.cond) || lm.cond > maxCond {
		return lm, fmt.Errorf("%w: cond(L.Lt) = %g, limit %g", ErrIllConditionedLighting, lm.cond, maxCond)
	}

	var inv mat.Dense
	if err := inv.Inverse(&A); err != nil {
		return lm, fmt.Errorf("%w: %v", ErrIllConditionedLighting, err)
	}

	var S mat.Dense
	S.Mul(&inv, L)
	for r:=0; r<3; r++ {
		for c:=0; c<4; c++ {
			lm.solver[r][c] = S.At(r, c)
		}
	}

	return lm, nil
}

// EstimateLightMatrix runs EstimateLightDirection over the four
// calibration images. Failures carry the index of the offending image.
func EstimateLightMatrix(spheres [4]*image.Gray, maxCond float64) (LightMatrix, error) {
	dirs := [4]emath.Vec3{}
	for i, sphere := range spheres {
		if sphere == nil {
			return LightMatrix{}, &ImageError{i, fmt.Errorf("%w: missing image", ErrDegenerateCalibrationImage)}
		}
		d, err := EstimateLightDirection(sphere)
		if err != nil {
			return LightMatrix{}, &ImageError{i, err}
		}
		dirs[i] = d
	}

	return NewLightMatrix(dirs, maxCond)
}

func (lm LightMatrix)Direction(i int) emath.Vec3 {
	return emath.Vec3{lm.L.At(0,i), lm.L.At(1,i), lm.L.At(2,i)}
}

// Cond is the 2-norm condition number of L.Lt.
func (lm LightMatrix)Cond() float64 { return lm.cond }

func (lm LightMatrix)String() string {
	str := fmt.Sprintf("LightMatrix[cond %.3g\n", lm.cond)
	for i:=0; i<4; i++ {
		str += fmt.Sprintf("  light %d: %s\n", i, lm.Direction(i))
	}
	return str + "]"
}
