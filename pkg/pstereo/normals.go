package pstereo

import(
	"fmt"
	"image"

	"github.com/abworrall/photostereo/pkg/emath"
)

// SolveNormal finds the unit surface normal n that best explains the
// four observed intensities, i_k = n.l_k, in the least squares sense:
// x = (L.Lt)^-1 . L . i, then n = x/|x|. Albedo is folded into |x|.
func SolveNormal(lm LightMatrix, intensities [4]float64, minMagnitude float64) (emath.Vec3, error) {
	x := emath.Vec3{}
	for r:=0; r<3; r++ {
		for c:=0; c<4; c++ {
			x[r] += lm.solver[r][c] * intensities[c]
		}
	}

	if mag := x.Norm(); !(mag > minMagnitude) {
		return x, fmt.Errorf("%w: |x| = %g for intensities %v", ErrDegenerateNormal, mag, intensities)
	}

	return x.Normalize(), nil
}

// A NormalField is a dense, row-major grid of unit normals, one per
// pixel of the object images.
type NormalField struct {
	Width      int
	Height     int
	Normals  []emath.Vec3

	Background int // how many pixels were masked as background
}

func NewNormalField(w, h int) *NormalField {
	return &NormalField{
		Width:   w,
		Height:  h,
		Normals: make([]emath.Vec3, w*h),
	}
}

func (nf *NormalField)In(x, y int) bool {
	return x >= 0 && y >= 0 && x < nf.Width && y < nf.Height
}

// Index is the same (x,y) -> x + y*width mapping that emath.FloatGrid uses.
func (nf *NormalField)Index(x, y int) int {
	if !nf.In(x, y) {
		panic(fmt.Sprintf("pstereo: (%d,%d) outside %dx%d normal field", x, y, nf.Width, nf.Height))
	}
	return y*nf.Width + x
}

func (nf *NormalField)At(x, y int) emath.Vec3     { return nf.Normals[nf.Index(x,y)] }
func (nf *NormalField)Set(x, y int, n emath.Vec3) { nf.Normals[nf.Index(x,y)] = n }

func (nf *NormalField)String() string {
	return fmt.Sprintf("NormalField[%dx%d, %d background]", nf.Width, nf.Height, nf.Background)
}

// CheckDimensions returns the shared size of the four images, or
// ErrMismatchedImageDimensions naming the first image that disagrees
// with image 0.
func CheckDimensions(images [4]*image.Gray) (int, int, error) {
	for i, img := range images {
		if img == nil {
			return 0, 0, &ImageError{i, fmt.Errorf("%w: missing image", ErrMismatchedImageDimensions)}
		}
	}

	w, h := images[0].Bounds().Dx(), images[0].Bounds().Dy()
	for i:=1; i<len(images); i++ {
		b := images[i].Bounds()
		if b.Dx() != w || b.Dy() != h {
			return 0, 0, &ImageError{i, fmt.Errorf("%w: %dx%d, but image 0 is %dx%d",
				ErrMismatchedImageDimensions, b.Dx(), b.Dy(), w, h)}
		}
	}

	return w, h, nil
}

// BuildNormalField solves for the normal at every pixel of the four
// co-registered object images. Rows are solved concurrently; every
// pixel is independent, so the result doesn't depend on scheduling.
// If any pixel fails, the error for the first failing pixel (in row
// order) is returned and no field is.
func BuildNormalField(cfg Config, lm LightMatrix, images [4]*image.Gray) (*NormalField, error) {
	width, height, err := CheckDimensions(images)
	if err != nil {
		return nil, err
	}

	nf := NewNormalField(width, height)
	rowErrs := make([]error, height)
	rowBackground := make([]int, height)

	emath.ForEachRow(height, cfg.Workers, func(_, y int) {
		for x:=0; x<width; x++ {
			intensities := [4]float64{}
			brightest := uint8(0)
			for k, img := range images {
				b := img.Bounds()
				val := img.GrayAt(b.Min.X + x, b.Min.Y + y).Y
				intensities[k] = float64(val)
				if val > brightest {
					brightest = val
				}
			}

			if cfg.MaskBackground && brightest <= cfg.BackgroundLevel {
				nf.Normals[y*width + x] = emath.Vec3{0, 0, 1}
				rowBackground[y]++
				continue
			}

			n, err := SolveNormal(lm, intensities, cfg.MinNormalMagnitude)
			if err != nil {
				rowErrs[y] = &PixelError{x, y, err}
				return
			}
			nf.Normals[y*width + x] = n
		}
	})

	for y:=0; y<height; y++ {
		if rowErrs[y] != nil {
			return nil, rowErrs[y]
		}
		nf.Background += rowBackground[y]
	}

	return nf, nil
}
