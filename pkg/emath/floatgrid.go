package emath

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
)

// A FloatGrid is a dense, row-major grid of floats. It is used for
// height fields, gradient planes and the real/imaginary planes of
// transforms. Every component addresses cells via Index, so there is
// exactly one axis order: (x,y) -> x + y*width.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	if w < 0 || h < 0 {
		panic(fmt.Sprintf("emath: bad FloatGrid size %dx%d", w, h))
	}
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g1 *FloatGrid)NewFromThis() FloatGrid  { return NewFloatGrid(g1.Dx(), g1.Dy()) }
func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.Index(x,y)] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.Index(x,y)] }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Values() []float64       { return fg.values }

func (fg *FloatGrid)Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

// In reports whether (x,y) lies inside the grid.
func (fg *FloatGrid)In(x, y int) bool {
	return x >= 0 && y >= 0 && x < fg.stride && y < fg.Dy()
}

// Index maps (x,y) to the offset into the backing slice. It panics on
// out-of-range coordinates, rather than silently aliasing into the
// next row.
func (fg *FloatGrid)Index(x, y int) int {
	if !fg.In(x, y) {
		panic(fmt.Sprintf("emath: (%d,%d) outside %dx%d grid", x, y, fg.Dx(), fg.Dy()))
	}
	return fg.stride*y + x
}

func (g1 *FloatGrid)Copy() *FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values:make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return &g2
}

// Equal reports whether both grids have the same shape and bit-identical values.
func (g1 *FloatGrid)Equal(g2 *FloatGrid) bool {
	if g1.stride != g2.stride || len(g1.values) != len(g2.values) {
		return false
	}
	for i := range g1.values {
		if math.Float64bits(g1.values[i]) != math.Float64bits(g2.values[i]) {
			return false
		}
	}
	return true
}

func (fg *FloatGrid)MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0  * min

	for i:=0 ; i<len(fg.values) ; i++ {
		if fg.values[i] > max { max = fg.values[i] }
		if fg.values[i] < min { min = fg.values[i] }
	}
	return min, max
}

// AddConstant shifts every value by c. Heights are only defined up to
// a constant, so this is the usual way to normalize them.
func (fg *FloatGrid)AddConstant(c float64) {
	for i:=0 ; i<len(fg.values) ; i++ {
		fg.values[i] += c
	}
}

// Rescale maps the values linearly onto [lo, hi]. A grid with no range
// at all is left as it is; there is nothing sensible to stretch.
func (fg *FloatGrid)Rescale(lo, hi float64) {
	min, max := fg.MinMax()
	if len(fg.values) == 0 || max == min {
		return
	}
	scale := (hi - lo) / (max - min)
	for i:=0 ; i<len(fg.values) ; i++ {
		fg.values[i] = lo + (fg.values[i] - min) * scale
	}
}

// PadTo returns a w x h grid with this grid in its top left corner, and
// zeros everywhere else.
func (g1 *FloatGrid)PadTo(w, h int) FloatGrid {
	if w < g1.Dx() || h < g1.Dy() {
		panic(fmt.Sprintf("emath: can't pad %dx%d grid down to %dx%d", g1.Dx(), g1.Dy(), w, h))
	}
	g2 := NewFloatGrid(w, h)
	for y:=0; y<g1.Dy(); y++ {
		copy(g2.values[y*w : y*w + g1.stride], g1.values[y*g1.stride : (y+1)*g1.stride])
	}
	return g2
}

// Crop returns the top left w x h region as a new grid.
func (g1 *FloatGrid)Crop(w, h int) FloatGrid {
	if w > g1.Dx() || h > g1.Dy() {
		panic(fmt.Sprintf("emath: can't crop %dx%d grid up to %dx%d", g1.Dx(), g1.Dy(), w, h))
	}
	g2 := NewFloatGrid(w, h)
	for y:=0; y<h; y++ {
		copy(g2.values[y*w : (y+1)*w], g1.values[y*g1.stride : y*g1.stride + w])
	}
	return g2
}

func (fg *FloatGrid)Stats() string {
	min, max := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// ToGray returns a grayscale image, linearly mapping the range of
// values in the grid onto [0,0xFFFF].
func (fg *FloatGrid)ToGray() *image.Gray16 {
	min, max := fg.MinMax()
	img := image.NewGray16(image.Rectangle{Max:image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			v := 0.0
			if max > min {
				v = (fg.Get(x,y) - min) / (max - min)
			}
			img.SetGray16(x, y, color.Gray16{uint16(v * 65535.0)})
		}
	}
	return img
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid)ToImg(title, filename string) error {
	min, max := fg.MinMax()

	img := image.NewRGBA64(image.Rectangle{Max:image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			lum := 0.0
			if max > min {
				lum = (fg.Get(x,y) - min) / (max - min)
			}
			gray := GammaExpand_F64(lum)
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1,0,0)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}
