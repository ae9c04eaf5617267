package psio

import(
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/photostereo/pkg/emath"
	"github.com/abworrall/photostereo/pkg/pstereo"
)

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

func WriteHDR(img hdr.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return rgbe.Encode(writer, img)
	}
}

// WriteHeightText dumps the height field one value per line, row by row.
func WriteHeightText(h emath.FloatGrid, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	w := bufio.NewWriter(writer)
	for _, v := range h.Values() {
		fmt.Fprintf(w, "%f\n", v)
	}
	return w.Flush()
}

// ReadHeightText reads a dump written by WriteHeightText, which doesn't
// record the width, so the caller has to supply it.
func ReadHeightText(filename string, width int) (emath.FloatGrid, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	vals := []float64{}
	scanner := bufio.NewScanner(reader)
	for line := 1; scanner.Scan(); line++ {
		str := strings.TrimSpace(scanner.Text())
		if str == "" {
			continue
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return emath.FloatGrid{}, fmt.Errorf("%s:%d: %v", filename, line, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return emath.FloatGrid{}, fmt.Errorf("read '%s': %v", filename, err)
	}

	if width <= 0 || len(vals) % width != 0 {
		return emath.FloatGrid{}, fmt.Errorf("%s: %d values don't fill rows of %d", filename, len(vals), width)
	}

	g := emath.NewFloatGrid(width, len(vals)/width)
	copy(g.Values(), vals)
	return g, nil
}

// WriteGradientPNGs writes the two slope planes of a normal field, as the
// integrators see them, into dir as p.png and q.png.
func WriteGradientPNGs(nf *pstereo.NormalField, gp pstereo.GradientPolicy, dir string) error {
	P, Q, _, err := gp.Gradients(nf)
	if err != nil {
		return err
	}
	for name, g := range map[string]emath.FloatGrid{"p": P, "q": Q} {
		if err := WriteHeightPNG(g, name, filepath.Join(dir, name+".png")); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeightPNG writes the heights as a captioned gray image.
func WriteHeightPNG(h emath.FloatGrid, title, filename string) error {
	return h.ToImg(title, filename)
}

// WriteHeightGray16 writes the heights as a plain 16-bit depth map,
// with the lowest point black and the highest white.
func WriteHeightGray16(h emath.FloatGrid, filename string) error {
	return WritePNG(h.ToGray(), filename)
}

var(
	LowColor, _  = colorful.Hex("#1b2a6b")
	MidColor, _  = colorful.Hex("#3f9b5a")
	HighColor, _ = colorful.Hex("#f2e394")
)

// HeightColor maps a height in [0,1] onto a low->mid->high ramp,
// blending in HCL space so the steps look even.
func HeightColor(f float64) color.RGBA {
	f = emath.Clamp(f, 0, 1)

	var c colorful.Color
	if f < 0.5 {
		c = LowColor.BlendHcl(MidColor, f*2)
	} else {
		c = MidColor.BlendHcl(HighColor, (f-0.5)*2)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 0xFF}
}

// WriteHeightColorPNG writes the heights as a false-color elevation map.
func WriteHeightColorPNG(h emath.FloatGrid, filename string) error {
	min, max := h.MinMax()
	img := image.NewRGBA(image.Rect(0, 0, h.Dx(), h.Dy()))
	for y:=0; y<h.Dy(); y++ {
		for x:=0; x<h.Dx(); x++ {
			f := 0.0
			if max > min {
				f = (h.Get(x,y) - min) / (max - min)
			}
			img.SetRGBA(x, y, HeightColor(f))
		}
	}
	return WritePNG(img, filename)
}

// NormalColor is the usual normal map encoding, each component mapped
// from [-1,1] onto [0,255].
func NormalColor(n emath.Vec3) color.RGBA {
	ch := func(f float64) uint8 { return uint8(emath.Clamp((f+1)/2, 0, 1) * 255 + 0.5) }
	return color.RGBA{ch(n[0]), ch(n[1]), ch(n[2]), 0xFF}
}

func WriteNormalPNG(nf *pstereo.NormalField, filename string) error {
	img := image.NewRGBA(image.Rect(0, 0, nf.Width, nf.Height))
	for y:=0; y<nf.Height; y++ {
		for x:=0; x<nf.Width; x++ {
			img.SetRGBA(x, y, NormalColor(nf.At(x,y)))
		}
	}
	return WritePNG(img, filename)
}

// HeightImage presents a height field as a gray HDR image. Implements
// hdr.Image.
type HeightImage struct {
	emath.FloatGrid
}

// NewHeightImage shifts a copy of the heights so the lowest point is at
// zero, since RGBE can't hold negative values. Heights are not scaled.
func NewHeightImage(h emath.FloatGrid) HeightImage {
	shifted := h.Copy()
	min, _ := shifted.MinMax()
	shifted.AddConstant(-min)
	return HeightImage{*shifted}
}

// Implement image.Image
func (hi HeightImage)ColorModel() color.Model  { return hdrcolor.RGBModel }
func (hi HeightImage)Bounds() image.Rectangle  { return image.Rect(0, 0, hi.Dx(), hi.Dy()) }
func (hi HeightImage)At(x, y int) color.Color  { return hi.HDRAt(x,y) }

// Implement hdr.Image
func (hi HeightImage)Size() int                { return hi.Dx() * hi.Dy() }
func (hi HeightImage)HDRAt(x, y int) hdrcolor.Color {
	v := hi.Get(x,y)
	return hdrcolor.RGB{R: v, G: v, B: v}
}

// NormalImage presents a normal field as an HDR image. RGBE can't hold
// negative values, so components are mapped onto [0,1] as in a normal
// map PNG, but without the quantization.
type NormalImage struct {
	*pstereo.NormalField
}

func (ni NormalImage)ColorModel() color.Model  { return hdrcolor.RGBModel }
func (ni NormalImage)Bounds() image.Rectangle  { return image.Rect(0, 0, ni.Width, ni.Height) }
func (ni NormalImage)At(x, y int) color.Color  { return ni.HDRAt(x,y) }
func (ni NormalImage)Size() int                { return ni.Width * ni.Height }
func (ni NormalImage)HDRAt(x, y int) hdrcolor.Color {
	c := ni.NormalField.At(x,y).Add(emath.Vec3{1, 1, 1}).Scale(0.5)
	return hdrcolor.RGB{R: c[0], G: c[1], B: c[2]}
}

func WriteHeightHDR(h emath.FloatGrid, filename string) error {
	return WriteHDR(NewHeightImage(h), filename)
}

func WriteNormalHDR(nf *pstereo.NormalField, filename string) error {
	return WriteHDR(NormalImage{nf}, filename)
}
