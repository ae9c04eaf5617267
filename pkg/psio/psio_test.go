package psio

import(
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/photostereo/pkg/emath"
	"github.com/abworrall/photostereo/pkg/pstereo"
)

// sphereTile draws a radius 5 sphere with its highlight at (5+hx,5+hy),
// into an 11x11 window of dst starting at column x0.
func sphereTile(dst *image.Gray, x0, hx, hy int) {
	for y := 0; y < 11; y++ {
		for x := 0; x < 11; x++ {
			if (x-5)*(x-5)+(y-5)*(y-5) <= 25 {
				dst.SetGray(x0+x, y, color.Gray{100})
			}
		}
	}
	dst.SetGray(x0+5+hx, 5+hy, color.Gray{255})
}

var highlights = [4][2]int{{3, 0}, {-3, 0}, {0, 3}, {0, -3}}

func TestLoadImageAndToGray(t *testing.T) {
	dir := t.TempDir()
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgba.Set(0, 0, color.RGBA{0xff, 0xff, 0xff, 0xff})
	rgba.Set(1, 0, color.RGBA{0xff, 0, 0, 0xff})
	require.NoError(t, WritePNG(rgba, filepath.Join(dir, "a.png")))

	img, err := LoadImage(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	g := ToGray(img)
	assert.Equal(t, uint8(255), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(76), g.GrayAt(1, 0).Y)

	same := image.NewGray(image.Rect(0, 0, 1, 1))
	assert.Same(t, same, ToGray(same))

	_, err = LoadImage(filepath.Join(dir, "a.xcf"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = LoadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestSplitStrip(t *testing.T) {
	strip := image.NewGray(image.Rect(0, 0, 12, 3))
	strip.SetGray(4, 2, color.Gray{9})

	tiles, err := SplitStrip(strip, 4)
	require.NoError(t, err)
	require.Len(t, tiles, 4)
	assert.Equal(t, image.Rect(3, 0, 6, 3), tiles[1].Bounds())
	assert.Equal(t, uint8(9), tiles[1].GrayAt(4, 2).Y)

	tile := ToGray(tiles[1])
	assert.Same(t, tiles[1], tile)
	assert.Equal(t, image.Rect(3, 0, 6, 3), tile.Bounds())

	_, err = SplitStrip(image.NewGray(image.Rect(0, 0, 10, 3)), 4)
	assert.True(t, errors.Is(err, ErrBadStrip))
}

func TestLoadSetFromStrip(t *testing.T) {
	strip := image.NewGray(image.Rect(0, 0, 44, 11))
	for i, hl := range highlights {
		sphereTile(strip, 11*i, hl[0], hl[1])
	}
	filename := filepath.Join(t.TempDir(), "spheres.png")
	require.NoError(t, WritePNG(strip, filename))

	spheres, err := LoadSet(filename)
	require.NoError(t, err)

	lm, err := pstereo.EstimateLightMatrix(spheres, 1e12)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, lm.Direction(0)[0], 1e-9)
	assert.InDelta(t, -0.6, lm.Direction(1)[0], 1e-9)
	assert.InDelta(t, 0.6, lm.Direction(2)[1], 1e-9)
	assert.InDelta(t, -0.6, lm.Direction(3)[1], 1e-9)
}

func TestLoadSetFromDir(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"d.png", "b.png", "c.png", "a.png"} {
		img := image.NewGray(image.Rect(0, 0, 2, 2))
		img.SetGray(0, 0, color.Gray{uint8(10 * i)})
		require.NoError(t, WritePNG(img, filepath.Join(dir, name)))
	}

	set, err := LoadSet(dir)
	require.NoError(t, err)

	// name order: a, b, c, d
	for i, want := range []uint8{30, 10, 20, 0} {
		assert.Equal(t, want, set[i].GrayAt(0, 0).Y, "image %d", i)
	}

	_, err = LoadSet(filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"))
	assert.True(t, errors.Is(err, ErrBadSet))
}

func TestExposures(t *testing.T) {
	e1 := Exposure{ISO: 100, FNumber: rat64{56, 10}, ShutterSpeed: rat64{1, 500}}
	e2 := Exposure{ISO: 100, FNumber: rat64{28, 5}, ShutterSpeed: rat64{2, 1000}}
	assert.True(t, e1.Same(e2))
	assert.Equal(t, "f/5.6, 1/500, ISO100", e1.String())

	e2.ISO = 200
	assert.False(t, e1.Same(e2))

	// PNGs have no EXIF, so there is nothing to compare
	filename := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, WritePNG(image.NewGray(image.Rect(0, 0, 1, 1)), filename))
	_, err := ReadExposure(filename)
	assert.Error(t, err)

	exposures, skipped, err := CheckExposures(filename, filename)
	assert.NoError(t, err)
	assert.Empty(t, exposures)
	assert.Equal(t, []string{filename, filename}, skipped)
}

func TestHeightTextRoundTrip(t *testing.T) {
	h := emath.NewFloatGrid(3, 2)
	for i := range h.Values() {
		h.Values()[i] = float64(i) * 1.25
	}

	filename := filepath.Join(t.TempDir(), "result.txt")
	require.NoError(t, WriteHeightText(h, filename))

	contents, err := os.ReadFile(filename)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	assert.Equal(t, []string{"0.000000", "1.250000", "2.500000", "3.750000", "5.000000", "6.250000"}, lines)

	h2, err := ReadHeightText(filename, 3)
	require.NoError(t, err)
	assert.True(t, h.Equal(&h2))

	_, err = ReadHeightText(filename, 4)
	assert.Error(t, err)
}

func TestWriteImages(t *testing.T) {
	dir := t.TempDir()

	h := emath.NewFloatGrid(4, 3)
	h.Set(3, 2, 10)
	require.NoError(t, WriteHeightColorPNG(h, filepath.Join(dir, "color.png")))

	img, err := LoadImage(filepath.Join(dir, "color.png"))
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(HeightColor(0)), color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.RGBAModel.Convert(HeightColor(1)), color.RGBAModel.Convert(img.At(3, 2)))

	assert.Equal(t, color.RGBA{128, 128, 255, 255}, NormalColor(emath.Vec3{0, 0, 1}))
	assert.Equal(t, color.RGBA{0, 255, 128, 255}, NormalColor(emath.Vec3{-1, 1, 0}))

	nf := pstereo.NewNormalField(2, 2)
	for i := range nf.Normals {
		nf.Normals[i] = emath.Vec3{0, 0, 1}
	}
	nf.Set(1, 0, emath.Vec3{0.6, 0, 0.8})
	require.NoError(t, WriteNormalPNG(nf, filepath.Join(dir, "normals.png")))
	img, err = LoadImage(filepath.Join(dir, "normals.png"))
	require.NoError(t, err)
	r, _, _, _ := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(204), r>>8)

	require.NoError(t, WriteHeightGray16(h, filepath.Join(dir, "h16.png")))
	img, err = LoadImage(filepath.Join(dir, "h16.png"))
	require.NoError(t, err)
	g16, ok := img.(*image.Gray16)
	require.True(t, ok)
	assert.Equal(t, uint16(0), g16.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(0xFFFF), g16.Gray16At(3, 2).Y)

	hi := HeightImage{h}
	assert.Equal(t, 12, hi.Size())
	assert.Equal(t, image.Rect(0, 0, 4, 3), hi.Bounds())

	for name, write := range map[string]func(string) error{
		"h.hdr": func(f string) error { return WriteHeightHDR(h, f) },
		"n.hdr": func(f string) error { return WriteNormalHDR(nf, f) },
	} {
		filename := filepath.Join(dir, name)
		require.NoError(t, write(filename))
		info, err := os.Stat(filename)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestHeightImageShiftsNegativeHeights(t *testing.T) {
	h := emath.NewFloatGrid(3, 1)
	h.Set(0, 0, -2.5)
	h.Set(1, 0, 0.5)
	h.Set(2, 0, 1)

	hi := NewHeightImage(h)
	assert.Equal(t, []float64{0, 3, 3.5}, hi.Values())
	assert.Equal(t, -2.5, h.Get(0, 0), "the original heights are untouched")

	r, _, _, _ := hi.HDRAt(2, 0).HDRRGBA()
	assert.Equal(t, 3.5, r)
}

func TestWriteGradientPNGs(t *testing.T) {
	dir := t.TempDir()
	nf := pstereo.NewNormalField(3, 2)
	for i := range nf.Normals {
		nf.Normals[i] = emath.Vec3{0.6, 0, 0.8}
	}
	require.NoError(t, WriteGradientPNGs(nf, pstereo.GradientPolicy{}, dir))
	for _, name := range []string{"p.png", "q.png"} {
		img, err := LoadImage(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, 3, img.Bounds().Dx())
	}

	nf.Set(1, 1, emath.Vec3{1, 0, 0})
	err := WriteGradientPNGs(nf, pstereo.GradientPolicy{Reject: true}, dir)
	assert.True(t, errors.Is(err, pstereo.ErrUnstableGradient))
}

func TestCompareRows(t *testing.T) {
	hint := emath.NewFloatGrid(3, 2)
	result := emath.NewFloatGrid(3, 2)
	for x := 0; x < 3; x++ {
		hint.Set(x, 0, 1)
		result.Set(x, 0, 1.5)
		hint.Set(x, 1, float64(x))
		result.Set(x, 1, float64(x))
	}
	dir := filepath.Join(t.TempDir(), "output")

	diffs, err := CompareRows(hint, result, dir, false)
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	assert.InDelta(t, 0.5, diffs[0].MaxDiff, 1e-12)
	assert.InDelta(t, 0.5, diffs[0].RMS, 1e-12)
	assert.Equal(t, 0.0, diffs[1].MaxDiff)

	contents, err := os.ReadFile(filepath.Join(dir, "000.csv"))
	require.NoError(t, err)
	assert.Equal(t, "0, 1.000000, 1.500000\n1, 1.000000, 1.500000\n2, 1.000000, 1.500000\n", string(contents))

	_, err = CompareRows(hint, emath.NewFloatGrid(2, 2), dir, false)
	assert.Error(t, err)

	_, err = CompareRows(hint, result, dir, true)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "001.png"))
	assert.NoError(t, err)
}

func TestSummarize(t *testing.T) {
	lm, err := pstereo.NewLightMatrix([4]emath.Vec3{{0.6, 0, 0.8}, {-0.6, 0, 0.8}, {0, 0.6, 0.8}, {0, -0.6, 0.8}}, 1e12)
	require.NoError(t, err)

	h := emath.NewFloatGrid(10, 10)
	for i := range h.Values() {
		h.Values()[i] = float64(i) / 10
	}
	r := &pstereo.Result{
		Lights:     lm,
		Normals:    &pstereo.NormalField{Width: 10, Height: 10, Background: 3},
		Height:     h,
		Integrator: "path",
		Clamped:    2,
	}

	s := Summarize(r)
	assert.Equal(t, 10, s.Width)
	assert.Equal(t, 3, s.Background)
	assert.Equal(t, 2, s.Clamped)
	assert.Equal(t, 0.0, s.Min)
	assert.InDelta(t, 9.9, s.Max, 1e-12)
	assert.InDelta(t, 4.95, s.Mean, 1e-12)
	assert.InDelta(t, 4.9, s.P50, 0.02)
	assert.InDelta(t, 8.9, s.P90, 0.02)
	assert.InDelta(t, 9.8, s.P99, 0.02)
	assert.InDelta(t, 0.6, s.Lights[0][0], 1e-12)
	assert.Contains(t, s.String(), "integrator path")
}
