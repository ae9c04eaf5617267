package pstereo

import(
	"errors"
	"image"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/photostereo/pkg/emath"
)

// objectImages renders the four Lambertian views, i = albedo * n.l, of a
// w x h surface whose normals are given row-major.
func objectImages(w, h int, normals []emath.Vec3, lights [4]emath.Vec3, albedo float64) [4]*image.Gray {
	images := [4]*image.Gray{}
	for k := range images {
		images[k] = image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				val := math.Max(0, albedo*normals[y*w+x].Dot(lights[k]))
				images[k].Pix[images[k].PixOffset(x, y)] = uint8(math.Round(val))
			}
		}
	}
	return images
}

func uniformImages(w, h int, val uint8) [4]*image.Gray {
	images := [4]*image.Gray{}
	for k := range images {
		images[k] = image.NewGray(image.Rect(0, 0, w, h))
		for i := range images[k].Pix {
			images[k].Pix[i] = val
		}
	}
	return images
}

func testLightMatrix(t *testing.T) LightMatrix {
	lm, err := NewLightMatrix(testLights, 1e12)
	require.NoError(t, err)
	return lm
}

func TestSolveNormalBasisLights(t *testing.T) {
	for _, scale := range []float64{1, 2} {
		dirs := [4]emath.Vec3{{scale, 0, 0}, {0, scale, 0}, {0, 0, scale}, {}}
		lm, err := NewLightMatrix(dirs, 1e12)
		require.NoError(t, err)

		n, err := SolveNormal(lm, [4]float64{30, 40, 120, 0}, 1e-12)
		require.NoError(t, err)
		want := emath.Vec3{30, 40, 120}.Normalize()
		assert.Empty(t, cmp.Diff(want, n, cmpopts.EquateApprox(0, 1e-12)), "scale %v", scale)
	}
}

func TestSolveNormalDegenerate(t *testing.T) {
	_, err := SolveNormal(testLightMatrix(t), [4]float64{}, 1e-12)
	assert.True(t, errors.Is(err, ErrDegenerateNormal))
}

func TestBuildNormalFieldRecoversNormals(t *testing.T) {
	want := []emath.Vec3{
		{0, 0, 1}, {0.6, 0, 0.8},
		{-0.6, 0, 0.8}, {0, 0.6, 0.8},
	}
	lm, err := EstimateLightMatrix(testSpheres(), 1e12)
	require.NoError(t, err)

	nf, err := BuildNormalField(NewConfig(), lm, objectImages(2, 2, want, testLights, 250))
	require.NoError(t, err)
	require.Equal(t, 2, nf.Width)
	require.Equal(t, 2, nf.Height)
	assert.Empty(t, cmp.Diff(want, nf.Normals, cmpopts.EquateApprox(0, 1e-6)))
	assert.Equal(t, 0, nf.Background)

	for _, n := range nf.Normals {
		assert.InDelta(t, 1.0, n.Norm(), 1e-12)
	}
}

func TestBuildNormalFieldWorkersAgree(t *testing.T) {
	const w, h = 17, 13
	normals := make([]emath.Vec3, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			normals[y*w+x] = emath.Vec3{float64(x-w/2) / 40, float64(y-h/2) / 40, 1}.Normalize()
		}
	}
	lm := testLightMatrix(t)
	images := objectImages(w, h, normals, testLights, 200)

	cfg := NewConfig()
	cfg.Workers = 1
	serial, err := BuildNormalField(cfg, lm, images)
	require.NoError(t, err)

	cfg.Workers = 8
	parallel, err := BuildNormalField(cfg, lm, images)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(serial, parallel))
}

func TestBuildNormalFieldMismatchedDimensions(t *testing.T) {
	images := uniformImages(4, 3, 100)
	images[3] = image.NewGray(image.Rect(0, 0, 3, 4))

	nf, err := BuildNormalField(NewConfig(), testLightMatrix(t), images)
	assert.Nil(t, nf)
	assert.True(t, errors.Is(err, ErrMismatchedImageDimensions))

	var imgErr *ImageError
	require.True(t, errors.As(err, &imgErr))
	assert.Equal(t, 3, imgErr.Index)

	images[3] = nil
	_, err = BuildNormalField(NewConfig(), testLightMatrix(t), images)
	assert.True(t, errors.Is(err, ErrMismatchedImageDimensions))
}

func TestBuildNormalFieldDegeneratePixel(t *testing.T) {
	images := uniformImages(3, 3, 100)
	for _, img := range images {
		img.Pix[img.PixOffset(2, 1)] = 0
		img.Pix[img.PixOffset(0, 2)] = 0
	}

	nf, err := BuildNormalField(NewConfig(), testLightMatrix(t), images)
	assert.Nil(t, nf)
	assert.True(t, errors.Is(err, ErrDegenerateNormal))

	// The first bad pixel in row order is the one reported
	var pixErr *PixelError
	require.True(t, errors.As(err, &pixErr))
	assert.Equal(t, 2, pixErr.X)
	assert.Equal(t, 1, pixErr.Y)
}

func TestBuildNormalFieldMasksBackground(t *testing.T) {
	images := uniformImages(3, 3, 100)
	for k, img := range images {
		img.Pix[img.PixOffset(2, 1)] = uint8(k) // 0..3, all dark
	}

	cfg := NewConfig()
	cfg.MaskBackground = true
	cfg.BackgroundLevel = 3

	nf, err := BuildNormalField(cfg, testLightMatrix(t), images)
	require.NoError(t, err)
	assert.Equal(t, 1, nf.Background)
	assert.Equal(t, emath.Vec3{0, 0, 1}, nf.At(2, 1))

	cfg.BackgroundLevel = 2
	_, err = BuildNormalField(cfg, testLightMatrix(t), images)
	assert.NoError(t, err, "a pixel lit at 3 still solves, just not as background")
}

func TestNormalFieldIndex(t *testing.T) {
	nf := NewNormalField(3, 2)
	nf.Set(2, 1, emath.Vec3{1, 2, 3})
	assert.Equal(t, 5, nf.Index(2, 1))
	assert.Equal(t, emath.Vec3{1, 2, 3}, nf.Normals[5])
	assert.Panics(t, func() { nf.At(3, 0) })
	assert.Panics(t, func() { nf.At(0, -1) })
}
