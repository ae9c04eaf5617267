package pstereo

import(
	"errors"
	"fmt"
)

var(
	// ErrDegenerateCalibrationImage: a sphere image with no lit pixels,
	// no apparent radius, or a highlight that falls outside the sphere.
	ErrDegenerateCalibrationImage = errors.New("degenerate calibration image")

	// ErrMismatchedImageDimensions: the object images are not all the same size.
	ErrMismatchedImageDimensions  = errors.New("mismatched image dimensions")

	// ErrIllConditionedLighting: L.Lt can't be inverted (lights coplanar or duplicated).
	ErrIllConditionedLighting     = errors.New("ill-conditioned lighting")

	// ErrDegenerateNormal: the solved vector is too close to zero to normalize.
	ErrDegenerateNormal           = errors.New("degenerate normal")

	// ErrUnstableGradient: a slope is beyond the clamp threshold. Normally
	// such slopes are clamped to zero; this is only returned in strict mode.
	ErrUnstableGradient           = errors.New("unstable gradient")

	// ErrTransformSizeExceeded: the image doesn't fit in the spectral transform.
	ErrTransformSizeExceeded      = errors.New("transform size exceeded")

	ErrFieldTooSmall              = errors.New("normal field too small")
	ErrUnknownIntegrator          = errors.New("unknown integrator")
)

// A PixelError locates a failure at a pixel.
type PixelError struct {
	X, Y int
	Err  error
}

func (e *PixelError)Error() string { return fmt.Sprintf("pixel (%d,%d): %v", e.X, e.Y, e.Err) }
func (e *PixelError)Unwrap() error { return e.Err }

// An ImageError locates a failure in one of the four images of a set.
type ImageError struct {
	Index int
	Err   error
}

func (e *ImageError)Error() string { return fmt.Sprintf("image %d: %v", e.Index, e.Err) }
func (e *ImageError)Unwrap() error { return e.Err }
