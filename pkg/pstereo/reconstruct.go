package pstereo

import(
	"fmt"
	"image"
	"log"
	"time"

	"github.com/abworrall/photostereo/pkg/emath"
)

// A Result is everything a reconstruction produced. It is a plain value,
// handed back to the caller to save or display.
type Result struct {
	Lights      LightMatrix
	Normals     *NormalField
	Height      emath.FloatGrid
	Integrator  string

	Clamped     int  // slopes the integrator clamped to zero
	Elapsed     time.Duration
}

func (r *Result)String() string {
	return fmt.Sprintf("Result[%s, %s, %d clamped, %s]", r.Integrator, r.Normals, r.Clamped, r.Elapsed)
}

// Reconstruct runs the whole pipeline: light directions from the four
// sphere images, a normal per pixel from the four object images, and
// finally the height field via the integrator named in the config.
// Sphere image i and object image i must have been lit by the same light.
func Reconstruct(cfg Config, spheres, objects [4]*image.Gray) (*Result, error) {
	tStart := time.Now()

	integrator, err := cfg.GetIntegrator()
	if err != nil {
		return nil, err
	}

	lm, err := EstimateLightMatrix(spheres, cfg.MaxConditionNumber)
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}
	if cfg.Verbosity > 0 {
		log.Printf("estimated lights: %s\n", lm)
	}

	nf, err := BuildNormalField(cfg, lm, objects)
	if err != nil {
		return nil, fmt.Errorf("normals: %w", err)
	}
	if cfg.Verbosity > 0 {
		log.Printf("built %s\n", nf)
	}

	h, nClamped, err := integrator.Integrate(nf)
	if err != nil {
		return nil, fmt.Errorf("%s integration: %w", integrator.Name(), err)
	}

	r := &Result{
		Lights:     lm,
		Normals:    nf,
		Height:     h,
		Integrator: integrator.Name(),
		Clamped:    nClamped,
		Elapsed:    time.Since(tStart),
	}

	if cfg.Verbosity > 0 {
		log.Printf("%s, heights %s\n", r, h.Stats())
	}

	return r, nil
}
