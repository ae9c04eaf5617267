package pstereo

import(
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"
)

/* Example config file ...

integrator: spectral
gradientclamp: 12
transformsize: 512
lambda: 1
mu1: 0
mu2: 2
displayrange: 20
maskbackground: true
backgroundlevel: 4

*/

type Config struct {
	Verbosity               int

	Integrator              string   // "spectral", "path" or "poisson"
	GradientClamp           float64  // slopes with a bigger magnitude than this are unreliable
	RejectUnstableGradients bool     // fail on an unreliable slope, instead of zeroing it

	// The spectral integrator
	TransformSize           int      // side of the square transform; 0 means derive from the image
	Lambda                  float64
	Mu1                     float64
	Mu2                     float64
	DisplayRange            float64  // rescale heights onto [0,DisplayRange]; 0 leaves them alone

	// The normal solver
	MaxConditionNumber      float64  // for L.Lt; above this the lights are considered coplanar
	MinNormalMagnitude      float64  // solved vectors shorter than this can't be normalized
	MaskBackground          bool     // pixels dark in all four images get a flat normal, not an error
	BackgroundLevel         uint8    // "dark" means no brighter than this

	Workers                 int      // goroutines for per-row work; 0 means one per CPU
}

func NewConfig() Config {
	return Config{
		Integrator:         "spectral",
		GradientClamp:      12.0,
		TransformSize:      512,
		Lambda:             1.0,
		Mu1:                0.0,
		Mu2:                2.0,
		DisplayRange:       20.0,
		MaxConditionNumber: 1e12,
		MinNormalMagnitude: 1e-12,
	}
}

// NewConfigFromYaml parses yaml on top of the defaults, so a config file
// only needs to mention what it changes.
func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func LoadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	c, err := NewConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config parse %s: %w", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Validate does sanity checks on values that would otherwise produce
// garbage much later on.
func (c Config)Validate() error {
	if _, err := c.GetIntegrator(); err != nil {
		return err
	}
	if c.GradientClamp <= 0 {
		return fmt.Errorf("gradientclamp must be positive, got %f", c.GradientClamp)
	}
	if c.TransformSize < 0 {
		return fmt.Errorf("transformsize must not be negative, got %d", c.TransformSize)
	}
	if c.DisplayRange < 0 {
		return fmt.Errorf("displayrange must not be negative, got %f", c.DisplayRange)
	}
	if c.MaxConditionNumber <= 1 {
		return fmt.Errorf("maxconditionnumber must be > 1, got %g", c.MaxConditionNumber)
	}
	return nil
}

// GetIntegrator returns the integration strategy named in the config.
func (c Config)GetIntegrator() (Integrator, error) {
	switch c.Integrator {
	case "spectral", "":
		return SpectralIntegrator{
			TransformSize: c.TransformSize,
			Lambda:        c.Lambda,
			Mu1:           c.Mu1,
			Mu2:           c.Mu2,
			DisplayRange:  c.DisplayRange,
			Gradients:     c.Gradients(),
			Workers:       c.Workers,
			Verbosity:     c.Verbosity,
		}, nil
	case "path":
		return PathIntegrator{Gradients: c.Gradients()}, nil
	case "poisson":
		return PoissonIntegrator{Gradients: c.Gradients(), Workers: c.Workers, Verbosity: c.Verbosity}, nil
	default:
		return nil, fmt.Errorf("%w %q, wanted one of %v", ErrUnknownIntegrator, c.Integrator, Integrators)
	}
}

// Gradients is the slope policy every integrator built from this config
// uses.
func (c Config)Gradients() GradientPolicy {
	return GradientPolicy{Clamp: c.GradientClamp, Reject: c.RejectUnstableGradients}
}
