package main

import(
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"

	"github.com/abworrall/photostereo/pkg/psio"
	"github.com/abworrall/photostereo/pkg/pstereo"
)

var(
	fVerbosity int
	fConfigFile string
	fSpheres string
	fObjects string
	fIntegrator string
	fOutputDir string
	fMaskBackground bool
	fStrictGradients bool
	fWorkers int
	fProfile string
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fConfigFile, "config", "", "yaml config file; flags override it")
	flag.StringVar(&fSpheres, "spheres", "", "calibration sphere images: one strip, or four files/a dir, comma separated")
	flag.StringVar(&fObjects, "objects", "", "object images: one strip, or four files/a dir, comma separated")
	flag.StringVar(&fIntegrator, "integrator", "", "how to integrate normals into heights: "+strings.Join(pstereo.Integrators, ", "))
	flag.StringVar(&fOutputDir, "o", ".", "dir to write results into")
	flag.BoolVar(&fMaskBackground, "mask", false, "treat pixels dark in all four object images as flat background")
	flag.BoolVar(&fStrictGradients, "strict", false, "fail on near-grazing normals, instead of clamping their slopes")
	flag.IntVar(&fWorkers, "workers", 0, "goroutines for per-row work (0 means one per CPU)")
	flag.StringVar(&fProfile, "profile", "", "write a profile into the output dir: cpu, mem")
}

func loadConfig() (pstereo.Config, error) {
	cfg := pstereo.NewConfig()
	if fConfigFile != "" {
		c, err := pstereo.LoadConfig(fConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}

	// Override the config file with command line args, if relevant
	if fIntegrator != "" { cfg.Integrator = fIntegrator }
	if fWorkers > 0 { cfg.Workers = fWorkers }
	if fVerbosity > 0 { cfg.Verbosity = fVerbosity }
	if fMaskBackground { cfg.MaskBackground = true }
	if fStrictGradients { cfg.RejectUnstableGradients = true }

	return cfg, cfg.Validate()
}

func checkExposures(set string, paths []string) {
	files, err := psio.ExpandPaths(paths...)
	if err != nil {
		return // LoadSet will complain
	}
	exposures, _, err := psio.CheckExposures(files...)
	if err != nil {
		log.Printf("WARNING %s: %v\n", set, err)
	} else if len(exposures) > 0 {
		log.Printf("%s: exposure %s\n", set, exposures[0])
	}
}

func main() {
	flag.Parse()
	log.Printf("photostereo starting\n")

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run does all the work, so that deferred calls (the profiler's Stop)
// happen before main exits.
func run() error {
	if fSpheres == "" || fObjects == "" {
		return fmt.Errorf("need both -spheres and -objects")
	}

	switch fProfile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(fOutputDir)).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(fOutputDir)).Stop()
	default:
		return fmt.Errorf("profile '%s' not known, wanted cpu or mem", fProfile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	spherePaths := strings.Split(fSpheres, ",")
	objectPaths := strings.Split(fObjects, ",")
	checkExposures("objects", objectPaths)

	spheres, err := psio.LoadSet(spherePaths...)
	if err != nil {
		return fmt.Errorf("loading spheres: %w", err)
	}
	objects, err := psio.LoadSet(objectPaths...)
	if err != nil {
		return fmt.Errorf("loading objects: %w", err)
	}

	result, err := pstereo.Reconstruct(cfg, spheres, objects)
	if err != nil {
		return fmt.Errorf("reconstruction failed: %w", err)
	}

	log.Printf("%s", psio.Summarize(result))

	if err := os.MkdirAll(fOutputDir, 0755); err != nil {
		return err
	}
	out := func(name string) string { return filepath.Join(fOutputDir, name) }

	writers := []struct{ name string; write func(string) error }{
		{"result.txt",       func(f string) error { return psio.WriteHeightText(result.Height, f) }},
		{"height.png",       func(f string) error { return psio.WriteHeightPNG(result.Height, result.Integrator, f) }},
		{"height16.png",     func(f string) error { return psio.WriteHeightGray16(result.Height, f) }},
		{"height-color.png", func(f string) error { return psio.WriteHeightColorPNG(result.Height, f) }},
		{"height.hdr",       func(f string) error { return psio.WriteHeightHDR(result.Height, f) }},
		{"normals.png",      func(f string) error { return psio.WriteNormalPNG(result.Normals, f) }},
		{"normals.hdr",      func(f string) error { return psio.WriteNormalHDR(result.Normals, f) }},
	}
	for _, w := range writers {
		if err := w.write(out(w.name)); err != nil {
			return fmt.Errorf("writing %s: %w", w.name, err)
		}
		log.Printf("output file written '%s'\n", out(w.name))
	}

	if cfg.Verbosity > 1 {
		if err := psio.WriteGradientPNGs(result.Normals, cfg.Gradients(), fOutputDir); err != nil {
			return fmt.Errorf("writing gradients: %w", err)
		}
		log.Printf("gradient planes written to '%s'\n", fOutputDir)
	}

	return nil
}
