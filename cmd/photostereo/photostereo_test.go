package main

import(
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsProfileOnError(t *testing.T) {
	dir := t.TempDir()
	fProfile, fOutputDir = "cpu", dir
	fSpheres, fObjects = filepath.Join(dir, "missing.png"), filepath.Join(dir, "missing.png")
	defer func() { fProfile, fOutputDir, fSpheres, fObjects = "", ".", "", "" }()

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading spheres")

	info, err := os.Stat(filepath.Join(dir, "cpu.pprof"))
	require.NoError(t, err, "the profile is flushed even though run failed")
	assert.NotZero(t, info.Size())
}

func TestRunArgs(t *testing.T) {
	assert.Error(t, run(), "no inputs")

	fSpheres, fObjects, fProfile = "s.png", "o.png", "bogus"
	defer func() { fSpheres, fObjects, fProfile = "", "", "" }()
	assert.Error(t, run())
}
