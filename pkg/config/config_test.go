package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/goexafs/pkg/models"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.8, cfg.Params.Amp)
	assert.Equal(t, 0.001, cfg.Params.Sigma24)
	assert.Equal(t, models.DefaultTransform(), cfg.Transform)
	assert.Equal(t, "lm", cfg.Method)
	require.NotNil(t, cfg.Filters.MinAmplitudeRatio)
	assert.Equal(t, 0.1, *cfg.Filters.MinAmplitudeRatio)
	require.NotNil(t, cfg.Filters.MaxEffectiveLength)
	assert.Equal(t, 5.0, *cfg.Filters.MaxEffectiveLength)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "fit.yaml", `
run_dir: runs/nio
spectrum: data/nio.chik
filters:
  max_reff: 4.2
params:
  amp: 0.9
  fixed: [e0]
transform:
  kmax: 12
  kweight: [2]
  window: Kaiser
method: Nelder-Mead
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "runs/nio", cfg.RunDir)
	assert.Equal(t, 0.9, cfg.Params.Amp)
	assert.Equal(t, 0.001, cfg.Params.Sigma2)
	assert.Equal(t, []string{"e0"}, cfg.Params.Fixed)
	assert.Equal(t, 4.2, *cfg.Filters.MaxEffectiveLength)
	assert.Equal(t, 0.1, *cfg.Filters.MinAmplitudeRatio)
	assert.Equal(t, 3.0, cfg.Transform.KMin)
	assert.Equal(t, 12.0, cfg.Transform.KMax)
	assert.Equal(t, []float64{2}, cfg.Transform.KWeights)

	err = cfg.Validate()
	assert.ErrorContains(t, err, "unknown window")
}

func TestValidateNormalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunDir, cfg.Spectrum = "run", "chi.dat"
	cfg.Transform.Window = "Hanning"
	cfg.Method = "NM"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, models.WindowHanning, cfg.Transform.Window)
	assert.Equal(t, "nelder-mead", cfg.Method)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transform.KMax = 1
	cfg.Params.Fixed = []string{"theta"}
	cfg.Format = "xml"
	cfg.Workers = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"run_dir", "spectrum", "k range", "theta", "xml", "workers"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "bad.yaml", "params: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoadBatch(t *testing.T) {
	path := writeFile(t, "batch.yaml", `
defaults:
  spectrum: data/nio.chik
  transform:
    kweight: [2]
runs:
  - run_dir: runs/a
  - run_dir: runs/b
    transform:
      kweight: [1, 3]
    filters:
      max_reff: 3.5
`)
	runs, err := LoadBatch(path)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "runs/a", runs[0].RunDir)
	assert.Equal(t, "data/nio.chik", runs[0].Spectrum)
	assert.Equal(t, []float64{2}, runs[0].Transform.KWeights)
	assert.Equal(t, 5.0, *runs[0].Filters.MaxEffectiveLength)

	assert.Equal(t, "data/nio.chik", runs[1].Spectrum)
	assert.Equal(t, []float64{1, 3}, runs[1].Transform.KWeights)
	assert.Equal(t, 3.5, *runs[1].Filters.MaxEffectiveLength)
}

func TestLoadBatchEmpty(t *testing.T) {
	_, err := LoadBatch(writeFile(t, "batch.yaml", "defaults:\n  spectrum: x\n"))
	assert.ErrorContains(t, err, "no runs")
}

func TestFloatList(t *testing.T) {
	var fl FloatList
	var _ pflag.Value = &fl
	require.NoError(t, fl.Set("1,2"))
	require.NoError(t, fl.Set("3"))
	assert.Equal(t, FloatList{1, 2, 3}, fl)
	assert.Equal(t, "[1,2,3]", fl.String())
	assert.Equal(t, "floats", fl.Type())
	assert.Error(t, fl.Set("x"))
}
