package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kacperjurak/goexafs"
	"github.com/kacperjurak/goexafs/pkg/feff"
	"github.com/kacperjurak/goexafs/pkg/models"
)

// FloatList is a repeatable or comma separated float flag.
type FloatList []float64

func (a *FloatList) String() string {
	parts := make([]string, len(*a))
	for i, v := range *a {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (a *FloatList) Set(value string) error {
	for _, s := range strings.Split(value, ",") {
		val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		*a = append(*a, val)
	}
	return nil
}

func (a *FloatList) Type() string {
	return "floats"
}

// Filters bound the paths accepted from the manifest. Nil means no bound.
type Filters struct {
	MinAmplitudeRatio  *float64 `yaml:"min_amp_ratio,omitempty"`
	MaxEffectiveLength *float64 `yaml:"max_reff,omitempty"`
}

// ScanOptions converts the filters for the scanner.
func (f Filters) ScanOptions() feff.ScanOptions {
	return feff.ScanOptions{
		MinAmplitudeRatio:  f.MinAmplitudeRatio,
		MaxEffectiveLength: f.MaxEffectiveLength,
	}
}

// Config holds all configuration settings for one fit run
type Config struct {
	RunDir    string                 `yaml:"run_dir"`
	Spectrum  string                 `yaml:"spectrum"`
	Filters   Filters                `yaml:"filters"`
	Params    models.Guesses         `yaml:"params"`
	Transform models.TransformConfig `yaml:"transform"`
	Method    string                 `yaml:"method"`
	MaxIter   int                    `yaml:"max_iterations"`
	Output    string                 `yaml:"output,omitempty"`
	Format    string                 `yaml:"format"`
	Verbose   bool                   `yaml:"verbose"`
	Quiet     bool                   `yaml:"quiet"`
	Workers   int                    `yaml:"workers"`
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	minAmp, maxReff := 0.1, 5.0
	return &Config{
		Filters: Filters{MinAmplitudeRatio: &minAmp, MaxEffectiveLength: &maxReff},
		Params: models.Guesses{
			Amp:     0.8,
			E0:      0,
			Alpha:   0,
			Sigma2:  0.001,
			Sigma22: 0.001,
			Sigma24: 0.001,
		},
		Transform: models.DefaultTransform(),
		Method:    string(goexafs.MethodLM),
		MaxIter:   1000,
		Format:    FormatText,
		Workers:   4,
	}
}

// Load loads configuration from a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and normalizes enum fields.
func (c *Config) Validate() error {
	var errs []error
	if c.RunDir == "" {
		errs = append(errs, errors.New("run_dir is required"))
	}
	if c.Spectrum == "" {
		errs = append(errs, errors.New("spectrum is required"))
	}
	if f := c.Filters.MaxEffectiveLength; f != nil && *f <= 0 {
		errs = append(errs, fmt.Errorf("max_reff must be positive, got %g", *f))
	}
	if w, err := models.ParseWindow(string(c.Transform.Window)); err != nil {
		errs = append(errs, err)
	} else {
		c.Transform.Window = w
	}
	if err := c.Transform.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("transform: %w", err))
	}
	if m, err := goexafs.ParseMethod(c.Method); err != nil {
		errs = append(errs, err)
	} else {
		c.Method = string(m)
	}
	if _, err := models.NewParameterSet(c.Params); err != nil {
		errs = append(errs, fmt.Errorf("params: %w", err))
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Format))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// LoadBatch reads a batch file with a "defaults" mapping and a "runs" list.
// Each run starts from the batch defaults, which themselves start from
// DefaultConfig.
func LoadBatch(path string) ([]*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var raw struct {
		Defaults yaml.Node   `yaml:"defaults"`
		Runs     []yaml.Node `yaml:"runs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}
	if len(raw.Runs) == 0 {
		return nil, errors.New("batch has no runs")
	}

	base := DefaultConfig()
	if !raw.Defaults.IsZero() {
		if err := raw.Defaults.Decode(base); err != nil {
			return nil, fmt.Errorf("batch defaults: %w", err)
		}
	}

	runs := make([]*Config, len(raw.Runs))
	for i := range raw.Runs {
		cfg := base.clone()
		if err := raw.Runs[i].Decode(cfg); err != nil {
			return nil, fmt.Errorf("batch run %d: %w", i, err)
		}
		runs[i] = cfg
	}
	return runs, nil
}

func (c *Config) clone() *Config {
	out := *c
	if c.Filters.MinAmplitudeRatio != nil {
		v := *c.Filters.MinAmplitudeRatio
		out.Filters.MinAmplitudeRatio = &v
	}
	if c.Filters.MaxEffectiveLength != nil {
		v := *c.Filters.MaxEffectiveLength
		out.Filters.MaxEffectiveLength = &v
	}
	out.Params.Fixed = append([]string(nil), c.Params.Fixed...)
	out.Transform.KWeights = append([]float64(nil), c.Transform.KWeights...)
	return &out
}
