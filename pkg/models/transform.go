package models

import (
	"errors"
	"fmt"
	"strings"
)

// Window names a taper applied to chi(k) before the fit.
type Window string

const (
	WindowHanning  Window = "hanning"
	WindowParzen   Window = "parzen"
	WindowWelch    Window = "welch"
	WindowSine     Window = "sine"
	WindowGaussian Window = "gaussian"
)

var windows = []Window{WindowHanning, WindowParzen, WindowWelch, WindowSine, WindowGaussian}

// ParseWindow resolves a window name case-insensitively.
func ParseWindow(name string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range windows {
		if w == known {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown window %q", name)
}

// TransformConfig describes the k/R ranges and weighting of a fit.
type TransformConfig struct {
	KMin     float64   `yaml:"kmin" json:"kmin"`
	KMax     float64   `yaml:"kmax" json:"kmax"`
	RMin     float64   `yaml:"rmin" json:"rmin"`
	RMax     float64   `yaml:"rmax" json:"rmax"`
	KWeights []float64 `yaml:"kweight" json:"kweight"`
	Dk       float64   `yaml:"dk" json:"dk"`
	Window   Window    `yaml:"window" json:"window"`
}

// DefaultTransform matches the transform the fitting scripts always used.
func DefaultTransform() TransformConfig {
	return TransformConfig{
		KMin:     3,
		KMax:     13,
		RMin:     1,
		RMax:     5,
		KWeights: []float64{1, 2, 3},
		Dk:       1,
		Window:   WindowHanning,
	}
}

// Validate checks range ordering and the window name.
func (t TransformConfig) Validate() error {
	if t.KMin < 0 || t.KMax <= t.KMin {
		return fmt.Errorf("invalid k range [%g, %g]", t.KMin, t.KMax)
	}
	if t.RMin < 0 || t.RMax <= t.RMin {
		return fmt.Errorf("invalid R range [%g, %g]", t.RMin, t.RMax)
	}
	if len(t.KWeights) == 0 {
		return errors.New("at least one k-weight is required")
	}
	if t.Dk < 0 {
		return fmt.Errorf("negative window width %g", t.Dk)
	}
	if _, err := ParseWindow(string(t.Window)); err != nil {
		return err
	}
	return nil
}
