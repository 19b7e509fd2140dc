package models

import "fmt"

// Names of the shared fit parameters.
const (
	ParamAmp     = "amp"
	ParamE0      = "e0"
	ParamAlpha   = "alpha"
	ParamSigma2  = "sigma2"
	ParamSigma22 = "sigma2_2"
	ParamSigma24 = "sigma2_4"
)

// ParamNames lists the shared parameters in their canonical order.
var ParamNames = []string{ParamAmp, ParamE0, ParamAlpha, ParamSigma2, ParamSigma22, ParamSigma24}

// Param is one named scalar fit parameter.
type Param struct {
	Name  string
	Value float64
	Vary  bool
}

// Guesses holds caller-supplied initial values. Names listed in Fixed are
// held constant during the fit.
type Guesses struct {
	Amp     float64  `yaml:"amp" json:"amp"`
	E0      float64  `yaml:"e0" json:"e0"`
	Alpha   float64  `yaml:"alpha" json:"alpha"`
	Sigma2  float64  `yaml:"sigma2" json:"sigma2"`
	Sigma22 float64  `yaml:"sigma2_2" json:"sigma2_2"`
	Sigma24 float64  `yaml:"sigma2_4" json:"sigma2_4"`
	Fixed   []string `yaml:"fixed,omitempty" json:"fixed,omitempty"`
}

// ParameterSet is the per-request parameter group. It is never shared
// between requests.
type ParameterSet struct {
	params []Param
}

// NewParameterSet builds a fresh parameter set from initial guesses.
func NewParameterSet(g Guesses) (*ParameterSet, error) {
	fixed := make(map[string]bool, len(g.Fixed))
	for _, name := range g.Fixed {
		if !isParamName(name) {
			return nil, fmt.Errorf("unknown fixed parameter %q", name)
		}
		fixed[name] = true
	}

	values := []float64{g.Amp, g.E0, g.Alpha, g.Sigma2, g.Sigma22, g.Sigma24}
	ps := &ParameterSet{params: make([]Param, len(ParamNames))}
	for i, name := range ParamNames {
		ps.params[i] = Param{Name: name, Value: values[i], Vary: !fixed[name]}
	}
	return ps, nil
}

// Params returns a copy of the parameters in canonical order.
func (ps *ParameterSet) Params() []Param {
	out := make([]Param, len(ps.params))
	copy(out, ps.params)
	return out
}

// Get returns the named parameter.
func (ps *ParameterSet) Get(name string) (Param, bool) {
	for _, p := range ps.params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// VaryCount returns how many parameters are free.
func (ps *ParameterSet) VaryCount() int {
	n := 0
	for _, p := range ps.params {
		if p.Vary {
			n++
		}
	}
	return n
}

func isParamName(name string) bool {
	for _, n := range ParamNames {
		if n == name {
			return true
		}
	}
	return false
}
