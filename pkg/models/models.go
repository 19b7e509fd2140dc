package models

import "fmt"

// ScatteringPath represents one path row of a FEFF run directory after its
// data file has been resolved.
type ScatteringPath struct {
	Index           int
	AmplitudeRatio  float64 // curved-wave amplitude ratio, percent
	EffectiveLength float64 // half path length, angstrom
	Degeneracy      float64
	LegCount        int
	BondLabel       string // "El0-El1" or empty
	File            string
}

// Key returns the catalog key of the path.
func (p ScatteringPath) Key() string {
	return PathKey(p.Index)
}

// PathKey builds the catalog key for a manifest index.
func PathKey(index int) string {
	return fmt.Sprintf("path%d", index)
}

// Symbolic expressions attached to every bound path. They are evaluated by
// the optimizer, never by the binder.
const (
	ExprAmplitude   = "amp"
	ExprEnergyShift = "e0"
	ExprDeltaR      = "alpha * reff"
	ExprSigma2      = "sigma2_4"
)

// PathExpressions maps path quantities onto expressions over the shared
// fit parameters.
type PathExpressions struct {
	S02    string
	E0     string
	DeltaR string
	Sigma2 string
}

// DefaultExpressions returns the fixed mapping used for every path.
func DefaultExpressions() PathExpressions {
	return PathExpressions{
		S02:    ExprAmplitude,
		E0:     ExprEnergyShift,
		DeltaR: ExprDeltaR,
		Sigma2: ExprSigma2,
	}
}

// BoundPath pairs a catalog record with its parameter expressions.
type BoundPath struct {
	Key  string
	Path ScatteringPath
	Expr PathExpressions
}

// Spectrum is a background-subtracted chi(k) measurement.
type Spectrum struct {
	Name string
	K    []float64
	Chi  []float64
}

// Len returns the number of points in the spectrum.
func (s Spectrum) Len() int {
	return len(s.K)
}

// Dataset groups the inputs of one fit dataset.
type Dataset struct {
	Spectrum  Spectrum
	Transform TransformConfig
	Paths     []BoundPath
}

// Report is the extracted outcome of one pipeline invocation.
type Report struct {
	RequestID   string        `json:"request_id,omitempty"`
	RunDir      string        `json:"run_dir,omitempty"`
	CatalogSize int           `json:"catalog_size"`
	Skipped     int           `json:"skipped_paths"`
	Fitted      FittedSummary `json:"fitted_parameter"`
	Paths       []PathSummary `json:"path_parameter"`
}
