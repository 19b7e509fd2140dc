package fit

// Estimate is a fitted value with an optional standard error.
type Estimate struct {
	Value  float64
	Stderr *float64
}

// Bounds are the k and R ranges an optimizer actually used for a dataset.
type Bounds struct {
	KMin, KMax float64
	RMin, RMax float64
}

// PathInfo identifies one path inside a fitted dataset. Hashkey is only
// meaningful within the fit call that produced it.
type PathInfo struct {
	Label   string
	Hashkey string
}

// DatasetInfo describes one fitted dataset.
type DatasetInfo struct {
	Hashkey   string
	Transform *Bounds
	Paths     []PathInfo
}

// Result is the part of an optimizer's output the extractor depends on.
// Parameter names are composed by the optimizer; see the extract package.
type Result interface {
	VariableCount() (int, bool)
	ReducedChiSquare() (float64, bool)
	RFactor() (float64, bool)
	Datasets() []DatasetInfo
	Param(name string) (Estimate, bool)
}

// RawResult is a map-backed Result. Optimizer adapters produce it at the
// executor boundary.
type RawResult struct {
	NVarys        *int
	ChiSqrReduced *float64
	RFact         *float64
	Sets          []DatasetInfo
	Params        map[string]Estimate
}

var _ Result = (*RawResult)(nil)

func (r *RawResult) VariableCount() (int, bool) {
	if r.NVarys == nil {
		return 0, false
	}
	return *r.NVarys, true
}

func (r *RawResult) ReducedChiSquare() (float64, bool) {
	if r.ChiSqrReduced == nil {
		return 0, false
	}
	return *r.ChiSqrReduced, true
}

func (r *RawResult) RFactor() (float64, bool) {
	if r.RFact == nil {
		return 0, false
	}
	return *r.RFact, true
}

func (r *RawResult) Datasets() []DatasetInfo {
	return r.Sets
}

func (r *RawResult) Param(name string) (Estimate, bool) {
	e, ok := r.Params[name]
	return e, ok
}
