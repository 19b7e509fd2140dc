// Package extract turns an optimizer's flat, hash-keyed parameter namespace
// into structured fit and path summaries. No lookup ever fails: missing
// values become NaN and missing uncertainties nil.
package extract

import (
	"fmt"
	"math"

	"github.com/kacperjurak/goexafs/pkg/fit"
)

// Kind is a per-path quantity published by the optimizer.
type Kind int

const (
	Amplitude Kind = iota
	EnergyShift
	DistanceShift
	MeanSquareDisplacement
)

var kinds = []Kind{Amplitude, EnergyShift, DistanceShift, MeanSquareDisplacement}

// Prefix returns the name prefix the optimizer uses for the kind.
func (k Kind) Prefix() string {
	switch k {
	case Amplitude:
		return "s02"
	case EnergyShift:
		return "e0"
	case DistanceShift:
		return "deltar"
	case MeanSquareDisplacement:
		return "sigma2"
	default:
		return fmt.Sprintf("kind%d", int(k))
	}
}

// Key addresses one value in the index. A key with empty Dataset and Path
// addresses a bare global parameter.
type Key struct {
	Dataset string
	Path    string
	Kind    Kind
}

// Name composes the flat parameter name for the key.
func (k Key) Name() string {
	if k.Dataset == "" && k.Path == "" {
		return k.Kind.Prefix()
	}
	return fmt.Sprintf("%s_%s_%s", k.Kind.Prefix(), k.Dataset, k.Path)
}

// Index is a typed view over a result's parameter store, built once per
// result and read-only afterwards.
type Index struct {
	values  map[Key]fit.Estimate
	missing []string
}

// NewIndex probes every name the dataset should have published and records
// what is present and what is missing.
func NewIndex(res fit.Result, ds fit.DatasetInfo) *Index {
	ix := &Index{values: make(map[Key]fit.Estimate)}
	probe := func(k Key) {
		if e, ok := res.Param(k.Name()); ok {
			ix.values[k] = e
			return
		}
		ix.missing = append(ix.missing, k.Name())
	}

	for _, p := range ds.Paths {
		if p.Hashkey == "" || ds.Hashkey == "" {
			continue
		}
		for _, kind := range kinds {
			probe(Key{Dataset: ds.Hashkey, Path: p.Hashkey, Kind: kind})
		}
	}

	// bare e0 is the optimizer's own variable; its absence is not a defect
	global := Key{Kind: EnergyShift}
	if e, ok := res.Param(global.Name()); ok {
		ix.values[global] = e
	}
	return ix
}

// Lookup returns the estimate stored under k.
func (ix *Index) Lookup(k Key) (fit.Estimate, bool) {
	e, ok := ix.values[k]
	return e, ok
}

// Value returns the value and uncertainty under k, or (NaN, nil).
func (ix *Index) Value(k Key) (float64, *float64) {
	e, ok := ix.values[k]
	if !ok {
		return math.NaN(), nil
	}
	return e.Value, copyFloat(e.Stderr)
}

// Missing lists the probed names that were absent, in probe order.
func (ix *Index) Missing() []string {
	out := make([]string, len(ix.missing))
	copy(out, ix.missing)
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
