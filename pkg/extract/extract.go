package extract

import (
	"math"

	"go.uber.org/zap"

	"github.com/kacperjurak/goexafs/pkg/fit"
	"github.com/kacperjurak/goexafs/pkg/models"
)

// Options holds configuration for creating an Extractor.
type Options struct {
	Logger *zap.Logger
}

// Extractor builds summaries from optimizer results.
type Extractor struct {
	logger *zap.Logger
}

// New creates a new extractor.
func New(opts Options) *Extractor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Extractor{logger: opts.Logger}
}

// Extract reads the fit statistics and the per-path parameters of the first
// dataset. Path summaries follow the order of paths.
//
// Amplitude and energy shift are read from the first bound path only; the
// optimizer publishes the same value for every path of a dataset.
func (x *Extractor) Extract(res fit.Result, paths []models.BoundPath) (models.FittedSummary, []models.PathSummary) {
	if res == nil {
		res = &fit.RawResult{}
	}

	var ds fit.DatasetInfo
	if sets := res.Datasets(); len(sets) > 0 {
		ds = sets[0]
	}
	ix := NewIndex(res, ds)
	if missing := ix.Missing(); len(missing) > 0 {
		x.logger.Warn("result is missing parameters",
			zap.Int("count", len(missing)),
			zap.Strings("names", missing))
	}

	hashes := make(map[string]string, len(ds.Paths))
	for _, p := range ds.Paths {
		hashes[p.Label] = p.Hashkey
	}
	pathKey := func(bp models.BoundPath, kind Kind) (Key, bool) {
		h, ok := hashes[bp.Key]
		if !ok || h == "" || ds.Hashkey == "" {
			return Key{}, false
		}
		return Key{Dataset: ds.Hashkey, Path: h, Kind: kind}, true
	}

	fitted := fittedStats(res, ds)
	fitted.Amplitude, fitted.AmplitudeUncertainty = math.NaN(), nil
	fitted.EnergyShift, fitted.EnergyShiftUncertainty = ix.Value(Key{Kind: EnergyShift})
	if len(paths) > 0 {
		if k, ok := pathKey(paths[0], Amplitude); ok {
			fitted.Amplitude, fitted.AmplitudeUncertainty = ix.Value(k)
		}
		if k, ok := pathKey(paths[0], EnergyShift); ok {
			if _, found := ix.Lookup(k); found {
				fitted.EnergyShift, fitted.EnergyShiftUncertainty = ix.Value(k)
			}
		}
	}

	summaries := make([]models.PathSummary, len(paths))
	for i, bp := range paths {
		reff := bp.Path.EffectiveLength
		s := models.PathSummary{
			Label:                  bp.Key,
			DistanceShift:          math.NaN(),
			Distance:               reff,
			MeanSquareDisplacement: math.NaN(),
		}
		if k, ok := pathKey(bp, DistanceShift); ok {
			s.DistanceShift, s.DistanceShiftUncertainty = ix.Value(k)
			// a missing shift counts as zero in the distance, unlike every other field
			if e, found := ix.Lookup(k); found {
				s.Distance = reff + e.Value
			}
		}
		if k, ok := pathKey(bp, MeanSquareDisplacement); ok {
			s.MeanSquareDisplacement, s.MeanSquareDisplacementUncertainty = ix.Value(k)
		}
		summaries[i] = s
	}

	return fitted, summaries
}

// Report runs Extract and wraps the summaries.
func (x *Extractor) Report(res fit.Result, paths []models.BoundPath) models.Report {
	fitted, summaries := x.Extract(res, paths)
	return models.Report{Fitted: fitted, Paths: summaries}
}

func fittedStats(res fit.Result, ds fit.DatasetInfo) models.FittedSummary {
	nan := math.NaN()
	s := models.FittedSummary{
		KMin: nan, KMax: nan, RMin: nan, RMax: nan,
		ReducedChiSquare: nan,
		RFactor:          nan,
	}
	if n, ok := res.VariableCount(); ok {
		s.VariableCount = &n
	}
	if tr := ds.Transform; tr != nil {
		s.KMin, s.KMax, s.RMin, s.RMax = tr.KMin, tr.KMax, tr.RMin, tr.RMax
	}
	if v, ok := res.ReducedChiSquare(); ok {
		s.ReducedChiSquare = v
	}
	if v, ok := res.RFactor(); ok {
		s.RFactor = v
	}
	return s
}
