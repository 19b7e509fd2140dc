package extract

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/goexafs/pkg/fit"
	"github.com/kacperjurak/goexafs/pkg/models"
)

func f(v float64) *float64 { return &v }

func boundPath(index int, reff float64) models.BoundPath {
	p := models.ScatteringPath{Index: index, EffectiveLength: reff}
	return models.BoundPath{Key: p.Key(), Path: p, Expr: models.DefaultExpressions()}
}

func dataset(paths ...string) fit.DatasetInfo {
	ds := fit.DatasetInfo{Hashkey: "HASHA"}
	for i, label := range paths {
		ds.Paths = append(ds.Paths, fit.PathInfo{Label: label, Hashkey: []string{"HASHB", "PATH2", "PATH3"}[i]})
	}
	return ds
}

func TestKey_Name(t *testing.T) {
	assert.Equal(t, "s02_HASHA_HASHB", Key{Dataset: "HASHA", Path: "HASHB", Kind: Amplitude}.Name())
	assert.Equal(t, "deltar_d1_p1", Key{Dataset: "d1", Path: "p1", Kind: DistanceShift}.Name())
	assert.Equal(t, "sigma2_d1_p1", Key{Dataset: "d1", Path: "p1", Kind: MeanSquareDisplacement}.Name())
	assert.Equal(t, "e0", Key{Kind: EnergyShift}.Name())
}

func TestIndex_MissingAndLookup(t *testing.T) {
	res := &fit.RawResult{Params: map[string]fit.Estimate{
		"s02_HASHA_HASHB": {Value: 0.83},
	}}
	ix := NewIndex(res, dataset("path1"))

	v, stderr := ix.Value(Key{Dataset: "HASHA", Path: "HASHB", Kind: Amplitude})
	assert.Equal(t, 0.83, v)
	assert.Nil(t, stderr)

	v, stderr = ix.Value(Key{Dataset: "HASHA", Path: "HASHB", Kind: DistanceShift})
	assert.True(t, math.IsNaN(v))
	assert.Nil(t, stderr)

	assert.Equal(t, []string{"e0_HASHA_HASHB", "deltar_HASHA_HASHB", "sigma2_HASHA_HASHB"}, ix.Missing())
}

func TestIndex_ValueCopiesStderr(t *testing.T) {
	res := &fit.RawResult{Params: map[string]fit.Estimate{
		"sigma2_HASHA_HASHB": {Value: 0.004, Stderr: f(0.001)},
	}}
	ix := NewIndex(res, dataset("path1"))
	k := Key{Dataset: "HASHA", Path: "HASHB", Kind: MeanSquareDisplacement}

	_, stderr := ix.Value(k)
	require.NotNil(t, stderr)
	*stderr = 99

	_, again := ix.Value(k)
	assert.Equal(t, 0.001, *again)
}

func TestExtract_ScenarioB(t *testing.T) {
	res := &fit.RawResult{
		Sets: []fit.DatasetInfo{dataset("path1")},
		Params: map[string]fit.Estimate{
			"s02_HASHA_HASHB": {Value: 0.83},
		},
	}

	fitted, _ := New(Options{}).Extract(res, []models.BoundPath{boundPath(1, 2.49)})

	assert.Equal(t, 0.83, fitted.Amplitude)
	assert.Nil(t, fitted.AmplitudeUncertainty)
	assert.True(t, math.IsNaN(fitted.EnergyShift))
	assert.Nil(t, fitted.EnergyShiftUncertainty)
}

func TestExtract_ScenarioC(t *testing.T) {
	ds := fit.DatasetInfo{Hashkey: "HASHA", Paths: []fit.PathInfo{
		{Label: "path1", Hashkey: "PATH1"},
		{Label: "path2", Hashkey: "PATH2"},
	}}
	res := &fit.RawResult{
		Sets: []fit.DatasetInfo{ds},
		Params: map[string]fit.Estimate{
			"deltar_HASHA_PATH1": {Value: 0.01},
		},
	}

	_, paths := New(Options{}).Extract(res, []models.BoundPath{boundPath(1, 2.49), boundPath(2, 3.02)})
	require.Len(t, paths, 2)

	assert.InDelta(t, 2.50, paths[0].Distance, 1e-12)
	assert.Equal(t, 0.01, paths[0].DistanceShift)

	assert.Equal(t, 3.02, paths[1].Distance)
	assert.True(t, math.IsNaN(paths[1].DistanceShift))
	assert.Nil(t, paths[1].DistanceShiftUncertainty)
}

func TestExtract_DistanceEqualsReffWhenShiftAbsent(t *testing.T) {
	res := &fit.RawResult{Sets: []fit.DatasetInfo{dataset("path1", "path2", "path3")}}
	paths := []models.BoundPath{boundPath(1, 2.49), boundPath(2, 3.52), boundPath(3, 4.31)}

	_, summaries := New(Options{}).Extract(res, paths)
	for i, s := range summaries {
		assert.Equal(t, paths[i].Path.EffectiveLength, s.Distance, s.Label)
		assert.False(t, math.IsNaN(s.Distance))
	}
}

func TestExtract_NaNShiftIsNotDefaulted(t *testing.T) {
	res := &fit.RawResult{
		Sets:   []fit.DatasetInfo{dataset("path1")},
		Params: map[string]fit.Estimate{"deltar_HASHA_HASHB": {Value: math.NaN()}},
	}

	_, paths := New(Options{}).Extract(res, []models.BoundPath{boundPath(1, 2.49)})
	assert.True(t, math.IsNaN(paths[0].Distance))
}

func TestExtract_GlobalsFromFirstPathOnly(t *testing.T) {
	res := &fit.RawResult{
		Sets: []fit.DatasetInfo{dataset("path1", "path2")},
		Params: map[string]fit.Estimate{
			"s02_HASHA_HASHB": {Value: 0.80, Stderr: f(0.05)},
			"s02_HASHA_PATH2": {Value: 0.95, Stderr: f(0.07)},
			"e0_HASHA_HASHB":  {Value: 2.1, Stderr: f(0.4)},
			"e0_HASHA_PATH2":  {Value: -7.0},
		},
	}

	fitted, _ := New(Options{}).Extract(res, []models.BoundPath{boundPath(1, 2.49), boundPath(2, 3.52)})
	assert.Equal(t, 0.80, fitted.Amplitude)
	require.NotNil(t, fitted.AmplitudeUncertainty)
	assert.Equal(t, 0.05, *fitted.AmplitudeUncertainty)
	assert.Equal(t, 2.1, fitted.EnergyShift)
	require.NotNil(t, fitted.EnergyShiftUncertainty)
	assert.Equal(t, 0.4, *fitted.EnergyShiftUncertainty)
}

func TestExtract_EnergyShiftFallsBackToGlobal(t *testing.T) {
	res := &fit.RawResult{
		Sets: []fit.DatasetInfo{dataset("path1")},
		Params: map[string]fit.Estimate{
			"e0": {Value: 1.5, Stderr: f(0.3)},
		},
	}

	fitted, _ := New(Options{}).Extract(res, []models.BoundPath{boundPath(1, 2.49)})
	assert.Equal(t, 1.5, fitted.EnergyShift)
	require.NotNil(t, fitted.EnergyShiftUncertainty)
	assert.Equal(t, 0.3, *fitted.EnergyShiftUncertainty)
}

func TestExtract_FullResult(t *testing.T) {
	nvar := 6
	res := &fit.RawResult{
		NVarys:        &nvar,
		ChiSqrReduced: f(12.5),
		RFact:         f(0.012),
		Sets: []fit.DatasetInfo{{
			Hashkey:   "HASHA",
			Transform: &fit.Bounds{KMin: 3, KMax: 12.8, RMin: 1, RMax: 5},
			Paths:     []fit.PathInfo{{Label: "path1", Hashkey: "HASHB"}},
		}},
		Params: map[string]fit.Estimate{
			"s02_HASHA_HASHB":    {Value: 0.83, Stderr: f(0.04)},
			"e0_HASHA_HASHB":     {Value: 3.2, Stderr: f(0.6)},
			"deltar_HASHA_HASHB": {Value: -0.02, Stderr: f(0.005)},
			"sigma2_HASHA_HASHB": {Value: 0.0061, Stderr: f(0.0004)},
		},
	}

	fitted, paths := New(Options{}).Extract(res, []models.BoundPath{boundPath(1, 2.49)})

	require.NotNil(t, fitted.VariableCount)
	assert.Equal(t, 6, *fitted.VariableCount)
	assert.Equal(t, 3.0, fitted.KMin)
	assert.Equal(t, 12.8, fitted.KMax)
	assert.Equal(t, 1.0, fitted.RMin)
	assert.Equal(t, 5.0, fitted.RMax)
	assert.Equal(t, 12.5, fitted.ReducedChiSquare)
	assert.Equal(t, 0.012, fitted.RFactor)

	require.Len(t, paths, 1)
	p := paths[0]
	assert.Equal(t, "path1", p.Label)
	assert.InDelta(t, 2.47, p.Distance, 1e-12)
	assert.Equal(t, 0.005, *p.DistanceShiftUncertainty)
	assert.Equal(t, 0.0061, p.MeanSquareDisplacement)
	assert.Equal(t, 0.0004, *p.MeanSquareDisplacementUncertainty)
}

func TestExtract_EmptyResultNeverPanics(t *testing.T) {
	paths := []models.BoundPath{boundPath(1, 2.49), boundPath(2, 3.02)}

	for name, res := range map[string]fit.Result{
		"nil":         nil,
		"empty":       &fit.RawResult{},
		"no hashkeys": &fit.RawResult{Sets: []fit.DatasetInfo{{Paths: []fit.PathInfo{{Label: "path1"}}}}},
	} {
		t.Run(name, func(t *testing.T) {
			var (
				fitted  models.FittedSummary
				summary []models.PathSummary
			)
			require.NotPanics(t, func() {
				fitted, summary = New(Options{}).Extract(res, paths)
			})

			assert.Nil(t, fitted.VariableCount)
			for _, v := range []float64{fitted.KMin, fitted.KMax, fitted.RMin, fitted.RMax,
				fitted.Amplitude, fitted.EnergyShift, fitted.ReducedChiSquare, fitted.RFactor} {
				assert.True(t, math.IsNaN(v))
			}
			assert.Nil(t, fitted.AmplitudeUncertainty)
			assert.Nil(t, fitted.EnergyShiftUncertainty)

			require.Len(t, summary, 2)
			for i, s := range summary {
				assert.Equal(t, paths[i].Key, s.Label)
				assert.True(t, math.IsNaN(s.DistanceShift))
				assert.True(t, math.IsNaN(s.MeanSquareDisplacement))
				assert.Equal(t, paths[i].Path.EffectiveLength, s.Distance)
			}
		})
	}
}

func TestExtract_NoPaths(t *testing.T) {
	fitted, paths := New(Options{}).Extract(&fit.RawResult{Sets: []fit.DatasetInfo{dataset()}}, nil)
	assert.Empty(t, paths)
	assert.True(t, math.IsNaN(fitted.Amplitude))
}

func TestExtract_UnmatchedPathLabel(t *testing.T) {
	res := &fit.RawResult{
		Sets:   []fit.DatasetInfo{dataset("path9")},
		Params: map[string]fit.Estimate{"deltar_HASHA_HASHB": {Value: 0.3}},
	}

	_, paths := New(Options{}).Extract(res, []models.BoundPath{boundPath(1, 2.49)})
	assert.True(t, math.IsNaN(paths[0].DistanceShift))
	assert.Equal(t, 2.49, paths[0].Distance)
}

func TestWriteReport(t *testing.T) {
	nvar := 2
	r := models.Report{
		RequestID:   "req-1",
		CatalogSize: 1,
		Fitted: models.FittedSummary{
			VariableCount:        &nvar,
			KMin:                 3, KMax: 13, RMin: 1, RMax: 5,
			Amplitude:            0.83,
			AmplitudeUncertainty: f(0.04),
			EnergyShift:          math.NaN(),
			ReducedChiSquare:     1.2,
			RFactor:              0.01,
		},
		Paths: []models.PathSummary{{
			Label:                  "path1",
			DistanceShift:          0.01,
			Distance:               2.5,
			MeanSquareDisplacement: math.NaN(),
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "request        = req-1")
	assert.Contains(t, out, "n_variables  = 2")
	assert.Contains(t, out, "s02          = 0.83000 +/- 0.04000")
	assert.Contains(t, out, "e0           = nan")
	assert.Contains(t, out, "path1")
	assert.Contains(t, out, "2.50000")
}
