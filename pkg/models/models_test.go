package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParameterSet(t *testing.T) {
	ps, err := NewParameterSet(Guesses{Amp: 0.8, Sigma24: 0.003, Fixed: []string{"alpha"}})
	require.NoError(t, err)

	params := ps.Params()
	require.Len(t, params, 6)
	for i, name := range ParamNames {
		assert.Equal(t, name, params[i].Name)
	}

	amp, ok := ps.Get(ParamAmp)
	require.True(t, ok)
	assert.Equal(t, 0.8, amp.Value)
	assert.True(t, amp.Vary)

	alpha, _ := ps.Get(ParamAlpha)
	assert.False(t, alpha.Vary)
	assert.Equal(t, 5, ps.VaryCount())

	s24, _ := ps.Get(ParamSigma24)
	assert.Equal(t, 0.003, s24.Value)
}

func TestNewParameterSet_UnknownFixed(t *testing.T) {
	_, err := NewParameterSet(Guesses{Fixed: []string{"theta"}})
	assert.Error(t, err)
}

func TestParameterSet_ParamsIsCopy(t *testing.T) {
	ps, err := NewParameterSet(Guesses{Amp: 1})
	require.NoError(t, err)

	params := ps.Params()
	params[0].Value = 42

	amp, _ := ps.Get(ParamAmp)
	assert.Equal(t, 1.0, amp.Value)
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{in: "Hanning", want: WindowHanning},
		{in: " parzen ", want: WindowParzen},
		{in: "WELCH", want: WindowWelch},
		{in: "kaiser", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransformConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultTransform().Validate())

	bad := DefaultTransform()
	bad.KMax = bad.KMin
	assert.Error(t, bad.Validate())

	bad = DefaultTransform()
	bad.RMin = 6
	assert.Error(t, bad.Validate())

	bad = DefaultTransform()
	bad.KWeights = nil
	assert.Error(t, bad.Validate())

	bad = DefaultTransform()
	bad.Window = "boxcar"
	assert.Error(t, bad.Validate())
}

func TestPathKey(t *testing.T) {
	assert.Equal(t, "path7", PathKey(7))
	assert.Equal(t, "path12", ScatteringPath{Index: 12}.Key())
}

func TestFittedSummary_MarshalJSON_NaNIsNull(t *testing.T) {
	nvar := 4
	s := FittedSummary{
		VariableCount:    &nvar,
		KMin:             3,
		KMax:             13,
		RMin:             1,
		RMax:             5,
		Amplitude:        0.83,
		EnergyShift:      math.NaN(),
		ReducedChiSquare: math.Inf(1),
		RFactor:          0.01,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 4.0, got["nvar"])
	assert.Equal(t, 0.83, got["s02"])
	assert.Nil(t, got["s02_err"])
	assert.Nil(t, got["deltae"])
	assert.Nil(t, got["reduced_chi2"])
	assert.Contains(t, got, "errore")
}

func TestPathSummary_MarshalJSON(t *testing.T) {
	nan := math.NaN()
	s := PathSummary{
		Label:                             "path1",
		DistanceShift:                     0.01,
		Distance:                          2.5,
		MeanSquareDisplacement:            0.004,
		MeanSquareDisplacementUncertainty: &nan,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path_label":"path1","deltar":0.01,"deltar_err":null,"R":2.5,"sigma2":0.004,"sigma2_err":null}`, string(data))
}
