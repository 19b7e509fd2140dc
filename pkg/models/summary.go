package models

import (
	"encoding/json"
	"math"
)

// FittedSummary holds the dataset-wide fit statistics and global parameters.
// Missing values are NaN; missing uncertainties are nil.
type FittedSummary struct {
	VariableCount          *int
	KMin                   float64
	KMax                   float64
	RMin                   float64
	RMax                   float64
	Amplitude              float64
	AmplitudeUncertainty   *float64
	EnergyShift            float64
	EnergyShiftUncertainty *float64
	ReducedChiSquare       float64
	RFactor                float64
}

// PathSummary holds the fitted quantities of one bound path.
type PathSummary struct {
	Label                             string
	DistanceShift                     float64
	DistanceShiftUncertainty          *float64
	Distance                          float64
	MeanSquareDisplacement            float64
	MeanSquareDisplacementUncertainty *float64
}

type fittedSummaryJSON struct {
	VariableCount          *int     `json:"nvar"`
	KMin                   *float64 `json:"kmin"`
	KMax                   *float64 `json:"kmax"`
	RMin                   *float64 `json:"rmin"`
	RMax                   *float64 `json:"rmax"`
	Amplitude              *float64 `json:"s02"`
	AmplitudeUncertainty   *float64 `json:"s02_err"`
	EnergyShift            *float64 `json:"deltae"`
	EnergyShiftUncertainty *float64 `json:"errore"`
	ReducedChiSquare       *float64 `json:"reduced_chi2"`
	RFactor                *float64 `json:"rfactor"`
}

// MarshalJSON encodes NaN and infinities as null.
func (s FittedSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(fittedSummaryJSON{
		VariableCount:          s.VariableCount,
		KMin:                   finite(s.KMin),
		KMax:                   finite(s.KMax),
		RMin:                   finite(s.RMin),
		RMax:                   finite(s.RMax),
		Amplitude:              finite(s.Amplitude),
		AmplitudeUncertainty:   finitePtr(s.AmplitudeUncertainty),
		EnergyShift:            finite(s.EnergyShift),
		EnergyShiftUncertainty: finitePtr(s.EnergyShiftUncertainty),
		ReducedChiSquare:       finite(s.ReducedChiSquare),
		RFactor:                finite(s.RFactor),
	})
}

type pathSummaryJSON struct {
	Label                             string   `json:"path_label"`
	DistanceShift                     *float64 `json:"deltar"`
	DistanceShiftUncertainty          *float64 `json:"deltar_err"`
	Distance                          *float64 `json:"R"`
	MeanSquareDisplacement            *float64 `json:"sigma2"`
	MeanSquareDisplacementUncertainty *float64 `json:"sigma2_err"`
}

// MarshalJSON encodes NaN and infinities as null.
func (s PathSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(pathSummaryJSON{
		Label:                             s.Label,
		DistanceShift:                     finite(s.DistanceShift),
		DistanceShiftUncertainty:          finitePtr(s.DistanceShiftUncertainty),
		Distance:                          finite(s.Distance),
		MeanSquareDisplacement:            finite(s.MeanSquareDisplacement),
		MeanSquareDisplacementUncertainty: finitePtr(s.MeanSquareDisplacementUncertainty),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finitePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return finite(*v)
}
