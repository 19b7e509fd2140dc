package extract

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kacperjurak/goexafs/pkg/models"
)

const rule = "======================================================================="

// WriteReport prints a fixed-width summary of a report.
func WriteReport(w io.Writer, r models.Report) error {
	var b strings.Builder
	f := r.Fitted

	fmt.Fprintf(&b, "%s\n", rule)
	if r.RequestID != "" {
		fmt.Fprintf(&b, "request        = %s\n", r.RequestID)
	}
	if r.RunDir != "" {
		fmt.Fprintf(&b, "run directory  = %s\n", r.RunDir)
	}
	fmt.Fprintf(&b, "paths          = %d (skipped %d)\n", r.CatalogSize, r.Skipped)
	fmt.Fprintf(&b, "[[Statistics]]\n")
	fmt.Fprintf(&b, "   n_variables  = %s\n", formatCount(f.VariableCount))
	fmt.Fprintf(&b, "   k range      = %s, %s\n", formatValue(f.KMin), formatValue(f.KMax))
	fmt.Fprintf(&b, "   R range      = %s, %s\n", formatValue(f.RMin), formatValue(f.RMax))
	fmt.Fprintf(&b, "   reduced chi2 = %s\n", formatValue(f.ReducedChiSquare))
	fmt.Fprintf(&b, "   r-factor     = %s\n", formatValue(f.RFactor))
	fmt.Fprintf(&b, "[[Variables]]\n")
	fmt.Fprintf(&b, "   s02          = %s\n", formatEstimate(f.Amplitude, f.AmplitudeUncertainty))
	fmt.Fprintf(&b, "   e0           = %s\n", formatEstimate(f.EnergyShift, f.EnergyShiftUncertainty))
	fmt.Fprintf(&b, "[[Paths]]\n")
	fmt.Fprintf(&b, "   %-10s %24s %10s %24s\n", "label", "deltar", "R", "sigma2")
	for _, p := range r.Paths {
		fmt.Fprintf(&b, "   %-10s %24s %10s %24s\n",
			p.Label,
			formatEstimate(p.DistanceShift, p.DistanceShiftUncertainty),
			formatValue(p.Distance),
			formatEstimate(p.MeanSquareDisplacement, p.MeanSquareDisplacementUncertainty))
	}
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.5f", v)
}

func formatEstimate(v float64, stderr *float64) string {
	if stderr == nil {
		return formatValue(v)
	}
	return fmt.Sprintf("%s +/- %s", formatValue(v), formatValue(*stderr))
}

func formatCount(n *int) string {
	if n == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *n)
}
