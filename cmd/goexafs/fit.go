package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kacperjurak/goexafs/internal/processing"
	"github.com/kacperjurak/goexafs/pkg/config"
	"github.com/kacperjurak/goexafs/pkg/extract"
	"github.com/kacperjurak/goexafs/pkg/models"
)

var fitFlags struct {
	configFile string
	spectrum   string
	minAmp     float64
	maxReff    float64
	method     string
	maxIter    int
	kmin, kmax float64
	rmin, rmax float64
	dk         float64
	window     string
	kweights   config.FloatList
	fixed      []string
	format     string
	output     string
}

var fitCmd = &cobra.Command{
	Use:   "fit [run-dir]",
	Short: "Fit the selected paths to a chi(k) spectrum",
	Long: `Scans the run directory, binds every accepted path to the shared
parameters (amp, e0, alpha, sigma2_4), fits them to the spectrum and prints
the fitted parameters. Flags override values from --config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFit,
}

func init() {
	f := fitCmd.Flags()
	f.StringVarP(&fitFlags.configFile, "config", "c", "", "YAML run configuration")
	f.StringVarP(&fitFlags.spectrum, "spectrum", "s", "", "chi(k) data file")
	f.Float64Var(&fitFlags.minAmp, "min-amp", 0, "Minimum amplitude ratio in percent (inclusive)")
	f.Float64Var(&fitFlags.maxReff, "max-reff", 0, "Maximum effective length in angstrom (inclusive)")
	f.StringVarP(&fitFlags.method, "method", "m", "", "Minimizer: lm or nelder-mead")
	f.IntVar(&fitFlags.maxIter, "max-iter", 0, "Maximum minimizer iterations")
	f.Float64Var(&fitFlags.kmin, "kmin", 0, "Lower k bound")
	f.Float64Var(&fitFlags.kmax, "kmax", 0, "Upper k bound")
	f.Float64Var(&fitFlags.rmin, "rmin", 0, "Lower R bound")
	f.Float64Var(&fitFlags.rmax, "rmax", 0, "Upper R bound")
	f.Float64Var(&fitFlags.dk, "dk", 0, "Window taper width")
	f.StringVar(&fitFlags.window, "window", "", "Window: hanning, parzen, welch, sine or gaussian")
	f.Var(&fitFlags.kweights, "kweight", "k-weights, repeatable or comma separated")
	f.StringSliceVar(&fitFlags.fixed, "fix", nil, "Parameters to hold constant")
	f.StringVarP(&fitFlags.format, "format", "o", "", "Output format: text or json")
	f.StringVar(&fitFlags.output, "output", "", "Write the report to this file instead of stdout")
}

// fitConfig loads --config and applies the flags that were set.
func fitConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if fitFlags.configFile != "" {
		var err error
		if cfg, err = config.Load(fitFlags.configFile); err != nil {
			return nil, err
		}
	}
	if len(args) > 0 {
		cfg.RunDir = args[0]
	}

	changed := cmd.Flags().Changed
	if changed("spectrum") {
		cfg.Spectrum = fitFlags.spectrum
	}
	if changed("min-amp") {
		v := fitFlags.minAmp
		cfg.Filters.MinAmplitudeRatio = &v
	}
	if changed("max-reff") {
		v := fitFlags.maxReff
		cfg.Filters.MaxEffectiveLength = &v
	}
	if changed("method") {
		cfg.Method = fitFlags.method
	}
	if changed("max-iter") {
		cfg.MaxIter = fitFlags.maxIter
	}
	for _, b := range []struct {
		flag string
		dst  *float64
		val  float64
	}{
		{"kmin", &cfg.Transform.KMin, fitFlags.kmin},
		{"kmax", &cfg.Transform.KMax, fitFlags.kmax},
		{"rmin", &cfg.Transform.RMin, fitFlags.rmin},
		{"rmax", &cfg.Transform.RMax, fitFlags.rmax},
		{"dk", &cfg.Transform.Dk, fitFlags.dk},
	} {
		if changed(b.flag) {
			*b.dst = b.val
		}
	}
	if changed("window") {
		cfg.Transform.Window = models.Window(fitFlags.window)
	}
	if changed("kweight") {
		cfg.Transform.KWeights = append([]float64(nil), fitFlags.kweights...)
	}
	if changed("fix") {
		cfg.Params.Fixed = fitFlags.fixed
	}
	if changed("format") {
		cfg.Format = fitFlags.format
	}
	if changed("output") {
		cfg.Output = fitFlags.output
	}
	if changed("verbose") {
		cfg.Verbose = verbose
	}
	if changed("quiet") {
		cfg.Quiet = quiet
	}
	return cfg, cfg.Validate()
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := fitConfig(cmd, args)
	if err != nil {
		return err
	}

	p := processing.NewProcessor(processing.Options{Logger: logger, Table: cmd.ErrOrStderr()})
	report, err := p.Process(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), cfg, report)
}

// emit writes report to cfg.Output, or to w when no output file is set.
func emit(w io.Writer, cfg *config.Config, report *models.Report) error {
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return writeReport(w, cfg.Format, report)
}

func writeReport(w io.Writer, format string, report *models.Report) error {
	if format == config.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return extract.WriteReport(w, *report)
}
