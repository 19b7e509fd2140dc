package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kacperjurak/goexafs/pkg/feff"
)

var (
	scanMinAmp  float64
	scanMaxReff float64
	scanWatch   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [run-dir]",
	Short: "List the scattering paths of a FEFF run",
	Long: `Parses list.dat in the run directory, applies the amplitude and distance
filters and prints the accepted paths. With --watch the directory is
re-scanned every time FEFF rewrites list.dat.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Float64Var(&scanMinAmp, "min-amp", 0, "Minimum amplitude ratio in percent (inclusive)")
	scanCmd.Flags().Float64Var(&scanMaxReff, "max-reff", 0, "Maximum effective length in angstrom (inclusive)")
	scanCmd.Flags().BoolVar(&scanWatch, "watch", false, "Re-scan whenever list.dat changes")
}

func scanOptions(cmd *cobra.Command) feff.ScanOptions {
	opts := feff.ScanOptions{Logger: logger}
	if cmd.Flags().Changed("min-amp") {
		v := scanMinAmp
		opts.MinAmplitudeRatio = &v
	}
	if cmd.Flags().Changed("max-reff") {
		v := scanMaxReff
		opts.MaxEffectiveLength = &v
	}
	return opts
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := args[0]
	opts := scanOptions(cmd)
	out := cmd.OutOrStdout()

	cat, err := feff.Scan(dir, opts)
	switch {
	case err == nil:
		if err := printCatalog(out, cat); err != nil {
			return err
		}
	case !scanWatch:
		return err
	default:
		// FEFF may not have written list.dat yet
		logger.Warn("initial scan failed", zap.String("dir", dir), zap.Error(err))
	}
	if !scanWatch {
		return nil
	}

	w, err := feff.NewWatcher(dir, opts, func(cat *feff.Catalog, err error) {
		if err != nil {
			logger.Warn("re-scan failed", zap.String("dir", dir), zap.Error(err))
			return
		}
		fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.RFC3339))
		_ = printCatalog(out, cat)
	})
	if err != nil {
		return err
	}
	return w.Run(cmd.Context())
}

func printCatalog(w io.Writer, cat *feff.Catalog) error {
	fmt.Fprintf(w, "%-8s %-7s %8s %9s %5s %5s\n", "key", "bond", "amp(%)", "reff(A)", "deg", "nlegs")
	for _, p := range cat.Paths() {
		if _, err := fmt.Fprintf(w, "%-8s %-7s %8.3f %9.4f %5.1f %5d\n",
			p.Key(), p.BondLabel, p.AmplitudeRatio, p.EffectiveLength, p.Degeneracy, p.LegCount); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d paths, %d skipped without data file\n", cat.Len(), cat.Skipped())
	return err
}
