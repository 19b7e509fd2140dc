package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kacperjurak/goexafs/internal/logging"
	"github.com/kacperjurak/goexafs/pkg/profiling"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	cpuProfile string
	memProfile string

	stopCPUProfile func() error

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "goexafs",
	Short: "Select FEFF scattering paths and fit them to EXAFS data",
	Long: `goexafs reads the output directory of a FEFF run, selects the scattering
paths that matter, binds them to a shared parameter model, fits them to a
chi(k) spectrum and reports the fitted distances and disorder terms.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{Verbose: verbose, Quiet: quiet})
		if err != nil {
			return err
		}
		if cpuProfile != "" {
			stopCPUProfile, err = profiling.StartCPUProfile(cpuProfile)
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopCPUProfile != nil {
			if err := stopCPUProfile(); err != nil {
				logger.Warn("cpu profile", zap.Error(err))
			}
			stopCPUProfile = nil
		}
		if memProfile != "" {
			if err := profiling.WriteHeapProfile(memProfile); err != nil {
				logger.Warn("heap profile", zap.Error(err))
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging and the path table")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	rootCmd.PersistentFlags().StringVar(&memProfile, "memprofile", "", "Write a heap profile to this file on exit")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
