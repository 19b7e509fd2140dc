package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kacperjurak/goexafs/internal/processing"
	"github.com/kacperjurak/goexafs/internal/store"
	"github.com/kacperjurak/goexafs/pkg/config"
	"github.com/kacperjurak/goexafs/pkg/models"
	"github.com/kacperjurak/goexafs/pkg/worker"
)

var batchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch [batch.yaml]",
	Short: "Run independent fits from a batch file concurrently",
	Long: `Reads a YAML file with a "defaults" section and a "runs" list. Every run
inherits the defaults, is validated and fitted independently. Reports are
written to each run's output file or printed in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "j", 0, "Concurrent fits (default from batch file)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfgs, err := config.LoadBatch(args[0])
	if err != nil {
		return err
	}
	base := filepath.Dir(args[0])
	for i, cfg := range cfgs {
		resolve(base, &cfg.RunDir)
		resolve(base, &cfg.Spectrum)
		resolve(base, &cfg.Output)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("batch run %d: %w", i, err)
		}
	}

	workers := cfgs[0].Workers
	if cmd.Flags().Changed("workers") {
		workers = batchWorkers
	}

	reports := store.New[*models.Report]()
	proc := processing.NewProcessor(processing.Options{Logger: logger})
	pool := worker.New(worker.Options{
		Workers:   workers,
		Processor: proc.Process,
		Store:     reports,
		Logger:    logger,
	})
	results := pool.Run(cmd.Context(), cfgs)

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("batch run %d: %w", r.Index, r.Err))
			continue
		}
		if err := emit(cmd.OutOrStdout(), cfgs[r.Index], r.Report); err != nil {
			errs = append(errs, fmt.Errorf("batch run %d: %w", r.Index, err))
		}
		reports.Delete(r.Report.RequestID)
	}
	logger.Info("batch finished",
		zap.Int("runs", len(results)),
		zap.Int("failed", len(errs)),
		zap.Int("unreported", reports.Len()))
	return errors.Join(errs...)
}

// resolve makes a relative path relative to the batch file.
func resolve(base string, path *string) {
	if *path != "" && !filepath.IsAbs(*path) {
		*path = filepath.Join(base, *path)
	}
}
