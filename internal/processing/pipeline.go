package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goexafs"
	"github.com/kacperjurak/goexafs/internal/spectrum"
	"github.com/kacperjurak/goexafs/internal/utils"
	"github.com/kacperjurak/goexafs/pkg/config"
	"github.com/kacperjurak/goexafs/pkg/extract"
	"github.com/kacperjurak/goexafs/pkg/feff"
	"github.com/kacperjurak/goexafs/pkg/fit"
	"github.com/kacperjurak/goexafs/pkg/models"
)

// Stage is the position of a request in the pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageScanned
	StageBound
	StageFitted
	StageExtracted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageScanned:
		return "scanned"
	case StageBound:
		return "bound"
	case StageFitted:
		return "fitted"
	case StageExtracted:
		return "extracted"
	case StageFailed:
		return "failed"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ErrNoPaths is returned when the filters leave nothing to fit.
var ErrNoPaths = errors.New("no paths selected")

// StageError reports the stage a request failed to reach.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("processing: reaching %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options holds configuration for creating a Processor.
type Options struct {
	// Optimizer overrides the engine built from the request config.
	Optimizer fit.Optimizer
	Logger    *zap.Logger
	// Table receives the verbose path table.
	Table io.Writer
	// OnStage is called on every transition.
	OnStage func(requestID string, s Stage)
}

// Processor drives one request through scan, bind, fit and extract. It
// keeps no state between requests.
type Processor struct {
	optimizer fit.Optimizer
	logger    *zap.Logger
	table     io.Writer
	onStage   func(string, Stage)
}

// NewProcessor creates a new processor.
func NewProcessor(opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Processor{
		optimizer: opts.Optimizer,
		logger:    opts.Logger,
		table:     opts.Table,
		onStage:   opts.OnStage,
	}
}

// Process runs the full pipeline for cfg. The returned report carries a
// fresh request ID.
func (p *Processor) Process(ctx context.Context, cfg *config.Config) (*models.Report, error) {
	id := utils.GenerateID()
	logger := p.logger.With(zap.String("request_id", id))
	p.transition(id, StageIdle)

	fail := func(stage Stage, err error) (*models.Report, error) {
		p.transition(id, StageFailed)
		logger.Warn("request failed", zap.Stringer("stage", stage), zap.Error(err))
		return nil, &StageError{Stage: stage, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return fail(StageScanned, err)
	}

	opts := cfg.Filters.ScanOptions()
	opts.Verbose = cfg.Verbose
	opts.Table = p.table
	opts.Logger = logger
	cat, err := feff.Scan(cfg.RunDir, opts)
	if err != nil {
		return fail(StageScanned, err)
	}
	p.transition(id, StageScanned)

	paths := fit.Bind(cat)
	if len(paths) == 0 {
		return fail(StageBound, ErrNoPaths)
	}
	p.transition(id, StageBound)

	params, err := models.NewParameterSet(cfg.Params)
	if err != nil {
		return fail(StageFitted, err)
	}
	sp, err := spectrum.Load(cfg.Spectrum)
	if err != nil {
		return fail(StageFitted, err)
	}

	start := time.Now()
	exec := fit.NewExecutor(fit.Options{Optimizer: p.optimizerFor(cfg, logger), Logger: logger})
	res, err := exec.Run(ctx, params, paths, sp, cfg.Transform)
	if err != nil {
		return fail(StageFitted, err)
	}
	p.transition(id, StageFitted)
	logger.Info("fit finished",
		zap.Int("paths", len(paths)),
		zap.Duration("elapsed", time.Since(start)))

	report := extract.New(extract.Options{Logger: logger}).Report(res, paths)
	report.RequestID = id
	report.RunDir = cat.Dir()
	report.CatalogSize = cat.Len()
	report.Skipped = cat.Skipped()
	p.transition(id, StageExtracted)

	return &report, nil
}

func (p *Processor) optimizerFor(cfg *config.Config, logger *zap.Logger) fit.Optimizer {
	if p.optimizer != nil {
		return p.optimizer
	}
	return goexafs.NewEngine(goexafs.Options{
		Method:        goexafs.Method(cfg.Method),
		MaxIterations: cfg.MaxIter,
		Logger:        logger,
	})
}

func (p *Processor) transition(id string, s Stage) {
	if p.onStage != nil {
		p.onStage(id, s)
	}
}
