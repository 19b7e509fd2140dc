package fit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goexafs/pkg/models"
)

// ErrSolverFailure marks errors raised by the optimizer.
var ErrSolverFailure = errors.New("fit: solver failure")

// Optimizer minimizes the misfit of the datasets over the parameter set.
// Implementations block until the fit finishes.
type Optimizer interface {
	Minimize(ctx context.Context, params *models.ParameterSet, datasets []models.Dataset) (Result, error)
}

// Options holds configuration for creating an Executor.
type Options struct {
	Optimizer Optimizer
	Logger    *zap.Logger
}

// Executor assembles a dataset and forwards it to the optimizer. It keeps
// no state between calls.
type Executor struct {
	optimizer Optimizer
	logger    *zap.Logger
}

// NewExecutor creates a new executor.
func NewExecutor(opts Options) *Executor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Executor{optimizer: opts.Optimizer, logger: opts.Logger}
}

// Run fits the bound paths against the spectrum and returns the optimizer's
// result unmodified.
func (e *Executor) Run(ctx context.Context, params *models.ParameterSet, paths []models.BoundPath, spectrum models.Spectrum, transform models.TransformConfig) (res Result, err error) {
	if e.optimizer == nil {
		return nil, fmt.Errorf("%w: no optimizer configured", ErrSolverFailure)
	}
	if params == nil {
		return nil, errors.New("fit: nil parameter set")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dataset := models.Dataset{
		Spectrum:  spectrum,
		Transform: transform,
		Paths:     paths,
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: panic: %v", ErrSolverFailure, r)
		}
	}()

	start := time.Now()
	res, err = e.optimizer.Minimize(ctx, params, []models.Dataset{dataset})
	if err != nil {
		e.logger.Warn("optimizer failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%w: %w", ErrSolverFailure, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: optimizer returned no result", ErrSolverFailure)
	}

	e.logger.Debug("optimizer finished",
		zap.Int("paths", len(paths)),
		zap.Int("points", spectrum.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
