package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kacperjurak/goexafs/internal/store"
	"github.com/kacperjurak/goexafs/pkg/config"
	"github.com/kacperjurak/goexafs/pkg/models"
	"github.com/kacperjurak/goexafs/pkg/profiling"
)

// ProcessorFunc runs one independent pipeline invocation.
type ProcessorFunc func(ctx context.Context, cfg *config.Config) (*models.Report, error)

// Result is the outcome of one job.
type Result struct {
	Index          int
	Report         *models.Report
	Err            error
	ProcessingTime time.Duration
}

// Options holds configuration for creating a new worker pool
type Options struct {
	Workers   int
	Processor ProcessorFunc
	// Store, when set, receives every successful report by request ID.
	Store  *store.Store[*models.Report]
	Logger *zap.Logger
}

// Pool runs pipeline invocations concurrently. Jobs share nothing but the
// processor, which must itself be stateless.
type Pool struct {
	workers   int
	processor ProcessorFunc
	store     *store.Store[*models.Report]
	logger    *zap.Logger
}

type job struct {
	index int
	cfg   *config.Config
}

// New creates a new worker pool with specified configuration
func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pool{
		workers:   opts.Workers,
		processor: opts.Processor,
		store:     opts.Store,
		logger:    opts.Logger,
	}
}

// Run processes every config and returns the results in input order. A job
// error does not stop the others; cancelling ctx does, and jobs that never
// started report ctx's error.
func (p *Pool) Run(ctx context.Context, cfgs []*config.Config) []Result {
	results := make([]Result, len(cfgs))
	for i := range results {
		results[i].Index = i
	}

	jobs := make(chan job)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i, cfg := range cfgs {
			select {
			case jobs <- job{index: i, cfg: cfg}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	n := min(p.workers, len(cfgs))
	p.logger.Debug("worker pool started", zap.Int("workers", n), zap.Int("jobs", len(cfgs)))
	done := make([]bool, len(cfgs))
	for w := 0; w < n; w++ {
		g.Go(func() error {
			for j := range jobs {
				results[j.index] = p.process(gctx, j)
				done[j.index] = true
			}
			return nil
		})
	}

	err := g.Wait()
	for i := range results {
		if !done[i] {
			results[i].Err = err
			if results[i].Err == nil {
				results[i].Err = ctx.Err()
			}
		}
	}
	return results
}

func (p *Pool) process(ctx context.Context, j job) Result {
	prof := profiling.NewJobProfiler(fmt.Sprintf("run-%d", j.index))
	report, err := p.processor(ctx, j.cfg)
	metrics := prof.Finish()
	res := Result{
		Index:          j.index,
		Report:         report,
		Err:            err,
		ProcessingTime: metrics.Duration,
	}
	if err != nil {
		p.logger.Warn("job failed", zap.Int("index", j.index), zap.Error(err))
		return res
	}
	if p.store != nil && report != nil {
		p.store.Put(report.RequestID, report)
	}
	p.logger.Debug("job finished", metrics.Fields()...)
	return res
}
