// Package profiling measures fit jobs and writes runtime/pprof profiles.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"go.uber.org/zap"
)

// JobProfiler measures one unit of work.
type JobProfiler struct {
	startTime   time.Time
	startMemory uint64
	name        string
}

// NewJobProfiler starts measuring the job called name.
func NewJobProfiler(name string) *JobProfiler {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &JobProfiler{
		startTime:   time.Now(),
		startMemory: m.Alloc,
		name:        name,
	}
}

// Finish completes the measurement.
func (jp *JobProfiler) Finish() Metrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Metrics{
		Name:        jp.name,
		Duration:    time.Since(jp.startTime),
		MemoryDelta: int64(m.Alloc) - int64(jp.startMemory),
		Goroutines:  runtime.NumGoroutine(),
	}
}

// Metrics holds the measurements of one job.
type Metrics struct {
	Name        string
	Duration    time.Duration
	MemoryDelta int64
	Goroutines  int
}

// Fields renders m for structured logging.
func (m Metrics) Fields() []zap.Field {
	return []zap.Field{
		zap.String("job", m.Name),
		zap.Duration("elapsed", m.Duration),
		zap.Int64("memory_delta", m.MemoryDelta),
		zap.Int("goroutines", m.Goroutines),
	}
}

// StartCPUProfile writes a CPU profile to path until stop is called.
func StartCPUProfile(path string) (stop func() error, err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}
	return func() error {
		pprof.StopCPUProfile()
		return f.Close()
	}, nil
}

// WriteHeapProfile writes the current heap profile to path.
func WriteHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}
	return nil
}
