package goexafs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/maorshutman/lm"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/kacperjurak/goexafs/pkg/fit"
	"github.com/kacperjurak/goexafs/pkg/models"
)

// Method selects the minimizer.
type Method string

const (
	MethodLM         Method = "lm"
	MethodNelderMead Method = "nelder-mead"
)

// ParseMethod parses a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodLM, MethodNelderMead:
		return m, nil
	case "nm", "neldermead":
		return MethodNelderMead, nil
	}
	return "", fmt.Errorf("unknown fit method %q", s)
}

// Status values of a Result.
const (
	OK    = "OK"
	ERROR = "ERROR"
)

// Result is the raw outcome of one minimization.
type Result struct {
	Min        float64
	Params     []float64
	Status     string
	Iterations int
	FuncEvals  int
	Runtime    time.Duration
}

// Options holds configuration for creating an Engine.
type Options struct {
	Method        Method
	MaxIterations int
	Logger        *zap.Logger
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{Method: MethodLM, MaxIterations: 1000}
}

// Engine fits tabulated FEFF paths to chi(k) in k space. It implements
// fit.Optimizer and keeps no state between calls.
type Engine struct {
	method  Method
	maxIter int
	logger  *zap.Logger
}

var _ fit.Optimizer = (*Engine)(nil)

// NewEngine creates a new engine.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{method: opts.Method, maxIter: opts.MaxIterations, logger: opts.Logger}
}

// Minimize fits the datasets and publishes the result under composite
// names "<prefix>_<datasetHash>_<pathHash>" plus the bare parameter names.
func (e *Engine) Minimize(ctx context.Context, params *models.ParameterSet, datasets []models.Dataset) (fit.Result, error) {
	if params == nil {
		return nil, errors.New("nil parameter set")
	}
	p, err := newProblem(params, datasets)
	if err != nil {
		return nil, err
	}

	x := p.x0()
	if len(x) > 0 {
		var res Result
		switch e.method {
		case MethodLM:
			res, err = e.lmSolve(ctx, p, x)
		case MethodNelderMead:
			res, err = e.nmSolve(ctx, p, x)
		default:
			return nil, fmt.Errorf("unknown fit method %q", e.method)
		}
		if err != nil {
			return nil, err
		}
		e.logger.Debug("minimization finished",
			zap.String("method", string(e.method)),
			zap.String("status", res.Status),
			zap.Float64("min", res.Min),
			zap.Int("iterations", res.Iterations),
			zap.Int("func_evals", res.FuncEvals),
			zap.Duration("runtime", res.Runtime))
		x = res.Params
	}

	return p.result(x), nil
}

func (e *Engine) lmSolve(ctx context.Context, p *problem, x0 []float64) (res Result, err error) {
	start := time.Now()
	fnc := func(dst, x []float64) {
		if err := ctx.Err(); err != nil {
			panic(err)
		}
		p.residual(dst, x)
	}

	jac := lm.NumJac{Func: fnc}

	problem := lm.LMProblem{
		Dim:        len(x0),
		Size:       p.size,
		Func:       fnc,
		Jac:        jac.Jac,
		InitParams: x0,
		Tau:        1e-3,
		Eps1:       1e-10,
		Eps2:       1e-10,
	}

	// Recover from LM panics (e.g., singular matrix or cancellation)
	defer func() {
		if r := recover(); r != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			} else {
				err = fmt.Errorf("lm: %v", r)
			}
			res = Result{Min: math.Inf(1), Status: ERROR}
		}
	}()

	out, err := lm.LM(problem, &lm.Settings{Iterations: e.maxIter, ObjectiveTol: 1e-16})
	if err != nil {
		return Result{Min: math.Inf(1), Status: ERROR}, fmt.Errorf("lm: %w", err)
	}
	if !allFinite(out.X) {
		return Result{Min: math.Inf(1), Status: ERROR}, errors.New("lm: non-finite parameters")
	}

	return Result{
		Params:  out.X,
		Min:     p.sumSq(out.X),
		Status:  OK,
		Runtime: time.Since(start),
	}, nil
}

// How Simplex works http://195.134.76.37/applets/AppletSimplex/Appl_Simplex2.html
func (e *Engine) nmSolve(ctx context.Context, p *problem, x0 []float64) (Result, error) {
	problem := optimize.Problem{
		Func: p.sumSq,
		Status: func() (optimize.Status, error) {
			return optimize.NotTerminated, ctx.Err()
		},
	}

	settings := &optimize.Settings{
		MajorIterations: e.maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 50,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		if ctx.Err() != nil {
			return Result{Min: math.Inf(1), Status: ERROR}, ctx.Err()
		}
		// hitting the iteration limit still leaves a usable point
		if res == nil || res.Status != optimize.IterationLimit {
			return Result{Min: math.Inf(1), Status: ERROR}, fmt.Errorf("nelder-mead: %w", err)
		}
	}

	return Result{
		Params:     res.X,
		Min:        res.F,
		Status:     OK,
		Iterations: res.MajorIterations,
		FuncEvals:  res.FuncEvaluations,
		Runtime:    res.Runtime,
	}, nil
}

// result publishes the fitted point x.
func (p *problem) result(x []float64) *fit.RawResult {
	st := p.stats(x)
	cov := p.covariance(x)
	nvarys := len(p.vary)

	out := &fit.RawResult{
		NVarys:        &nvarys,
		ChiSqrReduced: finitePtr(st.reduced),
		RFact:         finitePtr(st.rfactor),
		Params:        map[string]fit.Estimate{},
	}

	vals := p.paramMap(x)
	varied := make(map[string]int, len(p.vary))
	for i, idx := range p.vary {
		varied[p.names[idx]] = i
	}
	for _, name := range p.names {
		est := fit.Estimate{Value: vals[name]}
		if i, ok := varied[name]; ok && cov != nil {
			if v := cov.At(i, i); v >= 0 {
				s := math.Sqrt(v)
				est.Stderr = &s
			}
		}
		out.Params[name] = est
	}

	for _, set := range p.sets {
		bounds := set.bounds
		info := fit.DatasetInfo{Hashkey: set.hashkey, Transform: &bounds}
		for _, m := range set.paths {
			info.Paths = append(info.Paths, fit.PathInfo{Label: m.key, Hashkey: m.hashkey})
			suffix := "_" + set.hashkey + "_" + m.hashkey
			for _, c := range []struct {
				prefix string
				expr   *Expr
			}{
				{"s02", m.s02},
				{"e0", m.e0},
				{"deltar", m.deltar},
				{"sigma2", m.sigma2},
			} {
				out.Params[c.prefix+suffix] = p.pathEstimate(m, c.expr, x, cov)
			}
		}
		out.Sets = append(out.Sets, info)
	}
	return out
}

// pathEstimate evaluates expr at x and propagates the parameter
// covariance through it.
func (p *problem) pathEstimate(m *pathModel, expr *Expr, x []float64, cov *mat.Dense) fit.Estimate {
	f := func(x []float64) float64 {
		v, err := expr.Eval(m.vars(p.paramMap(x)))
		if err != nil {
			return math.NaN()
		}
		return v
	}
	return fit.Estimate{Value: f(x), Stderr: propagate(f, x, cov)}
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
