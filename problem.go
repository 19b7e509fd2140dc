package goexafs

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kacperjurak/goexafs/internal/utils"
	"github.com/kacperjurak/goexafs/pkg/fit"
	"github.com/kacperjurak/goexafs/pkg/models"
)

// fitSet is one dataset restricted to the window support.
type fitSet struct {
	hashkey string
	k       []float64
	data    []float64
	win     []float64
	weights []float64
	paths   []*pathModel
	bounds  fit.Bounds
	nidp    float64
}

// problem holds everything the residual function needs.
type problem struct {
	names  []string
	values []float64
	vary   []int
	sets   []*fitSet
	size   int
}

func newProblem(params *models.ParameterSet, datasets []models.Dataset) (*problem, error) {
	if len(datasets) == 0 {
		return nil, errors.New("no datasets")
	}

	p := &problem{}
	used := map[string]bool{}
	for _, ds := range datasets {
		set, err := newFitSet(ds)
		if err != nil {
			return nil, err
		}
		for _, m := range set.paths {
			for _, name := range m.idents() {
				used[name] = true
			}
		}
		p.sets = append(p.sets, set)
		p.size += len(set.k) * len(set.weights)
	}

	// parameters no expression references stay at their initial value
	for i, prm := range params.Params() {
		p.names = append(p.names, prm.Name)
		p.values = append(p.values, prm.Value)
		if prm.Vary && used[prm.Name] {
			p.vary = append(p.vary, i)
		}
	}
	if p.size < len(p.vary) {
		return nil, fmt.Errorf("%d points cannot determine %d variables", p.size, len(p.vary))
	}

	// every expression must resolve before the solver starts
	vars := p.paramMap(p.x0())
	for _, set := range p.sets {
		for _, m := range set.paths {
			if _, err := m.evaluate(vars); err != nil {
				return nil, fmt.Errorf("%s: %w", m.key, err)
			}
		}
	}
	return p, nil
}

func newFitSet(ds models.Dataset) (*fitSet, error) {
	tr := ds.Transform
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	sp := ds.Spectrum
	if sp.Len() == 0 || len(sp.Chi) != sp.Len() {
		return nil, fmt.Errorf("spectrum %q: %d k points, %d chi points", sp.Name, len(sp.K), len(sp.Chi))
	}
	if len(ds.Paths) == 0 {
		return nil, errors.New("dataset has no paths")
	}

	set := &fitSet{
		hashkey: utils.Hashkey(),
		weights: tr.KWeights,
	}

	win := Window(tr.Window, sp.K, tr.KMin, tr.KMax, tr.Dk)
	for i, w := range win {
		if w <= 0 {
			continue
		}
		set.k = append(set.k, sp.K[i])
		set.win = append(set.win, w)
		set.data = append(set.data, sp.Chi[i])
	}
	if len(set.k) == 0 {
		return nil, fmt.Errorf("spectrum %q has no points in k range [%g, %g]", sp.Name, tr.KMin, tr.KMax)
	}

	set.bounds = fit.Bounds{
		KMin: math.Max(tr.KMin, sp.K[0]),
		KMax: math.Min(tr.KMax, sp.K[sp.Len()-1]),
		RMin: tr.RMin,
		RMax: tr.RMax,
	}
	set.nidp = 2 * (set.bounds.KMax - set.bounds.KMin) * (set.bounds.RMax - set.bounds.RMin) / math.Pi

	for _, bp := range ds.Paths {
		m, err := newPathModel(bp, utils.Hashkey())
		if err != nil {
			return nil, err
		}
		set.paths = append(set.paths, m)
	}
	return set, nil
}

// x0 returns the initial values of the varied parameters.
func (p *problem) x0() []float64 {
	x := make([]float64, len(p.vary))
	for i, idx := range p.vary {
		x[i] = p.values[idx]
	}
	return x
}

// paramMap merges the varied values x into the full parameter set.
func (p *problem) paramMap(x []float64) map[string]float64 {
	m := make(map[string]float64, len(p.names))
	for i, name := range p.names {
		m[name] = p.values[i]
	}
	for i, idx := range p.vary {
		m[p.names[idx]] = x[i]
	}
	return m
}

// residual writes win * k^w * (data - model) for every set and k-weight.
func (p *problem) residual(dst, x []float64) {
	vars := p.paramMap(x)
	off := 0
	for _, set := range p.sets {
		model := make([]float64, len(set.k))
		for _, m := range set.paths {
			pp, err := m.evaluate(vars)
			if err != nil {
				// expressions were checked in newProblem
				panic(err)
			}
			m.addChi(model, set.k, pp)
		}
		for _, w := range set.weights {
			for i, k := range set.k {
				dst[off] = set.win[i] * math.Pow(k, w) * (set.data[i] - model[i])
				off++
			}
		}
	}
}

func (p *problem) sumSq(x []float64) float64 {
	r := make([]float64, p.size)
	p.residual(r, x)
	return floats.Dot(r, r)
}

// stats are the goodness-of-fit numbers published with the result.
type stats struct {
	chiSquare float64
	reduced   float64
	rfactor   float64
}

func (p *problem) stats(x []float64) stats {
	r := make([]float64, p.size)
	p.residual(r, x)
	ss := floats.Dot(r, r)

	var norm, nidp float64
	for _, set := range p.sets {
		nidp += set.nidp
		for _, w := range set.weights {
			for i, k := range set.k {
				d := set.win[i] * math.Pow(k, w) * set.data[i]
				norm += d * d
			}
		}
	}

	st := stats{chiSquare: ss * nidp / float64(p.size)}
	st.reduced = st.chiSquare / math.Max(nidp-float64(len(p.vary)), 1)
	st.rfactor = math.NaN()
	if norm > 0 {
		st.rfactor = ss / norm
	}
	return st
}

// covariance estimates the covariance of the varied parameters from the
// residual Jacobian at x. It returns nil when JᵀJ is singular.
func (p *problem) covariance(x []float64) *mat.Dense {
	n := len(x)
	if n == 0 || p.size <= n {
		return nil
	}
	jac := mat.NewDense(p.size, n, nil)
	fd.Jacobian(jac, p.residual, x, nil)

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var cov mat.Dense
	if err := cov.Inverse(&jtj); err != nil {
		return nil
	}
	cov.Scale(p.sumSq(x)/float64(p.size-n), &cov)
	return &cov
}

// propagate returns the standard error of f at x, or nil when f does not
// depend on any varied parameter or no covariance is available.
func propagate(f func([]float64) float64, x []float64, cov *mat.Dense) *float64 {
	if cov == nil || len(x) == 0 {
		return nil
	}
	g := fd.Gradient(nil, f, x, nil)
	if floats.Norm(g, 2) == 0 {
		return nil
	}
	gv := mat.NewVecDense(len(g), g)
	v := mat.Inner(gv, cov, gv)
	if v < 0 || math.IsNaN(v) {
		return nil
	}
	s := math.Sqrt(v)
	return &s
}
