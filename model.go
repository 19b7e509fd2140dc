package goexafs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/kacperjurak/goexafs/pkg/feff"
	"github.com/kacperjurak/goexafs/pkg/models"
)

// etok converts an energy in eV to k^2 in 1/angstrom^2.
const etok = 0.2624682917

// pathModel evaluates chi(k) of one bound path from its FEFF table.
type pathModel struct {
	key     string
	hashkey string
	reff    float64
	degen   float64

	s02, e0, deltar, sigma2 *Expr

	mag, phase, phc, red, lambda interp.PiecewiseLinear
}

func newPathModel(bp models.BoundPath, hashkey string) (*pathModel, error) {
	tbl, err := feff.ReadPathTable(bp.Path.File)
	if err != nil {
		return nil, err
	}

	m := &pathModel{
		key:     bp.Key,
		hashkey: hashkey,
		reff:    bp.Path.EffectiveLength,
		degen:   bp.Path.Degeneracy,
	}
	for _, e := range []struct {
		dst **Expr
		src string
	}{
		{&m.s02, bp.Expr.S02},
		{&m.e0, bp.Expr.E0},
		{&m.deltar, bp.Expr.DeltaR},
		{&m.sigma2, bp.Expr.Sigma2},
	} {
		if *e.dst, err = ParseExpr(e.src); err != nil {
			return nil, fmt.Errorf("%s: %w", bp.Key, err)
		}
	}

	for _, c := range []struct {
		pl *interp.PiecewiseLinear
		ys []float64
	}{
		{&m.mag, tbl.Mag},
		{&m.phase, tbl.Phase},
		{&m.phc, tbl.RealPhc},
		{&m.red, tbl.RedFactor},
		{&m.lambda, tbl.Lambda},
	} {
		if err := c.pl.Fit(tbl.K, c.ys); err != nil {
			return nil, fmt.Errorf("%s: %w", bp.Key, err)
		}
	}
	return m, nil
}

// pathParams are the evaluated expressions of one path.
type pathParams struct {
	s02, e0, deltar, sigma2 float64
}

// vars extends the fit parameters with the path constants.
func (m *pathModel) vars(params map[string]float64) map[string]float64 {
	vars := make(map[string]float64, len(params)+2)
	for k, v := range params {
		vars[k] = v
	}
	vars["reff"] = m.reff
	vars["degen"] = m.degen
	return vars
}

func (m *pathModel) idents() []string {
	var names []string
	for _, e := range []*Expr{m.s02, m.e0, m.deltar, m.sigma2} {
		names = append(names, e.Idents()...)
	}
	return names
}

func (m *pathModel) evaluate(params map[string]float64) (pathParams, error) {
	vars := m.vars(params)
	var (
		p   pathParams
		err error
	)
	if p.s02, err = m.s02.Eval(vars); err != nil {
		return p, err
	}
	if p.e0, err = m.e0.Eval(vars); err != nil {
		return p, err
	}
	if p.deltar, err = m.deltar.Eval(vars); err != nil {
		return p, err
	}
	if p.sigma2, err = m.sigma2.Eval(vars); err != nil {
		return p, err
	}
	return p, nil
}

// addChi adds the path contribution on the k grid to dst.
func (m *pathModel) addChi(dst, k []float64, p pathParams) {
	r := m.reff + p.deltar
	if r <= 0 {
		return
	}
	for i, kk := range k {
		k2 := kk*kk - etok*p.e0
		if k2 <= 0 {
			continue
		}
		q := math.Sqrt(k2)
		amp := p.s02 * m.degen * m.mag.Predict(q) * m.red.Predict(q) / (q * r * r)
		damp := math.Exp(-2 * k2 * p.sigma2)
		if lam := m.lambda.Predict(q); lam > 0 {
			damp *= math.Exp(-2 * r / lam)
		}
		dst[i] += amp * damp * math.Sin(2*q*r+m.phase.Predict(q)+m.phc.Predict(q))
	}
}
