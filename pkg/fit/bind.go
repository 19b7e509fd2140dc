// Package fit binds catalog paths to the shared parameter model and hands
// the assembled dataset to an optimizer.
package fit

import (
	"github.com/kacperjurak/goexafs/pkg/feff"
	"github.com/kacperjurak/goexafs/pkg/models"
)

// Bind attaches the fixed parameter expressions to every catalog entry,
// preserving keys and order. No expression is evaluated here.
func Bind(cat *feff.Catalog) []models.BoundPath {
	paths := cat.Paths()
	bound := make([]models.BoundPath, len(paths))
	for i, p := range paths {
		bound[i] = models.BoundPath{
			Key:  p.Key(),
			Path: p,
			Expr: models.DefaultExpressions(),
		}
	}
	return bound
}
