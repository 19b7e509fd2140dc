package goexafs

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// Expr is a compiled arithmetic expression over named variables, such as
// "alpha * reff". Only + - * / parentheses, numbers and identifiers are
// allowed.
type Expr struct {
	src  string
	root ast.Expr
}

// ParseExpr compiles src.
func ParseExpr(src string) (*Expr, error) {
	root, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	if err := check(root); err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	return &Expr{src: src, root: root}, nil
}

// String returns the source text.
func (e *Expr) String() string { return e.src }

// Eval evaluates the expression with vars.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	return eval(e.root, vars)
}

// Idents returns the variable names the expression references.
func (e *Expr) Idents() []string {
	var names []string
	seen := map[string]bool{}
	ast.Inspect(e.root, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
		return true
	})
	return names
}

func check(n ast.Expr) error {
	switch n := n.(type) {
	case *ast.Ident:
		return nil
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return fmt.Errorf("unsupported literal %s", n.Value)
		}
		return nil
	case *ast.ParenExpr:
		return check(n.X)
	case *ast.UnaryExpr:
		if n.Op != token.ADD && n.Op != token.SUB {
			return fmt.Errorf("unsupported operator %s", n.Op)
		}
		return check(n.X)
	case *ast.BinaryExpr:
		switch n.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO:
		default:
			return fmt.Errorf("unsupported operator %s", n.Op)
		}
		if err := check(n.X); err != nil {
			return err
		}
		return check(n.Y)
	default:
		return fmt.Errorf("unsupported syntax %T", n)
	}
}

func eval(n ast.Expr, vars map[string]float64) (float64, error) {
	switch n := n.(type) {
	case *ast.Ident:
		v, ok := vars[n.Name]
		if !ok {
			return 0, fmt.Errorf("undefined variable %q", n.Name)
		}
		return v, nil
	case *ast.BasicLit:
		return strconv.ParseFloat(n.Value, 64)
	case *ast.ParenExpr:
		return eval(n.X, vars)
	case *ast.UnaryExpr:
		v, err := eval(n.X, vars)
		if n.Op == token.SUB {
			v = -v
		}
		return v, err
	case *ast.BinaryExpr:
		x, err := eval(n.X, vars)
		if err != nil {
			return 0, err
		}
		y, err := eval(n.Y, vars)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		default:
			return x / y, nil
		}
	}
	return 0, fmt.Errorf("unsupported syntax %T", n)
}
