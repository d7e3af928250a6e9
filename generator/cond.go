package generator

import (
	"go/build/constraint"

	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// buildLine renders a target condition as a //go:build line.
func (g *Generator) buildLine(c value.DefineState, at span.Span) (string, error) {
	x, err := g.constraintExpr(c, at)
	if err != nil {
		return "", err
	}
	return "//go:build " + x.String(), nil
}

func (g *Generator) constraintExpr(c value.DefineState, at span.Span) (constraint.Expr, error) {
	switch c.Op {
	case value.OpDefined:
		return g.target(c.Name, at)

	case value.OpNotDefined:
		x, err := g.target(c.Name, at)
		if err != nil {
			return nil, err
		}
		return &constraint.NotExpr{X: x}, nil

	case value.OpAnd, value.OpOr:
		var out constraint.Expr
		for _, a := range c.Args {
			x, err := g.constraintExpr(a, at)
			if err != nil {
				return nil, err
			}
			switch {
			case out == nil:
				out = x
			case c.Op == value.OpAnd:
				out = &constraint.AndExpr{X: out, Y: x}
			default:
				out = &constraint.OrExpr{X: out, Y: x}
			}
		}
		return out, nil
	}
	return nil, diag.Errorf(diag.StageInternal, at, "condition %s has no build constraint", c)
}

// target returns the parsed build constraint configured for a target macro.
func (g *Generator) target(name string, at span.Span) (constraint.Expr, error) {
	if x, ok := g.targets[name]; ok {
		return x, nil
	}
	text, ok := g.state.Constraint(name)
	if !ok {
		return nil, diag.Errorf(diag.StageEmit, at, "macro %s has no build constraint", name).
			WithNote("map it under 'targets' in the target map")
	}
	x, err := constraint.Parse("//go:build " + text)
	if err != nil {
		return nil, diag.Errorf(diag.StageEmit, at, "target %s maps to an invalid build constraint %q: %v", name, text, err)
	}
	g.targets[name] = x
	return x, nil
}
