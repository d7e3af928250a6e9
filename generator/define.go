package generator

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/value"
)

// emitDefine writes a macro as a constant, a type alias or a generic
// function. Macros that fold to an error are reported and left out.
func (g *Generator) emitDefine(u *unit, d *ast.Define, cond value.DefineState) {
	name := d.Name.Name
	if g.skipMacro(name) {
		return
	}
	s, ok := g.syms.ordinary[name]
	if !ok || s.kind != symMacro {
		return
	}
	o := g.output(u, cond, d.At)
	if o == nil {
		return
	}

	if d.FuncLike {
		g.emitMacroFunc(o, s.goName, d)
		return
	}

	switch d.Value.Kind {
	case ast.DefineEmpty:
		return
	case ast.DefineType:
		goType, err := g.goType(d.Value.Type)
		if err != nil {
			if g.first(o, s.goName) {
				notTranslated(o, name, "type macro", d.At)
			}
			return
		}
		if g.first(o, s.goName) {
			o.doc(d.Doc, "")
			o.printf("type %s = %s\n\n", s.goName, goType)
		}
		return
	case ast.DefineOther:
		if g.first(o, s.goName) {
			notTranslated(o, name, "macro", d.At)
		}
		return
	}

	var (
		v   value.Value
		err error
	)
	g.env.under(cond, func() {
		v, ok, err = eval.New(g.env).Define(d)
	})
	switch {
	case err != nil:
		g.sink.Add(diag.StageEval, err)
		return
	case !ok:
		if g.first(o, s.goName) {
			notTranslated(o, name, "macro", d.At)
		}
		return
	}

	if v.Kind == value.Target {
		g.emitTargetConst(u, d, s.goName, cond, v.Cond)
		return
	}
	if !g.first(o, s.goName) {
		return
	}
	o.doc(d.Doc, "")
	switch typ := v.TypeName(); {
	case v.Kind == value.Verbatim && typ == "", v.Kind == value.String, v.Kind == value.Bool:
		o.printf("const %s = %s\n\n", s.goName, v.GoLiteral())
	default:
		o.printf("const %s %s = %s\n\n", s.goName, typ, v.GoLiteral())
	}
}

// emitTargetConst writes a macro whose value depends on the target as a
// boolean constant in the files for both outcomes.
func (g *Generator) emitTargetConst(u *unit, d *ast.Define, name string, cond, target value.DefineState) {
	for _, c := range []struct {
		cond value.DefineState
		lit  string
	}{
		{value.And(cond, target), "true"},
		{value.And(cond, value.Not(target)), "false"},
	} {
		o := g.output(u, c.cond, d.At)
		if o == nil || !g.first(o, name) {
			continue
		}
		o.doc(d.Doc, "")
		o.printf("const %s = %s\n\n", name, c.lit)
	}
}

// emitMacroFunc writes a function-like macro as a generic Go function when
// its body is integer arithmetic over its parameters.
func (g *Generator) emitMacroFunc(o *output, name string, d *ast.Define) {
	if !g.first(o, name) {
		return
	}
	body, ok := g.macroBody(d)
	if !ok {
		notTranslated(o, d.Name.Name, "function-like macro", d.At)
		return
	}

	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = paramName(p.Name, i)
	}
	o.doc(d.Doc, "")
	o.printf("func %s[T cInteger](%s T) T {\n\treturn %s\n}\n\n", name, strings.Join(params, ", "), body)
}

// macroBody renders the body of a function-like macro as a Go expression,
// or reports false when the body is anything but integer arithmetic.
func (g *Generator) macroBody(d *ast.Define) (string, bool) {
	if len(d.Params) == 0 || d.Variadic {
		return "", false
	}
	dv, err := g.state.Reparse(d)
	if err != nil || dv.Kind != ast.DefineExpr {
		return "", false
	}
	names := make(map[string]string, len(d.Params))
	for i, p := range d.Params {
		names[p.Name] = paramName(p.Name, i)
	}
	var b strings.Builder
	if !arith(&b, dv.Expr, names) {
		return "", false
	}
	return b.String(), true
}

var arithOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
}

// arith writes x as Go source. Literals must fit every integer type, so
// they are limited to 0 through 127.
func arith(b *strings.Builder, x ast.Expr, params map[string]string) bool {
	switch x := x.(type) {
	case *ast.Literal:
		n, ok := x.Value.Int()
		if !ok || n < 0 || n > 127 {
			return false
		}
		b.WriteString(itoa(int(n)))
		return true

	case *ast.IdentExpr:
		p, ok := params[x.Name]
		if ok {
			b.WriteString(p)
		}
		return ok

	case *ast.Paren:
		b.WriteString("(")
		if !arith(b, x.X, params) {
			return false
		}
		b.WriteString(")")
		return true

	case *ast.Unary:
		switch x.Op {
		case "-", "+":
			b.WriteString(x.Op)
		case "~":
			b.WriteString("^")
		default:
			return false
		}
		return arith(b, x.X, params)

	case *ast.Binary:
		if !arithOps[x.Op] {
			return false
		}
		if !arith(b, x.X, params) {
			return false
		}
		b.WriteString(" " + x.Op + " ")
		return arith(b, x.Y, params)
	}
	return false
}
