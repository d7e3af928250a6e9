package parser

import (
	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/preproc"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// conditional parses an #if chain at item level. Arms that can never be
// taken are skipped as text, an arm that is always taken is parsed in place,
// and target-dependent arms become a ConditionalBlock.
func (f *fileParser) conditional(s *span.Span, d directive, out *[]ast.Item) {
	block := ast.ConditionalBlock{}
	start, first := d.At, d.Name.Name
	earlier := value.False()
	taken, sawElse := false, false

	f.depth++
	defer func() { f.depth-- }()

	for {
		kind, local, guard := preproc.AlwaysFalse, value.False(), ast.Expr(nil)
		if !taken {
			c, x, err := f.armCond(d)
			if err != nil {
				f.sink.Add(diag.StagePreproc, err)
			} else {
				local = value.And(c, value.Not(earlier))
				earlier = value.Or(earlier, c)
				guard = x
				kind = f.state.GuardOf(local).Kind
				if kind == preproc.AlwaysTrue && len(block.Arms) > 0 {
					kind = preproc.Target
				}
			}
		}

		var stop directive
		var ok bool
		switch kind {
		case preproc.AlwaysFalse:
			stop, ok = f.skipArm(s)
		case preproc.AlwaysTrue:
			taken = true
			stop, ok = f.items(s, out)
		default:
			arm := ast.Arm{At: d.At, Directive: d.Name.Name, Guard: guard, Cond: local}
			f.state.Push(local)
			stop, ok = f.items(s, &arm.Items)
			f.state.Pop()
			arm.At = d.At.Until(*s)
			block.Arms = append(block.Arms, &arm)
		}

		if !ok {
			f.sink.Errorf(diag.StagePreproc, start, "unterminated #%s", first)
			break
		}
		_, rest := readDirective(*s)
		*s = rest

		if stop.Name.Name == "endif" {
			block.At = span.Join(start, stop.At)
			break
		}
		if sawElse {
			f.sink.Errorf(diag.StagePreproc, stop.At, "#%s after #else", stop.Name.Name)
		}
		sawElse = stop.Name.Name == "else"
		d = stop
	}

	if len(block.Arms) > 0 {
		if !block.At.IsValid() {
			block.At = start
		}
		*out = append(*out, &block)
		f.last = &block
	}
}

// armCond evaluates the guard of an #if, #ifdef, #ifndef, #elif, #elifdef,
// #elifndef or #else line.
func (f *fileParser) armCond(d directive) (value.DefineState, ast.Expr, error) {
	var x ast.Expr
	switch d.Name.Name {
	case "else":
		return value.True(), nil, nil

	case "ifdef", "ifndef", "elifdef", "elifndef":
		args := d.Args
		name, ok := ident(&args)
		if !ok {
			return value.False(), nil, diag.Errorf(diag.StagePreproc, d.At, "#%s expects a macro name", d.Name.Name)
		}
		x = &ast.Defined{At: name.At, Name: name}
		if d.Name.Name == "ifndef" || d.Name.Name == "elifndef" {
			x = &ast.Unary{At: d.Args, Op: "!", OpAt: d.Name.At, X: x}
		}

	default:
		f.guard = true
		var err error
		x, err = whole(d.Args, f.expr, "condition")
		f.guard = false
		if err != nil {
			return value.False(), nil, err
		}
	}

	c, err := eval.NewGuard(f.state).Truth(x)
	if err != nil {
		return value.False(), x, err
	}
	return c, x, nil
}

// skipArm skips the text of an arm that is never taken, stopping at the
// #elif, #else or #endif that ends it. Nested conditionals are skipped
// whole.
func (f *fileParser) skipArm(s *span.Span) (directive, bool) {
	depth := 0
	for !s.IsEmpty() {
		line := lineStart(*s)
		if !line.HasPrefix("#") {
			*s = skipLine(line)
			continue
		}

		d, rest := readDirective(line)
		switch d.Name.Name {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			if depth == 0 {
				*s = line
				return d, true
			}
			depth--
		case "elif", "elifdef", "elifndef", "else":
			if depth == 0 {
				*s = line
				return d, true
			}
		}
		*s = rest
	}
	return directive{}, false
}

// condFrame tracks one #if chain inside a struct or enum body.
type condFrame struct {
	at      span.Span
	earlier value.DefineState
	taken   bool
	pushed  bool
	local   value.DefineState
	arm     *ast.Arm
}

type condStack []*condFrame

// arm returns the innermost target-dependent arm, whose Cond covers every
// enclosing one.
func (c condStack) arm() *ast.Arm {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].pushed {
			return c[i].arm
		}
	}
	return nil
}

// bodyDirective handles a directive between members of a struct or enum
// body. Target-dependent arms are only allowed where allowTarget is set;
// the members they hold are tagged with the arm.
func (f *fileParser) bodyDirective(s *span.Span, conds *condStack, allowTarget bool) error {
	d, rest := readDirective(*s)
	*s = rest

	switch d.Name.Name {
	case "if", "ifdef", "ifndef":
		fr := &condFrame{at: d.At, earlier: value.False()}
		*conds = append(*conds, fr)
		return f.bodyArm(s, d, conds, allowTarget)

	case "elif", "elifdef", "elifndef", "else":
		if len(*conds) == 0 {
			return diag.Errorf(diag.StagePreproc, d.At, "#%s without #if", d.Name.Name)
		}
		fr := (*conds)[len(*conds)-1]
		if fr.pushed {
			f.state.Pop()
			fr.pushed, fr.arm = false, nil
		}
		if fr.taken {
			if _, ok := f.skipArm(s); !ok {
				return diag.Errorf(diag.StagePreproc, fr.at, "unterminated #if")
			}
			return nil
		}
		return f.bodyArm(s, d, conds, allowTarget)

	case "endif":
		if len(*conds) == 0 {
			return diag.Errorf(diag.StagePreproc, d.At, "#endif without #if")
		}
		fr := (*conds)[len(*conds)-1]
		if fr.pushed {
			f.state.Pop()
		}
		*conds = (*conds)[:len(*conds)-1]
		return nil

	case "define", "undef", "pragma", "line", "error", "warning", "":
		var discard []ast.Item
		f.directive(s, d, &discard)
		return nil
	}
	return diag.Errorf(diag.StagePreproc, d.At, "#%s is not supported inside a declaration body", d.Name.Name)
}

func (f *fileParser) bodyArm(s *span.Span, d directive, conds *condStack, allowTarget bool) error {
	fr := (*conds)[len(*conds)-1]
	c, guard, err := f.armCond(d)
	if err != nil {
		return err
	}
	local := value.And(c, value.Not(fr.earlier))
	fr.earlier = value.Or(fr.earlier, c)

	g := f.state.GuardOf(local)
	switch g.Kind {
	case preproc.AlwaysFalse:
		if _, ok := f.skipArm(s); !ok {
			return diag.Errorf(diag.StagePreproc, fr.at, "unterminated #if")
		}
	case preproc.AlwaysTrue:
		fr.taken = true
	default:
		if !allowTarget {
			return diag.Errorf(diag.StagePreproc, d.At, "target-dependent #%s inside a struct body is not supported", d.Name.Name).
				WithNote("condition: %s", g.Cond)
		}
		var all []value.DefineState
		for _, outer := range (*conds)[:len(*conds)-1] {
			if outer.pushed {
				all = append(all, outer.local)
			}
		}
		fr.local = g.Cond
		fr.pushed = true
		fr.arm = &ast.Arm{At: d.At, Directive: d.Name.Name, Guard: guard, Cond: value.And(append(all, g.Cond)...)}
		f.state.Push(g.Cond)
	}
	return nil
}
