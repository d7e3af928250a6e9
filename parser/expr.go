package parser

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
)

// precedence of the binary operators; higher binds tighter. "?" stands for
// the conditional operator.
var precedence = map[string]int{
	",":  1,
	"?":  3,
	"||": 4,
	"&&": 5,
	"|":  6,
	"^":  7,
	"&":  8,
	"==": 9, "!=": 9,
	"<": 10, ">": 10, "<=": 10, ">=": 10,
	"<<": 11, ">>": 11,
	"+": 12, "-": 12,
	"*": 13, "/": 13, "%": 13,
}

func (f *fileParser) expr(s *span.Span) (ast.Expr, error) {
	return f.binary(s, 1)
}

func (f *fileParser) assign(s *span.Span) (ast.Expr, error) {
	return f.binary(s, 3)
}

func (f *fileParser) binary(s *span.Span, min int) (ast.Expr, error) {
	if x, ok, err := f.castAmbiguity(s, min); err != nil || ok {
		return x, err
	}
	x, err := f.unary(s)
	if err != nil || x == nil {
		return nil, err
	}
	return f.binaryRest(s, x, min)
}

func (f *fileParser) binaryRest(s *span.Span, x ast.Expr, min int) (ast.Expr, error) {
	for {
		op := peekOp(*s)
		prec, ok := precedence[op]
		if !ok || prec < min {
			return x, nil
		}
		opAt, _ := punct(s, op)

		if op == "?" {
			then, err := f.expr(s)
			if err != nil {
				return nil, err
			}
			if then == nil {
				return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected expression after '?'")
			}
			if _, err := expect(s, ":"); err != nil {
				return nil, err
			}
			els, err := f.binary(s, 3)
			if err != nil {
				return nil, err
			}
			if els == nil {
				return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected expression after ':'")
			}
			x = &ast.Ternary{At: span.Join(x.Span(), els.Span()), Cond: x, Then: then, Else: els}
			continue
		}

		y, err := f.binary(s, prec+1)
		if err != nil {
			return nil, err
		}
		if y == nil {
			return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected operand after %q", op)
		}
		x = &ast.Binary{At: span.Join(x.Span(), y.Span()), Op: op, OpAt: opAt, X: x, Y: y}
	}
}

// castAmbiguity handles "(NAME) op X" where NAME is not known to be a type
// and op is one of + - * &. It reads the input both as a cast of a unary
// expression and as a parenthesized name in a binary expression. When both
// readings consume the same input the result is Ambiguous; otherwise the
// reading that goes further wins.
func (f *fileParser) castAmbiguity(s *span.Span, min int) (ast.Expr, bool, error) {
	start := trivia(*s)
	c := start
	if _, ok := punct(&c, "("); !ok {
		return nil, false, nil
	}
	id, ok := ident(&c)
	if !ok || !f.castCandidate(id.Name) {
		return nil, false, nil
	}
	if _, ok := punct(&c, ")"); !ok {
		return nil, false, nil
	}
	switch op := peekOp(c); op {
	case "+", "-", "*", "&":
		if precedence[op] < min {
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}

	asCast := c
	var castX ast.Expr
	operand, cerr := f.unary(&asCast)
	if cerr == nil && operand != nil {
		cast := &ast.Cast{At: start.Until(asCast), Type: &ast.Named{At: id.At, Name: id.Name}, X: operand}
		castX, cerr = f.binaryRest(&asCast, cast, min)
	}

	asBin := c
	paren := &ast.Paren{At: start.Until(c), X: &ast.IdentExpr{At: id.At, Name: id.Name}}
	binX, berr := f.binaryRest(&asBin, paren, min)

	switch {
	case castX == nil || cerr != nil:
		if berr != nil {
			return nil, true, berr
		}
		*s = asBin
		return binX, true, nil
	case berr != nil || asCast.Start > asBin.Start:
		*s = asCast
		return castX, true, nil
	case asBin.Start > asCast.Start:
		*s = asBin
		return binX, true, nil
	}
	*s = asBin
	return &ast.Ambiguous{At: start.Until(asBin), Alts: []ast.Alternative{{Expr: castX}, {Expr: binX}}}, true, nil
}

// castCandidate reports whether a parenthesized name could be either a
// type or a value.
func (f *fileParser) castCandidate(name string) bool {
	if keywords[name] || f.isTypeName(name) || f.params[name] {
		return false
	}
	for _, b := range f.state.Macros(name) {
		if !b.Define.FuncLike && b.Define.Value.Kind == ast.DefineExpr {
			return false
		}
	}
	return true
}

func (f *fileParser) unary(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	switch op := peekOp(start); op {
	case "+", "-", "!", "~", "*", "&", "++", "--":
		opAt, _ := punct(s, op)
		x, err := f.unary(s)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected operand after %q", op)
		}
		return &ast.Unary{At: start.Until(*s), Op: op, OpAt: opAt, X: x}, nil

	case "(":
		x, err := f.cast(s)
		if err != nil || x != nil {
			return x, err
		}
	}

	switch peekIdent(start) {
	case "sizeof":
		return f.sizeOf(s)
	case "defined":
		if f.guard {
			return f.defined(s)
		}
	case "__has_include", "__has_include_next":
		if f.guard {
			return f.hasInclude(s)
		}
	case "__asm__", "__asm", "asm":
		return f.asm(s)
	}
	return f.postfix(s)
}

// cast parses "(type) operand". A parenthesized name that is not known to
// be a type is a cast only when an operand follows directly.
func (f *fileParser) cast(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	c := start
	punct(&c, "(")
	typ, err := f.typeName(&c)
	if err != nil || typ == nil {
		return nil, nil
	}
	if _, ok := punct(&c, ")"); !ok {
		return nil, nil
	}
	if n, ok := typ.(*ast.Named); ok && !f.isTypeName(n.Name) && !startsOperand(c) {
		return nil, nil
	}
	x, err := f.unary(&c)
	if err != nil || x == nil {
		return nil, err
	}
	*s = c
	return &ast.Cast{At: start.Until(c), Type: typ, X: x}, nil
}

// startsOperand reports whether the next token can only begin an operand.
func startsOperand(s span.Span) bool {
	text := trivia(s).Text()
	if text == "" {
		return false
	}
	switch c := text[0]; {
	case isDigit(c), c == '\'', c == '"', c == '(', c == '~', c == '!':
		return !strings.HasPrefix(text, "!=")
	case isIdentStart(c):
		name := text[:identLen(text)]
		return !keywords[name] || name == "sizeof"
	}
	return false
}

func (f *fileParser) postfix(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	x, err := f.primary(s)
	if err != nil || x == nil {
		return nil, err
	}
	for {
		switch op := peekOp(*s); op {
		case "(":
			punct(s, "(")
			args, err := f.args(s)
			if err != nil {
				return nil, err
			}
			x = &ast.Call{At: start.Until(*s), Fn: x, Args: args}

		case "[":
			punct(s, "[")
			idx, err := f.expr(s)
			if err != nil {
				return nil, err
			}
			if idx == nil {
				return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected index expression")
			}
			if _, err := expect(s, "]"); err != nil {
				return nil, err
			}
			x = &ast.Index{At: start.Until(*s), X: x, Index: idx}

		case ".", "->":
			punct(s, op)
			name, ok := ident(s)
			if !ok {
				return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected member name after %q", op)
			}
			x = &ast.Member{At: start.Until(*s), X: x, Arrow: op == "->", Name: name}

		case "++", "--":
			punct(s, op)
			x = &ast.PostOp{At: start.Until(*s), Op: op, X: x}

		default:
			return x, nil
		}
	}
}

// args parses call arguments after the opening parenthesis. An argument
// that is not an expression may be a type, as in macros that take one.
func (f *fileParser) args(s *span.Span) ([]ast.Expr, error) {
	out := []ast.Expr{}
	if _, ok := punct(s, ")"); ok {
		return out, nil
	}
	for {
		a, err := f.arg(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
		if _, ok := punct(s, ","); ok {
			continue
		}
		if _, err := expect(s, ")"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (f *fileParser) arg(s *span.Span) (ast.Expr, error) {
	endsArg := func(c span.Span) bool {
		op := peekOp(c)
		return op == "," || op == ")"
	}

	c := *s
	x, err := f.assign(&c)
	if err == nil && x != nil && endsArg(c) {
		*s = c
		return x, nil
	}

	start := trivia(*s)
	tc := *s
	if t, terr := f.typeName(&tc); terr == nil && t != nil && endsArg(tc) {
		*s = tc
		return &ast.TypeArg{At: start.Until(tc), Type: t}, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, diag.Errorf(diag.StageParse, start.Head(), "expected an argument, found %q", firstToken(*s))
}

func (f *fileParser) primary(s *span.Span) (ast.Expr, error) {
	if lit, err := number(s); err != nil {
		return nil, err
	} else if lit != nil {
		return lit, nil
	}
	if lit, err := charLiteral(s); err != nil {
		return nil, err
	} else if lit != nil {
		return lit, nil
	}
	if lit, err := stringLiteral(s); err != nil {
		return nil, err
	} else if lit != nil {
		return lit, nil
	}

	start := trivia(*s)
	switch peekOp(start) {
	case "(":
		punct(s, "(")
		x, err := f.expr(s)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected expression after '('")
		}
		if _, err := expect(s, ")"); err != nil {
			return nil, err
		}
		return &ast.Paren{At: start.Until(*s), X: x}, nil

	case "{":
		return f.braced(s)
	}

	if name := peekIdent(start); name != "" && !keywords[name] {
		id, _ := ident(s)
		return &ast.IdentExpr{At: id.At, Name: id.Name}, nil
	}
	return nil, nil
}

func (f *fileParser) braced(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	punct(s, "{")
	list := ast.ArrayValues{Elems: []ast.Expr{}}
	for {
		if _, ok := punct(s, "}"); ok {
			list.At = start.Until(*s)
			return &list, nil
		}
		x, err := f.assign(s)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected initializer element, found %q", firstToken(*s))
		}
		list.Elems = append(list.Elems, x)
		if _, ok := punct(s, ","); !ok && peekOp(*s) != "}" {
			return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected ',' or '}' in initializer list")
		}
	}
}

// sizeOf parses "sizeof(type)" and "sizeof expr". A parenthesized name
// that may be either a type or a variable yields both readings.
func (f *fileParser) sizeOf(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	keyword(s, "sizeof")

	c := *s
	if _, ok := punct(&c, "("); ok {
		if typ, err := f.typeName(&c); err == nil && typ != nil {
			if _, ok := punct(&c, ")"); ok {
				*s = c
				at := start.Until(*s)
				if n, ok := typ.(*ast.Named); ok && !f.isTypeName(n.Name) {
					return &ast.Ambiguous{At: at, Alts: []ast.Alternative{
						{Expr: &ast.SizeOf{At: at, Type: typ}},
						{Expr: &ast.SizeOf{At: at, X: &ast.IdentExpr{At: n.At, Name: n.Name}}},
					}}, nil
				}
				return &ast.SizeOf{At: at, Type: typ}, nil
			}
		}
	}

	x, err := f.unary(s)
	if err != nil {
		return nil, err
	}
	if x == nil {
		return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected operand of sizeof")
	}
	return &ast.SizeOf{At: start.Until(*s), X: x}, nil
}

// defined parses "defined NAME" and "defined(NAME)".
func (f *fileParser) defined(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	keyword(s, "defined")
	_, paren := punct(s, "(")
	name, ok := ident(s)
	if !ok {
		return nil, diag.Errorf(diag.StagePreproc, trivia(*s).Head(), "defined expects a macro name")
	}
	if paren {
		if _, err := expect(s, ")"); err != nil {
			return nil, err
		}
	}
	return &ast.Defined{At: start.Until(*s), Name: name}, nil
}

// hasInclude parses "__has_include(<path>)" and "__has_include("path")".
func (f *fileParser) hasInclude(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	ident(s)
	if _, err := expect(s, "("); err != nil {
		return nil, err
	}

	t := trivia(*s)
	text := t.Text()
	var end int
	system := false
	switch {
	case strings.HasPrefix(text, "<"):
		end = strings.IndexByte(text, '>')
		system = true
	case strings.HasPrefix(text, `"`):
		end = strings.IndexByte(text[1:], '"') + 1
	default:
		return nil, diag.Errorf(diag.StagePreproc, t.Head(), "__has_include expects <path> or \"path\"")
	}
	if end <= 0 {
		return nil, diag.Errorf(diag.StagePreproc, t.Head(), "unterminated path in __has_include")
	}
	path := text[1:end]
	*s = t.Skip(end + 1)
	if _, err := expect(s, ")"); err != nil {
		return nil, err
	}
	return &ast.HasInclude{At: start.Until(*s), Path: path, System: system}, nil
}

func (f *fileParser) asm(s *span.Span) (ast.Expr, error) {
	start := trivia(*s)
	ident(s)
	for {
		switch peekIdent(*s) {
		case "volatile", "__volatile__", "goto", "inline":
			ident(s)
			continue
		}
		break
	}
	if !skipBalanced(s, '(', ')') {
		return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected asm operands")
	}
	at := start.Until(*s)
	return &ast.Asm{At: at, Text: at.Text()}, nil
}
