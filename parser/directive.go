package parser

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
)

// directive applies one preprocessor line that is not the continuation of
// an #if chain. Conditionals consume the rest of their chain from s.
func (f *fileParser) directive(s *span.Span, d directive, out *[]ast.Item) {
	switch d.Name.Name {
	case "":
		// Null directive or a line marker.

	case "include", "include_next":
		inc, err := includeItem(d)
		if err != nil {
			f.sink.Add(diag.StagePreproc, err)
			return
		}
		*out = append(*out, inc)
		if f.include != nil {
			f.include(inc.Path, inc.System, inc.At)
		}

	case "define":
		def, doc, err := f.define(d)
		if err != nil {
			f.sink.Add(diag.StagePreproc, err)
			return
		}
		if report := f.state.Define(def); report != nil {
			f.sink.Report(report)
		}
		f.add(out, def)
		if doc != nil {
			if err := attachPostfix(def, doc); err != nil {
				f.sink.Add(diag.StageParse, err)
			}
		}

	case "undef":
		args := d.Args
		name, ok := ident(&args)
		if !ok {
			f.sink.Errorf(diag.StagePreproc, d.At, "#undef expects a macro name")
			return
		}
		f.state.Undefine(name.Name)
		*out = append(*out, &ast.Undef{At: d.At, Name: name})

	case "if", "ifdef", "ifndef":
		f.conditional(s, d, out)

	case "pragma", "line", "ident", "sccs":
		*out = append(*out, &ast.Pragma{At: d.At, Text: d.At.Text()})

	case "error", "warning":
		msg := &ast.Message{At: d.At, Error: d.Name.Name == "error", Text: d.Args.Text()}
		switch {
		case msg.Error && f.state.Depth() == 0:
			f.sink.Errorf(diag.StagePreproc, d.At, "#error %s", msg.Text)
		case msg.Error:
			f.sink.Notef(diag.StagePreproc, d.At, "#error reached under a target condition: %s", msg.Text)
		default:
			f.sink.Warnf(diag.StagePreproc, d.At, "#warning %s", msg.Text)
		}
		*out = append(*out, msg)

	default:
		f.sink.Errorf(diag.StagePreproc, d.At, "unknown directive #%s", d.Name.Name)
	}
}

func includeItem(d directive) (*ast.Include, error) {
	text := d.Args.Text()
	var end int
	system := false
	switch {
	case strings.HasPrefix(text, "<"):
		end = strings.IndexByte(text, '>')
		system = true
	case strings.HasPrefix(text, `"`):
		end = strings.IndexByte(text[1:], '"') + 1
	default:
		return nil, diag.Errorf(diag.StagePreproc, d.Args, "#%s expects <path> or \"path\"", d.Name.Name)
	}
	if end <= 0 {
		return nil, diag.Errorf(diag.StagePreproc, d.Args, "unterminated include path")
	}
	return &ast.Include{At: d.At, Path: text[1:end], System: system}, nil
}

// define parses a #define line. A trailing "/**< ... */" comment is split
// off the body and returned for the caller to attach.
func (f *fileParser) define(d directive) (*ast.Define, *ast.DocComment, error) {
	args := d.Args
	name, ok := ident(&args)
	if !ok {
		return nil, nil, diag.Errorf(diag.StagePreproc, d.At, "#define expects a macro name")
	}
	def := ast.Define{At: d.At, Name: name}

	// Only a parenthesis touching the name opens a parameter list.
	if args.HasPrefix("(") {
		def.FuncLike = true
		args = args.Skip(1)
		if err := f.macroParams(&args, &def); err != nil {
			return nil, nil, err
		}
	}

	body := args.TrimWSC()
	var doc *ast.DocComment
	if i := strings.Index(body.Text(), "/**<"); i >= 0 && body.HasSuffix("*/") {
		doc, _, _ = readDoc(body.Skip(i))
		body = body.Slice(0, i).TrimWSC()
	}
	def.Body = body

	if def.FuncLike {
		def.Value = ast.DefineValue{Kind: ast.DefineOther, Raw: body}
	} else {
		def.Value = f.defineValue(body)
	}
	return &def, doc, nil
}

func (f *fileParser) macroParams(s *span.Span, def *ast.Define) error {
	if _, ok := punct(s, ")"); ok {
		return nil
	}
	for {
		if _, ok := punct(s, "..."); ok {
			def.Variadic = true
			_, err := expect(s, ")")
			return err
		}
		p, ok := ident(s)
		if !ok {
			return diag.Errorf(diag.StagePreproc, trivia(*s).Head(), "expected a macro parameter name, found %q", firstToken(*s))
		}
		def.Params = append(def.Params, p)
		if _, ok := punct(s, "..."); ok {
			def.Variadic = true
		}
		if _, ok := punct(s, ","); ok {
			continue
		}
		_, err := expect(s, ")")
		return err
	}
}

// defineValue classifies a macro body as empty, an expression, a type,
// both, or none of these.
func (f *fileParser) defineValue(body span.Span) ast.DefineValue {
	if atEnd(body) {
		return ast.DefineValue{Kind: ast.DefineEmpty, Raw: body}
	}
	if strings.Contains(body.Text(), "#") {
		return ast.DefineValue{Kind: ast.DefineOther, Raw: body}
	}

	x, xerr := whole(body, f.expr, "expression")
	t, terr := whole(body, f.typeName, "type")
	switch {
	case xerr == nil && terr == nil:
		if id, ok := x.(*ast.IdentExpr); ok && f.isTypeName(id.Name) {
			return ast.DefineValue{Kind: ast.DefineType, Type: t, Raw: body}
		}
		return ast.DefineValue{Kind: ast.DefineAmbiguous, Expr: x, Type: t, Raw: body}
	case xerr == nil:
		return ast.DefineValue{Kind: ast.DefineExpr, Expr: x, Raw: body}
	case terr == nil:
		return ast.DefineValue{Kind: ast.DefineType, Type: t, Raw: body}
	}
	return ast.DefineValue{Kind: ast.DefineOther, Raw: body}
}
