package parser

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
)

// primitiveWords combine into the builtin arithmetic types.
var primitiveWords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "bool": true,
}

// builtinTypes are typedef names from the C library headers that the
// generator maps without seeing their definition.
var builtinTypes = map[string]bool{
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
	"size_t": true, "ssize_t": true, "intptr_t": true, "uintptr_t": true,
	"ptrdiff_t": true, "wchar_t": true, "va_list": true, "__builtin_va_list": true,
}

// keywords are never identifiers.
var keywords = map[string]bool{
	"auto": true, "break": true, "case": true, "const": true, "continue": true,
	"default": true, "do": true, "else": true, "enum": true, "extern": true,
	"for": true, "goto": true, "if": true, "inline": true, "register": true,
	"restrict": true, "return": true, "sizeof": true, "static": true,
	"struct": true, "switch": true, "typedef": true, "union": true,
	"volatile": true, "while": true, "_Noreturn": true, "_Alignas": true,
	"_Static_assert": true, "__inline": true, "__inline__": true,
	"__restrict": true, "__restrict__": true,
}

func init() {
	for w := range primitiveWords {
		keywords[w] = true
	}
}

// isTypeName reports whether name denotes a type without further context.
func (f *fileParser) isTypeName(name string) bool {
	return f.types[name] || builtinTypes[name]
}

// isAttribute reports whether name is dropped from declarations: a skip
// list identifier, or a macro that expands to nothing or to a compiler
// attribute.
func (f *fileParser) isAttribute(name string) bool {
	if f.skip[name] {
		return true
	}
	d, ok := f.state.Lookup(name)
	if !ok {
		return false
	}
	body := d.Body.TrimWSC()
	return body.IsEmpty() || body.HasPrefix("__attribute__") || body.HasPrefix("__declspec")
}

// attributes consumes attribute-like identifiers and one parenthesized
// argument group after each.
func (f *fileParser) attributes(s *span.Span) {
	for {
		name := peekIdent(*s)
		if name == "" || !f.isAttribute(name) {
			return
		}
		ident(s)
		if peekOp(*s) == "(" {
			skipBalanced(s, '(', ')')
		}
	}
}

type quals struct {
	isConst    bool
	isVolatile bool
}

func (f *fileParser) qualifiers(s *span.Span, q *quals) {
	for {
		f.attributes(s)
		switch peekIdent(*s) {
		case "const":
			q.isConst = true
		case "volatile":
			q.isVolatile = true
		case "restrict", "__restrict", "__restrict__":
		default:
			return
		}
		ident(s)
	}
}

func qualify(t ast.Type, q quals) ast.Type {
	switch t := t.(type) {
	case *ast.Primitive:
		t.Const, t.Volatile = t.Const || q.isConst, t.Volatile || q.isVolatile
	case *ast.Named:
		t.Const, t.Volatile = t.Const || q.isConst, t.Volatile || q.isVolatile
	case *ast.Record:
		t.Const = t.Const || q.isConst
	case *ast.Enum:
		t.Const = t.Const || q.isConst
	}
	return t
}

func (f *fileParser) specifiers(s *span.Span) (ast.Type, error) {
	cur := *s
	var q quals
	f.qualifiers(&cur, &q)
	base, err := f.baseType(&cur)
	if err != nil || base == nil {
		return nil, err
	}
	f.qualifiers(&cur, &q)
	*s = cur
	return qualify(base, q), nil
}

func (f *fileParser) baseType(s *span.Span) (ast.Type, error) {
	name := peekIdent(*s)
	switch {
	case name == "struct" || name == "union":
		return f.record(s)
	case name == "enum":
		return f.enum(s)
	case primitiveWords[name]:
		return f.primitive(s)
	case builtinTypes[name]:
		id, _ := ident(s)
		return &ast.Primitive{At: id.At, Name: name}, nil
	case name != "" && !keywords[name]:
		id, _ := ident(s)
		return &ast.Named{At: id.At, Name: name}, nil
	}
	return nil, nil
}

// primitive reads a run of arithmetic type words and names the result in
// canonical form.
func (f *fileParser) primitive(s *span.Span) (ast.Type, error) {
	start := trivia(*s)
	words := make(map[string]int)
	var q quals
	for {
		c := *s
		f.qualifiers(&c, &q)
		if !primitiveWords[peekIdent(c)] {
			break
		}
		*s = c
		id, _ := ident(s)
		words[id.Name]++
	}
	at := start.Until(*s)
	name, ok := canonical(words)
	if !ok {
		return nil, diag.Errorf(diag.StageParse, at, "invalid combination of type specifiers %q", strings.Join(strings.Fields(at.Text()), " "))
	}
	return qualify(&ast.Primitive{At: at, Name: name}, q), nil
}

func canonical(w map[string]int) (string, bool) {
	unsigned, signed := w["unsigned"] > 0, w["signed"] > 0
	if unsigned && signed {
		return "", false
	}
	prefix := ""
	if unsigned {
		prefix = "unsigned "
	}
	switch {
	case w["void"] > 0:
		return "void", len(w) == 1
	case w["_Bool"] > 0 || w["bool"] > 0:
		return "bool", len(w) == 1
	case w["float"] > 0:
		return "float", len(w) == 1
	case w["double"] > 0:
		if w["long"] > 0 {
			return "long double", true
		}
		return "double", len(w) == 1
	case w["char"] > 0:
		switch {
		case unsigned:
			return "unsigned char", true
		case signed:
			return "signed char", true
		}
		return "char", true
	case w["short"] > 0:
		return prefix + "short", w["long"] == 0
	case w["long"] > 2:
		return "", false
	case w["long"] == 2:
		return prefix + "long long", true
	case w["long"] == 1:
		return prefix + "long", true
	}
	return prefix + "int", true
}

func (f *fileParser) record(s *span.Span) (ast.Type, error) {
	start := trivia(*s)
	kw, _ := ident(s)
	rec := ast.Record{Union: kw.Name == "union"}

	f.attributes(s)
	if name := peekIdent(*s); name != "" && !keywords[name] {
		id, _ := ident(s)
		rec.Tag = id.Name
	}
	f.attributes(s)

	if _, ok := punct(s, "{"); ok {
		rec.HasBody = true
		rec.Fields = []*ast.Field{}
		if err := f.fields(s, &rec, start); err != nil {
			return nil, err
		}
	} else if rec.Tag == "" {
		return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected %s tag or body", kw.Name)
	}
	f.attributes(s)

	rec.At = start.Until(*s)
	return &rec, nil
}

// enum parses "enum [tag] [: type] [{ enumerators }]".
func (f *fileParser) enum(s *span.Span) (ast.Type, error) {
	start := trivia(*s)
	keyword(s, "enum")
	en := ast.Enum{}

	f.attributes(s)
	if name := peekIdent(*s); name != "" && !keywords[name] {
		id, _ := ident(s)
		en.Tag = id.Name
	}
	if _, ok := punct(s, ":"); ok {
		base, err := f.typeName(s)
		if err != nil {
			return nil, err
		}
		if base == nil {
			return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected enum base type")
		}
		en.Base = base
	}
	f.attributes(s)

	if _, ok := punct(s, "{"); ok {
		en.HasBody = true
		if err := f.enumerators(s, &en, start); err != nil {
			return nil, err
		}
	} else if en.Tag == "" {
		return nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected enum tag or body")
	}
	f.attributes(s)

	en.At = start.Until(*s)
	if en.HasBody {
		en.Cell = &ast.Infer{At: en.At}
	}
	return &en, nil
}

// typeName parses a type without a declared name, as in casts, sizeof and
// macro bodies.
func (f *fileParser) typeName(s *span.Span) (ast.Type, error) {
	cur := *s
	base, err := f.specifiers(&cur)
	if err != nil || base == nil {
		return nil, err
	}
	d, err := f.declarator(&cur, base, declAbstract)
	if err != nil {
		return nil, err
	}
	*s = cur
	return d.typ, nil
}

// pointers wraps t in one pointer per '*', with the qualifiers that follow
// each star.
func (f *fileParser) pointers(s *span.Span, t ast.Type) ast.Type {
	start := trivia(*s)
	for {
		if _, ok := punct(s, "*"); !ok {
			return t
		}
		var q quals
		f.qualifiers(s, &q)
		t = &ast.Pointer{At: span.Join(t.Span(), start.Until(*s)), Elem: t, Const: q.isConst, Volatile: q.isVolatile}
	}
}

// arrays parses trailing "[size]" suffixes. A nil size is "[]".
func (f *fileParser) arrays(s *span.Span) ([]ast.Expr, []span.Span, error) {
	var sizes []ast.Expr
	var ends []span.Span
	for {
		if _, ok := punct(s, "["); !ok {
			return sizes, ends, nil
		}
		var size ast.Expr
		if peekOp(*s) != "]" {
			x, err := f.assign(s)
			if err != nil {
				return nil, nil, err
			}
			if x == nil {
				return nil, nil, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected array size")
			}
			size = x
		}
		end, err := expect(s, "]")
		if err != nil {
			return nil, nil, err
		}
		sizes = append(sizes, size)
		ends = append(ends, end)
	}
}

// wrapArrays applies array suffixes so that "T x[2][3]" is an array of two
// arrays of three T.
func wrapArrays(t ast.Type, sizes []ast.Expr, ends []span.Span) ast.Type {
	for i := len(sizes) - 1; i >= 0; i-- {
		t = &ast.Array{At: span.Join(t.Span(), ends[i]), Elem: t, Size: sizes[i]}
	}
	return t
}
