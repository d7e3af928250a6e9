// Package parser is a recursive-descent parser for the subset of C found in
// library headers. Productions work directly on spans: each takes a cursor,
// advances it on success and returns a nil node, leaving the cursor alone,
// when the input is not that production. Preprocessor directives are
// handled as they are met, so #if arms gate which declarations are parsed.
package parser

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/preproc"
	"github.com/ardanlabs/sdlgen/span"
)

// IncludeFunc is called for every #include that is reached. The driver
// uses it to process included headers depth-first.
type IncludeFunc func(path string, system bool, at span.Span)

// Parser parses the headers of one run. Typedef names and macros carry
// over from one header to the next.
type Parser struct {
	state   *preproc.State
	sink    *diag.Sink
	skip    map[string]bool
	types   map[string]bool
	include IncludeFunc
}

// New returns a parser that records macros in state and reports problems
// to sink. Identifiers in skip are dropped from declarations together with
// any parenthesized arguments. The parser installs itself as the state's
// macro body reparser.
func New(state *preproc.State, sink *diag.Sink, skip map[string]bool) *Parser {
	p := Parser{
		state: state,
		sink:  sink,
		skip:  skip,
		types: make(map[string]bool),
	}
	if p.skip == nil {
		p.skip = make(map[string]bool)
	}
	p.skip["__attribute__"] = true
	state.SetReparser(p.Reparse)
	return &p
}

// OnInclude installs the include callback.
func (p *Parser) OnInclude(f IncludeFunc) {
	p.include = f
}

// IsTypeName reports whether name was declared by a typedef.
func (p *Parser) IsTypeName(name string) bool {
	return p.types[name]
}

// fileParser carries the per-header state of one ParseFile call.
type fileParser struct {
	*Parser

	file    *ast.File
	pending *ast.DocComment
	last    ast.Item
	externC int
	depth   int

	guard  bool
	params map[string]bool
}

// ParseFile parses one header. Problems are reported to the sink; the
// returned file holds every item that parsed.
func (p *Parser) ParseFile(name, text string) *ast.File {
	src := span.Load(name, text)
	f := fileParser{Parser: p, file: &ast.File{Name: name, At: src}}

	s := src
	f.items(&s, &f.file.Items)
	if f.pending != nil {
		f.file.Items = append(f.file.Items, f.pending)
		f.pending = nil
	}
	return f.file
}

// ParseExpr parses text as a single C expression.
func (p *Parser) ParseExpr(name, text string) (ast.Expr, error) {
	f := fileParser{Parser: p}
	s := span.Load(name, text)
	return whole(s, f.expr, "expression")
}

// ParseCondition parses text as the expression of an #if line, where
// defined and __has_include are operators.
func (p *Parser) ParseCondition(name, text string) (ast.Expr, error) {
	f := fileParser{Parser: p, guard: true}
	s := span.Load(name, text)
	return whole(s, f.expr, "condition")
}

// ParseType parses text as a C type name.
func (p *Parser) ParseType(name, text string) (ast.Type, error) {
	f := fileParser{Parser: p}
	s := span.Load(name, text)
	return whole(s, f.typeName, "type")
}

// Reparse parses the body of a function-like macro. Bodies that are
// neither an expression nor a type are kept raw.
func (p *Parser) Reparse(d *ast.Define) (ast.DefineValue, error) {
	f := fileParser{Parser: p, params: make(map[string]bool, len(d.Params))}
	for _, param := range d.Params {
		f.params[param.Name] = true
	}
	if d.Variadic {
		f.params["__VA_ARGS__"] = true
	}
	return f.defineValue(d.Body), nil
}

// whole runs a production that must consume all of s.
func whole[T ast.Node](s span.Span, prod func(*span.Span) (T, error), what string) (T, error) {
	var zero T
	x, err := prod(&s)
	if err != nil {
		return zero, err
	}
	if any(x) == nil {
		return zero, diag.Errorf(diag.StageParse, trivia(s).Head(), "expected %s", what)
	}
	if !atEnd(s) {
		return zero, diag.Errorf(diag.StageParse, trivia(s), "unexpected %q after %s", firstToken(s), what)
	}
	return x, nil
}

func firstToken(s span.Span) string {
	t := trivia(s)
	if n := identLen(t.Text()); n > 0 {
		return t.Text()[:n]
	}
	if op := peekOp(t); op != "" {
		return op
	}
	if t.IsEmpty() {
		return "end of input"
	}
	return t.Text()[:1]
}

func expect(s *span.Span, op string) (span.Span, error) {
	at, ok := punct(s, op)
	if !ok {
		return at, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected %q, found %q", op, firstToken(*s))
	}
	return at, nil
}

// items parses items into out until the input ends or an #elif, #else or
// #endif is met inside a conditional. It returns that directive, leaving
// the cursor on it.
func (f *fileParser) items(s *span.Span, out *[]ast.Item) (directive, bool) {
	for {
		*s = s.TrimWSCStart()
		if s.IsEmpty() {
			return directive{}, false
		}
		before := *s

		switch {
		case s.HasPrefix("/*") && !span.IsDocComment(s.Text()):
			f.sink.Errorf(diag.StageParse, s.Head(), "unterminated comment")
			*s = s.Skip(s.Len())
			continue

		case span.IsDocComment(s.Text()):
			f.docComment(s, out)
			continue

		case s.HasPrefix("#"):
			d, rest := readDirective(*s)
			switch d.Name.Name {
			case "elif", "elifdef", "elifndef", "else", "endif":
				if f.depth > 0 {
					return d, true
				}
				f.sink.Errorf(diag.StagePreproc, d.At, "#%s without #if", d.Name.Name)
				*s = rest
				continue
			}
			*s = rest
			f.directive(s, d, out)
			continue

		case s.HasPrefix("}") && f.externC > 0:
			f.externC--
			*s = s.Skip(1)
			continue
		}

		decls, err := f.decl(s)
		switch {
		case err != nil:
			f.sink.Add(diag.StageParse, err)
			f.recover(s)
		case decls == nil:
			f.sink.Errorf(diag.StageParse, s.Head(), "expected a declaration, found %q", firstToken(*s))
			f.recover(s)
		default:
			f.add(out, decls...)
		}

		if s.Start <= before.Start {
			f.sink.Errorf(diag.StageInternal, before.Head(), "parser made no progress")
			*s = s.Skip(s.Len())
		}
	}
}

// add appends items, handing any pending prefix doc comment to the last
// documented one.
func (f *fileParser) add(out *[]ast.Item, items ...ast.Item) {
	var target ast.Documented
	for _, it := range items {
		if d, ok := it.(ast.Documented); ok {
			target = d
		}
	}
	if f.pending != nil {
		if target != nil {
			target.DocSlot().Doc = f.pending
		} else {
			*out = append(*out, f.pending)
		}
		f.pending = nil
	}
	*out = append(*out, items...)
	if len(items) > 0 {
		f.last = items[len(items)-1]
	}
}

// docComment handles a doc comment between items. A postfix comment
// documents the previous item; a prefix comment followed by a blank line
// documents the file; any other prefix comment waits for the next item.
func (f *fileParser) docComment(s *span.Span, out *[]ast.Item) {
	doc, postfix, rest := readDoc(*s)
	*s = rest

	if postfix {
		d, ok := f.last.(ast.Documented)
		if !ok {
			f.sink.Warnf(diag.StageParse, doc.At, "postfix doc comment does not follow a declaration")
			return
		}
		if err := attachPostfix(d, doc); err != nil {
			f.sink.Add(diag.StageParse, err)
		}
		return
	}

	if f.pending != nil {
		*out = append(*out, f.pending)
	}
	f.pending = doc
	if blankLineFollows(rest) && f.file != nil {
		if f.file.Doc == nil {
			f.file.Doc = doc
		} else {
			*out = append(*out, doc)
		}
		f.pending = nil
	}
}

func attachPostfix(d ast.Documented, doc *ast.DocComment) error {
	if prev := d.DocSlot().Doc; prev != nil {
		return diag.Errorf(diag.StageParse, doc.At, "declaration has both a prefix and a postfix doc comment").
			WithNote("prefix comment at %s", prev.At.Pos())
	}
	d.DocSlot().Doc = doc
	return nil
}

func readDoc(s span.Span) (*ast.DocComment, bool, span.Span) {
	text := s.Text()
	end := strings.Index(text[3:], "*/")
	n := len(text)
	if end >= 0 {
		n = end + 5
	}
	at, rest := s.SplitAt(n)
	postfix := at.HasPrefix("/**<")

	body := strings.TrimSuffix(at.Text(), "*/")
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimPrefix(body, "<")

	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, " ")
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &ast.DocComment{At: at, Text: strings.Join(lines, "\n")}, postfix, rest
}

// blankLineFollows reports whether only horizontal space and at least two
// line breaks separate the cursor from the next token.
func blankLineFollows(s span.Span) bool {
	breaks := 0
	for _, c := range []byte(s.Text()) {
		switch c {
		case '\n':
			breaks++
			if breaks == 2 {
				return true
			}
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return false
}

// recover skips to just past the next ';' or '}' at nesting depth zero, or
// to the next line that starts with '#'. It always advances.
func (f *fileParser) recover(s *span.Span) {
	text := s.Text()
	depth := 0
	i := 0
	for i < len(text) {
		if j := skipComment(text, i); j != i {
			i = j
			continue
		}
		switch c := text[i]; c {
		case '"', '\'':
			i = skipQuoted(text, i)
			continue
		case '(', '[', '{':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '}':
			if depth == 0 {
				*s = s.Skip(i + 1)
				return
			}
			depth--
		case ';':
			if depth == 0 {
				*s = s.Skip(i + 1)
				return
			}
		case '\n':
			next := lineStart(s.Skip(i + 1))
			if depth == 0 && next.HasPrefix("#") && i > 0 {
				*s = s.Skip(i + 1)
				return
			}
		}
		i++
	}
	*s = s.Skip(max(i, 1))
}
