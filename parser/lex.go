package parser

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/span"
)

// operators is ordered so that longer operators are tried first.
var operators = []string{
	"<<=", ">>=", "...",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "##",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "|", "^",
	"?", ":", ";", ",", ".", "(", ")", "[", "]", "{", "}", "#",
}

// trivia skips whitespace, comments and doc comments. Doc comments only
// matter between items and members, where the loops read them before
// calling a production.
func trivia(s span.Span) span.Span {
	for {
		s = s.TrimWSCStart()
		if !span.IsDocComment(s.Text()) {
			return s
		}
		end := strings.Index(s.Text()[3:], "*/")
		if end < 0 {
			return s
		}
		s = s.Skip(end + 5)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func identLen(text string) int {
	if text == "" || !isIdentStart(text[0]) {
		return 0
	}
	i := 1
	for i < len(text) && isIdentChar(text[i]) {
		i++
	}
	return i
}

func peekIdent(s span.Span) string {
	t := trivia(s)
	return t.Text()[:identLen(t.Text())]
}

func peekOp(s span.Span) string {
	text := trivia(s).Text()
	for _, op := range operators {
		if strings.HasPrefix(text, op) {
			return op
		}
	}
	return ""
}

func ident(s *span.Span) (ast.Ident, bool) {
	t := trivia(*s)
	n := identLen(t.Text())
	if n == 0 {
		return ast.Ident{}, false
	}
	at, rest := t.SplitAt(n)
	*s = rest
	return ast.Ident{At: at, Name: at.Text()}, true
}

func keyword(s *span.Span, kw string) (span.Span, bool) {
	if peekIdent(*s) != kw {
		return span.Span{}, false
	}
	id, _ := ident(s)
	return id.At, true
}

// punct consumes the operator op when it is the next token. "<" does not
// match the start of "<<".
func punct(s *span.Span, op string) (span.Span, bool) {
	t := trivia(*s)
	if peekOp(t) != op {
		return span.Span{}, false
	}
	at, rest := t.SplitAt(len(op))
	*s = rest
	return at, true
}

func atEnd(s span.Span) bool {
	return trivia(s).IsEmpty()
}

// skipQuoted returns the offset just past the string or character literal
// starting at text[i].
func skipQuoted(text string, i int) int {
	quote := text[i]
	for i++; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			return i
		}
	}
	return len(text)
}

// skipComment returns the offset past a comment starting at text[i], or i
// when there is none.
func skipComment(text string, i int) int {
	switch {
	case strings.HasPrefix(text[i:], "//"):
		if j := strings.IndexByte(text[i:], '\n'); j >= 0 {
			return i + j
		}
		return len(text)
	case strings.HasPrefix(text[i:], "/*"):
		if j := strings.Index(text[i+2:], "*/"); j >= 0 {
			return i + j + 4
		}
		return len(text)
	}
	return i
}

// skipBalanced consumes a bracketed group starting at the cursor, which
// must be at open. Nested groups, strings and comments are skipped.
func skipBalanced(s *span.Span, open, close byte) bool {
	t := trivia(*s)
	text := t.Text()
	if text == "" || text[0] != open {
		return false
	}
	depth := 0
	for i := 0; i < len(text); {
		if j := skipComment(text, i); j != i {
			i = j
			continue
		}
		switch c := text[i]; c {
		case '"', '\'':
			i = skipQuoted(text, i)
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				*s = t.Skip(i + 1)
				return true
			}
		}
		i++
	}
	return false
}

// logicalLine returns the length of the logical line at the start of text:
// up to the first newline that is neither escaped nor inside a block
// comment. Quotes are honored only when quotes is set, since skipped
// regions and diagnostics may contain stray apostrophes.
func logicalLine(text string, quotes bool) int {
	for i := 0; i < len(text); {
		switch c := text[i]; {
		case c == '\n':
			return i
		case c == '\\' && strings.HasPrefix(text[i+1:], "\n"):
			i += 2
		case c == '\\' && strings.HasPrefix(text[i+1:], "\r\n"):
			i += 3
		case strings.HasPrefix(text[i:], "/*"):
			i = skipComment(text, i)
		case strings.HasPrefix(text[i:], "//"):
			i = skipComment(text, i)
		case quotes && (c == '"' || c == '\''):
			i = skipQuoted(text, i)
		default:
			i++
		}
	}
	return len(text)
}

// directive is a preprocessor line split into its name and arguments.
type directive struct {
	At   span.Span
	Name ast.Ident
	Args span.Span
}

// readDirective reads the directive line at the cursor, which must be at
// '#'. It returns the directive and the input after the line.
func readDirective(s span.Span) (directive, span.Span) {
	n := logicalLine(s.Text(), false)
	line, rest := s.SplitAt(n)
	if !rest.IsEmpty() {
		rest = rest.Skip(1)
	}

	args := line.Skip(1)
	var d directive
	d.At = line.TrimWSCEnd()
	if name, ok := ident(&args); ok {
		d.Name = name
	}
	d.Args = args.TrimWSC()
	return d, rest
}

func skipLine(s span.Span) span.Span {
	n := logicalLine(s.Text(), true)
	if n < s.Len() {
		n++
	}
	return s.Skip(n)
}

// lineStart trims horizontal whitespace and comments that do not span a
// line break.
func lineStart(s span.Span) span.Span {
	text := s.Text()
	i := 0
	for i < len(text) {
		switch {
		case text[i] == ' ' || text[i] == '\t' || text[i] == '\r' || text[i] == '\f' || text[i] == '\v':
			i++
		case strings.HasPrefix(text[i:], "/*"):
			j := skipComment(text, i)
			if strings.Contains(text[i:j], "\n") {
				return s.Skip(i)
			}
			i = j
		default:
			return s.Skip(i)
		}
	}
	return s.Skip(i)
}
