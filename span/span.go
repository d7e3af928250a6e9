// Package span provides immutable header sources and cheap views into them.
// Spans are the only currency the parser and the diagnostics share: every AST
// node keeps the span it was parsed from.
package span

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"unicode/utf8"
)

// Source is the full text of one input header.
type Source struct {
	Name  string
	text  string
	lines []int
}

// Load creates a source buffer and returns a span covering all of it.
func Load(name, text string) Span {
	src := &Source{Name: name, text: text, lines: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			src.lines = append(src.lines, i+1)
		}
	}
	return Span{src: src, Start: 0, End: len(text)}
}

// Text returns the whole source text.
func (src *Source) Text() string {
	return src.text
}

// LineCol converts an absolute byte offset into 1-based line and column.
func (src *Source) LineCol(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src.text) {
		offset = len(src.text)
	}
	line := sort.Search(len(src.lines), func(i int) bool { return src.lines[i] > offset }) - 1
	return line + 1, offset - src.lines[line] + 1
}

// LineText returns the text of a 1-based line without its newline.
func (src *Source) LineText(line int) string {
	if line < 1 || line > len(src.lines) {
		return ""
	}
	start := src.lines[line-1]
	end := len(src.text)
	if line < len(src.lines) {
		end = src.lines[line] - 1
	}
	return strings.TrimSuffix(src.text[start:end], "\r")
}

// Span is a byte range [Start, End) of a Source.
type Span struct {
	src   *Source
	Start int
	End   int
}

// Position is a resolved span location used by diagnostics.
type Position struct {
	File    string
	Line    int
	Col     int
	EndLine int
	EndCol  int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Source returns the buffer the span points into.
func (s Span) Source() *Source {
	return s.src
}

// IsValid reports whether the span points into a source.
func (s Span) IsValid() bool {
	return s.src != nil
}

// Text returns the spanned text without copying.
func (s Span) Text() string {
	if s.src == nil {
		return ""
	}
	return s.src.text[s.Start:s.End]
}

func (s Span) String() string {
	return s.Text()
}

// Len returns the length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Byte returns the byte at relative offset i, or 0 outside the span.
func (s Span) Byte(i int) byte {
	if i < 0 || s.Start+i >= s.End {
		return 0
	}
	return s.src.text[s.Start+i]
}

// Slice returns the sub-span [start, end) in relative offsets.
func (s Span) Slice(start, end int) Span {
	if start < 0 || end > s.Len() || start > end {
		panic(fmt.Sprintf("span: slice [%d:%d] out of range for length %d", start, end, s.Len()))
	}
	return Span{src: s.src, Start: s.Start + start, End: s.Start + end}
}

// SplitAt splits the span at relative offset n.
func (s Span) SplitAt(n int) (Span, Span) {
	return s.Slice(0, n), s.Slice(n, s.Len())
}

// Skip returns the span with its first n bytes removed.
func (s Span) Skip(n int) Span {
	if n > s.Len() {
		n = s.Len()
	}
	return Span{src: s.src, Start: s.Start + n, End: s.End}
}

// Head returns the empty span positioned at the start of s.
func (s Span) Head() Span {
	return Span{src: s.src, Start: s.Start, End: s.Start}
}

// Until returns the span from the start of s up to the start of cur. It is
// how a production turns "cursor before" and "cursor after" into a node span.
func (s Span) Until(cur Span) Span {
	end := cur.Start
	if end < s.Start {
		end = s.Start
	}
	return Span{src: s.src, Start: s.Start, End: end}
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	if a.src == nil {
		return b
	}
	if b.src == nil {
		return a
	}
	return Span{src: a.src, Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}

// Contains reports whether inner lies within s.
func (s Span) Contains(inner Span) bool {
	return s.src == inner.src && inner.Start >= s.Start && inner.End <= s.End
}

// HasPrefix reports whether the span text starts with p.
func (s Span) HasPrefix(p string) bool {
	return strings.HasPrefix(s.Text(), p)
}

// HasSuffix reports whether the span text ends with p.
func (s Span) HasSuffix(p string) bool {
	return strings.HasSuffix(s.Text(), p)
}

// Chars iterates over the runes of the span with their relative byte offsets.
func (s Span) Chars() iter.Seq2[int, rune] {
	return func(yield func(int, rune) bool) {
		text := s.Text()
		for i := 0; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			if !yield(i, r) {
				return
			}
			i += size
		}
	}
}

// Trim removes leading and trailing whitespace.
func (s Span) Trim() Span {
	text := s.Text()
	start := len(text) - len(strings.TrimLeft(text, " \t\r\n\f\v"))
	end := len(strings.TrimRight(text, " \t\r\n\f\v"))
	if end < start {
		end = start
	}
	return s.Slice(start, end)
}

// Pos resolves the span to file, line and column.
func (s Span) Pos() Position {
	if s.src == nil {
		return Position{}
	}
	line, col := s.src.LineCol(s.Start)
	endLine, endCol := s.src.LineCol(s.End)
	return Position{File: s.src.Name, Line: line, Col: col, EndLine: endLine, EndCol: endCol}
}
