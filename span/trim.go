package span

import "strings"

// IsDocComment reports whether text starts with a doc comment opener. "/**"
// introduces documentation unless it is the empty comment "/**/" or a rule of
// stars such as "/*****".
func IsDocComment(text string) bool {
	if !strings.HasPrefix(text, "/**") || len(text) < 4 {
		return false
	}
	return text[3] != '*' && text[3] != '/'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// wscLen returns the length of the whitespace, line continuation or non-doc
// comment at the start of text, or 0 if there is none.
func wscLen(text string) int {
	switch {
	case text == "":
		return 0
	case isSpace(text[0]):
		return 1
	case strings.HasPrefix(text, "\\\n"):
		return 2
	case strings.HasPrefix(text, "\\\r\n"):
		return 3
	case strings.HasPrefix(text, "//"):
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			return i
		}
		return len(text)
	case strings.HasPrefix(text, "/*") && !IsDocComment(text):
		if i := strings.Index(text[2:], "*/"); i >= 0 {
			return i + 4
		}
		return 0
	}
	return 0
}

// TrimWSCStart removes leading whitespace, line continuations and comments
// that are not doc comments.
func (s Span) TrimWSCStart() Span {
	text := s.Text()
	i := 0
	for i < len(text) {
		n := wscLen(text[i:])
		if n == 0 {
			break
		}
		i += n
	}
	return s.Skip(i)
}

// TrimWSCEnd removes trailing whitespace, line continuations and comments
// that are not doc comments.
func (s Span) TrimWSCEnd() Span {
	text := s.Text()
	last := 0
	for i := 0; i < len(text); {
		if n := wscLen(text[i:]); n > 0 {
			i += n
			continue
		}
		switch c := text[i]; {
		case c == '"' || c == '\'':
			i = skipQuoted(text, i)
		case IsDocComment(text[i:]):
			if j := strings.Index(text[i+3:], "*/"); j >= 0 {
				i += j + 5
			} else {
				i = len(text)
			}
		default:
			i++
		}
		last = i
	}
	return s.Slice(0, last)
}

// TrimWSC trims both ends.
func (s Span) TrimWSC() Span {
	return s.TrimWSCStart().TrimWSCEnd()
}

func skipQuoted(text string, i int) int {
	quote := text[i]
	i++
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			return i
		}
		i++
	}
	return len(text)
}
