package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// numberLen returns the length of the pp-number at the start of text. A
// sign belongs to the number only right after an exponent marker.
func numberLen(text string) int {
	exp := "eE"
	if isHexPrefixed(text) {
		exp = "pP"
	}
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case isIdentChar(c) || c == '.':
			i++
		case (c == '+' || c == '-') && i > 0 && strings.IndexByte(exp, text[i-1]) >= 0:
			i++
		default:
			return i
		}
	}
	return i
}

func isHexPrefixed(text string) bool {
	return len(text) > 1 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X')
}

func number(s *span.Span) (*ast.Literal, error) {
	t := trivia(*s)
	text := t.Text()
	if text == "" || !(isDigit(text[0]) || (text[0] == '.' && len(text) > 1 && isDigit(text[1]))) {
		return nil, nil
	}
	at, rest := t.SplitAt(numberLen(text))
	*s = rest

	lit, err := classifyNumber(at.Text())
	if err != nil {
		return nil, diag.Wrap(diag.StageParse, at, err)
	}
	lit.At = at
	return lit, nil
}

func classifyNumber(text string) (*ast.Literal, error) {
	lower := strings.ToLower(text)
	hex := isHexPrefixed(text)
	if (!hex && strings.ContainsAny(lower, ".e")) || (hex && strings.ContainsAny(lower, ".p")) {
		return classifyFloat(lower)
	}

	body := strings.TrimRight(text, "uUlL")
	suffix, ok := value.ParseSuffix(text[len(body):])
	if !ok {
		return nil, fmt.Errorf("invalid integer suffix %q", text[len(body):])
	}

	base, digits := 10, body
	switch {
	case hex:
		base, digits = 16, body[2:]
	case len(body) > 1 && (body[1] == 'b' || body[1] == 'B') && body[0] == '0':
		base, digits = 2, body[2:]
	case len(body) > 1 && body[0] == '0':
		base, digits = 8, body[1:]
	}
	if digits == "" {
		return nil, fmt.Errorf("malformed number %q", text)
	}

	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return nil, fmt.Errorf("integer literal %s: %w", text, value.ErrOverflow)
	}

	width := 0
	if base != 10 {
		width = len(digits)
	}
	v, err := value.FromLiteral(n, suffix, base, width)
	if err != nil {
		return nil, err
	}
	return &ast.Literal{Value: v, Suffix: suffix, Mag: n}, nil
}

func classifyFloat(lower string) (*ast.Literal, error) {
	single := false
	switch {
	case strings.HasSuffix(lower, "f") && !isHexPrefixed(lower):
		single = true
		lower = lower[:len(lower)-1]
	case strings.HasSuffix(lower, "l"):
		lower = lower[:len(lower)-1]
	}
	f, err := strconv.ParseFloat(lower, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed floating-point literal %q", lower)
	}
	if single {
		return &ast.Literal{Value: value.Float32(float32(f))}, nil
	}
	return &ast.Literal{Value: value.Float64(f)}, nil
}

// charLiteral consumes 'c', which C types as int.
func charLiteral(s *span.Span) (*ast.Literal, error) {
	t := trivia(*s)
	if !t.HasPrefix("'") {
		return nil, nil
	}
	text := t.Text()
	end := skipQuoted(text, 0)
	at, rest := t.SplitAt(end)
	*s = rest

	if end < 2 || text[end-1] != '\'' {
		return nil, diag.Errorf(diag.StageParse, at, "unterminated character literal")
	}
	b, err := unescape(text[1 : end-1])
	if err != nil {
		return nil, diag.Wrap(diag.StageParse, at, err)
	}
	if len(b) != 1 {
		return nil, diag.Errorf(diag.StageParse, at, "character literal must hold exactly one character")
	}
	n := uint64(b[0])
	return &ast.Literal{At: at, Value: value.Uint64(value.U31, n), Mag: n}, nil
}

func stringLiteral(s *span.Span) (*ast.Literal, error) {
	start := trivia(*s)
	var b strings.Builder
	found := false
	for {
		t := trivia(*s)
		switch {
		case t.HasPrefix(`"`):
		case t.HasPrefix(`L"`), t.HasPrefix(`u8"`):
			t = t.Skip(strings.IndexByte(t.Text(), '"'))
		default:
			if !found {
				return nil, nil
			}
			return &ast.Literal{At: start.Until(*s), Value: value.StringOf(b.String())}, nil
		}

		text := t.Text()
		end := skipQuoted(text, 0)
		at, rest := t.SplitAt(end)
		*s = rest
		if end < 2 || text[end-1] != '"' {
			return nil, diag.Errorf(diag.StageParse, at, "unterminated string literal")
		}
		decoded, err := unescape(text[1 : end-1])
		if err != nil {
			return nil, diag.Wrap(diag.StageParse, at, err)
		}
		b.Write(decoded)
		found = true
	}
}

// unescape decodes the C escape sequences of a literal body.
func unescape(text string) ([]byte, error) {
	var out []byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i == len(text) {
			return nil, fmt.Errorf("trailing backslash in literal")
		}
		switch e := text[i]; e {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'v':
			out = append(out, '\v')
		case '\\', '\'', '"', '?':
			out = append(out, e)
		case 'x':
			j := i + 1
			for j < len(text) && strings.ContainsRune("0123456789abcdefABCDEF", rune(text[j])) {
				j++
			}
			n, err := strconv.ParseUint(text[i+1:j], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid hex escape \\%s", text[i:j])
			}
			out = append(out, byte(n))
			i = j - 1
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(text) && j < i+3 && text[j] >= '0' && text[j] <= '7' {
				j++
			}
			n, err := strconv.ParseUint(text[i:j], 8, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid octal escape \\%s", text[i:j])
			}
			out = append(out, byte(n))
			i = j - 1
		default:
			return nil, fmt.Errorf("unknown escape sequence \\%c", e)
		}
	}
	return out, nil
}
