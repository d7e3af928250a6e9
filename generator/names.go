package generator

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// goKeywords cannot name parameters or fields.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true,
	"for": true, "func": true, "go": true, "goto": true, "if": true,
	"import": true, "interface": true, "map": true, "package": true,
	"range": true, "return": true, "select": true, "struct": true,
	"switch": true, "type": true, "var": true,
}

// exportName returns name when Go already exports it, and its CamelCase
// form otherwise.
func exportName(name string) string {
	if name == "" {
		return ""
	}
	if r := rune(name[0]); r < unicode.MaxASCII && unicode.IsUpper(r) {
		return name
	}
	camel := strcase.ToCamel(name)
	if camel == "" || !unicode.IsUpper(rune(camel[0])) {
		return "X" + camel
	}
	return camel
}

func fieldName(name string) string {
	n := strcase.ToCamel(name)
	if n == "" || !unicode.IsUpper(rune(n[0])) {
		return "F" + n
	}
	return n
}

func paramName(name string, i int) string {
	if name == "" {
		return "arg" + itoa(i)
	}
	n := strcase.ToLowerCamel(name)
	if n == "" || n == "_" {
		return "arg" + itoa(i)
	}
	if goKeywords[n] {
		return n + "_"
	}
	return n
}

// uniqueNames makes every name in names distinct by appending underscores.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		for seen[n] {
			n += "_"
		}
		seen[n] = true
		out[i] = n
	}
	return out
}

// commonPrefix returns the longest prefix ending in '_' shared by every
// name, leaving each remainder a valid identifier start.
func commonPrefix(names []string) string {
	if len(names) < 2 {
		return ""
	}
	prefix := names[0]
	for _, n := range names[1:] {
		for !strings.HasPrefix(n, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	for {
		i := strings.LastIndexByte(prefix, '_')
		if i < 0 {
			return ""
		}
		prefix = prefix[:i+1]
		ok := true
		for _, n := range names {
			rest := n[len(prefix):]
			if rest == "" || unicode.IsDigit(rune(rest[0])) {
				ok = false
				break
			}
		}
		if ok {
			return prefix
		}
		prefix = prefix[:i]
	}
}

func itoa(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return digits[i : i+1]
	}
	return itoa(i/10) + digits[i%10:i%10+1]
}
