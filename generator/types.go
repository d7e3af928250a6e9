package generator

import (
	"strconv"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// primitive describes how a builtin C type is spelled in Go. bits is set
// for integers narrower than 32 bits.
type primitive struct {
	goName string
	kind   value.Kind
	bits   int
}

// primitives maps canonical C type names to Go. long and wchar_t change
// width with the platform and map to the types declared in the ctypes
// files.
var primitives = map[string]primitive{
	"char":               {"byte", value.U32, 8},
	"signed char":        {"int8", value.I32, 8},
	"unsigned char":      {"uint8", value.U32, 8},
	"short":              {"int16", value.I32, 16},
	"unsigned short":     {"uint16", value.U32, 16},
	"int":                {"int32", value.I32, 0},
	"unsigned int":       {"uint32", value.U32, 0},
	"long":               {"CLong", value.I64, 0},
	"unsigned long":      {"CULong", value.U64, 0},
	"long long":          {"int64", value.I64, 0},
	"unsigned long long": {"uint64", value.U64, 0},
	"float":              {"float32", value.F32, 0},
	"double":             {"float64", value.F64, 0},
	"bool":               {"bool", value.Invalid, 0},
	"int8_t":             {"int8", value.I32, 8},
	"uint8_t":            {"uint8", value.U32, 8},
	"int16_t":            {"int16", value.I32, 16},
	"uint16_t":           {"uint16", value.U32, 16},
	"int32_t":            {"int32", value.I32, 0},
	"uint32_t":           {"uint32", value.U32, 0},
	"int64_t":            {"int64", value.I64, 0},
	"uint64_t":           {"uint64", value.U64, 0},
	"size_t":             {"uintptr", value.U64, 0},
	"uintptr_t":          {"uintptr", value.U64, 0},
	"ssize_t":            {"int", value.I64, 0},
	"intptr_t":           {"int", value.I64, 0},
	"ptrdiff_t":          {"int", value.I64, 0},
	"wchar_t":            {"CWchar", value.I32, 0},
}

func (g *Generator) goType(t ast.Type) (string, error) {
	switch t := t.(type) {
	case *ast.Primitive:
		if t.Name == "void" {
			return "", diag.Errorf(diag.StageEmit, t.At, "void is only valid as a result or pointer target")
		}
		p, ok := primitives[t.Name]
		if !ok {
			return "", diag.Errorf(diag.StageEmit, t.At, "C type %s has no Go equivalent", t.Name)
		}
		return p.goName, nil

	case *ast.Pointer:
		switch elem := t.Elem.(type) {
		case *ast.Primitive:
			if elem.Name == "void" {
				return "unsafe.Pointer", nil
			}
		case *ast.FnPointer:
			return "*uintptr", nil
		}
		elem, err := g.goType(t.Elem)
		if err != nil {
			return "", err
		}
		return "*" + elem, nil

	case *ast.Array:
		elem, err := g.goType(t.Elem)
		if err != nil {
			return "", err
		}
		if t.Size == nil {
			return "[0]" + elem, nil
		}
		n, err := g.arrayLen(t.Size)
		if err != nil {
			return "", err
		}
		return "[" + n + "]" + elem, nil

	case *ast.Record:
		return g.tagName(t, t.Tag, t.At)

	case *ast.Enum:
		if _, ok := g.syms.anon[t]; !ok && t.Tag == "" {
			if info, ok := g.enums[t]; ok && !info.failed {
				return info.goType, nil
			}
		}
		return g.tagName(t, t.Tag, t.At)

	case *ast.FnPointer:
		return "uintptr", nil

	case *ast.Named:
		if s, ok := g.syms.ordinary[t.Name]; ok && (s.kind == symType || g.isTypeMacro(s)) {
			return s.goName, nil
		}
		if s, ok := g.syms.tags[t.Name]; ok {
			return s.goName, nil
		}
		return "", diag.Errorf(diag.StageEmit, t.At, "unknown type %s", t.Name)

	case *ast.Infer:
		if t.Type == nil {
			return "", diag.Errorf(diag.StageEmit, t.At, "type was never inferred")
		}
		return g.goType(t.Type)

	case *ast.Verbatim:
		return t.Code, nil

	case *ast.FuncType:
		return "", diag.Errorf(diag.StageEmit, t.At, "function type used as a value")
	}
	return "", diag.Errorf(diag.StageEmit, t.Span(), "unsupported type")
}

func (g *Generator) isTypeMacro(s *symbol) bool {
	if s.kind != symMacro {
		return false
	}
	d, ok := g.state.Lookup(s.name)
	return ok && d.Value.Kind == ast.DefineType
}

func (g *Generator) tagName(t ast.Type, tag string, at span.Span) (string, error) {
	if tag != "" {
		if s, ok := g.syms.tags[tag]; ok {
			return s.goName, nil
		}
		return "", diag.Errorf(diag.StageEmit, at, "unknown tag %s", tag)
	}
	if s, ok := g.syms.anon[t]; ok {
		return s.goName, nil
	}
	return "", diag.Errorf(diag.StageEmit, at, "anonymous type has no name").
		WithNote("give it a typedef name")
}

// paramType spells a function parameter or result. C strings that the
// callee only reads travel as Go strings.
func (g *Generator) paramType(t ast.Type) (string, error) {
	if isConstString(t) {
		return "string", nil
	}
	return g.goType(t)
}

func isConstString(t ast.Type) bool {
	p, ok := t.(*ast.Pointer)
	if !ok {
		return false
	}
	c, ok := p.Elem.(*ast.Primitive)
	return ok && c.Name == "char" && c.Const
}

// arrayLen folds an array size to a Go constant expression.
func (g *Generator) arrayLen(x ast.Expr) (string, error) {
	v, ok, err := eval.New(g.env).Eval(x)
	if err != nil {
		return "", err
	}
	switch {
	case !ok:
		return "", diag.Errorf(diag.StageEmit, x.Span(), "array size is not a constant")
	case v.Kind == value.Verbatim && v.GoType == "uintptr":
		return v.Code, nil
	}
	n, ok := v.Int()
	if !ok || n < 0 {
		return "", diag.Errorf(diag.StageEmit, x.Span(), "array size %s is not a valid length", v.GoLiteral())
	}
	return strconv.FormatInt(n, 10), nil
}

// resolve follows typedef names and inferred cells to the type they
// stand for.
func (g *Generator) resolve(t ast.Type) ast.Type {
	for range 32 {
		switch n := t.(type) {
		case *ast.Named:
			if s, ok := g.syms.ordinary[n.Name]; ok && s.kind == symType && s.typ != nil {
				t = s.typ
				continue
			}
			if s, ok := g.syms.tags[n.Name]; ok {
				if s.record != nil {
					return s.record
				}
				if s.enum != nil {
					return s.enum
				}
			}
			return t
		case *ast.Infer:
			if n.Type == nil {
				return t
			}
			t = n.Type
			continue
		case *ast.Record:
			if !n.HasBody && n.Tag != "" {
				if s, ok := g.syms.tags[n.Tag]; ok && s.record != nil {
					return s.record
				}
			}
		case *ast.Enum:
			if !n.HasBody && n.Tag != "" {
				if s, ok := g.syms.tags[n.Tag]; ok && s.enum != nil {
					return s.enum
				}
			}
		}
		return t
	}
	return t
}

// typeInfo describes t for the evaluator's casts and sizeof.
func (g *Generator) typeInfo(t ast.Type) (eval.TypeInfo, bool) {
	goName, err := g.goType(t)
	if err != nil {
		return eval.TypeInfo{}, false
	}
	info := eval.TypeInfo{Go: goName}
	switch u := g.resolve(t).(type) {
	case *ast.Primitive:
		// Primitive typedefs are aliases.
		p := primitives[u.Name]
		info.Kind, info.Bits = p.kind, p.bits
		if p.goName != "" {
			info.Go = p.goName
		}
	case *ast.Enum:
		if e, ok := g.enums[u]; ok && !e.failed {
			info.Kind, info.Bits = e.kind, e.bits
		}
	}
	return info, true
}
