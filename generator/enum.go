package generator

import (
	"math"
	"math/bits"
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/value"
)

// enumInfo holds the folded values of an enum and the Go type inferred for
// them.
type enumInfo struct {
	goType string
	kind   value.Kind
	bits   int
	values map[*ast.Enumerator]value.Value
	failed bool
}

func (g *Generator) foldEnums(items []ast.Item, cond value.DefineState) {
	for _, it := range items {
		switch it := it.(type) {
		case *ast.EnumDecl:
			if it.Enum.HasBody {
				g.foldEnum(it.Enum, cond)
			}
		case *ast.ConditionalBlock:
			for _, arm := range it.Arms {
				g.foldEnums(arm.Items, value.And(cond, arm.Cond))
			}
		}
	}
}

// foldEnum evaluates every enumerator in order, registers it as a constant
// for the enumerators and macros that follow, and resolves the enum's type
// cell once all values are known.
func (g *Generator) foldEnum(en *ast.Enum, cond value.DefineState) {
	if _, ok := g.enums[en]; ok {
		return
	}
	info := enumInfo{values: make(map[*ast.Enumerator]value.Value, len(en.Items))}
	g.enums[en] = &info

	var prev *ast.Enumerator
	next := value.Uint64(value.U31, 0)
	var nextErr error
	for _, e := range en.Items {
		v, err := g.enumValue(e, prev, next, nextErr, cond)
		if err != nil {
			g.sink.Add(diag.StageEval, err)
			info.failed = true
			return
		}
		info.values[e] = v

		s := g.syms.declare(symConst, e.Name.Name, e.At, nil)
		if s.kind == symMacro {
			s.kind = symConst
		}
		if s.kind == symConst {
			s.value = v
		}

		next, nextErr = value.Binary("+", v, value.Uint64(value.U31, 1))
		prev = e
	}

	goType, kind, nbits, err := g.enumType(en, &info)
	if err != nil {
		g.sink.Add(diag.StageEmit, err)
		info.failed = true
		return
	}
	info.goType, info.kind, info.bits = goType, kind, nbits
	if en.Cell != nil && en.Cell.Type == nil {
		en.Cell.Resolve(&ast.Verbatim{At: en.At, Code: goType})
	}
}

func (g *Generator) enumValue(e, prev *ast.Enumerator, next value.Value, nextErr error, cond value.DefineState) (value.Value, error) {
	if e.Value == nil {
		switch {
		case prev != nil && prev.Cond != e.Cond:
			return value.Value{}, diag.Errorf(diag.StageEval, e.Name.At, "enumerator %s follows a target-dependent enumerator and needs an explicit value", e.Name.Name)
		case nextErr != nil:
			return value.Value{}, diag.Wrap(diag.StageEval, e.Name.At, nextErr)
		}
		return next, nil
	}

	var (
		v   value.Value
		ok  bool
		err error
	)
	g.env.under(enumeratorCond(cond, e), func() {
		v, ok, err = eval.New(g.env).Eval(e.Value)
	})
	switch {
	case err != nil:
		return value.Value{}, err
	case !ok || !v.Kind.IsInt():
		return value.Value{}, diag.Errorf(diag.StageEval, e.Value.Span(), "value of enumerator %s is not an integer constant", e.Name.Name)
	}
	return v, nil
}

func enumeratorCond(cond value.DefineState, e *ast.Enumerator) value.DefineState {
	if e.Cond == nil {
		return cond
	}
	return value.And(cond, e.Cond.Cond)
}

// enumType returns the explicit base type. Otherwise an enum with a negative
// value is int32, or int64 when a value needs it, and any other enum is
// uint32 or uint64. Nothing is narrower than 32 bits, so enum fields keep
// C's layout.
func (g *Generator) enumType(en *ast.Enum, info *enumInfo) (string, value.Kind, int, error) {
	if en.Base != nil {
		ti, ok := g.typeInfo(en.Base)
		if !ok || !ti.Kind.IsInt() {
			return "", value.Invalid, 0, diag.Errorf(diag.StageEmit, en.Base.Span(), "enum base type is not an integer type")
		}
		return ti.Go, ti.Kind, ti.Bits, nil
	}

	var (
		negative bool
		least    int64
		most     uint64
	)
	for _, v := range info.values {
		if v.IsNegative() {
			negative = true
			least = min(least, int64(v.Bits))
			continue
		}
		most = max(most, v.Bits)
	}
	switch {
	case negative && least >= math.MinInt32 && most <= math.MaxInt32:
		return "int32", value.I32, 0, nil
	case negative:
		return "int64", value.I64, 0, nil
	case most <= math.MaxUint32:
		return "uint32", value.U32, 0, nil
	}
	return "uint64", value.U64, 0, nil
}

// isFlags reports whether the enumerators are distinct single bits, ignoring
// zero. Every non-zero enumerator must spell its value out, so a plain
// 0, 1, 2 sequence is not a flag set.
func isFlags(en *ast.Enum, values map[*ast.Enumerator]value.Value) bool {
	seen := make(map[uint64]bool, len(en.Items))
	for _, e := range en.Items {
		v := values[e]
		if v.IsNegative() {
			return false
		}
		if v.Bits == 0 {
			continue
		}
		if e.Value == nil || bits.OnesCount64(v.Bits) != 1 || seen[v.Bits] {
			return false
		}
		seen[v.Bits] = true
	}
	return len(seen) >= 2
}

// enumName returns the Go type name of an enum, or "" for an anonymous
// enum that only declares constants.
func (g *Generator) enumName(en *ast.Enum) (string, *symbol) {
	if en.Tag != "" {
		if s, ok := g.syms.tags[en.Tag]; ok {
			return s.goName, s
		}
		return "", nil
	}
	if s, ok := g.syms.anon[en]; ok {
		return s.goName, s
	}
	return "", nil
}

type enumConst struct {
	e     *ast.Enumerator
	v     value.Value
	typed string
	alias string
}

func (g *Generator) emitEnum(u *unit, it *ast.EnumDecl, cond value.DefineState) error {
	en := it.Enum
	info := g.enums[en]
	if !en.HasBody || info == nil || info.failed {
		return nil
	}
	o := g.output(u, cond, it.At)
	if o == nil {
		return nil
	}

	name, s := g.enumName(en)
	if name != "" && g.first(o, name) {
		doc := it.Doc
		if doc == nil && s != nil {
			doc = s.doc
		}
		o.doc(doc, "")
		o.printf("type %s %s\n\n", name, info.goType)
	}

	names := make([]string, len(en.Items))
	for i, e := range en.Items {
		names[i] = e.Name.Name
	}
	prefix := commonPrefix(names)

	// Group the constants by the file their condition selects, keeping
	// source order within each group.
	var order []*output
	groups := make(map[*output][]enumConst)
	for _, e := range en.Items {
		v := info.values[e]
		out := g.output(u, enumeratorCond(cond, e), e.At)
		if out == nil {
			continue
		}
		c := enumConst{e: e, v: v, alias: g.syms.ordinary[e.Name.Name].goName}
		if name != "" {
			c.typed = g.syms.claim("enum "+e.Name.Name, name+fieldName(strings.TrimPrefix(e.Name.Name, prefix)))
		}
		if _, ok := groups[out]; !ok {
			order = append(order, out)
		}
		groups[out] = append(groups[out], c)
	}

	for _, out := range order {
		g.enumConsts(out, name, info.goType, groups[out])
	}

	if name != "" && isFlags(en, info.values) && g.first(o, name+".Has") {
		o.printf("// Has reports whether every bit of flag is set in f.\n")
		o.printf("func (f %s) Has(flag %s) bool { return f&flag == flag }\n\n", name, name)
		o.printf("// Without returns f with the bits of flag cleared.\n")
		o.printf("func (f %s) Without(flag %s) %s { return f &^ flag }\n\n", name, name, name)
	}
	return nil
}

// enumConsts writes one group of enumerators: typed constants named after
// the enum, then the C names as aliases. Anonymous enums only get the C
// names.
func (g *Generator) enumConsts(o *output, name, goType string, consts []enumConst) {
	var typed, aliases strings.Builder
	for _, c := range consts {
		if name == "" {
			if !g.first(o, c.alias) {
				continue
			}
			writeDoc(&typed, c.e.Doc, "\t")
			typed.WriteString("\t" + c.alias + " " + goType + " = " + c.v.GoLiteral() + "\n")
			continue
		}
		if g.first(o, c.typed) {
			writeDoc(&typed, c.e.Doc, "\t")
			typed.WriteString("\t" + c.typed + " " + name + " = " + c.v.GoLiteral() + "\n")
		}
		if c.alias != c.typed && g.first(o, c.alias) {
			aliases.WriteString("\t" + c.alias + " = " + c.typed + "\n")
		}
	}
	if typed.Len() > 0 {
		o.printf("const (\n%s)\n\n", typed.String())
	}
	if aliases.Len() > 0 {
		o.printf("const (\n%s)\n\n", aliases.String())
	}
}
