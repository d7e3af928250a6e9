package generator

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/value"
)

// emitFunction declares a function variable that Register fills in from
// the library.
func (g *Generator) emitFunction(u *unit, fd *ast.FunctionDecl, cond value.DefineState) error {
	o := g.output(u, cond, fd.At)
	if o == nil {
		return nil
	}
	name := fd.Name.Name
	s := g.syms.ordinary[name]
	if s == nil || s.kind != symFunc || !g.first(o, s.goName) {
		return nil
	}

	switch {
	case fd.HasBody || fd.Static:
		notTranslated(o, name, "inline function", fd.At)
		return nil
	case fd.Sig.Variadic:
		notTranslated(o, name, "variadic function", fd.At)
		return nil
	}

	sig, err := g.signature(fd.Sig, true)
	if err != nil {
		return err
	}
	g.emitOpaque(o, fd.Sig.Result)
	for _, p := range fd.Sig.Params {
		g.emitOpaque(o, p.Type)
	}

	o.doc(fd.Doc, "")
	o.printf("var %s %s\n\n", s.goName, sig)
	o.bind("binding{name: %q, fn: &%s}", name, s.goName)
	return nil
}

// emitCallback writes a function pointer typedef as a uintptr type and a
// constructor that turns a Go function into a C callback.
func (g *Generator) emitCallback(u *unit, td *ast.FunctionPointerTypedef, cond value.DefineState) error {
	o := g.output(u, cond, td.At)
	if o == nil {
		return nil
	}
	s := g.syms.ordinary[td.Name.Name]
	if s == nil || s.kind != symType || !g.first(o, s.goName) {
		return nil
	}

	o.doc(td.Doc, "")
	o.printf("type %s uintptr\n\n", s.goName)
	if td.Sig.Variadic {
		return nil
	}

	sig, err := g.signature(td.Sig, false)
	if err != nil {
		return err
	}
	o.printf("// New%s wraps fn as a %s. The callback is never released.\n", s.goName, s.goName)
	o.printf("func New%s(fn %s) %s {\n\treturn %s(purego.NewCallback(fn))\n}\n\n", s.goName, sig, s.goName, s.goName)
	return nil
}

// emitVar declares a pointer to an exported global that Register resolves.
func (g *Generator) emitVar(u *unit, vd *ast.GlobalVarDecl, cond value.DefineState) error {
	o := g.output(u, cond, vd.At)
	if o == nil {
		return nil
	}
	name := vd.Name.Name
	s := g.syms.ordinary[name]
	if s == nil || s.kind != symVar || !g.first(o, s.goName) {
		return nil
	}

	goType, err := g.goType(vd.Type)
	if err != nil {
		return err
	}
	g.emitOpaque(o, vd.Type)

	o.doc(vd.Doc, "")
	o.printf("var %s *%s\n\n", s.goName, goType)
	o.bind("binding{name: %q, addr: (*unsafe.Pointer)(unsafe.Pointer(&%s))}", name, s.goName)
	return nil
}

// signature spells a C function type as a Go func type. With strs set,
// read-only C strings become Go strings.
func (g *Generator) signature(sig *ast.FuncType, strs bool) (string, error) {
	spell := g.goType
	if strs {
		spell = g.paramType
	}

	names := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		names[i] = paramName(p.Name.Name, i)
	}
	names = uniqueNames(names)

	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		t, err := spell(p.Type)
		if err != nil {
			return "", err
		}
		params[i] = names[i] + " " + t
	}

	out := "func(" + strings.Join(params, ", ") + ")"
	if ast.IsVoid(sig.Result) {
		return out, nil
	}
	result, err := spell(sig.Result)
	if err != nil {
		return "", err
	}
	return out + " " + result, nil
}
