// Package generator turns parsed SDL headers into Go source that binds the
// library through purego. Every header becomes one Go file, plus one
// companion file per distinct target condition found in it.
package generator

import (
	"fmt"
	"go/build/constraint"
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/preproc"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// Options control the emitted package.
type Options struct {
	// Package is the Go package name, "sdl" when empty.
	Package string

	// Library is the shared library base name, "SDL3" when empty.
	Library string

	// Skip lists macros that are never emitted.
	Skip map[string]bool
}

// File is one generated Go source file.
type File struct {
	Name   string
	Source []byte
}

// Generator emits Go bindings for a set of parsed headers.
type Generator struct {
	opts  Options
	state *preproc.State
	sink  *diag.Sink
	env   *env

	syms    *symbols
	enums   map[*ast.Enum]*enumInfo
	targets map[string]constraint.Expr
	once    map[string]bool
	files   map[string]bool
	headers []string
}

// New returns a generator that resolves macros through state and reports
// problems to sink.
func New(opts Options, state *preproc.State, sink *diag.Sink) *Generator {
	if opts.Package == "" {
		opts.Package = "sdl"
	}
	if opts.Library == "" {
		opts.Library = "SDL3"
	}

	g := Generator{
		opts:    opts,
		state:   state,
		sink:    sink,
		syms:    newSymbols(),
		enums:   make(map[*ast.Enum]*enumInfo),
		targets: make(map[string]constraint.Expr),
		once:    make(map[string]bool),
		files:   make(map[string]bool),
	}
	g.env = &env{State: state, g: &g, cond: value.True()}
	for _, name := range preludeFiles(opts.Package) {
		g.files[name] = true
	}
	for _, name := range preludeNames {
		g.syms.claim("prelude", name)
	}
	return &g
}

// Generate registers every file, emits them in order and finishes with the
// package prelude. Problems with individual declarations go to the sink; the
// returned error is reserved for output that could not be produced at all.
func (g *Generator) Generate(files []*ast.File) ([]File, error) {
	for _, f := range files {
		g.Register(f)
	}

	var out []File
	for _, f := range files {
		emitted, err := g.Emit(f)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", f.Name, err)
		}
		out = append(out, emitted...)
	}

	prelude, err := g.Prelude()
	if err != nil {
		return nil, fmt.Errorf("generating prelude: %w", err)
	}
	return append(out, prelude...), nil
}

// Register records every name a file declares and folds its enumerator
// values, so later files can refer to them.
func (g *Generator) Register(f *ast.File) {
	g.headers = append(g.headers, f.Name)
	g.registerItems(f.Items, value.True())
	g.foldEnums(f.Items, value.True())
}

// Emit renders the Go files for one registered header.
func (g *Generator) Emit(f *ast.File) ([]File, error) {
	u := g.newUnit(f)
	g.emitItems(u, f.Items, value.True())

	var files []File
	for _, o := range u.outputs() {
		if o != u.primary && o.empty() {
			continue
		}
		file, err := g.render(o)
		if err != nil {
			g.sink.Report(diag.Errorf(diag.StageInternal, f.At, "%v", err))
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (g *Generator) registerItems(items []ast.Item, cond value.DefineState) {
	for _, it := range items {
		switch it := it.(type) {
		case *ast.TypeDef:
			g.registerTypes(it.Type)
			g.registerTypeDef(it)
		case *ast.FunctionPointerTypedef:
			g.registerTypes(it.Sig)
			g.syms.declare(symType, it.Name.Name, it.At, &ast.FnPointer{At: it.At, Sig: it.Sig})
		case *ast.StructDecl:
			g.registerTypes(it.Record)
		case *ast.UnionDecl:
			g.registerTypes(it.Record)
		case *ast.EnumDecl:
			g.registerTypes(it.Enum)
		case *ast.FunctionDecl:
			g.registerTypes(it.Sig)
			g.syms.declare(symFunc, it.Name.Name, it.At, it.Sig)
		case *ast.GlobalVarDecl:
			g.registerTypes(it.Type)
			g.syms.declare(symVar, it.Name.Name, it.At, it.Type)
		case *ast.Define:
			if !g.skipMacro(it.Name.Name) {
				g.syms.declare(symMacro, it.Name.Name, it.At, nil)
			}
		case *ast.ConditionalBlock:
			for _, arm := range it.Arms {
				g.registerItems(arm.Items, value.And(cond, arm.Cond))
			}
		}
	}
}

// registerTypeDef names the typedef. A typedef of an anonymous struct or
// enum gives the type its name; a typedef that repeats a tag's name is the
// tag's type and emits nothing of its own.
func (g *Generator) registerTypeDef(td *ast.TypeDef) {
	name := td.Name.Name
	if _, ok := g.syms.ordinary[name]; ok {
		return
	}

	var tagged *symbol
	switch t := td.Type.(type) {
	case *ast.Record:
		if t.Tag == "" {
			s := g.syms.declare(symType, name, td.At, td.Type)
			s.doc = td.Doc
			g.syms.anon[t] = s
			return
		}
		tagged = g.syms.tags[t.Tag]
	case *ast.Enum:
		if t.Tag == "" {
			s := g.syms.declare(symType, name, td.At, td.Type)
			s.doc = td.Doc
			g.syms.anon[t] = s
			return
		}
		tagged = g.syms.tags[t.Tag]
	}

	if tagged != nil && tagged.goName == exportName(name) {
		g.syms.ordinary[name] = &symbol{kind: symType, name: name, goName: tagged.goName, at: td.At, typ: td.Type}
		if tagged.doc == nil {
			tagged.doc = td.Doc
		}
		return
	}
	s := g.syms.declare(symType, name, td.At, td.Type)
	s.alias = true
}

// registerTypes declares every struct, union and enum tag t mentions.
func (g *Generator) registerTypes(t ast.Type) {
	switch t := t.(type) {
	case *ast.Pointer:
		g.registerTypes(t.Elem)
	case *ast.Array:
		g.registerTypes(t.Elem)
	case *ast.FnPointer:
		g.registerTypes(t.Sig)
	case *ast.FuncType:
		g.registerTypes(t.Result)
		for _, p := range t.Params {
			g.registerTypes(p.Type)
		}
	case *ast.Record:
		if t.Tag != "" {
			g.syms.tag(t)
		}
		for _, f := range t.Fields {
			g.registerTypes(f.Type)
		}
	case *ast.Enum:
		if t.Tag != "" {
			g.syms.tagEnum(t)
		}
	}
}

func (g *Generator) emitItems(u *unit, items []ast.Item, cond value.DefineState) {
	for _, it := range items {
		if c, ok := it.(*ast.ConditionalBlock); ok {
			for _, arm := range c.Arms {
				g.emitItems(u, arm.Items, value.And(cond, arm.Cond))
			}
			continue
		}

		var err error
		switch it := it.(type) {
		case *ast.DocComment:
			if o := g.output(u, cond, it.At); o != nil {
				o.doc(it, "")
				o.printf("\n")
			}
		case *ast.Define:
			g.emitDefine(u, it, cond)
		case *ast.TypeDef:
			err = g.emitTypeDef(u, it, cond)
		case *ast.FunctionPointerTypedef:
			err = g.emitCallback(u, it, cond)
		case *ast.StructDecl:
			err = g.emitRecordDecl(u, it.Record, it.Doc, cond)
		case *ast.UnionDecl:
			err = g.emitRecordDecl(u, it.Record, it.Doc, cond)
		case *ast.EnumDecl:
			err = g.emitEnum(u, it, cond)
		case *ast.FunctionDecl:
			err = g.emitFunction(u, it, cond)
		case *ast.GlobalVarDecl:
			err = g.emitVar(u, it, cond)
		}
		if err != nil {
			g.sink.Add(diag.StageEmit, err)
		}
	}
}

func (g *Generator) emitTypeDef(u *unit, td *ast.TypeDef, cond value.DefineState) error {
	o := g.output(u, cond, td.At)
	if o == nil {
		return nil
	}
	g.emitOpaque(o, td.Type)

	s := g.syms.ordinary[td.Name.Name]
	if s == nil || s.kind != symType || !s.alias {
		return nil
	}
	goType, err := g.goType(td.Type)
	if err != nil {
		return err
	}
	if !g.first(o, s.goName) {
		return nil
	}
	o.doc(td.Doc, "")
	o.printf("type %s = %s\n\n", s.goName, goType)
	return nil
}

// skipMacro reports whether a macro is never emitted: configured skips and
// names reserved to the compiler.
func (g *Generator) skipMacro(name string) bool {
	if g.opts.Skip[name] {
		return true
	}
	return strings.HasPrefix(name, "__") ||
		(len(name) > 1 && name[0] == '_' && name[1] >= 'A' && name[1] <= 'Z')
}

// first reports whether name is declared in o for the first time.
func (g *Generator) first(o *output, name string) bool {
	key := o.name + "\x00" + name
	if g.once[key] {
		return false
	}
	g.once[key] = true
	return true
}

// notTranslated leaves a note in the output for a declaration that has no
// Go form.
func notTranslated(o *output, name, what string, at span.Span) {
	o.printf("// %s: %s not translated (%s)\n\n", name, what, at.Pos())
}
