package generator

import (
	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/preproc"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

type symKind uint8

const (
	symType symKind = iota
	symStruct
	symUnion
	symEnum
	symConst
	symFunc
	symVar
	symMacro
)

// symbol is one registered C name and the Go name it is emitted as.
type symbol struct {
	kind   symKind
	name   string
	goName string
	at     span.Span
	typ    ast.Type

	// record is the struct or union body, once one was seen.
	record *ast.Record
	enum   *ast.Enum
	value  value.Value

	// doc comes from a typedef that names a struct, union or enum without
	// emitting anything of its own.
	doc *ast.DocComment

	// alias is set on typedefs that emit "type Name = T".
	alias   bool
	emitted bool
}

// symbols holds the C ordinary and tag namespaces and the Go names taken so
// far. Go names are handed out in registration order, so the first
// declaration keeps the plain name.
type symbols struct {
	ordinary map[string]*symbol
	tags     map[string]*symbol
	anon     map[ast.Type]*symbol
	goNames  map[string]string
	tagOrder []*symbol
}

func newSymbols() *symbols {
	return &symbols{
		ordinary: make(map[string]*symbol),
		tags:     make(map[string]*symbol),
		anon:     make(map[ast.Type]*symbol),
		goNames:  make(map[string]string),
	}
}

// claim reserves a Go name for owner, adding underscores until it is free.
func (t *symbols) claim(owner, want string) string {
	name := want
	for {
		o, ok := t.goNames[name]
		if !ok {
			t.goNames[name] = owner
			return name
		}
		if o == owner {
			return name
		}
		name += "_"
	}
}

// declare registers an ordinary identifier. A name that is already
// registered keeps its first declaration.
func (t *symbols) declare(kind symKind, name string, at span.Span, typ ast.Type) *symbol {
	if s, ok := t.ordinary[name]; ok {
		return s
	}
	s := symbol{kind: kind, name: name, at: at, typ: typ}
	s.goName = t.claim(name, exportName(name))
	t.ordinary[name] = &s
	return &s
}

// tag registers a struct or union tag and remembers its body.
func (t *symbols) tag(rec *ast.Record) *symbol {
	s, ok := t.tags[rec.Tag]
	if !ok {
		kind := symStruct
		if rec.Union {
			kind = symUnion
		}
		s = &symbol{kind: kind, name: rec.Tag, at: rec.At}
		s.goName = t.claim("tag "+rec.Tag, exportName(rec.Tag))
		t.tags[rec.Tag] = s
		t.tagOrder = append(t.tagOrder, s)
	}
	if rec.HasBody && s.record == nil {
		s.record = rec
	}
	return s
}

func (t *symbols) tagEnum(en *ast.Enum) *symbol {
	s, ok := t.tags[en.Tag]
	if !ok {
		s = &symbol{kind: symEnum, name: en.Tag, at: en.At}
		s.goName = t.claim("tag "+en.Tag, exportName(en.Tag))
		t.tags[en.Tag] = s
		t.tagOrder = append(t.tagOrder, s)
	}
	if en.HasBody && s.enum == nil {
		s.enum = en
	}
	return s
}

// env answers the evaluator's questions about symbols, types and fields on
// top of the preprocessor. cond is the target condition of the declaration
// being emitted; macro bindings that cannot hold under it are hidden.
type env struct {
	*preproc.State
	g    *Generator
	cond value.DefineState
}

func (e *env) Macros(name string) []eval.Binding {
	all := e.State.Macros(name)
	if e.cond.IsTrue() {
		return all
	}
	var out []eval.Binding
	for _, b := range all {
		if value.And(e.cond, b.Cond).IsFalse() {
			continue
		}
		if value.And(e.cond, value.Not(b.Cond)).IsFalse() {
			b.Cond = value.True()
		}
		out = append(out, b)
	}
	return out
}

func (e *env) Symbol(name string) (value.Value, bool) {
	s, ok := e.g.syms.ordinary[name]
	if !ok || s.kind != symConst {
		return value.Value{}, false
	}
	return s.value, true
}

func (e *env) Type(t ast.Type) (eval.TypeInfo, bool) {
	return e.g.typeInfo(t)
}

func (e *env) Field(t ast.Type, name string) (string, bool) {
	rec, ok := e.g.resolve(t).(*ast.Record)
	if !ok {
		return "", false
	}
	if !rec.HasBody && rec.Tag != "" {
		if s := e.g.syms.tags[rec.Tag]; s != nil && s.record != nil {
			rec = s.record
		}
	}
	return e.g.memberPath(rec, name)
}

// under evaluates fn with the environment restricted to cond.
func (e *env) under(cond value.DefineState, fn func()) {
	saved := e.cond
	e.cond = cond
	defer func() { e.cond = saved }()
	fn()
}
