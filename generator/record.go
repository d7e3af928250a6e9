package generator

import (
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/value"
)

// memberNames returns the Go field name of every member of rec. Anonymous
// members are named after their position.
func memberNames(rec *ast.Record) []string {
	names := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		if f.Name.Name == "" {
			names[i] = "Anon" + itoa(i)
			continue
		}
		names[i] = fieldName(f.Name.Name)
	}
	return uniqueNames(names)
}

// memberPath returns the Go selector path to the C member name, looking
// through anonymous members the way C does.
func (g *Generator) memberPath(rec *ast.Record, name string) (string, bool) {
	names := memberNames(rec)
	for i, f := range rec.Fields {
		if f.Name.Name == name {
			return names[i], true
		}
	}
	for i, f := range rec.Fields {
		if f.Name.Name != "" {
			continue
		}
		inner, ok := g.resolve(f.Type).(*ast.Record)
		if !ok {
			continue
		}
		if p, ok := g.memberPath(inner, name); ok {
			return names[i] + "." + p, true
		}
	}
	return "", false
}

func (g *Generator) emitRecordDecl(u *unit, rec *ast.Record, doc *ast.DocComment, cond value.DefineState) error {
	o := g.output(u, cond, rec.At)
	if o == nil {
		return nil
	}
	if !rec.HasBody {
		g.emitOpaque(o, rec)
		return nil
	}

	var s *symbol
	if rec.Tag != "" {
		s = g.syms.tags[rec.Tag]
	} else {
		s = g.syms.anon[rec]
	}
	if s == nil {
		// An anonymous record nobody names has nothing to emit.
		return nil
	}
	if !g.first(o, s.goName) {
		return nil
	}
	s.emitted = true
	if doc == nil {
		doc = s.doc
	}
	return g.emitRecord(o, s.goName, rec, doc)
}

// emitRecord writes a struct or union with its members. Nested records
// that have no name of their own are named after the member holding them
// and written first.
func (g *Generator) emitRecord(o *output, name string, rec *ast.Record, doc *ast.DocComment) error {
	names := memberNames(rec)
	types := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		if f.BitWidth != nil {
			return diag.Errorf(diag.StageEmit, f.At, "bit-field %s in %s has no Go layout", f.Name.Name, name)
		}
		t, err := g.memberType(o, name+names[i], f.Type)
		if err != nil {
			return err
		}
		types[i] = t
	}

	o.doc(doc, "")
	if rec.Union {
		g.writeUnion(o, name, rec, names, types)
		return nil
	}

	o.printf("type %s struct {\n\t_ structs.HostLayout\n", name)
	for i, f := range rec.Fields {
		o.doc(f.Doc, "\t")
		o.printf("\t%s %s\n", names[i], types[i])
	}
	o.printf("}\n\n")
	return nil
}

// memberType spells the type of one member, emitting the records it
// defines inline.
func (g *Generator) memberType(o *output, nested string, t ast.Type) (string, error) {
	switch r := t.(type) {
	case *ast.Record:
		if !r.HasBody {
			break
		}
		if r.Tag != "" {
			s := g.syms.tags[r.Tag]
			if s != nil && s.record == r && !s.emitted && g.first(o, s.goName) {
				s.emitted = true
				if err := g.emitRecord(o, s.goName, r, r.Doc); err != nil {
					return "", err
				}
			}
			break
		}
		if _, ok := g.syms.anon[r]; ok {
			break
		}
		s := symbol{kind: symStruct, goName: g.syms.claim("anon "+nested, nested), at: r.At, record: r, emitted: true}
		if r.Union {
			s.kind = symUnion
		}
		g.syms.anon[r] = &s
		if err := g.emitRecord(o, s.goName, r, r.Doc); err != nil {
			return "", err
		}
		return s.goName, nil

	case *ast.Array:
		elem, err := g.memberType(o, nested, r.Elem)
		if err != nil {
			return "", err
		}
		if r.Size == nil {
			return "[0]" + elem, nil
		}
		n, err := g.arrayLen(r.Size)
		if err != nil {
			return "", err
		}
		return "[" + n + "]" + elem, nil
	}
	return g.goType(t)
}

// writeUnion lays a union out as a byte payload as large as its largest
// member, aligned by zero-length arrays of every member type, with one
// accessor per member.
func (g *Generator) writeUnion(o *output, name string, rec *ast.Record, names, types []string) {
	o.printf("type %s struct {\n\t_ structs.HostLayout\n", name)
	sizes := make([]string, len(types))
	for i, t := range types {
		o.printf("\t_ [0]%s\n", t)
		sizes[i] = "unsafe.Sizeof(*new(" + t + "))"
	}
	if len(sizes) == 0 {
		o.printf("\tdata [0]byte\n}\n\n")
		return
	}
	o.printf("\tdata [max(%s)]byte\n}\n\n", strings.Join(sizes, ", "))

	for i, f := range rec.Fields {
		o.doc(f.Doc, "")
		o.printf("func (u *%s) %s() *%s { return (*%s)(unsafe.Pointer(&u.data)) }\n\n", name, names[i], types[i], types[i])
	}
}

// emitOpaque writes the handle type for a struct or union that t refers to
// when no header ever gives it a body. Handles only go to unconditional
// files; the prelude picks up the rest.
func (g *Generator) emitOpaque(o *output, t ast.Type) {
	if o.constraint != "" {
		return
	}
unwrap:
	for {
		switch x := t.(type) {
		case *ast.Pointer:
			t = x.Elem
		case *ast.Array:
			t = x.Elem
		default:
			break unwrap
		}
	}

	var s *symbol
	switch x := t.(type) {
	case *ast.Record:
		if x.Tag != "" {
			s = g.syms.tags[x.Tag]
		}
	case *ast.Named:
		if _, ok := g.syms.ordinary[x.Name]; !ok {
			s = g.syms.tags[x.Name]
		}
	}
	if s == nil || s.kind == symEnum || s.record != nil || s.emitted {
		return
	}
	s.emitted = true
	o.doc(s.doc, "")
	writeOpaque(o, s.goName)
}

func writeOpaque(o *output, name string) {
	o.printf("type %s struct {\n\t_ structs.HostLayout\n\t_ [0]byte\n}\n\n", name)
}
