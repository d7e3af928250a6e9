package parser

import (
	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
)

// bodyScan reads the trivia, doc comments and directives that may sit
// between members. It reports whether the closing brace was reached.
type bodyScan struct {
	conds   condStack
	pending *ast.DocComment
	last    ast.Documented
}

// release pops the arms still open when a body fails to parse.
func (b *bodyScan) release(f *fileParser) {
	for _, fr := range b.conds {
		if fr.pushed {
			f.state.Pop()
		}
	}
	b.conds = nil
}

func (f *fileParser) scanBody(s *span.Span, b *bodyScan, start span.Span, allowTarget bool) (bool, error) {
	for {
		*s = s.TrimWSCStart()
		switch {
		case s.IsEmpty():
			return false, diag.Errorf(diag.StageParse, start.Head(), "unterminated declaration body")

		case span.IsDocComment(s.Text()):
			doc, postfix, rest := readDoc(*s)
			*s = rest
			if !postfix {
				b.pending = doc
				continue
			}
			if b.last == nil {
				f.sink.Warnf(diag.StageParse, doc.At, "postfix doc comment does not follow a member")
				continue
			}
			if err := attachPostfix(b.last, doc); err != nil {
				f.sink.Add(diag.StageParse, err)
			}

		case s.HasPrefix("#"):
			if err := f.bodyDirective(s, &b.conds, allowTarget); err != nil {
				return false, err
			}

		case s.HasPrefix("}"):
			if len(b.conds) > 0 {
				return false, diag.Errorf(diag.StagePreproc, b.conds[len(b.conds)-1].at, "#if is not closed inside the declaration body")
			}
			*s = s.Skip(1)
			return true, nil

		default:
			return false, nil
		}
	}
}

// fields parses the members of a struct or union body up to the closing
// brace.
func (f *fileParser) fields(s *span.Span, rec *ast.Record, start span.Span) error {
	var b bodyScan
	defer b.release(f)
	for {
		done, err := f.scanBody(s, &b, start, false)
		if err != nil || done {
			return err
		}

		fieldStart := trivia(*s)
		base, err := f.specifiers(s)
		if err != nil {
			return err
		}
		if base == nil {
			return diag.Errorf(diag.StageParse, fieldStart.Head(), "expected a member declaration, found %q", firstToken(*s))
		}

		if _, ok := punct(s, ";"); ok {
			fl := &ast.Field{At: fieldStart.Until(*s), Type: base}
			fl.Doc, b.pending = b.pending, nil
			rec.Fields = append(rec.Fields, fl)
			b.last = fl
			continue
		}

		first := true
		for {
			d, err := f.declarator(s, base, declOptional)
			if err != nil {
				return err
			}
			if d.sig != nil {
				return diag.Errorf(diag.StageParse, d.sig.At, "function declared as a member")
			}
			fl := &ast.Field{Name: d.name, Type: d.typ}
			if _, ok := punct(s, ":"); ok {
				w, err := f.assign(s)
				if err != nil {
					return err
				}
				if w == nil {
					return diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected bit-field width")
				}
				fl.BitWidth = w
			}
			fl.At = fieldStart.Until(*s)
			if first {
				fl.Doc, b.pending = b.pending, nil
				first = false
			}
			rec.Fields = append(rec.Fields, fl)
			b.last = fl

			if _, ok := punct(s, ","); ok {
				continue
			}
			f.attributes(s)
			if _, err := expect(s, ";"); err != nil {
				return err
			}
			break
		}
	}
}

// enumerators parses an enum body up to the closing brace. Enumerators
// inside target-dependent #if arms carry the arm.
func (f *fileParser) enumerators(s *span.Span, en *ast.Enum, start span.Span) error {
	var b bodyScan
	defer b.release(f)
	sep := true
	for {
		done, err := f.scanBody(s, &b, start, true)
		if err != nil || done {
			return err
		}
		if _, ok := punct(s, ","); ok {
			sep = true
			continue
		}

		at := trivia(*s)
		name, ok := ident(s)
		if !ok {
			return diag.Errorf(diag.StageParse, at.Head(), "expected an enumerator, found %q", firstToken(*s))
		}
		if !sep {
			return diag.Errorf(diag.StageParse, name.At, "expected ',' before enumerator %s", name.Name)
		}
		f.attributes(s)

		e := &ast.Enumerator{Name: name, Cond: b.conds.arm()}
		e.Doc, b.pending = b.pending, nil
		if _, ok := punct(s, "="); ok {
			x, err := f.assign(s)
			if err != nil {
				return err
			}
			if x == nil {
				return diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected a value for enumerator %s", name.Name)
			}
			e.Value = x
		}
		e.At = at.Until(*s)
		en.Items = append(en.Items, e)
		b.last = e
		sep = false
	}
}
