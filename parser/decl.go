package parser

import (
	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
)

type declMode uint8

const (
	declNamed    declMode = iota // declarations: a name is required
	declOptional                 // parameters and members: a name may be omitted
	declAbstract                 // type names: no name is allowed
)

// declarator is the result of parsing one declarator against a base type.
// sig is set when the declarator names a function.
type declarator struct {
	name ast.Ident
	typ  ast.Type
	sig  *ast.FuncType
}

// declarator parses pointers, an optional name or parenthesized function
// pointer, and the array or parameter suffix.
func (f *fileParser) declarator(s *span.Span, base ast.Type, mode declMode) (declarator, error) {
	start := trivia(*s)
	t := f.pointers(s, base)
	f.attributes(s)

	if fp, ok, err := f.fnPointer(s, t, start, mode); err != nil || ok {
		return fp, err
	}

	var d declarator
	if name := peekIdent(*s); mode != declAbstract && name != "" && !keywords[name] {
		d.name, _ = ident(s)
		f.attributes(s)
	}
	if mode == declNamed && d.name.IsZero() {
		return d, diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected a declarator name, found %q", firstToken(*s))
	}

	if mode != declAbstract && peekOp(*s) == "(" {
		punct(s, "(")
		params, variadic, err := f.paramList(s)
		if err != nil {
			return d, err
		}
		d.sig = &ast.FuncType{At: span.Join(t.Span(), start.Until(*s)), Result: t, Params: params, Variadic: variadic}
		d.typ = d.sig
		f.attributes(s)
		return d, nil
	}

	sizes, ends, err := f.arrays(s)
	if err != nil {
		return d, err
	}
	d.typ = wrapArrays(t, sizes, ends)
	f.attributes(s)
	return d, nil
}

// fnPointer parses "( [attrs] * [name] [arrays] ) ( params )". It reports
// false, leaving the cursor alone, when the parenthesis does not open a
// function pointer declarator.
func (f *fileParser) fnPointer(s *span.Span, result ast.Type, start span.Span, mode declMode) (declarator, bool, error) {
	var d declarator
	c := *s
	if _, ok := punct(&c, "("); !ok {
		return d, false, nil
	}
	f.attributes(&c)
	if peekOp(c) != "*" {
		return d, false, nil
	}

	stars := 0
	for {
		if _, ok := punct(&c, "*"); !ok {
			break
		}
		var q quals
		f.qualifiers(&c, &q)
		stars++
	}
	if name := peekIdent(c); name != "" && !keywords[name] {
		if mode == declAbstract {
			return d, false, nil
		}
		d.name, _ = ident(&c)
	}
	sizes, ends, err := f.arrays(&c)
	if err != nil {
		return d, false, err
	}
	if _, err := expect(&c, ")"); err != nil {
		return d, false, err
	}
	if _, err := expect(&c, "("); err != nil {
		return d, false, err
	}
	params, variadic, err := f.paramList(&c)
	if err != nil {
		return d, false, err
	}
	f.attributes(&c)

	at := span.Join(result.Span(), start.Until(c))
	sig := &ast.FuncType{At: at, Result: result, Params: params, Variadic: variadic}
	var t ast.Type = &ast.FnPointer{At: at, Sig: sig}
	for i := 1; i < stars; i++ {
		t = &ast.Pointer{At: at, Elem: t}
	}
	d.typ = wrapArrays(t, sizes, ends)
	*s = c
	return d, true, nil
}

// paramList parses a parameter list after its opening parenthesis. "(void)"
// and "()" declare no parameters. Array parameters decay to pointers.
func (f *fileParser) paramList(s *span.Span) ([]*ast.Param, bool, error) {
	if _, ok := punct(s, ")"); ok {
		return nil, false, nil
	}
	c := *s
	if _, ok := keyword(&c, "void"); ok {
		if _, ok := punct(&c, ")"); ok {
			*s = c
			return nil, false, nil
		}
	}

	var out []*ast.Param
	for {
		if _, ok := punct(s, "..."); ok {
			_, err := expect(s, ")")
			return out, true, err
		}

		start := trivia(*s)
		base, err := f.specifiers(s)
		if err != nil {
			return nil, false, err
		}
		if base == nil {
			return nil, false, diag.Errorf(diag.StageParse, start.Head(), "expected a parameter type, found %q", firstToken(*s))
		}
		d, err := f.declarator(s, base, declOptional)
		if err != nil {
			return nil, false, err
		}

		typ := d.typ
		switch t := typ.(type) {
		case *ast.Array:
			typ = &ast.Pointer{At: t.At, Elem: t.Elem}
		case *ast.FuncType:
			typ = &ast.FnPointer{At: t.At, Sig: t}
		}
		out = append(out, &ast.Param{At: start.Until(*s), Name: d.name, Type: typ})

		if _, ok := punct(s, ","); ok {
			continue
		}
		if _, err := expect(s, ")"); err != nil {
			return nil, false, err
		}
		return out, false, nil
	}
}

type storage struct {
	typedef bool
	extern  bool
	static  bool
	inline  bool
}

// decl parses one declaration. It returns nil items, leaving the cursor
// alone, when the input does not start a declaration.
func (f *fileParser) decl(s *span.Span) ([]ast.Item, error) {
	start := trivia(*s)
	cur := *s

	if _, ok := punct(&cur, ";"); ok {
		*s = cur
		return []ast.Item{&ast.Empty{At: start.Until(cur)}}, nil
	}

	if _, ok := keyword(&cur, "extern"); ok {
		if lit, err := stringLiteral(&cur); err == nil && lit != nil {
			if _, ok := punct(&cur, "{"); ok {
				f.externC++
				*s = cur
				return []ast.Item{}, nil
			}
			*s = cur
			start = trivia(cur)
		}
		cur = *s
	}

	var st storage
	seen := false
loop:
	for {
		f.attributes(&cur)
		switch peekIdent(cur) {
		case "typedef":
			st.typedef = true
		case "extern":
			st.extern = true
		case "static":
			st.static = true
		case "inline", "__inline", "__inline__":
			st.inline = true
		case "_Noreturn", "register", "auto":
		default:
			break loop
		}
		ident(&cur)
		seen = true
	}

	if _, ok := punct(&cur, ";"); ok {
		*s = cur
		return []ast.Item{&ast.Empty{At: start.Until(cur)}}, nil
	}

	if name := peekIdent(cur); name != "" && !seen && f.isFuncMacro(name) {
		c := cur
		ident(&c)
		if skipBalanced(&c, '(', ')') {
			if _, ok := punct(&c, ";"); ok {
				f.sink.Warnf(diag.StageParse, start.Until(c), "skipped top-level invocation of macro %s", name)
				*s = c
				return []ast.Item{&ast.Empty{At: start.Until(c)}}, nil
			}
		}
	}

	if err := f.unknownAttribute(cur); err != nil {
		return nil, err
	}

	base, err := f.specifiers(&cur)
	if err != nil {
		return nil, err
	}
	if base == nil {
		if seen {
			return nil, diag.Errorf(diag.StageParse, trivia(cur).Head(), "expected a type, found %q", firstToken(cur))
		}
		return nil, nil
	}

	if _, ok := punct(&cur, ";"); ok {
		*s = cur
		item := tagItem(base)
		if item == nil {
			return nil, diag.Errorf(diag.StageParse, start.Until(cur), "declaration does not declare anything")
		}
		setAt(item, start.Until(cur))
		return []ast.Item{item}, nil
	}

	var items []ast.Item
	if hasBody(base) {
		items = append(items, tagItem(base))
	}
	for {
		d, err := f.declarator(&cur, base, declNamed)
		if err != nil {
			return nil, err
		}

		switch {
		case st.typedef:
			items = append(items, typedefItem(d))
			f.types[d.name.Name] = true

		case d.sig != nil:
			fn := &ast.FunctionDecl{Name: d.name, Sig: d.sig, Static: st.static, Inline: st.inline}
			items = append(items, fn)
			if peekOp(cur) == "{" {
				if !skipBalanced(&cur, '{', '}') {
					return nil, diag.Errorf(diag.StageParse, trivia(cur).Head(), "unterminated function body")
				}
				fn.HasBody = true
				for _, it := range items {
					setAt(it, start.Until(cur))
				}
				*s = cur
				return items, nil
			}

		default:
			if _, ok := punct(&cur, "="); ok {
				if err := f.initializer(&cur); err != nil {
					return nil, err
				}
			}
			items = append(items, &ast.GlobalVarDecl{Name: d.name, Type: d.typ, Extern: st.extern})
		}

		if _, ok := punct(&cur, ","); ok {
			continue
		}
		f.attributes(&cur)
		if _, err := expect(&cur, ";"); err != nil {
			return nil, err
		}
		break
	}

	at := start.Until(cur)
	for _, it := range items {
		setAt(it, at)
	}
	*s = cur
	return items, nil
}

// unknownAttribute rejects an all-caps identifier that is neither a type
// nor a known macro when another identifier follows it, which is how an
// unlisted export or calling-convention macro shows up.
func (f *fileParser) unknownAttribute(s span.Span) error {
	name := peekIdent(s)
	if !looksLikeMacro(name) || f.isTypeName(name) || len(f.state.Macros(name)) > 0 {
		return nil
	}
	c := s
	id, _ := ident(&c)
	switch next := peekIdent(c); {
	case next == "":
		return nil
	case keywords[next] && !primitiveWords[next] && !startsType[next]:
		return nil
	}
	return diag.Errorf(diag.StageParse, id.At, "unknown attribute-like identifier %s", name).
		WithNote("add it to the skip list if it expands to nothing")
}

// startsType holds the keywords that may begin a declaration's type.
var startsType = map[string]bool{
	"const": true, "volatile": true, "struct": true, "union": true, "enum": true,
}

func (f *fileParser) isFuncMacro(name string) bool {
	for _, b := range f.state.Macros(name) {
		if b.Define.FuncLike {
			return true
		}
	}
	return false
}

func looksLikeMacro(name string) bool {
	if len(name) < 2 {
		return false
	}
	letters := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			letters = true
		case c == '_' || isDigit(c):
		default:
			return false
		}
	}
	return letters
}

func (f *fileParser) initializer(s *span.Span) error {
	if peekOp(*s) == "{" {
		if !skipBalanced(s, '{', '}') {
			return diag.Errorf(diag.StageParse, trivia(*s).Head(), "unterminated initializer")
		}
		return nil
	}
	x, err := f.assign(s)
	if err != nil {
		return err
	}
	if x == nil {
		return diag.Errorf(diag.StageParse, trivia(*s).Head(), "expected initializer")
	}
	return nil
}

func hasBody(t ast.Type) bool {
	switch t := t.(type) {
	case *ast.Record:
		return t.HasBody
	case *ast.Enum:
		return t.HasBody
	}
	return false
}

// tagItem returns the top-level item declaring a struct, union or enum.
func tagItem(t ast.Type) ast.Item {
	switch t := t.(type) {
	case *ast.Record:
		if t.Union {
			return &ast.UnionDecl{Record: t}
		}
		return &ast.StructDecl{Record: t}
	case *ast.Enum:
		return &ast.EnumDecl{Enum: t}
	}
	return nil
}

func typedefItem(d declarator) ast.Item {
	if fp, ok := d.typ.(*ast.FnPointer); ok {
		return &ast.FunctionPointerTypedef{Name: d.name, Sig: fp.Sig}
	}
	return &ast.TypeDef{Name: d.name, Type: d.typ}
}

func setAt(it ast.Item, at span.Span) {
	switch it := it.(type) {
	case *ast.TypeDef:
		it.At = at
	case *ast.FunctionPointerTypedef:
		it.At = at
	case *ast.StructDecl:
		it.At = at
	case *ast.UnionDecl:
		it.At = at
	case *ast.EnumDecl:
		it.At = at
	case *ast.FunctionDecl:
		it.At = at
	case *ast.GlobalVarDecl:
		it.At = at
	}
}
