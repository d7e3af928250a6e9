package ast

// Inspect walks the tree rooted at n in depth-first order. If f returns
// false the children of that node are skipped. Nil children are not visited;
// optional fields must hold an untyped nil.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	visit := func(c Node) { Inspect(c, f) }

	switch n := n.(type) {
	case *File:
		if n.Doc != nil {
			visit(n.Doc)
		}
		for _, it := range n.Items {
			visit(it)
		}
	case *Define:
		switch n.Value.Kind {
		case DefineExpr:
			visit(n.Value.Expr)
		case DefineType:
			visit(n.Value.Type)
		case DefineAmbiguous:
			visit(n.Value.Expr)
			visit(n.Value.Type)
		}
	case *TypeDef:
		visit(n.Type)
	case *FunctionPointerTypedef:
		visit(n.Sig)
	case *StructDecl:
		visit(n.Record)
	case *UnionDecl:
		visit(n.Record)
	case *EnumDecl:
		visit(n.Enum)
	case *FunctionDecl:
		visit(n.Sig)
	case *GlobalVarDecl:
		visit(n.Type)
	case *ConditionalBlock:
		for _, a := range n.Arms {
			visit(a)
		}
	case *Arm:
		visit(n.Guard)
		for _, it := range n.Items {
			visit(it)
		}

	case *Pointer:
		visit(n.Elem)
	case *Array:
		visit(n.Elem)
		visit(n.Size)
	case *Record:
		for _, fl := range n.Fields {
			visit(fl)
		}
	case *Field:
		visit(n.Type)
		visit(n.BitWidth)
	case *Enum:
		visit(n.Base)
		for _, e := range n.Items {
			visit(e)
		}
	case *Enumerator:
		visit(n.Value)
	case *FuncType:
		visit(n.Result)
		for _, p := range n.Params {
			visit(p)
		}
	case *Param:
		visit(n.Type)
	case *FnPointer:
		visit(n.Sig)
	case *Infer:
		visit(n.Type)

	case *Paren:
		visit(n.X)
	case *Unary:
		visit(n.X)
	case *Binary:
		visit(n.X)
		visit(n.Y)
	case *PostOp:
		visit(n.X)
	case *Ternary:
		visit(n.Cond)
		visit(n.Then)
		visit(n.Else)
	case *Call:
		visit(n.Fn)
		for _, a := range n.Args {
			visit(a)
		}
	case *Cast:
		visit(n.Type)
		visit(n.X)
	case *Index:
		visit(n.X)
		visit(n.Index)
	case *Member:
		visit(n.X)
	case *ArrayValues:
		for _, e := range n.Elems {
			visit(e)
		}
	case *SizeOf:
		visit(n.Type)
		visit(n.X)
	case *Ambiguous:
		for _, a := range n.Alts {
			visit(a.Expr)
			visit(a.Type)
		}
	case *TypeArg:
		visit(n.Type)
	}
}

// Substitute returns a copy of e with every identifier named in args
// replaced by its argument. A parameter used in type position, as in the
// "(type)(x)" of a cast macro, is replaced by the type the argument names.
// Spans of substituted nodes are the spans of the arguments.
func Substitute(e Expr, args map[string]Expr) Expr {
	if e == nil {
		return nil
	}
	sub := func(x Expr) Expr { return Substitute(x, args) }

	switch n := e.(type) {
	case *IdentExpr:
		if a, ok := args[n.Name]; ok {
			return a
		}
		return n
	case *Paren:
		return &Paren{At: n.At, X: sub(n.X)}
	case *Unary:
		return &Unary{At: n.At, Op: n.Op, OpAt: n.OpAt, X: sub(n.X)}
	case *Binary:
		return &Binary{At: n.At, Op: n.Op, OpAt: n.OpAt, X: sub(n.X), Y: sub(n.Y)}
	case *PostOp:
		return &PostOp{At: n.At, Op: n.Op, X: sub(n.X)}
	case *Ternary:
		return &Ternary{At: n.At, Cond: sub(n.Cond), Then: sub(n.Then), Else: sub(n.Else)}
	case *Call:
		c := &Call{At: n.At, Fn: sub(n.Fn), Args: make([]Expr, len(n.Args))}
		for i, a := range n.Args {
			c.Args[i] = sub(a)
		}
		return c
	case *Cast:
		return &Cast{At: n.At, Type: SubstituteType(n.Type, args), X: sub(n.X)}
	case *Index:
		return &Index{At: n.At, X: sub(n.X), Index: sub(n.Index)}
	case *Member:
		return &Member{At: n.At, X: sub(n.X), Arrow: n.Arrow, Name: n.Name}
	case *ArrayValues:
		av := &ArrayValues{At: n.At, Elems: make([]Expr, len(n.Elems))}
		for i, x := range n.Elems {
			av.Elems[i] = sub(x)
		}
		return av
	case *SizeOf:
		if n.Type != nil {
			return &SizeOf{At: n.At, Type: SubstituteType(n.Type, args)}
		}
		return &SizeOf{At: n.At, X: sub(n.X)}
	case *Ambiguous:
		amb := &Ambiguous{At: n.At, Alts: make([]Alternative, len(n.Alts))}
		for i, a := range n.Alts {
			if a.Expr != nil {
				amb.Alts[i].Expr = sub(a.Expr)
			} else {
				amb.Alts[i].Type = SubstituteType(a.Type, args)
			}
		}
		return amb
	}
	return e
}

// SubstituteType replaces typedef names that are macro parameters.
func SubstituteType(t Type, args map[string]Expr) Type {
	switch n := t.(type) {
	case *Named:
		a, ok := args[n.Name]
		if !ok {
			return n
		}
		if typ := ExprAsType(a); typ != nil {
			return typ
		}
		return n
	case *Pointer:
		return &Pointer{At: n.At, Elem: SubstituteType(n.Elem, args), Const: n.Const, Volatile: n.Volatile}
	case *Array:
		var size Expr
		if n.Size != nil {
			size = Substitute(n.Size, args)
		}
		return &Array{At: n.At, Elem: SubstituteType(n.Elem, args), Size: size}
	}
	return t
}

// ExprAsType returns the type an expression spells when it is used as a
// macro argument in type position, or nil.
func ExprAsType(e Expr) Type {
	switch a := e.(type) {
	case *IdentExpr:
		return &Named{At: a.At, Name: a.Name}
	case *Paren:
		return ExprAsType(a.X)
	case *TypeArg:
		return a.Type
	case *Ambiguous:
		for _, alt := range a.Alts {
			if alt.Type != nil {
				return alt.Type
			}
		}
	}
	return nil
}
