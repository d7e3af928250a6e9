package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/value"
)

// sexpr renders an expression as a compact s-expression for comparisons.
func sexpr(x ast.Expr) string {
	switch n := x.(type) {
	case nil:
		return "<nil>"
	case *ast.Literal:
		if n.Value.Kind == value.String {
			return strconv.Quote(n.Value.Str)
		}
		return n.At.Text()
	case *ast.IdentExpr:
		return n.Name
	case *ast.Paren:
		return "(paren " + sexpr(n.X) + ")"
	case *ast.Unary:
		return "(u" + n.Op + " " + sexpr(n.X) + ")"
	case *ast.Binary:
		return "(" + n.Op + " " + sexpr(n.X) + " " + sexpr(n.Y) + ")"
	case *ast.PostOp:
		return "(post" + n.Op + " " + sexpr(n.X) + ")"
	case *ast.Ternary:
		return "(? " + sexpr(n.Cond) + " " + sexpr(n.Then) + " " + sexpr(n.Else) + ")"
	case *ast.Call:
		parts := []string{"call", sexpr(n.Fn)}
		for _, a := range n.Args {
			parts = append(parts, sexpr(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.Cast:
		return "(cast " + typeString(n.Type) + " " + sexpr(n.X) + ")"
	case *ast.Index:
		return "(index " + sexpr(n.X) + " " + sexpr(n.Index) + ")"
	case *ast.Member:
		op := "."
		if n.Arrow {
			op = "->"
		}
		return "(" + op + " " + sexpr(n.X) + " " + n.Name.Name + ")"
	case *ast.ArrayValues:
		parts := []string{"list"}
		for _, e := range n.Elems {
			parts = append(parts, sexpr(e))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.SizeOf:
		if n.Type != nil {
			return "(sizeof " + typeString(n.Type) + ")"
		}
		return "(sizeof-expr " + sexpr(n.X) + ")"
	case *ast.Defined:
		return "(defined " + n.Name.Name + ")"
	case *ast.HasInclude:
		if n.System {
			return "(has_include <" + n.Path + ">)"
		}
		return "(has_include \"" + n.Path + "\")"
	case *ast.Ambiguous:
		parts := []string{"amb"}
		for _, a := range n.Alts {
			if a.Expr != nil {
				parts = append(parts, sexpr(a.Expr))
			} else {
				parts = append(parts, typeString(a.Type))
			}
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.TypeArg:
		return "(type " + typeString(n.Type) + ")"
	case *ast.Asm:
		return "(asm)"
	}
	return fmt.Sprintf("<%T>", x)
}

// typeString renders a type in a Go-like reading order.
func typeString(t ast.Type) string {
	switch n := t.(type) {
	case nil:
		return "<nil>"
	case *ast.Primitive:
		if n.Const {
			return "const " + n.Name
		}
		return n.Name
	case *ast.Named:
		if n.Const {
			return "const " + n.Name
		}
		return n.Name
	case *ast.Pointer:
		s := "*" + typeString(n.Elem)
		if n.Const {
			s = "const " + s
		}
		return s
	case *ast.Array:
		if n.Size == nil {
			return "[]" + typeString(n.Elem)
		}
		return "[" + sexpr(n.Size) + "]" + typeString(n.Elem)
	case *ast.Record:
		kw := "struct"
		if n.Union {
			kw = "union"
		}
		if n.Tag == "" {
			return kw + " {...}"
		}
		return kw + " " + n.Tag
	case *ast.Enum:
		return "enum " + n.Tag
	case *ast.FnPointer:
		return sigString(n.Sig)
	case *ast.FuncType:
		return sigString(n)
	}
	return fmt.Sprintf("<%T>", t)
}

func sigString(sig *ast.FuncType) string {
	var params []string
	for _, p := range sig.Params {
		params = append(params, typeString(p.Type))
	}
	if sig.Variadic {
		params = append(params, "...")
	}
	return "func(" + strings.Join(params, ", ") + ") " + typeString(sig.Result)
}

var defineKinds = map[ast.DefineKind]string{
	ast.DefineEmpty:     "empty",
	ast.DefineExpr:      "expr",
	ast.DefineType:      "type",
	ast.DefineAmbiguous: "ambiguous",
	ast.DefineOther:     "other",
}

// itemString renders one top-level item.
func itemString(it ast.Item) string {
	switch n := it.(type) {
	case *ast.Include:
		if n.System {
			return "#include <" + n.Path + ">"
		}
		return "#include \"" + n.Path + "\""
	case *ast.Define:
		name := n.Name.Name
		if n.FuncLike {
			var params []string
			for _, p := range n.Params {
				params = append(params, p.Name)
			}
			name += "(" + strings.Join(params, ", ") + ")"
		}
		return "#define " + name + " " + defineKinds[n.Value.Kind]
	case *ast.Undef:
		return "#undef " + n.Name.Name
	case *ast.Message:
		return "#message " + n.Text
	case *ast.Pragma:
		return n.Text
	case *ast.TypeDef:
		return "typedef " + n.Name.Name + " " + typeString(n.Type)
	case *ast.FunctionPointerTypedef:
		return "typedef " + n.Name.Name + " " + sigString(n.Sig)
	case *ast.StructDecl:
		return recordString(n.Record)
	case *ast.UnionDecl:
		return recordString(n.Record)
	case *ast.EnumDecl:
		var items []string
		for _, e := range n.Enum.Items {
			s := e.Name.Name
			if e.Value != nil {
				s += "=" + sexpr(e.Value)
			}
			items = append(items, s)
		}
		return "enum " + n.Enum.Tag + " {" + strings.Join(items, ", ") + "}"
	case *ast.FunctionDecl:
		s := "func " + n.Name.Name + strings.TrimPrefix(sigString(n.Sig), "func")
		if n.HasBody {
			s += " body"
		}
		return s
	case *ast.GlobalVarDecl:
		return "var " + n.Name.Name + " " + typeString(n.Type)
	case *ast.ConditionalBlock:
		var arms []string
		for _, a := range n.Arms {
			var items []string
			for _, sub := range a.Items {
				items = append(items, itemString(sub))
			}
			arms = append(arms, "["+a.Cond.String()+"] "+strings.Join(items, "; "))
		}
		return "#if " + strings.Join(arms, " | ")
	case *ast.DocComment:
		return "/** " + n.Text + " */"
	case *ast.Empty:
		return ";"
	}
	return fmt.Sprintf("<%T>", it)
}

func recordString(r *ast.Record) string {
	var fields []string
	for _, f := range r.Fields {
		s := f.Name.Name + " " + typeString(f.Type)
		if f.BitWidth != nil {
			s += ":" + sexpr(f.BitWidth)
		}
		fields = append(fields, strings.TrimSpace(s))
	}
	return typeString(r) + " {" + strings.Join(fields, "; ") + "}"
}
