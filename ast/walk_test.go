package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

func TestSubstitute(t *testing.T) {
	src := span.Load("m.h", "((type)(x) << 1)")

	// ((type)(x) << 1)
	body := &Paren{At: src, X: &Binary{
		Op: "<<",
		X: &Cast{
			Type: &Named{Name: "type"},
			X:    &Paren{X: &IdentExpr{Name: "x"}},
		},
		Y: &Literal{Value: value.Uint64(value.U31, 1)},
	}}

	got := Substitute(body, map[string]Expr{
		"type": &IdentExpr{Name: "Uint32"},
		"x":    &Literal{Value: value.Uint64(value.U31, 7)},
	})

	want := &Paren{At: src, X: &Binary{
		Op: "<<",
		X: &Cast{
			Type: &Named{Name: "Uint32"},
			X:    &Paren{X: &Literal{Value: value.Uint64(value.U31, 7)}},
		},
		Y: &Literal{Value: value.Uint64(value.U31, 1)},
	}}

	opts := cmp.Comparer(func(a, b span.Span) bool { return a.Start == b.Start && a.End == b.End })
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, ok := body.X.(*Binary).X.(*Cast).Type.(*Named); !ok || body.X.(*Binary).X.(*Cast).Type.(*Named).Name != "type" {
		t.Error("Substitute modified its input")
	}
}

func TestInspect(t *testing.T) {
	rec := &Record{HasBody: true, Fields: []*Field{
		{Name: Ident{Name: "w"}, Type: &Primitive{Name: "int"}},
		{Name: Ident{Name: "pixels"}, Type: &Array{Elem: &Primitive{Name: "uint8_t"}}},
	}}
	f := &File{Items: []Item{&StructDecl{Record: rec}}}

	var kinds []string
	Inspect(f, func(n Node) bool {
		switch n.(type) {
		case *Primitive:
			kinds = append(kinds, "prim")
		case *Array:
			kinds = append(kinds, "array")
		case *Field:
			kinds = append(kinds, "field")
		}
		return true
	})

	want := []string{"field", "prim", "field", "array", "prim"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestInferResolvesOnce(t *testing.T) {
	var c Infer
	if err := c.Resolve(&Primitive{Name: "int"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Resolve(&Primitive{Name: "long"}); err != ErrResolved {
		t.Errorf("second Resolve: %v", err)
	}
}
