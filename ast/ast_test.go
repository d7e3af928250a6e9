package ast

import "testing"

func TestDocSlot(t *testing.T) {
	nodes := []Documented{
		&Define{}, &TypeDef{}, &FunctionPointerTypedef{}, &StructDecl{},
		&UnionDecl{}, &EnumDecl{}, &FunctionDecl{}, &GlobalVarDecl{},
		&Record{}, &Field{}, &Enum{}, &Enumerator{},
	}
	for _, n := range nodes {
		doc := &DocComment{Text: "Doc."}
		n.DocSlot().Doc = doc
		if got := n.DocSlot().Doc; got != doc {
			t.Errorf("%T: doc slot did not keep the comment", n)
		}
	}
}
