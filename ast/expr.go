package ast

import (
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// Expr is a C expression.
type Expr interface {
	Node
	expr()
}

// Literal is a numeric, character or string literal already classified on
// the value lattice.
type Literal struct {
	At    span.Span
	Value value.Value
	// Suffix is the integer suffix class, kept so token pasting can
	// reclassify the literal.
	Suffix value.Suffix
	// Mag is the magnitude of an integer literal before classification.
	Mag uint64
}

// IdentExpr names a macro, enumerator, constant or parameter.
type IdentExpr struct {
	At   span.Span
	Name string
}

// Paren is "(X)".
type Paren struct {
	At span.Span
	X  Expr
}

// Unary is a prefix operator. OpAt is the operator token.
type Unary struct {
	At   span.Span
	Op   string
	OpAt span.Span
	X    Expr
}

// Binary is an infix operator, including "," and the logical operators.
type Binary struct {
	At   span.Span
	Op   string
	OpAt span.Span
	X, Y Expr
}

// PostOp is a postfix "++" or "--".
type PostOp struct {
	At span.Span
	Op string
	X  Expr
}

// Ternary is "Cond ? Then : Else".
type Ternary struct {
	At               span.Span
	Cond, Then, Else Expr
}

// Call is a function call or a function-like macro invocation.
type Call struct {
	At   span.Span
	Fn   Expr
	Args []Expr
}

// Cast is "(Type) X".
type Cast struct {
	At   span.Span
	Type Type
	X    Expr
}

// Index is "X[Index]".
type Index struct {
	At    span.Span
	X     Expr
	Index Expr
}

// Member is "X.Name" or "X->Name".
type Member struct {
	At    span.Span
	X     Expr
	Arrow bool
	Name  Ident
}

// ArrayValues is a braced initializer list.
type ArrayValues struct {
	At    span.Span
	Elems []Expr
}

// SizeOf is "sizeof(Type)" or "sizeof X". Exactly one of Type and X is set.
type SizeOf struct {
	At   span.Span
	Type Type
	X    Expr
}

// Asm is an inline assembly block kept as text.
type Asm struct {
	At   span.Span
	Text string
}

// Defined is "defined(NAME)" in a preprocessor guard.
type Defined struct {
	At   span.Span
	Name Ident
}

// HasInclude is "__has_include(<path>)" or "__has_include(\"path\")".
type HasInclude struct {
	At     span.Span
	Path   string
	System bool
}

// Alternative is one reading of an ambiguous construct. Exactly one of Expr
// and Type is set.
type Alternative struct {
	Expr Expr
	Type Type
}

// Ambiguous holds every reading the parser could not choose between. It
// always has at least two alternatives; a single reading is never wrapped.
type Ambiguous struct {
	At   span.Span
	Alts []Alternative
}

// TypeArg is a type written where an expression was expected, as in the
// first argument of "SDL_static_cast(const char *, x)".
type TypeArg struct {
	At   span.Span
	Type Type
}

// ValueExpr is an expression that was already evaluated.
type ValueExpr struct {
	At    span.Span
	Value value.Value
}

func (n *Literal) Span() span.Span     { return n.At }
func (n *IdentExpr) Span() span.Span   { return n.At }
func (n *Paren) Span() span.Span       { return n.At }
func (n *Unary) Span() span.Span       { return n.At }
func (n *Binary) Span() span.Span      { return n.At }
func (n *PostOp) Span() span.Span      { return n.At }
func (n *Ternary) Span() span.Span     { return n.At }
func (n *Call) Span() span.Span        { return n.At }
func (n *Cast) Span() span.Span        { return n.At }
func (n *Index) Span() span.Span       { return n.At }
func (n *Member) Span() span.Span      { return n.At }
func (n *ArrayValues) Span() span.Span { return n.At }
func (n *SizeOf) Span() span.Span      { return n.At }
func (n *Asm) Span() span.Span         { return n.At }
func (n *Defined) Span() span.Span     { return n.At }
func (n *HasInclude) Span() span.Span  { return n.At }
func (n *Ambiguous) Span() span.Span   { return n.At }
func (n *TypeArg) Span() span.Span     { return n.At }
func (n *ValueExpr) Span() span.Span   { return n.At }

func (*Literal) expr()     {}
func (*IdentExpr) expr()   {}
func (*Paren) expr()       {}
func (*Unary) expr()       {}
func (*Binary) expr()      {}
func (*PostOp) expr()      {}
func (*Ternary) expr()     {}
func (*Call) expr()        {}
func (*Cast) expr()        {}
func (*Index) expr()       {}
func (*Member) expr()      {}
func (*ArrayValues) expr() {}
func (*SizeOf) expr()      {}
func (*Asm) expr()         {}
func (*Defined) expr()     {}
func (*HasInclude) expr()  {}
func (*Ambiguous) expr()   {}
func (*TypeArg) expr()     {}
func (*ValueExpr) expr()   {}
