package ast

import (
	"errors"

	"github.com/ardanlabs/sdlgen/span"
)

// Type is a C type.
type Type interface {
	Node
	typ()
}

// Primitive is a builtin type spelled in canonical form, for example
// "unsigned int", "long long", "uint8_t" or "size_t".
type Primitive struct {
	At       span.Span
	Name     string
	Const    bool
	Volatile bool
}

// Pointer is "Elem *". Const and Volatile qualify the pointer itself.
type Pointer struct {
	At       span.Span
	Elem     Type
	Const    bool
	Volatile bool
}

// Array is "Elem[Size]". A nil Size is a flexible array member.
type Array struct {
	At   span.Span
	Elem Type
	Size Expr
}

// Record is a struct or union. Fields is nil and HasBody false for a tag
// reference or a forward declaration.
type Record struct {
	Docs
	At      span.Span
	Union   bool
	Tag     string
	HasBody bool
	Fields  []*Field
	Const   bool
}

// Field is one member of a record.
type Field struct {
	Docs
	At       span.Span
	Name     Ident
	Type     Type
	BitWidth Expr
}

// Enum is an enum type. All enumerators share Cell, which the emitter fills
// once the widest value is known.
type Enum struct {
	Docs
	At      span.Span
	Tag     string
	Base    Type
	HasBody bool
	Items   []*Enumerator
	Cell    *Infer
	Const   bool
}

// Enumerator is "NAME [= expr]". Cond holds the target condition when the
// enumerator sits inside an #if arm of the enum body.
type Enumerator struct {
	Docs
	At    span.Span
	Name  Ident
	Value Expr
	Cond  *Arm
}

// FuncType is a function signature.
type FuncType struct {
	At       span.Span
	Result   Type
	Params   []*Param
	Variadic bool
}

// Param is one function parameter. Name may be zero.
type Param struct {
	At   span.Span
	Name Ident
	Type Type
}

// FnPointer is a pointer to a function.
type FnPointer struct {
	At  span.Span
	Sig *FuncType
}

// Named refers to a typedef name.
type Named struct {
	At       span.Span
	Name     string
	Const    bool
	Volatile bool
}

// Infer is a single-assignment cell for a type that is not known yet.
type Infer struct {
	At   span.Span
	Type Type
}

// ErrResolved is returned when an Infer cell is assigned twice.
var ErrResolved = errors.New("inferred type already resolved")

// Resolve assigns the cell.
func (c *Infer) Resolve(t Type) error {
	if c.Type != nil {
		return ErrResolved
	}
	c.Type = t
	return nil
}

// Verbatim is a Go type spelled out directly.
type Verbatim struct {
	At   span.Span
	Code string
}

// DotDotDot is the variadic marker of a parameter list.
type DotDotDot struct {
	At span.Span
}

func (n *Primitive) Span() span.Span  { return n.At }
func (n *Pointer) Span() span.Span    { return n.At }
func (n *Array) Span() span.Span      { return n.At }
func (n *Record) Span() span.Span     { return n.At }
func (n *Field) Span() span.Span      { return n.At }
func (n *Enum) Span() span.Span       { return n.At }
func (n *Enumerator) Span() span.Span { return n.At }
func (n *FuncType) Span() span.Span   { return n.At }
func (n *Param) Span() span.Span      { return n.At }
func (n *FnPointer) Span() span.Span  { return n.At }
func (n *Named) Span() span.Span      { return n.At }
func (n *Infer) Span() span.Span      { return n.At }
func (n *Verbatim) Span() span.Span   { return n.At }
func (n *DotDotDot) Span() span.Span  { return n.At }

func (*Primitive) typ() {}
func (*Pointer) typ()   {}
func (*Array) typ()     {}
func (*Record) typ()    {}
func (*Enum) typ()      {}
func (*FuncType) typ()  {}
func (*FnPointer) typ() {}
func (*Named) typ()     {}
func (*Infer) typ()     {}
func (*Verbatim) typ()  {}
func (*DotDotDot) typ() {}

// IsVoid reports whether t is plain void.
func IsVoid(t Type) bool {
	p, ok := t.(*Primitive)
	return ok && p.Name == "void"
}
