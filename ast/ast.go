// Package ast declares the syntax tree produced by the header parser. Every
// node records the span it was parsed from.
package ast

import (
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// Node is implemented by every tree node.
type Node interface {
	Span() span.Span
}

// Ident is a non-empty C identifier.
type Ident struct {
	At   span.Span
	Name string
}

func (i Ident) Span() span.Span { return i.At }

// IsZero reports whether the identifier was omitted, as for unnamed
// parameters.
func (i Ident) IsZero() bool { return i.Name == "" }

// DocComment is a cleaned "/** ... */" block.
type DocComment struct {
	At   span.Span
	Text string
}

func (d *DocComment) Span() span.Span { return d.At }

// Docs holds the documentation attached to an item.
type Docs struct {
	Doc *DocComment
}

// DocSlot returns the documentation slot so the parser can attach comments.
func (d *Docs) DocSlot() *Docs { return d }

// Documented is implemented by items that carry documentation.
type Documented interface {
	DocSlot() *Docs
}

// File is one parsed header.
type File struct {
	Name  string
	At    span.Span
	Doc   *DocComment
	Items []Item
}

func (f *File) Span() span.Span { return f.At }

// Item is a top-level element of a header.
type Item interface {
	Node
	item()
}

// Include is an #include directive.
type Include struct {
	At     span.Span
	Path   string
	System bool
}

// Define is a #define directive. Object-like bodies are parsed eagerly into
// Value; function-like bodies keep only their raw span until a consumer asks
// for them to be parsed.
type Define struct {
	Docs
	At       span.Span
	Name     Ident
	FuncLike bool
	Params   []Ident
	Variadic bool
	Body     span.Span
	Value    DefineValue
}

// Undef is an #undef directive.
type Undef struct {
	At   span.Span
	Name Ident
}

// Pragma records #pragma and #line directives, which are otherwise ignored.
type Pragma struct {
	At   span.Span
	Text string
}

// Message is an #error or #warning directive that was reached.
type Message struct {
	At    span.Span
	Error bool
	Text  string
}

// TypeDef is "typedef T Name;".
type TypeDef struct {
	Docs
	At   span.Span
	Name Ident
	Type Type
}

// FunctionPointerTypedef is "typedef R (*Name)(params);".
type FunctionPointerTypedef struct {
	Docs
	At   span.Span
	Name Ident
	Sig  *FuncType
}

// StructDecl declares a struct at top level, either standalone or as the
// body of a typedef.
type StructDecl struct {
	Docs
	At     span.Span
	Record *Record
}

// UnionDecl declares a union at top level.
type UnionDecl struct {
	Docs
	At     span.Span
	Record *Record
}

// EnumDecl declares an enum at top level.
type EnumDecl struct {
	Docs
	At   span.Span
	Enum *Enum
}

// FunctionDecl is a function declaration or a definition whose body was
// skipped.
type FunctionDecl struct {
	Docs
	At      span.Span
	Name    Ident
	Sig     *FuncType
	Static  bool
	Inline  bool
	HasBody bool
}

// GlobalVarDecl is a variable declaration at file scope.
type GlobalVarDecl struct {
	Docs
	At     span.Span
	Name   Ident
	Type   Type
	Extern bool
}

// ConditionalBlock is an #if chain whose arms depend on the target. Arms
// whose guard was false for every target are dropped by the parser, and arms
// that hold for every target are inlined, so every remaining arm has a
// target-dependent Cond.
type ConditionalBlock struct {
	At   span.Span
	Arms []*Arm
}

// Arm is one #if, #elif or #else branch.
type Arm struct {
	At        span.Span
	Directive string
	Guard     Expr
	// Cond is the guard conjoined with the negation of every earlier arm.
	Cond  value.DefineState
	Items []Item
}

// Empty is a stray semicolon.
type Empty struct {
	At span.Span
}

func (n *Include) Span() span.Span                { return n.At }
func (n *Define) Span() span.Span                 { return n.At }
func (n *Undef) Span() span.Span                  { return n.At }
func (n *Pragma) Span() span.Span                 { return n.At }
func (n *Message) Span() span.Span                { return n.At }
func (n *TypeDef) Span() span.Span                { return n.At }
func (n *FunctionPointerTypedef) Span() span.Span { return n.At }
func (n *StructDecl) Span() span.Span             { return n.At }
func (n *UnionDecl) Span() span.Span              { return n.At }
func (n *EnumDecl) Span() span.Span               { return n.At }
func (n *FunctionDecl) Span() span.Span           { return n.At }
func (n *GlobalVarDecl) Span() span.Span          { return n.At }
func (n *ConditionalBlock) Span() span.Span       { return n.At }
func (n *Arm) Span() span.Span                    { return n.At }
func (n *Empty) Span() span.Span                  { return n.At }

func (*Include) item()                {}
func (*Define) item()                 {}
func (*Undef) item()                  {}
func (*Pragma) item()                 {}
func (*Message) item()                {}
func (*TypeDef) item()                {}
func (*FunctionPointerTypedef) item() {}
func (*StructDecl) item()             {}
func (*UnionDecl) item()              {}
func (*EnumDecl) item()               {}
func (*FunctionDecl) item()           {}
func (*GlobalVarDecl) item()          {}
func (*ConditionalBlock) item()       {}
func (*DocComment) item()             {}
func (*Empty) item()                  {}

// DefineKind classifies a macro body.
type DefineKind uint8

const (
	DefineEmpty DefineKind = iota
	DefineExpr
	DefineType
	DefineAmbiguous
	DefineVerbatim
	DefineTarget
	DefineOther
)

// DefineValue is the parsed body of a macro. DefineAmbiguous sets both Expr
// and Type. DefineVerbatim carries Go code from the configuration.
// DefineOther keeps the raw tokens in Raw.
type DefineValue struct {
	Kind DefineKind
	Expr Expr
	Type Type
	Code string
	Cond value.DefineState
	Raw  span.Span
}
