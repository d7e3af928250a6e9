// Package value implements the constant lattice the evaluator folds into:
// sized integers, floats, booleans, strings, target-dependent truth values
// and verbatim Go fragments.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags a Value.
type Kind uint8

const (
	Invalid Kind = iota
	I32
	U31
	U32
	I64
	U63
	U64
	F32
	F64
	Bool
	String
	Target
	Verbatim
)

var kindNames = [...]string{
	Invalid:  "invalid",
	I32:      "i32",
	U31:      "u31",
	U32:      "u32",
	I64:      "i64",
	U63:      "u63",
	U64:      "u64",
	F32:      "f32",
	F64:      "f64",
	Bool:     "bool",
	String:   "string",
	Target:   "target",
	Verbatim: "verbatim",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsInt reports whether k is on the integer ladder.
func (k Kind) IsInt() bool { return k >= I32 && k <= U64 }

// IsFloat reports whether k is a float kind.
func (k Kind) IsFloat() bool { return k == F32 || k == F64 }

// IsSigned reports whether k is presented as a signed Go type.
func (k Kind) IsSigned() bool {
	return k == I32 || k == U31 || k == I64 || k == U63
}

// GoType returns the Go type a value of kind k is emitted as. u31 and u63
// values are presented signed so enumerators and constants match C's int.
func (k Kind) GoType() string {
	switch k {
	case I32, U31:
		return "int32"
	case U32:
		return "uint32"
	case I64, U63:
		return "int64"
	case U64:
		return "uint64"
	case F32:
		return "float32"
	case F64:
		return "float64"
	case Bool:
		return "bool"
	case String:
		return "string"
	}
	return ""
}

// Value is one folded constant.
type Value struct {
	Kind Kind

	// Bits holds integers in two's complement; signed kinds are read back
	// through int64.
	Bits  uint64
	Float float64
	Bool  bool
	Str   string
	Cond  DefineState

	// Code and GoType describe a Verbatim fragment.
	Code   string
	GoType string

	// Base and Digits record how an integer literal was written so it can
	// be reproduced; zero means decimal.
	Base   int
	Digits int
}

// Int64 builds an integer value from a signed number.
func Int64(kind Kind, v int64) Value {
	return Value{Kind: kind, Bits: uint64(v)}
}

// Uint64 builds an integer value from an unsigned number.
func Uint64(kind Kind, v uint64) Value {
	return Value{Kind: kind, Bits: v}
}

// Float32 builds a single precision float value.
func Float32(f float32) Value { return Value{Kind: F32, Float: float64(f)} }

// Float64 builds a double precision float value.
func Float64(f float64) Value { return Value{Kind: F64, Float: f} }

// BoolOf builds a boolean value.
func BoolOf(b bool) Value { return Value{Kind: Bool, Bool: b} }

// StringOf builds a string value from decoded bytes.
func StringOf(s string) Value { return Value{Kind: String, Str: s} }

// TargetOf wraps a define state. Constant states collapse to booleans.
func TargetOf(s DefineState) Value {
	s = s.Simplify()
	if s.IsConst() {
		return BoolOf(s.IsTrue())
	}
	return Value{Kind: Target, Cond: s}
}

// VerbatimOf wraps a Go fragment of the given Go type.
func VerbatimOf(code, goType string) Value {
	return Value{Kind: Verbatim, Code: code, GoType: goType}
}

// Int returns the integer as int64 and whether it is representable.
func (v Value) Int() (int64, bool) {
	if !v.Kind.IsInt() {
		return 0, false
	}
	if v.Kind.IsSigned() {
		return int64(v.Bits), true
	}
	return int64(v.Bits), v.Bits <= math.MaxInt64
}

// IsNegative reports whether an integer value is below zero.
func (v Value) IsNegative() bool {
	return v.Kind.IsSigned() && int64(v.Bits) < 0
}

// TypeName returns the Go type name the value is emitted with.
func (v Value) TypeName() string {
	if v.Kind == Verbatim {
		return v.GoType
	}
	return v.Kind.GoType()
}

// GoLiteral renders the value as Go source.
func (v Value) GoLiteral() string {
	switch {
	case v.Kind.IsInt():
		if v.IsNegative() {
			return strconv.FormatInt(int64(v.Bits), 10)
		}
		return formatUnsigned(v.Bits, v.Base, v.Digits)
	case v.Kind == F32:
		return formatFloat(v.Float, 32)
	case v.Kind == F64:
		return formatFloat(v.Float, 64)
	case v.Kind == Bool:
		return strconv.FormatBool(v.Bool)
	case v.Kind == String:
		return strconv.Quote(v.Str)
	case v.Kind == Verbatim:
		return v.Code
	case v.Kind == Target:
		return v.Cond.String()
	}
	return "<invalid>"
}

func formatUnsigned(n uint64, base, digits int) string {
	var prefix string
	switch base {
	case 16:
		prefix = "0x"
	case 8:
		prefix = "0o"
	case 2:
		prefix = "0b"
	default:
		return strconv.FormatUint(n, 10)
	}
	text := strings.ToUpper(strconv.FormatUint(n, base))
	if len(text) < digits {
		text = strings.Repeat("0", digits-len(text)) + text
	}
	return prefix + text
}

func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.Kind, v.GoLiteral())
}
