package value

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

var (
	// ErrOverflow reports a result outside the promoted type.
	ErrOverflow = errors.New("integer overflow")
	// ErrDivZero reports division or remainder by zero.
	ErrDivZero = errors.New("division by zero")
	// ErrMixedSign reports a 64-bit operation mixing signed and unsigned operands.
	ErrMixedSign = errors.New("mixed signed and unsigned 64-bit operands")
	// ErrType reports an operator applied to operands it does not accept.
	ErrType = errors.New("type mismatch")
	// ErrTargetDependent reports a target-dependent value used numerically.
	ErrTargetDependent = errors.New("target-dependent value used as a number")
	// ErrUnfoldable reports an operation that is valid but cannot be folded
	// at generation time.
	ErrUnfoldable = errors.New("cannot fold")
)

// Suffix is the integer literal suffix class.
type Suffix uint8

const (
	SuffixNone Suffix = iota
	SuffixU
	SuffixL
	SuffixUL
	SuffixLL
	SuffixULL
)

// ParseSuffix recognizes an integer literal suffix in any letter case.
func ParseSuffix(s string) (Suffix, bool) {
	switch strings.ToLower(s) {
	case "":
		return SuffixNone, true
	case "u":
		return SuffixU, true
	case "l":
		return SuffixL, true
	case "ul", "lu":
		return SuffixUL, true
	case "ll":
		return SuffixLL, true
	case "ull", "llu":
		return SuffixULL, true
	}
	return SuffixNone, false
}

// Convert reinterprets an integer as kind k the way a C cast does,
// truncating to the width of k.
func Convert(v Value, k Kind) (Value, error) {
	if !v.Kind.IsInt() || !k.IsInt() {
		return Value{}, ErrType
	}
	switch domainOf(k) {
	case I32:
		return Fit(big.NewInt(int64(int32(uint32(v.Bits)))), I32)
	case U32:
		return Uint64(U32, v.Bits&math.MaxUint32), nil
	case I64:
		return Fit(big.NewInt(int64(v.Bits)), I64)
	}
	return Uint64(U64, v.Bits), nil
}

// Same reports whether two values are identical.
func Same(a, b Value) bool {
	return a.Kind == b.Kind && a.Bits == b.Bits && a.Float == b.Float &&
		a.Bool == b.Bool && a.Str == b.Str && a.Code == b.Code &&
		a.GoType == b.GoType && a.Cond.Equal(b.Cond)
}

// IsTruthLike reports whether v can stand for a truth value: a boolean, a
// target state or the integers 0 and 1.
func IsTruthLike(v Value) bool {
	switch {
	case v.Kind == Bool, v.Kind == Target:
		return true
	case v.Kind.IsInt():
		return v.Bits == 0 || v.Bits == 1
	}
	return false
}

// FromLiteral classifies an integer literal onto the ladder. Unsuffixed
// literals take the narrowest of u31, u32, u63 and u64; "u" literals are u32
// or u64; "l"/"ll" literals live in the signed 64-bit domain unless written
// in hex or octal and too large for it; the remaining suffixes are u64.
func FromLiteral(n uint64, suffix Suffix, base, digits int) (Value, error) {
	var kind Kind
	switch suffix {
	case SuffixNone:
		switch {
		case n <= math.MaxInt32:
			kind = U31
		case n <= math.MaxUint32:
			kind = U32
		case n <= math.MaxInt64:
			kind = U63
		default:
			kind = U64
		}
	case SuffixU:
		kind = U32
		if n > math.MaxUint32 {
			kind = U64
		}
	case SuffixL, SuffixLL:
		switch {
		case n <= math.MaxInt64:
			kind = U63
		case base == 16 || base == 8 || base == 2:
			kind = U64
		default:
			return Value{}, fmt.Errorf("literal %d too large for a signed 64-bit type: %w", n, ErrOverflow)
		}
	default:
		kind = U64
	}
	return Value{Kind: kind, Bits: n, Base: base, Digits: digits}, nil
}

func domainOf(k Kind) Kind {
	switch k {
	case I32, U31:
		return I32
	case I64, U63:
		return I64
	}
	return k
}

// Promote returns the domain two integer operands are combined in. The rules
// are stricter than C: a signed and an unsigned 32-bit operand widen to the
// signed 64-bit domain instead of being reinterpreted, and signed 64-bit
// operands never mix with u64.
func Promote(a, b Kind) (Kind, error) {
	if !a.IsInt() || !b.IsInt() {
		return Invalid, ErrType
	}
	if a > b {
		a, b = b, a
	}
	switch {
	case a == b:
		return domainOf(a), nil
	case a == I32 && b == U31:
		return I32, nil
	case (a == I32 || a == U31) && b == U32:
		if a == U31 {
			return U32, nil
		}
		return I64, nil
	case b == I64 || b == U63:
		return I64, nil
	case b == U64:
		if a == I32 || a == I64 {
			return Invalid, ErrMixedSign
		}
		return U64, nil
	}
	return Invalid, ErrType
}

func width(domain Kind) uint {
	if domain == I32 || domain == U32 {
		return 32
	}
	return 64
}

func (v Value) big() *big.Int {
	if v.Kind.IsSigned() {
		return big.NewInt(int64(v.Bits))
	}
	return new(big.Int).SetUint64(v.Bits)
}

var (
	minI32 = big.NewInt(math.MinInt32)
	maxI32 = big.NewInt(math.MaxInt32)
	maxU32 = new(big.Int).SetUint64(math.MaxUint32)
	minI64 = big.NewInt(math.MinInt64)
	maxI64 = big.NewInt(math.MaxInt64)
	maxU64 = new(big.Int).SetUint64(math.MaxUint64)
)

// Fit narrows the exact result x into domain, choosing the narrowest kind
// that provably holds it, or reports overflow.
func Fit(x *big.Int, domain Kind) (Value, error) {
	var lo, hi *big.Int
	switch domain {
	case I32:
		lo, hi = minI32, maxI32
	case U32:
		lo, hi = new(big.Int), maxU32
	case I64:
		lo, hi = minI64, maxI64
	case U64:
		lo, hi = new(big.Int), maxU64
	default:
		return Value{}, ErrType
	}
	if x.Cmp(lo) < 0 || x.Cmp(hi) > 0 {
		return Value{}, fmt.Errorf("%s does not fit in %s: %w", x, domainName(domain), ErrOverflow)
	}
	kind := domain
	switch {
	case domain == I32 && x.Sign() >= 0:
		kind = U31
	case domain == I64 && x.Sign() >= 0:
		kind = U63
	}
	if x.Sign() < 0 {
		return Int64(kind, x.Int64()), nil
	}
	return Uint64(kind, x.Uint64()), nil
}

func domainName(k Kind) string {
	switch k {
	case I32:
		return "int32"
	case U32:
		return "uint32"
	case I64:
		return "int64"
	case U64:
		return "uint64"
	}
	return k.String()
}

// asInt converts booleans to u31 so `defined(X) + 1` behaves like C.
func asInt(v Value) Value {
	if v.Kind == Bool {
		if v.Bool {
			return Uint64(U31, 1)
		}
		return Uint64(U31, 0)
	}
	return v
}

// Truth returns the truth value of v. Target values yield their state.
func Truth(v Value) (DefineState, error) {
	switch {
	case v.Kind == Bool:
		return FromBool(v.Bool), nil
	case v.Kind.IsInt():
		return FromBool(v.Bits != 0), nil
	case v.Kind.IsFloat():
		return FromBool(v.Float != 0), nil
	case v.Kind == Target:
		return v.Cond, nil
	case v.Kind == Verbatim:
		return DefineState{}, ErrUnfoldable
	}
	return DefineState{}, fmt.Errorf("%s has no truth value: %w", v.Kind, ErrType)
}

func flag(b bool) Value {
	if b {
		return Uint64(U31, 1)
	}
	return Uint64(U31, 0)
}

// Unary applies one of + - ~ !.
func Unary(op string, v Value) (Value, error) {
	v = asInt(v)
	if op == "!" {
		t, err := Truth(v)
		if err != nil {
			return Value{}, err
		}
		return FromState(Not(t)), nil
	}
	switch {
	case v.Kind == Target:
		return Value{}, ErrTargetDependent
	case v.Kind == Verbatim:
		if op == "~" {
			op = "^"
		}
		return VerbatimOf(op+"("+v.Code+")", v.GoType), nil
	case v.Kind.IsFloat():
		switch op {
		case "+":
			return v, nil
		case "-":
			return Value{Kind: v.Kind, Float: -v.Float}, nil
		}
		return Value{}, fmt.Errorf("operator %s on %s: %w", op, v.Kind, ErrType)
	case !v.Kind.IsInt():
		return Value{}, fmt.Errorf("operator %s on %s: %w", op, v.Kind, ErrType)
	}

	domain := domainOf(v.Kind)
	x := v.big()
	switch op {
	case "+":
		return v, nil
	case "-":
		if (domain == U32 || domain == U64) && x.Sign() != 0 {
			return Value{}, fmt.Errorf("negation of unsigned value %s: %w", x, ErrOverflow)
		}
		return Fit(x.Neg(x), domain)
	case "~":
		if domain == I32 || domain == I64 {
			return Fit(x.Not(x), domain)
		}
		mask := uint64(math.MaxUint32)
		if domain == U64 {
			mask = math.MaxUint64
		}
		return Uint64(domain, ^v.Bits&mask), nil
	}
	return Value{}, fmt.Errorf("unknown unary operator %s: %w", op, ErrType)
}

// Binary applies an arithmetic, bitwise, shift or comparison operator.
// Logical && and || are handled by the evaluator because they short-circuit.
func Binary(op string, a, b Value) (Value, error) {
	a, b = asInt(a), asInt(b)

	switch {
	case a.Kind == Target || b.Kind == Target:
		return targetCompare(op, a, b)
	case a.Kind == Verbatim || b.Kind == Verbatim:
		return verbatimBinary(op, a, b)
	case a.Kind.IsFloat() || b.Kind.IsFloat():
		return floatBinary(op, a, b)
	case !a.Kind.IsInt() || !b.Kind.IsInt():
		return Value{}, fmt.Errorf("operator %s on %s and %s: %w", op, a.Kind, b.Kind, ErrType)
	}

	if op == "<<" || op == ">>" {
		return shift(op, a, b)
	}

	domain, err := Promote(a.Kind, b.Kind)
	if err != nil {
		return Value{}, fmt.Errorf("operator %s on %s and %s: %w", op, a.Kind, b.Kind, err)
	}
	x, y := a.big(), b.big()
	r := new(big.Int)

	switch op {
	case "+":
		return Fit(r.Add(x, y), domain)
	case "-":
		return Fit(r.Sub(x, y), domain)
	case "*":
		return Fit(r.Mul(x, y), domain)
	case "/":
		if y.Sign() == 0 {
			return Value{}, ErrDivZero
		}
		return Fit(r.Quo(x, y), domain)
	case "%":
		if y.Sign() == 0 {
			return Value{}, ErrDivZero
		}
		return Fit(r.Rem(x, y), domain)
	case "&", "|", "^":
		return bitwise(op, a, b, domain)
	case "==":
		return flag(x.Cmp(y) == 0), nil
	case "!=":
		return flag(x.Cmp(y) != 0), nil
	case "<":
		return flag(x.Cmp(y) < 0), nil
	case "<=":
		return flag(x.Cmp(y) <= 0), nil
	case ">":
		return flag(x.Cmp(y) > 0), nil
	case ">=":
		return flag(x.Cmp(y) >= 0), nil
	}
	return Value{}, fmt.Errorf("unknown operator %s: %w", op, ErrType)
}

func bitwise(op string, a, b Value, domain Kind) (Value, error) {
	mask := uint64(math.MaxUint64)
	if width(domain) == 32 {
		mask = math.MaxUint32
	}
	x, y := a.Bits&mask, b.Bits&mask
	var r uint64
	switch op {
	case "&":
		r = x & y
	case "|":
		r = x | y
	default:
		r = x ^ y
	}
	if domain == I32 {
		return Fit(big.NewInt(int64(int32(uint32(r)))), domain)
	}
	if domain == I64 {
		return Fit(big.NewInt(int64(r)), domain)
	}
	return Uint64(domain, r), nil
}

func shift(op string, a, b Value) (Value, error) {
	domain := domainOf(a.Kind)
	n, ok := b.Int()
	if !ok || n < 0 || uint64(n) >= uint64(width(domain)) {
		return Value{}, fmt.Errorf("shift count %s out of range for %s: %w", b.GoLiteral(), domainName(domain), ErrOverflow)
	}
	x := a.big()
	if op == "<<" {
		if x.Sign() < 0 {
			return Value{}, fmt.Errorf("left shift of negative value %s: %w", x, ErrOverflow)
		}
		return Fit(x.Lsh(x, uint(n)), domain)
	}
	return Fit(x.Rsh(x, uint(n)), domain)
}

func toFloat(v Value) (float64, bool) {
	switch {
	case v.Kind.IsFloat():
		return v.Float, true
	case v.Kind.IsSigned():
		return float64(int64(v.Bits)), true
	case v.Kind.IsInt():
		return float64(v.Bits), true
	}
	return 0, false
}

func floatBinary(op string, a, b Value) (Value, error) {
	x, okA := toFloat(a)
	y, okB := toFloat(b)
	if !okA || !okB {
		return Value{}, fmt.Errorf("operator %s on %s and %s: %w", op, a.Kind, b.Kind, ErrType)
	}
	kind := F32
	if a.Kind == F64 || b.Kind == F64 {
		kind = F64
	}
	result := func(f float64) Value {
		if kind == F32 {
			return Float32(float32(f))
		}
		return Float64(f)
	}
	switch op {
	case "+":
		return result(x + y), nil
	case "-":
		return result(x - y), nil
	case "*":
		return result(x * y), nil
	case "/":
		if y == 0 {
			return Value{}, ErrDivZero
		}
		return result(x / y), nil
	case "==":
		return flag(x == y), nil
	case "!=":
		return flag(x != y), nil
	case "<":
		return flag(x < y), nil
	case "<=":
		return flag(x <= y), nil
	case ">":
		return flag(x > y), nil
	case ">=":
		return flag(x >= y), nil
	}
	return Value{}, fmt.Errorf("operator %s on floats: %w", op, ErrType)
}

// targetCompare folds comparisons of a target-dependent value against 0 or 1.
func targetCompare(op string, a, b Value) (Value, error) {
	if op != "==" && op != "!=" {
		return Value{}, ErrTargetDependent
	}
	cond, other := a, b
	if cond.Kind != Target {
		cond, other = b, a
	}
	if other.Kind == Target {
		eq := Or(And(cond.Cond, other.Cond), And(Not(cond.Cond), Not(other.Cond)))
		if op == "!=" {
			eq = Not(eq)
		}
		return FromState(eq), nil
	}
	n, ok := other.Int()
	if !ok || (n != 0 && n != 1) {
		return Value{}, ErrTargetDependent
	}
	s := cond.Cond
	if (n == 0) == (op == "==") {
		s = Not(s)
	}
	return FromState(s), nil
}

// FromState returns 0 or 1 for a constant state and a target value otherwise.
func FromState(s DefineState) Value {
	s = s.Simplify()
	if s.IsConst() {
		return flag(s.IsTrue())
	}
	return Value{Kind: Target, Cond: s}
}

// verbatimBinary combines a Go fragment with a constant or another fragment
// of the same type. Comparisons are not folded.
func verbatimBinary(op string, a, b Value) (Value, error) {
	switch op {
	case "+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>":
	default:
		return Value{}, ErrUnfoldable
	}
	goType := a.GoType
	if a.Kind != Verbatim {
		goType = b.GoType
	} else if b.Kind == Verbatim && b.GoType != a.GoType {
		return Value{}, ErrUnfoldable
	}
	for _, v := range []Value{a, b} {
		if v.Kind != Verbatim && !v.Kind.IsInt() {
			return Value{}, ErrUnfoldable
		}
		if v.IsNegative() {
			return Value{}, ErrUnfoldable
		}
	}
	return VerbatimOf("("+a.GoLiteral()+" "+op+" "+b.GoLiteral()+")", goType), nil
}
