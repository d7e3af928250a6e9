package value

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromLiteral(t *testing.T) {
	tests := []struct {
		n      uint64
		suffix Suffix
		base   int
		want   Kind
		err    error
	}{
		{0, SuffixNone, 10, U31, nil},
		{2147483647, SuffixNone, 10, U31, nil},
		{2147483648, SuffixNone, 10, U32, nil},
		{4294967295, SuffixNone, 10, U32, nil},
		{4294967296, SuffixNone, 10, U63, nil},
		{math.MaxInt64, SuffixNone, 10, U63, nil},
		{math.MaxUint64, SuffixNone, 10, U64, nil},
		{1, SuffixU, 10, U32, nil},
		{1 << 40, SuffixU, 10, U64, nil},
		{1, SuffixL, 10, U63, nil},
		{1, SuffixLL, 10, U63, nil},
		{math.MaxUint64, SuffixLL, 16, U64, nil},
		{math.MaxUint64, SuffixL, 10, Invalid, ErrOverflow},
		{1, SuffixUL, 10, U64, nil},
		{1, SuffixULL, 10, U64, nil},
	}

	for _, tt := range tests {
		got, err := FromLiteral(tt.n, tt.suffix, tt.base, 0)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("FromLiteral(%d, %d): err = %v, want %v", tt.n, tt.suffix, err, tt.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("FromLiteral(%d, %d): %v", tt.n, tt.suffix, err)
			continue
		}
		if got.Kind != tt.want {
			t.Errorf("FromLiteral(%d, %d) kind = %s, want %s", tt.n, tt.suffix, got.Kind, tt.want)
		}
	}
}

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b Kind
		want Kind
		err  error
	}{
		{U31, U31, I32, nil},
		{I32, U31, I32, nil},
		{U31, U32, U32, nil},
		{I32, U32, I64, nil},
		{U32, U32, U32, nil},
		{U63, I32, I64, nil},
		{U63, U32, I64, nil},
		{U63, U64, U64, nil},
		{U31, U64, U64, nil},
		{I32, U64, Invalid, ErrMixedSign},
		{I64, U64, Invalid, ErrMixedSign},
		{F32, U31, Invalid, ErrType},
	}

	for _, tt := range tests {
		for _, order := range [][2]Kind{{tt.a, tt.b}, {tt.b, tt.a}} {
			got, err := Promote(order[0], order[1])
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("Promote(%s, %s): err = %v, want %v", order[0], order[1], err, tt.err)
				}
				continue
			}
			if err != nil || got != tt.want {
				t.Errorf("Promote(%s, %s) = %s, %v; want %s", order[0], order[1], got, err, tt.want)
			}
		}
	}
}

func lit(t *testing.T, n uint64, suffix Suffix) Value {
	t.Helper()
	v, err := FromLiteral(n, suffix, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestBinary(t *testing.T) {
	minus1, err := Unary("-", lit(t, 1, SuffixNone))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		op   string
		a, b Value
		want Value
		err  error
	}{
		{"add", "+", lit(t, 2, SuffixNone), lit(t, 3, SuffixNone), Uint64(U31, 5), nil},
		{"i32 overflow", "+", lit(t, math.MaxInt32, SuffixNone), lit(t, 1, SuffixNone), Value{}, ErrOverflow},
		{"u32 no overflow", "+", lit(t, math.MaxInt32, SuffixU), lit(t, 1, SuffixNone), Uint64(U32, 1<<31), nil},
		{"u32 underflow", "-", lit(t, 0, SuffixU), lit(t, 1, SuffixNone), Value{}, ErrOverflow},
		{"negative result", "-", lit(t, 1, SuffixNone), lit(t, 2, SuffixNone), Int64(I32, -1), nil},
		{"i32 with u32 widens", "+", minus1, lit(t, 1, SuffixU), Uint64(U63, 0), nil},
		{"div", "/", lit(t, 7, SuffixNone), lit(t, 2, SuffixNone), Uint64(U31, 3), nil},
		{"div zero", "/", lit(t, 7, SuffixNone), lit(t, 0, SuffixNone), Value{}, ErrDivZero},
		{"rem zero", "%", lit(t, 7, SuffixNone), lit(t, 0, SuffixNone), Value{}, ErrDivZero},
		{"or", "|", lit(t, 1, SuffixNone), lit(t, 4, SuffixNone), Uint64(U31, 5), nil},
		{"and negative", "&", minus1, lit(t, 0xff, SuffixNone), Uint64(U31, 0xff), nil},
		{"xor u32", "^", lit(t, 0xffffffff, SuffixNone), lit(t, 1, SuffixNone), Uint64(U32, 0xfffffffe), nil},
		{"shl", "<<", lit(t, 1, SuffixNone), lit(t, 30, SuffixNone), Uint64(U31, 1<<30), nil},
		{"shl overflow", "<<", lit(t, 1, SuffixNone), lit(t, 31, SuffixNone), Value{}, ErrOverflow},
		{"shl unsigned", "<<", lit(t, 1, SuffixU), lit(t, 31, SuffixNone), Uint64(U32, 1<<31), nil},
		{"shl negative", "<<", minus1, lit(t, 1, SuffixNone), Value{}, ErrOverflow},
		{"shift count", ">>", lit(t, 1, SuffixNone), lit(t, 32, SuffixNone), Value{}, ErrOverflow},
		{"shift 64", "<<", lit(t, 1, SuffixULL), lit(t, 63, SuffixNone), Uint64(U64, 1<<63), nil},
		{"lt", "<", minus1, lit(t, 0, SuffixNone), Uint64(U31, 1), nil},
		{"eq", "==", lit(t, 3, SuffixU), lit(t, 3, SuffixNone), Uint64(U31, 1), nil},
		{"mixed sign 64", "+", Int64(I64, -1), lit(t, 1, SuffixULL), Value{}, ErrMixedSign},
		{"string", "+", StringOf("a"), lit(t, 1, SuffixNone), Value{}, ErrType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Binary(tt.op, tt.a, tt.b)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnary(t *testing.T) {
	minInt32 := Int64(I32, math.MinInt32)
	if _, err := Unary("-", minInt32); !errors.Is(err, ErrOverflow) {
		t.Errorf("-INT_MIN: err = %v", err)
	}
	if _, err := Unary("-", lit(t, 1, SuffixU)); !errors.Is(err, ErrOverflow) {
		t.Errorf("-1u: err = %v", err)
	}
	if v, err := Unary("-", lit(t, 0, SuffixU)); err != nil || v.Bits != 0 {
		t.Errorf("-0u = %v, %v", v, err)
	}
	if v, err := Unary("~", lit(t, 0, SuffixNone)); err != nil || v.Kind != I32 || int64(v.Bits) != -1 {
		t.Errorf("~0 = %v, %v", v, err)
	}
	if v, err := Unary("~", lit(t, 0, SuffixU)); err != nil || v.Kind != U32 || v.Bits != math.MaxUint32 {
		t.Errorf("~0u = %v, %v", v, err)
	}
	if v, err := Unary("!", lit(t, 0, SuffixNone)); err != nil || v.Kind != U31 || v.Bits != 1 {
		t.Errorf("!0 = %v, %v", v, err)
	}
	v, err := Unary("!", TargetOf(Defined("_WIN32")))
	if err != nil || v.Kind != Target || !v.Cond.Equal(NotDefined("_WIN32")) {
		t.Errorf("!defined(_WIN32) = %v, %v", v, err)
	}
}

// Every folded result must equal the exact result, and every exact result
// outside the promoted domain must be rejected.
func TestFoldingSoundness(t *testing.T) {
	samples := []Value{
		Uint64(U31, 0), Uint64(U31, 1), Uint64(U31, math.MaxInt32),
		Int64(I32, -1), Int64(I32, math.MinInt32),
		Uint64(U32, math.MaxUint32), Uint64(U32, 1<<31),
		Uint64(U63, math.MaxInt64), Int64(I64, math.MinInt64), Int64(I64, -7),
		Uint64(U64, math.MaxUint64), Uint64(U64, 3),
	}
	ops := []string{"+", "-", "*", "/", "%"}

	for _, a := range samples {
		for _, b := range samples {
			for _, op := range ops {
				got, err := Binary(op, a, b)
				domain, perr := Promote(a.Kind, b.Kind)
				if perr != nil {
					if err == nil {
						t.Errorf("%s %s %s folded despite %v", a, op, b, perr)
					}
					continue
				}
				x, y := a.big(), b.big()
				exact := new(big.Int)
				switch op {
				case "+":
					exact.Add(x, y)
				case "-":
					exact.Sub(x, y)
				case "*":
					exact.Mul(x, y)
				case "/", "%":
					if y.Sign() == 0 {
						if !errors.Is(err, ErrDivZero) {
							t.Errorf("%s %s %s: err = %v", a, op, b, err)
						}
						continue
					}
					if op == "/" {
						exact.Quo(x, y)
					} else {
						exact.Rem(x, y)
					}
				}
				_, ferr := Fit(exact, domain)
				if ferr != nil {
					if !errors.Is(err, ErrOverflow) {
						t.Errorf("%s %s %s = %v, want overflow", a, op, b, got)
					}
					continue
				}
				if err != nil {
					t.Errorf("%s %s %s: %v", a, op, b, err)
					continue
				}
				if got.big().Cmp(exact) != 0 {
					t.Errorf("%s %s %s = %s, want %s", a, op, b, got.big(), exact)
				}
			}
		}
	}
}

func TestTargetCompare(t *testing.T) {
	win := TargetOf(Defined("_WIN32"))

	v, err := Binary("==", win, Uint64(U31, 0))
	if err != nil || !v.Cond.Equal(NotDefined("_WIN32")) {
		t.Errorf("defined(_WIN32) == 0 = %v, %v", v, err)
	}
	v, err = Binary("!=", Uint64(U31, 0), win)
	if err != nil || !v.Cond.Equal(Defined("_WIN32")) {
		t.Errorf("0 != defined(_WIN32) = %v, %v", v, err)
	}
	if _, err := Binary("+", win, Uint64(U31, 1)); !errors.Is(err, ErrTargetDependent) {
		t.Errorf("defined(_WIN32) + 1: err = %v", err)
	}
}

func TestVerbatim(t *testing.T) {
	size := VerbatimOf("unsafe.Sizeof(uint32(0))", "uintptr")
	v, err := Binary("*", size, Uint64(U31, 4))
	if err != nil {
		t.Fatal(err)
	}
	if v.Code != "(unsafe.Sizeof(uint32(0)) * 4)" || v.GoType != "uintptr" {
		t.Errorf("got %q of %q", v.Code, v.GoType)
	}
	if _, err := Binary("<", size, Uint64(U31, 4)); !errors.Is(err, ErrUnfoldable) {
		t.Errorf("comparison: err = %v", err)
	}
	if _, err := Truth(size); !errors.Is(err, ErrUnfoldable) {
		t.Errorf("truth: err = %v", err)
	}
}

func TestGoLiteral(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Value{Kind: U32, Bits: 0x1fff0000, Base: 16, Digits: 8}, "0x1FFF0000"},
		{Value{Kind: U31, Bits: 0x10, Base: 16, Digits: 8}, "0x00000010"},
		{Value{Kind: U31, Bits: 8, Base: 8, Digits: 3}, "0o010"},
		{Int64(I32, -5), "-5"},
		{Float32(1), "1.0"},
		{Float64(0.5), "0.5"},
		{StringOf("a\"b"), `"a\"b"`},
		{BoolOf(true), "true"},
	}
	for _, tt := range tests {
		if got := tt.v.GoLiteral(); got != tt.want {
			t.Errorf("GoLiteral(%v) = %q, want %q", tt.v.Kind, got, tt.want)
		}
	}
}
