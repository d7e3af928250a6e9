package eval_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/config"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/parser"
	"github.com/ardanlabs/sdlgen/preproc"
	"github.com/ardanlabs/sdlgen/value"
)

// env adds the symbols, types and fields the generator would know about to
// the preprocessor state.
type env struct {
	*preproc.State
	symbols map[string]value.Value
	types   map[string]eval.TypeInfo
	fields  map[string]string
}

func (e *env) Symbol(name string) (value.Value, bool) {
	v, ok := e.symbols[name]
	return v, ok
}

func (e *env) Type(t ast.Type) (eval.TypeInfo, bool) {
	var name string
	switch n := t.(type) {
	case *ast.Named:
		name = n.Name
	case *ast.Primitive:
		name = n.Name
	default:
		return eval.TypeInfo{}, false
	}
	info, ok := e.types[name]
	return info, ok
}

func (e *env) Field(t ast.Type, name string) (string, bool) {
	f, ok := e.fields[name]
	return f, ok
}

func setup(t *testing.T, header string) (*env, *parser.Parser) {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	state := preproc.New(cfg)
	var sink diag.Sink
	p := parser.New(state, &sink, cfg.SkipSet())
	p.ParseFile("test.h", header)
	if sink.ErrorCount() > 0 {
		t.Fatalf("parse errors: %v", sink.All())
	}

	e := env{
		State: state,
		symbols: map[string]value.Value{
			"SDL_MODE_B": value.Uint64(value.U31, 4),
			"X":          value.Uint64(value.U31, 10),
		},
		types: map[string]eval.TypeInfo{
			"int":       {Go: "int32", Kind: value.I32},
			"Uint32":    {Go: "Uint32", Kind: value.U32},
			"Sint64":    {Go: "int64", Kind: value.I64},
			"float":     {Go: "float32", Kind: value.F32},
			"SDL_Point": {Go: "Point"},
		},
		fields: map[string]string{"x": "X"},
	}
	return &e, p
}

const macros = `
typedef unsigned int Uint32;
typedef long long Sint64;
typedef struct SDL_Point { int x; int y; } SDL_Point;

#define SDL_MUL(a, b) ((a) * (b))
#define SDL_FIRST(a, ...) (a)
#define SDL_UINT64_C(c) c ## ULL
#define SDL_ALIAS SDL_MUL

#define A 1
#define B (A << 4)
#define C 0xFFu
#define D -1
#define E 2.5
#define F "text"
#define G ((Uint32)-1)
#define H SDL_MUL(3, 4)
#define I SDL_UINT64_C(0xFF)
#define J SDL_FIRST(7, 8, 9)
#define K (SDL_MODE_B + 1)
#define L ((Sint64)5)
#define M ((float)1)
#define N SDL_ALIAS(2, 5)
#define O (A ? 'a' : 'b')
#define P sizeof(SDL_Point)
#define Q sizeof(((SDL_Point *)0)->x)
#define R (X) - 1
#define S (0x10 | 0x01)
`

func TestFoldDefines(t *testing.T) {
	e, _ := setup(t, macros)

	tests := []struct {
		name string
		kind value.Kind
		lit  string
	}{
		{"A", value.U31, "1"},
		{"B", value.U31, "16"},
		{"C", value.U32, "0xFF"},
		{"D", value.I32, "-1"},
		{"E", value.F64, "2.5"},
		{"F", value.String, `"text"`},
		{"G", value.Verbatim, "Uint32(4294967295)"},
		{"H", value.U31, "12"},
		{"I", value.U64, "0xFF"},
		{"J", value.U31, "7"},
		{"K", value.U31, "5"},
		{"L", value.U63, "5"},
		{"M", value.F32, "1.0"},
		{"N", value.U31, "10"},
		{"O", value.U31, "97"},
		{"P", value.Verbatim, "unsafe.Sizeof(*new(Point))"},
		{"Q", value.Verbatim, "unsafe.Sizeof((*Point)(nil).X)"},
		{"R", value.U31, "9"},
		{"S", value.U31, "17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := e.Lookup(tt.name)
			if !ok {
				t.Fatalf("%s not defined", tt.name)
			}
			v, ok, err := eval.New(e).Define(d)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("value did not fold")
			}
			if v.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", v.Kind, tt.kind)
			}
			if diff := cmp.Diff(tt.lit, v.GoLiteral()); diff != "" {
				t.Errorf("literal mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnfoldable(t *testing.T) {
	e, _ := setup(t, `
#define U1 (SDL_Unknown + 1)
#define U2 SDL_Call(1)
#define U3 ((SDL_Mystery)3)
#define U4 U4
`)
	for _, name := range []string{"U1", "U2", "U3", "U4"} {
		d, ok := e.Lookup(name)
		if !ok {
			t.Fatalf("%s not defined", name)
		}
		v, ok, err := eval.New(e).Define(d)
		if err != nil || ok {
			t.Errorf("%s = %v, %v, %v; want unfolded without error", name, v, ok, err)
		}
	}
}

func TestFoldErrors(t *testing.T) {
	e, _ := setup(t, `
#define E1 (0x7FFFFFFF + 1)
#define E2 (1 / 0)
#define E3 (-1 + 0xFFFFFFFFFFFFFFFF)
`)
	tests := map[string]error{
		"E1": value.ErrOverflow,
		"E3": value.ErrMixedSign,
	}
	for name, want := range tests {
		d, _ := e.Lookup(name)
		_, _, err := eval.New(e).Define(d)
		if !errors.Is(err, want) {
			t.Errorf("%s: err = %v, want %v", name, err, want)
		}
	}

	d, _ := e.Lookup("E2")
	if _, _, err := eval.New(e).Define(d); err == nil {
		t.Error("E2: division by zero folded")
	}
}

const targetMacros = `
#ifdef _WIN32
#define SDL_PATH_SEP 1
#else
#define SDL_PATH_SEP 2
#endif

#ifdef _WIN32
#define SDL_IS_WIN 1
#else
#define SDL_IS_WIN 0
#endif

#ifdef __APPLE__
#define SDL_ONLY_APPLE 5
#endif
`

func TestTargetDependentMacros(t *testing.T) {
	e, p := setup(t, targetMacros)

	fold := func(guard bool, text string) (value.Value, bool, error) {
		x, err := p.ParseExpr("expr.h", text)
		if err != nil {
			t.Fatal(err)
		}
		ev := eval.New(e)
		if guard {
			ev = eval.NewGuard(e)
		}
		return ev.Eval(x)
	}

	if _, _, err := fold(false, "SDL_PATH_SEP"); !errors.Is(err, value.ErrTargetDependent) {
		t.Errorf("SDL_PATH_SEP: err = %v, want a target-dependent error", err)
	}

	v, ok, err := fold(false, "SDL_IS_WIN")
	if err != nil || !ok || v.Kind != value.Target {
		t.Fatalf("SDL_IS_WIN = %v, %v, %v", v, ok, err)
	}
	if got := v.Cond.String(); got != "defined(_WIN32)" {
		t.Errorf("SDL_IS_WIN condition = %s", got)
	}

	if _, ok, err := fold(false, "SDL_ONLY_APPLE"); ok || err != nil {
		t.Errorf("partly defined macro folded outside a guard: %v, %v", ok, err)
	}

	tests := map[string]string{
		"SDL_ONLY_APPLE == 5":                    "defined(__APPLE__)",
		"SDL_IS_WIN && defined(__x86_64__)":      "defined(_WIN32) && defined(__x86_64__)",
		"!SDL_IS_WIN":                            "!defined(_WIN32)",
		"defined(SDL_ONLY_APPLE) || SDL_IS_WIN":  "defined(__APPLE__) || defined(_WIN32)",
		"SDL_PATH_SEP == 2":                      "!defined(_WIN32)",
		"defined(__cplusplus) || !defined(A_NO)": "1",
	}
	for text, want := range tests {
		x, err := p.ParseCondition("guard.h", text)
		if err != nil {
			t.Fatal(err)
		}
		c, err := eval.NewGuard(e).Truth(x)
		if err != nil {
			t.Errorf("%s: %v", text, err)
			continue
		}
		got := c.String()
		if c.IsTrue() {
			got = "1"
		}
		if got != want {
			t.Errorf("%s = %s, want %s", text, got, want)
		}
	}
}

func TestGuardErrors(t *testing.T) {
	e, p := setup(t, "#define EMPTY\n")
	for _, text := range []string{"MYSTERY", "EMPTY", "sizeof(int)", "F(1)", "_WIN32 + 1"} {
		x, err := p.ParseCondition("guard.h", text)
		if err != nil {
			t.Fatalf("%s: %v", text, err)
		}
		if _, err := eval.NewGuard(e).Truth(x); err == nil {
			t.Errorf("%s evaluated without error", text)
		}
	}
}

func TestPasteNeedsLiteral(t *testing.T) {
	e, p := setup(t, "#define SDL_UINT64_C(c) c ## ULL\n#define V 3\n")
	x, err := p.ParseExpr("paste.h", "SDL_UINT64_C(V)")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := eval.New(e).Eval(x); err == nil {
		t.Error("pasting onto a macro name folded")
	}
}
