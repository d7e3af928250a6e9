package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/config"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/preproc"
	"github.com/ardanlabs/sdlgen/span"
)

func newParser(t testing.TB) (*Parser, *preproc.State, *diag.Sink) {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	state := preproc.New(cfg)
	var sink diag.Sink
	return New(state, &sink, cfg.SkipSet()), state, &sink
}

func items(file *ast.File) []string {
	var out []string
	for _, it := range file.Items {
		out = append(out, itemString(it))
	}
	return out
}

func messages(sink *diag.Sink, sev diag.Severity) []string {
	var out []string
	for _, d := range sink.All() {
		if d.Severity == sev {
			out = append(out, d.Message)
		}
	}
	return out
}

func noErrors(t *testing.T, sink *diag.Sink) {
	t.Helper()
	for _, d := range sink.All() {
		if d.Severity == diag.SeverityError {
			t.Errorf("unexpected error: %v", d)
		}
	}
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 << 4) | 3", "(| (paren (<< 1 4)) 3)"},
		{"a - b - c", "(- (- a b) c)"},
		{"a ? b : c ? d : e", "(? a b (? c d e))"},
		{"a || b && c", "(|| a (&& b c))"},
		{"x, y", "(, x y)"},
		{"-~!x", "(u- (u~ (u! x)))"},
		{"(Uint8)0xFF", "(cast Uint8 0xFF)"},
		{"(int)-1", "(cast int (u- 1))"},
		{"(unsigned long long)x << 2", "(<< (cast unsigned long long x) 2)"},
		{"(X) - 1", "(amb (cast X (u- 1)) (- (paren X) 1))"},
		{"(X) * 2 + 1", "(amb (+ (cast X (u* 2)) 1) (+ (* (paren X) 2) 1))"},
		{"(X)", "(paren X)"},
		{"sizeof(int)", "(sizeof int)"},
		{"sizeof(struct SDL_Rect *)", "(sizeof *struct SDL_Rect)"},
		{"sizeof(Foo)", "(amb (sizeof Foo) (sizeof-expr Foo))"},
		{"sizeof x", "(sizeof-expr x)"},
		{"sizeof(((SDL_Foo *)0)->member)", "(sizeof-expr (paren (-> (paren (cast *SDL_Foo 0)) member)))"},
		{"F()", "(call F)"},
		{"F(1, a + b)", "(call F 1 (+ a b))"},
		{"SDL_static_cast(const char *, x)", "(call SDL_static_cast (type *const char) x)"},
		{"x.y[2]->z", "(-> (index (. x y) 2) z)"},
		{"p++", "(post++ p)"},
		{"{1, 2,}", "(list 1 2)"},
		{`"a" "b"`, `"ab"`},
		{`L"w"`, `"w"`},
		{"'A'", "'A'"},
		{"1.5f", "1.5f"},
		{"0x1p-3", "0x1p-3"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, _, _ := newParser(t)
			x, err := p.ParseExpr("expr.h", tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, sexpr(x)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKnownTypesAreCasts(t *testing.T) {
	p, _, _ := newParser(t)
	p.ParseFile("types.h", "typedef unsigned int Uint32;")

	x, err := p.ParseExpr("expr.h", "(Uint32) - 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := sexpr(x); got != "(cast Uint32 (u- 1))" {
		t.Errorf("got %s", got)
	}
}

func TestExpressionErrors(t *testing.T) {
	for _, input := range []string{"1 +", "(1", "1 2", "a ? b", "", "F(1,", "0x", "1uu", "'ab'", `"open`} {
		t.Run(input, func(t *testing.T) {
			p, _, _ := newParser(t)
			if x, err := p.ParseExpr("expr.h", input); err == nil {
				t.Errorf("ParseExpr(%q) = %s, want an error", input, sexpr(x))
			}
		})
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"unsigned long long", "unsigned long long"},
		{"long signed", "long"},
		{"unsigned", "unsigned int"},
		{"short int", "short"},
		{"long double", "long double"},
		{"const char * const", "const *const char"},
		{"unsigned const char", "const unsigned char"},
		{"int (*)(void *, int)", "func(*void, int) int"},
		{"void (*)(void)", "func() void"},
		{"struct SDL_Window *", "*struct SDL_Window"},
		{"Uint8 **", "**Uint8"},
		{"int [4][2]", "[4][2]int"},
		{"size_t", "size_t"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, _, _ := newParser(t)
			typ, err := p.ParseType("type.h", tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, typeString(typ)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	p, _, _ := newParser(t)
	for _, bad := range []string{"signed unsigned", "long long long", "short double"} {
		if _, err := p.ParseType("type.h", bad); err == nil {
			t.Errorf("ParseType(%q) succeeded", bad)
		}
	}
}

const declHeader = `/**
 * File doc.
 */

#include <SDL3/SDL_stdinc.h>

#define SDL_FOO 1 /**< The foo. */
#define SDL_BAR(x) ((x) + 1)

typedef struct SDL_Point
{
    int x;   /**< X. */
    int y;
    unsigned int flags : 3;
    char name[16];
    union {
        int i;
        float f;
    };
} SDL_Point;

typedef struct SDL_Window SDL_Window;

typedef enum SDL_Mode
{
    SDL_MODE_A,             /**< A. */
    SDL_MODE_B = 4,
    SDL_MODE_C = SDL_MODE_B << 1,
} SDL_Mode;

typedef void (SDLCALL *SDL_Callback)(void *userdata, int n);

/**
 * Makes a window.
 *
 * \param title the title.
 */
extern SDL_DECLSPEC SDL_Window * SDLCALL SDL_CreateWindow(const char *title, int w, int h, Uint32 flags);

SDL_FORCE_INLINE int SDL_Inline(int a) { return a > 0 ? a : -a; }

extern SDL_DECLSPEC int SDLCALL SDL_Log(SDL_PRINTF_FORMAT_STRING const char *fmt, ...) SDL_PRINTF_VARARG_FUNC(1);

extern SDL_DECLSPEC void SDLCALL SDL_Sort(void *base, size_t n, int (SDLCALL *compare)(const void *, const void *));

extern SDL_DECLSPEC const char * const SDL_names[4];
`

func TestDeclarations(t *testing.T) {
	p, _, sink := newParser(t)
	var included []string
	p.OnInclude(func(path string, system bool, at span.Span) {
		included = append(included, path)
	})

	file := p.ParseFile("decl.h", declHeader)
	noErrors(t, sink)

	want := []string{
		"#include <SDL3/SDL_stdinc.h>",
		"#define SDL_FOO expr",
		"#define SDL_BAR(x) other",
		"struct SDL_Point {x int; y int; flags unsigned int:3; name [16]char; union {...}}",
		"typedef SDL_Point struct SDL_Point",
		"typedef SDL_Window struct SDL_Window",
		"enum SDL_Mode {SDL_MODE_A, SDL_MODE_B=4, SDL_MODE_C=(<< SDL_MODE_B 1)}",
		"typedef SDL_Mode enum SDL_Mode",
		"typedef SDL_Callback func(*void, int) void",
		"func SDL_CreateWindow(*const char, int, int, Uint32) *SDL_Window",
		"func SDL_Inline(int) int body",
		"func SDL_Log(*const char, ...) int",
		"func SDL_Sort(*void, size_t, func(*const void, *const void) int) void",
		"var SDL_names [4]const *const char",
	}
	if diff := cmp.Diff(want, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SDL3/SDL_stdinc.h"}, included); diff != "" {
		t.Errorf("includes mismatch (-want +got):\n%s", diff)
	}

	if file.Doc == nil || file.Doc.Text != "File doc." {
		t.Errorf("file doc = %+v", file.Doc)
	}
	docs := map[string]string{}
	for _, it := range file.Items {
		switch n := it.(type) {
		case *ast.Define:
			if n.Doc != nil {
				docs[n.Name.Name] = n.Doc.Text
			}
		case *ast.FunctionDecl:
			if n.Doc != nil {
				docs[n.Name.Name] = n.Doc.Text
			}
		case *ast.StructDecl:
			for _, f := range n.Record.Fields {
				if f.Doc != nil {
					docs[f.Name.Name] = f.Doc.Text
				}
			}
		case *ast.EnumDecl:
			for _, e := range n.Enum.Items {
				if e.Doc != nil {
					docs[e.Name.Name] = e.Doc.Text
				}
			}
		}
	}
	wantDocs := map[string]string{
		"SDL_FOO":          "The foo.",
		"x":                "X.",
		"SDL_MODE_A":       "A.",
		"SDL_CreateWindow": "Makes a window.\n\n\\param title the title.",
	}
	if diff := cmp.Diff(wantDocs, docs); diff != "" {
		t.Errorf("docs mismatch (-want +got):\n%s", diff)
	}
	if !p.IsTypeName("SDL_Point") || !p.IsTypeName("SDL_Callback") {
		t.Error("typedef names were not registered")
	}
}

func TestSpansNest(t *testing.T) {
	p, _, _ := newParser(t)
	file := p.ParseFile("decl.h", declHeader)

	for _, it := range file.Items {
		ast.Inspect(it, func(n ast.Node) bool {
			at := n.Span()
			if at.IsValid() && !file.At.Contains(at) {
				t.Errorf("%T span %d:%d outside the file", n, at.Start, at.End)
			}
			return true
		})
		if it.Span().IsEmpty() {
			t.Errorf("%s has an empty span", itemString(it))
		}
	}
}

const condHeader = `#ifdef __cplusplus
extern "C" {
#endif

#if defined(_WIN32)
#define SDL_SEP '\\'
#elif defined(__APPLE__)
#define SDL_SEP ':'
#else
#define SDL_SEP '/'
#endif

#ifndef SDL_GUARD_H
#define SDL_GUARD_H
#endif

#if 0
this is not C at all, it isn't
#if nested
#endif
#endif

#if defined(SDL_GUARD_H) && !defined(__cplusplus)
int guarded;
#endif

#if __has_include(<SDL3/SDL_stdinc.h>)
int has_stdinc;
#endif

#ifdef __cplusplus
}
#endif
`

func TestConditionals(t *testing.T) {
	p, state, sink := newParser(t)
	state.AddHeader("SDL3/SDL_stdinc.h")
	file := p.ParseFile("cond.h", condHeader)
	noErrors(t, sink)

	want := []string{
		"#if [defined(_WIN32)] #define SDL_SEP expr | " +
			"[defined(__APPLE__) && !defined(_WIN32)] #define SDL_SEP expr | " +
			"[!defined(_WIN32) && !defined(__APPLE__)] #define SDL_SEP expr",
		"#define SDL_GUARD_H empty",
		"var guarded int",
		"var has_stdinc int",
	}
	if diff := cmp.Diff(want, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if n := len(state.Macros("SDL_SEP")); n != 3 {
		t.Errorf("SDL_SEP has %d bindings, want 3", n)
	}
	if state.Depth() != 0 {
		t.Errorf("condition stack depth %d after parsing", state.Depth())
	}
}

func TestTargetArmInsideCondition(t *testing.T) {
	p, state, sink := newParser(t)
	file := p.ParseFile("nest.h", `
#ifdef _WIN32
#ifdef _WIN32
int win;
#else
int never;
#endif
#endif
`)
	noErrors(t, sink)
	want := []string{"#if [defined(_WIN32)] var win int"}
	if diff := cmp.Diff(want, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if state.Depth() != 0 {
		t.Errorf("condition stack depth %d after parsing", state.Depth())
	}
}

func TestEnumTargetArms(t *testing.T) {
	p, _, sink := newParser(t)
	file := p.ParseFile("enum.h", `
typedef enum SDL_Flag {
    SDL_FLAG_A = 1,
#ifdef _WIN32
    SDL_FLAG_WIN = 2,
#ifdef __x86_64__
    SDL_FLAG_WIN64 = 3,
#endif
#endif
    SDL_FLAG_B = 4
} SDL_Flag;
`)
	noErrors(t, sink)

	en := file.Items[0].(*ast.EnumDecl).Enum
	got := map[string]string{}
	for _, e := range en.Items {
		cond := ""
		if e.Cond != nil {
			cond = e.Cond.Cond.String()
		}
		got[e.Name.Name] = cond
	}
	want := map[string]string{
		"SDL_FLAG_A":     "",
		"SDL_FLAG_WIN":   "defined(_WIN32)",
		"SDL_FLAG_WIN64": "defined(_WIN32) && defined(__x86_64__)",
		"SDL_FLAG_B":     "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}
}

func TestStructTargetArmRejected(t *testing.T) {
	p, state, sink := newParser(t)
	file := p.ParseFile("struct.h", `
typedef struct SDL_Handle {
#ifdef _WIN32
    void *handle;
#else
    int fd;
#endif
} SDL_Handle;

int after;
`)
	errs := messages(sink, diag.SeverityError)
	if len(errs) != 1 || !strings.Contains(errs[0], "inside a struct body") {
		t.Fatalf("errors = %q", errs)
	}
	if diff := cmp.Diff([]string{"var after int"}, items(file)); diff != "" {
		t.Errorf("recovery mismatch (-want +got):\n%s", diff)
	}
	if state.Depth() != 0 {
		t.Errorf("condition stack depth %d after a failed body", state.Depth())
	}
}

func TestDefineClassification(t *testing.T) {
	p, _, sink := newParser(t)
	file := p.ParseFile("define.h", `
typedef unsigned char Uint8;
#define A_EMPTY
#define A_EXPR (1u << 3)
#define A_TYPE int
#define A_TYPEDEF Uint8
#define A_POINTER const char *
#define A_AMBIGUOUS SOMETHING
#define A_STRINGIFY(x) #x
#define A_STATEMENT do { } while (0)
#define A_PASTE(x) x##ULL
`)
	noErrors(t, sink)

	want := []string{
		"typedef Uint8 unsigned char",
		"#define A_EMPTY empty",
		"#define A_EXPR expr",
		"#define A_TYPE type",
		"#define A_TYPEDEF type",
		"#define A_POINTER type",
		"#define A_AMBIGUOUS ambiguous",
		"#define A_STRINGIFY(x) other",
		"#define A_STATEMENT other",
		"#define A_PASTE(x) other",
	}
	if diff := cmp.Diff(want, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestReparse(t *testing.T) {
	p, state, _ := newParser(t)
	p.ParseFile("macros.h", `
#define SDL_static_cast(type, expression) ((type)(expression))
#define SDL_minus_one(x) (x) - 1
#define SDL_FOURCC(A, B) ((SDL_static_cast(Uint32, SDL_static_cast(Uint8, (A))) << 0) | (B))
#define SDL_Swap(a, ...) F(a, __VA_ARGS__)
`)

	tests := []struct {
		name string
		want string
	}{
		{"SDL_static_cast", "(paren (cast type (paren expression)))"},
		{"SDL_minus_one", "(- (paren x) 1)"},
		{"SDL_FOURCC", "(paren (| (paren (<< (call SDL_static_cast Uint32 (call SDL_static_cast Uint8 (paren A))) 0)) (paren B)))"},
		{"SDL_Swap", "(call F a __VA_ARGS__)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := state.Lookup(tt.name)
			if !ok {
				t.Fatalf("%s not defined", tt.name)
			}
			dv, err := state.Reparse(d)
			if err != nil {
				t.Fatal(err)
			}
			if dv.Kind != ast.DefineExpr && dv.Kind != ast.DefineAmbiguous {
				t.Fatalf("kind = %v", dv.Kind)
			}
			if diff := cmp.Diff(tt.want, sexpr(dv.Expr)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGuardErrors(t *testing.T) {
	p, _, sink := newParser(t)
	file := p.ParseFile("guard.h", `
#if MYSTERY
int skipped;
#endif
#if 1 +
#endif
int kept;
`)
	if got := sink.ErrorCount(); got != 2 {
		t.Errorf("error count = %d, want 2: %q", got, messages(sink, diag.SeverityError))
	}
	if diff := cmp.Diff([]string{"var kept int"}, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestMessages(t *testing.T) {
	p, _, sink := newParser(t)
	file := p.ParseFile("msg.h", `
#ifdef _WIN32
#error Windows is not supported
#endif
#warning careful
#error stop
`)
	want := []string{
		"#if [defined(_WIN32)] #message Windows is not supported",
		"#message careful",
		"#message stop",
	}
	if diff := cmp.Diff(want, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if got := messages(sink, diag.SeverityError); len(got) != 1 || got[0] != "#error stop" {
		t.Errorf("errors = %q", got)
	}
	if got := messages(sink, diag.SeverityNote); len(got) != 1 {
		t.Errorf("notes = %q", got)
	}
	if got := messages(sink, diag.SeverityWarning); len(got) != 1 {
		t.Errorf("warnings = %q", got)
	}
}

func TestRecovery(t *testing.T) {
	p, _, sink := newParser(t)
	file := p.ParseFile("bad.h", `
int a;
int b c d;
struct S { int x; int y z; };
int e;
#bogus
int f;
`)
	if got := sink.ErrorCount(); got != 3 {
		t.Errorf("error count = %d, want 3: %q", got, messages(sink, diag.SeverityError))
	}
	if diff := cmp.Diff([]string{"var a int", "var e int", "var f int"}, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownAttribute(t *testing.T) {
	p, _, sink := newParser(t)
	p.ParseFile("attr.h", "MYAPI int foo(void);\n")

	errs := sink.All()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "MYAPI") {
		t.Fatalf("diagnostics = %v", errs)
	}
	if !strings.Contains(strings.Join(errs[0].Notes, "\n"), "skip list") {
		t.Errorf("notes = %q", errs[0].Notes)
	}
}

func TestRedefinitionWarning(t *testing.T) {
	p, _, sink := newParser(t)
	p.ParseFile("redef.h", "#define X 1\n#define X 1\n#define X 2\n")
	if got := messages(sink, diag.SeverityWarning); len(got) != 1 || !strings.Contains(got[0], "redefined") {
		t.Errorf("warnings = %q", got)
	}
}

func TestDocCommentPlacement(t *testing.T) {
	p, _, sink := newParser(t)
	file := p.ParseFile("doc.h", `/** File. */

int a; /**< A. */

/** Orphan. */

/** Both. */
int b; /**< Again. */
`)
	errs := messages(sink, diag.SeverityError)
	if len(errs) != 1 || !strings.Contains(errs[0], "both a prefix and a postfix") {
		t.Errorf("errors = %q", errs)
	}
	want := []string{"var a int", "/** Orphan. */", "var b int"}
	if diff := cmp.Diff(want, items(file)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if file.Doc == nil || file.Doc.Text != "File." {
		t.Errorf("file doc = %+v", file.Doc)
	}
}

func FuzzParserProgress(f *testing.F) {
	f.Add(declHeader)
	f.Add(condHeader)
	f.Add("#if\n#elif\n#else\n#endif\n#endif")
	f.Add("typedef struct { int a; ")
	f.Add("/* unterminated")
	f.Add("#define F(x, ...) ((x) + __VA_ARGS__)\nint y = F(1, 2);")
	f.Add("enum { A = (B) - 1, C }; '")

	f.Fuzz(func(t *testing.T, text string) {
		p, state, sink := newParser(t)
		p.ParseFile("fuzz.h", text)
		for _, d := range sink.All() {
			if d.Stage == diag.StageInternal {
				t.Fatalf("internal error: %v", d)
			}
		}
		if state.Depth() != 0 {
			t.Fatalf("condition stack depth %d after parsing", state.Depth())
		}
	})
}

func TestMemberDocComments(t *testing.T) {
	p, _, sink := newParser(t)
	file := p.ParseFile("docs.h", `struct SDL_Point
{
    /** Horizontal. */
    int x;
    int y; /**< Vertical. */
};

enum SDL_Mode
{
    SDL_MODE_A, /**< First. */
    /** Second. */
    SDL_MODE_B
};

#define SDL_MODE_COUNT 2 /**< Count. */
`)
	noErrors(t, sink)

	var got []string
	for _, it := range file.Items {
		switch it := it.(type) {
		case *ast.StructDecl:
			for _, fl := range it.Record.Fields {
				got = append(got, fl.Name.Name+": "+docText(fl))
			}
		case *ast.EnumDecl:
			for _, e := range it.Enum.Items {
				got = append(got, e.Name.Name+": "+docText(e))
			}
		case *ast.Define:
			got = append(got, it.Name.Name+": "+docText(it))
		}
	}

	want := []string{
		"x: Horizontal.",
		"y: Vertical.",
		"SDL_MODE_A: First.",
		"SDL_MODE_B: Second.",
		"SDL_MODE_COUNT: Count.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("docs mismatch (-want +got):\n%s", diff)
	}
}

func docText(d ast.Documented) string {
	if doc := d.DocSlot().Doc; doc != nil {
		return doc.Text
	}
	return ""
}
