package value

import "testing"

func TestDefineStateNormalForm(t *testing.T) {
	win, apple, linux := Defined("_WIN32"), Defined("__APPLE__"), Defined("__linux__")

	tests := []struct {
		name string
		got  DefineState
		want string
	}{
		{"and identity", And(True(), win), "defined(_WIN32)"},
		{"and absorbing", And(False(), win), "0"},
		{"or identity", Or(False(), win), "defined(_WIN32)"},
		{"or absorbing", Or(win, True()), "1"},
		{"double negation", Not(Not(win)), "defined(_WIN32)"},
		{"de morgan", Not(And(win, apple)), "!defined(_WIN32) || !defined(__APPLE__)"},
		{"contradiction", And(win, apple, Not(win)), "0"},
		{"tautology", Or(win, Not(win)), "1"},
		{"dedupe", And(win, win, apple), "defined(_WIN32) && defined(__APPLE__)"},
		{"flatten", And(win, And(apple, linux)), "defined(_WIN32) && defined(__APPLE__) && defined(__linux__)"},
		{"nested", Or(And(win, apple), linux), "(defined(_WIN32) && defined(__APPLE__)) || defined(__linux__)"},
		{"empty and", And(), "1"},
		{"empty or", Or(), "0"},
	}

	for _, tt := range tests {
		if got := tt.got.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	win, apple := Defined("_WIN32"), Defined("__APPLE__")
	raw := []DefineState{
		{Op: OpAnd, Args: []DefineState{True(), win, {Op: OpAnd, Args: []DefineState{win, apple}}}},
		{Op: OpOr, Args: []DefineState{False(), {Op: OpOr, Args: []DefineState{win}}, NotDefined("_WIN32")}},
		{Op: OpAnd, Args: []DefineState{{Op: OpOr, Args: []DefineState{win, apple}}, NotDefined("__APPLE__")}},
		Not(Or(win, And(apple, NotDefined("_WIN32")))),
		win,
		True(),
	}

	for _, s := range raw {
		once := s.Simplify()
		twice := once.Simplify()
		if !once.Equal(twice) {
			t.Errorf("simplify not idempotent: %s then %s", once, twice)
		}
	}

	if got := raw[0].Simplify().String(); got != "defined(_WIN32) && defined(__APPLE__)" {
		t.Errorf("raw[0] = %q", got)
	}
	if got := raw[1].Simplify(); !got.IsTrue() {
		t.Errorf("raw[1] = %q", got)
	}
}

func TestNames(t *testing.T) {
	s := Or(And(Defined("B"), NotDefined("A")), Defined("A"))
	got := s.Names()
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Errorf("Names() = %v", got)
	}
}

func TestTargetOfCollapses(t *testing.T) {
	if v := TargetOf(And(Defined("X"), NotDefined("X"))); v.Kind != Bool || v.Bool {
		t.Errorf("got %v", v)
	}
	if v := TargetOf(Defined("X")); v.Kind != Target {
		t.Errorf("got %v", v)
	}
}
