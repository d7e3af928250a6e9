package generator

import "testing"

func TestCommonPrefix(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{[]string{"SDL_INIT_AUDIO", "SDL_INIT_VIDEO"}, "SDL_INIT_"},
		{[]string{"SDL_SCANCODE_A", "SDL_SCANCODE_1"}, "SDL_"},
		{[]string{"SDL_FLIP_NONE", "SDL_FLIP_NONE_X"}, "SDL_FLIP_"},
		{[]string{"RED", "GREEN"}, ""},
		{[]string{"SDL_ONLY"}, ""},
	}
	for _, tt := range tests {
		if got := commonPrefix(tt.names); got != tt.want {
			t.Errorf("commonPrefix(%q) = %q, want %q", tt.names, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{exportName, "SDL_Window", "SDL_Window"},
		{exportName, "wl_display", "WlDisplay"},
		{exportName, "_private", "Private"},
		{fieldName, "x", "X"},
		{fieldName, "num_keys", "NumKeys"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.in, got, tt.want)
		}
	}

	params := []struct {
		in   string
		want string
	}{
		{"", "arg3"},
		{"type", "type_"},
		{"user_data", "userData"},
	}
	for _, tt := range params {
		if got := paramName(tt.in, 3); got != tt.want {
			t.Errorf("paramName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := uniqueNames([]string{"A", "B", "A"}); got[2] != "A_" {
		t.Errorf("uniqueNames gave %q", got)
	}
}
