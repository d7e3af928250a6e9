package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// runCapture runs the command and returns its exit code and stderr.
func runCapture(t *testing.T, args ...string) (int, string) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	f, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	code := run(args, f)

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	return code, string(data)
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()
	code, stderr := runCapture(t, "generate",
		"--headers", "driver/testdata/headers",
		"--out", out,
		"--root", "SDL3/SDL_rect.h",
		"--package", "sdl3",
		"-v",
	)
	if code != exitOK {
		t.Fatalf("exit %d:\n%s", code, stderr)
	}
	for _, s := range []string{"parsed header", "wrote file", "generated bindings"} {
		if !strings.Contains(stderr, s) {
			t.Errorf("stderr lacks %q:\n%s", s, stderr)
		}
	}

	data, err := os.ReadFile(filepath.Join(out, "sdl3.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "package sdl3") {
		t.Errorf("prelude has the wrong package:\n%s", data)
	}
}

func TestGenerateReportsDiagnostics(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	code, stderr := runCapture(t, "generate", "--headers", "driver/testdata/broken", "--out", out)
	if code != exitDiagnostics {
		t.Fatalf("exit %d, want %d:\n%s", code, exitDiagnostics, stderr)
	}
	for _, s := range []string{"SDL3/SDL_bad.h:1:", "error:", "2 error(s)"} {
		if !strings.Contains(stderr, s) {
			t.Errorf("stderr lacks %q:\n%s", s, stderr)
		}
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("output directory was created")
	}
}

func TestGenerateJSONDiagnostics(t *testing.T) {
	t.Setenv("GEN_JSON_DIAG", "1")
	code, stderr := runCapture(t, "generate", "--headers", "driver/testdata/broken", "--out", t.TempDir())
	if code != exitDiagnostics {
		t.Fatalf("exit %d:\n%s", code, stderr)
	}
	if !strings.Contains(stderr, `"file":"SDL3/SDL_bad.h"`) || !strings.Contains(stderr, `"severity":"error"`) {
		t.Errorf("no JSON diagnostics:\n%s", stderr)
	}
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	badMap := filepath.Join(dir, "targets.yaml")
	if err := os.WriteFile(badMap, []byte("targets:\n  __FOO__: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, exitUsage},
		{"missing out", []string{"generate", "--headers", "driver/testdata/headers"}, exitUsage},
		{"unknown flag", []string{"generate", "--headers", "h", "--out", dir, "--bogus"}, exitUsage},
		{"bad target map", []string{"generate", "--headers", "driver/testdata/headers", "--out", dir, "--target-map", badMap}, exitUsage},
		{"missing target map", []string{"generate", "--headers", "driver/testdata/headers", "--out", dir, "--target-map", filepath.Join(dir, "none.yaml")}, exitIO},
		{"missing headers", []string{"generate", "--headers", filepath.Join(dir, "none"), "--out", dir}, exitIO},
		{"missing root", []string{"generate", "--headers", "driver/testdata/headers", "--out", dir, "--root", "SDL3/SDL_none.h"}, exitIO},
	}

	var got, want []int
	for _, tt := range tests {
		code, _ := runCapture(t, tt.args...)
		got = append(got, code)
		want = append(want, tt.want)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		var names []string
		for _, tt := range tests {
			names = append(names, tt.name)
		}
		t.Errorf("exit codes for %q (-want +got):\n%s", names, diff)
	}
}
