package driver_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/driver"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunWritesBindings(t *testing.T) {
	out := t.TempDir()
	var logs bytes.Buffer
	res, err := driver.Run(driver.Options{
		Headers: "testdata/headers",
		Out:     out,
		Log:     slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, d := range res.Diagnostics.All() {
		if d.Severity == diag.SeverityError {
			t.Errorf("unexpected error: %v", d)
		}
	}

	want := []string{
		"ctypes_other.go",
		"ctypes_windows.go",
		"sdl.go",
		"sdl_h.go",
		"sdl_rect.go",
		"sdl_stdinc.go",
		"sdl_stdinc_cfg1.go",
		"sdl_stdinc_cfg2.go",
	}
	if diff := cmp.Diff(want, listDir(t, out)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if len(res.Written) != len(want) {
		t.Errorf("reported %d written files, want %d", len(res.Written), len(want))
	}

	rect := readFile(t, filepath.Join(out, "sdl_rect.go"))
	for _, s := range []string{
		"// Code generated by sdlgen from SDL_rect.h. DO NOT EDIT.",
		"// Point and rectangle functions.",
		"type SDL_Rect struct {",
		"var SDL_HasRectIntersection func(a *SDL_Rect, b *SDL_Rect) bool",
	} {
		if !strings.Contains(rect, s) {
			t.Errorf("sdl_rect.go lacks %q:\n%s", s, rect)
		}
	}

	prelude := readFile(t, filepath.Join(out, "sdl.go"))
	for _, h := range []string{"SDL_stdinc.h", "SDL_rect.h", "SDL.h"} {
		if !strings.Contains(prelude, "//   - "+h) {
			t.Errorf("prelude does not list %s:\n%s", h, prelude)
		}
	}

	for _, s := range []string{"parsed header", "generated bindings"} {
		if !strings.Contains(logs.String(), s) {
			t.Errorf("log lacks %q:\n%s", s, logs.String())
		}
	}
}

func TestRunRootsFollowIncludes(t *testing.T) {
	out := t.TempDir()
	_, err := driver.Run(driver.Options{
		Headers: "testdata/headers",
		Out:     out,
		Roots:   []string{"SDL3/SDL_rect.h"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{
		"ctypes_other.go",
		"ctypes_windows.go",
		"sdl.go",
		"sdl_rect.go",
		"sdl_stdinc.go",
		"sdl_stdinc_cfg1.go",
		"sdl_stdinc_cfg2.go",
	}
	if diff := cmp.Diff(want, listDir(t, out)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWithErrorsWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	res, err := driver.Run(driver.Options{Headers: "testdata/broken", Out: out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if n := res.Diagnostics.ErrorCount(); n != 2 {
		t.Errorf("got %d errors, want 2: %v", n, res.Diagnostics.All())
	}
	if len(res.Written) != 0 {
		t.Errorf("wrote %v", res.Written)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output directory was created: %v", err)
	}
}

func TestRunMissingHeaders(t *testing.T) {
	_, err := driver.Run(driver.Options{Headers: "testdata/missing", Out: t.TempDir()})

	var derr *driver.Error
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want a *driver.Error", err)
	}
	if derr.Kind != driver.KindIO {
		t.Errorf("kind = %v, want %v", derr.Kind, driver.KindIO)
	}
}

func TestRunMissingRoot(t *testing.T) {
	_, err := driver.Run(driver.Options{
		Headers: "testdata/headers",
		Out:     t.TempDir(),
		Roots:   []string{"SDL3/SDL_nothing.h"},
	})

	var derr *driver.Error
	if !errors.As(err, &derr) || derr.Kind != driver.KindIO {
		t.Fatalf("err = %v, want an i/o error", err)
	}
}
