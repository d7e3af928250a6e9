package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardanlabs/sdlgen/generator"
)

func dirContents(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]string)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		out[e.Name()] = string(data)
	}
	return out
}

func TestCommitReplacesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("old a"), 0644); err != nil {
		t.Fatal(err)
	}

	written, err := commit(dir, []generator.File{
		{Name: "a.go", Source: []byte("new a")},
		{Name: "b.go", Source: []byte("new b")},
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(written)
	if diff := cmp.Diff([]string{filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go")}, written); diff != "" {
		t.Errorf("written mismatch (-want +got):\n%s", diff)
	}

	want := map[string]string{"a.go": "new a", "b.go": "new b"}
	if diff := cmp.Diff(want, dirContents(t, dir)); diff != "" {
		t.Errorf("directory mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitRestoresOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	for name, text := range map[string]string{"a.go": "old a", "c.go": "old c"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}

	failing := errors.New("disk full")
	defer func(r func(string, string) error) { rename = r }(rename)
	rename = func(from, to string) error {
		if filepath.Base(to) == "c.go" {
			return failing
		}
		return os.Rename(from, to)
	}

	_, err := commit(dir, []generator.File{
		{Name: "a.go", Source: []byte("new a")},
		{Name: "b.go", Source: []byte("new b")},
		{Name: "c.go", Source: []byte("new c")},
	})

	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindIO || !errors.Is(err, failing) {
		t.Fatalf("err = %v, want the rename failure", err)
	}
	if !strings.HasSuffix(derr.Path, "c.go") {
		t.Errorf("path = %s", derr.Path)
	}

	want := map[string]string{"a.go": "old a", "c.go": "old c"}
	if diff := cmp.Diff(want, dirContents(t, dir)); diff != "" {
		t.Errorf("directory mismatch (-want +got):\n%s", diff)
	}
}
