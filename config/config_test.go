package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaults(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Targets["_WIN32"]; got != "windows" {
		t.Errorf("_WIN32 = %q", got)
	}
	if !cfg.SkipSet()["SDLCALL"] {
		t.Error("SDLCALL missing from skip list")
	}
	if err := cfg.validate(); err != nil {
		t.Error(err)
	}
}

func TestLoadMerges(t *testing.T) {
	dir := t.TempDir()
	targets := filepath.Join(dir, "targets.yaml")
	skip := filepath.Join(dir, "skip.yaml")

	writeFile(t, targets, "targets:\n  _WIN32: windows && amd64\n  __VITA__: vita\noverrides:\n  SDL_BYTEORDER: \"1234\"\n")
	writeFile(t, skip, "skip:\n  - MY_API\n  - SDLCALL\n")

	cfg, err := Load(targets, "", skip)
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]string{
		"_WIN32":    cfg.Targets["_WIN32"],
		"__VITA__":  cfg.Targets["__VITA__"],
		"__linux__": cfg.Targets["__linux__"],
	}
	want := map[string]string{
		"_WIN32":    "windows && amd64",
		"__VITA__":  "vita",
		"__linux__": "linux || android",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}

	if cfg.Overrides["SDL_BYTEORDER"] != "1234" {
		t.Errorf("overrides = %v", cfg.Overrides)
	}

	count := 0
	for _, s := range cfg.Skip {
		if s == "SDLCALL" {
			count++
		}
	}
	if count != 1 || !cfg.SkipSet()["MY_API"] {
		t.Errorf("skip list not merged: SDLCALL x%d, MY_API=%v", count, cfg.SkipSet()["MY_API"])
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "targetz:\n  X: y\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestLoadRejectsConflicts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conflict.yaml")
	writeFile(t, path, "undefined:\n  - _WIN32\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a macro that is both target and undefined")
	}
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
}
