// Package driver runs the whole pipeline: it finds the headers, parses them
// in include order, generates the bindings and writes them out only when no
// error was reported.
package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/config"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/generator"
	"github.com/ardanlabs/sdlgen/parser"
	"github.com/ardanlabs/sdlgen/preproc"
	"github.com/ardanlabs/sdlgen/span"
)

// Kind classifies the failures that stop a run.
type Kind int

const (
	KindIO Kind = iota + 1
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "i/o"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Error is a failure that stops the run before anything is written.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options describe one run.
type Options struct {
	// Headers is the directory the headers are read from.
	Headers string

	// Out is the directory the Go files are written to.
	Out string

	// Roots are the headers to bind, relative to Headers. Every header
	// under Headers is bound when Roots is empty.
	Roots []string

	// Include lists more directories searched by #include. Headers found
	// there are parsed for their macros but not bound.
	Include []string

	Config  *config.Config
	Package string
	Library string

	// Strict turns differing macro redefinitions into errors.
	Strict bool

	Log *slog.Logger
}

// Result reports what a run produced.
type Result struct {
	Diagnostics *diag.Sink
	Written     []string
}

// Run generates the bindings. A run that records any error diagnostic
// leaves the output directory untouched; the diagnostics are in the result.
func Run(opts Options) (Result, error) {
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	if opts.Config == nil {
		cfg, err := config.Default()
		if err != nil {
			return Result{}, &Error{Kind: KindInternal, Err: err}
		}
		opts.Config = cfg
	}

	r := runner{
		opts:    opts,
		sink:    new(diag.Sink),
		visited: make(map[string]bool),
	}
	r.state = preproc.New(opts.Config)
	r.state.Strict = opts.Strict
	r.parser = parser.New(r.state, r.sink, opts.Config.SkipSet())
	r.parser.OnInclude(r.include)

	res := Result{Diagnostics: r.sink}
	if err := r.parse(); err != nil {
		return res, err
	}

	gen := generator.New(generator.Options{
		Package: opts.Package,
		Library: opts.Library,
		Skip:    opts.Config.SkipSet(),
	}, r.state, r.sink)
	files, err := gen.Generate(r.bound)
	if err != nil {
		return res, &Error{Kind: KindInternal, Err: err}
	}

	if n := r.sink.ErrorCount(); n > 0 {
		opts.Log.Info("nothing written", "errors", n, "warnings", r.sink.WarningCount())
		return res, nil
	}

	written, err := commit(opts.Out, files)
	if err != nil {
		return res, err
	}
	for _, name := range written {
		opts.Log.Debug("wrote file", "path", name)
	}
	res.Written = written
	opts.Log.Info("generated bindings", "headers", len(r.bound), "files", len(written), "warnings", r.sink.WarningCount())
	return res, nil
}

// runner holds the state of one run.
type runner struct {
	opts   Options
	sink   *diag.Sink
	state  *preproc.State
	parser *parser.Parser

	visited map[string]bool
	dirs    []string
	bound   []*ast.File
	ioErr   error
}

// parse reads the predefined macros, then every root header. Included
// headers are parsed depth-first as their #include is reached, so each file
// sees the macros of everything it includes.
func (r *runner) parse() error {
	all, err := listHeaders(r.opts.Headers)
	if err != nil {
		return &Error{Kind: KindIO, Path: r.opts.Headers, Err: err}
	}
	for _, h := range all {
		r.state.AddHeader(h)
	}

	if text := predefined(r.opts.Config.Defines); text != "" {
		r.parser.ParseFile("<predefined>", text)
	}

	roots := r.opts.Roots
	if len(roots) == 0 {
		roots = all
	}
	for _, root := range roots {
		path := filepath.Join(r.opts.Headers, filepath.FromSlash(root))
		if _, err := os.Stat(path); err != nil {
			return &Error{Kind: KindIO, Path: path, Err: err}
		}
		r.parseFile(path, filepath.ToSlash(root), true)
		if r.ioErr != nil {
			return r.ioErr
		}
	}
	return nil
}

func (r *runner) parseFile(path, name string, bound bool) {
	key := filepath.Clean(path)
	if r.visited[key] || r.ioErr != nil {
		return
	}
	r.visited[key] = true

	data, err := os.ReadFile(path)
	if err != nil {
		r.ioErr = &Error{Kind: KindIO, Path: path, Err: err}
		return
	}

	r.dirs = append(r.dirs, filepath.Dir(path))
	f := r.parser.ParseFile(name, string(data))
	r.dirs = r.dirs[:len(r.dirs)-1]

	r.opts.Log.Debug("parsed header", "header", name, "items", len(f.Items))
	if bound {
		r.bound = append(r.bound, f)
	}
}

// include resolves an #include against the including file's directory,
// the header directory and the include path, in that order.
func (r *runner) include(name string, system bool, at span.Span) {
	var candidates []string
	if !system && len(r.dirs) > 0 {
		candidates = append(candidates, r.dirs[len(r.dirs)-1])
	}
	candidates = append(candidates, r.opts.Headers)
	candidates = append(candidates, r.opts.Include...)

	for _, dir := range candidates {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		rel, bound := r.logicalName(path)
		r.parseFile(path, rel, bound)
		return
	}

	if system {
		r.opts.Log.Debug("system header not found", "header", name)
		return
	}
	r.sink.Warnf(diag.StageIO, at, "header %q not found", name)
}

// logicalName returns the name a header is known by and whether it lies
// under the header directory and is therefore bound.
func (r *runner) logicalName(path string) (string, bool) {
	rel, err := filepath.Rel(r.opts.Headers, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path), false
	}
	return filepath.ToSlash(rel), true
}

// listHeaders returns every .h file under dir, relative to it and sorted.
func listHeaders(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".h" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func predefined(defines map[string]string) string {
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "#define %s %s\n", name, defines[name])
	}
	return b.String()
}

// commit writes every file to a temporary name first and renames them all
// once every write succeeded. Files it replaces are kept aside until the
// last rename, so a failed rename puts the previous output back.
func commit(dir string, files []generator.File) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &Error{Kind: KindIO, Path: dir, Err: err}
	}

	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, t := range temps {
			os.Remove(t)
		}
	}

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, ".sdlgen-*")
		if err != nil {
			cleanup()
			return nil, &Error{Kind: KindIO, Path: dir, Err: err}
		}
		temps = append(temps, tmp.Name())

		_, werr := tmp.Write(f.Source)
		cerr := tmp.Close()
		if err := errors.Join(werr, cerr, os.Chmod(tmp.Name(), 0644)); err != nil {
			cleanup()
			return nil, &Error{Kind: KindIO, Path: tmp.Name(), Err: err}
		}
	}

	var moves []move
	rollback := func() {
		for i := len(moves) - 1; i >= 0; i-- {
			moves[i].undo()
		}
		cleanup()
	}

	written := make([]string, 0, len(files))
	for i, f := range files {
		m := move{tmp: temps[i], path: filepath.Join(dir, f.Name)}
		if err := m.do(); err != nil {
			rollback()
			return nil, &Error{Kind: KindIO, Path: m.path, Err: err}
		}
		moves = append(moves, m)
		written = append(written, m.path)
	}

	for _, m := range moves {
		if m.backup != "" {
			os.Remove(m.backup)
		}
	}
	return written, nil
}

// rename is os.Rename, replaced in tests to make a rename fail.
var rename = os.Rename

// move puts one temporary file in place.
type move struct {
	tmp    string
	path   string
	backup string
}

func (m *move) do() error {
	if _, err := os.Lstat(m.path); err == nil {
		backup := m.tmp + ".old"
		if err := rename(m.path, backup); err != nil {
			return err
		}
		m.backup = backup
	}
	if err := rename(m.tmp, m.path); err != nil {
		if m.backup != "" {
			os.Rename(m.backup, m.path)
			m.backup = ""
		}
		return err
	}
	return nil
}

func (m *move) undo() {
	os.Remove(m.path)
	if m.backup != "" {
		os.Rename(m.backup, m.path)
	}
}
