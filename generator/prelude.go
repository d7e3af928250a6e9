package generator

import (
	"bytes"
	"fmt"
	"path"
	"text/template"
)

var preludeTemplates = template.Must(template.New("prelude").Parse(`
{{define "doc"}}// Package {{.Package}} binds the {{.Library}} shared library through purego.
//
// Load the library with Load, or open it yourself and pass the handle to
// Register. Every function variable stays nil until then.
//
// The bindings were generated from:
{{range .Headers}}//   - {{.}}
{{end}}{{end}}

{{define "prelude"}}
// cInteger is the set of types the generic macro functions accept.
type cInteger interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// binding is one library symbol. fn points at a function variable for
// purego to fill in; addr receives the address of a global variable.
type binding struct {
	name string
	fn   any
	addr *unsafe.Pointer
}

var bindings []binding

// Load opens the {{.Library}} library found in dir and registers every
// binding.
func Load(dir string) error {
	lib, err := open(LibraryPath(dir))
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	if err := Register(lib); err != nil {
		return err
	}

	return nil
}

// Register resolves every binding in an already opened library.
func Register(lib uintptr) error {
	for _, b := range bindings {
		sym, err := lookup(lib, b.name)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", b.name, err)
		}
		if b.addr != nil {
			*b.addr = *(*unsafe.Pointer)(unsafe.Pointer(&sym))
			continue
		}
		purego.RegisterFunc(b.fn, sym)
	}
	return nil
}

// LibraryPath returns the path of the {{.Library}} library in dir for the
// running platform.
func LibraryPath(dir string) string {
	var filename string
	switch runtime.GOOS {
	case "darwin", "ios":
		filename = "lib{{.Library}}.dylib"
	case "windows":
		filename = "{{.Library}}.dll"
	default:
		filename = "lib{{.Library}}.so"
	}
	return filepath.Join(dir, filename)
}
{{end}}

{{define "windows"}}
// C long is 32 bits on Windows, and wchar_t holds UTF-16.
type (
	CLong  = int32
	CULong = uint32
	CWchar = uint16
)

func open(path string) (uintptr, error) {
	h, err := syscall.LoadLibrary(path)
	return uintptr(h), err
}

func lookup(lib uintptr, name string) (uintptr, error) {
	return syscall.GetProcAddress(syscall.Handle(lib), name)
}
{{end}}

{{define "other"}}
type (
	CLong  = int
	CULong = uint
	CWchar = int32
)

func open(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func lookup(lib uintptr, name string) (uintptr, error) {
	return purego.Dlsym(lib, name)
}
{{end}}
`))

// preludeNames are the exported names the prelude declares.
var preludeNames = []string{"Load", "Register", "LibraryPath", "CLong", "CULong", "CWchar"}

func preludeFiles(pkg string) []string {
	main := pkg
	if reservedSuffixes[main] {
		main += "_pkg"
	}
	return []string{main + ".go", "ctypes_windows.go", "ctypes_other.go"}
}

type preludeData struct {
	Package string
	Library string
	Headers []string
}

// Prelude renders the package files every binding depends on: the
// registration code, the platform C types and the handle types for
// structs no header defines.
func (g *Generator) Prelude() ([]File, error) {
	data := preludeData{Package: g.opts.Package, Library: g.opts.Library}
	for _, h := range g.headers {
		data.Headers = append(data.Headers, path.Base(h))
	}
	names := preludeFiles(g.opts.Package)

	main := newOutput(names[0], "", "")
	var doc bytes.Buffer
	if err := preludeTemplates.ExecuteTemplate(&doc, "doc", data); err != nil {
		return nil, fmt.Errorf("executing doc template: %w", err)
	}
	main.pkgDoc = doc.String()
	if err := preludeTemplates.ExecuteTemplate(&main.body, "prelude", data); err != nil {
		return nil, fmt.Errorf("executing prelude template: %w", err)
	}
	g.leftoverTags(main)

	windows := newOutput(names[1], "", "//go:build windows")
	if err := preludeTemplates.ExecuteTemplate(&windows.body, "windows", data); err != nil {
		return nil, fmt.Errorf("executing windows template: %w", err)
	}
	other := newOutput(names[2], "", "//go:build !windows")
	if err := preludeTemplates.ExecuteTemplate(&other.body, "other", data); err != nil {
		return nil, fmt.Errorf("executing other template: %w", err)
	}

	var files []File
	for _, o := range []*output{main, windows, other} {
		f, err := g.render(o)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// leftoverTags declares the structs, unions and enums that were only ever
// referred to, never defined.
func (g *Generator) leftoverTags(o *output) {
	first := true
	for _, s := range g.syms.tagOrder {
		if s.emitted {
			continue
		}
		switch {
		case s.kind == symEnum && s.enum == nil:
		case s.kind != symEnum && s.record == nil:
		default:
			continue
		}
		if first {
			o.printf("\n// Types that the headers declare but never define.\n\n")
			first = false
		}
		s.emitted = true
		o.doc(s.doc, "")
		if s.kind == symEnum {
			o.printf("type %s int32\n\n", s.goName)
			continue
		}
		writeOpaque(o, s.goName)
	}
}
