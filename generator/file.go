package generator

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/format"
	goparser "go/parser"
	"go/token"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// knownImports maps the package names emitted code may refer to onto their
// import paths.
var knownImports = map[string]string{
	"fmt":      "fmt",
	"filepath": "path/filepath",
	"runtime":  "runtime",
	"structs":  "structs",
	"syscall":  "syscall",
	"unsafe":   "unsafe",
	"purego":   "github.com/ebitengine/purego",
}

// reservedSuffixes end file names the go tool treats specially.
var reservedSuffixes = map[string]bool{
	"test": true,

	"aix": true, "android": true, "darwin": true, "dragonfly": true,
	"freebsd": true, "hurd": true, "illumos": true, "ios": true, "js": true,
	"linux": true, "nacl": true, "netbsd": true, "openbsd": true,
	"plan9": true, "solaris": true, "wasip1": true, "windows": true, "zos": true,

	"386": true, "amd64": true, "arm": true, "arm64": true, "loong64": true,
	"mips": true, "mipsle": true, "mips64": true, "mips64le": true,
	"ppc64": true, "ppc64le": true, "riscv64": true, "s390x": true, "wasm": true,
}

// output is one Go file under construction.
type output struct {
	name       string
	header     string
	constraint string
	fileDoc    *ast.DocComment
	pkgDoc     string
	body       bytes.Buffer
	bindings   []string
}

func newOutput(name, header, constraint string) *output {
	return &output{name: name, header: header, constraint: constraint}
}

func (o *output) printf(format string, args ...any) {
	fmt.Fprintf(&o.body, format, args...)
}

func (o *output) doc(d *ast.DocComment, indent string) {
	writeDoc(&o.body, d, indent)
}

func writeDoc(w io.Writer, d *ast.DocComment, indent string) {
	if d == nil || d.Text == "" {
		return
	}
	for _, line := range strings.Split(d.Text, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			fmt.Fprintf(w, "%s//\n", indent)
			continue
		}
		fmt.Fprintf(w, "%s// %s\n", indent, line)
	}
}

func (o *output) bind(format string, args ...any) {
	o.bindings = append(o.bindings, fmt.Sprintf(format, args...))
}

func (o *output) empty() bool {
	return o.body.Len() == 0 && len(o.bindings) == 0
}

// unit is the set of outputs for one header: the primary file and one
// companion per distinct build constraint, in order of first use.
type unit struct {
	file       *ast.File
	stem       string
	primary    *output
	companions []*output
	byLine     map[string]*output
}

func (g *Generator) newUnit(f *ast.File) *unit {
	stem := g.stem(f.Name)
	u := unit{
		file:    f,
		stem:    stem,
		primary: newOutput(stem+".go", f.Name, ""),
		byLine:  make(map[string]*output),
	}
	u.primary.fileDoc = f.Doc
	return &u
}

func (u *unit) outputs() []*output {
	return append([]*output{u.primary}, u.companions...)
}

// output returns the file that declarations under cond go to, or nil when
// the condition never holds or cannot be expressed.
func (g *Generator) output(u *unit, cond value.DefineState, at span.Span) *output {
	switch {
	case cond.IsTrue():
		return u.primary
	case cond.IsFalse():
		return nil
	}
	line, err := g.buildLine(cond, at)
	if err != nil {
		g.sink.Add(diag.StageEmit, err)
		return nil
	}
	if o, ok := u.byLine[line]; ok {
		return o
	}
	name := fmt.Sprintf("%s_cfg%d.go", u.stem, len(u.companions)+1)
	o := newOutput(name, u.file.Name, line)
	u.companions = append(u.companions, o)
	u.byLine[line] = o
	return o
}

// stem derives a file name stem from a header path, avoiding names the go
// tool reads as build constraints or tests and names already used.
func (g *Generator) stem(header string) string {
	base := path.Base(strings.ReplaceAll(header, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	s := strcase.ToSnake(base)
	if s == "" {
		s = "header"
	}
	if reservedSuffixes[s[strings.LastIndexByte(s, '_')+1:]] {
		s += "_h"
	}
	for g.files[s+".go"] {
		s += "_h"
	}
	g.files[s+".go"] = true
	return s
}

// render assembles and formats one output file. Imports are derived from
// the package selectors the body uses.
func (g *Generator) render(o *output) (File, error) {
	var head bytes.Buffer
	if o.header != "" {
		fmt.Fprintf(&head, "// Code generated by sdlgen from %s. DO NOT EDIT.\n\n", path.Base(o.header))
	} else {
		head.WriteString("// Code generated by sdlgen. DO NOT EDIT.\n\n")
	}
	if o.constraint != "" {
		fmt.Fprintf(&head, "%s\n\n", o.constraint)
	}
	if o.fileDoc != nil {
		writeDoc(&head, o.fileDoc, "")
		head.WriteString("\n")
	}
	head.WriteString(o.pkgDoc)
	fmt.Fprintf(&head, "package %s\n\n", g.opts.Package)

	body := o.body.Bytes()
	if len(o.bindings) > 0 {
		var b bytes.Buffer
		b.Write(body)
		b.WriteString("func init() {\n\tbindings = append(bindings,\n")
		for _, line := range o.bindings {
			fmt.Fprintf(&b, "\t\t%s,\n", line)
		}
		b.WriteString("\t)\n}\n")
		body = b.Bytes()
	}

	imports, err := usedImports(o.name, head.Bytes(), body)
	if err != nil {
		return File{}, err
	}

	var src bytes.Buffer
	src.Write(head.Bytes())
	writeImports(&src, imports)
	src.Write(body)

	formatted, err := format.Source(src.Bytes())
	if err != nil {
		return File{}, fmt.Errorf("formatting %s: %w", o.name, err)
	}
	return File{Name: o.name, Source: formatted}, nil
}

// usedImports parses the assembled file and collects the import paths of
// the package selectors it refers to.
func usedImports(name string, head, body []byte) ([]string, error) {
	src := append(append([]byte{}, head...), body...)
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, name, src, goparser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing generated %s: %w", name, err)
	}

	seen := make(map[string]bool)
	goast.Inspect(f, func(n goast.Node) bool {
		sel, ok := n.(*goast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*goast.Ident); ok {
			if p, ok := knownImports[id.Name]; ok {
				seen[p] = true
			}
		}
		return true
	})

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func writeImports(w *bytes.Buffer, paths []string) {
	if len(paths) == 0 {
		return
	}
	var std, third []string
	for _, p := range paths {
		if strings.Contains(p, ".") {
			third = append(third, p)
			continue
		}
		std = append(std, p)
	}

	w.WriteString("import (\n")
	for _, p := range std {
		fmt.Fprintf(w, "\t%q\n", p)
	}
	if len(std) > 0 && len(third) > 0 {
		w.WriteString("\n")
	}
	for _, p := range third {
		fmt.Fprintf(w, "\t%q\n", p)
	}
	w.WriteString(")\n\n")
}
