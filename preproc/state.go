// Package preproc holds the preprocessor state threaded through parsing:
// the macro table, the target macro map and the stack of enclosing #if
// conditions. Macros are global across headers.
package preproc

import (
	"path"
	"sort"
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/config"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/value"
)

// Reparser parses the raw body of a function-like macro on demand.
type Reparser func(d *ast.Define) (ast.DefineValue, error)

// State is the preprocessor state. It implements eval.Env for guard
// evaluation; symbols, types and fields are left to the generator.
type State struct {
	// Strict turns differing redefinitions into errors.
	Strict bool

	macros    map[string][]eval.Binding
	order     []string
	targets   map[string]string
	undefined map[string]bool
	overrides map[string]string
	headers   map[string]bool
	conds     []value.DefineState

	reparse Reparser
	cache   map[*ast.Define]reparsed
}

type reparsed struct {
	dv  ast.DefineValue
	err error
}

// New returns an empty state configured from cfg.
func New(cfg *config.Config) *State {
	s := State{
		macros:    make(map[string][]eval.Binding),
		targets:   make(map[string]string),
		undefined: make(map[string]bool),
		overrides: make(map[string]string),
		headers:   make(map[string]bool),
		cache:     make(map[*ast.Define]reparsed),
	}
	if cfg != nil {
		for k, v := range cfg.Targets {
			s.targets[k] = v
		}
		for _, name := range cfg.Undefined {
			s.undefined[name] = true
		}
		for k, v := range cfg.Overrides {
			s.overrides[k] = v
		}
	}
	return &s
}

// SetReparser installs the function used to parse function-like macro
// bodies lazily.
func (s *State) SetReparser(r Reparser) {
	s.reparse = r
}

// AddHeader records a header as available to __has_include.
func (s *State) AddHeader(name string) {
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))
	s.headers[name] = true
	s.headers[path.Base(name)] = true
}

// Constraint returns the Go build constraint for a target macro.
func (s *State) Constraint(name string) (string, bool) {
	c, ok := s.targets[name]
	return c, ok
}

// Push enters an #if arm whose local condition is c.
func (s *State) Push(c value.DefineState) {
	s.conds = append(s.conds, c)
}

// Pop leaves the innermost arm.
func (s *State) Pop() {
	if len(s.conds) > 0 {
		s.conds = s.conds[:len(s.conds)-1]
	}
}

// Depth returns the number of enclosing target arms.
func (s *State) Depth() int {
	return len(s.conds)
}

// Cond returns the conjunction of every enclosing arm condition.
func (s *State) Cond() value.DefineState {
	return value.And(s.conds...)
}

// Define records d under the current condition. An identical redefinition
// is ignored. A differing redefinition of an unconditional macro replaces it
// and is reported as a warning, or as an error when Strict is set.
func (s *State) Define(d *ast.Define) *diag.Diagnostic {
	name := d.Name.Name
	cond := s.Cond()
	bindings := s.macros[name]

	if len(bindings) == 0 {
		s.order = append(s.order, name)
		s.macros[name] = []eval.Binding{{Define: d, Cond: cond}}
		return nil
	}

	var report *diag.Diagnostic
	var kept []eval.Binding
	merged := false
	for _, b := range bindings {
		switch {
		case sameDefine(b.Define, d):
			b.Cond = value.Or(b.Cond, cond)
			merged = true
		case cond.IsTrue() && b.Cond.IsTrue():
			report = s.redefined(d, b.Define)
			continue
		default:
			b.Cond = value.And(b.Cond, value.Not(cond))
		}
		if !b.Cond.IsFalse() {
			kept = append(kept, b)
		}
	}
	if !merged {
		kept = append(kept, eval.Binding{Define: d, Cond: cond})
	}
	s.macros[name] = kept
	return report
}

func (s *State) redefined(d, prev *ast.Define) *diag.Diagnostic {
	var report *diag.Diagnostic
	if s.Strict {
		report = diag.Errorf(diag.StagePreproc, d.Name.At, "macro %s redefined", d.Name.Name)
	} else {
		report = diag.Warnf(diag.StagePreproc, d.Name.At, "macro %s redefined", d.Name.Name)
	}
	return report.WithNote("previous definition at %s", prev.Name.At.Pos())
}

// sameDefine compares replacement lists the way C does, ignoring
// differences in whitespace.
func sameDefine(a, b *ast.Define) bool {
	if a.FuncLike != b.FuncLike || a.Variadic != b.Variadic || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Name != b.Params[i].Name {
			return false
		}
	}
	return strings.Join(strings.Fields(a.Body.TrimWSC().Text()), " ") ==
		strings.Join(strings.Fields(b.Body.TrimWSC().Text()), " ")
}

// Undefine removes name under the current condition. Undefining an unknown
// name is a no-op.
func (s *State) Undefine(name string) {
	bindings, ok := s.macros[name]
	if !ok {
		return
	}
	cond := s.Cond()
	var kept []eval.Binding
	for _, b := range bindings {
		b.Cond = value.And(b.Cond, value.Not(cond))
		if !b.Cond.IsFalse() {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		delete(s.macros, name)
		return
	}
	s.macros[name] = kept
}

// Lookup returns the definition of name when it does not depend on the
// target.
func (s *State) Lookup(name string) (*ast.Define, bool) {
	bindings := s.macros[name]
	if len(bindings) != 1 || !bindings[0].Cond.IsTrue() {
		return nil, false
	}
	return bindings[0].Define, true
}

// Names returns every macro ever defined, in definition order.
func (s *State) Names() []string {
	return s.order
}

// TargetNames returns the target macros in sorted order.
func (s *State) TargetNames() []string {
	names := make([]string, 0, len(s.targets))
	for name := range s.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Macros returns the bindings of name.
func (s *State) Macros(name string) []eval.Binding {
	return s.macros[name]
}

// IsTargetDefine reports whether name is only known on the target.
func (s *State) IsTargetDefine(name string) bool {
	_, ok := s.targets[name]
	return ok
}

// IsKnownUndefined reports whether name is configured as absent.
func (s *State) IsKnownUndefined(name string) bool {
	return s.undefined[name]
}

// HasInclude reports whether the header is part of the input set.
func (s *State) HasInclude(name string, system bool) bool {
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))
	return s.headers[name]
}

// Override returns the configured Go code for name.
func (s *State) Override(name string) (string, bool) {
	code, ok := s.overrides[name]
	return code, ok
}

// Symbol is not known to the preprocessor.
func (s *State) Symbol(name string) (value.Value, bool) {
	return value.Value{}, false
}

// Type is not known to the preprocessor.
func (s *State) Type(t ast.Type) (eval.TypeInfo, bool) {
	return eval.TypeInfo{}, false
}

// Field is not known to the preprocessor.
func (s *State) Field(t ast.Type, name string) (string, bool) {
	return "", false
}

// Reparse parses a function-like macro body once and caches the result.
func (s *State) Reparse(d *ast.Define) (ast.DefineValue, error) {
	if !d.FuncLike {
		return d.Value, nil
	}
	if r, ok := s.cache[d]; ok {
		return r.dv, r.err
	}
	if s.reparse == nil {
		return ast.DefineValue{Kind: ast.DefineOther, Raw: d.Body}, nil
	}
	dv, err := s.reparse(d)
	s.cache[d] = reparsed{dv: dv, err: err}
	return dv, err
}
