// Package eval folds C expressions into values. The same evaluator serves
// #if guards, where unresolved names are errors, and emission, where an
// expression that cannot be folded is simply left alone.
package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/span"
	"github.com/ardanlabs/sdlgen/value"
)

// Binding is one definition of a macro and the target condition under which
// it is in effect.
type Binding struct {
	Define *ast.Define
	Cond   value.DefineState
}

// TypeInfo describes how a C type is spelled in Go. Kind is set for integer
// and float types; Bits is set for integers narrower than 32 bits.
type TypeInfo struct {
	Go   string
	Kind value.Kind
	Bits int
}

// Env is what the evaluator needs to know about the world. The
// preprocessor answers the macro questions; the generator adds symbols and
// types.
type Env interface {
	Macros(name string) []Binding
	IsTargetDefine(name string) bool
	IsKnownUndefined(name string) bool
	HasInclude(path string, system bool) bool
	Override(name string) (string, bool)
	Symbol(name string) (value.Value, bool)
	Type(t ast.Type) (TypeInfo, bool)
	Field(t ast.Type, name string) (string, bool)
	Reparse(d *ast.Define) (ast.DefineValue, error)
}

// Evaluator folds expressions against an Env.
type Evaluator struct {
	env    Env
	guard  bool
	active map[string]bool
}

// New returns an evaluator for emission.
func New(env Env) *Evaluator {
	return &Evaluator{env: env, active: make(map[string]bool)}
}

// NewGuard returns an evaluator for #if and #elif expressions.
func NewGuard(env Env) *Evaluator {
	return &Evaluator{env: env, guard: true, active: make(map[string]bool)}
}

var none = value.Value{}

// Eval folds x. The boolean is false when x is valid but cannot be folded.
func (e *Evaluator) Eval(x ast.Expr) (value.Value, bool, error) {
	switch n := x.(type) {
	case *ast.Literal:
		return n.Value, true, nil
	case *ast.ValueExpr:
		return n.Value, true, nil
	case *ast.Paren:
		return e.Eval(n.X)
	case *ast.IdentExpr:
		return e.ident(n)
	case *ast.Defined:
		return e.defined(n.Name.Name), true, nil
	case *ast.HasInclude:
		return flag(e.env.HasInclude(n.Path, n.System)), true, nil
	case *ast.Unary:
		return e.unary(n)
	case *ast.Binary:
		return e.binary(n)
	case *ast.Ternary:
		return e.ternary(n)
	case *ast.Call:
		return e.call(n)
	case *ast.Cast:
		return e.cast(n)
	case *ast.SizeOf:
		return e.sizeOf(n)
	case *ast.Ambiguous:
		return e.ambiguous(n)
	}
	if e.guard {
		return none, false, diag.Errorf(diag.StagePreproc, x.Span(), "expression is not allowed in a preprocessor condition")
	}
	return none, false, nil
}

// Truth folds x to a define state, as #if does.
func (e *Evaluator) Truth(x ast.Expr) (value.DefineState, error) {
	s, ok, err := e.truth(x)
	if err != nil {
		return value.DefineState{}, err
	}
	if !ok {
		return value.DefineState{}, diag.Errorf(diag.StagePreproc, x.Span(), "cannot evaluate condition")
	}
	return s, nil
}

// Define folds the value of an object-like macro.
func (e *Evaluator) Define(d *ast.Define) (value.Value, bool, error) {
	return e.macroValue(d, d.Name.At)
}

func flag(b bool) value.Value {
	return value.FromState(value.FromBool(b))
}

// wrap turns a value package error into a diagnostic at the operator.
func wrap(at span.Span, err error) error {
	var d *diag.Diagnostic
	if errors.As(err, &d) {
		return err
	}
	return diag.Wrap(diag.StageEval, at, err)
}

func (e *Evaluator) ident(n *ast.IdentExpr) (value.Value, bool, error) {
	if code, ok := e.env.Override(n.Name); ok {
		return value.VerbatimOf(code, ""), true, nil
	}

	if bindings := e.env.Macros(n.Name); len(bindings) > 0 {
		if len(bindings) == 1 && bindings[0].Cond.IsTrue() {
			return e.macroValue(bindings[0].Define, n.At)
		}
		alts, ok, err := e.alts(n)
		if err != nil || !ok {
			return none, ok, err
		}
		return e.collapse(alts, n.At)
	}

	if v, ok := e.env.Symbol(n.Name); ok {
		return v, true, nil
	}

	if !e.guard {
		return none, false, nil
	}
	switch {
	case e.env.IsKnownUndefined(n.Name):
		return value.Uint64(value.U31, 0), true, nil
	case e.env.IsTargetDefine(n.Name):
		return none, false, diag.Wrap(diag.StagePreproc, n.At, fmt.Errorf("target macro %s: %w", n.Name, value.ErrTargetDependent))
	}
	return none, false, diag.Errorf(diag.StagePreproc, n.At, "undefined identifier %s in preprocessor condition", n.Name).
		WithNote("list it under 'undefined' or 'targets' in the target map")
}

func (e *Evaluator) macroValue(d *ast.Define, at span.Span) (value.Value, bool, error) {
	name := d.Name.Name
	if d.FuncLike || e.active[name] {
		return none, false, nil
	}
	if code, ok := e.env.Override(name); ok {
		return value.VerbatimOf(code, ""), true, nil
	}

	e.active[name] = true
	defer delete(e.active, name)

	switch d.Value.Kind {
	case ast.DefineExpr, ast.DefineAmbiguous:
		return e.Eval(d.Value.Expr)
	case ast.DefineVerbatim:
		return value.VerbatimOf(d.Value.Code, ""), true, nil
	case ast.DefineTarget:
		return value.FromState(d.Value.Cond), true, nil
	case ast.DefineEmpty:
		if e.guard {
			return none, false, diag.Errorf(diag.StagePreproc, at, "macro %s expands to nothing", name)
		}
	}
	return none, false, nil
}

func (e *Evaluator) defined(name string) value.Value {
	var conds []value.DefineState
	if e.env.IsTargetDefine(name) {
		conds = append(conds, value.Defined(name))
	}
	for _, b := range e.env.Macros(name) {
		conds = append(conds, b.Cond)
	}
	return value.FromState(value.Or(conds...))
}

// alt is one possible value of an expression and the condition it holds
// under.
type alt struct {
	cond value.DefineState
	v    value.Value
}

// alts evaluates x into its possible values. Only a reference to a macro
// with target-dependent definitions has more than one; in a guard, the
// targets where such a macro is undefined contribute 0.
func (e *Evaluator) alts(x ast.Expr) ([]alt, bool, error) {
	id, ok := stripParens(x).(*ast.IdentExpr)
	if ok {
		if _, over := e.env.Override(id.Name); over {
			ok = false
		}
	}
	var bindings []Binding
	if ok {
		bindings = e.env.Macros(id.Name)
	}
	if len(bindings) == 0 || (len(bindings) == 1 && bindings[0].Cond.IsTrue()) {
		v, ok, err := e.Eval(x)
		if err != nil || !ok {
			return nil, ok, err
		}
		return []alt{{cond: value.True(), v: v}}, true, nil
	}

	var out []alt
	covered := make([]value.DefineState, 0, len(bindings))
	for _, b := range bindings {
		v, ok, err := e.macroValue(b.Define, id.At)
		if err != nil || !ok {
			return nil, ok, err
		}
		out = append(out, alt{cond: b.Cond, v: v})
		covered = append(covered, b.Cond)
	}
	if rest := value.Not(value.Or(covered...)); !rest.IsFalse() {
		if !e.guard {
			return nil, false, nil
		}
		out = append(out, alt{cond: rest, v: value.Uint64(value.U31, 0)})
	}
	return out, true, nil
}

// collapse merges alternatives back into one value: identical values merge
// outright, truth values merge into a target state.
func (e *Evaluator) collapse(alts []alt, at span.Span) (value.Value, bool, error) {
	if len(alts) == 0 {
		return none, false, nil
	}
	same, truthy := true, true
	for _, a := range alts {
		same = same && value.Same(a.v, alts[0].v)
		truthy = truthy && value.IsTruthLike(a.v)
	}
	if same {
		return alts[0].v, true, nil
	}
	if !truthy {
		d := diag.Wrap(diag.StageEval, at, value.ErrTargetDependent)
		for _, a := range alts {
			d.WithNote("%s when %s", a.v.GoLiteral(), a.cond)
		}
		return none, false, d
	}
	var terms []value.DefineState
	for _, a := range alts {
		t, err := value.Truth(a.v)
		if err != nil {
			return none, false, wrap(at, err)
		}
		terms = append(terms, value.And(a.cond, t))
	}
	return value.FromState(value.Or(terms...)), true, nil
}

func (e *Evaluator) truth(x ast.Expr) (value.DefineState, bool, error) {
	alts, ok, err := e.alts(x)
	if err != nil || !ok {
		return value.DefineState{}, ok, err
	}
	var terms []value.DefineState
	for _, a := range alts {
		t, err := value.Truth(a.v)
		if errors.Is(err, value.ErrUnfoldable) && !e.guard {
			return value.DefineState{}, false, nil
		}
		if err != nil {
			return value.DefineState{}, false, wrap(x.Span(), err)
		}
		terms = append(terms, value.And(a.cond, t))
	}
	return value.Or(terms...), true, nil
}

func (e *Evaluator) unary(n *ast.Unary) (value.Value, bool, error) {
	xs, ok, err := e.alts(n.X)
	if err != nil || !ok {
		return none, ok, err
	}
	out := make([]alt, 0, len(xs))
	for _, x := range xs {
		v, err := value.Unary(n.Op, x.v)
		if err != nil {
			return none, false, e.foldErr(n.OpAt, err)
		}
		out = append(out, alt{cond: x.cond, v: v})
	}
	if len(out) == 1 {
		return out[0].v, true, nil
	}
	return e.collapse(out, n.OpAt)
}

func (e *Evaluator) binary(n *ast.Binary) (value.Value, bool, error) {
	switch n.Op {
	case "&&", "||":
		return e.logical(n)
	case ",":
		if _, _, err := e.Eval(n.X); err != nil {
			return none, false, err
		}
		return e.Eval(n.Y)
	}

	xs, ok, err := e.alts(n.X)
	if err != nil || !ok {
		return none, ok, err
	}
	ys, ok, err := e.alts(n.Y)
	if err != nil || !ok {
		return none, ok, err
	}

	var out []alt
	for _, x := range xs {
		for _, y := range ys {
			cond := value.And(x.cond, y.cond)
			if cond.IsFalse() {
				continue
			}
			v, err := value.Binary(n.Op, x.v, y.v)
			if err != nil {
				return none, false, e.foldErr(n.OpAt, err)
			}
			out = append(out, alt{cond: cond, v: v})
		}
	}
	if len(out) == 1 {
		return out[0].v, true, nil
	}
	return e.collapse(out, n.OpAt)
}

// foldErr reports an arithmetic error. Outside a guard, an operation that is
// merely unfoldable is not an error.
func (e *Evaluator) foldErr(at span.Span, err error) error {
	if errors.Is(err, value.ErrUnfoldable) && !e.guard {
		return nil
	}
	return wrap(at, err)
}

func (e *Evaluator) logical(n *ast.Binary) (value.Value, bool, error) {
	l, ok, err := e.truth(n.X)
	if err != nil || !ok {
		return none, ok, err
	}
	if n.Op == "&&" && l.IsFalse() {
		return flag(false), true, nil
	}
	if n.Op == "||" && l.IsTrue() {
		return flag(true), true, nil
	}
	r, ok, err := e.truth(n.Y)
	if err != nil || !ok {
		return none, ok, err
	}
	if n.Op == "&&" {
		return value.FromState(value.And(l, r)), true, nil
	}
	return value.FromState(value.Or(l, r)), true, nil
}

func (e *Evaluator) ternary(n *ast.Ternary) (value.Value, bool, error) {
	c, ok, err := e.truth(n.Cond)
	if err != nil || !ok {
		return none, ok, err
	}
	switch {
	case c.IsTrue():
		return e.Eval(n.Then)
	case c.IsFalse():
		return e.Eval(n.Else)
	}

	a, ok, err := e.Eval(n.Then)
	if err != nil || !ok {
		return none, ok, err
	}
	b, ok, err := e.Eval(n.Else)
	if err != nil || !ok {
		return none, ok, err
	}
	return e.collapse([]alt{{cond: c, v: a}, {cond: value.Not(c), v: b}}, n.At)
}

func (e *Evaluator) cast(n *ast.Cast) (value.Value, bool, error) {
	v, ok, err := e.Eval(n.X)
	if err != nil || !ok {
		return none, ok, err
	}
	info, ok := e.env.Type(n.Type)
	if !ok {
		if e.guard {
			return none, false, diag.Errorf(diag.StagePreproc, n.At, "cast in preprocessor condition")
		}
		return none, false, nil
	}

	switch {
	case info.Kind.IsInt() && v.Kind.IsInt():
		c, err := value.Convert(v, info.Kind)
		if err != nil {
			return none, false, wrap(n.At, err)
		}
		if info.Bits > 0 && info.Bits < 32 {
			c = narrow(c, info.Bits)
		}
		if info.Go == info.Kind.GoType() {
			return c, true, nil
		}
		return value.VerbatimOf(info.Go+"("+c.GoLiteral()+")", info.Go), true, nil
	case info.Kind.IsFloat() && (v.Kind.IsInt() || v.Kind.IsFloat()):
		f, _ := value.Binary("+", value.Float64(0), v)
		if info.Kind == value.F32 {
			f = value.Float32(float32(f.Float))
		}
		if info.Go == info.Kind.GoType() {
			return f, true, nil
		}
		return value.VerbatimOf(info.Go+"("+f.GoLiteral()+")", info.Go), true, nil
	case info.Kind != value.Invalid && v.Kind == value.Verbatim:
		return value.VerbatimOf(info.Go+"("+v.Code+")", info.Go), true, nil
	}
	return none, false, nil
}

// narrow truncates an integer to a C type narrower than int.
func narrow(v value.Value, bits int) value.Value {
	n := v.Bits & (1<<bits - 1)
	if v.Kind.IsSigned() && n>>(bits-1) == 1 {
		return value.Int64(value.I32, int64(n)-1<<bits)
	}
	return value.Uint64(value.U31, n)
}

func (e *Evaluator) sizeOf(n *ast.SizeOf) (value.Value, bool, error) {
	if e.guard {
		return none, false, diag.Errorf(diag.StagePreproc, n.At, "sizeof in preprocessor condition")
	}
	if n.Type != nil {
		info, ok := e.env.Type(n.Type)
		if !ok {
			return none, false, nil
		}
		return value.VerbatimOf(sizeExpr(info), "uintptr"), true, nil
	}

	// sizeof(((T *)0)->field)
	m, ok := stripParens(n.X).(*ast.Member)
	if !ok || !m.Arrow {
		return none, false, nil
	}
	c, ok := stripParens(m.X).(*ast.Cast)
	if !ok || !isNull(c.X) {
		return none, false, nil
	}
	ptr, ok := c.Type.(*ast.Pointer)
	if !ok {
		return none, false, nil
	}
	info, ok := e.env.Type(ptr.Elem)
	if !ok {
		return none, false, nil
	}
	field, ok := e.env.Field(ptr.Elem, m.Name.Name)
	if !ok {
		return none, false, nil
	}
	return value.VerbatimOf(fmt.Sprintf("unsafe.Sizeof((*%s)(nil).%s)", info.Go, field), "uintptr"), true, nil
}

func sizeExpr(info TypeInfo) string {
	switch {
	case strings.HasPrefix(info.Go, "*") || info.Go == "unsafe.Pointer":
		return "unsafe.Sizeof(uintptr(0))"
	case info.Kind != value.Invalid:
		return fmt.Sprintf("unsafe.Sizeof(%s(0))", info.Go)
	}
	return fmt.Sprintf("unsafe.Sizeof(*new(%s))", info.Go)
}

func isNull(x ast.Expr) bool {
	switch n := stripParens(x).(type) {
	case *ast.Literal:
		return n.Value.Kind.IsInt() && n.Value.Bits == 0
	case *ast.IdentExpr:
		return n.Name == "NULL"
	}
	return false
}

func stripParens(x ast.Expr) ast.Expr {
	for {
		p, ok := x.(*ast.Paren)
		if !ok {
			return x
		}
		x = p.X
	}
}

// ambiguous picks the single reading that folds. Several folding readings
// leave the expression unfolded; if none folds, the first error wins.
func (e *Evaluator) ambiguous(n *ast.Ambiguous) (value.Value, bool, error) {
	var (
		found    []value.Value
		unfolded bool
		firstErr error
	)
	for _, a := range n.Alts {
		if a.Expr == nil {
			continue
		}
		v, ok, err := e.Eval(a.Expr)
		switch {
		case err != nil:
			if firstErr == nil {
				firstErr = err
			}
		case ok:
			found = append(found, v)
		default:
			unfolded = true
		}
	}
	switch {
	case len(found) == 1:
		return found[0], true, nil
	case len(found) > 1, unfolded:
		return none, false, nil
	}
	return none, false, firstErr
}
