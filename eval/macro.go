package eval

import (
	"regexp"

	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/value"
)

// pasteSuffix matches bodies such as "c ## ULL" that glue an integer suffix
// onto their argument.
var pasteSuffix = regexp.MustCompile(`^\s*(\w+)\s*##\s*([uUlL]+)\s*$`)

func (e *Evaluator) call(n *ast.Call) (value.Value, bool, error) {
	id, ok := stripParens(n.Fn).(*ast.IdentExpr)
	if !ok {
		return e.notFoldable(n)
	}

	d, ok := e.funcMacro(id.Name)
	if !ok {
		if e.guard && len(e.env.Macros(id.Name)) == 0 {
			return none, false, diag.Errorf(diag.StagePreproc, id.At, "undefined function-like macro %s in preprocessor condition", id.Name)
		}
		return e.notFoldable(n)
	}
	if e.active[d.Name.Name] {
		return none, false, nil
	}

	want := len(d.Params)
	if len(n.Args) != want && !(d.Variadic && len(n.Args) >= want) {
		return none, false, diag.Errorf(diag.StageEval, n.At, "macro %s expects %d arguments, got %d", d.Name.Name, want, len(n.Args))
	}

	args := n.Args
	if !isPaste(d) {
		args = e.prepare(args)
	}
	body, ok, err := e.Expand(d, args)
	if err != nil || !ok {
		return none, ok, err
	}

	e.active[d.Name.Name] = true
	defer delete(e.active, d.Name.Name)
	return e.Eval(body)
}

// prepare folds the arguments that fold, as C expands arguments before
// substituting them. The rest, such as type names, are kept as written.
func (e *Evaluator) prepare(args []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(args))
	for i, a := range args {
		out[i] = a
		if v, ok, err := e.Eval(a); err == nil && ok {
			out[i] = &ast.ValueExpr{At: a.Span(), Value: v}
		}
	}
	return out
}

func isPaste(d *ast.Define) bool {
	m := pasteSuffix.FindStringSubmatch(d.Body.Text())
	return m != nil && len(d.Params) == 1 && m[1] == d.Params[0].Name
}

func (e *Evaluator) notFoldable(n ast.Expr) (value.Value, bool, error) {
	if e.guard {
		return none, false, diag.Errorf(diag.StagePreproc, n.Span(), "function call in preprocessor condition")
	}
	return none, false, nil
}

// funcMacro resolves name to an unconditional function-like macro,
// following object-like aliases such as "#define SDL_A SDL_B".
func (e *Evaluator) funcMacro(name string) (*ast.Define, bool) {
	seen := map[string]bool{}
	for !seen[name] {
		seen[name] = true
		bindings := e.env.Macros(name)
		if len(bindings) != 1 || !bindings[0].Cond.IsTrue() {
			return nil, false
		}
		d := bindings[0].Define
		if d.FuncLike {
			return d, true
		}
		if d.Value.Kind != ast.DefineExpr && d.Value.Kind != ast.DefineAmbiguous {
			return nil, false
		}
		alias, ok := stripParens(d.Value.Expr).(*ast.IdentExpr)
		if !ok {
			return nil, false
		}
		name = alias.Name
	}
	return nil, false
}

// Expand substitutes args into the body of a function-like macro. The
// boolean is false when the body is not an expression.
func (e *Evaluator) Expand(d *ast.Define, args []ast.Expr) (ast.Expr, bool, error) {
	if isPaste(d) {
		return pasteLiteral(d, args[0], pasteSuffix.FindStringSubmatch(d.Body.Text())[2])
	}

	dv, err := e.env.Reparse(d)
	if err != nil {
		return nil, false, err
	}
	if dv.Kind != ast.DefineExpr && dv.Kind != ast.DefineAmbiguous {
		return nil, false, nil
	}

	bound := make(map[string]ast.Expr, len(d.Params)+1)
	for i, p := range d.Params {
		if i < len(args) {
			bound[p.Name] = args[i]
		}
	}
	if d.Variadic && len(args) > len(d.Params) {
		rest := args[len(d.Params)]
		for _, a := range args[len(d.Params)+1:] {
			rest = &ast.Binary{At: a.Span(), Op: ",", OpAt: a.Span(), X: rest, Y: a}
		}
		bound["__VA_ARGS__"] = rest
	}
	return ast.Substitute(dv.Expr, bound), true, nil
}

func pasteLiteral(d *ast.Define, arg ast.Expr, text string) (ast.Expr, bool, error) {
	lit, ok := stripParens(arg).(*ast.Literal)
	if !ok || !lit.Value.Kind.IsInt() || lit.Suffix != value.SuffixNone {
		return nil, false, diag.Errorf(diag.StageEval, d.Body, "cannot paste suffix %s onto this argument", text).
			WithNote("the argument must be an unsuffixed integer literal")
	}
	suffix, ok := value.ParseSuffix(text)
	if !ok {
		return nil, false, diag.Errorf(diag.StageEval, d.Body, "invalid integer suffix %s", text)
	}
	v, err := value.FromLiteral(lit.Mag, suffix, lit.Value.Base, lit.Value.Digits)
	if err != nil {
		return nil, false, diag.Wrap(diag.StageEval, lit.At, err)
	}
	return &ast.Literal{At: lit.At, Value: v, Suffix: suffix, Mag: lit.Mag}, true, nil
}
