package preproc

import (
	"github.com/ardanlabs/sdlgen/ast"
	"github.com/ardanlabs/sdlgen/eval"
	"github.com/ardanlabs/sdlgen/value"
)

// GuardKind classifies the outcome of an #if expression.
type GuardKind uint8

const (
	AlwaysFalse GuardKind = iota
	AlwaysTrue
	Target
)

func (k GuardKind) String() string {
	switch k {
	case AlwaysFalse:
		return "always-false"
	case AlwaysTrue:
		return "always-true"
	}
	return "target"
}

// Guard is an evaluated #if expression. Cond is set for Target guards.
type Guard struct {
	Kind GuardKind
	Cond value.DefineState
}

// GuardOf classifies a define state relative to the enclosing arms: a
// condition that cannot hold inside them is always false, and one that
// they already imply is always true.
func (s *State) GuardOf(c value.DefineState) Guard {
	outer := s.Cond()
	switch {
	case c.IsFalse(), value.And(outer, c).IsFalse():
		return Guard{Kind: AlwaysFalse}
	case c.IsTrue(), value.And(outer, value.Not(c)).IsFalse():
		return Guard{Kind: AlwaysTrue}
	}
	return Guard{Kind: Target, Cond: c}
}

// EvalGuard evaluates an #if or #elif expression.
func (s *State) EvalGuard(x ast.Expr) (Guard, error) {
	c, err := eval.NewGuard(s).Truth(x)
	if err != nil {
		return Guard{}, err
	}
	return s.GuardOf(c), nil
}
