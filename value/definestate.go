package value

import "strings"

// Op tags a DefineState node.
type Op uint8

const (
	OpTrue Op = iota
	OpFalse
	OpDefined
	OpNotDefined
	OpAnd
	OpOr
)

// DefineState is a boolean expression over "NAME is defined" predicates whose
// answer is only known when the bindings are compiled for a target. Values
// are immutable and always kept in normal form by the constructors:
// negation is pushed down to the atoms, nested conjunctions and disjunctions
// are flattened, duplicates are removed and complementary operands collapse
// the node.
type DefineState struct {
	Op   Op
	Name string
	Args []DefineState
}

// True returns the always-true state.
func True() DefineState { return DefineState{Op: OpTrue} }

// False returns the always-false state.
func False() DefineState { return DefineState{Op: OpFalse} }

// Defined returns the atom defined(name).
func Defined(name string) DefineState { return DefineState{Op: OpDefined, Name: name} }

// NotDefined returns the atom !defined(name).
func NotDefined(name string) DefineState { return DefineState{Op: OpNotDefined, Name: name} }

// FromBool lifts a concrete truth value.
func FromBool(b bool) DefineState {
	if b {
		return True()
	}
	return False()
}

// IsTrue reports whether the state is the constant true.
func (s DefineState) IsTrue() bool { return s.Op == OpTrue }

// IsFalse reports whether the state is the constant false.
func (s DefineState) IsFalse() bool { return s.Op == OpFalse }

// IsConst reports whether the state no longer depends on the target.
func (s DefineState) IsConst() bool { return s.Op == OpTrue || s.Op == OpFalse }

// Equal reports structural equality.
func (s DefineState) Equal(o DefineState) bool {
	if s.Op != o.Op || s.Name != o.Name || len(s.Args) != len(o.Args) {
		return false
	}
	for i := range s.Args {
		if !s.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Not negates a state.
func Not(s DefineState) DefineState {
	switch s.Op {
	case OpTrue:
		return False()
	case OpFalse:
		return True()
	case OpDefined:
		return NotDefined(s.Name)
	case OpNotDefined:
		return Defined(s.Name)
	case OpAnd:
		neg := make([]DefineState, len(s.Args))
		for i, a := range s.Args {
			neg[i] = Not(a)
		}
		return Or(neg...)
	default:
		neg := make([]DefineState, len(s.Args))
		for i, a := range s.Args {
			neg[i] = Not(a)
		}
		return And(neg...)
	}
}

// And returns the conjunction of its operands.
func And(args ...DefineState) DefineState {
	return combine(OpAnd, args)
}

// Or returns the disjunction of its operands.
func Or(args ...DefineState) DefineState {
	return combine(OpOr, args)
}

// combine builds a flattened, deduplicated node. For OpAnd the identity is
// true and the absorbing element is false; OpOr is the dual.
func combine(op Op, args []DefineState) DefineState {
	identity, absorbing := OpTrue, OpFalse
	if op == OpOr {
		identity, absorbing = OpFalse, OpTrue
	}

	var flat []DefineState
	var add func(a DefineState) bool
	add = func(a DefineState) bool {
		switch a.Op {
		case identity:
			return true
		case absorbing:
			return false
		case op:
			for _, sub := range a.Args {
				if !add(sub) {
					return false
				}
			}
			return true
		}
		for _, have := range flat {
			if have.Equal(a) {
				return true
			}
		}
		neg := Not(a)
		for _, have := range flat {
			if have.Equal(neg) {
				return false
			}
		}
		flat = append(flat, a)
		return true
	}

	for _, a := range args {
		if !add(a) {
			return DefineState{Op: absorbing}
		}
	}
	switch len(flat) {
	case 0:
		return DefineState{Op: identity}
	case 1:
		return flat[0]
	}
	return DefineState{Op: op, Args: flat}
}

// Simplify rebuilds the state through the normalizing constructors.
func (s DefineState) Simplify() DefineState {
	switch s.Op {
	case OpAnd, OpOr:
		args := make([]DefineState, len(s.Args))
		for i, a := range s.Args {
			args[i] = a.Simplify()
		}
		return combine(s.Op, args)
	}
	return s
}

// Names returns the macro names referenced by the state in first-seen order.
func (s DefineState) Names() []string {
	var names []string
	seen := map[string]bool{}
	var walk func(DefineState)
	walk = func(d DefineState) {
		switch d.Op {
		case OpDefined, OpNotDefined:
			if !seen[d.Name] {
				seen[d.Name] = true
				names = append(names, d.Name)
			}
		case OpAnd, OpOr:
			for _, a := range d.Args {
				walk(a)
			}
		}
	}
	walk(s)
	return names
}

// String renders the state with C preprocessor syntax.
func (s DefineState) String() string {
	var b strings.Builder
	s.write(&b, false)
	return b.String()
}

func (s DefineState) write(b *strings.Builder, nested bool) {
	switch s.Op {
	case OpTrue:
		b.WriteString("1")
	case OpFalse:
		b.WriteString("0")
	case OpDefined:
		b.WriteString("defined(" + s.Name + ")")
	case OpNotDefined:
		b.WriteString("!defined(" + s.Name + ")")
	case OpAnd, OpOr:
		sep := " && "
		if s.Op == OpOr {
			sep = " || "
		}
		if nested {
			b.WriteByte('(')
		}
		for i, a := range s.Args {
			if i > 0 {
				b.WriteString(sep)
			}
			a.write(b, true)
		}
		if nested {
			b.WriteByte(')')
		}
	}
}
