// Package symexpr builds and evaluates symbolic expression trees.
//
// A tree is assembled from coordinate-selector leaves (Leaf), numeric
// constants, binary arithmetic (ApplyBinary) and named function tokens
// (MakeTokens). Trees are immutable: every constructor returns a new node
// and never mutates its operands.
//
// Evaluation is two-phase: Compile flattens a tree into an immutable
// Program (a topologically ordered instruction list), and Program.Run
// executes it against a flat argument sequence. Evaluate is the
// compile-and-run convenience.
//
// The value type is generic: symexpr/floatmath instantiates it with
// float64, symexpr/graphmath with *graph.Node, so the same tree shape
// evaluates to either a number or a GoMLX tensor graph.
package symexpr

import (
	"strconv"

	"github.com/pkg/errors"
)

// Sentinel errors. Wrapped with context at every failure site; test with
// errors.Is.
var (
	// ErrConstruction indicates invalid input to node or tree construction.
	ErrConstruction = errors.New("cannot construct node from input")

	// ErrLookup indicates a requested function is missing from every
	// supplied namespace, or a backend lacks a required capability.
	ErrLookup = errors.New("function not found")
)

// Op enumerates the supported binary arithmetic operators.
//
// Reflected variants (radd, rsub, ...) collapse into the same set by
// argument order: rsub(a, b) is ApplyBinary(b, OpSub, b, a).
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

// String returns the operator name used as the node name of binary nodes.
func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpPow:
		return "pow"
	}
	return "op#" + strconv.Itoa(int(op))
}

// Arith defines the arithmetic of a backend value type.
type Arith[T any] struct {
	Add, Sub, Mul, Div, Pow func(lhs, rhs T) T

	// Const converts a numeric literal to a value. It receives the
	// evaluation arguments: backends whose values carry context (a graph,
	// a device) may need an exemplar argument to materialize a constant.
	Const func(c float64, args []T) (T, error)
}

func (a Arith[T]) binary(op Op) (func(lhs, rhs T) T, error) {
	var fn func(lhs, rhs T) T
	switch op {
	case OpAdd:
		fn = a.Add
	case OpSub:
		fn = a.Sub
	case OpMul:
		fn = a.Mul
	case OpDiv:
		fn = a.Div
	case OpPow:
		fn = a.Pow
	}
	if fn == nil {
		return nil, errors.Wrapf(ErrConstruction, "operator %q is not defined by the backend arithmetic", op)
	}
	return fn, nil
}

type nodeKind int

const (
	kindSelect nodeKind = iota
	kindConst
	kindApply
)

// lastArg marks a selector bound to the final argument (time, by the
// convention that the time coordinate comes last).
const lastArg = -1

// Node is one node of an expression tree: an operation plus ordered
// operands. Leaf nodes select one of the evaluation arguments, constant
// nodes hold a numeric literal, application nodes hold a resolved function.
type Node[T any] struct {
	name string
	kind nodeKind

	sel      int                                // kindSelect
	value    float64                            // kindConst
	conv     func(c float64, args []T) (T, error) // kindConst
	fn       func(args ...T) T                  // kindApply
	operands []*Node[T]
}

// Name returns the node's identifying label ("x", "sin", "add", ...).
func (n *Node[T]) Name() string { return n.name }

// Len returns the number of operands, 0 for leaves and constants.
func (n *Node[T]) Len() int { return len(n.operands) }

// Leaf constructs a coordinate-selector leaf from a one- or two-character
// name: "u" selects argument 0 (the function-value slot), "x", "y", "z"
// select arguments 1, 2, 3, "t" selects the last argument, and "x<k>"
// selects argument index k directly.
func Leaf[T any](name string) (*Node[T], error) {
	switch len(name) {
	case 1:
		sel, ok := map[string]int{"u": 0, "x": 1, "y": 2, "z": 3, "t": lastArg}[name]
		if !ok {
			return nil, errors.Wrapf(ErrConstruction, "unknown coordinate name %q", name)
		}
		return &Node[T]{name: name, kind: kindSelect, sel: sel}, nil
	case 2:
		k, err := strconv.Atoi(name[1:])
		if err != nil {
			return nil, errors.Wrapf(ErrConstruction, "coordinate name %q has no numeric index", name)
		}
		return &Node[T]{name: name, kind: kindSelect, sel: k}, nil
	}
	return nil, errors.Wrapf(ErrConstruction, "coordinate name %q must have 1 or 2 characters", name)
}

// Apply constructs an application node wrapping fn with the given operand
// subtrees. The node owns its operands: the result is a tree, not a DAG.
func Apply[T any](fn func(args ...T) T, name string, operands ...*Node[T]) (*Node[T], error) {
	if fn == nil {
		return nil, errors.Wrapf(ErrConstruction, "nil operation for node %q", name)
	}
	for i, op := range operands {
		if op == nil {
			return nil, errors.Wrapf(ErrConstruction, "nil operand %d for node %q", i, name)
		}
	}
	return &Node[T]{name: name, kind: kindApply, fn: fn, operands: operands}, nil
}

// Instruction kinds of a compiled Program.
type instKind int

const (
	instSelect instKind = iota
	instConst
	instApply
)

type instruction[T any] struct {
	kind  instKind
	name  string
	sel   int
	value float64
	conv  func(c float64, args []T) (T, error)
	fn    func(args ...T) T
	arity int
}

// Program is an immutable, compiled form of an expression tree: the tree
// flattened into evaluation order. A Program can be Run any number of
// times; it holds no state between runs.
type Program[T any] struct {
	name  string
	insts []instruction[T]
}

// Name returns the name of the root node the program was compiled from.
func (p *Program[T]) Name() string { return p.name }

// Compile flattens the tree rooted at root into a Program. Operands come
// before the nodes applying them, so Run is a single forward pass over the
// instruction list.
func Compile[T any](root *Node[T]) (*Program[T], error) {
	if root == nil {
		return nil, errors.Wrap(ErrConstruction, "nil expression")
	}
	p := &Program[T]{name: root.name}
	var flatten func(n *Node[T]) error
	flatten = func(n *Node[T]) error {
		switch n.kind {
		case kindSelect:
			p.insts = append(p.insts, instruction[T]{kind: instSelect, name: n.name, sel: n.sel})
		case kindConst:
			if n.conv == nil {
				return errors.Wrapf(ErrConstruction, "constant node %q has no backend conversion", n.name)
			}
			p.insts = append(p.insts, instruction[T]{kind: instConst, name: n.name, value: n.value, conv: n.conv})
		case kindApply:
			for _, op := range n.operands {
				if err := flatten(op); err != nil {
					return err
				}
			}
			p.insts = append(p.insts, instruction[T]{kind: instApply, name: n.name, fn: n.fn, arity: len(n.operands)})
		}
		return nil
	}
	if err := flatten(root); err != nil {
		return nil, err
	}
	return p, nil
}

// Run evaluates the program against a flat argument sequence. Constants
// evaluate to themselves regardless of arguments; selector leaves pick the
// stored argument index; application nodes apply their function to the
// already evaluated operands. Run is side-effect free.
func (p *Program[T]) Run(args ...T) (T, error) {
	var zero T
	stack := make([]T, 0, len(p.insts))
	for _, in := range p.insts {
		switch in.kind {
		case instSelect:
			idx := in.sel
			if idx == lastArg {
				idx = len(args) - 1
			}
			if idx < 0 || idx >= len(args) {
				return zero, errors.Errorf("leaf %q selects argument %d, but %d argument(s) were given", in.name, in.sel, len(args))
			}
			stack = append(stack, args[idx])
		case instConst:
			v, err := in.conv(in.value, args)
			if err != nil {
				return zero, errors.WithMessagef(err, "constant %q", in.name)
			}
			stack = append(stack, v)
		case instApply:
			operands := stack[len(stack)-in.arity:]
			v := in.fn(operands...)
			stack = stack[:len(stack)-in.arity]
			stack = append(stack, v)
		}
	}
	return stack[len(stack)-1], nil
}

// Evaluate compiles and runs the tree in one step.
func Evaluate[T any](root *Node[T], args ...T) (T, error) {
	p, err := Compile(root)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.Run(args...)
}
