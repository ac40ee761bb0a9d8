package symexpr

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Namespace is a named function table. Resolution across namespaces is an
// ordered linear search: the first namespace exposing a requested name
// wins.
type Namespace[T any] struct {
	Name  string
	Funcs map[string]func(args ...T) T
}

// DerivativeFunc computes the derivative of an expression result f with
// respect to a coordinate x.
type DerivativeFunc[T any] func(f, x T) T

// Backend bundles everything the expression layer needs from a math
// backend: arithmetic, the ordered namespace tables, and (optionally)
// a differentiation primitive for the "D" token.
type Backend[T any] struct {
	Name       string
	Arith      Arith[T]
	Namespaces []Namespace[T]
	Derivative DerivativeFunc[T]
}

// DefaultNames is the standard token set requested when MakeTokens is
// given no explicit names.
var DefaultNames = []string{
	"sin", "cos", "exp", "log", "tan",
	"acos", "asin", "atan",
	"sinh", "cosh", "tanh", "asinh", "acosh", "atanh",
	"D",
}

// operand converts v to a node: nodes pass through, numeric values become
// constant nodes bound to the backend's Const rule. Anything else is a
// construction error.
func (b *Backend[T]) operand(v any) (*Node[T], error) {
	switch x := v.(type) {
	case *Node[T]:
		if x == nil {
			return nil, errors.Wrap(ErrConstruction, "nil node operand")
		}
		return x, nil
	case float64:
		return b.constant(x), nil
	case float32:
		return b.constant(float64(x)), nil
	case int:
		return b.constant(float64(x)), nil
	}
	return nil, errors.Wrapf(ErrConstruction, "operand of type %T", v)
}

func (b *Backend[T]) constant(c float64) *Node[T] {
	return &Node[T]{
		name:  strconv.FormatFloat(c, 'g', -1, 64),
		kind:  kindConst,
		value: c,
		conv:  b.Arith.Const,
	}
}

// ApplyBinary builds a new node computing op over the two evaluated
// operands. Operands may be nodes or numeric constants; the existing
// nodes are never mutated.
func ApplyBinary[T any](b *Backend[T], op Op, left, right any) (*Node[T], error) {
	if b == nil {
		return nil, errors.Wrap(ErrConstruction, "nil backend")
	}
	lhs, err := b.operand(left)
	if err != nil {
		return nil, errors.WithMessagef(err, "left operand of %q", op)
	}
	rhs, err := b.operand(right)
	if err != nil {
		return nil, errors.WithMessagef(err, "right operand of %q", op)
	}
	fn, err := b.Arith.binary(op)
	if err != nil {
		return nil, err
	}
	return Apply(func(args ...T) T { return fn(args[0], args[1]) }, op.String(), lhs, rhs)
}

// Token constructs an expression node for one named function, given
// argument trees or numeric constants.
type Token[T any] func(operands ...any) (*Node[T], error)

func (b *Backend[T]) lookup(name string) (func(args ...T) T, error) {
	for _, ns := range b.Namespaces {
		if fn, ok := ns.Funcs[name]; ok && fn != nil {
			return fn, nil
		}
	}
	searched := make([]string, len(b.Namespaces))
	for i, ns := range b.Namespaces {
		searched[i] = ns.Name
	}
	return nil, errors.Wrapf(ErrLookup, "cannot find function %q in namespaces [%s]",
		name, strings.Join(searched, ", "))
}

// MakeTokens resolves the requested names against the backend's namespaces
// and returns one token per name. "D" is special: it is not looked up but
// bound to the backend's differentiation primitive, or to override when
// supplied; if neither exists, token creation fails.
//
// With no names, DefaultNames is used. Resolution is all-or-nothing: a
// single missing name fails the whole call and no tokens are returned.
func MakeTokens[T any](b *Backend[T], override DerivativeFunc[T], names ...string) (map[string]Token[T], error) {
	if b == nil {
		return nil, errors.Wrap(ErrConstruction, "nil backend")
	}
	if len(names) == 0 {
		names = DefaultNames
	}
	tokens := make(map[string]Token[T], len(names))
	for _, name := range names {
		var fn func(args ...T) T
		isD := name == "D"
		if isD {
			d := b.Derivative
			if override != nil {
				d = override
			}
			if d == nil {
				return nil, errors.Wrapf(ErrLookup,
					"module %q is not supported for differentiation: pass an explicit derivative override", b.Name)
			}
			fn = func(args ...T) T { return d(args[0], args[1]) }
		} else {
			var err error
			fn, err = b.lookup(name)
			if err != nil {
				return nil, err
			}
		}
		name, fn, isD := name, fn, isD
		tokens[name] = func(operands ...any) (*Node[T], error) {
			if isD && len(operands) != 2 {
				return nil, errors.Wrapf(ErrConstruction, "D takes exactly two operands, got %d", len(operands))
			}
			children := make([]*Node[T], len(operands))
			for i, o := range operands {
				child, err := b.operand(o)
				if err != nil {
					return nil, errors.WithMessagef(err, "operand %d of token %q", i, name)
				}
				children[i] = child
			}
			return Apply(fn, name, children...)
		}
	}
	return tokens, nil
}
