// Package graphmath is the tensor-graph backend for symexpr: expression
// trees evaluate to GoMLX graph nodes, so a compiled expression builds a
// computation graph instead of a number.
//
// The "D" token is bound to graph.Gradient: D(f, x) differentiates the
// (summed) expression result with respect to the coordinate node x.
package graphmath

import (
	"math"

	. "github.com/gomlx/gomlx/graph"
	"github.com/pkg/errors"

	"github.com/deepform/galerkin/symexpr"
)

func unary(f func(x *Node) *Node) func(...*Node) *Node {
	return func(args ...*Node) *Node { return f(args[0]) }
}

// Trigonometric and hyperbolic functions the graph backend has no single
// primitive for, composed from the primitives it does have.

func tan(x *Node) *Node { return Div(Sin(x), Cos(x)) }

func sinh(x *Node) *Node { return MulScalar(Sub(Exp(x), Exp(Neg(x))), 0.5) }

func cosh(x *Node) *Node { return MulScalar(Add(Exp(x), Exp(Neg(x))), 0.5) }

// atan has no graph primitive. Fold the magnitude into [0, 1] with
// atan(x) = π/2 - atan(1/x), seed a rational estimate and refine it with
// Newton steps on tan(y) = t; on [0, 1] the seed is within 4e-3, so four
// quadratic steps land below float64 resolution.
func atan(x *Node) *Node {
	ax := Abs(x)
	t := Min(ax, Inverse(ax))
	y := Mul(t, AddScalar(MulScalar(OneMinus(t), 0.273), math.Pi/4))
	for i := 0; i < 4; i++ {
		c := Cos(y)
		y = Add(Sub(y, Mul(Sin(y), c)), Mul(t, Square(c)))
	}
	// Undo the fold: π/4 + sign(|x|-1)*(π/4 - y) is y below 1, π/2 - y above.
	y = AddScalar(Mul(Sign(AddScalar(ax, -1)), AddScalar(Neg(y), math.Pi/4)), math.Pi/4)
	return Mul(Sign(x), y)
}

func asin(x *Node) *Node { return atan(Div(x, Sqrt(OneMinus(Square(x))))) }

func acos(x *Node) *Node { return AddScalar(Neg(asin(x)), math.Pi/2) }

func asinh(x *Node) *Node { return Log(Add(x, Sqrt(OnePlus(Square(x))))) }

func acosh(x *Node) *Node { return Log(Add(x, Sqrt(AddScalar(Square(x), -1)))) }

func atanh(x *Node) *Node { return MulScalar(Log(Div(OnePlus(x), OneMinus(x))), 0.5) }

// Namespaces returns the ordered lookup tables of the tensor-graph
// backend: a single "graph" namespace over GoMLX ops.
func Namespaces() []symexpr.Namespace[*Node] {
	return []symexpr.Namespace[*Node]{{
		Name: "graph",
		Funcs: map[string]func(...*Node) *Node{
			"sin":   unary(Sin),
			"cos":   unary(Cos),
			"exp":   unary(Exp),
			"log":   unary(Log),
			"tan":   unary(tan),
			"asin":  unary(asin),
			"acos":  unary(acos),
			"atan":  unary(atan),
			"sinh":  unary(sinh),
			"cosh":  unary(cosh),
			"tanh":  unary(Tanh),
			"asinh": unary(asinh),
			"acosh": unary(acosh),
			"atanh": unary(atanh),
			"sqrt":  unary(Sqrt),
			"abs":   unary(Abs),
			"erf":   unary(Erf),
		},
	}}
}

// D is the differentiation primitive: the gradient of the (summed)
// expression result f with respect to the coordinate node x.
func D(f, x *Node) *Node {
	return Gradient(ReduceAllSum(f), x)[0]
}

// Arith returns graph-node arithmetic. Constants are materialized on the
// graph (and with the dtype) of the first evaluation argument, so a tree
// made purely of constants cannot be evaluated with zero arguments on
// this backend.
func Arith() symexpr.Arith[*Node] {
	return symexpr.Arith[*Node]{
		Add: Add,
		Sub: Sub,
		Mul: Mul,
		Div: Div,
		Pow: Pow,
		Const: func(c float64, args []*Node) (*Node, error) {
			if len(args) == 0 {
				return nil, errors.New("graph backend cannot materialize a constant without at least one graph argument")
			}
			exemplar := args[0]
			return Scalar(exemplar.Graph(), exemplar.DType(), c), nil
		},
	}
}

// New returns the tensor-graph backend. module must be one of the aliases
// "graph" or "gomlx"; anything else is a configuration error — use
// FromNamespaces to bind custom tables.
func New(module string) (*symexpr.Backend[*Node], error) {
	switch module {
	case "graph", "gomlx":
	default:
		return nil, errors.Errorf("module %q is not supported: pass namespaces directly with FromNamespaces", module)
	}
	return &symexpr.Backend[*Node]{
		Name:       module,
		Arith:      Arith(),
		Namespaces: Namespaces(),
		Derivative: D,
	}, nil
}

// FromNamespaces builds a tensor-graph backend over explicit namespace
// tables, keeping the graph arithmetic and differentiation primitive.
func FromNamespaces(name string, namespaces ...symexpr.Namespace[*Node]) *symexpr.Backend[*Node] {
	return &symexpr.Backend[*Node]{
		Name:       name,
		Arith:      Arith(),
		Namespaces: namespaces,
		Derivative: D,
	}
}
