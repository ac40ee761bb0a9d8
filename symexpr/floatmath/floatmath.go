// Package floatmath is the scalar backend for symexpr: expression trees
// evaluate to float64 values using the standard math library.
//
// The backend has no native differentiation primitive; requesting the "D"
// token requires an explicit derivative override.
package floatmath

import (
	"math"

	"github.com/pkg/errors"

	"github.com/deepform/galerkin/symexpr"
)

func unary(f func(float64) float64) func(...float64) float64 {
	return func(args ...float64) float64 { return f(args[0]) }
}

// Namespaces returns the ordered lookup tables of the scalar backend:
// a single "math" namespace over the standard library.
func Namespaces() []symexpr.Namespace[float64] {
	return []symexpr.Namespace[float64]{{
		Name: "math",
		Funcs: map[string]func(...float64) float64{
			"sin":   unary(math.Sin),
			"cos":   unary(math.Cos),
			"exp":   unary(math.Exp),
			"log":   unary(math.Log),
			"tan":   unary(math.Tan),
			"asin":  unary(math.Asin),
			"acos":  unary(math.Acos),
			"atan":  unary(math.Atan),
			"sinh":  unary(math.Sinh),
			"cosh":  unary(math.Cosh),
			"tanh":  unary(math.Tanh),
			"asinh": unary(math.Asinh),
			"acosh": unary(math.Acosh),
			"atanh": unary(math.Atanh),
			"sqrt":  unary(math.Sqrt),
			"abs":   unary(math.Abs),
			"erf":   unary(math.Erf),
		},
	}}
}

// Arith returns float64 arithmetic. Constants convert to themselves and
// never need an exemplar argument.
func Arith() symexpr.Arith[float64] {
	return symexpr.Arith[float64]{
		Add:   func(a, b float64) float64 { return a + b },
		Sub:   func(a, b float64) float64 { return a - b },
		Mul:   func(a, b float64) float64 { return a * b },
		Div:   func(a, b float64) float64 { return a / b },
		Pow:   math.Pow,
		Const: func(c float64, _ []float64) (float64, error) { return c, nil },
	}
}

// New returns the scalar backend. module must be one of the aliases
// "float64" or "math"; anything else is a configuration error — use
// FromNamespaces to bind custom tables.
func New(module string) (*symexpr.Backend[float64], error) {
	switch module {
	case "float64", "math":
	default:
		return nil, errors.Errorf("module %q is not supported: pass namespaces directly with FromNamespaces", module)
	}
	return &symexpr.Backend[float64]{Name: module, Arith: Arith(), Namespaces: Namespaces()}, nil
}

// FromNamespaces builds a scalar backend over explicit namespace tables.
func FromNamespaces(name string, namespaces ...symexpr.Namespace[float64]) *symexpr.Backend[float64] {
	return &symexpr.Backend[float64]{Name: name, Arith: Arith(), Namespaces: namespaces}
}
