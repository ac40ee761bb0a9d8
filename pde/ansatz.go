package pde

import (
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Condition orders of a time multiplier: "0" fixes the multiplier value
// to 0 at t=0; "00" fixes value and first derivative to 0; "01" fixes the
// value to 0 and the derivative to 1.
const (
	orderValue     = "0"
	orderValueRate = "00"
	orderRate      = "01"
)

// timeScale is the trainable scale of a time multiplier, parameterized in
// log space and zero-initialized (scale 1).
func timeScale(ctx *context.Context, t *graph.Node) *graph.Node {
	logScale := ctx.VariableWithValue("time_scale", 0.0).ValueGraph(t.Graph())
	return graph.Exp(graph.ConvertDType(logScale, t.DType()))
}

// timeMultiplier returns the multiplier applied to the network output to
// bind its value (and possibly first time derivative) at t=0. The input
// of the returned builder is the time coordinate shifted so the domain
// starts at 0.
func timeMultiplier(ctx *context.Context, family TimeFamily, order string) (func(shifted *graph.Node) *graph.Node, error) {
	switch family {
	case TimeSigmoid:
		switch order {
		case orderValue:
			return func(t *graph.Node) *graph.Node {
				scale := timeScale(ctx, t)
				return graph.AddScalar(graph.Sigmoid(graph.Mul(t, scale)), -0.5)
			}, nil
		case orderValueRate:
			return func(t *graph.Node) *graph.Node {
				scale := timeScale(ctx, t)
				m := graph.Sub(graph.Sigmoid(graph.Mul(t, scale)), graph.Mul(graph.Sigmoid(t), scale))
				m = graph.AddScalar(m, -0.5)
				return graph.Add(m, graph.MulScalar(scale, 0.5))
			}, nil
		case orderRate:
			return func(t *graph.Node) *graph.Node {
				scale := timeScale(ctx, t)
				m := graph.MulScalar(graph.Div(graph.Sigmoid(graph.Mul(t, scale)), scale), 4)
				return graph.Sub(m, graph.MulScalar(graph.Inverse(scale), 2))
			}, nil
		}
	case TimePolynomial:
		switch order {
		case orderValue:
			return func(t *graph.Node) *graph.Node {
				return graph.Mul(t, timeScale(ctx, t))
			}, nil
		case orderValueRate:
			return func(t *graph.Node) *graph.Node {
				return graph.MulScalar(graph.Square(t), 0.5)
			}, nil
		case orderRate:
			return func(t *graph.Node) *graph.Node { return t }, nil
		}
	default:
		return nil, errors.Wrapf(ErrConfig, "time multiplier family %d is not supported", family)
	}
	return nil, errors.Wrapf(ErrConfig, "time multiplier order %q is not supported", order)
}

// conditionValue materializes a boundary or initial condition over the
// spatial points xs. Functional conditions of a purely temporal problem
// (xs == nil) must tolerate a nil argument.
func conditionValue(c Coeff, xs *graph.Node, g *graph.Graph, dtype dtypes.DType) *graph.Node {
	if c.fn != nil {
		return graph.Reshape(c.fn(xs), -1, 1)
	}
	return graph.Scalar(g, dtype, c.value)
}

// BindConditions applies the ansatz transform to the raw network output:
// it multiplies the output by factors vanishing on the spatial boundary
// (and at the initial time), then adds the conditions themselves, so the
// returned solution satisfies them by construction.
//
// With p.BindConditions unset the output passes through unchanged.
func BindConditions(ctx *context.Context, p *Problem, coords *Coordinates, net *graph.Node) (*graph.Node, error) {
	if !p.BindConditions {
		return net, nil
	}
	n := coords.Len()
	if len(p.Domain) != n {
		return nil, errors.Wrapf(ErrConfig, "domain has %d coordinate ranges, want %d (did you call Problem.Validate?)", len(p.Domain), n)
	}
	g := net.Graph()
	dtype := net.DType()
	hasTime := len(p.InitialConditions) > 0
	numSpatial := n
	if hasTime {
		numSpatial--
	}
	xs := coords.Spatial(hasTime)
	ctx = ctx.In("ansatz")

	// Multiplier zeroing the output on the spatial boundary:
	// prod_i (x_i - lo_i)(hi_i - x_i) / (hi_i - lo_i)^2.
	var multiplier *graph.Node
	for i := 0; i < numSpatial; i++ {
		lo, hi := p.Domain[i][0], p.Domain[i][1]
		x := coords.Axis(i)
		factor := graph.Mul(graph.AddScalar(x, -lo), graph.AddScalar(graph.Neg(x), hi))
		factor = graph.MulScalar(factor, 1/((hi-lo)*(hi-lo)))
		if multiplier == nil {
			multiplier = factor
		} else {
			multiplier = graph.Mul(multiplier, factor)
		}
	}

	var addTerm *graph.Node
	if hasTime {
		// The boundary condition is ignored here: it is implied by the
		// initial condition on the spatial boundary.
		shifted := graph.AddScalar(coords.Time(), -p.Domain[n-1][0])
		order := orderValue
		if len(p.InitialConditions) > 1 {
			order = orderValueRate
		}
		tm, err := timeMultiplier(ctx.In("time_0"), p.TimeMultiplier, order)
		if err != nil {
			return nil, err
		}
		addTerm = conditionValue(p.InitialConditions[0], xs, g, dtype)
		if multiplier == nil {
			multiplier = tm(shifted)
		} else {
			multiplier = graph.Mul(multiplier, tm(shifted))
		}

		if len(p.InitialConditions) > 1 {
			tmRate, err := timeMultiplier(ctx.In("time_1"), p.TimeMultiplier, orderRate)
			if err != nil {
				return nil, err
			}
			rate := conditionValue(p.InitialConditions[1], xs, g, dtype)
			addTerm = graph.Add(addTerm, graph.Mul(rate, tmRate(shifted)))
		}
	} else {
		addTerm = conditionValue(p.BoundaryCondition, xs, g, dtype)
	}

	solution := net
	if multiplier != nil {
		solution = graph.Mul(multiplier, solution)
	}
	return graph.Add(addTerm, solution), nil
}
