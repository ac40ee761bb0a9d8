package pde

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/layers"
	"github.com/gomlx/gomlx/types/shapes"
	"k8s.io/klog/v2"
)

// Residual evaluates a differential form of a network output: the
// weighted sum of the output and its first/second partial derivatives
// with respect to the coordinates, minus the composed right-hand-side
// perturbation. It is built once per problem (or per diagnostic operator)
// and invoked once per training or prediction step.
type Residual struct {
	name   string
	ctx    *context.Context
	coords *Coordinates

	form     *Form
	noise    *ScaleForm
	addendum *ScaleForm

	noiseCfg NoiseConfig
	addCfg   AddendumConfig
}

// NewResidual builds the residual evaluator for p's form over the given
// coordinates. ctx owns the trainable addendum multipliers and the RNG
// state of the noise blocks; name scopes those variables and identifies
// the evaluator in diagnostics.
//
// Construction fails fast — dimension mismatches and an all-zero form
// ("nothing to compute") are rejected before any graph work is done.
func NewResidual(ctx *context.Context, p *Problem, coords *Coordinates, name string) (*Residual, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return newResidual(ctx, p.Form, p.Noise, p.Addendum, p.NoiseConfig, p.AddendumConfig, coords, name)
}

// Output builds a named diagnostic evaluator for a single differential
// operator string, e.g. "dt" or "d2xy", used to track auxiliary
// quantities of the solution during logging.
func Output(ctx *context.Context, op string, coords *Coordinates) (*Residual, error) {
	form, err := ParseOperator(op, coords.Len())
	if err != nil {
		return nil, err
	}
	return newResidual(ctx, form, nil, nil, NoiseConfig{}, AddendumConfig{}, coords, op)
}

func newResidual(ctx *context.Context, form *Form, noise, addendum *ScaleForm,
	noiseCfg NoiseConfig, addCfg AddendumConfig, coords *Coordinates, name string) (*Residual, error) {
	n := coords.Len()
	if err := form.validate(n); err != nil {
		return nil, err
	}
	return &Residual{
		name:     name,
		ctx:      ctx.In("form").In(name),
		coords:   coords,
		form:     form,
		noise:    noise,
		addendum: addendum,
		noiseCfg: noiseCfg,
		addCfg:   addCfg,
	}, nil
}

// Name returns the diagnostic name of the evaluator.
func (r *Residual) Name() string { return r.name }

// Compute builds the residual of net, a [batch, 1] network output living
// on the same graph as the coordinates. Derivatives are taken with
// graph.Gradient; second-order terms reuse the first derivative with
// respect to the row coordinate across the whole row.
func (r *Residual) Compute(net *graph.Node) *graph.Node {
	n := r.coords.Len()
	var result *graph.Node
	accumulate := func(term *graph.Node) {
		if result == nil {
			result = term
		} else {
			result = graph.Add(result, term)
		}
	}

	// Function value itself.
	if c := r.coeff(r.form.D0, r.noise.d0(), r.addendum.d0(), "d0"); c != nil {
		accumulate(graph.Mul(c, net))
	}

	sum := graph.ReduceAllSum(net)

	// Derivatives of the first order.
	for i := 0; i < n; i++ {
		c := r.coeff(r.form.d1(i), r.noise.d1(i), r.addendum.d1(i), fmt.Sprintf("d1_%d", i))
		if c == nil {
			continue
		}
		accumulate(graph.Mul(c, graph.Gradient(sum, r.coords.Axis(i))[0]))
	}

	// Derivatives of the second order. The first derivative w.r.t. the
	// row coordinate is computed at most once per row and reused.
	for i := 0; i < n; i++ {
		var first *graph.Node
		for j := 0; j < n; j++ {
			c := r.coeff(r.form.d2(i, j), r.noise.d2(i, j), r.addendum.d2(i, j), fmt.Sprintf("d2_%d_%d", i, j))
			if c == nil {
				continue
			}
			if first == nil {
				first = graph.Gradient(sum, r.coords.Axis(i))[0]
			}
			accumulate(graph.Mul(c, graph.Gradient(graph.ReduceAllSum(first), r.coords.Axis(j))[0]))
		}
	}

	if result == nil {
		// NewResidual rejects all-zero forms, so this is unreachable for
		// evaluators built through the public constructors.
		exceptions.Panicf("pde: form %q produced no terms", r.name)
	}

	// Perturbation of the right-hand side, composed with base value 0.
	if c := r.coeff(Coeff{}, r.noise.rhs(), r.addendum.rhs(), "rhs"); c != nil {
		result = graph.Sub(result, c)
	}
	return result
}

// coeff composes the final coefficient of one term: the base coefficient,
// plus an optional random perturbation, plus an optional trainable
// addendum. Returns nil when the term contributes nothing at all.
//
// Noise draws fresh values on every graph execution; the addendum
// multiplier is a stable trainable parameter scoped under the term name.
func (r *Residual) coeff(base Coeff, noiseScale, addendum float64, term string) *graph.Node {
	if base.IsZero() && noiseScale == 0 && addendum == 0 {
		return nil
	}
	points := r.coords.Points()
	var c *graph.Node
	if !base.IsZero() {
		c = base.materialize(points)
	}
	accumulate := func(extra *graph.Node) {
		if c == nil {
			c = extra
		} else {
			c = graph.Add(c, extra)
		}
	}
	if noiseScale != 0 {
		if klog.V(2).Enabled() {
			klog.Infof("pde: %s/%s: noise scale %g (%v)", r.name, term, noiseScale, r.noiseCfg.Distribution)
		}
		accumulate(r.noiseBlock(points, noiseScale, term))
	}
	if addendum != 0 {
		if klog.V(2).Enabled() {
			klog.Infof("pde: %s/%s: trainable addendum (hidden layers %v)", r.name, term, r.addCfg.HiddenLayers)
		}
		accumulate(r.addendumBlock(points, term))
	}
	return c
}

// noiseBlock draws a per-point [batch, 1] perturbation of the given
// scale. Values are redrawn on every execution; they are deliberately not
// seeded.
func (r *Residual) noiseBlock(points *graph.Node, scale float64, term string) *graph.Node {
	g := points.Graph()
	shape := shapes.Make(points.DType(), points.Shape().Dimensions[0], 1)
	ctx := r.ctx.In("noise").In(term)
	switch r.noiseCfg.Distribution {
	case NoiseUniform:
		u := ctx.RandomUniform(g, shape) // [0, 1)
		return graph.MulScalar(graph.AddScalar(graph.MulScalar(u, 2), -1), scale)
	default:
		return graph.MulScalar(ctx.RandomNormal(g, shape), scale)
	}
}

// addendumBlock returns the trainable correction of one term: a
// zero-initialized scalar multiplier, optionally applied to a small dense
// sub-network of the points. The multiplier variable is created once and
// reused across graph rebuilds.
func (r *Residual) addendumBlock(points *graph.Node, term string) *graph.Node {
	g := points.Graph()
	ctx := r.ctx.In("addendums").In(term)
	multiplier := graph.ConvertDType(ctx.VariableWithValue("multiplier", 0.0).ValueGraph(g), points.DType())
	if len(r.addCfg.HiddenLayers) == 0 {
		return multiplier
	}
	hidden := points
	for li, width := range r.addCfg.HiddenLayers {
		hidden = graph.Tanh(layers.Dense(ctx.Inf("dense_%d", li), hidden, true, width))
	}
	hidden = layers.Dense(ctx.In("dense_out"), hidden, true, 1)
	return graph.Mul(multiplier, hidden)
}
