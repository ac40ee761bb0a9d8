package pde

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/layers"
	"github.com/gomlx/gomlx/ml/train"
	"github.com/gomlx/gomlx/ml/train/losses"
	"github.com/gomlx/gomlx/ml/train/optimizers"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Network builds the raw solution approximator from the [batch, n] points
// node. It is called once per graph construction; trainable variables
// must be created through ctx so they are reused across rebuilds.
type Network func(ctx *context.Context, points *graph.Node) *graph.Node

// MLP returns a fully connected Network with Tanh activations on the
// hidden layers and a single linear output.
func MLP(hidden ...int) Network {
	return func(ctx *context.Context, points *graph.Node) *graph.Node {
		h := points
		for i, width := range hidden {
			h = graph.Tanh(layers.Dense(ctx.Inf("hidden_%d", i), h, true, width))
		}
		return layers.Dense(ctx.In("output"), h, true, 1)
	}
}

// Solver trains a network to satisfy a PDE problem by minimizing the
// squared residual on sampled points, and evaluates the bound solution.
type Solver struct {
	backend backends.Backend
	ctx     *context.Context
	problem *Problem
	network Network

	trainer *train.Trainer
	loop    *train.Loop

	solveExec *context.Exec
}

// NewSolver validates the problem and assembles the training pipeline
// (Adam on the mean squared residual). Construction is fail-fast: an
// invalid problem never reaches graph building.
func NewSolver(backend backends.Backend, p *Problem, network Network) (*Solver, error) {
	if backend == nil {
		return nil, errors.Wrap(ErrConfig, "nil backend")
	}
	if network == nil {
		return nil, errors.Wrap(ErrConfig, "nil network")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		backend: backend,
		ctx:     context.New(),
		problem: p,
		network: network,
	}
	s.trainer = train.NewTrainer(backend, s.ctx, s.modelFn, losses.MeanSquaredError,
		optimizers.Adam().Done(), nil, nil)
	s.loop = train.NewLoop(s.trainer)
	klog.V(1).Infof("pde: solver over %d coordinates, domain %v", p.NumDims(), p.Domain)
	return s, nil
}

// Context returns the solver's variable context (network weights,
// addendum multipliers, time-multiplier scales).
func (s *Solver) Context() *context.Context { return s.ctx }

// solution builds the bound solution graph for one batch of points.
func (s *Solver) solution(ctx *context.Context, coords *Coordinates) *graph.Node {
	net := s.network(ctx.In("network"), coords.Points())
	bound, err := BindConditions(ctx, s.problem, coords, net)
	if err != nil {
		exceptions.Panicf("pde: binding conditions: %+v", err)
	}
	return bound
}

// modelFn is the trainer's graph-building function: the PDE residual of
// the bound solution, minus the right-hand side. The training labels are
// zeros, so the mean-squared-error loss is the mean squared residual.
func (s *Solver) modelFn(ctx *context.Context, spec any, inputs []*graph.Node) []*graph.Node {
	_ = spec
	coords := SplitPoints(inputs[0])
	solution := s.solution(ctx, coords)
	residual, err := NewResidual(ctx, s.problem, coords, "predictions")
	if err != nil {
		exceptions.Panicf("pde: building residual: %+v", err)
	}
	out := residual.Compute(solution)
	if !s.problem.RHS.IsZero() {
		out = graph.Sub(out, s.problem.RHS.materialize(coords.Points()))
	}
	return []*graph.Node{out}
}

// Fit trains for the given number of steps on batches drawn from ds.
func (s *Solver) Fit(ds train.Dataset, steps int) error {
	klog.V(1).Infof("pde: training %q for %d steps", ds.Name(), steps)
	_, err := s.loop.RunSteps(ds, steps)
	return err
}

// Solve evaluates the bound solution on a [batch, n] points tensor.
func (s *Solver) Solve(points *tensors.Tensor) (*tensors.Tensor, error) {
	if s.solveExec == nil {
		s.solveExec = context.NewExec(s.backend, s.ctx, func(ctx *context.Context, points *graph.Node) *graph.Node {
			return s.solution(ctx, SplitPoints(points))
		})
	}
	var result *tensors.Tensor
	err := exceptions.TryCatch[error](func() {
		result = s.solveExec.Call(points)[0]
	})
	if err != nil {
		return nil, errors.WithMessage(err, "pde: evaluating solution")
	}
	return result, nil
}

// Diagnose evaluates named diagnostic differentials of the bound solution
// (e.g. "dt", "d2xy") on a [batch, n] points tensor, for tracking during
// training. Results are keyed by operator string.
func (s *Solver) Diagnose(points *tensors.Tensor, ops ...string) (map[string]*tensors.Tensor, error) {
	n := s.problem.NumDims()
	for _, op := range ops {
		if _, err := ParseOperator(op, n); err != nil {
			return nil, err
		}
	}
	exec := context.NewExec(s.backend, s.ctx, func(ctx *context.Context, points *graph.Node) []*graph.Node {
		coords := SplitPoints(points)
		solution := s.solution(ctx, coords)
		outs := make([]*graph.Node, len(ops))
		for i, op := range ops {
			diag, err := Output(ctx, op, coords)
			if err != nil {
				exceptions.Panicf("pde: building output %q: %+v", op, err)
			}
			outs[i] = diag.Compute(solution)
		}
		return outs
	})
	var results []*tensors.Tensor
	err := exceptions.TryCatch[error](func() {
		results = exec.Call(points)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "pde: evaluating outputs")
	}
	byName := make(map[string]*tensors.Tensor, len(ops))
	for i, op := range ops {
		byName[op] = results[i]
	}
	return byName, nil
}
