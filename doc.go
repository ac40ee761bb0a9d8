// Package galerkin compiles symbolic descriptions of partial differential
// equations into GoMLX computation graphs.
//
// It implements the Deep Galerkin method (Sirignano & Spiliopoulos,
// https://arxiv.org/abs/1708.07469): a neural network approximates the PDE
// solution, and the PDE residual — evaluated with automatic differentiation —
// is minimized as the training loss.
//
// # Architecture
//
// The module is organized into several sub-packages:
//
//   - symexpr: expression trees with lazy compile/evaluate semantics and
//     named token registries bound to a math backend
//   - symexpr/graphmath: the tensor-graph backend (GoMLX), with "D" bound
//     to graph.Gradient
//   - symexpr/floatmath: the scalar backend over the standard math library
//   - pde: operator-string parsing ("dt", "d2xy", ...), coefficient forms,
//     the differential-form residual evaluator, condition binding and a
//     training wrapper
//
// # Usage
//
// A heat equation ∂f/∂t − ∂²f/∂x² = 5 on [0,1]×[0,3]:
//
//	problem := &pde.Problem{
//		Form: &pde.Form{
//			D1: []pde.Coeff{pde.Const(0), pde.Const(1)},
//			D2: [][]pde.Coeff{
//				{pde.Const(-1), pde.Const(0)},
//				{pde.Const(0), pde.Const(0)},
//			},
//		},
//		RHS:    pde.Const(5),
//		Domain: [][2]float64{{0, 1}, {0, 3}},
//		InitialConditions: []pde.Coeff{
//			pde.Fn(func(xs *graph.Node) *graph.Node {
//				return graph.Sin(graph.MulScalar(xs, 2*math.Pi))
//			}),
//		},
//		BindConditions: true,
//	}
//	solver, err := pde.NewSolver(backend, problem, pde.MLP(32, 32))
//	if err != nil { ... }
//	sampler, err := pde.NewUniformSampler(problem.Domain, 1024, 0)
//	if err != nil { ... }
//	err = solver.Fit(sampler, 3000)
//
// The residual compiler can also be used standalone: see pde.NewResidual and
// pde.ParseOperator.
package galerkin
