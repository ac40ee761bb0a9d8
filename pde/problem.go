package pde

import (
	"github.com/pkg/errors"
)

// NoiseDistribution selects the distribution noise coefficients are drawn
// from.
type NoiseDistribution int

const (
	// NoiseNormal draws from a normal distribution with stddev = scale.
	NoiseNormal NoiseDistribution = iota
	// NoiseUniform draws uniformly from [-scale, scale).
	NoiseUniform
)

func (d NoiseDistribution) String() string {
	switch d {
	case NoiseNormal:
		return "normal"
	case NoiseUniform:
		return "uniform"
	}
	return "unknown"
}

// NoiseConfig configures the noise perturbation of coefficients, used to
// simulate uncertainty in the PDE and make the learned solution robust.
type NoiseConfig struct {
	Distribution NoiseDistribution
}

// AddendumConfig configures the trainable addendum correction of
// coefficients. With no hidden layers the addendum is a bare scalar
// multiplier; otherwise the multiplier scales a small dense sub-network
// of the points. Multipliers are zero-initialized, so an addendum has no
// effect until it is explicitly trained.
type AddendumConfig struct {
	HiddenLayers []int
}

// TimeFamily selects the functional family of the time multiplier used to
// bind initial conditions.
type TimeFamily int

const (
	// TimeSigmoid works better in problems with asymptotic steady
	// states (heat equation, e.g.).
	TimeSigmoid TimeFamily = iota
	// TimePolynomial uses low-order polynomials of the shifted time.
	TimePolynomial
)

// Problem is the full description of a PDE problem over a rectangular
// domain:
//
//	Form(f) = RHS  on Domain,
//
// optionally perturbed by noise and trainable addenda, with boundary and
// initial conditions bound onto the network output when BindConditions
// is set.
//
// When InitialConditions is non-empty the problem is an evolution
// equation: the first n-1 coordinates are spatial and the last one is
// time. One initial condition fixes the initial state; a second one, if
// given, fixes the initial evolution rate (wave equation, e.g.).
type Problem struct {
	// Form holds the left-hand-side coefficients. Required.
	Form *Form

	// RHS is the right-hand side of the equation. Defaults to 0.
	RHS Coeff

	// Noise and Addendum perturb the coefficients of Form (and RHS):
	// nonzero noise entries add random perturbations of that scale,
	// nonzero addendum entries add trainable corrections.
	Noise    *ScaleForm
	Addendum *ScaleForm

	NoiseConfig    NoiseConfig
	AddendumConfig AddendumConfig

	// Domain lists per-coordinate [lower, upper] bounds. Defaults to
	// the unit box.
	Domain [][2]float64

	// InitialConditions holds one or two conditions at t = lower bound
	// of the time coordinate, as functions of the spatial points.
	InitialConditions []Coeff

	// BoundaryCondition is the value bound on the spatial boundary when
	// no initial condition is given. Defaults to 0.
	BoundaryCondition Coeff

	// TimeMultiplier selects the family used to bind initial
	// conditions.
	TimeMultiplier TimeFamily

	// BindConditions enables the ansatz transform of the network
	// output.
	BindConditions bool
}

// NumDims returns the coordinate count declared by the form, or 0 when no
// form is set.
func (p *Problem) NumDims() int {
	if p.Form == nil {
		return 0
	}
	return p.Form.Dims()
}

// Validate checks the problem and fills defaults (unit-box domain). It
// fails fast, before any graph is built.
func (p *Problem) Validate() error {
	if p.Form == nil {
		return errors.Wrap(ErrConfig, "the PDE form is not specified")
	}
	n := p.Form.Dims()
	if n == 0 {
		return errors.Wrap(ErrConfig, "cannot infer dimensionality: the form declares neither d1 nor d2 coefficients")
	}
	if err := p.Form.validate(n); err != nil {
		return err
	}
	if p.Form.IsZero() {
		return errors.Wrap(ErrConfig, "nothing to compute: some coefficient in the form must be non-zero")
	}
	if err := p.Noise.validate(n, "noise"); err != nil {
		return err
	}
	if err := p.Addendum.validate(n, "addendum"); err != nil {
		return err
	}
	if p.Domain == nil {
		p.Domain = make([][2]float64, n)
		for i := range p.Domain {
			p.Domain[i] = [2]float64{0, 1}
		}
	}
	if len(p.Domain) != n {
		return errors.Wrapf(ErrConfig, "domain has %d coordinate ranges, want %d", len(p.Domain), n)
	}
	for i, bounds := range p.Domain {
		if bounds[0] >= bounds[1] {
			return errors.Wrapf(ErrConfig, "domain range %d is empty: [%g, %g]", i, bounds[0], bounds[1])
		}
	}
	if len(p.InitialConditions) > 2 {
		return errors.Wrapf(ErrConfig, "at most two initial conditions are supported, got %d", len(p.InitialConditions))
	}
	switch p.TimeMultiplier {
	case TimeSigmoid, TimePolynomial:
	default:
		return errors.Wrapf(ErrConfig, "time multiplier family %d is not supported", p.TimeMultiplier)
	}
	return nil
}
