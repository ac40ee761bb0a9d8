// Package pde compiles coefficient descriptions of second-order partial
// differential equations into GoMLX residual graphs.
//
// A PDE's left-hand side is decomposed into a Form: a zeroth-order
// coefficient, a first-order coefficient vector, and a second-order
// coefficient matrix. Forms are either written out explicitly or parsed
// from compact operator strings ("dt", "d2xy", ...) with ParseOperator.
// NewResidual turns a Problem (form + right-hand side + optional noise
// and trainable-addendum perturbations) into a callable that computes the
// PDE residual of a network output via automatic differentiation.
package pde

import (
	"github.com/gomlx/gomlx/graph"
	"github.com/pkg/errors"
)

// Sentinel errors, wrapped with context at every failure site.
var (
	// ErrParse indicates an operator string that matches no supported
	// grammar shape.
	ErrParse = errors.New("cannot parse operator")

	// ErrConfig indicates an invalid problem configuration, e.g. a form
	// with nothing to compute.
	ErrConfig = errors.New("invalid configuration")
)

// Coeff is one coefficient of a differential form: either a constant or a
// function of the coordinate points (a [batch, n] node). The zero value
// is the constant 0.
type Coeff struct {
	value float64
	fn    func(points *graph.Node) *graph.Node
}

// Const returns a constant coefficient.
func Const(v float64) Coeff { return Coeff{value: v} }

// Fn returns a functional coefficient, evaluated on the concatenated
// coordinate tensor at graph-build time.
func Fn(f func(points *graph.Node) *graph.Node) Coeff { return Coeff{fn: f} }

// IsZero reports whether the coefficient is the constant 0.
func (c Coeff) IsZero() bool { return c.fn == nil && c.value == 0 }

// materialize builds the coefficient's graph node. Functional
// coefficients are reshaped to a [batch, 1] column.
func (c Coeff) materialize(points *graph.Node) *graph.Node {
	if c.fn != nil {
		return graph.Reshape(c.fn(points), -1, 1)
	}
	return graph.Scalar(points.Graph(), points.DType(), c.value)
}

// Form holds the coefficients of a linear differential operator of order
// up to two over n coordinates: D0 weighs the function value, D1[i] the
// first partial w.r.t. coordinate i, and D2[i][j] the mixed second
// partial w.r.t. coordinates i and j.
//
// Missing rows (nil D1, nil D2) mean all-zero coefficients of that order.
type Form struct {
	D0 Coeff
	D1 []Coeff
	D2 [][]Coeff
}

// NewForm returns an explicitly zeroed form over n coordinates.
func NewForm(n int) *Form {
	f := &Form{D1: make([]Coeff, n), D2: make([][]Coeff, n)}
	for i := range f.D2 {
		f.D2[i] = make([]Coeff, n)
	}
	return f
}

// Dims returns the number of coordinates the form is declared over, or 0
// if neither D1 nor D2 is set.
func (f *Form) Dims() int {
	if len(f.D1) > 0 {
		return len(f.D1)
	}
	return len(f.D2)
}

// IsZero reports whether every coefficient of the form is the constant 0.
func (f *Form) IsZero() bool {
	if !f.D0.IsZero() {
		return false
	}
	for _, c := range f.D1 {
		if !c.IsZero() {
			return false
		}
	}
	for _, row := range f.D2 {
		for _, c := range row {
			if !c.IsZero() {
				return false
			}
		}
	}
	return true
}

// validate checks internal dimension consistency against n coordinates.
func (f *Form) validate(n int) error {
	if f.D1 != nil && len(f.D1) != n {
		return errors.Wrapf(ErrConfig, "form d1 has %d entries, want %d", len(f.D1), n)
	}
	if f.D2 != nil {
		if len(f.D2) != n {
			return errors.Wrapf(ErrConfig, "form d2 has %d rows, want %d", len(f.D2), n)
		}
		for i, row := range f.D2 {
			if len(row) != n {
				return errors.Wrapf(ErrConfig, "form d2 row %d has %d entries, want %d", i, len(row), n)
			}
		}
	}
	return nil
}

// d1 returns the first-order coefficient for coordinate i (zero when the
// vector is absent).
func (f *Form) d1(i int) Coeff {
	if f.D1 == nil {
		return Coeff{}
	}
	return f.D1[i]
}

// d2 returns the second-order coefficient for the ordered pair (i, j).
func (f *Form) d2(i, j int) Coeff {
	if f.D2 == nil {
		return Coeff{}
	}
	return f.D2[i][j]
}

// ScaleForm holds plain scalar weights per differential order plus the
// right-hand side. It parameterizes the noise and addendum perturbations
// of a Problem: a nonzero entry enables (and for noise, scales) the
// perturbation of the matching coefficient.
type ScaleForm struct {
	D0  float64
	D1  []float64
	D2  [][]float64
	RHS float64
}

func (s *ScaleForm) d0() float64 {
	if s == nil {
		return 0
	}
	return s.D0
}

func (s *ScaleForm) d1(i int) float64 {
	if s == nil || s.D1 == nil {
		return 0
	}
	return s.D1[i]
}

func (s *ScaleForm) d2(i, j int) float64 {
	if s == nil || s.D2 == nil {
		return 0
	}
	return s.D2[i][j]
}

func (s *ScaleForm) rhs() float64 {
	if s == nil {
		return 0
	}
	return s.RHS
}

func (s *ScaleForm) validate(n int, what string) error {
	if s == nil {
		return nil
	}
	if s.D1 != nil && len(s.D1) != n {
		return errors.Wrapf(ErrConfig, "%s d1 has %d entries, want %d", what, len(s.D1), n)
	}
	if s.D2 != nil {
		if len(s.D2) != n {
			return errors.Wrapf(ErrConfig, "%s d2 has %d rows, want %d", what, len(s.D2), n)
		}
		for i, row := range s.D2 {
			if len(row) != n {
				return errors.Wrapf(ErrConfig, "%s d2 row %d has %d entries, want %d", what, i, len(row), n)
			}
		}
	}
	return nil
}
