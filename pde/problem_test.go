package pde

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func heatForm(n int) *Form {
	f := NewForm(n)
	f.D1[n-1] = Const(1)   // dt
	f.D2[0][0] = Const(-1) // -d2x
	return f
}

func TestProblemValidate(t *testing.T) {
	tests := []struct {
		name    string
		problem *Problem
		wantMsg string
	}{
		{
			name:    "missing form",
			problem: &Problem{},
			wantMsg: "form is not specified",
		},
		{
			name:    "no dimensionality",
			problem: &Problem{Form: &Form{D0: Const(1)}},
			wantMsg: "cannot infer dimensionality",
		},
		{
			name:    "all-zero form",
			problem: &Problem{Form: NewForm(2)},
			wantMsg: "nothing to compute",
		},
		{
			name: "noise dimension mismatch",
			problem: &Problem{
				Form:  heatForm(2),
				Noise: &ScaleForm{D1: []float64{1}},
			},
			wantMsg: "noise d1",
		},
		{
			name: "addendum dimension mismatch",
			problem: &Problem{
				Form:     heatForm(2),
				Addendum: &ScaleForm{D2: [][]float64{{0, 0}}},
			},
			wantMsg: "addendum d2",
		},
		{
			name: "domain dimension mismatch",
			problem: &Problem{
				Form:   heatForm(2),
				Domain: [][2]float64{{0, 1}},
			},
			wantMsg: "domain has 1",
		},
		{
			name: "empty domain range",
			problem: &Problem{
				Form:   heatForm(2),
				Domain: [][2]float64{{0, 1}, {3, 3}},
			},
			wantMsg: "range 1 is empty",
		},
		{
			name: "too many initial conditions",
			problem: &Problem{
				Form:              heatForm(2),
				InitialConditions: []Coeff{Const(0), Const(0), Const(0)},
			},
			wantMsg: "at most two initial conditions",
		},
		{
			name: "unknown time multiplier family",
			problem: &Problem{
				Form:           heatForm(2),
				TimeMultiplier: TimeFamily(9),
			},
			wantMsg: "time multiplier family",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.problem.Validate()
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("Validate() = %v, want ErrConfig", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("Validate() = %q, want message containing %q", err, tc.wantMsg)
			}
		})
	}
}

func TestProblemValidateDefaults(t *testing.T) {
	p := &Problem{Form: heatForm(3)}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if p.NumDims() != 3 {
		t.Errorf("NumDims() = %d, want 3", p.NumDims())
	}
	if len(p.Domain) != 3 {
		t.Fatalf("default domain has %d ranges, want 3", len(p.Domain))
	}
	for i, bounds := range p.Domain {
		if bounds != [2]float64{0, 1} {
			t.Errorf("default domain[%d] = %v, want the unit range", i, bounds)
		}
	}
}

func TestNoiseDistributionString(t *testing.T) {
	if NoiseNormal.String() != "normal" || NoiseUniform.String() != "uniform" {
		t.Errorf("got %q / %q", NoiseNormal, NoiseUniform)
	}
}
