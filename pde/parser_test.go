package pde

import (
	"testing"

	"github.com/gomlx/gomlx/graph"
	"github.com/pkg/errors"
)

func isUnit(c Coeff) bool { return c.fn == nil && c.value == 1 }

// d1Hot checks that D1 has unit entries exactly at the given indices.
func d1Hot(t *testing.T, f *Form, n int, hot ...int) {
	t.Helper()
	if len(f.D1) != n {
		t.Fatalf("D1 has %d entries, want %d", len(f.D1), n)
	}
	if f.D2 != nil {
		t.Fatalf("order-1 form has a D2 matrix")
	}
	want := make(map[int]bool, len(hot))
	for _, i := range hot {
		want[i] = true
	}
	for i, c := range f.D1 {
		switch {
		case want[i] && !isUnit(c):
			t.Errorf("D1[%d] = %+v, want 1", i, c)
		case !want[i] && !c.IsZero():
			t.Errorf("D1[%d] = %+v, want 0", i, c)
		}
	}
}

// d2Unit checks that D2 has a single unit entry at (i, j).
func d2Unit(t *testing.T, f *Form, n, i, j int) {
	t.Helper()
	if f.D1 != nil {
		t.Fatalf("order-2 form has a D1 vector")
	}
	if len(f.D2) != n {
		t.Fatalf("D2 has %d rows, want %d", len(f.D2), n)
	}
	for r := range f.D2 {
		for c := range f.D2[r] {
			entry := f.D2[r][c]
			switch {
			case r == i && c == j && !isUnit(entry):
				t.Errorf("D2[%d][%d] = %+v, want 1", r, c, entry)
			case (r != i || c != j) && !entry.IsZero():
				t.Errorf("D2[%d][%d] = %+v, want 0", r, c, entry)
			}
		}
	}
}

func TestParseOperatorFirstOrder(t *testing.T) {
	tests := []struct {
		op  string
		n   int
		hot []int
	}{
		{"dx", 4, []int{0}},
		{"dy", 4, []int{1}},
		{"dz", 4, []int{2}},
		{"dt", 4, []int{3}},  // t maps to the last coordinate
		{"dt", 2, []int{1}},  // ... whatever its index is
		{"d1x", 4, []int{0}}, // explicit order 1
		{"dx2", 4, []int{2}}, // explicit argument index
		{"dx0", 4, []int{0}},
		{"d x", 4, []int{0}},    // whitespace is stripped
		{"d_t", 4, []int{3}},    // underscores too
		{"dxy", 4, []int{0, 1}}, // letter pair: two-hot
		{"dxt", 4, []int{0, 3}},
		{"dx1", 4, []int{1}}, // ambiguous: numeric index wins over pair "x,?"
	}
	for _, tc := range tests {
		f, err := ParseOperator(tc.op, tc.n)
		if err != nil {
			t.Errorf("ParseOperator(%q, %d) failed: %v", tc.op, tc.n, err)
			continue
		}
		d1Hot(t, f, tc.n, tc.hot...)
	}
}

func TestParseOperatorSecondOrder(t *testing.T) {
	tests := []struct {
		op   string
		n    int
		i, j int
	}{
		{"d2x", 3, 0, 0}, // single letter duplicates onto the diagonal
		{"d2t", 3, 2, 2},
		{"d2xy", 3, 0, 1}, // mixed partials are not symmetrized
		{"d2yx", 3, 1, 0},
		{"d2xt", 3, 0, 2},
		{"d2x1", 3, 1, 1},
		{"d2x0x2", 3, 0, 2}, // explicit index pair
		{"d2x5x8", 9, 5, 8},
	}
	for _, tc := range tests {
		f, err := ParseOperator(tc.op, tc.n)
		if err != nil {
			t.Errorf("ParseOperator(%q, %d) failed: %v", tc.op, tc.n, err)
			continue
		}
		d2Unit(t, f, tc.n, tc.i, tc.j)
	}
}

func TestParseOperatorErrors(t *testing.T) {
	tests := []struct {
		op       string
		n        int
		sentinel error
	}{
		{"2x", 2, ErrParse},   // must start with 'd'
		{"dr", 2, ErrParse},   // unknown coordinate
		{"dxq", 2, ErrParse},  // unknown pair
		{"dxyz", 4, ErrParse}, // three coordinates
		{"d3x", 2, ErrParse},  // order 3
		{"d0x", 2, ErrParse},  // order 0
		{"d", 2, ErrParse},    // no coordinates at all
		{"d2", 2, ErrParse},
		{"dx5x8", 9, ErrParse},  // index pairs require order 2
		{"dz", 2, ErrParse},     // z is index 2, out of range
		{"dx3", 2, ErrParse},    // explicit index out of range
		{"d2x5x8", 4, ErrParse}, // pair out of range
		{"dx", 0, ErrConfig},    // no coordinates to parse over
	}
	for _, tc := range tests {
		_, err := ParseOperator(tc.op, tc.n)
		if !errors.Is(err, tc.sentinel) {
			t.Errorf("ParseOperator(%q, %d) = %v, want %v", tc.op, tc.n, err, tc.sentinel)
		}
	}
}

func TestFormDims(t *testing.T) {
	if got := NewForm(3).Dims(); got != 3 {
		t.Errorf("NewForm(3).Dims() = %d, want 3", got)
	}
	f := &Form{D0: Const(1)}
	if got := f.Dims(); got != 0 {
		t.Errorf("Dims() of a d0-only form = %d, want 0", got)
	}
	if !NewForm(2).IsZero() {
		t.Error("fresh form is not zero")
	}
	f = NewForm(2)
	f.D2[1][0] = Fn(func(points *graph.Node) *graph.Node { return points })
	if f.IsZero() {
		t.Error("form with a functional coefficient reported zero")
	}
}

func TestFormValidate(t *testing.T) {
	f := &Form{D1: make([]Coeff, 2)}
	if err := f.validate(3); !errors.Is(err, ErrConfig) {
		t.Errorf("validate(3) of a 2-entry d1 = %v, want ErrConfig", err)
	}
	f = &Form{D2: [][]Coeff{{{}, {}}, {{}}}}
	if err := f.validate(2); !errors.Is(err, ErrConfig) {
		t.Errorf("validate of a ragged d2 = %v, want ErrConfig", err)
	}
}

func TestScaleFormNilSafety(t *testing.T) {
	var s *ScaleForm
	if s.d0() != 0 || s.d1(1) != 0 || s.d2(0, 1) != 0 || s.rhs() != 0 {
		t.Error("nil ScaleForm accessors returned nonzero")
	}
	if err := s.validate(3, "noise"); err != nil {
		t.Errorf("nil ScaleForm validate = %v", err)
	}
	s = &ScaleForm{D1: []float64{1}}
	if err := s.validate(2, "noise"); !errors.Is(err, ErrConfig) {
		t.Errorf("short d1 validate = %v, want ErrConfig", err)
	}
}
