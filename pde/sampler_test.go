package pde

import (
	"testing"

	"github.com/pkg/errors"
)

func TestNewUniformSamplerValidation(t *testing.T) {
	if _, err := NewUniformSampler(nil, 8, 1); !errors.Is(err, ErrConfig) {
		t.Errorf("empty domain = %v, want ErrConfig", err)
	}
	if _, err := NewUniformSampler([][2]float64{{1, 1}}, 8, 1); !errors.Is(err, ErrConfig) {
		t.Errorf("empty range = %v, want ErrConfig", err)
	}
	if _, err := NewUniformSampler([][2]float64{{0, 1}}, 0, 1); !errors.Is(err, ErrConfig) {
		t.Errorf("zero batch = %v, want ErrConfig", err)
	}
}

func TestUniformSamplerYield(t *testing.T) {
	domain := [][2]float64{{0, 1}, {2, 3}}
	s, err := NewUniformSampler(domain, 8, 1)
	if err != nil {
		t.Fatalf("NewUniformSampler() failed: %v", err)
	}
	if s.Name() != "uniform" {
		t.Errorf("Name() = %q", s.Name())
	}

	_, inputs, labels, err := s.Yield()
	if err != nil {
		t.Fatalf("Yield() failed: %v", err)
	}
	if len(inputs) != 1 || len(labels) != 1 {
		t.Fatalf("Yield() returned %d inputs, %d labels, want 1 and 1", len(inputs), len(labels))
	}
	points := inputs[0].Value().([][]float64)
	if len(points) != 8 {
		t.Fatalf("batch has %d rows, want 8", len(points))
	}
	for r, row := range points {
		if len(row) != 2 {
			t.Fatalf("row %d has %d coordinates, want 2", r, len(row))
		}
		for i, v := range row {
			if v < domain[i][0] || v >= domain[i][1] {
				t.Errorf("row %d coordinate %d = %v, outside [%g, %g)", r, i, v, domain[i][0], domain[i][1])
			}
		}
	}
	zeros := labels[0].Value().([][]float64)
	for r, row := range zeros {
		if row[0] != 0 {
			t.Errorf("label row %d = %v, want 0", r, row[0])
		}
	}
}

// Same seed, same stream; Reset does not rewind.
func TestUniformSamplerSeed(t *testing.T) {
	a, err := NewUniformSampler([][2]float64{{0, 1}}, 4, 7)
	if err != nil {
		t.Fatalf("NewUniformSampler() failed: %v", err)
	}
	b, err := NewUniformSampler([][2]float64{{0, 1}}, 4, 7)
	if err != nil {
		t.Fatalf("NewUniformSampler() failed: %v", err)
	}
	_, ia, _, _ := a.Yield()
	b.Reset()
	_, ib, _, _ := b.Yield()
	va := ia[0].Value().([][]float64)
	vb := ib[0].Value().([][]float64)
	for r := range va {
		if va[r][0] != vb[r][0] {
			t.Errorf("row %d: %v != %v with the same seed", r, va[r][0], vb[r][0])
		}
	}
	_, ia2, _, _ := a.Yield()
	va2 := ia2[0].Value().([][]float64)
	same := true
	for r := range va {
		if va[r][0] != va2[r][0] {
			same = false
		}
	}
	if same {
		t.Error("consecutive batches are identical")
	}
}
