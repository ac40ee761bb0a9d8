package pde

import (
	"math/rand"

	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
)

// UniformSampler is an endless train.Dataset drawing batches of points
// uniformly from a rectangular domain. Labels are the zero targets of
// the residual loss.
type UniformSampler struct {
	name      string
	domain    [][2]float64
	batchSize int
	rng       *rand.Rand
}

// NewUniformSampler builds a sampler over the given per-coordinate
// [lower, upper] ranges. Pass seed 0 for a different stream per run.
func NewUniformSampler(domain [][2]float64, batchSize int, seed int64) (*UniformSampler, error) {
	if len(domain) == 0 {
		return nil, errors.Wrap(ErrConfig, "empty domain")
	}
	for i, bounds := range domain {
		if bounds[0] >= bounds[1] {
			return nil, errors.Wrapf(ErrConfig, "domain range %d is empty: [%g, %g]", i, bounds[0], bounds[1])
		}
	}
	if batchSize <= 0 {
		return nil, errors.Wrapf(ErrConfig, "batch size must be positive, got %d", batchSize)
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	return &UniformSampler{
		name:      "uniform",
		domain:    domain,
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Name implements train.Dataset.
func (s *UniformSampler) Name() string { return s.name }

// Yield implements train.Dataset: a fresh [batchSize, n] batch of points
// and the matching [batchSize, 1] zero labels. It never returns io.EOF;
// the training loop decides when to stop.
func (s *UniformSampler) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	n := len(s.domain)
	flat := make([]float64, s.batchSize*n)
	for row := 0; row < s.batchSize; row++ {
		for i, bounds := range s.domain {
			flat[row*n+i] = bounds[0] + s.rng.Float64()*(bounds[1]-bounds[0])
		}
	}
	points := tensors.FromFlatDataAndDimensions(flat, s.batchSize, n)
	zeros := tensors.FromFlatDataAndDimensions(make([]float64, s.batchSize), s.batchSize, 1)
	return nil, []*tensors.Tensor{points}, []*tensors.Tensor{zeros}, nil
}

// Reset implements train.Dataset. The sampler is stateless across
// epochs, so there is nothing to rewind.
func (s *UniformSampler) Reset() {}
