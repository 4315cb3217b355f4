package perceptron

import (
	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/pkg/errors"
)

var ErrInvalidIterations = errors.New("iterations must be at least 1")

// Decoder produces the highest scoring tag sequence of x under weights w.
type Decoder interface {
	Decode(w *featurevector.FeatureVector, x [][]int) ([]int, error)
}

// UpdateStrategy observes the weights after every inner training step and
// decides what the trainer finally returns.
type UpdateStrategy interface {
	Init(m *featurevector.FeatureVector, iterations, instances int)
	Update(m *featurevector.FeatureVector) error
	Finalize(m *featurevector.FeatureVector) *featurevector.FeatureVector
}

// IterationStats summarizes one pass over the training samples.
type IterationStats struct {
	Iteration int
	// Failed counts samples whose decoded sequence differed from gold
	Failed int
	// TokenErrors counts mistagged tokens across the pass
	TokenErrors int
	Tokens      int
}
