// Package maxsum decodes linear-chain CRFs by max-sum belief propagation.
//
// Forward and backward messages are passed along the chain; since a chain
// is a tree, the sum of a node's potential with both incoming messages is
// its exact max-marginal and its argmax is the node's MAP tag.
package maxsum

import (
	"math"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Decoder is safe for concurrent use as long as the weights passed to it
// are not mutated during the call.
type Decoder struct {
	// Descriptor, when set, is checked against the layout of the weights.
	Descriptor *featurevector.Descriptor
}

type Result struct {
	Tags []int
	// MaxMarginals[i][t] is the best chain score with position i tagged t,
	// up to a per-position constant.
	MaxMarginals [][]float64
	Forward      [][]float64
	Backward     [][]float64
	Score        float64
}

func (d *Decoder) Decode(w *featurevector.FeatureVector, x [][]int) ([]int, error) {
	result, err := d.DecodeMarginals(w, x)
	if err != nil {
		return nil, err
	}
	return result.Tags, nil
}

func (d *Decoder) DecodeMarginals(w *featurevector.FeatureVector, x [][]int) (*Result, error) {
	if d.Descriptor != nil {
		if err := w.CheckShape(d.Descriptor); err != nil {
			return nil, err
		}
	}
	chain, err := NewChain(w, x)
	if err != nil {
		return nil, err
	}
	fwd, err := chain.Forward()
	if err != nil {
		return nil, err
	}
	bwd, err := chain.Backward()
	if err != nil {
		return nil, err
	}

	marginals := make([][]float64, chain.Len())
	for i, node := range chain.Nodes {
		marginals[i] = make([]float64, chain.NumTags())
		floats.AddTo(marginals[i], node, fwd[i])
		floats.Add(marginals[i], bwd[i])
		if err := checkMarginal(marginals[i]); err != nil {
			return nil, errors.WithMessagef(err, "position %d", i)
		}
	}

	tags := backtrack(chain, marginals, bwd)
	return &Result{
		Tags:         tags,
		MaxMarginals: marginals,
		Forward:      fwd,
		Backward:     bwd,
		Score:        chain.Score(tags),
	}, nil
}

// backtrack reads a single consistent assignment off the max-marginals: the
// first tag is the argmax of its max-marginal and each following tag is the
// best continuation of its predecessor given the backward message. With a
// unique maximum at every position this is the per-position argmax; under
// ties it still yields an assignment of maximal score.
func backtrack(chain *Chain, marginals, bwd [][]float64) []int {
	tags := make([]int, chain.Len())
	tags[0] = floats.MaxIdx(marginals[0])
	scores := make([]float64, chain.NumTags())
	for i := 1; i < chain.Len(); i++ {
		for t := range scores {
			scores[t] = chain.Pairwise.At(tags[i-1], t) + chain.Nodes[i][t] + bwd[i][t]
		}
		tags[i] = floats.MaxIdx(scores)
	}
	return tags
}

func checkMarginal(m []float64) error {
	if floats.HasNaN(m) {
		return errors.Wrap(ErrDegenerateMessage, "max-marginal contains NaN")
	}
	switch best := floats.Max(m); {
	case math.IsInf(best, -1):
		return errors.Wrap(ErrDegenerateMessage, "max-marginal has no finite entry")
	case math.IsInf(best, 1):
		return errors.Wrap(ErrDegenerateMessage, "max-marginal is unbounded")
	}
	return nil
}
