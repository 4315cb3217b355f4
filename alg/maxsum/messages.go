package maxsum

import (
	"math"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrDegenerateMessage = errors.New("degenerate message")

// Chain is the decoding context of one sequence: a node potential per
// position and the transition potential shared by every adjacent pair.
type Chain struct {
	Nodes    [][]float64
	Pairwise mat.Matrix
}

func NewChain(w *featurevector.FeatureVector, x [][]int) (*Chain, error) {
	if len(x) == 0 {
		return nil, featurevector.ErrEmptySequence
	}
	c := &Chain{Nodes: make([][]float64, len(x)), Pairwise: w.PairwisePotential()}
	for i, token := range x {
		node, err := w.NodePotential(token)
		if err != nil {
			return nil, errors.WithMessagef(err, "token %d", i)
		}
		c.Nodes[i] = node
	}
	return c, nil
}

func (c *Chain) Len() int     { return len(c.Nodes) }
func (c *Chain) NumTags() int { return len(c.Nodes[0]) }

// Score sums the node entries picked by tags and the transitions between them.
func (c *Chain) Score(tags []int) float64 {
	var retval float64
	for i, tag := range tags {
		retval += c.Nodes[i][tag]
		if i > 0 {
			retval += c.Pairwise.At(tags[i-1], tag)
		}
	}
	return retval
}

// Forward returns, for every position i, the message arriving at i from
// the left. The message into position 0 is zero.
func (c *Chain) Forward() ([][]float64, error) {
	msgs := make([][]float64, c.Len())
	msgs[0] = make([]float64, c.NumTags())
	for i := 0; i < c.Len()-1; i++ {
		out := send(msgs[i], c.Nodes[i], c.Pairwise, false)
		if err := normalize(out); err != nil {
			return nil, errors.WithMessagef(err, "forward message %d->%d", i, i+1)
		}
		msgs[i+1] = out
	}
	return msgs, nil
}

// Backward mirrors Forward from the right end of the chain.
func (c *Chain) Backward() ([][]float64, error) {
	last := c.Len() - 1
	msgs := make([][]float64, c.Len())
	msgs[last] = make([]float64, c.NumTags())
	for i := last; i > 0; i-- {
		out := send(msgs[i], c.Nodes[i], c.Pairwise, true)
		if err := normalize(out); err != nil {
			return nil, errors.WithMessagef(err, "backward message %d->%d", i, i-1)
		}
		msgs[i-1] = out
	}
	return msgs, nil
}

// send max-reduces the belief at one position (incoming message plus node
// potential) through the transition potential. Rightward messages are
// indexed by the next tag, leftward ones by the previous tag.
func send(in, node []float64, pairwise mat.Matrix, leftward bool) []float64 {
	numTags := len(in)
	belief := make([]float64, numTags)
	floats.AddTo(belief, in, node)
	out := make([]float64, numTags)
	for to := range out {
		best := math.Inf(-1)
		for from, b := range belief {
			var edge float64
			if leftward {
				edge = pairwise.At(to, from)
			} else {
				edge = pairwise.At(from, to)
			}
			s := b + edge
			if s > best || math.IsNaN(s) {
				best = s
				if math.IsNaN(s) {
					break
				}
			}
		}
		out[to] = best
	}
	return out
}

// normalize divides msg by its sum in the max-product domain, which in the
// additive domain is subtracting its log-sum-exp. Every entry moves by the
// same constant so no argmax changes. A message with no finite normalizer
// (all -Inf, or containing NaN or +Inf) is degenerate.
func normalize(msg []float64) error {
	if floats.HasNaN(msg) {
		return errors.Wrap(ErrDegenerateMessage, "message contains NaN")
	}
	z := floats.LogSumExp(msg)
	if math.IsInf(z, 0) || math.IsNaN(z) {
		return errors.Wrapf(ErrDegenerateMessage, "normalizer is %v", z)
	}
	floats.AddConst(-z, msg)
	return nil
}
