package featurevector

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testDescriptor(t *testing.T) *Descriptor {
	desc, err := NewDescriptor([]string{"N", "V", "D"}, 1, []FeatureSpec{
		{Name: "bias", Cardinality: 1},
		{Name: "initcap", Cardinality: 2},
		{Name: "suffix", Cardinality: 4, Offset: 1},
	})
	require.NoError(t, err)
	return desc
}

func randomWeights(desc *Descriptor, r *rand.Rand) *FeatureVector {
	v := New(desc)
	for i := 0; i < v.NumBlocks(); i++ {
		rows, cols := v.Block(i).Dims()
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				v.Set(i, row, col, r.NormFloat64())
			}
		}
	}
	return v
}

func TestNewShapes(t *testing.T) {
	desc := testDescriptor(t)
	v := New(desc)

	require.Equal(t, 4, v.NumBlocks())
	for i, f := range desc.Features() {
		r, c := v.Block(i).Dims()
		assert.Equal(t, 3, r)
		assert.Equal(t, f.Cardinality, c)
	}
	r, c := v.PairwisePotential().Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.True(t, v.IsZero())
	assert.NoError(t, v.CheckShape(desc))
}

func TestDescriptorValidation(t *testing.T) {
	_, err := NewDescriptor(nil, 0, []FeatureSpec{{Name: "a", Cardinality: 1}})
	assert.Error(t, err)

	_, err = NewDescriptor([]string{"A"}, 0, nil)
	assert.Error(t, err)

	_, err = NewDescriptor([]string{"A", "A"}, 0, []FeatureSpec{{Name: "a", Cardinality: 1}})
	assert.Error(t, err)

	_, err = NewDescriptor([]string{"A"}, 0, []FeatureSpec{{Name: "a", Cardinality: 0}})
	assert.Error(t, err)

	_, err = NewDescriptor([]string{"A"}, 0, []FeatureSpec{{Name: "a", Cardinality: 1}, {Name: "a", Cardinality: 2}})
	assert.Error(t, err)

	desc := testDescriptor(t)
	assert.Equal(t, "V", desc.TagName(1))
	assert.Equal(t, "7", desc.TagName(7))
	idx, ok := desc.TagIndex("D")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, []string{"0", "1", "2"}, TagNames(3))
}

func TestNodePotential(t *testing.T) {
	desc := testDescriptor(t)
	v := New(desc)
	v.Set(0, 0, 0, 1)
	v.Set(0, 2, 0, -1)
	v.Set(1, 1, 1, 2)
	v.Set(2, 1, 3, 0.5)
	v.Set(2, 2, 2, 4)

	node, err := v.NodePotential([]int{0, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -1}, node)

	_, err = v.NodePotential([]int{0, 2, 0})
	assert.Equal(t, ErrInvalidFeatureValue, errors.Cause(err))

	_, err = v.NodePotential([]int{0, 1})
	assert.Equal(t, ErrInvalidFeatureValue, errors.Cause(err))

	_, err = v.NodePotential([]int{0, 1, -1})
	assert.True(t, errors.Is(err, ErrInvalidFeatureValue))
}

func TestPairwisePotentialIsTransitionBlock(t *testing.T) {
	v := New(testDescriptor(t))
	v.Set(3, 0, 2, 7)
	assert.Equal(t, 7.0, v.PairwisePotential().At(0, 2))
	assert.Equal(t, 0.0, v.PairwisePotential().At(2, 0))
}

func TestArithmetic(t *testing.T) {
	desc := testDescriptor(t)
	r := rand.New(rand.NewSource(1))
	a, b := randomWeights(desc, r), randomWeights(desc, r)

	sum, err := Add(a, b)
	require.NoError(t, err)
	diff, err := Sub(sum, b)
	require.NoError(t, err)
	assert.True(t, diff.EqualApprox(a, 1e-12))

	doubled := Scale(a, 2)
	inPlace := a.Copy()
	require.NoError(t, inPlace.AddScaled(a, 1))
	assert.True(t, doubled.EqualApprox(inPlace, 1e-12))

	// pure operations leave their inputs alone
	assert.False(t, a.Equal(doubled))
}

func TestAdditiveInverse(t *testing.T) {
	desc := testDescriptor(t)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		w := randomWeights(desc, r)
		zero, err := Add(w, Scale(w, -1))
		require.NoError(t, err)
		assert.True(t, zero.IsZero())
		assert.True(t, zero.Equal(New(desc)))
	}
}

func TestShapeMismatch(t *testing.T) {
	a := New(testDescriptor(t))
	other, err := NewDescriptor([]string{"N", "V"}, 0, []FeatureSpec{{Name: "bias", Cardinality: 1}})
	require.NoError(t, err)
	b := New(other)

	_, err = Add(a, b)
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
	_, err = Sub(a, b)
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
	_, err = Dot(a, b)
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
	assert.Equal(t, ErrShapeMismatch, errors.Cause(a.AddScaled(b, 1)))
	assert.Equal(t, ErrShapeMismatch, errors.Cause(a.CheckShape(other)))
	assert.False(t, a.Equal(b))
}

func TestEmpiricalCounts(t *testing.T) {
	desc := testDescriptor(t)
	x := [][]int{{0, 1, 0}, {0, 0, 3}, {0, 0, 3}, {0, 1, 2}}
	y := []int{2, 0, 1, 1}

	counts, err := Empirical(desc, x, y)
	require.NoError(t, err)

	pairTotal := mat.Sum(counts.PairwisePotential())
	assert.Equal(t, float64(len(x)-1), pairTotal)
	assert.Equal(t, 1.0, counts.At(3, 2, 0))
	assert.Equal(t, 1.0, counts.At(3, 0, 1))
	assert.Equal(t, 1.0, counts.At(3, 1, 1))

	for i := 0; i < desc.NumFeatures(); i++ {
		assert.Equal(t, float64(len(x)), mat.Sum(counts.Block(i)), "unary block %d", i)
		_, cols := counts.Block(i).Dims()
		for col := 0; col < cols; col++ {
			colSum := mat.Sum(counts.Block(i).(*mat.Dense).ColView(col))
			expected := 0.0
			for _, token := range x {
				if token[i] == col {
					expected++
				}
			}
			assert.Equal(t, expected, colSum, "block %d column %d", i, col)
		}
	}
	assert.Equal(t, 1.0, counts.At(2, 1, 3))
	assert.Equal(t, 1.0, counts.At(2, 1, 2))
	assert.Equal(t, 1.0, counts.At(2, 0, 3))
}

func TestEmpiricalSingleToken(t *testing.T) {
	desc := testDescriptor(t)
	counts, err := Empirical(desc, [][]int{{0, 1, 1}}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, mat.Sum(counts.PairwisePotential()))
	for i := 0; i < desc.NumFeatures(); i++ {
		assert.Equal(t, 1.0, mat.Sum(counts.Block(i)))
	}
}

func TestEmpiricalErrors(t *testing.T) {
	desc := testDescriptor(t)

	_, err := Empirical(desc, nil, nil)
	assert.Equal(t, ErrEmptySequence, errors.Cause(err))

	_, err = Empirical(desc, [][]int{{0, 0, 0}}, []int{0, 1})
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))

	_, err = Empirical(desc, [][]int{{0, 0, 0}}, []int{3})
	assert.Equal(t, ErrInvalidTag, errors.Cause(err))

	_, err = Empirical(desc, [][]int{{1, 0, 0}}, []int{0})
	assert.Equal(t, ErrInvalidFeatureValue, errors.Cause(err))

	_, err = Empirical(desc, [][]int{{0, 0, 0}, {0, 0}}, []int{0, 0})
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
	assert.Contains(t, err.Error(), "token 1")
}

func TestScoreMatchesPotentials(t *testing.T) {
	desc := testDescriptor(t)
	w := randomWeights(desc, rand.New(rand.NewSource(3)))
	x := [][]int{{0, 1, 0}, {0, 0, 3}, {0, 1, 2}}
	y := []int{2, 0, 1}

	expected := 0.0
	for pos, token := range x {
		node, err := w.NodePotential(token)
		require.NoError(t, err)
		expected += node[y[pos]]
		if pos > 0 {
			expected += w.PairwisePotential().At(y[pos-1], y[pos])
		}
	}
	score, err := w.Score(x, y)
	require.NoError(t, err)
	assert.InDelta(t, expected, score, 1e-12)
}

func TestSerializeRoundTrip(t *testing.T) {
	desc := testDescriptor(t)
	w := randomWeights(desc, rand.New(rand.NewSource(5)))

	restored, err := Deserialize(w.Serialize())
	require.NoError(t, err)
	assert.True(t, restored.Equal(w))
	assert.True(t, restored.Descriptor().Equal(desc))

	s := w.Serialize()
	s.Blocks[0].Data = s.Blocks[0].Data[1:]
	_, err = Deserialize(s)
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
}
