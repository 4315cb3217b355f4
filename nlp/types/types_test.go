package types

import (
	"testing"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagsEqual(t *testing.T) {
	assert.True(t, Tags{0, 1, 2}.Equal(Tags{0, 1, 2}))
	assert.False(t, Tags{0, 1, 2}.Equal(Tags{0, 1}))
	assert.False(t, Tags{0, 1, 2}.Equal(Tags{0, 2, 2}))
	assert.False(t, Tags{0}.Equal(nil))
}

func TestTagsMismatches(t *testing.T) {
	assert.Equal(t, 0, Tags{1, 1}.Mismatches(Tags{1, 1}))
	assert.Equal(t, 2, Tags{1, 0, 1}.Mismatches(Tags{0, 0, 0}))
	assert.Equal(t, 2, Tags{1}.Mismatches(Tags{0, 0}))
}

func TestSampleValidate(t *testing.T) {
	desc, err := featurevector.NewDescriptor([]string{"A", "B"}, 0, []featurevector.FeatureSpec{
		{Name: "bias", Cardinality: 1},
		{Name: "cap", Cardinality: 2},
	})
	require.NoError(t, err)

	good := Sample{Name: "good", Tokens: []string{"The", "dog"}, X: [][]int{{0, 1}, {0, 0}}, Y: Tags{0, 1}}
	assert.NoError(t, good.Validate(desc))
	assert.Equal(t, []string{"A", "B"}, good.Y.Names(desc))

	short := Sample{Name: "short", X: [][]int{{0, 1}, {0, 0}}, Y: Tags{0}}
	assert.Equal(t, featurevector.ErrShapeMismatch, errors.Cause(short.Validate(desc)))

	bad := Sample{Name: "bad", X: [][]int{{0, 2}}, Y: Tags{0}}
	assert.Equal(t, featurevector.ErrInvalidFeatureValue, errors.Cause(bad.Validate(desc)))

	wide := Sample{Name: "wide", X: [][]int{{0, 1, 0}}, Y: Tags{0}}
	assert.Equal(t, featurevector.ErrShapeMismatch, errors.Cause(wide.Validate(desc)))

	empty := Sample{Name: "empty", X: [][]int{}, Y: Tags{}}
	assert.Equal(t, featurevector.ErrEmptySequence, errors.Cause(empty.Validate(desc)))

	assert.Equal(t, ErrEmptyDataset, errors.Cause(Dataset{}.Validate(desc)))
	assert.Equal(t, 2, Dataset{good}.NumTokens())
	assert.NoError(t, Dataset{good}.Validate(desc))
}
