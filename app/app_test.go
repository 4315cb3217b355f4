package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/acompa/chaincrf/nlp/format/taggedsentence"
	nlp "github.com/acompa/chaincrf/nlp/types"
	"github.com/gonuts/commander"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const taskConf = `tags: [OUT, IN]
tag offset: 0
features:
  - name: word
    cardinality: 2
`

func setup(t *testing.T) *bytes.Buffer {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"task.yaml":        taskConf,
		"data/train-a.txt": "the,0,0\ncat,1,1\nsat,0,0\n",
		"data/train-b.txt": "dogs,1,1\nbark,1,1\nloud,0,0\n",
		"data/test-a.txt":  "birds,1,1\nsing,0,0\n",
		"data/README":      "not a sample",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	var out bytes.Buffer
	AppFs = fs
	Out = &out
	NewLogger = func(bool) *zap.Logger { return zap.NewNop() }
	return &out
}

func run(t *testing.T, name string, args ...string) error {
	for _, cmd := range AllCommands().Subcommands {
		if cmd.Name() == name {
			require.NoError(t, cmd.Flag.Parse(args))
			return cmd.Run(cmd, cmd.Flag.Args())
		}
	}
	t.Fatalf("no command %s", name)
	return nil
}

func TestTrainEvaluateTag(t *testing.T) {
	out := setup(t)

	err := run(t, "train", "-conf", "task.yaml", "-data", "data", "-om", "model.gob",
		"-oc", "used.yaml", "-it", "20", "-shuffle=false", "-test")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Error rate:  0.0000")

	used, err := LoadConf(AppFs, "used.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"OUT", "IN"}, used.Tags)
	require.Len(t, used.Features, 1)
	assert.Equal(t, "word", used.Features[0].Name)

	weights, model, err := LoadWeights(AppFs, "model.gob")
	require.NoError(t, err)
	assert.Equal(t, 20, model.Iterations)
	assert.True(t, model.Averaged)
	assert.Equal(t, []string{"OUT", "IN"}, weights.Descriptor().Tags())

	out.Reset()
	require.NoError(t, run(t, "eval", "-m", "model.gob", "-data", "data", "-j", "2"))
	assert.Contains(t, out.String(), "Samples:     1")
	assert.Contains(t, out.String(), "Exact match: 1.0000 (1 of 1)")

	out.Reset()
	require.NoError(t, run(t, "tag", "-m", "model.gob", "-data", "data", "-kind", "train"))
	tagged := out.String()
	assert.Contains(t, tagged, "# train-a.txt")
	assert.Contains(t, tagged, "cat\tIN\tIN\n")
	assert.Contains(t, tagged, "loud\tOUT\tOUT\n")

	require.NoError(t, run(t, "tag", "-m", "model.gob", "-data", "data", "-out", "tagged.txt"))
	written, err := afero.ReadFile(AppFs, "tagged.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(written), "# test-a.txt"))

	out.Reset()
	require.NoError(t, run(t, "tag", "-m", "model.gob", "-data", "data", "-format", "sentence"))
	sents, err := taggedsentence.Read(out)
	require.NoError(t, err)
	require.Len(t, sents, 1)
	assert.Equal(t, []string{"birds", "sing"}, sents[0].Tokens)
	assert.Equal(t, []string{"IN", "OUT"}, sents[0].Tags)

	assert.Error(t, run(t, "tag", "-m", "model.gob", "-data", "data", "-format", "xml"))

	require.NoError(t, run(t, "tag", "-m", "model.gob", "-data", "data", "-format", "sentence", "-out", "pred.txt"))
	out.Reset()
	require.NoError(t, run(t, "eval", "-m", "model.gob", "-data", "data", "-pred", "pred.txt"))
	assert.Contains(t, out.String(), "Exact match: 1.0000 (1 of 1)")

	require.NoError(t, afero.WriteFile(AppFs, "wrong.txt", []byte("birds/OUT sing/OUT\n"), 0644))
	out.Reset()
	require.NoError(t, run(t, "eval", "-m", "model.gob", "-data", "data", "-pred", "wrong.txt"))
	assert.Contains(t, out.String(), "Error rate:  0.5000")
}

func TestReadPredictions(t *testing.T) {
	setup(t)
	desc, err := featurevector.NewDescriptor([]string{"OUT", "IN"}, 0, []featurevector.FeatureSpec{{Name: "word", Cardinality: 2}})
	require.NoError(t, err)
	samples := nlp.Dataset{{Name: "a", X: [][]int{{1}, {0}}, Y: nlp.Tags{1, 0}}}

	files := map[string]string{
		"ok.txt":      "birds/IN sing/OUT\n",
		"unknown.txt": "birds/IN sing/VERB\n",
		"short.txt":   "birds/IN\n",
		"extra.txt":   "birds/IN sing/OUT\nmore/IN\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(AppFs, name, []byte(content), 0644))
	}

	estimates, err := ReadPredictions(AppFs, "ok.txt", desc, samples)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}}, estimates)

	_, err = ReadPredictions(AppFs, "unknown.txt", desc, samples)
	assert.Equal(t, featurevector.ErrInvalidTag, errors.Cause(err))
	_, err = ReadPredictions(AppFs, "short.txt", desc, samples)
	assert.Equal(t, featurevector.ErrShapeMismatch, errors.Cause(err))
	_, err = ReadPredictions(AppFs, "extra.txt", desc, samples)
	assert.Equal(t, featurevector.ErrShapeMismatch, errors.Cause(err))
	_, err = ReadPredictions(AppFs, "missing.txt", desc, samples)
	assert.Error(t, err)
}

func TestTrainTrivialStrategy(t *testing.T) {
	setup(t)
	require.NoError(t, run(t, "train", "-conf", "task.yaml", "-data", "data", "-om", "raw.gob", "-avg=false", "-it", "3"))
	_, model, err := LoadWeights(AppFs, "raw.gob")
	require.NoError(t, err)
	assert.False(t, model.Averaged)
}

func TestCommandErrors(t *testing.T) {
	setup(t)
	assert.Error(t, run(t, "train", "-data", "data"))
	assert.Error(t, run(t, "train", "-conf", "missing.yaml", "-data", "data", "-om", "m.gob"))
	assert.Error(t, run(t, "train", "-conf", "task.yaml", "-data", "nowhere", "-om", "m.gob"))
	assert.Error(t, run(t, "eval", "-m", "missing.gob", "-data", "data"))
	assert.Error(t, run(t, "tag", "-m", "missing.gob", "-data", "data", "-kind", "dev"))

	// the default layout expects five features per token
	err := run(t, "train", "-data", "data", "-om", "m.gob")
	assert.Equal(t, featurevector.ErrInvalidFeatureValue, errors.Cause(err))
}

func TestModelRoundTrip(t *testing.T) {
	setup(t)
	c, err := LoadConf(AppFs, "task.yaml")
	require.NoError(t, err)
	desc, err := c.Descriptor()
	require.NoError(t, err)
	w := featurevector.New(desc)
	w.Set(0, 1, 1, 2.5)
	w.Set(1, 0, 1, -1)
	require.NoError(t, WriteModel(AppFs, "m.gob", &Serialization{WeightModel: w.Serialize(), Iterations: 7}))

	read, model, err := LoadWeights(AppFs, "m.gob")
	require.NoError(t, err)
	assert.Equal(t, 7, model.Iterations)
	assert.True(t, w.Equal(read))

	require.NoError(t, afero.WriteFile(AppFs, "junk.gob", []byte("junk"), 0644))
	_, _, err = LoadWeights(AppFs, "junk.gob")
	assert.Error(t, err)
}

func TestVerifyFlags(t *testing.T) {
	cmd := &commander.Command{UsageLine: "x", Run: func(*commander.Command, []string) error { return nil }}
	cmd.Flag.String("in", "", "input")
	require.NoError(t, cmd.Flag.Parse([]string{"-in", "file"}))
	assert.NoError(t, VerifyFlags(cmd, []string{"in"}))
	assert.Error(t, VerifyFlags(cmd, []string{"out"}))
}
