package app

import (
	"encoding/gob"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/acompa/chaincrf/alg/perceptron"
	"github.com/acompa/chaincrf/nlp/format/tokfeat"
	nlp "github.com/acompa/chaincrf/nlp/types"
	"github.com/acompa/chaincrf/util/conf"
	"github.com/acompa/chaincrf/util/zlog"

	"github.com/dustin/go-humanize"
	"github.com/gonuts/commander"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func init() {
	gob.Register(&Serialization{})
}

var (
	// AppFs is where every command reads data and writes models
	AppFs afero.Fs = afero.NewOsFs()
	// Out receives reports and tagged output
	Out io.Writer = os.Stdout
	// NewLogger builds the logger of a command run
	NewLogger = zlog.New

	// processing options
	Iterations, Concurrency int
	limit                   int
	seed                    int64
	shuffle, averaged       bool
	evalTest, verbose       bool

	// file names
	confFile    string
	confOutFile string
	dataDir     string
	modelFile   string
	outFile     string
	predFile    string
)

const DEFAULT_ITERATIONS = 10

type Serialization struct {
	WeightModel *featurevector.Serialized
	Iterations  int
	Averaged    bool
}

func WriteModel(fs afero.Fs, file string, data *Serialization) error {
	fObj, err := fs.Create(file)
	if err != nil {
		return errors.Wrapf(err, "creating model file %s", file)
	}
	defer fObj.Close()
	if err := gob.NewEncoder(fObj).Encode(data); err != nil {
		return errors.Wrapf(err, "writing model file %s", file)
	}
	return nil
}

func ReadModel(fs afero.Fs, file string) (*Serialization, error) {
	data := &Serialization{}
	fObj, err := fs.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model from %s", file)
	}
	defer fObj.Close()
	if err := gob.NewDecoder(fObj).Decode(data); err != nil {
		return nil, errors.Wrapf(err, "decoding model from %s", file)
	}
	if data.WeightModel == nil {
		return nil, errors.Errorf("model file %s has no weights", file)
	}
	return data, nil
}

// LoadWeights reads a model file back into weights and their descriptor.
func LoadWeights(fs afero.Fs, file string) (*featurevector.FeatureVector, *Serialization, error) {
	data, err := ReadModel(fs, file)
	if err != nil {
		return nil, nil, err
	}
	weights, err := featurevector.Deserialize(data.WeightModel)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "model file %s", file)
	}
	return weights, data, nil
}

func VerifyExists(fs afero.Fs, filename string) error {
	if _, err := fs.Stat(filename); err != nil {
		return errors.Wrapf(err, "accessing %s", filename)
	}
	return nil
}

func VerifyFlags(cmd *commander.Command, required []string) error {
	for _, flag := range required {
		f := cmd.Flag.Lookup(flag)
		if f == nil || f.Value.String() == "" {
			cmd.Flag.PrintDefaults()
			return errors.Errorf("required flag -%s not set", flag)
		}
	}
	return nil
}

// LoadConf reads the task configuration, falling back to the default
// layout when no file is given.
func LoadConf(fs afero.Fs, file string) (*conf.Conf, error) {
	if file == "" {
		return conf.Default(), nil
	}
	return conf.ReadFile(fs, file)
}

// WriteConf writes the configuration a model was trained with.
func WriteConf(fs afero.Fs, file string, c *conf.Conf) error {
	fObj, err := fs.Create(file)
	if err != nil {
		return errors.Wrapf(err, "creating configuration file %s", file)
	}
	defer fObj.Close()
	if err := c.Write(fObj); err != nil {
		return errors.Wrapf(err, "writing configuration file %s", file)
	}
	return nil
}

// LoadSamples reads the samples of kind from the data directory, in an
// order drawn from r when it is not nil.
func LoadSamples(log *zap.Logger, desc *featurevector.Descriptor, kind string, r *rand.Rand) (nlp.Dataset, error) {
	loader := &tokfeat.Loader{Fs: AppFs, Dir: dataDir, Descriptor: desc, Rand: r}
	samples, err := loader.LoadSamples(kind, limit)
	if err != nil {
		return nil, err
	}
	log.Info("read samples",
		zap.String("kind", kind),
		zap.String("dir", dataDir),
		zap.String("samples", humanize.Comma(int64(len(samples)))),
		zap.String("tokens", humanize.Comma(int64(samples.NumTokens()))))
	return samples, nil
}

func Train(log *zap.Logger, trainingSet nlp.Dataset, desc *featurevector.Descriptor, decoder perceptron.Decoder, updater perceptron.UpdateStrategy, r *rand.Rand) (*perceptron.LinearPerceptron, error) {
	trainer := &perceptron.LinearPerceptron{
		Decoder:    decoder,
		Updater:    updater,
		Iterations: Iterations,
		Descriptor: desc,
		Shuffle:    r != nil,
		Rand:       r,
		Log:        log,
	}
	trainer.Init(nil)
	startTime := time.Now()
	if _, err := trainer.Train(trainingSet); err != nil {
		return nil, err
	}
	log.Info("TRAIN Total Time", zap.Duration("duration", time.Since(startTime)))
	return trainer, nil
}
