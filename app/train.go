package app

import (
	"context"
	"math/rand"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/acompa/chaincrf/alg/maxsum"
	"github.com/acompa/chaincrf/alg/perceptron"
	"github.com/acompa/chaincrf/eval"
	"github.com/acompa/chaincrf/nlp/format/tokfeat"
	"github.com/acompa/chaincrf/util"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func TrainConfigOut(log *zap.Logger, desc *featurevector.Descriptor) {
	log.Info("Configuration",
		zap.String("conf", confFile),
		zap.Int("tags", desc.NumTags()),
		zap.Int("features", desc.NumFeatures()),
		zap.Int("iterations", Iterations),
		zap.Bool("averaged", averaged),
		zap.Bool("shuffle", shuffle),
		zap.Int64("seed", seed),
		zap.Int("limit", limit))
	log.Info("Data",
		zap.String("dir", dataDir),
		zap.String("model", modelFile),
		zap.Bool("evaluate test", evalTest))
}

func TrainCRF(cmd *commander.Command, args []string) error {
	if err := VerifyFlags(cmd, []string{"data", "om"}); err != nil {
		return err
	}
	log := NewLogger(verbose)
	defer log.Sync()

	c, err := LoadConf(AppFs, confFile)
	if err != nil {
		return errors.WithMessage(err, "loading configuration")
	}
	desc, err := c.Descriptor()
	if err != nil {
		return errors.WithMessage(err, "loading configuration")
	}
	if err := VerifyExists(AppFs, dataDir); err != nil {
		return err
	}
	TrainConfigOut(log, desc)

	var r *rand.Rand
	if shuffle {
		r = rand.New(rand.NewSource(seed))
	}
	trainSet, err := LoadSamples(log, desc, tokfeat.TRAIN, r)
	if err != nil {
		return err
	}

	var updater perceptron.UpdateStrategy = new(perceptron.AveragedStrategy)
	if !averaged {
		updater = new(perceptron.TrivialStrategy)
	}
	decoder := &maxsum.Decoder{Descriptor: desc}
	trainer, err := Train(log, trainSet, desc, decoder, updater, r)
	if err != nil {
		return err
	}

	if err := WriteModel(AppFs, modelFile, &Serialization{
		WeightModel: trainer.Model.Serialize(),
		Iterations:  Iterations,
		Averaged:    averaged,
	}); err != nil {
		return err
	}
	sum, err := util.MD5File(AppFs, modelFile)
	if err != nil {
		return err
	}
	log.Info("wrote model", zap.String("file", modelFile), zap.String("md5", sum))
	if confOutFile != "" {
		if err := WriteConf(AppFs, confOutFile, c); err != nil {
			return err
		}
		log.Info("wrote configuration", zap.String("file", confOutFile))
	}

	if !evalTest {
		return nil
	}
	testSet, err := LoadSamples(log, desc, tokfeat.TEST, nil)
	if err != nil {
		return err
	}
	evaluator := &eval.Evaluator{Decoder: decoder, Concurrency: Concurrency, Log: log}
	total, _, err := evaluator.Evaluate(context.Background(), testSet, trainer.Model)
	if err != nil {
		return err
	}
	return eval.Report(Out, total, desc)
}

func TrainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       TrainCRF,
		UsageLine: "train <file options> [arguments]",
		Short:     "train a linear-chain CRF tagger with the averaged perceptron",
		Long: `
train a linear-chain CRF tagger with the averaged perceptron

	$ ./chaincrf train -data <data dir> -om <model file> [-conf <task yaml>] [-oc <conf out>] [options]

Every file in the data directory whose name contains "train" is one
training sample; with -test, files containing "test" are evaluated after
training.
`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&confFile, "conf", "", "Task configuration (tags and features, YAML); empty = default layout")
	cmd.Flag.StringVar(&dataDir, "data", "", "Directory of token feature files")
	cmd.Flag.StringVar(&modelFile, "om", "", "Output model file")
	cmd.Flag.StringVar(&confOutFile, "oc", "", "Output the configuration used for training (YAML)")
	cmd.Flag.IntVar(&Iterations, "it", DEFAULT_ITERATIONS, "Number of Perceptron Iterations")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit training set")
	cmd.Flag.Int64Var(&seed, "seed", 1, "Seed of the sample shuffling")
	cmd.Flag.BoolVar(&shuffle, "shuffle", true, "Shuffle samples on load and before every iteration")
	cmd.Flag.BoolVar(&averaged, "avg", true, "Average weights over all training steps")
	cmd.Flag.BoolVar(&evalTest, "test", false, "Evaluate the trained model on the test files")
	cmd.Flag.IntVar(&Concurrency, "j", 4, "Samples decoded concurrently during evaluation")
	cmd.Flag.BoolVar(&verbose, "v", false, "Log every training instance")
	return cmd
}
