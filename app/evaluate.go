package app

import (
	"context"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/acompa/chaincrf/alg/maxsum"
	"github.com/acompa/chaincrf/eval"
	"github.com/acompa/chaincrf/nlp/format/taggedsentence"
	"github.com/acompa/chaincrf/nlp/format/tokfeat"
	nlp "github.com/acompa/chaincrf/nlp/types"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ReadPredictions reads a token/TAG sentence file holding one sentence per
// sample, in sample order, and maps its tag names to tag ids.
func ReadPredictions(fs afero.Fs, file string, desc *featurevector.Descriptor, samples nlp.Dataset) ([][]int, error) {
	sents, err := taggedsentence.ReadFile(fs, file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading predictions from %s", file)
	}
	if len(sents) != len(samples) {
		return nil, errors.Wrapf(featurevector.ErrShapeMismatch, "%s has %d sentences for %d samples", file, len(sents), len(samples))
	}
	estimates := make([][]int, len(sents))
	for i, sent := range sents {
		if len(sent.Tags) != samples[i].Len() {
			return nil, errors.Wrapf(featurevector.ErrShapeMismatch, "%s: sentence %d has %d tags, sample %s has %d tokens",
				file, i+1, len(sent.Tags), samples[i].Name, samples[i].Len())
		}
		estimates[i] = make([]int, len(sent.Tags))
		for j, name := range sent.Tags {
			tag, ok := desc.TagIndex(name)
			if !ok {
				return nil, errors.Wrapf(featurevector.ErrInvalidTag, "%s: sentence %d: tag %q", file, i+1, name)
			}
			estimates[i][j] = tag
		}
	}
	return estimates, nil
}

func EvaluateCRF(cmd *commander.Command, args []string) error {
	if err := VerifyFlags(cmd, []string{"m", "data"}); err != nil {
		return err
	}
	log := NewLogger(verbose)
	defer log.Sync()

	weights, model, err := LoadWeights(AppFs, modelFile)
	if err != nil {
		return err
	}
	log.Info("Configuration",
		zap.String("model", modelFile),
		zap.Int("trained iterations", model.Iterations),
		zap.Bool("averaged", model.Averaged),
		zap.String("dir", dataDir),
		zap.Int("limit", limit))

	desc := weights.Descriptor()
	testSet, err := LoadSamples(log, desc, tokfeat.TEST, nil)
	if err != nil {
		return err
	}
	var total *eval.Total
	if predFile != "" {
		estimates, err := ReadPredictions(AppFs, predFile, desc, testSet)
		if err != nil {
			return err
		}
		if total, err = eval.Tally(desc, testSet, estimates); err != nil {
			return err
		}
		log.Info("scored predictions", zap.String("file", predFile), zap.Int("samples", total.Population))
	} else {
		evaluator := &eval.Evaluator{Decoder: &maxsum.Decoder{Descriptor: desc}, Concurrency: Concurrency, Log: log}
		if total, _, err = evaluator.Evaluate(context.Background(), testSet, weights); err != nil {
			return err
		}
	}
	return eval.Report(Out, total, desc)
}

func EvaluateCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       EvaluateCRF,
		UsageLine: "eval <file options> [arguments]",
		Short:     "report the token error rate of a trained model on test files",
		Long: `
report the token error rate of a trained model on test files

	$ ./chaincrf eval -m <model file> -data <data dir> [-pred <tagged sentences>] [options]

With -pred, the sentences (as written by tag -format sentence) are scored
instead of decoding the test files.

`,
		Flag: *flag.NewFlagSet("eval", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&modelFile, "m", "", "Model file")
	cmd.Flag.StringVar(&dataDir, "data", "", "Directory of token feature files")
	cmd.Flag.StringVar(&predFile, "pred", "", "Score this token/TAG sentence file instead of decoding")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit test set")
	cmd.Flag.IntVar(&Concurrency, "j", 4, "Samples decoded concurrently")
	cmd.Flag.BoolVar(&verbose, "v", false, "Debug logging")
	return cmd
}
