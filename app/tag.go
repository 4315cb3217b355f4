package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/acompa/chaincrf/alg/maxsum"
	"github.com/acompa/chaincrf/eval"
	"github.com/acompa/chaincrf/nlp/format/taggedsentence"
	"github.com/acompa/chaincrf/nlp/format/tokfeat"
	nlp "github.com/acompa/chaincrf/nlp/types"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var tagKind, tagFormat string

const (
	FORMAT_COLUMNS  = "columns"
	FORMAT_SENTENCE = "sentence"
)

// WriteTagged writes one block per sample: a "# name score" header and a
// token<TAB>predicted<TAB>gold line per token, using tag names.
func WriteTagged(w io.Writer, samples nlp.Dataset, estimates [][]int, scores []float64, names func(int) string) error {
	bw := bufio.NewWriter(w)
	for i := range samples {
		s := &samples[i]
		fmt.Fprintf(bw, "# %s %.4f\n", s.Name, scores[i])
		for pos, tag := range estimates[i] {
			token := fmt.Sprintf("%d", pos)
			if pos < len(s.Tokens) {
				token = s.Tokens[pos]
			}
			fmt.Fprintf(bw, "%s\t%s\t%s\n", token, names(tag), names(s.Y[pos]))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// AsTaggedSentences pairs each sample's tokens with its predicted tag names.
func AsTaggedSentences(samples nlp.Dataset, estimates [][]int, desc *featurevector.Descriptor) []taggedsentence.TaggedSentence {
	sents := make([]taggedsentence.TaggedSentence, len(samples))
	for i := range samples {
		sents[i].Tokens = samples[i].Tokens
		sents[i].Tags = nlp.Tags(estimates[i]).Names(desc)
	}
	return sents
}

func TagCRF(cmd *commander.Command, args []string) error {
	if err := VerifyFlags(cmd, []string{"m", "data"}); err != nil {
		return err
	}
	if tagKind != tokfeat.TRAIN && tagKind != tokfeat.TEST {
		return errors.Wrapf(tokfeat.ErrUnknownKind, "-kind %q", tagKind)
	}
	if tagFormat != FORMAT_COLUMNS && tagFormat != FORMAT_SENTENCE {
		return errors.Errorf("unknown output format %q", tagFormat)
	}
	log := NewLogger(verbose)
	defer log.Sync()

	weights, _, err := LoadWeights(AppFs, modelFile)
	if err != nil {
		return err
	}
	desc := weights.Descriptor()
	samples, err := LoadSamples(log, desc, tagKind, nil)
	if err != nil {
		return err
	}
	evaluator := &eval.Evaluator{Decoder: &maxsum.Decoder{Descriptor: desc}, Concurrency: Concurrency, Log: log}
	estimates, err := evaluator.Estimate(context.Background(), samples, weights)
	if err != nil {
		return err
	}
	scores := make([]float64, len(samples))
	for i := range samples {
		if scores[i], err = weights.Score(samples[i].X, estimates[i]); err != nil {
			return errors.WithMessagef(err, "sample %s", samples[i].Name)
		}
	}

	out := Out
	if outFile != "" {
		file, err := AppFs.Create(outFile)
		if err != nil {
			return errors.Wrapf(err, "creating %s", outFile)
		}
		defer file.Close()
		out = file
	}
	if tagFormat == FORMAT_SENTENCE {
		err = taggedsentence.Write(out, AsTaggedSentences(samples, estimates, desc))
	} else {
		err = WriteTagged(out, samples, estimates, scores, desc.TagName)
	}
	if err != nil {
		return err
	}
	log.Info("tagged samples", zap.Int("samples", len(samples)), zap.String("out", outFile))
	return nil
}

func TagCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       TagCRF,
		UsageLine: "tag <file options> [arguments]",
		Short:     "tag token feature files with a trained model",
		Long: `
tag token feature files with a trained model

	$ ./chaincrf tag -m <model file> -data <data dir> [-kind test|train] [-format columns|sentence] [-out <file>]

`,
		Flag: *flag.NewFlagSet("tag", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&modelFile, "m", "", "Model file")
	cmd.Flag.StringVar(&dataDir, "data", "", "Directory of token feature files")
	cmd.Flag.StringVar(&tagKind, "kind", tokfeat.TEST, "Which files to tag (train or test)")
	cmd.Flag.StringVar(&outFile, "out", "", "Output file; empty = stdout")
	cmd.Flag.StringVar(&tagFormat, "format", FORMAT_COLUMNS, "Output format: columns (token, predicted, gold) or sentence (token/TAG per line)")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit number of files")
	cmd.Flag.IntVar(&Concurrency, "j", 4, "Samples decoded concurrently")
	cmd.Flag.BoolVar(&verbose, "v", false, "Debug logging")
	return cmd
}
