package eval

import (
	"context"
	"time"

	"github.com/acompa/chaincrf/alg/featurevector"
	nlp "github.com/acompa/chaincrf/nlp/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Decoder interface {
	Decode(w *featurevector.FeatureVector, x [][]int) ([]int, error)
}

// Evaluator decodes samples with fixed weights and scores them against gold.
// The weights are only read, so samples decode concurrently.
type Evaluator struct {
	Decoder Decoder
	// Concurrency bounds the number of samples decoded at once; values
	// below 1 mean one.
	Concurrency int
	Log         *zap.Logger
}

func (e *Evaluator) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// Estimate decodes every sample, returning the predicted tags by sample
// index. The first decode error cancels the rest.
func (e *Evaluator) Estimate(ctx context.Context, samples nlp.Dataset, w *featurevector.FeatureVector) ([][]int, error) {
	limit := e.Concurrency
	if limit < 1 {
		limit = 1
	}
	estimates := make([][]int, len(samples))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range samples {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tags, err := e.Decoder.Decode(w, samples[i].X)
			if err != nil {
				return errors.WithMessagef(err, "sample %d (%s)", i, samples[i].Name)
			}
			estimates[i] = tags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return estimates, nil
}

// Evaluate decodes samples and compares them with their gold tags.
func (e *Evaluator) Evaluate(ctx context.Context, samples nlp.Dataset, w *featurevector.FeatureVector) (*Total, [][]int, error) {
	if len(samples) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	start := time.Now()
	estimates, err := e.Estimate(ctx, samples, w)
	if err != nil {
		return nil, nil, err
	}
	total, err := Tally(w.Descriptor(), samples, estimates)
	if err != nil {
		return nil, nil, err
	}
	rate, err := total.ErrorRate()
	if err != nil {
		return nil, nil, err
	}
	e.logger().Info("evaluation complete",
		zap.Int("samples", total.Population),
		zap.Int("tokens", total.All()),
		zap.Float64("error rate", rate),
		zap.Duration("duration", time.Since(start)))
	return total, estimates, nil
}

// ErrorRate decodes samples with w and returns the token-level error rate.
func (e *Evaluator) ErrorRate(samples nlp.Dataset, w *featurevector.FeatureVector) (float64, error) {
	total, _, err := e.Evaluate(context.Background(), samples, w)
	if err != nil {
		return 0, err
	}
	return total.ErrorRate()
}
