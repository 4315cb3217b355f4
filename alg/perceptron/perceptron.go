package perceptron

import (
	"math/rand"
	"time"

	"github.com/acompa/chaincrf/alg/featurevector"
	nlp "github.com/acompa/chaincrf/nlp/types"
	"github.com/acompa/chaincrf/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LinearPerceptron is a structured perceptron over linear-chain weights.
// Weight updates are strictly sequential: the decode of every sample sees
// the updates of all samples before it in the same pass.
type LinearPerceptron struct {
	Decoder    Decoder
	Updater    UpdateStrategy
	Iterations int
	Descriptor *featurevector.Descriptor

	// Shuffle reorders the samples before every pass using Rand
	Shuffle bool
	Rand    *rand.Rand

	Log *zap.Logger

	// Model holds the finalized weights of the last successful Train.
	Model *featurevector.FeatureVector
	Stats []IterationStats

	start *featurevector.FeatureVector
}

// Init sets the weights the next Train starts from; nil means zero weights.
// Train consumes them, so every later Train starts from zero unless Init is
// called again.
func (m *LinearPerceptron) Init(model *featurevector.FeatureVector) {
	m.start = model
}

// Train runs exactly Iterations passes over samples and returns the weights
// chosen by the update strategy. On error Model and Stats are left as they
// were before the call.
func (m *LinearPerceptron) Train(samples nlp.Dataset) (*featurevector.FeatureVector, error) {
	if m.Iterations < 1 {
		return nil, errors.Wrapf(ErrInvalidIterations, "got %d", m.Iterations)
	}
	if m.Descriptor == nil {
		if m.start == nil {
			return nil, errors.New("trainer has neither a descriptor nor initial weights")
		}
		m.Descriptor = m.start.Descriptor()
	}
	if m.Updater == nil {
		m.Updater = new(AveragedStrategy)
	}
	if m.Log == nil {
		m.Log = zap.NewNop()
	}
	weights := m.start
	if weights == nil {
		weights = featurevector.New(m.Descriptor)
	}
	if err := weights.CheckShape(m.Descriptor); err != nil {
		return nil, errors.WithMessage(err, "initial model")
	}
	if err := samples.Validate(m.Descriptor); err != nil {
		return nil, err
	}
	m.Updater.Init(weights, m.Iterations, len(samples))

	start := time.Now()
	weights, stats, err := m.train(samples, weights)
	if err != nil {
		return nil, err
	}
	m.start = nil
	m.Model = m.Updater.Finalize(weights)
	m.Stats = stats
	m.Log.Info("training complete",
		zap.Int("iterations", m.Iterations),
		zap.Int("instances", len(samples)),
		zap.Duration("duration", time.Since(start)))
	return m.Model, nil
}

// train returns the raw weights after the last step. weights is never
// modified in place.
func (m *LinearPerceptron) train(samples nlp.Dataset, weights *featurevector.FeatureVector) (*featurevector.FeatureVector, []IterationStats, error) {
	var retval []IterationStats
	order := util.RangeInt(len(samples))
	for i := 0; i < m.Iterations; i++ {
		if m.Shuffle {
			util.Shuffle(order, m.Rand)
		}
		stats := IterationStats{Iteration: i}
		for _, j := range order {
			sample := &samples[j]
			decoded, err := m.Decoder.Decode(weights, sample.X)
			if err != nil {
				return nil, nil, errors.WithMessagef(err, "iteration %d, instance %d (%s)", i, j, sample.Name)
			}
			predicted := nlp.Tags(decoded)
			stats.Tokens += sample.Len()
			if !sample.Y.Equal(predicted) {
				mismatches := sample.Y.Mismatches(predicted)
				stats.Failed++
				stats.TokenErrors += mismatches
				m.Log.Debug("instance failed",
					zap.Int("iteration", i),
					zap.Int("instance", j),
					zap.String("name", sample.Name),
					zap.Ints("gold", sample.Y),
					zap.Ints("predicted", predicted),
					zap.Int("mismatches", mismatches))
				if weights, err = m.update(weights, sample, predicted); err != nil {
					return nil, nil, errors.WithMessagef(err, "iteration %d, instance %d (%s)", i, j, sample.Name)
				}
			} else {
				m.Log.Debug("instance success", zap.Int("iteration", i), zap.Int("instance", j))
			}
			if err := m.Updater.Update(weights); err != nil {
				return nil, nil, errors.WithMessagef(err, "iteration %d, instance %d", i, j)
			}
		}
		retval = append(retval, stats)
		m.Log.Info("iteration complete",
			zap.Int("iteration", i),
			zap.Int("failed", stats.Failed),
			zap.Int("instances", len(samples)),
			zap.Int("token errors", stats.TokenErrors),
			zap.Int("tokens", stats.Tokens))
	}
	return weights, retval, nil
}

// update moves the weights by the difference between the gold and the
// predicted sufficient statistics.
func (m *LinearPerceptron) update(weights *featurevector.FeatureVector, sample *nlp.Sample, predicted nlp.Tags) (*featurevector.FeatureVector, error) {
	gold, err := featurevector.Empirical(m.Descriptor, sample.X, sample.Y)
	if err != nil {
		return nil, err
	}
	decoded, err := featurevector.Empirical(m.Descriptor, sample.X, predicted)
	if err != nil {
		return nil, err
	}
	delta, err := featurevector.Sub(gold, decoded)
	if err != nil {
		return nil, err
	}
	return featurevector.Add(weights, delta)
}

// TrivialStrategy returns the raw weights of the last step.
type TrivialStrategy struct{}

func (u *TrivialStrategy) Init(m *featurevector.FeatureVector, iterations, instances int) {
}

func (u *TrivialStrategy) Update(m *featurevector.FeatureVector) error {
	return nil
}

func (u *TrivialStrategy) Finalize(m *featurevector.FeatureVector) *featurevector.FeatureVector {
	return m
}

// AveragedStrategy accumulates weights/(P*N) after every one of the P*N
// inner steps, so the finalized model is the mean of the weight trajectory.
type AveragedStrategy struct {
	P, N       int
	Steps      int
	accumModel *featurevector.FeatureVector
}

func (u *AveragedStrategy) Init(m *featurevector.FeatureVector, iterations, instances int) {
	u.P = iterations
	u.N = instances
	u.Steps = 0
	u.accumModel = featurevector.New(m.Descriptor())
}

func (u *AveragedStrategy) Update(m *featurevector.FeatureVector) error {
	if err := u.accumModel.AddScaled(m, 1/float64(u.P*u.N)); err != nil {
		return err
	}
	u.Steps++
	return nil
}

func (u *AveragedStrategy) Finalize(m *featurevector.FeatureVector) *featurevector.FeatureVector {
	return u.accumModel
}
