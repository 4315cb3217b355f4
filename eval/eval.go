package eval

import (
	"fmt"

	"github.com/acompa/chaincrf/alg/featurevector"
	nlp "github.com/acompa/chaincrf/nlp/types"
	"github.com/pkg/errors"
)

var ErrEmptyDataset = nlp.ErrEmptyDataset

func Precision(truePositives, testPositives int) float64 {
	return float64(truePositives) / float64(testPositives)
}

func Recall(truePositives, conditionPositives int) float64 {
	return float64(truePositives) / float64(conditionPositives)
}

func F1(precision, recall float64) float64 {
	return 2.0 * (precision * recall) / (precision + recall)
}

type Error interface {
	String() string
	Class() string
}

type Errors []Error

func (ers Errors) ByType() map[string]int {
	retval := make(map[string]int)
	for _, e := range ers {
		retval[e.Class()]++
	}
	return retval
}

// TagError is one mistagged token.
type TagError struct {
	Position        int
	Gold, Predicted int
	desc            *featurevector.Descriptor
}

var _ Error = &TagError{}

func (e *TagError) name(tag int) string {
	if e.desc == nil {
		return fmt.Sprintf("%d", tag)
	}
	return e.desc.TagName(tag)
}

func (e *TagError) String() string {
	return fmt.Sprintf("token %d: gold %s, predicted %s", e.Position, e.name(e.Gold), e.name(e.Predicted))
}

// Class groups errors by gold and predicted tag.
func (e *TagError) Class() string {
	return e.name(e.Gold) + " -> " + e.name(e.Predicted)
}

// TagCount holds one tag's one-vs-rest counts over tokens.
type TagCount struct {
	TP, FP, FN int
}

func (c TagCount) Precision() float64 {
	return Precision(c.TP, c.TP+c.FP)
}

func (c TagCount) Recall() float64 {
	return Recall(c.TP, c.TP+c.FN)
}

func (c TagCount) F1() float64 {
	return F1(c.Precision(), c.Recall())
}

// Result is the token-level comparison of one decoded sample.
type Result struct {
	Name               string
	Correct, Incorrect int
	Tags               []TagCount
	Errors             Errors
}

func (r *Result) All() int {
	return r.Correct + r.Incorrect
}

func (r *Result) Accuracy() float64 {
	return float64(r.Correct) / float64(r.All())
}

func (r *Result) ErrorRate() float64 {
	return float64(r.Incorrect) / float64(r.All())
}

// Compare scores predicted against gold token by token. desc names the tags
// in errors and sizes the per-tag counts; it may be nil.
func Compare(desc *featurevector.Descriptor, gold, predicted nlp.Tags) (*Result, error) {
	if len(gold) != len(predicted) {
		return nil, errors.Wrapf(featurevector.ErrShapeMismatch, "%d gold tags but %d predicted", len(gold), len(predicted))
	}
	retval := &Result{}
	if desc != nil {
		retval.Tags = make([]TagCount, desc.NumTags())
	}
	for i, tag := range gold {
		pred := predicted[i]
		if tag == pred {
			retval.Correct++
			if tag >= 0 && tag < len(retval.Tags) {
				retval.Tags[tag].TP++
			}
			continue
		}
		retval.Incorrect++
		retval.Errors = append(retval.Errors, &TagError{Position: i, Gold: tag, Predicted: pred, desc: desc})
		if tag >= 0 && tag < len(retval.Tags) {
			retval.Tags[tag].FN++
		}
		if pred >= 0 && pred < len(retval.Tags) {
			retval.Tags[pred].FP++
		}
	}
	return retval, nil
}

type Total struct {
	Result
	Results           []*Result
	Exact, Population int
}

// NewTotal returns a Total that keeps every added Result.
func NewTotal() *Total {
	return &Total{Results: []*Result{}}
}

func (t *Total) Add(r *Result) {
	t.Correct += r.Correct
	t.Incorrect += r.Incorrect
	if len(t.Tags) < len(r.Tags) {
		t.Tags = append(t.Tags, make([]TagCount, len(r.Tags)-len(t.Tags))...)
	}
	for i, c := range r.Tags {
		t.Tags[i].TP += c.TP
		t.Tags[i].FP += c.FP
		t.Tags[i].FN += c.FN
	}
	if r.Incorrect == 0 {
		t.Exact += 1
	}
	t.Population += 1
	if t.Results != nil {
		t.Results = append(t.Results, r)
	}
}

func (t *Total) ExactMatch() float64 {
	return float64(t.Exact) / float64(t.Population)
}

// ErrorRate is the fraction of mistagged tokens over all samples added.
func (t *Total) ErrorRate() (float64, error) {
	if t.All() == 0 {
		return 0, ErrEmptyDataset
	}
	return t.Result.ErrorRate(), nil
}

func (t *Total) Errors() Errors {
	retval := make(Errors, 0, t.Incorrect)
	for _, v := range t.Results {
		retval = append(retval, v.Errors...)
	}
	return retval
}

// ErrorRate is the token-level error rate of estimates against the gold tags
// of samples, paired by index.
func ErrorRate(samples nlp.Dataset, estimates [][]int) (float64, error) {
	total, err := Tally(nil, samples, estimates)
	if err != nil {
		return 0, err
	}
	return total.ErrorRate()
}

// Tally compares every estimate with its sample and sums the results.
func Tally(desc *featurevector.Descriptor, samples nlp.Dataset, estimates [][]int) (*Total, error) {
	if len(samples) != len(estimates) {
		return nil, errors.Wrapf(featurevector.ErrShapeMismatch, "%d samples but %d estimates", len(samples), len(estimates))
	}
	total := NewTotal()
	for i := range samples {
		result, err := Compare(desc, samples[i].Y, estimates[i])
		if err != nil {
			return nil, errors.WithMessagef(err, "sample %d (%s)", i, samples[i].Name)
		}
		result.Name = samples[i].Name
		total.Add(result)
	}
	return total, nil
}
