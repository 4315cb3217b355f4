// Package tokfeat reads token feature files: one sample per file, one token
// per line, each line "token,tag,f1,...,fF" with raw (possibly 1-indexed)
// tag and feature ids.
package tokfeat

import (
	"encoding/csv"
	"io"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/acompa/chaincrf/alg/featurevector"
	nlp "github.com/acompa/chaincrf/nlp/types"
	"github.com/acompa/chaincrf/util"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	FIELD_SEPARATOR = ','
	TRAIN           = "train"
	TEST            = "test"
)

var ErrUnknownKind = errors.New("unknown sample kind")

// Read parses one sample from reader.
func Read(reader io.Reader, name string, desc *featurevector.Descriptor) (*nlp.Sample, error) {
	r := csv.NewReader(reader)
	r.Comma = FIELD_SEPARATOR
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	numFields := desc.NumFeatures() + 2
	sample := &nlp.Sample{Name: name, Tokens: []string{}, X: [][]int{}, Y: nlp.Tags{}}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		line, _ := r.FieldPos(0)
		if len(record) < numFields {
			return nil, errors.Wrapf(featurevector.ErrInvalidFeatureValue, "%s:%d: got %d fields, expected %d", name, line, len(record), numFields)
		}
		// a token containing the separator splits into extra leading fields
		split := len(record) - numFields + 1
		token := strings.Join(record[:split], string(FIELD_SEPARATOR))
		values := record[split:]

		tag, err := parseID(values[0], desc.TagOffset())
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: tag", name, line)
		}
		if err := desc.CheckTag(tag); err != nil {
			return nil, errors.WithMessagef(err, "%s:%d", name, line)
		}
		features := make([]int, desc.NumFeatures())
		for i := range features {
			features[i], err = parseID(values[i+1], desc.Feature(i).Offset)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d: feature %s", name, line, desc.Feature(i).Name)
			}
		}
		if err := desc.CheckToken(features); err != nil {
			return nil, errors.WithMessagef(err, "%s:%d", name, line)
		}
		sample.Tokens = append(sample.Tokens, token)
		sample.X = append(sample.X, features)
		sample.Y = append(sample.Y, tag)
	}
	if sample.Len() == 0 {
		return nil, errors.Wrapf(featurevector.ErrEmptySequence, "%s has no tokens", name)
	}
	return sample, nil
}

func parseID(field string, offset int) (int, error) {
	val, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, err
	}
	return val - offset, nil
}

func ReadFile(fs afero.Fs, filename string, desc *featurevector.Descriptor) (*nlp.Sample, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Read(file, filepath.Base(filename), desc)
}

// Loader selects sample files from Dir by kind.
type Loader struct {
	Fs         afero.Fs
	Dir        string
	Descriptor *featurevector.Descriptor
	// Rand shuffles file order before limiting; nil keeps sorted order.
	Rand *rand.Rand
}

// LoadSamples reads every file in Dir whose name contains kind ("train" or
// "test"). A positive limit smaller than the number of files keeps only the
// first limit files after shuffling.
func (l *Loader) LoadSamples(kind string, limit int) (nlp.Dataset, error) {
	if kind != TRAIN && kind != TEST {
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	filenames, err := util.ListFiles(fs, l.Dir, kind)
	if err != nil {
		return nil, err
	}
	order := util.RangeInt(len(filenames))
	util.Shuffle(order, l.Rand)
	if limit > 0 && limit < len(order) {
		order = order[:limit]
	}
	samples := make(nlp.Dataset, 0, len(order))
	for _, i := range order {
		sample, err := ReadFile(fs, filenames[i], l.Descriptor)
		if err != nil {
			return nil, err
		}
		samples = append(samples, *sample)
	}
	return samples, nil
}
