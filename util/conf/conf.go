// Package conf reads the YAML description of a tagging task: its tag set
// and the discrete token features of the data files.
package conf

import (
	"io"
	"io/ioutil"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

type Feature struct {
	Name        string
	Cardinality int
	// Offset is subtracted from raw values, 1 for 1-indexed files
	Offset int
}

type Conf struct {
	// Tags name the tags in id order; NumTags generates numeric names
	// when Tags is empty.
	Tags      []string `yaml:"tags,omitempty"`
	NumTags   int      `yaml:"num tags,omitempty"`
	TagOffset int      `yaml:"tag offset"`
	Features  []Feature
}

// Default is the layout of the POS token feature files: ten 1-indexed tags and
// five features (bias, initial capital, all capitals, prefix and suffix
// ids).
func Default() *Conf {
	return &Conf{
		NumTags:   10,
		TagOffset: 1,
		Features: []Feature{
			{Name: "bias", Cardinality: 1, Offset: 1},
			{Name: "initcap", Cardinality: 2},
			{Name: "allcaps", Cardinality: 2},
			{Name: "prefix", Cardinality: 200, Offset: 1},
			{Name: "suffix", Cardinality: 200, Offset: 1},
		},
	}
}

func Read(reader io.Reader) (*Conf, error) {
	data, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	c := new(Conf)
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Wrap(err, "parsing configuration")
	}
	return c, nil
}

func ReadFile(fs afero.Fs, filename string) (*Conf, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c, err := Read(file)
	if err != nil {
		return nil, errors.WithMessage(err, filename)
	}
	return c, nil
}

func (c *Conf) Write(w io.Writer) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Descriptor validates c and builds the layout it describes.
func (c *Conf) Descriptor() (*featurevector.Descriptor, error) {
	tags := c.Tags
	switch {
	case c.NumTags < 0:
		return nil, errors.Errorf("num tags is %d", c.NumTags)
	case len(tags) == 0:
		tags = featurevector.TagNames(c.NumTags)
	case c.NumTags != 0 && c.NumTags != len(tags):
		return nil, errors.Errorf("num tags is %d but %d tags are named", c.NumTags, len(tags))
	}
	features := make([]featurevector.FeatureSpec, len(c.Features))
	for i, f := range c.Features {
		if f.Name == "" {
			return nil, errors.Errorf("feature %d has no name", i)
		}
		features[i] = featurevector.FeatureSpec{Name: f.Name, Cardinality: f.Cardinality, Offset: f.Offset}
	}
	return featurevector.NewDescriptor(tags, c.TagOffset, features)
}
