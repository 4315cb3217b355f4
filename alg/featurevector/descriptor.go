package featurevector

import (
	"strconv"

	"github.com/acompa/chaincrf/util"
	"github.com/pkg/errors"
)

// FeatureSpec describes one discrete token feature. Raw values read from
// disk have Offset subtracted before they are checked against Cardinality.
type FeatureSpec struct {
	Name        string
	Cardinality int
	Offset      int
}

// Descriptor is the fixed layout of tags and token features shared by
// weights, decoder and loaders. It is immutable once built.
type Descriptor struct {
	features  []FeatureSpec
	tags      *util.EnumSet[string]
	tagOffset int
}

func NewDescriptor(tags []string, tagOffset int, features []FeatureSpec) (*Descriptor, error) {
	if len(tags) == 0 {
		return nil, errors.New("descriptor needs at least one tag")
	}
	if len(features) == 0 {
		return nil, errors.New("descriptor needs at least one feature")
	}
	tagEnum := util.NewEnumSet[string](len(tags))
	for _, tag := range tags {
		if _, added := tagEnum.Add(tag); !added {
			return nil, errors.Errorf("duplicate tag %q", tag)
		}
	}
	tagEnum.Frozen = true

	names := util.NewEnumSet[string](len(features))
	for i, f := range features {
		if f.Cardinality < 1 {
			return nil, errors.Errorf("feature %d (%s) has cardinality %d", i, f.Name, f.Cardinality)
		}
		if _, added := names.Add(f.Name); !added {
			return nil, errors.Errorf("duplicate feature %q", f.Name)
		}
	}
	copied := make([]FeatureSpec, len(features))
	copy(copied, features)
	return &Descriptor{features: copied, tags: tagEnum, tagOffset: tagOffset}, nil
}

// TagNames returns "0".."n-1", for descriptors whose tags have no names.
func TagNames(n int) []string {
	retval := make([]string, n)
	for i := range retval {
		retval[i] = strconv.Itoa(i)
	}
	return retval
}

func (d *Descriptor) NumTags() int     { return d.tags.Len() }
func (d *Descriptor) NumFeatures() int { return len(d.features) }
func (d *Descriptor) TagOffset() int   { return d.tagOffset }

func (d *Descriptor) Feature(i int) FeatureSpec {
	return d.features[i]
}

func (d *Descriptor) Features() []FeatureSpec {
	retval := make([]FeatureSpec, len(d.features))
	copy(retval, d.features)
	return retval
}

func (d *Descriptor) Tags() []string {
	retval := make([]string, d.NumTags())
	for i := range retval {
		retval[i] = d.TagName(i)
	}
	return retval
}

// TagName returns the name of tag, or its number when out of range.
func (d *Descriptor) TagName(tag int) string {
	name, err := d.tags.ValueOf(tag)
	if err != nil {
		return strconv.Itoa(tag)
	}
	return name
}

func (d *Descriptor) TagIndex(name string) (int, bool) {
	return d.tags.IndexOf(name)
}

func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == other {
		return true
	}
	if other == nil || d.tagOffset != other.tagOffset || d.NumTags() != other.NumTags() ||
		len(d.features) != len(other.features) {
		return false
	}
	for i, f := range d.features {
		if f != other.features[i] {
			return false
		}
	}
	for i := 0; i < d.NumTags(); i++ {
		if d.TagName(i) != other.TagName(i) {
			return false
		}
	}
	return true
}

// CheckToken verifies one token's feature values against the layout.
func (d *Descriptor) CheckToken(x []int) error {
	if len(x) != len(d.features) {
		return errors.Wrapf(ErrInvalidFeatureValue, "got %d features, expected %d", len(x), len(d.features))
	}
	for i, val := range x {
		if val < 0 || val >= d.features[i].Cardinality {
			return errors.Wrapf(ErrInvalidFeatureValue, "feature %d (%s) = %d, cardinality %d",
				i, d.features[i].Name, val, d.features[i].Cardinality)
		}
	}
	return nil
}

func (d *Descriptor) CheckTag(tag int) error {
	if tag < 0 || tag >= d.NumTags() {
		return errors.Wrapf(ErrInvalidTag, "tag %d, expected [0, %d)", tag, d.NumTags())
	}
	return nil
}

// CheckSequence verifies a whole sequence and its tags. y may be nil. A
// token with the wrong number of features is a shape mismatch.
func (d *Descriptor) CheckSequence(x [][]int, y []int) error {
	if len(x) == 0 {
		return ErrEmptySequence
	}
	if y != nil && len(x) != len(y) {
		return errors.Wrapf(ErrShapeMismatch, "%d tokens but %d tags", len(x), len(y))
	}
	for t, token := range x {
		if len(token) != len(d.features) {
			return errors.Wrapf(ErrShapeMismatch, "token %d: got %d features, expected %d", t, len(token), len(d.features))
		}
		if err := d.CheckToken(token); err != nil {
			return errors.WithMessagef(err, "token %d", t)
		}
		if y != nil {
			if err := d.CheckTag(y[t]); err != nil {
				return errors.WithMessagef(err, "token %d", t)
			}
		}
	}
	return nil
}
