package types

import (
	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/acompa/chaincrf/util"
	"github.com/pkg/errors"
)

var ErrEmptyDataset = errors.New("empty dataset")

// Tags is a tag sequence, gold or decoded.
type Tags []int

var _ util.Equaler = Tags{}

func (t Tags) Equal(otherEq util.Equaler) bool {
	other, ok := otherEq.(Tags)
	if !ok || len(t) != len(other) {
		return false
	}
	for i, tag := range t {
		if other[i] != tag {
			return false
		}
	}
	return true
}

// Mismatches counts positions where t and other differ; a length difference
// counts every missing position.
func (t Tags) Mismatches(other Tags) int {
	short, long := t, other
	if len(short) > len(long) {
		short, long = long, short
	}
	retval := len(long) - len(short)
	for i, tag := range short {
		if long[i] != tag {
			retval++
		}
	}
	return retval
}

func (t Tags) Names(desc *featurevector.Descriptor) []string {
	retval := make([]string, len(t))
	for i, tag := range t {
		retval[i] = desc.TagName(tag)
	}
	return retval
}

// Sample is one token sequence with its per-token features X and gold tags Y.
type Sample struct {
	Name   string
	Tokens []string
	X      [][]int
	Y      Tags
}

func (s *Sample) Len() int {
	return len(s.X)
}

// Validate checks s against desc: a non-empty sequence, one gold tag per
// token, one value per feature and every feature inside its cardinality.
func (s *Sample) Validate(desc *featurevector.Descriptor) error {
	if s.Tokens != nil && len(s.Tokens) != len(s.X) {
		return errors.Wrapf(featurevector.ErrShapeMismatch, "sample %s: %d tokens but %d feature rows", s.Name, len(s.Tokens), len(s.X))
	}
	if s.Y == nil {
		return errors.Wrapf(featurevector.ErrShapeMismatch, "sample %s has no gold tags", s.Name)
	}
	return errors.WithMessagef(desc.CheckSequence(s.X, s.Y), "sample %s", s.Name)
}

type Dataset []Sample

func (d Dataset) NumTokens() int {
	var retval int
	for i := range d {
		retval += d[i].Len()
	}
	return retval
}

// Validate validates every sample, failing on the first bad one.
func (d Dataset) Validate(desc *featurevector.Descriptor) error {
	if len(d) == 0 {
		return ErrEmptyDataset
	}
	for i := range d {
		if err := d[i].Validate(desc); err != nil {
			return err
		}
	}
	return nil
}
