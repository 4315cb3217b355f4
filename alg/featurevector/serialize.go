package featurevector

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type SerializedBlock struct {
	Rows, Cols int
	Data       []float64
}

// Serialized is the flattened form written to model files.
type Serialized struct {
	Tags      []string
	TagOffset int
	Features  []FeatureSpec
	Blocks    []SerializedBlock
}

func (v *FeatureVector) Serialize() *Serialized {
	retval := &Serialized{
		Tags:      v.desc.Tags(),
		TagOffset: v.desc.tagOffset,
		Features:  v.desc.Features(),
		Blocks:    make([]SerializedBlock, len(v.blocks)),
	}
	for i, b := range v.blocks {
		r, c := b.Dims()
		data := make([]float64, r*c)
		copy(data, b.RawMatrix().Data)
		retval.Blocks[i] = SerializedBlock{Rows: r, Cols: c, Data: data}
	}
	return retval
}

func Deserialize(s *Serialized) (*FeatureVector, error) {
	desc, err := NewDescriptor(s.Tags, s.TagOffset, s.Features)
	if err != nil {
		return nil, errors.WithMessage(err, "deserializing descriptor")
	}
	retval := New(desc)
	if len(s.Blocks) != len(retval.blocks) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d serialized blocks, expected %d", len(s.Blocks), len(retval.blocks))
	}
	for i, sb := range s.Blocks {
		r, c := retval.blocks[i].Dims()
		if sb.Rows != r || sb.Cols != c || len(sb.Data) != r*c {
			return nil, errors.Wrapf(ErrShapeMismatch, "serialized block %d is %dx%d (%d values), expected %dx%d",
				i, sb.Rows, sb.Cols, len(sb.Data), r, c)
		}
		data := make([]float64, len(sb.Data))
		copy(data, sb.Data)
		retval.blocks[i] = mat.NewDense(r, c, data)
	}
	return retval, nil
}
