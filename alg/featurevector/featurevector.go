package featurevector

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidFeatureValue = errors.New("invalid feature value")
	ErrInvalidTag          = errors.New("invalid tag")
	ErrShapeMismatch       = errors.New("shape mismatch")
	ErrEmptySequence       = errors.New("empty sequence")
)

// FeatureVector holds one T x cardinality block per token feature followed
// by a single T x T transition block indexed [prev][next]. Block shapes are
// fixed by the descriptor at construction.
type FeatureVector struct {
	desc   *Descriptor
	blocks []*mat.Dense
}

// New returns a zero FeatureVector laid out by desc.
func New(desc *Descriptor) *FeatureVector {
	numTags := desc.NumTags()
	blocks := make([]*mat.Dense, desc.NumFeatures()+1)
	for i, f := range desc.features {
		blocks[i] = mat.NewDense(numTags, f.Cardinality, nil)
	}
	blocks[len(blocks)-1] = mat.NewDense(numTags, numTags, nil)
	return &FeatureVector{desc: desc, blocks: blocks}
}

func (v *FeatureVector) Descriptor() *Descriptor { return v.desc }

func (v *FeatureVector) NumBlocks() int { return len(v.blocks) }

func (v *FeatureVector) Block(i int) mat.Matrix { return v.blocks[i] }

func (v *FeatureVector) pairwise() *mat.Dense { return v.blocks[len(v.blocks)-1] }

// PairwisePotential returns the transition block. It is shared by every
// adjacent pair of the chain.
func (v *FeatureVector) PairwisePotential() mat.Matrix {
	return v.pairwise()
}

// NodePotential sums, for each feature i, column x[i] of unary block i.
func (v *FeatureVector) NodePotential(x []int) ([]float64, error) {
	if err := v.desc.CheckToken(x); err != nil {
		return nil, err
	}
	retval := make([]float64, v.desc.NumTags())
	col := make([]float64, v.desc.NumTags())
	for i, val := range x {
		floats.Add(retval, mat.Col(col, val, v.blocks[i]))
	}
	return retval, nil
}

func (v *FeatureVector) At(block, row, col int) float64 {
	return v.blocks[block].At(row, col)
}

func (v *FeatureVector) Set(block, row, col int, value float64) {
	v.blocks[block].Set(row, col, value)
}

func (v *FeatureVector) Inc(block, row, col int, amount float64) {
	b := v.blocks[block]
	b.Set(row, col, b.At(row, col)+amount)
}

func (v *FeatureVector) Copy() *FeatureVector {
	retval := &FeatureVector{desc: v.desc, blocks: make([]*mat.Dense, len(v.blocks))}
	for i, b := range v.blocks {
		retval.blocks[i] = mat.DenseCopyOf(b)
	}
	return retval
}

// CheckShape reports whether v is laid out by desc.
func (v *FeatureVector) CheckShape(desc *Descriptor) error {
	return sameShape(v, New(desc))
}

func sameShape(a, b *FeatureVector) error {
	if len(a.blocks) != len(b.blocks) {
		return errors.Wrapf(ErrShapeMismatch, "%d blocks vs %d", len(a.blocks), len(b.blocks))
	}
	for i := range a.blocks {
		ar, ac := a.blocks[i].Dims()
		br, bc := b.blocks[i].Dims()
		if ar != br || ac != bc {
			return errors.Wrapf(ErrShapeMismatch, "block %d is %dx%d vs %dx%d", i, ar, ac, br, bc)
		}
	}
	return nil
}

// AddScaled performs v += k * other in place.
func (v *FeatureVector) AddScaled(other *FeatureVector, k float64) error {
	if err := sameShape(v, other); err != nil {
		return err
	}
	for i, b := range v.blocks {
		floats.AddScaled(b.RawMatrix().Data, k, other.blocks[i].RawMatrix().Data)
	}
	return nil
}

func Add(a, b *FeatureVector) (*FeatureVector, error) {
	if err := sameShape(a, b); err != nil {
		return nil, err
	}
	retval := &FeatureVector{desc: a.desc, blocks: make([]*mat.Dense, len(a.blocks))}
	for i := range a.blocks {
		r, c := a.blocks[i].Dims()
		retval.blocks[i] = mat.NewDense(r, c, nil)
		retval.blocks[i].Add(a.blocks[i], b.blocks[i])
	}
	return retval, nil
}

func Sub(a, b *FeatureVector) (*FeatureVector, error) {
	if err := sameShape(a, b); err != nil {
		return nil, err
	}
	retval := &FeatureVector{desc: a.desc, blocks: make([]*mat.Dense, len(a.blocks))}
	for i := range a.blocks {
		r, c := a.blocks[i].Dims()
		retval.blocks[i] = mat.NewDense(r, c, nil)
		retval.blocks[i].Sub(a.blocks[i], b.blocks[i])
	}
	return retval, nil
}

func Scale(a *FeatureVector, k float64) *FeatureVector {
	retval := &FeatureVector{desc: a.desc, blocks: make([]*mat.Dense, len(a.blocks))}
	for i, b := range a.blocks {
		r, c := b.Dims()
		retval.blocks[i] = mat.NewDense(r, c, nil)
		retval.blocks[i].Scale(k, b)
	}
	return retval
}

// Dot is the sum of element-wise products over all blocks.
func Dot(a, b *FeatureVector) (float64, error) {
	if err := sameShape(a, b); err != nil {
		return 0, err
	}
	var retval float64
	for i := range a.blocks {
		retval += floats.Dot(a.blocks[i].RawMatrix().Data, b.blocks[i].RawMatrix().Data)
	}
	return retval, nil
}

// Score is the chain score of tagging x with y under weights v.
func (v *FeatureVector) Score(x [][]int, y []int) (float64, error) {
	counts, err := Empirical(v.desc, x, y)
	if err != nil {
		return 0, err
	}
	return Dot(v, counts)
}

func (v *FeatureVector) IsZero() bool {
	for _, b := range v.blocks {
		for _, val := range b.RawMatrix().Data {
			if val != 0 {
				return false
			}
		}
	}
	return true
}

func (v *FeatureVector) Equal(other *FeatureVector) bool {
	if other == nil || sameShape(v, other) != nil {
		return false
	}
	for i := range v.blocks {
		if !mat.Equal(v.blocks[i], other.blocks[i]) {
			return false
		}
	}
	return true
}

// EqualApprox compares block-wise within tol.
func (v *FeatureVector) EqualApprox(other *FeatureVector, tol float64) bool {
	if other == nil || sameShape(v, other) != nil {
		return false
	}
	for i := range v.blocks {
		if !mat.EqualApprox(v.blocks[i], other.blocks[i], tol) {
			return false
		}
	}
	return true
}

func (v *FeatureVector) String() string {
	strs := make([]string, 0, len(v.blocks))
	for i, b := range v.blocks {
		name := "pairwise"
		if i < v.desc.NumFeatures() {
			name = v.desc.features[i].Name
		}
		strs = append(strs, fmt.Sprintf("%s\n%v", name, mat.Formatted(b, mat.Squeeze())))
	}
	return strings.Join(strs, "\n")
}
