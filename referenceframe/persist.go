package referenceframe

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/chewlab/jawframe/spatialmath"
	"github.com/chewlab/jawframe/utils"
)

// MarshalBinary encodes the basis as a 3x3 gonum dense matrix.
func (b *CanonicalBasis) MarshalBinary() ([]byte, error) {
	return mat.NewDense(3, 3, b.rm.Slice()).MarshalBinary()
}

// UnmarshalCanonicalBasis decodes a basis written by MarshalBinary and validates it again.
func UnmarshalCanonicalBasis(data []byte) (*CanonicalBasis, error) {
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, errors.Wrap(err, "decoding basis")
	}
	if r, c := m.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("basis must be 3x3, got %dx%d", r, c)
	}
	rm, err := spatialmath.NewRotationMatrix(mat.DenseCopyOf(&m).RawMatrix().Data)
	if err != nil {
		return nil, err
	}
	return NewCanonicalBasisFromMatrix(rm)
}

// SaveBasis writes b to path. An existing file is never replaced: the basis of a rig is derived
// once, and a second derivation racing the first fails with ErrBasisExists.
func SaveBasis(path string, b *CanonicalBasis) error {
	data, err := b.MarshalBinary()
	if err != nil {
		return err
	}
	err = utils.WriteFileExclusive(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if errors.Is(err, os.ErrExist) {
		return errors.Wrapf(ErrBasisExists, "%q", path)
	}
	return err
}

// LoadBasis reads a basis written by SaveBasis.
func LoadBasis(path string) (*CanonicalBasis, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading basis %q", path)
	}
	b, err := UnmarshalCanonicalBasis(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading basis %q", path)
	}
	return b, nil
}
