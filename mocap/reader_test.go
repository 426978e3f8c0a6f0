package mocap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/chewlab/jawframe/spatialmath"
)

const preamble = `Format Version,1.23,Take Name,chew
,
Type,Rigid Body,Rigid Body
Name,head,jaw
ID,1,2
,Rotation,Position
Frame,Time,X,Y,Z,W,X,Y,Z
`

func TestReadSequence(t *testing.T) {
	data := preamble +
		"0,0.000,0,0,0,1,1,2,3,0,0,0,1,4,5,6\n" +
		"1,0.010,0,0,0,1,1,2,3,0.1,0,0,0.995,4,5,7\n" +
		"2,0.020,0,0,0,1,1,2,3,0.2,0,0,0.98,4,5,8\n"

	seq, err := ReadSequence(strings.NewReader(data), DefaultSchema())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seq.Len(), test.ShouldEqual, 3)

	f := seq.Frames[1]
	test.That(t, f.Index, test.ShouldEqual, 1)
	test.That(t, f.Time, test.ShouldAlmostEqual, 0.01)
	test.That(t, f.Head.Position.X, test.ShouldEqual, 1.0)
	test.That(t, f.Jaw.Position.Z, test.ShouldEqual, 7.0)
	test.That(t, spatialmath.QuatToXYZW(f.Jaw.Quaternion), test.ShouldResemble, [4]float64{0.1, 0, 0, 0.995})
	test.That(t, f.Jaw.FrameIndex, test.ShouldEqual, 1)
	test.That(t, seq.Validate(), test.ShouldBeNil)
}

func TestReadSequenceCustomSchema(t *testing.T) {
	schema := Schema{HeaderRows: 1, Columns: append([]string{"extra"}, RequiredColumns...)}
	data := "header\n" + "x,5,0.5,0,0,0,1,0,0,0,0,0,0,1,0,0,-10\n"
	seq, err := ReadSequence(strings.NewReader(data), schema)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seq.Frames[0].Index, test.ShouldEqual, 5)
	test.That(t, seq.Frames[0].Jaw.Position.Z, test.ShouldEqual, -10.0)
}

func TestReadSequenceErrors(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		data := preamble + "0,0.000,0,0,0,1,1,2,3,0,0,0,1,4,5\n"
		_, err := ReadSequence(strings.NewReader(data), DefaultSchema())
		var verr *ValidationError
		test.That(t, errors.As(err, &verr), test.ShouldBeTrue)
		test.That(t, verr.Field, test.ShouldEqual, ColJawPZ)
		test.That(t, verr.Line, test.ShouldEqual, 8)
	})

	t.Run("empty field", func(t *testing.T) {
		data := preamble + "0,,0,0,0,1,1,2,3,0,0,0,1,4,5,6\n"
		_, err := ReadSequence(strings.NewReader(data), DefaultSchema())
		var verr *ValidationError
		test.That(t, errors.As(err, &verr), test.ShouldBeTrue)
		test.That(t, verr.Field, test.ShouldEqual, ColTime)
	})

	t.Run("not a number", func(t *testing.T) {
		data := preamble + "0,0,0,0,0,abc,1,2,3,0,0,0,1,4,5,6\n"
		_, err := ReadSequence(strings.NewReader(data), DefaultSchema())
		var verr *ValidationError
		test.That(t, errors.As(err, &verr), test.ShouldBeTrue)
		test.That(t, verr.Field, test.ShouldEqual, ColHeadQW)
	})

	t.Run("no data", func(t *testing.T) {
		_, err := ReadSequence(strings.NewReader(preamble), DefaultSchema())
		test.That(t, errors.Is(err, ErrTooFewFrames), test.ShouldBeTrue)
	})

	t.Run("short preamble", func(t *testing.T) {
		_, err := ReadSequence(strings.NewReader("a\nb\n"), DefaultSchema())
		test.That(t, errors.Is(err, ErrTooFewFrames), test.ShouldBeTrue)
	})

	t.Run("bad schema", func(t *testing.T) {
		schema := DefaultSchema()
		schema.Columns = schema.Columns[:len(schema.Columns)-1]
		schema.Columns = append(schema.Columns, ColFrame)
		_, err := ReadSequence(strings.NewReader(preamble), schema)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, ColJawPZ)
		test.That(t, err.Error(), test.ShouldContainSubstring, "appears 2 times")
	})
}

func TestReadSequenceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.csv")
	data := preamble + "0,0.000,0,0,0,1,1,2,3,0,0,0,1,4,5,6\n"
	test.That(t, os.WriteFile(path, []byte(data), 0o600), test.ShouldBeNil)

	seq, err := ReadSequenceFile(path, DefaultSchema())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seq.Len(), test.ShouldEqual, 1)

	_, err = ReadSequenceFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultSchema())
	test.That(t, errors.Is(err, os.ErrNotExist), test.ShouldBeTrue)
}
