package mocap

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/chewlab/jawframe/spatialmath"
)

// ReadSequence parses a motion capture export laid out according to schema. The first
// schema.HeaderRows lines are skipped; every remaining non-empty row must carry all required columns.
func ReadSequence(r io.Reader, schema Schema) (*Sequence, error) {
	if err := schema.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid schema")
	}
	idx := schema.index()

	// The preamble is skipped line by line rather than record by record: it can contain blank lines,
	// which the CSV reader would silently drop.
	buffered := bufio.NewReader(r)
	for i := 0; i < schema.HeaderRows; i++ {
		if _, err := buffered.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.Wrapf(ErrTooFewFrames, "export ends inside the %d line preamble", schema.HeaderRows)
			}
			return nil, errors.Wrap(err, "reading preamble")
		}
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var frames []Frame
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading motion capture export")
		}
		line, _ := reader.FieldPos(0)
		frame, err := parseFrame(record, idx, line+schema.HeaderRows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 {
		return nil, errors.Wrap(ErrTooFewFrames, "export has no data rows")
	}
	return NewSequence(frames), nil
}

// ReadSequenceFile opens path and reads it with ReadSequence.
func ReadSequenceFile(path string, schema Schema) (*Sequence, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	seq, err := ReadSequence(f, schema)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return seq, nil
}

func parseFrame(record []string, idx map[string]int, line int) (Frame, error) {
	field := func(name string) (float64, error) {
		i := idx[name]
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return 0, &ValidationError{Line: line, Field: name, Reason: "missing value"}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return 0, &ValidationError{Line: line, Field: name, Reason: fmt.Sprintf("not a number: %q", record[i])}
		}
		return v, nil
	}

	values := make(map[string]float64, len(RequiredColumns))
	for _, name := range RequiredColumns {
		v, err := field(name)
		if err != nil {
			return Frame{}, err
		}
		values[name] = v
	}

	frameIndex := values[ColFrame]
	if frameIndex != float64(int(frameIndex)) {
		return Frame{}, &ValidationError{Line: line, Field: ColFrame, Reason: fmt.Sprintf("not an integer: %g", frameIndex)}
	}

	return NewFrame(
		int(frameIndex),
		values[ColTime],
		spatialmath.QuatFromXYZW(values[ColHeadQX], values[ColHeadQY], values[ColHeadQZ], values[ColHeadQW]),
		r3.Vector{X: values[ColHeadPX], Y: values[ColHeadPY], Z: values[ColHeadPZ]},
		spatialmath.QuatFromXYZW(values[ColJawQX], values[ColJawQY], values[ColJawQZ], values[ColJawQW]),
		r3.Vector{X: values[ColJawPX], Y: values[ColJawPY], Z: values[ColJawPZ]},
	), nil
}
