package trajectory

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/chewlab/jawframe/utils"
)

var (
	// CycleHeader names the six columns of a robot-ready cycle file.
	CycleHeader = []string{"x_mm", "y_mm", "z_mm", "roll_rad", "pitch_rad", "yaw_rad"}
	// Header names the columns of a full trajectory file.
	Header = append([]string{"Frame", "Time"}, CycleHeader...)
)

func formatFloat(v float64, _ int) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes traj with a header row and one row per pose.
func WriteCSV(w io.Writer, traj Trajectory) error {
	return writeRows(w, Header, traj, func(p Pose) []string {
		v := p.values()
		return append([]string{strconv.Itoa(p.FrameIndex), formatFloat(p.Time, 0)}, lo.Map(v[:], formatFloat)...)
	})
}

// WriteCycleCSV writes only the six pose columns of traj, the layout the robot plays back.
func WriteCycleCSV(w io.Writer, traj Trajectory) error {
	return writeRows(w, CycleHeader, traj, func(p Pose) []string {
		v := p.values()
		return lo.Map(v[:], formatFloat)
	})
}

func writeRows(w io.Writer, header []string, traj Trajectory, row func(p Pose) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range traj {
		if err := cw.Write(row(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes traj to path with write, atomically: on failure nothing is left at path.
func WriteFile(path string, traj Trajectory, write func(io.Writer, Trajectory) error) error {
	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		return write(w, traj)
	})
	return errors.Wrapf(err, "writing trajectory %q", path)
}

// ReadCSV parses a file written by WriteCSV.
func ReadCSV(r io.Reader) (Trajectory, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading trajectory header")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	missing := lo.Filter(Header, func(name string, _ int) bool {
		_, ok := idx[name]
		return !ok
	})
	if len(missing) > 0 {
		return nil, errors.Errorf("trajectory is missing columns %v", missing)
	}

	var traj Trajectory
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading trajectory")
		}
		line, _ := cr.FieldPos(0)
		var values [8]float64
		for i, name := range Header {
			v, err := strconv.ParseFloat(record[idx[name]], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %s", line, name)
			}
			values[i] = v
		}
		traj = append(traj, Pose{
			FrameIndex: int(values[0]),
			Time:       values[1],
			X:          values[2],
			Y:          values[3],
			Z:          values[4],
			Roll:       values[5],
			Pitch:      values[6],
			Yaw:        values[7],
		})
	}
	return traj, nil
}

// ReadFile opens path and reads it with ReadCSV.
func ReadFile(path string) (Trajectory, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	traj, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return traj, nil
}
