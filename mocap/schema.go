package mocap

import (
	"fmt"

	"go.uber.org/multierr"
)

// Column names of a Motive rigid-body export with a head and a jaw body.
const (
	ColFrame  = "Frame"
	ColTime   = "Time"
	ColHeadQX = "head_qx"
	ColHeadQY = "head_qy"
	ColHeadQZ = "head_qz"
	ColHeadQW = "head_qw"
	ColHeadPX = "head_px"
	ColHeadPY = "head_py"
	ColHeadPZ = "head_pz"
	ColJawQX  = "jaw_qx"
	ColJawQY  = "jaw_qy"
	ColJawQZ  = "jaw_qz"
	ColJawQW  = "jaw_qw"
	ColJawPX  = "jaw_px"
	ColJawPY  = "jaw_py"
	ColJawPZ  = "jaw_pz"
)

// DefaultHeaderRows is the length of the preamble Motive writes before the data rows.
const DefaultHeaderRows = 7

// RequiredColumns lists every column the pipeline reads, in the default export order.
var RequiredColumns = []string{
	ColFrame, ColTime,
	ColHeadQX, ColHeadQY, ColHeadQZ, ColHeadQW, ColHeadPX, ColHeadPY, ColHeadPZ,
	ColJawQX, ColJawQY, ColJawQZ, ColJawQW, ColJawPX, ColJawPY, ColJawPZ,
}

// Schema describes where each field sits in a data row and how many preamble rows to skip.
type Schema struct {
	HeaderRows int      `json:"header_rows"`
	Columns    []string `json:"columns"`
}

// DefaultSchema returns the layout of a two-body Motive export.
func DefaultSchema() Schema {
	cols := make([]string, len(RequiredColumns))
	copy(cols, RequiredColumns)
	return Schema{HeaderRows: DefaultHeaderRows, Columns: cols}
}

// Validate ensures every required column appears exactly once. Unknown column names are allowed and
// ignored so exports with extra markers still load.
func (s Schema) Validate() error {
	var errs error
	if s.HeaderRows < 0 {
		errs = multierr.Append(errs, &ValidationError{Field: "header_rows", Reason: fmt.Sprintf("must be non-negative, got %d", s.HeaderRows)})
	}
	seen := make(map[string]int, len(s.Columns))
	for _, c := range s.Columns {
		seen[c]++
	}
	for _, c := range RequiredColumns {
		switch n := seen[c]; {
		case n == 0:
			errs = multierr.Append(errs, &ValidationError{Field: c, Reason: "missing column"})
		case n > 1:
			errs = multierr.Append(errs, &ValidationError{Field: c, Reason: fmt.Sprintf("column appears %d times", n)})
		}
	}
	return errs
}

// index maps column names to their position in a row.
func (s Schema) index() map[string]int {
	idx := make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		idx[c] = i
	}
	return idx
}
