// Package table models the input contract with the external spreadsheet
// decoder: a 2D array of cell values, row 0 = headers, rows 1..n = data.
//
// The decoder itself lives outside this module. What arrives here is its
// output, loaded from a .json or .yaml file. Cells are strings, numbers, or
// absent (nil); this package never touches the original binary workbook.
package table

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/equipviz/rotorline/pkg/errors"
)

// Cell is a single decoded spreadsheet cell: a string, a number, or nil
// when the cell is absent.
type Cell = any

// Table is a decoded worksheet. Row 0 holds header strings, the remaining
// rows hold data cells. Rows may be ragged.
type Table [][]Cell

// Rows returns the number of rows including the header row.
func (t Table) Rows() int { return len(t) }

// Headers returns the header row, or nil for an empty table.
func (t Table) Headers() []Cell {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// validExtensions lists the accepted file formats for decoded tables.
var validExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// Load reads a decoded cell table from path.
//
// The extension is checked before any bytes are read: anything other than
// .json, .yaml, or .yml fails with ErrCodeInvalidFormat. Open or read
// failures are reported as ErrCodeUnreadableSource, decode failures as
// ErrCodeMalformedInput.
func Load(path string) (Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !validExtensions[ext] {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"unsupported file extension %q (expected .json, .yaml, or .yml)", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnreadableSource, err, "open %s", path)
	}
	defer f.Close()

	switch ext {
	case ".json":
		return ReadJSON(f)
	default:
		return ReadYAML(f)
	}
}

// ReadJSON decodes a JSON array-of-arrays cell table from r.
func ReadJSON(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode table")
	}
	return t, nil
}

// ReadYAML decodes a YAML sequence-of-sequences cell table from r.
func ReadYAML(r io.Reader) (Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode table")
	}
	return t, nil
}

// String renders a cell as display text. Absent cells render as "".
// Numbers use the shortest exact representation ("120000", not "120000.0").
func String(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Number extracts a numeric cell value. String cells are parsed; the second
// return is false when the cell is absent or not numeric.
func Number(c Cell) (float64, bool) {
	switch v := c.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
