// Package timeline turns decoded cell tables into normalized equipment
// lifecycle records: projection, date normalization, grouping by equipment
// identity, and visible-year-span resolution.
package timeline

import (
	"fmt"
	"time"

	"github.com/equipviz/rotorline/pkg/errors"
	"github.com/equipviz/rotorline/pkg/table"
)

// Record is one event row for a single equipment unit.
//
// EquipmentID is never empty: it is the grouping and linking key, and is
// synthesized from the row index when the source cell is blank. Dates use
// the zero time as the "absent" sentinel.
type Record struct {
	EquipmentID       string
	ShortLabel        string
	SourceEquipmentID string // empty = no lineage
	OutageDate        time.Time
	OutageKind        string
	EndOfLifeStart    time.Time
	EndOfLifeEnd      time.Time
	LifeExtensionKind string // empty = none
	MetricValue       float64 // accumulated running hours
}

// HasOutage reports whether the record carries a dated outage event.
func (r Record) HasOutage() bool { return !r.OutageDate.IsZero() }

// HasLineage reports whether the record inherits from a source equipment.
func (r Record) HasLineage() bool { return r.SourceEquipmentID != "" }

// DefaultOutageKind is applied when the outage-type cell is blank.
const DefaultOutageKind = "Inspection"

// StandardExtensionKind is the "standard extension" designator. Records
// whose extension kind equals it do not get a seed/origin marker.
const StandardExtensionKind = "RLE"

// Logical fields, in declaration order. The order doubles as the positional
// fallback when a header name is not found.
const (
	fieldEquipmentID = iota
	fieldShortLabel
	fieldMetric
	fieldSource
	fieldOutageDate
	fieldOutageKind
	fieldEOLStart
	fieldEOLEnd
	fieldExtension
	fieldCount
)

// columnNames are the exact header names the source workbooks carry,
// indexed by logical field. The inconsistent capitalization is the
// workbooks', not ours; matching is deliberately exact (see DESIGN.md).
var columnNames = [fieldCount]string{
	fieldEquipmentID: "Equipment Serial Number",
	fieldShortLabel:  "Equipment Short name",
	fieldMetric:      "Current FFH",
	fieldSource:      "Source Serial number",
	fieldOutageDate:  "Outage Date",
	fieldOutageKind:  "Type of Outage",
	fieldEOLStart:    "Rotor End of Life Window Start",
	fieldEOLEnd:      "Rotor End of life window end",
	fieldExtension:   "Type of Rotor Life Extension Applied",
}

// requiredColumns is the full header set a valid workbook carries. The
// header row must be at least this wide. Note it is one longer than the
// mapped field list: "Equipment Name" is validated but never projected,
// matching the source system's contract.
var requiredColumns = []string{
	"Equipment Name",
	"Equipment Serial Number",
	"Equipment Short Name",
	"Current FFH",
	"Source Serial Number",
	"Outage Date",
	"Type of Outage",
	"Rotor End of Life Window Start",
	"Rotor End of Life Window End",
	"Type of Rotor Life Extension Applied",
}

// Project maps a raw header/row table into Records.
//
// The table must have a header row plus at least one data row, and the
// header row must be at least as wide as the required column set;
// otherwise Project fails with ErrCodeMalformedInput and no partial result.
//
// Column resolution per logical field: exact header-name match first, then
// the field's own position in declaration order. The positional fallback is
// a data-blind guess preserved for compatibility with existing workbooks:
// callers relying on renamed headers get silently misassigned columns, not
// an error.
//
// Individual rows never fail the projection: entirely empty rows are
// skipped, missing cells take per-field defaults, and unparseable dates
// degrade to absent.
func Project(t table.Table) ([]Record, error) {
	if t.Rows() < 2 {
		return nil, errors.New(errors.ErrCodeMalformedInput,
			"table does not contain enough data: need a header row and at least one data row, got %d rows", t.Rows())
	}
	headers := t.Headers()
	if len(headers) < len(requiredColumns) {
		return nil, errors.New(errors.ErrCodeMalformedInput,
			"table does not contain all required columns: got %d headers, need %d", len(headers), len(requiredColumns))
	}

	cols := resolveColumns(headers)

	records := make([]Record, 0, t.Rows()-1)
	for i := 1; i < t.Rows(); i++ {
		row := t[i]
		if len(row) == 0 {
			continue
		}
		records = append(records, projectRow(row, cols, i))
	}
	return records, nil
}

// resolveColumns maps each logical field to a column index: the exact
// header match when present, the field's declaration position otherwise.
func resolveColumns(headers []table.Cell) [fieldCount]int {
	var cols [fieldCount]int
	for field, name := range columnNames {
		cols[field] = field // positional fallback
		for i, h := range headers {
			if s, ok := h.(string); ok && s == name {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

func projectRow(row []table.Cell, cols [fieldCount]int, rowIndex int) Record {
	cell := func(field int) table.Cell {
		idx := cols[field]
		if idx < 0 || idx >= len(row) {
			return nil
		}
		return row[idx]
	}

	rec := Record{
		EquipmentID:       table.String(cell(fieldEquipmentID)),
		ShortLabel:        table.String(cell(fieldShortLabel)),
		SourceEquipmentID: table.String(cell(fieldSource)),
		OutageDate:        NormalizeDate(cell(fieldOutageDate)),
		OutageKind:        table.String(cell(fieldOutageKind)),
		EndOfLifeStart:    NormalizeDate(cell(fieldEOLStart)),
		EndOfLifeEnd:      NormalizeDate(cell(fieldEOLEnd)),
		LifeExtensionKind: table.String(cell(fieldExtension)),
	}
	rec.MetricValue, _ = table.Number(cell(fieldMetric))

	if rec.EquipmentID == "" {
		rec.EquipmentID = fmt.Sprintf("Equipment-%d", rowIndex)
	}
	if rec.ShortLabel == "" {
		rec.ShortLabel = fmt.Sprintf("GT%d", rowIndex)
	}
	if rec.OutageKind == "" {
		rec.OutageKind = DefaultOutageKind
	}
	return rec
}
