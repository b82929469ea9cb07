package timeline

import (
	"strings"
	"time"

	"github.com/equipviz/rotorline/pkg/table"
)

// serialEpoch is 1900-01-01, day 1 of the spreadsheet serial-date scheme.
var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// serialCorrection compensates for the leap-year defect in the serial
// scheme (the decoder treats 1900 as a leap year and counts from day 1,
// not day 0). The external decoder's serial numbers require exactly this
// offset, so serial 2 maps to 1900-01-01.
const serialCorrection = 2

// dateLayouts are tried in order when normalizing string cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	time.RFC3339,
}

// NormalizeDate converts a cell of unknown representation into a calendar
// date. The zero time is the "absent" sentinel; NormalizeDate never fails.
//
//   - Absent cells (nil, empty string, serial 0) normalize to the zero time.
//   - Numeric cells are spreadsheet serial day-counts from the 1900-01-01
//     epoch, with the two-day correction subtracted.
//   - String cells get a best-effort parse; unparseable strings normalize
//     to the zero time rather than an error.
func NormalizeDate(c table.Cell) time.Time {
	switch v := c.(type) {
	case nil:
		return time.Time{}
	case float64:
		return fromSerial(int(v))
	case int:
		return fromSerial(v)
	case int64:
		return fromSerial(int(v))
	case string:
		return parseDateString(v)
	default:
		return time.Time{}
	}
}

func fromSerial(days int) time.Time {
	if days == 0 {
		return time.Time{}
	}
	return serialEpoch.AddDate(0, 0, days-serialCorrection)
}

func parseDateString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d
		}
	}
	return time.Time{}
}
