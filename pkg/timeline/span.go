package timeline

import "time"

// defaultSpanYears is the minimum number of years the view covers.
const defaultSpanYears = 5

// Span is the visible year range of the timeline, inclusive on both ends.
type Span struct {
	First int
	Last  int
}

// Years returns the number of calendar years the span covers.
func (s Span) Years() int { return s.Last - s.First + 1 }

// Contains reports whether year falls inside the span.
func (s Span) Contains(year int) bool { return year >= s.First && year <= s.Last }

// ResolveSpan derives the visible year span from the records, anchored on
// now.
//
// With no present dates the span defaults to [current year, current year+5].
// Otherwise the lower bound is max(current year, minimum observed year),
// so the view never starts before today even for historical data, and the
// upper bound is max(maximum observed year + 1, lower bound + 5), so the
// span always covers at least five years and the latest event plus one
// trailing year. This is a presentation policy, not a data-fidelity rule.
func ResolveSpan(records []Record, now time.Time) Span {
	currentYear := now.Year()

	minYear, maxYear, seen := 0, 0, false
	observe := func(d time.Time) {
		if d.IsZero() {
			return
		}
		y := d.Year()
		if !seen || y < minYear {
			minYear = y
		}
		if !seen || y > maxYear {
			maxYear = y
		}
		seen = true
	}

	for _, r := range records {
		observe(r.OutageDate)
		observe(r.EndOfLifeStart)
		observe(r.EndOfLifeEnd)
	}

	if !seen {
		return Span{First: currentYear, Last: currentYear + defaultSpanYears}
	}

	first := max(currentYear, minYear)
	last := max(maxYear+1, first+defaultSpanYears)
	return Span{First: first, Last: last}
}
