package timeline

import (
	"testing"
	"time"
)

var spanNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestResolveSpanNoDates(t *testing.T) {
	records := []Record{rec("A", 0), rec("B", 0)}

	span := ResolveSpan(records, spanNow)
	want := Span{First: 2025, Last: 2030}
	if span != want {
		t.Errorf("ResolveSpan = %+v, want %+v", span, want)
	}
}

func TestResolveSpanPolicy(t *testing.T) {
	tests := []struct {
		name  string
		years []int
		want  Span
	}{
		{
			// Historical data is still anchored to the present, and the
			// latest event gets one trailing year.
			name:  "historical and far future",
			years: []int{2019, 2031},
			want:  Span{First: 2025, Last: 2032},
		},
		{
			name:  "all historical",
			years: []int{2018, 2020},
			want:  Span{First: 2025, Last: 2030},
		},
		{
			name:  "all future",
			years: []int{2027, 2028},
			want:  Span{First: 2027, Last: 2032},
		},
		{
			name:  "current year only",
			years: []int{2025},
			want:  Span{First: 2025, Last: 2030},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []Record
			for i, y := range tt.years {
				records = append(records, rec(string(rune('A'+i)), y))
			}
			span := ResolveSpan(records, spanNow)
			if span != tt.want {
				t.Errorf("ResolveSpan(%v) = %+v, want %+v", tt.years, span, tt.want)
			}
		})
	}
}

func TestResolveSpanReadsEndOfLifeDates(t *testing.T) {
	records := []Record{
		{
			EquipmentID:  "SN-1",
			EndOfLifeEnd: time.Date(2033, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	span := ResolveSpan(records, spanNow)
	want := Span{First: 2025, Last: 2034}
	if span != want {
		t.Errorf("ResolveSpan = %+v, want %+v", span, want)
	}
}

func TestSpanYears(t *testing.T) {
	s := Span{First: 2025, Last: 2030}
	if s.Years() != 6 {
		t.Errorf("Years = %d, want 6", s.Years())
	}
	if !s.Contains(2025) || !s.Contains(2030) || s.Contains(2031) {
		t.Error("Contains bounds are wrong")
	}
}
