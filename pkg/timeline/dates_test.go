package timeline

import (
	"testing"
	"time"
)

func TestNormalizeDateSerial(t *testing.T) {
	tests := []struct {
		name   string
		serial float64
		want   time.Time
	}{
		// Serial 2 reproduces the "day 1 = Jan 1 1900" convention's
		// off-by-two quirk: 1900-01-01 plus (2 - 2) days.
		{"day two is the epoch", 2, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"one day later", 3, time.Date(1900, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"modern date", 44927, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.serial)
			if !got.Equal(tt.want) {
				t.Errorf("NormalizeDate(%v) = %v, want %v", tt.serial, got, tt.want)
			}
		})
	}
}

func TestNormalizeDateString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso", "2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"slashes", "2025/03/01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"us style", "03/01/2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"month name", "Mar 1, 2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("NormalizeDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDateSerialStringAgree(t *testing.T) {
	// A serial day-count and the equivalent calendar string must normalize
	// to the same date.
	fromSerial := NormalizeDate(float64(44927))
	fromString := NormalizeDate("2023-01-01")
	if !fromSerial.Equal(fromString) {
		t.Errorf("serial %v != string %v", fromSerial, fromString)
	}
}

func TestNormalizeDateAbsent(t *testing.T) {
	tests := []struct {
		name string
		cell any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"whitespace", "  "},
		{"serial zero", float64(0)},
		{"garbage string", "not a date"},
		{"bool", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.cell); !got.IsZero() {
				t.Errorf("NormalizeDate(%v) = %v, want zero time", tt.cell, got)
			}
		})
	}
}
