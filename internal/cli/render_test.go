package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	tbl := [][]any{
		{
			"Equipment Name",
			"Equipment Serial Number",
			"Equipment Short name",
			"Current FFH",
			"Source Serial number",
			"Outage Date",
			"Type of Outage",
			"Rotor End of Life Window Start",
			"Rotor End of life window end",
			"Type of Rotor Life Extension Applied",
		},
		{"Unit 1", "SN-1", "GT1", 96000, "", "2025-03-01", "Major", "", "", ""},
		{"Unit 2", "SN-2", "GT2", 48000, "SN-1", "2027-09-01", "Inspection", "", "", "RLE"},
	}
	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "fleet.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		source string
		output string
		format string
		multi  bool
		want   string
	}{
		{"default svg uses export name", "fleet.json", "", "svg", false, "timeline_visualization.svg"},
		{"default json", "fleet.json", "", "json", false, "fleet.scene.json"},
		{"default dot", "data/fleet.yaml", "", "dot", false, "fleet.dot"},
		{"default lineage", "fleet.json", "", "lineage", false, "fleet_lineage.svg"},
		{"explicit output single", "fleet.json", "out.svg", "svg", false, "out.svg"},
		{"explicit output multi svg", "fleet.json", "out.svg", "svg", true, "out.svg"},
		{"explicit output multi json", "fleet.json", "out.svg", "json", true, "out.json"},
		{"multi svg default", "fleet.json", "", "svg", true, "fleet.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.source, tt.output, tt.format, tt.multi); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderCommandWritesSVG(t *testing.T) {
	source := writeWorkbook(t)
	out := filepath.Join(t.TempDir(), "timeline.svg")

	c := New(io.Discard, log.FatalLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"render", source, "-o", out, "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	svg := string(data)
	if !strings.HasPrefix(svg, "<svg") {
		t.Error("output is not an SVG document")
	}
	if !strings.Contains(svg, "outage_SN-1_2025") {
		t.Error("output missing outage marker")
	}
}

func TestRenderCommandMultipleFormats(t *testing.T) {
	source := writeWorkbook(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "fleet.svg")

	c := New(io.Discard, log.FatalLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"render", source, "-o", out, "-f", "svg,json", "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "fleet.svg")); err != nil {
		t.Error("svg artifact missing")
	}
	if _, err := os.Stat(filepath.Join(dir, "fleet.json")); err != nil {
		t.Error("json artifact missing")
	}
}

func TestRenderCommandRejectsBadFormat(t *testing.T) {
	source := writeWorkbook(t)

	c := New(io.Discard, log.FatalLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"render", source, "-f", "png"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err == nil {
		t.Error("expected an error for unsupported format")
	}
}

func TestRenderCommandMissingFile(t *testing.T) {
	c := New(io.Discard, log.FatalLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"render", filepath.Join(t.TempDir(), "nope.json"), "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err == nil {
		t.Error("expected an error for a missing source file")
	}
}
