// Package pipeline provides the core visualization pipeline.
//
// It implements the complete load → layout → render sequence shared by the
// CLI and the interactive server, so both entry points behave identically
// and cache results the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the tabular source file and project it into records
//  2. Layout: group records, resolve the year span, and build the scene
//  3. Render: serialize the scene in one or more output formats
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "fleet.json",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/equipviz/rotorline/pkg/cache"
	"github.com/equipviz/rotorline/pkg/errors"
	"github.com/equipviz/rotorline/pkg/layout"
	"github.com/equipviz/rotorline/pkg/scene"
	"github.com/equipviz/rotorline/pkg/timeline"
)

// Output format constants.
const (
	FormatSVG     = "svg"     // static timeline document
	FormatJSON    = "json"    // scene interchange for the interactive surface
	FormatDOT     = "dot"     // lineage graph as Graphviz DOT text
	FormatLineage = "lineage" // lineage graph rendered to SVG via Graphviz
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:     true,
	FormatJSON:    true,
	FormatDOT:     true,
	FormatLineage: true,
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, json, dot, lineage)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for a pipeline run. The struct
// serializes to JSON so server requests can carry it directly.
type Options struct {
	// Load options
	Source  string `json:"source"`
	Refresh bool   `json:"refresh,omitempty"`

	// Layout options. FirstYear/LastYear pin the span; when zero the
	// span is resolved from the record dates.
	Layout    layout.Config `json:"layout,omitempty"`
	FirstYear int           `json:"first_year,omitempty"`
	LastYear  int           `json:"last_year,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Now    time.Time   `json:"-"` // clock override for span resolution

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Records are the projected equipment records.
	Records []timeline.Record

	// RecordsHash is the content hash of the projected records.
	RecordsHash string

	// Span is the resolved year range.
	Span timeline.Span

	// Scene is the laid-out geometry.
	Scene *scene.Scene

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount int
	NodeCount   int
	EdgeCount   int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool
	LayoutHit bool
	RenderHit bool // all requested artifacts came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent: repeated calls are no-ops.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source is required")
	}
	if o.FirstYear != 0 && o.LastYear != 0 && o.LastYear < o.FirstYear {
		return errors.New(errors.ErrCodeInvalidInput,
			"last year %d precedes first year %d", o.LastYear, o.FirstYear)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Layout == (layout.Config{}) {
		o.Layout = layout.DefaultConfig()
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// sceneKeyOpts returns the cache key inputs that affect scene geometry.
func (o *Options) sceneKeyOpts(span timeline.Span) cache.SceneKeyOpts {
	return cache.SceneKeyOpts{
		SpanFirst:  span.First,
		SpanLast:   span.Last,
		YearWidth:  o.Layout.YearWidth,
		RowHeight:  o.Layout.RowHeight,
		LabelWidth: o.Layout.LabelWidth,
	}
}
