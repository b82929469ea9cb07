// Package layout is the core engine: it turns grouped equipment records and
// a resolved year span into exact pixel geometry: one row per equipment
// unit, calendar time on the horizontal axis, markers for lifecycle events,
// and routed lineage connectors.
//
// All coordinates are deterministic pure functions of (group insertion
// order, record fields, Config, span): re-running the layout on unchanged
// input reproduces identical geometry.
package layout

import (
	"fmt"
	"strconv"
	"time"

	"github.com/equipviz/rotorline/pkg/scene"
	"github.com/equipviz/rotorline/pkg/timeline"
)

// Marker geometry, matching the interactive surface.
const (
	markerIndent = 20 // gap between a year column's left edge and its markers

	outageWidth  = 40
	outageHeight = 30

	endOfLifeWidth  = 30
	endOfLifeHeight = 15
	endOfLifeInset  = 5     // vertical offset below the outage marker
	endOfLifeTag    = "144K" // fixed display metric on end-of-life markers

	seedWidth  = 30
	seedHeight = 30
	seedOffset = 49 // distance the seed marker sits left of its outage
	seedLabel  = "Seed"

	yearLabelInset    = 10 // y of year labels inside the header strip
	quarterLabelInset = 9  // y of quarter ticks inside the header strip

	frameRightPad  = 100 // scene width beyond the last year column
	frameBottomPad = 50  // scene height beyond the last row
)

// OutageMarkerID is the stable id of an outage marker. Two outages for the
// same equipment in the same year collide on one id; the collision is
// resolved last-write-wins by the scene (documented limitation, only one
// marker per equipment/year is addressable for routing).
func OutageMarkerID(equipmentID string, year int) string {
	return fmt.Sprintf("outage_%s_%d", equipmentID, year)
}

// Build lays out the grouped records over the resolved span and returns the
// scene: year headers, quarter ticks, one labeled row per group in
// insertion order, and outage / end-of-life / seed markers per dated
// record. Connectors are added separately by Connect.
func Build(groups timeline.Groups, span timeline.Span, cfg Config) *scene.Scene {
	width := float64(span.Years())*cfg.YearWidth + cfg.LabelWidth + frameRightPad
	height := cfg.HeaderHeight + float64(len(groups))*cfg.RowHeight + frameBottomPad
	s := scene.New(width, height)

	buildHeader(s, span, cfg)

	for rowIndex, g := range groups {
		buildRow(s, g, rowIndex, span, cfg)
	}
	return s
}

// buildHeader emits one year label per year in the span, each with four
// quarter ticks beneath it.
func buildHeader(s *scene.Scene, span timeline.Span, cfg Config) {
	for year := span.First; year <= span.Last; year++ {
		yearX := cfg.LabelWidth + float64(year-span.First)*cfg.YearWidth
		s.AddNode(scene.Node{
			ID:    fmt.Sprintf("year_%d", year),
			Kind:  scene.KindYearHeader,
			X:     yearX,
			Y:     yearLabelInset,
			Width: cfg.YearWidth,
			Label: strconv.Itoa(year),
		})
		for quarter := 0; quarter <= 3; quarter++ {
			s.AddNode(scene.Node{
				ID:    fmt.Sprintf("quarter_%d_%d", year, quarter+1),
				Kind:  scene.KindQuarterTick,
				X:     yearX + float64(quarter)*cfg.QuarterWidth,
				Y:     quarterLabelInset,
				Width: cfg.QuarterWidth,
				Label: strconv.Itoa(quarter + 1),
			})
		}
	}
}

// buildRow emits the row label and per-record markers for one equipment
// group at the given row index.
func buildRow(s *scene.Scene, g timeline.Group, rowIndex int, span timeline.Span, cfg Config) {
	rowTop := cfg.HeaderHeight + float64(rowIndex)*cfg.RowHeight

	s.AddNode(scene.Node{
		ID:        "equipment_" + g.ID,
		Kind:      scene.KindRowLabel,
		X:         0,
		Y:         rowTop,
		Width:     cfg.LabelWidth,
		Height:    cfg.RowHeight,
		Label:     fmt.Sprintf("%s\n%sK", g.Label(), formatMetric(g.Metric()/1000)),
		Equipment: g.ID,
	})

	seen := make(map[string]int)
	for _, r := range g.Records {
		if !r.HasOutage() {
			continue
		}
		buildMarkers(s, r, rowIndex, rowTop, span, cfg, seen)
	}
}

// uniqueID suffixes a marker id on repeat use within a row. Outage markers
// deliberately keep colliding ids (last write wins per equipment and
// year); end-of-life and seed markers are never routed to, so every
// record keeps its own.
func uniqueID(seen map[string]int, base string) string {
	seen[base]++
	if n := seen[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

// buildMarkers places the outage marker for one dated record, plus its
// optional end-of-life and seed companions.
func buildMarkers(s *scene.Scene, r timeline.Record, rowIndex int, rowTop float64, span timeline.Span, cfg Config, seen map[string]int) {
	outageYear := r.OutageDate.Year()
	month := int(r.OutageDate.Month()) - 1 // zero-based calendar month
	quarter := quarterOf(month)

	// Rows pack tighter than one full RowHeight; the residual accumulates
	// per row index.
	rowAdjust := (cfg.RowHeight - 50) * float64(rowIndex)

	outageX := cfg.LabelWidth + float64(outageYear-span.First)*cfg.YearWidth +
		markerIndent + float64(quarter)*cfg.QuarterWidth
	outageY := rowTop + cfg.RowHeight + rowAdjust

	if !r.EndOfLifeEnd.IsZero() {
		endYear := r.EndOfLifeEnd.Year()
		s.AddNode(scene.Node{
			ID:   uniqueID(seen, fmt.Sprintf("eol_%s_%d", r.EquipmentID, endYear)),
			Kind: scene.KindEndOfLife,
			X: cfg.LabelWidth + float64(endYear-span.First)*cfg.YearWidth +
				markerIndent + float64(quarter)*cfg.QuarterWidth + float64(month),
			Y:         rowTop + cfg.RowHeight + endOfLifeInset + rowAdjust,
			Width:     endOfLifeWidth,
			Height:    endOfLifeHeight,
			Label:     endOfLifeTag,
			Equipment: r.EquipmentID,
		})
	}

	s.AddNode(scene.Node{
		ID:        OutageMarkerID(r.EquipmentID, outageYear),
		Kind:      scene.KindOutage,
		X:         outageX,
		Y:         outageY,
		Width:     outageWidth,
		Height:    outageHeight,
		Label:     outageLabel(r.OutageKind, r.OutageDate),
		Equipment: r.EquipmentID,
	})

	// Seed/origin: an outage with no inherited lineage and a non-standard
	// life extension starts a part's life chain.
	if !r.HasLineage() && r.LifeExtensionKind != "" && r.LifeExtensionKind != timeline.StandardExtensionKind {
		s.AddNode(scene.Node{
			ID:        uniqueID(seen, fmt.Sprintf("seed_%s_%d", r.EquipmentID, outageYear)),
			Kind:      scene.KindSeed,
			X:         outageX - seedOffset,
			Y:         outageY,
			Width:     seedWidth,
			Height:    seedHeight,
			Label:     seedLabel,
			Equipment: r.EquipmentID,
		})
	}
}

// quarterOf maps a zero-based month to its marker quarter, ceil(month/3):
// January shares the year column's left slot, each later quarter steps one
// QuarterWidth right.
func quarterOf(month int) int {
	return (month + 2) / 3
}

// outageLabel renders the two-line marker text, e.g. "Inspection\nMar-25".
func outageLabel(kind string, d time.Time) string {
	return fmt.Sprintf("%s\n%s-%02d", kind, d.Format("Jan"), d.Year()%100)
}

// formatMetric renders a gauge value with the shortest exact representation.
func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
