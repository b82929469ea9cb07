// Package lineage renders the equipment provenance graph as a node-link
// diagram. Where the timeline scene shows lineage as routed connectors in
// fixed pixel space, this package hands the same relationships to Graphviz
// and lets it pick the layout, which reads better once chains get long.
package lineage

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/equipviz/rotorline/pkg/timeline"
)

// Options configures lineage diagram rendering.
type Options struct {
	// Detailed includes the short label, metric, and first outage date in
	// node labels. When false, only the equipment ID is shown.
	Detailed bool
}

// ToDOT converts grouped records to Graphviz DOT format. Every equipment
// group becomes a node; every record with a source yields one edge from
// the source to the record's equipment. Sources that never appear as
// equipment themselves are still emitted so the chain stays connected.
func ToDOT(groups timeline.Groups, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph lineage {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, g := range groups {
		label := fmtLabel(g, opts.Detailed)
		attrs := fmtAttrs(g, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", g.ID, strings.Join(attrs, ", "))
	}
	for _, id := range danglingSources(groups) {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n", id, id)
	}

	buf.WriteString("\n")
	for _, g := range groups {
		for _, r := range g.Records {
			if !r.HasLineage() {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", r.SourceEquipmentID, g.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g timeline.Group, detailed bool) string {
	if !detailed {
		return g.ID
	}

	parts := []string{g.Label()}
	if m := g.Metric(); m > 0 {
		parts = append(parts, fmt.Sprintf("%.0fK", m/1000))
	}
	if first, ok := g.FirstOutage(); ok {
		parts = append(parts, first.OutageDate.Format("Jan 2006"))
	}

	return g.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(g timeline.Group, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if _, ok := g.FirstOutage(); !ok {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=black")
	}
	return attrs
}

// danglingSources returns source IDs referenced by some record but absent
// from the group list, in first-reference order.
func danglingSources(groups timeline.Groups) []string {
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		seen[g.ID] = true
	}
	var out []string
	for _, g := range groups {
		for _, r := range g.Records {
			if r.HasLineage() && !seen[r.SourceEquipmentID] {
				seen[r.SourceEquipmentID] = true
				out = append(out, r.SourceEquipmentID)
			}
		}
	}
	return out
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG header so the viewBox starts
// at the origin and width/height use pixel units instead of points.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
