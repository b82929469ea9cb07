// Package sink contains the output projections of a scene: a standalone SVG
// document and a JSON interchange form.
//
// Both are pure, side-effect-free projections of the same scene. Neither
// recomputes any geometry; node and segment coordinates are emitted
// verbatim, so the static export is pixel-identical to whatever the
// interactive surface shows for the same scene.
package sink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/equipviz/rotorline/pkg/scene"
)

// ExportFilename is the conventional name of the static export.
const ExportFilename = "timeline_visualization.svg"

// ExportMIMEType is the media type of the static export.
const ExportMIMEType = "image/svg+xml"

// Marker fill colors, matching the interactive surface's palette.
var markerFills = map[scene.Kind]string{
	scene.KindRowLabel:  "#3b6fb5",
	scene.KindOutage:    "#2e8b57",
	scene.KindEndOfLife: "#c0392b",
	scene.KindSeed:      "#9aa0a6",
	scene.KindEdgeLabel: "#9aa0a6",
}

const (
	backgroundFill = "#f8f9fa"
	gridStroke     = "#c4c8cc"
	edgeStroke     = "#555555"
	textFill       = "#202124"
	labelTextFill  = "#ffffff"
	fontFamily     = "Helvetica, Arial, sans-serif"
	fontSize       = 9
	lineHeight     = 10
)

// RenderSVG serializes a scene as a self-contained vector document:
// background, dashed year grid lines, per-node shapes (rectangles for
// ordinary markers, a five-point arrow polygon for seed markers), and
// per-edge line segments plus label rectangles.
func RenderSVG(s *scene.Scene) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g" width="%g" height="%g">`+"\n",
		s.Width, s.Height, s.Width, s.Height)

	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%g" height="%g" fill="%s"/>`+"\n",
		s.Width, s.Height, backgroundFill)

	renderGrid(&buf, s)

	for _, n := range s.Nodes {
		renderNode(&buf, s, n)
	}
	for _, e := range s.Edges {
		renderEdge(&buf, e)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// renderGrid draws one dashed vertical line per year column.
func renderGrid(buf *bytes.Buffer, s *scene.Scene) {
	for _, n := range s.Nodes {
		if n.Kind != scene.KindYearHeader {
			continue
		}
		fmt.Fprintf(buf, `  <line x1="%g" y1="0" x2="%g" y2="%g" stroke="%s" stroke-dasharray="4 4"/>`+"\n",
			n.X, n.X, s.Height, gridStroke)
	}
}

func renderNode(buf *bytes.Buffer, s *scene.Scene, n scene.Node) {
	switch n.Kind {
	case scene.KindYearHeader, scene.KindQuarterTick:
		renderText(buf, n.X, n.Y+lineHeight, n.Label, textFill)
	case scene.KindSeed:
		fmt.Fprintf(buf, `  <polygon id=%q points=%q fill="%s"/>`+"\n",
			n.ID, arrowPoints(n), markerFills[n.Kind])
		renderText(buf, n.X+4, n.MidY()+3, n.Label, labelTextFill)
	default:
		fmt.Fprintf(buf, `  <rect id=%q x="%g" y="%g" width="%g" height="%g" fill="%s"/>`+"\n",
			n.ID, n.X, n.Y, n.Width, n.Height, markerFills[n.Kind])
		renderText(buf, n.X+3, n.Y+lineHeight, n.Label, labelTextFill)
	}
}

// arrowPoints traces the seed marker's five-point arrow polygon: a
// rectangle body with its left edge collapsed into a point.
func arrowPoints(n scene.Node) string {
	tip := n.X
	body := n.X + n.Width*0.35
	right := n.Right()
	top := n.Y
	midY := n.MidY()
	bottom := n.Y + n.Height
	return fmt.Sprintf("%g,%g %g,%g %g,%g %g,%g %g,%g",
		right, top, right, bottom, body, bottom, tip, midY, body, top)
}

func renderEdge(buf *bytes.Buffer, e scene.Edge) {
	fmt.Fprintf(buf, `  <g id=%q>`+"\n", e.ID)
	for _, seg := range e.Path.Segments {
		x2, y2 := seg.X+seg.Length, seg.Y
		if seg.Vertical {
			x2, y2 = seg.X, seg.Y+seg.Length
		}
		fmt.Fprintf(buf, `    <line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s"/>`+"\n",
			seg.X, seg.Y, x2, y2, edgeStroke)
	}
	l := e.Path.Label
	fmt.Fprintf(buf, `    <rect x="%g" y="%g" width="%g" height="%g" fill="%s"/>`+"\n",
		l.X, l.Y, l.Width, l.Height, markerFills[l.Kind])
	renderText(buf, l.X+3, l.Y+l.Height-2, l.Label, labelTextFill)
	buf.WriteString("  </g>\n")
}

// renderText emits a text element, splitting multi-line labels into tspans.
func renderText(buf *bytes.Buffer, x, y float64, label, fill string) {
	if label == "" {
		return
	}
	lines := strings.Split(label, "\n")
	fmt.Fprintf(buf, `  <text x="%g" y="%g" font-family="%s" font-size="%d" fill="%s">`,
		x, y, fontFamily, fontSize, fill)
	if len(lines) == 1 {
		escapeInto(buf, lines[0])
	} else {
		for i, line := range lines {
			dy := 0
			if i > 0 {
				dy = lineHeight
			}
			fmt.Fprintf(buf, `<tspan x="%g" dy="%d">`, x, dy)
			escapeInto(buf, line)
			buf.WriteString("</tspan>")
		}
	}
	buf.WriteString("</text>\n")
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeInto(buf *bytes.Buffer, s string) {
	xmlEscaper.WriteString(buf, s) //nolint:errcheck // bytes.Buffer never fails
}
