// Package scene holds the renderer-agnostic output of the layout engine: an
// ordered list of positioned nodes plus routed connector paths.
//
// Two independent projections consume a Scene: the interactive surface
// (JSON interchange) and the static SVG export. The Scene is the single
// source of geometric truth. Nodes are created once during layout and
// mutated in place only by drag operations, which in turn reroute only the
// connectors touching the moved node.
package scene

import (
	"fmt"
	"math"
)

// Kind classifies a positioned node.
type Kind string

// Node kinds.
const (
	KindYearHeader  Kind = "year"
	KindQuarterTick Kind = "quarter"
	KindRowLabel    Kind = "row-label"
	KindOutage      Kind = "outage"
	KindEndOfLife   Kind = "end-of-life"
	KindSeed        Kind = "seed"
	KindEdgeLabel   Kind = "edge-label"
)

// IsMarker reports whether the kind is a draggable marker (as opposed to
// grid chrome or labels).
func (k Kind) IsMarker() bool {
	return k == KindOutage || k == KindEndOfLife || k == KindSeed
}

// Node is a positioned visual unit with absolute pixel geometry and a
// stable string id. Label may be multi-line ("\n" separated).
type Node struct {
	ID        string  `json:"id"`
	Kind      Kind    `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Label     string  `json:"label,omitempty"`
	Equipment string  `json:"equipment,omitempty"` // owning equipment id, markers only
}

// Right returns the x coordinate of the node's right edge.
func (n Node) Right() float64 { return n.X + n.Width }

// MidY returns the y coordinate of the node's vertical center.
func (n Node) MidY() float64 { return n.Y + n.Height/2 }

// Segment is one straight piece of a routed connector. Vertical segments
// extend Length downward from (X, Y); horizontal ones extend rightward.
type Segment struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Length   float64 `json:"length"`
	Vertical bool    `json:"vertical,omitempty"`
}

// Path is an orthogonal 3-segment connector route (horizontal, vertical,
// horizontal) plus a midpoint label node.
type Path struct {
	Segments [3]Segment `json:"segments"`
	Label    Node       `json:"label"`
}

// Edge is a lineage connector between two marker nodes. Source and target
// ids are immutable after creation; only the routed Path is recomputed when
// an endpoint moves.
type Edge struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Path     Path   `json:"path"`
}

// Snap quantizes drag positions to a grid when enabled.
type Snap struct {
	Enabled bool    `json:"enabled"`
	Size    float64 `json:"size"`
}

// Apply rounds v to the nearest grid multiple, or returns it unchanged when
// snapping is disabled.
func (s Snap) Apply(v float64) float64 {
	if !s.Enabled || s.Size <= 0 {
		return v
	}
	return math.Round(v/s.Size) * s.Size
}

// Scene is the complete renderer-agnostic model: frame size, ordered nodes,
// and routed edges.
type Scene struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges,omitempty"`

	index map[string]int // node id → position in Nodes
}

// New creates an empty scene with the given frame size.
func New(width, height float64) *Scene {
	return &Scene{Width: width, Height: height, index: make(map[string]int)}
}

// AddNode appends a node, or replaces the existing node with the same id.
// Last-write-wins on id collision is intentional: repeated outages for the
// same equipment and year share one id, and only the last one drawn stays
// addressable for connection routing.
func (s *Scene) AddNode(n Node) {
	s.ensureIndex()
	if i, ok := s.index[n.ID]; ok {
		s.Nodes[i] = n
		return
	}
	s.index[n.ID] = len(s.Nodes)
	s.Nodes = append(s.Nodes, n)
}

// AddEdge appends a routed edge.
func (s *Scene) AddEdge(e Edge) {
	s.Edges = append(s.Edges, e)
}

// Node returns a pointer to the node with the given id, valid until the
// next AddNode call.
func (s *Scene) Node(id string) (*Node, bool) {
	s.ensureIndex()
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.Nodes[i], true
}

// MoveNode applies a drag delta to one node and reroutes only the edges
// whose source or target is that node. It returns the ids of the rerouted
// edges. Moving an unknown id is a no-op reported by the second return.
func (s *Scene) MoveNode(id string, dx, dy float64, snap Snap) ([]string, bool) {
	n, ok := s.Node(id)
	if !ok {
		return nil, false
	}
	n.X = snap.Apply(n.X + dx)
	n.Y = snap.Apply(n.Y + dy)
	return s.rerouteTouching(id), true
}

// rerouteTouching recomputes the paths of edges attached to the given node
// id. It walks the edge list, not the record set: rerouting is independent
// of the data that produced the layout.
func (s *Scene) rerouteTouching(id string) []string {
	var rerouted []string
	for i := range s.Edges {
		e := &s.Edges[i]
		if e.SourceID != id && e.TargetID != id {
			continue
		}
		src, okS := s.Node(e.SourceID)
		tgt, okT := s.Node(e.TargetID)
		if !okS || !okT {
			continue
		}
		e.Path = Route(*src, *tgt)
		rerouted = append(rerouted, e.ID)
	}
	return rerouted
}

// EdgeByID returns the edge with the given id.
func (s *Scene) EdgeByID(id string) (*Edge, bool) {
	for i := range s.Edges {
		if s.Edges[i].ID == id {
			return &s.Edges[i], true
		}
	}
	return nil, false
}

// ensureIndex rebuilds the id index after deserialization.
func (s *Scene) ensureIndex() {
	if s.index != nil {
		return
	}
	s.index = make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		s.index[n.ID] = i
	}
}

// Routing constants, matching the interactive surface's connector chrome.
const (
	sourceStub      = 16 // gap between the source marker and the first segment
	edgeLabelWidth  = 40
	edgeLabelHeight = 10
	edgeLabelText   = "RLE" // rotor life extension
)

// EdgeID derives a connector id from its endpoint marker ids.
func EdgeID(sourceID, targetID string) string {
	return fmt.Sprintf("connection_%s_%s", sourceID, targetID)
}

// Route computes the orthogonal 3-segment path between two marker
// rectangles: horizontally from the source's right edge to the midpoint,
// vertically across, then horizontally into the target's left edge. A small
// label node sits at the vertical segment's midpoint.
//
// Route is a pure function of the two rectangles, so a single edge can be
// recomputed after a drag without re-walking anything else.
func Route(source, target Node) Path {
	sourceX := source.Right()
	sourceY := source.MidY()
	targetX := target.X
	targetY := target.MidY()
	midX := (sourceX + targetX) / 2

	return Path{
		Segments: [3]Segment{
			{X: sourceX + sourceStub, Y: sourceY, Length: midX - sourceX - sourceStub},
			{X: midX, Y: math.Min(sourceY, targetY), Length: math.Abs(targetY - sourceY), Vertical: true},
			{X: midX, Y: targetY, Length: targetX - midX},
		},
		Label: Node{
			ID:     EdgeID(source.ID, target.ID) + "_label",
			Kind:   KindEdgeLabel,
			X:      midX - 25,
			Y:      (sourceY+targetY)/2 - 15,
			Width:  edgeLabelWidth,
			Height: edgeLabelHeight,
			Label:  edgeLabelText,
		},
	}
}
