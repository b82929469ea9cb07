package sink

import (
	"encoding/json"

	"github.com/equipviz/rotorline/pkg/layout"
	"github.com/equipviz/rotorline/pkg/scene"
	"github.com/equipviz/rotorline/pkg/timeline"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonOutput)

// WithJSONSpan records the resolved year span in the output, letting the
// interactive surface label its axis without re-deriving the range.
func WithJSONSpan(span timeline.Span) JSONOption {
	return func(o *jsonOutput) { o.Span = &span }
}

// WithJSONConfig records the layout config the scene was built with, so a
// re-render with the same knobs reproduces identical geometry.
func WithJSONConfig(cfg layout.Config) JSONOption {
	return func(o *jsonOutput) { o.Config = &cfg }
}

type jsonOutput struct {
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Span   *timeline.Span `json:"span,omitempty"`
	Config *layout.Config `json:"config,omitempty"`
	Nodes  []scene.Node   `json:"nodes"`
	Edges  []scene.Edge   `json:"edges,omitempty"`
}

// RenderJSON exports the scene as a pretty-printed JSON document: the
// interchange format the interactive surface consumes. Node and edge
// geometry is emitted verbatim, in scene order.
func RenderJSON(s *scene.Scene, opts ...JSONOption) ([]byte, error) {
	out := jsonOutput{
		Width:  s.Width,
		Height: s.Height,
		Nodes:  s.Nodes,
		Edges:  s.Edges,
	}
	for _, opt := range opts {
		opt(&out)
	}
	return json.MarshalIndent(out, "", "  ")
}
