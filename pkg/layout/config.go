package layout

import "github.com/equipviz/rotorline/pkg/scene"

// Config holds every geometry knob the engine reads. It is passed by value
// into each layout call; there is no process-wide layout state.
type Config struct {
	YearWidth    float64 `json:"year_width" toml:"year_width"`       // width of one year column
	QuarterWidth float64 `json:"quarter_width" toml:"quarter_width"` // sub-year granularity
	RowHeight    float64 `json:"row_height" toml:"row_height"`       // vertical equipment spacing
	LabelWidth   float64 `json:"label_width" toml:"label_width"`     // left margin for equipment labels
	HeaderHeight float64 `json:"header_height" toml:"header_height"` // year header strip height
	GridSnap     bool    `json:"grid_snap" toml:"grid_snap"`         // quantize drag positions
	GridSize     float64 `json:"grid_size" toml:"grid_size"`         // quantization unit
}

// DefaultConfig returns the interactive surface's stock geometry.
func DefaultConfig() Config {
	return Config{
		YearWidth:    200,
		QuarterWidth: 50,
		RowHeight:    65,
		LabelWidth:   50,
		HeaderHeight: 25,
		GridSnap:     false,
		GridSize:     20,
	}
}

// Snap returns the drag quantization for this config.
func (c Config) Snap() scene.Snap {
	return scene.Snap{Enabled: c.GridSnap, Size: c.GridSize}
}
