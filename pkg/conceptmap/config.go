package conceptmap

// Default dimensions, in layout units. They are chosen for legible diagrams
// and carry no meaning for correctness.
const (
	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 56.0
	DefaultLevelGap   = 90.0
	DefaultNodeGap    = 24.0
)

// Config holds the fixed node dimensions and spacing used by every stage.
// The zero value is usable: [Config.Normalized] fills it with defaults.
type Config struct {
	NodeWidth  float64 `json:"node_width" toml:"node_width"`   // Box width
	NodeHeight float64 `json:"node_height" toml:"node_height"` // Box height
	LevelGap   float64 `json:"level_gap" toml:"level_gap"`     // Vertical space between rows
	NodeGap    float64 `json:"node_gap" toml:"node_gap"`       // Horizontal space between boxes in a row
}

// DefaultConfig returns the standard 160x56 boxes with 90/24 gaps.
func DefaultConfig() Config {
	return Config{
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		LevelGap:   DefaultLevelGap,
		NodeGap:    DefaultNodeGap,
	}
}

// Normalized returns a copy of c that the layout stages can use directly.
// Non-positive node dimensions are replaced by defaults, and negative gaps
// are clamped to zero. A zero gap is kept: boxes then touch but x values
// remain distinct because NodeWidth is always positive.
//
// The zero Config normalizes to the default dimensions with zero gaps, so
// callers that want the standard spacing should start from [DefaultConfig].
func (c Config) Normalized() Config {
	if c.NodeWidth <= 0 {
		c.NodeWidth = DefaultNodeWidth
	}
	if c.NodeHeight <= 0 {
		c.NodeHeight = DefaultNodeHeight
	}
	c.LevelGap = max(c.LevelGap, 0)
	c.NodeGap = max(c.NodeGap, 0)
	return c
}

// rowPitch is the horizontal distance between the left edges of neighbors.
func (c Config) rowPitch() float64 { return c.NodeWidth + c.NodeGap }

// levelPitch is the vertical distance between the tops of adjacent levels.
func (c Config) levelPitch() float64 { return c.NodeHeight + c.LevelGap }

// rowWidth is the total width of a row holding n boxes.
func (c Config) rowWidth(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*c.NodeWidth + float64(n-1)*c.NodeGap
}

// Option customizes [ComputeLayout].
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithNodeSize sets the box dimensions.
func WithNodeSize(width, height float64) Option {
	return func(c *Config) {
		c.NodeWidth = width
		c.NodeHeight = height
	}
}

// WithGaps sets the vertical gap between levels and the horizontal gap
// between boxes of the same level.
func WithGaps(levelGap, nodeGap float64) Option {
	return func(c *Config) {
		c.LevelGap = levelGap
		c.NodeGap = nodeGap
	}
}
