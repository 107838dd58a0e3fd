package sink

import (
	"encoding/json"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	cfg     conceptmap.Config
	labels  map[string]string
	title   string
	section string
}

// WithJSONConfig records the box size the layout was computed with.
func WithJSONConfig(cfg conceptmap.Config) JSONOption {
	return func(r *jsonRenderer) { r.cfg = cfg.Normalized() }
}

// WithJSONLabels sets display names by node ID. Nodes without an entry are
// labelled with their ID.
func WithJSONLabels(labels map[string]string) JSONOption {
	return func(r *jsonRenderer) { r.labels = labels }
}

// WithJSONTitle records the glossary title and section in the output.
func WithJSONTitle(title, section string) JSONOption {
	return func(r *jsonRenderer) { r.title = title; r.section = section }
}

type jsonOutput struct {
	Title      string            `json:"title,omitempty"`
	Section    string            `json:"section,omitempty"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	NodeWidth  float64           `json:"node_width"`
	NodeHeight float64           `json:"node_height"`
	Rows       map[int][]string  `json:"rows,omitempty"`
	Nodes      []jsonNode        `json:"nodes"`
	Edges      []conceptmap.Edge `json:"edges"`
}

type jsonNode struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Level  int     `json:"level"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RenderJSON exports the layout as a pretty-printed JSON document.
// It returns an error only if marshaling fails. It does not modify l and is
// safe to call concurrently.
func RenderJSON(l conceptmap.Layout, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{cfg: conceptmap.DefaultConfig()}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Title:      r.title,
		Section:    r.section,
		Width:      l.Width,
		Height:     l.Height,
		NodeWidth:  r.cfg.NodeWidth,
		NodeHeight: r.cfg.NodeHeight,
		Rows:       l.Rows(),
		Nodes:      make([]jsonNode, 0, len(l.Nodes)),
		Edges:      l.Edges,
	}
	if out.Edges == nil {
		out.Edges = []conceptmap.Edge{}
	}

	for _, n := range l.Nodes {
		out.Nodes = append(out.Nodes, jsonNode{
			ID:     n.ID,
			Label:  labelFor(r.labels, n.ID),
			X:      n.X,
			Y:      n.Y,
			Level:  n.Level,
			Width:  r.cfg.NodeWidth,
			Height: r.cfg.NodeHeight,
		})
	}

	return json.MarshalIndent(out, "", "  ")
}

func labelFor(labels map[string]string, id string) string {
	if l, ok := labels[id]; ok && l != "" {
		return l
	}
	return id
}
