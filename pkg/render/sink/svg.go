package sink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
)

const svgCSS = `
    .edge { fill: none; stroke: #555; stroke-width: 1.5; }
    .edge-label { font-family: sans-serif; fill: #555; text-anchor: middle; }
    .node-box { fill: #fff; stroke: #333; stroke-width: 1.5; }
    .node-text { font-family: sans-serif; fill: #111; text-anchor: middle; dominant-baseline: central; }
    .node:hover .node-box { stroke-width: 3; }`

// dashArrays maps relation kinds to stroke-dasharray values.
var dashArrays = map[conceptmap.RelationKind]string{
	conceptmap.Prerequisite: "",
	conceptmap.Variant:      "8 4",
	conceptmap.Component:    "2 4",
	conceptmap.Applies:      "8 4 2 4",
}

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	cfg        conceptmap.Config
	labels     map[string]string
	edgeLabels bool
	margin     float64
	title      string
}

// WithConfig sets the box size. It must match the config the layout was
// computed with.
func WithConfig(cfg conceptmap.Config) SVGOption {
	return func(r *svgRenderer) { r.cfg = cfg.Normalized() }
}

// WithLabels sets display names by node ID.
func WithLabels(labels map[string]string) SVGOption {
	return func(r *svgRenderer) { r.labels = labels }
}

// WithEdgeLabels draws relation labels next to each edge's midpoint.
func WithEdgeLabels() SVGOption { return func(r *svgRenderer) { r.edgeLabels = true } }

// WithMargin sets the blank border around the drawing. Default 16.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = max(0, m) } }

// WithTitle adds a <title> element.
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// RenderSVG draws the layout as a standalone SVG document.
func RenderSVG(l conceptmap.Layout, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	w, h := l.Width+2*r.margin, l.Height+2*r.margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		-r.margin, -r.margin, w, h, w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	renderDefs(&buf)

	// Edges go first so boxes cover their ends.
	for _, e := range l.Edges {
		renderEdge(&buf, e)
	}
	for _, n := range l.Nodes {
		r.renderNode(&buf, n)
	}
	if r.edgeLabels {
		for _, e := range l.Edges {
			renderEdgeLabel(&buf, e)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{cfg: conceptmap.DefaultConfig(), margin: 16}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">` + "\n")
	buf.WriteString(`      <path d="M 0 0 L 10 5 L 0 10 z" fill="#555"/>` + "\n")
	buf.WriteString("    </marker>\n")
	buf.WriteString("  </defs>\n")
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", svgCSS)
}

func renderEdge(buf *bytes.Buffer, e conceptmap.Edge) {
	d := edgePath(e.Points)
	if d == "" {
		return
	}
	fmt.Fprintf(buf, `  <path class="edge edge-%s" d="%s" marker-end="url(#arrow)"`, e.Kind, d)
	if dash := dashArrays[e.Kind]; dash != "" {
		fmt.Fprintf(buf, ` stroke-dasharray="%s"`, dash)
	}
	fmt.Fprintf(buf, ` data-from="%s" data-to="%s"/>`+"\n", escapeXML(e.From), escapeXML(e.To))
}

// edgePath turns control points into SVG path data. Four points form one
// cubic Bézier; any other count is drawn as a polyline.
func edgePath(pts []conceptmap.Point) string {
	if len(pts) < 2 {
		return ""
	}
	if len(pts) == 4 {
		return fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f",
			pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, pts[2].X, pts[2].Y, pts[3].X, pts[3].Y)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "M%.1f,%.1f", pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		fmt.Fprintf(&sb, " L%.1f,%.1f", p.X, p.Y)
	}
	return sb.String()
}

func renderEdgeLabel(buf *bytes.Buffer, e conceptmap.Edge) {
	if e.Label == "" || len(e.Points) < 2 {
		return
	}
	// Midpoint of the transition segment.
	a, b := e.Points[len(e.Points)/2-1], e.Points[len(e.Points)/2]
	x, y := (a.X+b.X)/2, (a.Y+b.Y)/2-4
	fmt.Fprintf(buf, `  <text class="edge-label" x="%.1f" y="%.1f" font-size="%.0f">%s</text>`+"\n",
		x, y, edgeFontSize, escapeXML(e.Label))
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, n conceptmap.Node) {
	w, h := r.cfg.NodeWidth, r.cfg.NodeHeight
	label := labelFor(r.labels, n.ID)
	size := fontSize(w, h, label)

	fmt.Fprintf(buf, `  <g class="node level-%d" id="node-%s">`+"\n", n.Level, escapeXML(n.ID))
	fmt.Fprintf(buf, "    <title>%s</title>\n", escapeXML(label))
	fmt.Fprintf(buf, `    <rect class="node-box" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" ry="8"/>`+"\n",
		n.X, n.Y, w, h)
	fmt.Fprintf(buf, `    <text class="node-text" x="%.1f" y="%.1f" font-size="%.1f">%s</text>`+"\n",
		n.X+w/2, n.Y+h/2, size, escapeXML(truncateLabel(label, w, size)))
	buf.WriteString("  </g>\n")
}
