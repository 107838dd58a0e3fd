// Package nodelink renders concept-map layouts through Graphviz.
//
// # Overview
//
// [ToDOT] emits Graphviz DOT source that keeps the engine's leveling: each
// level becomes a rank=same subgraph and terms keep their row order. Graphviz
// then routes the edges itself, which gives smoother curves than the
// engine's four-point routes at the cost of moving nodes horizontally.
//
// # Usage
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{Labels: doc.Labels()})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use [RenderPDF] and [RenderPNG].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
