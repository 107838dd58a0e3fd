// Package sink provides output format renderers for concept-map layouts.
//
// # Overview
//
// A "sink" transforms a computed [conceptmap.Layout] into a final output
// format without moving anything: nodes are drawn where the engine put them.
//
//   - JSON: layout data plus labels and box size, for web front-ends
//   - SVG: a static drawing with one box per term and one curve per relation
//
// # SVG Output
//
// [RenderSVG] draws each edge as a cubic Bézier through the four routed
// control points. Relation kinds are told apart by stroke pattern:
//
//	prerequisite  solid
//	variant       dashed
//	component     dotted
//	applies       dash-dot
//
// Basic usage:
//
//	svg := sink.RenderSVG(layout,
//	    sink.WithLabels(doc.Labels()),
//	    sink.WithEdgeLabels(),
//	)
//
// Box size must match the [conceptmap.Config] the layout was computed with;
// pass it with [WithConfig] when it is not the default.
//
// # JSON Output
//
// [RenderJSON] writes the layout in the engine's wire shape plus a label
// and a width/height on every node, so clients need no layout constants.
package sink
