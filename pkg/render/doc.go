// Package render turns computed concept-map layouts into files.
//
// # Overview
//
// The layout engine in [conceptmap] only produces coordinates. This package
// and its subpackages draw them:
//
//   - [sink]: JSON export and self-contained SVG drawn from the layout as-is
//   - [nodelink]: Graphviz DOT source and Graphviz-rendered SVG
//   - [ToPDF] / [ToPNG]: format conversion for any SVG
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg). Both sink
// and nodelink output can be converted:
//
//	svg := sink.RenderSVG(layout, sink.WithLabels(doc.Labels()))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [conceptmap]: github.com/matzehuels/conceptmap/pkg/conceptmap
// [sink]: github.com/matzehuels/conceptmap/pkg/render/sink
// [nodelink]: github.com/matzehuels/conceptmap/pkg/render/nodelink
package render
