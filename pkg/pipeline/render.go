package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/errors"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/render"
	"github.com/matzehuels/conceptmap/pkg/render/nodelink"
	"github.com/matzehuels/conceptmap/pkg/render/sink"
)

// Render generates output artifacts in the requested formats. doc supplies
// term labels and the title; it may be nil for ad-hoc layouts.
func Render(ctx context.Context, l conceptmap.Layout, doc *glossary.Document, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	opts.SetLayoutDefaults()

	r := newRenderer(l, doc, opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := r.render(ctx, format)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderer memoizes the two intermediate forms that several formats share.
type renderer struct {
	layout conceptmap.Layout
	labels map[string]string
	title  string
	opts   Options

	svg []byte
	dot string
}

func newRenderer(l conceptmap.Layout, doc *glossary.Document, opts Options) *renderer {
	r := &renderer{layout: l, opts: opts}
	if doc != nil {
		r.labels = doc.Labels()
		r.title = doc.Title
	}
	return r
}

func (r *renderer) render(ctx context.Context, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return sink.RenderJSON(r.layout,
			sink.WithJSONConfig(r.opts.Config),
			sink.WithJSONLabels(r.labels),
			sink.WithJSONTitle(r.title, r.opts.Section),
		)
	case FormatSVG:
		return r.sinkSVG(), nil
	case FormatDOT:
		return []byte(r.dotSource()), nil
	case FormatGraphviz:
		return nodelink.RenderSVG(ctx, r.dotSource())
	case FormatPNG:
		data, err := render.ToPNG(ctx, r.sinkSVG(), r.opts.Scale)
		return data, wrapConvert(err)
	case FormatPDF:
		data, err := render.ToPDF(ctx, r.sinkSVG())
		return data, wrapConvert(err)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
}

func (r *renderer) sinkSVG() []byte {
	if r.svg == nil {
		opts := []sink.SVGOption{
			sink.WithConfig(r.opts.Config),
			sink.WithLabels(r.labels),
		}
		if r.opts.ShowLabels {
			opts = append(opts, sink.WithEdgeLabels())
		}
		if title := svgTitle(r.title, r.opts.Section); title != "" {
			opts = append(opts, sink.WithTitle(title))
		}
		r.svg = sink.RenderSVG(r.layout, opts...)
	}
	return r.svg
}

func (r *renderer) dotSource() string {
	if r.dot == "" {
		r.dot = nodelink.ToDOT(r.layout, nodelink.Options{
			Labels:     r.labels,
			EdgeLabels: r.opts.ShowLabels,
		})
	}
	return r.dot
}

func svgTitle(title, section string) string {
	switch {
	case title != "" && section != "":
		return title + " / " + section
	case title != "":
		return title
	default:
		return section
	}
}

// wrapConvert marks a missing converter as an unsupported operation so the
// API answers 501 rather than 500.
func wrapConvert(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, render.ErrConverterMissing) {
		return errors.Wrap(errors.ErrCodeUnsupported, err, "converter unavailable")
	}
	return err
}
