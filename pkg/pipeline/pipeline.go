// Package pipeline provides the load → layout → render pipeline for conceptmap.
//
// This package implements the complete pipeline used by the CLI and the API
// server. By centralizing this logic, both entry points validate, cache, and
// render the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a glossary file and select the terms of one section
//  2. Layout: Compute the concept-map layout with [conceptmap.ComputeLayout]
//  3. Render: Generate output in various formats (JSON, SVG, DOT, PNG, PDF)
//
// Layouts and artifacts are cached. Layouts are pure functions of the term
// IDs, relations and config, so a layout cache entry never goes stale.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    GlossaryPath: "ml.toml",
//	    Section:      "optimization",
//	    Formats:      []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	doc, err := runner.Load(opts)
//	view, err := doc.View(opts.Section)
//	layout, err := runner.Layout(ctx, view, opts.Config)
//	artifacts, err := runner.Render(ctx, layout, doc, opts)
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/errors"
	"github.com/matzehuels/conceptmap/pkg/glossary"
)

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// Format constants for output formats.
const (
	FormatJSON     = "json"
	FormatSVG      = "svg"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz" // SVG laid out by Graphviz from the DOT source
	FormatPNG      = "png"
	FormatPDF      = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:     true,
	FormatSVG:      true,
	FormatDOT:      true,
	FormatGraphviz: true,
	FormatPNG:      true,
	FormatPDF:      true,
}

// FormatExtensions maps formats to output file extensions.
var FormatExtensions = map[string]string{
	FormatJSON:     ".json",
	FormatSVG:      ".svg",
	FormatDOT:      ".dot",
	FormatGraphviz: ".graphviz.svg",
	FormatPNG:      ".png",
	FormatPDF:      ".pdf",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	GlossaryPath string `json:"glossary_path,omitempty"`
	Section      string `json:"section,omitempty"`
	Refresh      bool   `json:"refresh,omitempty"` // Bypass cache reads

	// Layout options
	Config conceptmap.Config `json:"config"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	ShowLabels bool     `json:"show_labels,omitempty"` // Draw relation labels
	Scale      float64  `json:"scale,omitempty"`       // PNG scale factor

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the loaded glossary.
	Document *glossary.Document

	// View is the section that was laid out.
	View glossary.View

	// Layout is the computed layout.
	Layout conceptmap.Layout

	// LayoutHash is the content hash of the layout, usable as an ETag.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	TermCount     int
	RelationCount int
	EdgeCount     int // Relations that survived endpoint filtering
	LevelCount    int
	LoadTime      time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, svg, dot, graphviz, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateConfig rejects layout configs that cannot be normalized into a
// sensible drawing. Zero values are allowed and mean "default"; NaN and
// infinities are not.
func ValidateConfig(cfg conceptmap.Config) error {
	for _, v := range []float64{cfg.NodeWidth, cfg.NodeHeight, cfg.LevelGap, cfg.NodeGap} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "config values must be finite (got %g)", v)
		}
	}
	if cfg.NodeWidth < 0 || cfg.NodeHeight < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "node size must not be negative (got %gx%g)", cfg.NodeWidth, cfg.NodeHeight)
	}
	if cfg.LevelGap < 0 || cfg.NodeGap < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "gaps must not be negative (got level %g, node %g)", cfg.LevelGap, cfg.NodeGap)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.GlossaryPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "glossary path is required")
	}
	if err := errors.ValidatePath(o.GlossaryPath); err != nil {
		return err
	}
	if err := errors.ValidateSectionName(o.Section); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults fills zero-valued config fields with the engine defaults.
// Explicit zero gaps are kept.
func (o *Options) SetLayoutDefaults() {
	if o.Config == (conceptmap.Config{}) {
		o.Config = conceptmap.DefaultConfig()
	}
	o.Config = o.Config.Normalized()
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if err := ValidateConfig(o.Config); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be finite (got %g)", o.Scale)
	}
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
