package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/conceptmap/pkg/cache"
	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	loadStart := time.Now()
	doc, err := r.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	r.Logger.Info("loaded glossary",
		"path", opts.GlossaryPath,
		"terms", len(doc.Terms),
		"relations", len(doc.Relations),
		"duration", loadTime)

	result, err := r.ExecuteDocument(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	return result, nil
}

// ExecuteDocument runs layout and render for an already loaded glossary.
// The API server loads its glossary once and calls this per request.
func (r *Runner) ExecuteDocument(ctx context.Context, doc *glossary.Document, opts Options) (*Result, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	view, err := SelectView(doc, opts.Section)
	if err != nil {
		return nil, fmt.Errorf("select section: %w", err)
	}

	result := &Result{
		Document:  doc,
		View:      view,
		Artifacts: make(map[string][]byte),
	}
	result.Stats.TermCount = len(view.NodeIDs)
	result.Stats.RelationCount = len(view.Relations)

	// Stage 2: Layout
	layoutStart := time.Now()
	layout, layoutHit, err := r.layout(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.LayoutHash = layoutHash(layout, opts.Config)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.EdgeCount = len(layout.Edges)
	result.Stats.LevelCount = layout.LevelCount()
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"section", view.Section,
		"nodes", len(layout.Nodes),
		"edges", len(layout.Edges),
		"levels", layout.LevelCount(),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, layout, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the glossary named by opts.
func (r *Runner) Load(opts Options) (*glossary.Document, error) {
	doc, err := Load(opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("read glossary", "path", opts.GlossaryPath, "title", doc.Title)
	return doc, nil
}

// LayoutWithCacheInfo computes the layout of a view with caching and returns
// cache hit info. cfg is normalized before use.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, v glossary.View, cfg conceptmap.Config) (conceptmap.Layout, bool, error) {
	return r.LayoutView(ctx, v, Options{Section: v.Section, Config: cfg})
}

// LayoutView computes the layout of a view using opts.Config and honoring
// opts.Refresh. It reports whether the layout came from the cache.
func (r *Runner) LayoutView(ctx context.Context, v glossary.View, opts Options) (conceptmap.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return conceptmap.Layout{}, false, err
	}
	return r.layout(ctx, v, opts)
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, v glossary.View, cfg conceptmap.Config) (conceptmap.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, v, cfg)
	return l, err
}

func (r *Runner) layout(ctx context.Context, v glossary.View, opts Options) (l conceptmap.Layout, hit bool, err error) {
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, v.Section, len(v.NodeIDs), len(v.Relations))
	start := time.Now()
	defer func() { hooks.OnLayoutComplete(ctx, v.Section, time.Since(start), err) }()

	cacheKey := r.Keyer.LayoutKey(v.NodeIDs, v.Relations, opts.Config)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, ok := r.getLayout(ctx, cacheKey); ok {
			return cached, true, nil
		}
	}

	l, err = GenerateLayout(v, opts.Config)
	if err != nil {
		return conceptmap.Layout{}, false, err
	}

	if data, err := json.Marshal(l); err == nil {
		r.set(ctx, "layout", cacheKey, data, cache.TTLLayout)
	}
	return l, false, nil
}

func (r *Runner) getLayout(ctx context.Context, key string) (conceptmap.Layout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return conceptmap.Layout{}, false
	}

	var l conceptmap.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		// Corrupt entry: recompute
		observability.Cache().OnCacheMiss(ctx, "layout")
		return conceptmap.Layout{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return l, true
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l conceptmap.Layout, doc *glossary.Document, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	opts.SetLayoutDefaults()

	hooks := observability.Layout()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	baseHash := layoutHash(l, opts.Config)
	labels := labelsHash(doc, opts.Section)

	keyFor := func(format string) string {
		key := cache.ArtifactKeyOpts{
			Format:     format,
			ShowLabels: opts.ShowLabels,
			LabelsHash: labels,
		}
		if format == FormatPNG {
			key.Scale = opts.Scale
		}
		return r.Keyer.ArtifactKey(baseHash, key)
	}

	// Try to get all formats from cache
	if !opts.Refresh {
		cached := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, keyFor(format))
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			cached[format] = data
		}
		if len(cached) == len(opts.Formats) {
			return cached, true, nil
		}
	}

	rendered, err := Render(ctx, l, doc, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.set(ctx, "artifact", keyFor(format), data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l conceptmap.Layout, doc *glossary.Document, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, doc, opts)
	return artifacts, err
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// layoutHash identifies a layout drawn at a given box size.
func layoutHash(l conceptmap.Layout, cfg conceptmap.Config) string {
	data, _ := json.Marshal(struct {
		Layout conceptmap.Layout `json:"layout"`
		Config conceptmap.Config `json:"config"`
	}{l, cfg.Normalized()})
	return cache.Hash(data)
}

// labelsHash covers every document field that ends up in an artifact.
func labelsHash(doc *glossary.Document, section string) string {
	if doc == nil {
		return ""
	}
	data, _ := json.Marshal(struct {
		Title   string            `json:"title"`
		Section string            `json:"section"`
		Labels  map[string]string `json:"labels"`
	}{doc.Title, section, doc.Labels()})
	return cache.Hash(data)
}
