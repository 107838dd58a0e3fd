package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/conceptmap/pkg/cache"
	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/errors"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/observability"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	result, err := r.Execute(context.Background(), Options{
		GlossaryPath: "testdata/linalg.toml",
		Section:      "spectral",
		Formats:      []string{FormatJSON, FormatSVG, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if got := result.View.NodeIDs; len(got) != 3 || got[0] != "determinant" {
		t.Errorf("View.NodeIDs = %v", got)
	}
	// matrix -> determinant and matrix -> eigenvalue cross the section boundary.
	if result.Stats.RelationCount != 4 || result.Stats.EdgeCount != 2 {
		t.Errorf("Stats relations/edges = %d/%d, want 4/2", result.Stats.RelationCount, result.Stats.EdgeCount)
	}
	if result.Stats.LevelCount != 3 {
		t.Errorf("Stats.LevelCount = %d, want 3", result.Stats.LevelCount)
	}
	if result.LayoutHash == "" {
		t.Error("LayoutHash should be set")
	}

	for _, f := range []string{FormatJSON, FormatSVG, FormatDOT} {
		if len(result.Artifacts[f]) == 0 {
			t.Errorf("artifact %s missing", f)
		}
	}
	if !strings.Contains(string(result.Artifacts[FormatSVG]), "Linear Algebra / spectral") {
		t.Error("SVG should carry the glossary title")
	}
	if !strings.Contains(string(result.Artifacts[FormatDOT]), `"eigenvalue" -> "eigenvector"`) {
		t.Error("DOT should contain the variant edge")
	}

	var out struct {
		Nodes []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &out); err != nil {
		t.Fatalf("JSON artifact: %v", err)
	}
	if out.Nodes[0].Label != "Determinant" {
		t.Errorf("JSON label = %q, want Determinant", out.Nodes[0].Label)
	}
}

func TestExecuteCaching(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	opts := Options{GlossaryPath: "testdata/linalg.toml", Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if string(second.Artifacts[FormatSVG]) != string(first.Artifacts[FormatSVG]) {
		t.Error("cached SVG differs from rendered SVG")
	}
	if second.LayoutHash != first.LayoutHash {
		t.Error("cached layout hash differs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute() error: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh run CacheInfo = %+v, want misses", third.CacheInfo)
	}
}

func TestExecuteConfigChangesCacheKey(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	opts := Options{GlossaryPath: "testdata/linalg.toml", Section: "spectral", Formats: []string{FormatJSON}}

	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Config = conceptmap.Config{NodeWidth: 100, NodeHeight: 40, LevelGap: 20, NodeGap: 10}
	result, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheInfo.LayoutHit {
		t.Error("a different config should not hit the layout cache")
	}
	if result.Layout.Height != 3*40+2*20 {
		t.Errorf("Layout.Height = %v, want 160", result.Layout.Height)
	}
}

func TestExecuteErrors(t *testing.T) {
	dir := t.TempDir()
	dup := filepath.Join(dir, "dup.json")
	if err := os.WriteFile(dup, []byte(`{"terms":[{"id":"a"},{"id":"a"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"MissingFile", Options{GlossaryPath: filepath.Join(dir, "none.toml")}, errors.ErrCodeFileNotFound},
		{"DuplicateTerms", Options{GlossaryPath: dup}, errors.ErrCodeInvalidTerm},
		{"UnknownSection", Options{GlossaryPath: "testdata/linalg.toml", Section: "calculus"}, errors.ErrCodeSectionNotFound},
		{"BadFormat", Options{GlossaryPath: "testdata/linalg.toml", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"BadConfig", Options{GlossaryPath: "testdata/linalg.toml", Config: conceptmap.Config{NodeGap: -1}}, errors.ErrCodeInvalidConfig},
	}

	r := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCheckView(t *testing.T) {
	tests := []struct {
		name string
		view glossary.View
		code errors.Code
	}{
		{"Valid", glossary.View{NodeIDs: []string{"a", "b"}}, ""},
		{"Empty", glossary.View{}, ""},
		{"Duplicate", glossary.View{NodeIDs: []string{"a", "a"}}, errors.ErrCodeInvalidTerm},
		{"EmptyID", glossary.View{NodeIDs: []string{""}}, errors.ErrCodeInvalidTerm},
		{"BadKind", glossary.View{NodeIDs: []string{"a"}, Relations: []conceptmap.Relation{{From: "a", To: "a", Kind: 42}}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckView(tt.view)
			if tt.code == "" {
				if err != nil {
					t.Errorf("CheckView() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("CheckView() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRunnerLayoutAdHoc(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	v := glossary.View{
		NodeIDs: []string{"a", "b", "c", "d"},
		Relations: []conceptmap.Relation{
			{From: "a", To: "b"}, {From: "a", To: "c"}, {From: "b", To: "d"}, {From: "c", To: "d"},
		},
	}

	l, hit, err := r.LayoutWithCacheInfo(ctx, v, conceptmap.Config{})
	if err != nil {
		t.Fatalf("LayoutWithCacheInfo() error: %v", err)
	}
	if hit {
		t.Error("first layout should miss")
	}
	if l.Width != 344 || l.Height != 348 {
		t.Errorf("bounds = %vx%v, want 344x348", l.Width, l.Height)
	}

	// The zero config and the defaults share a cache entry.
	cached, hit, err := r.LayoutWithCacheInfo(ctx, v, conceptmap.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second layout should hit")
	}
	if cached.Width != l.Width || len(cached.Edges) != len(l.Edges) {
		t.Errorf("cached layout differs: %+v", cached)
	}

	if _, err := r.Layout(ctx, glossary.View{NodeIDs: []string{"x", "x"}}, conceptmap.Config{}); !errors.Is(err, errors.ErrCodeInvalidTerm) {
		t.Errorf("Layout(duplicates) error = %v, want INVALID_TERM", err)
	}
}

func TestLayoutViewRefresh(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	v := glossary.View{NodeIDs: []string{"a", "b"}, Relations: []conceptmap.Relation{{From: "a", To: "b"}}}

	if _, hit, err := r.LayoutView(ctx, v, Options{}); err != nil || hit {
		t.Fatalf("LayoutView() = hit %v, err %v; want miss", hit, err)
	}
	if _, hit, _ := r.LayoutView(ctx, v, Options{}); !hit {
		t.Error("second LayoutView() should hit")
	}
	if _, hit, _ := r.LayoutView(ctx, v, Options{Refresh: true}); hit {
		t.Error("LayoutView(Refresh) should bypass the cache")
	}
	if _, _, err := r.LayoutView(ctx, v, Options{Config: conceptmap.Config{NodeGap: -1}}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("LayoutView(negative gap) error = %v, want INVALID_CONFIG", err)
	}
}

func TestRenderWithoutDocument(t *testing.T) {
	l := conceptmap.ComputeLayout([]string{"x", "y"}, []conceptmap.Relation{{From: "x", To: "y", Label: "uses"}})
	artifacts, err := Render(context.Background(), l, nil, Options{Formats: []string{FormatSVG}, ShowLabels: true})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	svg := string(artifacts[FormatSVG])
	if !strings.Contains(svg, ">uses</text>") {
		t.Error("SVG should include edge label")
	}
	if strings.Contains(svg, "\n  <title>") {
		t.Error("SVG should have no document title without a glossary")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, conceptmap.Layout{}, nil, Options{Formats: []string{FormatJSON}})
	if err != context.Canceled {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

// keyRecorder records every artifact key the runner asks for.
type keyRecorder struct {
	cache.Keyer

	mu   sync.Mutex
	opts []cache.ArtifactKeyOpts
	keys []string
}

func (k *keyRecorder) ArtifactKey(layoutHash string, opts cache.ArtifactKeyOpts) string {
	key := k.Keyer.ArtifactKey(layoutHash, opts)
	k.mu.Lock()
	defer k.mu.Unlock()
	k.opts = append(k.opts, opts)
	k.keys = append(k.keys, key)
	return key
}

func TestRenderArtifactKeyScale(t *testing.T) {
	keyer := &keyRecorder{Keyer: cache.NewDefaultKeyer()}
	r := NewRunner(cache.NewNullCache(), keyer, nil)
	l := conceptmap.ComputeLayout([]string{"a", "b"}, []conceptmap.Relation{{From: "a", To: "b"}})

	// PNG conversion may be unavailable; the cache lookup happens first either way.
	for _, scale := range []float64{2, 4} {
		_, _, _ = r.RenderWithCacheInfo(context.Background(), l, nil, Options{Formats: []string{FormatPNG}, Scale: scale})
	}
	_, _, _ = r.RenderWithCacheInfo(context.Background(), l, nil, Options{Formats: []string{FormatSVG}, Scale: 4})
	_, _, _ = r.RenderWithCacheInfo(context.Background(), l, nil, Options{Formats: []string{FormatSVG}, Scale: 2})

	if len(keyer.keys) < 4 {
		t.Fatalf("recorded %d artifact keys, want at least 4", len(keyer.keys))
	}
	first := func(format string, scale float64) int {
		for i, o := range keyer.opts {
			if o.Format == format && (format != FormatPNG || o.Scale == scale) {
				return i
			}
		}
		t.Fatalf("no key recorded for %s at scale %v", format, scale)
		return -1
	}
	if keyer.keys[first(FormatPNG, 2)] == keyer.keys[first(FormatPNG, 4)] {
		t.Error("PNG renders at different scales should use different cache keys")
	}
	for i, o := range keyer.opts {
		if o.Format == FormatSVG && o.Scale != 0 {
			t.Errorf("opts[%d] = %+v, scale should only key PNG artifacts", i, o)
		}
	}
}

type recordingHooks struct {
	observability.NoopLayoutHooks
	observability.NoopCacheHooks

	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLayoutStart(context.Context, string, int, int) { h.record("layout-start") }
func (h *recordingHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {
	h.record("layout-complete")
}
func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.record("render-complete")
}
func (h *recordingHooks) OnCacheHit(context.Context, string)      { h.record("hit") }
func (h *recordingHooks) OnCacheSet(context.Context, string, int) { h.record("set") }

func TestExecuteFiresHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	r := newTestRunner(t)
	opts := Options{GlossaryPath: "testdata/linalg.toml", Section: "basics"}
	for range 2 {
		if _, err := r.Execute(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
	}

	count := func(name string) int {
		n := 0
		for _, e := range hooks.events {
			if e == name {
				n++
			}
		}
		return n
	}
	if count("layout-start") != 2 || count("layout-complete") != 2 || count("render-complete") != 2 {
		t.Errorf("events = %v", hooks.events)
	}
	// First run writes layout + svg; second run reads both.
	if count("set") != 2 || count("hit") != 2 {
		t.Errorf("cache events = %v", hooks.events)
	}
}
