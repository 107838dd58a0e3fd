package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/conceptmap/pkg/cache"
	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

const testGlossary = `
title = "Sets"

[[terms]]
id = "set"
name = "Set"
section = "foundations"

[[terms]]
id = "function"
name = "Function"
section = "foundations"

[[terms]]
id = "group"
name = "Group"
section = "algebra"

[[terms]]
id = "ring"
name = "Ring"
section = "algebra"

[[relations]]
from = "set"
to = "function"
type = "prerequisite"

[[relations]]
from = "group"
to = "ring"
type = "variant"
label = "adds multiplication"
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestServer(t *testing.T, withDoc bool) *Server {
	t.Helper()
	var doc *glossary.Document
	if withDoc {
		var err error
		doc, err = glossary.Read(strings.NewReader(testGlossary), glossary.FormatTOML)
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(c, nil, quietLogger())
	return New(runner, doc, quietLogger(), WithMaxNodes(4), WithVersion("test"))
}

func do(t *testing.T, h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, true).Handler()
	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Version != "test" || resp.Terms != 4 || resp.Title != "Sets" {
		t.Errorf("health = %+v", resp)
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, true).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	generated := rec.Header().Get(RequestIDHeader)
	if generated == "" {
		t.Fatal("missing generated request ID")
	}

	const id = "0b7e6a8e-1f4c-4a53-9a55-3f1d2f6c7e10"
	rec = do(t, h, http.MethodGet, "/healthz", "", http.Header{RequestIDHeader: {id}})
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, want client value %q", got, id)
	}

	rec = do(t, h, http.MethodGet, "/healthz", "", http.Header{RequestIDHeader: {"not-a-uuid"}})
	if got := rec.Header().Get(RequestIDHeader); got == "not-a-uuid" || got == "" {
		t.Errorf("request ID = %q, want a fresh UUID", got)
	}
}

func TestListSections(t *testing.T) {
	h := newTestServer(t, true).Handler()
	rec := do(t, h, http.MethodGet, "/v1/sections", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp sectionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []sectionInfo{{Name: "algebra", Terms: 2}, {Name: "foundations", Terms: 2}}
	if len(resp.Sections) != len(want) {
		t.Fatalf("sections = %+v, want %+v", resp.Sections, want)
	}
	for _, w := range want {
		found := false
		for _, got := range resp.Sections {
			if got == w {
				found = true
			}
		}
		if !found {
			t.Errorf("sections = %+v, missing %+v", resp.Sections, w)
		}
	}
}

func TestNoDocument(t *testing.T) {
	h := newTestServer(t, false).Handler()
	for _, target := range []string{"/v1/sections", "/v1/layout", "/v1/sections/algebra/layout"} {
		rec := do(t, h, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != "NOT_FOUND" {
			t.Errorf("GET %s code = %q, want NOT_FOUND", target, resp.Code)
		}
	}
}

func TestPostLayout(t *testing.T) {
	h := newTestServer(t, false).Handler()
	body := `{
		"nodes": ["a", "b", "c", "d"],
		"relations": [
			{"from": "a", "to": "b", "type": "prerequisite"},
			{"from": "a", "to": "c", "type": "prerequisite"},
			{"from": "b", "to": "d", "type": "component"},
			{"from": "c", "to": "d", "type": "applies", "label": "uses"}
		]
	}`

	rec := do(t, h, http.MethodPost, "/v1/layout", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	var l conceptmap.Layout
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatal(err)
	}
	if len(l.Nodes) != 4 || len(l.Edges) != 4 {
		t.Errorf("layout = %d nodes, %d edges", len(l.Nodes), len(l.Edges))
	}
	if l.Width != 344 || l.Height != 348 {
		t.Errorf("bounds = %vx%v, want 344x348", l.Width, l.Height)
	}

	rec = do(t, h, http.MethodPost, "/v1/layout", body, nil)
	if got := rec.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
}

func TestPostLayout_Config(t *testing.T) {
	h := newTestServer(t, false).Handler()
	body := `{"nodes":["a","b"],"relations":[{"from":"a","to":"b","type":"prerequisite"}],
		"config":{"node_width":10,"node_height":10,"level_gap":5,"node_gap":5}}`
	rec := do(t, h, http.MethodPost, "/v1/layout", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var l conceptmap.Layout
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatal(err)
	}
	if l.Width != 10 || l.Height != 25 {
		t.Errorf("bounds = %vx%v, want 10x25", l.Width, l.Height)
	}
}

func TestPostLayout_PartialConfig(t *testing.T) {
	h := newTestServer(t, false).Handler()
	tests := []struct {
		name   string
		config string
		bx, cy float64
	}{
		{"Width", `{"node_width":160}`, 184, 146},
		{"ExplicitZeroGap", `{"node_gap":0}`, 160, 146},
		{"LevelGapOnly", `{"level_gap":10}`, 184, 66},
		{"Null", `null`, 184, 146},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"nodes":["a","b","c"],"relations":[{"from":"a","to":"c","type":"prerequisite"}],"config":` + tt.config + `}`
			rec := do(t, h, http.MethodPost, "/v1/layout", body, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			var l conceptmap.Layout
			if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
				t.Fatal(err)
			}
			b, _ := l.Node("b")
			c, _ := l.Node("c")
			if b.X != tt.bx {
				t.Errorf("b.x = %v, want %v", b.X, tt.bx)
			}
			if c.Y != tt.cy {
				t.Errorf("c.y = %v, want %v", c.Y, tt.cy)
			}
		})
	}
}

func TestPostLayout_Errors(t *testing.T) {
	h := newTestServer(t, false).Handler()
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"Malformed", `{"nodes":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"UnknownField", `{"nodes":["a"],"edges":[]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"UnknownType", `{"nodes":["a","b"],"relations":[{"from":"a","to":"b","type":"extends"}]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"Duplicate", `{"nodes":["a","a"]}`, http.StatusBadRequest, "INVALID_TERM"},
		{"EmptyID", `{"nodes":[""]}`, http.StatusBadRequest, "INVALID_TERM"},
		{"TooMany", `{"nodes":["a","b","c","d","e"]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"NegativeGap", `{"nodes":["a"],"config":{"node_width":10,"node_height":10,"level_gap":-1}}`, http.StatusBadRequest, "INVALID_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/layout", tt.body, nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if resp.RequestID == "" || resp.RequestID != rec.Header().Get(RequestIDHeader) {
				t.Errorf("request_id = %q, header %q", resp.RequestID, rec.Header().Get(RequestIDHeader))
			}
		})
	}
}

func TestPostLayout_EmptyBody(t *testing.T) {
	h := newTestServer(t, false).Handler()
	rec := do(t, h, http.MethodPost, "/v1/layout", `{}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"nodes": []`) {
		t.Errorf("body = %s, want empty node list", rec.Body)
	}
}

func TestGetSectionLayout(t *testing.T) {
	h := newTestServer(t, true).Handler()

	tests := []struct {
		target      string
		contentType string
		contains    string
	}{
		{"/v1/sections/algebra/layout", "application/json", `"id": "group"`},
		{"/v1/sections/algebra/layout?format=svg", "image/svg+xml", "<svg"},
		{"/v1/sections/algebra/layout?format=svg&labels=true", "image/svg+xml", "adds multiplication"},
		{"/v1/sections/algebra/layout?format=dot", "text/vnd.graphviz; charset=utf-8", "digraph"},
		{"/v1/layout?format=json", "application/json", `"id": "function"`},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q:\n%s", tt.contains, rec.Body)
			}
			if rec.Header().Get("ETag") == "" {
				t.Error("missing ETag")
			}
		})
	}
}

func TestGetSectionLayout_Errors(t *testing.T) {
	h := newTestServer(t, true).Handler()
	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/v1/sections/topology/layout", http.StatusNotFound, "SECTION_NOT_FOUND"},
		{"/v1/sections/algebra/layout?format=gif", http.StatusBadRequest, "INVALID_FORMAT"},
		{"/v1/sections/algebra/layout?labels=maybe", http.StatusBadRequest, "INVALID_INPUT"},
		{"/v2/nothing", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "", nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if resp := decodeError(t, rec); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, true).Handler()
	rec := do(t, h, http.MethodDelete, "/v1/sections", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "METHOD_NOT_ALLOWED" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestTrailingSlash(t *testing.T) {
	h := newTestServer(t, true).Handler()
	if rec := do(t, h, http.MethodGet, "/v1/sections/", "", nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestETag(t *testing.T) {
	h := newTestServer(t, true).Handler()
	rec := do(t, h, http.MethodGet, "/v1/sections/foundations/layout?format=svg", "", nil)
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	rec = do(t, h, http.MethodGet, "/v1/sections/foundations/layout?format=svg", "", http.Header{"If-None-Match": {etag}})
	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("304 body = %q, want empty", rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/v1/sections/foundations/layout?format=json", "", http.Header{"If-None-Match": {etag}})
	if rec.Code != http.StatusOK {
		t.Errorf("other format status = %d, want 200", rec.Code)
	}
}

func TestMatchesETag(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`*`, true},
		{`"abd"`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := matchesETag(tt.header, `"abc"`); got != tt.want {
			t.Errorf("matchesETag(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestRecoverer(t *testing.T) {
	s := newTestServer(t, false)
	h := requestID(s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := do(t, h, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "INTERNAL_ERROR" || resp.RequestID == "" {
		t.Errorf("error = %+v", resp)
	}
}

func TestLogRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	s := New(nil, nil, logger)
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	for _, want := range []string{"WARN", "path=/missing", "status=404"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen: %v", err)
	}
	s := newTestServer(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	if err != nil {
		cancel()
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestOptions(t *testing.T) {
	s := New(nil, nil, nil, WithAddr("127.0.0.1:9999"), WithShutdownTimeout(time.Second))
	if s.Addr() != "127.0.0.1:9999" || s.shutdownTimeout != time.Second {
		t.Errorf("options not applied: %+v", s)
	}
	if s.maxNodes != DefaultMaxNodes || s.version != "dev" {
		t.Errorf("defaults = %d %q", s.maxNodes, s.version)
	}
}
