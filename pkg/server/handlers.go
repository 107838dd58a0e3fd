package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/errors"
	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

// contentTypes maps pipeline formats to response media types.
var contentTypes = map[string]string{
	pipeline.FormatJSON:     "application/json",
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatGraphviz: "image/svg+xml",
	pipeline.FormatDOT:      "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatPNG:      "image/png",
	pipeline.FormatPDF:      "application/pdf",
}

// handlerFunc is an http.HandlerFunc that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// wrap adapts h, writing any returned error as a JSON error body.
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", RequestID(r.Context()))
		if errors.GetCode(err) == "" {
			msg = http.StatusText(status)
		}
	}
	writeJSON(w, status, errorResponse{
		Code:      string(code),
		Message:   msg,
		RequestID: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func errNotFound(r *http.Request) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Title   string `json:"title,omitempty"`
	Terms   int    `json:"terms"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	resp := healthResponse{Status: "ok", Version: s.version}
	if s.doc != nil {
		resp.Title = s.doc.Title
		resp.Terms = len(s.doc.Terms)
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

type sectionInfo struct {
	Name  string `json:"name"`
	Terms int    `json:"terms"`
}

type sectionsResponse struct {
	Title    string        `json:"title,omitempty"`
	Terms    int           `json:"terms"`
	Sections []sectionInfo `json:"sections"`
}

func (s *Server) listSections(w http.ResponseWriter, r *http.Request) error {
	if s.doc == nil {
		return errors.New(errors.ErrCodeNotFound, "no glossary loaded")
	}
	resp := sectionsResponse{
		Title:    s.doc.Title,
		Terms:    len(s.doc.Terms),
		Sections: []sectionInfo{},
	}
	for _, name := range s.doc.Sections() {
		resp.Sections = append(resp.Sections, sectionInfo{Name: name, Terms: s.doc.SectionSize(name)})
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// layoutRequest is the body of POST /v1/layout.
type layoutRequest struct {
	Nodes     []string              `json:"nodes"`
	Relations []conceptmap.Relation `json:"relations"`
	Config    *conceptmap.Config    `json:"config,omitempty"`
}

func (s *Server) postLayout(w http.ResponseWriter, r *http.Request) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	// Fields left out of a supplied config keep their defaults.
	cfg := conceptmap.DefaultConfig()
	req := layoutRequest{Config: &cfg}
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	if len(req.Nodes) > s.maxNodes {
		return errors.New(errors.ErrCodeInvalidInput, "too many nodes: %d (limit %d)", len(req.Nodes), s.maxNodes)
	}

	if req.Config != nil {
		cfg = *req.Config
	} else {
		cfg = conceptmap.DefaultConfig()
	}
	if err := pipeline.ValidateConfig(cfg); err != nil {
		return err
	}

	v := glossary.View{NodeIDs: req.Nodes, Relations: req.Relations}
	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), v, cfg)
	if err != nil {
		return err
	}
	w.Header().Set("X-Cache", cacheHeader(hit))
	writeJSON(w, http.StatusOK, l)
	return nil
}

// getLayout serves the whole glossary or the section named in the path.
func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) error {
	if s.doc == nil {
		return errors.New(errors.ErrCodeNotFound, "no glossary loaded")
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return err
	}
	showLabels := false
	if raw := q.Get("labels"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "labels must be a boolean, got %q", raw)
		}
		showLabels = v
	}

	opts := pipeline.Options{
		Section:    chi.URLParam(r, "section"),
		Formats:    []string{format},
		ShowLabels: showLabels,
		Config:     conceptmap.DefaultConfig(),
		Logger:     s.logger,
	}
	result, err := s.runner.ExecuteDocument(r.Context(), s.doc, opts)
	if err != nil {
		return err
	}

	etag := fmt.Sprintf("%q", fmt.Sprintf("%s-%s-%t", result.LayoutHash, format, showLabels))
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Cache", cacheHeader(result.CacheInfo.LayoutHit))
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
	return nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

// matchesETag reports whether an If-None-Match header value lists etag.
func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}
