// Package api implements the HTTP surface: entity classification, BIO
// tagging, corpus search, health and Prometheus metrics.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
	"github.com/DlutRDSerivice/dlut-research-service/internal/metrics"
	"github.com/DlutRDSerivice/dlut-research-service/internal/query"
	"github.com/DlutRDSerivice/dlut-research-service/internal/token"
)

const maxBodyBytes = 1 << 20

// Handler implements all HTTP endpoints.
type Handler struct {
	tok      token.Tokenizer
	entities []bio.Entity
	index    *query.Index // nil when no corpus is loaded
}

// New creates a Handler. index may be nil; search then answers 503.
func New(tok token.Tokenizer, entities []bio.Entity, index *query.Index) *Handler {
	return &Handler{tok: tok, entities: entities, index: index}
}

// Register mounts routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /classify", h.instrument("classify", h.classify))
	mux.HandleFunc("POST /v1/tag", h.instrument("tag", h.tag))
	mux.HandleFunc("POST /v1/search", h.instrument("search", h.search))
}

// ---------- endpoints ----------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Spans []bio.Span `json:"spans"`
}

// classify runs the lexicon tagger over free text and returns character
// spans (rune offsets) for every recognized entity.
func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeErr(w, http.StatusBadRequest, "empty text")
		return
	}

	tokens := h.tok.Tokenize(req.Text)
	labels := bio.Tag(tokens, h.entities, h.tok.Tokenize)
	spans := bio.Spans(req.Text, tokens, labels)
	if spans == nil {
		spans = []bio.Span{}
	}
	writeJSON(w, http.StatusOK, classifyResponse{Spans: spans})
}

type tagRequest struct {
	Text     string       `json:"text"`
	Entities []bio.Entity `json:"entities"`
}

type tagResponse struct {
	Tokens []string `json:"tokens"`
	Labels []string `json:"labels"`
}

// tag returns the raw token/label sequences. The request may carry its own
// entity list; the server lexicon is the default.
func (h *Handler) tag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeErr(w, http.StatusBadRequest, "empty text")
		return
	}

	entities := req.Entities
	if entities == nil {
		entities = h.entities
	}
	tokens := h.tok.Tokenize(req.Text)
	labels := bio.Tag(tokens, entities, h.tok.Tokenize)
	writeJSON(w, http.StatusOK, tagResponse{Tokens: tokens, Labels: labels})
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResult struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

type searchResponse struct {
	Total   int            `json:"total"`
	Results []searchResult `json:"results"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		writeErr(w, http.StatusServiceUnavailable, "no corpus loaded")
		return
	}
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}

	indices, err := h.index.Search(req.Query)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	results := make([]searchResult, 0, len(indices))
	for _, i := range indices {
		results = append(results, searchResult{Index: i, Title: h.index.Record(i).Title()})
	}
	writeJSON(w, http.StatusOK, searchResponse{Total: len(results), Results: results})
}

// ---------- instrumentation ----------

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		elapsed := time.Since(start)
		metrics.Observe(name, rec.status, elapsed)
		slog.Info("request handled", "handler", name, "status", rec.status, "ms", elapsed.Milliseconds())
	}
}

// ---------- helpers ----------

// decode reads a JSON body capped at 1 MiB. It answers the request itself
// on failure; the caller proceeds only on true.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
