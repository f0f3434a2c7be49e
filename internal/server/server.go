// Package server exposes the analysis artifacts over HTTP: JSON endpoints
// for the term tables, comparisons and ingredient rankings, plus an HTML
// rendering of the markdown report at the root. When no analysis table
// exists the server still starts and answers with a degraded status so the
// operator can tell "not built yet" from "broken".
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"github.com/nchevrel/marmithon/internal/analyze"
	"github.com/nchevrel/marmithon/internal/report"
	"github.com/nchevrel/marmithon/internal/store"
)

var md = goldmark.New()

// Server serves analysis results over HTTP. db and analyzer may be nil when
// the analysis table has not been built yet.
type Server struct {
	db       *store.DB
	analyzer *analyze.Analyzer
	builder  *report.Builder
	mux      *http.ServeMux
}

// New creates a server over an optional open analysis table.
func New(db *store.DB, analyzer *analyze.Analyzer, builder *report.Builder) *Server {
	s := &Server{db: db, analyzer: analyzer, builder: builder, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/frequency", s.tableHandler(analyze.ModeFrequency))
	s.mux.HandleFunc("/api/tfidf", s.tableHandler(analyze.ModeTFIDF))
	s.mux.HandleFunc("/api/compare", s.handleCompare)
	s.mux.HandleFunc("/api/ingredients", s.handleIngredients)
}

func (s *Server) hasData() bool {
	return s.db != nil && s.analyzer != nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !s.hasData() {
		fmt.Fprint(w, "<h1>Recipe Analysis</h1><p>No analysis table available. Run the pipeline first.</p>")
		return
	}

	markdown, err := s.builder.Build(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("building report")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Write(buf.Bytes())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"data": false}
	if s.hasData() {
		rows, err := s.db.CountRows(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		recipes, err := s.db.CountRecipes(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		status["data"] = true
		status["rows"] = rows
		status["recipes"] = recipes
		status["cache_entries"] = s.analyzer.Cache().Len()
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) tableHandler(mode analyze.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, n, ok := s.scopeParams(w, r)
		if !ok {
			return
		}

		var table []analyze.TermWeight
		var err error
		if mode == analyze.ModeTFIDF {
			table, err = s.analyzer.TFIDF(r.Context(), scope, n)
		} else {
			table, err = s.analyzer.Frequency(r.Context(), scope, n)
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"scope": scope,
			"mode":  mode,
			"terms": table,
		})
	}
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	scope, n, ok := s.scopeParams(w, r)
	if !ok {
		return
	}
	cmp, err := s.analyzer.Compare(r.Context(), scope, n)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"scope":          scope,
		"common":         cmp.Common,
		"only_frequency": cmp.OnlyFrequency,
		"only_tfidf":     cmp.OnlyTFIDF,
	})
}

func (s *Server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	if !s.hasData() {
		s.writeNoData(w)
		return
	}
	n, ok := s.limitParam(w, r)
	if !ok {
		return
	}
	ranked, err := s.analyzer.TopIngredients(r.Context(), n)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	grouped, err := s.analyzer.IngredientCategories(r.Context(), n)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ingredients": ranked,
		"categories":  grouped,
	})
}

// scopeParams parses and validates the scope and n query parameters. On
// failure it has already written the response.
func (s *Server) scopeParams(w http.ResponseWriter, r *http.Request) (analyze.Scope, int, bool) {
	if !s.hasData() {
		s.writeNoData(w)
		return "", 0, false
	}
	scope, err := analyze.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return "", 0, false
	}
	n, ok := s.limitParam(w, r)
	if !ok {
		return "", 0, false
	}
	return scope, n, true
}

func (s *Server) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid n parameter %q", raw))
		return 0, false
	}
	return n, true
}

func (s *Server) writeNoData(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"error": "no analysis table available; run the pipeline first",
	})
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	if code >= 500 {
		log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, code, map[string]any{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

// Serve starts the HTTP server on the given port.
func (s *Server) Serve(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Info().Str("addr", addr).Msg("server listening")
	return http.ListenAndServe(addr, s.Handler())
}
