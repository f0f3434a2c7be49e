package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nchevrel/marmithon/internal/analyze"
	"github.com/nchevrel/marmithon/internal/config"
	"github.com/nchevrel/marmithon/internal/etl"
	"github.com/nchevrel/marmithon/internal/memo"
	"github.com/nchevrel/marmithon/internal/report"
	"github.com/nchevrel/marmithon/internal/store"
	"github.com/nchevrel/marmithon/internal/textproc"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	rows := []etl.AnalysisRow{
		{
			UserID: 1, RecipeID: 1, Rating: 5,
			Review: "Fantastic pancakes with golden edges.",
			RecipeName: "pancakes", Minutes: 20, NSteps: 3,
			Ingredients: []string{"eggs", "flour"}, TimeCategory: etl.TimeQuick,
		},
		{
			UserID: 2, RecipeID: 1, Rating: 4,
			Review: "Solid pancakes, slightly dense batter.",
			RecipeName: "pancakes", Minutes: 20, NSteps: 3,
			Ingredients: []string{"eggs", "flour"}, TimeCategory: etl.TimeQuick,
		},
	}
	path := filepath.Join(t.TempDir(), "analysis.duckdb")
	if err := store.Write(path, rows); err != nil {
		t.Fatalf("writing analysis table: %v", err)
	}
	db, err := store.Open(path)
	if err != nil {
		t.Fatalf("opening analysis table: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := memo.New(16)
	if err != nil {
		t.Fatal(err)
	}
	analyzer := analyze.NewAnalyzer(
		db,
		textproc.New(config.Text{BatchSize: 4, MinTokenLen: 3}),
		cache,
		config.Analysis{ScopeSize: 100, TopN: 10, CompareN: 5},
	)
	return New(db, analyzer, report.NewBuilder(db, analyzer, 10))
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestStatusWithData(t *testing.T) {
	rec := get(t, testServer(t), "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["data"] != true {
		t.Error("expected data: true")
	}
	if body["rows"] != float64(2) {
		t.Errorf("rows = %v, want 2", body["rows"])
	}
	if body["recipes"] != float64(1) {
		t.Errorf("recipes = %v, want 1", body["recipes"])
	}
}

func TestStatusWithoutData(t *testing.T) {
	s := New(nil, nil, nil)
	rec := get(t, s, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decode(t, rec); body["data"] != false {
		t.Error("expected data: false")
	}
}

func TestEndpointsDegradeWithoutData(t *testing.T) {
	s := New(nil, nil, nil)
	for _, path := range []string{
		"/api/frequency?scope=best",
		"/api/tfidf?scope=worst",
		"/api/compare?scope=most",
		"/api/ingredients",
	} {
		rec := get(t, s, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", path, rec.Code)
		}
	}
}

func TestFrequencyEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/api/frequency?scope=best&n=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["scope"] != "best" {
		t.Errorf("scope = %v, want best", body["scope"])
	}
	terms, ok := body["terms"].([]any)
	if !ok || len(terms) == 0 {
		t.Errorf("expected non-empty terms, got %v", body["terms"])
	}
}

func TestFrequencyRejectsBadScope(t *testing.T) {
	rec := get(t, testServer(t), "/api/frequency?scope=median")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFrequencyRejectsBadLimit(t *testing.T) {
	rec := get(t, testServer(t), "/api/frequency?scope=best&n=zero")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/api/compare?scope=most")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	for _, key := range []string{"common", "only_frequency", "only_tfidf"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
}

func TestIngredientsEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/api/ingredients?n=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	ingredients, ok := body["ingredients"].([]any)
	if !ok || len(ingredients) != 2 {
		t.Errorf("expected 2 ingredients, got %v", body["ingredients"])
	}
}

func TestIndexRendersReport(t *testing.T) {
	rec := get(t, testServer(t), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "Recipe Analysis Report") {
		t.Errorf("unexpected index body: %s", html)
	}
}

func TestIndexWithoutData(t *testing.T) {
	rec := get(t, New(nil, nil, nil), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No analysis table available") {
		t.Error("expected degraded index message")
	}
}

func TestUnknownPath(t *testing.T) {
	rec := get(t, testServer(t), "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
