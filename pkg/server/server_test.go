package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/markviz/markviz/pkg/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	return New(nil, store.NewMemoryStore(), logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q, want ok status", rec.Body.String())
	}
}

func TestRenderReturnsSVG(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/render", map[string]any{
		"source": "flowchart TB\nA[Start] --> B[End]",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if kind := rec.Header().Get("X-Diagram-Kind"); kind != "flowchart" {
		t.Errorf("X-Diagram-Kind = %q, want flowchart", kind)
	}
	if !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Errorf("body should start with <svg, got %q", rec.Body.String()[:20])
	}
}

func TestRenderRejectsBadSource(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/render", map[string]any{
		"source": "",
	})
	if rec.Code < 400 || rec.Code >= 500 {
		t.Errorf("status = %d, want a 4xx", rec.Code)
	}
}

func TestRenderRejectsBadFormat(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/render", map[string]any{
		"source":  "flowchart TB\nA --> B",
		"formats": []string{"gif"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRenderRejectsMultipleFormats(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/render", map[string]any{
		"source":  "flowchart TB\nA --> B",
		"formats": []string{"svg", "json"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDiagramCRUD(t *testing.T) {
	h := testServer(t).Handler()

	// Create
	rec := doJSON(t, h, http.MethodPost, "/v1/diagrams", map[string]any{
		"title":  "login flow",
		"source": "sequenceDiagram\nAlice->>Bob: hi",
		"theme":  "github-dark",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var doc store.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode created doc: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("created document should have an ID")
	}
	if doc.Title != "login flow" {
		t.Errorf("Title = %q", doc.Title)
	}

	// Get JSON
	rec = doJSON(t, h, http.MethodGet, "/v1/diagrams/"+doc.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got store.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if got.Source != "sequenceDiagram\nAlice->>Bob: hi" {
		t.Errorf("Source = %q", got.Source)
	}

	// Get rendered SVG
	rec = doJSON(t, h, http.MethodGet, "/v1/diagrams/"+doc.ID+".svg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get svg status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Alice") {
		t.Error("rendered SVG should contain participant name")
	}

	// List
	rec = doJSON(t, h, http.MethodGet, "/v1/diagrams", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var docs []store.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("len(docs) = %d, want 1", len(docs))
	}

	// Delete
	rec = doJSON(t, h, http.MethodDelete, "/v1/diagrams/"+doc.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	// Gone
	rec = doJSON(t, h, http.MethodGet, "/v1/diagrams/"+doc.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCreateDiagramRejectsUnparsableSource(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/diagrams", map[string]any{
		"source": "",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestGetDiagramRejectsBadID(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/v1/diagrams/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRequestIDAssigned(t *testing.T) {
	h := testServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry X-Request-ID")
	}

	// Incoming IDs are preserved
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}
