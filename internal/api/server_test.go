package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/puzzlegest/internal/config"
	"github.com/dgallion1/puzzlegest/internal/extract"
	"github.com/dgallion1/puzzlegest/internal/pipeline"
	"github.com/dgallion1/puzzlegest/internal/segment"
	"github.com/dgallion1/puzzlegest/internal/store"
)

const testKey = "secret"

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.APIKey = testKey
	cfg.ImagesDir = t.TempDir()
	cfg.WorkerCount = 1

	orch := pipeline.NewOrchestrator(cfg, st, nil, nil, extract.NewLLMStats(time.Hour), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg), st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	if err := st.UpsertDocument(ctx, store.Document{ID: "doc1", Filename: "book.pdf", ContentHash: "abc", Pages: 10, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	recs := []segment.PuzzleRecord{
		{
			Number: 1, Source: segment.SourceText,
			Problem: segment.Problem{
				GameType: "Duplicate", Vulnerability: "Both sides vulnerable",
				SeatCards:   map[segment.Seat]string{segment.North: "♠ A K", segment.South: "♠ Q J"},
				OpeningLead: "West leads the ♥2.", Task: "Plan the play.",
			},
			Solution: segment.Solution{
				SeatCards:   map[segment.Seat]string{segment.North: "♠ A K", segment.South: "♠ Q J", segment.East: "♠ 9", segment.West: "♠ 8"},
				Explanation: "Take the finesse.",
			},
		},
		{
			Number: 2, Source: segment.SourceText,
			Problem:  segment.Problem{GameType: segment.Unknown, Vulnerability: segment.Unknown},
			Solution: segment.Solution{Explanation: "A squeeze."},
		},
	}
	if err := st.SavePuzzles(ctx, "doc1", recs); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthIsPublic(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	s.SetAPIKey("rotated")
	if rec := do(t, s, http.MethodGet, "/api/documents", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("old key should be rejected after rotation, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestExtractAndPoll(t *testing.T) {
	s, st := newTestServer(t)
	book := "PROBLEM 1\nNORTH\n♠ A K\n\nWest leads the ♥2.\nPlan the play.\fSOLUTION 1\nNORTH\n♠ A K\n\nDraw trumps."
	body, ct := multipartBody(t, "file", "book.txt", book, map[string]string{"mode": "text"})

	rec := do(t, s, http.MethodPost, "/api/extract", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted map[string]any
	decode(t, rec, &accepted)
	jobID, _ := accepted["job_id"].(string)
	if accepted["poll_url"] != "/api/extract/"+jobID+"/status" {
		t.Errorf("unexpected poll url %v", accepted["poll_url"])
	}

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = do(t, s, http.MethodGet, "/api/extract/"+jobID+"/status", nil, "")
		decode(t, rec, &snap)
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %s %v", snap.Status, snap.Progress.Errors)
	}

	recs, err := st.ListPuzzles(context.Background(), snap.DocID, "")
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected 1 stored puzzle, got %d (%v)", len(recs), err)
	}
}

func TestExtractRejects(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name     string
		filename string
		mode     string
	}{
		{"unsupported extension", "book.epub", "text"},
		{"vision needs pdf", "book.txt", "vision"},
		{"bad mode", "book.txt", "magic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, "file", tt.filename, "x", map[string]string{"mode": tt.mode})
			if rec := do(t, s, http.MethodPost, "/api/extract", body, ct); rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
	if rec := do(t, s, http.MethodGet, "/api/extract/nope/status", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}
}

func TestBatchExtract(t *testing.T) {
	s, _ := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.epub"} {
		fw, _ := mw.CreateFormFile("files", name)
		fw.Write([]byte("PROBLEM 1\fSOLUTION 1"))
	}
	mw.Close()

	rec := do(t, s, http.MethodPost, "/api/extract/batch", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var out struct {
		Jobs []map[string]any `json:"jobs"`
	}
	decode(t, rec, &out)
	if len(out.Jobs) != 2 || out.Jobs[0]["job_id"] == nil || out.Jobs[1]["error"] == nil {
		t.Errorf("unexpected batch result %+v", out.Jobs)
	}
}

func TestDocumentEndpoints(t *testing.T) {
	s, st := newTestServer(t)
	seed(t, st)

	rec := do(t, s, http.MethodGet, "/api/documents", nil, "")
	if !strings.Contains(rec.Body.String(), `"id":"doc1"`) {
		t.Errorf("document missing from list: %s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/documents/doc1/puzzles?source=text", nil, "")
	var list struct {
		Count   int                    `json:"count"`
		Puzzles []segment.PuzzleRecord `json:"puzzles"`
	}
	decode(t, rec, &list)
	if list.Count != 2 || list.Puzzles[0].Problem.SeatCards[segment.North] != "♠ A K" {
		t.Errorf("unexpected puzzles %+v", list)
	}

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/api/documents/doc1/puzzles/1", http.StatusOK, `"number":1`},
		{"/api/documents/doc1/puzzles/9", http.StatusNotFound, "puzzle not found"},
		{"/api/documents/doc1/puzzles/x", http.StatusBadRequest, "positive integer"},
		{"/api/documents/doc1/puzzles?source=ocr", http.StatusBadRequest, "source must be"},
		{"/api/documents/doc1/puzzles/1/summary", http.StatusOK, "<h1>Problem 1</h1>"},
		{"/api/documents/doc1/stats", http.StatusOK, `"total_puzzles":2`},
		{"/api/documents/doc1/search?q=FINESSE", http.StatusOK, `"count":1`},
		{"/api/documents/doc1/search", http.StatusBadRequest, "q query parameter"},
		{"/api/documents/doc1/techniques", http.StatusOK, `"squeeze":[2]`},
		{"/api/documents/doc1/verify", http.StatusOK, `"puzzles_with_issues":1`},
		{"/api/documents/missing/stats", http.StatusNotFound, "document not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, nil, "")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q: %s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestExportXLSX(t *testing.T) {
	s, st := newTestServer(t)
	seed(t, st)
	rec := do(t, s, http.MethodGet, "/api/documents/doc1/export.xlsx", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "doc1.xlsx") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("expected a zip payload")
	}
}

func TestDeleteDocument(t *testing.T) {
	s, st := newTestServer(t)
	seed(t, st)

	rec := do(t, s, http.MethodDelete, "/api/documents/doc1", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"puzzles_deleted":2`) {
		t.Fatalf("unexpected delete response %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodDelete, "/api/documents/doc1", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete should 404, got %d", rec.Code)
	}
}

func TestLLMStats(t *testing.T) {
	s, _ := newTestServer(t)
	s.orchestrator.Stats().Record("problem", 120)
	rec := do(t, s, http.MethodGet, "/api/stats/llm", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"problem"`) {
		t.Errorf("unexpected stats response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"book.pdf", "book.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\books\puzzles.pdf`, "puzzles.pdf"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
