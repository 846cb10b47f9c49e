package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgallion1/puzzlegest/internal/analyze"
	"github.com/dgallion1/puzzlegest/internal/export"
	"github.com/dgallion1/puzzlegest/internal/segment"
	"github.com/dgallion1/puzzlegest/internal/store"
	"github.com/dgallion1/puzzlegest/internal/verify"
	"github.com/go-chi/chi/v5"
)

// loadPuzzles resolves the document in the path and its records for the
// optional ?source= filter. It writes the error response itself.
func (s *Server) loadPuzzles(w http.ResponseWriter, r *http.Request) (string, []segment.PuzzleRecord, bool) {
	docID := chi.URLParam(r, "docID")
	source, ok := sourceParam(w, r)
	if !ok {
		return "", nil, false
	}
	st := s.orchestrator.Store()
	if _, err := st.GetDocument(r.Context(), docID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
		} else {
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return "", nil, false
	}
	records, err := st.ListPuzzles(r.Context(), docID, source)
	if err != nil {
		jsonError(w, "failed to list puzzles: "+err.Error(), http.StatusInternalServerError)
		return "", nil, false
	}
	if records == nil {
		records = []segment.PuzzleRecord{}
	}
	return docID, records, true
}

func sourceParam(w http.ResponseWriter, r *http.Request) (segment.Source, bool) {
	switch v := segment.Source(r.URL.Query().Get("source")); v {
	case "", segment.SourceText, segment.SourceVision:
		return v, true
	default:
		jsonError(w, "source must be text or vision", http.StatusBadRequest)
		return "", false
	}
}

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	docID, records, ok := s.loadPuzzles(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":  docID,
		"count":   len(records),
		"puzzles": records,
	})
}

// getPuzzle resolves {docID}/{number} to one record.
func (s *Server) getPuzzle(w http.ResponseWriter, r *http.Request) (segment.PuzzleRecord, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n <= 0 {
		jsonError(w, "number must be a positive integer", http.StatusBadRequest)
		return segment.PuzzleRecord{}, false
	}
	source, ok := sourceParam(w, r)
	if !ok {
		return segment.PuzzleRecord{}, false
	}
	rec, err := s.orchestrator.Store().GetPuzzle(r.Context(), chi.URLParam(r, "docID"), n, source)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "puzzle not found", http.StatusNotFound)
		return segment.PuzzleRecord{}, false
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return segment.PuzzleRecord{}, false
	}
	return rec, true
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.getPuzzle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePuzzleSummary(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.getPuzzle(w, r)
	if !ok {
		return
	}
	html, err := analyze.RenderSummaryHTML(rec)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleDocumentStats(w http.ResponseWriter, r *http.Request) {
	_, records, ok := s.loadPuzzles(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analyze.Statistics(records))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	_, records, ok := s.loadPuzzles(w, r)
	if !ok {
		return
	}
	matches := analyze.Search(records, q)
	if matches == nil {
		matches = []analyze.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "count": len(matches), "matches": matches})
}

func (s *Server) handleTechniques(w http.ResponseWriter, r *http.Request) {
	_, records, ok := s.loadPuzzles(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"techniques": analyze.Techniques(records)})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	_, records, ok := s.loadPuzzles(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, verify.CheckAll(records))
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	docID, records, ok := s.loadPuzzles(w, r)
	if !ok {
		return
	}
	start := time.Now()
	data, err := export.XLSX(records)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("export.xlsx.ok", "doc_id", docID, "rows", len(records), "elapsed_ms", time.Since(start).Milliseconds())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+docID+`.xlsx"`)
	w.Write(data)
}
