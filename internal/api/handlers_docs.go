package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/puzzlegest/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists every ingested document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.orchestrator.Store().ListDocuments(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument deletes a document, its puzzles and its page images.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	puzzles, err := s.orchestrator.Store().DeleteDocument(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	imagesDeleted := false
	if s.cfg.ImagesDir != "" && filepath.Base(docID) == docID {
		dir := filepath.Join(s.cfg.ImagesDir, docID)
		if _, err := os.Stat(dir); err == nil {
			if err := os.RemoveAll(dir); err != nil {
				s.log.Warn("failed to remove page images", "doc_id", docID, "error", err)
			} else {
				imagesDeleted = true
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":          docID,
		"puzzles_deleted": puzzles,
		"images_deleted":  imagesDeleted,
	})
}
