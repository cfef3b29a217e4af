package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/irbridge-core/internal/ircode"
)

// importRequest is the body for POST /devices/{id}/import. Overwrite
// controls whether existing commands are replaced on key collisions.
type importRequest struct {
	Document  *ircode.ExportDocument `json:"document"`
	Overwrite bool                   `json:"overwrite"`
}

// clearLibraryRequest is the body for DELETE /devices/{id}/commands.
// Confirmed must be true; clearing a library is not undoable.
type clearLibraryRequest struct {
	Confirmed bool `json:"confirmed"`
}

// handleExport serialises a device's command library as an interchange
// document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.coord.Export(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleImport merges an interchange document into a device's library.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.coord.Import(r.Context(), id, req.Document, req.Overwrite)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleClearLibrary removes every command from a device's library.
func (s *Server) handleClearLibrary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req clearLibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	removed, err := s.coord.ClearLibrary(r.Context(), id, req.Confirmed)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared", "removed": removed})
}
