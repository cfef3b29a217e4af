package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/irbridge-core/internal/ircode"
)

// sendCommandRequest is the body for POST /devices/{id}/send.
type sendCommandRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// testCommandRequest is the body for POST /devices/{id}/test. The payload
// is transmitted directly without touching the device's library.
type testCommandRequest struct {
	Payload string `json:"payload"`
}

// handleSendCommand dispatches a stored command to the device.
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req sendCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.coord.SendCommand(r.Context(), id, ircode.Category(req.Category), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "sent",
		"category": req.Category,
		"name":     req.Name,
	})
}

// handleTestCommand transmits a raw payload for verification before saving.
func (s *Server) handleTestCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req testCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.coord.TestCommand(r.Context(), id, req.Payload); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleListCommands returns a device's full command library.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	commands, err := s.coord.ListCommands(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"commands": commands, "count": len(commands)})
}
