package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/irbridge-core/internal/ircode"
	"github.com/nerrad567/irbridge-core/internal/learning"
)

// startLearningRequest is the body for POST /devices/{id}/learn.
// TimeoutSeconds of zero selects the configured default.
type startLearningRequest struct {
	Category       string `json:"category"`
	Name           string `json:"name"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// saveLearnedRequest is the body for POST /sessions/{sessionID}/save.
// Category and name override the session's original targets when set.
type saveLearnedRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// handleStartLearning arms a capture session for a device.
func (s *Server) handleStartLearning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req startLearningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second

	session, err := s.coord.StartLearning(id, ircode.Category(req.Category), req.Name, timeout)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// handleLearningStatus returns the device's active session, if one exists.
func (s *Server) handleLearningStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Confirm the device exists so an unknown ID is distinguishable from
	// a device that simply has no active session.
	if _, err := s.coord.GetDevice(id); err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := s.coord.ActiveLearning(id)
	if err != nil {
		if errors.Is(err, learning.ErrSessionNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"active": false})
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"active": true, "session": session})
}

// handleSessionStatus returns a session snapshot by ID.
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := s.coord.LearningStatus(sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// handleCancelLearning aborts an armed session.
func (s *Server) handleCancelLearning(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.coord.CancelLearning(sessionID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "session_id": sessionID})
}

// handleSaveLearned stores a succeeded session's captured code in the
// device library.
func (s *Server) handleSaveLearned(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req saveLearnedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	code, err := s.coord.SaveLearned(r.Context(), sessionID, ircode.Category(req.Category), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, code)
}

// handleDiscardSession drops a terminal session without saving anything.
func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.coord.DiscardSession(sessionID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded", "session_id": sessionID})
}
