package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/irbridge-core/internal/device"
)

// createDeviceRequest is the body for POST /devices. SeedBuiltins loads
// the factory command set into the new device's library.
type createDeviceRequest struct {
	Name            string   `json:"name"`
	Topic           string   `json:"topic"`
	Manufacturer    string   `json:"manufacturer"`
	SupportedModels []string `json:"supported_models"`
	Controller      string   `json:"controller"`
	SeedBuiltins    bool     `json:"seed_builtins"`
}

// handleListDevices returns all devices.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.coord.ListDevices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.coord.GetDevice(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice creates a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	created, err := s.coord.CreateDevice(r.Context(), &device.Device{
		Name:            req.Name,
		Topic:           req.Topic,
		Manufacturer:    req.Manufacturer,
		SupportedModels: req.SupportedModels,
		Controller:      req.Controller,
	}, req.SeedBuiltins)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateDevice partially updates a device.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.coord.GetDevice(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Decode partial update onto the existing device
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	existing.ID = id // Ensure ID cannot be changed

	updated, err := s.coord.UpdateDevice(r.Context(), existing)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteDevice removes a device and its command library.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.coord.RemoveDevice(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
