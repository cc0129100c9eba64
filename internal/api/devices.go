package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type setCapabilityRequest struct {
	Value any `json:"value"`
}

// handleListDevices returns all devices in the graph.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		s.writeDomainError(w, err, "list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns one device with its current state.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err, "get device")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleSetCapability writes one setable capability. Bound panels are
// updated through the dispatcher like any other change.
func (s *Server) handleSetCapability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	var req setCapabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.SetCapabilityValue(r.Context(), id, name, req.Value); err != nil {
		s.writeDomainError(w, err, "set capability")
		return
	}

	c, err := s.registry.GetCapability(r.Context(), id, name)
	if err != nil {
		s.writeDomainError(w, err, "set capability")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
