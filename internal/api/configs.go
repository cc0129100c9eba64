package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-panels/internal/binding"
)

// configID parses the {id} path parameter.
func configID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// handleListButtonConfigs returns every button configuration.
func (s *Server) handleListButtonConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.bindings.ListButtonConfigs(r.Context())
	if err != nil {
		s.writeDomainError(w, err, "list button configs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": configs, "count": len(configs)})
}

// handleGetButtonConfig returns one button configuration.
func (s *Server) handleGetButtonConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(r)
	if !ok {
		writeBadRequest(w, "config id must be a positive integer")
		return
	}
	c, err := s.bindings.GetButtonConfig(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err, "get button config")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handlePutButtonConfig creates or replaces a button configuration and
// rewires every panel to the new bindings.
func (s *Server) handlePutButtonConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(r)
	if !ok {
		writeBadRequest(w, "config id must be a positive integer")
		return
	}

	var c binding.ButtonConfig
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	c.ID = id

	if err := s.resolver.SaveButtonConfig(r.Context(), &c); err != nil {
		s.writeDomainError(w, err, "save button config")
		return
	}
	s.respondRewired(r.Context(), w, &c)
}

// handleListDisplayConfigs returns every display configuration.
func (s *Server) handleListDisplayConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.bindings.ListDisplayConfigs(r.Context())
	if err != nil {
		s.writeDomainError(w, err, "list display configs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": configs, "count": len(configs)})
}

// handleGetDisplayConfig returns one display configuration.
func (s *Server) handleGetDisplayConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(r)
	if !ok {
		writeBadRequest(w, "config id must be a positive integer")
		return
	}
	c, err := s.bindings.GetDisplayConfig(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err, "get display config")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handlePutDisplayConfig creates or replaces a display configuration.
func (s *Server) handlePutDisplayConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(r)
	if !ok {
		writeBadRequest(w, "config id must be a positive integer")
		return
	}

	var c binding.DisplayConfig
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	c.ID = id

	if err := s.resolver.SaveDisplayConfig(r.Context(), &c); err != nil {
		s.writeDomainError(w, err, "save display config")
		return
	}
	s.respondRewired(r.Context(), w, &c)
}

// respondRewired registers any newly bound pairs and resyncs all panels
// before answering. Pairs that could not be registered are reported as
// warnings; the configuration itself is already saved. The rewire still
// runs when the loop picks it up after the request has given up.
func (s *Server) respondRewired(ctx context.Context, w http.ResponseWriter, saved any) {
	loopCtx := context.WithoutCancel(ctx)
	var wireErr error
	err := s.onLoop(ctx, func() error {
		wireErr = s.panels.Wire(loopCtx, s.dispatcher)
		s.panels.ResyncAll(loopCtx)
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err, "rewire panels")
		return
	}

	resp := map[string]any{"config": saved}
	if wireErr != nil {
		resp["warnings"] = wireErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
