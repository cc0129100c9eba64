package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-panels/internal/panel"
	"github.com/nerrad567/gray-logic-panels/internal/protocol"
)

type setPageRequest struct {
	Command string `json:"command"`
}

type setBrightnessRequest struct {
	Value *float64 `json:"value"`
}

type gestureRequest struct {
	Value *bool `json:"value,omitempty"`
}

// handleListPanels returns a snapshot of every configured panel.
func (s *Server) handleListPanels(w http.ResponseWriter, _ *http.Request) {
	controllers := s.panels.List()
	snapshots := make([]panel.Snapshot, 0, len(controllers))
	for _, c := range controllers {
		snapshots = append(snapshots, c.Snapshot())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"panels": snapshots,
		"count":  len(snapshots),
	})
}

// handleGetPanel returns one panel snapshot.
func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	c, err := s.panels.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err, "get panel")
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// handleSetPage sends a page command. Firmware without paging yields 409.
func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	c, err := s.panels.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err, "set page")
		return
	}

	var req setPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	ctx := r.Context()
	if err := s.onLoop(ctx, func() error { return c.SetPage(ctx, req.Command) }); err != nil {
		s.writeDomainError(w, err, "set page")
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// handleSetBrightness sets one backlight channel from a 0..1 value.
func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	c, err := s.panels.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err, "set brightness")
		return
	}

	var req setBrightnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil || *req.Value < 0 || *req.Value > 1 {
		writeBadRequest(w, "value must be between 0 and 1")
		return
	}

	ch := protocol.Channel(chi.URLParam(r, "channel"))
	ctx := r.Context()
	if err := s.onLoop(ctx, func() error { return c.SetBrightness(ctx, ch, *req.Value) }); err != nil {
		s.writeDomainError(w, err, "set brightness")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInjectGesture runs a click, longpress or release as if it had come
// from the panel. An optional {"value": bool} body is passed as the
// explicit gesture payload.
func (s *Server) handleInjectGesture(w http.ResponseWriter, r *http.Request) {
	c, err := s.panels.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err, "inject gesture")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "button index must be an integer")
		return
	}
	kind, ok := protocol.ParseGesture(chi.URLParam(r, "gesture"))
	if !ok {
		writeBadRequest(w, "gesture must be click, longpress or release")
		return
	}

	var req gestureRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}
	var payload []byte
	if req.Value != nil {
		payload = protocol.EncodeBool(*req.Value)
	}

	ctx := r.Context()
	loopCtx := context.WithoutCancel(ctx)
	if err := s.onLoop(ctx, func() error { return c.HandleInboundEvent(loopCtx, kind, index, payload) }); err != nil {
		s.writeDomainError(w, err, "inject gesture")
		return
	}
	writeJSON(w, http.StatusAccepted, c.Snapshot())
}

// handleResyncPanel republishes every bound value to the panel.
func (s *Server) handleResyncPanel(w http.ResponseWriter, r *http.Request) {
	c, err := s.panels.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err, "resync panel")
		return
	}

	ctx := r.Context()
	loopCtx := context.WithoutCancel(ctx)
	if err := s.onLoop(ctx, func() error {
		c.Resync(loopCtx)
		return nil
	}); err != nil {
		s.writeDomainError(w, err, "resync panel")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
