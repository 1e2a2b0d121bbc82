package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sovd-sim/internal/mode"
)

// setModeRequest is the body of PUT .../modes.
type setModeRequest struct {
	Value string `json:"value" validate:"required"`
}

// handleGetMode returns the entity's current and supported modes.
func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Modes().Get(chi.URLParam(r, "entity"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleSetMode changes the vehicle mode.
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entity")

	var req setModeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := s.engine.Modes().Set(entityID, mode.Mode(req.Value), lockToken(r)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.handleGetMode(w, r)
}
