package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListFaults returns the entity's fault memory. Listing may inject a
// new fault.
func (s *Server) handleListFaults(w http.ResponseWriter, r *http.Request) {
	faults, err := s.engine.Faults().List(chi.URLParam(r, "entity"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": faults})
}

// handleClearFaults empties the entity's fault memory.
func (s *Server) handleClearFaults(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Faults().Clear(chi.URLParam(r, "entity"), lockToken(r)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
