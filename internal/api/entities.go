package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListEntities returns every entity, root first.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	entities := s.engine.Registry().List()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entities,
		"count": len(entities),
	})
}

// handleGetEntity returns one entity.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine.Registry().Get(chi.URLParam(r, "entity"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
