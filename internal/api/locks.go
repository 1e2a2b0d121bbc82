package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// acquireLockRequest is the body of POST .../locks.
type acquireLockRequest struct {
	TTLSeconds int64 `json:"ttl_seconds" validate:"required,gte=1"`
}

// handleGetLock reports whether the entity is locked, without the token.
func (s *Server) handleGetLock(w http.ResponseWriter, r *http.Request) {
	info, ok, err := s.engine.Locks().Get(chi.URLParam(r, "entity"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"locked": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locked": true, "lock": info})
}

// handleAcquireLock grants a new lease, replacing any existing one. The
// response is the only place the token is ever returned.
func (s *Server) handleAcquireLock(w http.ResponseWriter, r *http.Request) {
	var req acquireLockRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	lease, err := s.engine.Locks().AcquireSeconds(chi.URLParam(r, "entity"), req.TTLSeconds)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lease)
}

// handleReleaseLock drops the lease held by the X-Lock-Token.
func (s *Server) handleReleaseLock(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Locks().Release(chi.URLParam(r, "entity"), lockToken(r)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
