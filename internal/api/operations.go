package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// startOperationRequest is the optional body of POST .../operations/{name}.
type startOperationRequest struct {
	Parameters map[string]any `json:"parameters"`
}

// handleListOperations returns the operations an entity offers and every
// execution started on it.
func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entity")

	defs, err := s.engine.Operations().Definitions(entityID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	runs, err := s.engine.Operations().List(entityID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"definitions": defs,
		"executions":  runs,
	})
}

// handleStartOperation starts an operation; it runs in the background.
func (s *Server) handleStartOperation(w http.ResponseWriter, r *http.Request) {
	var req startOperationRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeDecodeError(w, err)
		return
	}

	op, err := s.engine.Operations().Start(
		chi.URLParam(r, "entity"),
		chi.URLParam(r, "name"),
		req.Parameters,
		lockToken(r),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/operations/"+strconv.FormatInt(op.ID, 10))
	writeJSON(w, http.StatusAccepted, op)
}

// handleGetOperation returns one execution.
func (s *Server) handleGetOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := operationID(w, r)
	if !ok {
		return
	}
	op, err := s.engine.Operations().Get(id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// handleStopOperation stops a running execution. Stopping a finished one
// returns it unchanged.
func (s *Server) handleStopOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := operationID(w, r)
	if !ok {
		return
	}
	op, err := s.engine.Operations().Stop(id, lockToken(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func operationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "operation id must be a positive integer")
		return 0, false
	}
	return id, true
}
