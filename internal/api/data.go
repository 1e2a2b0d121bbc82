package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sovd-sim/internal/resource"
)

// writeDataRequest is the body of PUT/PATCH .../data/{name}. Value is kept
// raw so false, 0 and "" count as present.
type writeDataRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

// handleListData returns every data resource of an entity with its value.
func (s *Server) handleListData(w http.ResponseWriter, r *http.Request) {
	items, err := s.engine.Resources().List(chi.URLParam(r, "entity"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleReadData returns one data resource with its current value.
func (s *Server) handleReadData(w http.ResponseWriter, r *http.Request) {
	entityID, name := chi.URLParam(r, "entity"), chi.URLParam(r, "name")

	desc, err := s.engine.Resources().Describe(entityID, name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	value, err := s.engine.Resources().Read(entityID, name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resource.Resource{Descriptor: desc, Value: value})
}

// handleWriteData writes one data resource and returns the stored value.
func (s *Server) handleWriteData(w http.ResponseWriter, r *http.Request) {
	entityID, name := chi.URLParam(r, "entity"), chi.URLParam(r, "name")

	var req writeDataRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		writeBadRequest(w, "value is not valid JSON")
		return
	}

	res, err := s.engine.Resources().WriteResource(entityID, name, value, lockToken(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
