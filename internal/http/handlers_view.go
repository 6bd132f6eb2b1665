package http

import (
	"encoding/json"
	"net/http"

	"networth/internal/viewstate"
)

// handleGetView returns the caller's expanded/editing flags for an entry.
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(s.views.Get(clientID(r), id)).Write(w)
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	var f viewstate.Flags
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&f); err != nil {
		BadRequestError("invalid JSON body").Write(w)
		return
	}
	s.views.Set(clientID(r), id, f)
	NewJSONResponse().Body(f).Write(w)
}
