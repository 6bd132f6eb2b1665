package http

import (
	"net/http"

	"networth/internal/core"
	applog "networth/internal/log"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	class, err := ParseClassQuery(r.URL.Query())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	entries, err := s.deps.Entries.List(r.Context(), class)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	NewJSONResponse().Body(entries).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := ParseEntryInput(p, s.now())
	if err != nil {
		FromError(err).Write(w)
		return
	}

	e, err := s.deps.Entries.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentEntries).InfoContext(r.Context(), "Entry created",
		applog.NewFields().WithOperation(applog.OpCreate).WithEntry(e.ID, string(e.Class), e.Subcategory, e.Value.Cents).ToSlice()...)
	NewJSONResponse().Status(http.StatusCreated).Body(e).Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	e, err := s.deps.Entries.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	current, err := s.deps.Entries.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	change, err := ParseEntryChange(p, current, s.now())
	if err != nil {
		FromError(err).Write(w)
		return
	}

	rec, err := s.deps.Entries.Update(r.Context(), id, change.Value, change.Description, change.Date)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentEntries).InfoContext(r.Context(), "Entry updated",
		applog.FieldEntryID, id, applog.FieldDiffCents, rec.Difference.Cents)
	NewJSONResponse().Body(rec).Write(w)
}

// handleDeleteEntry is idempotent: unknown ids also answer 204.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if err := s.deps.Entries.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.views.Forget(id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleEntryHistory(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	recs, err := s.deps.Entries.History(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	if recs == nil {
		recs = []core.HistoryRecord{}
	}
	NewJSONResponse().Body(recs).Write(w)
}

func (s *Server) handleAllHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.deps.Entries.AllHistory(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if recs == nil {
		recs = []core.HistoryRecord{}
	}
	NewJSONResponse().Body(recs).Write(w)
}

// writeError logs unexpected failures and writes the mapped response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if StatusFor(err) == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	}
	FromError(err).Write(w)
}
