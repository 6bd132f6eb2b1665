package http

import (
	"net/http"

	"networth/internal/core"
	applog "networth/internal/log"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.ListGoals(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	NewJSONResponse().Body(goals).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := ParseGoalInput(p)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	g, err := s.deps.Goals.SetGoal(r.Context(), in.Type, in.Subcategory, in.Target)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentGoals).InfoContext(r.Context(), "Goal set",
		applog.FieldGoalType, string(g.Type), applog.FieldSubcategory, g.Subcategory)
	NewJSONResponse().Status(http.StatusCreated).Body(g).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if err := s.deps.Goals.DeleteGoal(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
