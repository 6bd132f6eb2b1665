package http

import (
	"net/http"

	"networth/internal/core"
	"networth/internal/export"
	applog "networth/internal/log"
	"networth/internal/series"
)

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	points, err := s.deps.Reports.BuildSeries(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	if points == nil {
		points = series.Series{}
	}
	NewJSONResponse().Body(points).Write(w)
}

type displayTotals struct {
	Assets      string `json:"assets"`
	Liabilities string `json:"liabilities"`
	CashFlow    string `json:"cash_flow"`
	NetWorth    string `json:"net_worth"`
}

type dashboard struct {
	Currency  string        `json:"currency"`
	Totals    core.Totals   `json:"totals"`
	Display   displayTotals `json:"display"`
	Goals     []core.Goal   `json:"goals"`
	GoalLimit int           `json:"goal_limit"`
}

// handleDashboard combines current totals with the goal list.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	totals, err := s.deps.Reports.Totals(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	goals, err := s.deps.Goals.ListGoals(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}

	cur := s.deps.Currency
	NewJSONResponse().Body(dashboard{
		Currency: cur,
		Totals:   totals,
		Display: displayTotals{
			Assets:      totals.Assets.Display(cur),
			Liabilities: totals.Liabilities.Display(cur),
			CashFlow:    totals.CashFlow.Display(cur),
			NetWorth:    totals.NetWorth.Display(cur),
		},
		Goals:     goals,
		GoalLimit: s.deps.Goals.Limit(),
	}).Write(w)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Reports.Analytics(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(a).Write(w)
}

// handleExport streams every entry as a download in ?format= (csv by default).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	entries, err := s.deps.Entries.List(r.Context(), "")
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename("entries")+`"`)
	if err := export.Write(w, format, entries); err != nil {
		// Headers are already sent; only log.
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			applog.NewFields().WithOperation(applog.OpExport).WithError(err).ToSlice()...)
	}
}
