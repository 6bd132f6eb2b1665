package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"networth/internal/middleware/trace"
	"networth/internal/services"
	"networth/internal/storage/memory"
	"networth/internal/viewstate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	entries := services.NewEntryService(store, nil)
	srv := NewServer(":0", Deps{
		Entries:  entries,
		Goals:    services.NewGoalService(store, store, nil, 3),
		Reports:  services.NewReportService(store),
		Store:    store,
		Currency: "EUR",
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderClientID, "tester")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr.Header().Get(trace.HeaderRequestID) == "" {
		t.Error("missing request id header")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status=%d body=%s", rr.Code, rr.Body.String())
	}
	ready := decode[map[string]any](t, rr)
	if ready["status"] != "ready" {
		t.Errorf("status = %v", ready["status"])
	}
}

func TestReadyWithoutServices(t *testing.T) {
	srv := NewServer(":0", Deps{})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestEntryLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/entries", `{"date":"2024-01-01","class":"asset","subcategory":"Cash","value":1000}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[map[string]any](t, rr)
	id := int64(created["id"].(float64))
	if created["value"] != 1000.0 {
		t.Errorf("value = %v", created["value"])
	}

	rr = do(t, srv, http.MethodPost, "/api/entries", `{"date":"2024-01-02","class":"liability","subcategory":"Student Loans","value":"200"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create liability status=%d body=%s", rr.Code, rr.Body.String())
	}

	path := fmt.Sprintf("/api/entries/%d", id)
	rr = do(t, srv, http.MethodPut, path, `{"value":1500,"date":"2024-01-03"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	rec := decode[map[string]any](t, rr)
	if rec["difference"] != 500.0 {
		t.Errorf("difference = %v", rec["difference"])
	}

	rr = do(t, srv, http.MethodGet, path+"/history", "")
	if hist := decode[[]map[string]any](t, rr); len(hist) != 2 {
		t.Fatalf("history len = %d", len(hist))
	}

	rr = do(t, srv, http.MethodGet, "/api/series", "")
	points := decode[[]map[string]any](t, rr)
	if len(points) != 3 {
		t.Fatalf("series len = %d", len(points))
	}
	if points[2]["net_worth"] != 1300.0 {
		t.Errorf("last net worth = %v", points[2]["net_worth"])
	}

	rr = do(t, srv, http.MethodGet, "/api/entries?class=liabilities", "")
	if list := decode[[]map[string]any](t, rr); len(list) != 1 {
		t.Errorf("filtered list len = %d", len(list))
	}

	rr = do(t, srv, http.MethodDelete, path, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, path, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("second delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, path, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/history", "")
	if hist := decode[[]map[string]any](t, rr); len(hist) != 1 {
		t.Errorf("history after delete len = %d", len(hist))
	}
}

func TestEntryErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"wrong class subcategory", http.MethodPost, "/api/entries", `{"class":"asset","subcategory":"Salary","value":1}`, http.StatusUnprocessableEntity},
		{"negative value", http.MethodPost, "/api/entries", `{"class":"asset","subcategory":"Cash","value":-5}`, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/api/entries", `{"class":`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/entries/99", `{"value":1}`, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/entries/abc", "", http.StatusUnprocessableEntity},
		{"bad class filter", http.MethodGet, "/api/entries?class=equity", "", http.StatusUnprocessableEntity},
		{"wrong method", http.MethodPatch, "/api/entries/1", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body.String())
			}
		})
	}
}

func TestGoalsAndDashboard(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/entries", `{"date":"2024-01-01","class":"asset","subcategory":"Cash","value":1000}`)

	for i := 0; i < 3; i++ {
		rr := do(t, srv, http.MethodPost, "/api/goals", `{"type":"asset","subcategory":"Cash","target_amount":2000}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("goal %d status=%d body=%s", i, rr.Code, rr.Body.String())
		}
		if g := decode[map[string]any](t, rr); g["progress"] != 1000.0 {
			t.Errorf("progress = %v", g["progress"])
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/goals", `{"type":"net-worth","target_amount":1}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("fourth goal status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	dash := decode[dashboard](t, rr)
	if dash.Totals.NetWorth.Cents != 100000 || len(dash.Goals) != 3 || dash.GoalLimit != 3 {
		t.Errorf("unexpected dashboard %+v", dash)
	}
	if dash.Display.NetWorth == "" {
		t.Error("missing display string")
	}

	rr = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/goals/%d", dash.Goals[0].ID), "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete goal status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/goals", "")
	if goals := decode[[]map[string]any](t, rr); len(goals) != 2 {
		t.Errorf("goals len = %d", len(goals))
	}
}

func TestAnalyticsAndCategories(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/entries", `{"date":"2024-01-01","class":"asset","subcategory":"Cash","value":1000}`)
	do(t, srv, http.MethodPost, "/api/entries", `{"date":"2024-01-01","class":"liability","subcategory":"Mortgage","value":250}`)

	rr := do(t, srv, http.MethodGet, "/api/analytics", "")
	a := decode[map[string]any](t, rr)
	if a["debt_to_asset_ratio"] != "0.25" {
		t.Errorf("ratio = %v", a["debt_to_asset_ratio"])
	}

	rr = do(t, srv, http.MethodGet, "/api/categories", "")
	cats := decode[map[string][]string](t, rr)
	if len(cats["cash-flow"]) == 0 {
		t.Errorf("categories = %v", cats)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/entries", `{"date":"2024-01-01","class":"asset","subcategory":"Cash","value":1000}`)

	rr := do(t, srv, http.MethodGet, "/api/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "entries.csv") {
		t.Errorf("disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	rows, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[1][3] != "Cash" {
		t.Errorf("rows = %v", rows)
	}

	rr = do(t, srv, http.MethodGet, "/api/export?format=pdf", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unsupported format status=%d", rr.Code)
	}
}

func TestViewStateIsPerClientAndForgottenOnDelete(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/entries", `{"date":"2024-01-01","class":"asset","subcategory":"Cash","value":1}`)
	id := int64(decode[map[string]any](t, rr)["id"].(float64))
	viewPath := fmt.Sprintf("/api/view/%d", id)

	rr = do(t, srv, http.MethodPut, viewPath, `{"expanded":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("set view status=%d", rr.Code)
	}
	if f := decode[viewstate.Flags](t, do(t, srv, http.MethodGet, viewPath, "")); !f.Expanded {
		t.Error("expanded flag not stored")
	}

	other := httptest.NewRequest(http.MethodGet, viewPath, nil)
	other.Header.Set(HeaderClientID, "someone-else")
	orr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(orr, other)
	if f := decode[viewstate.Flags](t, orr); f.Expanded {
		t.Error("view state leaked across clients")
	}

	do(t, srv, http.MethodDelete, fmt.Sprintf("/api/entries/%d", id), "")
	if f := decode[viewstate.Flags](t, do(t, srv, http.MethodGet, viewPath, "")); f.Expanded {
		t.Error("view state survived entry deletion")
	}
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/entries?f=../../etc/passwd", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}
