package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/parts-portal/internal/middleware"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/bitfantasy/parts-portal/internal/testutil"
)

func setupAuditHandlerTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	h := NewAuditHandler(service.NewAuditService(repos.Audit))

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	admin := api.Group("", middleware.RequireAdmin())
	admin.GET("/audit-logs", h.List)
	admin.GET("/audit-logs/export", h.Export)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestAuditLogsBadDateFilter(t *testing.T) {
	env := setupAuditHandlerTest(t)
	admin := testutil.AdminToken("admin-1")

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/audit-logs?start_date=03-10-2026", nil, admin)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed start_date, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/audit-logs/export?end_date=bogus", nil, admin)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed end_date, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/audit-logs?start_date=2026-03-10", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid filter, got %d: %s", w.Code, w.Body.String())
	}
}
