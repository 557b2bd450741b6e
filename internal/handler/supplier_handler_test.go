package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bitfantasy/parts-portal/internal/middleware"
	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/bitfantasy/parts-portal/internal/testutil"
)

func setupSupplierTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	audit := service.NewAuditService(repos.Audit)
	h := NewSupplierHandler(service.NewSupplierService(repos.User, audit))

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	admin := api.Group("", middleware.RequireAdmin())
	admin.GET("/suppliers", h.List)
	admin.POST("/suppliers", h.Create)
	admin.PUT("/suppliers/:id", h.Update)
	admin.DELETE("/suppliers/:id", h.Delete)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestSupplierAdminOnly(t *testing.T) {
	env := setupSupplierTest(t)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/suppliers", nil, testutil.SupplierToken("supplier-a"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for supplier role, got %d", w.Code)
	}
}

func TestSupplierLifecycle(t *testing.T) {
	env := setupSupplierTest(t)
	admin := testutil.AdminToken("admin-1")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers", map[string]interface{}{
		"email":        "vendor@acme.example",
		"password":     "password123",
		"name":         "Acme Vendor",
		"company_name": "Acme Components",
	}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["role"] != entity.RoleSupplier {
		t.Fatalf("expected forced supplier role, got %v", data["role"])
	}
	supplierID := data["id"].(string)

	// duplicate email is rejected
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers", map[string]interface{}{
		"email":    "vendor@acme.example",
		"password": "password123",
		"name":     "Copycat",
	}, admin)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", w2.Code)
	}

	// list never exposes the password hash
	w3 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/suppliers", nil, admin)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	if strings.Contains(w3.Body.String(), "password_hash") {
		t.Fatal("password hash must not be serialized")
	}

	// partial update audits the changed fields
	w4 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/suppliers/"+supplierID, map[string]interface{}{
		"is_active": false,
	}, admin)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	data4 := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if data4["is_active"] != false {
		t.Fatalf("expected deactivated supplier, got %v", data4["is_active"])
	}

	var logs []entity.AuditLog
	env.DB.Where("entity_type = ? AND action = ?", entity.EntityTypeSupplier, entity.AuditActionUpdate).Find(&logs)
	if len(logs) != 1 {
		t.Fatalf("expected 1 update audit entry, got %d", len(logs))
	}
	if len(logs[0].FieldChanges) != 1 || logs[0].FieldChanges[0].Field != "is_active" {
		t.Fatalf("unexpected field changes: %+v", logs[0].FieldChanges)
	}

	// delete is audited too
	w5 := testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/suppliers/"+supplierID, nil, admin)
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	var count int64
	env.DB.Model(&entity.AuditLog{}).
		Where("entity_type = ? AND action = ?", entity.EntityTypeSupplier, entity.AuditActionDelete).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 delete audit entry, got %d", count)
	}
}
