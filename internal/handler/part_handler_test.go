package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/bitfantasy/parts-portal/internal/service"
	"github.com/bitfantasy/parts-portal/internal/testutil"
)

func setupPartTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	audit := service.NewAuditService(repos.Audit)
	partSvc := service.NewPartService(repos.Part, audit, nil)
	h := NewPartHandler(partSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/parts", h.List)
	api.POST("/parts", h.Create)
	api.GET("/parts/stats", h.Stats)
	api.GET("/parts/:id", h.Get)
	api.PUT("/parts/:id", h.Update)
	api.DELETE("/parts/:id", h.Delete)
	api.POST("/parts/:id/children", h.AddChild)
	api.PUT("/parts/:id/children/:cid", h.UpdateChild)
	api.DELETE("/parts/:id/children/:cid", h.DeleteChild)
	api.POST("/parts/:id/children/:cid/duplicate", h.DuplicateChild)
	api.GET("/search", h.Search)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestPartCreateAndScope(t *testing.T) {
	env := setupPartTest(t)
	supplierA := testutil.SupplierToken("supplier-a")
	supplierB := testutil.SupplierToken("supplier-b")

	body := map[string]interface{}{
		"sku":             "SKU-100",
		"name":            "Frame Assembly",
		"total_weight_kg": 10,
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts", body, supplierA)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.PartStatusIncomplete {
		t.Fatalf("expected incomplete status on creation, got %v", data["status"])
	}
	partID := data["id"].(string)

	// same sku for the same supplier is rejected
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts", body, supplierA)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate sku, got %d: %s", w2.Code, w2.Body.String())
	}

	// same sku for a different supplier is fine
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts", body, supplierB)
	if w3.Code != http.StatusCreated {
		t.Fatalf("expected 201 for other supplier, got %d: %s", w3.Code, w3.Body.String())
	}

	// another supplier cannot see the part
	w4 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/parts/"+partID, nil, supplierB)
	if w4.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for out-of-scope part, got %d", w4.Code)
	}

	// an admin can
	w5 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/parts/"+partID, nil, testutil.AdminToken("admin-1"))
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", w5.Code, w5.Body.String())
	}
}

func TestChildLifecycleAndStatus(t *testing.T) {
	env := setupPartTest(t)
	token := testutil.SupplierToken("supplier-a")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts", map[string]interface{}{
		"sku":             "SKU-200",
		"name":            "Suspension Kit",
		"total_weight_kg": 10,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	partID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// a matching complete child completes the parent
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts/"+partID+"/children", map[string]interface{}{
		"identifier":        "COMP-001",
		"name":              "Shock Absorber",
		"country_of_origin": "Germany",
		"weight_kg":         10,
		"value_usd":         120,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["status"] != entity.PartStatusCompleted {
		t.Fatalf("expected completed, got %v", data["status"])
	}
	children := data["child_parts"].([]interface{})
	child := children[0].(map[string]interface{})
	if child["is_complete"] != true {
		t.Fatalf("expected complete child, got %v", child["is_complete"])
	}
	if lbs := child["weight_lbs"].(float64); lbs < 22.0 || lbs > 22.1 {
		t.Fatalf("expected derived weight_lbs around 22.05, got %v", lbs)
	}
	childID := child["id"].(string)

	// shrinking the child weight flags review
	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/parts/"+partID+"/children/"+childID, map[string]interface{}{
		"weight_kg": 5,
	}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if data3["status"] != entity.PartStatusNeedsReview {
		t.Fatalf("expected needs_review, got %v", data3["status"])
	}

	// duplicating suffixes identifier/name and forces the copy incomplete
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts/"+partID+"/children/"+childID+"/duplicate", nil, token)
	if w4.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w4.Code, w4.Body.String())
	}
	data4 := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	kids := data4["child_parts"].([]interface{})
	if len(kids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(kids))
	}
	var dup map[string]interface{}
	for _, k := range kids {
		m := k.(map[string]interface{})
		if m["id"].(string) != childID {
			dup = m
		}
	}
	if dup["identifier"] != "COMP-001_copy" {
		t.Fatalf("expected suffixed identifier, got %v", dup["identifier"])
	}
	if dup["name"] != "Shock Absorber (Copy)" {
		t.Fatalf("expected suffixed name, got %v", dup["name"])
	}
	if dup["is_complete"] != false {
		t.Fatal("expected duplicated child to be incomplete")
	}

	// the copy's audit entry records its provenance
	var dupLogs []entity.AuditLog
	env.DB.Where("entity_id = ? AND action = ?", dup["id"].(string), entity.AuditActionCreate).Find(&dupLogs)
	if len(dupLogs) != 1 {
		t.Fatalf("expected 1 create entry for the copy, got %d", len(dupLogs))
	}
	fc := dupLogs[0].FieldChanges[0]
	if fc.Field != "duplicated_from" || fc.Old != childID || fc.New != dup["id"].(string) {
		t.Fatalf("expected duplicated_from %s -> %s, got %+v", childID, dup["id"], fc)
	}

	// deleting both children returns the parent to incomplete
	testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/parts/"+partID+"/children/"+dup["id"].(string), nil, token)
	w5 := testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/parts/"+partID+"/children/"+childID, nil, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	data5 := testutil.ParseResponse(w5)["data"].(map[string]interface{})
	if data5["status"] != entity.PartStatusIncomplete {
		t.Fatalf("expected incomplete after removing children, got %v", data5["status"])
	}
}

func TestChildMutationTouchesParent(t *testing.T) {
	env := setupPartTest(t)
	token := testutil.SupplierToken("supplier-a")

	stale := time.Now().Add(-48 * time.Hour)
	testutil.SeedTestPart(t, env.DB, &entity.ParentPart{
		ID: "part-old", SKU: "SKU-OLD", SupplierID: "supplier-a", Name: "Axle",
		CreatedAt: stale, UpdatedAt: stale,
	})

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts/part-old/children", map[string]interface{}{
		"identifier": "COMP-OLD",
		"name":       "Bearing",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var part entity.ParentPart
	env.DB.Where("id = ?", "part-old").First(&part)
	if !part.UpdatedAt.After(stale.Add(time.Hour)) {
		t.Fatalf("expected child mutation to bump parent updated_at, still %v", part.UpdatedAt)
	}
}

func TestPartUpdateAuditEntries(t *testing.T) {
	env := setupPartTest(t)
	token := testutil.SupplierToken("supplier-a")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/parts", map[string]interface{}{
		"sku":  "SKU-300",
		"name": "Wheel Hub",
	}, token)
	partID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	var before int64
	env.DB.Model(&entity.AuditLog{}).Count(&before)

	// no-op update writes no audit entry
	w2 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/parts/"+partID, map[string]interface{}{
		"name": "Wheel Hub",
	}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	var after int64
	env.DB.Model(&entity.AuditLog{}).Count(&after)
	if after != before {
		t.Fatalf("expected no audit entry for no-op update, got %d new", after-before)
	}

	// a real change writes exactly one entry carrying both changed fields
	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/parts/"+partID, map[string]interface{}{
		"name":            "Wheel Hub v2",
		"total_value_usd": 99.5,
	}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	var logs []entity.AuditLog
	env.DB.Where("entity_type = ? AND action = ?", entity.EntityTypeParentPart, entity.AuditActionUpdate).Find(&logs)
	if len(logs) != 1 {
		t.Fatalf("expected 1 update entry, got %d", len(logs))
	}
	if len(logs[0].FieldChanges) != 2 {
		t.Fatalf("expected 2 field changes in one entry, got %d", len(logs[0].FieldChanges))
	}
}

func TestPartStatsAndSearch(t *testing.T) {
	env := setupPartTest(t)
	tokenA := testutil.SupplierToken("supplier-a")
	tokenB := testutil.SupplierToken("supplier-b")

	testutil.SeedTestPart(t, env.DB, &entity.ParentPart{
		ID: "part-a1", SKU: "SKU-A1", SupplierID: "supplier-a", Name: "Alpha Bracket",
		Status: entity.PartStatusCompleted,
	})
	testutil.SeedTestPart(t, env.DB, &entity.ParentPart{
		ID: "part-a2", SKU: "SKU-A2", SupplierID: "supplier-a", Name: "Beta Mount",
		Status: entity.PartStatusIncomplete,
	})
	testutil.SeedTestPart(t, env.DB, &entity.ParentPart{
		ID: "part-b1", SKU: "SKU-B1", SupplierID: "supplier-b", Name: "Alpha Bracket B",
		Status: entity.PartStatusNeedsReview,
	})

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/parts/stats", nil, tokenA)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stats := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if stats["total"].(float64) != 2 {
		t.Fatalf("expected 2 parts for supplier-a, got %v", stats["total"])
	}
	if stats["completed"].(float64) != 1 || stats["incomplete"].(float64) != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	// admin sees everything
	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/parts/stats", nil, testutil.AdminToken("admin-1"))
	stats2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if stats2["total"].(float64) != 3 {
		t.Fatalf("expected 3 parts for admin, got %v", stats2["total"])
	}

	// search stays owner-scoped
	w3 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/search?q=Alpha", nil, tokenA)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	results := testutil.ParseResponse(w3)["data"].([]interface{})
	if len(results) != 1 {
		t.Fatalf("expected 1 search hit for supplier-a, got %d", len(results))
	}

	w4 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/search?q=Alpha", nil, tokenB)
	results4 := testutil.ParseResponse(w4)["data"].([]interface{})
	if len(results4) != 1 {
		t.Fatalf("expected 1 search hit for supplier-b, got %d", len(results4))
	}
}
