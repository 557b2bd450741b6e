package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/bitfantasy/parts-portal/internal/testutil"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupExcelTest(t *testing.T) (*gorm.DB, *ExcelService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewExcelService(repos.Part, NewAuditService(repos.Audit))
	return db, svc
}

func supplierActor(id string) Actor {
	return Actor{UserID: id, Email: id + "@test.com", Role: entity.RoleSupplier}
}

func TestTemplateHeader(t *testing.T) {
	_, svc := setupExcelTest(t)

	buf, err := svc.Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Parts Template")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus example row, got %d rows", len(rows))
	}
	if rows[0][0] != "parent_sku" || rows[0][len(templateColumns)-1] != "child_manufacturing_method" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "SKU-001" {
		t.Fatalf("expected example sku, got %v", rows[1][0])
	}
}

func TestImportCreatesPartsFromTemplate(t *testing.T) {
	db, svc := setupExcelTest(t)
	actor := supplierActor("supplier-a")

	buf, err := svc.Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}

	result, err := svc.Import(context.Background(), actor, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.CreatedParents != 1 || result.CreatedChildren != 1 {
		t.Fatalf("expected 1 parent and 1 child created, got %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	var part entity.ParentPart
	if err := db.Preload("ChildParts").Where("sku = ?", "SKU-001").First(&part).Error; err != nil {
		t.Fatalf("find imported part: %v", err)
	}
	if part.SupplierID != "supplier-a" {
		t.Fatalf("expected caller ownership, got %s", part.SupplierID)
	}
	if len(part.ChildParts) != 1 || part.ChildParts[0].Identifier != "COMP-001" {
		t.Fatalf("unexpected children: %+v", part.ChildParts)
	}
	if !part.ChildParts[0].IsComplete {
		t.Fatal("expected imported child to be complete")
	}

	// one batch audit entry
	var count int64
	db.Model(&entity.AuditLog{}).Where("entity_type = ?", entity.EntityTypeBatchImport).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 import audit entry, got %d", count)
	}
}

// Importing an untouched export must apply nothing and count nothing.
func TestExportImportRoundTrip(t *testing.T) {
	db, svc := setupExcelTest(t)
	actor := supplierActor("supplier-a")

	testutil.SeedTestPart(t, db, &entity.ParentPart{
		ID: "part-r1", SKU: "SKU-R1", SupplierID: "supplier-a", Name: "Frame",
		Description: "Main frame", CountryOfOrigin: "USA",
		TotalWeightKg: 10, TotalValueUSD: 250.5,
		Status: entity.PartStatusCompleted,
		ChildParts: []entity.ChildPart{{
			ID: "child-r1", Identifier: "COMP-R1", Name: "Tube",
			CountryOfOrigin: "USA", WeightKg: 10, WeightLbs: 22.0462, ValueUSD: 50,
			SteelContentPercent: 95, ManufacturingMethod: "Welded", IsComplete: true,
		}},
	})
	testutil.SeedTestPart(t, db, &entity.ParentPart{
		ID: "part-r2", SKU: "SKU-R2", SupplierID: "supplier-a", Name: "Childless",
		Status: entity.PartStatusIncomplete,
	})

	buf, err := svc.Export(context.Background(), actor)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	result, err := svc.Import(context.Background(), actor, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.CreatedParents != 0 || result.UpdatedParents != 0 ||
		result.CreatedChildren != 0 || result.UpdatedChildren != 0 {
		t.Fatalf("expected zero counts on round trip, got %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestImportAppliesOnlyChangedFields(t *testing.T) {
	db, svc := setupExcelTest(t)
	actor := supplierActor("supplier-a")

	testutil.SeedTestPart(t, db, &entity.ParentPart{
		ID: "part-u1", SKU: "SKU-U1", SupplierID: "supplier-a", Name: "Mount",
		TotalWeightKg: 5,
		Status:        entity.PartStatusIncomplete,
		ChildParts: []entity.ChildPart{{
			ID: "child-u1", Identifier: "COMP-U1", Name: "Bolt",
			CountryOfOrigin: "USA", WeightKg: 5, WeightLbs: 11.0231, ValueUSD: 2,
			IsComplete: true,
		}},
	})

	f := excelize.NewFile()
	sheet := "Sheet1"
	headers := []string{"parent_sku", "parent_name", "child_identifier", "child_value_usd"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	values := []interface{}{"SKU-U1", "Mount", "COMP-U1", 3.5}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, v)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f.Close()

	result, err := svc.Import(context.Background(), actor, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	// parent_name matched the stored value, so only the child counts
	if result.UpdatedParents != 0 {
		t.Fatalf("expected no parent update for unchanged name, got %+v", result)
	}
	if result.UpdatedChildren != 1 {
		t.Fatalf("expected 1 child update, got %+v", result)
	}

	var child entity.ChildPart
	if err := db.Where("id = ?", "child-u1").First(&child).Error; err != nil {
		t.Fatalf("find child: %v", err)
	}
	if child.ValueUSD != 3.5 {
		t.Fatalf("expected value 3.5, got %v", child.ValueUSD)
	}
}

func TestImportMissingSKUColumn(t *testing.T) {
	_, svc := setupExcelTest(t)

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "parent_name")
	buf, _ := f.WriteToBuffer()
	f.Close()

	_, err := svc.Import(context.Background(), supplierActor("supplier-a"), bytes.NewReader(buf.Bytes()))
	if err != ErrMissingSKUColumn {
		t.Fatalf("expected ErrMissingSKUColumn, got %v", err)
	}
}
