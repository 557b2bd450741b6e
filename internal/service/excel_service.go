package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ErrMissingSKUColumn workbook lacks the grouping column
var ErrMissingSKUColumn = errors.New("missing 'parent_sku' column")

// templateColumns fixed import schema, in column order
var templateColumns = []string{
	"parent_sku", "parent_name", "parent_description", "parent_country_of_origin",
	"parent_total_weight_kg", "parent_total_value_usd",
	"child_identifier", "child_name", "child_description", "child_country_of_origin",
	"child_weight_kg", "child_value_usd", "child_aluminum_percent", "child_steel_percent",
	"child_has_russian_content", "child_russian_percent", "child_russian_description",
	"child_manufacturing_method",
}

// exportColumns template schema plus the derived columns
var exportColumns = []string{
	"parent_sku", "parent_name", "parent_description", "parent_country_of_origin",
	"parent_total_weight_kg", "parent_total_value_usd", "parent_status",
	"child_identifier", "child_name", "child_description", "child_country_of_origin",
	"child_weight_kg", "child_weight_lbs", "child_value_usd",
	"child_aluminum_percent", "child_steel_percent",
	"child_has_russian_content", "child_russian_percent", "child_russian_description",
	"child_manufacturing_method", "child_is_complete",
}

// ExcelService spreadsheet round-trip for the parts repository
type ExcelService struct {
	partRepo *repository.PartRepository
	audit    *AuditService
}

// NewExcelService creates an excel service
func NewExcelService(partRepo *repository.PartRepository, audit *AuditService) *ExcelService {
	return &ExcelService{partRepo: partRepo, audit: audit}
}

// ImportResult batch outcome; counts cover only fields that actually changed,
// so importing an untouched export reports zeros.
type ImportResult struct {
	CreatedParents  int      `json:"created_parents"`
	UpdatedParents  int      `json:"updated_parents"`
	CreatedChildren int      `json:"created_children"`
	UpdatedChildren int      `json:"updated_children"`
	Errors          []string `json:"errors"`
}

// Template builds the import workbook: the fixed header row plus one example
func (s *ExcelService) Template() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Parts Template"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range templateColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
	}

	example := []interface{}{
		"SKU-001", "ATV Frame Assembly", "Main frame for ATV model X", "USA",
		25.5, 500.00,
		"COMP-001", "Steel Frame Tube", "Main structural tube", "USA",
		5.0, 50.00, 0, 95,
		false, 0, "",
		"Welded",
	}
	for i, v := range example {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, v)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Export flattens every parent×child pair into one row. A childless parent
// still emits a parent-only row.
func (s *ExcelService) Export(ctx context.Context, actor Actor) (*bytes.Buffer, error) {
	parts, err := s.partRepo.List(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Parts Export"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
	}

	row := 2
	writeRow := func(values []interface{}) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	for pi := range parts {
		part := &parts[pi]
		parentValues := []interface{}{
			part.SKU, part.Name, part.Description, part.CountryOfOrigin,
			part.TotalWeightKg, part.TotalValueUSD, part.Status,
		}
		if len(part.ChildParts) == 0 {
			writeRow(parentValues)
			continue
		}
		for ci := range part.ChildParts {
			child := &part.ChildParts[ci]
			values := append(append([]interface{}{}, parentValues...),
				child.Identifier, child.Name, child.Description, child.CountryOfOrigin,
				child.WeightKg, child.WeightLbs, child.ValueUSD,
				child.AluminumContentPercent, child.SteelContentPercent,
				child.HasRussianContent, child.RussianContentPercent, child.RussianContentDescription,
				child.ManufacturingMethod, child.IsComplete,
			)
			writeRow(values)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Import upserts parts grouped by parent_sku for the calling supplier.
// Per-SKU failures are collected without aborting or rolling back the rest
// of the batch.
func (s *ExcelService) Import(ctx context.Context, actor Actor, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingSKUColumn
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingSKUColumn
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns["parent_sku"]; !ok {
		return nil, ErrMissingSKUColumn
	}

	// group data rows by sku, preserving first-seen order
	var skus []string
	groups := make(map[string][]importRow)
	for _, raw := range rows[1:] {
		row := importRow{cells: raw, columns: columns}
		sku := row.str("parent_sku")
		if sku == "" {
			continue
		}
		if _, seen := groups[sku]; !seen {
			skus = append(skus, sku)
		}
		groups[sku] = append(groups[sku], row)
	}

	result := &ImportResult{Errors: []string{}}
	for _, sku := range skus {
		if err := s.importGroup(ctx, actor, sku, groups[sku], result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Error processing SKU %s: %v", sku, err))
		}
	}

	summary := fmt.Sprintf("Parents: %d created, %d updated. Children: %d created, %d updated.",
		result.CreatedParents, result.UpdatedParents, result.CreatedChildren, result.UpdatedChildren)
	changes := []entity.FieldChange{{Field: "import_results", New: summary}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionImport, entity.EntityTypeBatchImport, generateID(), actor.Scope(), changes); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ExcelService) importGroup(ctx context.Context, actor Actor, sku string, rows []importRow, result *ImportResult) error {
	supplierID := actor.UserID
	first := rows[0]

	part, err := s.partRepo.FindBySKU(ctx, sku, supplierID)
	switch {
	case err == nil:
		if s.applyParentRow(part, first) {
			part.UpdatedAt = time.Now()
			if err := s.partRepo.Save(ctx, part); err != nil {
				return fmt.Errorf("update part: %w", err)
			}
			result.UpdatedParents++
		}
	case errors.Is(err, repository.ErrNotFound):
		now := time.Now()
		part = &entity.ParentPart{
			ID:          generateID(),
			SKU:         sku,
			SupplierID:  supplierID,
			Name:        first.strDefault("parent_name", sku),
			Description: first.str("parent_description"),
			Status:      entity.PartStatusIncomplete,
			DocumentIDs: entity.StringArray{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		part.CountryOfOrigin = first.str("parent_country_of_origin")
		part.TotalWeightKg, _ = first.float("parent_total_weight_kg")
		part.TotalValueUSD, _ = first.float("parent_total_value_usd")
		if err := s.partRepo.Create(ctx, part); err != nil {
			return fmt.Errorf("create part: %w", err)
		}
		result.CreatedParents++
	default:
		return fmt.Errorf("find part by sku: %w", err)
	}

	children, err := s.partRepo.ListChildren(ctx, part.ID)
	if err != nil {
		return fmt.Errorf("list children: %w", err)
	}
	byIdentifier := make(map[string]*entity.ChildPart, len(children))
	for i := range children {
		byIdentifier[children[i].Identifier] = &children[i]
	}

	for _, row := range rows {
		identifier := row.str("child_identifier")
		if identifier == "" {
			continue
		}
		if child, ok := byIdentifier[identifier]; ok {
			if s.applyChildRow(child, row) {
				child.IsComplete = ChildComplete(child)
				child.UpdatedAt = time.Now()
				if err := s.partRepo.SaveChild(ctx, child); err != nil {
					return fmt.Errorf("update child: %w", err)
				}
				result.UpdatedChildren++
			}
		} else {
			now := time.Now()
			child := &entity.ChildPart{
				ID:           generateID(),
				ParentPartID: part.ID,
				Identifier:   identifier,
				Name:         row.strDefault("child_name", identifier),
				DocumentIDs:  entity.StringArray{},
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			child.Description = row.str("child_description")
			child.CountryOfOrigin = row.str("child_country_of_origin")
			child.WeightKg, _ = row.float("child_weight_kg")
			child.WeightLbs = KgToLbs(child.WeightKg)
			child.ValueUSD, _ = row.float("child_value_usd")
			child.AluminumContentPercent, _ = row.float("child_aluminum_percent")
			child.SteelContentPercent, _ = row.float("child_steel_percent")
			child.HasRussianContent, _ = row.boolean("child_has_russian_content")
			child.RussianContentPercent, _ = row.float("child_russian_percent")
			child.RussianContentDescription = row.str("child_russian_description")
			child.ManufacturingMethod = row.str("child_manufacturing_method")
			child.IsComplete = ChildComplete(child)
			if err := s.partRepo.CreateChild(ctx, child); err != nil {
				return fmt.Errorf("create child: %w", err)
			}
			byIdentifier[identifier] = child
			result.CreatedChildren++
		}
	}

	fresh, err := s.partRepo.FindByID(ctx, part.ID, "")
	if err != nil {
		return fmt.Errorf("find part: %w", err)
	}
	status := CalculatePartStatus(fresh, fresh.ChildParts)
	if status != fresh.Status {
		if err := s.partRepo.UpdateStatus(ctx, fresh.ID, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
	}
	return nil
}

// applyParentRow merges non-empty cells into the parent, reporting whether
// any value actually moved.
func (s *ExcelService) applyParentRow(part *entity.ParentPart, row importRow) bool {
	changed := false
	if v := row.str("parent_name"); v != "" && v != part.Name {
		part.Name = v
		changed = true
	}
	if v := row.str("parent_description"); v != "" && v != part.Description {
		part.Description = v
		changed = true
	}
	if v := row.str("parent_country_of_origin"); v != "" && v != part.CountryOfOrigin {
		part.CountryOfOrigin = v
		changed = true
	}
	if v, ok := row.float("parent_total_weight_kg"); ok && v != part.TotalWeightKg {
		part.TotalWeightKg = v
		changed = true
	}
	if v, ok := row.float("parent_total_value_usd"); ok && v != part.TotalValueUSD {
		part.TotalValueUSD = v
		changed = true
	}
	return changed
}

func (s *ExcelService) applyChildRow(child *entity.ChildPart, row importRow) bool {
	changed := false
	if v := row.str("child_name"); v != "" && v != child.Name {
		child.Name = v
		changed = true
	}
	if v := row.str("child_description"); v != "" && v != child.Description {
		child.Description = v
		changed = true
	}
	if v := row.str("child_country_of_origin"); v != "" && v != child.CountryOfOrigin {
		child.CountryOfOrigin = v
		changed = true
	}
	if v, ok := row.float("child_weight_kg"); ok && v != child.WeightKg {
		child.WeightKg = v
		child.WeightLbs = KgToLbs(v)
		changed = true
	}
	if v, ok := row.float("child_value_usd"); ok && v != child.ValueUSD {
		child.ValueUSD = v
		changed = true
	}
	if v, ok := row.float("child_aluminum_percent"); ok && v != child.AluminumContentPercent {
		child.AluminumContentPercent = v
		changed = true
	}
	if v, ok := row.float("child_steel_percent"); ok && v != child.SteelContentPercent {
		child.SteelContentPercent = v
		changed = true
	}
	if v, ok := row.boolean("child_has_russian_content"); ok && v != child.HasRussianContent {
		child.HasRussianContent = v
		changed = true
	}
	if v, ok := row.float("child_russian_percent"); ok && v != child.RussianContentPercent {
		child.RussianContentPercent = v
		changed = true
	}
	if v := row.str("child_russian_description"); v != "" && v != child.RussianContentDescription {
		child.RussianContentDescription = v
		changed = true
	}
	if v := row.str("child_manufacturing_method"); v != "" && v != child.ManufacturingMethod {
		child.ManufacturingMethod = v
		changed = true
	}
	return changed
}

// importRow one spreadsheet row addressed by column name
type importRow struct {
	cells   []string
	columns map[string]int
}

func (r importRow) str(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

func (r importRow) strDefault(column, fallback string) string {
	if v := r.str(column); v != "" {
		return v
	}
	return fallback
}

func (r importRow) float(column string) (float64, bool) {
	raw := r.str(column)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r importRow) boolean(column string) (bool, bool) {
	raw := strings.ToLower(r.str(column))
	switch raw {
	case "":
		return false, false
	case "true", "1", "yes":
		return true, true
	default:
		return false, true
	}
}
