package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ErrBadDateFilter malformed start_date or end_date query value
var ErrBadDateFilter = errors.New("invalid date filter")

const (
	// listLimitDefault and listLimitMax bound the list endpoint only
	listLimitDefault = 100
	listLimitMax     = 1000
	// exportLimit bounds a workbook export
	exportLimit = 100000
)

// AuditService append-only change journal
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates an audit service
func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record appends one entry for a mutating call. The write is synchronous: an
// insert failure fails the caller's request.
func (s *AuditService) Record(ctx context.Context, actor Actor, action, entityType, entityID, supplierID string, changes []entity.FieldChange) error {
	log := &entity.AuditLog{
		ID:           generateID(),
		UserID:       actor.UserID,
		UserEmail:    actor.Email,
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		FieldChanges: changes,
		SupplierID:   supplierID,
		Timestamp:    time.Now(),
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// AuditQuery filter parameters for log listing and export
type AuditQuery struct {
	SupplierID string
	EntityType string
	StartDate  string
	EndDate    string
	Limit      int
}

func (q AuditQuery) toFilter() (repository.AuditFilter, error) {
	filter := repository.AuditFilter{
		SupplierID: q.SupplierID,
		EntityType: q.EntityType,
		Limit:      q.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = listLimitDefault
	}
	if filter.Limit > listLimitMax {
		filter.Limit = listLimitMax
	}
	if q.StartDate != "" {
		start, err := time.Parse("2006-01-02", q.StartDate)
		if err != nil {
			return filter, fmt.Errorf("%w: start_date %q", ErrBadDateFilter, q.StartDate)
		}
		filter.Start = &start
	}
	if q.EndDate != "" {
		end, err := time.Parse("2006-01-02", q.EndDate)
		if err != nil {
			return filter, fmt.Errorf("%w: end_date %q", ErrBadDateFilter, q.EndDate)
		}
		// inclusive through the end of the day
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.End = &end
	}
	return filter, nil
}

// List returns matching entries, newest first
func (s *AuditService) List(ctx context.Context, query AuditQuery) ([]entity.AuditLog, error) {
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// Export writes matching entries to an xlsx workbook. The list limit does not
// apply here: the export carries the full filtered set.
func (s *AuditService) Export(ctx context.Context, query AuditQuery) (*bytes.Buffer, error) {
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}
	filter.Limit = exportLimit
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Audit Logs"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Timestamp", "User Email", "Action", "Entity Type", "Entity ID", "Supplier ID", "Changes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, log := range logs {
		changes, _ := json.Marshal(log.FieldChanges)
		values := []interface{}{
			log.Timestamp.Format(time.RFC3339),
			log.UserEmail,
			log.Action,
			log.EntityType,
			log.EntityID,
			log.SupplierID,
			string(changes),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
