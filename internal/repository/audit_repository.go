package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"gorm.io/gorm"
)

// AuditRepository append-only storage for audit log entries
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates an audit repository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilter narrows an audit query; zero values are ignored
type AuditFilter struct {
	SupplierID string
	EntityType string
	Start      *time.Time
	End        *time.Time
	Limit      int
}

// Create appends an audit entry
func (r *AuditRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// List returns matching entries, newest first
func (r *AuditRepository) List(ctx context.Context, filter AuditFilter) ([]entity.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&entity.AuditLog{})
	if filter.SupplierID != "" {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Start != nil {
		query = query.Where("timestamp >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("timestamp <= ?", *filter.End)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var logs []entity.AuditLog
	err := query.Order("timestamp DESC").Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
