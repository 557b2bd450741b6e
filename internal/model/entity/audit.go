package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FieldChange one changed field inside an audit entry
type FieldChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old,omitempty"`
	New   interface{} `json:"new,omitempty"`
}

// FieldChanges jsonb-stored list of field changes
type FieldChanges []FieldChange

func (f FieldChanges) Value() (driver.Value, error) {
	if f == nil {
		return json.Marshal([]FieldChange{})
	}
	return json.Marshal(f)
}

func (f *FieldChanges) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan FieldChanges: %v", value)
	}
	return json.Unmarshal(bytes, f)
}

// AuditLog immutable record of one mutating call. Append-only: the
// application exposes no update or delete path for this table.
type AuditLog struct {
	ID           string       `json:"id" gorm:"primaryKey;size:36"`
	UserID       string       `json:"user_id" gorm:"size:36;not null"`
	UserEmail    string       `json:"user_email" gorm:"size:256;not null"`
	Action       string       `json:"action" gorm:"size:16;not null"`
	EntityType   string       `json:"entity_type" gorm:"size:32;not null;index"`
	EntityID     string       `json:"entity_id" gorm:"size:36;not null"`
	FieldChanges FieldChanges `json:"field_changes" gorm:"type:jsonb"`
	SupplierID   string       `json:"supplier_id,omitempty" gorm:"size:36;index"`
	Timestamp    time.Time    `json:"timestamp" gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionImport = "import"
)

// Audited entity types
const (
	EntityTypeParentPart  = "parent_part"
	EntityTypeChildPart   = "child_part"
	EntityTypeDocument    = "document"
	EntityTypeSupplier    = "supplier"
	EntityTypeBatchImport = "batch_import"
)
