package entity

import "time"

// Document uploaded file metadata. The binary lives in object storage under
// FilePath; version counts re-uploads of the same original name per supplier.
type Document struct {
	ID            string      `json:"id" gorm:"primaryKey;size:36"`
	SupplierID    string      `json:"supplier_id" gorm:"size:36;not null;index"`
	OriginalName  string      `json:"original_name" gorm:"size:256;not null"`
	StoredName    string      `json:"stored_name" gorm:"size:256;not null"`
	FileType      string      `json:"file_type" gorm:"size:128"`
	FileSize      int64       `json:"file_size" gorm:"not null"`
	FilePath      string      `json:"file_path" gorm:"size:512;not null"`
	ParentPartIDs StringArray `json:"parent_part_ids" gorm:"type:jsonb"`
	ChildPartIDs  StringArray `json:"child_part_ids" gorm:"type:jsonb"`
	Version       int         `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
