package entity

import "time"

// ParentPart top-level tracked component, owned by one supplier
type ParentPart struct {
	ID              string      `json:"id" gorm:"primaryKey;size:36"`
	SKU             string      `json:"sku" gorm:"size:64;not null;index:idx_parts_sku_supplier,unique"`
	SupplierID      string      `json:"supplier_id" gorm:"size:36;not null;index:idx_parts_sku_supplier,unique"`
	Name            string      `json:"name" gorm:"size:256;not null"`
	Description     string      `json:"description" gorm:"type:text"`
	Status          string      `json:"status" gorm:"size:16;not null;default:incomplete"`
	CountryOfOrigin string      `json:"country_of_origin" gorm:"size:64"`
	TotalWeightKg   float64     `json:"total_weight_kg" gorm:"not null;default:0"`
	TotalValueUSD   float64     `json:"total_value_usd" gorm:"not null;default:0"`
	DocumentIDs     StringArray `json:"document_ids" gorm:"type:jsonb"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	ChildParts []ChildPart `json:"child_parts" gorm:"foreignKey:ParentPartID"`
}

func (ParentPart) TableName() string {
	return "parent_parts"
}

// ChildPart sub-component carrying material and origin compliance detail.
// Addressed only through its owning parent, never directly.
type ChildPart struct {
	ID                        string      `json:"id" gorm:"primaryKey;size:36"`
	ParentPartID              string      `json:"-" gorm:"size:36;not null;index"`
	Identifier                string      `json:"identifier" gorm:"size:64;not null"`
	Name                      string      `json:"name" gorm:"size:256;not null"`
	Description               string      `json:"description" gorm:"type:text"`
	CountryOfOrigin           string      `json:"country_of_origin" gorm:"size:64"`
	WeightKg                  float64     `json:"weight_kg" gorm:"not null;default:0"`
	WeightLbs                 float64     `json:"weight_lbs" gorm:"not null;default:0"`
	ValueUSD                  float64     `json:"value_usd" gorm:"not null;default:0"`
	AluminumContentPercent    float64     `json:"aluminum_content_percent" gorm:"not null;default:0"`
	SteelContentPercent       float64     `json:"steel_content_percent" gorm:"not null;default:0"`
	HasRussianContent         bool        `json:"has_russian_content" gorm:"not null;default:false"`
	RussianContentPercent     float64     `json:"russian_content_percent" gorm:"not null;default:0"`
	RussianContentDescription string      `json:"russian_content_description" gorm:"type:text"`
	ManufacturingMethod       string      `json:"manufacturing_method" gorm:"size:128"`
	DocumentIDs               StringArray `json:"document_ids" gorm:"type:jsonb"`
	IsComplete                bool        `json:"is_complete" gorm:"not null;default:false"`
	CreatedAt                 time.Time   `json:"created_at"`
	UpdatedAt                 time.Time   `json:"updated_at"`
}

func (ChildPart) TableName() string {
	return "child_parts"
}

// Derived parent statuses
const (
	PartStatusIncomplete  = "incomplete"
	PartStatusCompleted   = "completed"
	PartStatusNeedsReview = "needs_review"
)

// LbsPerKg fixed conversion factor for the derived weight_lbs column
const LbsPerKg = 2.20462
