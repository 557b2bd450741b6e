package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"gorm.io/gorm"
)

// PartRepository storage for parent parts and their embedded children
type PartRepository struct {
	db *gorm.DB
}

// NewPartRepository creates a part repository
func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

// scoped applies supplier ownership scoping; empty supplierID means admin view.
func scoped(query *gorm.DB, supplierID string) *gorm.DB {
	if supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}
	return query
}

// FindByID looks up a parent part with its children. A scope mismatch is
// indistinguishable from a missing id.
func (r *PartRepository) FindByID(ctx context.Context, id, supplierID string) (*entity.ParentPart, error) {
	var part entity.ParentPart
	err := scoped(r.db.WithContext(ctx).Where("id = ?", id), supplierID).
		Preload("ChildParts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&part).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// FindBySKU looks up a parent part by (sku, supplier) for duplicate checks
func (r *PartRepository) FindBySKU(ctx context.Context, sku, supplierID string) (*entity.ParentPart, error) {
	var part entity.ParentPart
	err := r.db.WithContext(ctx).
		Where("sku = ? AND supplier_id = ?", sku, supplierID).
		First(&part).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// List lists parent parts with children, scoped to a supplier when given
func (r *PartRepository) List(ctx context.Context, supplierID string) ([]entity.ParentPart, error) {
	var parts []entity.ParentPart
	err := scoped(r.db.WithContext(ctx), supplierID).
		Preload("ChildParts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC").
		Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}

// Search substring-matches parent sku/name and child identifier/name
func (r *PartRepository) Search(ctx context.Context, q, supplierID string, limit int) ([]entity.ParentPart, error) {
	var parts []entity.ParentPart
	pattern := "%" + q + "%"
	query := r.db.WithContext(ctx).
		Model(&entity.ParentPart{}).
		Distinct("parent_parts.*").
		Joins("LEFT JOIN child_parts ON child_parts.parent_part_id = parent_parts.id").
		Where(
			r.db.Where("parent_parts.sku ILIKE ?", pattern).
				Or("parent_parts.name ILIKE ?", pattern).
				Or("child_parts.identifier ILIKE ?", pattern).
				Or("child_parts.name ILIKE ?", pattern),
		)
	if supplierID != "" {
		query = query.Where("parent_parts.supplier_id = ?", supplierID)
	}
	err := query.
		Preload("ChildParts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Limit(limit).
		Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}

// CountByStatus counts parent parts grouped by derived status
func (r *PartRepository) CountByStatus(ctx context.Context, supplierID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := scoped(r.db.WithContext(ctx).Model(&entity.ParentPart{}), supplierID).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// Create inserts a parent part (children included, if any)
func (r *PartRepository) Create(ctx context.Context, part *entity.ParentPart) error {
	return r.db.WithContext(ctx).Create(part).Error
}

// Save persists parent columns only; children are written through the child ops
func (r *PartRepository) Save(ctx context.Context, part *entity.ParentPart) error {
	return r.db.WithContext(ctx).Omit("ChildParts").Save(part).Error
}

// UpdateStatus writes the derived status column and bumps updated_at
func (r *PartRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&entity.ParentPart{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

// Delete removes a parent part and its embedded children. Document rows keep
// any references to the deleted ids.
func (r *PartRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).
		Delete(&entity.ChildPart{}, "parent_part_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&entity.ParentPart{}, "id = ?", id).Error
}

// CreateChild appends a child to a parent
func (r *PartRepository) CreateChild(ctx context.Context, child *entity.ChildPart) error {
	return r.db.WithContext(ctx).Create(child).Error
}

// SaveChild persists a child
func (r *PartRepository) SaveChild(ctx context.Context, child *entity.ChildPart) error {
	return r.db.WithContext(ctx).Save(child).Error
}

// DeleteChild removes one child from a parent's list
func (r *PartRepository) DeleteChild(ctx context.Context, parentID, childID string) error {
	return r.db.WithContext(ctx).
		Delete(&entity.ChildPart{}, "id = ? AND parent_part_id = ?", childID, parentID).Error
}

// FindChildByID looks up a child row directly, outside its parent. When a
// supplier scope is given the child must belong to one of that supplier's
// parents; a scope mismatch is indistinguishable from a missing id.
func (r *PartRepository) FindChildByID(ctx context.Context, id, supplierID string) (*entity.ChildPart, error) {
	var child entity.ChildPart
	query := r.db.WithContext(ctx).Where("child_parts.id = ?", id)
	if supplierID != "" {
		query = query.
			Joins("JOIN parent_parts ON parent_parts.id = child_parts.parent_part_id").
			Where("parent_parts.supplier_id = ?", supplierID)
	}
	err := query.First(&child).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &child, nil
}

// FindParentsReferencing lists parents whose document list contains the id
func (r *PartRepository) FindParentsReferencing(ctx context.Context, documentID string) ([]entity.ParentPart, error) {
	var parts []entity.ParentPart
	err := r.db.WithContext(ctx).
		Where("document_ids @> ?", `["`+documentID+`"]`).
		Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}

// FindChildrenReferencing lists children whose document list contains the id
func (r *PartRepository) FindChildrenReferencing(ctx context.Context, documentID string) ([]entity.ChildPart, error) {
	var children []entity.ChildPart
	err := r.db.WithContext(ctx).
		Where("document_ids @> ?", `["`+documentID+`"]`).
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}

// ListChildren lists a parent's children in insertion order
func (r *PartRepository) ListChildren(ctx context.Context, parentID string) ([]entity.ChildPart, error) {
	var children []entity.ChildPart
	err := r.db.WithContext(ctx).
		Where("parent_part_id = ?", parentID).
		Order("created_at ASC").
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}
