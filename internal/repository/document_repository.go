package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"gorm.io/gorm"
)

// DocumentRepository storage for document metadata rows
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID looks up a document, scoped to a supplier when given
func (r *DocumentRepository) FindByID(ctx context.Context, id, supplierID string) (*entity.Document, error) {
	var doc entity.Document
	err := scoped(r.db.WithContext(ctx).Where("id = ?", id), supplierID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// List lists documents newest first, scoped to a supplier when given
func (r *DocumentRepository) List(ctx context.Context, supplierID string) ([]entity.Document, error) {
	var docs []entity.Document
	err := scoped(r.db.WithContext(ctx), supplierID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// MaxVersion returns the highest stored version for a supplier's file name,
// zero when the name has never been uploaded.
func (r *DocumentRepository) MaxVersion(ctx context.Context, supplierID, originalName string) (int, error) {
	var version *int
	err := r.db.WithContext(ctx).
		Model(&entity.Document{}).
		Select("MAX(version)").
		Where("supplier_id = ? AND original_name = ?", supplierID, originalName).
		Scan(&version).Error
	if err != nil {
		return 0, err
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}

// Create inserts a document row
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Save persists a document row
func (r *DocumentRepository) Save(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// Delete removes a document row
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Document{}, "id = ?", id).Error
}
