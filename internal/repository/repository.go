package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound record does not exist (or is out of the caller's scope)
var ErrNotFound = errors.New("record not found")

// Repositories repository aggregate
type Repositories struct {
	User     *UserRepository
	Part     *PartRepository
	Document *DocumentRepository
	Audit    *AuditRepository
}

// NewRepositories creates the repository aggregate
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Part:     NewPartRepository(db),
		Document: NewDocumentRepository(db),
		Audit:    NewAuditRepository(db),
	}
}
