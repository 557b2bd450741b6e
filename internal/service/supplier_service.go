package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// SupplierService admin-side supplier account management
type SupplierService struct {
	userRepo *repository.UserRepository
	audit    *AuditService
}

// NewSupplierService creates a supplier service
func NewSupplierService(userRepo *repository.UserRepository, audit *AuditService) *SupplierService {
	return &SupplierService{userRepo: userRepo, audit: audit}
}

// CreateSupplierRequest new supplier account payload
type CreateSupplierRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"company_name"`
}

// UpdateSupplierRequest partial update; nil fields are left untouched
type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	CompanyName *string `json:"company_name"`
	IsActive    *bool   `json:"is_active"`
}

// List lists supplier accounts oldest first
func (s *SupplierService) List(ctx context.Context) ([]entity.User, error) {
	suppliers, err := s.userRepo.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

// Get looks up one supplier account
func (s *SupplierService) Get(ctx context.Context, id string) (*entity.User, error) {
	supplier, err := s.userRepo.FindSupplierByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find supplier: %w", err)
	}
	return supplier, nil
}

// Create adds a supplier account; the role is always supplier regardless of
// the payload.
func (s *SupplierService) Create(ctx context.Context, actor Actor, req *CreateSupplierRequest) (*entity.User, error) {
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	supplier := &entity.User{
		ID:           generateID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         entity.RoleSupplier,
		CompanyName:  req.CompanyName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}

	changes := []entity.FieldChange{{Field: "email", New: supplier.Email}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionCreate, entity.EntityTypeSupplier, supplier.ID, supplier.ID, changes); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Update applies a partial update and audits the changed fields. An empty
// change set writes nothing and logs nothing.
func (s *SupplierService) Update(ctx context.Context, actor Actor, id string, req *UpdateSupplierRequest) (*entity.User, error) {
	supplier, err := s.userRepo.FindSupplierByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find supplier: %w", err)
	}

	var changes []entity.FieldChange
	if req.Name != nil && *req.Name != supplier.Name {
		changes = append(changes, entity.FieldChange{Field: "name", Old: supplier.Name, New: *req.Name})
		supplier.Name = *req.Name
	}
	if req.CompanyName != nil && *req.CompanyName != supplier.CompanyName {
		changes = append(changes, entity.FieldChange{Field: "company_name", Old: supplier.CompanyName, New: *req.CompanyName})
		supplier.CompanyName = *req.CompanyName
	}
	if req.IsActive != nil && *req.IsActive != supplier.IsActive {
		changes = append(changes, entity.FieldChange{Field: "is_active", Old: supplier.IsActive, New: *req.IsActive})
		supplier.IsActive = *req.IsActive
	}

	if len(changes) == 0 {
		return supplier, nil
	}

	supplier.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	if err := s.audit.Record(ctx, actor, entity.AuditActionUpdate, entity.EntityTypeSupplier, supplier.ID, supplier.ID, changes); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Delete removes a supplier account
func (s *SupplierService) Delete(ctx context.Context, actor Actor, id string) error {
	supplier, err := s.userRepo.FindSupplierByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find supplier: %w", err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	changes := []entity.FieldChange{{Field: "email", Old: supplier.Email}}
	return s.audit.Record(ctx, actor, entity.AuditActionDelete, entity.EntityTypeSupplier, id, id, changes)
}
