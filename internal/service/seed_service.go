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

// SeedService demo data for development environments
type SeedService struct {
	userRepo *repository.UserRepository
	partRepo *repository.PartRepository
}

// NewSeedService creates a seed service
func NewSeedService(userRepo *repository.UserRepository, partRepo *repository.PartRepository) *SeedService {
	return &SeedService{userRepo: userRepo, partRepo: partRepo}
}

// Seed idempotently creates an admin, a demo supplier and sample parts.
// Accounts already present are left alone.
func (s *SeedService) Seed(ctx context.Context) error {
	admin, err := s.ensureUser(ctx, "admin@portal.local", "admin12345", "Portal Admin", entity.RoleAdmin, "")
	if err != nil {
		return err
	}
	_ = admin

	supplier, err := s.ensureUser(ctx, "supplier@acme.example", "supplier123", "Acme Supplier", entity.RoleSupplier, "Acme Components Inc")
	if err != nil {
		return err
	}

	if err := s.ensurePart(ctx, supplier.ID, "SKU-001", "ATV Frame Assembly", 10, []entity.ChildPart{
		{Identifier: "COMP-001", Name: "Steel Frame Tube", CountryOfOrigin: "USA", WeightKg: 5, ValueUSD: 50, SteelContentPercent: 95, ManufacturingMethod: "Welded"},
		{Identifier: "COMP-002", Name: "Mounting Bracket", CountryOfOrigin: "USA", WeightKg: 5, ValueUSD: 20, SteelContentPercent: 80, ManufacturingMethod: "Stamped"},
	}); err != nil {
		return err
	}
	if err := s.ensurePart(ctx, supplier.ID, "SKU-002", "Suspension Kit", 100, []entity.ChildPart{
		{Identifier: "COMP-003", Name: "Shock Absorber", CountryOfOrigin: "Germany", WeightKg: 50, ValueUSD: 120, AluminumContentPercent: 40, ManufacturingMethod: "Machined"},
	}); err != nil {
		return err
	}
	return nil
}

func (s *SeedService) ensureUser(ctx context.Context, email, password, name, role, company string) (*entity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	user = &entity.User{
		ID:           generateID(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CompanyName:  company,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *SeedService) ensurePart(ctx context.Context, supplierID, sku, name string, totalWeightKg float64, children []entity.ChildPart) error {
	_, err := s.partRepo.FindBySKU(ctx, sku, supplierID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("find part by sku: %w", err)
	}

	now := time.Now()
	part := &entity.ParentPart{
		ID:            generateID(),
		SKU:           sku,
		SupplierID:    supplierID,
		Name:          name,
		Status:        entity.PartStatusIncomplete,
		TotalWeightKg: totalWeightKg,
		DocumentIDs:   entity.StringArray{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range children {
		children[i].ID = generateID()
		children[i].ParentPartID = part.ID
		children[i].WeightLbs = KgToLbs(children[i].WeightKg)
		children[i].IsComplete = ChildComplete(&children[i])
		children[i].DocumentIDs = entity.StringArray{}
		children[i].CreatedAt = now
		children[i].UpdatedAt = now
	}
	part.ChildParts = children
	part.Status = CalculatePartStatus(part, children)

	if err := s.partRepo.Create(ctx, part); err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	return nil
}
