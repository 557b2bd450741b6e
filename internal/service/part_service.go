package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/redis/go-redis/v9"
)

// ErrDuplicateSKU another parent already holds the sku for this supplier
var ErrDuplicateSKU = errors.New("sku already exists for this supplier")

const (
	statsCachePrefix = "stats:parts:"
	statsCacheTTL    = time.Minute
	searchLimit      = 100
)

// PartService parent/child part lifecycle and status derivation
type PartService struct {
	partRepo *repository.PartRepository
	audit    *AuditService
	rdb      *redis.Client
}

// NewPartService creates a part service
func NewPartService(partRepo *repository.PartRepository, audit *AuditService, rdb *redis.Client) *PartService {
	return &PartService{partRepo: partRepo, audit: audit, rdb: rdb}
}

// CreatePartRequest new parent part payload
type CreatePartRequest struct {
	SKU             string  `json:"sku" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	CountryOfOrigin string  `json:"country_of_origin"`
	TotalWeightKg   float64 `json:"total_weight_kg"`
	TotalValueUSD   float64 `json:"total_value_usd"`
}

// UpdatePartRequest partial parent update; nil fields are left untouched
type UpdatePartRequest struct {
	SKU             *string  `json:"sku"`
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	CountryOfOrigin *string  `json:"country_of_origin"`
	TotalWeightKg   *float64 `json:"total_weight_kg"`
	TotalValueUSD   *float64 `json:"total_value_usd"`
}

// CreateChildRequest new child payload
type CreateChildRequest struct {
	Identifier                string  `json:"identifier" binding:"required"`
	Name                      string  `json:"name" binding:"required"`
	Description               string  `json:"description"`
	CountryOfOrigin           string  `json:"country_of_origin"`
	WeightKg                  float64 `json:"weight_kg"`
	ValueUSD                  float64 `json:"value_usd"`
	AluminumContentPercent    float64 `json:"aluminum_content_percent"`
	SteelContentPercent       float64 `json:"steel_content_percent"`
	HasRussianContent         bool    `json:"has_russian_content"`
	RussianContentPercent     float64 `json:"russian_content_percent"`
	RussianContentDescription string  `json:"russian_content_description"`
	ManufacturingMethod       string  `json:"manufacturing_method"`
}

// UpdateChildRequest partial child update; nil fields are left untouched
type UpdateChildRequest struct {
	Identifier                *string  `json:"identifier"`
	Name                      *string  `json:"name"`
	Description               *string  `json:"description"`
	CountryOfOrigin           *string  `json:"country_of_origin"`
	WeightKg                  *float64 `json:"weight_kg"`
	ValueUSD                  *float64 `json:"value_usd"`
	AluminumContentPercent    *float64 `json:"aluminum_content_percent"`
	SteelContentPercent       *float64 `json:"steel_content_percent"`
	HasRussianContent         *bool    `json:"has_russian_content"`
	RussianContentPercent     *float64 `json:"russian_content_percent"`
	RussianContentDescription *string  `json:"russian_content_description"`
	ManufacturingMethod       *string  `json:"manufacturing_method"`
}

// PartStats dashboard counters
type PartStats struct {
	Total       int64 `json:"total"`
	Incomplete  int64 `json:"incomplete"`
	Completed   int64 `json:"completed"`
	NeedsReview int64 `json:"needs_review"`
}

// List lists parts visible to the actor
func (s *PartService) List(ctx context.Context, actor Actor) ([]entity.ParentPart, error) {
	parts, err := s.partRepo.List(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return parts, nil
}

// Get looks up one part with its children
func (s *PartService) Get(ctx context.Context, actor Actor, id string) (*entity.ParentPart, error) {
	part, err := s.partRepo.FindByID(ctx, id, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}
	return part, nil
}

// Search substring-matches parent sku/name and child identifier/name
func (s *PartService) Search(ctx context.Context, actor Actor, q string) ([]entity.ParentPart, error) {
	parts, err := s.partRepo.Search(ctx, q, actor.Scope(), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search parts: %w", err)
	}
	return parts, nil
}

// Stats returns status counters, cached briefly per scope
func (s *PartService) Stats(ctx context.Context, actor Actor) (*PartStats, error) {
	key := statsCacheKey(actor.Scope())
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var stats PartStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	counts, err := s.partRepo.CountByStatus(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("count parts: %w", err)
	}
	stats := &PartStats{
		Incomplete:  counts[entity.PartStatusIncomplete],
		Completed:   counts[entity.PartStatusCompleted],
		NeedsReview: counts[entity.PartStatusNeedsReview],
	}
	stats.Total = stats.Incomplete + stats.Completed + stats.NeedsReview

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, key, data, statsCacheTTL)
		}
	}
	return stats, nil
}

// Create adds a parent part owned by the caller
func (s *PartService) Create(ctx context.Context, actor Actor, req *CreatePartRequest) (*entity.ParentPart, error) {
	supplierID := actor.UserID

	_, err := s.partRepo.FindBySKU(ctx, req.SKU, supplierID)
	if err == nil {
		return nil, ErrDuplicateSKU
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find part by sku: %w", err)
	}

	now := time.Now()
	part := &entity.ParentPart{
		ID:              generateID(),
		SKU:             req.SKU,
		SupplierID:      supplierID,
		Name:            req.Name,
		Description:     req.Description,
		Status:          entity.PartStatusIncomplete,
		CountryOfOrigin: req.CountryOfOrigin,
		TotalWeightKg:   req.TotalWeightKg,
		TotalValueUSD:   req.TotalValueUSD,
		DocumentIDs:     entity.StringArray{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.partRepo.Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}

	changes := []entity.FieldChange{{Field: "sku", New: part.SKU}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionCreate, entity.EntityTypeParentPart, part.ID, supplierID, changes); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, supplierID)
	return part, nil
}

// Update applies a partial parent update, re-derives status and audits the
// changed fields. An empty change set writes nothing and logs nothing.
func (s *PartService) Update(ctx context.Context, actor Actor, id string, req *UpdatePartRequest) (*entity.ParentPart, error) {
	part, err := s.partRepo.FindByID(ctx, id, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}

	var changes []entity.FieldChange
	if req.SKU != nil && *req.SKU != part.SKU {
		_, err := s.partRepo.FindBySKU(ctx, *req.SKU, part.SupplierID)
		if err == nil {
			return nil, ErrDuplicateSKU
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("find part by sku: %w", err)
		}
		changes = append(changes, entity.FieldChange{Field: "sku", Old: part.SKU, New: *req.SKU})
		part.SKU = *req.SKU
	}
	if req.Name != nil && *req.Name != part.Name {
		changes = append(changes, entity.FieldChange{Field: "name", Old: part.Name, New: *req.Name})
		part.Name = *req.Name
	}
	if req.Description != nil && *req.Description != part.Description {
		changes = append(changes, entity.FieldChange{Field: "description", Old: part.Description, New: *req.Description})
		part.Description = *req.Description
	}
	if req.CountryOfOrigin != nil && *req.CountryOfOrigin != part.CountryOfOrigin {
		changes = append(changes, entity.FieldChange{Field: "country_of_origin", Old: part.CountryOfOrigin, New: *req.CountryOfOrigin})
		part.CountryOfOrigin = *req.CountryOfOrigin
	}
	if req.TotalWeightKg != nil && *req.TotalWeightKg != part.TotalWeightKg {
		changes = append(changes, entity.FieldChange{Field: "total_weight_kg", Old: part.TotalWeightKg, New: *req.TotalWeightKg})
		part.TotalWeightKg = *req.TotalWeightKg
	}
	if req.TotalValueUSD != nil && *req.TotalValueUSD != part.TotalValueUSD {
		changes = append(changes, entity.FieldChange{Field: "total_value_usd", Old: part.TotalValueUSD, New: *req.TotalValueUSD})
		part.TotalValueUSD = *req.TotalValueUSD
	}

	if len(changes) == 0 {
		return part, nil
	}

	part.Status = CalculatePartStatus(part, part.ChildParts)
	part.UpdatedAt = time.Now()
	if err := s.partRepo.Save(ctx, part); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	if err := s.audit.Record(ctx, actor, entity.AuditActionUpdate, entity.EntityTypeParentPart, part.ID, part.SupplierID, changes); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, part.SupplierID)
	return part, nil
}

// Delete removes a parent part and its children. Documents keep any dangling
// references to the deleted ids.
func (s *PartService) Delete(ctx context.Context, actor Actor, id string) error {
	part, err := s.partRepo.FindByID(ctx, id, actor.Scope())
	if err != nil {
		return fmt.Errorf("find part: %w", err)
	}
	if err := s.partRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete part: %w", err)
	}
	changes := []entity.FieldChange{{Field: "sku", Old: part.SKU}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionDelete, entity.EntityTypeParentPart, id, part.SupplierID, changes); err != nil {
		return err
	}
	s.invalidateStats(ctx, part.SupplierID)
	return nil
}

// AddChild appends a child, deriving is_complete and weight_lbs
func (s *PartService) AddChild(ctx context.Context, actor Actor, parentID string, req *CreateChildRequest) (*entity.ParentPart, error) {
	part, err := s.partRepo.FindByID(ctx, parentID, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}

	now := time.Now()
	child := &entity.ChildPart{
		ID:                        generateID(),
		ParentPartID:              part.ID,
		Identifier:                req.Identifier,
		Name:                      req.Name,
		Description:               req.Description,
		CountryOfOrigin:           req.CountryOfOrigin,
		WeightKg:                  req.WeightKg,
		WeightLbs:                 KgToLbs(req.WeightKg),
		ValueUSD:                  req.ValueUSD,
		AluminumContentPercent:    req.AluminumContentPercent,
		SteelContentPercent:       req.SteelContentPercent,
		HasRussianContent:         req.HasRussianContent,
		RussianContentPercent:     req.RussianContentPercent,
		RussianContentDescription: req.RussianContentDescription,
		ManufacturingMethod:       req.ManufacturingMethod,
		DocumentIDs:               entity.StringArray{},
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	child.IsComplete = ChildComplete(child)

	if err := s.partRepo.CreateChild(ctx, child); err != nil {
		return nil, fmt.Errorf("create child: %w", err)
	}

	changes := []entity.FieldChange{{Field: "identifier", New: child.Identifier}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionCreate, entity.EntityTypeChildPart, child.ID, part.SupplierID, changes); err != nil {
		return nil, err
	}
	return s.refreshStatus(ctx, part)
}

// UpdateChild merges a partial child update and re-derives is_complete,
// weight_lbs and the parent status.
func (s *PartService) UpdateChild(ctx context.Context, actor Actor, parentID, childID string, req *UpdateChildRequest) (*entity.ParentPart, error) {
	part, err := s.partRepo.FindByID(ctx, parentID, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}
	child := findChild(part, childID)
	if child == nil {
		return nil, fmt.Errorf("find child: %w", repository.ErrNotFound)
	}

	var changes []entity.FieldChange
	if req.Identifier != nil && *req.Identifier != child.Identifier {
		changes = append(changes, entity.FieldChange{Field: "identifier", Old: child.Identifier, New: *req.Identifier})
		child.Identifier = *req.Identifier
	}
	if req.Name != nil && *req.Name != child.Name {
		changes = append(changes, entity.FieldChange{Field: "name", Old: child.Name, New: *req.Name})
		child.Name = *req.Name
	}
	if req.Description != nil && *req.Description != child.Description {
		changes = append(changes, entity.FieldChange{Field: "description", Old: child.Description, New: *req.Description})
		child.Description = *req.Description
	}
	if req.CountryOfOrigin != nil && *req.CountryOfOrigin != child.CountryOfOrigin {
		changes = append(changes, entity.FieldChange{Field: "country_of_origin", Old: child.CountryOfOrigin, New: *req.CountryOfOrigin})
		child.CountryOfOrigin = *req.CountryOfOrigin
	}
	if req.WeightKg != nil && *req.WeightKg != child.WeightKg {
		changes = append(changes, entity.FieldChange{Field: "weight_kg", Old: child.WeightKg, New: *req.WeightKg})
		child.WeightKg = *req.WeightKg
		child.WeightLbs = KgToLbs(child.WeightKg)
	}
	if req.ValueUSD != nil && *req.ValueUSD != child.ValueUSD {
		changes = append(changes, entity.FieldChange{Field: "value_usd", Old: child.ValueUSD, New: *req.ValueUSD})
		child.ValueUSD = *req.ValueUSD
	}
	if req.AluminumContentPercent != nil && *req.AluminumContentPercent != child.AluminumContentPercent {
		changes = append(changes, entity.FieldChange{Field: "aluminum_content_percent", Old: child.AluminumContentPercent, New: *req.AluminumContentPercent})
		child.AluminumContentPercent = *req.AluminumContentPercent
	}
	if req.SteelContentPercent != nil && *req.SteelContentPercent != child.SteelContentPercent {
		changes = append(changes, entity.FieldChange{Field: "steel_content_percent", Old: child.SteelContentPercent, New: *req.SteelContentPercent})
		child.SteelContentPercent = *req.SteelContentPercent
	}
	if req.HasRussianContent != nil && *req.HasRussianContent != child.HasRussianContent {
		changes = append(changes, entity.FieldChange{Field: "has_russian_content", Old: child.HasRussianContent, New: *req.HasRussianContent})
		child.HasRussianContent = *req.HasRussianContent
	}
	if req.RussianContentPercent != nil && *req.RussianContentPercent != child.RussianContentPercent {
		changes = append(changes, entity.FieldChange{Field: "russian_content_percent", Old: child.RussianContentPercent, New: *req.RussianContentPercent})
		child.RussianContentPercent = *req.RussianContentPercent
	}
	if req.RussianContentDescription != nil && *req.RussianContentDescription != child.RussianContentDescription {
		changes = append(changes, entity.FieldChange{Field: "russian_content_description", Old: child.RussianContentDescription, New: *req.RussianContentDescription})
		child.RussianContentDescription = *req.RussianContentDescription
	}
	if req.ManufacturingMethod != nil && *req.ManufacturingMethod != child.ManufacturingMethod {
		changes = append(changes, entity.FieldChange{Field: "manufacturing_method", Old: child.ManufacturingMethod, New: *req.ManufacturingMethod})
		child.ManufacturingMethod = *req.ManufacturingMethod
	}

	if len(changes) == 0 {
		return part, nil
	}

	child.IsComplete = ChildComplete(child)
	child.UpdatedAt = time.Now()
	if err := s.partRepo.SaveChild(ctx, child); err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	if err := s.audit.Record(ctx, actor, entity.AuditActionUpdate, entity.EntityTypeChildPart, child.ID, part.SupplierID, changes); err != nil {
		return nil, err
	}
	return s.refreshStatus(ctx, part)
}

// DeleteChild removes one child and re-derives the parent status
func (s *PartService) DeleteChild(ctx context.Context, actor Actor, parentID, childID string) (*entity.ParentPart, error) {
	part, err := s.partRepo.FindByID(ctx, parentID, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}
	child := findChild(part, childID)
	if child == nil {
		return nil, fmt.Errorf("find child: %w", repository.ErrNotFound)
	}

	if err := s.partRepo.DeleteChild(ctx, parentID, childID); err != nil {
		return nil, fmt.Errorf("delete child: %w", err)
	}
	changes := []entity.FieldChange{{Field: "identifier", Old: child.Identifier}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionDelete, entity.EntityTypeChildPart, childID, part.SupplierID, changes); err != nil {
		return nil, err
	}
	return s.refreshStatus(ctx, part)
}

// DuplicateChild copies a child under the same parent with suffixed
// identifier and name, a fresh id, and is_complete forced off so the copy is
// reviewed before it counts as complete.
func (s *PartService) DuplicateChild(ctx context.Context, actor Actor, parentID, childID string) (*entity.ParentPart, error) {
	part, err := s.partRepo.FindByID(ctx, parentID, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}
	source := findChild(part, childID)
	if source == nil {
		return nil, fmt.Errorf("find child: %w", repository.ErrNotFound)
	}

	now := time.Now()
	dup := *source
	dup.ID = generateID()
	dup.Identifier = source.Identifier + "_copy"
	dup.Name = source.Name + " (Copy)"
	dup.IsComplete = false
	dup.CreatedAt = now
	dup.UpdatedAt = now

	if err := s.partRepo.CreateChild(ctx, &dup); err != nil {
		return nil, fmt.Errorf("create child: %w", err)
	}
	changes := []entity.FieldChange{{Field: "duplicated_from", Old: source.ID, New: dup.ID}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionCreate, entity.EntityTypeChildPart, dup.ID, part.SupplierID, changes); err != nil {
		return nil, err
	}
	return s.refreshStatus(ctx, part)
}

// refreshStatus reloads the part, re-derives its status and persists it. The
// write also bumps the parent's updated_at, so every child mutation touches
// the parent row.
func (s *PartService) refreshStatus(ctx context.Context, part *entity.ParentPart) (*entity.ParentPart, error) {
	fresh, err := s.partRepo.FindByID(ctx, part.ID, "")
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}
	status := CalculatePartStatus(fresh, fresh.ChildParts)
	if err := s.partRepo.UpdateStatus(ctx, fresh.ID, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	fresh.Status = status
	fresh.UpdatedAt = time.Now()
	s.invalidateStats(ctx, fresh.SupplierID)
	return fresh, nil
}

func (s *PartService) invalidateStats(ctx context.Context, supplierID string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, statsCacheKey(""), statsCacheKey(supplierID))
}

func statsCacheKey(scope string) string {
	if scope == "" {
		return statsCachePrefix + "all"
	}
	return statsCachePrefix + scope
}

func findChild(part *entity.ParentPart, childID string) *entity.ChildPart {
	for i := range part.ChildParts {
		if part.ChildParts[i].ID == childID {
			return &part.ChildParts[i]
		}
	}
	return nil
}
