package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ErrStorageUnavailable object storage is not configured
var ErrStorageUnavailable = errors.New("object storage not configured")

// DocumentService document metadata and object storage lifecycle
type DocumentService struct {
	docRepo     *repository.DocumentRepository
	partRepo    *repository.PartRepository
	audit       *AuditService
	minioClient *minio.Client
	bucketName  string
}

// NewDocumentService creates a document service
func NewDocumentService(
	docRepo *repository.DocumentRepository,
	partRepo *repository.PartRepository,
	audit *AuditService,
	minioClient *minio.Client,
	bucketName string,
) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		partRepo:    partRepo,
		audit:       audit,
		minioClient: minioClient,
		bucketName:  bucketName,
	}
}

// UploadDocumentRequest upload metadata accompanying the file part
type UploadDocumentRequest struct {
	ParentPartIDs []string `json:"parent_part_ids"`
	ChildPartIDs  []string `json:"child_part_ids"`
}

// UpdateDocumentRequest partial document update; nil fields are left
// untouched. Reference lists replace the stored ones wholesale.
type UpdateDocumentRequest struct {
	OriginalName  *string   `json:"original_name"`
	ParentPartIDs *[]string `json:"parent_part_ids"`
	ChildPartIDs  *[]string `json:"child_part_ids"`
}

// UploadResult upload response; DuplicateWarning flags a re-upload of an
// already stored file name.
type UploadResult struct {
	Document         *entity.Document `json:"document"`
	DuplicateWarning bool             `json:"duplicate_warning"`
}

// List lists documents visible to the actor
func (s *DocumentService) List(ctx context.Context, actor Actor) ([]entity.Document, error) {
	docs, err := s.docRepo.List(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get looks up one document
func (s *DocumentService) Get(ctx context.Context, actor Actor, id string) (*entity.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, id, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

// Upload stores the binary, versions the name per owner and binds the
// document to the listed parts.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, req *UploadDocumentRequest, reader io.Reader, fileName string, fileSize int64, contentType string) (*UploadResult, error) {
	supplierID := actor.UserID

	maxVersion, err := s.docRepo.MaxVersion(ctx, supplierID, fileName)
	if err != nil {
		return nil, fmt.Errorf("find latest version: %w", err)
	}

	storedName := uuid.New().String() + filepath.Ext(fileName)
	objectName := fmt.Sprintf("documents/%s/%s", time.Now().Format("2006/01/02"), storedName)

	if s.minioClient == nil {
		return nil, ErrStorageUnavailable
	}
	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	now := time.Now()
	doc := &entity.Document{
		ID:            generateID(),
		SupplierID:    supplierID,
		OriginalName:  fileName,
		StoredName:    storedName,
		FileType:      contentType,
		FileSize:      fileSize,
		FilePath:      objectName,
		ParentPartIDs: entity.StringArray{},
		ChildPartIDs:  entity.StringArray{},
		Version:       maxVersion + 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bindParents(ctx, actor, doc, req.ParentPartIDs); err != nil {
		return nil, err
	}
	if err := s.bindChildren(ctx, actor, doc, req.ChildPartIDs); err != nil {
		return nil, err
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	changes := []entity.FieldChange{{Field: "original_name", New: doc.OriginalName}}
	if err := s.audit.Record(ctx, actor, entity.AuditActionCreate, entity.EntityTypeDocument, doc.ID, supplierID, changes); err != nil {
		return nil, err
	}

	return &UploadResult{Document: doc, DuplicateWarning: maxVersion > 0}, nil
}

// Update renames a document and reconciles its part references. Reference
// lists are reconciled by symmetric difference: dropped ids lose their
// back-reference, added ids gain one.
func (s *DocumentService) Update(ctx context.Context, actor Actor, id string, req *UpdateDocumentRequest) (*entity.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, id, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}

	var changes []entity.FieldChange
	if req.OriginalName != nil && *req.OriginalName != doc.OriginalName {
		changes = append(changes, entity.FieldChange{Field: "original_name", Old: doc.OriginalName, New: *req.OriginalName})
		doc.OriginalName = *req.OriginalName
	}

	if req.ParentPartIDs != nil {
		added, removed := diffIDs(doc.ParentPartIDs, *req.ParentPartIDs)
		if len(added) > 0 || len(removed) > 0 {
			changes = append(changes, entity.FieldChange{Field: "parent_part_ids", Old: []string(doc.ParentPartIDs), New: *req.ParentPartIDs})
		}
		for _, pid := range removed {
			if err := s.unbindParent(ctx, doc, pid); err != nil {
				return nil, err
			}
		}
		if err := s.bindParents(ctx, actor, doc, added); err != nil {
			return nil, err
		}
	}
	if req.ChildPartIDs != nil {
		added, removed := diffIDs(doc.ChildPartIDs, *req.ChildPartIDs)
		if len(added) > 0 || len(removed) > 0 {
			changes = append(changes, entity.FieldChange{Field: "child_part_ids", Old: []string(doc.ChildPartIDs), New: *req.ChildPartIDs})
		}
		for _, cid := range removed {
			if err := s.unbindChild(ctx, actor, doc, cid); err != nil {
				return nil, err
			}
		}
		if err := s.bindChildren(ctx, actor, doc, added); err != nil {
			return nil, err
		}
	}

	if len(changes) == 0 {
		return doc, nil
	}

	doc.UpdatedAt = time.Now()
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if err := s.audit.Record(ctx, actor, entity.AuditActionUpdate, entity.EntityTypeDocument, doc.ID, doc.SupplierID, changes); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the object and the row, then scrubs the id from every part
// that still references it.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, id string) error {
	doc, err := s.docRepo.FindByID(ctx, id, actor.Scope())
	if err != nil {
		return fmt.Errorf("find document: %w", err)
	}

	if s.minioClient != nil {
		if err := s.minioClient.RemoveObject(ctx, s.bucketName, doc.FilePath, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove object: %w", err)
		}
	}

	parents, err := s.partRepo.FindParentsReferencing(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("find referencing parents: %w", err)
	}
	for i := range parents {
		parents[i].DocumentIDs = parents[i].DocumentIDs.Remove(doc.ID)
		if err := s.partRepo.Save(ctx, &parents[i]); err != nil {
			return fmt.Errorf("update part: %w", err)
		}
	}

	children, err := s.partRepo.FindChildrenReferencing(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("find referencing children: %w", err)
	}
	for i := range children {
		children[i].DocumentIDs = children[i].DocumentIDs.Remove(doc.ID)
		if err := s.partRepo.SaveChild(ctx, &children[i]); err != nil {
			return fmt.Errorf("update child: %w", err)
		}
	}

	if err := s.docRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	changes := []entity.FieldChange{{Field: "original_name", Old: doc.OriginalName}}
	return s.audit.Record(ctx, actor, entity.AuditActionDelete, entity.EntityTypeDocument, id, doc.SupplierID, changes)
}

// Download streams the stored binary
func (s *DocumentService) Download(ctx context.Context, actor Actor, id string) (io.ReadCloser, *entity.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, id, actor.Scope())
	if err != nil {
		return nil, nil, fmt.Errorf("find document: %w", err)
	}

	if s.minioClient == nil {
		return nil, nil, ErrStorageUnavailable
	}
	object, err := s.minioClient.GetObject(ctx, s.bucketName, doc.FilePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return object, doc, nil
}

// bindParents adds the document id to each resolvable parent's list. Ids
// outside the actor's scope are skipped, not failed.
func (s *DocumentService) bindParents(ctx context.Context, actor Actor, doc *entity.Document, parentIDs []string) error {
	for _, pid := range parentIDs {
		part, err := s.partRepo.FindByID(ctx, pid, actor.Scope())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return fmt.Errorf("find part: %w", err)
		}
		if !part.DocumentIDs.Contains(doc.ID) {
			part.DocumentIDs = append(part.DocumentIDs, doc.ID)
			if err := s.partRepo.Save(ctx, part); err != nil {
				return fmt.Errorf("update part: %w", err)
			}
		}
		if !doc.ParentPartIDs.Contains(pid) {
			doc.ParentPartIDs = append(doc.ParentPartIDs, pid)
		}
	}
	return nil
}

// bindChildren adds the document id to each resolvable child's list. The
// lookup runs through the child's parent, so ids outside the actor's scope
// resolve to nothing and are skipped.
func (s *DocumentService) bindChildren(ctx context.Context, actor Actor, doc *entity.Document, childIDs []string) error {
	for _, cid := range childIDs {
		child, err := s.partRepo.FindChildByID(ctx, cid, actor.Scope())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return fmt.Errorf("find child: %w", err)
		}
		if !child.DocumentIDs.Contains(doc.ID) {
			child.DocumentIDs = append(child.DocumentIDs, doc.ID)
			if err := s.partRepo.SaveChild(ctx, child); err != nil {
				return fmt.Errorf("update child: %w", err)
			}
		}
		if !doc.ChildPartIDs.Contains(cid) {
			doc.ChildPartIDs = append(doc.ChildPartIDs, cid)
		}
	}
	return nil
}

func (s *DocumentService) unbindParent(ctx context.Context, doc *entity.Document, parentID string) error {
	doc.ParentPartIDs = doc.ParentPartIDs.Remove(parentID)
	part, err := s.partRepo.FindByID(ctx, parentID, "")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find part: %w", err)
	}
	part.DocumentIDs = part.DocumentIDs.Remove(doc.ID)
	if err := s.partRepo.Save(ctx, part); err != nil {
		return fmt.Errorf("update part: %w", err)
	}
	return nil
}

func (s *DocumentService) unbindChild(ctx context.Context, actor Actor, doc *entity.Document, childID string) error {
	doc.ChildPartIDs = doc.ChildPartIDs.Remove(childID)
	child, err := s.partRepo.FindChildByID(ctx, childID, actor.Scope())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find child: %w", err)
	}
	child.DocumentIDs = child.DocumentIDs.Remove(doc.ID)
	if err := s.partRepo.SaveChild(ctx, child); err != nil {
		return fmt.Errorf("update child: %w", err)
	}
	return nil
}

// diffIDs splits a replacement list into ids to add and ids to drop.
func diffIDs(current entity.StringArray, next []string) (added, removed []string) {
	nextSet := make(map[string]bool, len(next))
	for _, id := range next {
		nextSet[id] = true
	}
	for _, id := range current {
		if !nextSet[id] {
			removed = append(removed, id)
		}
	}
	for _, id := range next {
		if !current.Contains(id) {
			added = append(added, id)
		}
	}
	return added, removed
}
