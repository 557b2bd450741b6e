package service

import (
	"github.com/bitfantasy/parts-portal/internal/config"
	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Services service aggregate
type Services struct {
	Auth     *AuthService
	Supplier *SupplierService
	Part     *PartService
	Document *DocumentService
	Excel    *ExcelService
	Audit    *AuditService
	Seed     *SeedService
}

// NewServices creates the service aggregate
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			// continue without object storage
			minioClient = nil
		}
	}

	audit := NewAuditService(repos.Audit)
	part := NewPartService(repos.Part, audit, rdb)

	return &Services{
		Auth:     NewAuthService(repos.User, cfg),
		Supplier: NewSupplierService(repos.User, audit),
		Part:     part,
		Document: NewDocumentService(repos.Document, repos.Part, audit, minioClient, cfg.MinIO.Bucket),
		Excel:    NewExcelService(repos.Part, audit),
		Audit:    audit,
		Seed:     NewSeedService(repos.User, repos.Part),
	}
}

// Actor identifies the authenticated caller on every mutating call
type Actor struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

// Scope returns the supplier id data access is restricted to. Admins see
// everything, so their scope is empty.
func (a Actor) Scope() string {
	if a.IsAdmin() {
		return ""
	}
	return a.UserID
}

func generateID() string {
	return uuid.New().String()[:32]
}
