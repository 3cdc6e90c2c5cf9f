package service

import (
	"context"

	"room-passport/internal/passport/models"
)

// ============================================================
// Persistence contracts
// ============================================================

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type ReferenceRepository interface {
	GetCabinet(ctx context.Context, id string) (*models.Cabinet, error)
	ResolveCurricula(ctx context.Context, ids []string) ([]models.Curriculum, error)
	ResolveSpecializations(ctx context.Context, ids []string) ([]models.Specialization, error)
}

type SchemaRepository interface {
	CreateSchema(ctx context.Context, s *models.StoredSchema) error
	GetSchema(ctx context.Context, id string) (*models.StoredSchema, error)
	ListUserSchemas(ctx context.Context, userID string) ([]models.StoredSchema, error)
}

type PassportRepository interface {
	CreatePassport(ctx context.Context, p *models.Passport) error
	SetPassportFile(ctx context.Context, id, fileName string) error
	GetPassport(ctx context.Context, id string) (*models.Passport, error)
	DeletePassport(ctx context.Context, id string) error
	AppendUserPassport(ctx context.Context, userID, passportID string) error
	RemoveUserPassport(ctx context.Context, userID, passportID string) error
	ListUserPassports(ctx context.Context, userID string) ([]models.Passport, error)

	AddReconciliationTask(ctx context.Context, t *models.ReconciliationTask) error
	PendingReconciliationTasks(ctx context.Context) ([]models.ReconciliationTask, error)
	CompleteReconciliationTask(ctx context.Context, id string) error
	FailReconciliationTask(ctx context.Context, id string, cause error) error
	CancelReconciliationTasks(ctx context.Context, passportID string) error
}

// ArtifactStore хранит байты сгенерированных документов по имени файла.
type ArtifactStore interface {
	// Create пишет новый объект и возвращает ErrArtifactExists, если имя занято.
	// FileStorage гарантирует это через O_EXCL, MinIOStorage только проверяет имя перед записью.
	Create(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	// Remove не считает ошибкой отсутствие объекта.
	Remove(ctx context.Context, name string) error
}
