package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"room-passport/internal/common/apperror"
	"room-passport/internal/common/logging"
	"room-passport/internal/common/metrics"
	"room-passport/internal/passport/models"
	"room-passport/internal/passport/repository"
	"room-passport/internal/scene/codec"
	"room-passport/internal/scene/render"

	"github.com/google/uuid"
)

// ============================================================
// Schema Service
// ============================================================

// SaveSchemaInput: данные multipart-формы сохранения схемы.
type SaveSchemaInput struct {
	SceneData []byte
	CabinetID string
	Image     io.Reader
	ImageName string
}

type SchemaService struct {
	repo     SchemaRepository
	media    *FileStorage
	log      logging.Logger
	metrics  *metrics.Metrics
	renderer *render.Renderer
	newID    func() string
}

func NewSchemaService(repo SchemaRepository, media *FileStorage, log logging.Logger, m *metrics.Metrics) *SchemaService {
	if log == nil {
		log = logging.NewNop()
	}
	return &SchemaService{
		repo:     repo,
		media:    media,
		log:      log.Named("schemas"),
		metrics:  m,
		renderer: render.NewRenderer(),
		newID:    uuid.NewString,
	}
}

// Save проверяет сцену и изображение, переносит файл на место и только затем пишет строку.
func (s *SchemaService) Save(ctx context.Context, userID string, in SaveSchemaInput) (*models.StoredSchema, error) {
	schema, err := s.save(ctx, userID, in)
	if s.metrics != nil {
		s.metrics.SchemaSaved(err)
	}
	return schema, err
}

func (s *SchemaService) save(ctx context.Context, userID string, in SaveSchemaInput) (*models.StoredSchema, error) {
	if !codec.IsNodeList(in.SceneData) {
		return nil, apperror.Validation("invalid schema structure")
	}
	if in.Image == nil {
		return nil, apperror.Validation("No image uploaded")
	}

	dir := s.media.UploadsDir(userID)
	upload, err := s.media.Stage(dir, in.Image)
	if err != nil {
		return nil, apperror.Internal("Schema saving failed", err)
	}
	defer upload.Discard()

	r, err := upload.Reader()
	if err != nil {
		return nil, apperror.Internal("Schema saving failed", err)
	}
	info, err := ReadImageInfo(r)
	if err != nil {
		return nil, apperror.Validation("unsupported image").WithDetail(err.Error())
	}

	id := s.newID()
	dst := filepath.Join(dir, id+"."+imageExtension(info.Format, in.ImageName))
	if err := upload.Commit(dst); err != nil {
		return nil, apperror.Internal("Schema saving failed", err)
	}

	schema := &models.StoredSchema{
		ID:        id,
		OwnerID:   userID,
		CabinetID: strings.TrimSpace(in.CabinetID),
		SceneData: in.SceneData,
		ImagePath: s.media.Rel(dst),
	}
	if err := s.repo.CreateSchema(ctx, schema); err != nil {
		if rmErr := removeFile(dst); rmErr != nil {
			s.log.Warn("remove orphaned image", logging.String("path", dst), logging.Err(rmErr))
		}
		return nil, apperror.Internal("Schema saving failed", err)
	}

	s.log.Info("schema saved",
		logging.String("schema_id", schema.ID),
		logging.String("user_id", userID),
		logging.Int("width", info.Width),
		logging.Int("height", info.Height))
	return schema, nil
}

func (s *SchemaService) List(ctx context.Context, userID string) ([]models.StoredSchema, error) {
	items, err := s.repo.ListUserSchemas(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("list schemas", err)
	}
	return items, nil
}

// Preview рисует сохранённую сцену в SVG по каталогу типов.
func (s *SchemaService) Preview(ctx context.Context, id string) (string, error) {
	schema, err := s.repo.GetSchema(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperror.NotFound("Schema not found")
		}
		return "", apperror.Internal("load schema", err)
	}

	scene, _, err := codec.Import(schema.SceneData)
	if err != nil {
		return "", apperror.Validation("invalid schema structure").WithDetail(err.Error())
	}
	svg, err := s.renderer.Render(scene)
	if err != nil {
		return "", apperror.Internal("render preview", fmt.Errorf("schema %s: %w", id, err))
	}
	return svg, nil
}

// imageExtension берёт расширение из формата, имя файла клиента используется только как запасной вариант.
func imageExtension(format, name string) string {
	switch format {
	case "png", "gif":
		return format
	case "jpeg":
		return "jpg"
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."); ext != "" {
		return ext
	}
	return "img"
}
