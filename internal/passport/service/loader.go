package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"room-passport/internal/common/apperror"
	"room-passport/internal/passport/models"
	"room-passport/internal/passport/repository"

	"golang.org/x/sync/errgroup"
)

// ============================================================
// Loader
// ============================================================

// Resolver загружает записи по списку id.
type Resolver[T any] func(ctx context.Context, ids []string) ([]T, error)

// Exact требует, чтобы нашлась ровно одна запись на каждый запрошенный id.
func (r Resolver[T]) Exact(ctx context.Context, ids []string, what string) ([]T, error) {
	found, err := r(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, apperror.NotFound(fmt.Sprintf("some %s not found", what)).
			WithDetail(fmt.Sprintf("requested %d, resolved %d", len(ids), len(found)))
	}
	return found, nil
}

// References: всё, что нужно для сборки документа.
type References struct {
	User            *models.User
	Schema          *models.StoredSchema
	Cabinet         *models.Cabinet
	Curricula       []models.Curriculum
	Specializations []models.Specialization
}

type Loader struct {
	users   UserRepository
	schemas SchemaRepository
	refs    ReferenceRepository
}

func NewLoader(users UserRepository, schemas SchemaRepository, refs ReferenceRepository) *Loader {
	return &Loader{users: users, schemas: schemas, refs: refs}
}

// Load параллельно загружает связанные записи и проверяет их в фиксированном порядке:
// сначала пользователь и схема, затем полнота списков.
func (l *Loader) Load(ctx context.Context, userID string, req GenerateRequest) (*References, error) {
	var (
		out             References
		curErr, specErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := l.users.GetUserByID(gctx, userID)
		out.User = u
		return ignoreNotFound(err)
	})
	g.Go(func() error {
		s, err := l.schemas.GetSchema(gctx, req.SchemaID)
		out.Schema = s
		return ignoreNotFound(err)
	})
	g.Go(func() error {
		c, err := l.refs.GetCabinet(gctx, req.CabinetID)
		out.Cabinet = c
		return ignoreNotFound(err)
	})
	g.Go(func() error {
		items, err := Resolver[models.Curriculum](l.refs.ResolveCurricula).Exact(gctx, req.CurriculumIDs, "curricula")
		out.Curricula = items
		return splitNotFound(err, &curErr)
	})
	g.Go(func() error {
		items, err := Resolver[models.Specialization](l.refs.ResolveSpecializations).Exact(gctx, req.SpecializationIDs, "specializations")
		out.Specializations = items
		return splitNotFound(err, &specErr)
	})

	if err := g.Wait(); err != nil {
		return nil, apperror.Internal("load references", err)
	}

	if out.User == nil || out.Schema == nil {
		var missing []string
		if out.User == nil {
			missing = append(missing, "user")
		}
		if out.Schema == nil {
			missing = append(missing, "schema")
		}
		return nil, apperror.NotFound("user or schema not found").WithDetail(strings.Join(missing, ", "))
	}
	if curErr != nil {
		return nil, curErr
	}
	if specErr != nil {
		return nil, specErr
	}
	return &out, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// splitNotFound откладывает NotFound до проверки пользователя и схемы,
// остальные ошибки прерывают группу.
func splitNotFound(err error, dst *error) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		*dst = err
		return nil
	}
	return err
}
