package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"room-passport/internal/common/apperror"
	"room-passport/internal/common/logging"
	"room-passport/internal/common/metrics"
	"room-passport/internal/passport/models"
	"room-passport/internal/passport/repository"

	"github.com/google/uuid"
)

// ============================================================
// Passport Store
// ============================================================

const (
	DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	maxNameAttempts = 100
)

// Generated: результат генерации, отдаётся клиенту сразу вложением.
type Generated struct {
	Passport *models.Passport
	Content  []byte
}

type PassportStore struct {
	repo      PassportRepository
	artifacts ArtifactStore
	assembler *Assembler
	log       logging.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

func NewPassportStore(repo PassportRepository, artifacts ArtifactStore, assembler *Assembler, log logging.Logger, m *metrics.Metrics) *PassportStore {
	if log == nil {
		log = logging.NewNop()
	}
	return &PassportStore{
		repo:      repo,
		artifacts: artifacts,
		assembler: assembler,
		log:       log.Named("passports"),
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Generate собирает документ, затем пишет строку, список владельца и файл.
// Все проверки выполняются до первой записи.
func (s *PassportStore) Generate(ctx context.Context, userID string, req GenerateRequest) (*Generated, error) {
	doc, err := s.assembler.Assemble(ctx, userID, req)
	if err != nil {
		s.observe(err, 0)
		return nil, err
	}

	out, err := s.save(ctx, doc)
	if err != nil {
		s.observe(err, 0)
		return nil, err
	}
	s.observe(nil, len(out.Content))
	return out, nil
}

func (s *PassportStore) save(ctx context.Context, doc *Document) (*Generated, error) {
	p := &models.Passport{
		ID:                s.newID(),
		CabinetIDs:        doc.CabinetIDs,
		CurriculumIDs:     doc.CurriculumIDs,
		SpecializationIDs: doc.SpecializationIDs,
		CreatorID:         doc.CreatorID,
		SchemaID:          doc.SchemaID,
	}

	// 1. строка без имени файла
	if err := s.repo.CreatePassport(ctx, p); err != nil {
		return nil, apperror.Internal("Document generation failed", err)
	}

	// 2. список владельца; сбой не теряется, а откладывается
	if err := s.repo.AppendUserPassport(ctx, p.CreatorID, p.ID); err != nil {
		s.log.Error("append passport to owner list failed",
			logging.String("passport_id", p.ID), logging.String("user_id", p.CreatorID), logging.Err(err))
		s.postpone(ctx, models.TaskAppendUserPassport, p.CreatorID, p.ID)
	}

	// 3. файл
	name, err := s.writeArtifact(ctx, doc)
	if err != nil {
		s.rollback(ctx, p, "")
		return nil, apperror.Internal("Document generation failed", err)
	}

	// 4. имя файла в строке
	if err := s.repo.SetPassportFile(ctx, p.ID, name); err != nil {
		s.rollback(ctx, p, name)
		return nil, apperror.Internal("Document generation failed", err)
	}
	p.FileName = name

	s.log.Info("passport generated",
		logging.String("passport_id", p.ID),
		logging.String("file", name),
		logging.Int("size", len(doc.Content)))
	return &Generated{Passport: p, Content: doc.Content}, nil
}

// writeArtifact сдвигает метку времени, пока имя занято.
func (s *PassportStore) writeArtifact(ctx context.Context, doc *Document) (string, error) {
	ts := s.now()
	for i := 0; i < maxNameAttempts; i++ {
		name := passportFileName(doc.CabinetNumber, ts)
		err := s.artifacts.Create(ctx, name, doc.Content)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrArtifactExists) {
			return "", err
		}
		ts = ts.Add(time.Millisecond)
	}
	return "", fmt.Errorf("no free file name after %d attempts", maxNameAttempts)
}

func (s *PassportStore) rollback(ctx context.Context, p *models.Passport, name string) {
	if name != "" {
		if err := s.artifacts.Remove(ctx, name); err != nil {
			s.log.Warn("rollback: remove file", logging.String("file", name), logging.Err(err))
		}
	}
	if err := s.repo.DeletePassport(ctx, p.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("rollback: delete passport", logging.String("passport_id", p.ID), logging.Err(err))
	}
	if err := s.repo.RemoveUserPassport(ctx, p.CreatorID, p.ID); err != nil {
		s.log.Warn("rollback: remove from owner list", logging.String("passport_id", p.ID), logging.Err(err))
	}
	if err := s.repo.CancelReconciliationTasks(ctx, p.ID); err != nil {
		s.log.Warn("rollback: cancel reconciliation tasks", logging.String("passport_id", p.ID), logging.Err(err))
	}
}

// ============================================================
// Download / Delete / List
// ============================================================

// Download возвращает байты и сохранённое имя файла.
func (s *PassportStore) Download(ctx context.Context, id string) ([]byte, string, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if p.FileName == "" {
		return nil, "", apperror.NotFound("File not found")
	}

	data, err := s.artifacts.Read(ctx, p.FileName)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return nil, "", apperror.NotFound("File not found").WithDetail(p.FileName)
		}
		return nil, "", apperror.Internal("read passport file", err)
	}
	return data, p.FileName, nil
}

// Delete удаляет файл (его отсутствие не ошибка), строку и ссылку из списка владельца.
func (s *PassportStore) Delete(ctx context.Context, id string) error {
	p, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if p.FileName != "" {
		if err := s.artifacts.Remove(ctx, p.FileName); err != nil {
			return apperror.Internal("remove passport file", err)
		}
	}

	if err := s.repo.DeletePassport(ctx, p.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Passport not found")
		}
		return apperror.Internal("delete passport", err)
	}

	if err := s.repo.RemoveUserPassport(ctx, p.CreatorID, p.ID); err != nil {
		s.log.Error("remove passport from owner list failed",
			logging.String("passport_id", p.ID), logging.String("user_id", p.CreatorID), logging.Err(err))
		s.postpone(ctx, models.TaskRemoveUserPassport, p.CreatorID, p.ID)
	}

	s.log.Info("passport deleted", logging.String("passport_id", p.ID))
	return nil
}

func (s *PassportStore) List(ctx context.Context, userID string) ([]models.Passport, error) {
	items, err := s.repo.ListUserPassports(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("list passports", err)
	}
	return items, nil
}

func (s *PassportStore) get(ctx context.Context, id string) (*models.Passport, error) {
	p, err := s.repo.GetPassport(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("Passport not found")
		}
		return nil, apperror.Internal("load passport", err)
	}
	return p, nil
}

// ============================================================
// Reconciliation
// ============================================================

func (s *PassportStore) postpone(ctx context.Context, kind models.TaskKind, userID, passportID string) {
	task := &models.ReconciliationTask{
		ID:         s.newID(),
		Kind:       kind,
		UserID:     userID,
		PassportID: passportID,
	}
	if err := s.repo.AddReconciliationTask(ctx, task); err != nil {
		s.log.Error("persist reconciliation task failed",
			logging.String("kind", string(kind)), logging.String("passport_id", passportID), logging.Err(err))
	}
}

// Reconcile повторяет отложенные изменения списков владельцев и возвращает число выполненных.
func (s *PassportStore) Reconcile(ctx context.Context) (int, error) {
	tasks, err := s.repo.PendingReconciliationTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load reconciliation tasks: %w", err)
	}

	done := 0
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		var runErr error
		switch t.Kind {
		case models.TaskAppendUserPassport:
			runErr = s.replayAppend(ctx, t)
		case models.TaskRemoveUserPassport:
			runErr = s.repo.RemoveUserPassport(ctx, t.UserID, t.PassportID)
		default:
			runErr = fmt.Errorf("unknown task kind %q", t.Kind)
		}
		if s.metrics != nil {
			s.metrics.TaskReconciled(runErr)
		}

		if runErr != nil {
			s.log.Warn("reconciliation task failed", logging.String("task_id", t.ID), logging.Err(runErr))
			if err := s.repo.FailReconciliationTask(ctx, t.ID, runErr); err != nil {
				return done, fmt.Errorf("record task failure: %w", err)
			}
			continue
		}
		if err := s.repo.CompleteReconciliationTask(ctx, t.ID); err != nil {
			return done, fmt.Errorf("complete task: %w", err)
		}
		done++
	}
	return done, nil
}

// replayAppend не возвращает в список паспорт, строки которого уже нет.
func (s *PassportStore) replayAppend(ctx context.Context, t models.ReconciliationTask) error {
	if _, err := s.repo.GetPassport(ctx, t.PassportID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("reconciliation: passport gone, append skipped",
				logging.String("task_id", t.ID), logging.String("passport_id", t.PassportID))
			return nil
		}
		return err
	}
	return s.repo.AppendUserPassport(ctx, t.UserID, t.PassportID)
}

func (s *PassportStore) observe(err error, size int) {
	if s.metrics != nil {
		s.metrics.PassportGenerated(err, size)
	}
}
