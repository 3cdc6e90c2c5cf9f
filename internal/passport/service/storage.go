package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ============================================================
// File Storage
// ============================================================

var (
	ErrArtifactExists   = errors.New("artifact already exists")
	ErrArtifactNotFound = errors.New("artifact not found")
)

// FileStorage: каталог на диске: плоский для документов, по пользователям для загрузок.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) Root() string {
	return s.root
}

// Path не выпускает имя за пределы корня.
func (s *FileStorage) Path(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

func (s *FileStorage) UserDir(userID string) string {
	return filepath.Join(s.root, filepath.Base(userID))
}

func (s *FileStorage) UploadsDir(userID string) string {
	return filepath.Join(s.UserDir(userID), "uploads")
}

// Resolve превращает путь из БД в путь на диске; относительные пути считаются от корня.
func (s *FileStorage) Resolve(stored string) string {
	if filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(s.root, stored)
}

// Rel: обратная к Resolve операция.
func (s *FileStorage) Rel(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (s *FileStorage) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ============================================================
// ArtifactStore
// ============================================================

func (s *FileStorage) Create(_ context.Context, name string, data []byte) error {
	if err := s.EnsureDir(s.root); err != nil {
		return err
	}

	path := s.Path(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrArtifactExists
		}
		return fmt.Errorf("create %s: %w", name, err)
	}

	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *FileStorage) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (s *FileStorage) Remove(_ context.Context, name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// ============================================================
// Scoped uploads
// ============================================================

// Upload: временный файл загрузки. Commit переносит его на место, Discard удаляет;
// после Commit вызов Discard ничего не делает, поэтому его можно откладывать через defer.
type Upload struct {
	tmp       *os.File
	committed bool
}

// Stage копирует src во временный файл в dir.
func (s *FileStorage) Stage(dir string, src io.Reader) (*Upload, error) {
	if err := s.EnsureDir(dir); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp upload: %w", err)
	}
	u := &Upload{tmp: tmp}
	if _, err := io.Copy(tmp, src); err != nil {
		u.Discard()
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	return u, nil
}

// Reader перематывает временный файл в начало.
func (u *Upload) Reader() (io.ReadSeeker, error) {
	if _, err := u.tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return u.tmp, nil
}

func (u *Upload) Commit(dst string) error {
	if err := u.tmp.Close(); err != nil {
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(u.tmp.Name(), dst); err != nil {
		_ = os.Remove(u.tmp.Name())
		return fmt.Errorf("move upload: %w", err)
	}
	u.committed = true
	return nil
}

func (u *Upload) Discard() {
	if u.committed {
		return
	}
	_ = u.tmp.Close()
	_ = os.Remove(u.tmp.Name())
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
