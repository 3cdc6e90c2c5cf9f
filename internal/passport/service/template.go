package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"room-passport/internal/common/logging"

	"github.com/fsnotify/fsnotify"
)

// ============================================================
// Template Source
// ============================================================

// TemplateSource держит байты DOCX-шаблона в памяти и перечитывает их по запросу
// или при изменении файла на диске.
type TemplateSource struct {
	path string
	log  logging.Logger

	mu   sync.RWMutex
	data []byte
}

func NewTemplateSource(path string, log logging.Logger) *TemplateSource {
	if log == nil {
		log = logging.NewNop()
	}
	return &TemplateSource{path: path, log: log.Named("template")}
}

func (s *TemplateSource) Path() string {
	return s.path
}

// Template возвращает закешированный шаблон, при первом вызове читает файл.
func (s *TemplateSource) Template() ([]byte, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data != nil {
		return data, nil
	}
	return s.Reload()
}

func (s *TemplateSource) Reload() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return data, nil
}

// Watch следит за каталогом шаблона до отмены ctx. Каталог, а не файл, нужен потому,
// что редакторы сохраняют документ через переименование временного файла.
func (s *TemplateSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, err := s.Reload(); err != nil {
				s.log.Warn("template reload failed", logging.Err(err))
				continue
			}
			s.log.Info("template reloaded", logging.String("path", s.path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("template watcher error", logging.Err(err))

		case <-ctx.Done():
			return nil
		}
	}
}
