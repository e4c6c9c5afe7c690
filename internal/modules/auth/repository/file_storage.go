package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/samber/oops"
)

// FileStorage implements Repository with a single file on disk
type FileStorage struct {
	path string
	mu   sync.RWMutex
}

// NewFileStorage creates a new file-based session repository
func NewFileStorage(path string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, oops.With("path", path, "context", "failed to create session directory").Wrap(err)
	}

	return &FileStorage{path: path}, nil
}

func (s *FileStorage) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrSessionNotFound
		}
		return nil, oops.With("path", s.path, "context", "failed to read session").Wrap(err)
	}
	if len(data) == 0 {
		return nil, errors.ErrSessionNotFound
	}

	return data, nil
}

// Save writes through a temp file so a crash never leaves a torn session.
func (s *FileStorage) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0600); err != nil {
		return oops.With("path", tmp, "context", "failed to write session").Wrap(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return oops.With("path", s.path, "context", "failed to replace session").Wrap(err)
	}
	return nil
}

func (s *FileStorage) Close(_ context.Context) error { return nil }
