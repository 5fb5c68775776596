package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/storage"
)

// Storage keeps each document in its own file under a base directory
type Storage struct {
	dir string
}

// New creates a file storage rooted at dir. Relative document paths are
// resolved against dir; absolute paths are used as-is.
func New(dir string) *Storage {
	return &Storage{dir: dir}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// Load reads the whole document file
func (s *Storage) Load(ctx context.Context, path string) ([]byte, error) {
	p := s.resolve(path)
	data, err := os.ReadFile(p) //nolint:gosec // paths come from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// Save replaces the document atomically: natefinch/atomic writes a temp
// file next to the target and renames it over, so a crash mid-write keeps
// the previous file.
func (s *Storage) Save(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := s.resolve(path)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := atomic.WriteFile(p, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}
