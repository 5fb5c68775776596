package memory

import (
	"context"
	"sync"

	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu        sync.RWMutex
	documents map[string][]byte

	saveErr error
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		documents: make(map[string][]byte),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.documents[path]
	if !ok {
		return nil, model.ErrDocumentNotFound
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (s *Storage) Save(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.documents[path] = stored
	return nil
}

// Paths returns the paths of every stored document
func (s *Storage) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.documents))
	for p := range s.documents {
		paths = append(paths, p)
	}
	return paths
}

// SetSaveErr makes every later Save return err (nil restores normal saves)
func (s *Storage) SetSaveErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}
