package storage

import (
	"context"
)

// Storage persists named JSON documents (the player manager database,
// the whitelist and the banlist).
type Storage interface {
	// Load returns the raw document stored under path.
	// It returns model.ErrDocumentNotFound if nothing was saved there yet.
	Load(ctx context.Context, path string) ([]byte, error)

	// Save replaces the document stored under path. A failed save must
	// leave the previously stored document intact.
	Save(ctx context.Context, path string, data []byte) error
}
