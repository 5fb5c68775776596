package database

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPath is returned when a document has no configured path
	ErrNoPath = errors.New("no path provided")
	// ErrNoRecordSet is returned when a record set was never loaded
	ErrNoRecordSet = errors.New("no record set provided")
)

// PersistenceError describes a failed write of one document
type PersistenceError struct {
	Document string
	Path     string
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("saving %s: %v", e.Document, e.Err)
	}
	return fmt.Sprintf("saving %s to %s: %v", e.Document, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
