package database

import (
	"strings"
	"sync"

	"github.com/mcoot/playermanager/internal/model"
)

// NameList is an ordered set of player names guarded by its own lock
type NameList struct {
	name string

	mu    sync.Mutex
	names []string
}

func newNameList(name string) *NameList {
	return &NameList{name: name}
}

// Name returns the document name of the list
func (l *NameList) Name() string {
	return l.name
}

// List returns the names in insertion order
func (l *NameList) List() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Contains reports whether name is listed
func (l *NameList) Contains(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.indexOf(name) >= 0
}

// Add appends name. It returns false if the name was already listed.
func (l *NameList) Add(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, model.ErrInvalidName
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOf(name) >= 0 {
		return false, nil
	}
	l.names = append(l.names, name)
	return true, nil
}

// Remove deletes name, keeping the order of the others
func (l *NameList) Remove(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(strings.TrimSpace(name))
	if i < 0 {
		return model.ErrNameNotListed
	}
	l.names = append(l.names[:i], l.names[i+1:]...)
	return nil
}

func (l *NameList) indexOf(name string) int {
	for i, n := range l.names {
		if n == name {
			return i
		}
	}
	return -1
}

// snapshot returns a copy for saving; nil means the list was never loaded
func (l *NameList) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.names == nil {
		return nil
	}
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func (l *NameList) replace(names []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = dedupe(names)
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
