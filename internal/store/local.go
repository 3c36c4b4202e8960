package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Local is a Store over a flat directory of backup files. Keys are file
// names; subdirectories are ignored.
type Local struct {
	dir    string
	naming Naming

	mu     sync.RWMutex
	closed bool
}

// NewLocal creates a local store rooted at dir. The directory must exist.
func NewLocal(dir string, naming Naming) (*Local, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local: %s is not a directory", dir)
	}
	return &Local{dir: dir, naming: naming}, nil
}

func (s *Local) checkClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// List scans the directory for backup files matching the naming rule.
func (s *Local) List(ctx context.Context) (Listing, error) {
	if err := s.checkClosed(); err != nil {
		return Listing{}, err
	}
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Listing{}, fmt.Errorf("local: list %s: %w", s.dir, err)
	}

	raw := make([]Backup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		b := Backup{Key: entry.Name()}
		if info, err := entry.Info(); err == nil {
			b.SizeBytes = info.Size()
		}
		raw = append(raw, b)
	}
	return list(s.naming, raw), nil
}

// Delete removes one backup file. Deleting a key that is already gone is not
// an error: a concurrent cleanup reaching the file first is fine.
func (s *Local) Delete(ctx context.Context, key string) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Keys are bare file names; refuse anything that would escape the
	// directory.
	if key != filepath.Base(key) {
		return fmt.Errorf("local: invalid key %q", key)
	}

	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local: delete %s: %w", key, err)
	}
	return nil
}

// Close marks the store closed.
func (s *Local) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
