// Package store maps backup timestamps to physical backup artifacts.
//
// The rotation library decides which timestamps survive; a Store is the
// collaborator that lists the artifacts behind those timestamps and deletes
// the ones the policy discards. Backends exist for a local directory and for
// S3-compatible object storage.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrKeyMismatch reports a key that does not match the naming rule.
	ErrKeyMismatch = errors.New("store: key does not match naming rule")

	// ErrClosed reports an operation on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Backup is one physical backup artifact with its extracted timestamp.
type Backup struct {
	// Key identifies the artifact within its store (file name, object key).
	Key string

	// Timestamp is the backup instant parsed out of the key.
	Timestamp time.Time

	// SizeBytes is the artifact size, when the backend reports one.
	SizeBytes int64
}

// Listing is the result of scanning a store.
type Listing struct {
	// Backups holds every artifact whose key matched the naming rule.
	Backups []Backup

	// Skipped counts artifacts whose keys did not match. They are never
	// deleted.
	Skipped int
}

// Store lists backup artifacts and deletes the ones rotation discards.
// Implementations never decide retention themselves.
type Store interface {
	List(ctx context.Context) (Listing, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Naming extracts a backup timestamp from an artifact key. A key matches
// when it is Prefix + timestamp + Suffix with the timestamp portion parsing
// under the Go reference layout.
type Naming struct {
	Prefix string
	Layout string
	Suffix string
}

// DefaultLayout is the timestamp layout used when none is configured.
const DefaultLayout = "20060102T150405"

// Timestamp parses the backup instant out of key. Returns ErrKeyMismatch for
// keys produced by anything other than the configured naming scheme, so
// foreign objects sharing the prefix are left alone.
func (n Naming) Timestamp(key string) (time.Time, error) {
	layout := n.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	body, ok := strings.CutPrefix(key, n.Prefix)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q lacks prefix %q", ErrKeyMismatch, key, n.Prefix)
	}
	body, ok = strings.CutSuffix(body, n.Suffix)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q lacks suffix %q", ErrKeyMismatch, key, n.Suffix)
	}
	ts, err := time.Parse(layout, body)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrKeyMismatch, key, err)
	}
	return ts, nil
}

// Key renders the artifact key for a backup taken at ts. Inverse of
// Timestamp.
func (n Naming) Key(ts time.Time) string {
	layout := n.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	return n.Prefix + ts.Format(layout) + n.Suffix
}

// list converts raw (key, size) pairs into a Listing using the naming rule.
// Shared by the backends.
func list(naming Naming, keys []Backup) Listing {
	var out Listing
	for _, raw := range keys {
		ts, err := naming.Timestamp(raw.Key)
		if err != nil {
			out.Skipped++
			continue
		}
		raw.Timestamp = ts
		out.Backups = append(out.Backups, raw)
	}
	return out
}

// ByTimestamp returns the backup holding the given timestamp, matching by
// instant. Callers use it to map a rotation decision back to an artifact.
func (l Listing) ByTimestamp(ts time.Time) (Backup, bool) {
	for _, b := range l.Backups {
		if b.Timestamp.Equal(ts) {
			return b, true
		}
	}
	return Backup{}, false
}
