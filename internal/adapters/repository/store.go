// Package repository defines the guidance journal store and its backends.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Entry is one journaled guidance result.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Mood      string    `json:"mood,omitempty"`
	TopLabel  string    `json:"top_emotion"`
	Level     string    `json:"level"`
	Days      int       `json:"days_until_exam"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Entry) validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidEntry)
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("%w: zero created_at", ErrInvalidEntry)
	}
	return nil
}

// Store persists journal entries.
type Store interface {
	// Append stores e. Appending an existing ID is a no-op.
	Append(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Prune deletes entries created before cutoff and reports how many.
	Prune(ctx context.Context, before time.Time) (int, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Open returns the store for backend. dsn is ignored by the memory backend.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, dsn)
	case BackendPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}
