package session

import (
	"context"
	"time"
)

// Entry is the persisted state of one session id
type Entry struct {
	ID     string
	Values map[string]string
	// ExpiresAt lets backends with native TTLs drop the entry on their own
	ExpiresAt time.Time
}

// Storage is the durability layer. It is read only at startup.
type Storage interface {
	// Load returns every persisted entry
	Load(ctx context.Context) ([]Entry, error)
	// Save replaces all values of entry.ID in one write
	Save(ctx context.Context, entry Entry) error
	// Delete removes every value of id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
