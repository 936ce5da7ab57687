package session

import (
	"context"
	"fmt"

	"huahuacuna/internal/database"
)

// SQLStorage persists entries in the session_storage table
type SQLStorage struct {
	db *database.DB
}

// NewSQLStorage wraps a migrated database
func NewSQLStorage(db *database.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, storage_key, value FROM session_storage ORDER BY session_id")
	if err != nil {
		return nil, fmt.Errorf("failed to load session storage: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	index := make(map[string]int)
	for rows.Next() {
		var id, key, value string
		if err := rows.Scan(&id, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session storage: %w", err)
		}
		i, ok := index[id]
		if !ok {
			i = len(entries)
			index[id] = i
			entries = append(entries, Entry{ID: id, Values: make(map[string]string)})
		}
		entries[i].Values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session storage: %w", err)
	}
	return entries, nil
}

func (s *SQLStorage) Save(ctx context.Context, entry Entry) error {
	upsert := s.db.Dialect.UpsertStorageQuery()
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM session_storage WHERE session_id = ?", entry.ID); err != nil {
			return fmt.Errorf("failed to clear session %s: %w", entry.ID, err)
		}
		for key, value := range entry.Values {
			if _, err := tx.ExecContext(ctx, upsert, entry.ID, key, value); err != nil {
				return fmt.Errorf("failed to save %s for session %s: %w", key, entry.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLStorage) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_storage WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}
