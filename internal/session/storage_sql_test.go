package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huahuacuna/internal/database"
)

func newSQLStorage(t *testing.T) *SQLStorage {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(ctx))
	return NewSQLStorage(db)
}

func TestSQLStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	storage := newSQLStorage(t)

	require.NoError(t, storage.Save(ctx, Entry{ID: "a", Values: map[string]string{KeyToken: "t1", KeyUser: "u1"}}))
	require.NoError(t, storage.Save(ctx, Entry{ID: "b", Values: map[string]string{KeyToken: "t2"}}))
	// replace drops keys that are no longer present
	require.NoError(t, storage.Save(ctx, Entry{ID: "a", Values: map[string]string{KeyToken: "t3"}}))

	entries, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, map[string]string{KeyToken: "t3"}, entries[0].Values)

	require.NoError(t, storage.Delete(ctx, "a"))
	require.NoError(t, storage.Delete(ctx, "missing"))
	entries, err = storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)
}

func TestStoreOverSQLStorageSurvivesRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	storage := newSQLStorage(t)
	sealer := testSealer(t)
	token := signToken(t, time.Now().Add(time.Hour))

	_, err := NewStore(storage, sealer).Set(ctx, "sid", ana, token)
	require.NoError(t, err)

	restarted := NewStore(storage, sealer)
	res, err := restarted.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Restored)

	got, ok := restarted.Get(ctx, "sid")
	require.True(t, ok)
	assert.Equal(t, ana, got.User)
	assert.Equal(t, token, got.Token)
}
