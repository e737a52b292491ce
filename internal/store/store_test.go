package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.CreateOrReplace(ctx, createTestEvent("E1", "Water leak", 100)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	events, err := s2.AllEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"E1"}, eventIDs(events), "writes must survive reopen")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"events", "user_profile"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.verifyPragma(ctx, "journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma(ctx, "synchronous", "1"))
	assert.NoError(t, s.verifyPragma(ctx, "busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma(ctx, "user_version", "1"))
}

func TestMigration_CreatesTimestampIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_events_timestamp'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_events_timestamp", name)
}

func TestContainsFoldFunction(t *testing.T) {
	s := createTestStore(t)

	var hit, miss int64
	require.NoError(t, s.db.QueryRow(`SELECT contains_fold('Medical Need', 'MED')`).Scan(&hit))
	require.NoError(t, s.db.QueryRow(`SELECT contains_fold('Water leak', 'med')`).Scan(&miss))
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(0), miss)
}

func TestClosedStore_ReturnsStorageError(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.AllEvents(context.Background())
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	err = s.CreateOrReplace(context.Background(), createTestEvent("E1", "x", 1))
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}
