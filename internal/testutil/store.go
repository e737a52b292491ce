package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pigeon/internal/model"
	"github.com/roach88/pigeon/internal/store"
)

// Epoch is the default fake-clock start used across tests.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// OpenStore opens a store in a temporary directory and closes it when the
// test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pigeon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Event returns a minimal event with the given id, title and timestamp.
func Event(id, title string, timestamp int64) model.Event {
	return model.Event{
		EventID:         id,
		CreatorDeviceID: "NODE-TEST",
		EventType:       model.EventMedical,
		Title:           title,
		Description:     "Description",
		Latitude:        33.8938,
		Longitude:       35.5018,
		Timestamp:       timestamp,
		TTL:             (72 * time.Hour).Milliseconds(),
	}
}

// EventIDs returns the ids of events, in order.
func EventIDs(events []model.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.EventID
	}
	return ids
}
