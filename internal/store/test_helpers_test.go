package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pigeon/internal/model"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates a test event with minimal required fields.
func createTestEvent(id, title string, timestamp int64) model.Event {
	return model.Event{
		EventID:         id,
		CreatorDeviceID: "NODE-TEST",
		EventType:       model.EventMedical,
		Title:           title,
		Description:     "Description",
		Latitude:        33.8938,
		Longitude:       35.5018,
		Timestamp:       timestamp,
		TTL:             259200000,
	}
}

func eventIDs(events []model.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.EventID
	}
	return ids
}
