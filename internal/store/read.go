package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pigeon/internal/model"
)

const selectEventColumns = `
	SELECT event_id, creator_device_id, event_type, title, description,
	       latitude, longitude, timestamp, is_resolved, ttl
	FROM events
`

// AllEvents returns every event, most recent first.
//
// Returns an empty slice (not nil) when the ledger is empty.
func (s *Store) AllEvents(ctx context.Context) ([]model.Event, error) {
	return s.queryEvents(ctx, "all events",
		selectEventColumns+`ORDER BY timestamp DESC, event_id ASC`)
}

// UnresolvedEvents returns events with is_resolved = 0, most recent first.
func (s *Store) UnresolvedEvents(ctx context.Context) ([]model.Event, error) {
	return s.queryEvents(ctx, "unresolved events",
		selectEventColumns+`WHERE is_resolved = 0 ORDER BY timestamp DESC, event_id ASC`)
}

// Search returns events whose title or description contains query,
// ignoring case. The query is used as given: an empty query matches every
// event, and trimming is left to the caller.
func (s *Store) Search(ctx context.Context, query string) ([]model.Event, error) {
	return s.queryEvents(ctx, "search events",
		selectEventColumns+`
		WHERE contains_fold(title, ?) OR contains_fold(description, ?)
		ORDER BY timestamp DESC, event_id ASC`,
		query, query)
}

// Event returns a single event by id, or an error wrapping ErrNotFound.
func (s *Store) Event(ctx context.Context, eventID string) (model.Event, error) {
	row := s.db.QueryRowContext(ctx, selectEventColumns+`WHERE event_id = ?`, eventID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return model.Event{}, storageErr("read event", err)
	}
	return e, nil
}

// CountEvents returns the number of events in the ledger.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, storageErr("count events", err)
	}
	return n, nil
}

func (s *Store) queryEvents(ctx context.Context, op, query string, args ...any) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(op, fmt.Errorf("iterate: %w", err))
	}

	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (model.Event, error) {
	var (
		e         model.Event
		eventType string
	)
	err := row.Scan(
		&e.EventID,
		&e.CreatorDeviceID,
		&eventType,
		&e.Title,
		&e.Description,
		&e.Latitude,
		&e.Longitude,
		&e.Timestamp,
		&e.IsResolved,
		&e.TTL,
	)
	if err != nil {
		return model.Event{}, err
	}
	e.EventType = model.EventType(eventType)
	return e, nil
}
