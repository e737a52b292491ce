package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/pigeon/internal/model"
)

const upsertEventSQL = `
	INSERT INTO events
	(event_id, creator_device_id, event_type, title, description, latitude, longitude, timestamp, is_resolved, ttl)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(event_id) DO UPDATE SET
		creator_device_id = excluded.creator_device_id,
		event_type        = excluded.event_type,
		title             = excluded.title,
		description       = excluded.description,
		latitude          = excluded.latitude,
		longitude         = excluded.longitude,
		timestamp         = excluded.timestamp,
		is_resolved       = excluded.is_resolved,
		ttl               = excluded.ttl
`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateOrReplace upserts an event by EventID. An existing record with the
// same id is overwritten in full; nothing is merged. Duplicates are not an
// error.
func (s *Store) CreateOrReplace(ctx context.Context, e model.Event) error {
	if err := upsertEvent(ctx, s.db, e); err != nil {
		return storageErr("upsert event", err)
	}
	s.logger.Debug("event stored", "event_id", e.EventID, "event_type", e.EventType)
	s.eventsChanged.notify()
	return nil
}

// CreateOrReplaceBatch upserts every event in a single transaction: either
// all of them commit or none do. Later entries win over earlier entries
// with the same id.
func (s *Store) CreateOrReplaceBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("upsert batch: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, e := range events {
		if err := upsertEvent(ctx, tx, e); err != nil {
			return storageErr("upsert batch", fmt.Errorf("event %q: %w", e.EventID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("upsert batch: commit", err)
	}

	s.logger.Debug("event batch stored", "count", len(events))
	s.eventsChanged.notify()
	return nil
}

// SetResolved updates only the is_resolved flag of one event.
//
// Returns an error wrapping ErrNotFound if no event has the id. Setting the
// flag to its current value succeeds, so resolving twice is idempotent.
func (s *Store) SetResolved(ctx context.Context, eventID string, resolved bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE events SET is_resolved = ? WHERE event_id = ?`,
		resolved, eventID,
	)
	if err != nil {
		return storageErr("set resolved", err)
	}

	// SQLite counts matched rows, including rows already holding the value.
	n, err := result.RowsAffected()
	if err != nil {
		return storageErr("set resolved: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("set resolved %q: %w", eventID, ErrNotFound)
	}

	s.logger.Debug("event resolution updated", "event_id", eventID, "resolved", resolved)
	s.eventsChanged.notify()
	return nil
}

// ClearAll deletes every event. The identity record is untouched.
func (s *Store) ClearAll(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return storageErr("clear events", err)
	}
	n, _ := result.RowsAffected()
	s.logger.Debug("events cleared", "count", n)
	s.eventsChanged.notify()
	return nil
}

func upsertEvent(ctx context.Context, db execer, e model.Event) error {
	_, err := db.ExecContext(ctx, upsertEventSQL,
		e.EventID,
		e.CreatorDeviceID,
		string(e.EventType),
		e.Title,
		e.Description,
		e.Latitude,
		e.Longitude,
		e.Timestamp,
		e.IsResolved,
		e.TTL,
	)
	return err
}
