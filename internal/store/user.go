package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/pigeon/internal/model"
)

// UserSnapshot returns the identity record, or nil if none has been saved.
// It is a point-in-time read; use WatchUser to follow changes.
func (s *Store) UserSnapshot(ctx context.Context) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, role, node_name, is_anonymous, last_updated_timestamp
		FROM user_profile
		WHERE id = ?
	`, model.UserID).Scan(
		&u.ID,
		&u.DisplayName,
		&role,
		&u.NodeName,
		&u.IsAnonymous,
		&u.LastUpdatedTimestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("read user", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

// UpsertUser writes the identity record. The id is always model.UserID,
// whatever u.ID holds, so at most one record can exist.
//
// Fields are written as given. Stamping LastUpdatedTimestamp and keeping
// NodeName stable are the identity manager's job.
func (s *Store) UpsertUser(ctx context.Context, u model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profile
		(id, display_name, role, node_name, is_anonymous, last_updated_timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name           = excluded.display_name,
			role                   = excluded.role,
			node_name              = excluded.node_name,
			is_anonymous           = excluded.is_anonymous,
			last_updated_timestamp = excluded.last_updated_timestamp
	`,
		model.UserID,
		u.DisplayName,
		string(u.Role),
		u.NodeName,
		u.IsAnonymous,
		u.LastUpdatedTimestamp,
	)
	if err != nil {
		return storageErr("upsert user", err)
	}

	s.logger.Debug("user stored", "node_name", u.NodeName)
	s.userChanged.notify()
	return nil
}
