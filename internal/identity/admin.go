package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/pigeon/internal/clock"
)

// Admin exposes development-only operations that step outside the lock
// policy. It can only be obtained with debug tooling enabled, which
// production configurations leave off.
type Admin struct {
	m *Manager
}

// NewAdmin returns ErrDebugDisabled unless enabled is true.
func NewAdmin(m *Manager, enabled bool) (*Admin, error) {
	if !enabled {
		return nil, ErrDebugDisabled
	}
	return &Admin{m: m}, nil
}

// ResetLockTimer back-dates the identity's LastUpdatedTimestamp by one
// full lock window so that it reads as Unlocked immediately. All other
// fields, including the node name, are kept. Returns false when there is
// no identity to reset.
func (a *Admin) ResetLockTimer(ctx context.Context) (bool, error) {
	u, err := a.m.users.UserSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("reset lock timer: %w", err)
	}
	if u == nil {
		return false, nil
	}

	backdated := a.m.clock.Now().Add(-a.m.lockDuration)
	u.LastUpdatedTimestamp = clock.Millis(backdated)
	if err := a.m.users.UpsertUser(ctx, *u); err != nil {
		return false, fmt.Errorf("reset lock timer: %w", err)
	}

	a.m.logger.Warn("identity lock timer reset",
		"node_name", u.NodeName,
		"backdated_to", backdated.UTC().Format(time.RFC3339),
	)
	return true, nil
}
