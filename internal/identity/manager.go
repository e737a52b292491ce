package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/pigeon/internal/clock"
	"github.com/roach88/pigeon/internal/model"
	"github.com/roach88/pigeon/internal/store"
)

// DefaultTickInterval is how often Countdown re-derives the lock state.
const DefaultTickInterval = time.Second

// UserStore is the single-slot identity storage the manager writes through.
// *store.Store satisfies it.
type UserStore interface {
	UserSnapshot(ctx context.Context) (*model.User, error)
	UpsertUser(ctx context.Context, u model.User) error
	WatchUser(ctx context.Context) *store.Subscription[*model.User]
}

// Candidate holds the user-editable identity fields. The node name and
// timestamp are deliberately absent: the manager owns both.
type Candidate struct {
	DisplayName string     `json:"display_name"`
	Role        model.Role `json:"role"`
	IsAnonymous bool       `json:"is_anonymous"`
}

// Manager applies the lock policy on top of a UserStore.
type Manager struct {
	users        UserStore
	clock        clock.Clock
	names        NameGenerator
	lockDuration time.Duration
	tick         time.Duration
	logger       *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source. Defaults to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithNameGenerator sets the node-name source. Defaults to UUIDNames.
func WithNameGenerator(g NameGenerator) Option {
	return func(m *Manager) { m.names = g }
}

// WithLockDuration overrides DefaultLockDuration.
func WithLockDuration(d time.Duration) Option {
	return func(m *Manager) { m.lockDuration = d }
}

// WithTickInterval overrides DefaultTickInterval for Countdown.
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tick = d }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager over users.
func New(users UserStore, opts ...Option) *Manager {
	m := &Manager{
		users:        users,
		clock:        clock.Real(),
		names:        UUIDNames{},
		lockDuration: DefaultLockDuration,
		tick:         DefaultTickInterval,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LockDuration returns the configured lock window.
func (m *Manager) LockDuration() time.Duration {
	return m.lockDuration
}

// SaveIdentity writes the candidate as the identity record.
//
//  1. Read the current record, if any.
//  2. Keep its node name; generate one only when there is no record or
//     its node name is empty.
//  3. Stamp LastUpdatedTimestamp with the current time.
//  4. Upsert.
//
// Every save re-arms the lock. SaveIdentity does not itself refuse saves
// inside the lock window; see CheckEditable.
func (m *Manager) SaveIdentity(ctx context.Context, c Candidate) (model.User, error) {
	existing, err := m.users.UserSnapshot(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("save identity: %w", err)
	}

	nodeName := ""
	if existing != nil {
		nodeName = existing.NodeName
	}
	generated := nodeName == ""
	if generated {
		nodeName = m.names.Generate()
	}

	u := model.User{
		ID:                   model.UserID,
		DisplayName:          c.DisplayName,
		Role:                 c.Role,
		NodeName:             nodeName,
		IsAnonymous:          c.IsAnonymous,
		LastUpdatedTimestamp: clock.Millis(m.clock.Now()),
	}
	if err := m.users.UpsertUser(ctx, u); err != nil {
		return model.User{}, fmt.Errorf("save identity: %w", err)
	}

	m.logger.Info("identity saved",
		"node_name", u.NodeName,
		"role", u.Role,
		"node_name_generated", generated,
		"locked_until", time.UnixMilli(u.LastUpdatedTimestamp).Add(m.lockDuration).UTC(),
	)
	return u, nil
}

// User returns the identity record, or nil before the first save.
func (m *Manager) User(ctx context.Context) (*model.User, error) {
	return m.users.UserSnapshot(ctx)
}

// Watch follows the identity record. A nil value means none exists.
func (m *Manager) Watch(ctx context.Context) *store.Subscription[*model.User] {
	return m.users.WatchUser(ctx)
}

// LockState derives the lock state at the current instant.
func (m *Manager) LockState(ctx context.Context) (State, error) {
	u, err := m.users.UserSnapshot(ctx)
	if err != nil {
		return State{}, fmt.Errorf("lock state: %w", err)
	}
	return m.derive(u), nil
}

// IsLocked reports whether edits are currently disallowed.
func (m *Manager) IsLocked(ctx context.Context) (bool, error) {
	s, err := m.LockState(ctx)
	return s.Locked, err
}

// RemainingLockMillis returns the milliseconds left in the lock window, or
// zero when unlocked or absent.
func (m *Manager) RemainingLockMillis(ctx context.Context) (int64, error) {
	s, err := m.LockState(ctx)
	return s.RemainingMillis(), err
}

// RemainingLockText returns the countdown text: HH:MM:SS while locked,
// UnlockedText once the window has passed, empty when no identity exists.
func (m *Manager) RemainingLockText(ctx context.Context) (string, error) {
	s, err := m.LockState(ctx)
	return s.Text, err
}

// CheckEditable returns a *LockedError while the identity is locked and
// nil otherwise.
func (m *Manager) CheckEditable(ctx context.Context) error {
	s, err := m.LockState(ctx)
	if err != nil {
		return err
	}
	if s.Locked {
		return &LockedError{Remaining: s.Remaining}
	}
	return nil
}

// LockFeed is a live lock countdown. C closes when the watch context is
// cancelled or reading the identity fails.
type LockFeed struct {
	C <-chan State

	done chan struct{}
	err  error
}

// Err reports the storage failure that ended the feed, or nil. It blocks
// until C is closed.
func (f *LockFeed) Err() error {
	<-f.done
	return f.err
}

// Countdown emits the lock state whenever the identity changes and on
// every tick of the clock. The channel holds only the latest state, so a
// slow reader skips ticks rather than stalling the loop. Nothing is
// emitted until the identity has been read once.
//
// Cancelling ctx stops the ticker and closes the channel.
func (m *Manager) Countdown(ctx context.Context) *LockFeed {
	out := make(chan State, 1)
	feed := &LockFeed{C: out, done: make(chan struct{})}
	sub := m.users.WatchUser(ctx)
	ticker := m.clock.NewTicker(m.tick)

	go func() {
		defer close(feed.done)
		defer close(out)
		defer ticker.Stop()

		var (
			user *model.User
			seen bool
		)
		for {
			select {
			case u, ok := <-sub.C:
				if !ok {
					if err := sub.Err(); err != nil {
						m.logger.Error("countdown stopped", "error", err)
						feed.err = fmt.Errorf("countdown: %w", err)
					}
					return
				}
				user, seen = u, true
			case <-ticker.C:
				if !seen {
					continue
				}
			case <-ctx.Done():
				return
			}

			state := m.derive(user)
			select {
			case <-out:
			default:
			}
			out <- state
		}
	}()

	return feed
}

func (m *Manager) derive(u *model.User) State {
	if u == nil {
		return State{}
	}
	return Derive(time.UnixMilli(u.LastUpdatedTimestamp), m.clock.Now(), m.lockDuration)
}
