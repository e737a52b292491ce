// Package ledger is the event repository used by the CLI. It puts id and
// timestamp assignment, seeding, search normalisation, filtered live
// views and bundle exchange on top of the raw event store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/pigeon/internal/clock"
	"github.com/roach88/pigeon/internal/filter"
	"github.com/roach88/pigeon/internal/model"
	"github.com/roach88/pigeon/internal/seed"
	"github.com/roach88/pigeon/internal/store"
)

// DefaultTTL is stored on events created without an explicit TTL.
const DefaultTTL = 72 * time.Hour

// ErrInvalidEvent is wrapped by errors for drafts or imported events that
// cannot be stored.
var ErrInvalidEvent = errors.New("invalid event")

// EventStore is the storage the ledger writes through. *store.Store
// satisfies it.
type EventStore interface {
	AllEvents(ctx context.Context) ([]model.Event, error)
	UnresolvedEvents(ctx context.Context) ([]model.Event, error)
	Search(ctx context.Context, query string) ([]model.Event, error)
	Event(ctx context.Context, eventID string) (model.Event, error)
	CountEvents(ctx context.Context) (int, error)
	CreateOrReplace(ctx context.Context, e model.Event) error
	CreateOrReplaceBatch(ctx context.Context, events []model.Event) error
	SetResolved(ctx context.Context, eventID string, resolved bool) error
	ClearAll(ctx context.Context) error
	WatchAll(ctx context.Context) *store.Subscription[[]model.Event]
}

// Draft is a new report before the ledger assigns its id and timestamp.
type Draft struct {
	EventType   model.EventType
	Title       string
	Description string
	Latitude    float64
	Longitude   float64

	// TTL defaults to DefaultTTL when zero. It is stored only.
	TTL time.Duration
}

// Ledger is the event repository.
type Ledger struct {
	events EventStore
	clock  clock.Clock
	seeder *seed.Generator
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source for event timestamps and bundle headers.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithSeeder sets the generator Seed uses. Defaults to seed.DefaultConfig
// on the ledger's clock.
func WithSeeder(g *seed.Generator) Option {
	return func(l *Ledger) { l.seeder = g }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Ledger over events.
func New(events EventStore, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		events: events,
		clock:  clock.Real(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.seeder == nil {
		g, err := seed.New(seed.DefaultConfig(), seed.WithClock(l.clock))
		if err != nil {
			return nil, fmt.Errorf("default seeder: %w", err)
		}
		l.seeder = g
	}
	return l, nil
}

// Create stores a new unresolved event reported by creator. The ledger
// assigns a random UUID and the current time.
func (l *Ledger) Create(ctx context.Context, creator string, d Draft) (model.Event, error) {
	if !d.EventType.Valid() {
		return model.Event{}, fmt.Errorf("create event: type %q: %w", d.EventType, ErrInvalidEvent)
	}
	ttl := d.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	e := model.Event{
		EventID:         uuid.NewString(),
		CreatorDeviceID: creator,
		EventType:       d.EventType,
		Title:           d.Title,
		Description:     d.Description,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		Timestamp:       clock.Millis(l.clock.Now()),
		TTL:             ttl.Milliseconds(),
	}
	if err := l.events.CreateOrReplace(ctx, e); err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}

	l.logger.Info("event created", "event_id", e.EventID, "event_type", e.EventType, "creator", creator)
	return e, nil
}

// Get returns one event by id.
func (l *Ledger) Get(ctx context.Context, eventID string) (model.Event, error) {
	return l.events.Event(ctx, eventID)
}

// Resolve marks an event resolved. Resolving twice is not an error; an
// unknown id yields an error wrapping store.ErrNotFound.
func (l *Ledger) Resolve(ctx context.Context, eventID string) error {
	if err := l.events.SetResolved(ctx, eventID, true); err != nil {
		return fmt.Errorf("resolve event: %w", err)
	}
	l.logger.Info("event resolved", "event_id", eventID)
	return nil
}

// Search returns events whose title or description contains query,
// ignoring case. The query is trimmed; a blank query returns every event.
func (l *Ledger) Search(ctx context.Context, query string) ([]model.Event, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return l.events.AllEvents(ctx)
	}
	return l.events.Search(ctx, query)
}

// Events returns a one-shot filtered list, most recent first.
func (l *Ledger) Events(ctx context.Context, mode filter.Mode, query string) ([]model.Event, error) {
	var (
		events []model.Event
		err    error
	)
	if mode == filter.ModeUnresolved {
		events, err = l.events.UnresolvedEvents(ctx)
	} else {
		events, err = l.events.AllEvents(ctx)
	}
	if err != nil {
		return nil, err
	}
	return filter.Apply(events, mode, query), nil
}

// Seed fills an empty ledger with generated events and returns how many
// were stored. A ledger that already holds events is left alone and 0 is
// returned.
func (l *Ledger) Seed(ctx context.Context) (int, error) {
	n, err := l.events.CountEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		l.logger.Debug("seed skipped, ledger not empty", "events", n)
		return 0, nil
	}

	events, err := l.seeder.Generate()
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if err := l.events.CreateOrReplaceBatch(ctx, events); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}

	l.logger.Info("ledger seeded", "events", len(events))
	return len(events), nil
}

// ClearAll deletes every event.
func (l *Ledger) ClearAll(ctx context.Context) error {
	if err := l.events.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	l.logger.Info("ledger cleared")
	return nil
}
