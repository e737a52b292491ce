package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/roach88/pigeon/internal/bundle"
	"github.com/roach88/pigeon/internal/clock"
)

// Export writes every event to w as a bundle attributed to origin and
// returns the number of events written.
func (l *Ledger) Export(ctx context.Context, w io.Writer, origin string) (int, error) {
	events, err := l.events.AllEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	b := bundle.Bundle{
		Version:   bundle.Version,
		Origin:    origin,
		CreatedAt: clock.Millis(l.clock.Now()),
		Events:    events,
	}
	if err := bundle.Write(w, b); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	l.logger.Info("ledger exported", "events", len(events), "origin", origin)
	return len(events), nil
}

// Import merges a bundle into the ledger in one transaction. Events are
// matched by id and the bundle's copy wins, the same rule as any other
// write. Nothing is stored if any event lacks an id.
func (l *Ledger) Import(ctx context.Context, r io.Reader) (int, error) {
	b, err := bundle.Read(r)
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	for i, e := range b.Events {
		if e.EventID == "" {
			return 0, fmt.Errorf("import: event %d has no id: %w", i, ErrInvalidEvent)
		}
	}
	if err := l.events.CreateOrReplaceBatch(ctx, b.Events); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	l.logger.Info("bundle imported", "events", len(b.Events), "origin", b.Origin)
	return len(b.Events), nil
}
