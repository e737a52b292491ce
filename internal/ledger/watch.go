package ledger

import (
	"context"

	"github.com/roach88/pigeon/internal/filter"
	"github.com/roach88/pigeon/internal/model"
	"github.com/roach88/pigeon/internal/store"
)

// Feed is a live filtered event list. C closes when the watch context is
// cancelled or the underlying store read fails.
type Feed struct {
	C <-chan []model.Event

	sub *store.Subscription[[]model.Event]
}

// Err reports the storage failure that ended the feed, or nil. It blocks
// until the underlying subscription has ended.
func (f *Feed) Err() error {
	return f.sub.Err()
}

// Watch follows the whole ledger through v. Changing v's mode or query
// re-emits immediately against the latest snapshot.
func (l *Ledger) Watch(ctx context.Context, v *filter.View) *Feed {
	sub := l.events.WatchAll(ctx)
	return &Feed{C: v.Run(ctx, sub.C), sub: sub}
}
