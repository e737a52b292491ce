package store

import (
	"context"
	"time"

	"github.com/roach88/pigeon/internal/clock"
)

// WithChangePolling makes the store notice commits made through other
// connections, such as another pigeon process on the same file. Every
// interval it reads PRAGMA data_version, which SQLite bumps when another
// connection commits; a change wakes every watch as a local write would.
//
// Local writes notify watches directly and do not depend on polling.
func WithChangePolling(c clock.Clock, interval time.Duration) Option {
	return func(s *Store) {
		s.pollClock = c
		s.pollInterval = interval
	}
}

// startPolling takes the baseline version before returning, so commits
// made after Open are always detected.
func (s *Store) startPolling() {
	last, err := s.dataVersion(context.Background())
	if err != nil {
		s.logger.Warn("change polling disabled", "error", err)
		return
	}

	ticker := s.pollClock.NewTicker(s.pollInterval)
	s.stopPoll = make(chan struct{})
	s.pollDone = make(chan struct{})
	go s.pollChanges(ticker, last)
}

func (s *Store) pollChanges(ticker *clock.Ticker, last int64) {
	defer close(s.pollDone)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
		}

		v, err := s.dataVersion(ctx)
		if err != nil {
			s.logger.Warn("poll data_version failed", "error", err)
			continue
		}
		if v == last {
			continue
		}
		last = v
		s.logger.Debug("external commit detected", "data_version", v)
		s.eventsChanged.notify()
		s.userChanged.notify()
	}
}

// dataVersion is only meaningful when compared across reads on the same
// connection; Open pins the pool to one.
func (s *Store) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, storageErr("read data_version", err)
	}
	return v, nil
}
