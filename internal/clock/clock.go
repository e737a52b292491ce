// Package clock abstracts wall-clock time so the identity lock window and
// its countdown can be tested deterministically.
//
// Production code uses Real(). Tests use Fake(), whose time stands still
// until Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go watcher(c)
//	c.WaitForTimers(1)     // wait for the goroutine to register its ticker
//	c.Advance(time.Second) // fire it
package clock

import "time"

// Clock is the subset of the time package pigeon depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a Ticker delivering ticks every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. C has capacity 1; ticks are dropped when
// the consumer falls behind, matching time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns off the ticker. Stop does not close C.
func (t *Ticker) Stop() { t.stop() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}

// Millis converts t to milliseconds since the Unix epoch, the unit used by
// every persisted timestamp.
func Millis(t time.Time) int64 { return t.UnixMilli() }
