package filter

import (
	"context"
	"sync"

	"github.com/roach88/pigeon/internal/model"
)

// View holds the mutable mode and query inputs of a live filtered list.
// Setters may be called from any goroutine while Run is active.
type View struct {
	mu      sync.Mutex
	mode    Mode
	query   string
	changed chan struct{}
}

// NewView creates a view with initial inputs.
func NewView(mode Mode, query string) *View {
	return &View{
		mode:    mode,
		query:   query,
		changed: make(chan struct{}, 1),
	}
}

// SetMode changes the filter mode and triggers re-evaluation.
func (v *View) SetMode(mode Mode) {
	v.mu.Lock()
	v.mode = mode
	v.mu.Unlock()
	v.signal()
}

// SetQuery changes the search query and triggers re-evaluation.
func (v *View) SetQuery(query string) {
	v.mu.Lock()
	v.query = query
	v.mu.Unlock()
	v.signal()
}

// Inputs returns the current mode and query.
func (v *View) Inputs() (Mode, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode, v.query
}

func (v *View) signal() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

// Run combines upstream snapshots with the view's inputs. Nothing is
// emitted until the first upstream snapshot arrives; after that, every
// upstream snapshot and every input change yields a freshly filtered list.
//
// The returned channel closes when ctx is cancelled or upstream closes.
// A View should back a single Run at a time.
func (v *View) Run(ctx context.Context, upstream <-chan []model.Event) <-chan []model.Event {
	out := make(chan []model.Event)

	go func() {
		defer close(out)

		var (
			latest []model.Event
			have   bool
		)
		for {
			select {
			case events, ok := <-upstream:
				if !ok {
					return
				}
				latest, have = events, true
			case <-v.changed:
			case <-ctx.Done():
				return
			}

			if !have {
				continue
			}

			mode, query := v.Inputs()
			select {
			case out <- Apply(latest, mode, query):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
