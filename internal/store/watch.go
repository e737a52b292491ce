package store

import (
	"context"
	"sync"

	"github.com/roach88/pigeon/internal/model"
)

// notifier fans a "something committed" signal out to subscribers. Each
// subscriber has a one-slot channel, so signals coalesce instead of
// queueing and a slow subscriber never blocks a writer.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan struct{})}
}

func (n *notifier) subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (n *notifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Subscription is a live query. C receives the current result immediately
// and again after every relevant commit. C is closed when the context is
// cancelled or a read fails; Err then reports the failure, if any.
type Subscription[T any] struct {
	C <-chan T

	done chan struct{}
	err  error
}

// Err returns the error that ended the subscription, or nil if it ended
// because its context was cancelled. It blocks until C is closed.
func (s *Subscription[T]) Err() error {
	<-s.done
	return s.err
}

// WatchAll follows AllEvents.
func (s *Store) WatchAll(ctx context.Context) *Subscription[[]model.Event] {
	return watch(ctx, s.eventsChanged, s.AllEvents)
}

// WatchUnresolved follows UnresolvedEvents.
func (s *Store) WatchUnresolved(ctx context.Context) *Subscription[[]model.Event] {
	return watch(ctx, s.eventsChanged, s.UnresolvedEvents)
}

// WatchUser follows UserSnapshot. A nil value means no identity exists.
func (s *Store) WatchUser(ctx context.Context) *Subscription[*model.User] {
	return watch(ctx, s.userChanged, s.UserSnapshot)
}

func watch[T any](ctx context.Context, n *notifier, load func(context.Context) (T, error)) *Subscription[T] {
	out := make(chan T)
	sub := &Subscription[T]{C: out, done: make(chan struct{})}

	// Subscribe before the first read so a commit racing with it still
	// triggers a re-read.
	signal, unsubscribe := n.subscribe()

	go func() {
		defer close(sub.done)
		defer close(out)
		defer unsubscribe()

		for {
			value, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					sub.err = err
				}
				return
			}

			select {
			case out <- value:
			case <-ctx.Done():
				return
			}

			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub
}
