package activity

import (
	"context"
	"sync"
)

// Bus is a Log that also notifies in-process watchers of every appended
// event. The HTTP activity stream watches a Bus.
type Bus struct {
	Log

	mu       sync.RWMutex
	watchers map[chan *Event]struct{}
	buffer   int
}

// NewBus wraps log. Each watcher gets a channel with room for 64 events.
func NewBus(log Log) *Bus {
	return &Bus{
		Log:      log,
		watchers: make(map[chan *Event]struct{}),
		buffer:   64,
	}
}

// Append records the event in the wrapped log and then offers it to every
// watcher. Watchers that are full miss the event; Append never blocks on them.
func (b *Bus) Append(ctx context.Context, eventType, source string, content map[string]any) (*Event, error) {
	e, err := b.Log.Append(ctx, eventType, source, content)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.watchers {
		select {
		case ch <- e:
		default:
		}
	}
	return e, nil
}

// Subscribe registers a new watcher channel. Release it with Unsubscribe.
func (b *Bus) Subscribe() chan *Event {
	ch := make(chan *Event, b.buffer)
	b.mu.Lock()
	b.watchers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; !ok {
		return
	}
	delete(b.watchers, ch)
	close(ch)
}

// Watch subscribes for the lifetime of ctx. The returned channel is closed
// once ctx is done.
func (b *Bus) Watch(ctx context.Context) <-chan *Event {
	ch := b.Subscribe()
	go func() {
		<-ctx.Done()
		b.Unsubscribe(ch)
	}()
	return ch
}

// Watchers returns the number of registered watchers.
func (b *Bus) Watchers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.watchers)
}
