package event

import "sync"

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus fans events out to subscribers. Publishing with no subscribers is
// valid. Handlers run synchronously on the publishing goroutine, in
// subscription order, and may subscribe or unsubscribe while running.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	byKind    map[Kind][]subscription
	all       []subscription
	published map[Kind]int
}

func NewBus() *Bus {
	return &Bus{
		byKind:    make(map[Kind][]subscription),
		published: make(map[Kind]int),
	}
}

// Subscribe registers fn for one kind and returns a func that removes it.
// Calling the returned func more than once is harmless.
func (b *Bus) Subscribe(kind Kind, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.byKind[kind] = append(b.byKind[kind], subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.byKind[kind] = without(b.byKind[kind], id)
	}
}

// SubscribeAll registers fn for every kind.
func (b *Bus) SubscribeAll(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = without(b.all, id)
	}
}

// Publish delivers e to the subscribers of its kind, then to the
// subscribers of all kinds.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.published[e.Kind()]++
	subs := append(append([]subscription(nil), b.byKind[e.Kind()]...), b.all...)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// Subscribers returns the number of handlers that would receive an event
// of the given kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byKind[kind]) + len(b.all)
}

// Published returns how many events of the kind were published so far.
func (b *Bus) Published(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.published[kind]
}

func without(subs []subscription, id int) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
