// Package events carries "resource changed" notifications from mutations to
// the views that display the resource.
package events

import "sync"

// Resource names a logical collection of server state.
type Resource string

const (
	Rooms           Resource = "rooms"
	RoomPhotos      Resource = "room-photos"
	Bookings        Resource = "bookings"
	MyBookings      Resource = "my-bookings"
	PendingBookings Resource = "pending-bookings"
	Booking         Resource = "booking"
	Dashboard       Resource = "dashboard"
)

// Topic identifies changed state. An empty ID addresses every instance of
// the resource.
type Topic struct {
	Resource Resource
	ID       string
}

// All returns the topic covering every instance of r.
func All(r Resource) Topic {
	return Topic{Resource: r}
}

// For returns the topic of a single instance of r.
func For(r Resource, id string) Topic {
	return Topic{Resource: r, ID: id}
}

// Matches reports whether publishing t affects state filed under other.
func (t Topic) Matches(other Topic) bool {
	if t.Resource != other.Resource {
		return false
	}
	return t.ID == "" || t.ID == other.ID
}

func (t Topic) String() string {
	if t.ID == "" {
		return string(t.Resource)
	}
	return string(t.Resource) + "/" + t.ID
}

// Bus fans published topics out to subscribers. Subscribers run
// synchronously on the publishing goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func([]Topic)
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function removing it again.
func (b *Bus) Subscribe(fn func(topics []Topic)) (cancel func()) {
	if b == nil || fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish notifies every subscriber that topics changed. Publishing no
// topics is a no-op.
func (b *Bus) Publish(topics ...Topic) {
	if b == nil || len(topics) == 0 {
		return
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	published := make([]Topic, len(topics))
	copy(published, topics)
	for _, sub := range subs {
		sub.fn(published)
	}
}
