// Package event defines the domain events raised by tagging operations and a
// small synchronous bus that fans them out to listeners.
//
// Events are dispatched only after the store mutation that produced them has
// committed. Listeners cannot fail the operation; they are fire-and-forget.
package event

import (
	"context"

	"github.com/pkordes/taggable/internal/domain"
)

// Event is implemented by every domain event.
type Event interface {
	// Name is a stable snake_case identifier used in logs and metric labels.
	Name() string
}

// TagAttached is raised when a tag is newly linked to an entity.
type TagAttached struct {
	Taggable domain.TaggableRef
	Tag      domain.Tag
}

// Name implements Event.
func (TagAttached) Name() string { return "tag_attached" }

// TagDetached is raised when an existing link between a tag and an entity is removed.
type TagDetached struct {
	Taggable domain.TaggableRef
	Tag      domain.Tag
}

// Name implements Event.
func (TagDetached) Name() string { return "tag_detached" }

// TagsSynced is raised once per sync with the entity's resulting tag set.
type TagsSynced struct {
	Taggable domain.TaggableRef
	Tags     []domain.Tag
}

// Name implements Event.
func (TagsSynced) Name() string { return "tags_synced" }

// Dispatcher delivers events to whoever is interested.
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...Event)
}

// Listener receives each dispatched event.
type Listener func(ctx context.Context, e Event)

// Bus is a Dispatcher that calls its listeners synchronously, in
// subscription order. A Bus is not safe for concurrent Subscribe calls;
// register every listener during startup.
type Bus struct {
	listeners []Listener
}

// NewBus returns a Bus with the given listeners subscribed.
func NewBus(listeners ...Listener) *Bus {
	return &Bus{listeners: listeners}
}

// Subscribe adds a listener.
func (b *Bus) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

// Dispatch implements Dispatcher.
func (b *Bus) Dispatch(ctx context.Context, events ...Event) {
	for _, e := range events {
		for _, l := range b.listeners {
			l(ctx, e)
		}
	}
}

// Discard drops every event.
var Discard Dispatcher = NewBus()

// Recorder is a Dispatcher that keeps every event it receives, in order.
type Recorder struct {
	Events []Event
}

// Dispatch implements Dispatcher.
func (r *Recorder) Dispatch(_ context.Context, events ...Event) {
	r.Events = append(r.Events, events...)
}

// Count returns how many recorded events have the given name.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, e := range r.Events {
		if e.Name() == name {
			n++
		}
	}
	return n
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}
