// Package changefeed routes document change notifications to live store
// subscriptions, within one process and, through AMQPBridge, across every
// process writing to the same database.
package changefeed

import (
	"sync"
	"time"

	"gharkharcha/internal/store"
)

// Op is the kind of write that produced a change.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one committed write.
type Change struct {
	Collection store.Collection `json:"collection"`
	OwnerID    string           `json:"owner_id"`
	DocumentID string           `json:"document_id"`
	Op         Op               `json:"op"`
	Origin     string           `json:"origin"`
	At         time.Time        `json:"at"`
}

type subscriber struct {
	collection store.Collection
	owner      string
	fn         func(Change)
}

// Broker fans changes out to subscribers. Callbacks run on the publishing
// goroutine, outside the broker's lock, and must not block.
type Broker struct {
	origin string

	mu        sync.RWMutex
	nextID    uint64
	subs      map[uint64]subscriber
	observers map[uint64]func(Change)
}

// NewBroker returns a broker whose local changes carry the given origin.
func NewBroker(origin string) *Broker {
	return &Broker{
		origin:    origin,
		subs:      map[uint64]subscriber{},
		observers: map[uint64]func(Change){},
	}
}

// Origin identifies this process in published changes.
func (b *Broker) Origin() string { return b.origin }

// Subscribe registers fn for changes to collection. An empty owner matches
// every owner.
func (b *Broker) Subscribe(collection store.Collection, owner string, fn func(Change)) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = subscriber{collection: collection, owner: owner, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Observe registers fn for every change published locally. Bridges use it to
// forward local writes.
func (b *Broker) Observe(fn func(Change)) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.observers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// Publish announces a local write to subscribers and observers.
func (b *Broker) Publish(ch Change) {
	ch.Origin = b.origin
	if ch.At.IsZero() {
		ch.At = time.Now().UTC()
	}

	b.mu.RLock()
	fns := b.matchingLocked(ch)
	for _, fn := range b.observers {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// Deliver hands a change received from another process to local subscribers
// only. Changes carrying this broker's origin are ignored.
func (b *Broker) Deliver(ch Change) {
	if ch.Origin == b.origin {
		return
	}

	b.mu.RLock()
	fns := b.matchingLocked(ch)
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ch)
	}
}

func (b *Broker) matchingLocked(ch Change) []func(Change) {
	var fns []func(Change)
	for _, s := range b.subs {
		if s.collection != ch.Collection {
			continue
		}
		if s.owner != "" && s.owner != ch.OwnerID {
			continue
		}
		fns = append(fns, s.fn)
	}
	return fns
}
