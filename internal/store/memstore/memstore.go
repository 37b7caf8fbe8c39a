// Package memstore is an in-process RecordStore. Snapshots are delivered
// synchronously on the goroutine that caused the change, which makes it the
// store of choice for tests and single-process development.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"gharkharcha/internal/store"
	"gharkharcha/internal/uuid"
)

type subscription struct {
	query store.Query
	fn    func(store.Snapshot)

	// deliverMu serialises deliveries; delivered drops snapshots computed
	// before one that was already delivered.
	deliverMu sync.Mutex
	delivered uint64
	closed    atomic.Bool
}

// Store keeps documents in maps guarded by a mutex.
type Store struct {
	mu     sync.Mutex
	docs   map[store.Collection]map[string]store.Fields
	subs   map[uint64]*subscription
	nextID uint64
	seq    uint64
}

var _ store.RecordStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		docs: map[store.Collection]map[string]store.Fields{
			store.Expenses:      {},
			store.FamilyMembers: {},
			store.Budgets:       {},
		},
		subs: map[uint64]*subscription{},
	}
}

type pending struct {
	sub  *subscription
	seq  uint64
	snap store.Snapshot
}

// Subscribe delivers the first snapshot before returning.
func (s *Store) Subscribe(ctx context.Context, q store.Query, fn func(store.Snapshot)) (store.Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := checkQueryOwner(ctx, q); err != nil {
		return nil, err
	}

	sub := &subscription{query: q, fn: fn}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = sub
	s.seq++
	first := pending{sub: sub, seq: s.seq, snap: s.snapshotLocked(q)}
	s.mu.Unlock()

	deliver([]pending{first})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			sub.closed.Store(true)
		})
	}, nil
}

// Add stores fields under a new UUIDv7 id.
func (s *Store) Add(ctx context.Context, c store.Collection, fields store.Fields) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
	}
	if owner, ok := store.OwnerFrom(ctx); ok && fields[store.FieldUserID] != owner {
		return "", store.ErrPermissionDenied
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New()
	doc := store.Fields{}
	for k, v := range fields.Clone() {
		if v != nil {
			doc[k] = v
		}
	}

	s.mu.Lock()
	s.docs[c][id] = doc
	out := s.changedLocked(c)
	s.mu.Unlock()

	deliver(out)
	return id, nil
}

// Update merges fields into the document. Nil values remove fields.
func (s *Store) Update(ctx context.Context, c store.Collection, id string, fields store.Fields) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.docs[c][id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	if err := checkDocOwner(ctx, doc, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	next := doc.Clone()
	for k, v := range fields.Clone() {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	s.docs[c][id] = next
	out := s.changedLocked(c)
	s.mu.Unlock()

	deliver(out)
	return nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, c store.Collection, id string) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.docs[c][id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	if err := checkDocOwner(ctx, doc, nil); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.docs[c], id)
	out := s.changedLocked(c)
	s.mu.Unlock()

	deliver(out)
	return nil
}

// Query returns the matching documents.
func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := checkQueryOwner(ctx, q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(q).Documents, nil
}

// Put stores a document under a fixed id without ownership checks. Tests use
// it to seed records a well-behaved client could not write, such as records
// missing required fields.
func (s *Store) Put(c store.Collection, id string, fields store.Fields) {
	s.mu.Lock()
	s.docs[c][id] = fields.Clone()
	out := s.changedLocked(c)
	s.mu.Unlock()
	deliver(out)
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) snapshotLocked(q store.Query) store.Snapshot {
	docs := make([]store.Document, 0)
	for id, fields := range s.docs[q.Collection] {
		if q.Matches(fields) {
			docs = append(docs, store.Document{ID: id, Fields: fields.Clone()})
		}
	}
	store.SortDocuments(docs, q.OrderBy)
	return store.Snapshot{Collection: q.Collection, Documents: docs}
}

func (s *Store) changedLocked(c store.Collection) []pending {
	var out []pending
	for _, sub := range s.subs {
		if sub.query.Collection != c {
			continue
		}
		s.seq++
		out = append(out, pending{sub: sub, seq: s.seq, snap: s.snapshotLocked(sub.query)})
	}
	return out
}

func deliver(out []pending) {
	for _, p := range out {
		p.sub.deliverMu.Lock()
		if !p.sub.closed.Load() && p.seq > p.sub.delivered {
			p.sub.delivered = p.seq
			p.sub.fn(p.snap)
		}
		p.sub.deliverMu.Unlock()
	}
}

func checkQueryOwner(ctx context.Context, q store.Query) error {
	if owner, ok := store.OwnerFrom(ctx); ok && !q.OwnedBy(owner) {
		return store.ErrPermissionDenied
	}
	return nil
}

func checkDocOwner(ctx context.Context, doc, change store.Fields) error {
	owner, ok := store.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	if doc[store.FieldUserID] != owner {
		return store.ErrPermissionDenied
	}
	if v, changing := change[store.FieldUserID]; changing && v != owner {
		return store.ErrPermissionDenied
	}
	return nil
}
