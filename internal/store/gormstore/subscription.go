package gormstore

import (
	"context"
	"sync"

	"gharkharcha/internal/changefeed"
	"gharkharcha/internal/store"
)

type subscription struct {
	signal chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	onStop func()
}

func (sub *subscription) notify() {
	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

func (sub *subscription) stop() {
	sub.once.Do(func() {
		sub.cancel()
		sub.onStop()
	})
}

// Subscribe starts a goroutine that delivers a snapshot of q immediately and
// again after every change to q's collection. Change signals arriving during
// a refresh are coalesced into one follow-up refresh.
func (s *Store) Subscribe(ctx context.Context, q store.Query, fn func(store.Snapshot)) (store.Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if _, err := tableFor(q.Collection); err != nil {
		return nil, err
	}
	owner, scoped := store.OwnerFrom(ctx)
	if scoped && !q.OwnedBy(owner) {
		return nil, store.ErrPermissionDenied
	}

	runCtx, cancel := context.WithCancel(context.Background())
	if scoped {
		runCtx = store.WithOwner(runCtx, owner)
	}

	sub := &subscription{signal: make(chan struct{}, 1), cancel: cancel}
	stopFeed := s.broker.Subscribe(q.Collection, queryOwner(q), func(changefeed.Change) { sub.notify() })

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	sub.onStop = func() {
		stopFeed()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	s.subs[id] = sub
	s.mu.Unlock()

	sub.notify()
	go s.run(runCtx, q, sub, fn)

	return sub.stop, nil
}

func (s *Store) run(ctx context.Context, q store.Query, sub *subscription, fn func(store.Snapshot)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.signal:
		}

		docs, err := s.Query(ctx, q)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.log.Warnw("Subscription refresh failed", "collection", q.Collection, "error", err)
			fn(store.Snapshot{Collection: q.Collection, Err: err})
			continue
		}
		fn(store.Snapshot{Collection: q.Collection, Documents: docs})
	}
}

// queryOwner returns the owner q is constrained to, or "" for every owner.
func queryOwner(q store.Query) string {
	for _, f := range q.Filters {
		if f.Field == store.FieldUserID && f.Op == store.OpEqual {
			if uid, ok := f.Value.(string); ok {
				return uid
			}
		}
	}
	return ""
}
