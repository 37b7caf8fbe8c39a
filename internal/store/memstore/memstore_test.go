package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gharkharcha/internal/store"
)

func ownedBy(uid string) store.Query {
	return store.Query{
		Collection: store.FamilyMembers,
		Filters:    []store.Filter{store.Where(store.FieldUserID, store.OpEqual, uid)},
	}
}

type recorder struct {
	mu    sync.Mutex
	snaps []store.Snapshot
}

func (r *recorder) record(s store.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) last() store.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	s := New()
	ctx := store.WithOwner(context.Background(), "u1")
	rec := &recorder{}

	unsub, err := s.Subscribe(ctx, ownedBy("u1"), rec.record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 || len(rec.last().Documents) != 0 {
		t.Fatalf("expected one empty initial snapshot, got %d", rec.count())
	}

	id, err := s.Add(ctx, store.FamilyMembers, store.Fields{store.FieldUserID: "u1", store.FieldName: "Asha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.last().Documents; len(got) != 1 || got[0].ID != id {
		t.Fatalf("expected snapshot with new document, got %+v", got)
	}

	other := store.WithOwner(context.Background(), "u2")
	if _, err := s.Add(other, store.FamilyMembers, store.Fields{store.FieldUserID: "u2", store.FieldName: "Ravi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.last().Documents; len(got) != 1 {
		t.Errorf("expected other owner's document to stay out, got %d docs", len(got))
	}

	unsub()
	unsub()
	before := rec.count()
	if err := s.Update(ctx, store.FamilyMembers, id, store.Fields{store.FieldName: "Asha K"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != before {
		t.Error("expected no delivery after unsubscribe")
	}
	if s.Subscribers() != 0 {
		t.Errorf("expected no subscribers, got %d", s.Subscribers())
	}
}

func TestUpdateMergesAndRemovesFields(t *testing.T) {
	s := New()
	ctx := store.WithOwner(context.Background(), "u1")
	id, _ := s.Add(ctx, store.FamilyMembers, store.Fields{
		store.FieldUserID:    "u1",
		store.FieldName:      "Asha",
		store.FieldAvatarURL: "https://example.com/a.png",
	})

	err := s.Update(ctx, store.FamilyMembers, id, store.Fields{store.FieldName: "Asha K", store.FieldAvatarURL: nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs, err := s.Query(ctx, ownedBy("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].Fields[store.FieldName] != "Asha K" {
		t.Errorf("expected name updated, got %v", docs[0].Fields[store.FieldName])
	}
	if _, ok := docs[0].Fields[store.FieldAvatarURL]; ok {
		t.Error("expected avatar removed")
	}
}

func TestOwnershipEnforced(t *testing.T) {
	s := New()
	mine := store.WithOwner(context.Background(), "u1")
	theirs := store.WithOwner(context.Background(), "u2")
	id, _ := s.Add(mine, store.Budgets, store.Fields{store.FieldUserID: "u1"})

	t.Run("add_for_other_owner", func(t *testing.T) {
		_, err := s.Add(theirs, store.Budgets, store.Fields{store.FieldUserID: "u1"})
		if !errors.Is(err, store.ErrPermissionDenied) {
			t.Errorf("expected permission denied, got %v", err)
		}
	})

	t.Run("update_other_owner", func(t *testing.T) {
		err := s.Update(theirs, store.Budgets, id, store.Fields{store.FieldAmount: int64(1)})
		if !errors.Is(err, store.ErrPermissionDenied) {
			t.Errorf("expected permission denied, got %v", err)
		}
	})

	t.Run("reassign_owner", func(t *testing.T) {
		err := s.Update(mine, store.Budgets, id, store.Fields{store.FieldUserID: "u2"})
		if !errors.Is(err, store.ErrPermissionDenied) {
			t.Errorf("expected permission denied, got %v", err)
		}
	})

	t.Run("delete_other_owner", func(t *testing.T) {
		if err := s.Delete(theirs, store.Budgets, id); !errors.Is(err, store.ErrPermissionDenied) {
			t.Errorf("expected permission denied, got %v", err)
		}
	})

	t.Run("unscoped_query", func(t *testing.T) {
		_, err := s.Query(theirs, store.Query{Collection: store.Budgets})
		if !errors.Is(err, store.ErrPermissionDenied) {
			t.Errorf("expected permission denied, got %v", err)
		}
	})

	t.Run("missing_document", func(t *testing.T) {
		if err := s.Delete(mine, store.Budgets, "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestUnknownCollection(t *testing.T) {
	s := New()
	if _, err := s.Add(context.Background(), "accounts", store.Fields{}); !errors.Is(err, store.ErrUnknownCollection) {
		t.Errorf("expected unknown collection, got %v", err)
	}
}
