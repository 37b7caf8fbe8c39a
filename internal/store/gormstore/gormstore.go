// Package gormstore implements the record store on top of GORM, one table per
// collection. Live subscriptions re-run their query whenever the change feed
// reports a write to their collection and owner, so several processes sharing
// one database see each other's writes once their feeds are bridged.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gharkharcha/internal/changefeed"
	"gharkharcha/internal/store"
	"gharkharcha/internal/uuid"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is a RecordStore backed by a GORM database.
type Store struct {
	db     *gorm.DB
	broker *changefeed.Broker
	log    *zap.SugaredLogger

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
}

var _ store.RecordStore = (*Store)(nil)

// New returns a store over db publishing its writes to broker. A nil broker
// keeps change notifications inside this store.
func New(db *gorm.DB, broker *changefeed.Broker, log *zap.SugaredLogger) *Store {
	if broker == nil {
		broker = changefeed.NewBroker(uuid.New())
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{db: db, broker: broker, log: log, subs: map[uint64]*subscription{}}
}

// Add inserts a document under a new UUIDv7 id.
func (s *Store) Add(ctx context.Context, c store.Collection, fields store.Fields) (string, error) {
	t, err := tableFor(c)
	if err != nil {
		return "", err
	}
	owner, _ := fields[store.FieldUserID].(string)
	if uid, ok := store.OwnerFrom(ctx); ok && owner != uid {
		return "", store.ErrPermissionDenied
	}

	values, err := t.values(fields)
	if err != nil {
		return "", err
	}
	id := uuid.New()
	values["id"] = id

	if err := s.db.WithContext(ctx).Table(t.name).Create(values).Error; err != nil {
		return "", fmt.Errorf("insert into %s: %w", t.name, err)
	}

	s.broker.Publish(changefeed.Change{Collection: c, OwnerID: owner, DocumentID: id, Op: changefeed.OpCreate})
	return id, nil
}

// Update writes the given fields. Nil values clear nullable columns.
func (s *Store) Update(ctx context.Context, c store.Collection, id string, fields store.Fields) error {
	t, err := tableFor(c)
	if err != nil {
		return err
	}
	values, err := t.values(fields)
	if err != nil {
		return err
	}

	var owner string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if owner, err = s.checkOwner(ctx, tx, t, id); err != nil {
			return err
		}
		if newOwner, ok := fields[store.FieldUserID]; ok && newOwner != owner {
			return store.ErrPermissionDenied
		}
		if len(values) == 0 {
			return nil
		}
		return tx.Table(t.name).Where("id = ?", id).Updates(values).Error
	})
	if err != nil {
		return err
	}

	s.broker.Publish(changefeed.Change{Collection: c, OwnerID: owner, DocumentID: id, Op: changefeed.OpUpdate})
	return nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, c store.Collection, id string) error {
	t, err := tableFor(c)
	if err != nil {
		return err
	}

	var owner string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if owner, err = s.checkOwner(ctx, tx, t, id); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(rowModel(c)).Error
	})
	if err != nil {
		return err
	}

	s.broker.Publish(changefeed.Change{Collection: c, OwnerID: owner, DocumentID: id, Op: changefeed.OpDelete})
	return nil
}

func (s *Store) checkOwner(ctx context.Context, tx *gorm.DB, t table, id string) (string, error) {
	var owner string
	err := tx.Table(t.name).Select("user_id").Where("id = ?", id).Take(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load %s owner: %w", t.name, err)
	}
	if uid, ok := store.OwnerFrom(ctx); ok && uid != owner {
		return "", store.ErrPermissionDenied
	}
	return owner, nil
}

// Query runs q once.
func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if uid, ok := store.OwnerFrom(ctx); ok && !q.OwnedBy(uid) {
		return nil, store.ErrPermissionDenied
	}
	t, err := tableFor(q.Collection)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx).Table(t.name)
	for _, f := range q.Filters {
		col, ok := t.columns[f.Field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", store.ErrInvalidQuery, f.Field)
		}
		op, ok := sqlOps[f.Op]
		if !ok || col.kind == kindTags {
			// Evaluated in memory below.
			continue
		}
		v, err := col.convert(f.Value)
		if err != nil {
			return nil, err
		}
		db = db.Where(fmt.Sprintf("%s %s ?", col.name, op), v)
	}

	docs, err := find(db, q.Collection)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}

	out := docs[:0]
	for _, d := range docs {
		if q.Matches(d.Fields) {
			out = append(out, d)
		}
	}
	store.SortDocuments(out, q.OrderBy)
	return out, nil
}

func rowModel(c store.Collection) any {
	switch c {
	case store.Expenses:
		return &expenseRow{}
	case store.FamilyMembers:
		return &familyMemberRow{}
	}
	return &budgetRow{}
}

func find(db *gorm.DB, c store.Collection) ([]store.Document, error) {
	switch c {
	case store.Expenses:
		var rows []expenseRow
		if err := db.Find(&rows).Error; err != nil {
			return nil, err
		}
		docs := make([]store.Document, 0, len(rows))
		for _, r := range rows {
			docs = append(docs, r.document())
		}
		return docs, nil
	case store.FamilyMembers:
		var rows []familyMemberRow
		if err := db.Find(&rows).Error; err != nil {
			return nil, err
		}
		docs := make([]store.Document, 0, len(rows))
		for _, r := range rows {
			docs = append(docs, r.document())
		}
		return docs, nil
	case store.Budgets:
		var rows []budgetRow
		if err := db.Find(&rows).Error; err != nil {
			return nil, err
		}
		docs := make([]store.Document, 0, len(rows))
		for _, r := range rows {
			docs = append(docs, r.document())
		}
		return docs, nil
	}
	return nil, store.ErrUnknownCollection
}

// Close cancels every live subscription.
func (s *Store) Close() {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
}
