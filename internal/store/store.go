// Package store defines the record store the collection manager mirrors: a
// document store with per-owner collections, one-shot queries and live
// subscriptions that deliver whole snapshots.
//
// Backends live in the memstore and gormstore subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

// Collection names a top-level document collection.
type Collection string

const (
	Expenses      Collection = "expenses"
	FamilyMembers Collection = "familyMembers"
	Budgets       Collection = "budgets"
)

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	return c == Expenses || c == FamilyMembers || c == Budgets
}

// Document field names.
const (
	FieldUserID             = "userId"
	FieldAmount             = "amount"
	FieldCategory           = "category"
	FieldDescription        = "description"
	FieldDate               = "date"
	FieldFamilyMemberID     = "familyMemberId"
	FieldIsPlanned          = "isPlanned"
	FieldIsRecurring        = "isRecurring"
	FieldRecurringFrequency = "recurringFrequency"
	FieldTags               = "tags"
	FieldCreatedAt          = "createdAt"
	FieldUpdatedAt          = "updatedAt"
	FieldName               = "name"
	FieldRole               = "role"
	FieldAvatarURL          = "avatarUrl"
	FieldPeriod             = "period"
	FieldStartDate          = "startDate"
	FieldEndDate            = "endDate"
)

var (
	ErrNotFound          = errors.New("store: document not found")
	ErrPermissionDenied  = errors.New("store: permission denied")
	ErrUnknownCollection = errors.New("store: unknown collection")
	ErrInvalidQuery      = errors.New("store: invalid query")
)

// Fields is the loosely typed body of a document. Values are strings, bools,
// int64 amounts, Timestamps or []string. In an update a nil value removes the
// field.
type Fields map[string]any

// Clone returns a shallow copy of f with string slices copied.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}

// Document is a stored record and its id.
type Document struct {
	ID     string
	Fields Fields
}

// Snapshot is the full, ordered content of a subscribed query. A snapshot
// carrying Err has no documents and means the subscription could not refresh.
type Snapshot struct {
	Collection Collection
	Documents  []Document
	Err        error
}

// Unsubscribe releases a subscription. It is safe to call more than once and
// never blocks on an in-flight delivery.
type Unsubscribe func()

// RecordStore is the client contract of the document store.
type RecordStore interface {
	// Subscribe registers fn for every snapshot of q. The first snapshot is
	// delivered once the subscription is live; afterwards one arrives per
	// change. Snapshots of one subscription are delivered sequentially.
	Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Unsubscribe, error)
	Add(ctx context.Context, c Collection, fields Fields) (string, error)
	Update(ctx context.Context, c Collection, id string, fields Fields) error
	Delete(ctx context.Context, c Collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
}

// Timestamp is the store's native date representation.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// FromTime converts t to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Time converts ts back to a UTC time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// Compare orders two timestamps.
func (ts Timestamp) Compare(other Timestamp) int {
	switch {
	case ts.Seconds < other.Seconds:
		return -1
	case ts.Seconds > other.Seconds:
		return 1
	case ts.Nanos < other.Nanos:
		return -1
	case ts.Nanos > other.Nanos:
		return 1
	}
	return 0
}

type ownerKey struct{}

// WithOwner scopes ctx to the given owner. Backends reject writes to documents
// of another owner and queries not constrained to the owner.
func WithOwner(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ownerKey{}, uid)
}

// OwnerFrom returns the owner set by WithOwner.
func OwnerFrom(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ownerKey{}).(string)
	return uid, ok && uid != ""
}
