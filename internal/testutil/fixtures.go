package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gharkharcha/internal/models"
	"gharkharcha/internal/store"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewIdentity returns an identity with a unique uid.
func NewIdentity() *models.Identity {
	n := nextID()
	return &models.Identity{
		UID:         fmt.Sprintf("user-%d", n),
		DisplayName: fmt.Sprintf("Test User %d", n),
		Email:       fmt.Sprintf("user%d@test.com", n),
	}
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ExpenseFields builds the stored form of an expense owned by uid. Amount is
// in minor units.
func ExpenseFields(uid string, amount int64, category models.Category, date time.Time, memberID string, planned bool) store.Fields {
	now := store.FromTime(time.Now().UTC())
	return store.Fields{
		store.FieldUserID:         uid,
		store.FieldAmount:         amount,
		store.FieldCategory:       string(category),
		store.FieldDescription:    fmt.Sprintf("Test expense %d", nextID()),
		store.FieldDate:           store.FromTime(date),
		store.FieldFamilyMemberID: memberID,
		store.FieldIsPlanned:      planned,
		store.FieldIsRecurring:    false,
		store.FieldTags:           []string{},
		store.FieldCreatedAt:      now,
		store.FieldUpdatedAt:      now,
	}
}

// FamilyMemberFields builds the stored form of a family member owned by uid.
func FamilyMemberFields(uid, name string, role models.MemberRole) store.Fields {
	return store.Fields{
		store.FieldUserID: uid,
		store.FieldName:   name,
		store.FieldRole:   string(role),
	}
}

// BudgetFields builds the stored form of an open-ended budget owned by uid.
func BudgetFields(uid string, category models.Category, amount int64, period models.BudgetPeriod, start time.Time) store.Fields {
	now := store.FromTime(time.Now().UTC())
	return store.Fields{
		store.FieldUserID:    uid,
		store.FieldCategory:  string(category),
		store.FieldAmount:    amount,
		store.FieldPeriod:    string(period),
		store.FieldStartDate: store.FromTime(start),
		store.FieldCreatedAt: now,
		store.FieldUpdatedAt: now,
	}
}

// Seed adds fields to c as their owner and returns the new id.
func Seed(t *testing.T, st store.RecordStore, c store.Collection, fields store.Fields) string {
	t.Helper()

	uid, _ := fields[store.FieldUserID].(string)
	id, err := st.Add(store.WithOwner(context.Background(), uid), c, fields)
	if err != nil {
		t.Fatalf("failed to seed %s: %v", c, err)
	}
	return id
}
