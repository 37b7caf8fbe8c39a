package gormstore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gharkharcha/internal/store"

	"gorm.io/gorm"
)

// Tags is a string list stored as a JSON array in a text column.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("tags: unsupported source %T", src)
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	*t = out
	return nil
}

type expenseRow struct {
	ID                 string     `gorm:"primaryKey;size:36"`
	UserID             string     `gorm:"size:128;not null;index:idx_expenses_user_date,priority:1"`
	Amount             int64      `gorm:"not null"`
	Category           string     `gorm:"size:32;not null"`
	Description        string     `gorm:"not null;default:''"`
	Date               *time.Time `gorm:"index:idx_expenses_user_date,priority:2"`
	FamilyMemberID     string     `gorm:"size:64;not null;default:''"`
	IsPlanned          bool       `gorm:"not null;default:false"`
	IsRecurring        bool       `gorm:"not null;default:false"`
	RecurringFrequency *string    `gorm:"size:16"`
	Tags               Tags       `gorm:"type:text"`
	CreatedAt          *time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt          *time.Time `gorm:"autoUpdateTime:false"`
}

func (expenseRow) TableName() string { return "expenses" }

func (r expenseRow) document() store.Document {
	f := store.Fields{
		store.FieldUserID:         r.UserID,
		store.FieldAmount:         r.Amount,
		store.FieldCategory:       r.Category,
		store.FieldDescription:    r.Description,
		store.FieldFamilyMemberID: r.FamilyMemberID,
		store.FieldIsPlanned:      r.IsPlanned,
		store.FieldIsRecurring:    r.IsRecurring,
		store.FieldTags:           tagsOf(r.Tags),
	}
	putTime(f, store.FieldDate, r.Date)
	putTime(f, store.FieldCreatedAt, r.CreatedAt)
	putTime(f, store.FieldUpdatedAt, r.UpdatedAt)
	if r.RecurringFrequency != nil {
		f[store.FieldRecurringFrequency] = *r.RecurringFrequency
	}
	return store.Document{ID: r.ID, Fields: f}
}

type familyMemberRow struct {
	ID        string  `gorm:"primaryKey;size:36"`
	UserID    string  `gorm:"size:128;not null;index"`
	Name      string  `gorm:"size:255;not null"`
	Role      string  `gorm:"size:16;not null"`
	AvatarURL *string `gorm:"column:avatar_url"`
}

func (familyMemberRow) TableName() string { return "family_members" }

func (r familyMemberRow) document() store.Document {
	f := store.Fields{
		store.FieldUserID: r.UserID,
		store.FieldName:   r.Name,
		store.FieldRole:   r.Role,
	}
	if r.AvatarURL != nil {
		f[store.FieldAvatarURL] = *r.AvatarURL
	}
	return store.Document{ID: r.ID, Fields: f}
}

type budgetRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:128;not null;index"`
	Category  string `gorm:"size:32;not null"`
	Amount    int64  `gorm:"not null"`
	Period    string `gorm:"size:16;not null"`
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt *time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

func (budgetRow) TableName() string { return "budgets" }

func (r budgetRow) document() store.Document {
	f := store.Fields{
		store.FieldUserID:   r.UserID,
		store.FieldCategory: r.Category,
		store.FieldAmount:   r.Amount,
		store.FieldPeriod:   r.Period,
	}
	putTime(f, store.FieldStartDate, r.StartDate)
	putTime(f, store.FieldEndDate, r.EndDate)
	putTime(f, store.FieldCreatedAt, r.CreatedAt)
	putTime(f, store.FieldUpdatedAt, r.UpdatedAt)
	return store.Document{ID: r.ID, Fields: f}
}

// AutoMigrate creates or updates the tables behind every collection. Postgres
// deployments use the SQL migrations in the database package instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&expenseRow{}, &familyMemberRow{}, &budgetRow{})
}

func putTime(f store.Fields, key string, t *time.Time) {
	if t != nil {
		f[key] = store.FromTime(*t)
	}
}

func tagsOf(t Tags) []string {
	if t == nil {
		return []string{}
	}
	return append([]string{}, t...)
}
