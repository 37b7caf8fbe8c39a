package models

import (
	"sort"
	"strings"
	"time"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/money"
)

// RecurringFrequency is how often a recurring expense repeats.
type RecurringFrequency string

const (
	FrequencyDaily   RecurringFrequency = "daily"
	FrequencyWeekly  RecurringFrequency = "weekly"
	FrequencyMonthly RecurringFrequency = "monthly"
	FrequencyYearly  RecurringFrequency = "yearly"
)

// Valid reports whether f is a known frequency.
func (f RecurringFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Expense is a single recorded spend attributed to a family member.
type Expense struct {
	Base
	Amount             money.Amount       `json:"amount"`
	Category           Category           `json:"category"`
	Description        string             `json:"description"`
	Date               time.Time          `json:"date"`
	FamilyMemberID     string             `json:"family_member_id"`
	IsPlanned          bool               `json:"is_planned"`
	IsRecurring        bool               `json:"is_recurring"`
	RecurringFrequency RecurringFrequency `json:"recurring_frequency,omitempty"`
	Tags               []string           `json:"tags"`
}

// ExpenseInput is the caller-supplied payload for a new expense. The store
// assigns the id and the audit timestamps.
type ExpenseInput struct {
	Amount             money.Amount       `json:"amount"`
	Category           Category           `json:"category"`
	Description        string             `json:"description"`
	Date               time.Time          `json:"date"`
	FamilyMemberID     string             `json:"family_member_id"`
	IsPlanned          bool               `json:"is_planned"`
	IsRecurring        bool               `json:"is_recurring"`
	RecurringFrequency RecurringFrequency `json:"recurring_frequency,omitempty"`
	Tags               []string           `json:"tags"`
}

// Normalize trims free text, normalises the date and tags, and drops the
// frequency of a non-recurring expense.
func (in *ExpenseInput) Normalize() {
	in.Description = strings.TrimSpace(in.Description)
	in.FamilyMemberID = strings.TrimSpace(in.FamilyMemberID)
	in.Date = CalendarDate(in.Date)
	in.Tags = NormalizeTags(in.Tags)
	if !in.IsRecurring {
		in.RecurringFrequency = ""
	}
}

// Validate checks the payload after Normalize.
func (in ExpenseInput) Validate() error {
	if !in.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !in.Category.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category: "+string(in.Category))
	}
	if in.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if in.IsRecurring && !in.RecurringFrequency.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring expenses need a frequency of daily, weekly, monthly or yearly")
	}
	return nil
}

// ExpenseUpdate carries a partial expense change. Nil fields are left as they
// are in the store.
type ExpenseUpdate struct {
	Amount             *money.Amount       `json:"amount,omitempty"`
	Category           *Category           `json:"category,omitempty"`
	Description        *string             `json:"description,omitempty"`
	Date               *time.Time          `json:"date,omitempty"`
	FamilyMemberID     *string             `json:"family_member_id,omitempty"`
	IsPlanned          *bool               `json:"is_planned,omitempty"`
	IsRecurring        *bool               `json:"is_recurring,omitempty"`
	RecurringFrequency *RecurringFrequency `json:"recurring_frequency,omitempty"`
	Tags               *[]string           `json:"tags,omitempty"`
}

// Normalize applies the same clean-up as ExpenseInput.Normalize to the fields
// that are present. Turning recurrence off also clears the frequency.
func (u *ExpenseUpdate) Normalize() {
	if u.Description != nil {
		d := strings.TrimSpace(*u.Description)
		u.Description = &d
	}
	if u.FamilyMemberID != nil {
		id := strings.TrimSpace(*u.FamilyMemberID)
		u.FamilyMemberID = &id
	}
	if u.Date != nil {
		d := CalendarDate(*u.Date)
		u.Date = &d
	}
	if u.Tags != nil {
		tags := NormalizeTags(*u.Tags)
		u.Tags = &tags
	}
	if u.IsRecurring != nil && !*u.IsRecurring {
		none := RecurringFrequency("")
		u.RecurringFrequency = &none
	}
}

// Validate checks every present field.
func (u ExpenseUpdate) Validate() error {
	if u.Amount != nil && !u.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if u.Category != nil && !u.Category.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category: "+string(*u.Category))
	}
	if u.Date != nil && u.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date cannot be empty")
	}
	if u.RecurringFrequency != nil && *u.RecurringFrequency != "" && !u.RecurringFrequency.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown recurring frequency: "+string(*u.RecurringFrequency))
	}
	if u.IsRecurring != nil && *u.IsRecurring && u.RecurringFrequency != nil && *u.RecurringFrequency == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring expenses need a frequency")
	}
	return nil
}

// Empty reports whether the update changes nothing.
func (u ExpenseUpdate) Empty() bool {
	return u.Amount == nil && u.Category == nil && u.Description == nil && u.Date == nil &&
		u.FamilyMemberID == nil && u.IsPlanned == nil && u.IsRecurring == nil &&
		u.RecurringFrequency == nil && u.Tags == nil
}

// NormalizeTags trims each tag, drops empty ones and duplicates, and returns the
// remainder sorted. The result is never nil.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
