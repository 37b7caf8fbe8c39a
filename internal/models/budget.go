package models

import (
	"time"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/money"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is a known budget period.
func (p BudgetPeriod) Valid() bool {
	return p == BudgetPeriodMonthly || p == BudgetPeriodYearly
}

// Budget represents a spending limit for a category. A nil EndDate means the
// budget is open-ended. Several budgets may target the same category.
type Budget struct {
	Base
	Category  Category     `json:"category"`
	Amount    money.Amount `json:"amount"`
	Period    BudgetPeriod `json:"period"`
	StartDate time.Time    `json:"start_date"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
}

// BudgetInput is the payload for a new budget.
type BudgetInput struct {
	Category  Category     `json:"category"`
	Amount    money.Amount `json:"amount"`
	Period    BudgetPeriod `json:"period"`
	StartDate time.Time    `json:"start_date"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
}

func (in *BudgetInput) Normalize() {
	in.StartDate = CalendarDate(in.StartDate)
	if in.EndDate != nil {
		end := CalendarDate(*in.EndDate)
		in.EndDate = &end
	}
}

func (in BudgetInput) Validate() error {
	if !in.Category.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category: "+string(in.Category))
	}
	if !in.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !in.Period.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be monthly or yearly")
	}
	if in.StartDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	return ValidateBudgetRange(in.StartDate, in.EndDate)
}

// BudgetUpdate carries a partial budget change. ClearEndDate removes the end
// date and takes precedence over EndDate.
type BudgetUpdate struct {
	Category     *Category     `json:"category,omitempty"`
	Amount       *money.Amount `json:"amount,omitempty"`
	Period       *BudgetPeriod `json:"period,omitempty"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	ClearEndDate bool          `json:"clear_end_date,omitempty"`
}

func (u *BudgetUpdate) Normalize() {
	if u.StartDate != nil {
		s := CalendarDate(*u.StartDate)
		u.StartDate = &s
	}
	if u.ClearEndDate {
		u.EndDate = nil
	} else if u.EndDate != nil {
		e := CalendarDate(*u.EndDate)
		u.EndDate = &e
	}
}

// Validate checks the present fields. current is the budget as last mirrored,
// used to check the date range when only one bound changes; it may be nil.
func (u BudgetUpdate) Validate(current *Budget) error {
	if u.Category != nil && !u.Category.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category: "+string(*u.Category))
	}
	if u.Amount != nil && !u.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if u.Period != nil && !u.Period.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be monthly or yearly")
	}
	if u.StartDate != nil && u.StartDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date cannot be empty")
	}

	var start time.Time
	var end *time.Time
	if current != nil {
		start, end = current.StartDate, current.EndDate
	}
	if u.StartDate != nil {
		start = *u.StartDate
	}
	if u.ClearEndDate {
		end = nil
	} else if u.EndDate != nil {
		end = u.EndDate
	}
	if start.IsZero() {
		return nil
	}
	return ValidateBudgetRange(start, end)
}

func (u BudgetUpdate) Empty() bool {
	return u.Category == nil && u.Amount == nil && u.Period == nil &&
		u.StartDate == nil && u.EndDate == nil && !u.ClearEndDate
}

// ValidateBudgetRange rejects an end date before the start date.
func ValidateBudgetRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}
	return nil
}
