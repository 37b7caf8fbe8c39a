// Package report computes expense summaries, budget progress and the derived
// views shown on the dashboard and reports pages. Every function here is pure:
// it reads the slices it is given and never touches the store.
package report

import (
	"time"

	"gharkharcha/internal/models"
)

// Window is a closed calendar-date interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow normalises both bounds to calendar dates.
func NewWindow(start, end time.Time) Window {
	return Window{Start: models.CalendarDate(start), End: models.CalendarDate(end)}
}

// Contains reports whether t falls on a day within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	d := models.CalendarDate(t)
	return !d.Before(models.CalendarDate(w.Start)) && !d.After(models.CalendarDate(w.End))
}

// Summarize aggregates the expenses dated within [start, end]. Categories with
// no matching expense are absent from ByCategory; member ids are taken
// literally, including ids of deleted members.
func Summarize(expenses []models.Expense, start, end time.Time) models.ExpenseSummary {
	w := NewWindow(start, end)
	summary := models.NewExpenseSummary()
	for _, e := range expenses {
		if !w.Contains(e.Date) {
			continue
		}
		summary.TotalAmount += e.Amount
		if e.IsPlanned {
			summary.PlannedAmount += e.Amount
		} else {
			summary.UnplannedAmount += e.Amount
		}
		summary.ByCategory[e.Category] += e.Amount
		summary.ByMember[e.FamilyMemberID] += e.Amount
	}
	return summary
}

// ExpenseFilter narrows a list of expenses. Zero fields match everything.
type ExpenseFilter struct {
	Window   *Window
	Category models.Category
	MemberID string
}

// Filter returns the expenses matching f, preserving input order.
func Filter(expenses []models.Expense, f ExpenseFilter) []models.Expense {
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Window != nil && !f.Window.Contains(e.Date) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.MemberID != "" && e.FamilyMemberID != f.MemberID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Recent returns at most n expenses from a date-descending list.
func Recent(expenses []models.Expense, n int) []models.Expense {
	if n < 0 {
		n = 0
	}
	if len(expenses) < n {
		n = len(expenses)
	}
	return append([]models.Expense(nil), expenses[:n]...)
}
