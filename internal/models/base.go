package models

import "time"

// Base contains the identifier and store-assigned audit timestamps shared by
// expenses and budgets. UpdatedAt is never earlier than CreatedAt.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CalendarDate truncates t to midnight UTC of its own year, month and day.
// Expense and budget dates are calendar dates, so every boundary that accepts a
// time.Time runs it through here first.
func CalendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
