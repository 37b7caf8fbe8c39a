package models

import "gharkharcha/internal/money"

// ExpenseSummary aggregates a set of expenses over a date window. It is derived
// on demand and never stored.
type ExpenseSummary struct {
	TotalAmount     money.Amount              `json:"total_amount"`
	PlannedAmount   money.Amount              `json:"planned_amount"`
	UnplannedAmount money.Amount              `json:"unplanned_amount"`
	ByCategory      map[Category]money.Amount `json:"by_category"`
	ByMember        map[string]money.Amount   `json:"by_member"`
}

// NewExpenseSummary returns the zero summary with non-nil maps.
func NewExpenseSummary() ExpenseSummary {
	return ExpenseSummary{
		ByCategory: map[Category]money.Amount{},
		ByMember:   map[string]money.Amount{},
	}
}
