package report

import (
	"gharkharcha/internal/models"
	"gharkharcha/internal/money"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetProgress returns spent as a percentage of the budgets whose period
// matches, rounded half-up and capped at 100. It is 0 when no budget matches.
func BudgetProgress(spent money.Amount, budgets []models.Budget, period models.BudgetPeriod) int {
	st := BudgetStatus(spent, budgets, period)
	return st.Percent
}

// Status describes spend against the budgets of one period. Percent is capped
// at 100; RawPercent and OverBy keep the overspend visible.
type Status struct {
	Period     models.BudgetPeriod `json:"period"`
	Budgeted   money.Amount        `json:"budgeted"`
	Spent      money.Amount        `json:"spent"`
	Remaining  money.Amount        `json:"remaining"`
	OverBy     money.Amount        `json:"over_by"`
	Percent    int                 `json:"percent"`
	RawPercent int                 `json:"raw_percent"`
	Overspent  bool                `json:"overspent"`
}

// BudgetStatus computes the full progress record behind BudgetProgress.
func BudgetStatus(spent money.Amount, budgets []models.Budget, period models.BudgetPeriod) Status {
	st := Status{Period: period, Spent: spent}
	for _, b := range budgets {
		if b.Period == period {
			st.Budgeted += b.Amount
		}
	}
	if st.Budgeted <= 0 {
		return st
	}

	raw := spent.Decimal().Div(st.Budgeted.Decimal()).Mul(hundred).Round(0).IntPart()
	if raw < 0 {
		raw = 0
	}
	st.RawPercent = int(raw)
	st.Percent = st.RawPercent
	if st.Percent > 100 {
		st.Percent = 100
	}

	if spent > st.Budgeted {
		st.Overspent = true
		st.OverBy = spent - st.Budgeted
	} else {
		st.Remaining = st.Budgeted - spent
	}
	return st
}
