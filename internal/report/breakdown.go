package report

import (
	"sort"
	"time"

	"gharkharcha/internal/category"
	"gharkharcha/internal/models"
	"gharkharcha/internal/money"
)

// UnknownMember is shown for expenses whose member no longer exists.
const UnknownMember = "Unknown Member"

// MonthTotals is one bar of the monthly trend chart.
type MonthTotals struct {
	Label     string       `json:"label"`
	Year      int          `json:"year"`
	Month     time.Month   `json:"month"`
	Planned   money.Amount `json:"planned"`
	Unplanned money.Amount `json:"unplanned"`
	Total     money.Amount `json:"total"`
}

// MonthlyTrend summarises the given number of calendar months ending with the
// anchor's month, oldest first.
func MonthlyTrend(expenses []models.Expense, anchor time.Time, months int) []MonthTotals {
	if months <= 0 {
		return []MonthTotals{}
	}
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]MonthTotals, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		w := MonthWindow(m)
		s := Summarize(expenses, w.Start, w.End)
		out = append(out, MonthTotals{
			Label:     m.Format("Jan 2006"),
			Year:      m.Year(),
			Month:     m.Month(),
			Planned:   s.PlannedAmount,
			Unplanned: s.UnplannedAmount,
			Total:     s.TotalAmount,
		})
	}
	return out
}

// CategoryTotal is one row of the category ranking.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Amount   money.Amount    `json:"amount"`
	Share    int             `json:"share"`
	Icon     string          `json:"icon"`
	Color    string          `json:"color"`
}

// RankCategories orders categories by amount, largest first, ties broken by
// name. Share is the rounded percentage of the combined amount.
func RankCategories(byCategory map[models.Category]money.Amount, table *category.Table) []CategoryTotal {
	if table == nil {
		table = category.Default()
	}
	var total money.Amount
	out := make([]CategoryTotal, 0, len(byCategory))
	for c, amt := range byCategory {
		total += amt
		meta := table.Lookup(c)
		out = append(out, CategoryTotal{Category: c, Amount: amt, Icon: meta.Icon, Color: meta.Color})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	if total > 0 {
		for i := range out {
			out[i].Share = int(out[i].Amount.Decimal().Div(total.Decimal()).Mul(hundred).Round(0).IntPart())
		}
	}
	return out
}

// MemberTotal is one row of the per-member breakdown.
type MemberTotal struct {
	MemberID string       `json:"member_id"`
	Name     string       `json:"name"`
	Amount   money.Amount `json:"amount"`
}

// MemberBreakdown resolves member ids to names and orders the rows by amount,
// largest first. Dangling ids resolve to UnknownMember.
func MemberBreakdown(byMember map[string]money.Amount, members []models.FamilyMember) []MemberTotal {
	out := make([]MemberTotal, 0, len(byMember))
	for id, amt := range byMember {
		out = append(out, MemberTotal{MemberID: id, Name: MemberName(members, id), Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// MemberName returns the name of the member with the given id.
func MemberName(members []models.FamilyMember, id string) string {
	for _, m := range members {
		if m.ID == id {
			return m.Name
		}
	}
	return UnknownMember
}
