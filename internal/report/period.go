package report

import (
	"fmt"
	"time"

	"gharkharcha/internal/models"
)

// Period is the granularity of the dashboard window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod accepts week, month or year; an empty string means month.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodMonth, nil
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// BudgetPeriod maps the dashboard period onto the budget period compared
// against it. Weekly spend is measured against monthly budgets.
func (p Period) BudgetPeriod() models.BudgetPeriod {
	if p == PeriodYear {
		return models.BudgetPeriodYearly
	}
	return models.BudgetPeriodMonthly
}

// WindowFor returns the window for p anchored at now: the last seven days, the
// calendar month or the calendar year.
func WindowFor(p Period, now time.Time) Window {
	switch p {
	case PeriodWeek:
		today := models.CalendarDate(now)
		return Window{Start: today.AddDate(0, 0, -7), End: today}
	case PeriodYear:
		return YearWindow(now)
	default:
		return MonthWindow(now)
	}
}

// MonthWindow spans the first to the last day of t's month.
func MonthWindow(t time.Time) Window {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: first, End: first.AddDate(0, 1, -1)}
}

// YearWindow spans January 1 to December 31 of t's year.
func YearWindow(t time.Time) Window {
	return Window{
		Start: time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}
