package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/money"
)

var reportNow = time.Date(2024, time.March, 25, 12, 0, 0, 0, time.UTC)

func setupReportRouter(mgr *mockManager) *gin.Engine {
	handler := NewReportHandler(mgr, mgr, nil)
	handler.now = func() time.Time { return reportNow }

	r := gin.New()
	r.GET("/reports/summary", handler.GetSummary)
	r.GET("/reports/dashboard", handler.GetDashboard)
	r.GET("/reports/trend", handler.GetTrend)
	r.GET("/reports/export", handler.ExportExpenses)
	return r
}

func TestReportHandler_SignedOut(t *testing.T) {
	r := setupReportRouter(&mockManager{})

	for _, path := range []string{"/reports/summary", "/reports/dashboard", "/reports/trend", "/reports/export"} {
		rec := doRequest(r, "GET", path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestReportHandler_GetSummary(t *testing.T) {
	t.Run("defaults to the current month and a store query", func(t *testing.T) {
		mgr := signedIn()
		var gotStart, gotEnd time.Time
		mgr.summaryFn = func(start, end time.Time) (models.ExpenseSummary, error) {
			gotStart, gotEnd = start, end
			s := models.NewExpenseSummary()
			s.TotalAmount = money.FromMinor(1500)
			s.ByCategory[models.CategoryFood] = money.FromMinor(1000)
			s.ByCategory[models.CategoryHousing] = money.FromMinor(500)
			return s, nil
		}
		r := setupReportRouter(mgr)

		rec := doRequest(r, "GET", "/reports/summary", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotStart.Day() != 1 || gotEnd.Day() != 31 || gotEnd.Month() != time.March {
			t.Errorf("expected March window, got %v - %v", gotStart, gotEnd)
		}
		result := parseJSON(t, rec)
		if result["source"] != "query" {
			t.Errorf("expected source query, got %v", result["source"])
		}
		categories := result["categories"].([]interface{})
		first := categories[0].(map[string]interface{})
		if first["category"] != "food" || first["share"].(float64) != 67 {
			t.Errorf("expected food first with 67%%, got %v", first)
		}
	})

	t.Run("live source reads the mirror", func(t *testing.T) {
		mgr := signedIn()
		called := false
		mgr.liveSummaryFn = func(time.Time, time.Time) models.ExpenseSummary {
			called = true
			return models.NewExpenseSummary()
		}
		r := setupReportRouter(mgr)

		rec := doRequest(r, "GET", "/reports/summary?source=live&start=2024-01-01&end=2024-01-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected LiveSummary to be called")
		}
	})

	t.Run("returns 400 when end is before start", func(t *testing.T) {
		r := setupReportRouter(signedIn())

		rec := doRequest(r, "GET", "/reports/summary?start=2024-02-01&end=2024-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on unknown source", func(t *testing.T) {
		r := setupReportRouter(signedIn())

		rec := doRequest(r, "GET", "/reports/summary?source=cache", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when the query fails", func(t *testing.T) {
		mgr := signedIn()
		mgr.summaryFn = func(time.Time, time.Time) (models.ExpenseSummary, error) {
			return models.NewExpenseSummary(), apperrors.ErrStoreOperationFailed
		}
		r := setupReportRouter(mgr)

		rec := doRequest(r, "GET", "/reports/summary", "")

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
	})
}

func TestReportHandler_GetDashboard(t *testing.T) {
	t.Run("month dashboard", func(t *testing.T) {
		mgr := signedIn()
		mgr.state.FamilyMembers = []models.FamilyMember{{ID: "m1", Name: "Asha", Role: models.RoleAdult}}
		mgr.state.Budgets = []models.Budget{
			{Base: models.Base{ID: "b1"}, Category: models.CategoryFood, Amount: money.FromMinor(1000), Period: models.BudgetPeriodMonthly},
		}
		mgr.state.Expenses = []models.Expense{
			{Base: models.Base{ID: "e2"}, Amount: money.FromMinor(900), Category: models.CategoryFood, Date: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), FamilyMemberID: "m1", IsPlanned: true},
			{Base: models.Base{ID: "e1"}, Amount: money.FromMinor(300), Category: models.CategoryGifts, Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), FamilyMemberID: "gone"},
			{Base: models.Base{ID: "e0"}, Amount: money.FromMinor(5000), Category: models.CategoryHousing, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		}
		r := setupReportRouter(mgr)

		rec := doRequest(r, "GET", "/reports/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["period"] != "month" {
			t.Errorf("expected month, got %v", result["period"])
		}
		budget := result["budget"].(map[string]interface{})
		if budget["percent"].(float64) != 100 || budget["overspent"] != true {
			t.Errorf("expected capped, overspent budget, got %v", budget)
		}
		if budget["raw_percent"].(float64) != 120 {
			t.Errorf("expected raw percent 120, got %v", budget["raw_percent"])
		}
		members := result["members"].([]interface{})
		if members[1].(map[string]interface{})["name"] != "Unknown Member" {
			t.Errorf("expected dangling member resolved, got %v", members)
		}
		recent := result["recent"].([]interface{})
		if len(recent) != 2 {
			t.Errorf("expected 2 recent expenses in window, got %d", len(recent))
		}
	})

	t.Run("returns 400 on unknown period", func(t *testing.T) {
		r := setupReportRouter(signedIn())

		rec := doRequest(r, "GET", "/reports/dashboard?period=decade", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_GetTrend(t *testing.T) {
	t.Run("returns the requested months oldest first", func(t *testing.T) {
		mgr := signedIn()
		mgr.state.Expenses = []models.Expense{
			{Amount: money.FromMinor(100), Category: models.CategoryFood, Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		}
		r := setupReportRouter(mgr)

		rec := doRequest(r, "GET", "/reports/trend?months=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		months := parseJSON(t, rec)["months"].([]interface{})
		if len(months) != 3 {
			t.Fatalf("expected 3 months, got %d", len(months))
		}
		jan := months[0].(map[string]interface{})
		if jan["label"] != "Jan 2024" || jan["total"].(float64) != 1 {
			t.Errorf("unexpected first month %v", jan)
		}
	})

	t.Run("returns 400 on out of range months", func(t *testing.T) {
		r := setupReportRouter(signedIn())

		rec := doRequest(r, "GET", "/reports/trend?months=0", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_ExportExpenses(t *testing.T) {
	mgr := signedIn()
	mgr.state.Expenses = []models.Expense{
		{Amount: money.FromMinor(1999), Category: models.CategoryShopping, Description: "Shoes", Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), FamilyMemberID: "gone"},
		{Amount: money.FromMinor(100), Category: models.CategoryFood, Date: time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
	}
	r := setupReportRouter(mgr)

	rec := doRequest(r, "GET", "/reports/export?start=2024-03-01&end=2024-03-31", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %s", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "expenses_2024-03-01_2024-03-31.csv") {
		t.Errorf("unexpected disposition %s", rec.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and 1 row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "19.99") || !strings.Contains(lines[1], "Unknown Member") {
		t.Errorf("unexpected row %s", lines[1])
	}
}
