package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/money"
)

func setupExpenseRouter(handler *ExpenseHandler) *gin.Engine {
	r := gin.New()
	r.POST("/expenses", handler.CreateExpense)
	r.GET("/expenses", handler.GetExpenses)
	r.PATCH("/expenses/:id", handler.UpdateExpense)
	r.DELETE("/expenses/:id", handler.DeleteExpense)
	return r
}

func sampleExpenses() []models.Expense {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	return []models.Expense{
		{Base: models.Base{ID: "e3"}, Amount: money.FromMinor(300), Category: models.CategoryFood, Date: day(20), FamilyMemberID: "m1"},
		{Base: models.Base{ID: "e2"}, Amount: money.FromMinor(200), Category: models.CategoryHousing, Date: day(10), FamilyMemberID: "m2"},
		{Base: models.Base{ID: "e1"}, Amount: money.FromMinor(100), Category: models.CategoryFood, Date: day(1), FamilyMemberID: "m2"},
	}
}

func TestExpenseHandler_SignedOut(t *testing.T) {
	r := setupExpenseRouter(NewExpenseHandler(&mockManager{}, &mockManager{}))

	for _, tc := range []struct{ method, path, body string }{
		{"GET", "/expenses", ""},
		{"POST", "/expenses", `{"amount":1,"category":"food","date":"2024-03-01"}`},
		{"PATCH", "/expenses/e1", `{"amount":2}`},
		{"DELETE", "/expenses/e1", ""},
	} {
		rec := doRequest(r, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
			continue
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_AUTHENTICATED")
	}
}

func TestExpenseHandler_CreateExpense(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		mgr := signedIn()
		var got models.ExpenseInput
		mgr.addExpenseFn = func(in models.ExpenseInput) (string, error) {
			got = in
			return "exp-42", nil
		}
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "POST", "/expenses",
			`{"amount":"12.50","category":"groceries","description":"Veg","date":"2024-03-10","family_member_id":"m1","is_planned":true,"tags":["market"]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["id"] != "exp-42" {
			t.Errorf("expected id exp-42")
		}
		if got.Amount.Minor() != 1250 {
			t.Errorf("expected 1250 minor units, got %d", got.Amount.Minor())
		}
		if !got.Date.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", got.Date)
		}
		if !got.IsPlanned || got.Category != models.CategoryGroceries {
			t.Errorf("unexpected input %+v", got)
		}
	})

	t.Run("returns 400 on unknown category", func(t *testing.T) {
		mgr := signedIn()
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "POST", "/expenses", `{"amount":5,"category":"crypto","date":"2024-03-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		mgr := signedIn()
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "POST", "/expenses", `{"amount":5,"category":"food","date":"10/03/2024"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed amount", func(t *testing.T) {
		mgr := signedIn()
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "POST", "/expenses", `{"amount":"ten","category":"food","date":"2024-03-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when the store rejects the write", func(t *testing.T) {
		mgr := signedIn()
		mgr.addExpenseFn = func(models.ExpenseInput) (string, error) {
			return "", apperrors.ErrStoreOperationFailed
		}
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "POST", "/expenses", `{"amount":5,"category":"food","date":"2024-03-10"}`)

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "STORE_OPERATION_FAILED")
	})
}

func TestExpenseHandler_GetExpenses(t *testing.T) {
	t.Run("filters and paginates", func(t *testing.T) {
		mgr := signedIn()
		mgr.state.Expenses = sampleExpenses()
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "GET", "/expenses?category=food&page_size=1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total_items"].(float64) != 2 {
			t.Errorf("expected 2 food expenses, got %v", result["total_items"])
		}
		data := result["data"].([]interface{})
		if len(data) != 1 || data[0].(map[string]interface{})["id"] != "e3" {
			t.Errorf("expected newest food expense first, got %v", data)
		}
	})

	t.Run("filters by window and member", func(t *testing.T) {
		mgr := signedIn()
		mgr.state.Expenses = sampleExpenses()
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "GET", "/expenses?start=2024-03-01&end=2024-03-15&member_id=m2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["total_items"].(float64) != 2 {
			t.Errorf("expected 2 expenses")
		}
	})

	t.Run("returns 400 with only start", func(t *testing.T) {
		mgr := signedIn()
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "GET", "/expenses?start=2024-03-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_UpdateExpense(t *testing.T) {
	t.Run("passes only present fields", func(t *testing.T) {
		mgr := signedIn()
		var gotID string
		var got models.ExpenseUpdate
		mgr.updateExpenseFn = func(id string, u models.ExpenseUpdate) error {
			gotID, got = id, u
			return nil
		}
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "PATCH", "/expenses/e7", `{"description":"Dinner","date":"2024-04-02"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != "e7" {
			t.Errorf("expected id e7, got %s", gotID)
		}
		if got.Description == nil || *got.Description != "Dinner" {
			t.Error("expected description")
		}
		if got.Date == nil || got.Date.Day() != 2 {
			t.Error("expected date")
		}
		if got.Amount != nil || got.Category != nil || got.Tags != nil {
			t.Error("expected absent fields to stay nil")
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		mgr := signedIn()
		mgr.updateExpenseFn = func(string, models.ExpenseUpdate) error {
			return apperrors.ErrExpenseNotFound
		}
		r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

		rec := doRequest(r, "PATCH", "/expenses/nope", `{"is_planned":false}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "EXPENSE_NOT_FOUND")
	})
}

func TestExpenseHandler_DeleteExpense(t *testing.T) {
	mgr := signedIn()
	var deleted string
	mgr.deleteExpenseFn = func(id string) error {
		deleted = id
		return nil
	}
	r := setupExpenseRouter(NewExpenseHandler(mgr, mgr))

	rec := doRequest(r, "DELETE", "/expenses/e3", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != "e3" {
		t.Errorf("expected e3 deleted, got %q", deleted)
	}
}
