package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gharkharcha/internal/logger"
	"gharkharcha/internal/models"
	"gharkharcha/internal/services"
	"gharkharcha/internal/validator"
)

// --- mock manager ---

// mockManager implements every servicer interface the handlers use.
type mockManager struct {
	identity *models.Identity
	loading  bool
	state    services.State

	addExpenseFn         func(in models.ExpenseInput) (string, error)
	updateExpenseFn      func(id string, u models.ExpenseUpdate) error
	deleteExpenseFn      func(id string) error
	addFamilyMemberFn    func(in models.FamilyMemberInput) (string, error)
	updateFamilyMemberFn func(id string, u models.FamilyMemberUpdate) error
	deleteFamilyMemberFn func(id string) error
	addBudgetFn          func(in models.BudgetInput) (string, error)
	updateBudgetFn       func(id string, u models.BudgetUpdate) error
	deleteBudgetFn       func(id string) error
	summaryFn            func(start, end time.Time) (models.ExpenseSummary, error)
	liveSummaryFn        func(start, end time.Time) models.ExpenseSummary
}

func (m *mockManager) Identity() *models.Identity { return m.identity }
func (m *mockManager) Loading() bool              { return m.loading }

func (m *mockManager) Expenses() []models.Expense { return m.state.Expenses }

func (m *mockManager) AddExpense(_ context.Context, in models.ExpenseInput) (string, error) {
	if m.addExpenseFn != nil {
		return m.addExpenseFn(in)
	}
	return "exp-1", nil
}

func (m *mockManager) UpdateExpense(_ context.Context, id string, u models.ExpenseUpdate) error {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(id, u)
	}
	return nil
}

func (m *mockManager) DeleteExpense(_ context.Context, id string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(id)
	}
	return nil
}

func (m *mockManager) FamilyMembers() []models.FamilyMember { return m.state.FamilyMembers }

func (m *mockManager) AddFamilyMember(_ context.Context, in models.FamilyMemberInput) (string, error) {
	if m.addFamilyMemberFn != nil {
		return m.addFamilyMemberFn(in)
	}
	return "mem-1", nil
}

func (m *mockManager) UpdateFamilyMember(_ context.Context, id string, u models.FamilyMemberUpdate) error {
	if m.updateFamilyMemberFn != nil {
		return m.updateFamilyMemberFn(id, u)
	}
	return nil
}

func (m *mockManager) DeleteFamilyMember(_ context.Context, id string) error {
	if m.deleteFamilyMemberFn != nil {
		return m.deleteFamilyMemberFn(id)
	}
	return nil
}

func (m *mockManager) Budgets() []models.Budget { return m.state.Budgets }

func (m *mockManager) AddBudget(_ context.Context, in models.BudgetInput) (string, error) {
	if m.addBudgetFn != nil {
		return m.addBudgetFn(in)
	}
	return "bud-1", nil
}

func (m *mockManager) UpdateBudget(_ context.Context, id string, u models.BudgetUpdate) error {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(id, u)
	}
	return nil
}

func (m *mockManager) DeleteBudget(_ context.Context, id string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(id)
	}
	return nil
}

func (m *mockManager) Summary(_ context.Context, start, end time.Time) (models.ExpenseSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(start, end)
	}
	return models.NewExpenseSummary(), nil
}

func (m *mockManager) LiveSummary(start, end time.Time) models.ExpenseSummary {
	if m.liveSummaryFn != nil {
		return m.liveSummaryFn(start, end)
	}
	return models.NewExpenseSummary()
}

func (m *mockManager) State() services.State {
	st := m.state
	st.Identity = m.identity
	st.Loading = m.loading
	return st
}

var (
	_ services.SessionServicer      = (*mockManager)(nil)
	_ services.ExpenseServicer      = (*mockManager)(nil)
	_ services.FamilyMemberServicer = (*mockManager)(nil)
	_ services.BudgetServicer       = (*mockManager)(nil)
	_ services.ReportServicer       = (*mockManager)(nil)
)

func signedIn() *mockManager {
	return &mockManager{identity: &models.Identity{UID: "user-1", DisplayName: "Test User"}}
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	logger.Init("test", "error")
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
