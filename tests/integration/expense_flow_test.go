package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseFlow_RecordUpdateAndDelete(t *testing.T) {
	app := setupApp(t)
	app.signIn(t, "household-1")

	memberID := app.create(t, "/api/v1/family-members", `{"name":"Asha","role":"adult"}`)
	app.waitLen(t, "/api/v1/family-members", "family_members", 1)

	groceriesID := app.create(t, "/api/v1/expenses", fmt.Sprintf(
		`{"amount":"42.50","category":"groceries","description":"  Weekly shop ","date":"2024-03-02","family_member_id":%q,"is_planned":true,"tags":["food","weekly","food"]}`,
		memberID))
	app.create(t, "/api/v1/expenses",
		`{"amount":19.99,"category":"entertainment","description":"Cinema","date":"2024-03-09T20:30:00Z"}`)
	app.waitLen(t, "/api/v1/expenses", "data", 2)

	// Newest first; text and tags normalised on the way in
	rec := app.request("GET", "/api/v1/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := parseJSON(t, rec)["data"].([]interface{})
	first := data[0].(map[string]interface{})
	second := data[1].(map[string]interface{})
	assert.Equal(t, "Cinema", first["description"])
	assert.Equal(t, "Weekly shop", second["description"])
	assert.Equal(t, []interface{}{"food", "weekly"}, second["tags"])
	assert.Equal(t, 42.5, second["amount"])

	// Filter by member
	assert.Equal(t, 1, app.listLen(t, "/api/v1/expenses?member_id="+memberID, "data"))

	// Partial update
	rec = app.request("PATCH", "/api/v1/expenses/"+groceriesID, `{"amount":"50","is_recurring":true,"recurring_frequency":"weekly"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Eventually(t, func() bool {
		rec := app.request("GET", "/api/v1/expenses?category=groceries", "")
		items := parseJSON(t, rec)["data"].([]interface{})
		if len(items) != 1 {
			return false
		}
		e := items[0].(map[string]interface{})
		return e["amount"] == 50.0 && e["recurring_frequency"] == "weekly"
	}, settle, tick)

	// Invalid input is rejected before the store
	rec = app.request("POST", "/api/v1/expenses", `{"amount":0,"category":"groceries","date":"2024-03-02"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = app.request("POST", "/api/v1/expenses", `{"amount":5,"category":"yachts","date":"2024-03-02"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown id
	rec = app.request("DELETE", "/api/v1/expenses/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("DELETE", "/api/v1/expenses/"+groceriesID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	app.waitLen(t, "/api/v1/expenses", "data", 1)
}

func TestExpenseFlow_MemberDeletionLeavesExpenses(t *testing.T) {
	app := setupApp(t)
	app.signIn(t, "household-1")

	memberID := app.create(t, "/api/v1/family-members", `{"name":"Ravi","role":"child"}`)
	app.create(t, "/api/v1/expenses", fmt.Sprintf(
		`{"amount":12,"category":"education","date":"2024-03-04","family_member_id":%q}`, memberID))
	app.waitLen(t, "/api/v1/expenses", "data", 1)

	rec := app.request("DELETE", "/api/v1/family-members/"+memberID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	app.waitLen(t, "/api/v1/family-members", "family_members", 0)
	assert.Equal(t, 1, app.listLen(t, "/api/v1/expenses", "data"))

	rec = app.request("GET", "/api/v1/reports/export?start=2024-03-01&end=2024-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Unknown Member")
}
