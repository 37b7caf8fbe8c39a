package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"gharkharcha/internal/models"
	"gharkharcha/internal/money"
	"gharkharcha/internal/report"
	"gharkharcha/internal/store"
	"gharkharcha/internal/store/memstore"
	"gharkharcha/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	members := []models.FamilyMember{{ID: "m1", Name: "Asha", Role: models.RoleAdult}}
	expenses := []models.Expense{
		{
			Amount:             money.FromMinor(123456),
			Category:           models.CategoryHousing,
			Description:        "Rent",
			Date:               testutil.Date(2024, 3, 1),
			FamilyMemberID:     "m1",
			IsPlanned:          true,
			IsRecurring:        true,
			RecurringFrequency: models.FrequencyMonthly,
			Tags:               []string{"fixed", "home"},
		},
		{
			Amount:         money.FromMinor(500),
			Category:       models.CategoryFood,
			Date:           testutil.Date(2024, 3, 2),
			FamilyMemberID: "deleted",
		},
	}

	rows := Rows(expenses, members)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-01", rows[0].Date)
	assert.Equal(t, "1234.56", rows[0].Amount)
	assert.Equal(t, "Asha", rows[0].Member)
	assert.Equal(t, "monthly", rows[0].Frequency)
	assert.Equal(t, "fixed;home", rows[0].Tags)
	assert.Equal(t, report.UnknownMember, rows[1].Member)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []models.Expense{{
		Amount:      money.FromMinor(999),
		Category:    models.CategoryGifts,
		Description: "Cake, candles",
		Date:        testutil.Date(2024, 5, 9),
	}}, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,category,description,amount,member,planned,recurring,frequency,tags", lines[0])
	assert.Contains(t, lines[1], `"Cake, candles"`)
	assert.Contains(t, lines[1], "9.99")
}

func TestFromStore(t *testing.T) {
	st := memstore.New()
	owner := testutil.NewIdentity()
	memberID := testutil.Seed(t, st, store.FamilyMembers, testutil.FamilyMemberFields(owner.UID, "Ravi", models.RoleChild))
	testutil.Seed(t, st, store.Expenses, testutil.ExpenseFields(owner.UID, 250, models.CategoryEducation, testutil.Date(2024, 3, 10), memberID, true))
	testutil.Seed(t, st, store.Expenses, testutil.ExpenseFields(owner.UID, 100, models.CategoryFood, testutil.Date(2024, 4, 10), memberID, false))
	other := testutil.NewIdentity()
	testutil.Seed(t, st, store.Expenses, testutil.ExpenseFields(other.UID, 700, models.CategoryFood, testutil.Date(2024, 3, 11), "", false))

	var buf bytes.Buffer
	n, err := FromStore(context.Background(), &buf, st, owner.UID, testutil.Date(2024, 3, 1), testutil.Date(2024, 3, 31), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "Ravi")
	assert.NotContains(t, buf.String(), "7.00")
}
