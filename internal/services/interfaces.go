package services

import (
	"context"
	"time"

	"gharkharcha/internal/models"
)

// SessionServicer exposes the identity the collections are scoped to.
type SessionServicer interface {
	Identity() *models.Identity
	Loading() bool
}

// ExpenseServicer defines the contract for reading and writing expenses.
type ExpenseServicer interface {
	Expenses() []models.Expense
	AddExpense(ctx context.Context, in models.ExpenseInput) (string, error)
	UpdateExpense(ctx context.Context, id string, u models.ExpenseUpdate) error
	DeleteExpense(ctx context.Context, id string) error
}

// FamilyMemberServicer defines the contract for reading and writing family members.
type FamilyMemberServicer interface {
	FamilyMembers() []models.FamilyMember
	AddFamilyMember(ctx context.Context, in models.FamilyMemberInput) (string, error)
	UpdateFamilyMember(ctx context.Context, id string, u models.FamilyMemberUpdate) error
	DeleteFamilyMember(ctx context.Context, id string) error
}

// BudgetServicer defines the contract for reading and writing budgets.
type BudgetServicer interface {
	Budgets() []models.Budget
	AddBudget(ctx context.Context, in models.BudgetInput) (string, error)
	UpdateBudget(ctx context.Context, id string, u models.BudgetUpdate) error
	DeleteBudget(ctx context.Context, id string) error
}

// ReportServicer defines the contract for summaries and report views.
type ReportServicer interface {
	Summary(ctx context.Context, start, end time.Time) (models.ExpenseSummary, error)
	LiveSummary(start, end time.Time) models.ExpenseSummary
	State() State
}

var (
	_ SessionServicer      = (*Manager)(nil)
	_ ExpenseServicer      = (*Manager)(nil)
	_ FamilyMemberServicer = (*Manager)(nil)
	_ BudgetServicer       = (*Manager)(nil)
	_ ReportServicer       = (*Manager)(nil)
)
