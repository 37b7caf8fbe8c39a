package services

import (
	"context"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/store"
)

// AddExpense stores a new expense for the active identity and returns its id.
// Without an identity it does nothing and returns an empty id.
func (m *Manager) AddExpense(ctx context.Context, in models.ExpenseInput) (string, error) {
	uid, ok := m.owner()
	if !ok {
		m.log.Debugw("AddExpense ignored without identity")
		return "", nil
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}

	id, err := m.store.Add(store.WithOwner(ctx, uid), store.Expenses, expenseFields(uid, in, m.now()))
	if err != nil {
		return "", m.storeError("add expense", err, apperrors.ErrExpenseNotFound)
	}
	return id, nil
}

// UpdateExpense applies a partial update and refreshes the update timestamp.
func (m *Manager) UpdateExpense(ctx context.Context, id string, u models.ExpenseUpdate) error {
	uid, ok := m.owner()
	if !ok {
		return nil
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return err
	}

	if err := m.store.Update(store.WithOwner(ctx, uid), store.Expenses, id, expenseUpdateFields(u, m.now())); err != nil {
		return m.storeError("update expense", err, apperrors.ErrExpenseNotFound)
	}
	return nil
}

// DeleteExpense removes an expense.
func (m *Manager) DeleteExpense(ctx context.Context, id string) error {
	uid, ok := m.owner()
	if !ok {
		return nil
	}
	if err := m.store.Delete(store.WithOwner(ctx, uid), store.Expenses, id); err != nil {
		return m.storeError("delete expense", err, apperrors.ErrExpenseNotFound)
	}
	return nil
}
