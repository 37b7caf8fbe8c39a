package services

import (
	"context"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/store"
)

func (m *Manager) AddBudget(ctx context.Context, in models.BudgetInput) (string, error) {
	uid, ok := m.owner()
	if !ok {
		return "", nil
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}

	id, err := m.store.Add(store.WithOwner(ctx, uid), store.Budgets, budgetFields(uid, in, m.now()))
	if err != nil {
		return "", m.storeError("add budget", err, apperrors.ErrBudgetNotFound)
	}
	return id, nil
}

// UpdateBudget applies a partial update. When only one end of the date range
// changes, the other end is taken from the mirrored budget for validation.
func (m *Manager) UpdateBudget(ctx context.Context, id string, u models.BudgetUpdate) error {
	uid, ok := m.owner()
	if !ok {
		return nil
	}
	u.Normalize()
	if err := u.Validate(m.mirroredBudget(id)); err != nil {
		return err
	}

	if err := m.store.Update(store.WithOwner(ctx, uid), store.Budgets, id, budgetUpdateFields(u, m.now())); err != nil {
		return m.storeError("update budget", err, apperrors.ErrBudgetNotFound)
	}
	return nil
}

func (m *Manager) DeleteBudget(ctx context.Context, id string) error {
	uid, ok := m.owner()
	if !ok {
		return nil
	}
	if err := m.store.Delete(store.WithOwner(ctx, uid), store.Budgets, id); err != nil {
		return m.storeError("delete budget", err, apperrors.ErrBudgetNotFound)
	}
	return nil
}

func (m *Manager) mirroredBudget(id string) *models.Budget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.budgets {
		if b.ID == id {
			b := b
			return &b
		}
	}
	return nil
}
