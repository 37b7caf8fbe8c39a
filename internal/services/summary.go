package services

import (
	"context"
	"time"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/report"
	"gharkharcha/internal/store"

	"go.uber.org/zap"
)

// Summary aggregates the active identity's expenses in [start, end] with a
// one-shot store query, independent of the live mirror. Without an identity
// it returns the zero summary.
func (m *Manager) Summary(ctx context.Context, start, end time.Time) (models.ExpenseSummary, error) {
	uid, ok := m.owner()
	if !ok {
		return models.NewExpenseSummary(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.summaryTimeout)
	defer cancel()

	summary, err := QuerySummary(ctx, m.store, uid, start, end, m.log)
	if err != nil {
		return models.NewExpenseSummary(), m.storeError("summary", err, apperrors.ErrNotFound)
	}
	return summary, nil
}

// LiveSummary aggregates the mirrored expenses in [start, end].
func (m *Manager) LiveSummary(start, end time.Time) models.ExpenseSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return report.Summarize(m.expenses, start, end)
}

// QueryExpenses loads uid's expenses dated within [start, end], newest first.
// Malformed records are skipped and logged.
func QueryExpenses(ctx context.Context, st store.RecordStore, uid string, start, end time.Time, log *zap.SugaredLogger) ([]models.Expense, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	from := models.CalendarDate(start)
	until := models.CalendarDate(end).AddDate(0, 0, 1)

	docs, err := st.Query(store.WithOwner(ctx, uid), store.Query{
		Collection: store.Expenses,
		Filters: []store.Filter{
			store.Where(store.FieldUserID, store.OpEqual, uid),
			store.Where(store.FieldDate, store.OpGreaterEqual, store.FromTime(from)),
			store.Where(store.FieldDate, store.OpLess, store.FromTime(until)),
		},
		OrderBy: []store.Order{{Field: store.FieldDate, Descending: true}},
	})
	if err != nil {
		return nil, err
	}

	return decodeAll(log, docs, decodeExpense), nil
}

// QuerySummary runs the summary query for uid against st.
func QuerySummary(ctx context.Context, st store.RecordStore, uid string, start, end time.Time, log *zap.SugaredLogger) (models.ExpenseSummary, error) {
	expenses, err := QueryExpenses(ctx, st, uid, start, end, log)
	if err != nil {
		return models.NewExpenseSummary(), err
	}
	return report.Summarize(expenses, start, end), nil
}

// QueryFamilyMembers loads uid's family members.
func QueryFamilyMembers(ctx context.Context, st store.RecordStore, uid string, log *zap.SugaredLogger) ([]models.FamilyMember, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	docs, err := st.Query(store.WithOwner(ctx, uid), store.Query{
		Collection: store.FamilyMembers,
		Filters:    []store.Filter{store.Where(store.FieldUserID, store.OpEqual, uid)},
	})
	if err != nil {
		return nil, err
	}
	return decodeAll(log, docs, decodeFamilyMember), nil
}

// decodeAll decodes docs, skipping and logging malformed records.
func decodeAll[T any](log *zap.SugaredLogger, docs []store.Document, decode func(store.Document) (T, error)) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decode(doc)
		if err != nil {
			log.Warnw("Skipping malformed record", "id", doc.ID, "error", err)
			continue
		}
		out = append(out, item)
	}
	return out
}
