package services

import (
	"fmt"
	"reflect"
	"time"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/money"
	"gharkharcha/internal/store"

	"github.com/shopspring/decimal"
)

// Encoding: models to store fields. Dates cross the boundary as timestamps.

func expenseFields(uid string, in models.ExpenseInput, now time.Time) store.Fields {
	f := store.Fields{
		store.FieldUserID:         uid,
		store.FieldAmount:         in.Amount.Minor(),
		store.FieldCategory:       string(in.Category),
		store.FieldDescription:    in.Description,
		store.FieldDate:           store.FromTime(in.Date),
		store.FieldFamilyMemberID: in.FamilyMemberID,
		store.FieldIsPlanned:      in.IsPlanned,
		store.FieldIsRecurring:    in.IsRecurring,
		store.FieldTags:           in.Tags,
		store.FieldCreatedAt:      store.FromTime(now),
		store.FieldUpdatedAt:      store.FromTime(now),
	}
	if in.IsRecurring {
		f[store.FieldRecurringFrequency] = string(in.RecurringFrequency)
	}
	return f
}

func expenseUpdateFields(u models.ExpenseUpdate, now time.Time) store.Fields {
	f := store.Fields{store.FieldUpdatedAt: store.FromTime(now)}
	if u.Amount != nil {
		f[store.FieldAmount] = u.Amount.Minor()
	}
	if u.Category != nil {
		f[store.FieldCategory] = string(*u.Category)
	}
	if u.Description != nil {
		f[store.FieldDescription] = *u.Description
	}
	if u.Date != nil {
		f[store.FieldDate] = store.FromTime(*u.Date)
	}
	if u.FamilyMemberID != nil {
		f[store.FieldFamilyMemberID] = *u.FamilyMemberID
	}
	if u.IsPlanned != nil {
		f[store.FieldIsPlanned] = *u.IsPlanned
	}
	if u.IsRecurring != nil {
		f[store.FieldIsRecurring] = *u.IsRecurring
	}
	if u.RecurringFrequency != nil {
		if *u.RecurringFrequency == "" {
			f[store.FieldRecurringFrequency] = nil
		} else {
			f[store.FieldRecurringFrequency] = string(*u.RecurringFrequency)
		}
	}
	if u.Tags != nil {
		f[store.FieldTags] = *u.Tags
	}
	return f
}

func familyMemberFields(uid string, in models.FamilyMemberInput) store.Fields {
	f := store.Fields{
		store.FieldUserID: uid,
		store.FieldName:   in.Name,
		store.FieldRole:   string(in.Role),
	}
	if in.AvatarURL != "" {
		f[store.FieldAvatarURL] = in.AvatarURL
	}
	return f
}

func familyMemberUpdateFields(u models.FamilyMemberUpdate) store.Fields {
	f := store.Fields{}
	if u.Name != nil {
		f[store.FieldName] = *u.Name
	}
	if u.Role != nil {
		f[store.FieldRole] = string(*u.Role)
	}
	if u.AvatarURL != nil {
		if *u.AvatarURL == "" {
			f[store.FieldAvatarURL] = nil
		} else {
			f[store.FieldAvatarURL] = *u.AvatarURL
		}
	}
	return f
}

func budgetFields(uid string, in models.BudgetInput, now time.Time) store.Fields {
	f := store.Fields{
		store.FieldUserID:    uid,
		store.FieldCategory:  string(in.Category),
		store.FieldAmount:    in.Amount.Minor(),
		store.FieldPeriod:    string(in.Period),
		store.FieldStartDate: store.FromTime(in.StartDate),
		store.FieldCreatedAt: store.FromTime(now),
		store.FieldUpdatedAt: store.FromTime(now),
	}
	if in.EndDate != nil {
		f[store.FieldEndDate] = store.FromTime(*in.EndDate)
	}
	return f
}

func budgetUpdateFields(u models.BudgetUpdate, now time.Time) store.Fields {
	f := store.Fields{store.FieldUpdatedAt: store.FromTime(now)}
	if u.Category != nil {
		f[store.FieldCategory] = string(*u.Category)
	}
	if u.Amount != nil {
		f[store.FieldAmount] = u.Amount.Minor()
	}
	if u.Period != nil {
		f[store.FieldPeriod] = string(*u.Period)
	}
	if u.StartDate != nil {
		f[store.FieldStartDate] = store.FromTime(*u.StartDate)
	}
	if u.ClearEndDate {
		f[store.FieldEndDate] = nil
	} else if u.EndDate != nil {
		f[store.FieldEndDate] = store.FromTime(*u.EndDate)
	}
	return f
}

// Decoding: store documents to models. Required fields that are missing or
// of the wrong type make the whole record malformed; optional ones fall back
// to their zero value.

func malformed(c store.Collection, id, format string, args ...any) error {
	return apperrors.Wrap(apperrors.ErrMalformedRecord,
		fmt.Errorf("%s/%s: %s", c, id, fmt.Sprintf(format, args...)))
}

func decodeExpense(doc store.Document) (models.Expense, error) {
	f := doc.Fields
	amount, ok := amountField(f, store.FieldAmount)
	if !ok {
		return models.Expense{}, malformed(store.Expenses, doc.ID, "missing or invalid amount")
	}
	date, ok := timeField(f, store.FieldDate)
	if !ok {
		return models.Expense{}, malformed(store.Expenses, doc.ID, "missing or invalid date")
	}
	cat, ok := stringField(f, store.FieldCategory)
	if !ok {
		return models.Expense{}, malformed(store.Expenses, doc.ID, "missing category")
	}

	e := models.Expense{
		Base:           base(doc),
		Amount:         amount,
		Category:       models.Category(cat),
		Date:           models.CalendarDate(date),
		Description:    optString(f, store.FieldDescription),
		FamilyMemberID: optString(f, store.FieldFamilyMemberID),
		IsPlanned:      optBool(f, store.FieldIsPlanned),
		IsRecurring:    optBool(f, store.FieldIsRecurring),
		Tags:           models.NormalizeTags(stringsField(f, store.FieldTags)),
	}
	if e.IsRecurring {
		e.RecurringFrequency = models.RecurringFrequency(optString(f, store.FieldRecurringFrequency))
	}
	return e, nil
}

func decodeFamilyMember(doc store.Document) (models.FamilyMember, error) {
	f := doc.Fields
	name, ok := stringField(f, store.FieldName)
	if !ok {
		return models.FamilyMember{}, malformed(store.FamilyMembers, doc.ID, "missing name")
	}
	return models.FamilyMember{
		ID:        doc.ID,
		Name:      name,
		Role:      models.MemberRole(optString(f, store.FieldRole)),
		AvatarURL: optString(f, store.FieldAvatarURL),
	}, nil
}

func decodeBudget(doc store.Document) (models.Budget, error) {
	f := doc.Fields
	amount, ok := amountField(f, store.FieldAmount)
	if !ok {
		return models.Budget{}, malformed(store.Budgets, doc.ID, "missing or invalid amount")
	}
	cat, ok := stringField(f, store.FieldCategory)
	if !ok {
		return models.Budget{}, malformed(store.Budgets, doc.ID, "missing category")
	}
	period, ok := stringField(f, store.FieldPeriod)
	if !ok {
		return models.Budget{}, malformed(store.Budgets, doc.ID, "missing period")
	}
	start, ok := timeField(f, store.FieldStartDate)
	if !ok {
		return models.Budget{}, malformed(store.Budgets, doc.ID, "missing or invalid start date")
	}

	b := models.Budget{
		Base:      base(doc),
		Category:  models.Category(cat),
		Amount:    amount,
		Period:    models.BudgetPeriod(period),
		StartDate: models.CalendarDate(start),
	}
	if end, ok := timeField(f, store.FieldEndDate); ok {
		end = models.CalendarDate(end)
		b.EndDate = &end
	}
	return b, nil
}

func base(doc store.Document) models.Base {
	b := models.Base{ID: doc.ID}
	b.CreatedAt, _ = timeField(doc.Fields, store.FieldCreatedAt)
	b.UpdatedAt, _ = timeField(doc.Fields, store.FieldUpdatedAt)
	if b.UpdatedAt.Before(b.CreatedAt) {
		b.UpdatedAt = b.CreatedAt
	}
	return b
}

// amountField reads minor units. Float values are whole currency units as
// older clients wrote them.
func amountField(f store.Fields, key string) (money.Amount, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return money.FromMinor(rv.Int()), true
	case reflect.Float32, reflect.Float64:
		return money.FromDecimal(decimal.NewFromFloat(rv.Float())), true
	}
	return 0, false
}

func timeField(f store.Fields, key string) (time.Time, bool) {
	ts, ok := f[key].(store.Timestamp)
	if !ok {
		return time.Time{}, false
	}
	return ts.Time(), true
}

func stringField(f store.Fields, key string) (string, bool) {
	s, ok := f[key].(string)
	return s, ok
}

func optString(f store.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func optBool(f store.Fields, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func stringsField(f store.Fields, key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
