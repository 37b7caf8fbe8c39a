package gormstore

import (
	"fmt"
	"reflect"

	"gharkharcha/internal/store"
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
	kindTime
	kindTags
)

type column struct {
	name     string
	kind     kind
	nullable bool
}

type table struct {
	name    string
	columns map[string]column
}

var tables = map[store.Collection]table{
	store.Expenses: {
		name: "expenses",
		columns: map[string]column{
			store.FieldUserID:             {name: "user_id", kind: kindString},
			store.FieldAmount:             {name: "amount", kind: kindInt},
			store.FieldCategory:           {name: "category", kind: kindString},
			store.FieldDescription:        {name: "description", kind: kindString},
			store.FieldDate:               {name: "date", kind: kindTime, nullable: true},
			store.FieldFamilyMemberID:     {name: "family_member_id", kind: kindString},
			store.FieldIsPlanned:          {name: "is_planned", kind: kindBool},
			store.FieldIsRecurring:        {name: "is_recurring", kind: kindBool},
			store.FieldRecurringFrequency: {name: "recurring_frequency", kind: kindString, nullable: true},
			store.FieldTags:               {name: "tags", kind: kindTags},
			store.FieldCreatedAt:          {name: "created_at", kind: kindTime, nullable: true},
			store.FieldUpdatedAt:          {name: "updated_at", kind: kindTime, nullable: true},
		},
	},
	store.FamilyMembers: {
		name: "family_members",
		columns: map[string]column{
			store.FieldUserID:    {name: "user_id", kind: kindString},
			store.FieldName:      {name: "name", kind: kindString},
			store.FieldRole:      {name: "role", kind: kindString},
			store.FieldAvatarURL: {name: "avatar_url", kind: kindString, nullable: true},
		},
	},
	store.Budgets: {
		name: "budgets",
		columns: map[string]column{
			store.FieldUserID:    {name: "user_id", kind: kindString},
			store.FieldCategory:  {name: "category", kind: kindString},
			store.FieldAmount:    {name: "amount", kind: kindInt},
			store.FieldPeriod:    {name: "period", kind: kindString},
			store.FieldStartDate: {name: "start_date", kind: kindTime, nullable: true},
			store.FieldEndDate:   {name: "end_date", kind: kindTime, nullable: true},
			store.FieldCreatedAt: {name: "created_at", kind: kindTime, nullable: true},
			store.FieldUpdatedAt: {name: "updated_at", kind: kindTime, nullable: true},
		},
	},
}

func tableFor(c store.Collection) (table, error) {
	t, ok := tables[c]
	if !ok {
		return table{}, fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
	}
	return t, nil
}

// values converts document fields to column values. Unknown fields are
// rejected since the tables have a fixed shape.
func (t table) values(fields store.Fields) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for key, v := range fields {
		col, ok := t.columns[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q for %s", store.ErrInvalidQuery, key, t.name)
		}
		if v == nil {
			if !col.nullable {
				return nil, fmt.Errorf("%w: field %q cannot be removed", store.ErrInvalidQuery, key)
			}
			out[col.name] = nil
			continue
		}
		cv, err := col.convert(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[col.name] = cv
	}
	return out, nil
}

func (c column) convert(v any) (any, error) {
	switch c.kind {
	case kindTime:
		ts, ok := v.(store.Timestamp)
		if !ok {
			return nil, fmt.Errorf("%w: expected timestamp, got %T", store.ErrInvalidQuery, v)
		}
		return ts.Time(), nil
	case kindTags:
		tags, ok := v.([]string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string list, got %T", store.ErrInvalidQuery, v)
		}
		return Tags(tags), nil
	case kindInt:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		}
		return nil, fmt.Errorf("%w: expected integer, got %T", store.ErrInvalidQuery, v)
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %T", store.ErrInvalidQuery, v)
		}
		return b, nil
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.String {
			return nil, fmt.Errorf("%w: expected string, got %T", store.ErrInvalidQuery, v)
		}
		return rv.String(), nil
	}
}

var sqlOps = map[store.Op]string{
	store.OpEqual:        "=",
	store.OpNotEqual:     "<>",
	store.OpLess:         "<",
	store.OpLessEqual:    "<=",
	store.OpGreater:      ">",
	store.OpGreaterEqual: ">=",
}
