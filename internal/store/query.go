package store

import (
	"fmt"
	"reflect"
	"sort"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEqual         Op = "=="
	OpNotEqual      Op = "!="
	OpLess          Op = "<"
	OpLessEqual     Op = "<="
	OpGreater       Op = ">"
	OpGreaterEqual  Op = ">="
	OpArrayContains Op = "array-contains"
)

// Filter constrains one field of a query.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Order sorts query results by one field.
type Order struct {
	Field      string
	Descending bool
}

// Query selects documents of one collection.
type Query struct {
	Collection Collection
	Filters    []Filter
	OrderBy    []Order
}

// Validate checks the collection and the operators.
func (q Query) Validate() error {
	if !q.Collection.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, q.Collection)
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpArrayContains:
		default:
			return fmt.Errorf("%w: operator %q", ErrInvalidQuery, f.Op)
		}
		if f.Field == "" {
			return fmt.Errorf("%w: empty field", ErrInvalidQuery)
		}
	}
	return nil
}

// OwnedBy reports whether q is constrained to documents of uid.
func (q Query) OwnedBy(uid string) bool {
	for _, f := range q.Filters {
		if f.Field == FieldUserID && f.Op == OpEqual {
			if s, ok := f.Value.(string); ok && s == uid {
				return true
			}
		}
	}
	return false
}

// Matches reports whether fields satisfy every filter of q.
func (q Query) Matches(fields Fields) bool {
	for _, f := range q.Filters {
		if !f.Matches(fields) {
			return false
		}
	}
	return true
}

// Matches reports whether fields satisfy f. A missing field matches nothing,
// not even !=.
func (f Filter) Matches(fields Fields) bool {
	v, ok := fields[f.Field]
	if !ok || v == nil {
		return false
	}
	if f.Op == OpArrayContains {
		list, ok := v.([]string)
		want, ok2 := f.Value.(string)
		if !ok || !ok2 {
			return false
		}
		for _, s := range list {
			if s == want {
				return true
			}
		}
		return false
	}
	c, err := CompareValues(v, f.Value)
	if err != nil {
		return false
	}
	switch f.Op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	}
	return false
}

// CompareValues orders two field values of the same kind. Integers and floats
// compare numerically with each other.
func CompareValues(a, b any) (int, error) {
	if ta, ok := a.(Timestamp); ok {
		tb, ok := b.(Timestamp)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare timestamp with %T", ErrInvalidQuery, b)
		}
		return ta.Compare(tb), nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isInt(va) && isInt(vb):
		return cmp(va.Int(), vb.Int()), nil
	case isNumber(va) && isNumber(vb):
		return cmp(toFloat(va), toFloat(vb)), nil
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return cmp(va.String(), vb.String()), nil
	case va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool:
		x, y := va.Bool(), vb.Bool()
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		}
		return 1, nil
	}
	return 0, fmt.Errorf("%w: cannot compare %T with %T", ErrInvalidQuery, a, b)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	if isInt(v) {
		return float64(v.Int())
	}
	return v.Float()
}

func cmp[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortDocuments orders docs in place by q's OrderBy, falling back to document
// id so results are deterministic. Documents missing an order field sort
// first.
func SortDocuments(docs []Document, orders []Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			a, aok := docs[i].Fields[o.Field]
			b, bok := docs[j].Fields[o.Field]
			var c int
			switch {
			case !aok && !bok:
				continue
			case !aok:
				c = -1
			case !bok:
				c = 1
			default:
				var err error
				if c, err = CompareValues(a, b); err != nil {
					continue
				}
			}
			if c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return docs[i].ID < docs[j].ID
	})
}
