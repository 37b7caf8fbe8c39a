package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	RegisterOn(v)

	tests := []struct {
		tag   string
		value string
		valid bool
	}{
		{"expense_category", "groceries", true},
		{"expense_category", "travel", false},
		{"member_role", "child", true},
		{"member_role", "pet", false},
		{"budget_period", "yearly", true},
		{"budget_period", "weekly", false},
		{"recurring_frequency", "daily", true},
		{"recurring_frequency", "hourly", false},
		{"report_period", "week", true},
		{"report_period", "quarter", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag+"_"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.valid && err != nil {
				t.Errorf("expected %q to pass %s: %v", tt.value, tt.tag, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("expected %q to fail %s", tt.value, tt.tag)
			}
		})
	}
}
