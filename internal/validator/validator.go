// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"gharkharcha/internal/models"
	"gharkharcha/internal/report"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("expense_category", validateExpenseCategory)
	_ = v.RegisterValidation("member_role", validateMemberRole)
	_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	_ = v.RegisterValidation("recurring_frequency", validateRecurringFrequency)
	_ = v.RegisterValidation("report_period", validateReportPeriod)
}

func validateExpenseCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

func validateMemberRole(fl validator.FieldLevel) bool {
	return models.MemberRole(fl.Field().String()).Valid()
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	return models.BudgetPeriod(fl.Field().String()).Valid()
}

func validateRecurringFrequency(fl validator.FieldLevel) bool {
	return models.RecurringFrequency(fl.Field().String()).Valid()
}

func validateReportPeriod(fl validator.FieldLevel) bool {
	_, err := report.ParsePeriod(fl.Field().String())
	return err == nil
}
