package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/money"
	"gharkharcha/internal/pagination"
	"gharkharcha/internal/report"
	"gharkharcha/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	session  services.SessionServicer
	expenses services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(session services.SessionServicer, expenses services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{session: session, expenses: expenses}
}

// CreateExpenseRequest represents the request payload for creating an expense.
type CreateExpenseRequest struct {
	Amount             money.Amount              `json:"amount" swaggertype:"number" binding:"required"`
	Category           models.Category           `json:"category" binding:"required,expense_category"`
	Description        string                    `json:"description" binding:"max=500"`
	Date               string                    `json:"date" binding:"required"`
	FamilyMemberID     string                    `json:"family_member_id" binding:"max=64"`
	IsPlanned          bool                      `json:"is_planned"`
	IsRecurring        bool                      `json:"is_recurring"`
	RecurringFrequency models.RecurringFrequency `json:"recurring_frequency" binding:"omitempty,recurring_frequency"`
	Tags               []string                  `json:"tags" binding:"max=20,dive,max=50"`
}

// UpdateExpenseRequest represents the request payload for a partial expense update.
type UpdateExpenseRequest struct {
	Amount             *money.Amount              `json:"amount" swaggertype:"number"`
	Category           *models.Category           `json:"category" binding:"omitempty,expense_category"`
	Description        *string                    `json:"description" binding:"omitempty,max=500"`
	Date               *string                    `json:"date"`
	FamilyMemberID     *string                    `json:"family_member_id" binding:"omitempty,max=64"`
	IsPlanned          *bool                      `json:"is_planned"`
	IsRecurring        *bool                      `json:"is_recurring"`
	RecurringFrequency *models.RecurringFrequency `json:"recurring_frequency" binding:"omitempty,recurring_frequency"`
	Tags               *[]string                  `json:"tags"`
}

// ListExpensesQuery holds the optional expense list filters.
type ListExpensesQuery struct {
	Start    string          `form:"start"`
	End      string          `form:"end"`
	Category models.Category `form:"category" binding:"omitempty,expense_category"`
	MemberID string          `form:"member_id"`
}

// CreateExpense handles the creation of a new expense.
// @Summary     Create an expense
// @Description Record a new expense for the signed-in household
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} IDResponse "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     502 {object} ErrorResponse "Store rejected the write"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date: "+err.Error()))
		return
	}

	id, err := h.expenses.AddExpense(c.Request.Context(), models.ExpenseInput{
		Amount:             req.Amount,
		Category:           req.Category,
		Description:        req.Description,
		Date:               date,
		FamilyMemberID:     req.FamilyMemberID,
		IsPlanned:          req.IsPlanned,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
		Tags:               req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, IDResponse{ID: id})
}

// GetExpenses handles listing the mirrored expenses.
// @Summary     Get expenses
// @Description Get a paginated, newest-first list of the mirrored expenses
// @Tags        expenses
// @Produce     json
// @Security    ApiKeyAuth
// @Param       start     query string false "First day (YYYY-MM-DD)"
// @Param       end       query string false "Last day (YYYY-MM-DD)"
// @Param       category  query string false "Category filter"
// @Param       member_id query string false "Family member filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var q ListExpensesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := report.ExpenseFilter{Category: q.Category, MemberID: q.MemberID}
	if q.Start != "" || q.End != "" {
		if q.Start == "" || q.End == "" {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end must be given together"))
			return
		}
		start, err := parseDate(q.Start)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid start: "+err.Error()))
			return
		}
		end, err := parseDate(q.End)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid end: "+err.Error()))
			return
		}
		w := report.NewWindow(start, end)
		filter.Window = &w
	}

	expenses := report.Filter(h.expenses.Expenses(), filter)
	c.JSON(http.StatusOK, pagination.Slice(expenses, page))
}

// UpdateExpense handles a partial update of an expense.
// @Summary     Update expense
// @Description Change some fields of an expense; absent fields are left as they are
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} MessageResponse "Expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     502 {object} ErrorResponse "Store rejected the write"
// @Router      /expenses/{id} [patch]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	date, err := parseDatePtr(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	u := models.ExpenseUpdate{
		Amount:             req.Amount,
		Category:           req.Category,
		Description:        req.Description,
		Date:               date,
		FamilyMemberID:     req.FamilyMemberID,
		IsPlanned:          req.IsPlanned,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
		Tags:               req.Tags,
	}
	if err := h.expenses.UpdateExpense(c.Request.Context(), c.Param("id"), u); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense updated"})
}

// DeleteExpense handles deleting an expense.
// @Summary     Delete expense
// @Description Delete an expense by ID
// @Tags        expenses
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     502 {object} ErrorResponse "Store rejected the write"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	if err := h.expenses.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted"})
}
