package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/money"
	"gharkharcha/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	session services.SessionServicer
	budgets services.BudgetServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(session services.SessionServicer, budgets services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{session: session, budgets: budgets}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	Category  models.Category     `json:"category" binding:"required,expense_category"`
	Amount    money.Amount        `json:"amount" swaggertype:"number" binding:"required"`
	Period    models.BudgetPeriod `json:"period" binding:"required,budget_period"`
	StartDate string              `json:"start_date" binding:"required"`
	EndDate   *string             `json:"end_date"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Category     *models.Category     `json:"category" binding:"omitempty,expense_category"`
	Amount       *money.Amount        `json:"amount" swaggertype:"number"`
	Period       *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	StartDate    *string              `json:"start_date"`
	EndDate      *string              `json:"end_date"`
	ClearEndDate bool                 `json:"clear_end_date"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a spending limit for a category
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} IDResponse "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     502 {object} ErrorResponse "Store rejected the write"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid start_date: "+err.Error()))
		return
	}
	end, err := parseDatePtr(req.EndDate, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := h.budgets.AddBudget(c.Request.Context(), models.BudgetInput{
		Category:  req.Category,
		Amount:    req.Amount,
		Period:    req.Period,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, IDResponse{ID: id})
}

// GetBudgets handles listing budgets.
// @Summary     Get budgets
// @Description Get the mirrored budgets, optionally filtered by period
// @Tags        budgets
// @Produce     json
// @Security    ApiKeyAuth
// @Param       period query string false "Filter by period (monthly/yearly)"
// @Success     200 {array}  models.Budget "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	budgets := h.budgets.Budgets()
	if v := c.Query("period"); v != "" {
		p := models.BudgetPeriod(v)
		if !p.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'monthly' or 'yearly'"))
			return
		}
		filtered := make([]models.Budget, 0, len(budgets))
		for _, b := range budgets {
			if b.Period == p {
				filtered = append(filtered, b)
			}
		}
		budgets = filtered
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Description Change some fields of a budget; clear_end_date removes the end date
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to change"
// @Success     200 {object} MessageResponse "Budget updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [patch]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	start, err := parseDatePtr(req.StartDate, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDatePtr(req.EndDate, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	u := models.BudgetUpdate{
		Category:     req.Category,
		Amount:       req.Amount,
		Period:       req.Period,
		StartDate:    start,
		EndDate:      end,
		ClearEndDate: req.ClearEndDate,
	}
	if err := h.budgets.UpdateBudget(c.Request.Context(), c.Param("id"), u); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget updated"})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	if err := h.budgets.DeleteBudget(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted"})
}
