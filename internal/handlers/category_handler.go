package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gharkharcha/internal/category"
)

// CategoryHandler serves the category metadata table.
type CategoryHandler struct {
	table *category.Table
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(table *category.Table) *CategoryHandler {
	if table == nil {
		table = category.Default()
	}
	return &CategoryHandler{table: table}
}

// GetCategories handles listing every category with its icon and colour.
// @Summary     Get categories
// @Description List the expense categories in display order with their icon and colour
// @Tags        categories
// @Produce     json
// @Success     200 {array} category.Meta "Categories"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.table.Entries()})
}
