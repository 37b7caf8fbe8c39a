package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gharkharcha/internal/category"
	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/export"
	"gharkharcha/internal/logger"
	"gharkharcha/internal/models"
	"gharkharcha/internal/report"
	"gharkharcha/internal/services"
)

const (
	dashboardTopCategories = 5
	dashboardRecent        = 5
	defaultTrendMonths     = 6
	maxTrendMonths         = 24
)

// ReportHandler serves summaries, the dashboard, trends and CSV export.
type ReportHandler struct {
	session    services.SessionServicer
	reports    services.ReportServicer
	categories *category.Table
	now        func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(session services.SessionServicer, reports services.ReportServicer, categories *category.Table) *ReportHandler {
	if categories == nil {
		categories = category.Default()
	}
	return &ReportHandler{session: session, reports: reports, categories: categories, now: time.Now}
}

// SummaryResponse is an expense summary with its window and category ranking.
type SummaryResponse struct {
	Window     report.Window          `json:"window"`
	Source     string                 `json:"source"`
	Summary    models.ExpenseSummary  `json:"summary"`
	Categories []report.CategoryTotal `json:"categories"`
}

// DashboardQuery selects the dashboard period.
type DashboardQuery struct {
	Period string `form:"period" binding:"omitempty,report_period"`
}

// DashboardResponse is everything the dashboard view shows for one period.
type DashboardResponse struct {
	Period        report.Period          `json:"period"`
	Window        report.Window          `json:"window"`
	Summary       models.ExpenseSummary  `json:"summary"`
	Budget        report.Status          `json:"budget"`
	TopCategories []report.CategoryTotal `json:"top_categories"`
	Members       []report.MemberTotal   `json:"members"`
	Recent        []models.Expense       `json:"recent"`
	Loading       bool                   `json:"loading"`
}

// window reads start and end, defaulting to the current calendar month.
func (h *ReportHandler) window(c *gin.Context) (report.Window, error) {
	month := report.MonthWindow(h.now())
	start, err := dateQuery(c, "start", month.Start)
	if err != nil {
		return report.Window{}, err
	}
	end, err := dateQuery(c, "end", month.End)
	if err != nil {
		return report.Window{}, err
	}
	if end.Before(start) {
		return report.Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "end must not be before start")
	}
	return report.NewWindow(start, end), nil
}

// GetSummary handles the expense summary for a date window.
// @Summary     Get expense summary
// @Description Aggregate expenses in [start, end]. source=query runs a one-shot store query; source=live uses the mirror
// @Tags        reports
// @Produce     json
// @Security    ApiKeyAuth
// @Param       start  query string false "First day (YYYY-MM-DD, default first of this month)"
// @Param       end    query string false "Last day (YYYY-MM-DD, default end of this month)"
// @Param       source query string false "query (default) or live"
// @Success     200 {object} SummaryResponse "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     502 {object} ErrorResponse "Store query failed"
// @Router      /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	w, err := h.window(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var summary models.ExpenseSummary
	source := c.DefaultQuery("source", "query")
	switch source {
	case "query":
		summary, err = h.reports.Summary(c.Request.Context(), w.Start, w.End)
		if err != nil {
			respondWithError(c, err)
			return
		}
	case "live":
		summary = h.reports.LiveSummary(w.Start, w.End)
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "source must be 'query' or 'live'"))
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Window:     w,
		Source:     source,
		Summary:    summary,
		Categories: report.RankCategories(summary.ByCategory, h.categories),
	})
}

// GetDashboard handles the dashboard view.
// @Summary     Get dashboard
// @Description Summary, budget progress, top categories, member breakdown and recent expenses for the week, month or year
// @Tags        reports
// @Produce     json
// @Security    ApiKeyAuth
// @Param       period query string false "week, month (default) or year"
// @Success     200 {object} DashboardResponse "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var q DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'week', 'month' or 'year'"))
		return
	}
	period, _ := report.ParsePeriod(q.Period)

	state := h.reports.State()
	w := report.WindowFor(period, h.now())
	summary := report.Summarize(state.Expenses, w.Start, w.End)

	top := report.RankCategories(summary.ByCategory, h.categories)
	if len(top) > dashboardTopCategories {
		top = top[:dashboardTopCategories]
	}

	c.JSON(http.StatusOK, DashboardResponse{
		Period:        period,
		Window:        w,
		Summary:       summary,
		Budget:        report.BudgetStatus(summary.TotalAmount, state.Budgets, period.BudgetPeriod()),
		TopCategories: top,
		Members:       report.MemberBreakdown(summary.ByMember, state.FamilyMembers),
		Recent:        report.Recent(report.Filter(state.Expenses, report.ExpenseFilter{Window: &w}), dashboardRecent),
		Loading:       state.Loading,
	})
}

// GetTrend handles the monthly planned/unplanned trend.
// @Summary     Get monthly trend
// @Tags        reports
// @Produce     json
// @Security    ApiKeyAuth
// @Param       months query int false "Number of months ending this month (default 6, max 24)"
// @Success     200 {array}  report.MonthTotals "Oldest month first"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /reports/trend [get]
func (h *ReportHandler) GetTrend(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	months := defaultTrendMonths
	if v := c.Query("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTrendMonths {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("months must be between 1 and %d", maxTrendMonths)))
			return
		}
		months = n
	}

	c.JSON(http.StatusOK, gin.H{"months": report.MonthlyTrend(h.reports.State().Expenses, h.now(), months)})
}

// ExportExpenses handles CSV export of the mirrored expenses.
// @Summary     Export expenses
// @Description Download the expenses in [start, end] as CSV
// @Tags        reports
// @Produce     text/csv
// @Security    ApiKeyAuth
// @Param       start query string false "First day (YYYY-MM-DD, default first of this month)"
// @Param       end   query string false "Last day (YYYY-MM-DD, default end of this month)"
// @Success     200 {string} string "CSV"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /reports/export [get]
func (h *ReportHandler) ExportExpenses(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	w, err := h.window(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	state := h.reports.State()
	expenses := report.Filter(state.Expenses, report.ExpenseFilter{Window: &w})

	filename := fmt.Sprintf("expenses_%s_%s.csv", w.Start.Format(dateLayout), w.End.Format(dateLayout))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, expenses, state.FamilyMembers); err != nil {
		logger.Get().Errorw("CSV export failed", "error", err)
	}
}
