package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kakeibo/internal/services"
)

// ReportHandler serves the report panels and the dashboard.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// reportRequest reads the user and the report window shared by windowed panels.
func reportRequest(c *gin.Context) (string, services.ReportConfig, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", services.ReportConfig{}, false
	}
	cfg, err := parseReportConfig(c)
	if err != nil {
		respondWithError(c, err)
		return "", services.ReportConfig{}, false
	}
	return userID, cfg, true
}

// GetSummary returns income, expense and balance for the window.
// @Summary     Summary report
// @Description Income, expense and balance for the window, with monthly averages compared against the calendar month before the window
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       preset     query string false "current_month, last_month, 3months, 6months, 1year, current_year, last_year, all"
// @Param       start_date query string false "Custom window start (with end_date)"
// @Param       end_date   query string false "Custom window end (with start_date)"
// @Success     200 {object} services.SummaryReport "Summary"
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	userID, cfg, ok := reportRequest(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetSummary(c.Request.Context(), userID, cfg)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetTrend returns monthly income and expense.
// @Summary     Monthly trend
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       preset     query string false "Report preset"
// @Param       start_date query string false "Custom window start (with end_date)"
// @Param       end_date   query string false "Custom window end (with start_date)"
// @Success     200 {object} services.TrendReport "Trend"
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /reports/trend [get]
func (h *ReportHandler) GetTrend(c *gin.Context) {
	userID, cfg, ok := reportRequest(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetTrend(c.Request.Context(), userID, cfg)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetCategoryBreakdown returns totals per category.
// @Summary     Category breakdown
// @Description Totals per category for the window. Subcategories roll up into their parent unless show_subcategories is set.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       preset             query string false "Report preset"
// @Param       start_date         query string false "Custom window start (with end_date)"
// @Param       end_date           query string false "Custom window end (with start_date)"
// @Param       type               query string false "expense (default) or income"
// @Param       show_subcategories query bool   false "Keep subcategories as separate slices"
// @Success     200 {object} services.BreakdownReport "Breakdown"
// @Failure     400 {object} ErrorResponse "Invalid window or type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /reports/categories [get]
func (h *ReportHandler) GetCategoryBreakdown(c *gin.Context) {
	userID, cfg, ok := reportRequest(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetCategoryBreakdown(c.Request.Context(), userID, cfg)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetWeekdayExpenses returns expenses per day of the week.
// @Summary     Weekday expenses
// @Description Expense total, count and average per weekday. Requires a premium plan.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       preset     query string false "Report preset"
// @Param       start_date query string false "Custom window start (with end_date)"
// @Param       end_date   query string false "Custom window end (with start_date)"
// @Success     200 {object} services.WeekdayReport "Weekday expenses"
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Premium required"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /reports/weekday [get]
func (h *ReportHandler) GetWeekdayExpenses(c *gin.Context) {
	userID, cfg, ok := reportRequest(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetWeekdayExpenses(c.Request.Context(), userID, cfg)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetBudgetReports returns consumption of every active budget.
// @Summary     Budget reports
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  analytics.BudgetReport "Budget reports"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /reports/budgets [get]
func (h *ReportHandler) GetBudgetReports(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reports, err := h.reportService.GetBudgetReports(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": reports})
}

// GetGoalProjections returns a projection for every goal.
// @Summary     Goal projections
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       monthly_contribution query int false "Planned monthly contribution (yen)"
// @Success     200 {array}  analytics.GoalProjection "Goal projections"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /reports/goals [get]
func (h *ReportHandler) GetGoalProjections(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contribution, err := parseMonthlyContribution(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projections, err := h.reportService.GetGoalProjections(c.Request.Context(), userID, contribution)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goals": projections})
}

// GetAssetTrend returns month-end balances from snapshots.
// @Summary     Asset trend
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       preset     query string false "Report preset"
// @Param       start_date query string false "Custom window start (with end_date)"
// @Param       end_date   query string false "Custom window end (with start_date)"
// @Success     200 {object} services.AssetReport "Asset trend"
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /reports/assets [get]
func (h *ReportHandler) GetAssetTrend(c *gin.Context) {
	userID, cfg, ok := reportRequest(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetAssetTrend(c.Request.Context(), userID, cfg)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetDashboard returns the dashboard panels in one response.
// @Summary     Dashboard
// @Description Summary, trend, expense breakdown, budget bars and goal projections
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       preset     query string false "Report preset"
// @Param       start_date query string false "Custom window start (with end_date)"
// @Param       end_date   query string false "Custom window end (with start_date)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Report data unavailable"
// @Router      /dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	userID, cfg, ok := reportRequest(c)
	if !ok {
		return
	}

	dashboard, err := h.reportService.GetDashboard(c.Request.Context(), userID, cfg)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}
