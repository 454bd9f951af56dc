package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"kakeibo/internal/analytics"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
	"kakeibo/internal/services"
)

// mockReportService records the config of the last call.
type mockReportService struct {
	lastCfg          services.ReportConfig
	lastContribution int64
	err              error
}

func (m *mockReportService) GetSummary(_ context.Context, _ string, cfg services.ReportConfig) (*services.SummaryReport, error) {
	m.lastCfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	return &services.SummaryReport{Summary: analytics.Summary{Totals: analytics.Totals{Income: 300000, Expense: 120000, Balance: 180000}}}, nil
}

func (m *mockReportService) GetTrend(_ context.Context, _ string, cfg services.ReportConfig) (*services.TrendReport, error) {
	m.lastCfg = cfg
	return &services.TrendReport{}, m.err
}

func (m *mockReportService) GetCategoryBreakdown(_ context.Context, _ string, cfg services.ReportConfig) (*services.BreakdownReport, error) {
	m.lastCfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	return &services.BreakdownReport{Type: cfg.Type}, nil
}

func (m *mockReportService) GetWeekdayExpenses(_ context.Context, _ string, cfg services.ReportConfig) (*services.WeekdayReport, error) {
	m.lastCfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	return &services.WeekdayReport{}, nil
}

func (m *mockReportService) GetBudgetReports(context.Context, string) ([]analytics.BudgetReport, error) {
	return []analytics.BudgetReport{{Name: "April"}}, m.err
}

func (m *mockReportService) GetGoalProjections(_ context.Context, _ string, monthlyContribution int64) ([]analytics.GoalProjection, error) {
	m.lastContribution = monthlyContribution
	return []analytics.GoalProjection{}, m.err
}

func (m *mockReportService) GetAssetTrend(_ context.Context, _ string, cfg services.ReportConfig) (*services.AssetReport, error) {
	m.lastCfg = cfg
	return &services.AssetReport{}, m.err
}

func (m *mockReportService) GetDashboard(_ context.Context, _ string, cfg services.ReportConfig) (*services.Dashboard, error) {
	m.lastCfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	return &services.Dashboard{}, nil
}

var _ services.ReportServicer = (*mockReportService)(nil)

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/reports/summary", handler.GetSummary)
	auth.GET("/reports/trend", handler.GetTrend)
	auth.GET("/reports/categories", handler.GetCategoryBreakdown)
	auth.GET("/reports/weekday", handler.GetWeekdayExpenses)
	auth.GET("/reports/budgets", handler.GetBudgetReports)
	auth.GET("/reports/goals", handler.GetGoalProjections)
	auth.GET("/reports/assets", handler.GetAssetTrend)
	auth.GET("/dashboard", handler.GetDashboard)
	return r
}

func TestReportHandler_GetSummary(t *testing.T) {
	t.Run("passes preset", func(t *testing.T) {
		svc := &mockReportService{}
		r := setupReportRouter(NewReportHandler(svc))

		rec := doRequest(r, "GET", "/reports/summary?preset=last_month", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.lastCfg.Preset != analytics.PresetLastMonth {
			t.Errorf("expected last_month, got %q", svc.lastCfg.Preset)
		}
		summary := parseJSON(t, rec)["report"].(map[string]interface{})["summary"].(map[string]interface{})
		if summary["balance"].(float64) != 180000 {
			t.Errorf("expected balance 180000, got %v", summary["balance"])
		}
	})

	t.Run("passes custom range", func(t *testing.T) {
		svc := &mockReportService{}
		r := setupReportRouter(NewReportHandler(svc))

		rec := doRequest(r, "GET", "/reports/summary?start_date=2025-01-01&end_date=2025-03-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if svc.lastCfg.Start == nil || svc.lastCfg.End == nil {
			t.Fatal("expected custom range")
		}
		if svc.lastCfg.End.Month() != 3 {
			t.Errorf("unexpected end %v", svc.lastCfg.End)
		}
	})

	t.Run("returns 400 on unknown preset", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		rec := doRequest(r, "GET", "/reports/summary?preset=fortnight", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on half range", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		rec := doRequest(r, "GET", "/reports/summary?start_date=2025-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("passes inverted range through", func(t *testing.T) {
		svc := &mockReportService{}
		r := setupReportRouter(NewReportHandler(svc))

		rec := doRequest(r, "GET", "/reports/summary?start_date=2025-03-01&end_date=2025-01-01", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.lastCfg.Start == nil || svc.lastCfg.End == nil || !svc.lastCfg.End.Before(*svc.lastCfg.Start) {
			t.Errorf("expected inverted range to reach the service, got %+v", svc.lastCfg)
		}
	})

	t.Run("returns 503 when data unavailable", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{err: apperrors.ErrDataUnavailable}))

		rec := doRequest(r, "GET", "/reports/summary", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DATA_UNAVAILABLE")
	})
}

func TestReportHandler_GetCategoryBreakdown(t *testing.T) {
	svc := &mockReportService{}
	r := setupReportRouter(NewReportHandler(svc))

	rec := doRequest(r, "GET", "/reports/categories?type=income&show_subcategories=true", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastCfg.Type != models.TransactionTypeIncome || !svc.lastCfg.ShowSubcategories {
		t.Errorf("unexpected config %+v", svc.lastCfg)
	}
}

func TestReportHandler_GetWeekdayExpenses(t *testing.T) {
	r := setupReportRouter(NewReportHandler(&mockReportService{err: apperrors.ErrPremiumRequired}))

	rec := doRequest(r, "GET", "/reports/weekday", "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "PREMIUM_REQUIRED")
}

func TestReportHandler_GetBudgetReports(t *testing.T) {
	r := setupReportRouter(NewReportHandler(&mockReportService{}))

	rec := doRequest(r, "GET", "/reports/budgets", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if budgets := parseJSON(t, rec)["budgets"].([]interface{}); len(budgets) != 1 {
		t.Errorf("expected 1 budget, got %d", len(budgets))
	}
}

func TestReportHandler_GetGoalProjections(t *testing.T) {
	svc := &mockReportService{}
	r := setupReportRouter(NewReportHandler(svc))

	rec := doRequest(r, "GET", "/reports/goals?monthly_contribution=30000", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastContribution != 30000 {
		t.Errorf("expected 30000, got %d", svc.lastContribution)
	}
}

func TestReportHandler_GetDashboard(t *testing.T) {
	svc := &mockReportService{}
	r := setupReportRouter(NewReportHandler(svc))

	rec := doRequest(r, "GET", "/dashboard?preset=current_year", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := parseJSON(t, rec)["dashboard"]; !ok {
		t.Error("expected dashboard key")
	}
	if svc.lastCfg.Preset != analytics.PresetCurrentYear {
		t.Errorf("expected current_year, got %q", svc.lastCfg.Preset)
	}
}
