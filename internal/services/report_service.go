package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/analytics"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
)

// ReportConfig selects the window and grouping of a report. An explicit
// Start and End take precedence over Preset; an empty Preset means the
// current month. Type applies to the category breakdown only.
type ReportConfig struct {
	Preset            analytics.Preset
	Start             *time.Time
	End               *time.Time
	Type              models.TransactionType
	ShowSubcategories bool
}

// SummaryReport is the headline card with its comparison to the previous month.
type SummaryReport struct {
	Window     analytics.Window     `json:"window"`
	Summary    analytics.Summary    `json:"summary"`
	Comparison analytics.Comparison `json:"comparison"`
}

// TrendReport is a month-by-month series.
type TrendReport struct {
	Window analytics.Window         `json:"window"`
	Points []analytics.MonthlyPoint `json:"points"`
}

// BreakdownReport groups one transaction type by category.
type BreakdownReport struct {
	Window analytics.Window          `json:"window"`
	Type   models.TransactionType    `json:"type"`
	Total  int64                     `json:"total"`
	Slices []analytics.CategorySlice `json:"slices"`
	Chart  []analytics.LabelValue    `json:"chart"`
}

// WeekdayReport totals expenses by day of the week.
type WeekdayReport struct {
	Window  analytics.Window          `json:"window"`
	Buckets []analytics.WeekdayBucket `json:"buckets"`
	Chart   []analytics.LabelValue    `json:"chart"`
}

// AssetReport is the month-end balances of the window.
type AssetReport struct {
	Window analytics.Window       `json:"window"`
	Points []analytics.AssetPoint `json:"points"`
}

// BudgetPanel is a budget report with its chart bars.
type BudgetPanel struct {
	analytics.BudgetReport
	Bars []analytics.BudgetBar `json:"bars"`
}

// Dashboard combines the panels of the home screen.
type Dashboard struct {
	Summary  *SummaryReport             `json:"summary"`
	Trend    *TrendReport               `json:"trend"`
	Expenses *BreakdownReport           `json:"expenses"`
	Budgets  []BudgetPanel              `json:"budgets"`
	Goals    []analytics.GoalProjection `json:"goals"`
}

// reportService turns report source data into report panels.
type reportService struct {
	source ReportSource
	users  UserServicer
	now    func() time.Time
}

// NewReportService creates a new ReportServicer.
func NewReportService(source ReportSource, users UserServicer) ReportServicer {
	return &reportService{source: source, users: users, now: time.Now}
}

// window resolves the configured window against the service clock.
func (s *reportService) window(cfg ReportConfig) (analytics.Window, error) {
	return resolveWindow(cfg, s.now())
}

// resolveWindow turns a ReportConfig into a window. PresetAll stays
// unbounded until the data is loaded.
func resolveWindow(cfg ReportConfig, now time.Time) (analytics.Window, error) {
	if cfg.Start != nil && cfg.End != nil {
		return analytics.NewWindow(*cfg.Start, *cfg.End), nil
	}
	preset := cfg.Preset
	if preset == "" {
		preset = analytics.PresetCurrentMonth
	}
	w, err := analytics.PresetWindow(preset, now)
	if err != nil {
		return analytics.Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return w, nil
}

// transactions loads the transactions a window needs. With extraMonth the
// calendar month before the window is loaded too, for comparisons. An
// unbounded window is narrowed to the span of the data.
func (s *reportService) transactions(ctx context.Context, userID string, w analytics.Window, extraMonth bool) ([]models.Transaction, analytics.Window, error) {
	filter := TransactionFilter{ToDate: &w.End}
	if !w.IsUnbounded() {
		from := w.Start
		if extraMonth {
			from = time.Date(from.Year(), from.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		}
		filter.FromDate = &from
	}

	txs, err := s.source.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, w, err
	}
	if w.IsUnbounded() {
		w = analytics.SpanOf(txs)
	}
	return txs, w, nil
}

// GetSummary returns totals, monthly averages and the month-over-month comparison.
func (s *reportService) GetSummary(ctx context.Context, userID string, cfg ReportConfig) (*SummaryReport, error) {
	w, err := s.window(cfg)
	if err != nil {
		return nil, err
	}
	txs, w, err := s.transactions(ctx, userID, w, true)
	if err != nil {
		return nil, err
	}

	return &SummaryReport{
		Window:     w,
		Summary:    analytics.Summarize(txs, w),
		Comparison: analytics.Compare(txs, w),
	}, nil
}

// GetTrend returns one point per month of the window.
func (s *reportService) GetTrend(ctx context.Context, userID string, cfg ReportConfig) (*TrendReport, error) {
	w, err := s.window(cfg)
	if err != nil {
		return nil, err
	}
	txs, w, err := s.transactions(ctx, userID, w, false)
	if err != nil {
		return nil, err
	}
	return &TrendReport{Window: w, Points: analytics.MonthlyTrend(txs, w)}, nil
}

// GetCategoryBreakdown groups income or expense by category. Subcategories
// are folded into their parent unless ShowSubcategories is set.
func (s *reportService) GetCategoryBreakdown(ctx context.Context, userID string, cfg ReportConfig) (*BreakdownReport, error) {
	w, err := s.window(cfg)
	if err != nil {
		return nil, err
	}
	txType := cfg.Type
	if txType == "" {
		txType = models.TransactionTypeExpense
	}
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	var (
		txs        []models.Transaction
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, w, err = s.transactions(gctx, userID, w, false)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.source.ListCategories(gctx, userID, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices := analytics.CategoryBreakdown(txs, categories, w, analytics.BreakdownOptions{
		Type:           txType,
		RollUpToParent: !cfg.ShowSubcategories,
	})
	var total int64
	for _, sl := range slices {
		total += sl.Value
	}

	return &BreakdownReport{
		Window: w,
		Type:   txType,
		Total:  total,
		Slices: slices,
		Chart:  analytics.PieSeries(slices),
	}, nil
}

// GetWeekdayExpenses buckets expenses by day of week. It is a premium report.
func (s *reportService) GetWeekdayExpenses(ctx context.Context, userID string, cfg ReportConfig) (*WeekdayReport, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if !user.HasPremium(s.now()) {
		return nil, apperrors.ErrPremiumRequired
	}

	w, err := s.window(cfg)
	if err != nil {
		return nil, err
	}
	txs, w, err := s.transactions(ctx, userID, w, false)
	if err != nil {
		return nil, err
	}

	buckets := analytics.WeekdayExpenses(txs, w)
	return &WeekdayReport{Window: w, Buckets: buckets, Chart: analytics.WeekdaySeries(buckets)}, nil
}

// GetBudgetReports measures every active budget.
func (s *reportService) GetBudgetReports(ctx context.Context, userID string) ([]analytics.BudgetReport, error) {
	budgets, err := s.source.ListBudgetsWithCategories(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	reports := make([]analytics.BudgetReport, 0, len(budgets))
	if len(budgets) == 0 {
		return reports, nil
	}

	from, to := budgets[0].StartDate, budgets[0].EndDate
	for i := range budgets {
		if budgets[i].StartDate.Before(from) {
			from = budgets[i].StartDate
		}
		if budgets[i].EndDate.After(to) {
			to = budgets[i].EndDate
		}
	}
	to = to.AddDate(0, 0, 1)
	expense := models.TransactionTypeExpense
	expenseCategories := models.CategoryTypeExpense

	var (
		txs        []models.Transaction
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.source.ListTransactions(gctx, userID, TransactionFilter{FromDate: &from, ToDate: &to, Type: &expense})
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.source.ListCategories(gctx, userID, &expenseCategories)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range budgets {
		reports = append(reports, analytics.BudgetConsumption(&budgets[i], txs, categories))
	}
	return reports, nil
}

// GetGoalProjections projects every goal at the same monthly contribution.
// A contribution of 0 uses each goal's own monthly requirement.
func (s *reportService) GetGoalProjections(ctx context.Context, userID string, monthlyContribution int64) ([]analytics.GoalProjection, error) {
	goals, err := s.source.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	projections := make([]analytics.GoalProjection, 0, len(goals))
	for i := range goals {
		projections = append(projections, analytics.ProjectGoal(&goals[i], now, monthlyContribution))
	}
	return projections, nil
}

// GetAssetTrend returns the month-end balances recorded inside the window.
func (s *reportService) GetAssetTrend(ctx context.Context, userID string, cfg ReportConfig) (*AssetReport, error) {
	w, err := s.window(cfg)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.source.ListSnapshots(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	return &AssetReport{Window: w, Points: analytics.AssetTrend(snapshots, w)}, nil
}

// GetDashboard loads every panel concurrently. Each panel fetches its own
// data; the first failure cancels the rest.
func (s *reportService) GetDashboard(ctx context.Context, userID string, cfg ReportConfig) (*Dashboard, error) {
	d := &Dashboard{}
	expenseCfg := cfg
	expenseCfg.Type = models.TransactionTypeExpense

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Summary, err = s.GetSummary(gctx, userID, cfg)
		return err
	})
	g.Go(func() error {
		trendCfg := cfg
		if cfg.Start == nil && (cfg.Preset == "" || cfg.Preset == analytics.PresetCurrentMonth) {
			trendCfg.Preset = analytics.Preset6Months
		}
		var err error
		d.Trend, err = s.GetTrend(gctx, userID, trendCfg)
		return err
	})
	g.Go(func() error {
		var err error
		d.Expenses, err = s.GetCategoryBreakdown(gctx, userID, expenseCfg)
		return err
	})
	g.Go(func() error {
		reports, err := s.GetBudgetReports(gctx, userID)
		if err != nil {
			return err
		}
		d.Budgets = make([]BudgetPanel, 0, len(reports))
		for _, r := range reports {
			d.Budgets = append(d.Budgets, BudgetPanel{BudgetReport: r, Bars: analytics.BudgetBars(r)})
		}
		return nil
	})
	g.Go(func() error {
		var err error
		d.Goals, err = s.GetGoalProjections(gctx, userID, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
