package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"kakeibo/internal/analytics"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db     *gorm.DB
	source ReportSource
	points PointsServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, points PointsServicer) BudgetServicer {
	return &budgetService{db: db, source: NewReportSource(db), points: points}
}

// periodEnd derives the last day of a budget that starts on start. The end
// never runs past the last day of the month one period later, so a monthly
// budget from January 31 ends in February.
func periodEnd(period models.BudgetPeriod, start time.Time) time.Time {
	months := 1
	if period == models.BudgetPeriodYearly {
		months = 12
	}
	end := start.AddDate(0, months, -1)
	lastDay := time.Date(start.Year(), start.Month()+time.Month(months)+1, 0,
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
	if end.After(lastDay) {
		return lastDay
	}
	return end
}

func validPeriod(p models.BudgetPeriod) bool {
	return p == models.BudgetPeriodMonthly || p == models.BudgetPeriodYearly
}

// CreateBudget creates a budget with its category allocations.
func (s *budgetService) CreateBudget(userID string, in BudgetInput) (*models.Budget, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.Period == "" {
		in.Period = models.BudgetPeriodMonthly
	}
	if !validPeriod(in.Period) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be monthly or yearly")
	}
	if in.StartDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}

	start := in.StartDate.UTC()
	end := periodEnd(in.Period, start)
	if in.EndDate != nil {
		end = in.EndDate.UTC()
	}
	if end.Before(start) {
		return nil, apperrors.ErrInvalidDateRange
	}

	lines, err := s.buildAllocations(userID, in.Allocations)
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		Name:       name,
		Amount:     in.Amount,
		Period:     in.Period,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
		Categories: lines,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now().UTC()
	s.points.AwardOnce(userID, PointsBudgetSet, ReasonBudgetSet, "Budget set",
		time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))

	return s.GetBudgetByID(userID, budget.ID)
}

// buildAllocations validates allocations: each must target a distinct expense
// category visible to the user, with a non-negative amount.
func (s *budgetService) buildAllocations(userID string, allocations []BudgetAllocation) ([]models.BudgetCategory, error) {
	if len(allocations) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(allocations))
	seen := make(map[string]bool, len(allocations))
	for _, a := range allocations {
		if seen[a.CategoryID] {
			return nil, apperrors.ErrDuplicateBudgetCategory
		}
		if a.Amount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocation amount cannot be negative")
		}
		seen[a.CategoryID] = true
		ids = append(ids, a.CategoryID)
	}

	var categories []models.Category
	if err := s.db.Scopes(visibleTo(userID)).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(categories) != len(ids) {
		return nil, apperrors.ErrCategoryNotFound
	}
	for i := range categories {
		if categories[i].Type != models.CategoryTypeExpense {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch, "budgets can only target expense categories")
		}
	}

	lines := make([]models.BudgetCategory, 0, len(allocations))
	for _, a := range allocations {
		lines = append(lines, models.BudgetCategory{CategoryID: a.CategoryID, Amount: a.Amount})
	}
	return lines, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(
	userID string,
	page pagination.PageRequest,
	isActive *bool,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Categories.Category").
		Order("start_date DESC, name ASC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget with its allocations.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Categories.Category").
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget. A non-nil allocation list replaces the lines.
func (s *budgetService) UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name cannot be empty")
		}
		updates["name"] = name
	}
	if fields.Amount != nil {
		if *fields.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *fields.Amount
	}
	if fields.Period != nil {
		if !validPeriod(*fields.Period) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be monthly or yearly")
		}
		updates["period"] = *fields.Period
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	start, end := budget.StartDate, budget.EndDate
	if fields.StartDate != nil {
		start = fields.StartDate.UTC()
		updates["start_date"] = start
	}
	if fields.EndDate != nil {
		end = fields.EndDate.UTC()
		updates["end_date"] = end
	}
	if end.Before(start) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var lines []models.BudgetCategory
	if fields.Allocations != nil {
		if lines, err = s.buildAllocations(userID, fields.Allocations); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Budget{}).Where("id = ?", budget.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if fields.Allocations == nil {
			return nil
		}
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetCategory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range lines {
			lines[i].BudgetID = budget.ID
			if err := tx.Omit("Category").Create(&lines[i]).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetBudgetByID(userID, budget.ID)
}

// DeleteBudget deletes a budget and its allocations.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetCategory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Budget{}, "id = ?", budget.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetBudgetProgress measures the budget against the expenses inside its window.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*analytics.BudgetReport, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	expense := models.TransactionTypeExpense
	from := budget.StartDate
	to := budget.EndDate.AddDate(0, 0, 1)
	txs, err := s.source.ListTransactions(ctx, userID, TransactionFilter{FromDate: &from, ToDate: &to, Type: &expense})
	if err != nil {
		return nil, err
	}
	categoryType := models.CategoryTypeExpense
	categories, err := s.source.ListCategories(ctx, userID, &categoryType)
	if err != nil {
		return nil, err
	}

	report := analytics.BudgetConsumption(budget, txs, categories)
	return &report, nil
}
