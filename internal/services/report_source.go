package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
)

// gormReportSource reads report inputs from the database. Every failure,
// including a cancelled context, surfaces as ErrDataUnavailable.
type gormReportSource struct {
	db *gorm.DB
}

// NewReportSource creates a ReportSource backed by gorm.
func NewReportSource(db *gorm.DB) ReportSource {
	return &gormReportSource{db: db}
}

func unavailable(err error) error {
	return apperrors.Wrap(apperrors.ErrDataUnavailable, err)
}

// ListTransactions returns the user's transactions matching filter, oldest first.
func (s *gormReportSource) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	q = applyTransactionFilters(q, filter)

	var txs []models.Transaction
	if err := q.Preload("Tags").Order("date ASC, created_at ASC").Find(&txs).Error; err != nil {
		return nil, unavailable(err)
	}
	return txs, nil
}

// ListBudgetsWithCategories returns the user's budgets with their allocations.
func (s *gormReportSource) ListBudgetsWithCategories(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var budgets []models.Budget
	if err := q.Preload("Categories.Category").Order("start_date DESC, name ASC").Find(&budgets).Error; err != nil {
		return nil, unavailable(err)
	}
	return budgets, nil
}

// ListCategories returns the categories visible to the user, optionally of one type.
func (s *gormReportSource) ListCategories(ctx context.Context, userID string, categoryType *models.CategoryType) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Scopes(visibleTo(userID))
	if categoryType != nil {
		q = q.Where("type = ?", *categoryType)
	}

	var categories []models.Category
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, unavailable(err)
	}
	return categories, nil
}

// ListGoals returns the user's goals by target date.
func (s *gormReportSource) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	var goals []models.Goal
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("target_date ASC, name ASC").
		Find(&goals).Error; err != nil {
		return nil, unavailable(err)
	}
	return goals, nil
}

// ListSnapshots returns the user's balance snapshots between from and to. A
// zero from means no lower bound.
func (s *gormReportSource) ListSnapshots(ctx context.Context, userID string, from, to time.Time) ([]models.BalanceSnapshot, error) {
	q := s.db.WithContext(ctx).Where("user_id = ? AND recorded_at <= ?", userID, to)
	if !from.IsZero() {
		q = q.Where("recorded_at >= ?", from)
	}

	var snapshots []models.BalanceSnapshot
	if err := q.Order("recorded_at ASC").Find(&snapshots).Error; err != nil {
		return nil, unavailable(err)
	}
	return snapshots, nil
}
