package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
)

// snapshotService records balance snapshots for the asset trend.
type snapshotService struct {
	db *gorm.DB
}

// NewSnapshotService creates a new SnapshotServicer.
func NewSnapshotService(db *gorm.DB) SnapshotServicer {
	return &snapshotService{db: db}
}

// ComputeAndRecordSnapshots computes and stores a balance snapshot for every
// user with an active account. Re-running for the same instant overwrites it.
func (s *snapshotService) ComputeAndRecordSnapshots(recordedAt time.Time) (int, error) {
	recordedAt = recordedAt.UTC()

	var userIDs []string
	if err := s.db.Model(&models.Account{}).
		Where("is_active = ?", true).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	count := 0
	for _, userID := range userIDs {
		snapshot, err := s.computeSnapshot(userID, recordedAt)
		if err != nil {
			return count, err
		}

		var existing models.BalanceSnapshot
		err = s.db.Where("user_id = ? AND recorded_at = ?", userID, recordedAt).First(&existing).Error
		switch {
		case err == nil:
			if err := s.db.Model(&existing).Updates(map[string]interface{}{
				"net_worth":   snapshot.NetWorth,
				"bank":        snapshot.Bank,
				"cash":        snapshot.Cash,
				"credit_card": snapshot.CreditCard,
				"e_money":     snapshot.EMoney,
				"securities":  snapshot.Securities,
				"other":       snapshot.Other,
			}).Error; err != nil {
				return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.db.Create(snapshot).Error; err != nil {
				return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		default:
			return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		count++
	}

	return count, nil
}

// computeSnapshot sums a user's active, non-excluded balances by account type.
// Credit card balances are owed and reduce net worth.
func (s *snapshotService) computeSnapshot(userID string, recordedAt time.Time) (*models.BalanceSnapshot, error) {
	type typeSum struct {
		Type  models.AccountType
		Total int64
	}
	var sums []typeSum
	if err := s.db.Model(&models.Account{}).
		Select("type, COALESCE(SUM(balance), 0) AS total").
		Where("user_id = ? AND is_active = ? AND is_excluded_from_balance = ?", userID, true, false).
		Group("type").
		Scan(&sums).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	snapshot := &models.BalanceSnapshot{UserID: userID, RecordedAt: recordedAt}
	for _, sum := range sums {
		switch sum.Type {
		case models.AccountTypeBank:
			snapshot.Bank += sum.Total
		case models.AccountTypeCash:
			snapshot.Cash += sum.Total
		case models.AccountTypeCreditCard:
			snapshot.CreditCard += sum.Total
		case models.AccountTypeEMoney:
			snapshot.EMoney += sum.Total
		case models.AccountTypeSecurities:
			snapshot.Securities += sum.Total
		default:
			snapshot.Other += sum.Total
		}
	}
	snapshot.NetWorth = snapshot.Bank + snapshot.Cash + snapshot.EMoney +
		snapshot.Securities + snapshot.Other - snapshot.CreditCard

	return snapshot, nil
}

// GetSnapshots returns paginated snapshots for a user within a date range.
func (s *snapshotService) GetSnapshots(
	userID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.BalanceSnapshot], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.BalanceSnapshot{}).
		Where("user_id = ? AND recorded_at >= ? AND recorded_at <= ?", userID, from, to)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.BalanceSnapshot
	if err := base.Order("recorded_at DESC").Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
