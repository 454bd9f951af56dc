package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"kakeibo/internal/analytics"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/logger"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
)

// Ledger reasons and the points they grant.
const (
	ReasonDailyLogin   = "daily_login"
	ReasonBudgetSet    = "budget_set"
	ReasonGoalAchieved = "goal_achieved"
	ReasonRedemption   = "redemption"
	reasonChallenge    = "challenge:"

	PointsDailyLogin   int64 = 10
	PointsBudgetSet    int64 = 100
	PointsGoalAchieved int64 = 200
)

// Reward is an item that can be bought with points.
type Reward struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int64  `json:"points"`
}

// RewardPremiumMonth extends the premium plan by one month.
const RewardPremiumMonth = "premium_month"

var rewardCatalog = []Reward{
	{Code: "gift_card_500", Name: "Gift card ¥500", Description: "A ¥500 online store gift card", Points: 500},
	{Code: "coupon", Name: "Partner coupon", Description: "A discount coupon from a partner shop", Points: 200},
	{Code: RewardPremiumMonth, Name: "Premium (1 month)", Description: "Unlock premium reports for one month", Points: 1000},
	{Code: "theme", Name: "Special theme", Description: "An extra color theme", Points: 300},
}

// PointsSummary is the current state of a user's points.
type PointsSummary struct {
	Balance         int64               `json:"balance"`
	EarnedThisMonth int64               `json:"earned_this_month"`
	TotalEarned     int64               `json:"total_earned"`
	TotalRedeemed   int64               `json:"total_redeemed"`
	Recent          []models.PointEntry `json:"recent"`
}

// Challenge is a goal that grants points once its progress reaches the target.
type Challenge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	Progress    int    `json:"progress"`
	Target      int    `json:"target"`
	Completed   bool   `json:"completed"`
	Claimed     bool   `json:"claimed"`
}

// pointsService records the reward points ledger.
type pointsService struct {
	db *gorm.DB
}

// NewPointsService creates a new PointsServicer.
func NewPointsService(db *gorm.DB) PointsServicer {
	return &pointsService{db: db}
}

// Award records earned points. Errors are logged but never propagate
// so that the operation granting the points is not disrupted.
func (s *pointsService) Award(userID string, points int64, reason, description string) {
	entry := &models.PointEntry{
		UserID:      userID,
		Points:      points,
		Kind:        models.PointKindEarned,
		Reason:      reason,
		Description: description,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to record points",
			"error", err,
			"user_id", userID,
			"reason", reason,
			"points", points,
		)
	}
}

// AwardOnce records the points unless an entry with the same reason exists since the given time.
// It reports whether points were granted.
func (s *pointsService) AwardOnce(userID string, points int64, reason, description string, since time.Time) bool {
	var count int64
	if err := s.db.Model(&models.PointEntry{}).
		Where("user_id = ? AND reason = ? AND created_at >= ?", userID, reason, since).
		Count(&count).Error; err != nil {
		logger.Get().Errorw("failed to check points ledger", "error", err, "user_id", userID, "reason", reason)
		return false
	}
	if count > 0 {
		return false
	}
	s.Award(userID, points, reason, description)
	return true
}

// GetSummary returns the balance, totals and the ten most recent entries.
func (s *pointsService) GetSummary(userID string) (*PointsSummary, error) {
	var totals struct {
		Earned   int64
		Redeemed int64
	}
	if err := s.db.Model(&models.PointEntry{}).
		Select("COALESCE(SUM(CASE WHEN points > 0 THEN points ELSE 0 END), 0) AS earned, "+
			"COALESCE(SUM(CASE WHEN points < 0 THEN -points ELSE 0 END), 0) AS redeemed").
		Where("user_id = ?", userID).
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var thisMonth int64
	if err := s.db.Model(&models.PointEntry{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ? AND points > 0 AND created_at >= ?", userID, monthStart).
		Scan(&thisMonth).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var recent []models.PointEntry
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(10).Find(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if recent == nil {
		recent = []models.PointEntry{}
	}

	return &PointsSummary{
		Balance:         totals.Earned - totals.Redeemed,
		EarnedThisMonth: thisMonth,
		TotalEarned:     totals.Earned,
		TotalRedeemed:   totals.Redeemed,
		Recent:          recent,
	}, nil
}

// GetHistory returns the ledger, newest first.
func (s *pointsService) GetHistory(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PointEntry], error) {
	page.Defaults()

	base := s.db.Model(&models.PointEntry{}).Where("user_id = ?", userID)
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.PointEntry
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListRewards returns the reward catalog.
func (s *pointsService) ListRewards() []Reward {
	out := make([]Reward, len(rewardCatalog))
	copy(out, rewardCatalog)
	return out
}

// Redeem spends points on a reward. The premium reward extends the user's
// premium plan by one month from the later of now and the current expiry.
func (s *pointsService) Redeem(userID, rewardCode string) (*PointsSummary, error) {
	reward, ok := findReward(rewardCode)
	if !ok {
		return nil, apperrors.ErrRewardNotFound
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var balance int64
		if err := tx.Model(&models.PointEntry{}).
			Select("COALESCE(SUM(points), 0)").
			Where("user_id = ?", userID).
			Scan(&balance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if balance < reward.Points {
			return apperrors.ErrInsufficientPoints
		}

		entry := &models.PointEntry{
			UserID:      userID,
			Points:      -reward.Points,
			Kind:        models.PointKindRedeemed,
			Reason:      ReasonRedemption,
			Description: reward.Name,
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if reward.Code == RewardPremiumMonth {
			return extendPremium(tx, userID, time.Now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetSummary(userID)
}

func extendPremium(tx *gorm.DB, userID string, now time.Time) error {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	from := now
	if user.PremiumUntil != nil && user.PremiumUntil.After(now) {
		from = *user.PremiumUntil
	}
	until := from.AddDate(0, 1, 0)
	if err := tx.Model(&user).Update("premium_until", &until).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func findReward(code string) (Reward, bool) {
	for _, r := range rewardCatalog {
		if r.Code == code {
			return r, true
		}
	}
	return Reward{}, false
}

// Challenge identifiers.
const (
	ChallengeLoginStreak   = "login_streak_7"
	ChallengeBudgetMaster  = "budget_master"
	ChallengeSavingsMaster = "savings_master"
	ChallengeDataEntry     = "data_entry_30"
)

// GetChallenges computes progress of every challenge from the user's data.
// A challenge can be claimed once per calendar month.
func (s *pointsService) GetChallenges(userID string, now time.Time) ([]Challenge, error) {
	now = now.UTC()

	streak, err := s.loginStreak(userID, now)
	if err != nil {
		return nil, err
	}
	withinBudget, budgetTotal, err := s.budgetsWithinLimit(userID, now)
	if err != nil {
		return nil, err
	}
	savingMonths, err := s.savingMonths(userID, now)
	if err != nil {
		return nil, err
	}
	entryDays, err := s.entryDays(userID, now)
	if err != nil {
		return nil, err
	}

	budgetProgress := 0
	if budgetTotal > 0 && withinBudget == budgetTotal {
		budgetProgress = 1
	}

	challenges := []Challenge{
		{ID: ChallengeLoginStreak, Name: "7-day login streak", Description: "Log in seven days in a row", Reward: 150, Progress: streak, Target: 7},
		{ID: ChallengeBudgetMaster, Name: "Budget master", Description: "Keep every active budget within its limit this month", Reward: 300, Progress: budgetProgress, Target: 1},
		{ID: ChallengeSavingsMaster, Name: "Savings master", Description: "Save money three months in a row", Reward: 500, Progress: savingMonths, Target: 3},
		{ID: ChallengeDataEntry, Name: "Record keeper", Description: "Record transactions on 30 of the last 30 days", Reward: 400, Progress: entryDays, Target: 30},
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := range challenges {
		c := &challenges[i]
		if c.Progress > c.Target {
			c.Progress = c.Target
		}
		c.Completed = c.Progress >= c.Target

		var claimed int64
		if err := s.db.Model(&models.PointEntry{}).
			Where("user_id = ? AND reason = ? AND created_at >= ?", userID, reasonChallenge+c.ID, monthStart).
			Count(&claimed).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		c.Claimed = claimed > 0
	}
	return challenges, nil
}

// ClaimChallenge grants a completed challenge's reward.
func (s *pointsService) ClaimChallenge(userID, challengeID string, now time.Time) (*Challenge, error) {
	challenges, err := s.GetChallenges(userID, now)
	if err != nil {
		return nil, err
	}
	for i := range challenges {
		c := &challenges[i]
		if c.ID != challengeID {
			continue
		}
		if !c.Completed {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "challenge is not completed yet")
		}
		if c.Claimed {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "challenge already claimed this month")
		}
		s.Award(userID, c.Reward, reasonChallenge+c.ID, c.Name)
		c.Claimed = true
		return c, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrNotFound, "challenge not found")
}

// loginStreak counts consecutive days, ending today, with a daily login entry.
func (s *pointsService) loginStreak(userID string, now time.Time) (int, error) {
	var stamps []time.Time
	if err := s.db.Model(&models.PointEntry{}).
		Where("user_id = ? AND reason = ? AND created_at >= ?", userID, ReasonDailyLogin, now.AddDate(0, 0, -31)).
		Pluck("created_at", &stamps).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	days := make(map[string]bool, len(stamps))
	for _, ts := range stamps {
		days[ts.UTC().Format("2006-01-02")] = true
	}

	streak := 0
	for d := now; days[d.Format("2006-01-02")]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak, nil
}

// budgetsWithinLimit counts active budgets covering now that are not over budget.
func (s *pointsService) budgetsWithinLimit(userID string, now time.Time) (within, total int, err error) {
	var budgets []models.Budget
	if err := s.db.Preload("Categories").
		Where("user_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?", userID, true, now, now).
		Find(&budgets).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(budgets) == 0 {
		return 0, 0, nil
	}

	var categories []models.Category
	if err := s.db.Where("user_id = ? OR user_id IS NULL", userID).Find(&categories).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range budgets {
		var txs []models.Transaction
		if err := s.db.Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, models.TransactionTypeExpense, budgets[i].StartDate, budgets[i].EndDate.AddDate(0, 0, 1)).
			Find(&txs).Error; err != nil {
			return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !analytics.BudgetConsumption(&budgets[i], txs, categories).IsOverBudget {
			within++
		}
	}
	return within, len(budgets), nil
}

// savingMonths counts consecutive complete months, ending last month, with a positive balance.
func (s *pointsService) savingMonths(userID string, now time.Time) (int, error) {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := thisMonth.AddDate(0, -12, 0)

	var txs []models.Transaction
	if err := s.db.Where("user_id = ? AND date >= ? AND date < ?", userID, from, thisMonth).
		Find(&txs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	trend := analytics.MonthlyTrend(txs, analytics.Window{Start: from, End: thisMonth.Add(-time.Nanosecond)})
	streak := 0
	for i := len(trend) - 1; i >= 0 && trend[i].Balance > 0; i-- {
		streak++
	}
	return streak, nil
}

// entryDays counts distinct days in the last 30 with at least one recorded transaction.
func (s *pointsService) entryDays(userID string, now time.Time) (int, error) {
	var stamps []time.Time
	if err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND created_at >= ?", userID, now.AddDate(0, 0, -30)).
		Pluck("created_at", &stamps).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	days := make(map[string]bool)
	for _, ts := range stamps {
		days[ts.UTC().Format("2006-01-02")] = true
	}
	return len(days), nil
}
