package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"kakeibo/internal/analytics"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
)

// goalService handles savings goals.
type goalService struct {
	db     *gorm.DB
	points PointsServicer
	now    func() time.Time
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, points PointsServicer) GoalServicer {
	return &goalService{db: db, points: points, now: time.Now}
}

// CreateGoal creates a goal. A goal created at or past its target is achieved immediately.
func (s *goalService) CreateGoal(userID string, in GoalInput) (*models.Goal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if in.TargetAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	if in.CurrentAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "current amount cannot be negative")
	}
	if in.StartDate.IsZero() {
		in.StartDate = s.now()
	}
	if in.TargetDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target date is required")
	}
	if in.TargetDate.Before(in.StartDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	goal := &models.Goal{
		UserID:        userID,
		Name:          name,
		Description:   in.Description,
		Icon:          in.Icon,
		Color:         in.Color,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		StartDate:     in.StartDate.UTC(),
		TargetDate:    in.TargetDate.UTC(),
	}
	if goal.CurrentAmount >= goal.TargetAmount {
		at := s.now().UTC()
		goal.IsAchieved = true
		goal.AchievedAt = &at
	}

	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals lists goals ordered by target date.
func (s *goalService) GetUserGoals(userID string, page pagination.PageRequest, achieved *bool) (*pagination.PageResponse[models.Goal], error) {
	page.Defaults()

	base := s.db.Model(&models.Goal{}).Where("user_id = ?", userID)
	if achieved != nil {
		base = base.Where("is_achieved = ?", *achieved)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := base.Order("target_date ASC, name ASC").Scopes(pagination.Paginate(page)).Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGoalByID returns one of the user's goals.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal updates a goal and re-evaluates whether it is achieved.
func (s *goalService) UpdateGoal(userID, goalID string, fields GoalUpdateFields) (*models.Goal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name cannot be empty")
		}
		updates["name"] = name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}

	target, current := goal.TargetAmount, goal.CurrentAmount
	if fields.TargetAmount != nil {
		if *fields.TargetAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
		}
		target = *fields.TargetAmount
		updates["target_amount"] = target
	}
	if fields.CurrentAmount != nil {
		if *fields.CurrentAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "current amount cannot be negative")
		}
		current = *fields.CurrentAmount
		updates["current_amount"] = current
	}
	if fields.TargetDate != nil {
		if fields.TargetDate.Before(goal.StartDate) {
			return nil, apperrors.ErrInvalidDateRange
		}
		updates["target_date"] = fields.TargetDate.UTC()
	}

	becameAchieved := s.achievementUpdates(goal, target, current, updates)

	if len(updates) > 0 {
		if err := s.db.Model(&models.Goal{}).Where("id = ?", goal.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if becameAchieved {
		s.awardAchievement(goal)
	}

	return s.GetGoalByID(userID, goal.ID)
}

// achievementUpdates records an achievement change in updates and reports
// whether the goal has just been reached.
func (s *goalService) achievementUpdates(goal *models.Goal, target, current int64, updates map[string]interface{}) bool {
	reached := current >= target
	switch {
	case reached && !goal.IsAchieved:
		updates["is_achieved"] = true
		updates["achieved_at"] = s.now().UTC()
		return true
	case !reached && goal.IsAchieved:
		updates["is_achieved"] = false
		updates["achieved_at"] = nil
	}
	return false
}

func (s *goalService) awardAchievement(goal *models.Goal) {
	s.points.AwardOnce(goal.UserID, PointsGoalAchieved, ReasonGoalAchieved+":"+goal.ID,
		"Goal achieved: "+goal.Name, time.Time{})
}

// DeleteGoal deletes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Goal{}, "id = ?", goal.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Contribute adds to a goal's saved amount. Reaching the target marks the
// goal achieved and grants the goal bonus.
func (s *goalService) Contribute(userID, goalID string, amount int64) (*models.Goal, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	current := goal.CurrentAmount + amount
	updates := map[string]interface{}{"current_amount": current}
	becameAchieved := s.achievementUpdates(goal, goal.TargetAmount, current, updates)

	if err := s.db.Model(&models.Goal{}).Where("id = ?", goal.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if becameAchieved {
		s.awardAchievement(goal)
	}

	return s.GetGoalByID(userID, goal.ID)
}

// GetProjection projects when the goal is reached at the given monthly contribution.
func (s *goalService) GetProjection(userID, goalID string, monthlyContribution int64) (*analytics.GoalProjection, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	projection := analytics.ProjectGoal(goal, s.now().UTC(), monthlyContribution)
	return &projection, nil
}
