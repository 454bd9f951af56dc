package analytics

import (
	"math"
	"time"

	"kakeibo/internal/models"
	"kakeibo/internal/money"

	"github.com/shopspring/decimal"
)

// GoalProjection describes how far a goal is and what it takes to reach it.
type GoalProjection struct {
	GoalID              string     `json:"goal_id"`
	Name                string     `json:"name"`
	TargetAmount        int64      `json:"target_amount"`
	CurrentAmount       int64      `json:"current_amount"`
	RemainingAmount     int64      `json:"remaining_amount"`
	ProgressPercentage  float64    `json:"progress_percentage"`
	Progress            float64    `json:"progress"`
	MonthsRemaining     int        `json:"months_remaining"`
	MonthlyRequirement  float64    `json:"monthly_requirement"`
	RequiredFromNow     float64    `json:"required_from_now"`
	DaysRemaining       int        `json:"days_remaining"`
	MonthlyContribution int64      `json:"monthly_contribution"`
	MonthsToGoal        *int       `json:"months_to_goal,omitempty"`
	ProjectedDate       *time.Time `json:"projected_date,omitempty"`
	OnTrack             bool       `json:"on_track"`
	IsAchieved          bool       `json:"is_achieved"`
}

// ProgressPercentage is current/target*100; a non-positive target yields 0.
func ProgressPercentage(current, target int64) float64 {
	return money.Percentage(current, target)
}

// MonthlyRequirement spreads the remaining amount evenly over the calendar
// months between start and targetDate. It is 0 when no months remain or
// nothing is left to save.
func MonthlyRequirement(target, current int64, start, targetDate time.Time) float64 {
	months := MonthsBetween(start, targetDate)
	remaining := target - current
	if months <= 0 || remaining <= 0 {
		return 0
	}
	return decimal.NewFromInt(remaining).Div(decimal.NewFromInt(int64(months))).Round(2).InexactFloat64()
}

// MonthsToGoal is the number of whole monthly contributions needed to close
// the gap. ok is false when the contribution can never reach the target.
func MonthsToGoal(target, current, contribution int64) (months int, ok bool) {
	remaining := target - current
	if remaining <= 0 {
		return 0, true
	}
	if contribution <= 0 {
		return 0, false
	}
	return int((remaining + contribution - 1) / contribution), true
}

// DaysRemaining counts whole days from now until target, rounding up. Past targets yield 0.
func DaysRemaining(now, target time.Time) int {
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// ProjectGoal computes the projection of g at now. MonthlyRequirement is the
// goal's plan, spread from its start date to its target date. RequiredFromNow
// spreads what is left over the months still ahead. A contribution of 0 uses
// RequiredFromNow, or the plan once the target date has passed.
func ProjectGoal(g *models.Goal, now time.Time, contribution int64) GoalProjection {
	remaining := g.TargetAmount - g.CurrentAmount
	if remaining < 0 {
		remaining = 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	p := GoalProjection{
		GoalID:             g.ID,
		Name:               g.Name,
		TargetAmount:       g.TargetAmount,
		CurrentAmount:      g.CurrentAmount,
		RemainingAmount:    remaining,
		ProgressPercentage: ProgressPercentage(g.CurrentAmount, g.TargetAmount),
		MonthsRemaining:    MonthsBetween(today, g.TargetDate),
		MonthlyRequirement: MonthlyRequirement(g.TargetAmount, g.CurrentAmount, g.StartDate, g.TargetDate),
		RequiredFromNow:    MonthlyRequirement(g.TargetAmount, g.CurrentAmount, today, g.TargetDate),
		DaysRemaining:      DaysRemaining(now, g.TargetDate),
		IsAchieved:         g.IsAchieved || (g.TargetAmount > 0 && remaining == 0),
	}
	p.Progress = money.Clamp100(p.ProgressPercentage)

	if contribution <= 0 {
		required := p.RequiredFromNow
		if required == 0 {
			required = p.MonthlyRequirement
		}
		contribution = int64(math.Ceil(required))
	}
	p.MonthlyContribution = contribution

	if months, ok := MonthsToGoal(g.TargetAmount, g.CurrentAmount, contribution); ok {
		projected := today.AddDate(0, months, 0)
		p.MonthsToGoal = &months
		p.ProjectedDate = &projected
		p.OnTrack = !projected.After(g.TargetDate) || p.IsAchieved
	}
	return p
}
