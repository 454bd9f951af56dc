package models

import "time"

// Goal is a savings target with a deadline.
type Goal struct {
	Base
	UserID        string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string     `gorm:"not null" json:"name"`
	Description   string     `json:"description,omitempty"`
	TargetAmount  int64      `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount int64      `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	StartDate     time.Time  `gorm:"not null" json:"start_date"`
	TargetDate    time.Time  `gorm:"not null" json:"target_date"`
	Icon          string     `json:"icon,omitempty"`
	Color         string     `json:"color,omitempty"`
	IsAchieved    bool       `gorm:"default:false" json:"is_achieved"`
	AchievedAt    *time.Time `json:"achieved_at,omitempty"`
}
