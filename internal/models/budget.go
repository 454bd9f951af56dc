package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget is a spending plan over a date range, split into per-category allocations.
type Budget struct {
	Base
	UserID    string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string       `gorm:"not null" json:"name"`
	Amount    int64        `gorm:"type:bigint;not null" json:"amount"`
	Period    BudgetPeriod `gorm:"not null" json:"period"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   time.Time    `gorm:"not null" json:"end_date"`
	IsActive  bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Categories []BudgetCategory `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
}

// BudgetCategory allocates part of a budget to one category.
type BudgetCategory struct {
	Base
	BudgetID   string `gorm:"type:uuid;not null;uniqueIndex:uq_budget_categories_budget_category" json:"budget_id"`
	CategoryID string `gorm:"type:uuid;not null;uniqueIndex:uq_budget_categories_budget_category" json:"category_id"`
	Amount     int64  `gorm:"type:bigint;not null" json:"amount"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}
