package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Email               string        `gorm:"uniqueIndex;not null" json:"email"`
	Password            string        `gorm:"not null" json:"-"`
	Name                string        `json:"name"`
	IsActive            bool          `gorm:"default:true" json:"is_active"`
	IsPremium           bool          `gorm:"default:false" json:"is_premium"`
	PremiumUntil        *time.Time    `json:"premium_until,omitempty"`
	RefreshTokenHash    string        `gorm:"size:64" json:"-"`
	FailedLoginAttempts int           `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time    `json:"-"`
	LastLoginAt         *time.Time    `json:"last_login_at,omitempty"`
	Accounts            []Account     `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
	Budgets             []Budget      `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Categories          []Category    `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	Transactions        []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}

// HasPremium reports whether premium features are unlocked at the given time.
// A premium flag without an expiry never lapses.
func (u *User) HasPremium(now time.Time) bool {
	if u.PremiumUntil != nil && u.PremiumUntil.After(now) {
		return true
	}
	return u.IsPremium && u.PremiumUntil == nil
}
