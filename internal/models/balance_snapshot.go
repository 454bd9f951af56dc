package models

import (
	"time"

	"kakeibo/internal/uuid"

	"gorm.io/gorm"
)

// BalanceSnapshot is a point-in-time record of a user's balances by account type.
// Snapshots are immutable, so there is no Base embed.
type BalanceSnapshot struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_balance_snapshots_user_recorded" json:"user_id"`
	RecordedAt time.Time `gorm:"not null;uniqueIndex:uq_balance_snapshots_user_recorded" json:"recorded_at"`
	NetWorth   int64     `gorm:"type:bigint;not null" json:"net_worth"`
	Bank       int64     `gorm:"type:bigint;not null" json:"bank"`
	Cash       int64     `gorm:"type:bigint;not null" json:"cash"`
	CreditCard int64     `gorm:"type:bigint;not null" json:"credit_card"`
	EMoney     int64     `gorm:"type:bigint;not null" json:"e_money"`
	Securities int64     `gorm:"type:bigint;not null" json:"securities"`
	Other      int64     `gorm:"type:bigint;not null" json:"other"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *BalanceSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}
