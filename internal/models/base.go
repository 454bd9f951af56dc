package models

import (
	"time"

	"gorm.io/gorm"

	"kakeibo/internal/uuid"
)

// Base is embedded by every owned record: a time-ordered UUID key and the
// gorm-managed timestamps.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id unless the caller already chose one.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
