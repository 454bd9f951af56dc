package models

// Tag is a free-form label attached to transactions.
type Tag struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex:uq_tags_user_name" json:"user_id"`
	Name   string `gorm:"not null;uniqueIndex:uq_tags_user_name" json:"name"`
	Color  string `json:"color,omitempty"`
}
