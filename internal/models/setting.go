package models

// UserSetting is a per-user key/value entry. Value holds JSON.
type UserSetting struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex:uq_user_settings_user_key" json:"user_id"`
	Key    string `gorm:"not null;uniqueIndex:uq_user_settings_user_key" json:"key"`
	Value  string `gorm:"type:text;not null" json:"value"`
}
