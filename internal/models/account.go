package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeBank       AccountType = "bank"
	AccountTypeCash       AccountType = "cash"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeEMoney     AccountType = "e_money"
	AccountTypeSecurities AccountType = "securities"
	AccountTypeOther      AccountType = "other"
)

// Account represents a financial account in the system.
// Balance is a signed amount in whole yen.
type Account struct {
	Base
	UserID                string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name                  string      `gorm:"not null" json:"name"`
	Type                  AccountType `gorm:"not null" json:"type"`
	Description           string      `json:"description"`
	Institution           string      `json:"institution,omitempty"`
	Icon                  string      `json:"icon,omitempty"`
	Balance               int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	IsActive              bool        `gorm:"default:true" json:"is_active"`
	IsExcludedFromBalance bool        `gorm:"default:false" json:"is_excluded_from_balance"`
	DisplayOrder          int         `gorm:"default:0" json:"display_order"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
