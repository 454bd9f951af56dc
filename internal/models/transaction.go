package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction represents a financial transaction in the system.
// Amount is a positive magnitude in whole yen; the direction comes from Type.
type Transaction struct {
	Base
	UserID                    string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID                 string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID                *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type                      TransactionType `gorm:"not null" json:"type"`
	Amount                    int64           `gorm:"type:bigint;not null" json:"amount"`
	Description               string          `json:"description"`
	Memo                      string          `json:"memo,omitempty"`
	Location                  string          `json:"location,omitempty"`
	Date                      time.Time       `gorm:"not null;index" json:"date"`
	IsReconciled              bool            `gorm:"default:false" json:"is_reconciled"`
	IsExcludedFromCalculation bool            `gorm:"default:false" json:"is_excluded_from_calculation"`

	// For transfers
	ToAccountID *string `gorm:"type:uuid" json:"to_account_id,omitempty"`

	// Relationships
	Account   Account   `gorm:"foreignKey:AccountID" json:"account"`
	ToAccount *Account  `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
	Category  *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags      []Tag     `gorm:"many2many:transaction_tags" json:"tags,omitempty"`
}
