package models

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&Category{},
		&Tag{},
		&Transaction{},
		&Budget{},
		&BudgetCategory{},
		&Goal{},
		&UserSetting{},
		&PointEntry{},
		&BalanceSnapshot{},
	}
}
