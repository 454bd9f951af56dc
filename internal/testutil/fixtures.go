package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kakeibo/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPremiumUser creates a user with an open-ended premium plan.
func CreateTestPremiumUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("is_premium", true).Error; err != nil {
		t.Fatalf("failed to mark user premium: %v", err)
	}
	user.IsPremium = true
	return user
}

// CreateTestAccount creates a bank account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, models.AccountTypeBank, 0)
}

// CreateTestAccountWithBalance creates an account of the given type and balance in yen.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, accountType models.AccountType, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     accountType,
		Balance:  balance,
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a user-owned root category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, &models.Category{
		UserID: &userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	})
}

// CreateTestChildCategory creates a user-owned category under parent.
func CreateTestChildCategory(t *testing.T, db *gorm.DB, userID string, parent *models.Category) *models.Category {
	t.Helper()
	return createCategory(t, db, &models.Category{
		UserID:   &userID,
		Name:     fmt.Sprintf("Test Subcategory %d", nextID()),
		Type:     parent.Type,
		ParentID: &parent.ID,
	})
}

// CreateTestSystemCategory creates a shared category with no owner.
func CreateTestSystemCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, &models.Category{
		Name:     fmt.Sprintf("System Category %d", nextID()),
		Type:     categoryType,
		IsSystem: true,
	})
}

func createCategory(t *testing.T, db *gorm.DB, category *models.Category) *models.Category {
	t.Helper()
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction dated now with the given type and amount in yen.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, accountID, nil, txType, amount, time.Now().UTC())
}

// CreateTestTransactionOn creates a transaction on the given date, optionally categorized.
// It writes the row directly and does not touch account balances.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID, accountID string, categoryID *string, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     amount,
		Date:       date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a monthly budget for the current month with one allocation per category.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, amount int64, categoryIDs ...string) *models.Budget {
	t.Helper()

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return CreateTestBudgetInRange(t, db, userID, amount, start, start.AddDate(0, 1, -1), categoryIDs...)
}

// CreateTestBudgetInRange creates a budget over [start, end]. Allocations split amount evenly.
func CreateTestBudgetInRange(t *testing.T, db *gorm.DB, userID string, amount int64, start, end time.Time, categoryIDs ...string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:    userID,
		Name:      fmt.Sprintf("Test Budget %d", nextID()),
		Amount:    amount,
		Period:    models.BudgetPeriodMonthly,
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	}
	for _, id := range categoryIDs {
		budget.Categories = append(budget.Categories, models.BudgetCategory{
			CategoryID: id,
			Amount:     amount / int64(len(categoryIDs)),
		})
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestGoal creates a goal running from start to target.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID string, target, current int64, start, targetDate time.Time) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:  target,
		CurrentAmount: current,
		StartDate:     start,
		TargetDate:    targetDate,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestTag creates a tag with a unique name.
func CreateTestTag(t *testing.T, db *gorm.DB, userID string) *models.Tag {
	t.Helper()

	tag := &models.Tag{
		UserID: userID,
		Name:   fmt.Sprintf("tag-%d", nextID()),
	}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}
