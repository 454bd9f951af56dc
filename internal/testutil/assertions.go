package testutil

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
)

// AssertAppError fails unless err wraps an *AppError carrying code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected error %s, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected error %s, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected error %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertBalance reloads the account and compares its stored balance in yen.
func AssertBalance(t *testing.T, db *gorm.DB, accountID string, want int64) {
	t.Helper()

	var account models.Account
	if err := db.First(&account, "id = ?", accountID).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", accountID, err)
	}
	if account.Balance != want {
		t.Errorf("expected balance %d, got %d", want, account.Balance)
	}
}
