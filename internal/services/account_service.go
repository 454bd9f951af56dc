package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account for a user. A non-zero initial balance
// is recorded as an opening transaction that is excluded from reports.
func (s *accountService) CreateAccount(userID string, in AccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if in.Type == "" {
		in.Type = models.AccountTypeBank
	}

	account := &models.Account{
		UserID:                userID,
		Name:                  name,
		Type:                  in.Type,
		Description:           in.Description,
		Institution:           in.Institution,
		Icon:                  in.Icon,
		Balance:               in.InitialBalance,
		IsActive:              true,
		IsExcludedFromBalance: in.IsExcludedFromBalance,
		DisplayOrder:          in.DisplayOrder,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if in.InitialBalance != 0 {
			transaction := openingTransaction(account, in.InitialBalance)
			if err := tx.Create(transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// openingTransaction describes an initial balance with the transaction type
// that would have produced it on this kind of account.
func openingTransaction(account *models.Account, balance int64) *models.Transaction {
	txType := models.TransactionTypeIncome
	amount := balance
	if amount < 0 {
		txType = models.TransactionTypeExpense
		amount = -amount
	}
	if account.Type == models.AccountTypeCreditCard {
		txType = reverseType(txType)
	}
	return &models.Transaction{
		UserID:                    account.UserID,
		AccountID:                 account.ID,
		Type:                      txType,
		Amount:                    amount,
		Description:               "Initial balance",
		Date:                      time.Now().UTC(),
		IsExcludedFromCalculation: true,
	}
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Order("display_order ASC, name ASC").
		Scopes(pagination.Paginate(page)).
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates the descriptive fields of an account. The balance
// only changes through transactions.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		updates["name"] = name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Institution != nil {
		updates["institution"] = *fields.Institution
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}
	if fields.DisplayOrder != nil {
		updates["display_order"] = *fields.DisplayOrder
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}
	if fields.IsExcludedFromBalance != nil {
		updates["is_excluded_from_balance"] = *fields.IsExcludedFromBalance
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// DeleteAccount removes an account with its transactions. Transfers touching
// another account are reversed on that account first so its balance stays
// consistent with the transactions left behind.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var transfers []models.Transaction
		if err := tx.Where("user_id = ? AND type = ? AND (account_id = ? OR to_account_id = ?)",
			userID, models.TransactionTypeTransfer, account.ID, account.ID).
			Find(&transfers).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for i := range transfers {
			t := &transfers[i]
			otherID, effect := transferCounterpart(t, account.ID)
			if otherID == "" {
				continue
			}
			var other models.Account
			if err := tx.Where("id = ?", otherID).First(&other).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := s.UpdateAccountBalance(tx, &other, reverseType(effect), t.Amount); err != nil {
				return err
			}
		}

		owned := tx.Model(&models.Transaction{}).Select("id").
			Where("account_id = ? OR to_account_id = ?", account.ID, account.ID)
		if err := tx.Exec("DELETE FROM transaction_tags WHERE transaction_id IN (?)", owned).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("account_id = ? OR to_account_id = ?", account.ID, account.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// transferCounterpart returns the other side of a transfer and the balance
// effect the transfer had on it.
func transferCounterpart(t *models.Transaction, accountID string) (string, models.TransactionType) {
	if t.AccountID == accountID {
		if t.ToAccountID == nil || *t.ToAccountID == accountID {
			return "", ""
		}
		return *t.ToAccountID, models.TransactionTypeIncome
	}
	return t.AccountID, models.TransactionTypeExpense
}

// UpdateAccountBalance updates the balance of an account based on transaction
func (s *accountService) UpdateAccountBalance(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64) error {
	// Credit cards: positive balance = amount owed (expense increases, income/payment decreases)
	// All others: income adds, expense subtracts
	switch transactionType {
	case models.TransactionTypeIncome:
		if account.Type == models.AccountTypeCreditCard {
			account.Balance -= amount
		} else {
			account.Balance += amount
		}
	case models.TransactionTypeExpense:
		if account.Type == models.AccountTypeCreditCard {
			account.Balance += amount
		} else {
			account.Balance -= amount
		}
	default:
		return apperrors.ErrInvalidTransactionType
	}

	if err := tx.Model(account).Update("balance", account.Balance).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetNetWorth sums the balances of active accounts that are not excluded.
// Credit card balances are owed and count negatively.
func (s *accountService) GetNetWorth(userID string) (*NetWorth, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND is_active = ? AND is_excluded_from_balance = ?", userID, true, false).
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	nw := &NetWorth{ByType: make(map[models.AccountType]int64)}
	for i := range accounts {
		v := signedBalance(&accounts[i])
		nw.ByType[accounts[i].Type] += v
		nw.Total += v
	}
	return nw, nil
}

// signedBalance is the account's contribution to net worth.
func signedBalance(a *models.Account) int64 {
	if a.Type == models.AccountTypeCreditCard {
		return -a.Balance
	}
	return a.Balance
}

func reverseType(t models.TransactionType) models.TransactionType {
	switch t {
	case models.TransactionTypeIncome:
		return models.TransactionTypeExpense
	case models.TransactionTypeExpense:
		return models.TransactionTypeIncome
	}
	return t
}
