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

// transactionService handles transaction-related business logic.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
	}
}

// CreateTransaction creates a new income or expense transaction for a user's account
// and applies it to the account balance.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	account, err := s.accountService.GetAccountByID(userID, in.AccountID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(userID, in.CategoryID, in.Type); err != nil {
		return nil, err
	}
	tags, err := s.loadTags(userID, in.TagIDs)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:                    userID,
		AccountID:                 account.ID,
		CategoryID:                in.CategoryID,
		Type:                      in.Type,
		Amount:                    in.Amount,
		Description:               in.Description,
		Memo:                      in.Memo,
		Location:                  in.Location,
		Date:                      in.Date.UTC(),
		IsReconciled:              in.IsReconciled,
		IsExcludedFromCalculation: in.IsExcludedFromCalculation,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(tags) > 0 {
			if err := tx.Model(transaction).Association("Tags").Replace(tags); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return s.accountService.UpdateAccountBalance(tx, account, transaction.Type, transaction.Amount)
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(userID, transaction.ID)
}

// CreateTransfer moves money between two of the user's accounts. The source
// account is debited and the destination credited.
func (s *transactionService) CreateTransfer(userID string, in TransferInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.FromAccountID == in.ToAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	from, err := s.accountService.GetAccountByID(userID, in.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := s.accountService.GetAccountByID(userID, in.ToAccountID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   from.ID,
		ToAccountID: &to.ID,
		Type:        models.TransactionTypeTransfer,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date.UTC(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.accountService.UpdateAccountBalance(tx, from, models.TransactionTypeExpense, in.Amount); err != nil {
			return err
		}
		return s.accountService.UpdateAccountBalance(tx, to, models.TransactionTypeIncome, in.Amount)
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(userID, transaction.ID)
}

// checkCategory requires a referenced category to be visible to the user and
// of the same type as the transaction.
func (s *transactionService) checkCategory(userID string, categoryID *string, txType models.TransactionType) error {
	if categoryID == nil {
		return nil
	}
	var category models.Category
	if err := s.db.Scopes(visibleTo(userID)).Where("id = ?", *categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if string(category.Type) != string(txType) {
		return apperrors.ErrCategoryTypeMismatch
	}
	return nil
}

// loadTags returns the user's tags with the given ids, failing if any is missing.
func (s *transactionService) loadTags(userID string, tagIDs []string) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	unique := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		unique[id] = true
	}

	var tags []models.Tag
	if err := s.db.Where("user_id = ? AND id IN ?", userID, tagIDs).Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(tags) != len(unique) {
		return nil, apperrors.ErrTagNotFound
	}
	return tags, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of transactions for a specific account.
// Transfers into the account are included.
func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}

	filter.AccountID = &accountID
	return s.GetUserTransactions(userID, page, filter)
}

// GetUserTransactions retrieves a paginated, filtered list of a user's transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").Preload("Tags").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("(account_id = ? OR to_account_id = ?)", *f.AccountID, *f.AccountID)
	}
	if f.TagID != nil {
		q = q.Where("id IN (SELECT transaction_id FROM transaction_tags WHERE tag_id = ?)", *f.TagID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(description) LIKE ? OR LOWER(memo) LIKE ? OR LOWER(location) LIKE ?)", like, like, like)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").Preload("Tags").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction edits an income or expense transaction. The old balance
// effect is reversed and the new one applied in the same database transaction.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.Type == models.TransactionTypeTransfer {
		return nil, apperrors.ErrTransactionNotEditable
	}

	newType := transaction.Type
	if fields.Type != nil {
		if *fields.Type == models.TransactionTypeTransfer {
			return nil, apperrors.ErrInvalidTypeChange
		}
		if *fields.Type != models.TransactionTypeIncome && *fields.Type != models.TransactionTypeExpense {
			return nil, apperrors.ErrInvalidTransactionType
		}
		newType = *fields.Type
	}
	newAmount := transaction.Amount
	if fields.Amount != nil {
		if *fields.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		newAmount = *fields.Amount
	}

	newCategoryID := transaction.CategoryID
	switch {
	case fields.ClearCategory:
		newCategoryID = nil
	case fields.CategoryID != nil:
		newCategoryID = fields.CategoryID
	}
	if err := s.checkCategory(userID, newCategoryID, newType); err != nil {
		return nil, err
	}

	var tags []models.Tag
	if fields.TagIDs != nil {
		if tags, err = s.loadTags(userID, fields.TagIDs); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"type":        newType,
		"amount":      newAmount,
		"category_id": newCategoryID,
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Memo != nil {
		updates["memo"] = *fields.Memo
	}
	if fields.Location != nil {
		updates["location"] = *fields.Location
	}
	if fields.Date != nil {
		updates["date"] = fields.Date.UTC()
	}
	if fields.IsReconciled != nil {
		updates["is_reconciled"] = *fields.IsReconciled
	}
	if fields.IsExcludedFromCalculation != nil {
		updates["is_excluded_from_calculation"] = *fields.IsExcludedFromCalculation
	}

	account, err := s.accountService.GetAccountByID(userID, transaction.AccountID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountService.UpdateAccountBalance(tx, account, reverseType(transaction.Type), transaction.Amount); err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", transaction.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if fields.TagIDs != nil {
			if err := tx.Model(transaction).Association("Tags").Replace(tags); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return s.accountService.UpdateAccountBalance(tx, account, newType, newAmount)
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(userID, transaction.ID)
}

// DeleteTransaction deletes a transaction and reverses its balance effect.
// A transfer is reversed on both accounts.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	account, err := s.accountService.GetAccountByID(userID, transaction.AccountID)
	if err != nil {
		return err
	}

	var toAccount *models.Account
	if transaction.Type == models.TransactionTypeTransfer && transaction.ToAccountID != nil {
		if toAccount, err = s.accountService.GetAccountByID(userID, *transaction.ToAccountID); err != nil {
			return err
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(transaction).Association("Tags").Clear(); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Transaction{}, "id = ?", transaction.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		switch transaction.Type {
		case models.TransactionTypeTransfer:
			if err := s.accountService.UpdateAccountBalance(tx, account, models.TransactionTypeIncome, transaction.Amount); err != nil {
				return err
			}
			if toAccount != nil {
				return s.accountService.UpdateAccountBalance(tx, toAccount, models.TransactionTypeExpense, transaction.Amount)
			}
			return nil
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			return s.accountService.UpdateAccountBalance(tx, account, reverseType(transaction.Type), transaction.Amount)
		default:
			return apperrors.ErrInvalidTransactionType
		}
	})
}
