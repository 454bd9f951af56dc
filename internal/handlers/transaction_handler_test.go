package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
	"kakeibo/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn      func(userID string, in services.TransactionInput) (*models.Transaction, error)
	createTransferFn         func(userID string, in services.TransferInput) (*models.Transaction, error)
	getAccountTransactionsFn func(userID, accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getUserTransactionsFn    func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn     func(userID, transactionID string) (*models.Transaction, error)
	updateTransactionFn      func(userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error)
	deleteTransactionFn      func(userID, transactionID string) error
}

func (m *mockTransactionService) CreateTransaction(userID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) CreateTransfer(userID string, in services.TransferInput) (*models.Transaction, error) {
	if m.createTransferFn != nil {
		return m.createTransferFn(userID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getAccountTransactionsFn != nil {
		return m.getAccountTransactionsFn(userID, accountID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, fields)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.POST("/transactions/transfer", handler.CreateTransfer)
	auth.GET("/transactions", handler.GetUserTransactions)
	auth.GET("/accounts/:id/transactions", handler.GetAccountTransactions)
	auth.GET("/transactions/:id", handler.GetTransactionByID)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.TransactionInput
		txSvc := &mockTransactionService{
			createTransactionFn: func(userID string, in services.TransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{
					Base:      models.Base{ID: testEntryID},
					UserID:    userID,
					AccountID: in.AccountID,
					Type:      in.Type,
					Amount:    in.Amount,
				}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testOtherID+`","type":"expense","amount":1200,"description":"Lunch","date":"2025-04-03","tag_ids":["`+testEntryID+`"]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
		if tx["amount"].(float64) != 1200 {
			t.Errorf("expected amount 1200, got %v", tx["amount"])
		}
		if !got.Date.Equal(time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", got.Date)
		}
		if len(got.TagIDs) != 1 || got.TagIDs[0] != testEntryID {
			t.Errorf("unexpected tags %v", got.TagIDs)
		}
	})

	t.Run("defaults date to now", func(t *testing.T) {
		var got services.TransactionInput
		txSvc := &mockTransactionService{
			createTransactionFn: func(_ string, in services.TransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))
		before := time.Now()

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testOtherID+`","type":"income","amount":5000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if got.Date.Before(before) {
			t.Errorf("expected date defaulted to now, got %v", got.Date)
		}
	})

	t.Run("returns 400 on missing account_id", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions", `{"type":"income","amount":5000}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on zero amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testOtherID+`","type":"expense","amount":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testOtherID+`","type":"investment","amount":1000}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testOtherID+`","type":"expense","amount":1000,"date":"03/04/2025"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 when account not found", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(string, services.TransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testOtherID+`","type":"expense","amount":1000}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})
}

func TestTransactionHandler_CreateTransfer(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.TransferInput
		txSvc := &mockTransactionService{
			createTransferFn: func(_ string, in services.TransferInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{Type: models.TransactionTypeTransfer, Amount: in.Amount}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "POST", "/transactions/transfer",
			`{"from_account_id":"`+testOtherID+`","to_account_id":"`+testEntryID+`","amount":30000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.FromAccountID != testOtherID || got.ToAccountID != testEntryID {
			t.Errorf("unexpected transfer input %+v", got)
		}
	})

	t.Run("returns 400 on same account", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransferFn: func(string, services.TransferInput) (*models.Transaction, error) {
				return nil, apperrors.ErrSameAccountTransfer
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "POST", "/transactions/transfer",
			`{"from_account_id":"`+testOtherID+`","to_account_id":"`+testOtherID+`","amount":100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SAME_ACCOUNT_TRANSFER")
	})
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.TransactionFilter
		txSvc := &mockTransactionService{
			getUserTransactionsFn: func(_ string, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				got = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "GET", "/transactions?account_id="+testOtherID+
			"&tag_id="+testEntryID+"&type=expense&from_date=2025-04-01&to_date=2025-04-30&min_amount=500&search=coffee", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.AccountID == nil || *got.AccountID != testOtherID {
			t.Errorf("expected account filter, got %v", got.AccountID)
		}
		if got.TagID == nil || *got.TagID != testEntryID {
			t.Errorf("expected tag filter, got %v", got.TagID)
		}
		if got.Type == nil || *got.Type != models.TransactionTypeExpense {
			t.Errorf("expected expense filter, got %v", got.Type)
		}
		if got.FromDate == nil || got.ToDate == nil {
			t.Error("expected date range")
		}
		if got.MinAmount == nil || *got.MinAmount != 500 || got.MaxAmount != nil {
			t.Errorf("unexpected amount filter %v %v", got.MinAmount, got.MaxAmount)
		}
		if got.Search != "coffee" {
			t.Errorf("expected search coffee, got %q", got.Search)
		}
	})

	t.Run("returns 400 on invalid account_id", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions?account_id=abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions?type=refund", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetAccountTransactions(t *testing.T) {
	t.Run("passes account id", func(t *testing.T) {
		var gotAccount string
		txSvc := &mockTransactionService{
			getAccountTransactionsFn: func(_, accountID string, _ pagination.PageRequest, _ services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotAccount = accountID
				resp := pagination.NewPageResponse([]models.Transaction{{Amount: 1000}}, 1, 20, 1)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "GET", "/accounts/"+testOtherID+"/transactions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotAccount != testOtherID {
			t.Errorf("expected account %s, got %s", testOtherID, gotAccount)
		}
	})

	t.Run("returns 404 when account not found", func(t *testing.T) {
		txSvc := &mockTransactionService{
			getAccountTransactionsFn: func(_, _ string, _ pagination.PageRequest, _ services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "GET", "/accounts/"+testOtherID+"/transactions", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetTransactionByID(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		txSvc := &mockTransactionService{
			getTransactionByIDFn: func(_, _ string) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "GET", "/transactions/"+testEntryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})

	t.Run("returns 400 on invalid id", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	t.Run("omitted tags stay nil", func(t *testing.T) {
		var got services.TransactionUpdateFields
		txSvc := &mockTransactionService{
			updateTransactionFn: func(_, _ string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
				got = fields
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "PUT", "/transactions/"+testEntryID, `{"amount":900,"clear_category":true}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.TagIDs != nil {
			t.Errorf("expected nil tags, got %v", got.TagIDs)
		}
		if !got.ClearCategory {
			t.Error("expected clear_category to be passed")
		}
		if got.Amount == nil || *got.Amount != 900 {
			t.Errorf("unexpected amount %v", got.Amount)
		}
	})

	t.Run("empty tags clear them", func(t *testing.T) {
		var got services.TransactionUpdateFields
		txSvc := &mockTransactionService{
			updateTransactionFn: func(_, _ string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
				got = fields
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "PUT", "/transactions/"+testEntryID, `{"tag_ids":[]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.TagIDs == nil || len(got.TagIDs) != 0 {
			t.Errorf("expected empty non-nil tags, got %v", got.TagIDs)
		}
	})

	t.Run("returns 400 on transfer", func(t *testing.T) {
		txSvc := &mockTransactionService{
			updateTransactionFn: func(_, _ string, _ services.TransactionUpdateFields) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotEditable
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc))

		rec := doRequest(r, "PUT", "/transactions/"+testEntryID, `{"amount":100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_EDITABLE")
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	var deleted string
	txSvc := &mockTransactionService{
		deleteTransactionFn: func(_, transactionID string) error {
			deleted = transactionID
			return nil
		},
	}
	r := setupTransactionRouter(NewTransactionHandler(txSvc))

	rec := doRequest(r, "DELETE", "/transactions/"+testEntryID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != testEntryID {
		t.Errorf("expected %s deleted, got %q", testEntryID, deleted)
	}
}
