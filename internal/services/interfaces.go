package services

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	"kakeibo/internal/analytics"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	DeleteUser(userID string) error
}

// AccountInput holds the fields of a new account.
type AccountInput struct {
	Name                  string
	Type                  models.AccountType
	Description           string
	Institution           string
	Icon                  string
	InitialBalance        int64
	DisplayOrder          int
	IsExcludedFromBalance bool
}

// AccountUpdateFields holds optional fields for updating an account.
type AccountUpdateFields struct {
	Name                  *string
	Description           *string
	Institution           *string
	Icon                  *string
	DisplayOrder          *int
	IsActive              *bool
	IsExcludedFromBalance *bool
}

// NetWorth is the sum of a user's balances. Credit card balances are debt.
type NetWorth struct {
	Total  int64                        `json:"total"`
	ByType map[models.AccountType]int64 `json:"by_type"`
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID string, in AccountInput) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
	UpdateAccountBalance(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64) error
	GetNetWorth(userID string) (*NetWorth, error)
}

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name        string
	Type        models.CategoryType
	Description string
	Icon        string
	Color       string
	ParentID    *string
}

// CategoryUpdateFields holds optional fields for updating a category.
// ClearParent moves the category to the top level.
type CategoryUpdateFields struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
	ParentID    *string
	ClearParent bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID string, in CategoryInput) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionInput holds the fields of a new income or expense transaction.
type TransactionInput struct {
	AccountID                 string
	CategoryID                *string
	Type                      models.TransactionType
	Amount                    int64
	Description               string
	Memo                      string
	Location                  string
	Date                      time.Time
	IsReconciled              bool
	IsExcludedFromCalculation bool
	TagIDs                    []string
}

// TransferInput holds the fields of a transfer between two accounts.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Description   string
	Date          time.Time
}

// TransactionUpdateFields holds optional fields for updating a transaction.
// A nil TagIDs leaves tags unchanged; an empty slice clears them.
type TransactionUpdateFields struct {
	CategoryID                *string
	ClearCategory             bool
	Type                      *models.TransactionType
	Amount                    *int64
	Description               *string
	Memo                      *string
	Location                  *string
	Date                      *time.Time
	IsReconciled              *bool
	IsExcludedFromCalculation *bool
	TagIDs                    []string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	TagID      *string
	MinAmount  *int64
	MaxAmount  *int64
	Search     string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	CreateTransfer(userID string, in TransferInput) (*models.Transaction, error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// BudgetAllocation assigns part of a budget to a category.
type BudgetAllocation struct {
	CategoryID string
	Amount     int64
}

// BudgetInput holds the fields of a new budget. A nil EndDate is derived from the period.
type BudgetInput struct {
	Name        string
	Amount      int64
	Period      models.BudgetPeriod
	StartDate   time.Time
	EndDate     *time.Time
	Allocations []BudgetAllocation
}

// BudgetUpdateFields holds optional fields for updating a budget.
// A non-nil Allocations replaces every existing allocation.
type BudgetUpdateFields struct {
	Name        *string
	Amount      *int64
	Period      *models.BudgetPeriod
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    *bool
	Allocations []BudgetAllocation
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, in BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, isActive *bool, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*analytics.BudgetReport, error)
}

// GoalInput holds the fields of a new goal.
type GoalInput struct {
	Name          string
	Description   string
	Icon          string
	Color         string
	TargetAmount  int64
	CurrentAmount int64
	StartDate     time.Time
	TargetDate    time.Time
}

// GoalUpdateFields holds optional fields for updating a goal.
type GoalUpdateFields struct {
	Name          *string
	Description   *string
	Icon          *string
	Color         *string
	TargetAmount  *int64
	CurrentAmount *int64
	TargetDate    *time.Time
}

// GoalServicer defines the contract for savings goals.
type GoalServicer interface {
	CreateGoal(userID string, in GoalInput) (*models.Goal, error)
	GetUserGoals(userID string, page pagination.PageRequest, achieved *bool) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(userID, goalID string) (*models.Goal, error)
	UpdateGoal(userID, goalID string, fields GoalUpdateFields) (*models.Goal, error)
	DeleteGoal(userID, goalID string) error
	Contribute(userID, goalID string, amount int64) (*models.Goal, error)
	GetProjection(userID, goalID string, monthlyContribution int64) (*analytics.GoalProjection, error)
}

// TagServicer defines the contract for transaction tags.
type TagServicer interface {
	CreateTag(userID, name, color string) (*models.Tag, error)
	GetUserTags(userID string) ([]models.Tag, error)
	UpdateTag(userID, tagID string, name, color *string) (*models.Tag, error)
	DeleteTag(userID, tagID string) error
}

// SettingsServicer persists per-user preferences as key/value entries.
type SettingsServicer interface {
	GetPreferences(userID string) (*Preferences, error)
	UpdatePreferences(userID string, prefs Preferences) (*Preferences, error)
}

// PointsServicer defines the contract for the reward points ledger.
type PointsServicer interface {
	Award(userID string, points int64, reason, description string)
	AwardOnce(userID string, points int64, reason, description string, since time.Time) bool
	GetSummary(userID string) (*PointsSummary, error)
	GetHistory(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PointEntry], error)
	ListRewards() []Reward
	Redeem(userID, rewardCode string) (*PointsSummary, error)
	GetChallenges(userID string, now time.Time) ([]Challenge, error)
	ClaimChallenge(userID, challengeID string, now time.Time) (*Challenge, error)
}

// ReportSource is the read boundary of the aggregation engine: everything a
// report needs, already scoped to one user.
type ReportSource interface {
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error)
	ListBudgetsWithCategories(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error)
	ListCategories(ctx context.Context, userID string, categoryType *models.CategoryType) ([]models.Category, error)
	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)
	ListSnapshots(ctx context.Context, userID string, from, to time.Time) ([]models.BalanceSnapshot, error)
}

// ReportServicer produces the report panels.
type ReportServicer interface {
	GetSummary(ctx context.Context, userID string, cfg ReportConfig) (*SummaryReport, error)
	GetTrend(ctx context.Context, userID string, cfg ReportConfig) (*TrendReport, error)
	GetCategoryBreakdown(ctx context.Context, userID string, cfg ReportConfig) (*BreakdownReport, error)
	GetWeekdayExpenses(ctx context.Context, userID string, cfg ReportConfig) (*WeekdayReport, error)
	GetBudgetReports(ctx context.Context, userID string) ([]analytics.BudgetReport, error)
	GetGoalProjections(ctx context.Context, userID string, monthlyContribution int64) ([]analytics.GoalProjection, error)
	GetAssetTrend(ctx context.Context, userID string, cfg ReportConfig) (*AssetReport, error)
	GetDashboard(ctx context.Context, userID string, cfg ReportConfig) (*Dashboard, error)
}

// DataServicer imports and exports transactions.
type DataServicer interface {
	Import(userID, accountID string, format ImportFormat, r io.Reader) (*ImportResult, error)
	Export(ctx context.Context, userID string, format ExportFormat, cfg ReportConfig, w io.Writer) error
}

// SnapshotServicer records and serves balance snapshots.
type SnapshotServicer interface {
	ComputeAndRecordSnapshots(recordedAt time.Time) (int, error)
	GetSnapshots(userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceSnapshot], error)
}
