// Package router wires services and handlers into the HTTP API.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"kakeibo/internal/config"
	_ "kakeibo/internal/docs" // Register swagger docs
	"kakeibo/internal/handlers"
	"kakeibo/internal/middleware"
	"kakeibo/internal/services"
)

// New builds the Gin engine with every route of the API.
func New(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Services
	pointsService := services.NewPointsService(db)
	userService := services.NewUserService(db, pointsService)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, accountService)
	budgetService := services.NewBudgetService(db, pointsService)
	goalService := services.NewGoalService(db, pointsService)
	tagService := services.NewTagService(db)
	settingsService := services.NewSettingsService(db)
	reportService := services.NewReportService(services.NewReportSource(db), userService)
	dataService := services.NewDataService(db, accountService, transactionService, tagService)
	snapshotService := services.NewSnapshotService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	goalHandler := handlers.NewGoalHandler(goalService)
	tagHandler := handlers.NewTagHandler(tagService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	pointsHandler := handlers.NewPointsHandler(pointsService)
	reportHandler := handlers.NewReportHandler(reportService)
	dataHandler := handlers.NewDataHandler(dataService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Pipeline routes
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.POST("/snapshots", snapshotHandler.ComputeSnapshots)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)
	protected.DELETE("/profile", authHandler.DeleteProfile)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/net-worth", accountHandler.GetNetWorth)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("/transfer", transactionHandler.CreateTransfer)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	tags := protected.Group("/tags")
	tags.POST("", tagHandler.CreateTag)
	tags.GET("", tagHandler.GetTags)
	tags.PUT("/:id", tagHandler.UpdateTag)
	tags.DELETE("/:id", tagHandler.DeleteTag)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/contribute", goalHandler.Contribute)
	goals.GET("/:id/projection", goalHandler.GetProjection)

	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetSummary)
	reports.GET("/trend", reportHandler.GetTrend)
	reports.GET("/categories", reportHandler.GetCategoryBreakdown)
	reports.GET("/weekday", reportHandler.GetWeekdayExpenses)
	reports.GET("/budgets", reportHandler.GetBudgetReports)
	reports.GET("/goals", reportHandler.GetGoalProjections)
	reports.GET("/assets", reportHandler.GetAssetTrend)
	protected.GET("/dashboard", reportHandler.GetDashboard)
	protected.GET("/snapshots", snapshotHandler.GetSnapshots)

	data := protected.Group("/data")
	data.POST("/import", dataHandler.Import)
	data.GET("/export", dataHandler.Export)

	settings := protected.Group("/settings")
	settings.GET("/preferences", settingsHandler.GetPreferences)
	settings.PUT("/preferences", settingsHandler.UpdatePreferences)

	points := protected.Group("/points")
	points.GET("", pointsHandler.GetSummary)
	points.GET("/history", pointsHandler.GetHistory)
	points.GET("/rewards", pointsHandler.ListRewards)
	points.POST("/redeem", pointsHandler.Redeem)
	points.GET("/challenges", pointsHandler.GetChallenges)
	points.POST("/challenges/:id/claim", pointsHandler.ClaimChallenge)

	return router
}
