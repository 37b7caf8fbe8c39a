package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gharkharcha/internal/category"
	"gharkharcha/internal/changefeed"
	"gharkharcha/internal/config"
	"gharkharcha/internal/database"
	"gharkharcha/internal/handlers"
	"gharkharcha/internal/logger"
	"gharkharcha/internal/middleware"
	"gharkharcha/internal/services"
	"gharkharcha/internal/session"
	"gharkharcha/internal/store/gormstore"
	"gharkharcha/internal/uuid"
	"gharkharcha/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gharkharcha/internal/docs" // Import swagger docs
)

const shutdownTimeout = 10 * time.Second

// @title           Gharkharcha API
// @version         1.0
// @description     Household expense tracking: expenses, family members, budgets and live summaries for one signed-in household.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Shared household API key.

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if appConfig.APIKey == "" {
			return errors.New("API_KEY is required in production")
		}
	}
	validator.Register()

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Change feed
	broker := changefeed.NewBroker(uuid.New())
	if appConfig.AMQPURL != "" {
		bridge, err := changefeed.DialAMQP(appConfig.AMQPURL, appConfig.AMQPExchange, broker, logger.Named("changefeed"))
		if err != nil {
			return fmt.Errorf("failed to connect change feed: %w", err)
		}
		defer bridge.Close()
		if err := bridge.Start(ctx); err != nil {
			return fmt.Errorf("failed to start change feed: %w", err)
		}
	} else {
		log.Info("AMQP_URL not set; changes are only shared within this process")
	}

	recordStore := gormstore.New(dbManager.DB(), broker, logger.Named("store"))
	defer recordStore.Close()

	categories := category.Default()
	if appConfig.CategoryMetaFile != "" {
		if err := categories.LoadOverrides(appConfig.CategoryMetaFile); err != nil {
			return fmt.Errorf("failed to load category metadata: %w", err)
		}
	}

	// Session and collection manager
	tokens := session.NewTokenProvider(appConfig.AuthTokenSecret)
	manager := services.NewManager(recordStore,
		services.WithLogger(logger.Named("manager")),
		services.WithSummaryTimeout(appConfig.SummaryTimeout),
	)
	manager.Attach(tokens)
	defer manager.Close()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(tokens, manager)
	expenseHandler := handlers.NewExpenseHandler(manager, manager)
	familyMemberHandler := handlers.NewFamilyMemberHandler(manager, manager)
	budgetHandler := handlers.NewBudgetHandler(manager, manager)
	reportHandler := handlers.NewReportHandler(manager, manager, categories)
	categoryHandler := handlers.NewCategoryHandler(categories)
	eventsHandler := handlers.NewEventsHandler(manager)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging("/api/health"))
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.APIKeyHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "signed_in": manager.Identity() != nil})
	})

	v1 := router.Group("/api/v1")
	if appConfig.APIKey != "" {
		v1.Use(middleware.APIKeyAuth(appConfig.APIKey))
	} else {
		log.Warn("API_KEY not set; /api/v1 is unauthenticated")
	}

	v1.POST("/session", sessionHandler.SignIn)
	v1.GET("/session", sessionHandler.GetSession)
	v1.DELETE("/session", sessionHandler.SignOut)

	expenses := v1.Group("/expenses")
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.PATCH("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	members := v1.Group("/family-members")
	members.GET("", familyMemberHandler.GetFamilyMembers)
	members.POST("", familyMemberHandler.CreateFamilyMember)
	members.PATCH("/:id", familyMemberHandler.UpdateFamilyMember)
	members.DELETE("/:id", familyMemberHandler.DeleteFamilyMember)

	budgets := v1.Group("/budgets")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	reports := v1.Group("/reports")
	reports.GET("/summary", reportHandler.GetSummary)
	reports.GET("/dashboard", reportHandler.GetDashboard)
	reports.GET("/trend", reportHandler.GetTrend)
	reports.GET("/export", reportHandler.ExportExpenses)

	v1.GET("/categories", categoryHandler.GetCategories)
	v1.GET("/events", eventsHandler.Stream)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end when the process is signalled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Gharkharcha server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
