package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lumikid.backend/internal/config"
	"lumikid.backend/internal/infrastructure/email"
	"lumikid.backend/internal/infrastructure/jobs"
	"lumikid.backend/internal/infrastructure/payments"
	"lumikid.backend/internal/infrastructure/repositories"
	"lumikid.backend/internal/interfaces/http/handlers"
	"lumikid.backend/internal/interfaces/http/middleware"
	"lumikid.backend/internal/usecases"
	"lumikid.backend/pkg/gate"
	"lumikid.backend/pkg/logger"
	"lumikid.backend/pkg/redis"
	"lumikid.backend/pkg/token"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("Connected to PostgreSQL via GORM")
	}

	// Google OAuth provider and the cookie store backing its state round-trip
	goth.UseProviders(google.New(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.OAuth.RedirectURI,
		"email", "profile",
	))
	gothic.Store = sessions.NewCookieStore([]byte(cfg.OAuth.SessionSecret))

	// Token service
	tokenService := token.NewService(cfg.Token.Secret, cfg.Token.AccessTTL)

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)
	processedEventRepo := repositories.NewProcessedEventRepository(db)

	// External collaborators
	emailClient := email.NewClient(cfg.Email)
	paymentsClient := payments.NewClient(cfg.Payments)
	webhookVerifier := payments.NewWebhookVerifier(cfg.Payments.WebhookSecret)

	// One gate instance for the whole process; its operation names are
	// fixed here.
	opGate := gate.New(
		usecases.GateOpPaymentWebhook,
		jobs.GateOpSubscriptionSweep,
	)

	// Usecases
	verificationUsecase := usecases.NewVerificationUsecase(accountRepo, emailClient, cfg.Token.CodeTTL)
	subscriptionUsecase := usecases.NewSubscriptionUsecase(accountRepo, subscriptionRepo, historyRepo, processedEventRepo, emailClient, paymentsClient)
	authUsecase := usecases.NewAuthUsecase(accountRepo, subscriptionUsecase, tokenService, verificationUsecase)
	parentalUsecase := usecases.NewParentalUsecase(accountRepo, verificationUsecase)
	webhookUsecase := usecases.NewWebhookUsecase(webhookVerifier, subscriptionUsecase, opGate)

	// Handlers
	authHandler := handlers.NewAuthHandler(authUsecase, verificationUsecase)
	oauthHandler := handlers.NewOAuthHandler(authUsecase)
	parentalHandler := handlers.NewParentalHandler(parentalUsecase, verificationUsecase)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionUsecase)
	webhookHandler := handlers.NewWebhookHandler(webhookUsecase)

	authMiddleware := middleware.AuthMiddleware(authUsecase)

	// Background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep := jobs.NewSubscriptionSweep(subscriptionUsecase, opGate)
	if err := sweep.Start(ctx); err != nil {
		return fmt.Errorf("failed to start subscription sweep: %w", err)
	}

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r, sqlDB)
	registerAPIV1Routes(r, routeDeps{
		authHandler:         authHandler,
		oauthHandler:        oauthHandler,
		parentalHandler:     parentalHandler,
		subscriptionHandler: subscriptionHandler,
		webhookHandler:      webhookHandler,
		authMiddleware:      authMiddleware,
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		sweep.Stop()
		cancel()
	}()

	log.Printf("LumiKid backend starting on port %s", cfg.Server.Port)
	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
