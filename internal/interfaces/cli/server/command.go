package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	analysisUC "github.com/fredylg/ReefBuddy-sub001/internal/application/analysis/usecases"
	creditUC "github.com/fredylg/ReefBuddy-sub001/internal/application/credit/usecases"
	analysisInfra "github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/analysis"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/appstore"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/attestation"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/config"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/crypto"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/database"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/migration"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/ratelimit"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/repository"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/scheduler"
	httpRouter "github.com/fredylg/ReefBuddy-sub001/internal/interfaces/http"
	"github.com/fredylg/ReefBuddy-sub001/internal/interfaces/http/handlers"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the ReefBuddy credit and analysis server with the specified configuration.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run schema auto-migration on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	ginMode := mapEnvToGinMode(env)

	cfg, err := config.Load(ginMode)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()

	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if cfg.Server.IsProduction() {
			log.Warnw("auto-migration is enabled in production, this is not recommended")
		}
		if err := database.Get().AutoMigrate(migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
		log.Warnw("redis unreachable at startup, usage ceilings will fail open", "error", err)
	} else {
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
	}

	accounts := repository.NewDeviceAccountRepository(database.Get(), cfg.Credits.FreeLimit, log)
	gate := attestation.NewVendorGate(cfg.Attestation, cfg.Server.IsProduction(), log)
	analyzer := analysisInfra.NewReefAdvisorClient(cfg.Analysis, log)
	counter := ratelimit.NewRedisUsageCounter(redisClient)

	verifier, err := appstore.NewTransactionVerifier(cfg.AppStore, cfg.Server.IsProduction(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize transaction verifier: %w", err)
	}

	cipher, err := crypto.NewReceiptCipher(cfg.AppStore.ReceiptKey)
	if err != nil {
		if cfg.Server.IsProduction() {
			return fmt.Errorf("failed to initialize receipt cipher: %w", err)
		}
		log.Warnw("receipt cipher not configured, purchases will be refused", "error", err)
		cipher = nil
	}

	limits := ratelimit.Config{
		RequestsPerMinute: cfg.AbuseLimit.RequestsPerMinute,
		RequestsPerHour:   cfg.AbuseLimit.RequestsPerHour,
		RequestsPerDay:    cfg.AbuseLimit.RequestsPerDay,
	}
	holdFor := time.Duration(cfg.Credits.ReservationHoldMinutes) * time.Minute

	requestAnalysisUC := analysisUC.NewRequestAnalysisUseCase(accounts, gate, analyzer, counter, limits, holdFor, log)
	getBalanceUC := creditUC.NewGetBalanceUseCase(accounts, cfg.Credits.FreeLimit, log)
	applyPurchaseUC := creditUC.NewApplyPurchaseUseCase(accounts, verifier, cipher, cfg.AppStore.Products, log)

	analysisHandler := handlers.NewAnalysisHandler(requestAnalysisUC)
	creditHandler := handlers.NewCreditHandler(getBalanceUC, applyPurchaseUC)

	router := httpRouter.NewRouter(analysisHandler, creditHandler, log)
	router.SetupRoutes()

	schedulerManager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	reconciler := scheduler.NewReservationReconciler(accounts)
	if err := schedulerManager.RegisterReconciliationJob(reconciler); err != nil {
		return fmt.Errorf("failed to register reconciliation job: %w", err)
	}
	schedulerManager.Start()
	defer schedulerManager.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
