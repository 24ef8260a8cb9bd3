// Package main is the entry point for the RimShield back-office server:
// returns, credit notes and e-Boekhouden sync for the webshop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rimshield/internal/domain/accounting"
	"rimshield/internal/domain/auth"
	"rimshield/internal/domain/credits"
	"rimshield/internal/domain/returns"
	"rimshield/internal/infrastructure/blob"
	"rimshield/internal/infrastructure/eboekhouden"
	v1 "rimshield/internal/infrastructure/http/v1"
	"rimshield/internal/infrastructure/mail"
	"rimshield/internal/infrastructure/pdf"
	"rimshield/internal/infrastructure/storage/postgres"
	"rimshield/pkg/logger"
	"rimshield/pkg/numerator"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting rimshield server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, mustEnv("DATABASE_URL"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("database ready")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	returnRepo := postgres.NewReturnRepo(txManager)
	creditRepo := postgres.NewCreditRepo(txManager)
	orderRepo := postgres.NewOrderRepo(txManager)
	productRepo := postgres.NewProductRepo(txManager)
	authRepo := postgres.NewAuthRepo(txManager)
	syncLogRepo := postgres.NewSyncLogRepo(txManager)

	num := numerator.New(txManager)

	// --- Auth ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(authRepo, jwtService)

	accountingCfg := accountingConfigFromEnv()

	// --- PDF, blob storage, mail ---
	renderer := pdf.NewRenderer(getEnv("COMPANY_NAME", "RimShield B.V."), accountingCfg.Rates)

	var blobStore credits.BlobStore
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := blob.NewGCSStore(ctx, bucket)
		if err != nil {
			log.Fatalw("failed to init gcs storage", "error", err)
		}
		defer gcs.Close()
		blobStore = gcs
		log.Infow("using gcs blob storage", "bucket", bucket)
	} else {
		dir := getEnv("BLOB_DIR", "./data/blobs")
		blobStore = blob.NewLocalStore(dir, getEnv("BLOB_BASE_URL", "http://localhost:8080/files"))
		log.Infow("using local blob storage", "dir", dir)
	}

	var mailer credits.Mailer
	if host := os.Getenv("SMTP_HOST"); host != "" {
		mailer = mail.NewMailer(mail.Config{
			Host:     host,
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@rimshield.nl"),
		})
	} else {
		log.Warn("SMTP_HOST not set, credit note emails disabled")
	}

	// --- Accounting ---
	ebClient := eboekhouden.NewClient(eboekhouden.Config{
		BaseURL:       getEnv("EBOEKHOUDEN_URL", eboekhouden.DefaultBaseURL),
		Username:      os.Getenv("EBOEKHOUDEN_USERNAME"),
		SecurityCode1: os.Getenv("EBOEKHOUDEN_SECURITY_CODE_1"),
		SecurityCode2: os.Getenv("EBOEKHOUDEN_SECURITY_CODE_2"),
		Timeout:       getEnvDuration("EBOEKHOUDEN_TIMEOUT", 30*time.Second),
	})

	syncService := accounting.NewSyncService(
		creditRepo, orderRepo, returnRepo, ebClient, syncLogRepo, accountingCfg,
	)

	// --- Domain services ---
	creditService := credits.NewService(
		creditRepo, orderRepo, productRepo, num, renderer, blobStore, mailer,
		accountingCfg.Rates, txManager,
	)
	returnService := returns.NewService(returnRepo, orderRepo, num, creditService, txManager)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              pool,
		Logger:            log,
		JWTValidator:      jwtService,
		AuthService:       authService,
		ReturnsService:    returnService,
		CreditsService:    creditService,
		AccountingService: syncService,
		EBoekhouden:       ebClient,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// accountingConfigFromEnv starts from the default chart of accounts and
// applies any per-account env overrides.
func accountingConfigFromEnv() accounting.Config {
	cfg := accounting.DefaultConfig()
	a := &cfg.Accounts

	override := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override("ACCOUNT_REVENUE_STANDARD", &a.RevenueStandard)
	override("ACCOUNT_REVENUE_REDUCED", &a.RevenueReduced)
	override("ACCOUNT_REVENUE_ZERO", &a.RevenueZero)
	override("ACCOUNT_VAT_STANDARD", &a.VATStandard)
	override("ACCOUNT_VAT_REDUCED", &a.VATReduced)
	override("ACCOUNT_DEBTORS", &a.Debtors)
	override("ACCOUNT_INVENTORY", &a.Inventory)
	override("ACCOUNT_COGS", &a.COGS)
	override("ACCOUNT_WRITE_OFF", &a.WriteOff)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
