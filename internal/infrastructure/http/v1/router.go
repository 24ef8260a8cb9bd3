// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"rimshield/internal/domain/accounting"
	"rimshield/internal/domain/auth"
	"rimshield/internal/domain/credits"
	"rimshield/internal/domain/returns"
	"rimshield/internal/infrastructure/eboekhouden"
	"rimshield/internal/infrastructure/http/v1/handlers"
	"rimshield/internal/infrastructure/http/v1/middleware"
	"rimshield/internal/infrastructure/storage/postgres"
	"rimshield/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for the login endpoint
	AuthService *auth.Service

	ReturnsService    *returns.Service
	CreditsService    *credits.Service
	AccountingService *accounting.SyncService

	// EBoekhouden client for diagnostics endpoints
	EBoekhouden *eboekhouden.Client
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api")
	{
		// Login is the only public API route
		authHandler := handlers.NewAuthHandler(cfg.AuthService)
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		returnsHandler := handlers.NewReturnsHandler(cfg.ReturnsService)
		ret := protected.Group("/returns")
		{
			ret.GET("", returnsHandler.List)
			ret.POST("", returnsHandler.Create)
			ret.GET("/:id", returnsHandler.Get)
			ret.POST("/approve", returnsHandler.Approve)
			ret.POST("/receive", returnsHandler.Receive)
			ret.POST("/inspect", returnsHandler.Inspect)
			ret.POST("/credit", returnsHandler.Credit)
		}

		creditsHandler := handlers.NewCreditsHandler(cfg.CreditsService)
		cr := protected.Group("/credits")
		{
			cr.GET("", creditsHandler.List)
			cr.GET("/:id", creditsHandler.Get)
		}

		accountingHandler := handlers.NewAccountingHandler(cfg.AccountingService, cfg.EBoekhouden)
		acc := protected.Group("/accounting")
		{
			acc.POST("/sync-credit", accountingHandler.SyncCredit)
			acc.POST("/sync-order", accountingHandler.SyncOrder)
			acc.GET("/eboekhouden/ledgers", accountingHandler.Ledgers)
			acc.GET("/eboekhouden/relations", accountingHandler.Relations)
			acc.GET("/eboekhouden/articles", accountingHandler.Articles)
		}
	}

	return router
}
