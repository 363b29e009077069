package router

import (
	"time"

	"github.com/kassemKu/sibai-transactions-sub000/internal/config"
	"github.com/kassemKu/sibai-transactions-sub000/internal/handler"
	"github.com/kassemKu/sibai-transactions-sub000/internal/infra"
	"github.com/kassemKu/sibai-transactions-sub000/internal/middleware"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/repository"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"
	"github.com/kassemKu/sibai-transactions-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// worker handlers the caller starts alongside the HTTP server.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, ratesCB *infra.CircuitBreaker) (*gin.Engine, worker.Handlers, service.RegistryService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	feedClient := infra.NewRatesFeedClient(cfg.RatesFeedURL)
	mailer := infra.NewMailer(cfg)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	currencyRepo := repository.NewCurrencyRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	casherRepo := repository.NewCasherSessionRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	registrySvc := service.NewRegistryService(currencyRepo, feedClient)
	ledgerSvc := service.NewLedgerService(movementRepo)
	conversionSvc := service.NewConversionService(registrySvc)
	sessionSvc := service.NewSessionService(sessionRepo, casherRepo, registrySvc, ledgerSvc, dispatcher)
	casherSvc := service.NewCasherSessionService(casherRepo, sessionRepo, ledgerSvc)
	txnSvc := service.NewTransactionService(txnRepo, sessionRepo, casherRepo, conversionSvc, ledgerSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	currencyH := handler.NewCurrencyHandler(registrySvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	casherH := handler.NewCasherSessionHandler(casherSvc)
	txnH := handler.NewTransactionHandler(txnSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, ratesCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleCasher, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/currencies", anyRole, currencyH.List)
		currencies := v1.Group("/currencies", adminOnly)
		{
			currencies.POST("", currencyH.Create)
			currencies.PUT("/:id/rates", currencyH.UpdateRates)
		}

		v1.GET("/cash-sessions/current", anyRole, sessionH.Current)
		v1.GET("/cash-sessions/:id/balances", anyRole, sessionH.GetBalances)
		sessions := v1.Group("/cash-sessions", adminOnly)
		{
			sessions.GET("", sessionH.List)
			sessions.POST("/open", sessionH.Open)
			sessions.POST("/:id/pending", sessionH.MarkPending)
			sessions.POST("/:id/close", sessionH.Close)
			sessions.POST("/:id/cashbox", sessionH.AddCashbox)
			sessions.GET("/:id/cashbox", sessionH.ListCashbox)
			sessions.GET("/:id/casher-sessions", casherH.ListBySession)
			sessions.GET("/:id/available", casherH.AvailableBalance)
		}

		v1.GET("/casher-sessions/:id", anyRole, casherH.Get)
		cashers := v1.Group("/casher-sessions", adminOnly)
		{
			cashers.POST("/open", casherH.Open)
			cashers.POST("/:id/pending", casherH.MarkPending)
			cashers.POST("/:id/close", casherH.Close)
		}

		transactions := v1.Group("/transactions", anyRole)
		{
			transactions.POST("/calculate", txnH.Calculate)
			transactions.POST("", txnH.Create)
			transactions.GET("", txnH.List)
			transactions.GET("/:id", txnH.Get)
			transactions.POST("/:id/confirm", txnH.Confirm)
			transactions.POST("/:id/complete", txnH.Complete)
			transactions.POST("/:id/cancel", txnH.Cancel)
		}

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.DELETE("/:id", authH.DeactivateUser)
			users.POST("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := worker.Handlers{
		Report: worker.NewReportWorker(sessionRepo, txnRepo, userRepo, dispatcher, cfg.PDFStoragePath, cfg.ReportEmail),
		Email:  worker.NewEmailWorker(mailer),
	}
	return r, handlers, registrySvc
}
