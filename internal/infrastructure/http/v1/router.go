package v1

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/core/numerator"
	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
	"lotledger/internal/domain/catalogs/supplier"
	"lotledger/internal/domain/documents/exitslip"
	"lotledger/internal/domain/documents/order"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/lots"
	"lotledger/internal/domain/replenishment"
	"lotledger/internal/infrastructure/http/v1/handlers"
	"lotledger/internal/infrastructure/http/v1/middleware"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/internal/infrastructure/storage/postgres/catalog_repo"
	"lotledger/internal/infrastructure/storage/postgres/document_repo"
	"lotledger/internal/infrastructure/storage/postgres/ledger_repo"
	"lotledger/internal/infrastructure/storage/postgres/lot_repo"
	"lotledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (used for health checks)
	Pool *postgres.Pool

	// TxManager runs transactional work against the pool
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation. When nil, requests run as the
	// system actor (development mode).
	JWTValidator middleware.JWTValidator

	// Numerator for document and lot number generation
	Numerator numerator.Generator

	// EventPublisher writes domain events to the outbox. Optional.
	EventPublisher domain.EventPublisher

	// ReplenishmentRule is the CEL trigger expression. Empty means the
	// default rule.
	ReplenishmentRule string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
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
		health.GET("/info", healthHandler.Info)
	}

	// API v1. Catalog and document routes require a token; the stock
	// reporting routes accept anonymous reads. Without a validator
	// everything is open and documents record the system actor.
	apiV1 := router.Group("/api/v1")
	secured := apiV1.Group("")
	reporting := apiV1.Group("")
	if cfg.JWTValidator != nil {
		secured.Use(middleware.Auth(cfg.JWTValidator))
		reporting.Use(middleware.OptionalAuth(cfg.JWTValidator))
	}

	// Repositories
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	supplierRepo := catalog_repo.NewSupplierRepo(cfg.TxManager)
	lotRepo := lot_repo.NewLotRepo(cfg.TxManager)
	movementRepo := ledger_repo.NewMovementRepo(cfg.TxManager)
	orderRepo := document_repo.NewOrderRepo(cfg.TxManager)
	exitSlipRepo := document_repo.NewExitSlipRepo(cfg.TxManager)

	// Services
	ledgerService := ledger.NewService(movementRepo)
	lotService := lots.NewService(lotRepo, productRepo)
	productService := product.NewService(productRepo, cfg.TxManager)
	supplierService := supplier.NewService(supplierRepo, cfg.TxManager)
	orderService := order.NewService(orderRepo, productRepo, lotRepo, ledgerService, cfg.Numerator, cfg.TxManager, cfg.EventPublisher)
	exitSlipService := exitslip.NewService(exitSlipRepo, productRepo, lotRepo, ledgerService, cfg.Numerator, cfg.TxManager, cfg.EventPublisher)

	replenishmentService, err := replenishment.NewService(productRepo, cfg.ReplenishmentRule)
	if err != nil {
		return nil, err
	}

	baseHandler := handlers.NewBaseHandler()

	// Catalogs
	{
		productHandler := handlers.NewProductHandler(baseHandler, productService)
		productsGroup := secured.Group("/products")
		productsGroup.GET("/low-stock", productHandler.LowStock)
		RegisterCatalogRoutes(productsGroup, productHandler)

		supplierHandler := handlers.NewSupplierHandler(baseHandler, supplierService)
		RegisterCatalogRoutes(secured.Group("/suppliers"), supplierHandler)
	}

	// Documents
	{
		orderHandler := handlers.NewOrderHandler(baseHandler, orderService)
		ordersGroup := secured.Group("/orders")
		ordersGroup.GET("", orderHandler.List)
		ordersGroup.POST("", orderHandler.Create)
		ordersGroup.GET("/:id", orderHandler.Get)
		ordersGroup.POST("/:id/receive", orderHandler.Receive)
		ordersGroup.POST("/:id/cancel", orderHandler.Cancel)

		exitSlipHandler := handlers.NewExitSlipHandler(baseHandler, exitSlipService)
		slipsGroup := secured.Group("/exit-slips")
		slipsGroup.GET("", exitSlipHandler.List)
		slipsGroup.POST("", exitSlipHandler.Create)
		slipsGroup.GET("/:id", exitSlipHandler.Get)
		slipsGroup.POST("/:id/validate", exitSlipHandler.Validate)
		slipsGroup.POST("/:id/cancel", exitSlipHandler.Cancel)
	}

	// Stock inspection and reporting
	{
		stockHandler := handlers.NewStockHandler(baseHandler, lotService, replenishmentService)
		stockGroup := reporting.Group("/stock")
		stockGroup.GET("/lots/:id", stockHandler.GetLot)
		stockGroup.GET("/products/:productId/lots", stockHandler.ListLots)
		stockGroup.GET("/products/:productId/valuation", stockHandler.ProductValuation)
		stockGroup.GET("/products/:productId/consistency", stockHandler.CheckConsistency)
		stockGroup.GET("/valuation", stockHandler.TotalValuation)
		stockGroup.GET("/replenishment-suggestions", stockHandler.Suggestions)

		movementHandler := handlers.NewMovementHandler(baseHandler, ledgerService)
		movementsGroup := reporting.Group("/movements")
		movementsGroup.GET("", movementHandler.Search)
		movementsGroup.GET("/:id", movementHandler.Get)
	}

	return router, nil
}
