package router

import (
	"time"

	"beewear/internal/config"
	"beewear/internal/handler"
	"beewear/internal/middleware"
	"beewear/internal/repository"
	"beewear/internal/service"
	"beewear/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// The order service is also returned so main can hand it to the payment
// reconcile cron.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, gateway service.PaymentGateway, dispatcher *worker.Dispatcher) (*gin.Engine, service.OrderService) {
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

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	stockRepo := repository.NewStockRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	catalogSvc := service.NewCatalogService(catalogRepo, rdb)
	stockSvc := service.NewStockService(stockRepo)
	orderSvc := service.NewOrderService(orderRepo, catalogRepo, stockSvc, gateway, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	stockH := handler.NewStockHandler(stockSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	storefrontH := handler.NewStorefrontHandler(catalogSvc, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Storefront — no auth required, cached reads only
	shop := r.Group("/v1/shop")
	{
		shop.GET("/collections", storefrontH.ListCollections)
		shop.GET("/products/:id", storefrontH.GetProduct)
	}

	// Checkout — public: placing and confirming an order needs no account
	r.POST("/v1/orders", ordersH.Create)
	r.POST("/v1/orders/confirm", ordersH.Confirm)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: staff, manager, admin — declared per-endpoint

		// Orders — back office
		v1.GET("/orders", middleware.RequireRole("staff", "manager", "admin"), ordersH.List)
		v1.GET("/orders/:id", middleware.RequireRole("staff", "manager", "admin"), ordersH.Get)
		v1.POST("/orders/:id/ship", middleware.RequireRole("staff", "manager", "admin"), ordersH.Ship)
		v1.POST("/orders/:id/deliver", middleware.RequireRole("staff", "manager", "admin"), ordersH.Deliver)
		v1.POST("/orders/:id/cancel", middleware.RequireRole("manager", "admin"), ordersH.Cancel)

		// Stock — adjustments need manager, reads are open to staff
		v1.GET("/stock/alerts", middleware.RequireRole("staff", "manager", "admin"), stockH.LowStockAlerts)
		v1.GET("/stock/:id/movements", middleware.RequireRole("staff", "manager", "admin"), stockH.ListMovements)
		v1.POST("/stock/:id/adjust", middleware.RequireRole("manager", "admin"), stockH.Adjust)

		// Collections — admin writes, all authenticated can read
		v1.GET("/collections", middleware.RequireRole("staff", "manager", "admin"), catalogH.ListCollections)
		v1.GET("/collections/:id/aggregation", middleware.RequireRole("staff", "manager", "admin"), catalogH.AggregateCollection)
		collections := v1.Group("/collections", middleware.RequireRole("admin"))
		{
			collections.POST("", catalogH.CreateCollection)
			collections.PUT("/:id", catalogH.UpdateCollection)
			collections.DELETE("/:id", catalogH.DeactivateCollection)
		}

		// Products
		v1.GET("/products", middleware.RequireRole("staff", "manager", "admin"), catalogH.ListProducts)
		v1.GET("/products/:id", middleware.RequireRole("staff", "manager", "admin"), catalogH.GetProduct)
		v1.PATCH("/variations/:variation_id/price", middleware.RequireRole("manager", "admin"), catalogH.UpdateVariationPrice)
		products := v1.Group("/products", middleware.RequireRole("admin"))
		{
			products.POST("", catalogH.CreateProduct)
			products.PUT("/:id", catalogH.UpdateProduct)
			products.DELETE("/:id", catalogH.DeactivateProduct)
			products.PATCH("/:id/reactivate", catalogH.ReactivateProduct)
		}

		// Users — admin only
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.PATCH("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, orderSvc
}
