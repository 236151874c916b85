package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopsphere/storefront-core/internal/api/handlers"
	"github.com/shopsphere/storefront-core/internal/api/middleware"
	"github.com/shopsphere/storefront-core/internal/cache"
	"github.com/shopsphere/storefront-core/internal/config"
	"github.com/shopsphere/storefront-core/internal/health"
	"github.com/shopsphere/storefront-core/internal/metrics"
	"github.com/shopsphere/storefront-core/internal/models"
	repository "github.com/shopsphere/storefront-core/internal/repositories"
	service "github.com/shopsphere/storefront-core/internal/services"
	"github.com/shopsphere/storefront-core/internal/telemetry"
	"github.com/shopsphere/storefront-core/pkg/email"
	"github.com/shopsphere/storefront-core/pkg/gateway"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing
	shutdownTracing, err := telemetry.Setup(context.Background(), &cfg.Telemetry)
	if err != nil {
		slog.Error("Failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup (runs migrations)
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateLimitRepo := repository.NewRateLimitRepo(redisClient, cfg)
	redisCache := cache.NewRedisCache(redisClient, &cfg.Cache)

	// Outbound clients
	stripeGateway := gateway.NewStripeGateway(repos.Product, &cfg.Stripe)
	emailSender := email.NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	// Services and handlers
	userService := service.NewUserService(repos.User, rateLimitRepo, emailSender, &cfg.Security)
	userHandler := handlers.NewUserHandler(userService)
	productService := service.NewProductService(repos.Product, redisCache, &cfg.Cache)
	productHandler := handlers.NewProductHandler(productService)
	cartService := service.NewCartService(repos.Cart, repos.Product)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutService := service.NewCheckoutService(cartService, stripeGateway)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)

	sessionService := service.NewSessionService(repos.User, redisCache, &cfg.Cache)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))
	roleGate := middleware.NewRoleGate(sessionService, cfg.Security.LoginRoute)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("Failed to create health handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Route helpers: every storefront route is authenticated, then gated on
	// the stored role. A session alone never opens a gated subtree.
	buyer := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.Authenticate(roleGate.RequireRole(models.RoleBuyer, h))
	}
	seller := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.Authenticate(roleGate.RequireRole(models.RoleSeller, h))
	}

	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))

	routerMux.HandleFunc("GET /api/v1/products", buyer(productHandler.ListProducts()))
	routerMux.HandleFunc("GET /api/v1/products/{id}", buyer(productHandler.GetProduct()))
	routerMux.HandleFunc("POST /api/v1/products", seller(productHandler.CreateProduct()))
	routerMux.HandleFunc("PUT /api/v1/products/{id}", seller(productHandler.UpdateProduct()))

	routerMux.HandleFunc("GET /api/v1/cart", buyer(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/cart/items", buyer(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/cart/items/{id}", buyer(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{id}", buyer(cartHandler.RemoveItem()))

	routerMux.HandleFunc("POST /api/v1/checkout", buyer(checkoutHandler.InitiateCheckout()))

	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "storefront-core")

	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("Server is starting", slog.String("address", cfg.Addr), slog.String("env", cfg.Env))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received. Preparing to stop the server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("Server shut down gracefully")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("Trace exporter shutdown failed", slog.String("error", err.Error()))
	}
}
