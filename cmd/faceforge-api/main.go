// Package main is the entry point for the faceforge-api server.
// Note: User management and checkout flows live with the identity and payment
// providers; this service only consumes their webhooks.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/faceforge/faceforge-api/internal/auth"
	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/database"
	"github.com/faceforge/faceforge-api/internal/http/handlers"
	"github.com/faceforge/faceforge-api/internal/http/mw"
	"github.com/faceforge/faceforge-api/internal/logging"
	"github.com/faceforge/faceforge-api/internal/provider"
	"github.com/faceforge/faceforge-api/internal/ratelimit"
	"github.com/faceforge/faceforge-api/internal/repository"
	"github.com/faceforge/faceforge-api/internal/service"
	"github.com/faceforge/faceforge-api/internal/version"
)

func main() {
	// Initialize logger with TTY detection and format control
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting faceforge-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Object storage (optional; swaps still return inline results without it)
	storage, err := service.NewStorageService(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Face-swap backend selection
	swapProvider, err := provider.FromConfig(context.Background(), cfg, storage)
	if err != nil {
		logger.Error("failed to initialize face-swap provider", "provider", cfg.Provider, "error", err)
		os.Exit(1)
	}
	logger.Info("face-swap provider ready", "provider", swapProvider.Name())

	// Initialize services
	services := service.New(repos, swapProvider, storage, cfg, logger)

	// Token verification for the identity provider's JWTs
	verifier := auth.NewVerifier(cfg.JWTSecret)

	// Endpoint rate limiting with periodic window eviction
	limiter := ratelimit.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(cfg.RateLimitSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	}()

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Guest-Session", "X-Admin-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit - swap payloads carry inline images
	router.Use(middleware.RequestSize(25 * 1024 * 1024))

	// Global rate limit by IP (fallback for unauthenticated requests)
	router.Use(httprate.LimitByIP(ratelimit.API.MaxRequests, ratelimit.API.Window))

	// Huma API config with OpenAPI docs
	humaConfig := huma.DefaultConfig("FaceForge API", "1.0.0")
	humaConfig.Info.Description = "AI face-swap backend: template catalog, personalized recommendations, credit ledger, and provider orchestration."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:        "http",
			Scheme:      "bearer",
			Description: "JWT issued by the identity provider.",
		},
	}
	api := humachi.New(router, humaConfig)

	// Config for route groups (docs are served by the main API only)
	groupConfig := huma.DefaultConfig("FaceForge API", "1.0.0")
	groupConfig.Info.Description = humaConfig.Info.Description
	groupConfig.Servers = humaConfig.Servers
	groupConfig.DocsPath = ""
	groupConfig.OpenAPIPath = ""
	groupConfig.SchemasPath = ""

	// Handlers
	swapHandler := handlers.NewFaceSwapHandler(services.Swap, logger)
	templateHandler := handlers.NewTemplateHandler(services.Template)
	screenerHandler := handlers.NewScreenerHandler(services.Screener)
	balanceHandler := handlers.NewBalanceHandler(services.Balance)
	profileHandler := handlers.NewProfileHandler(services.Profile)
	brandHandler := handlers.NewBrandHandler(services.Brand)

	// Health check (public, shown in docs)
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)

	// Kubernetes probes (hidden from docs - internal use only)
	hiddenConfig := huma.DefaultConfig("FaceForge API", "1.0.0")
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	hiddenAPI := humachi.New(router, hiddenConfig)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	huma.Get(hiddenAPI, "/readyz", handlers.NewReadyzHandler(db).Readyz)

	// Billing webhooks (signature verified by handler, not user auth)
	if cfg.StripeWebhookSecret != "" {
		stripeWebhook := handlers.NewStripeWebhookHandler(cfg, services.Balance, logger)
		router.Post("/api/v1/webhooks/stripe", stripeWebhook.HandleWebhook)
		logger.Info("stripe webhook endpoint enabled")
	}
	if cfg.IdentityWebhookSecret != "" {
		cleanupSvc := service.NewUserCleanupService(db, logger)
		identityWebhook := handlers.NewIdentityWebhookHandler(cfg, services.Balance, cleanupSvc, logger)
		router.Post("/api/v1/webhooks/identity", identityWebhook.HandleWebhook)
		logger.Info("identity webhook endpoint enabled")
	}

	// Public catalog routes; auth is optional so recommendations can
	// personalize when a token is present.
	router.Group(func(r chi.Router) {
		r.Use(mw.OptionalAuth(verifier))

		publicAPI := humachi.New(r, groupConfig)
		huma.Get(publicAPI, "/api/v1/templates", templateHandler.ListTemplates)
		huma.Get(publicAPI, "/api/v1/templates/recommended", templateHandler.Recommended)
		huma.Get(publicAPI, "/api/v1/templates/trending", templateHandler.Trending)
		huma.Get(publicAPI, "/api/v1/templates/search", templateHandler.SearchTemplates)
		huma.Get(publicAPI, "/api/v1/templates/occasion/{occasion}", templateHandler.ByOccasion)
		huma.Get(publicAPI, "/api/v1/templates/{id}", templateHandler.GetTemplate)
		huma.Get(publicAPI, "/api/v1/screener/questions", screenerHandler.ListQuestions)
		huma.Get(publicAPI, "/api/v1/brands/{domain}", brandHandler.GetBrand)
	})

	// Face-swap route: guests run under the one-shot trial limit, signed-in
	// users under the hourly swap limit.
	router.Group(func(r chi.Router) {
		r.Use(mw.OptionalAuth(verifier))
		r.Use(mw.SwapRateLimit(limiter))

		swapAPI := humachi.New(r, groupConfig)
		huma.Post(swapAPI, "/api/v1/face-swap", swapHandler.ProcessFaceSwap)
	})

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(verifier))

		userAPI := humachi.New(r, groupConfig)
		huma.Get(userAPI, "/api/v1/face-swap/history", swapHandler.ListSwaps)
		huma.Get(userAPI, "/api/v1/face-swap/{id}", swapHandler.GetSwap)
		huma.Get(userAPI, "/api/v1/balance", balanceHandler.GetBalance)
		huma.Get(userAPI, "/api/v1/balance/transactions", balanceHandler.ListTransactions)
		huma.Get(userAPI, "/api/v1/profile", profileHandler.GetProfile)
		huma.Post(userAPI, "/api/v1/profile/favorites/{templateId}", profileHandler.ToggleFavorite)
		huma.Post(userAPI, "/api/v1/screener/questions/{id}/answer", screenerHandler.SubmitAnswer)
	})

	// Admin routes (admin claim or X-Admin-Key)
	router.Group(func(r chi.Router) {
		r.Use(mw.OptionalAuth(verifier))
		r.Use(mw.RequireAdmin(cfg.AdminKeyHash))

		adminAPI := humachi.New(r, groupConfig)
		huma.Get(adminAPI, "/api/v1/admin/templates", templateHandler.ListAllTemplates)
		huma.Post(adminAPI, "/api/v1/admin/templates", templateHandler.CreateTemplate)
		huma.Put(adminAPI, "/api/v1/admin/templates/{id}", templateHandler.UpdateTemplate)
		huma.Delete(adminAPI, "/api/v1/admin/templates/{id}", templateHandler.DeleteTemplate)

		huma.Get(adminAPI, "/api/v1/admin/screener/questions", screenerHandler.ListAllQuestions)
		huma.Post(adminAPI, "/api/v1/admin/screener/questions", screenerHandler.CreateQuestion)
		huma.Put(adminAPI, "/api/v1/admin/screener/questions/{id}", screenerHandler.UpdateQuestion)
		huma.Delete(adminAPI, "/api/v1/admin/screener/questions/{id}", screenerHandler.DeleteQuestion)

		huma.Get(adminAPI, "/api/v1/admin/brands", brandHandler.ListBrands)
		huma.Put(adminAPI, "/api/v1/admin/brands", brandHandler.UpsertBrand)
		huma.Delete(adminAPI, "/api/v1/admin/brands/{domain}", brandHandler.DeleteBrand)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // provider calls run inside the request
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL, "provider", swapProvider.Name())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
