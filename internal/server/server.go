package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/adapter/ai"
	"github.com/arturoeanton/chatcpt-gateway/internal/adapter/cache"
	"github.com/arturoeanton/chatcpt-gateway/internal/adapter/local"
	"github.com/arturoeanton/chatcpt-gateway/internal/adapter/store"
	"github.com/arturoeanton/chatcpt-gateway/internal/adapter/supabase"
	"github.com/arturoeanton/chatcpt-gateway/internal/auth"
	"github.com/arturoeanton/chatcpt-gateway/internal/handler"
	"github.com/arturoeanton/chatcpt-gateway/internal/middleware"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/arturoeanton/chatcpt-gateway/internal/service"
	"github.com/arturoeanton/chatcpt-gateway/pkg/config"
	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// Deps are the collaborators the HTTP app is built from.
type Deps struct {
	Identity  port.IdentityProvider
	Generator port.TextGenerator
	History   port.HistoryStore
	Audit     middleware.AuditWriter   // optional
	Limiter   *middleware.LimiterStore // optional, applied to /auth routes
	AccessLog bool
}

// New assembles the Fiber app. Every route is served at the root and under /api.
func New(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GeminiTimeout*time.Duration(cfg.GeminiMaxRetries+1) + 10*time.Second,
		ErrorHandler: handler.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(middleware.CORS())
	if deps.Audit != nil {
		app.Use(middleware.AuditMiddleware(deps.Audit))
	}

	authService := service.NewAuthService(deps.Identity)
	chatService := service.NewChatService(deps.Generator, deps.History, cfg.ChatPromptPrefix, cfg.ChatFallbackAnswer)

	var limiter fiber.Handler
	if deps.Limiter != nil {
		limiter = middleware.RateLimit(deps.Limiter)
	}
	guard := middleware.RequireUser(deps.Identity)

	healthHandler := handler.NewHealthHandler(cfg.AppName, deps.Identity.Mode())
	authHandler := handler.NewAuthHandler(authService, limiter)
	chatHandler := handler.NewChatHandler(chatService)

	for _, router := range []fiber.Router{app, app.Group("/api")} {
		healthHandler.Register(router)
		authHandler.Register(router)
		authHandler.RegisterProfile(router, guard)
		chatHandler.Register(router, guard)
	}

	app.Use(handler.NotFound)
	return app
}

// Build wires the real collaborators for the configured mode.
// The returned cleanup releases them and must be called on shutdown.
func Build(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	deps := Deps{
		Generator: ai.NewGeminiProvider(ai.GeminiConfig{
			Endpoint:   cfg.GeminiURL,
			APIKey:     cfg.GeminiAPIKey,
			Timeout:    cfg.GeminiTimeout,
			MaxRetries: cfg.GeminiMaxRetries,
			Generation: ai.GenerationConfig{
				Temperature:     cfg.GeminiTemperature,
				TopK:            cfg.GeminiTopK,
				TopP:            cfg.GeminiTopP,
				MaxOutputTokens: cfg.GeminiMaxOutputTokens,
			},
		}),
		AccessLog: true,
	}

	var closers []func()

	switch cfg.AuthMode {
	case config.ModeLocal:
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		closers = append(closers, func() { _ = pgStore.Close() })

		if err := pgStore.Migrate(ctx); err != nil {
			_ = pgStore.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}

		codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL())
		deps.Identity = local.NewProvider(pgStore, codec)
		deps.History = pgStore
		deps.Audit = pgStore

	case config.ModeHosted:
		client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		deps.Identity = cache.NewCachedIdentity(supabase.NewAuthProvider(client), cfg.TokenCacheTTL)
		deps.History = supabase.NewHistoryTable(client, cfg.SupabaseHistoryTable)

	default:
		return nil, nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}

	if cfg.AuthRateLimitPerMinute > 0 {
		deps.Limiter = middleware.NewLimiterStore(cfg.AuthRateLimitPerMinute, cfg.AuthRateLimitBurst, time.Minute)
		closers = append(closers, deps.Limiter.Stop)
	}

	slog.Info("app wired",
		"mode", deps.Identity.Mode(),
		"model", deps.Generator.ModelName(),
		"auth_rate_limit", cfg.AuthRateLimitPerMinute,
	)

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return New(cfg, deps), cleanup, nil
}
