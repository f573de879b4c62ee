package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-hub/config"
	"session-hub/internal/adapter/gateway"
	"session-hub/internal/adapter/handler"
	"session-hub/internal/cache"
	"session-hub/internal/domain"
	"session-hub/internal/infrastructure/token"
	"session-hub/internal/labels"
	"session-hub/internal/prefs"
	"session-hub/internal/session"
	"session-hub/internal/storage"
	"session-hub/middleware"
	"session-hub/utils/logger"
	"session-hub/utils/otel"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to load .env file: %v\n", err)
	}

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
		}
	}()

	// Initialize structured logger with OTel support
	log := logger.Init(otelCfg.Enabled)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"kratos_url", cfg.KratosURL,
		"port", cfg.Port,
		"cache_ttl", cfg.CacheTTL)

	// Status label tables are static; a bad table is fatal at startup.
	catalog, err := labels.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load label tables", "error", err)
		os.Exit(1)
	}

	issuer, err := token.NewJWTIssuer(token.JWTConfig{
		Secret:   cfg.ViewerTokenSecret,
		Issuer:   cfg.ViewerTokenIssuer,
		Audience: cfg.ViewerTokenAud,
		TTL:      cfg.ViewerTokenTTL,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize viewer token issuer", "error", err)
		os.Exit(1)
	}

	// Per-scope storage backs both the ephemeral cache and theme preferences.
	scopes := storage.NewScopes(cfg.SessionIdleTTL)
	prefRegistry := prefs.NewRegistry(func(scope string) domain.Storage {
		return scopes.Acquire(scope)
	}, cfg.SessionIdleTTL)

	kratosClient := gateway.NewAPIClient(cfg.KratosURL, 5*time.Second)
	slog.InfoContext(ctx, "kratos client initialized", "base_url", cfg.KratosURL)

	// One session store per viewer, each with a provider bound to the
	// viewer's cookie and a profile cache in the viewer's storage scope.
	sessionRegistry := session.NewRegistry(func(sessionCookie string) *session.Store {
		provider := gateway.NewKratosProvider(kratosClient, sessionCookie, cfg.IdentityPoll, log)
		profiles := cache.New(scopes.Acquire(sessionCookie), cfg.CacheTTL)
		return session.New(provider, profiles, log)
	}, cfg.SessionIdleTTL)

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(sessionRegistry, issuer, log)
	guardHandler := handler.NewGuardHandler(sessionRegistry)
	labelsHandler := handler.NewLabelsHandler(catalog, sessionRegistry)
	themeHandler := handler.NewThemeHandler(prefRegistry)
	healthHandler := handler.NewHealthHandler()

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
	}

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.Recover())

	sessionLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)

	// Register routes
	v1 := e.Group("/v1")
	v1.GET("/session", sessionHandler.Handle, sessionLimiter.Middleware())
	v1.POST("/session/logout", sessionHandler.Logout, sessionLimiter.Middleware())
	v1.GET("/guard", guardHandler.Decide)
	v1.GET("/labels/:domain/:status", labelsHandler.Handle)
	v1.GET("/theme", themeHandler.Get)
	v1.PUT("/theme", themeHandler.Set)

	// Admin-only surface, gated end to end through the guard.
	admin := v1.Group("/admin", handler.RequireRole(sessionRegistry, domain.RoleAdmin))
	admin.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	e.GET("/health", healthHandler.Handle)

	// Start server
	address := fmt.Sprintf(":%s", cfg.Port)

	go func() {
		slog.InfoContext(ctx, "starting session-hub server", "address", address)
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.InfoContext(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "server exited properly")
}

// runHealthcheck performs a health check against the local server
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8990"
	}

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}

	return nil
}
