// Package main is the entrypoint for the Afflytics API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afflytics/afflytics/internal/analytics"
	"github.com/afflytics/afflytics/internal/cache"
	"github.com/afflytics/afflytics/internal/config"
	"github.com/afflytics/afflytics/internal/content"
	"github.com/afflytics/afflytics/internal/handler"
	"github.com/afflytics/afflytics/internal/metrics"
	"github.com/afflytics/afflytics/internal/middleware"
	"github.com/afflytics/afflytics/internal/repository"
	"github.com/afflytics/afflytics/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	var recorder metrics.Recorder = metrics.NewNoop()
	if cfg.MetricsEnabled {
		recorder = metrics.NewPrometheus("afflytics")
	}

	// Analytics pipeline
	eventRepo := repository.NewClickEventRepository(repo)
	aggregator := analytics.NewAggregator(analytics.Estimates{
		ConversionRate:  cfg.ConversionRate,
		RevenuePerClick: cfg.RevenuePerClick,
	})
	dashboard := analytics.NewDashboard(eventRepo, cacheClient, aggregator, recorder, logger)

	// Content dual-write store
	postRepo := repository.NewPostRepository(repo)
	postCache := cache.NewPostStore(cacheClient)
	contentService := content.NewService(postRepo, postCache, recorder, logger)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	analyticsHandler := handler.NewAnalyticsHandler(dashboard, logger)
	postHandler := handler.NewPostHandler(contentService, logger)
	trackHandler := handler.NewTrackHandler(eventRepo, recorder, logger)

	r := setupRouter(h, healthHandler, analyticsHandler, postHandler, trackHandler, cfg, logger)

	srv := server.New(r, cfg.AppPort, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})

	logger.Info("starting server", "port", cfg.AppPort, "env", cfg.AppEnv)
	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	analyticsHandler *handler.AnalyticsHandler,
	postHandler *handler.PostHandler,
	trackHandler *handler.TrackHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(cfg.GetCORSAllowedOrigins()))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Root info endpoint
	r.Get("/", h.Hello)

	// Click tracking (public; called from affiliate link pages)
	r.Post("/t/click", trackHandler.Track)

	adminOnly := middleware.AdminAuth(cfg.AdminKeyHash, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/", analyticsHandler.GetMetrics)
			r.With(adminOnly).Post("/clear", analyticsHandler.ClearEvents)
			r.With(adminOnly).Get("/export", analyticsHandler.ExportReport)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.Get("/{id}", postHandler.Get)
			r.With(adminOnly).Post("/", postHandler.Create)
			r.With(adminOnly).Patch("/{id}", postHandler.Update)
			r.With(adminOnly).Delete("/{id}", postHandler.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return msg
}
