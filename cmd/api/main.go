package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/openclaw/hr-agency-api/internal/api/router"
	"github.com/openclaw/hr-agency-api/internal/articles"
	"github.com/openclaw/hr-agency-api/internal/captcha"
	appconfig "github.com/openclaw/hr-agency-api/internal/config"
	"github.com/openclaw/hr-agency-api/internal/lead"
	"github.com/openclaw/hr-agency-api/internal/notify"
	"github.com/openclaw/hr-agency-api/internal/observability/metrics"
	"github.com/openclaw/hr-agency-api/pkg/logging"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting hr-agency API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	leadMetrics := metrics.NewLeadMetrics(registry)

	// Shared outbound HTTP client with a bounded timeout so a hung upstream
	// cannot stall a request indefinitely.
	outbound := &http.Client{Timeout: cfg.OutboundTimeout}

	// Rate limiter: Redis-backed when an address is configured (shared
	// window across replicas), in-memory otherwise.
	var limiter lead.RateLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		limiter = lead.NewRedisLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow)
		logger.Info("using redis rate limiter", "addr", cfg.RedisAddr)
	} else {
		limiter = lead.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		logger.Info("using in-memory rate limiter; limiting is per-instance")
	}

	// Lead delivery destinations. Constructors return nil when their part of
	// the configuration is absent, which toggles the pipeline's branches.
	telegram := notify.NewTelegramNotifier(cfg.TelegramAPIBase, cfg.TelegramBotToken, cfg.TelegramChatID, outbound, logger)
	webhook := notify.NewWebhookNotifier(cfg.LeadWebhookURL, outbound, logger)
	verifier := captcha.NewTurnstileVerifier(cfg.TurnstileSecret, cfg.TurnstileVerifyURL, outbound, logger)

	if webhook == nil && telegram == nil {
		logger.Warn("no lead destination configured; leads will only be logged")
	}

	handlerCfg := lead.HandlerConfig{
		Limiter: limiter,
		Logger:  logger,
		Metrics: leadMetrics,
	}
	if webhook != nil {
		handlerCfg.Webhook = webhook
	}
	if telegram != nil {
		handlerCfg.Telegram = telegram
		handlerCfg.Alerter = telegram
	}
	if verifier != nil {
		handlerCfg.Verifier = verifier
	}
	leadHandler := lead.NewHandler(handlerCfg)

	// Articles storage: GitHub contents API when configured, local file
	// otherwise.
	var store articles.Store
	if gh := articles.NewGitHubStore(cfg.GitHubRepo, cfg.ArticlesFilePath, cfg.GitHubToken, cfg.GitHubBranch, outbound, logger); gh != nil {
		store = gh
		logger.Info("articles stored via github", "repo", cfg.GitHubRepo, "branch", cfg.GitHubBranch)
	} else {
		store = articles.NewFileStore(cfg.ArticlesFilePath, logger)
		logger.Info("articles stored in local file", "path", cfg.ArticlesFilePath)
	}
	articlesHandler := articles.NewHandler(store, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		LeadHandler:        leadHandler,
		ArticlesHandler:    articlesHandler,
		AdminJWTSecret:     cfg.AdminJWTSecret,
		AdminPanelToken:    cfg.AdminPanelToken,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
