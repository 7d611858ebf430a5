package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/settleflow/payment-orchestrator/internal/commerce"
	commercemetrics "github.com/settleflow/payment-orchestrator/internal/commerce/metrics"
	"github.com/settleflow/payment-orchestrator/internal/config"
	"github.com/settleflow/payment-orchestrator/internal/database"
	paymenthttp "github.com/settleflow/payment-orchestrator/internal/payments/adapters/http"
	paymentsapp "github.com/settleflow/payment-orchestrator/internal/payments/app"
	"github.com/settleflow/payment-orchestrator/internal/psp/solidgate"
	"github.com/settleflow/payment-orchestrator/internal/telemetry"
	tokenredis "github.com/settleflow/payment-orchestrator/internal/tokencache/redis"
	webhookadapters "github.com/settleflow/payment-orchestrator/internal/webhooks/adapters"
	webhookhttp "github.com/settleflow/payment-orchestrator/internal/webhooks/adapters/http"
	webhookpostgres "github.com/settleflow/payment-orchestrator/internal/webhooks/adapters/postgres"
	webhookapp "github.com/settleflow/payment-orchestrator/internal/webhooks/app"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/events"
	webhookmetrics "github.com/settleflow/payment-orchestrator/internal/webhooks/metrics"
)

const meterName = "github.com/settleflow/payment-orchestrator"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing && cfg.Telemetry.OTelEndpoint != "",
		EnableMetrics:  cfg.Telemetry.EnableMetrics && cfg.Telemetry.OTelEndpoint != "",
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed successfully")
	}

	tokenCache := tokenredis.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	defer tokenCache.Close()
	if err := tokenCache.Ping(ctx); err != nil {
		// Token caching degrades to a miss on every lookup, so this is not fatal.
		logger.Warn("redis unavailable, admin tokens will not be cached", "error", err)
	}

	meter := otel.Meter(meterName)

	commerceMetrics, err := commercemetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create commerce metrics", "error", err)
		os.Exit(1)
	}

	commerceClient := commerce.NewClient(commerce.Config{
		BaseURL:        cfg.Commerce.BaseURL,
		AdminEmail:     cfg.Commerce.AdminEmail,
		AdminPassword:  cfg.Commerce.AdminPassword,
		PublishableKey: cfg.Commerce.PublishableKey,
		TokenTTL:       cfg.Commerce.TokenTTL,
		RequestTimeout: cfg.Commerce.RequestTimeout,
	}, tokenCache, logger, commerce.WithMetrics(commerceMetrics))

	settler := commerce.NewObservableOrchestrator(
		commerce.NewOrchestrator(commerceClient, logger),
		logger,
		commerceMetrics,
	)

	intakeMetrics, err := webhookmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create webhook metrics", "error", err)
		os.Exit(1)
	}

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}

	ledger := webhookadapters.NewObservableLedger(webhookpostgres.NewLedger(pool), dbMetrics)
	bus := events.NewNoopPublisher()
	intake := webhookapp.NewService(ledger, settler, bus, logger, intakeMetrics)

	signer := solidgate.NewSigner(cfg.Solidgate.PublicKey, cfg.Solidgate.SecretKey)
	webhookHandler := webhookhttp.NewHandler(intake, signer, cfg.Solidgate.VerifySignatures)

	pspClient := solidgate.NewClient(cfg.Solidgate.APIURL, cfg.Solidgate.PublicKey, cfg.Solidgate.SecretKey, logger)
	paymentService := paymentsapp.NewService(pspClient, paymentsapp.Config{
		SuccessURL: cfg.Solidgate.SuccessURL,
		FailURL:    cfg.Solidgate.FailURL,
	}, logger)
	paymentHandler := paymenthttp.NewHandler(paymentService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	webhookHandler.Register(mux)
	paymentHandler.Register(mux)

	httpMetrics, err := webhookhttp.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	handler := webhookhttp.WithMetrics(withRecovery(withLogging(mux)), httpMetrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

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

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.InfoContext(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
