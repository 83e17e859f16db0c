package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lineage/internal/config"
	dbRedis "github.com/kailas-cloud/lineage/internal/db/redis"
	"github.com/kailas-cloud/lineage/internal/domain/search/planner"
	domview "github.com/kailas-cloud/lineage/internal/domain/view"
	logpkg "github.com/kailas-cloud/lineage/internal/logger"
	"github.com/kailas-cloud/lineage/internal/metrics"
	documentrepo "github.com/kailas-cloud/lineage/internal/repository/document"
	"github.com/kailas-cloud/lineage/internal/repository/shortcode"
	viewrepo "github.com/kailas-cloud/lineage/internal/repository/view"
	chiTransport "github.com/kailas-cloud/lineage/internal/transport/chi"
	batchuc "github.com/kailas-cloud/lineage/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/lineage/internal/usecase/document"
	healthuc "github.com/kailas-cloud/lineage/internal/usecase/health"
	lineageuc "github.com/kailas-cloud/lineage/internal/usecase/lineage"
	searchuc "github.com/kailas-cloud/lineage/internal/usecase/search"
	"github.com/kailas-cloud/lineage/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, logpkg.Options{
		Level:    cfg.Logging.Level,
		Service:  "lineaged",
		Version:  version.Version,
		Sampling: cfg.Logging.Sampling,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lineage API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("key_prefix", cfg.Storage.KeyPrefix),
		zap.Strings("contact_types", cfg.Lineage.ContactTypes),
	)

	// Valkey and Redis share the rueidis store; the driver only labels the deployment.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		DB:         cfg.Database.DB,
		Standalone: cfg.Database.Standalone,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterLineageMetrics()
	metrics.RegisterHTTPMetrics()

	// Repositories
	defs := domview.NewDefinitions(cfg.Lineage.ContactTypes)
	docRepo := documentrepo.New(store, documentrepo.WithKeyPrefix(cfg.Storage.KeyPrefix))
	viewRepo := viewrepo.New(store, docRepo, defs, viewrepo.WithKeyPrefix(cfg.Storage.KeyPrefix))
	resolver := shortcode.New(viewRepo)

	// Use case services
	docSvc := documentuc.New(docRepo, viewRepo)
	batchSvc := batchuc.New(docSvc, docSvc).WithMaxBatchSize(cfg.Lineage.MaxBatchSize)
	lineageSvc := lineageuc.New(docRepo, viewRepo, resolver)
	searchSvc := searchuc.New(planner.New(cfg.Lineage.ContactTypes), viewRepo).
		WithDefaultLimit(cfg.Search.DefaultLimit)
	healthSvc := healthuc.New(store, viewRepo)

	server := chiTransport.NewServer(docSvc, batchSvc, lineageSvc, searchSvc, healthSvc, logger).
		WithLimits(cfg.Lineage.MaxBatchSize, cfg.Search.MaxLimit)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.BodyLimitMiddleware(cfg.HTTP.MaxBodyBytes))
	r.Use(metrics.Middleware())
	chiTransport.Routes(r, server, func(w http.ResponseWriter, _ *http.Request, err error) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
			Code:    chiTransport.ErrorResponseCodeBadRequest,
			Message: err.Error(),
		})
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", chi.RouteContext(r.Context()).RoutePattern()),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
