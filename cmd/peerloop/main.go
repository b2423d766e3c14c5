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

	"github.com/peerloop/peerloop/internal/config"
	dbRedis "github.com/peerloop/peerloop/internal/db/redis"
	"github.com/peerloop/peerloop/internal/domain"
	logpkg "github.com/peerloop/peerloop/internal/logger"
	"github.com/peerloop/peerloop/internal/metrics"
	"github.com/peerloop/peerloop/internal/repository/embcache"
	friendreqrepo "github.com/peerloop/peerloop/internal/repository/friendreq"
	grouprepo "github.com/peerloop/peerloop/internal/repository/group"
	profilerepo "github.com/peerloop/peerloop/internal/repository/profile"
	chatTransport "github.com/peerloop/peerloop/internal/transport/chat"
	"github.com/peerloop/peerloop/internal/transport/httpapi"
	openaiEmb "github.com/peerloop/peerloop/internal/transport/openai"
	embeddinguc "github.com/peerloop/peerloop/internal/usecase/embedding"
	friendsuc "github.com/peerloop/peerloop/internal/usecase/friends"
	groupsuc "github.com/peerloop/peerloop/internal/usecase/groups"
	healthuc "github.com/peerloop/peerloop/internal/usecase/health"
	matchuc "github.com/peerloop/peerloop/internal/usecase/match"
	similarityuc "github.com/peerloop/peerloop/internal/usecase/similarity"
	"github.com/peerloop/peerloop/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting peerloop API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRankingMetrics()

	// Base embedding provider. Construction is cheap; the readiness
	// round-trip happens lazily inside the provider's load function.
	baseEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	cacheTTL := time.Duration(cfg.Storage.EmbeddingCacheTTLHours) * time.Hour
	loadModel := func(ctx context.Context) (domain.BatchEmbedder, error) {
		if err := baseEmbedder.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("embedding provider not ready: %w", err)
		}
		cached := embcache.New(baseEmbedder, store, metrics.EmbeddingCacheTotal, logger).WithTTL(cacheTTL)
		return cached, nil
	}

	provider := embeddinguc.NewProvider(
		loadModel,
		time.Duration(cfg.Embedding.LoadTimeoutSec)*time.Second,
		logger,
	)
	scorer := similarityuc.New(
		provider,
		time.Duration(cfg.Embedding.SimilarityTimeoutSec)*time.Second,
		logger,
	)
	logger.Info("Embedding provider configured",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Chat collaborator
	chatClient := chatTransport.NewClient(chatTransport.Config{
		BaseURL: cfg.Chat.BaseURL,
		APIKey:  cfg.Chat.APIKey,
		Timeout: time.Duration(cfg.Chat.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Repositories
	profileRepo := profilerepo.New(store)
	groupRepo := grouprepo.New(store)
	requestRepo := friendreqrepo.New(store)

	// Use case services
	matchSvc := matchuc.New(profileRepo, scorer, logger)
	groupSvc := groupsuc.New(groupRepo, profileRepo, chatClient, logger)
	friendSvc := friendsuc.New(requestRepo, profileRepo, logger)
	healthSvc := healthuc.New(store, baseEmbedder, chatClient)

	server := httpapi.NewServer(matchSvc, groupSvc, friendSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
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
