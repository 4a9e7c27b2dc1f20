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
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	cacheredis "github.com/endee-cloud/ragdex/internal/cache/redis"
	"github.com/endee-cloud/ragdex/internal/chunk"
	"github.com/endee-cloud/ragdex/internal/config"
	"github.com/endee-cloud/ragdex/internal/domain"
	geminigen "github.com/endee-cloud/ragdex/internal/generator/gemini"
	openaigen "github.com/endee-cloud/ragdex/internal/generator/openai"
	staticgen "github.com/endee-cloud/ragdex/internal/generator/static"
	logpkg "github.com/endee-cloud/ragdex/internal/logger"
	"github.com/endee-cloud/ragdex/internal/metrics"
	"github.com/endee-cloud/ragdex/internal/repository/embcache"
	"github.com/endee-cloud/ragdex/internal/store/endee"
	chiTransport "github.com/endee-cloud/ragdex/internal/transport/chi"
	openaiEmb "github.com/endee-cloud/ragdex/internal/transport/openai"
	healthuc "github.com/endee-cloud/ragdex/internal/usecase/health"
	indexuc "github.com/endee-cloud/ragdex/internal/usecase/index"
	ingestuc "github.com/endee-cloud/ragdex/internal/usecase/ingest"
	raguc "github.com/endee-cloud/ragdex/internal/usecase/rag"
	"github.com/endee-cloud/ragdex/internal/version"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

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

	logger.Info("Starting ragdex API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_url", cfg.Store.BaseURL),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	store := endee.NewClient(endee.Config{
		BaseURL: cfg.Store.BaseURL,
		Timeout: time.Duration(cfg.Store.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		// The store may come up after us; the health endpoint reports it.
		logger.Warn("Vector store not reachable at startup", zap.Error(err))
	} else {
		logger.Info("Connected to vector store")
	}

	// Embedder chain: base provider, optionally wrapped with the cache.
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled {
		cache, err := cacheredis.NewStore(cacheredis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, 10*time.Second); err != nil {
			logger.Fatal("Embedding cache not ready", zap.Error(err))
		}
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		embedder = embcache.New(base, cache, ttl, metrics.EmbeddingCacheTotal, logger)
		cachePinger = cache
		logger.Info("Embedding cache enabled",
			zap.Strings("addrs", cfg.Cache.Addrs),
			zap.Duration("ttl", ttl),
		)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator := buildGenerator(ctx, &cfg, logger)

	chunker := buildChunker(cfg.Chunking)

	// Use case services
	indexSvc := indexuc.New(store, embedder, logger)
	ingestSvc := ingestuc.New(store, embedder, chunker, logger)
	ragSvc := raguc.New(store, embedder, generator, raguc.Options{
		DefaultTopK: cfg.Search.DefaultTopK,
		MaxTopK:     cfg.Search.MaxTopK,
	}, logger)
	// Pass nil interface when no provider is configured so the health report
	// omits the embedding check instead of flagging it down.
	var embChecker healthuc.EmbeddingChecker
	if cfg.Embedding.APIKey != "" {
		embChecker = base
	}
	healthSvc := healthuc.New(store, embChecker, cachePinger)

	server := chiTransport.NewServer(indexSvc, ingestSvc, ragSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.AllowAll().Handler)
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

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

// buildGenerator selects the answer generation backend. Missing credentials
// degrade to the static generator instead of failing startup, so retrieval
// endpoints keep working without an LLM.
func buildGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) raguc.Generator {
	provider := cfg.Generator.Provider
	if cfg.Generator.APIKey == "" && provider != "stub" {
		logger.Warn("No generator API key configured, answers will be placeholders",
			zap.String("provider", provider))
		provider = "stub"
	}

	switch provider {
	case "openai":
		return openaigen.New(&openaigen.Config{
			APIKey:  cfg.Generator.APIKey,
			BaseURL: cfg.Generator.BaseURL,
			Model:   cfg.Generator.Model,
			Logger:  logger,
		})
	case "gemini":
		gen, err := geminigen.New(ctx, &geminigen.Config{
			APIKey: cfg.Generator.APIKey,
			Model:  cfg.Generator.Model,
			Logger: logger,
		})
		if err != nil {
			logger.Fatal("Failed to create gemini generator", zap.Error(err))
		}
		return gen
	default:
		return staticgen.New()
	}
}

func buildChunker(cfg config.ChunkingConfig) chunk.Chunker {
	if cfg.Strategy == "paragraphs" {
		return chunk.Paragraphs{MaxChunks: cfg.MaxChunks}
	}
	return chunk.Window{Size: cfg.Size, Overlap: cfg.Overlap}
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
