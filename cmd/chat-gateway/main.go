// cmd/chat-gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ziyara-stream/internal/api"
	"ziyara-stream/internal/common/config"
	"ziyara-stream/internal/common/database"
	"ziyara-stream/internal/common/logger"
	"ziyara-stream/internal/common/observability"
	"ziyara-stream/internal/search"
	"ziyara-stream/internal/store"
	"ziyara-stream/internal/stream"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chat gateway...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("chat-gateway")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis initialization")
	if err != nil {
		zapLog.Fatal("Redis unavailable", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Init Elasticsearch (optional) ---
	var indexer *search.Indexer
	if cfg.Search.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return esClient.Ping(pingCtx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch initialization")
		if err != nil {
			// Search is an enhancement, not a dependency: the gateway runs
			// without it and conversations simply stay unindexed.
			zapLog.Warn("Elasticsearch unavailable, search indexing disabled", zap.Error(err))
		} else {
			indexer = search.NewIndexer(esClient, cfg.Database.Elasticsearch.Index, log)
		}
	}

	handlers := api.New(
		cfg,
		log,
		stream.NewConsumer(cfg.Stream.MaxBufferBytes, log),
		store.NewConversationStore(redisClient, log),
		store.NewWidgetStateStore(redisClient, log),
		indexer,
		obs,
	)

	mux := http.NewServeMux()
	handlers.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	// The pprof blank import registers on the default mux only.
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Ping(r.Context()); err != nil {
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     mux,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		// No WriteTimeout: SSE responses stay open for the whole stream.
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down chat gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	zapLog.Info("Chat gateway stopped")
}
