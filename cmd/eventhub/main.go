// cmd/eventhub/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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

	"github.com/redis/go-redis/v9"

	"github.com/MariferVL/eventhub/internal/cache"
	"github.com/MariferVL/eventhub/internal/config"
	"github.com/MariferVL/eventhub/internal/database"
	"github.com/MariferVL/eventhub/internal/handler"
	"github.com/MariferVL/eventhub/internal/logger"
	"github.com/MariferVL/eventhub/internal/metrics"
	"github.com/MariferVL/eventhub/internal/notify"
	"github.com/MariferVL/eventhub/internal/repository"
	"github.com/MariferVL/eventhub/internal/service"
	"github.com/MariferVL/eventhub/internal/token"
)

func main() {
	log := logger.New()
	cfg := config.Load()
	ctx := context.Background()

	// ── 1. Storage backend ───────────────────────────────────────────────
	var (
		eventRepo repository.EventRepository
		resRepo   repository.ReservationRepository
		userRepo  repository.UserRepository
		leakLog   repository.LeakLog
	)
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory storage, data will not survive a restart")
		eventRepo = repository.NewMemoryEventRepository()
		resRepo = repository.NewMemoryReservationRepository()
		userRepo = repository.NewMemoryUserRepository()
		leakLog = repository.NewMemoryLeakLog()
	default:
		pool, err := database.NewPool(ctx)
		if err != nil {
			log.Error("database unavailable", logger.Err(err))
			os.Exit(1)
		}
		defer pool.Close()
		log.Info("connected to postgres")
		eventRepo = repository.NewPostgresEventRepository(pool)
		resRepo = repository.NewPostgresReservationRepository(pool)
		userRepo = repository.NewPostgresUserRepository(pool)
		leakLog = repository.NewPostgresLeakLog(pool)
	}

	// ── 2. Redis-backed cache and notification sink ──────────────────────
	var (
		eventCache *cache.EventCache
		notifier   notify.Notifier = notify.Nop{}
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, cache disabled", logger.Err(err))
		} else {
			eventCache = cache.New(rdb, cfg.CacheTTL)
			if cfg.Notifier == config.NotifierRedis {
				notifier = notify.NewRedisNotifier(rdb, "")
			}
		}
	}
	if cfg.Notifier == config.NotifierKafka {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kn.Close()
		notifier = kn
	}

	// ── 3. Services ──────────────────────────────────────────────────────
	m := metrics.New()
	tokens := token.NewManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authSvc := service.NewAuthService(log, userRepo, tokens)
	eventSvc := service.NewEventService(eventRepo, resRepo, eventCache)
	resSvc := service.NewReservationService(log, eventRepo, resRepo, leakLog, notifier, eventCache, m)
	userSvc := service.NewUserService(userRepo)

	// ── 4. Router ────────────────────────────────────────────────────────
	router := handler.NewRouter(handler.RouterConfig{
		Logger:       log,
		Auth:         authSvc,
		Events:       eventSvc,
		Reservations: resSvc,
		Users:        userSvc,
		Tokens:       tokens,
		Metrics:      m.Handler(),
	})

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", logger.Err(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}
