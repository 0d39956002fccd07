package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/api"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/auth"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/cache"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/cart"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/catalog"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/checkout"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/history"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/poller"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/storage"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/webhook"
	"github.com/JoseFeliciano-spec/tienda-storefront/pkg/logger"
)

type Config struct {
	APIBaseURL      string
	RedisAddr       string
	SQLitePath      string
	MigrationsPath  string
	WebhookPort     string
	LogLevel        string
	PollInterval    time.Duration
	PollTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:3000"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		SQLitePath:      getEnv("SQLITE_PATH", "storefront.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		WebhookPort:     getEnv("WEBHOOK_PORT", "8090"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PollInterval:    3 * time.Second,
		PollTimeout:     10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	store, err := storage.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal("failed to open local store", zap.Error(err))
	}
	defer store.Close()

	if err := store.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	pageCache := cache.NewRedisCache(redisClient)

	session := auth.NewSession(ctx, store, log)
	client := api.NewClient(cfg.APIBaseURL, session, log,
		api.WithUnauthorizedHandler(session.HandleUnauthorized))

	if err := session.Refresh(ctx, client); err != nil {
		log.Warn("could not refresh persisted session", zap.Error(err))
	}

	cartSvc := cart.NewService(store, log)
	if err := cartSvc.Restore(ctx); err != nil {
		log.Warn("could not restore cart snapshot", zap.Error(err))
	}

	// Warm the first catalog and history pages so browsing opens instantly.
	// History falls back to the local purchase log when the backend is
	// unreachable.
	browser := catalog.NewBrowser(client, pageCache, log)
	if _, err := browser.Page(ctx, 1, 20); err != nil {
		log.Warn("could not preload product catalog", zap.Error(err))
	}
	viewer := history.NewViewer(client, pageCache, store, log)
	if _, err := viewer.Load(ctx); err != nil {
		log.Warn("could not preload purchase history", zap.Error(err))
	}

	statusPoller := poller.New(client, cfg.PollInterval, cfg.PollTimeout, log)
	webhookSrv := webhook.NewServer(log)

	watchCtx, stopWatches := context.WithCancel(ctx)
	defer stopWatches()
	resumePendingCheckout(watchCtx, store, statusPoller, webhookSrv, log)

	srv := &http.Server{
		Addr:    ":" + cfg.WebhookPort,
		Handler: webhookSrv.Handler(),
	}

	go func() {
		log.Info("webhook listener started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("webhook listener failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	stopWatches()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("webhook listener shutdown failed", zap.Error(err))
	}
}

// resumePendingCheckout picks up a transaction that was still awaiting its
// final status when the previous run exited, and watches it to completion.
func resumePendingCheckout(ctx context.Context, store storage.LocalStore,
	statusPoller *poller.Poller, webhookSrv *webhook.Server, log *zap.Logger) {

	progress, ok := checkout.LoadProgress(ctx, store, log)
	if !ok || !progress.Pending() {
		return
	}

	log.Info("resuming pending checkout",
		zap.String("transaction_id", progress.TransactionID),
		zap.String("reference", progress.Reference))

	sink := poller.SinkFunc(func(u domain.StatusUpdate) bool {
		if !u.Status.IsTerminal() {
			return true
		}
		log.Info("resumed checkout finished",
			zap.String("transaction_id", u.TransactionID),
			zap.String("status", u.Status.String()))
		if u.Status == domain.StatusApproved {
			if err := store.AppendPurchase(ctx, progress.Purchase(u.Status, time.Now())); err != nil {
				log.Error("failed to record resumed purchase", zap.Error(err))
			}
		}
		if err := store.Delete(ctx, storage.KeyCheckoutProgress); err != nil {
			log.Error("failed to clear checkout progress", zap.Error(err))
		}
		webhookSrv.Unregister(u.TransactionID)
		return true
	})

	webhookSrv.Register(progress.TransactionID, sink)
	go statusPoller.Watch(ctx, progress.TransactionID, sink)
}
