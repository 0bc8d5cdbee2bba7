package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-notifier/internal/clock"
	"checkout-notifier/internal/config"
	"checkout-notifier/internal/database"
	"checkout-notifier/internal/handler"
	"checkout-notifier/internal/metrics"
	"checkout-notifier/internal/queue"
	"checkout-notifier/internal/scheduler"
	"checkout-notifier/internal/store"
	"checkout-notifier/internal/whatsapp"
	"checkout-notifier/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	dotenvErr := godotenv.Load()

	cfg, cfgErr := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if dotenvErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}
	if cfgErr != nil {
		logger.Fatal("Config load failed", zap.Error(cfgErr))
	}

	// 1. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNew(reg)

	// 2. Pending set and task queue
	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = database.NewRedisClient(cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal("Redis init failed", zap.Error(err))
		}
		defer rdb.Close()
	}

	var pending store.Store = store.NewMemoryStore()
	if cfg.StoreBackend == config.BackendRedis {
		pending = store.NewRedisStore(rdb, cfg.StorePrefix)
	}

	var q queue.Queue = queue.NewMemoryQueue(cfg.QueueSize)
	if cfg.QueueBackend == config.BackendRedis {
		q = queue.NewRedisQueue(rdb, cfg.QueueKey, logger)
	}
	logger.Info("Backends selected",
		zap.String("store", cfg.StoreBackend),
		zap.String("queue", cfg.QueueBackend),
	)

	// 3. Dispatcher
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	client := whatsapp.NewClient(cfg.WhatsApp, nil)
	d := worker.NewDispatcher(cfg.WorkerPoolSize, q, client, m, logger)
	d.Run(workerCtx)

	// 4. Scheduler
	timers := clock.New()
	sched := scheduler.New(scheduler.Config{
		SendDelay:       cfg.SendDelay,
		Window:          cfg.Window,
		RegisterNumbers: cfg.RegisterNumbers,
	}, pending, timers, worker.NewQueueNotifier(q, logger), m, logger)

	// 5. Router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handler.RequestLogger(logger))
	handler.RegisterRoutes(r, handler.NewWebhookHandler(sched, m, logger),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// 6. HTTP server
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Server running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	// Scheduled sends and expiries are in memory only and die with the process.
	logger.Info("Discarding pending timers", zap.Int("timers", timers.Pending()))
	timers.Stop()

	workerCancel()
	d.Wait()

	logger.Info("Checkout notifier stopped gracefully")
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}
