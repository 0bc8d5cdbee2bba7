package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"checkout-notifier/internal/scheduler"
	"checkout-notifier/internal/whatsapp"

	"go.uber.org/zap/zapcore"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Port     string
	LogLevel string

	WhatsApp        whatsapp.Config
	RegisterNumbers bool

	SendDelay time.Duration
	Window    time.Duration

	StoreBackend string
	QueueBackend string
	RedisURL     string
	StorePrefix  string
	QueueKey     string

	WorkerPoolSize int
	QueueSize      int
}

// Load reads the configuration from the process environment. Call
// godotenv.Load beforehand to pick up a .env file.
func Load() (Config, error) {
	cfg := Config{
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		WhatsApp: whatsapp.Config{
			BaseURL:     getEnv("WHATSAPP_API_BASE", whatsapp.DefaultBaseURL),
			PhoneID:     os.Getenv("WHATSAPP_PHONE_ID"),
			AccessToken: os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			Template:    getEnv("WHATSAPP_TEMPLATE", whatsapp.DefaultTemplate),
			Language:    getEnv("WHATSAPP_LANGUAGE", whatsapp.DefaultLanguage),
		},
		StoreBackend: getEnv("STORE_BACKEND", BackendMemory),
		QueueBackend: getEnv("QUEUE_BACKEND", BackendMemory),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StorePrefix:  getEnv("STORE_PREFIX", "checkout_pending:"),
		QueueKey:     getEnv("QUEUE_KEY", "checkout_notifier_jobs"),
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.WhatsApp.PhoneID == "" {
		return Config{}, fmt.Errorf("WHATSAPP_PHONE_ID not set")
	}
	if cfg.WhatsApp.AccessToken == "" {
		return Config{}, fmt.Errorf("WHATSAPP_ACCESS_TOKEN not set")
	}

	var err error
	if cfg.RegisterNumbers, err = getBool("REGISTER_TEST_NUMBERS", true); err != nil {
		return Config{}, err
	}
	if cfg.SendDelay, err = getDuration("SEND_DELAY", scheduler.DefaultSendDelay); err != nil {
		return Config{}, err
	}
	if cfg.Window, err = getDuration("DEDUP_WINDOW", scheduler.DefaultWindow); err != nil {
		return Config{}, err
	}
	if cfg.WorkerPoolSize, err = getInt("WORKER_POOL_SIZE", 5); err != nil {
		return Config{}, err
	}
	if cfg.QueueSize, err = getInt("QUEUE_SIZE", 1024); err != nil {
		return Config{}, err
	}

	for name, backend := range map[string]string{"STORE_BACKEND": cfg.StoreBackend, "QUEUE_BACKEND": cfg.QueueBackend} {
		if backend != BackendMemory && backend != BackendRedis {
			return Config{}, fmt.Errorf("%s must be %q or %q, got %q", name, BackendMemory, BackendRedis, backend)
		}
	}

	return cfg, nil
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c Config) UsesRedis() bool {
	return c.StoreBackend == BackendRedis || c.QueueBackend == BackendRedis
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s: must be at least 1", key)
	}
	return n, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
