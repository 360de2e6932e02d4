package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all runtime settings. Everything has a default so the binary
// starts with no environment at all.
type Config struct {
	HTTPPort string

	// DataDir is the directory of the JSON file store. Ignored when
	// PostgresDSN is set.
	DataDir     string
	PostgresDSN string

	// KafkaBrokers empty means audit entries go to the console producer.
	KafkaBrokers []string
	KafkaTopic   string

	AuditWorkers      int
	AuditBatchSize    int
	AuditFlushTimeout time.Duration

	// AllowReopen permits the finished -> active status transition.
	AllowReopen bool
}

// Load reads configuration from the environment, trying .env files in the
// working directory and its parents first.
func Load(logger *zap.Logger) *Config {
	loadEnv(logger)

	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "9000"),
		DataDir:           getEnv("DATA_DIR", "data"),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		KafkaBrokers:      getEnvList("KAFKA_BROKERS"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "dispatch_audit"),
		AuditWorkers:      getEnvInt("AUDIT_WORKERS", 2),
		AuditBatchSize:    getEnvInt("AUDIT_BATCH_SIZE", 5),
		AuditFlushTimeout: getEnvDuration("AUDIT_FLUSH_TIMEOUT", 500*time.Millisecond),
		AllowReopen:       getEnvBool("ALLOW_REOPEN", false),
	}
}

func loadEnv(logger *zap.Logger) {
	wd, err := os.Getwd()
	if err != nil {
		logger.Warn("failed to resolve working directory", zap.Error(err))
		return
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			logger.Info("loaded environment variables", zap.String("path", envPath))
			return
		}
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
