package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultDatabasePath = "roster_tagging.db"
	DefaultGeminiModel  = "gemini-1.5-flash"
	DefaultListenAddr   = ":8080"
)

const (
	defaultTagTimeout        = 60 * time.Second
	defaultTagRetryBackoff   = 2 * time.Second
	defaultTagMaxImageSize   = 1536
	defaultTagWorkers        = 1
	defaultRequestsPerSecond = 0 // unlimited
)

type Config struct {
	// source directory (where roster files are scanned)
	RootDirectory string

	// database path and GORM log verbosity
	DatabasePath string
	DBLogLevel   string

	// vision tagging service; an empty key switches the client to mock mode
	GeminiAPIKey      string
	GeminiModel       string
	TagTimeout        time.Duration // per remote call
	TagRetryBackoff   time.Duration // pause before the single retry
	TagMaxImageSize   int           // longest side in px before upload
	RequestsPerSecond float64       // 0 disables rate limiting

	// batch settings
	TagWorkers    int
	TagBatchLimit int // 0 means every untagged image

	// http server
	ListenAddr         string
	CORSAllowedOrigins []string
}

// MockMode reports whether no tagging credential is configured.
func (c Config) MockMode() bool {
	return strings.TrimSpace(c.GeminiAPIKey) == ""
}

func getIntOrDefault(v *viper.Viper, key string, defaultVal int, allowZero bool) int {
	valStr := strings.TrimSpace(v.GetString(key))
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 || (val == 0 && !allowZero) {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", key, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getFloatOrDefault(v *viper.Viper, key string, defaultVal float64) float64 {
	valStr := strings.TrimSpace(v.GetString(key))
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", key, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getDurationOrDefault(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	valStr := strings.TrimSpace(v.GetString(key))
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %s. Error: %v", key, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig resolves the configuration from the global viper instance,
// which sees flags bound by the CLI, then the environment, then defaults.
func LoadConfig() (Config, error) {
	return Load(viper.GetViper())
}

// Load resolves the configuration from v.
func Load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	v.SetDefault("ROOT_DIRECTORY", ".")
	v.SetDefault("DATABASE_PATH", DefaultDatabasePath)
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("GEMINI_MODEL", DefaultGeminiModel)
	v.SetDefault("LISTEN_ADDR", DefaultListenAddr)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	root := v.GetString("ROOT_DIRECTORY")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for root directory '%s': %w", root, err)
	}

	cfg := Config{
		RootDirectory:      absRoot,
		DatabasePath:       v.GetString("DATABASE_PATH"),
		DBLogLevel:         strings.ToLower(v.GetString("DB_LOG_LEVEL")),
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		GeminiModel:        v.GetString("GEMINI_MODEL"),
		TagTimeout:         getDurationOrDefault(v, "TAG_TIMEOUT", defaultTagTimeout),
		TagRetryBackoff:    getDurationOrDefault(v, "TAG_RETRY_BACKOFF", defaultTagRetryBackoff),
		TagMaxImageSize:    getIntOrDefault(v, "TAG_MAX_IMAGE_SIZE", defaultTagMaxImageSize, false),
		RequestsPerSecond:  getFloatOrDefault(v, "TAG_REQUESTS_PER_SECOND", defaultRequestsPerSecond),
		TagWorkers:         getIntOrDefault(v, "TAG_WORKERS", defaultTagWorkers, false),
		TagBatchLimit:      getIntOrDefault(v, "TAG_BATCH_LIMIT", 0, true),
		ListenAddr:         v.GetString("LISTEN_ADDR"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.DatabasePath == "" {
		return Config{}, fmt.Errorf("DATABASE_PATH must not be empty")
	}

	return cfg, nil
}
