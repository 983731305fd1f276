package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache backends supported by the query cache.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Arxiv        ArxivConfig
	QueryCache   QueryCacheConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Metrics      MetricsConfig
	Exports      ExportsConfig
	FolderReload FolderReloadConfig
}

// ArxivConfig configures the upstream search API client.
type ArxivConfig struct {
	Endpoint    string
	Timeout     time.Duration
	MinInterval time.Duration
	UserAgent   string
}

// QueryCacheConfig controls the read-through cache in front of the search API.
type QueryCacheConfig struct {
	Enabled bool
	Backend string
	TTL     time.Duration
	Size    int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// ExportsConfig gates channel history exports.
type ExportsConfig struct {
	Enabled      bool
	CSVDelimiter string
	CSVByteOrder bool
	PDFEmphasis  string
}

// FolderReloadConfig sizes the queue used for folder-wide reloads.
type FolderReloadConfig struct {
	Workers    int
	BufferSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Arxiv = ArxivConfig{
		Endpoint:    v.GetString("ARXIV_ENDPOINT"),
		Timeout:     parseDuration(v.GetString("ARXIV_TIMEOUT"), 30*time.Second),
		MinInterval: parseDuration(v.GetString("ARXIV_MIN_INTERVAL"), 3*time.Second),
		UserAgent:   v.GetString("ARXIV_USER_AGENT"),
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("QUERY_CACHE_BACKEND")))
	if backend != CacheBackendRedis {
		backend = CacheBackendMemory
	}
	cacheSize := v.GetInt("QUERY_CACHE_SIZE")
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cfg.QueryCache = QueryCacheConfig{
		Enabled: v.GetBool("QUERY_CACHE_ENABLED"),
		Backend: backend,
		TTL:     parseDuration(v.GetString("QUERY_CACHE_TTL"), 30*time.Second),
		Size:    cacheSize,
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Exports = ExportsConfig{
		Enabled:      v.GetBool("ENABLE_EXPORTS"),
		CSVDelimiter: v.GetString("EXPORT_CSV_DELIMITER"),
		CSVByteOrder: v.GetBool("EXPORT_CSV_BOM"),
		PDFEmphasis:  v.GetString("EXPORT_PDF_EMPHASIS"),
	}

	workers := v.GetInt("FOLDER_RELOAD_WORKERS")
	if workers <= 0 {
		workers = 1
	}
	cfg.FolderReload = FolderReloadConfig{
		Workers:    workers,
		BufferSize: v.GetInt("FOLDER_RELOAD_BUFFER"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ARXIV_ENDPOINT", "https://export.arxiv.org/api/query")
	v.SetDefault("ARXIV_TIMEOUT", "30s")
	v.SetDefault("ARXIV_MIN_INTERVAL", "3s")
	v.SetDefault("ARXIV_USER_AGENT", "arxiv-channels/0.1")

	v.SetDefault("QUERY_CACHE_ENABLED", false)
	v.SetDefault("QUERY_CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("QUERY_CACHE_TTL", "30s")
	v.SetDefault("QUERY_CACHE_SIZE", 256)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_CSV_DELIMITER", ",")
	v.SetDefault("EXPORT_CSV_BOM", false)
	v.SetDefault("EXPORT_PDF_EMPHASIS", "title")

	v.SetDefault("FOLDER_RELOAD_WORKERS", 1)
	v.SetDefault("FOLDER_RELOAD_BUFFER", 64)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
