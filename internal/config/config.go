package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	AWS       AWSConfig
	JWT       JWTConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
	Admin     AdminConfig
	Scheduler SchedulerConfig
	Cache     CacheConfig
	TTS       TTSConfig
	Extractor ExtractorConfig
	Filestore FilestoreConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// DatabaseConfig points at the shared SQLite file every store and the
// local-library tables are opened against (internal/store, internal/library).
type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

type MetricsConfig struct {
	Enabled bool
	Port    string
}

type AdminConfig struct {
	Username string
	Password string
}

// SchedulerConfig tunes S's pre-fetch lead time; the daily maintenance
// window and chat retention period are fixed in internal/scheduler
// (MaintenanceWindow, ChatRetention) since nothing in SPEC_FULL.md needs
// them to vary per deployment.
type SchedulerConfig struct {
	PrefetchLeadMinutes int
}

// CacheConfig tunes the resolved-stream-URL TTL cache (internal/cache).
type CacheConfig struct {
	StreamURLTTL time.Duration
}

// TTSConfig configures the announcement speech-synthesis backend
// (internal/tts).
type TTSConfig struct {
	Endpoint string
	APIKey   string
	CacheDir string
}

// ExtractorConfig configures the external stream resolver
// (internal/extractor).
type ExtractorConfig struct {
	YtDlpPath string
}

// FilestoreConfig selects and configures the audio-file backend
// (internal/filestore) used for offline-fallback playback.
type FilestoreConfig struct {
	Backend  string
	LocalDir string
}

// Load attempts to load environment variables from .env file
// and falls back to system environment variables if not found
func Load() *Config {
	// Try to load .env file from different possible locations
	envFiles := []string{
		".env",                      // root directory
		"../.env",                   // one level up
		filepath.Join("..", ".env"), // using filepath for cross-platform compatibility
	}

	var envLoaded bool
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			log.Printf("Loaded environment from %s", envFile)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("S3_BUCKET_NAME", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 24*time.Hour),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/radio.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("ENABLE_METRICS", true),
			Port:    getEnv("METRICS_PORT", "9090"),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "admin"),
		},
		Scheduler: SchedulerConfig{
			PrefetchLeadMinutes: getIntEnv("PREFETCH_LEAD_MINUTES", 5),
		},
		Cache: CacheConfig{
			StreamURLTTL: getDurationEnv("STREAM_URL_CACHE_TTL", 5*time.Minute),
		},
		TTS: TTSConfig{
			Endpoint: getEnv("TTS_ENDPOINT", ""),
			APIKey:   getEnv("TTS_API_KEY", ""),
			CacheDir: getEnv("TTS_CACHE_DIR", "./data/tts-cache"),
		},
		Extractor: ExtractorConfig{
			YtDlpPath: getEnv("YTDLP_PATH", "yt-dlp"),
		},
		Filestore: FilestoreConfig{
			Backend:  getEnv("FILESTORE_BACKEND", "local"),
			LocalDir: getEnv("FILESTORE_LOCAL_DIR", "./data"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
