package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	StorageLocal = "local"
	StorageGCS   = "gcs"
	StorageS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Store
	StoreDriver       string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Session
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
	CORSOrigin   string

	// Media
	StorageBackend     string
	UploadDir          string
	PublicBaseURL      string
	GCSBucket          string
	GCSCredentialsFile string
	S3Region           string
	S3Bucket           string
	ImageMaxDimension  int
	ImageJPEGQuality   int
	ImageMaxPixels     int64
	MaxUploadBytes     int64

	// Push notifications, disabled when empty
	FirebaseCredentialsPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8000"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:          getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:          getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime:       getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:               getEnv("SECRET_KEY", ""),
		TokenTTL:                getEnvDuration("TOKEN_TTL", 24*time.Hour),
		CookieSecure:            getEnvBool("COOKIE_SECURE", false),
		CORSOrigin:              getEnv("CORS_ORIGIN", "http://localhost:5173"),
		StorageBackend:          strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		UploadDir:               getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:           strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8000"), "/"),
		GCSBucket:               getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile:      getEnv("GCS_CREDENTIALS_FILE", ""),
		S3Region:                getEnv("S3_REGION", ""),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		ImageMaxDimension:       getEnvInt("IMAGE_MAX_DIMENSION", 800),
		ImageJPEGQuality:        getEnvInt("IMAGE_JPEG_QUALITY", 80),
		ImageMaxPixels:          int64(getEnvInt("IMAGE_MAX_PIXELS", 40_000_000)),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for local storage")
		}
	case StorageGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for gcs storage")
		}
	case StorageS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return fmt.Errorf("S3_BUCKET and S3_REGION are required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.ImageMaxDimension <= 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must be positive")
	}
	if c.ImageJPEGQuality < 1 || c.ImageJPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be between 1 and 100")
	}
	if c.ImageMaxPixels <= 0 {
		return fmt.Errorf("IMAGE_MAX_PIXELS must be positive")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
